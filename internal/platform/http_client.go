package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"compliance-backend/internal/shared/telemetry"
)

const (
	defaultAttemptTimeout = 30 * time.Second
	defaultMaxAttempts    = 3
	retryBaseDelay        = 500 * time.Millisecond
)

// HTTPClient uploads documents to a portal's ingest endpoint over HTTP.
// Each attempt carries a bounded timeout; transient failures are retried
// with exponential backoff up to a small budget.
type HTTPClient struct {
	BaseURLs       map[Type]string
	HTTP           *http.Client
	AttemptTimeout time.Duration
	MaxAttempts    int
}

// NewHTTPClient constructs a client for the given portal base URLs.
func NewHTTPClient(baseURLs map[Type]string) *HTTPClient {
	return &HTTPClient{
		BaseURLs:       baseURLs,
		HTTP:           &http.Client{},
		AttemptTimeout: defaultAttemptTimeout,
		MaxAttempts:    defaultMaxAttempts,
	}
}

// Upload pushes the document, retrying transient failures. The attempt count
// includes the first try.
func (c *HTTPClient) Upload(ctx context.Context, req UploadRequest) (int, error) {
	baseURL, ok := c.BaseURLs[req.Platform]
	if !ok || baseURL == "" {
		return 0, fmt.Errorf("%w: no endpoint configured for platform %s", ErrUploadFailed, req.Platform)
	}

	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := retryBaseDelay << (attempt - 2)
			telemetry.Info("portal.upload_retry", map[string]any{
				"platform": req.Platform.String(),
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
				"err":      lastErr.Error(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return attempt - 1, ctx.Err()
			}
		}

		err := c.attempt(ctx, baseURL, req)
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		if !shouldRetry(err) {
			return attempt, err
		}
	}
	return maxAttempts, lastErr
}

func (c *HTTPClient) attempt(ctx context.Context, baseURL string, req UploadRequest) error {
	timeout := c.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", req.FileName)
	if err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, baseURL+"/documents", &body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.SetBasicAuth(req.Username, req.Password)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrUploadTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: portal returned %d", ErrUploadFailed, resp.StatusCode)
	default:
		return fmt.Errorf("%w: portal rejected upload with %d", ErrUploadFailed, resp.StatusCode)
	}
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUploadTimeout) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// 5xx responses are transient; 4xx rejections are not.
	if errors.Is(err, ErrUploadFailed) {
		return isServerSide(err)
	}
	return false
}

func isServerSide(err error) bool {
	return strings.Contains(err.Error(), "portal returned")
}

var _ Client = (*HTTPClient)(nil)
