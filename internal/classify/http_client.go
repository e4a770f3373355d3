package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const classifyTimeout = 10 * time.Second

// HTTPClient calls the external classification service. Requests are
// authenticated with OAuth2 client credentials.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient constructs a client for the classification service. When
// clientID is empty the service is called unauthenticated (dev setups).
func NewHTTPClient(ctx context.Context, baseURL, clientID, clientSecret, tokenURL string) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("classifier base url is required")
	}

	httpClient := &http.Client{Timeout: classifyTimeout}
	if clientID != "" {
		cfg := clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		}
		httpClient = cfg.Client(ctx)
		httpClient.Timeout = classifyTimeout
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}, nil
}

// Classify sends the file to the classifier and returns its category.
func (c *HTTPClient) Classify(ctx context.Context, data []byte, fileName, mimeType string) (Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return Result{}, fmt.Errorf("build classify form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return Result{}, fmt.Errorf("build classify form: %w", err)
	}
	if err := writer.WriteField("mimeType", mimeType); err != nil {
		return Result{}, fmt.Errorf("build classify form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("build classify form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", &body)
	if err != nil {
		return Result{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("classify call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("classify call: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("classify call: read: %w", err)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, fmt.Errorf("classify call: decode: %w", err)
	}
	if strings.TrimSpace(result.Category) == "" {
		result.Category = FallbackCategory
	}
	return result, nil
}

var _ Client = (*HTTPClient)(nil)
