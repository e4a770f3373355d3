package platform

import (
	"context"
	"errors"
)

var (
	// ErrUploadTimeout indicates the portal did not answer within the
	// per-attempt deadline, after the retry budget was spent.
	ErrUploadTimeout = errors.New("portal upload timeout")

	// ErrUploadFailed indicates the portal rejected the upload.
	ErrUploadFailed = errors.New("portal upload failed")
)

// UploadRequest carries everything needed to push one document to a portal.
type UploadRequest struct {
	Platform Type
	Username string
	Password string
	FileName string
	MimeType string
	Content  []byte
}

// Client pushes documents to an external portal. Implementations must carry
// a bounded timeout; the returned attempt count includes the first try so
// callers can account retries toward retry budgets.
type Client interface {
	Upload(ctx context.Context, req UploadRequest) (attempts int, err error)
}
