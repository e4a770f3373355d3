package object

import (
	"context"
	"io"
	"time"
)

// ObjectStore defines the contract for saving and retrieving binary objects
// under caller-chosen hierarchical keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// SignedURL returns a time-limited download URL, or "" when the backend
	// cannot produce one (e.g. local filesystem).
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Ping verifies the backing bucket or directory is reachable.
	Ping(ctx context.Context) error
}
