package platform

import (
	"context"
	"sync"
)

// FakeClient is a deterministic Client for tests and DB-less development.
// Outcomes are scripted per file name; unscripted uploads succeed.
type FakeClient struct {
	mu       sync.Mutex
	Failures map[string]error
	Uploads  []UploadRequest
}

// NewFakeClient constructs a FakeClient with no scripted failures.
func NewFakeClient() *FakeClient {
	return &FakeClient{Failures: map[string]error{}}
}

// FailWith scripts an error for uploads of the given file name.
func (f *FakeClient) FailWith(fileName string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Failures[fileName] = err
}

// Upload records the request and returns the scripted outcome.
func (f *FakeClient) Upload(ctx context.Context, req UploadRequest) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Uploads = append(f.Uploads, req)
	if err, ok := f.Failures[req.FileName]; ok {
		return 1, err
	}
	return 1, nil
}

var _ Client = (*FakeClient)(nil)
