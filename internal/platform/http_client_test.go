package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testRequest() UploadRequest {
	return UploadRequest{
		Platform: Nalanda,
		Username: "operator",
		Password: "secret",
		FileName: "cert.pdf",
		MimeType: "application/pdf",
		Content:  []byte("%PDF-1.4"),
	}
}

func newTestClient(url string) *HTTPClient {
	c := NewHTTPClient(map[Type]string{Nalanda: url})
	c.AttemptTimeout = 2 * time.Second
	return c
}

func TestUploadRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "operator" || pass != "secret" {
			t.Errorf("missing or wrong basic auth: %s/%s", user, pass)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	attempts, err := newTestClient(srv.URL).Upload(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestUploadDoesNotRetryRejections(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	attempts, err := newTestClient(srv.URL).Upload(context.Background(), testRequest())
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if attempts != 1 || calls.Load() != 1 {
		t.Fatalf("expected a single attempt for a 4xx, got attempts=%d calls=%d", attempts, calls.Load())
	}
}

func TestUploadGivesUpAfterBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	client.MaxAttempts = 2

	attempts, err := client.Upload(context.Background(), testRequest())
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestUploadUnknownPlatform(t *testing.T) {
	client := NewHTTPClient(map[Type]string{})
	req := testRequest()
	if _, err := client.Upload(context.Background(), req); !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed for unconfigured platform, got %v", err)
	}
}

func TestParse(t *testing.T) {
	if got, err := Parse(" Nalanda "); err != nil || got != Nalanda {
		t.Fatalf("Parse nalanda: got %q err %v", got, err)
	}
	if _, err := Parse("procore"); err == nil {
		t.Fatalf("expected error for unknown platform")
	}
	if !SiteDocs.Valid() {
		t.Fatalf("expected sitedocs to be valid")
	}
}
