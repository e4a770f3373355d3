package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClassifyParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("mimeType"); got != "application/pdf" {
			t.Errorf("unexpected mimeType field: %s", got)
		}
		_ = json.NewEncoder(w).Encode(Result{Category: "CERTIFICATE", Confidence: 0.93})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(context.Background(), srv.URL, "", "", "")
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}

	result, err := client.Classify(context.Background(), []byte("%PDF-1.4"), "cert.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Category != "CERTIFICATE" || result.Confidence != 0.93 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestClassifyErrorsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(context.Background(), srv.URL, "", "", "")
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}

	if _, err := client.Classify(context.Background(), []byte("x"), "a.pdf", "application/pdf"); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestFallback(t *testing.T) {
	result := Fallback()
	if result.Category != FallbackCategory || result.Confidence != 0 {
		t.Fatalf("unexpected fallback: %+v", result)
	}
}
