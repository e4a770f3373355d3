package util

import "testing"

func TestContentHashStable(t *testing.T) {
	a := ContentHash([]byte("hello world"))
	b := ContentHash([]byte("hello world"))
	if a != b {
		t.Fatalf("same bytes produced different hashes: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if got := ContentHash([]byte("hello worlds")); got == a {
		t.Fatalf("different bytes produced same hash")
	}
}
