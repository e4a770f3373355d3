package credentials

import (
	"context"
	"strings"
	"testing"

	"compliance-backend/internal/audit"
	"compliance-backend/internal/platform"
)

func testService(t *testing.T) *Service {
	t.Helper()
	cipher, err := NewCipherFromHex(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("NewCipherFromHex: %v", err)
	}
	return &Service{
		Repo:   NewMemoryRepo(),
		Cipher: cipher,
		Audit:  audit.NewLogger(audit.NewMemoryRepo()),
	}
}

func TestCipherRoundTrip(t *testing.T) {
	cipher, err := NewCipherFromHex(strings.Repeat("cd", 32))
	if err != nil {
		t.Fatalf("NewCipherFromHex: %v", err)
	}

	sealed, err := cipher.Encrypt("hunter2")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !strings.HasPrefix(sealed, "v1:") {
		t.Fatalf("expected version prefix, got %s", sealed)
	}
	if strings.Contains(sealed, "hunter2") {
		t.Fatalf("ciphertext leaks plaintext")
	}

	opened, err := cipher.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if opened != "hunter2" {
		t.Fatalf("round trip mismatch: %s", opened)
	}

	if _, err := cipher.Decrypt("v1:not-base64!!"); err == nil {
		t.Fatalf("expected error for damaged ciphertext")
	}
}

func TestCipherRejectsShortKey(t *testing.T) {
	if _, err := NewCipher([]byte("short")); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if err := svc.Save(ctx, "tenant-1", platform.Nalanda, "u", "p", ""); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cred, err := svc.Get(ctx, "tenant-1", platform.Nalanda, "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cred == nil {
		t.Fatalf("expected credential, got nil")
	}
	if cred.Username != "u" || cred.Password != "p" {
		t.Fatalf("round trip mismatch: %s/%s", cred.Username, cred.Password)
	}
	if cred.Alias != DefaultAlias {
		t.Fatalf("expected default alias, got %s", cred.Alias)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	svc := testService(t)

	cred, err := svc.Get(context.Background(), "tenant-1", platform.Veriforce, "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cred != nil {
		t.Fatalf("expected nil for missing credential, got %+v", cred)
	}
}

func TestSaveUpsertsByAlias(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if err := svc.Save(ctx, "tenant-1", platform.Nalanda, "old-user", "old-pass", "primary"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := svc.Save(ctx, "tenant-1", platform.Nalanda, "new-user", "new-pass", "primary"); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}

	creds, err := svc.ListForTenant(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("ListForTenant: %v", err)
	}
	if len(creds) != 1 {
		t.Fatalf("expected 1 credential after re-save, got %d", len(creds))
	}
	if creds[0].Password != "" {
		t.Fatalf("list must redact passwords")
	}

	cred, err := svc.Get(ctx, "tenant-1", platform.Nalanda, "primary")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cred.Username != "new-user" || cred.Password != "new-pass" {
		t.Fatalf("expected overwritten credential, got %s/%s", cred.Username, cred.Password)
	}
}

func TestSaveValidatesInput(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if err := svc.Save(ctx, "", platform.Nalanda, "u", "p", ""); err == nil {
		t.Fatalf("expected error for missing tenant")
	}
	if err := svc.Save(ctx, "tenant-1", platform.Type("procore"), "u", "p", ""); err == nil {
		t.Fatalf("expected error for unknown platform")
	}
}
