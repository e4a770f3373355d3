package credentials

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/audit"
	"compliance-backend/internal/platform"
)

// Service contains vault business logic. Passwords cross the Repo boundary
// only as ciphertext.
type Service struct {
	Repo   Repo
	Cipher *Cipher
	Audit  *audit.Logger
}

// Save upserts a credential for (tenant, platform, alias). Re-saving the
// same alias overwrites rather than duplicates.
func (s *Service) Save(ctx context.Context, tenantID string, platformType platform.Type, username, password, alias string) error {
	if tenantID == "" || username == "" || password == "" {
		return fmt.Errorf("%w: tenant, username and password are required", ErrInvalidInput)
	}
	if !platformType.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, platformType)
	}
	alias = strings.TrimSpace(alias)
	if alias == "" {
		alias = DefaultAlias
	}

	encrypted, err := s.Cipher.Encrypt(password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	cred := Credential{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Platform:  platformType,
		Alias:     alias,
		Username:  username,
		Password:  encrypted,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Upsert(ctx, cred); err != nil {
		return err
	}

	s.Audit.LogEvent(ctx, tenantID, audit.ActionCredentialSaved, "credential", &cred.ID, map[string]any{
		"platform": platformType.String(),
		"alias":    alias,
	})
	return nil
}

// Get returns the credential with the password decrypted, or nil when no
// credential is configured. Callers must treat nil as a distinct, expected
// state rather than an error.
func (s *Service) Get(ctx context.Context, tenantID string, platformType platform.Type, alias string) (*Credential, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		alias = DefaultAlias
	}

	cred, err := s.Repo.Get(ctx, tenantID, platformType, alias)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, nil
	}

	plaintext, err := s.Cipher.Decrypt(cred.Password)
	if err != nil {
		return nil, err
	}
	cred.Password = plaintext
	return cred, nil
}

// ListForTenant lists the tenant's credentials with passwords redacted.
func (s *Service) ListForTenant(ctx context.Context, tenantID string) ([]Credential, error) {
	creds, err := s.Repo.ListForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range creds {
		creds[i].Password = ""
	}
	return creds, nil
}

// MarkValidated records a successful use of the credential on its portal.
func (s *Service) MarkValidated(ctx context.Context, cred *Credential) error {
	if cred == nil {
		return nil
	}
	now := time.Now().UTC()
	cred.State = StateReady
	cred.LastValidatedAt = &now

	encrypted, err := s.Cipher.Encrypt(cred.Password)
	if err != nil {
		return err
	}
	stored := *cred
	stored.Password = encrypted
	stored.UpdatedAt = now
	return s.Repo.Upsert(ctx, stored)
}
