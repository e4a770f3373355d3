package credentials

import (
	"context"

	"compliance-backend/internal/platform"
)

// Repo defines persistence for platform credentials.
type Repo interface {
	// Upsert saves the credential, overwriting any existing row with the
	// same (tenant, platform, alias).
	Upsert(ctx context.Context, cred Credential) error
	// Get returns the credential or nil when none is configured. Absence is
	// an expected state, not an error.
	Get(ctx context.Context, tenantID string, platformType platform.Type, alias string) (*Credential, error)
	ListForTenant(ctx context.Context, tenantID string) ([]Credential, error)
}
