package credentials

import (
	"context"
	"database/sql"
	"errors"

	"compliance-backend/internal/platform"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert saves a credential, overwriting on the (tenant, platform, alias) key.
func (r *PGRepo) Upsert(ctx context.Context, cred Credential) error {
	const query = `
INSERT INTO platform_credentials (
    id, tenant_id, platform_type, alias, username, encrypted_password, state, last_validated_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (tenant_id, platform_type, alias) DO UPDATE SET
    username = EXCLUDED.username,
    encrypted_password = EXCLUDED.encrypted_password,
    state = EXCLUDED.state,
    last_validated_at = EXCLUDED.last_validated_at,
    updated_at = EXCLUDED.updated_at`
	_, err := r.DB.ExecContext(ctx, query,
		cred.ID,
		cred.TenantID,
		string(cred.Platform),
		cred.Alias,
		cred.Username,
		cred.Password,
		string(cred.State),
		cred.LastValidatedAt,
		cred.CreatedAt,
		cred.UpdatedAt,
	)
	return err
}

// Get returns the credential or nil when none is configured.
func (r *PGRepo) Get(ctx context.Context, tenantID string, platformType platform.Type, alias string) (*Credential, error) {
	const query = `
SELECT id, tenant_id, platform_type, alias, username, encrypted_password, state, last_validated_at, created_at, updated_at
FROM platform_credentials
WHERE tenant_id = $1 AND platform_type = $2 AND alias = $3
LIMIT 1`
	var cred Credential
	err := r.DB.QueryRowContext(ctx, query, tenantID, string(platformType), alias).Scan(
		&cred.ID,
		&cred.TenantID,
		&cred.Platform,
		&cred.Alias,
		&cred.Username,
		&cred.Password,
		&cred.State,
		&cred.LastValidatedAt,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

// ListForTenant lists credentials for a tenant ordered by platform then alias.
func (r *PGRepo) ListForTenant(ctx context.Context, tenantID string) ([]Credential, error) {
	const query = `
SELECT id, tenant_id, platform_type, alias, username, encrypted_password, state, last_validated_at, created_at, updated_at
FROM platform_credentials
WHERE tenant_id = $1
ORDER BY platform_type, alias`

	rows, err := r.DB.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Credential
	for rows.Next() {
		var cred Credential
		if err := rows.Scan(
			&cred.ID,
			&cred.TenantID,
			&cred.Platform,
			&cred.Alias,
			&cred.Username,
			&cred.Password,
			&cred.State,
			&cred.LastValidatedAt,
			&cred.CreatedAt,
			&cred.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, cred)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
