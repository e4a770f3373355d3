package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a document. A (tenant_id, content_hash) conflict is
// reported as ErrDuplicateContent.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	const query = `
INSERT INTO documents (
    id, tenant_id, entity_type, entity_id, category, storage_path, mime_type,
    size_bytes, content_hash, version, status, metadata, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.TenantID,
		doc.EntityType,
		doc.EntityID,
		doc.Category,
		doc.StoragePath,
		doc.MimeType,
		doc.SizeBytes,
		doc.ContentHash,
		doc.Version,
		string(doc.Status),
		metadata,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateContent
		}
		return err
	}
	return nil
}

const documentColumns = `
id, tenant_id, entity_type, entity_id, category, storage_path, mime_type,
size_bytes, content_hash, version, status, metadata, created_at, updated_at`

// GetByID returns a document scoped to the tenant.
func (r *PGRepo) GetByID(ctx context.Context, tenantID, documentID string) (Document, error) {
	query := `SELECT` + documentColumns + `
FROM documents
WHERE tenant_id = $1 AND id = $2
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, tenantID, documentID))
}

// GetByHash returns the tenant's document with the given content hash.
func (r *PGRepo) GetByHash(ctx context.Context, tenantID, contentHash string) (Document, error) {
	query := `SELECT` + documentColumns + `
FROM documents
WHERE tenant_id = $1 AND content_hash = $2
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, tenantID, contentHash))
}

// MaxVersion returns the highest version in the logical slot, or 0.
func (r *PGRepo) MaxVersion(ctx context.Context, tenantID, entityType, entityID, category string) (int, error) {
	const query = `
SELECT COALESCE(MAX(version), 0)
FROM documents
WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3 AND category = $4`
	var version int
	err := r.DB.QueryRowContext(ctx, query, tenantID, entityType, entityID, category).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// UpdateMetadata replaces the metadata blob.
func (r *PGRepo) UpdateMetadata(ctx context.Context, tenantID, documentID string, metadata Metadata) error {
	blob, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	const query = `
UPDATE documents SET metadata = $3, updated_at = $4
WHERE tenant_id = $1 AND id = $2`
	return r.execExpectingRow(ctx, query, tenantID, documentID, blob, time.Now().UTC())
}

// UpdateStatus sets the document status.
func (r *PGRepo) UpdateStatus(ctx context.Context, tenantID, documentID string, status Status) error {
	const query = `
UPDATE documents SET status = $3, updated_at = $4
WHERE tenant_id = $1 AND id = $2`
	return r.execExpectingRow(ctx, query, tenantID, documentID, string(status), time.Now().UTC())
}

// ReplaceContent swaps the blob reference after a recovery re-upload.
func (r *PGRepo) ReplaceContent(ctx context.Context, doc Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	const query = `
UPDATE documents SET
    storage_path = $3, mime_type = $4, size_bytes = $5, content_hash = $6,
    version = $7, status = $8, metadata = $9, updated_at = $10
WHERE tenant_id = $1 AND id = $2`
	err = r.execExpectingRow(ctx, query,
		doc.TenantID,
		doc.ID,
		doc.StoragePath,
		doc.MimeType,
		doc.SizeBytes,
		doc.ContentHash,
		doc.Version,
		string(doc.Status),
		metadata,
		time.Now().UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("replacement matches existing content: %w", ErrDuplicateContent)
		}
		return err
	}
	return nil
}

// ListByEntity lists documents for a placement, newest version first.
func (r *PGRepo) ListByEntity(ctx context.Context, tenantID, entityType, entityID string) ([]Document, error) {
	query := `SELECT` + documentColumns + `
FROM documents
WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
ORDER BY category, version DESC`

	rows, err := r.DB.QueryContext(ctx, query, tenantID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := r.scanDoc(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Document, error) {
	doc, err := r.scanDoc(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (r *PGRepo) scanDoc(row rowScanner) (Document, error) {
	var doc Document
	var metadata []byte
	if err := row.Scan(
		&doc.ID,
		&doc.TenantID,
		&doc.EntityType,
		&doc.EntityID,
		&doc.Category,
		&doc.StoragePath,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.ContentHash,
		&doc.Version,
		&doc.Status,
		&metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			return Document{}, fmt.Errorf("unmarshal metadata for document %s: %w", doc.ID, err)
		}
	}
	if err := doc.Metadata.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (r *PGRepo) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
