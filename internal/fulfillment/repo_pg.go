package fulfillment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"compliance-backend/internal/platform"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const entryColumns = `
id, tenant_id, client_id, project_id, document_id, status, priority, note,
last_error, retry_count, target_platform, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO queue_entries (
    id, tenant_id, client_id, project_id, document_id, status, priority, note,
    last_error, retry_count, target_platform, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.ClientID,
		entry.ProjectID,
		entry.DocumentID,
		string(entry.Status),
		string(entry.Priority),
		entry.Note,
		entry.LastError,
		entry.RetryCount,
		entry.TargetPlatform.String(),
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, tenantID, entryID string) (Entry, error) {
	query := `SELECT` + entryColumns + `
FROM queue_entries
WHERE tenant_id = $1 AND id = $2
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, tenantID, entryID))
}

func (r *PGRepo) Update(ctx context.Context, entry Entry) error {
	const query = `
UPDATE queue_entries SET
    status = $3, priority = $4, note = $5, last_error = $6, retry_count = $7,
    updated_at = $8
WHERE tenant_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query,
		entry.TenantID,
		entry.ID,
		string(entry.Status),
		string(entry.Priority),
		entry.Note,
		entry.LastError,
		entry.RetryCount,
		time.Now().UTC(),
	)
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

func (r *PGRepo) ListByProject(ctx context.Context, tenantID, projectID string) ([]Entry, error) {
	// Priority tiers first, stable FIFO inside a tier.
	query := `SELECT` + entryColumns + `
FROM queue_entries
WHERE tenant_id = $1 AND project_id = $2
ORDER BY
    CASE priority
        WHEN 'urgent' THEN 3
        WHEN 'high' THEN 2
        WHEN 'normal' THEN 1
        ELSE 0
    END DESC,
    created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (r *PGRepo) ActiveByDocument(ctx context.Context, tenantID, documentID string) (Entry, error) {
	query := `SELECT` + entryColumns + `
FROM queue_entries
WHERE tenant_id = $1 AND document_id = $2 AND status <> 'uploaded'
ORDER BY created_at DESC
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, tenantID, documentID))
}

func (r *PGRepo) CountByStatus(ctx context.Context, tenantID string) (map[Status]int, error) {
	const query = `
SELECT status, COUNT(*)
FROM queue_entries
WHERE tenant_id = $1
GROUP BY status`

	rows, err := r.DB.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[Status(status)] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Entry, error) {
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

func scanEntry(row rowScanner) (Entry, error) {
	var entry Entry
	var status, priority, target string
	if err := row.Scan(
		&entry.ID,
		&entry.TenantID,
		&entry.ClientID,
		&entry.ProjectID,
		&entry.DocumentID,
		&status,
		&priority,
		&entry.Note,
		&entry.LastError,
		&entry.RetryCount,
		&target,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return Entry{}, err
	}
	entry.Status = Status(status)
	entry.Priority = Priority(priority)
	entry.TargetPlatform = platform.Type(target)
	return entry, nil
}

var _ Repo = (*PGRepo)(nil)
