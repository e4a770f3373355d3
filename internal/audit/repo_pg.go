package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Insert appends an audit event.
func (r *PGRepo) Insert(ctx context.Context, evt Event) error {
	details, err := json.Marshal(evt.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	const query = `
INSERT INTO audit_log (
    id, tenant_id, actor_id, session_id, action, resource_type, resource_id, details, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.DB.ExecContext(ctx, query,
		evt.ID,
		evt.TenantID,
		evt.ActorID,
		evt.SessionID,
		evt.Action,
		evt.ResourceType,
		evt.ResourceID,
		details,
		evt.CreatedAt,
	)
	return err
}

// CountForSession aggregates queue transition outcomes for a session.
func (r *PGRepo) CountForSession(ctx context.Context, sessionID string) (SessionCounts, error) {
	const query = `
SELECT
    COUNT(*) FILTER (WHERE action = $2),
    COUNT(*) FILTER (WHERE action = $2 AND details->>'new_status' = 'uploaded'),
    COUNT(*) FILTER (WHERE action = $2 AND details->>'new_status' = 'error')
FROM audit_log
WHERE session_id = $1`

	var counts SessionCounts
	err := r.DB.QueryRowContext(ctx, query, sessionID, ActionQueueStatusChanged).Scan(
		&counts.Processed,
		&counts.Uploaded,
		&counts.Errors,
	)
	if err != nil {
		return SessionCounts{}, err
	}
	return counts, nil
}

var _ Repo = (*PGRepo)(nil)
