package messaging

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

// Create inserts an outbound message.
func (r *PGRepo) Create(ctx context.Context, msg Message) error {
	recipients, err := json.Marshal(msg.Recipients)
	if err != nil {
		return fmt.Errorf("marshal recipients: %w", err)
	}

	const query = `
INSERT INTO outbound_messages (
    id, tenant_id, recipients, title, body, priority, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.DB.ExecContext(ctx, query,
		msg.ID,
		msg.TenantID,
		recipients,
		msg.Title,
		msg.Body,
		string(msg.Priority),
		msg.CreatedAt,
	)
	return err
}

// ListForTenant lists messages newest-first.
func (r *PGRepo) ListForTenant(ctx context.Context, tenantID string) ([]Message, error) {
	const query = `
SELECT id, tenant_id, recipients, title, body, priority, created_at
FROM outbound_messages
WHERE tenant_id = $1
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		var recipients []byte
		if err := rows.Scan(
			&msg.ID,
			&msg.TenantID,
			&recipients,
			&msg.Title,
			&msg.Body,
			&msg.Priority,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(recipients, &msg.Recipients); err != nil {
			return nil, fmt.Errorf("unmarshal recipients for message %s: %w", msg.ID, err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
