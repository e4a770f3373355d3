package sessions

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const sessionColumns = `
id, operator_id, status, processed_count, uploaded_count, error_count, notes,
started_at, ended_at`

func (r *PGRepo) Create(ctx context.Context, session Session) error {
	const query = `
INSERT INTO upload_sessions (
    id, operator_id, status, processed_count, uploaded_count, error_count,
    notes, started_at, ended_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		session.ID,
		session.OperatorID,
		string(session.Status),
		session.ProcessedCount,
		session.UploadedCount,
		session.ErrorCount,
		session.Notes,
		session.StartedAt,
		session.EndedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, sessionID string) (Session, error) {
	query := `SELECT` + sessionColumns + `
FROM upload_sessions
WHERE id = $1
LIMIT 1`
	return scanSession(r.DB.QueryRowContext(ctx, query, sessionID))
}

func (r *PGRepo) Update(ctx context.Context, session Session) error {
	const query = `
UPDATE upload_sessions SET
    status = $2, processed_count = $3, uploaded_count = $4, error_count = $5,
    notes = $6, ended_at = $7
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		session.ID,
		string(session.Status),
		session.ProcessedCount,
		session.UploadedCount,
		session.ErrorCount,
		session.Notes,
		session.EndedAt,
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

func (r *PGRepo) ListForOperator(ctx context.Context, operatorID string) ([]Session, error) {
	query := `SELECT` + sessionColumns + `
FROM upload_sessions
WHERE operator_id = $1
ORDER BY started_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, operatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var session Session
	var status string
	var endedAt sql.NullTime
	if err := row.Scan(
		&session.ID,
		&session.OperatorID,
		&status,
		&session.ProcessedCount,
		&session.UploadedCount,
		&session.ErrorCount,
		&session.Notes,
		&session.StartedAt,
		&endedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	session.Status = Status(status)
	if endedAt.Valid {
		t := endedAt.Time
		session.EndedAt = &t
	}
	return session, nil
}

var _ Repo = (*PGRepo)(nil)
