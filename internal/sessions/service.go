package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/audit"
)

// Service tracks operator upload sessions. Counters are derived from the
// audit trail at close time, never incremented in-band.
type Service struct {
	Repo  Repo
	Audit *audit.Logger
	// Counts reads session activity back out of the audit store.
	Counts audit.Repo
}

// Start opens a session for the operator and returns its id.
func (s *Service) Start(ctx context.Context, tenantID, operatorID string) (Session, error) {
	if operatorID == "" {
		return Session{}, fmt.Errorf("%w: operator id is required", ErrInvalidInput)
	}

	session := Session{
		ID:         uuid.NewString(),
		OperatorID: operatorID,
		Status:     StatusActive,
		StartedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, session); err != nil {
		return Session{}, err
	}

	s.Audit.LogEvent(ctx, tenantID, audit.ActionSessionStarted, "session", &session.ID, map[string]any{
		"operator_id": operatorID,
	})
	return session, nil
}

// End closes the session: counters are recomputed from audit events tagged
// with the session id and the session is marked completed (or cancelled).
func (s *Service) End(ctx context.Context, tenantID, sessionID, notes string, cancelled bool) (Session, error) {
	session, err := s.Repo.GetByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if session.Status != StatusActive {
		return Session{}, ErrSessionClosed
	}

	counts, err := s.Counts.CountForSession(ctx, sessionID)
	if err != nil {
		return Session{}, fmt.Errorf("recompute counters for session %s: %w", sessionID, err)
	}

	now := time.Now().UTC()
	session.Status = StatusCompleted
	if cancelled {
		session.Status = StatusCancelled
	}
	session.ProcessedCount = counts.Processed
	session.UploadedCount = counts.Uploaded
	session.ErrorCount = counts.Errors
	session.Notes = notes
	session.EndedAt = &now

	if err := s.Repo.Update(ctx, session); err != nil {
		return Session{}, err
	}

	s.Audit.LogEvent(ctx, tenantID, audit.ActionSessionEnded, "session", &session.ID, map[string]any{
		"operator_id": session.OperatorID,
		"status":      string(session.Status),
		"processed":   counts.Processed,
		"uploaded":    counts.Uploaded,
		"errors":      counts.Errors,
	})
	return session, nil
}

// Get returns one session.
func (s *Service) Get(ctx context.Context, sessionID string) (Session, error) {
	return s.Repo.GetByID(ctx, sessionID)
}

// ListForOperator lists the operator's sessions, newest first.
func (s *Service) ListForOperator(ctx context.Context, operatorID string) ([]Session, error) {
	if operatorID == "" {
		return nil, fmt.Errorf("%w: operator id is required", ErrInvalidInput)
	}
	return s.Repo.ListForOperator(ctx, operatorID)
}
