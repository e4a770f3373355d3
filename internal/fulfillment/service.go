package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/audit"
	"compliance-backend/internal/contentstore"
	"compliance-backend/internal/credentials"
	"compliance-backend/internal/documents"
	"compliance-backend/internal/platform"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// Service owns the fulfillment queue: ordering, the status state machine,
// and batch portal uploads.
type Service struct {
	Repo        Repo
	Docs        documents.Repo
	Blobs       *contentstore.Store
	Credentials *credentials.Service
	Portal      platform.Client
	Audit       *audit.Logger
}

// EnqueueInput describes one document to put in line.
type EnqueueInput struct {
	ClientID       string
	ProjectID      string
	DocumentID     string
	Priority       Priority
	TargetPlatform platform.Type
}

// Enqueue puts a document in line for manual upload. A document waits in at
// most one non-terminal entry at a time.
func (s *Service) Enqueue(ctx context.Context, tenantID string, in EnqueueInput) (Entry, error) {
	if tenantID == "" || in.ClientID == "" || in.ProjectID == "" || in.DocumentID == "" {
		return Entry{}, fmt.Errorf("%w: tenant, client, project and document ids are required", ErrInvalidInput)
	}
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
	if !in.Priority.Valid() {
		return Entry{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, in.Priority)
	}
	if !in.TargetPlatform.Valid() {
		return Entry{}, fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, in.TargetPlatform)
	}

	if _, err := s.Docs.GetByID(ctx, tenantID, in.DocumentID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return Entry{}, fmt.Errorf("%w: document %s", ErrNotFound, in.DocumentID)
		}
		return Entry{}, err
	}

	switch _, err := s.Repo.ActiveByDocument(ctx, tenantID, in.DocumentID); {
	case err == nil:
		return Entry{}, ErrActiveEntryExists
	case errors.Is(err, ErrNotFound):
		// no active entry, proceed
	default:
		return Entry{}, err
	}

	now := time.Now().UTC()
	entry := Entry{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ClientID:       in.ClientID,
		ProjectID:      in.ProjectID,
		DocumentID:     in.DocumentID,
		Status:         StatusQueued,
		Priority:       in.Priority,
		TargetPlatform: in.TargetPlatform,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, entry); err != nil {
		return Entry{}, err
	}

	s.Audit.LogEvent(ctx, tenantID, audit.ActionQueueEnqueued, "queue_entry", &entry.ID, map[string]any{
		"document_id": in.DocumentID,
		"project_id":  in.ProjectID,
		"priority":    string(in.Priority),
		"platform":    in.TargetPlatform.String(),
	})
	return entry, nil
}

// SetStatus applies a validated transition. Every transition lands in the
// audit log with old status, new status, and the operator's note.
func (s *Service) SetStatus(ctx context.Context, tenantID, entryID string, next Status, note, lastError string) (Entry, error) {
	if !next.Valid() {
		return Entry{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, next)
	}
	entry, err := s.Repo.GetByID(ctx, tenantID, entryID)
	if err != nil {
		return Entry{}, err
	}
	if !entry.Status.CanTransitionTo(next) {
		return Entry{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, entry.Status, next)
	}
	return s.transition(ctx, entry, next, note, lastError)
}

// transition persists the new status unconditionally; callers validate.
func (s *Service) transition(ctx context.Context, entry Entry, next Status, note, lastError string) (Entry, error) {
	old := entry.Status
	entry.Status = next
	if note != "" {
		entry.Note = note
	}
	entry.LastError = lastError
	entry.UpdatedAt = time.Now().UTC()

	if err := s.Repo.Update(ctx, entry); err != nil {
		return Entry{}, err
	}

	s.Audit.LogEvent(ctx, entry.TenantID, audit.ActionQueueStatusChanged, "queue_entry", &entry.ID, map[string]any{
		"document_id": entry.DocumentID,
		"old_status":  string(old),
		"new_status":  string(next),
		"note":        note,
	})
	metrics.IncQueueTransitions()

	s.syncDocumentStatus(ctx, entry)
	return entry, nil
}

// syncDocumentStatus mirrors queue progress onto the document record.
// Best-effort: the queue entry is the source of truth for fulfillment.
func (s *Service) syncDocumentStatus(ctx context.Context, entry Entry) {
	var next documents.Status
	switch entry.Status {
	case StatusInProgress:
		next = documents.StatusProcessing
	case StatusUploaded:
		next = documents.StatusUploaded
	case StatusError:
		next = documents.StatusError
	default:
		return
	}

	doc, err := s.Docs.GetByID(ctx, entry.TenantID, entry.DocumentID)
	if err != nil || doc.Status == next || !doc.Status.CanTransitionTo(next) {
		return
	}
	if err := s.Docs.UpdateStatus(ctx, entry.TenantID, entry.DocumentID, next); err != nil {
		telemetry.Error("failed to mirror queue status onto document", map[string]any{
			"tenant_id":   entry.TenantID,
			"document_id": entry.DocumentID,
			"status":      string(next),
			"error":       err.Error(),
		})
	}
}

// ListByProject returns the project's entries in fulfillment order.
func (s *Service) ListByProject(ctx context.Context, tenantID, projectID string) ([]Entry, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	return s.Repo.ListByProject(ctx, tenantID, projectID)
}

// Get returns one entry scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID, entryID string) (Entry, error) {
	return s.Repo.GetByID(ctx, tenantID, entryID)
}

// Stats returns queue counts by status for the tenant.
func (s *Service) Stats(ctx context.Context, tenantID string) (map[Status]int, error) {
	return s.Repo.CountByStatus(ctx, tenantID)
}

// MarkDocumentCorrupted pulls the document's active entry out of normal
// progression. Called by the registry when an integrity check fails.
func (s *Service) MarkDocumentCorrupted(ctx context.Context, tenantID, documentID, note string) error {
	entry, err := s.Repo.ActiveByDocument(ctx, tenantID, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if entry.Status == StatusError {
		return nil
	}
	_, err = s.transition(ctx, entry, StatusError, "pulled from queue: document corrupted", note)
	return err
}

// RequeueForDocument puts the document's entry back in line after recovery.
// A document with no active entry has nothing to requeue: the recovery
// itself already succeeded, so this is a no-op, same as MarkDocumentCorrupted.
func (s *Service) RequeueForDocument(ctx context.Context, tenantID, documentID string) error {
	entry, err := s.Repo.ActiveByDocument(ctx, tenantID, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if entry.Status == StatusQueued {
		return nil
	}
	if entry.Status != StatusError {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, entry.Status, StatusQueued)
	}
	_, err = s.transition(ctx, entry, StatusQueued, "requeued after recovery", "")
	return err
}

var _ documents.Queue = (*Service)(nil)
