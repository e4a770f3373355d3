package sessions

import (
	"context"
	"errors"
	"testing"

	"compliance-backend/internal/audit"
	"compliance-backend/internal/tenancy"
)

func newTestService() (*Service, *audit.MemoryRepo) {
	auditRepo := audit.NewMemoryRepo()
	svc := &Service{
		Repo:   NewMemoryRepo(),
		Audit:  audit.NewLogger(auditRepo),
		Counts: auditRepo,
	}
	return svc, auditRepo
}

func TestEndRecomputesCountersFromAuditTrail(t *testing.T) {
	svc, auditRepo := newTestService()
	ctx := context.Background()

	session, err := svc.Start(ctx, "t1", "op-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.Status != StatusActive {
		t.Fatalf("new session not active: %s", session.Status)
	}

	// queue transitions performed during the session carry its id
	logger := audit.NewLogger(auditRepo)
	sessionCtx := tenancy.WithSession(tenancy.WithOperator(ctx, "op-1"), session.ID)
	id := "entry"
	logger.LogEvent(sessionCtx, "t1", audit.ActionQueueStatusChanged, "queue_entry", &id, map[string]any{
		"old_status": "in_progress", "new_status": "uploaded",
	})
	logger.LogEvent(sessionCtx, "t1", audit.ActionQueueStatusChanged, "queue_entry", &id, map[string]any{
		"old_status": "in_progress", "new_status": "uploaded",
	})
	logger.LogEvent(sessionCtx, "t1", audit.ActionQueueStatusChanged, "queue_entry", &id, map[string]any{
		"old_status": "in_progress", "new_status": "error",
	})

	ended, err := svc.End(ctx, "t1", session.ID, "shift done", false)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", ended.Status)
	}
	if ended.ProcessedCount != 3 || ended.UploadedCount != 2 || ended.ErrorCount != 1 {
		t.Fatalf("counters wrong: processed=%d uploaded=%d errors=%d",
			ended.ProcessedCount, ended.UploadedCount, ended.ErrorCount)
	}
	if ended.EndedAt == nil {
		t.Fatalf("ended session has no end timestamp")
	}
	if ended.Notes != "shift done" {
		t.Fatalf("notes not stored: %q", ended.Notes)
	}
}

func TestEndTwiceIsRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	session, err := svc.Start(ctx, "t1", "op-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.End(ctx, "t1", session.ID, "", false); err != nil {
		t.Fatalf("first end: %v", err)
	}
	if _, err := svc.End(ctx, "t1", session.ID, "", false); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestEndCancelledSessionKeepsCounters(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	session, err := svc.Start(ctx, "t1", "op-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ended, err := svc.End(ctx, "t1", session.ID, "aborted", true)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", ended.Status)
	}
	if ended.ProcessedCount != 0 {
		t.Fatalf("idle session has nonzero counters: %d", ended.ProcessedCount)
	}
}

func TestStartRequiresOperator(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Start(context.Background(), "t1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
