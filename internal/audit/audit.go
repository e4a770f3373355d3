package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/shared/telemetry"
	"compliance-backend/internal/tenancy"
)

// Actions recorded by the pipeline.
const (
	ActionDocumentRegistered = "document.registered"
	ActionDocumentReuploaded = "document.reuploaded"
	ActionDocumentCorrupted  = "document.corrupted"
	ActionQueueEnqueued      = "queue.enqueued"
	ActionQueueStatusChanged = "queue.status_changed"
	ActionCredentialSaved    = "credential.saved"
	ActionSessionStarted     = "session.started"
	ActionSessionEnded       = "session.ended"
	ActionMessageCreated     = "message.created"
)

// Event is one append-only audit record.
type Event struct {
	ID           string
	TenantID     string
	ActorID      *string
	SessionID    *string
	Action       string
	ResourceType string
	ResourceID   *string
	Details      map[string]any
	CreatedAt    time.Time
}

// SessionCounts aggregates queue activity attributed to one session.
type SessionCounts struct {
	Processed int
	Uploaded  int
	Errors    int
}

// Repo defines persistence for audit events.
type Repo interface {
	Insert(ctx context.Context, evt Event) error
	CountForSession(ctx context.Context, sessionID string) (SessionCounts, error)
}

// Logger records audit events. Failures are swallowed: audit logging must
// never block the triggering operation.
type Logger struct {
	Repo Repo
}

// NewLogger constructs a Logger.
func NewLogger(repo Repo) *Logger {
	return &Logger{Repo: repo}
}

// LogEvent appends an audit event. Actor and session ids are taken from the
// context when present. Errors are logged and dropped.
func (l *Logger) LogEvent(ctx context.Context, tenantID, action, resourceType string, resourceID *string, details map[string]any) {
	if l == nil || l.Repo == nil {
		return
	}

	evt := Event{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    time.Now().UTC(),
	}
	if actorID, ok := tenancy.OperatorID(ctx); ok {
		evt.ActorID = &actorID
	}
	if sessionID, ok := tenancy.SessionID(ctx); ok {
		evt.SessionID = &sessionID
	}

	if err := l.Repo.Insert(ctx, evt); err != nil {
		telemetry.Error("audit.insert_failed", map[string]any{
			"tenant_id": tenantID,
			"action":    action,
			"err":       err.Error(),
		})
	}
}
