package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/audit"
	"compliance-backend/internal/shared/telemetry"
)

// Service creates outbound messages and hands them to the delivery layer.
type Service struct {
	Repo       Repo
	Dispatcher Dispatcher
	Audit      *audit.Logger
}

// CreateMessage records one outbound message and returns its id. Dispatch to
// the delivery queue is best-effort: a dispatch failure is logged and the
// message stays persisted for a later sweep.
func (s *Service) CreateMessage(ctx context.Context, tenantID string, recipients []string, title, body string, priority Priority) (string, error) {
	if tenantID == "" || title == "" {
		return "", fmt.Errorf("tenant and title are required")
	}
	if len(recipients) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if priority == "" {
		priority = PriorityNormal
	}

	msg := Message{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Recipients: recipients,
		Title:      title,
		Body:       body,
		Priority:   priority,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, msg); err != nil {
		return "", err
	}

	s.Audit.LogEvent(ctx, tenantID, audit.ActionMessageCreated, "message", &msg.ID, map[string]any{
		"title":    title,
		"priority": string(priority),
	})

	if s.Dispatcher != nil {
		env := Envelope{
			MessageID:  msg.ID,
			TenantID:   tenantID,
			Recipients: recipients,
			Priority:   string(priority),
			EnqueuedAt: msg.CreatedAt.Format(time.RFC3339),
		}
		if err := s.Dispatcher.Dispatch(ctx, env); err != nil {
			telemetry.Error("messaging.dispatch_failed", map[string]any{
				"message_id": msg.ID,
				"tenant_id":  tenantID,
				"err":        err.Error(),
			})
		}
	}

	return msg.ID, nil
}
