package audit

import (
	"context"
	"sync"
)

// MemoryRepo implements Repo in memory for tests and DB-less development.
type MemoryRepo struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Insert appends an audit event.
func (r *MemoryRepo) Insert(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// CountForSession aggregates queue transition outcomes for a session.
func (r *MemoryRepo) CountForSession(ctx context.Context, sessionID string) (SessionCounts, error) {
	if err := ctx.Err(); err != nil {
		return SessionCounts{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var counts SessionCounts
	for _, evt := range r.events {
		if evt.SessionID == nil || *evt.SessionID != sessionID {
			continue
		}
		if evt.Action != ActionQueueStatusChanged {
			continue
		}
		counts.Processed++
		switch evt.Details["new_status"] {
		case "uploaded":
			counts.Uploaded++
		case "error":
			counts.Errors++
		}
	}
	return counts, nil
}

// Events returns a copy of all recorded events, oldest first.
func (r *MemoryRepo) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.events...)
}

var _ Repo = (*MemoryRepo)(nil)
