package messaging

import (
	"context"
	"sync"
)

// MemoryRepo implements Repo in memory for tests and DB-less development.
type MemoryRepo struct {
	mu       sync.RWMutex
	messages []Message
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create appends an outbound message.
func (r *MemoryRepo) Create(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

// ListForTenant lists messages newest-first.
func (r *MemoryRepo) ListForTenant(ctx context.Context, tenantID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Message
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].TenantID == tenantID {
			out = append(out, r.messages[i])
		}
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
