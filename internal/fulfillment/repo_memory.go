package fulfillment

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo for tests and local development.
// Insertion order breaks creation-time ties, which sub-millisecond test
// inserts hit constantly.
type MemoryRepo struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{entries: make(map[string]Entry)}
}

func (r *MemoryRepo) Create(ctx context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	r.order = append(r.order, entry.ID)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, tenantID, entryID string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[entryID]
	if !ok || entry.TenantID != tenantID {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (r *MemoryRepo) Update(ctx context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[entry.ID]
	if !ok || existing.TenantID != entry.TenantID {
		return ErrNotFound
	}
	r.entries[entry.ID] = entry
	return nil
}

func (r *MemoryRepo) ListByProject(ctx context.Context, tenantID, projectID string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, id := range r.order {
		entry := r.entries[id]
		if entry.TenantID == tenantID && entry.ProjectID == projectID {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})
	return out, nil
}

func (r *MemoryRepo) ActiveByDocument(ctx context.Context, tenantID, documentID string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		entry := r.entries[r.order[i]]
		if entry.TenantID == tenantID && entry.DocumentID == documentID && !entry.Status.Terminal() {
			return entry, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (r *MemoryRepo) CountByStatus(ctx context.Context, tenantID string) (map[Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[Status]int)
	for _, entry := range r.entries {
		if entry.TenantID == tenantID {
			counts[entry.Status]++
		}
	}
	return counts, nil
}

var _ Repo = (*MemoryRepo)(nil)
