package documents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo for tests and local development.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]Document)}
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.docs {
		if existing.TenantID == doc.TenantID && existing.ContentHash == doc.ContentHash {
			return ErrDuplicateContent
		}
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, tenantID, documentID string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.TenantID != tenantID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) GetByHash(ctx context.Context, tenantID, contentHash string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.docs {
		if doc.TenantID == tenantID && doc.ContentHash == contentHash {
			return doc, nil
		}
	}
	return Document{}, ErrNotFound
}

func (r *MemoryRepo) MaxVersion(ctx context.Context, tenantID, entityType, entityID, category string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := 0
	for _, doc := range r.docs {
		if doc.TenantID == tenantID && doc.EntityType == entityType && doc.EntityID == entityID && doc.Category == category && doc.Version > max {
			max = doc.Version
		}
	}
	return max, nil
}

func (r *MemoryRepo) UpdateMetadata(ctx context.Context, tenantID, documentID string, metadata Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.TenantID != tenantID {
		return ErrNotFound
	}
	doc.Metadata = metadata
	r.docs[documentID] = doc
	return nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, tenantID, documentID string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.TenantID != tenantID {
		return ErrNotFound
	}
	doc.Status = status
	r.docs[documentID] = doc
	return nil
}

func (r *MemoryRepo) ReplaceContent(ctx context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[doc.ID]
	if !ok || existing.TenantID != doc.TenantID {
		return ErrNotFound
	}
	for _, other := range r.docs {
		if other.ID != doc.ID && other.TenantID == doc.TenantID && other.ContentHash == doc.ContentHash {
			return ErrDuplicateContent
		}
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) ListByEntity(ctx context.Context, tenantID, entityType, entityID string) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, doc := range r.docs {
		if doc.TenantID == tenantID && doc.EntityType == entityType && doc.EntityID == entityID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Version > out[j].Version
	})
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
