package credentials

import (
	"context"
	"sort"
	"sync"
	"time"

	"compliance-backend/internal/platform"
)

type memoryKey struct {
	tenantID string
	platform platform.Type
	alias    string
}

// MemoryRepo implements Repo in memory for tests and DB-less development.
type MemoryRepo struct {
	mu    sync.RWMutex
	creds map[memoryKey]Credential
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{creds: make(map[memoryKey]Credential)}
}

// Upsert saves a credential, overwriting on the (tenant, platform, alias) key.
func (r *MemoryRepo) Upsert(ctx context.Context, cred Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memoryKey{cred.TenantID, cred.Platform, cred.Alias}
	if existing, ok := r.creds[key]; ok {
		cred.ID = existing.ID
		cred.CreatedAt = existing.CreatedAt
	}
	cred.UpdatedAt = time.Now().UTC()
	r.creds[key] = cred
	return nil
}

// Get returns the credential or nil when none is configured.
func (r *MemoryRepo) Get(ctx context.Context, tenantID string, platformType platform.Type, alias string) (*Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.creds[memoryKey{tenantID, platformType, alias}]
	if !ok {
		return nil, nil
	}
	out := cred
	return &out, nil
}

// ListForTenant lists credentials for a tenant ordered by platform then alias.
func (r *MemoryRepo) ListForTenant(ctx context.Context, tenantID string) ([]Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Credential
	for key, cred := range r.creds {
		if key.tenantID == tenantID {
			out = append(out, cred)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Platform != out[j].Platform {
			return out[i].Platform < out[j].Platform
		}
		return out[i].Alias < out[j].Alias
	})
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
