package documents

import "context"

// Repo defines persistence operations for documents. Implementations must
// back Create with a unique constraint on (tenant_id, content_hash) and
// report violations as ErrDuplicateContent; the constraint, not a
// read-then-write check, is the dedup signal.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, tenantID, documentID string) (Document, error)
	GetByHash(ctx context.Context, tenantID, contentHash string) (Document, error)
	// MaxVersion returns the highest version registered for the logical
	// slot, or 0 when the slot is empty.
	MaxVersion(ctx context.Context, tenantID, entityType, entityID, category string) (int, error)
	UpdateMetadata(ctx context.Context, tenantID, documentID string, metadata Metadata) error
	UpdateStatus(ctx context.Context, tenantID, documentID string, status Status) error
	// ReplaceContent swaps the stored blob reference after a recovery
	// re-upload.
	ReplaceContent(ctx context.Context, doc Document) error
	ListByEntity(ctx context.Context, tenantID, entityType, entityID string) ([]Document, error)
}
