package fulfillment

import "context"

// Repo defines persistence operations for queue entries.
type Repo interface {
	Create(ctx context.Context, entry Entry) error
	GetByID(ctx context.Context, tenantID, entryID string) (Entry, error)
	Update(ctx context.Context, entry Entry) error
	// ListByProject returns entries ordered by priority descending, then
	// creation time ascending: stable FIFO within a priority tier.
	ListByProject(ctx context.Context, tenantID, projectID string) ([]Entry, error)
	// ActiveByDocument returns the document's entry in a non-terminal
	// state, or ErrNotFound when every entry has finished.
	ActiveByDocument(ctx context.Context, tenantID, documentID string) (Entry, error)
	// CountByStatus returns queue counts keyed by status for one tenant.
	CountByStatus(ctx context.Context, tenantID string) (map[Status]int, error)
}
