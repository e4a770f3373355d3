package projects

import (
	"context"
	"errors"
)

// ErrNotFound indicates an entity was not found.
var ErrNotFound = errors.New("not found")

// Repo defines lookups over the tenant -> company -> project hierarchy.
// The hierarchy is stored normalized; callers query what they need instead
// of materializing nested trees.
type Repo interface {
	GetProject(ctx context.Context, tenantID, projectID string) (Project, error)
	ListProjectsForCompany(ctx context.Context, tenantID, companyID string) ([]Project, error)
	GetCompany(ctx context.Context, tenantID, companyID string) (Company, error)
}
