package projects

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo implements Repo in memory for tests and DB-less development.
type MemoryRepo struct {
	mu        sync.RWMutex
	projects  map[string]Project
	companies map[string]Company
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		projects:  make(map[string]Project),
		companies: make(map[string]Company),
	}
}

// PutProject seeds a project.
func (r *MemoryRepo) PutProject(project Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[project.ID] = project
}

// PutCompany seeds a company.
func (r *MemoryRepo) PutCompany(company Company) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[company.ID] = company
}

// GetProject returns a project scoped to the tenant.
func (r *MemoryRepo) GetProject(ctx context.Context, tenantID, projectID string) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	project, ok := r.projects[projectID]
	if !ok || project.TenantID != tenantID {
		return Project{}, ErrNotFound
	}
	return project, nil
}

// ListProjectsForCompany lists a company's projects ordered by name.
func (r *MemoryRepo) ListProjectsForCompany(ctx context.Context, tenantID, companyID string) ([]Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Project
	for _, project := range r.projects {
		if project.TenantID == tenantID && project.CompanyID == companyID {
			out = append(out, project)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetCompany returns a company scoped to the tenant.
func (r *MemoryRepo) GetCompany(ctx context.Context, tenantID, companyID string) (Company, error) {
	if err := ctx.Err(); err != nil {
		return Company{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	company, ok := r.companies[companyID]
	if !ok || company.TenantID != tenantID {
		return Company{}, ErrNotFound
	}
	return company, nil
}

var _ Repo = (*MemoryRepo)(nil)
