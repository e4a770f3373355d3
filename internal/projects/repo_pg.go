package projects

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetProject returns a project scoped to the tenant.
func (r *PGRepo) GetProject(ctx context.Context, tenantID, projectID string) (Project, error) {
	const query = `
SELECT id, tenant_id, company_id, name, contact_email, created_at
FROM projects
WHERE tenant_id = $1 AND id = $2
LIMIT 1`
	var project Project
	err := r.DB.QueryRowContext(ctx, query, tenantID, projectID).Scan(
		&project.ID,
		&project.TenantID,
		&project.CompanyID,
		&project.Name,
		&project.ContactEmail,
		&project.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, err
	}
	return project, nil
}

// ListProjectsForCompany lists a company's projects ordered by name.
func (r *PGRepo) ListProjectsForCompany(ctx context.Context, tenantID, companyID string) ([]Project, error) {
	const query = `
SELECT id, tenant_id, company_id, name, contact_email, created_at
FROM projects
WHERE tenant_id = $1 AND company_id = $2
ORDER BY name`

	rows, err := r.DB.QueryContext(ctx, query, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var project Project
		if err := rows.Scan(
			&project.ID,
			&project.TenantID,
			&project.CompanyID,
			&project.Name,
			&project.ContactEmail,
			&project.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, project)
	}
	return out, rows.Err()
}

// GetCompany returns a company scoped to the tenant.
func (r *PGRepo) GetCompany(ctx context.Context, tenantID, companyID string) (Company, error) {
	const query = `
SELECT id, tenant_id, name, created_at
FROM companies
WHERE tenant_id = $1 AND id = $2
LIMIT 1`
	var company Company
	err := r.DB.QueryRowContext(ctx, query, tenantID, companyID).Scan(
		&company.ID,
		&company.TenantID,
		&company.Name,
		&company.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		return Company{}, err
	}
	return company, nil
}

var _ Repo = (*PGRepo)(nil)
