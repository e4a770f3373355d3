package projects

import "time"

// Company is a tenant-scoped client organization.
type Company struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
}

// Project is a company-scoped worksite or contract. ContactEmail receives
// compliance notifications for documents placed under the project.
type Project struct {
	ID           string
	TenantID     string
	CompanyID    string
	Name         string
	ContactEmail string
	CreatedAt    time.Time
}
