package documents

import "time"

// Placement locates a document inside the tenant hierarchy, e.g. a project.
type Placement struct {
	EntityType string
	EntityID   string
}

// Document is one registered compliance document. At most one row exists per
// (tenant, content hash); identical re-uploads fold into the existing row.
type Document struct {
	ID          string
	TenantID    string
	EntityType  string
	EntityID    string
	Category    string
	StoragePath string
	MimeType    string
	SizeBytes   int64
	ContentHash string
	Version     int
	Status      Status
	Metadata    Metadata
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
