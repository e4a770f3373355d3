package documents

import (
	"fmt"
	"time"

	"compliance-backend/internal/classify"
)

// MetadataSchemaVersion is bumped when the metadata shape changes; rows are
// validated against it on read.
const MetadataSchemaVersion = 1

// Metadata is the typed document metadata stored as JSONB.
type Metadata struct {
	SchemaVersion    int              `json:"schemaVersion"`
	OriginalFilename string           `json:"originalFilename,omitempty"`
	Classifier       *classify.Result `json:"classifier,omitempty"`
	Reuploads        []ReuploadRecord `json:"reuploads,omitempty"`
}

// ReuploadRecord remembers one re-upload of identical or replacement content.
type ReuploadRecord struct {
	At     time.Time `json:"at"`
	Reason string    `json:"reason"`
}

// Validate checks a metadata blob read from storage.
func (m *Metadata) Validate() error {
	if m.SchemaVersion == 0 {
		m.SchemaVersion = MetadataSchemaVersion
	}
	if m.SchemaVersion > MetadataSchemaVersion {
		return fmt.Errorf("%w: metadata schema version %d is newer than supported %d",
			ErrInvalidInput, m.SchemaVersion, MetadataSchemaVersion)
	}
	return nil
}

// AppendReupload records a re-upload with the current timestamp.
func (m *Metadata) AppendReupload(reason string) {
	m.Reuploads = append(m.Reuploads, ReuploadRecord{
		At:     time.Now().UTC(),
		Reason: reason,
	})
}
