package documents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/audit"
	"compliance-backend/internal/classify"
	"compliance-backend/internal/contentstore"
	"compliance-backend/internal/messaging"
	"compliance-backend/internal/projects"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
	"compliance-backend/internal/shared/util"
)

// Queue lets the registry pull a document out of fulfillment when corruption
// is detected and put it back after recovery. Implemented by the fulfillment
// service and wired at startup.
type Queue interface {
	MarkDocumentCorrupted(ctx context.Context, tenantID, documentID, note string) error
	RequeueForDocument(ctx context.Context, tenantID, documentID string) error
}

// Service contains registry business logic: content-addressed upload,
// hash-based dedup, classification, and the corruption recovery workflow.
type Service struct {
	Repo       Repo
	Blobs      *contentstore.Store
	Classifier classify.Client
	Audit      *audit.Logger
	Projects   projects.Repo
	Messages   *messaging.Service

	// Queue is optional; when nil, corruption handling skips fulfillment.
	Queue Queue
}

// RegisterInput is one incoming file plus where it belongs.
type RegisterInput struct {
	Placement Placement
	Category  string
	FileName  string
	MimeType  string
	Reason    string
	Data      []byte
}

func (in RegisterInput) validate() error {
	if in.Placement.EntityType == "" || in.Placement.EntityID == "" {
		return fmt.Errorf("%w: placement entity type and id are required", ErrInvalidInput)
	}
	if in.FileName == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if len(in.Data) == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	return nil
}

// RegisterOrUpdate uploads the bytes and registers a document. Identical
// content under the same tenant folds into the existing document: its
// metadata gains a reupload record and the redundant blob is removed. The
// returned bool reports whether the call was resolved by dedup.
func (s *Service) RegisterOrUpdate(ctx context.Context, tenantID string, in RegisterInput) (Document, bool, error) {
	if tenantID == "" {
		return Document{}, false, fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	if err := in.validate(); err != nil {
		return Document{}, false, err
	}

	hash := util.ContentHash(in.Data)
	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(in.Data)
	}

	classification := s.classifyAdvisory(ctx, in, mimeType)
	category := in.Category
	if category == "" {
		category = classification.Category
	}

	version, err := s.Repo.MaxVersion(ctx, tenantID, in.Placement.EntityType, in.Placement.EntityID, category)
	if err != nil {
		return Document{}, false, fmt.Errorf("determine next version: %w", err)
	}
	version++

	path, err := s.Blobs.Upload(ctx, in.Data, contentstore.BlobRef{
		TenantID:   tenantID,
		EntityType: in.Placement.EntityType,
		EntityID:   in.Placement.EntityID,
		Category:   category,
		Version:    version,
		FileName:   in.FileName,
	})
	if err != nil {
		return Document{}, false, err
	}

	now := time.Now().UTC()
	doc := Document{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		EntityType:  in.Placement.EntityType,
		EntityID:    in.Placement.EntityID,
		Category:    category,
		StoragePath: path,
		MimeType:    mimeType,
		SizeBytes:   int64(len(in.Data)),
		ContentHash: hash,
		Version:     version,
		Status:      StatusPending,
		Metadata: Metadata{
			SchemaVersion:    MetadataSchemaVersion,
			OriginalFilename: in.FileName,
			Classifier:       &classification,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch err := s.Repo.Create(ctx, doc); {
	case err == nil:
		// new document
	case errors.Is(err, ErrDuplicateContent):
		existing, err := s.foldDuplicate(ctx, tenantID, hash, path, in.Reason)
		if err != nil {
			s.Blobs.CleanupOrphan(ctx, path)
			return Document{}, false, err
		}
		return existing, true, nil
	default:
		// The row never landed; remove the blob so storage does not leak.
		s.Blobs.CleanupOrphan(ctx, path)
		return Document{}, false, fmt.Errorf("create document: %w", err)
	}

	s.Audit.LogEvent(ctx, tenantID, audit.ActionDocumentRegistered, "document", &doc.ID, map[string]any{
		"content_hash": hash,
		"category":     category,
		"version":      version,
		"size_bytes":   doc.SizeBytes,
	})
	metrics.IncDocumentsRegistered()
	return doc, false, nil
}

// foldDuplicate resolves a unique-constraint hit: the tenant already has a
// document with this hash. The existing record gains a reupload entry and
// the just-uploaded blob is dropped in favor of the canonical one.
func (s *Service) foldDuplicate(ctx context.Context, tenantID, hash, uploadedPath, reason string) (Document, error) {
	existing, err := s.Repo.GetByHash(ctx, tenantID, hash)
	if err != nil {
		return Document{}, fmt.Errorf("resolve duplicate hash=%s: %w", hash, err)
	}

	if reason == "" {
		reason = "identical content re-uploaded"
	}
	existing.Metadata.AppendReupload(reason)
	if err := s.Repo.UpdateMetadata(ctx, tenantID, existing.ID, existing.Metadata); err != nil {
		return Document{}, fmt.Errorf("record reupload on document %s: %w", existing.ID, err)
	}

	if uploadedPath != existing.StoragePath {
		s.Blobs.CleanupOrphan(ctx, uploadedPath)
	}

	s.Audit.LogEvent(ctx, tenantID, audit.ActionDocumentReuploaded, "document", &existing.ID, map[string]any{
		"content_hash": hash,
		"reason":       reason,
	})
	metrics.IncDocumentsDeduped()
	return existing, nil
}

func (s *Service) classifyAdvisory(ctx context.Context, in RegisterInput, mimeType string) classify.Result {
	result, err := s.Classifier.Classify(ctx, in.Data, in.FileName, mimeType)
	if err != nil {
		telemetry.Error("classification failed, using fallback", map[string]any{
			"file_name": in.FileName,
			"error":     err.Error(),
		})
		return classify.Fallback()
	}
	return result
}

// Get returns a single document scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID, documentID string) (Document, error) {
	return s.Repo.GetByID(ctx, tenantID, documentID)
}

// ListByEntity lists documents placed under one entity.
func (s *Service) ListByEntity(ctx context.Context, tenantID, entityType, entityID string) ([]Document, error) {
	return s.Repo.ListByEntity(ctx, tenantID, entityType, entityID)
}

// SignedURL returns a time-limited download URL for the document's blob, or
// empty when the backing store cannot sign.
func (s *Service) SignedURL(ctx context.Context, tenantID, documentID string, ttl time.Duration) (string, error) {
	doc, err := s.Repo.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return "", err
	}
	return s.Blobs.SignedURL(ctx, doc.StoragePath, ttl)
}

// SetStatus applies a validated status transition.
func (s *Service) SetStatus(ctx context.Context, tenantID, documentID string, next Status) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, next)
	}
	doc, err := s.Repo.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	if !doc.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, doc.Status, next)
	}
	return s.Repo.UpdateStatus(ctx, tenantID, documentID, next)
}
