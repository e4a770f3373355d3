package documents

import (
	"context"
	"fmt"
	"time"

	"compliance-backend/internal/audit"
	"compliance-backend/internal/contentstore"
	"compliance-backend/internal/messaging"
	"compliance-backend/internal/shared/util"
)

// NotifyClientOfCorruption sends exactly one high-priority message to the
// owning project's contact describing the problem.
func (s *Service) NotifyClientOfCorruption(ctx context.Context, tenantID, documentID, fileName, details string) error {
	doc, err := s.Repo.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	if doc.EntityType != "project" {
		return fmt.Errorf("%w: document %s is not placed under a project", ErrInvalidInput, documentID)
	}

	project, err := s.Projects.GetProject(ctx, tenantID, doc.EntityID)
	if err != nil {
		return fmt.Errorf("look up project %s: %w", doc.EntityID, err)
	}
	if project.ContactEmail == "" {
		return fmt.Errorf("%w: project %s has no contact address", ErrInvalidInput, project.ID)
	}

	if fileName == "" {
		fileName = doc.Metadata.OriginalFilename
	}
	title := fmt.Sprintf("Document %q failed verification", fileName)
	body := fmt.Sprintf(
		"The document %q for project %s could not be verified (%s). Please re-submit the file so fulfillment can continue.",
		fileName, project.Name, details,
	)
	_, err = s.Messages.CreateMessage(ctx, tenantID, []string{project.ContactEmail}, title, body, messaging.PriorityHigh)
	return err
}

// Reupload replaces a corrupted document's content: the old blob is removed,
// the replacement is stored under an incremented version, the record is
// updated back to pending, and any queue entry for the document is reset to
// queued.
func (s *Service) Reupload(ctx context.Context, tenantID, documentID, fileName string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: replacement file is empty", ErrInvalidInput)
	}
	doc, err := s.Repo.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	if doc.Status != StatusCorrupted {
		return fmt.Errorf("%w: document %s is %s, recovery applies to corrupted documents", ErrInvalidInput, documentID, doc.Status)
	}
	if fileName == "" {
		fileName = doc.Metadata.OriginalFilename
	}

	oldPath := doc.StoragePath
	newVersion := doc.Version + 1
	path, err := s.Blobs.Upload(ctx, data, contentstore.BlobRef{
		TenantID:   tenantID,
		EntityType: doc.EntityType,
		EntityID:   doc.EntityID,
		Category:   doc.Category,
		Version:    newVersion,
		FileName:   fileName,
	})
	if err != nil {
		return err
	}

	doc.StoragePath = path
	doc.ContentHash = util.ContentHash(data)
	doc.SizeBytes = int64(len(data))
	doc.Version = newVersion
	doc.Status = StatusPending
	doc.Metadata.OriginalFilename = fileName
	doc.Metadata.AppendReupload("corruption recovery")
	doc.UpdatedAt = time.Now().UTC()

	if err := s.Repo.ReplaceContent(ctx, doc); err != nil {
		s.Blobs.CleanupOrphan(ctx, path)
		return fmt.Errorf("replace content of document %s: %w", documentID, err)
	}

	if _, err := s.Blobs.Delete(ctx, oldPath); err != nil {
		// The record already points at the replacement; the stale blob is
		// cleanup debt, not a failure of the recovery.
		s.Blobs.CleanupOrphan(ctx, oldPath)
	}

	if s.Queue != nil {
		if err := s.Queue.RequeueForDocument(ctx, tenantID, documentID); err != nil {
			return fmt.Errorf("requeue document %s: %w", documentID, err)
		}
	}

	s.Audit.LogEvent(ctx, tenantID, audit.ActionDocumentReuploaded, "document", &documentID, map[string]any{
		"content_hash": doc.ContentHash,
		"version":      newVersion,
		"reason":       "corruption recovery",
	})
	return nil
}
