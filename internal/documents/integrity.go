package documents

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"compliance-backend/internal/audit"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
	"compliance-backend/internal/shared/util"
)

// ErrCorruptionDetected wraps the specific integrity failure. It drives the
// recovery workflow rather than a crash.
var ErrCorruptionDetected = fmt.Errorf("corruption detected")

// CheckIntegrity downloads the document's blob and verifies it: non-empty,
// checksum matches the registered hash, and for PDFs a parseable container.
// On failure the document is marked corrupted and the recovery workflow is
// triggered; the returned error wraps ErrCorruptionDetected.
func (s *Service) CheckIntegrity(ctx context.Context, tenantID, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return err
	}

	data, err := s.Blobs.Download(ctx, doc.StoragePath)
	if err != nil {
		return s.failIntegrity(ctx, doc, fmt.Sprintf("blob unreadable: %v", err))
	}
	if len(data) == 0 {
		return s.failIntegrity(ctx, doc, "zero-byte file")
	}
	if hash := util.ContentHash(data); hash != doc.ContentHash {
		return s.failIntegrity(ctx, doc, fmt.Sprintf("checksum mismatch: stored %s, computed %s", doc.ContentHash, hash))
	}
	if isPDF(doc) {
		if _, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
			return s.failIntegrity(ctx, doc, fmt.Sprintf("unreadable pdf container: %v", err))
		}
	}
	return nil
}

func isPDF(doc Document) bool {
	return doc.MimeType == "application/pdf" ||
		strings.HasSuffix(strings.ToLower(doc.Metadata.OriginalFilename), ".pdf")
}

func (s *Service) failIntegrity(ctx context.Context, doc Document, details string) error {
	if err := s.MarkCorrupted(ctx, doc.TenantID, doc.ID, details); err != nil {
		return err
	}
	return fmt.Errorf("%w: document %s: %s", ErrCorruptionDetected, doc.ID, details)
}

// MarkCorrupted flips the document to corrupted, pulls any active queue
// entry out of normal progression, and notifies the owning project's
// contact.
func (s *Service) MarkCorrupted(ctx context.Context, tenantID, documentID, details string) error {
	doc, err := s.Repo.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	if doc.Status != StatusCorrupted {
		if !doc.Status.CanTransitionTo(StatusCorrupted) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, doc.Status, StatusCorrupted)
		}
		if err := s.Repo.UpdateStatus(ctx, tenantID, documentID, StatusCorrupted); err != nil {
			return err
		}
	}

	if s.Queue != nil {
		if err := s.Queue.MarkDocumentCorrupted(ctx, tenantID, documentID, details); err != nil {
			telemetry.Error("failed to pull corrupted document from queue", map[string]any{
				"tenant_id":   tenantID,
				"document_id": documentID,
				"error":       err.Error(),
			})
		}
	}

	s.Audit.LogEvent(ctx, tenantID, audit.ActionDocumentCorrupted, "document", &documentID, map[string]any{
		"details": details,
	})
	metrics.IncDocumentsCorrupted()

	if err := s.NotifyClientOfCorruption(ctx, tenantID, documentID, doc.Metadata.OriginalFilename, details); err != nil {
		telemetry.Error("corruption notification failed", map[string]any{
			"tenant_id":   tenantID,
			"document_id": documentID,
			"error":       err.Error(),
		})
	}
	return nil
}
