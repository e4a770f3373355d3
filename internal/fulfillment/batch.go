package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"compliance-backend/internal/platform"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// Batch outcomes.
const (
	OutcomeUploaded      = "uploaded"
	OutcomeError         = "error"
	OutcomeNotConfigured = "credential_not_configured"
	OutcomeCancelled     = "cancelled"
)

// BatchResult is the outcome of one entry within a batch run.
type BatchResult struct {
	EntryID  string `json:"entryId"`
	Outcome  string `json:"outcome"`
	Attempts int    `json:"attempts,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// ProcessBatch pushes the given queue entries to their target portals, one at
// a time. Each entry's outcome is independent: an entry's failure is recorded
// in its result and never aborts the batch. Cancellation is honored between
// items; entries not reached are reported as cancelled.
func (s *Service) ProcessBatch(ctx context.Context, tenantID string, entryIDs []string) []BatchResult {
	results := make([]BatchResult, 0, len(entryIDs))
	for i, entryID := range entryIDs {
		if err := ctx.Err(); err != nil {
			for _, remaining := range entryIDs[i:] {
				results = append(results, BatchResult{EntryID: remaining, Outcome: OutcomeCancelled})
			}
			break
		}
		results = append(results, s.processOne(ctx, tenantID, entryID))
	}
	return results
}

func (s *Service) processOne(ctx context.Context, tenantID, entryID string) (result BatchResult) {
	result = BatchResult{EntryID: entryID}
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("panic while processing queue entry", map[string]any{
				"tenant_id": tenantID,
				"entry_id":  entryID,
				"panic":     fmt.Sprint(r),
			})
			result.Outcome = OutcomeError
			result.Detail = fmt.Sprintf("panic: %v", r)
			metrics.IncBatchItemsFailed()
		}
	}()

	entry, err := s.Repo.GetByID(ctx, tenantID, entryID)
	if err != nil {
		return s.failResult(result, fmt.Sprintf("load entry: %v", err))
	}
	if entry.Status != StatusQueued {
		return s.failResult(result, fmt.Sprintf("entry is %s, expected %s", entry.Status, StatusQueued))
	}

	// Credential absence is an expected state. The entry stays queued so it
	// can run once the tenant configures the portal login.
	cred, err := s.Credentials.Get(ctx, tenantID, entry.TargetPlatform, "")
	if err != nil {
		return s.failResult(result, fmt.Sprintf("load credential: %v", err))
	}
	if cred == nil {
		result.Outcome = OutcomeNotConfigured
		result.Detail = fmt.Sprintf("no credential for platform %s", entry.TargetPlatform)
		return result
	}

	doc, err := s.Docs.GetByID(ctx, tenantID, entry.DocumentID)
	if err != nil {
		return s.failResult(result, fmt.Sprintf("load document: %v", err))
	}

	entry, err = s.transition(ctx, entry, StatusInProgress, "", "")
	if err != nil {
		return s.failResult(result, fmt.Sprintf("start entry: %v", err))
	}

	content, err := s.Blobs.Download(ctx, doc.StoragePath)
	if err != nil {
		return s.recordFailure(ctx, entry, result, 0, fmt.Sprintf("download blob: %v", err))
	}

	start := metrics.NowMillis()
	attempts, err := s.Portal.Upload(ctx, platform.UploadRequest{
		Platform: entry.TargetPlatform,
		Username: cred.Username,
		Password: cred.Password,
		FileName: doc.Metadata.OriginalFilename,
		MimeType: doc.MimeType,
		Content:  content,
	})
	metrics.ObservePortalUploadMs(metrics.NowMillis() - start)
	result.Attempts = attempts

	if err != nil {
		detail := err.Error()
		if errors.Is(err, platform.ErrUploadTimeout) {
			detail = fmt.Sprintf("portal %s timed out after %d attempts", entry.TargetPlatform, attempts)
		}
		return s.recordFailure(ctx, entry, result, attempts, detail)
	}

	// The portal accepted the file; stage a copy for the handoff trail.
	if _, moveErr := s.Blobs.Move(ctx, doc.StoragePath, entry.TargetPlatform.String()); moveErr != nil {
		telemetry.Error("failed to stage uploaded blob", map[string]any{
			"tenant_id": tenantID,
			"entry_id":  entry.ID,
			"error":     moveErr.Error(),
		})
	}

	entry.RetryCount += attempts - 1
	if _, err := s.transition(ctx, entry, StatusUploaded, "", ""); err != nil {
		return s.failResult(result, fmt.Sprintf("finish entry: %v", err))
	}

	if err := s.Credentials.MarkValidated(ctx, cred); err != nil {
		telemetry.Error("failed to mark credential validated", map[string]any{
			"tenant_id": tenantID,
			"entry_id":  entry.ID,
			"error":     err.Error(),
		})
	}

	result.Outcome = OutcomeUploaded
	return result
}

func (s *Service) failResult(result BatchResult, detail string) BatchResult {
	result.Outcome = OutcomeError
	result.Detail = detail
	metrics.IncBatchItemsFailed()
	return result
}

// recordFailure flips the in-progress entry to error and accounts retries.
func (s *Service) recordFailure(ctx context.Context, entry Entry, result BatchResult, attempts int, detail string) BatchResult {
	if attempts > 1 {
		entry.RetryCount += attempts - 1
	}
	if _, err := s.transition(ctx, entry, StatusError, "", detail); err != nil {
		telemetry.Error("failed to record entry failure", map[string]any{
			"tenant_id": entry.TenantID,
			"entry_id":  entry.ID,
			"error":     err.Error(),
		})
	}
	return s.failResult(result, detail)
}
