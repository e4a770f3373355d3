package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"compliance-backend/internal/platform"
)

type panickingPortal struct {
	inner     platform.Client
	panicFile string
}

func (p *panickingPortal) Upload(ctx context.Context, req platform.UploadRequest) (int, error) {
	if req.FileName == p.panicFile {
		panic("portal client blew up")
	}
	return p.inner.Upload(ctx, req)
}

type retryingPortal struct {
	attempts int
}

func (p *retryingPortal) Upload(ctx context.Context, req platform.UploadRequest) (int, error) {
	return p.attempts, nil
}

type cancellingPortal struct {
	inner  platform.Client
	cancel context.CancelFunc
}

func (p *cancellingPortal) Upload(ctx context.Context, req platform.UploadRequest) (int, error) {
	attempts, err := p.inner.Upload(ctx, req)
	p.cancel()
	return attempts, err
}

func (env *testEnv) saveCredential(t *testing.T, tenantID string) {
	t.Helper()
	if err := env.creds.Save(context.Background(), tenantID, platform.Nalanda, "operator", "secret", ""); err != nil {
		t.Fatalf("save credential: %v", err)
	}
}

func (env *testEnv) seedBatch(t *testing.T, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		env.seedDocument(t, "t1", docID, fmt.Sprintf("file-%d.pdf", i), []byte(fmt.Sprintf("content %d", i)))
		ids[i] = env.enqueue(t, "t1", docID, PriorityNormal).ID
	}
	return ids
}

func TestProcessBatchSurvivesOneItemPanicking(t *testing.T) {
	env := newTestEnv(t)
	env.saveCredential(t, "t1")
	ids := env.seedBatch(t, 10)
	env.svc.Portal = &panickingPortal{inner: env.portal, panicFile: "file-4.pdf"}

	results := env.svc.ProcessBatch(context.Background(), "t1", ids)
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}

	var uploaded, failed int
	for i, result := range results {
		switch result.Outcome {
		case OutcomeUploaded:
			uploaded++
		case OutcomeError:
			failed++
			if i != 4 {
				t.Fatalf("unexpected failure at position %d: %s", i, result.Detail)
			}
			if !strings.Contains(result.Detail, "panic") {
				t.Fatalf("panic not reflected in result: %s", result.Detail)
			}
		default:
			t.Fatalf("unexpected outcome %q at position %d", result.Outcome, i)
		}
	}
	if uploaded != 9 || failed != 1 {
		t.Fatalf("expected 9 uploaded and 1 error, got %d/%d", uploaded, failed)
	}
}

func TestProcessBatchReportsMissingCredential(t *testing.T) {
	env := newTestEnv(t)
	ids := env.seedBatch(t, 1)

	results := env.svc.ProcessBatch(context.Background(), "t1", ids)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Outcome != OutcomeNotConfigured {
		t.Fatalf("expected %s, got %s", OutcomeNotConfigured, results[0].Outcome)
	}

	// the entry stays queued for a later run
	entry, err := env.svc.Get(context.Background(), "t1", ids[0])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.Status != StatusQueued {
		t.Fatalf("entry left in %s", entry.Status)
	}
}

func TestProcessBatchHonorsCancellationBetweenItems(t *testing.T) {
	env := newTestEnv(t)
	env.saveCredential(t, "t1")
	ids := env.seedBatch(t, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.svc.Portal = &cancellingPortal{inner: env.portal, cancel: cancel}

	results := env.svc.ProcessBatch(ctx, "t1", ids)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Outcome != OutcomeUploaded {
		t.Fatalf("first item should finish before cancellation: %s", results[0].Outcome)
	}
	for _, result := range results[1:] {
		if result.Outcome != OutcomeCancelled {
			t.Fatalf("expected cancelled, got %s", result.Outcome)
		}
	}
}

func TestProcessBatchCountsRetriesTowardRetryCount(t *testing.T) {
	env := newTestEnv(t)
	env.saveCredential(t, "t1")
	ids := env.seedBatch(t, 1)
	env.svc.Portal = &retryingPortal{attempts: 3}

	results := env.svc.ProcessBatch(context.Background(), "t1", ids)
	if results[0].Outcome != OutcomeUploaded {
		t.Fatalf("expected uploaded, got %s: %s", results[0].Outcome, results[0].Detail)
	}
	if results[0].Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", results[0].Attempts)
	}

	entry, err := env.svc.Get(context.Background(), "t1", ids[0])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.RetryCount != 2 {
		t.Fatalf("expected retry count 2, got %d", entry.RetryCount)
	}
	if entry.Status != StatusUploaded {
		t.Fatalf("entry not uploaded: %s", entry.Status)
	}
}

func TestProcessBatchRecordsPortalFailure(t *testing.T) {
	env := newTestEnv(t)
	env.saveCredential(t, "t1")
	ids := env.seedBatch(t, 1)
	env.portal.FailWith("file-0.pdf", platform.ErrUploadFailed)

	results := env.svc.ProcessBatch(context.Background(), "t1", ids)
	if results[0].Outcome != OutcomeError {
		t.Fatalf("expected error outcome, got %s", results[0].Outcome)
	}

	entry, err := env.svc.Get(context.Background(), "t1", ids[0])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.Status != StatusError {
		t.Fatalf("entry not marked error: %s", entry.Status)
	}
	if entry.LastError == "" {
		t.Fatalf("portal failure detail not recorded")
	}
}
