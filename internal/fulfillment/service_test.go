package fulfillment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"compliance-backend/internal/audit"
	"compliance-backend/internal/contentstore"
	"compliance-backend/internal/credentials"
	"compliance-backend/internal/documents"
	"compliance-backend/internal/platform"
	"compliance-backend/internal/shared/storage/object/local"
	"compliance-backend/internal/shared/util"
)

type testEnv struct {
	svc    *Service
	docs   *documents.MemoryRepo
	audit  *audit.MemoryRepo
	portal *platform.FakeClient
	creds  *credentials.Service
	blobs  *contentstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	auditRepo := audit.NewMemoryRepo()
	docs := documents.NewMemoryRepo()
	portal := platform.NewFakeClient()

	key := bytes.Repeat([]byte{0x42}, 32)
	cipher, err := credentials.NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	creds := &credentials.Service{
		Repo:   credentials.NewMemoryRepo(),
		Cipher: cipher,
		Audit:  audit.NewLogger(auditRepo),
	}

	blobs := contentstore.New(local.New(t.TempDir()))
	svc := &Service{
		Repo:        NewMemoryRepo(),
		Docs:        docs,
		Blobs:       blobs,
		Credentials: creds,
		Portal:      portal,
		Audit:       audit.NewLogger(auditRepo),
	}
	return &testEnv{svc: svc, docs: docs, audit: auditRepo, portal: portal, creds: creds, blobs: blobs}
}

// seedDocument uploads real bytes and registers a matching document row so
// batch runs can download them.
func (env *testEnv) seedDocument(t *testing.T, tenantID, id, fileName string, content []byte) documents.Document {
	t.Helper()
	ctx := context.Background()
	path, err := env.blobs.Upload(ctx, content, contentstore.BlobRef{
		TenantID:   tenantID,
		EntityType: "project",
		EntityID:   "p1",
		Category:   "INSURANCE",
		Version:    1,
		FileName:   fileName,
	})
	if err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	doc := documents.Document{
		ID:          id,
		TenantID:    tenantID,
		EntityType:  "project",
		EntityID:    "p1",
		Category:    "INSURANCE",
		StoragePath: path,
		MimeType:    "application/pdf",
		SizeBytes:   int64(len(content)),
		ContentHash: util.ContentHash(content),
		Version:     1,
		Status:      documents.StatusPending,
		Metadata:    documents.Metadata{SchemaVersion: documents.MetadataSchemaVersion, OriginalFilename: fileName},
	}
	if err := env.docs.Create(ctx, doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

func (env *testEnv) enqueue(t *testing.T, tenantID, documentID string, priority Priority) Entry {
	t.Helper()
	entry, err := env.svc.Enqueue(context.Background(), tenantID, EnqueueInput{
		ClientID:       "c1",
		ProjectID:      "p1",
		DocumentID:     documentID,
		Priority:       priority,
		TargetPlatform: platform.Nalanda,
	})
	if err != nil {
		t.Fatalf("enqueue %s: %v", documentID, err)
	}
	return entry
}

func TestListByProjectOrdersPriorityTiersFIFO(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	priorities := []Priority{PriorityLow, PriorityUrgent, PriorityNormal, PriorityUrgent}
	ids := make([]string, len(priorities))
	for i, priority := range priorities {
		docID := fmt.Sprintf("doc-%d", i)
		env.seedDocument(t, "t1", docID, fmt.Sprintf("file-%d.pdf", i), []byte(fmt.Sprintf("content %d", i)))
		ids[i] = env.enqueue(t, "t1", docID, priority).ID
	}

	entries, err := env.svc.ListByProject(ctx, "t1", "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	want := []string{ids[1], ids[3], ids[2], ids[0]}
	for i, entry := range entries {
		if entry.ID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, entry.ID, want[i])
		}
	}
}

func TestEnqueueRejectsSecondActiveEntry(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "t1", "doc-1", "coi.pdf", []byte("bytes"))
	env.enqueue(t, "t1", "doc-1", PriorityNormal)

	_, err := env.svc.Enqueue(context.Background(), "t1", EnqueueInput{
		ClientID:       "c1",
		ProjectID:      "p1",
		DocumentID:     "doc-1",
		Priority:       PriorityHigh,
		TargetPlatform: platform.Nalanda,
	})
	if !errors.Is(err, ErrActiveEntryExists) {
		t.Fatalf("expected ErrActiveEntryExists, got %v", err)
	}
}

func TestSetStatusRejectsIllegalTransition(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "t1", "doc-1", "coi.pdf", []byte("bytes"))
	entry := env.enqueue(t, "t1", "doc-1", PriorityNormal)

	_, err := env.svc.SetStatus(context.Background(), "t1", entry.ID, StatusUploaded, "", "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for queued -> uploaded, got %v", err)
	}
}

func TestSetStatusAuditsTransition(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "t1", "doc-1", "coi.pdf", []byte("bytes"))
	entry := env.enqueue(t, "t1", "doc-1", PriorityNormal)
	ctx := context.Background()

	updated, err := env.svc.SetStatus(ctx, "t1", entry.ID, StatusInProgress, "operator started", "")
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != StatusInProgress {
		t.Fatalf("status not applied: %s", updated.Status)
	}

	var found bool
	for _, evt := range env.audit.Events() {
		if evt.Action == audit.ActionQueueStatusChanged &&
			evt.Details["old_status"] == string(StatusQueued) &&
			evt.Details["new_status"] == string(StatusInProgress) &&
			evt.Details["note"] == "operator started" {
			found = true
		}
	}
	if !found {
		t.Fatalf("transition not audited")
	}

	// queue progress mirrors onto the document
	doc, err := env.docs.GetByID(ctx, "t1", "doc-1")
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if doc.Status != documents.StatusProcessing {
		t.Fatalf("document status not mirrored: %s", doc.Status)
	}
}

func TestErrorEntryCanBeRetried(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "t1", "doc-1", "coi.pdf", []byte("bytes"))
	entry := env.enqueue(t, "t1", "doc-1", PriorityNormal)
	ctx := context.Background()

	if _, err := env.svc.SetStatus(ctx, "t1", entry.ID, StatusInProgress, "", ""); err != nil {
		t.Fatalf("to in_progress: %v", err)
	}
	if _, err := env.svc.SetStatus(ctx, "t1", entry.ID, StatusError, "", "portal down"); err != nil {
		t.Fatalf("to error: %v", err)
	}
	updated, err := env.svc.SetStatus(ctx, "t1", entry.ID, StatusQueued, "retrying", "")
	if err != nil {
		t.Fatalf("retry to queued: %v", err)
	}
	if updated.Status != StatusQueued {
		t.Fatalf("entry not requeued: %s", updated.Status)
	}
	if updated.LastError != "" {
		t.Fatalf("last error not cleared on retry: %q", updated.LastError)
	}
}

func TestMarkDocumentCorruptedPullsEntryFromLine(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "t1", "doc-1", "coi.pdf", []byte("bytes"))
	entry := env.enqueue(t, "t1", "doc-1", PriorityNormal)
	ctx := context.Background()

	if err := env.svc.MarkDocumentCorrupted(ctx, "t1", "doc-1", "checksum mismatch"); err != nil {
		t.Fatalf("mark corrupted: %v", err)
	}

	updated, err := env.svc.Get(ctx, "t1", entry.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.Status != StatusError {
		t.Fatalf("entry still in line: %s", updated.Status)
	}
	if updated.LastError != "checksum mismatch" {
		t.Fatalf("corruption detail not recorded: %q", updated.LastError)
	}

	if err := env.svc.RequeueForDocument(ctx, "t1", "doc-1"); err != nil {
		t.Fatalf("requeue: %v", err)
	}
	updated, _ = env.svc.Get(ctx, "t1", entry.ID)
	if updated.Status != StatusQueued {
		t.Fatalf("entry not requeued: %s", updated.Status)
	}
}

func TestRequeueForDocumentWithoutActiveEntryIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Never enqueued: recovery has nothing to put back in line.
	env.seedDocument(t, "t1", "doc-1", "coi.pdf", []byte("bytes"))
	if err := env.svc.RequeueForDocument(ctx, "t1", "doc-1"); err != nil {
		t.Fatalf("requeue without entry: %v", err)
	}

	// Entry already delivered: the terminal record must stay untouched.
	env.seedDocument(t, "t1", "doc-2", "plan.pdf", []byte("other bytes"))
	entry := env.enqueue(t, "t1", "doc-2", PriorityNormal)
	if _, err := env.svc.SetStatus(ctx, "t1", entry.ID, StatusInProgress, "", ""); err != nil {
		t.Fatalf("to in_progress: %v", err)
	}
	if _, err := env.svc.SetStatus(ctx, "t1", entry.ID, StatusUploaded, "", ""); err != nil {
		t.Fatalf("to uploaded: %v", err)
	}
	if err := env.svc.RequeueForDocument(ctx, "t1", "doc-2"); err != nil {
		t.Fatalf("requeue with delivered entry: %v", err)
	}
	delivered, err := env.svc.Get(ctx, "t1", entry.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if delivered.Status != StatusUploaded {
		t.Fatalf("delivered entry disturbed: %s", delivered.Status)
	}
}

func TestStatsCountsByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		env.seedDocument(t, "t1", docID, fmt.Sprintf("f%d.pdf", i), []byte(fmt.Sprintf("c%d", i)))
		env.enqueue(t, "t1", docID, PriorityNormal)
	}
	entries, _ := env.svc.ListByProject(ctx, "t1", "p1")
	if _, err := env.svc.SetStatus(ctx, "t1", entries[0].ID, StatusInProgress, "", ""); err != nil {
		t.Fatalf("set status: %v", err)
	}

	counts, err := env.svc.Stats(ctx, "t1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if counts[StatusQueued] != 2 || counts[StatusInProgress] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
