package documents

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"compliance-backend/internal/audit"
	"compliance-backend/internal/classify"
	"compliance-backend/internal/contentstore"
	"compliance-backend/internal/messaging"
	"compliance-backend/internal/projects"
	"compliance-backend/internal/shared/storage/object/local"
	"compliance-backend/internal/shared/util"
)

type stubClassifier struct {
	result classify.Result
	err    error
}

func (c stubClassifier) Classify(ctx context.Context, data []byte, fileName, mimeType string) (classify.Result, error) {
	if c.err != nil {
		return classify.Result{}, c.err
	}
	return c.result, nil
}

type fakeQueue struct {
	corrupted []string
	requeued  []string
}

func (q *fakeQueue) MarkDocumentCorrupted(ctx context.Context, tenantID, documentID, note string) error {
	q.corrupted = append(q.corrupted, documentID)
	return nil
}

func (q *fakeQueue) RequeueForDocument(ctx context.Context, tenantID, documentID string) error {
	q.requeued = append(q.requeued, documentID)
	return nil
}

type failingCreateRepo struct {
	*MemoryRepo
}

func (r *failingCreateRepo) Create(ctx context.Context, doc Document) error {
	return errors.New("insert failed")
}

type testEnv struct {
	svc      *Service
	baseDir  string
	messages *messaging.MemoryRepo
	queue    *fakeQueue
	projects *projects.MemoryRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	baseDir := t.TempDir()
	auditLog := audit.NewLogger(audit.NewMemoryRepo())
	messageRepo := messaging.NewMemoryRepo()
	projectRepo := projects.NewMemoryRepo()
	queue := &fakeQueue{}

	svc := &Service{
		Repo:       NewMemoryRepo(),
		Blobs:      contentstore.New(local.New(baseDir)),
		Classifier: stubClassifier{result: classify.Result{Category: "INSURANCE", Confidence: 0.91}},
		Audit:      auditLog,
		Projects:   projectRepo,
		Messages:   &messaging.Service{Repo: messageRepo, Audit: auditLog},
		Queue:      queue,
	}
	return &testEnv{svc: svc, baseDir: baseDir, messages: messageRepo, queue: queue, projects: projectRepo}
}

func registerInput(fileName string, data []byte) RegisterInput {
	return RegisterInput{
		Placement: Placement{EntityType: "project", EntityID: "p1"},
		Category:  "INSURANCE",
		FileName:  fileName,
		MimeType:  "application/pdf",
		Data:      data,
	}
}

func TestRegisterTwiceWithIdenticalContentDedupes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	content := []byte("certificate of insurance")

	first, deduped, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("coi.pdf", content))
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	if deduped {
		t.Fatalf("first register reported dedup")
	}
	if first.Version != 1 {
		t.Fatalf("expected version 1, got %d", first.Version)
	}

	second, deduped, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("coi-again.pdf", content))
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if !deduped {
		t.Fatalf("second register did not dedup")
	}
	if second.ID != first.ID {
		t.Fatalf("dedup returned a different document: %s vs %s", second.ID, first.ID)
	}
	if second.Version != first.Version || second.ContentHash != first.ContentHash {
		t.Fatalf("dedup changed version or hash")
	}

	stored, err := env.svc.Get(ctx, "t1", first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Metadata.Reuploads) != 1 {
		t.Fatalf("expected 1 reupload record, got %d", len(stored.Metadata.Reuploads))
	}

	docs, err := env.svc.ListByEntity(ctx, "t1", "project", "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected exactly one document, got %d", len(docs))
	}
}

func TestIdenticalContentUnderTwoTenantsIsIndependent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	content := []byte("shared bytes")

	a, _, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("a.pdf", content))
	if err != nil {
		t.Fatalf("tenant t1 register: %v", err)
	}
	b, deduped, err := env.svc.RegisterOrUpdate(ctx, "t2", registerInput("b.pdf", content))
	if err != nil {
		t.Fatalf("tenant t2 register: %v", err)
	}
	if deduped {
		t.Fatalf("dedup crossed the tenant boundary")
	}
	if a.ID == b.ID {
		t.Fatalf("tenants share a document row")
	}
	if a.ContentHash != b.ContentHash {
		t.Fatalf("hashes differ for identical content")
	}

	if _, err := env.svc.Get(ctx, "t2", a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("tenant t2 can read tenant t1's document: %v", err)
	}
}

func TestFailedInsertLeavesNoOrphanBlob(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Repo = &failingCreateRepo{MemoryRepo: NewMemoryRepo()}
	ctx := context.Background()

	_, _, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("doomed.pdf", []byte("payload")))
	if err == nil {
		t.Fatalf("expected insert failure")
	}

	var found []string
	filepath.Walk(env.baseDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && info != nil && !info.IsDir() {
			found = append(found, path)
		}
		return nil
	})
	if len(found) != 0 {
		t.Fatalf("orphan blobs left behind: %v", found)
	}
}

func TestGenuinelyNewContentIncrementsVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, _, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("v1.pdf", []byte("revision one")))
	if err != nil {
		t.Fatalf("register v1: %v", err)
	}
	second, deduped, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("v2.pdf", []byte("revision two")))
	if err != nil {
		t.Fatalf("register v2: %v", err)
	}
	if deduped {
		t.Fatalf("new content reported as dedup")
	}
	if second.Version != first.Version+1 {
		t.Fatalf("expected version %d, got %d", first.Version+1, second.Version)
	}
}

func TestClassifierFailureFallsBackToOther(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Classifier = stubClassifier{err: errors.New("classifier down")}
	ctx := context.Background()

	in := registerInput("mystery.bin", []byte("unclassifiable"))
	in.Category = ""
	doc, _, err := env.svc.RegisterOrUpdate(ctx, "t1", in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if doc.Category != classify.FallbackCategory {
		t.Fatalf("expected fallback category %q, got %q", classify.FallbackCategory, doc.Category)
	}
	if doc.Metadata.Classifier == nil || doc.Metadata.Classifier.Confidence != 0 {
		t.Fatalf("fallback classifier result not recorded")
	}
}

func TestCorruptionNotifiesProjectContact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.projects.PutProject(projects.Project{
		ID:           "p1",
		TenantID:     "t1",
		CompanyID:    "c1",
		Name:         "North Yard",
		ContactEmail: "safety@northyard.example",
	})

	doc, _, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("coi.pdf", []byte("bytes")))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := env.svc.MarkCorrupted(ctx, "t1", doc.ID, "checksum mismatch"); err != nil {
		t.Fatalf("mark corrupted: %v", err)
	}

	stored, err := env.svc.Get(ctx, "t1", doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusCorrupted {
		t.Fatalf("expected status corrupted, got %s", stored.Status)
	}
	if len(env.queue.corrupted) != 1 || env.queue.corrupted[0] != doc.ID {
		t.Fatalf("queue was not told about the corruption: %v", env.queue.corrupted)
	}

	msgs, err := env.messages.ListForTenant(ctx, "t1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(msgs))
	}
	if len(msgs[0].Recipients) != 1 || msgs[0].Recipients[0] != "safety@northyard.example" {
		t.Fatalf("message sent to wrong recipients: %v", msgs[0].Recipients)
	}
	if msgs[0].Priority != messaging.PriorityHigh {
		t.Fatalf("corruption notice not high priority: %s", msgs[0].Priority)
	}
}

func TestIntegrityCheckDetectsTamperedBlob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.projects.PutProject(projects.Project{
		ID: "p1", TenantID: "t1", CompanyID: "c1",
		Name: "North Yard", ContactEmail: "safety@northyard.example",
	})

	in := registerInput("report.txt", []byte("original content"))
	in.MimeType = "text/plain"
	doc, _, err := env.svc.RegisterOrUpdate(ctx, "t1", in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// Tamper with the blob behind the store's back.
	blobPath := filepath.Join(env.baseDir, filepath.FromSlash(doc.StoragePath))
	if err := os.WriteFile(blobPath, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	err = env.svc.CheckIntegrity(ctx, "t1", doc.ID)
	if !errors.Is(err, ErrCorruptionDetected) {
		t.Fatalf("expected corruption, got %v", err)
	}

	stored, _ := env.svc.Get(ctx, "t1", doc.ID)
	if stored.Status != StatusCorrupted {
		t.Fatalf("tampered document not marked corrupted: %s", stored.Status)
	}
}

func TestReuploadReplacesContentAndRequeues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.projects.PutProject(projects.Project{
		ID: "p1", TenantID: "t1", CompanyID: "c1",
		Name: "North Yard", ContactEmail: "safety@northyard.example",
	})

	doc, _, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("coi.pdf", []byte("broken bytes")))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	oldPath := doc.StoragePath
	if err := env.svc.MarkCorrupted(ctx, "t1", doc.ID, "zero-byte file"); err != nil {
		t.Fatalf("mark corrupted: %v", err)
	}

	replacement := []byte("repaired bytes")
	if err := env.svc.Reupload(ctx, "t1", doc.ID, "coi-fixed.pdf", replacement); err != nil {
		t.Fatalf("reupload: %v", err)
	}

	stored, err := env.svc.Get(ctx, "t1", doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusPending {
		t.Fatalf("recovered document not pending: %s", stored.Status)
	}
	if stored.Version != doc.Version+1 {
		t.Fatalf("version not incremented: %d", stored.Version)
	}
	if stored.ContentHash != util.ContentHash(replacement) {
		t.Fatalf("hash not updated for replacement content")
	}
	if stored.StoragePath == oldPath {
		t.Fatalf("storage path unchanged after reupload")
	}

	exists, err := env.svc.Blobs.Exists(ctx, oldPath)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatalf("old blob still present after reupload")
	}
	if len(env.queue.requeued) != 1 || env.queue.requeued[0] != doc.ID {
		t.Fatalf("document not requeued: %v", env.queue.requeued)
	}
}

func TestReuploadRejectsHealthyDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc, _, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("fine.pdf", []byte("fine")))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	err = env.svc.Reupload(ctx, "t1", doc.ID, "fine.pdf", []byte("other"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReuploadMatchingAnotherDocumentConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	keeper, _, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("coi.pdf", []byte("insurance bytes")))
	if err != nil {
		t.Fatalf("register keeper: %v", err)
	}
	broken, _, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("plan.pdf", []byte("broken bytes")))
	if err != nil {
		t.Fatalf("register broken: %v", err)
	}
	if err := env.svc.MarkCorrupted(ctx, "t1", broken.ID, "checksum mismatch"); err != nil {
		t.Fatalf("mark corrupted: %v", err)
	}

	err = env.svc.Reupload(ctx, "t1", broken.ID, "plan.pdf", []byte("insurance bytes"))
	if !errors.Is(err, ErrDuplicateContent) {
		t.Fatalf("expected duplicate content conflict, got %v", err)
	}

	stored, err := env.svc.Get(ctx, "t1", broken.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusCorrupted || stored.ContentHash != broken.ContentHash {
		t.Fatalf("failed reupload mutated the document: status=%s hash=%s", stored.Status, stored.ContentHash)
	}
	if stored.StoragePath != broken.StoragePath {
		t.Fatalf("failed reupload swapped the blob reference")
	}
	if _, err := env.svc.Get(ctx, "t1", keeper.ID); err != nil {
		t.Fatalf("keeper document disturbed: %v", err)
	}

	var blobs int
	err = filepath.Walk(env.baseDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			blobs++
		}
		return err
	})
	if err != nil {
		t.Fatalf("walk store: %v", err)
	}
	if blobs != 2 {
		t.Fatalf("expected only the two original blobs, found %d", blobs)
	}
}

func TestSetStatusValidatesTransition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc, _, err := env.svc.RegisterOrUpdate(ctx, "t1", registerInput("coi.pdf", []byte("bytes")))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := env.svc.SetStatus(ctx, "t1", doc.ID, StatusProcessing); err != nil {
		t.Fatalf("pending -> processing: %v", err)
	}
	stored, err := env.svc.Get(ctx, "t1", doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusProcessing {
		t.Fatalf("status not applied: %s", stored.Status)
	}

	if err := env.svc.SetStatus(ctx, "t1", doc.ID, StatusValidated); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if err := env.svc.SetStatus(ctx, "t1", doc.ID, Status("archived")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}
