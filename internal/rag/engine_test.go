package rag

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/raggate/raggate/internal/model"
)

func newTestInstance(t *testing.T, store *Store, workspace string) *Instance {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inst := New(store, NewDocumentManager(t.TempDir(), workspace), workspace, logger)
	if err := inst.Init(context.Background()); err != nil {
		t.Fatalf("Init(%s): %v", workspace, err)
	}
	return inst
}

func TestInsertProcessQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inst := newTestInstance(t, s, "tenant_a")

	doc := &model.Document{ID: "doc-1", Title: "fox", Content: "the quick brown fox jumps"}
	if err := inst.InsertDocument(ctx, doc); err != nil {
		t.Fatalf("InsertDocument: %v", err)
	}
	if doc.Status != model.StatusPending {
		t.Errorf("status after insert = %q, want %q", doc.Status, model.StatusPending)
	}

	if err := inst.ProcessDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	got, err := inst.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Status != model.StatusIndexed {
		t.Errorf("status after process = %q, want %q", got.Status, model.StatusIndexed)
	}

	result, err := inst.Query(ctx, QueryRequest{Query: "quick fox"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(result.Hits) != 1 || result.Hits[0].Document.ID != "doc-1" {
		t.Fatalf("hits = %+v, want doc-1", result.Hits)
	}
	// "fox" appears in title and content, "quick" once: summed frequency 3.
	if result.Hits[0].Score != 3 {
		t.Errorf("score = %d, want 3", result.Hits[0].Score)
	}
}

func TestQueryNeverCrossesWorkspaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	instA := newTestInstance(t, s, "tenant_a")
	instB := newTestInstance(t, s, "tenant_b")

	if err := instA.InsertDocument(ctx, &model.Document{ID: "doc-1", Content: "alpha secret ledger"}); err != nil {
		t.Fatalf("InsertDocument(a): %v", err)
	}
	if err := instA.ProcessDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("ProcessDocument(a): %v", err)
	}
	if err := instB.InsertDocument(ctx, &model.Document{ID: "doc-1", Content: "beta public notes"}); err != nil {
		t.Fatalf("InsertDocument(b): %v", err)
	}
	if err := instB.ProcessDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("ProcessDocument(b): %v", err)
	}

	result, err := instB.Query(ctx, QueryRequest{Query: "secret ledger"})
	if err != nil {
		t.Fatalf("Query(b): %v", err)
	}
	if len(result.Hits) != 0 {
		t.Fatalf("tenant_b query returned tenant_a content: %+v", result.Hits)
	}

	result, err = instA.Query(ctx, QueryRequest{Query: "secret"})
	if err != nil {
		t.Fatalf("Query(a): %v", err)
	}
	if len(result.Hits) != 1 || result.Hits[0].Document.Content != "alpha secret ledger" {
		t.Fatalf("tenant_a query = %+v, want its own document", result.Hits)
	}
}

func TestStatusCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inst := newTestInstance(t, s, "tenant_a")

	if err := inst.InsertDocument(ctx, &model.Document{ID: "doc-1", Content: "one"}); err != nil {
		t.Fatalf("InsertDocument: %v", err)
	}

	status, err := inst.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Workspace != "tenant_a" || status.Documents != 1 {
		t.Errorf("status = %+v, want 1 document in tenant_a", status)
	}
	if status.CountByStatus[model.StatusPending] != 1 {
		t.Errorf("pending count = %d, want 1", status.CountByStatus[model.StatusPending])
	}
}

func TestDocumentManagerStaging(t *testing.T) {
	root := t.TempDir()
	m := NewDocumentManager(root, "tenant_a")
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	path, err := m.Stage("../escape.txt", []byte("content"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(root, "tenant_a") {
		t.Errorf("staged outside workspace dir: %s", path)
	}
}

func TestTokenize(t *testing.T) {
	freqs := tokenize("The quick, quick fox! a b1")
	if freqs["quick"] != 2 {
		t.Errorf("quick = %d, want 2", freqs["quick"])
	}
	if freqs["the"] != 1 {
		t.Errorf("the = %d, want 1", freqs["the"])
	}
	if _, ok := freqs["a"]; ok {
		t.Error("single-rune term was indexed")
	}
	if freqs["b1"] != 1 {
		t.Errorf("b1 = %d, want 1", freqs["b1"])
	}
}
