package rag

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/raggate/raggate/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	// A file-backed database: with this driver every pooled connection to
	// ":memory:" would see its own empty database.
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeTestDocument(workspace, id string) *model.Document {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Document{
		ID:        id,
		Workspace: workspace,
		Title:     "note",
		Content:   "the quick brown fox",
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := makeTestDocument("tenant_a", model.NewID())

	if err := s.CreateDocument(ctx, d); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	got, err := s.GetDocument(ctx, "tenant_a", d.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Content != d.Content || got.Status != model.StatusPending {
		t.Errorf("got %+v, want content %q status %q", got, d.Content, model.StatusPending)
	}
}

func TestSameDocumentIDAcrossWorkspaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := makeTestDocument("tenant_a", "doc-1")
	a.Content = "alpha content"
	b := makeTestDocument("tenant_b", "doc-1")
	b.Content = "beta content"

	if err := s.CreateDocument(ctx, a); err != nil {
		t.Fatalf("CreateDocument(a): %v", err)
	}
	if err := s.CreateDocument(ctx, b); err != nil {
		t.Fatalf("CreateDocument(b): same id in another workspace must not collide: %v", err)
	}

	gotA, err := s.GetDocument(ctx, "tenant_a", "doc-1")
	if err != nil {
		t.Fatalf("GetDocument(tenant_a): %v", err)
	}
	gotB, err := s.GetDocument(ctx, "tenant_b", "doc-1")
	if err != nil {
		t.Fatalf("GetDocument(tenant_b): %v", err)
	}
	if gotA.Content != "alpha content" || gotB.Content != "beta content" {
		t.Errorf("cross-workspace leak: a=%q b=%q", gotA.Content, gotB.Content)
	}

	// Deleting in one workspace must not touch the other.
	if err := s.DeleteDocument(ctx, "tenant_a", "doc-1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := s.GetDocument(ctx, "tenant_b", "doc-1"); err != nil {
		t.Errorf("tenant_b document vanished after tenant_a delete: %v", err)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDocument(context.Background(), "tenant_a", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSearchTermsIsWorkspaceScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceTerms(ctx, "tenant_a", "doc-1", map[string]int{"fox": 2, "quick": 1}); err != nil {
		t.Fatalf("ReplaceTerms(a): %v", err)
	}
	if err := s.ReplaceTerms(ctx, "tenant_b", "doc-1", map[string]int{"fox": 5}); err != nil {
		t.Fatalf("ReplaceTerms(b): %v", err)
	}

	scores, err := s.SearchTerms(ctx, "tenant_a", []string{"fox", "quick"}, 10)
	if err != nil {
		t.Fatalf("SearchTerms: %v", err)
	}
	if scores["doc-1"] != 3 {
		t.Errorf("tenant_a score = %d, want 3 (tenant_b terms must not count)", scores["doc-1"])
	}
}

func TestUpdateDocumentStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := makeTestDocument("tenant_a", model.NewID())

	if err := s.CreateDocument(ctx, d); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if err := s.UpdateDocumentStatus(ctx, "tenant_a", d.ID, model.StatusIndexed, ""); err != nil {
		t.Fatalf("UpdateDocumentStatus: %v", err)
	}

	if err := s.UpdateDocumentStatus(ctx, "tenant_a", d.ID, model.StatusFailed, "nope"); err == nil {
		t.Error("indexed -> failed transition succeeded, want rejection")
	}

	got, err := s.GetDocument(ctx, "tenant_a", d.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Status != model.StatusIndexed {
		t.Errorf("status = %q, want %q", got.Status, model.StatusIndexed)
	}
}

func TestListDocumentsScopedAndPaged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.CreateDocument(ctx, makeTestDocument("tenant_a", model.NewID())); err != nil {
			t.Fatalf("CreateDocument: %v", err)
		}
	}
	if err := s.CreateDocument(ctx, makeTestDocument("tenant_b", model.NewID())); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	docs, total, err := s.ListDocuments(ctx, "tenant_a", 2, 0)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(docs) != 2 {
		t.Errorf("len(docs) = %d, want 2", len(docs))
	}
	for _, d := range docs {
		if d.Workspace != "tenant_a" {
			t.Errorf("listed document from workspace %q", d.Workspace)
		}
	}
}

func TestCountByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := makeTestDocument("tenant_a", model.NewID())
	if err := s.CreateDocument(ctx, d); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if err := s.UpdateDocumentStatus(ctx, "tenant_a", d.ID, model.StatusIndexed, ""); err != nil {
		t.Fatalf("UpdateDocumentStatus: %v", err)
	}
	if err := s.CreateDocument(ctx, makeTestDocument("tenant_a", model.NewID())); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	counts, err := s.CountByStatus(ctx, "tenant_a")
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[model.StatusIndexed] != 1 || counts[model.StatusPending] != 1 {
		t.Errorf("counts = %v, want one indexed and one pending", counts)
	}
}
