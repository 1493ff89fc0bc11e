package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/raggate/raggate/internal/model"
)

// QueryRequest is a retrieval request against one workspace.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// QueryHit is a single retrieved document with its match score.
type QueryHit struct {
	Document *model.Document `json:"document"`
	Score    int             `json:"score"`
}

// QueryResult holds the ranked hits for a query.
type QueryResult struct {
	Workspace string      `json:"workspace"`
	Hits      []*QueryHit `json:"hits"`
}

// WorkspaceStatus summarizes one workspace's engine state.
type WorkspaceStatus struct {
	Workspace     string         `json:"workspace"`
	Documents     int            `json:"documents"`
	CountByStatus map[string]int `json:"count_by_status"`
	StagingDir    string         `json:"staging_dir"`
}

// DefaultTopK is the result count when a query does not specify one.
const DefaultTopK = 10

// Engine is the fixed operation surface routed to a workspace instance.
// Implementations hold the state of exactly one workspace; routing between
// workspaces happens above this interface, never inside it.
type Engine interface {
	Query(ctx context.Context, req QueryRequest) (*QueryResult, error)
	InsertDocument(ctx context.Context, doc *model.Document) error
	ProcessDocument(ctx context.Context, id string) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	ListDocuments(ctx context.Context, limit, offset int) ([]*model.Document, int, error)
	DeleteDocument(ctx context.Context, id string) error
	Status(ctx context.Context) (*WorkspaceStatus, error)
}

// Compile-time interface satisfaction check.
var _ Engine = (*Instance)(nil)

// Instance is the engine for a single workspace. All persistence goes
// through the shared Store with this instance's workspace as the isolation
// key.
type Instance struct {
	workspace string
	store     *Store
	docs      *DocumentManager
	logger    *slog.Logger
}

// New creates an engine instance for the workspace. The instance is not
// usable until Init succeeds.
func New(store *Store, docs *DocumentManager, workspace string, logger *slog.Logger) *Instance {
	return &Instance{
		workspace: workspace,
		store:     store,
		docs:      docs,
		logger:    logger.With("workspace", workspace),
	}
}

// Init provisions the per-workspace resources: the staging directory and a
// verified store connection. Failures here surface as initialization errors
// to the registry, which will retry on the next access.
func (e *Instance) Init(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("verify store: %w", err)
	}
	if err := e.docs.Init(); err != nil {
		return err
	}
	e.logger.Info("workspace engine initialized", "staging_dir", e.docs.Dir())
	return nil
}

// Documents returns the workspace's document manager.
func (e *Instance) Documents() *DocumentManager {
	return e.docs
}

// Finalize releases per-workspace resources at shutdown. The shared store
// is owned by the caller and closed separately.
func (e *Instance) Finalize(ctx context.Context) error {
	e.logger.Info("workspace engine finalized")
	return nil
}

// InsertDocument stores a document in pending state. Indexing happens later
// via ProcessDocument, normally on the deferred runner.
func (e *Instance) InsertDocument(ctx context.Context, doc *model.Document) error {
	doc.Workspace = e.workspace
	doc.Status = model.StatusPending
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	return e.store.CreateDocument(ctx, doc)
}

// ProcessDocument tokenizes a pending document into index terms and marks
// it indexed, or failed with the error recorded on the document.
func (e *Instance) ProcessDocument(ctx context.Context, id string) error {
	doc, err := e.store.GetDocument(ctx, e.workspace, id)
	if err != nil {
		return err
	}

	freqs := tokenize(doc.Title + " " + doc.Content)
	if err := e.store.ReplaceTerms(ctx, e.workspace, id, freqs); err != nil {
		if serr := e.store.UpdateDocumentStatus(ctx, e.workspace, id, model.StatusFailed, err.Error()); serr != nil {
			e.logger.Error("mark document failed", "doc_id", id, "error", serr)
		}
		return fmt.Errorf("index document %s: %w", id, err)
	}

	if err := e.store.UpdateDocumentStatus(ctx, e.workspace, id, model.StatusIndexed, ""); err != nil {
		return err
	}
	e.logger.Debug("document indexed", "doc_id", id, "terms", len(freqs))
	return nil
}

// Query scores indexed documents by keyword overlap and returns the top
// hits. Document content is included so small deployments need no second
// fetch.
func (e *Instance) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	terms := make([]string, 0, 8)
	for term := range tokenize(req.Query) {
		terms = append(terms, term)
	}

	scores, err := e.store.SearchTerms(ctx, e.workspace, terms, topK)
	if err != nil {
		return nil, err
	}

	hits := make([]*QueryHit, 0, len(scores))
	for docID, score := range scores {
		doc, err := e.store.GetDocument(ctx, e.workspace, docID)
		if err != nil {
			// Deleted between scoring and fetch; skip rather than fail the query.
			continue
		}
		hits = append(hits, &QueryHit{Document: doc, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})

	return &QueryResult{Workspace: e.workspace, Hits: hits}, nil
}

// GetDocument returns one document by id.
func (e *Instance) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return e.store.GetDocument(ctx, e.workspace, id)
}

// ListDocuments returns a page of the workspace's documents.
func (e *Instance) ListDocuments(ctx context.Context, limit, offset int) ([]*model.Document, int, error) {
	return e.store.ListDocuments(ctx, e.workspace, limit, offset)
}

// DeleteDocument removes a document and its index terms.
func (e *Instance) DeleteDocument(ctx context.Context, id string) error {
	return e.store.DeleteDocument(ctx, e.workspace, id)
}

// Status reports the workspace's document counts.
func (e *Instance) Status(ctx context.Context) (*WorkspaceStatus, error) {
	counts, err := e.store.CountByStatus(ctx, e.workspace)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &WorkspaceStatus{
		Workspace:     e.workspace,
		Documents:     total,
		CountByStatus: counts,
		StagingDir:    e.docs.Dir(),
	}, nil
}

// tokenize lowercases text and counts term frequencies. Terms shorter than
// two runes carry no signal and are dropped.
func tokenize(text string) map[string]int {
	freqs := make(map[string]int)
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(field)) < 2 {
			continue
		}
		freqs[field]++
	}
	return freqs
}
