// Package routing exposes the engine operation surface without holding any
// tenant state. The Facade resolves the active request context to a
// workspace, fetches (or lazily creates) that workspace's engine through
// the registry, and forwards the call unchanged. It adds no semantics of
// its own beyond routing.
package routing

import (
	"context"

	"github.com/raggate/raggate/internal/model"
	"github.com/raggate/raggate/internal/rag"
	"github.com/raggate/raggate/internal/reqctx"
	"github.com/raggate/raggate/internal/tenant"
)

// Compile-time check: the facade exposes exactly the engine surface.
var _ rag.Engine = (*Facade)(nil)

// Facade routes engine calls to the tenant resolved from the request
// context. A call without an established request context fails with
// reqctx.ErrMissingContext and never falls back to the default workspace.
type Facade struct {
	registry *tenant.Registry
}

// NewFacade creates a facade over the given registry.
func NewFacade(registry *tenant.Registry) *Facade {
	return &Facade{registry: registry}
}

// resolve returns the engine for the context's workspace.
func (f *Facade) resolve(ctx context.Context) (rag.Engine, error) {
	rc, err := reqctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	return f.registry.GetOrCreate(ctx, rc.Workspace)
}

func (f *Facade) Query(ctx context.Context, req rag.QueryRequest) (*rag.QueryResult, error) {
	eng, err := f.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return eng.Query(ctx, req)
}

func (f *Facade) InsertDocument(ctx context.Context, doc *model.Document) error {
	eng, err := f.resolve(ctx)
	if err != nil {
		return err
	}
	return eng.InsertDocument(ctx, doc)
}

func (f *Facade) ProcessDocument(ctx context.Context, id string) error {
	eng, err := f.resolve(ctx)
	if err != nil {
		return err
	}
	return eng.ProcessDocument(ctx, id)
}

func (f *Facade) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	eng, err := f.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return eng.GetDocument(ctx, id)
}

func (f *Facade) ListDocuments(ctx context.Context, limit, offset int) ([]*model.Document, int, error) {
	eng, err := f.resolve(ctx)
	if err != nil {
		return nil, 0, err
	}
	return eng.ListDocuments(ctx, limit, offset)
}

func (f *Facade) DeleteDocument(ctx context.Context, id string) error {
	eng, err := f.resolve(ctx)
	if err != nil {
		return err
	}
	return eng.DeleteDocument(ctx, id)
}

func (f *Facade) Status(ctx context.Context) (*rag.WorkspaceStatus, error) {
	eng, err := f.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return eng.Status(ctx)
}
