// Package reqctx carries the tenant identity of an in-flight operation.
//
// A Context is an immutable value attached to a context.Context at the
// request boundary and threaded explicitly through every call that may
// cross a scheduling boundary. It is never recovered from process-global
// state: code that needs the workspace takes a context.Context, and
// deferred work must capture the value before the originating request
// finishes (see package deferred).
package reqctx

import (
	"context"
	"errors"
)

// ErrMissingContext is returned when a routed call runs without an
// established request context. This is a programming defect at the call
// boundary, not a user-facing condition; callers must never recover by
// guessing a workspace.
var ErrMissingContext = errors.New("no request context established")

// Context identifies the workspace a logical operation belongs to.
// The zero value is not valid; construct with New.
type Context struct {
	Workspace string
}

// New returns a request context for the given workspace.
func New(workspace string) Context {
	return Context{Workspace: workspace}
}

// key is the context key type for the request context. Unexported so only
// this package can attach or read the value.
type key struct{}

// With returns a copy of ctx carrying rc as the active request context.
func With(ctx context.Context, rc Context) context.Context {
	return context.WithValue(ctx, key{}, rc)
}

// From returns the active request context, if one has been established.
func From(ctx context.Context) (Context, bool) {
	rc, ok := ctx.Value(key{}).(Context)
	return rc, ok
}

// Require returns the active request context or ErrMissingContext.
func Require(ctx context.Context) (Context, error) {
	rc, ok := From(ctx)
	if !ok || rc.Workspace == "" {
		return Context{}, ErrMissingContext
	}
	return rc, nil
}
