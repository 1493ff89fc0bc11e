// Package deferred runs work scheduled during a request after that
// request's handling has concluded. Because the originating request context
// is cancelled (and its values gone) by the time the work runs, every task
// must be bound first: Bind snapshots the request context at scheduling
// time and re-establishes it on the context the task eventually runs under.
// Running routed work unbound is how cross-tenant leakage happens, so Bind
// refuses to wrap work when no request context is active.
package deferred

import (
	"context"
	"fmt"

	"github.com/raggate/raggate/internal/reqctx"
)

// Task is a unit of deferred work. The context it receives is the runner's
// execution context, not the originating request's.
type Task func(ctx context.Context) error

// Bind captures the active request context from ctx and returns a task
// that re-establishes it for the duration of work. The rebinding is
// scoped: it applies only to the context passed into work, never to the
// runner's own context.
func Bind(ctx context.Context, work Task) (Task, error) {
	rc, err := reqctx.Require(ctx)
	if err != nil {
		return nil, fmt.Errorf("bind deferred task: %w", err)
	}
	return func(runCtx context.Context) error {
		return work(reqctx.With(runCtx, rc))
	}, nil
}
