package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/raggate/raggate/internal/rag"
)

// Factory constructs the engine instance for a previously-unseen workspace.
// The workspace is the storage-isolation key: everything the engine persists
// must be addressable under it. The factory is called at most once per
// workspace per successful initialization.
type Factory func(ctx context.Context, workspace string) (rag.Engine, error)

// InitError reports that the engine instance for a workspace could not be
// constructed. It is retryable: the registry never caches failures, so the
// next access attempts construction again.
type InitError struct {
	Workspace string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize workspace %q: %v", e.Workspace, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Registry maps workspaces to live engine instances and enforces
// single-construction per workspace under concurrent first access.
//
// A Registry is an explicitly constructed value with process-wide lifetime,
// passed to collaborators; there is no package-level instance. Tests may
// construct as many independent registries as they like.
type Registry struct {
	factory Factory
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[string]rag.Engine

	// initLocks holds one mutex per workspace so initialization of
	// unrelated workspaces proceeds in parallel. lockMu only guards the
	// map itself and is never held across construction.
	lockMu    sync.Mutex
	initLocks map[string]*sync.Mutex
}

// NewRegistry creates a registry that constructs engines via factory.
func NewRegistry(factory Factory, logger *slog.Logger) *Registry {
	return &Registry{
		factory:   factory,
		logger:    logger,
		entries:   make(map[string]rag.Engine),
		initLocks: make(map[string]*sync.Mutex),
	}
}

// GetOrCreate returns the engine instance for the workspace, constructing
// it on first access. For N concurrent first-time callers the underlying
// construction runs exactly once and all N observe the same handle; on
// failure all waiters observe the same *InitError and any of them may
// retry.
func (r *Registry) GetOrCreate(ctx context.Context, workspace string) (rag.Engine, error) {
	// Hot path: ready entries are returned under the read lock alone.
	r.mu.RLock()
	eng, ok := r.entries[workspace]
	r.mu.RUnlock()
	if ok {
		return eng, nil
	}

	lock := r.initLock(workspace)
	lock.Lock()
	defer lock.Unlock()

	// Double-checked: another caller may have finished initialization
	// while this one waited for the per-workspace lock.
	r.mu.RLock()
	eng, ok = r.entries[workspace]
	r.mu.RUnlock()
	if ok {
		return eng, nil
	}

	r.logger.Info("initializing workspace engine", "workspace", workspace)

	// Construction proceeds even if this caller's request is cancelled:
	// other waiters on the same workspace depend on it completing.
	eng, err := r.factory(context.WithoutCancel(ctx), workspace)
	if err != nil {
		tenantInitsTotal.WithLabelValues("failure").Inc()
		r.logger.Error("workspace engine initialization failed", "workspace", workspace, "error", err)
		return nil, &InitError{Workspace: workspace, Err: err}
	}

	r.mu.Lock()
	r.entries[workspace] = eng
	r.mu.Unlock()

	tenantInitsTotal.WithLabelValues("success").Inc()
	activeTenants.Inc()
	r.logger.Info("workspace engine ready", "workspace", workspace)
	return eng, nil
}

// Lookup returns the engine for a workspace only if it is already live.
func (r *Registry) Lookup(workspace string) (rag.Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eng, ok := r.entries[workspace]
	return eng, ok
}

// Workspaces returns the live workspaces, sorted for stable output.
func (r *Registry) Workspaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for ws := range r.entries {
		out = append(out, ws)
	}
	sort.Strings(out)
	return out
}

// finalizer is implemented by engines that hold per-workspace resources
// needing release at shutdown.
type finalizer interface {
	Finalize(ctx context.Context) error
}

// Close finalizes every live engine. Entries live until process shutdown;
// there is no idle eviction.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for ws, eng := range r.entries {
		f, ok := eng.(finalizer)
		if !ok {
			continue
		}
		if err := f.Finalize(ctx); err != nil {
			r.logger.Error("finalize workspace engine", "workspace", ws, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("finalize workspace %s: %w", ws, err)
			}
		}
	}
	clear(r.entries)
	activeTenants.Set(0)
	return firstErr
}

// initLock returns the per-workspace initialization mutex, creating it on
// first use.
func (r *Registry) initLock(workspace string) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()

	lock, ok := r.initLocks[workspace]
	if !ok {
		lock = &sync.Mutex{}
		r.initLocks[workspace] = lock
	}
	return lock
}
