// Package tenant owns the workspace identifier and the registry mapping
// each workspace to its live engine instance. The registry is the only
// process-wide mutable state in the routing core: it guarantees that engine
// construction runs at most once per workspace under arbitrary concurrent
// first access, that unrelated workspaces initialize fully in parallel, and
// that construction failures are never cached.
package tenant
