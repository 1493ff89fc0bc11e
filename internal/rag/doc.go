// Package rag implements the per-workspace retrieval engine and the shared
// workspace-keyed document store behind it. One Instance exists per
// workspace; all instances share a single Store, with the workspace
// identifier as a mandatory dimension of every key. The retrieval itself is
// deliberately simple keyword-overlap scoring: the interesting property of
// this package is isolation, not ranking quality.
package rag
