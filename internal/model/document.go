package model

import "time"

// Document ingest status constants.
const (
	StatusPending = "pending"
	StatusIndexed = "indexed"
	StatusFailed  = "failed"
)

// validTransitions maps each status to the set of statuses it may transition to.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusIndexed: true,
		StatusFailed:  true,
	},
	StatusFailed: {
		StatusPending: true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Document is a single ingested document. Workspace is the tenant isolation
// key: a document is only ever addressable as (Workspace, ID), never by ID
// alone, so two tenants may reuse the same ID without collision.
type Document struct {
	ID        string    `json:"id"`
	Workspace string    `json:"workspace"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
