package rag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/raggate/raggate/internal/model"

	_ "modernc.org/sqlite"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
    workspace  TEXT NOT NULL,
    id         TEXT NOT NULL,
    title      TEXT,
    content    TEXT NOT NULL,
    status     TEXT NOT NULL,
    error      TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    PRIMARY KEY (workspace, id)
)`

const createTermsTable = `
CREATE TABLE IF NOT EXISTS terms (
    workspace TEXT NOT NULL,
    term      TEXT NOT NULL,
    doc_id    TEXT NOT NULL,
    freq      INTEGER NOT NULL,
    PRIMARY KEY (workspace, term, doc_id)
)`

// ErrNotFound is returned when a document does not exist in the workspace.
var ErrNotFound = errors.New("document not found")

// Store is the shared persistence backend for all workspaces. Every
// statement is keyed by workspace: a document is addressable only as
// (workspace, id), so two workspaces may hold documents with the same id
// without colliding.
type Store struct {
	db *sql.DB
}

// NewStore opens the SQLite database at dbPath and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	for _, stmt := range []string{createDocumentsTable, createTermsTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migration: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateDocument inserts a new document record into the given workspace.
func (s *Store) CreateDocument(ctx context.Context, d *model.Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (workspace, id, title, content, status, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Workspace, d.ID, d.Title, d.Content, d.Status, d.Error, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument returns the document with the given id in the given workspace.
func (s *Store) GetDocument(ctx context.Context, workspace, id string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT workspace, id, title, content, status, error, created_at, updated_at
		 FROM documents WHERE workspace = ? AND id = ?`,
		workspace, id,
	)

	var d model.Document
	err := row.Scan(&d.Workspace, &d.ID, &d.Title, &d.Content, &d.Status, &d.Error, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &d, nil
}

// ListDocuments returns a page of documents in the workspace, newest first,
// plus the total count.
func (s *Store) ListDocuments(ctx context.Context, workspace string, limit, offset int) ([]*model.Document, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE workspace = ?`, workspace,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT workspace, id, title, content, status, error, created_at, updated_at
		 FROM documents WHERE workspace = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		workspace, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.Workspace, &d.ID, &d.Title, &d.Content, &d.Status, &d.Error, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, total, nil
}

// UpdateDocumentStatus transitions a document's status, recording an error
// message on failure transitions. Rejects transitions not allowed by the
// model transition table.
func (s *Store) UpdateDocumentStatus(ctx context.Context, workspace, id, status, errMsg string) error {
	cur, err := s.GetDocument(ctx, workspace, id)
	if err != nil {
		return err
	}
	if !model.ValidTransition(cur.Status, status) {
		return fmt.Errorf("invalid status transition %s -> %s", cur.Status, status)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, error = ?, updated_at = ? WHERE workspace = ? AND id = ?`,
		status, errMsg, time.Now().UTC(), workspace, id,
	)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

// DeleteDocument removes a document and its index terms from the workspace.
func (s *Store) DeleteDocument(ctx context.Context, workspace, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE workspace = ? AND id = ?`, workspace, id,
	)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM terms WHERE workspace = ? AND doc_id = ?`, workspace, id,
	); err != nil {
		return fmt.Errorf("delete terms: %w", err)
	}
	return nil
}

// ReplaceTerms rewrites the index terms for a document in the workspace.
func (s *Store) ReplaceTerms(ctx context.Context, workspace, docID string, freqs map[string]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM terms WHERE workspace = ? AND doc_id = ?`, workspace, docID,
	); err != nil {
		return fmt.Errorf("clear terms: %w", err)
	}

	for term, freq := range freqs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO terms (workspace, term, doc_id, freq) VALUES (?, ?, ?, ?)`,
			workspace, term, docID, freq,
		); err != nil {
			return fmt.Errorf("insert term: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit terms: %w", err)
	}
	return nil
}

// SearchTerms returns per-document match scores for the given terms within
// the workspace, best first. The score is the summed frequency of matched
// terms.
func (s *Store) SearchTerms(ctx context.Context, workspace string, terms []string, limit int) (map[string]int, error) {
	scores := make(map[string]int)
	if len(terms) == 0 {
		return scores, nil
	}

	args := make([]any, 0, len(terms)+2)
	args = append(args, workspace)
	placeholders := ""
	for i, term := range terms {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, term)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, SUM(freq) AS score FROM terms
		 WHERE workspace = ? AND term IN (`+placeholders+`)
		 GROUP BY doc_id ORDER BY score DESC LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("search terms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID string
		var score int
		if err := rows.Scan(&docID, &score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores[docID] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return scores, nil
}

// CountByStatus returns document counts per ingest status for a workspace.
func (s *Store) CountByStatus(ctx context.Context, workspace string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM documents WHERE workspace = ? GROUP BY status`,
		workspace,
	)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}
