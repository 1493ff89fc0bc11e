package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/raggate/raggate/internal/deferred"
	"github.com/raggate/raggate/internal/model"
	"github.com/raggate/raggate/internal/rag"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodySize      = 1 << 20 // 1 MB
)

// insertDocumentRequest is the JSON body for POST /v1/documents.
type insertDocumentRequest struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// listDocumentsResponse wraps the paginated list response.
type listDocumentsResponse struct {
	Documents []*model.Document `json:"documents"`
	Total     int               `json:"total"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}

// handleInsertDocument stores the document as pending and schedules the
// indexing pass on the deferred runner. The task is bound to the caller's
// request context before the response is written: it will run after this
// request has completed, on a different goroutine, and must still route to
// the same workspace.
func (s *Server) handleInsertDocument(w http.ResponseWriter, r *http.Request) {
	var req insertDocumentRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	doc := &model.Document{
		ID:      req.ID,
		Title:   req.Title,
		Content: req.Content,
	}
	if doc.ID == "" {
		doc.ID = model.NewID()
	}

	if err := s.facade.InsertDocument(r.Context(), doc); err != nil {
		s.routedError(w, "insert document", err)
		return
	}

	docID := doc.ID
	task, err := deferred.Bind(r.Context(), func(ctx context.Context) error {
		return s.facade.ProcessDocument(ctx, docID)
	})
	if err != nil {
		s.logger.Error("bind indexing task", "doc_id", docID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to schedule indexing")
		return
	}
	if err := s.runner.Submit(task); err != nil {
		s.logger.Error("submit indexing task", "doc_id", docID, "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "indexing queue unavailable")
		return
	}

	s.writeJSON(w, http.StatusAccepted, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := s.facade.GetDocument(r.Context(), id)
	if errors.Is(err, rag.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.routedError(w, "get document", err)
		return
	}

	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	docs, total, err := s.facade.ListDocuments(r.Context(), limit, offset)
	if err != nil {
		s.routedError(w, "list documents", err)
		return
	}

	if docs == nil {
		docs = []*model.Document{}
	}

	s.writeJSON(w, http.StatusOK, listDocumentsResponse{
		Documents: docs,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.facade.DeleteDocument(r.Context(), id)
	if errors.Is(err, rag.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.routedError(w, "delete document", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
