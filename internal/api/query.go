package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/raggate/raggate/internal/rag"
	"github.com/raggate/raggate/internal/reqctx"
	"github.com/raggate/raggate/internal/tenant"
)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req rag.QueryRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.facade.Query(r.Context(), req)
	if err != nil {
		s.routedError(w, "query", err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// routedError maps routing-core failures to responses. A missing request
// context is an internal defect (the middleware should have established
// one) and is logged loudly; an initialization failure is a retryable
// service error.
func (s *Server) routedError(w http.ResponseWriter, op string, err error) {
	var initErr *tenant.InitError
	switch {
	case errors.Is(err, reqctx.ErrMissingContext):
		s.logger.Error("routed call without request context", "op", op, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	case errors.As(err, &initErr):
		s.logger.Error("workspace initialization failed", "op", op, "workspace", initErr.Workspace, "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "workspace is temporarily unavailable, retry later")
	default:
		s.logger.Error(op, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}
