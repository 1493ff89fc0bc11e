package api

import (
	"encoding/json"
	"net/http"

	"github.com/raggate/raggate/internal/auth"
	"github.com/raggate/raggate/internal/tenant"
)

// loginRequest is the JSON body for POST /v1/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Workspace   string `json:"workspace"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !s.resolver.Enabled() {
		s.writeError(w, http.StatusNotImplemented, "authentication is disabled")
		return
	}

	identity, err := s.resolver.Authenticate(req.Username, req.Password)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := s.resolver.CreateToken(identity.Username, identity.Role)
	if err != nil {
		s.logger.Error("create token", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	s.writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Workspace:   identity.Workspace,
	})
}

// handleGuestToken issues a short-lived guest token for deployments that
// allow anonymous access but want clients to hold a token anyway.
func (s *Server) handleGuestToken(w http.ResponseWriter, r *http.Request) {
	if !s.resolver.Enabled() || !s.resolver.AnonAccess() {
		s.writeError(w, http.StatusForbidden, "guest access is disabled")
		return
	}

	token, err := s.resolver.CreateToken("guest", auth.RoleGuest)
	if err != nil {
		s.logger.Error("create guest token", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	s.writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Workspace:   tenant.Default,
	})
}
