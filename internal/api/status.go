package api

import (
	"net/http"
)

// handleStatus reports the calling tenant's workspace status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.facade.Status(r.Context())
	if err != nil {
		s.routedError(w, "get status", err)
		return
	}

	s.writeJSON(w, http.StatusOK, status)
}

// tenantsResponse lists workspaces with live engine instances.
type tenantsResponse struct {
	Current    string   `json:"current"`
	Workspaces []string `json:"workspaces"`
}

// handleListTenants lists the workspaces with live engines. Listing is
// registry-wide; the caller's own workspace is echoed for context.
func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, tenantsResponse{
		Current:    workspaceOf(r),
		Workspaces: s.registry.Workspaces(),
	})
}
