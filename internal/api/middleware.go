package api

import (
	"net/http"
	"strings"

	"github.com/raggate/raggate/internal/auth"
	"github.com/raggate/raggate/internal/reqctx"
)

// workspaceMiddleware is the boundary that establishes a request context
// before any routed call. It validates the caller's credential (bearer
// token or API key), resolves the workspace, and attaches it to the
// request context. No handler behind this middleware ever runs without an
// active workspace.
func (s *Server) workspaceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.authenticate(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "invalid or missing credentials")
			return
		}

		workspace, err := s.resolver.ResolveWorkspace(identity)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "invalid or missing credentials")
			return
		}

		ctx := reqctx.With(r.Context(), reqctx.New(workspace))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate extracts and validates the request credential. A nil
// identity with nil error means no credential was supplied; the resolver
// decides whether that is acceptable.
func (s *Server) authenticate(r *http.Request) (*auth.Identity, error) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return s.resolver.ValidateAPIKey(key)
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, auth.ErrRejected
	}
	return s.resolver.ValidateToken(token)
}

// workspaceOf returns the workspace established by the middleware. Handlers
// use it only for response bodies; routing itself reads the context inside
// the facade.
func workspaceOf(r *http.Request) string {
	rc, err := reqctx.Require(r.Context())
	if err != nil {
		return ""
	}
	return rc.Workspace
}
