// Package auth resolves caller credentials to an identity and its
// workspace. Token validation and API-key lookup happen here, at the
// boundary; the routing core below only ever sees the resolved workspace.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/raggate/raggate/internal/tenant"
)

// Roles recognized in access tokens.
const (
	RoleUser  = "user"
	RoleGuest = "guest"
)

// ErrRejected is returned for invalid credentials of any kind. The routing
// core is never reached in that case.
var ErrRejected = errors.New("credentials rejected")

// Identity is a validated caller: who they are and which workspace their
// operations belong to.
type Identity struct {
	Username  string
	Role      string
	Workspace string
}

// Config configures the resolver.
type Config struct {
	// TokenSecret signs and verifies access tokens. Empty disables
	// authentication: every caller resolves to the default workspace.
	TokenSecret      string
	TokenExpireHours int
	GuestExpireHours int

	// AuthAccounts is a comma-separated "user:pass" list for simple
	// single-tenant deployments; these users map to the default workspace.
	AuthAccounts string

	// UsersPath points at the users file for multi-tenant deployments.
	// Missing file is not an error.
	UsersPath string

	// AnonAccess permits requests without credentials, resolving them to
	// the default workspace.
	AnonAccess bool
}

// user is one entry in the users file.
type user struct {
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	Role      string `json:"role,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

type usersFile struct {
	Users []user `json:"users"`
}

// Resolver validates credentials and maps them to workspaces.
type Resolver struct {
	cfg    Config
	logger *slog.Logger

	accounts map[string]string // username -> password
	apiKeys  map[string]user   // api key -> user
	users    map[string]user   // username -> user
}

// NewResolver builds a resolver from configuration, loading env-declared
// accounts and the users file. The maps are built once at startup and read
// concurrently without locking afterwards.
func NewResolver(cfg Config, logger *slog.Logger) (*Resolver, error) {
	r := &Resolver{
		cfg:      cfg,
		logger:   logger,
		accounts: make(map[string]string),
		apiKeys:  make(map[string]user),
		users:    make(map[string]user),
	}

	if cfg.AuthAccounts != "" {
		for _, account := range strings.Split(cfg.AuthAccounts, ",") {
			username, password, ok := strings.Cut(account, ":")
			if !ok || username == "" {
				return nil, fmt.Errorf("malformed auth account %q", account)
			}
			r.accounts[username] = password
			r.users[username] = user{Username: username, Workspace: tenant.Default}
		}
	}

	if err := r.loadUsers(cfg.UsersPath); err != nil {
		return nil, err
	}

	return r, nil
}

// loadUsers reads the users file if present. Each user may carry a
// password, an API key, and the workspace their data lives in.
func (r *Resolver) loadUsers(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read users file %s: %w", path, err)
	}

	var f usersFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse users file %s: %w", path, err)
	}

	for _, u := range f.Users {
		if u.Username == "" {
			continue
		}
		if u.Workspace == "" {
			u.Workspace = tenant.Default
		}
		if _, err := tenant.ParseWorkspace(u.Workspace); err != nil {
			return fmt.Errorf("user %s: %w", u.Username, err)
		}
		r.users[u.Username] = u
		if u.Password != "" {
			r.accounts[u.Username] = u.Password
		}
		if u.APIKey != "" {
			r.apiKeys[u.APIKey] = u
		}
	}
	r.logger.Info("loaded users", "count", len(r.users), "path", path)
	return nil
}

// Enabled reports whether authentication is configured at all.
func (r *Resolver) Enabled() bool {
	return r.cfg.TokenSecret != ""
}

// AnonAccess reports whether credential-less requests are permitted.
func (r *Resolver) AnonAccess() bool {
	return r.cfg.AnonAccess
}

// Authenticate checks a username/password pair and returns the identity.
func (r *Resolver) Authenticate(username, password string) (*Identity, error) {
	want, ok := r.accounts[username]
	if !ok || want != password {
		return nil, ErrRejected
	}
	return r.identityFor(username, RoleUser), nil
}

// ValidateAPIKey resolves an API key to an identity.
func (r *Resolver) ValidateAPIKey(key string) (*Identity, error) {
	u, ok := r.apiKeys[key]
	if !ok {
		return nil, ErrRejected
	}
	role := u.Role
	if role == "" {
		role = RoleUser
	}
	return r.identityFor(u.Username, role), nil
}

// claims is the access-token payload.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// CreateToken issues a signed access token for the user. Guest tokens get
// the shorter guest TTL.
func (r *Resolver) CreateToken(username, role string) (string, error) {
	if !r.Enabled() {
		return "", errors.New("token auth disabled")
	}
	expireHours := r.cfg.TokenExpireHours
	if role == RoleGuest {
		expireHours = r.cfg.GuestExpireHours
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expireHours) * time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(r.cfg.TokenSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies a bearer token and returns the identity. The
// workspace always comes from the user map at validation time, never from
// the token body, so workspace reassignment takes effect on the next
// request.
func (r *Resolver) ValidateToken(raw string) (*Identity, error) {
	if !r.Enabled() {
		return nil, ErrRejected
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(r.cfg.TokenSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}

	role := c.Role
	if role == "" {
		role = RoleUser
	}
	return r.identityFor(c.Subject, role), nil
}

// ResolveWorkspace maps a validated identity to its workspace. A nil
// identity (no credential supplied) resolves to the default workspace only
// when anonymous access is enabled or authentication is disabled; this is
// the single documented fallback to the default workspace.
func (r *Resolver) ResolveWorkspace(id *Identity) (string, error) {
	if id == nil {
		if !r.Enabled() || r.cfg.AnonAccess {
			return tenant.Default, nil
		}
		return "", ErrRejected
	}
	return id.Workspace, nil
}

// identityFor assembles an identity with the user's configured workspace.
func (r *Resolver) identityFor(username, role string) *Identity {
	workspace := tenant.Default
	if u, ok := r.users[username]; ok && u.Workspace != "" {
		workspace = u.Workspace
	}
	return &Identity{Username: username, Role: role, Workspace: workspace}
}
