package ports

// Package ports defines interfaces (hexagonal ports) for the dashboard's collaborators.
// Implementations live in internal/adapters and internal/gateway; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/target/recon-console/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	// The identity's AccessToken becomes the bearer for backend calls.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// PasswordAuthenticator checks a username and password, used by the dev login form.
type PasswordAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (domainauth.Identity, error)
}

// ErrNotFound is returned by stores when a key is absent or expired.
var ErrNotFound = errors.New("not found")

// SessionStore persists and retrieves user sessions. Get returns ErrNotFound for
// unknown or expired sessions; any other error means the store is unavailable.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionLister enumerates stored sessions for operators.
type SessionLister interface {
	List(ctx context.Context) ([]domainauth.Session, error)
}

// RoleMapper maps provider groups to application roles, highest priority first.
type RoleMapper interface {
	Map(groups []string) []domainauth.Role
}
