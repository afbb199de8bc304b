// Package devauth provides a config-driven AuthProvider for local development.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"time"

	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/ports"
)

// Config controls the dev auth provider behavior.
type Config struct {
	UserID          string
	Name            string
	Email           string
	Groups          []string
	SessionDuration time.Duration // default 8h when zero

	// UsersFile, when set, enables password sign-in against a YAML user list.
	UsersFile string

	// TokenSecret signs the HS256 access token forwarded to backend services.
	TokenSecret string
	TokenTTL    time.Duration
}

// Provider implements ports.AuthProvider and ports.PasswordAuthenticator for local development.
// The redirect flow skips the IdP and returns the configured identity; password sign-in
// checks bcrypt hashes from the users file. Either way the identity carries a locally
// minted bearer token so backend calls look like production ones.
type Provider struct {
	identity        domainauth.Identity
	sessionDuration time.Duration
	users           *Users
	tokens          *TokenIssuer
	now             func() time.Time
}

var (
	_ ports.AuthProvider          = (*Provider)(nil)
	_ ports.PasswordAuthenticator = (*Provider)(nil)
)

// ErrInvalidCredentials is returned when the username or password does not match.
var ErrInvalidCredentials = errors.New("invalid username or password")

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur <= 0 {
		dur = 8 * time.Hour
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = dur
	}
	tokens, err := NewTokenIssuer(cfg.TokenSecret, ttl)
	if err != nil {
		return nil, fmt.Errorf("dev auth: %w", err)
	}

	p := &Provider{
		identity: domainauth.Identity{
			UserID:      cfg.UserID,
			DisplayName: cfg.Name,
			Email:       cfg.Email,
			Groups:      slices.Clone(cfg.Groups),
		},
		sessionDuration: dur,
		tokens:          tokens,
		now:             time.Now,
	}
	if p.identity.DisplayName == "" {
		p.identity.DisplayName = cfg.UserID
	}

	if cfg.UsersFile != "" {
		users, err := LoadUsers(cfg.UsersFile)
		if err != nil {
			return nil, fmt.Errorf("dev auth: %w", err)
		}
		p.users = users
	}
	return p, nil
}

// PasswordLogin reports whether a users file was configured.
func (p *Provider) PasswordLogin() bool { return p.users != nil }

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	return "/auth/callback?code=dev&state=" + state, state, nonce, nil
}

// Exchange ignores the code (state is checked by the handler) and returns the configured identity.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	id := p.identity
	id.Groups = slices.Clone(id.Groups)
	return p.issue(id)
}

// Authenticate checks username and password against the users file.
func (p *Provider) Authenticate(_ context.Context, username, password string) (domainauth.Identity, error) {
	if p.users == nil {
		return domainauth.Identity{}, errors.New("dev auth: password sign-in is not configured")
	}
	u, ok := p.users.Check(username, password)
	if !ok {
		return domainauth.Identity{}, ErrInvalidCredentials
	}
	return p.issue(u.Identity())
}

func (p *Provider) issue(id domainauth.Identity) (domainauth.Identity, error) {
	now := p.now()
	id.ExpiresAt = now.Add(p.sessionDuration)
	tok, err := p.tokens.Mint(id, now)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("mint access token: %w", err)
	}
	id.AccessToken = tok
	return id, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
