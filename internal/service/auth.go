package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/recon-console/internal/domain/auth"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
	Roles    ports.RoleMapper

	// Password enables form sign-in when set (dev users file).
	Password ports.PasswordAuthenticator
	// SessionTTL caps session lifetime; identities without an expiry get exactly this.
	SessionTTL time.Duration
}

// AuthService orchestrates authentication flows by coordinating provider, role mapping, and session persistence.
type AuthService struct {
	provider   ports.AuthProvider
	sessions   ports.SessionStore
	roles      ports.RoleMapper
	password   ports.PasswordAuthenticator
	sessionTTL time.Duration
	now        func() time.Time
}

// ErrNoSession is returned when the session is unknown or expired.
var ErrNoSession = errors.New("no active session")

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{
		provider:   opts.Provider,
		sessions:   opts.Sessions,
		roles:      opts.Roles,
		password:   opts.Password,
		sessionTTL: ttl,
		now:        time.Now,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code for an identity, maps roles, and persists a session.
// Users without any dashboard role get a Forbidden error and no session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*domainauth.Session, error) {
	switch {
	case input.Code == "":
		return nil, errors.New("authorization code is required")
	case input.State == "":
		return nil, errors.New("state parameter is required")
	case input.Nonce == "":
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return s.startSession(ctx, identity)
}

// PasswordLoginEnabled reports whether LoginWithPassword can be used.
func (s *AuthService) PasswordLoginEnabled() bool { return s.password != nil }

// LoginWithPassword signs a user in with the configured password authenticator.
func (s *AuthService) LoginWithPassword(ctx context.Context, username, password string) (*domainauth.Session, error) {
	if s.password == nil {
		return nil, apperrors.NotFound("password sign-in is not enabled")
	}
	if username == "" || password == "" {
		return nil, apperrors.Validation("Enter a username and password.")
	}
	identity, err := s.password.Authenticate(ctx, username, password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "Invalid username or password.")
	}
	return s.startSession(ctx, identity)
}

func (s *AuthService) startSession(ctx context.Context, identity domainauth.Identity) (*domainauth.Session, error) {
	roles := s.roles.Map(identity.Groups)
	if len(roles) == 0 {
		return nil, apperrors.Forbidden("Your account has no dashboard role.")
	}

	now := s.now()
	expires := now.Add(s.sessionTTL)
	if !identity.ExpiresAt.IsZero() && identity.ExpiresAt.Before(expires) {
		expires = identity.ExpiresAt
	}

	session := domainauth.Session{
		ID:          uuid.NewString(),
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		ActiveRole:  roles[0],
		Roles:       roles,
		AccessToken: identity.AccessToken,
		ExpiresAt:   expires,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &session, nil
}

// GetSession retrieves a live session. Unknown or expired sessions yield ErrNoSession;
// any other error means the store could not answer.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if s.now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrNoSession, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, ErrNoSession
	}
	return &session, nil
}

// SwitchRole makes role the active one. Only granted roles are accepted.
func (s *AuthService) SwitchRole(ctx context.Context, sessionID string, role domainauth.Role) (*domainauth.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasRole(role) {
		return nil, apperrors.Forbidden(fmt.Sprintf("Role %q is not assigned to you.", role))
	}
	if session.ActiveRole == role {
		return session, nil
	}
	session.ActiveRole = role
	if err := s.sessions.Save(ctx, *session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Logout removes a session. An empty ID is a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
