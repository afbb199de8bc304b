package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider          = (*MockAuthProvider)(nil)
	_ ports.PasswordAuthenticator = (*MockAuthProvider)(nil)
	_ ports.SessionStore          = (*MemorySessionStore)(nil)
	_ ports.SessionLister         = (*MemorySessionStore)(nil)
	_ ports.RoleMapper            = (*StaticRoleMapper)(nil)
)

// ErrBadCredentials is returned by MockAuthProvider.Authenticate for a wrong password.
var ErrBadCredentials = errors.New("invalid username or password")

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	// Password is accepted by Authenticate for DefaultUser.UserID.
	Password string

	mu        sync.Mutex
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: defaultIdentity(),
		Password:    "secret",
	}
}

func defaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		UserID:      "mock-user-1",
		DisplayName: "Mock User",
		Email:       "mock.user@example.com",
		Groups:      []string{"recon-preparers"},
		AccessToken: "mock-access-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return authURL, fmt.Sprintf("%s-%d", statePrefix, n), fmt.Sprintf("%s-%d", noncePrefix, n), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	return m.identity(), nil
}

// Authenticate accepts DefaultUser.UserID with Password.
func (m *MockAuthProvider) Authenticate(_ context.Context, username, password string) (domainauth.Identity, error) {
	id := m.identity()
	if username != id.UserID || password != m.Password {
		return domainauth.Identity{}, ErrBadCredentials
	}
	return id, nil
}

// identity returns a copy of the default user with a fresh expiration time.
func (m *MockAuthProvider) identity() domainauth.Identity {
	user := m.DefaultUser
	if user.UserID == "" {
		user = defaultIdentity()
	}
	user.Groups = slices.Clone(user.Groups)
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session

	// GetErr, when set, is returned by Get to simulate an unavailable store.
	GetErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if m.GetErr != nil {
		return domainauth.Session{}, m.GetErr
	}
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// List returns all sessions in no particular order.
func (m *MemorySessionStore) List(_ context.Context) ([]domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domainauth.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ErrNotFound is returned by mocks when an entity is not present.
var ErrNotFound = ports.ErrNotFound

// StaticRoleMapper grants a role for each matching group, highest priority first.
type StaticRoleMapper struct {
	AdminGroup    string
	DirectorGroup string
	ReviewerGroup string
	PreparerGroup string
}

func (m StaticRoleMapper) Map(groups []string) []domainauth.Role {
	byRole := map[domainauth.Role]string{
		domainauth.RoleAdmin:    m.AdminGroup,
		domainauth.RoleDirector: m.DirectorGroup,
		domainauth.RoleReviewer: m.ReviewerGroup,
		domainauth.RolePreparer: m.PreparerGroup,
	}
	var out []domainauth.Role
	for _, r := range domainauth.AllRoles() {
		if g := byRole[r]; g != "" && slices.Contains(groups, g) {
			out = append(out, r)
		}
	}
	return out
}
