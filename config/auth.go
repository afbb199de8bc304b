package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"recon-console"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"recon-console"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Name   string   `env:"NAME"    envDefault:"Dev User"`
	Email  string   `env:"EMAIL"   envDefault:"dev@example.com"`
	Groups []string `env:"GROUPS"  envDefault:"recon-admins" envSeparator:";"`

	// UsersFile points to a YAML file of local users with bcrypt password hashes.
	// When set, /auth/login renders a credential form instead of auto-signing in.
	UsersFile string `env:"USERS_FILE"`

	// TokenSecret signs the HS256 bearer token sent to backend services in mock mode.
	TokenSecret string        `env:"TOKEN_SECRET" envDefault:"dev-only-secret"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"    envDefault:"8h"`
}

// RoleGroups maps directory groups onto dashboard roles.
type RoleGroups struct {
	AdminGroup    string `env:"ADMIN_GROUP,required"`
	DirectorGroup string `env:"DIRECTOR_GROUP"`
	ReviewerGroup string `env:"REVIEWER_GROUP"`
	PreparerGroup string `env:"PREPARER_GROUP"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Groups used to derive roles.
	Roles RoleGroups

	// SessionDuration caps how long a session lives when the IdP does not say.
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"8h"`
}

// Sanitize trims group names and restores default durations.
func (a *AuthConfig) Sanitize() {
	a.Roles.AdminGroup = strings.TrimSpace(a.Roles.AdminGroup)
	a.Roles.DirectorGroup = strings.TrimSpace(a.Roles.DirectorGroup)
	a.Roles.ReviewerGroup = strings.TrimSpace(a.Roles.ReviewerGroup)
	a.Roles.PreparerGroup = strings.TrimSpace(a.Roles.PreparerGroup)
	if a.SessionDuration <= 0 {
		a.SessionDuration = 8 * time.Hour
	}
	if a.DevAuth.TokenTTL <= 0 {
		a.DevAuth.TokenTTL = 8 * time.Hour
	}
	a.DevAuth.UsersFile = strings.TrimSpace(a.DevAuth.UsersFile)
}
