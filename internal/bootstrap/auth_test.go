package bootstrap

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/recon-console/config"
	"github.com/target/recon-console/internal/adapters/devauth"
	mockauth "github.com/target/recon-console/internal/mocks/auth"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func devAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Mode:  config.AuthModeMock,
		Roles: config.RoleGroups{AdminGroup: "recon-admins"},
		DevAuth: config.DevAuthConfig{
			UserID:      "dev",
			Email:       "dev@example.com",
			Groups:      []string{"recon-admins"},
			TokenSecret: "test-secret",
		},
	}
}

func TestBuildAuthServiceReturnsNilWithoutSessionStore(t *testing.T) {
	tests := []struct {
		name string
		auth config.AuthConfig
	}{
		{name: "dev auth mode", auth: devAuthConfig()},
		{
			name: "oauth mode",
			auth: config.AuthConfig{
				Mode:  config.AuthModeOAuth,
				Roles: config.RoleGroups{AdminGroup: "recon-admins"},
				OAuth: config.OAuthConfig{
					ClientID:     "client-id",
					ClientSecret: "client-secret",
					DiscoveryURL: "https://issuer.example.com",
					RedirectURL:  "https://recon.example.com/auth/callback",
					Scope:        "openid",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := BuildAuthService(AuthConfig{Auth: tt.auth, Logger: quietLogger()})
			assert.Nil(t, svc)
		})
	}
}

func TestBuildAuthService_OAuthMissingConfig(t *testing.T) {
	svc := BuildAuthService(AuthConfig{
		Auth:     config.AuthConfig{Mode: config.AuthModeOAuth, OAuth: config.OAuthConfig{ClientID: "id"}},
		Sessions: mockauth.NewMemorySessionStore(),
		Logger:   quietLogger(),
	})
	assert.Nil(t, svc)
}

func TestBuildAuthService_DevMode(t *testing.T) {
	svc := BuildAuthService(AuthConfig{
		Auth:     devAuthConfig(),
		Sessions: mockauth.NewMemorySessionStore(),
		Logger:   quietLogger(),
	})
	require.NotNil(t, svc)
	assert.False(t, svc.PasswordLoginEnabled())
}

func TestBuildAuthService_DevModeWithUsersFile(t *testing.T) {
	hash, err := devauth.HashPassword("correct horse")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "users.yaml")
	body := "users:\n  - username: dana\n    password_hash: \"" + hash + "\"\n    email: dana@example.com\n    groups: [recon-admins]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	auth := devAuthConfig()
	auth.DevAuth.UsersFile = path
	svc := BuildAuthService(AuthConfig{Auth: auth, Sessions: mockauth.NewMemorySessionStore(), Logger: quietLogger()})
	require.NotNil(t, svc)
	assert.True(t, svc.PasswordLoginEnabled())
}

func TestBuildAuthService_DevModeBadUsersFile(t *testing.T) {
	auth := devAuthConfig()
	auth.DevAuth.UsersFile = filepath.Join(t.TempDir(), "missing.yaml")
	svc := BuildAuthService(AuthConfig{Auth: auth, Sessions: mockauth.NewMemorySessionStore(), Logger: quietLogger()})
	assert.Nil(t, svc)
}
