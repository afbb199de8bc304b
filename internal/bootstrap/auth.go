package bootstrap

import (
	"log/slog"

	"github.com/target/recon-console/config"
	"github.com/target/recon-console/internal/adapters/authroles"
	"github.com/target/recon-console/internal/adapters/devauth"
	"github.com/target/recon-console/internal/adapters/oidc"
	"github.com/target/recon-console/internal/ports"
	"github.com/target/recon-console/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth     config.AuthConfig
	Sessions ports.SessionStore
	Logger   *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns nil if auth is not configured or configuration is invalid; the
// router then serves only the operational endpoints.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Sessions == nil {
		logger.Warn("auth service disabled: session store not configured", "mode", cfg.Auth.Mode)
		return nil
	}

	opts := service.AuthServiceOptions{
		Sessions:   cfg.Sessions,
		Roles:      authroles.NewGroupMapper(cfg.Auth.Roles),
		SessionTTL: cfg.Auth.SessionDuration,
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:          cfg.Auth.DevAuth.UserID,
			Name:            cfg.Auth.DevAuth.Name,
			Email:           cfg.Auth.DevAuth.Email,
			Groups:          cfg.Auth.DevAuth.Groups,
			SessionDuration: cfg.Auth.SessionDuration,
			UsersFile:       cfg.Auth.DevAuth.UsersFile,
			TokenSecret:     cfg.Auth.DevAuth.TokenSecret,
			TokenTTL:        cfg.Auth.DevAuth.TokenTTL,
		})
		if err != nil {
			logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
			return nil
		}
		opts.Provider = prov
		if prov.PasswordLogin() {
			opts.Password = prov
		}
		logger.Warn("dev auth enabled; do not use in production",
			"user_id", cfg.Auth.DevAuth.UserID,
			"password_login", prov.PasswordLogin(),
		)

	case config.AuthModeOAuth:
		oauth := cfg.Auth.OAuth
		if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
			logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
			return nil
		}
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			LogoutURL:    oauth.LogoutURL,
		})
		if err != nil {
			logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
			return nil
		}
		opts.Provider = prov

	default:
		return nil
	}

	return service.NewAuthService(opts)
}
