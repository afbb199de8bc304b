package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/target/recon-console/config"
	"github.com/target/recon-console/internal/gateway"
)

// InitLogger initializes the structured logger. LOG_LEVEL accepts debug,
// info, warn or error; anything else means info.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateConfig rejects configurations the dashboard cannot start with.
func ValidateConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	var errs []error
	if cfg.Auth.Mode == config.AuthModeMock && !cfg.IsDev {
		errs = append(errs, errors.New("AUTH_MODE=mock is only allowed with DEV=true"))
	}
	if cfg.Auth.Mode == config.AuthModeOAuth {
		o := cfg.Auth.OAuth
		if o.DiscoveryURL == "" || o.ClientID == "" || o.ClientSecret == "" {
			errs = append(errs, errors.New("oauth mode requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET"))
		}
	}
	if len(EnabledBackends(cfg)) == 0 {
		errs = append(errs, errors.New("no backend API URL configured"))
	}
	return errors.Join(errs...)
}

// EnabledBackends returns the names of the backend APIs with a base URL, in a
// stable order. Screens backed by a missing API are not registered.
func EnabledBackends(cfg *config.AppConfig) []string {
	if cfg == nil {
		return []string{}
	}
	bases := cfg.Gateway.Bases()
	out := make([]string, 0, len(bases))
	for _, name := range []string{gateway.APIRecon, gateway.APILedger, gateway.APIUsers, gateway.APIAnalytics} {
		if bases[name] != "" {
			out = append(out, name)
		}
	}
	return out
}
