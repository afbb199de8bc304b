package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Authentication configuration
//   - redis.go: Session and notice storage
//   - http.go: HTTP server configuration
//   - gateway.go: Backend API gateway configuration
//   - upload.go: Bulk upload and notice configuration
type AppConfig struct {
	// IsDev controls development mode behavior (template reloading, detailed errors).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Session storage
	Redis RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Backend gateway configuration
	Gateway GatewayConfig

	// List screens
	Lists ListConfig

	// Bulk upload configuration
	Upload UploadConfig

	// Toast notice configuration
	Notices NoticeConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Gateway.Sanitize()
	c.Lists.Sanitize()
	c.Upload.Sanitize()
	c.Notices.Sanitize()
	c.Observability.Sanitize()
	c.Auth.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
