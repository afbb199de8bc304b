package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/recon-console/config"
	httpx "github.com/target/recon-console/internal/http"
	"github.com/target/recon-console/internal/listview"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	// Ready backs /readyz.
	Ready  func(ctx context.Context) error
	Logger *slog.Logger
}

// RouterServices maps the container onto the router's dependencies. Nil
// services stay nil interfaces so their routes are not registered.
func RouterServices(cfg *HTTPServerConfig) httpx.RouterServices {
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}
	s := cfg.Services

	rs := httpx.RouterServices{
		Inflight:     listview.NewInflight(),
		CookieDomain: appCfg.HTTP.CookieDomain,
		IsDev:        appCfg.IsDev,
		Logger:       cfg.Logger,
	}
	if appCfg.HTTP.CompressionEnabled {
		rs.CompressionLevel = appCfg.HTTP.CompressionLevel
	}
	if cfg.Ready != nil {
		rs.Ready = httpx.PingFunc(cfg.Ready)
	}
	if s.Auth != nil {
		rs.Auth = s.Auth
	}
	if s.Notices != nil {
		rs.Notices = s.Notices
	}
	if s.Reconciliations != nil {
		rs.Reconciliations = s.Reconciliations
	}
	if s.Periods != nil {
		rs.Periods = s.Periods
	}
	if s.Uploads != nil {
		rs.Uploads = s.Uploads
	}
	if s.LedgerImports != nil {
		rs.LedgerImports = s.LedgerImports
	}
	if s.Directory != nil {
		rs.Directory = s.Directory
	}
	if s.Analytics != nil {
		rs.Analytics = s.Analytics
	}
	return rs
}

// NewHTTPServer builds the server without starting it.
func NewHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	addr := ""
	if cfg.Config != nil {
		addr = cfg.Config.HTTP.Addr
	}
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           httpx.NewRouter(RouterServices(cfg)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	if err := cfg.Server.Shutdown(cfg.Context); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}
	return nil
}
