package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/recon-console/config"
	redisadapter "github.com/target/recon-console/internal/adapters/redis"
	"github.com/target/recon-console/internal/cryptoutil"
	"github.com/target/recon-console/internal/gateway"
	httpx "github.com/target/recon-console/internal/http"
	"github.com/target/recon-console/internal/observability/statsd"
	"github.com/target/recon-console/internal/service"
)

// ServiceContainer holds all application services. A screen service is nil
// when its backend API has no base URL.
type ServiceContainer struct {
	Auth            *service.AuthService
	Notices         *service.NoticeService
	Reconciliations *service.ReconciliationService
	Periods         *service.PeriodService
	Uploads         *service.UploadService
	LedgerImports   *service.LedgerImportService
	Directory       *service.DirectoryService
	Analytics       *service.AnalyticsService

	Sessions      *redisadapter.SessionStore
	Gateway       *gateway.Client
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// Sink returns the metrics sink, or nil when metrics are off. A nil
// *statsd.Client must not leak into a statsd.Sink interface.
//
//nolint:ireturn // callers accept the interface.
func (o ObservabilityContainer) Sink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	// BaseContext outlives requests; background upload submissions run under it.
	BaseContext context.Context
}

// serviceStores groups the Redis adapters backing service ports.
type serviceStores struct {
	Sessions *redisadapter.SessionStore
	Notices  *redisadapter.NoticeStore
	Uploads  *redisadapter.UploadTracker
}

func buildStores(client redis.UniversalClient, cfg config.RedisConfig, logger *slog.Logger) (serviceStores, error) {
	if client == nil {
		return serviceStores{}, nil
	}
	sessions, err := NewSessionStore(client, cfg)
	if err != nil {
		return serviceStores{}, err
	}
	if cfg.SessionTokenKey == "" {
		logger.Warn("REDIS_SESSION_TOKEN_KEY not set; backend tokens are stored unsealed in Redis")
	}
	return serviceStores{
		Sessions: sessions,
		Notices:  redisadapter.NewNoticeStore(client, cfg.NoticePrefix),
		Uploads:  redisadapter.NewUploadTracker(client, cfg.UploadPrefix),
	}, nil
}

// NewSessionStore opens the Redis session store, sealing backend tokens when
// a session token key is configured.
func NewSessionStore(client redis.UniversalClient, cfg config.RedisConfig) (*redisadapter.SessionStore, error) {
	sessions := redisadapter.NewSessionStoreWithPrefix(client, cfg.SessionPrefix)
	if cfg.SessionTokenKey == "" {
		return sessions, nil
	}
	key, err := cryptoutil.ParseKey(cfg.SessionTokenKey)
	if err != nil {
		return nil, fmt.Errorf("REDIS_SESSION_TOKEN_KEY: %w", err)
	}
	sealer, err := cryptoutil.NewAESGCM(key)
	if err != nil {
		return nil, fmt.Errorf("REDIS_SESSION_TOKEN_KEY: %w", err)
	}
	return sessions.WithTokenSealer(sealer), nil
}

// buildObservability configures the StatsD sink. Failing to open it only
// disables metrics.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obs := ObservabilityContainer{MetricsConfig: cfg.Metrics}
	if !cfg.Metrics.IsEnabled() {
		return obs
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled:    true,
		Address:    cfg.Metrics.StatsdAddress,
		Prefix:     cfg.Metrics.Prefix,
		GlobalTags: cfg.Metrics.GlobalTags(),
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return obs
	}
	obs.MetricsSink = client
	return obs
}

// NewServices wires stores, the gateway client and every screen service.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	baseCtx := deps.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	obs := buildObservability(logger, cfg.Observability)
	stores, err := buildStores(deps.RedisClient, cfg.Redis, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	client, err := gateway.NewClient(gateway.Options{
		Config:  cfg.Gateway,
		Metrics: obs.Sink(),
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create gateway client: %w", err)
	}

	c := ServiceContainer{
		Gateway:       client,
		Observability: obs,
	}
	if stores.Sessions != nil {
		c.Sessions = stores.Sessions
		c.Auth = BuildAuthService(AuthConfig{Auth: cfg.Auth, Sessions: stores.Sessions, Logger: logger})
		client.InstallInterceptor(httpx.AuthFailureInterceptor(stores.Sessions, obs.Sink(), logger))
	}
	if stores.Notices != nil {
		c.Notices = service.NewNoticeService(service.NoticeServiceOptions{
			Store:  stores.Notices,
			Config: cfg.Notices,
			Logger: logger,
		})
	}

	enabled := EnabledBackends(cfg)
	sizes := cfg.Lists.PageSizes
	if slices.Contains(enabled, gateway.APIRecon) {
		c.Reconciliations = service.NewReconciliationService(service.ReconciliationServiceOptions{
			Backend: client, PageSizes: sizes, Logger: logger,
		})
		c.Periods = service.NewPeriodService(service.PeriodServiceOptions{
			Backend: client, PageSizes: sizes, Logger: logger,
		})
		if stores.Uploads != nil {
			c.Uploads = service.NewUploadService(service.UploadServiceOptions{
				Backend:     client,
				Tracker:     stores.Uploads,
				Notices:     c.Notices,
				Config:      cfg.Upload,
				Metrics:     obs.Sink(),
				Logger:      logger,
				PageSizes:   sizes,
				BaseContext: baseCtx,
			})
		}
	}
	if slices.Contains(enabled, gateway.APILedger) {
		c.LedgerImports = service.NewLedgerImportService(service.LedgerImportServiceOptions{
			Backend: client, PageSizes: sizes, Logger: logger,
		})
	}
	if slices.Contains(enabled, gateway.APIUsers) {
		c.Directory = service.NewDirectoryService(service.DirectoryServiceOptions{
			Backend: client, PageSizes: sizes, Logger: logger,
		})
	}
	if slices.Contains(enabled, gateway.APIAnalytics) {
		c.Analytics = service.NewAnalyticsService(service.AnalyticsServiceOptions{
			Backend: client, Logger: logger,
		})
	}

	logger.Info("services initialised",
		"backends", enabled,
		"auth_mode", cfg.Auth.Mode,
		"auth_enabled", c.Auth != nil,
		"metrics_enabled", obs.MetricsSink != nil,
	)
	return c, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	// CancelBackground aborts background upload submissions still running
	// once the wait below has timed out.
	CancelBackground context.CancelFunc
}

// shutdownWaitTimeout bounds how long in-flight uploads may keep running after
// the HTTP server has stopped.
const shutdownWaitTimeout = 15 * time.Second

// RunServicesWithShutdown serves HTTP until SIGINT/SIGTERM or a server error,
// then drains requests and background uploads.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Ready:    RedisPinger(cfg.RedisClient),
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down services...")
		// The parent context is already done here.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Config.HTTP.ShutdownTimeout)
		defer cancel()
		return ShutdownHTTPServer(ShutdownConfig{Context: shutdownCtx, Server: server, Logger: logger})
	})

	err := g.Wait()
	waitForUploads(cfg.Services.Uploads, cfg.CancelBackground, logger)
	return err
}

// waitForUploads lets running submissions finish, cancelling them if they
// outlast shutdownWaitTimeout.
func waitForUploads(uploads *service.UploadService, cancel context.CancelFunc, logger *slog.Logger) {
	if uploads == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		uploads.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("upload submissions stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for upload submissions; cancelling")
		if cancel != nil {
			cancel()
		}
		<-done
	}
}
