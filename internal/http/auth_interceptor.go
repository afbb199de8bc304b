package httpx

import (
	"context"
	"log/slog"

	"github.com/target/recon-console/internal/gateway"
	"github.com/target/recon-console/internal/observability/metrics"
	"github.com/target/recon-console/internal/observability/statsd"
)

// SessionDeleter removes a stored session.
type SessionDeleter interface {
	Delete(ctx context.Context, id string) error
}

// AuthFailureInterceptor returns the gateway hook for backend 401/403
// responses. A 401 deletes the caller's session at once, even for background
// work that outlived its request; the request that made the call, if still
// being served, is marked so AuthFailureRedirect can navigate away.
func AuthFailureInterceptor(sessions SessionDeleter, sink statsd.Sink, logger *slog.Logger) gateway.AuthFailureFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, f gateway.AuthFailure) {
		metrics.EmitAuthFailure(sink, f.Status)

		if f.Expired() && sessions != nil {
			if s := GetSessionFromContext(ctx); s != nil {
				if err := sessions.Delete(context.WithoutCancel(ctx), s.ID); err != nil {
					logger.WarnContext(ctx, "failed to delete rejected session", "error", err)
				} else {
					logger.InfoContext(ctx, "session ended by backend", "user_id", s.UserID)
				}
			}
		}
		recordAuthFailure(ctx, f.Status)
	}
}
