package httpx

import (
	"context"
	"net/http"
	"sync"

	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/service"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetUserSessionFromContext returns the user session from context and a boolean indicating presence.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// GetSessionFromContext retrieves the session from the request context.
// Maintained for convenience; prefer GetUserSessionFromContext when you need presence info.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := GetUserSessionFromContext(ctx); ok {
		return s
	}
	return nil
}

// callerFromRequest returns the backend credentials of the signed-in user.
func callerFromRequest(r *http.Request) service.Caller {
	return service.CallerFromSession(GetSessionFromContext(r.Context()))
}

// sessionIDFromRequest returns the session ID, or "" for anonymous requests.
func sessionIDFromRequest(r *http.Request) string {
	if s := GetSessionFromContext(r.Context()); s != nil {
		return s.ID
	}
	return ""
}

// authFailureKey carries the per-request recorder written by the gateway interceptor.
type authFailureKey struct{}

// authFailureRecorder remembers the first backend 401 or 403 seen while serving a request.
type authFailureRecorder struct {
	mu     sync.Mutex
	status int
}

func withAuthFailureRecorder(ctx context.Context) (context.Context, *authFailureRecorder) {
	rec := &authFailureRecorder{}
	return context.WithValue(ctx, authFailureKey{}, rec), rec
}

// recordAuthFailure marks the request carried by ctx. A 401 wins over a 403.
// It reports false when ctx did not come from an inbound request.
func recordAuthFailure(ctx context.Context, status int) bool {
	rec, ok := ctx.Value(authFailureKey{}).(*authFailureRecorder)
	if !ok || rec == nil {
		return false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.status != http.StatusUnauthorized {
		rec.status = status
	}
	return true
}

func (r *authFailureRecorder) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
