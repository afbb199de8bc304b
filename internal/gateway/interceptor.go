package gateway

import (
	"context"
	"net/http"
)

// AuthFailure describes a 401 or 403 returned by a backend.
type AuthFailure struct {
	Status int
	Method string
	URL    string
}

// Expired reports whether the failure invalidates the session (401).
func (f AuthFailure) Expired() bool {
	return f.Status == http.StatusUnauthorized
}

// AuthFailureFunc reacts to authentication failures. It runs synchronously on the
// calling goroutine before the error is returned to the caller.
type AuthFailureFunc func(ctx context.Context, f AuthFailure)

// InstallInterceptor registers fn as the client's auth-failure hook. Only the first
// call has an effect; it reports whether fn was installed.
func (c *Client) InstallInterceptor(fn AuthFailureFunc) bool {
	if fn == nil {
		return false
	}
	installed := false
	c.interceptOnce.Do(func() {
		c.onAuthFailure.Store(&fn)
		installed = true
	})
	return installed
}

func (c *Client) intercept(ctx context.Context, f AuthFailure) {
	fn := c.onAuthFailure.Load()
	if fn == nil {
		return
	}
	c.logger.WarnContext(ctx, "backend rejected credentials",
		"status", f.Status,
		"method", f.Method,
		"url", f.URL,
	)
	(*fn)(ctx, f)
}
