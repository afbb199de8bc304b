package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/domain/guard"
	"github.com/target/recon-console/internal/gateway"
	"github.com/target/recon-console/internal/service"
)

// RequestIDHeader carries the correlation id in and out of the dashboard.
const RequestIDHeader = "X-Request-ID"

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", gateway.RequestID(r.Context())),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID propagates an inbound X-Request-ID, or mints one, so backend calls
// made while serving the request carry the same id.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(gateway.WithRequestID(r.Context(), id)))
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection records whether the request expects an HTML page. Guards
// redirect page requests to sign-in and answer everything else with a status.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest reports the value recorded by BrowserDetection, detecting
// it directly when the middleware did not run.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	return isBrowserRequest(r)
}

// nonPagePrefixes never render HTML.
var nonPagePrefixes = []string{"/static/", "/healthz", "/readyz", "/auth/status"}

// isBrowserRequest treats HTMX swaps, HTML navigations and header-less
// requests as pages. Clients asking for JSON get a bare status instead.
func isBrowserRequest(r *http.Request) bool {
	for _, prefix := range nonPagePrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return false
		}
	}
	if IsHTMX(r) {
		return true
	}

	accept := r.Header.Get("Accept")
	switch {
	case accept == "", accept == "*/*":
		return true
	case strings.Contains(accept, "text/html"):
		return true
	default:
		return false
	}
}

// SessionReader resolves the session behind a session cookie.
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// sessionState reads the session for r. A store failure is reported as Loading
// so the guard renders a neutral state instead of signing the user out.
func sessionState(r *http.Request, auth SessionReader) guard.State {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return guard.State{}
	}
	session, err := auth.GetSession(r.Context(), c.Value)
	switch {
	case errors.Is(err, service.ErrNoSession):
		return guard.State{}
	case err != nil:
		return guard.State{Loading: true}
	default:
		return guard.State{Session: session}
	}
}

// OptionalSession adds the session to the context when one exists.
// Public pages use it to adapt their content to a signed-in user.
func OptionalSession(auth SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if st := sessionState(r, auth); st.Session != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), st.Session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles guards a route. The decision is recomputed on every request:
// browsers without a session go to the sign-in page, browsers whose active role
// is not in roles go to the unauthorized page, and API callers get 401/403 JSON.
// An empty roles list admits any signed-in user.
func RequireRoles(auth SessionReader, roles ...domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := sessionState(r, auth)
			d := guard.Decide(st, roles)
			switch d {
			case guard.Authorized:
				next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), st.Session)))
			case guard.Loading:
				writeSessionUnavailable(w, r)
			case guard.Unauthenticated:
				if !IsBrowserRequest(r) {
					WriteError(w, ErrorParams{
						Code:    http.StatusUnauthorized,
						ErrCode: "authentication_required",
						Err:     errors.New("authentication required"),
					})
					return
				}
				redirectBrowser(w, r, signInRedirect(r))
			default:
				if !IsBrowserRequest(r) {
					WriteError(w, ErrorParams{
						Code:    http.StatusForbidden,
						ErrCode: "insufficient_permissions",
						Err:     errors.New("insufficient permissions"),
					})
					return
				}
				redirectBrowser(w, r, guard.Redirect(d))
			}
		})
	}
}

// writeSessionUnavailable renders the neutral state shown while the session
// store cannot answer.
func writeSessionUnavailable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "2")
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "session_unavailable",
			Err:     errors.New("session store unavailable"),
		})
		return
	}
	http.Error(w, "Loading your session. Please retry in a moment.", http.StatusServiceUnavailable)
}

// signInRedirect returns the unauthenticated destination, remembering where the
// user was headed.
func signInRedirect(r *http.Request) string {
	target := guard.Redirect(guard.Unauthenticated)
	if back := redirectPathForRequest(r); back != "" && back != "/" {
		target += "&redirect_uri=" + url.QueryEscape(back)
	}
	return target
}

func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}
	if r.Method != http.MethodGet {
		return "/"
	}
	return safeRedirectPath(r.URL.RequestURI())
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}

	// For absolute URLs, use just the path/query portion to keep redirects within the app.
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}

	return safeRedirectPath(raw)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return candidate
}

// unauthorizedPath is the unauthorized page carrying reason.
func unauthorizedPath(reason string) string {
	return "/unauthorized?reason=" + url.QueryEscape(reason)
}

// AuthFailureRedirect turns a backend 401 or 403 observed while serving a request
// into navigation. The handler's response is buffered; when the gateway
// interceptor marked the request it is discarded and replaced by a redirect to
// the unauthorized page. A 401 also clears the session cookie; the session
// record itself is deleted by the interceptor.
func AuthFailureRedirect(cookies CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, rec := withAuthFailureRecorder(r.Context())
			cw := newCaptureWriter()
			next.ServeHTTP(cw, r.WithContext(ctx))

			switch rec.Status() {
			case http.StatusUnauthorized:
				cookies.clear(w, r, SessionCookieName)
				respondAuthFailure(w, r, http.StatusUnauthorized, guard.ReasonSessionExpired)
			case http.StatusForbidden:
				respondAuthFailure(w, r, http.StatusForbidden, guard.ReasonForbidden)
			default:
				cw.flushTo(w)
			}
		})
	}
}

func respondAuthFailure(w http.ResponseWriter, r *http.Request, status int, reason string) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: status, ErrCode: reason, Err: errors.New(strings.ReplaceAll(reason, "_", " "))})
		return
	}
	redirectBrowser(w, r, unauthorizedPath(reason))
}
