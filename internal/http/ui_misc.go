package httpx

import (
	"net/http"

	apperrors "github.com/target/recon-console/internal/errors"
)

// loginReasons maps the ?reason= values the app produces to sign-in banners.
var loginReasons = map[string]string{ //nolint:gochecknoglobals // read-only lookup
	"unauthenticated": "Please sign in to continue.",
	"session_expired": "Your session has expired. Please sign in again.",
	"signed_out":      "You have been signed out.",
	"login_failed":    "Sign-in failed. Please try again.",
}

// unauthorizedReasons maps ?reason= on /unauthorized to the page message.
var unauthorizedReasons = map[string]string{ //nolint:gochecknoglobals // read-only lookup
	"session_expired": "Your session has expired. Sign in again to continue.",
	"forbidden":       "You do not have access to that page with your current role.",
}

// Home is the entry point: signed-in users go to their role's landing page,
// everyone else gets the sign-in page.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.NotFound(w, r)
		return
	}
	if session := GetSessionFromContext(r.Context()); session != nil && session.IsAuthenticated() {
		redirectBrowser(w, r, session.LandingPath())
		return
	}

	q := r.URL.Query()
	b := NewTemplateData(r, PageMeta{Title: titled("Sign in"), PageTitle: "Sign in", CurrentPage: PageHome}).
		With("RedirectURI", safeRedirectPath(q.Get("redirect_uri"))).
		With("PasswordLogin", h.PasswordLogin)
	if msg, ok := loginReasons[q.Get("reason")]; ok {
		b.With("Reason", msg)
	}
	if q.Get("error") == "invalid_credentials" {
		b.WithError("Invalid username or password.")
	}
	h.renderDashboardPage(w, r, b.Build())
}

// Unauthorized explains why the user was sent away from a page.
func (h *UIHandlers) Unauthorized(w http.ResponseWriter, r *http.Request) {
	reason := r.URL.Query().Get("reason")
	msg, ok := unauthorizedReasons[reason]
	if !ok {
		msg = "You are not authorized to view that page."
	}

	b := NewTemplateData(r, PageMeta{
		Title:       titled("Unauthorized"),
		PageTitle:   "Unauthorized",
		CurrentPage: PageUnauthorized,
	}).With("Reason", reason).With("Message", msg)

	if session := GetSessionFromContext(r.Context()); session != nil {
		b.With("LandingPath", session.LandingPath())
	}
	w.Header().Set("Cache-Control", "no-store")
	h.renderDashboardPage(w, r, b.Build())
}

// NotFound handles 404 errors with auth-aware behavior.
// For browser requests, it renders an HTML error page.
// For API requests, it returns a JSON error response.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		h.renderBrowserNotFound(w, r)
	} else {
		h.renderAPINotFound(w, r)
	}
}

func (h *UIHandlers) renderBrowserNotFound(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	data := map[string]any{
		"Title":           titled("Page not found"),
		"Code":            "404",
		"Message":         "The page you're looking for doesn't exist.",
		"IsAuthenticated": session != nil,
		"ShowLogin":       session == nil,
		"RedirectURI":     r.URL.RequestURI(),
	}
	if session != nil {
		data["LandingPath"] = session.LandingPath()
	}

	if h.T == nil {
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := h.T.RenderError(w, r, data); err != nil {
		h.logger().ErrorContext(r.Context(), "failed to render not found page", "error", err)
	}
}

func (h *UIHandlers) renderAPINotFound(w http.ResponseWriter, _ *http.Request) {
	err := apperrors.NotFound("not found")
	WriteError(w, ErrorParams{
		Code:    apperrors.HTTPStatus(err.Code),
		ErrCode: string(err.Code),
		Err:     err,
	})
}
