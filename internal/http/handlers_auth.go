package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/domain/guard"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*domainauth.Session, error)
	PasswordLoginEnabled() bool
	LoginWithPassword(ctx context.Context, username, password string) (*domainauth.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	SwitchRole(ctx context.Context, sessionID string, role domainauth.Role) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

var _ AuthServiceInterface = (*service.AuthService)(nil)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc     AuthServiceInterface
	Cookies CookieConfig
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login starts the provider sign-in flow.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		http.Redirect(w, r, "/?reason=login_failed", http.StatusFound)
		return
	}

	h.Cookies.setOAuth(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// PasswordLogin signs a user in from the username/password form.
// POST /auth/login.
func (h *AuthHandlers) PasswordLogin(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.PasswordLoginEnabled() {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	redirectURI := safeRedirectPath(r.PostFormValue("redirect_uri"))

	session, err := h.Svc.LoginWithPassword(r.Context(),
		strings.TrimSpace(r.PostFormValue("username")),
		r.PostFormValue("password"))
	if err != nil {
		h.logger().WarnContext(r.Context(), "password login failed", "error", err)
		target := loginPagePath(redirectURI, "invalid_credentials")
		if apperrors.IsForbidden(err) {
			target = unauthorizedPath(guard.ReasonForbidden)
		}
		redirectBrowser(w, r, target)
		return
	}

	h.Cookies.setSession(w, r, session)
	h.logger().InfoContext(r.Context(), "user signed in", "user_id", session.UserID, "role", session.ActiveRole)
	redirectBrowser(w, r, postLoginTarget(redirectURI, session))
}

// Callback handles the OAuth callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		h.badCallback(w, "missing_code", "authorization code is required")
		return
	}
	if state == "" {
		h.badCallback(w, "missing_state", "state parameter is required")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state {
		h.badCallback(w, "invalid_state", "invalid or missing state parameter")
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		h.badCallback(w, "missing_nonce", "missing nonce parameter")
		return
	}

	session, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	h.Cookies.clear(w, r, oauthStateCookie)
	h.Cookies.clear(w, r, oauthNonceCookie)
	if err != nil {
		h.logger().WarnContext(r.Context(), "login completion failed", "error", err)
		if apperrors.IsForbidden(err) {
			http.Redirect(w, r, unauthorizedPath(guard.ReasonForbidden), http.StatusFound)
			return
		}
		http.Redirect(w, r, "/?reason=login_failed", http.StatusFound)
		return
	}

	h.Cookies.setSession(w, r, session)
	h.logger().InfoContext(r.Context(), "user signed in", "user_id", session.UserID, "role", session.ActiveRole)
	http.Redirect(w, r, postLoginTarget(h.Cookies.takePostLoginRedirect(w, r), session), http.StatusFound)
}

func (h *AuthHandlers) badCallback(w http.ResponseWriter, code, msg string) {
	WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: code, Err: errors.New(msg)})
}

// Logout deletes the session and clears the cookie.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), c.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}
	h.Cookies.clear(w, r, SessionCookieName)

	target := "/?reason=signed_out"
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": target})
		return
	}
	redirectBrowser(w, r, target)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, service.ErrNoSession) {
			h.logger().WarnContext(r.Context(), "session lookup failed", "error", err)
			writeSessionUnavailable(w, r)
			return
		}
		h.Cookies.clear(w, r, SessionCookieName)
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	roles := make([]string, 0, len(session.Roles))
	for _, role := range session.Roles {
		roles = append(roles, string(role))
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":          session.UserID,
			"name":        session.DisplayName,
			"email":       session.Email,
			"active_role": session.ActiveRole,
			"roles":       roles,
		},
		"landing_path": session.LandingPath(),
		"expires_at":   session.ExpiresAt,
	})
}

// SwitchRole changes the active role and lands on its dashboard.
// POST /session/role.
func (h *AuthHandlers) SwitchRole(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		redirectBrowser(w, r, signInRedirect(r))
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	role := domainauth.Role(strings.ToLower(strings.TrimSpace(r.PostFormValue("role"))))
	session, err := h.Svc.SwitchRole(r.Context(), c.Value, role)
	switch {
	case err == nil:
		h.logger().InfoContext(r.Context(), "active role switched", "user_id", session.UserID, "role", role)
		redirectBrowser(w, r, session.LandingPath())
	case errors.Is(err, service.ErrNoSession):
		h.Cookies.clear(w, r, SessionCookieName)
		redirectBrowser(w, r, unauthorizedPath(guard.ReasonSessionExpired))
	case apperrors.IsForbidden(err):
		redirectBrowser(w, r, unauthorizedPath(guard.ReasonForbidden))
	default:
		h.logger().ErrorContext(r.Context(), "role switch failed", "error", err)
		writeSessionUnavailable(w, r)
	}
}

// postLoginTarget prefers the remembered destination over the role landing page.
func postLoginTarget(remembered string, s *domainauth.Session) string {
	if remembered != "" && remembered != "/" {
		return remembered
	}
	return s.LandingPath()
}

func loginPagePath(redirectURI, errCode string) string {
	q := url.Values{}
	if redirectURI != "" && redirectURI != "/" {
		q.Set("redirect_uri", redirectURI)
	}
	if errCode != "" {
		q.Set("error", errCode)
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}
