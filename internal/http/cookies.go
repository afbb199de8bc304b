package httpx

import (
	"net/http"
	"strings"
	"time"

	domainauth "github.com/target/recon-console/internal/domain/auth"
)

// Cookie names used by the dashboard.
const (
	SessionCookieName       = "session_id"
	oauthStateCookie        = "oauth_state"
	oauthNonceCookie        = "oauth_nonce"
	postLoginRedirectCookie = "post_login_redirect"

	// oauthCookieMaxAge bounds the sign-in round trip.
	oauthCookieMaxAge = 600
)

// CookieConfig holds the attributes shared by every cookie the dashboard writes.
type CookieConfig struct {
	Domain string
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (c CookieConfig) set(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// clear expires a cookie, mirroring the attributes used when it was set so
// browsers match and delete it.
func (c CookieConfig) clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) setSession(w http.ResponseWriter, r *http.Request, s *domainauth.Session) {
	c.set(w, r, SessionCookieName, s.ID, max(int(time.Until(s.ExpiresAt).Seconds()), 1))
}

type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

func (c CookieConfig) setOAuth(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	c.set(w, r, oauthStateCookie, p.State, oauthCookieMaxAge)
	c.set(w, r, oauthNonceCookie, p.Nonce, oauthCookieMaxAge)
	c.set(w, r, postLoginRedirectCookie, p.RedirectURI, oauthCookieMaxAge)
}

// takePostLoginRedirect returns the remembered destination and clears it.
// An empty string means none was remembered.
func (c CookieConfig) takePostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(postLoginRedirectCookie)
	if err != nil {
		return ""
	}
	c.clear(w, r, postLoginRedirectCookie)
	if target := safeRedirectPath(cookie.Value); target != "/" {
		return target
	}
	return ""
}
