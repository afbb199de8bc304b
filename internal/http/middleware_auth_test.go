package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/recon-console/internal/domain/auth"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	if s := GetSessionFromContext(r.Context()); s != nil {
		w.Header().Set("X-Test-User", s.UserID)
	}
	_, _ = w.Write([]byte("ok"))
}

func withCookie(r *http.Request, id string) *http.Request {
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: id})
	return r
}

func browserGet(path string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.Header.Set("Accept", "text/html")
	return r
}

func apiGet(path string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.Header.Set("Accept", "application/json")
	return r
}

func TestRequireRoles_Browser(t *testing.T) {
	auth := newFakeAuth(
		testSession("prep", domainauth.RolePreparer, domainauth.RolePreparer, domainauth.RoleReviewer),
		testSession("adm", domainauth.RoleAdmin),
	)
	guarded := RequireRoles(auth, domainauth.RolePreparer)(http.HandlerFunc(okHandler))

	tests := []struct {
		name         string
		req          *http.Request
		wantStatus   int
		wantLocation string
		wantUser     string
	}{
		{
			name:       "active role allowed",
			req:        withCookie(browserGet("/preparer/uploads"), "prep"),
			wantStatus: http.StatusOK,
			wantUser:   "user-prep",
		},
		{
			name:         "no cookie remembers destination",
			req:          browserGet("/preparer/uploads?page=2"),
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/?reason=unauthenticated&redirect_uri=%2Fpreparer%2Fuploads%3Fpage%3D2",
		},
		{
			name:         "unknown session",
			req:          withCookie(browserGet("/preparer/uploads"), "gone"),
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/?reason=unauthenticated&redirect_uri=%2Fpreparer%2Fuploads",
		},
		{
			name:         "wrong role",
			req:          withCookie(browserGet("/preparer/uploads"), "adm"),
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/unauthorized?reason=forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			guarded.ServeHTTP(w, tt.req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			assert.Equal(t, tt.wantUser, w.Header().Get("X-Test-User"))
		})
	}
}

func TestRequireRoles_HTMXUsesCurrentURL(t *testing.T) {
	guarded := RequireRoles(newFakeAuth())(http.HandlerFunc(okHandler))

	r := htmx(httptest.NewRequest(http.MethodPost, "/reconciliations/refresh", nil))
	r.Header.Set("Hx-Current-Url", "https://recon.example.com/reconciliations?q=acc")
	w := httptest.NewRecorder()
	guarded.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "/?reason=unauthenticated&redirect_uri=%2Freconciliations%3Fq%3Dacc", w.Header().Get("Hx-Redirect"))
}

func TestRequireRoles_API(t *testing.T) {
	auth := newFakeAuth(testSession("rev", domainauth.RoleReviewer))
	guarded := RequireRoles(auth, domainauth.RoleDirector)(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	guarded.ServeHTTP(w, apiGet("/api/periods"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"authentication_required","message":"authentication required"}`, w.Body.String())

	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, withCookie(apiGet("/api/periods"), "rev"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_permissions")
}

func TestRequireRoles_AnyRoleWhenUnconstrained(t *testing.T) {
	auth := newFakeAuth(testSession("dir", domainauth.RoleDirector))
	guarded := RequireRoles(auth)(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	guarded.ServeHTTP(w, withCookie(browserGet("/reconciliations"), "dir"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoles_StoreFailureIsNotASignOut(t *testing.T) {
	auth := newFakeAuth(testSession("rev", domainauth.RoleReviewer))
	auth.getErr = errors.New("redis: connection refused")
	guarded := RequireRoles(auth, domainauth.RoleReviewer)(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	guarded.ServeHTTP(w, withCookie(browserGet("/reviewer/dashboard"), "rev"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Empty(t, w.Header().Get("Location"))
	assert.Empty(t, w.Header().Values("Set-Cookie"))
}

func TestRequireRoles_ReevaluatesAfterRoleSwitch(t *testing.T) {
	auth := newFakeAuth(testSession("s", domainauth.RoleReviewer, domainauth.RoleReviewer, domainauth.RoleDirector))
	guarded := RequireRoles(auth, domainauth.RoleDirector)(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	guarded.ServeHTTP(w, withCookie(browserGet("/director/dashboard"), "s"))
	require.Equal(t, http.StatusSeeOther, w.Code)

	_, err := auth.SwitchRole(t.Context(), "s", domainauth.RoleDirector)
	require.NoError(t, err)

	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, withCookie(browserGet("/director/dashboard"), "s"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalSession(t *testing.T) {
	auth := newFakeAuth(testSession("rev", domainauth.RoleReviewer))
	h := OptionalSession(auth)(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, browserGet("/"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Test-User"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, withCookie(browserGet("/"), "rev"))
	assert.Equal(t, "user-rev", w.Header().Get("X-Test-User"))

	auth.getErr = errors.New("boom")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, withCookie(browserGet("/"), "rev"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Test-User"))
}

// backendRejects simulates a handler whose backend call was rejected.
func backendRejects(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recordAuthFailure(r.Context(), status)
		w.Header().Set("X-Partial", "yes")
		_, _ = w.Write([]byte("<table>half rendered"))
	})
}

func TestAuthFailureRedirect(t *testing.T) {
	mw := AuthFailureRedirect(CookieConfig{})

	t.Run("401 clears the session cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		mw(backendRejects(http.StatusUnauthorized)).ServeHTTP(w, browserGet("/reconciliations"))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/unauthorized?reason=session_expired", w.Header().Get("Location"))
		assert.Empty(t, w.Header().Get("X-Partial"))
		assert.NotContains(t, w.Body.String(), "half rendered")

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookieName, cookies[0].Name)
		assert.Negative(t, cookies[0].MaxAge)
	})

	t.Run("403 keeps the session", func(t *testing.T) {
		w := httptest.NewRecorder()
		mw(backendRejects(http.StatusForbidden)).ServeHTTP(w, htmx(browserGet("/admin/users")))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "/unauthorized?reason=forbidden", w.Header().Get("Hx-Redirect"))
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("api callers get JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		mw(backendRejects(http.StatusUnauthorized)).ServeHTTP(w, apiGet("/api/reconciliations"))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"session_expired","message":"session expired"}`, w.Body.String())
	})

	t.Run("untouched responses pass through", func(t *testing.T) {
		w := httptest.NewRecorder()
		mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("X-Partial", "no")
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("queued"))
		})).ServeHTTP(w, browserGet("/preparer/uploads"))

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "no", w.Header().Get("X-Partial"))
		assert.Equal(t, "queued", w.Body.String())
	})
}

func TestSafeRedirectPath(t *testing.T) {
	tests := map[string]string{
		"":                          "/",
		"/reconciliations?q=x":      "/reconciliations?q=x",
		"https://evil.example.com/": "/",
		"//evil.example.com":        "/",
		"relative/path":             "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeRedirectPath(in), in)
	}
}

func TestSafeRedirectFromURL(t *testing.T) {
	assert.Equal(t, "/admin/users?page=2", safeRedirectFromURL("https://recon.example.com/admin/users?page=2"))
	assert.Equal(t, "", safeRedirectFromURL(""))
	assert.Equal(t, "", safeRedirectFromURL("//evil.example.com/x"))
}
