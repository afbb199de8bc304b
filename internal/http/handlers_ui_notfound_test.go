package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/target/recon-console/internal/domain/auth"
)

func TestUIHandlers_NotFound_BrowserAnonymous(t *testing.T) {
	tr := requireRenderer(t)
	h := &UIHandlers{T: tr}

	w := httptest.NewRecorder()
	h.NotFound(w, browserGet("/nonexistent"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.True(t, containsAll(body, "404", "doesn&#39;t exist", "/?redirect_uri=", "Sign in"))
	assert.NotContains(t, body, "Back to dashboard")
}

func TestUIHandlers_NotFound_BrowserSignedIn(t *testing.T) {
	tr := requireRenderer(t)
	h := &UIHandlers{T: tr}

	r := asUser(browserGet("/nonexistent"), testSession("s1", domainauth.RoleDirector))
	w := httptest.NewRecorder()
	h.NotFound(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `href="/director/dashboard"`)
	assert.Contains(t, body, "Back to dashboard")
	assert.NotContains(t, body, "Sign in")
}

func TestUIHandlers_NotFound_API(t *testing.T) {
	h := &UIHandlers{}

	w := httptest.NewRecorder()
	h.NotFound(w, apiGet("/api/nope"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"not_found","message":"not found"}`, w.Body.String())
}

func TestUIHandlers_NotFound_NoTemplates(t *testing.T) {
	h := &UIHandlers{}

	w := httptest.NewRecorder()
	h.NotFound(w, browserGet("/nonexistent"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}
