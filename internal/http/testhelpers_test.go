package httpx

import (
	"os"
	"strings"
	"testing"
)

// requireRenderer parses the real templates from disk, skipping when the
// frontend directory is not reachable from the test binary.
func requireRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: os.DirFS(TemplatePathFromTest)})
	if err != nil {
		t.Skipf("templates not available: %v", err)
	}
	return tr
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// newTestUIHandlers returns handlers with a renderer and no services; tests
// attach the fakes they need.
func newTestUIHandlers(t *testing.T) *UIHandlers {
	t.Helper()
	return &UIHandlers{T: requireRenderer(t)}
}
