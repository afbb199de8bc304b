package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

const hxTriggerHeader = "Hx-Trigger"

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// IsHistoryRestore reports true when htmx is restoring history (Hx-History-Restore-Request: true).
func IsHistoryRestore(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-History-Restore-Request"), "true")
}

// WantsPartial returns true when the handler should return only the main fragment.
// History restores need the full layout because htmx swaps the whole body.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r) && !IsHistoryRestore(r)
}

// TabID returns the per-tab id the client sends on htmx requests.
func TabID(r *http.Request) string { return strings.TrimSpace(r.Header.Get("X-Tab-Id")) }

// HXTarget returns the id of the target element being updated.
func HXTarget(r *http.Request) string { return r.Header.Get("Hx-Target") }

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXPushURL pushes the given URL into the browser history for the new content.
func SetHXPushURL(w http.ResponseWriter, url string) { w.Header().Set("Hx-Push-Url", url) }

// SetHXRefresh forces a full page refresh when true.
func SetHXRefresh(w http.ResponseWriter, refresh bool) {
	if refresh {
		w.Header().Set("Hx-Refresh", "true")
		return
	}
	w.Header().Set("Hx-Refresh", "false")
}

// SetHXTrigger adds a client-side event to the Hx-Trigger response header.
// Events already set on the response are kept, so a handler can raise a toast
// alongside the navigation event written by the page renderer. A nil payload
// sends true.
func SetHXTrigger(w http.ResponseWriter, event string, payload any) {
	var value any = true
	if payload != nil {
		value = payload
	}
	events := existingTriggers(w.Header().Get(hxTriggerHeader))
	events[event] = value

	b, err := json.Marshal(events)
	if err != nil {
		// Fall back to a boolean trigger if payload cannot be serialized
		w.Header().Set(hxTriggerHeader, "{\""+event+"\":true}")
		return
	}
	w.Header().Set(hxTriggerHeader, string(b))
}

// existingTriggers parses a previously written Hx-Trigger value, which is either
// a JSON object or a comma-separated list of event names.
func existingTriggers(raw string) map[string]any {
	events := map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return events
	}
	if strings.HasPrefix(raw, "{") {
		if err := json.Unmarshal([]byte(raw), &events); err == nil {
			return events
		}
		return map[string]any{}
	}
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			events[name] = true
		}
	}
	return events
}

// HTMXResponse provides a fluent API for building HTMX responses.
type HTMXResponse struct {
	w http.ResponseWriter
}

// HTMX creates a new HTMXResponse for fluent response building.
func HTMX(w http.ResponseWriter) *HTMXResponse {
	return &HTMXResponse{w: w}
}

// Redirect sets Hx-Redirect and writes 204 No Content.
// The handler should return immediately after calling this method.
func (h *HTMXResponse) Redirect(url string) {
	SetHXRedirect(h.w, url)
	h.w.WriteHeader(http.StatusNoContent)
}

// Trigger adds a client-side event. Chainable.
func (h *HTMXResponse) Trigger(event string, payload any) *HTMXResponse {
	SetHXTrigger(h.w, event, payload)
	return h
}

// PushURL pushes the given URL into the browser history. Chainable.
func (h *HTMXResponse) PushURL(url string) *HTMXResponse {
	SetHXPushURL(h.w, url)
	return h
}

// Refresh sets Hx-Refresh and writes 204 No Content.
func (h *HTMXResponse) Refresh() {
	SetHXRefresh(h.w, true)
	h.w.WriteHeader(http.StatusNoContent)
}

// redirectBrowser navigates to target: Hx-Redirect for htmx requests, 303 otherwise.
func redirectBrowser(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		HTMX(w).Redirect(target)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
