package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/target/recon-console/internal/http/ui/viewmodel"
	"github.com/target/recon-console/internal/listview"
	"github.com/target/recon-console/internal/service"
)

// pagerWidth is how many numbered page links the pager shows.
const pagerWidth = 5

// listScreen describes one list screen driven by a listview pipeline.
type listScreen[T any] struct {
	// Screen keys in-flight tracking together with the session and tab.
	Screen string
	// BasePath is the base URL path for pagination links (e.g., "/admin/users").
	BasePath string
	Meta     PageMeta
	// ItemsKey is the template data key for the current page of rows.
	ItemsKey string
	// Pipeline builds the pipeline for the signed-in caller.
	Pipeline func(caller service.Caller) *listview.Pipeline[T]
	// Enrich adds screen-specific data after the rows are loaded. Optional.
	Enrich func(r *http.Request, b *TemplateDataBuilder, view listview.View[T])
}

// handleList parses ?page=&page_size=&q=, runs the pipeline and renders the screen.
func handleList[T any](h *UIHandlers, w http.ResponseWriter, r *http.Request, s listScreen[T]) {
	if s.Pipeline == nil {
		h.NotFound(w, r)
		return
	}
	p := s.Pipeline(callerFromRequest(r))
	q := listview.ParseQuery(r.URL.Query(), p.PageSizes())
	renderList(h, w, r, s, p, q)
}

// handleRefresh resets the screen to page 1 with no search and re-invokes the
// source. The page size chosen on screen is kept.
func handleRefresh[T any](h *UIHandlers, w http.ResponseWriter, r *http.Request, s listScreen[T]) {
	if s.Pipeline == nil {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	p := s.Pipeline(callerFromRequest(r))
	q := listview.ParseQuery(r.PostForm, p.PageSizes()).Reset()
	target := q.URL(s.BasePath, 1)

	if !IsHTMX(r) {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	SetHXPushURL(w, target)

	// Render as if the refreshed URL had been requested so pager links and
	// nav highlighting match the pushed location.
	r2 := r.Clone(r.Context())
	r2.Method = http.MethodGet
	r2.URL = &url.URL{Path: s.BasePath, RawQuery: q.Values().Encode()}
	renderList(h, w, r2, s, p, q)
}

func renderList[T any](
	h *UIHandlers,
	w http.ResponseWriter,
	r *http.Request,
	s listScreen[T],
	p *listview.Pipeline[T],
	q listview.Query,
) {
	view, err := runList(r.Context(), h.Inflight, inflightKey(r, s.Screen), p, q)
	if errors.Is(err, listview.ErrSuperseded) {
		// A newer swap in this tab owns the table; leave it alone.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	b := NewTemplateData(r, s.Meta).
		WithPagination(paginationFor(s.BasePath, view)).
		With(s.ItemsKey, view.Items).
		With("Empty", view.Empty())

	switch {
	case err != nil:
		h.logger().ErrorContext(r.Context(), "list fetch failed", "screen", s.Screen, "error", err)
		b.WithError(view.ErrorMessage())
	case view.Degraded:
		h.logger().WarnContext(r.Context(), "serving fallback rows", "screen", s.Screen, "error", view.Err)
		b.With("Degraded", true).With("DegradedMessage", view.ErrorMessage())
	}
	if s.Enrich != nil {
		s.Enrich(r, b, view)
	}
	h.renderDashboardPage(w, r, b.Build())
}

// inflightKey returns the supersession key for r, or "" when r must not be
// superseded. Only partial swaps from a tab that identifies itself qualify;
// full navigations always render.
func inflightKey(r *http.Request, screen string) string {
	if !WantsPartial(r) {
		return ""
	}
	sid, tab := sessionIDFromRequest(r), TabID(r)
	if sid == "" || tab == "" {
		return ""
	}
	return listview.Key(sid, tab, screen)
}

func runList[T any](
	ctx context.Context,
	f *listview.Inflight,
	key string,
	p *listview.Pipeline[T],
	q listview.Query,
) (listview.View[T], error) {
	if f == nil || key == "" {
		return p.Run(ctx, q)
	}
	return p.RunExclusive(ctx, f, key, q)
}

// paginationFor converts a pipeline view into the pager view model.
func paginationFor[T any](basePath string, v listview.View[T]) viewmodel.Pagination {
	q := v.Query
	p := viewmodel.Pagination{
		BasePath:   basePath,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalCount: v.TotalCount,
		TotalPages: v.TotalPages,
		RangeLabel: v.RangeLabel,
		Search:     q.Search,
		HasPrev:    v.HasPrev,
		HasNext:    v.HasNext,
	}
	if v.HasPrev {
		p.PrevURL = q.URL(basePath, q.Page-1)
	}
	if v.HasNext {
		p.NextURL = q.URL(basePath, q.Page+1)
	}
	for _, n := range v.PageWindow(pagerWidth) {
		p.Pages = append(p.Pages, viewmodel.PageLink{Number: n, URL: q.URL(basePath, n), Current: n == q.Page})
	}
	for _, size := range v.PageSizes {
		p.PageSizes = append(p.PageSizes, viewmodel.PageSizeOption{Size: size, Selected: size == q.PageSize})
	}
	return p
}
