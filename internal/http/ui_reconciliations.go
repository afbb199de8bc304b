package httpx

import (
	"net/http"

	"github.com/target/recon-console/internal/domain/model"
	"github.com/target/recon-console/internal/listview"
)

func (h *UIHandlers) reconciliationScreen() listScreen[model.Reconciliation] {
	s := listScreen[model.Reconciliation]{
		Screen:   screenReconciliations,
		BasePath: "/reconciliations",
		Meta: PageMeta{
			Title:       titled("Reconciliations"),
			PageTitle:   "Reconciliations",
			CurrentPage: PageReconciliations,
		},
		ItemsKey: "Reconciliations",
		Enrich: func(_ *http.Request, b *TemplateDataBuilder, v listview.View[model.Reconciliation]) {
			b.With("ExportURL", exportURL("/reconciliations/export", v.Query.Search, ""))
		},
	}
	if h.ReconciliationsSvc != nil {
		s.Pipeline = h.ReconciliationsSvc.Pipeline
	}
	return s
}

// Reconciliations renders the server-paginated reconciliation list.
func (h *UIHandlers) Reconciliations(w http.ResponseWriter, r *http.Request) {
	handleList(h, w, r, h.reconciliationScreen())
}

// ReconciliationsRefresh reloads the list from page 1.
func (h *UIHandlers) ReconciliationsRefresh(w http.ResponseWriter, r *http.Request) {
	handleRefresh(h, w, r, h.reconciliationScreen())
}

// ReconciliationsExport streams the backend export for the current search.
func (h *UIHandlers) ReconciliationsExport(w http.ResponseWriter, r *http.Request) {
	if h.ReconciliationsSvc == nil {
		h.NotFound(w, r)
		return
	}
	d, err := h.ReconciliationsSvc.Export(r.Context(), callerFromRequest(r), r.URL.Query().Get(listview.ParamSearch))
	if err != nil {
		h.exportFailed(w, r, "/reconciliations", err)
		return
	}
	sendDownload(w, d)
}
