package httpx

import (
	"net/http"

	"github.com/target/recon-console/internal/domain/model"
	"github.com/target/recon-console/internal/export"
	"github.com/target/recon-console/internal/listview"
)

const ledgerImportsPath = "/admin/ledger-imports"

func (h *UIHandlers) ledgerImportScreen() listScreen[model.LedgerImport] {
	s := listScreen[model.LedgerImport]{
		Screen:   screenLedgerImports,
		BasePath: ledgerImportsPath,
		Meta: PageMeta{
			Title:       titled("Ledger imports"),
			PageTitle:   "Ledger imports",
			CurrentPage: PageLedgerImports,
		},
		ItemsKey: "Imports",
		Enrich: func(_ *http.Request, b *TemplateDataBuilder, v listview.View[model.LedgerImport]) {
			b.With("ExportXLSX", exportURL(ledgerImportsPath+"/export", v.Query.Search, export.FormatXLSX)).
				With("ExportPDF", exportURL(ledgerImportsPath+"/export", v.Query.Search, export.FormatPDF))
		},
	}
	if h.LedgerImportsSvc != nil {
		s.Pipeline = h.LedgerImportsSvc.Pipeline
	}
	return s
}

// LedgerImports renders the client-filtered ledger import history.
func (h *UIHandlers) LedgerImports(w http.ResponseWriter, r *http.Request) {
	handleList(h, w, r, h.ledgerImportScreen())
}

// LedgerImportsRefresh refetches the import history and returns to page 1.
func (h *UIHandlers) LedgerImportsRefresh(w http.ResponseWriter, r *http.Request) {
	handleRefresh(h, w, r, h.ledgerImportScreen())
}

// LedgerImportsExport downloads the filtered rows as xlsx or pdf.
func (h *UIHandlers) LedgerImportsExport(w http.ResponseWriter, r *http.Request) {
	if h.LedgerImportsSvc == nil {
		h.NotFound(w, r)
		return
	}
	f, err := requestFormat(r)
	if err != nil {
		h.exportFailed(w, r, ledgerImportsPath, err)
		return
	}
	d, err := h.LedgerImportsSvc.Export(r.Context(), callerFromRequest(r), r.URL.Query().Get(listview.ParamSearch), f)
	if err != nil {
		h.exportFailed(w, r, ledgerImportsPath, err)
		return
	}
	sendDownload(w, d)
}
