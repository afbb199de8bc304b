package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/export"
	"github.com/target/recon-console/internal/gateway"
	"github.com/target/recon-console/internal/listview"
	"github.com/target/recon-console/internal/ports"
)

const endpointLedgerImports = "ledger-imports"

// LedgerImportServiceOptions groups dependencies for LedgerImportService.
type LedgerImportServiceOptions struct {
	Backend   ports.Backend
	PageSizes []int
	Logger    *slog.Logger
}

// LedgerImportService lists ledger imports; filtering and paging happen locally.
type LedgerImportService struct {
	api       backendClient
	pageSizes []int
}

// NewLedgerImportService constructs a LedgerImportService. Backend is required.
func NewLedgerImportService(opts LedgerImportServiceOptions) *LedgerImportService {
	return &LedgerImportService{api: newBackendClient(opts.Backend, opts.Logger), pageSizes: opts.PageSizes}
}

// List fetches every ledger import.
func (s *LedgerImportService) List(ctx context.Context, caller Caller) ([]model.LedgerImport, error) {
	items, _, err := list[model.LedgerImport](ctx, s.api, caller, gateway.APILedger, endpointLedgerImports, nil)
	return items, err
}

// LedgerImportFields are the searchable columns: id, source, file, status, imported by.
func LedgerImportFields() listview.Fields[model.LedgerImport] {
	return listview.Fields[model.LedgerImport]{
		func(l model.LedgerImport) any { return l.ID },
		func(l model.LedgerImport) any { return l.Source },
		func(l model.LedgerImport) any { return l.FileName },
		func(l model.LedgerImport) any { return l.Status },
		func(l model.LedgerImport) any { return l.ImportedBy },
	}
}

// Pipeline returns a client-filtered pipeline for caller.
func (s *LedgerImportService) Pipeline(caller Caller) *listview.Pipeline[model.LedgerImport] {
	src := listview.ClientFunc[model.LedgerImport](func(ctx context.Context) ([]model.LedgerImport, error) {
		return s.List(ctx, caller)
	})
	return listview.NewClientPipeline[model.LedgerImport](src, LedgerImportFields(), pageSizeOption[model.LedgerImport](s.pageSizes)...)
}

// Export renders the rows matching search as a local download.
func (s *LedgerImportService) Export(ctx context.Context, caller Caller, search string, f export.Format) (export.Download, error) {
	items, err := s.List(ctx, caller)
	if err != nil {
		return export.Download{}, err
	}
	rows := listview.Filter(items, search, LedgerImportFields())
	tbl := export.Build("Ledger imports", []export.Column{
		{Header: "ID"},
		{Header: "Source"},
		{Header: "File", Width: 2},
		{Header: "Status"},
		{Header: "Imported by"},
		{Header: "Imported at", Width: 1.3},
		{Header: "Records", Width: 0.7},
	}, rows, func(l model.LedgerImport) []string {
		return []string{l.ID, l.Source, l.FileName, l.Status, l.ImportedBy, formatTime(l.ImportedAt), strconv.Itoa(l.RecordCount)}
	})
	return renderExport(f, tbl, "ledger-imports")
}

func pageSizeOption[T any](sizes []int) []listview.Option[T] {
	if len(sizes) == 0 {
		return nil
	}
	return []listview.Option[T]{listview.WithPageSizes[T](sizes)}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

var exportNow = time.Now

func renderExport(f export.Format, tbl export.Table, base string) (export.Download, error) {
	d, err := export.Render(f, tbl, base, exportNow())
	if err != nil {
		return export.Download{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "The export could not be generated.")
	}
	return d, nil
}
