package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/export"
	"github.com/target/recon-console/internal/gateway"
	"github.com/target/recon-console/internal/listview"
	"github.com/target/recon-console/internal/ports"
)

const (
	endpointReconciliations = "reconciliations"
	endpointReconExport     = "reconciliations/export"
	defaultExportFileName   = "reconciliations.xlsx"
)

// ReconciliationServiceOptions groups dependencies for ReconciliationService.
type ReconciliationServiceOptions struct {
	Backend   ports.Backend
	PageSizes []int
	Logger    *slog.Logger
}

// ReconciliationService reads reconciliations page by page from the recon API.
type ReconciliationService struct {
	api       backendClient
	pageSizes []int
}

// NewReconciliationService constructs a ReconciliationService. Backend is required.
func NewReconciliationService(opts ReconciliationServiceOptions) *ReconciliationService {
	return &ReconciliationService{
		api:       newBackendClient(opts.Backend, opts.Logger),
		pageSizes: opts.PageSizes,
	}
}

// List fetches one server-side page.
func (s *ReconciliationService) List(ctx context.Context, caller Caller, opts model.ReconciliationListOptions) (listview.Result[model.Reconciliation], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(max(opts.Page, 1)))
	q.Set("size", strconv.Itoa(max(opts.Size, 1)))
	if search := strings.TrimSpace(opts.Search); search != "" {
		q.Set("search", search)
	}
	if opts.UserID != "" {
		q.Set("userId", opts.UserID)
	}

	items, total, err := list[model.Reconciliation](ctx, s.api, caller, gateway.APIRecon, endpointReconciliations, q)
	if err != nil {
		return listview.Result[model.Reconciliation]{}, err
	}
	return listview.Result[model.Reconciliation]{Items: items, TotalCount: total}, nil
}

// Pipeline returns a server-paginated pipeline for caller. When the backend is
// unreachable the screen falls back to the sample dataset and is flagged degraded.
func (s *ReconciliationService) Pipeline(caller Caller) *listview.Pipeline[model.Reconciliation] {
	src := listview.ServerFunc[model.Reconciliation](func(ctx context.Context, q listview.Query) (listview.Result[model.Reconciliation], error) {
		return s.List(ctx, caller, model.ReconciliationListOptions{
			Page:   q.Page,
			Size:   q.PageSize,
			Search: q.Search,
			UserID: caller.UserID,
		})
	})
	opts := []listview.Option[model.Reconciliation]{
		listview.WithFallback[model.Reconciliation](SampleReconciliations),
	}
	if len(s.pageSizes) > 0 {
		opts = append(opts, listview.WithPageSizes[model.Reconciliation](s.pageSizes))
	}
	return listview.NewServerPipeline[model.Reconciliation](src, ReconciliationFields(), opts...)
}

// ReconciliationFields are the columns searched when filtering locally (fallback data).
func ReconciliationFields() listview.Fields[model.Reconciliation] {
	return listview.Fields[model.Reconciliation]{
		func(r model.Reconciliation) any { return r.ID },
		func(r model.Reconciliation) any { return r.Account },
		func(r model.Reconciliation) any { return r.Entity },
		func(r model.Reconciliation) any { return r.Period },
		func(r model.Reconciliation) any { return string(r.Status) },
		func(r model.Reconciliation) any { return r.Preparer },
		func(r model.Reconciliation) any { return r.Reviewer },
	}
}

// Export downloads the server-rendered export for the current search.
func (s *ReconciliationService) Export(ctx context.Context, caller Caller, search string) (export.Download, error) {
	q := url.Values{}
	if search = strings.TrimSpace(search); search != "" {
		q.Set("search", search)
	}
	if caller.UserID != "" {
		q.Set("userId", caller.UserID)
	}
	resp, err := s.api.do(ctx, caller, gateway.Request{
		API:          gateway.APIRecon,
		Endpoint:     endpointReconExport,
		Method:       http.MethodGet,
		Query:        q,
		ResponseType: gateway.ResponseBlob,
	})
	if err != nil {
		return export.Download{}, err
	}
	if len(resp.Body) == 0 {
		return export.Download{}, apperrors.Upstream("The export was empty. Please try again.")
	}

	d := export.Download{FileName: resp.FileName, ContentType: resp.ContentType, Data: resp.Body}
	if d.FileName == "" {
		d.FileName = defaultExportFileName
	}
	if d.ContentType == "" {
		d.ContentType = export.ContentTypeXLSX
	}
	return d, nil
}

// SampleReconciliations is the fixed dataset shown when the recon API cannot be reached.
func SampleReconciliations() []model.Reconciliation {
	due := func(day int) *time.Time {
		t := time.Date(2024, time.February, day, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return []model.Reconciliation{
		{ID: "sample-1", Account: "1000-100", Entity: "US01", Period: "2024-01", Status: model.ReconciliationStatusOpen, Preparer: "sample.preparer", Balance: 125000.50, DueDate: due(5)},
		{ID: "sample-2", Account: "1010-200", Entity: "US01", Period: "2024-01", Status: model.ReconciliationStatusPrepared, Preparer: "sample.preparer", Reviewer: "sample.reviewer", Balance: 8420.00, DueDate: due(5)},
		{ID: "sample-3", Account: "1200-000", Entity: "CA02", Period: "2024-01", Status: model.ReconciliationStatusReviewed, Preparer: "sample.preparer", Reviewer: "sample.reviewer", Balance: -3310.75, DueDate: due(7)},
		{ID: "sample-4", Account: "2000-300", Entity: "CA02", Period: "2024-01", Status: model.ReconciliationStatusApproved, Preparer: "sample.preparer", Reviewer: "sample.reviewer", Balance: 0, DueDate: due(7)},
		{ID: "sample-5", Account: "2100-050", Entity: "UK03", Period: "2024-01", Status: model.ReconciliationStatusException, Preparer: "sample.preparer", Balance: 99.99, DueDate: due(9)},
		{ID: "sample-6", Account: "3000-010", Entity: "UK03", Period: "2024-01", Status: model.ReconciliationStatusRejected, Preparer: "sample.preparer", Reviewer: "sample.reviewer", Balance: 15000, DueDate: due(9)},
	}
}
