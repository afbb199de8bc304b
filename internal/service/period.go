package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/gateway"
	"github.com/target/recon-console/internal/listview"
	"github.com/target/recon-console/internal/ports"
)

const (
	endpointPeriods     = "periods"
	endpointPeriodStart = "periods/start"
)

// PeriodServiceOptions groups dependencies for PeriodService.
type PeriodServiceOptions struct {
	Backend   ports.Backend
	PageSizes []int
	Logger    *slog.Logger
}

// PeriodService drives period control: listing, editing, opening and flagging overdue.
type PeriodService struct {
	api       backendClient
	pageSizes []int
}

// NewPeriodService constructs a PeriodService. Backend is required.
func NewPeriodService(opts PeriodServiceOptions) *PeriodService {
	return &PeriodService{api: newBackendClient(opts.Backend, opts.Logger), pageSizes: opts.PageSizes}
}

// List fetches every period.
func (s *PeriodService) List(ctx context.Context, caller Caller) ([]model.Period, error) {
	items, _, err := list[model.Period](ctx, s.api, caller, gateway.APIRecon, endpointPeriods, nil)
	return items, err
}

// PeriodFields are the searchable period columns.
func PeriodFields() listview.Fields[model.Period] {
	return listview.Fields[model.Period]{
		func(p model.Period) any { return p.ID },
		func(p model.Period) any { return p.Name },
		func(p model.Period) any { return string(p.Status) },
		func(p model.Period) any { return p.Start },
		func(p model.Period) any { return p.End },
	}
}

// Pipeline returns a client-filtered period pipeline.
func (s *PeriodService) Pipeline(caller Caller) *listview.Pipeline[model.Period] {
	src := listview.ClientFunc[model.Period](func(ctx context.Context) ([]model.Period, error) {
		return s.List(ctx, caller)
	})
	return listview.NewClientPipeline[model.Period](src, PeriodFields(), pageSizeOption[model.Period](s.pageSizes)...)
}

// Edit changes a period's name and dates.
func (s *PeriodService) Edit(ctx context.Context, caller Caller, id string, req model.PeriodRequest) (*model.Period, error) {
	endpoint, err := periodEndpoint(id, "")
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	var out model.Period
	if err := s.api.sendJSON(ctx, caller, http.MethodPut, gateway.APIRecon, endpoint, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Start opens a new period.
func (s *PeriodService) Start(ctx context.Context, caller Caller, req model.PeriodRequest) (*model.Period, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	var out model.Period
	if err := s.api.sendJSON(ctx, caller, http.MethodPost, gateway.APIRecon, endpointPeriodStart, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkOverdue flags a period as overdue.
func (s *PeriodService) MarkOverdue(ctx context.Context, caller Caller, id string) error {
	endpoint, err := periodEndpoint(id, "/overdue")
	if err != nil {
		return err
	}
	return s.api.sendJSON(ctx, caller, http.MethodPost, gateway.APIRecon, endpoint, nil, nil)
}

func periodEndpoint(id, suffix string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperrors.Validation("period id is required")
	}
	return endpointPeriods + "/" + url.PathEscape(id) + suffix, nil
}
