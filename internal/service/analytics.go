package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/target/recon-console/internal/domain/model"
	"github.com/target/recon-console/internal/gateway"
	"github.com/target/recon-console/internal/ports"
)

// AnalyticsServiceOptions groups dependencies for AnalyticsService.
type AnalyticsServiceOptions struct {
	Backend ports.Backend
	Logger  *slog.Logger
}

// AnalyticsService assembles dashboard summaries.
type AnalyticsService struct {
	api backendClient
}

// NewAnalyticsService constructs an AnalyticsService. Backend is required.
func NewAnalyticsService(opts AnalyticsServiceOptions) *AnalyticsService {
	return &AnalyticsService{api: newBackendClient(opts.Backend, opts.Logger)}
}

// Summary fetches the status, aging and throughput breakdowns concurrently.
// The first failure cancels the remaining calls.
func (s *AnalyticsService) Summary(ctx context.Context, caller Caller) (model.AnalyticsSummary, error) {
	var out model.AnalyticsSummary
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(endpoint string, dst *[]model.Bucket) {
		g.Go(func() error {
			items, _, err := list[model.Bucket](gctx, s.api, caller, gateway.APIAnalytics, endpoint, nil)
			if err != nil {
				return err
			}
			*dst = items
			return nil
		})
	}
	fetch("summary/status", &out.Status)
	fetch("summary/aging", &out.Aging)
	fetch("summary/throughput", &out.Throughput)

	if err := g.Wait(); err != nil {
		return model.AnalyticsSummary{}, err
	}
	return out, nil
}
