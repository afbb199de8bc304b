package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/target/recon-console/internal/domain/auth"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/gateway"
	"github.com/target/recon-console/internal/ports"
)

// Caller identifies who a backend call is made for.
type Caller struct {
	UserID string
	Token  string
}

// CallerFromSession extracts the backend credentials from a session.
func CallerFromSession(s *domainauth.Session) Caller {
	if s == nil {
		return Caller{}
	}
	return Caller{UserID: s.UserID, Token: s.AccessToken}
}

// backendClient wraps ports.Backend with caller attribution and error mapping.
// Every error it returns has been through apperrors.MapUpstreamError.
type backendClient struct {
	backend ports.Backend
	logger  *slog.Logger
}

func newBackendClient(b ports.Backend, logger *slog.Logger) backendClient {
	if b == nil {
		panic("service: backend is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return backendClient{backend: b, logger: logger}
}

func (c backendClient) do(ctx context.Context, caller Caller, req gateway.Request) (*gateway.Response, error) {
	req.UserID = caller.UserID
	req.Token = caller.Token
	resp, err := c.backend.Do(ctx, req)
	if err != nil {
		mapped := apperrors.MapUpstreamError(err)
		if !apperrors.IsValidation(mapped) && !apperrors.IsCanceled(mapped) {
			c.logger.ErrorContext(ctx, "backend call failed",
				"api", req.API,
				"endpoint", req.Endpoint,
				"method", req.Method,
				"code", apperrors.GetCode(mapped),
				"error", err,
			)
		}
		return nil, mapped
	}
	return resp, nil
}

func (c backendClient) getJSON(ctx context.Context, caller Caller, api, endpoint string, query url.Values, v any) error {
	resp, err := c.do(ctx, caller, gateway.Request{API: api, Endpoint: endpoint, Method: http.MethodGet, Query: query})
	if err != nil {
		return err
	}
	if err := resp.DecodeJSON(v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUpstream, "The service returned an unexpected response.")
	}
	return nil
}

func (c backendClient) sendJSON(ctx context.Context, caller Caller, method, api, endpoint string, body, out any) error {
	resp, err := c.do(ctx, caller, gateway.Request{API: api, Endpoint: endpoint, Method: method, Body: body})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := resp.DecodeJSON(out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUpstream, "The service returned an unexpected response.")
	}
	return nil
}

// list fetches a list endpoint and decodes whatever envelope it uses.
func list[T any](ctx context.Context, c backendClient, caller Caller, api, endpoint string, query url.Values) ([]T, int, error) {
	resp, err := c.do(ctx, caller, gateway.Request{API: api, Endpoint: endpoint, Method: http.MethodGet, Query: query})
	if err != nil {
		return nil, 0, err
	}
	items, total, err := gateway.DecodePage[T](c.backend.Extractor(), resp.Body)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "The service returned an unexpected response.")
	}
	return items, total, nil
}
