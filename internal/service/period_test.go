package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/gateway"
	"github.com/target/recon-console/internal/listview"
)

func TestPeriodService_Pipeline(t *testing.T) {
	m := newMockBackend(t)
	expectCall(m, http.MethodGet, gateway.APIRecon, "periods", jsonResponse(`{"items":[
		{"id":"p-1","name":"Jan 2024","startDate":"2024-01-01T00:00:00Z","endDate":"2024-01-31T00:00:00Z","status":"closed"},
		{"id":"p-2","name":"Feb 2024","startDate":"2024-02-01T00:00:00Z","endDate":"2024-02-29T00:00:00Z","status":"open"}
	]}`), nil)

	svc := NewPeriodService(PeriodServiceOptions{Backend: m})
	view, err := svc.Pipeline(testCaller).Run(context.Background(), listview.Query{Page: 1, PageSize: 10, Search: "open"})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "p-2", view.Items[0].ID)
	assert.Equal(t, model.PeriodStatusOpen, view.Items[0].Status)
}

func TestPeriodService_Edit(t *testing.T) {
	m := newMockBackend(t)
	m.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req gateway.Request) (*gateway.Response, error) {
			assert.Equal(t, http.MethodPut, req.Method)
			assert.Equal(t, "periods/p-1", req.Endpoint)
			b, err := json.Marshal(req.Body)
			require.NoError(t, err)
			assert.JSONEq(t, `{"name":"Jan","startDate":"2024-01-01","endDate":"2024-01-31"}`, string(b))
			return jsonResponse(`{"id":"p-1","name":"Jan","status":"open"}`), nil
		})

	svc := NewPeriodService(PeriodServiceOptions{Backend: m})
	p, err := svc.Edit(context.Background(), testCaller, "p-1", model.PeriodRequest{Name: " Jan ", Start: "2024-01-01", End: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, "Jan", p.Name)
}

func TestPeriodService_RejectsBadInputWithoutCalling(t *testing.T) {
	svc := NewPeriodService(PeriodServiceOptions{Backend: newMockBackend(t)})
	ctx := context.Background()

	_, err := svc.Edit(ctx, testCaller, "", model.PeriodRequest{Name: "Jan", Start: "2024-01-01", End: "2024-01-31"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Start(ctx, testCaller, model.PeriodRequest{Name: "Jan", Start: "2024-02-01", End: "2024-01-01"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "end date must be after start date", apperrors.UserMessage(err))

	assert.True(t, apperrors.IsValidation(svc.MarkOverdue(ctx, testCaller, " ")))
}

func TestPeriodService_StartAndMarkOverdue(t *testing.T) {
	m := newMockBackend(t)
	gomock.InOrder(
		expectCall(m, http.MethodPost, gateway.APIRecon, "periods/start", jsonResponse(`{"id":"p-3","name":"Mar","status":"open"}`), nil),
		expectCall(m, http.MethodPost, gateway.APIRecon, "periods/p-3/overdue", &gateway.Response{Status: http.StatusNoContent}, nil),
	)

	svc := NewPeriodService(PeriodServiceOptions{Backend: m})
	p, err := svc.Start(context.Background(), testCaller, model.PeriodRequest{Name: "Mar", Start: "2024-03-01", End: "2024-03-31"})
	require.NoError(t, err)
	assert.Equal(t, "p-3", p.ID)

	require.NoError(t, svc.MarkOverdue(context.Background(), testCaller, "p-3"))
}

func TestPeriodService_ServerMessageSurfaces(t *testing.T) {
	m := newMockBackend(t)
	expectCall(m, http.MethodPost, gateway.APIRecon, "periods/p-1/overdue", nil,
		&gateway.StatusError{Status: http.StatusBadRequest, Message: "Closed periods cannot be overdue"})

	err := NewPeriodService(PeriodServiceOptions{Backend: m}).MarkOverdue(context.Background(), testCaller, "p-1")
	require.Error(t, err)
	assert.Equal(t, "Closed periods cannot be overdue", apperrors.UserMessage(err))
}
