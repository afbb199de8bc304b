// Package mocks provides gomock mocks for the dashboard's ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockBackend(ctrl)
//	backend.EXPECT().Do(gomock.Any(), gomock.Any()).Return(&gateway.Response{Status: 200}, nil)
package mocks

// Generate mock for Backend interface from internal/ports package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=backend_mock.go github.com/target/recon-console/internal/ports Backend
