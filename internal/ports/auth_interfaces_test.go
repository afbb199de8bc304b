package ports_test

import (
	"testing"

	"github.com/target/recon-console/internal/gateway"
	"github.com/target/recon-console/internal/mocks"
	mockauth "github.com/target/recon-console/internal/mocks/auth"
	mockstore "github.com/target/recon-console/internal/mocks/store"
	"github.com/target/recon-console/internal/ports"
)

// This test only verifies that our doubles and adapters conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthProvider = (*mockauth.MockAuthProvider)(nil)
	var _ ports.PasswordAuthenticator = (*mockauth.MockAuthProvider)(nil)
	var _ ports.SessionStore = (*mockauth.MemorySessionStore)(nil)
	var _ ports.SessionLister = (*mockauth.MemorySessionStore)(nil)
	var _ ports.RoleMapper = (*mockauth.StaticRoleMapper)(nil)
	var _ ports.NoticeStore = (*mockstore.MemoryNoticeStore)(nil)
	var _ ports.UploadTracker = (*mockstore.MemoryUploadTracker)(nil)
	var _ ports.Backend = (*mocks.MockBackend)(nil)
	var _ ports.Backend = (*gateway.Client)(nil)
}
