package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/http/ui/viewmodel"
)

func TestNewTemplateData_Anonymous(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	data := NewTemplateData(r, PageMeta{Title: "Sign in - Recon Console", PageTitle: "Sign in", CurrentPage: PageHome}).Build()

	assert.Equal(t, "Sign in - Recon Console", data["Title"])
	assert.Equal(t, "Sign in", data["PageTitle"])
	assert.Equal(t, PageHome, data["CurrentPage"])
	assert.Equal(t, false, data["IsAuthenticated"])
	assert.NotContains(t, data, "User")
	assert.Empty(t, data["Nav"])
}

func TestNewTemplateData_SignedInUser(t *testing.T) {
	s := testSession("s1", domainauth.RoleReviewer, domainauth.RolePreparer, domainauth.RoleReviewer)
	s.AccessToken = "secret-bearer"
	r := asUser(httptest.NewRequest(http.MethodGet, "/reconciliations", nil), s)

	data := NewTemplateData(r, PageMeta{CurrentPage: PageReconciliations}).Build()

	assert.Equal(t, true, data["IsAuthenticated"])
	user, ok := data["User"].(*viewmodel.User)
	require.True(t, ok)
	assert.Equal(t, "Dana Ledger", user.Name)
	assert.Equal(t, "reviewer", user.ActiveRole)
	assert.True(t, user.CanSwitchRole())
	// Highest privilege first; duplicates collapse.
	require.Len(t, user.Roles, 2)
	assert.Equal(t, "reviewer", user.Roles[0].Value)
	assert.True(t, user.Roles[0].Active)
	assert.Equal(t, "preparer", user.Roles[1].Value)
	assert.False(t, user.Roles[1].Active)

	nav, ok := data["Nav"].([]viewmodel.NavItem)
	require.True(t, ok)
	assert.Equal(t, []string{"/reviewer/dashboard", "/reconciliations"}, navPaths(nav))
	assert.NotContains(t, data, "AccessToken")
}

func navPaths(items []viewmodel.NavItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Path)
	}
	return out
}

func TestNavFor_EachRole(t *testing.T) {
	tests := []struct {
		role domainauth.Role
		want []string
	}{
		{domainauth.RolePreparer, []string{"/preparer/dashboard", "/reconciliations", "/preparer/uploads"}},
		{domainauth.RoleReviewer, []string{"/reviewer/dashboard", "/reconciliations"}},
		{domainauth.RoleDirector, []string{"/director/dashboard", "/reconciliations", "/admin/periods"}},
		{domainauth.RoleAdmin, []string{"/admin/dashboard", "/admin/ledger-imports", "/admin/users", "/admin/groups", "/admin/periods"}},
		{domainauth.Role("auditor"), []string{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, navPaths(navFor(tt.role)))
		})
	}
}

func TestTemplateDataBuilder(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	pager := viewmodel.Pagination{BasePath: "/admin/users", Page: 2, PageSize: 20, HasPrev: true}

	data := NewTemplateData(r, PageMeta{CurrentPage: PageUsers}).
		WithPagination(pager).
		WithError("Something failed.").
		WithFieldErrors(map[string]string{"email": "Email is required."}).
		With("Users", []string{"a", "b"}).
		Build()

	assert.Equal(t, pager, data["Pagination"])
	assert.Equal(t, true, data["Error"])
	assert.Equal(t, "Something failed.", data["ErrorMessage"])
	assert.Equal(t, map[string]string{"email": "Email is required."}, data["Errors"])
	assert.Equal(t, []string{"a", "b"}, data["Users"])
}

func TestTemplateDataBuilder_EmptyValuesAreSkipped(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	data := NewTemplateData(r, PageMeta{}).WithError("").WithFieldErrors(nil).Build()

	assert.NotContains(t, data, "Error")
	assert.NotContains(t, data, "ErrorMessage")
	assert.NotContains(t, data, "Errors")
}
