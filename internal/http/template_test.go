package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/domain/model"
	"github.com/target/recon-console/internal/http/ui/viewmodel"
)

func TestTemplateRenderer_LoadTemplates(t *testing.T) {
	tr := requireRenderer(t)
	require.NotNil(t, tr)

	for _, name := range []string{"layout", "content", "error-layout", "list-toolbar", "pagination",
		"upload-progress", "upload-preview", "upload-errors"} {
		assert.NotNil(t, tr.t.Lookup(name), "template %s should be loaded", name)
	}
	for page, name := range ContentTemplateMap() {
		assert.NotNil(t, tr.t.Lookup(name), "content template for page %s", page)
	}
}

func TestTemplateRenderer_RendersEveryPage(t *testing.T) {
	tr := requireRenderer(t)
	session := testSession("s1", domainauth.RoleAdmin, domainauth.AllRoles()...)

	pager := viewmodel.Pagination{
		BasePath: "/admin/users", Page: 1, PageSize: 10, TotalCount: 1, TotalPages: 1,
		RangeLabel: "1-1 of 1",
		PageSizes:  []viewmodel.PageSizeOption{{Size: 10, Selected: true}, {Size: 20}},
		Pages:      []viewmodel.PageLink{{Number: 1, URL: "/admin/users?page=1&page_size=10", Current: true}},
	}
	extra := map[string]map[string]any{
		PageHome:         {"PasswordLogin": true, "RedirectURI": "/reconciliations"},
		PageUnauthorized: {"Reason": "forbidden", "Message": "No access."},
		PageDashboard: {
			"Summary":   model.AnalyticsSummary{Status: []model.Bucket{{Label: "open", Count: 3}}},
			"Total":     3,
			"Shortcuts": navFor(domainauth.RoleAdmin)[1:],
		},
		PageReconciliations: {"Reconciliations": reconRows(1), "ExportURL": "/reconciliations/export"},
		PageUploads:         {"Uploads": []model.UploadStatus{{ID: "u1", FileName: "april.csv", Status: model.UploadStateCompleted}}, "Accept": ".csv"},
		PageLedgerImports:   {"Imports": []model.LedgerImport{{ID: "l1", FileName: "gl.csv", RecordCount: 1200}}},
		PageUsers:           {"Users": []model.User{{ID: "u1", Name: "Ana", Roles: []string{"admin"}}}},
		PageUserForm:        {"Mode": FormModeEdit, "FormData": userFormData{ID: "u1", Roles: []string{"admin"}}, "RoleOptions": roleOptions()},
		PageGroups:          {"Groups": []model.Group{{ID: "g1", Name: "Finance"}}},
		PageGroupForm:       {"Mode": FormModeCreate, "FormData": model.GroupRequest{}},
		PagePeriods:         {"Periods": []model.Period{{ID: "p1", Name: "2026-09", Status: model.PeriodStatusOpen}}},
		PagePeriodForm:      {"Mode": FormModeCreate, "FormData": periodFormData{}, "Errors": map[string]string{"end": "End date is required."}},
	}

	for page := range ContentTemplateMap() {
		t.Run(page, func(t *testing.T) {
			r := asUser(httptest.NewRequest(http.MethodGet, "/", nil), session)
			b := NewTemplateData(r, PageMeta{Title: titled(page), PageTitle: page, CurrentPage: page}).
				WithPagination(pager)
			for k, v := range extra[page] {
				b.With(k, v)
			}
			w := httptest.NewRecorder()
			require.NoError(t, tr.RenderFull(w, r, b.Build()))
			assert.Contains(t, w.Body.String(), `id="content"`)
		})
	}
}

func TestTemplate_FieldErrorsShowNextToInputs(t *testing.T) {
	tr := requireRenderer(t)
	r := httptest.NewRequest(http.MethodGet, "/admin/periods/new", nil)
	data := NewTemplateData(r, periodFormMeta(FormModeCreate)).
		WithFieldErrors(map[string]string{"end": "End date must be after the start date."}).
		WithError(errMsgFixBelow).
		With("Mode", FormModeCreate).
		With("FormData", periodFormData{Name: "Q3", Start: "2026-07-01", End: "2026-06-01"}).
		Build()

	w := httptest.NewRecorder()
	require.NoError(t, tr.RenderPartial(w, r, data))
	body := w.Body.String()
	assert.True(t, containsAll(body, "End date must be after the start date.", errMsgFixBelow, `value="2026-07-01"`))
}

func TestTemplate_UploadProgressStopsPollingWhenTerminal(t *testing.T) {
	tr := requireRenderer(t)

	running := httptest.NewRecorder()
	require.NoError(t, tr.RenderNamed(running, "upload-progress",
		progressData(model.UploadProgress{ID: "u1", FileName: "a.csv", Percent: 40, State: model.UploadStateUploading})))
	assert.Contains(t, running.Body.String(), `hx-trigger="every 1s"`)
	assert.Contains(t, running.Body.String(), "40%")

	done := httptest.NewRecorder()
	require.NoError(t, tr.RenderNamed(done, "upload-progress",
		progressData(model.UploadProgress{ID: "u1", FileName: "a.csv", Percent: 100, State: model.UploadStateCompleted})))
	assert.NotContains(t, done.Body.String(), "hx-trigger")
}

func TestTemplate_LayoutCarriesPendingNotice(t *testing.T) {
	tr := requireRenderer(t)
	r := asUser(httptest.NewRequest(http.MethodGet, "/admin/users", nil), testSession("s1", domainauth.RoleAdmin))
	data := NewTemplateData(r, PageMeta{Title: "x", CurrentPage: PageUnauthorized}).Build()
	data["Notice"] = &viewmodel.Notice{Kind: "success", Text: "User created.", DurationMS: 4000}

	w := httptest.NewRecorder()
	require.NoError(t, tr.RenderFull(w, r, data))
	assert.True(t, containsAll(w.Body.String(), `id="pending-notice"`, `data-message="User created."`, `data-type="success"`))
}
