package httpx

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/export"
	"github.com/target/recon-console/internal/http/ui/viewmodel"
	"github.com/target/recon-console/internal/listview"
	"github.com/target/recon-console/internal/service"
	"github.com/target/recon-console/internal/upload"
)

const errMsgFixBelow = "Please fix the errors below."

// ReconciliationsService is a minimal interface for the reconciliation screen.
type ReconciliationsService interface {
	Pipeline(caller service.Caller) *listview.Pipeline[model.Reconciliation]
	Export(ctx context.Context, caller service.Caller, search string) (export.Download, error)
}

// UploadsService is a minimal interface for the bulk upload screen.
type UploadsService interface {
	Validator() *upload.Validator
	Preview(caller service.Caller, fileName string, data []byte) (model.UploadPreview, error)
	Submit(ctx context.Context, caller service.Caller, in service.SubmitInput) (model.UploadProgress, error)
	Progress(ctx context.Context, id, userID string) (model.UploadProgress, error)
	Pipeline(caller service.Caller) *listview.Pipeline[model.UploadStatus]
}

// LedgerImportsService is a minimal interface for the ledger import screen.
type LedgerImportsService interface {
	Pipeline(caller service.Caller) *listview.Pipeline[model.LedgerImport]
	Export(ctx context.Context, caller service.Caller, search string, f export.Format) (export.Download, error)
}

// DirectoryService is a minimal interface for the user and group screens.
type DirectoryService interface {
	ListUsers(ctx context.Context, caller service.Caller) ([]model.User, error)
	UserPipeline(caller service.Caller) *listview.Pipeline[model.User]
	CreateUser(ctx context.Context, caller service.Caller, req model.UserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, caller service.Caller, id string, req model.UserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, caller service.Caller, id string) error
	ExportUsers(ctx context.Context, caller service.Caller, search string, f export.Format) (export.Download, error)
	ListGroups(ctx context.Context, caller service.Caller) ([]model.Group, error)
	GroupPipeline(caller service.Caller) *listview.Pipeline[model.Group]
	CreateGroup(ctx context.Context, caller service.Caller, req model.GroupRequest) (*model.Group, error)
}

// PeriodsService is a minimal interface for period control.
type PeriodsService interface {
	List(ctx context.Context, caller service.Caller) ([]model.Period, error)
	Pipeline(caller service.Caller) *listview.Pipeline[model.Period]
	Edit(ctx context.Context, caller service.Caller, id string, req model.PeriodRequest) (*model.Period, error)
	Start(ctx context.Context, caller service.Caller, req model.PeriodRequest) (*model.Period, error)
	MarkOverdue(ctx context.Context, caller service.Caller, id string) error
}

// AnalyticsService feeds the role dashboards.
type AnalyticsService interface {
	Summary(ctx context.Context, caller service.Caller) (model.AnalyticsSummary, error)
}

// NoticesService stores and hands out the per-session toast.
type NoticesService interface {
	Notify(ctx context.Context, sessionID string, kind model.NoticeKind, text string) (model.Notice, error)
	Take(ctx context.Context, sessionID string) *model.Notice
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ ReconciliationsService = (*service.ReconciliationService)(nil)
	_ UploadsService         = (*service.UploadService)(nil)
	_ LedgerImportsService   = (*service.LedgerImportService)(nil)
	_ DirectoryService       = (*service.DirectoryService)(nil)
	_ PeriodsService         = (*service.PeriodService)(nil)
	_ AnalyticsService       = (*service.AnalyticsService)(nil)
	_ NoticesService         = (*service.NoticeService)(nil)
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T                  *TemplateRenderer
	ReconciliationsSvc ReconciliationsService
	UploadsSvc         UploadsService
	LedgerImportsSvc   LedgerImportsService
	Directory          DirectoryService
	PeriodsSvc         PeriodsService
	Analytics          AnalyticsService
	Notices            NoticesService
	// Inflight tracks htmx list fetches per (session, tab, screen); nil disables supersession.
	Inflight *listview.Inflight
	// PasswordLogin shows the username/password form on the sign-in page.
	PasswordLogin bool
	IsDev         bool // Development mode flag for enhanced error reporting
	Logger        *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

func titled(page string) string { return page + " - Recon Console" }

// navFor lists the screens reachable with role.
func navFor(role domainauth.Role) []viewmodel.NavItem {
	dashboard := viewmodel.NavItem{Label: "Dashboard", Path: role.LandingPath(), Page: PageDashboard}
	recon := viewmodel.NavItem{Label: "Reconciliations", Path: "/reconciliations", Page: PageReconciliations}
	periods := viewmodel.NavItem{Label: "Period control", Path: "/admin/periods", Page: PagePeriods}

	switch role {
	case domainauth.RolePreparer:
		return []viewmodel.NavItem{dashboard, recon,
			{Label: "Bulk upload", Path: "/preparer/uploads", Page: PageUploads}}
	case domainauth.RoleReviewer:
		return []viewmodel.NavItem{dashboard, recon}
	case domainauth.RoleDirector:
		return []viewmodel.NavItem{dashboard, recon, periods}
	case domainauth.RoleAdmin:
		return []viewmodel.NavItem{dashboard,
			{Label: "Ledger imports", Path: "/admin/ledger-imports", Page: PageLedgerImports},
			{Label: "Users", Path: "/admin/users", Page: PageUsers},
			{Label: "Groups", Path: "/admin/groups", Page: PageGroups},
			periods}
	default:
		return nil
	}
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
	}

	session := GetSessionFromContext(r.Context())
	if session == nil {
		return layout
	}
	user := &viewmodel.User{
		Name:            session.DisplayName,
		Email:           session.Email,
		ActiveRole:      string(session.ActiveRole),
		ActiveRoleLabel: session.ActiveRole.Label(),
	}
	if user.Name == "" {
		user.Name = session.UserID
	}
	for _, role := range domainauth.AllRoles() {
		if session.HasRole(role) {
			user.Roles = append(user.Roles, viewmodel.RoleOption{
				Value:  string(role),
				Label:  role.Label(),
				Active: role == session.ActiveRole,
			})
		}
	}
	layout.User = user
	layout.IsAuthenticated = true
	layout.Nav = navFor(session.ActiveRole)
	return layout
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
		"Nav":             layout.Nav,
	}
	if layout.CSRFToken != "" {
		data["CSRFToken"] = layout.CSRFToken
	}
	if layout.User != nil {
		data["User"] = layout.User
	}
	return data
}

// notify stores a notice for the current session. It shows on the next render.
func (h *UIHandlers) notify(r *http.Request, kind model.NoticeKind, text string) {
	sid := sessionIDFromRequest(r)
	if h.Notices == nil || sid == "" {
		return
	}
	if _, err := h.Notices.Notify(r.Context(), sid, kind, text); err != nil {
		h.logger().WarnContext(r.Context(), "failed to store notice", "error", err)
	}
}

// takeNotice pops the pending notice for the current session.
func (h *UIHandlers) takeNotice(r *http.Request) *viewmodel.Notice {
	sid := sessionIDFromRequest(r)
	if h.Notices == nil || sid == "" {
		return nil
	}
	n := h.Notices.Take(r.Context(), sid)
	if n == nil {
		return nil
	}
	return &viewmodel.Notice{
		Kind:       string(n.Kind),
		Text:       n.Text,
		DurationMS: n.DismissAfter.Milliseconds(),
		Blocking:   n.Kind.Blocking(),
	}
}

// triggerToast raises the client toast for n on an htmx response. Blocking
// notices raise the alert dialog instead.
func triggerToast(w http.ResponseWriter, n *viewmodel.Notice) {
	if n == nil || strings.TrimSpace(n.Text) == "" {
		return
	}
	if n.Blocking {
		triggerAlert(w, n.Text)
		return
	}
	HTMX(w).Trigger("showToast", map[string]any{
		"message":  n.Text,
		"type":     n.Kind,
		"duration": n.DurationMS,
	})
}

// triggerAlert raises a blocking client alert on an htmx response.
func triggerAlert(w http.ResponseWriter, message string) {
	HTMX(w).Trigger("showAlert", map[string]any{"message": message, "type": "error"})
}

// renderDashboardPage renders a page with HTMX partial support. Any pending
// notice is delivered with it: in the layout for full pages, as a showToast
// trigger for partials.
func (h *UIHandlers) renderDashboardPage(w http.ResponseWriter, r *http.Request, data map[string]any) {
	notice := h.takeNotice(r)

	if !WantsPartial(r) {
		if notice != nil {
			data["Notice"] = notice
		}
		if err := h.T.RenderFull(w, r, data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})
	triggerToast(w, notice)

	layout := layoutFromMap(data)
	if _, err := w.Write([]byte(`<title>` + html.EscapeString(layout.Title) + `</title>`)); err != nil {
		h.logger().Error("failed to write partial document title", "error", err)
		return
	}
	if _, err := w.Write([]byte(`<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` +
		html.EscapeString(layout.PageTitle) + `</h1>`)); err != nil {
		h.logger().Error("failed to write partial header title", "error", err)
		return
	}
	if err := h.T.t.ExecuteTemplate(w, ContentTemplateFor(layout.CurrentPage), data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "partial content render")
	}
}

func layoutFromMap(m map[string]any) viewmodel.Layout {
	layout := viewmodel.Layout{}
	layout.Title, _ = m["Title"].(string)
	layout.PageTitle, _ = m["PageTitle"].(string)
	layout.CurrentPage, _ = m["CurrentPage"].(string)
	return layout
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, stage string) {
	h.logger().ErrorContext(r.Context(), "template rendering failed",
		"error", err,
		"context", stage,
		"path", r.URL.Path,
		"method", r.Method,
	)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		body := fmt.Sprintf(`<div class="template-error"><h2>Template Rendering Error</h2>`+
			`<p><strong>Context:</strong> %s</p><p><strong>Path:</strong> %s</p><pre>%s</pre></div>`,
			html.EscapeString(stage), html.EscapeString(r.URL.Path), html.EscapeString(err.Error()))
		if _, writeErr := w.Write([]byte(body)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// fieldErrors splits a service error into per-field messages for forms.
// It reports false for errors that are not validation failures.
func fieldErrors(err error) (map[string]string, bool) {
	if apperrors.GetCode(err) != apperrors.ErrCodeValidation {
		return nil, false
	}
	field := apperrors.GetField(err)
	if field == "" {
		field = "_form"
	}
	return map[string]string{field: apperrors.UserMessage(err)}, true
}

// sendDownload streams a rendered export as an attachment.
func sendDownload(w http.ResponseWriter, d export.Download) {
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Data)
}

// exportFailed reports a failed download with a blocking alert. htmx callers get
// it as a trigger; plain navigations are sent back to the screen, which opens it
// on load.
func (h *UIHandlers) exportFailed(w http.ResponseWriter, r *http.Request, back string, err error) {
	h.logger().ErrorContext(r.Context(), "export failed", "path", r.URL.Path, "error", err)
	msg := apperrors.UserMessage(err)
	if IsHTMX(r) {
		triggerAlert(w, msg)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.notify(r, model.NoticeAlert, msg)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// requestFormat reads ?format= for export endpoints, defaulting to xlsx.
func requestFormat(r *http.Request) (export.Format, error) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		return export.FormatXLSX, nil
	}
	f, err := export.ParseFormat(raw)
	if err != nil {
		return "", apperrors.ValidationField("format", "Choose an export format: xlsx or pdf.")
	}
	return f, nil
}

// exportURL builds a download link carrying the current search and format.
func exportURL(path, search string, f export.Format) string {
	v := url.Values{}
	if search != "" {
		v.Set(listview.ParamSearch, search)
	}
	if f != "" {
		v.Set("format", string(f))
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// failAction reports a failed button action as an error notice on the screen
// the user returns to.
func (h *UIHandlers) failAction(w http.ResponseWriter, r *http.Request, back string, err error) {
	h.notify(r, model.NoticeError, apperrors.UserMessage(err))
	redirectBrowser(w, r, back)
}
