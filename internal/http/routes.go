package httpx

import (
	"bytes"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"

	reconconsole "github.com/target/recon-console"
	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/listview"
)

// RouterServices holds all the services needed by the HTTP router. Screen
// services left nil get a 404 for their routes.
type RouterServices struct {
	Auth            AuthServiceInterface
	Reconciliations ReconciliationsService
	Uploads         UploadsService
	LedgerImports   LedgerImportsService
	Directory       DirectoryService
	Periods         PeriodsService
	Analytics       AnalyticsService
	Notices         NoticesService
	// Ready backs /readyz; nil reports ready unconditionally.
	Ready Pinger
	// Inflight tracks list fetches so a newer swap in a tab supersedes the older one.
	Inflight *listview.Inflight

	CookieDomain     string
	CompressionLevel int
	IsDev            bool         // Development mode: templates and static files from disk
	Logger           *slog.Logger // Logger for template and HTTP errors (optional)
}

func (s RouterServices) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// NewRouter creates the HTTP handler: the route table behind the shared
// middleware chain.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()
	cookies := CookieConfig{Domain: services.CookieDomain}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Ready, services.Logger))
	mux.Handle("GET /static/", staticHandler(services.IsDev, services.logger()))

	ui := setupUIHandlers(services)
	if services.Auth != nil {
		registerAuthRoutes(mux, &AuthHandlers{Svc: services.Auth, Cookies: cookies, Logger: services.Logger})
		if ui != nil {
			registerUIRoutes(mux, ui, services.Auth)
		}
	} else {
		services.logger().Warn("auth service not configured; only operational routes are served")
	}

	var handler http.Handler = &notFoundHandler{mux: mux, uiHandlers: ui}
	handler = AuthFailureRedirect(cookies)(handler)
	handler = CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})(handler)
	handler = BrowserDetection()(handler)
	handler = Compression(CompressionConfig{Level: services.CompressionLevel, Logger: services.Logger})(handler)
	handler = Logging(services.logger())(handler)
	handler = RequestID()(handler)
	return Recover(services.logger())(handler)
}

// templateFS picks the template source: disk in dev mode for live edits, the
// embedded copy otherwise.
func templateFS(isDev bool, logger *slog.Logger) fs.FS {
	if isDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(reconconsole.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		logger.Error("failed to open embedded templates; falling back to disk", "error", err)
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// setupUIHandlers builds the UI handlers. It returns nil when the templates
// cannot be parsed; the router then serves only non-UI routes.
func setupUIHandlers(services RouterServices) *UIHandlers {
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(services.IsDev, services.logger()),
		Logger:     services.Logger,
	})
	if err != nil {
		services.logger().Error("failed to create template renderer", slog.Any("error", err))
		return nil
	}

	passwordLogin := services.Auth != nil && services.Auth.PasswordLoginEnabled()
	return &UIHandlers{
		T:                  tr,
		ReconciliationsSvc: services.Reconciliations,
		UploadsSvc:         services.Uploads,
		LedgerImportsSvc:   services.LedgerImports,
		Directory:          services.Directory,
		PeriodsSvc:         services.Periods,
		Analytics:          services.Analytics,
		Notices:            services.Notices,
		Inflight:           services.Inflight,
		PasswordLogin:      passwordLogin,
		IsDev:              services.IsDev,
		Logger:             services.Logger,
	}
}

// staticHandler serves /static/*: from disk in dev mode, from the embedded FS otherwise.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	const diskPath = "frontend/static"
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(diskPath))))
	}
	sub, err := fs.Sub(reconconsole.StaticFS, diskPath)
	if err != nil {
		logger.Error("failed to open embedded static assets; falling back to disk", "error", err)
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(diskPath))))
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
}

// hashedAssetPattern matches content-hashed filenames, e.g. app.abc12345.js.
var hashedAssetPattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders caches hashed assets for a year and everything else not at all.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedAssetPattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}
		handler.ServeHTTP(w, r)
	})
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only unmatched routes get the custom page; handlers that answer 404
	// themselves keep their own response.
	if _, pattern := h.mux.Handler(r); pattern == "" {
		if strings.HasPrefix(r.URL.Path, "/static/") {
			http.NotFound(w, r)
			return
		}
		if h.uiHandlers != nil {
			h.uiHandlers.NotFound(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}
	h.mux.ServeHTTP(w, r)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		slog.Default().Warn("failed to write captured response", "error", err)
	}
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("POST /auth/login", h.PasswordLogin)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.HandleFunc("POST /session/role", h.SwitchRole)
}

// registerUIRoutes wires every page behind the role guard. Public pages only
// read the session when one exists.
func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, auth SessionReader) {
	public := OptionalSession(auth)
	mux.Handle("GET /{$}", public(http.HandlerFunc(h.Home)))
	mux.Handle("GET /unauthorized", public(http.HandlerFunc(h.Unauthorized)))

	for _, role := range domainauth.AllRoles() {
		mux.Handle("GET "+role.LandingPath(), RequireRoles(auth, role)(h.Dashboard(role)))
	}

	registerUIReconciliationRoutes(mux, h, auth)
	registerUIUploadRoutes(mux, h, auth)
	registerUILedgerImportRoutes(mux, h, auth)
	registerUIUserRoutes(mux, h, auth)
	registerUIGroupRoutes(mux, h, auth)
	registerUIPeriodRoutes(mux, h, auth)
}

func registerUIReconciliationRoutes(mux *http.ServeMux, h *UIHandlers, auth SessionReader) {
	wrap := RequireRoles(auth, domainauth.RolePreparer, domainauth.RoleReviewer, domainauth.RoleDirector)
	mux.Handle("GET /reconciliations", wrap(http.HandlerFunc(h.Reconciliations)))
	mux.Handle("POST /reconciliations/refresh", wrap(http.HandlerFunc(h.ReconciliationsRefresh)))
	mux.Handle("GET /reconciliations/export", wrap(http.HandlerFunc(h.ReconciliationsExport)))
}

func registerUIUploadRoutes(mux *http.ServeMux, h *UIHandlers, auth SessionReader) {
	wrap := RequireRoles(auth, domainauth.RolePreparer)
	mux.Handle("GET "+uploadsPath, wrap(http.HandlerFunc(h.Uploads)))
	mux.Handle("POST "+uploadsPath, wrap(http.HandlerFunc(h.UploadSubmit)))
	mux.Handle("POST "+uploadsPath+"/preview", wrap(http.HandlerFunc(h.UploadPreview)))
	mux.Handle("POST "+uploadsPath+"/refresh", wrap(http.HandlerFunc(h.UploadsRefresh)))
	mux.Handle("GET "+uploadsPath+"/{id}/progress", wrap(http.HandlerFunc(h.UploadProgress)))
}

func registerUILedgerImportRoutes(mux *http.ServeMux, h *UIHandlers, auth SessionReader) {
	wrap := RequireRoles(auth, domainauth.RoleAdmin)
	mux.Handle("GET "+ledgerImportsPath, wrap(http.HandlerFunc(h.LedgerImports)))
	mux.Handle("POST "+ledgerImportsPath+"/refresh", wrap(http.HandlerFunc(h.LedgerImportsRefresh)))
	mux.Handle("GET "+ledgerImportsPath+"/export", wrap(http.HandlerFunc(h.LedgerImportsExport)))
}

func registerUIUserRoutes(mux *http.ServeMux, h *UIHandlers, auth SessionReader) {
	wrap := RequireRoles(auth, domainauth.RoleAdmin)
	mux.Handle("GET "+usersPath, wrap(http.HandlerFunc(h.Users)))
	mux.Handle("GET "+usersPath+"/new", wrap(http.HandlerFunc(h.UserNew)))
	mux.Handle("GET "+usersPath+"/export", wrap(http.HandlerFunc(h.UsersExport)))
	mux.Handle("GET "+usersPath+"/{id}/edit", wrap(http.HandlerFunc(h.UserEdit)))
	mux.Handle("POST "+usersPath, wrap(http.HandlerFunc(h.UserCreate)))
	mux.Handle("POST "+usersPath+"/refresh", wrap(http.HandlerFunc(h.UsersRefresh)))
	mux.Handle("POST "+usersPath+"/{id}", wrap(http.HandlerFunc(h.UserUpdate)))
	mux.Handle("POST "+usersPath+"/{id}/delete", wrap(http.HandlerFunc(h.UserDelete)))
}

func registerUIGroupRoutes(mux *http.ServeMux, h *UIHandlers, auth SessionReader) {
	wrap := RequireRoles(auth, domainauth.RoleAdmin)
	mux.Handle("GET "+groupsPath, wrap(http.HandlerFunc(h.Groups)))
	mux.Handle("GET "+groupsPath+"/new", wrap(http.HandlerFunc(h.GroupNew)))
	mux.Handle("POST "+groupsPath, wrap(http.HandlerFunc(h.GroupCreate)))
	mux.Handle("POST "+groupsPath+"/refresh", wrap(http.HandlerFunc(h.GroupsRefresh)))
}

func registerUIPeriodRoutes(mux *http.ServeMux, h *UIHandlers, auth SessionReader) {
	wrap := RequireRoles(auth, domainauth.RoleAdmin, domainauth.RoleDirector)
	mux.Handle("GET "+periodsPath, wrap(http.HandlerFunc(h.Periods)))
	mux.Handle("GET "+periodsPath+"/new", wrap(http.HandlerFunc(h.PeriodNew)))
	mux.Handle("GET "+periodsPath+"/{id}/edit", wrap(http.HandlerFunc(h.PeriodEdit)))
	mux.Handle("POST "+periodsPath, wrap(http.HandlerFunc(h.PeriodStart)))
	mux.Handle("POST "+periodsPath+"/refresh", wrap(http.HandlerFunc(h.PeriodsRefresh)))
	mux.Handle("POST "+periodsPath+"/{id}", wrap(http.HandlerFunc(h.PeriodUpdate)))
	mux.Handle("POST "+periodsPath+"/{id}/overdue", wrap(http.HandlerFunc(h.PeriodOverdue)))
}
