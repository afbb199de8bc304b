package httpx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/target/recon-console/config"
	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/export"
	"github.com/target/recon-console/internal/listview"
	"github.com/target/recon-console/internal/service"
	"github.com/target/recon-console/internal/upload"
)

func testSession(id string, active domainauth.Role, roles ...domainauth.Role) *domainauth.Session {
	if len(roles) == 0 {
		roles = []domainauth.Role{active}
	}
	return &domainauth.Session{
		ID:          id,
		UserID:      "user-" + id,
		DisplayName: "Dana Ledger",
		Email:       "dana@example.com",
		ActiveRole:  active,
		Roles:       roles,
		AccessToken: "token-" + id,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

// asUser attaches s to the request context the way RequireRoles does.
func asUser(r *http.Request, s *domainauth.Session) *http.Request {
	return r.WithContext(SetSessionInContext(r.Context(), s))
}

func htmx(r *http.Request) *http.Request {
	r.Header.Set("Hx-Request", "true")
	return r
}

// fakeAuth is an in-memory AuthServiceInterface.
type fakeAuth struct {
	mu       sync.Mutex
	sessions map[string]*domainauth.Session

	getErr       error
	beginErr     error
	completeErr  error
	passwordErr  error
	passwordOn   bool
	loggedOut    []string
	lastRedirect string
	lastComplete service.CompleteLoginInput
	nextSession  *domainauth.Session
}

var _ AuthServiceInterface = (*fakeAuth)(nil)

func newFakeAuth(sessions ...*domainauth.Session) *fakeAuth {
	f := &fakeAuth{sessions: map[string]*domainauth.Session{}}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeAuth) BeginLogin(_ context.Context, redirectURL string) (*service.BeginLoginResult, error) {
	f.lastRedirect = redirectURL
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return &service.BeginLoginResult{AuthURL: "https://idp.example.com/authorize?state=st", State: "st", Nonce: "nn"}, nil
}

func (f *fakeAuth) CompleteLogin(_ context.Context, in service.CompleteLoginInput) (*domainauth.Session, error) {
	f.lastComplete = in
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return f.remember(f.nextSession), nil
}

func (f *fakeAuth) PasswordLoginEnabled() bool { return f.passwordOn }

func (f *fakeAuth) LoginWithPassword(_ context.Context, _, _ string) (*domainauth.Session, error) {
	if f.passwordErr != nil {
		return nil, f.passwordErr
	}
	return f.remember(f.nextSession), nil
}

func (f *fakeAuth) remember(s *domainauth.Session) *domainauth.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return s
}

func (f *fakeAuth) GetSession(_ context.Context, id string) (*domainauth.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, service.ErrNoSession
	}
	return s, nil
}

func (f *fakeAuth) SwitchRole(ctx context.Context, id string, role domainauth.Role) (*domainauth.Session, error) {
	s, err := f.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.HasRole(role) {
		return nil, apperrors.Forbidden("role not granted")
	}
	cp := *s
	cp.ActiveRole = role
	return f.remember(&cp), nil
}

func (f *fakeAuth) Logout(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	f.loggedOut = append(f.loggedOut, id)
	return nil
}

func (f *fakeAuth) Delete(ctx context.Context, id string) error { return f.Logout(ctx, id) }

// fakeNotices keeps one pending notice per session.
type fakeNotices struct {
	mu      sync.Mutex
	pending map[string]*model.Notice
}

func newFakeNotices() *fakeNotices { return &fakeNotices{pending: map[string]*model.Notice{}} }

func (f *fakeNotices) Notify(_ context.Context, sid string, kind model.NoticeKind, text string) (model.Notice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := model.Notice{Kind: kind, Text: text, DismissAfter: 4 * time.Second}
	f.pending[sid] = &n
	return n, nil
}

func (f *fakeNotices) Take(_ context.Context, sid string) *model.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.pending[sid]
	delete(f.pending, sid)
	return n
}

func (f *fakeNotices) peek(sid string) *model.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending[sid]
}

// fakeReconciliations serves a fixed set through a server-side pipeline.
type fakeReconciliations struct {
	rows      []model.Reconciliation
	err       error
	exportErr error
	gotSearch string
}

func (f *fakeReconciliations) Pipeline(service.Caller) *listview.Pipeline[model.Reconciliation] {
	src := listview.ServerFunc[model.Reconciliation](func(_ context.Context, q listview.Query) (listview.Result[model.Reconciliation], error) {
		if f.err != nil {
			return listview.Result[model.Reconciliation]{}, f.err
		}
		matched := listview.Filter(f.rows, q.Search, reconFields)
		return listview.Result[model.Reconciliation]{
			Items:      listview.Paginate(matched, q.Page, q.PageSize),
			TotalCount: len(matched),
		}, nil
	})
	return listview.NewServerPipeline(src, reconFields)
}

func (f *fakeReconciliations) Export(_ context.Context, _ service.Caller, search string) (export.Download, error) {
	f.gotSearch = search
	if f.exportErr != nil {
		return export.Download{}, f.exportErr
	}
	return export.Download{FileName: "reconciliations.xlsx", ContentType: "application/octet-stream", Data: []byte("xlsx")}, nil
}

var reconFields = listview.Fields[model.Reconciliation]{
	func(r model.Reconciliation) any { return r.Account },
	func(r model.Reconciliation) any { return r.Entity },
}

func reconRows(n int) []model.Reconciliation {
	rows := make([]model.Reconciliation, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, model.Reconciliation{
			ID:      "r" + strconv.Itoa(i),
			Account: "ACC-" + strconv.Itoa(1000+i),
			Entity:  "Entity " + strconv.Itoa(i),
			Status:  model.ReconciliationStatusOpen,
			Balance: float64(i) * 10.5,
		})
	}
	return rows
}

// fakeDirectory is an in-memory DirectoryService using client-side pipelines.
type fakeDirectory struct {
	mu      sync.Mutex
	users   []model.User
	groups  []model.Group
	listErr error
	saveErr error
	created []model.UserRequest
	updated map[string]model.UserRequest
	deleted []string
	groupsN int
}

func (f *fakeDirectory) ListUsers(context.Context, service.Caller) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.User(nil), f.users...), nil
}

func (f *fakeDirectory) UserPipeline(service.Caller) *listview.Pipeline[model.User] {
	return listview.NewClientPipeline(listview.ClientFunc[model.User](func(ctx context.Context) ([]model.User, error) {
		return f.ListUsers(ctx, service.Caller{})
	}), listview.Fields[model.User]{
		func(u model.User) any { return u.Name },
		func(u model.User) any { return u.Email },
	})
}

func (f *fakeDirectory) CreateUser(_ context.Context, _ service.Caller, req model.UserRequest) (*model.User, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return &model.User{ID: "new", Name: req.Name, Email: req.Email, Roles: req.Roles}, nil
}

func (f *fakeDirectory) UpdateUser(_ context.Context, _ service.Caller, id string, req model.UserRequest) (*model.User, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[string]model.UserRequest{}
	}
	f.updated[id] = req
	return &model.User{ID: id, Name: req.Name}, nil
}

func (f *fakeDirectory) DeleteUser(_ context.Context, _ service.Caller, id string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDirectory) ExportUsers(_ context.Context, _ service.Caller, _ string, fm export.Format) (export.Download, error) {
	return export.Download{FileName: "users." + string(fm), ContentType: "application/octet-stream", Data: []byte("users")}, nil
}

func (f *fakeDirectory) ListGroups(context.Context, service.Caller) ([]model.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupsN++
	return append([]model.Group(nil), f.groups...), nil
}

func (f *fakeDirectory) GroupPipeline(service.Caller) *listview.Pipeline[model.Group] {
	return listview.NewClientPipeline(listview.ClientFunc[model.Group](func(ctx context.Context) ([]model.Group, error) {
		return f.ListGroups(ctx, service.Caller{})
	}), listview.Fields[model.Group]{func(g model.Group) any { return g.Name }})
}

func (f *fakeDirectory) CreateGroup(_ context.Context, _ service.Caller, req model.GroupRequest) (*model.Group, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &model.Group{ID: "g-new", Name: req.Name}, nil
}

// fakePeriods is an in-memory PeriodsService.
type fakePeriods struct {
	periods []model.Period
	started []model.PeriodRequest
	edited  map[string]model.PeriodRequest
	overdue []string
	err     error
}

func (f *fakePeriods) List(context.Context, service.Caller) ([]model.Period, error) {
	return f.periods, f.err
}

func (f *fakePeriods) Pipeline(service.Caller) *listview.Pipeline[model.Period] {
	return listview.NewClientPipeline(listview.ClientFunc[model.Period](func(ctx context.Context) ([]model.Period, error) {
		return f.List(ctx, service.Caller{})
	}), listview.Fields[model.Period]{func(p model.Period) any { return p.Name }})
}

func (f *fakePeriods) Edit(_ context.Context, _ service.Caller, id string, req model.PeriodRequest) (*model.Period, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.edited == nil {
		f.edited = map[string]model.PeriodRequest{}
	}
	f.edited[id] = req
	return &model.Period{ID: id, Name: req.Name}, nil
}

func (f *fakePeriods) Start(_ context.Context, _ service.Caller, req model.PeriodRequest) (*model.Period, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.started = append(f.started, req)
	return &model.Period{ID: "p-new", Name: req.Name}, nil
}

func (f *fakePeriods) MarkOverdue(_ context.Context, _ service.Caller, id string) error {
	if f.err != nil {
		return f.err
	}
	f.overdue = append(f.overdue, id)
	return nil
}

type fakeAnalytics struct {
	summary model.AnalyticsSummary
	err     error
}

func (f fakeAnalytics) Summary(context.Context, service.Caller) (model.AnalyticsSummary, error) {
	return f.summary, f.err
}

// fakeUploads validates with the real validator and tracks submissions in memory.
type fakeUploads struct {
	validator *upload.Validator
	statuses  []model.UploadStatus
	progress  map[string]model.UploadProgress
	submitErr error
	submitted []service.SubmitInput
}

func newFakeUploads() *fakeUploads {
	return &fakeUploads{
		validator: upload.NewValidator(config.UploadConfig{
			MaxBytes:          1 << 10,
			AllowedExtensions: []string{".csv", ".xlsx"},
		}),
		progress: map[string]model.UploadProgress{},
	}
}

func (f *fakeUploads) Validator() *upload.Validator { return f.validator }

func (f *fakeUploads) Preview(caller service.Caller, name string, data []byte) (model.UploadPreview, error) {
	if err := f.validator.Validate(name, int64(len(data)), caller.UserID); err != nil {
		return model.UploadPreview{}, err
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	return model.UploadPreview{FileName: name, Header: strings.Split(lines[0], ","), Rows: len(lines) - 1}, nil
}

func (f *fakeUploads) Submit(_ context.Context, caller service.Caller, in service.SubmitInput) (model.UploadProgress, error) {
	if err := f.validator.Validate(in.FileName, int64(len(in.Data)), caller.UserID); err != nil {
		return model.UploadProgress{}, err
	}
	if f.submitErr != nil {
		return model.UploadProgress{}, f.submitErr
	}
	f.submitted = append(f.submitted, in)
	p := model.UploadProgress{ID: "up-1", FileName: in.FileName, UserID: caller.UserID, State: model.UploadStatePending}
	f.progress[p.ID] = p
	return p, nil
}

func (f *fakeUploads) Progress(_ context.Context, id, userID string) (model.UploadProgress, error) {
	p, ok := f.progress[id]
	if !ok || p.UserID != userID {
		return model.UploadProgress{}, apperrors.NotFound("upload not found")
	}
	return p, nil
}

func (f *fakeUploads) Pipeline(service.Caller) *listview.Pipeline[model.UploadStatus] {
	return listview.NewClientPipeline(listview.ClientFunc[model.UploadStatus](func(context.Context) ([]model.UploadStatus, error) {
		return f.statuses, nil
	}), listview.Fields[model.UploadStatus]{func(u model.UploadStatus) any { return u.FileName }})
}

type fakeLedgerImports struct {
	rows      []model.LedgerImport
	exportErr error
	gotFormat export.Format
}

func (f *fakeLedgerImports) Pipeline(service.Caller) *listview.Pipeline[model.LedgerImport] {
	return listview.NewClientPipeline(listview.ClientFunc[model.LedgerImport](func(context.Context) ([]model.LedgerImport, error) {
		return f.rows, nil
	}), listview.Fields[model.LedgerImport]{func(l model.LedgerImport) any { return l.FileName }})
}

func (f *fakeLedgerImports) Export(_ context.Context, _ service.Caller, _ string, fm export.Format) (export.Download, error) {
	f.gotFormat = fm
	if f.exportErr != nil {
		return export.Download{}, f.exportErr
	}
	return export.Download{FileName: "ledger-imports." + string(fm), ContentType: "application/pdf", Data: []byte("%PDF")}, nil
}
