package httpx

import (
	"context"
	"net/http"
	"strings"

	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/domain/model"
	"github.com/target/recon-console/internal/http/validation"
	"github.com/target/recon-console/internal/export"
	"github.com/target/recon-console/internal/listview"
	"github.com/target/recon-console/internal/service"
)

const usersPath = "/admin/users"

const (
	maxUserNameLen = 255
	maxEmailLen    = 254
)

func (h *UIHandlers) userScreen() listScreen[model.User] {
	s := listScreen[model.User]{
		Screen:   screenUsers,
		BasePath: usersPath,
		Meta: PageMeta{
			Title:       titled("Users"),
			PageTitle:   "Users",
			CurrentPage: PageUsers,
		},
		ItemsKey: "Users",
		Enrich: func(_ *http.Request, b *TemplateDataBuilder, v listview.View[model.User]) {
			b.With("ExportXLSX", exportURL(usersPath+"/export", v.Query.Search, export.FormatXLSX)).
				With("ExportPDF", exportURL(usersPath+"/export", v.Query.Search, export.FormatPDF))
		},
	}
	if h.Directory != nil {
		s.Pipeline = h.Directory.UserPipeline
	}
	return s
}

// Users lists dashboard users.
func (h *UIHandlers) Users(w http.ResponseWriter, r *http.Request) {
	handleList(h, w, r, h.userScreen())
}

// UsersRefresh refetches the user list.
func (h *UIHandlers) UsersRefresh(w http.ResponseWriter, r *http.Request) {
	handleRefresh(h, w, r, h.userScreen())
}

// UsersExport downloads the filtered users.
func (h *UIHandlers) UsersExport(w http.ResponseWriter, r *http.Request) {
	if h.Directory == nil {
		h.NotFound(w, r)
		return
	}
	f, err := requestFormat(r)
	if err != nil {
		h.exportFailed(w, r, usersPath, err)
		return
	}
	d, err := h.Directory.ExportUsers(r.Context(), callerFromRequest(r), r.URL.Query().Get(listview.ParamSearch), f)
	if err != nil {
		h.exportFailed(w, r, usersPath, err)
		return
	}
	sendDownload(w, d)
}

// userFormData is what the user form template reads back on re-render.
type userFormData struct {
	ID     string
	Name   string
	Email  string
	Roles  []string
	Group  string
	Active bool
}

// HasRole reports whether role is ticked on the form.
func (d userFormData) HasRole(role string) bool {
	for _, r := range d.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (d userFormData) request() model.UserRequest {
	return model.UserRequest{Name: d.Name, Email: d.Email, Roles: d.Roles, Group: d.Group, Active: d.Active}
}

func parseUserForm(r *http.Request) (userFormData, map[string]string) {
	if err := r.ParseForm(); err != nil {
		return userFormData{}, map[string]string{"_form": "The form could not be read."}
	}
	d := userFormData{
		ID:     r.PathValue("id"),
		Name:   strings.TrimSpace(r.PostFormValue("name")),
		Email:  strings.TrimSpace(r.PostFormValue("email")),
		Group:  strings.TrimSpace(r.PostFormValue("group")),
		Active: r.PostFormValue("active") == "on" || r.PostFormValue("active") == "true",
	}
	for _, role := range r.PostForm["roles"] {
		if role := domainauth.Role(strings.ToLower(strings.TrimSpace(role))); role.Valid() {
			d.Roles = append(d.Roles, string(role))
		}
	}

	errs := validation.New().
		Validate("name", d.Name, validation.Required("Name", maxUserNameLen)).
		Validate("email", d.Email, validation.Required("Email", maxEmailLen), validation.Email("Email")).
		Require("roles", len(d.Roles) > 0, "Choose at least one role.").
		Validate("group", d.Group, validation.Optional("Group", maxGroupNameLen)).
		Errors()
	return d, errs
}

func userFormMeta(mode FormMode) PageMeta {
	title := "New user"
	if mode == FormModeEdit {
		title = "Edit user"
	}
	return PageMeta{Title: titled(title), PageTitle: title, CurrentPage: PageUserForm}
}

// userFormExtras adds the role choices and known groups. Groups are best
// effort; the form still works with a free-text group.
func (h *UIHandlers) userFormExtras(ctx context.Context, caller service.Caller) map[string]any {
	extras := map[string]any{"RoleOptions": roleOptions()}
	if h.Directory == nil {
		return extras
	}
	groups, err := h.Directory.ListGroups(ctx, caller)
	if err != nil {
		h.logger().WarnContext(ctx, "group lookup for user form failed", "error", err)
		return extras
	}
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	extras["Groups"] = names
	return extras
}

func roleOptions() []map[string]string {
	out := make([]map[string]string, 0, len(domainauth.AllRoles()))
	for _, role := range domainauth.AllRoles() {
		out = append(out, map[string]string{"Value": string(role), "Label": role.Label()})
	}
	return out
}

// UserNew renders an empty user form.
func (h *UIHandlers) UserNew(w http.ResponseWriter, r *http.Request) {
	b := NewTemplateData(r, userFormMeta(FormModeCreate)).
		With("Mode", FormModeCreate).
		With("FormData", userFormData{Active: true})
	for k, v := range h.userFormExtras(r.Context(), callerFromRequest(r)) {
		b.With(k, v)
	}
	h.renderDashboardPage(w, r, b.Build())
}

// UserEdit renders the form for an existing user.
func (h *UIHandlers) UserEdit(w http.ResponseWriter, r *http.Request) {
	if h.Directory == nil {
		h.NotFound(w, r)
		return
	}
	caller := callerFromRequest(r)
	users, err := h.Directory.ListUsers(r.Context(), caller)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "user lookup failed", "error", err)
		h.notify(r, model.NoticeError, "Could not load the user. Please try again.")
		redirectBrowser(w, r, usersPath)
		return
	}

	id := r.PathValue("id")
	for _, u := range users {
		if u.ID != id {
			continue
		}
		b := NewTemplateData(r, userFormMeta(FormModeEdit)).
			With("Mode", FormModeEdit).
			With("FormData", userFormData{
				ID: u.ID, Name: u.Name, Email: u.Email, Roles: u.Roles, Group: u.Group, Active: u.Active,
			})
		for k, v := range h.userFormExtras(r.Context(), caller) {
			b.With(k, v)
		}
		h.renderDashboardPage(w, r, b.Build())
		return
	}
	h.NotFound(w, r)
}

// UserCreate handles the new user form.
func (h *UIHandlers) UserCreate(w http.ResponseWriter, r *http.Request) {
	h.saveUser(w, r, FormModeCreate)
}

// UserUpdate handles the edit user form.
func (h *UIHandlers) UserUpdate(w http.ResponseWriter, r *http.Request) {
	h.saveUser(w, r, FormModeEdit)
}

func (h *UIHandlers) saveUser(w http.ResponseWriter, r *http.Request, mode FormMode) {
	if h.Directory == nil {
		h.NotFound(w, r)
		return
	}
	notice := "User created."
	if mode == FormModeEdit {
		notice = "User updated."
	}
	handleForm(h, FormHandlerOpts[userFormData]{
		W:      w,
		R:      r,
		Mode:   mode,
		Parser: parseUserForm,
		Save: func(ctx context.Context, caller service.Caller, id string, d userFormData) error {
			if mode == FormModeEdit {
				_, err := h.Directory.UpdateUser(ctx, caller, id, d.request())
				return err
			}
			_, err := h.Directory.CreateUser(ctx, caller, d.request())
			return err
		},
		// Role and group choices are only needed when the form comes back.
		Renderer: func(w http.ResponseWriter, r *http.Request, data map[string]any) {
			for k, v := range h.userFormExtras(r.Context(), callerFromRequest(r)) {
				data[k] = v
			}
			h.renderDashboardPage(w, r, data)
		},
		SuccessURL:    usersPath,
		SuccessNotice: notice,
		PageMeta:      userFormMeta(mode),
	})
}

// UserDelete removes a user and returns to the list.
func (h *UIHandlers) UserDelete(w http.ResponseWriter, r *http.Request) {
	if h.Directory == nil {
		h.NotFound(w, r)
		return
	}
	if err := h.Directory.DeleteUser(r.Context(), callerFromRequest(r), r.PathValue("id")); err != nil {
		h.logger().ErrorContext(r.Context(), "user delete failed", "user_id", r.PathValue("id"), "error", err)
		h.failAction(w, r, usersPath, err)
		return
	}
	h.notify(r, model.NoticeSuccess, "User deleted.")
	redirectBrowser(w, r, usersPath)
}
