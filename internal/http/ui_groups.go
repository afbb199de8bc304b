package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/target/recon-console/internal/domain/model"
	"github.com/target/recon-console/internal/http/validation"
	"github.com/target/recon-console/internal/service"
)

const groupsPath = "/admin/groups"

func (h *UIHandlers) groupScreen() listScreen[model.Group] {
	s := listScreen[model.Group]{
		Screen:   screenGroups,
		BasePath: groupsPath,
		Meta: PageMeta{
			Title:       titled("Groups"),
			PageTitle:   "Groups",
			CurrentPage: PageGroups,
		},
		ItemsKey: "Groups",
	}
	if h.Directory != nil {
		s.Pipeline = h.Directory.GroupPipeline
	}
	return s
}

// Groups lists user groups.
func (h *UIHandlers) Groups(w http.ResponseWriter, r *http.Request) {
	handleList(h, w, r, h.groupScreen())
}

// GroupsRefresh refetches the group list.
func (h *UIHandlers) GroupsRefresh(w http.ResponseWriter, r *http.Request) {
	handleRefresh(h, w, r, h.groupScreen())
}

const (
	maxGroupNameLen   = 120
	maxDescriptionLen = 500
)

var groupFormMeta = PageMeta{Title: titled("New group"), PageTitle: "New group", CurrentPage: PageGroupForm}

func parseGroupForm(r *http.Request) (model.GroupRequest, map[string]string) {
	if err := r.ParseForm(); err != nil {
		return model.GroupRequest{}, map[string]string{"_form": "The form could not be read."}
	}
	req := model.GroupRequest{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	errs := validation.New().
		Validate("name", req.Name, validation.Required("Name", maxGroupNameLen)).
		Validate("description", req.Description, validation.Optional("Description", maxDescriptionLen)).
		Errors()
	return req, errs
}

// GroupNew renders the create group form.
func (h *UIHandlers) GroupNew(w http.ResponseWriter, r *http.Request) {
	h.renderDashboardPage(w, r, NewTemplateData(r, groupFormMeta).
		With("Mode", FormModeCreate).
		With("FormData", model.GroupRequest{}).
		Build())
}

// GroupCreate handles the create group form.
func (h *UIHandlers) GroupCreate(w http.ResponseWriter, r *http.Request) {
	if h.Directory == nil {
		h.NotFound(w, r)
		return
	}
	handleForm(h, FormHandlerOpts[model.GroupRequest]{
		W:      w,
		R:      r,
		Mode:   FormModeCreate,
		Parser: parseGroupForm,
		Save: func(ctx context.Context, caller service.Caller, _ string, req model.GroupRequest) error {
			_, err := h.Directory.CreateGroup(ctx, caller, req)
			return err
		},
		Renderer:      h.renderDashboardPage,
		SuccessURL:    groupsPath,
		SuccessNotice: "Group created.",
		PageMeta:      groupFormMeta,
	})
}
