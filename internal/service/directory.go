package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
	"github.com/target/recon-console/internal/export"
	"github.com/target/recon-console/internal/gateway"
	"github.com/target/recon-console/internal/listview"
	"github.com/target/recon-console/internal/ports"
)

const (
	endpointUsers  = "users"
	endpointGroups = "groups"
)

// DirectoryServiceOptions groups dependencies for DirectoryService.
type DirectoryServiceOptions struct {
	Backend   ports.Backend
	PageSizes []int
	Logger    *slog.Logger
}

// DirectoryService manages users and groups through the users API.
type DirectoryService struct {
	api       backendClient
	pageSizes []int
}

// NewDirectoryService constructs a DirectoryService. Backend is required.
func NewDirectoryService(opts DirectoryServiceOptions) *DirectoryService {
	return &DirectoryService{api: newBackendClient(opts.Backend, opts.Logger), pageSizes: opts.PageSizes}
}

// ListUsers fetches every user.
func (s *DirectoryService) ListUsers(ctx context.Context, caller Caller) ([]model.User, error) {
	items, _, err := list[model.User](ctx, s.api, caller, gateway.APIUsers, endpointUsers, nil)
	return items, err
}

// UserFields are the searchable user columns: id, name, email, group.
func UserFields() listview.Fields[model.User] {
	return listview.Fields[model.User]{
		func(u model.User) any { return u.ID },
		func(u model.User) any { return u.Name },
		func(u model.User) any { return u.Email },
		func(u model.User) any { return u.Group },
	}
}

// UserPipeline returns a client-filtered user list pipeline.
func (s *DirectoryService) UserPipeline(caller Caller) *listview.Pipeline[model.User] {
	src := listview.ClientFunc[model.User](func(ctx context.Context) ([]model.User, error) {
		return s.ListUsers(ctx, caller)
	})
	return listview.NewClientPipeline[model.User](src, UserFields(), pageSizeOption[model.User](s.pageSizes)...)
}

// CreateUser validates req and creates the user.
func (s *DirectoryService) CreateUser(ctx context.Context, caller Caller, req model.UserRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	var out model.User
	if err := s.api.sendJSON(ctx, caller, http.MethodPost, gateway.APIUsers, endpointUsers, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser validates req and replaces the user's attributes.
func (s *DirectoryService) UpdateUser(ctx context.Context, caller Caller, id string, req model.UserRequest) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.Validation("user id is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	var out model.User
	if err := s.api.sendJSON(ctx, caller, http.MethodPut, gateway.APIUsers, endpointUsers+"/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return &out, nil
}

// DeleteUser removes a user.
func (s *DirectoryService) DeleteUser(ctx context.Context, caller Caller, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.Validation("user id is required")
	}
	return s.api.sendJSON(ctx, caller, http.MethodDelete, gateway.APIUsers, endpointUsers+"/"+url.PathEscape(id), nil, nil)
}

// ExportUsers renders the users matching search as a local download.
func (s *DirectoryService) ExportUsers(ctx context.Context, caller Caller, search string, f export.Format) (export.Download, error) {
	users, err := s.ListUsers(ctx, caller)
	if err != nil {
		return export.Download{}, err
	}
	rows := listview.Filter(users, search, UserFields())
	tbl := export.Build("Users", []export.Column{
		{Header: "ID"},
		{Header: "Name", Width: 1.5},
		{Header: "Email", Width: 2},
		{Header: "Roles", Width: 1.5},
		{Header: "Group"},
		{Header: "Active", Width: 0.6},
	}, rows, func(u model.User) []string {
		active := "no"
		if u.Active {
			active = "yes"
		}
		return []string{u.ID, u.Name, u.Email, u.RoleList(), u.Group, active}
	})
	return renderExport(f, tbl, "users")
}

// ListGroups fetches every group.
func (s *DirectoryService) ListGroups(ctx context.Context, caller Caller) ([]model.Group, error) {
	items, _, err := list[model.Group](ctx, s.api, caller, gateway.APIUsers, endpointGroups, nil)
	return items, err
}

// GroupFields are the searchable group columns.
func GroupFields() listview.Fields[model.Group] {
	return listview.Fields[model.Group]{
		func(g model.Group) any { return g.ID },
		func(g model.Group) any { return g.Name },
		func(g model.Group) any { return g.Description },
	}
}

// GroupPipeline returns a client-filtered group list pipeline.
func (s *DirectoryService) GroupPipeline(caller Caller) *listview.Pipeline[model.Group] {
	src := listview.ClientFunc[model.Group](func(ctx context.Context) ([]model.Group, error) {
		return s.ListGroups(ctx, caller)
	})
	return listview.NewClientPipeline[model.Group](src, GroupFields(), pageSizeOption[model.Group](s.pageSizes)...)
}

// CreateGroup validates req and creates the group.
func (s *DirectoryService) CreateGroup(ctx context.Context, caller Caller, req model.GroupRequest) (*model.Group, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	var out model.Group
	if err := s.api.sendJSON(ctx, caller, http.MethodPost, gateway.APIUsers, endpointGroups, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
