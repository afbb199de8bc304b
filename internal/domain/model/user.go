//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxUserNameLen  = 255
	maxGroupNameLen = 120
)

// User is a dashboard user managed through the users API.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	Group  string   `json:"group"`
	Active bool     `json:"active"`
}

// RoleList joins the user's roles for display and search.
func (u User) RoleList() string {
	return strings.Join(u.Roles, ", ")
}

// UserRequest is the payload for creating or updating a user.
type UserRequest struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	Group  string   `json:"group,omitempty"`
	Active bool     `json:"active"`
}

// Validate normalizes and validates the request.
func (r *UserRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Group = strings.TrimSpace(r.Group)
	if r.Name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(r.Name) > maxUserNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("email is not a valid address")
	}
	roles := r.Roles[:0]
	for _, role := range r.Roles {
		if role = strings.ToLower(strings.TrimSpace(role)); role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return errors.New("at least one role is required")
	}
	r.Roles = roles
	return nil
}

// Group is a named set of users.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MemberCount int    `json:"memberCount"`
}

// GroupRequest is the payload for creating a group.
type GroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate validates GroupRequest.
func (r *GroupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(r.Name) > maxGroupNameLen {
		return errors.New("name cannot exceed 120 characters")
	}
	return nil
}
