package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"slices"
	"time"
)

// Role represents a dashboard role. Keep string form for easy persistence and cookies.
type Role string

const (
	RolePreparer Role = "preparer"
	RoleReviewer Role = "reviewer"
	RoleDirector Role = "director"
	RoleAdmin    Role = "admin"
)

// AllRoles lists roles in descending privilege order.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleDirector, RoleReviewer, RolePreparer}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return slices.Contains(AllRoles(), r)
}

// Label is the display name of the role.
func (r Role) Label() string {
	switch r {
	case RolePreparer:
		return "Preparer"
	case RoleReviewer:
		return "Reviewer"
	case RoleDirector:
		return "Director"
	case RoleAdmin:
		return "Admin"
	default:
		return string(r)
	}
}

// LandingPath returns the default dashboard path for the role.
func (r Role) LandingPath() string {
	switch r {
	case RolePreparer:
		return "/preparer/dashboard"
	case RoleReviewer:
		return "/reviewer/dashboard"
	case RoleDirector:
		return "/director/dashboard"
	case RoleAdmin:
		return "/admin/dashboard"
	default:
		return "/"
	}
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID      string // stable user identifier (e.g., samAccountName or sub)
	DisplayName string
	Email       string
	Groups      []string
	AccessToken string    // bearer token forwarded to backend services
	ExpiresAt   time.Time // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	ActiveRole  Role      `json:"active_role"`
	Roles       []Role    `json:"roles"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HasRole reports whether the session was granted r.
func (s Session) HasRole(r Role) bool { return slices.Contains(s.Roles, r) }

// IsAuthenticated reports whether the session carries a user with at least one role.
func (s Session) IsAuthenticated() bool { return s.UserID != "" && len(s.Roles) > 0 }

// LandingPath returns the landing path of the active role.
func (s Session) LandingPath() string { return s.ActiveRole.LandingPath() }
