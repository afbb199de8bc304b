// Package guard decides whether a session may see a protected screen.
// The decision is a pure function; navigation side effects live in the HTTP layer.
package guard

import (
	"slices"

	domainauth "github.com/target/recon-console/internal/domain/auth"
)

// Decision is the outcome of a route-guard check.
type Decision int

const (
	// Loading means the session could not be resolved yet; render a neutral state.
	Loading Decision = iota
	// Authorized means the screen may render.
	Authorized
	// Unauthenticated means there is no signed-in user.
	Unauthenticated
	// Forbidden means the user's active role is not allowed on the screen.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// State is the session state observed by the guard.
type State struct {
	Loading bool
	Session *domainauth.Session
}

// Decide maps session state and an optional allowed-roles constraint to a Decision.
// An empty allowed list admits any authenticated user.
func Decide(st State, allowed []domainauth.Role) Decision {
	if st.Loading {
		return Loading
	}
	if st.Session == nil || !st.Session.IsAuthenticated() {
		return Unauthenticated
	}
	if len(allowed) > 0 && !slices.Contains(allowed, st.Session.ActiveRole) {
		return Forbidden
	}
	return Authorized
}

// Reason values carried in redirect query strings.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonForbidden       = "forbidden"
	ReasonSessionExpired  = "session_expired"
)

// Redirect returns the destination for a non-authorized decision, or "" when no
// navigation is needed.
func Redirect(d Decision) string {
	switch d {
	case Unauthenticated:
		return "/?reason=" + ReasonUnauthenticated
	case Forbidden:
		return "/unauthorized?reason=" + ReasonForbidden
	default:
		return ""
	}
}

// Landing returns the default screen for a role.
func Landing(role domainauth.Role) string {
	return role.LandingPath()
}
