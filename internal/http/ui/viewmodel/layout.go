package viewmodel

// User represents the signed-in user exposed to templates. The bearer token
// never reaches this struct.
type User struct {
	Name            string
	Email           string
	ActiveRole      string
	ActiveRoleLabel string
	Roles           []RoleOption
}

// CanSwitchRole reports whether the role switcher should be shown.
func (u *User) CanSwitchRole() bool { return u != nil && len(u.Roles) > 1 }

// RoleOption is one entry of the role switcher.
type RoleOption struct {
	Value  string
	Label  string
	Active bool
}

// NavItem is a sidebar link visible to the active role.
type NavItem struct {
	Label string
	Path  string
	Page  string
}

// Notice is a pending toast rendered by the layout on full page loads.
type Notice struct {
	Kind       string
	Text       string
	DurationMS int64
	Blocking   bool
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	User            *User
	Nav             []NavItem
	Notice          *Notice
}

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}
