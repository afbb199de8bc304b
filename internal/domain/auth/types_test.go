package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_LandingPath(t *testing.T) {
	assert.Equal(t, "/preparer/dashboard", RolePreparer.LandingPath())
	assert.Equal(t, "/reviewer/dashboard", RoleReviewer.LandingPath())
	assert.Equal(t, "/director/dashboard", RoleDirector.LandingPath())
	assert.Equal(t, "/admin/dashboard", RoleAdmin.LandingPath())
	assert.Equal(t, "/", Role("auditor").LandingPath())
}

func TestRole_Valid(t *testing.T) {
	for _, r := range AllRoles() {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("").Valid())
	assert.False(t, Role("guest").Valid())
}

func TestSession_IsAuthenticated(t *testing.T) {
	assert.False(t, Session{}.IsAuthenticated())
	assert.False(t, Session{UserID: "u1"}.IsAuthenticated())
	assert.True(t, Session{UserID: "u1", Roles: []Role{RoleReviewer}}.IsAuthenticated())
}

func TestSession_HasRole(t *testing.T) {
	s := Session{Roles: []Role{RolePreparer, RoleReviewer}}
	assert.True(t, s.HasRole(RoleReviewer))
	assert.False(t, s.HasRole(RoleAdmin))
}
