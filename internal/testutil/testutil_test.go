package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/recon-console/internal/domain/auth"
)

func TestSessionBuilder(t *testing.T) {
	s := NewSession().
		WithID("s1").
		WithUser("rita", "Rita Reviewer").
		WithRoles(domainauth.RoleReviewer, domainauth.RolePreparer).
		Build()

	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, domainauth.RoleReviewer, s.ActiveRole)
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.ExpiresAt.After(time.Now()))

	none := NewSession().WithRoles().Build()
	assert.False(t, none.IsAuthenticated())
}

func TestReconciliations(t *testing.T) {
	recs := Reconciliations(3)
	assert.Len(t, recs, 3)
	assert.Equal(t, "1000-00", recs[0].Account)
	assert.Equal(t, "CA02", recs[1].Entity)
	assert.Equal(t, "rec-3", recs[2].ID)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("TESTUTIL_FLAG", "Yes")
	assert.True(t, envBool("TESTUTIL_FLAG"))
	t.Setenv("TESTUTIL_FLAG", "0")
	assert.False(t, envBool("TESTUTIL_FLAG"))
}
