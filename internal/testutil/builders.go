package testutil

import (
	"fmt"
	"time"

	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/domain/model"
)

// SessionBuilder builds sessions for handler and service tests.
type SessionBuilder struct {
	s domainauth.Session
}

// NewSession starts a preparer session that expires in an hour.
func NewSession() *SessionBuilder {
	return &SessionBuilder{s: domainauth.Session{
		ID:          "sess-test",
		UserID:      "pat",
		DisplayName: "Pat Preparer",
		Email:       "pat@example.com",
		ActiveRole:  domainauth.RolePreparer,
		Roles:       []domainauth.Role{domainauth.RolePreparer},
		AccessToken: "token-test",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}
}

// WithID sets the session ID.
func (b *SessionBuilder) WithID(id string) *SessionBuilder {
	b.s.ID = id
	return b
}

// WithUser sets user ID and display name.
func (b *SessionBuilder) WithUser(id, name string) *SessionBuilder {
	b.s.UserID = id
	b.s.DisplayName = name
	return b
}

// WithRoles grants roles; the first becomes active.
func (b *SessionBuilder) WithRoles(roles ...domainauth.Role) *SessionBuilder {
	b.s.Roles = roles
	if len(roles) > 0 {
		b.s.ActiveRole = roles[0]
	} else {
		b.s.ActiveRole = ""
	}
	return b
}

// WithToken sets the bearer token.
func (b *SessionBuilder) WithToken(tok string) *SessionBuilder {
	b.s.AccessToken = tok
	return b
}

// Build returns the session.
func (b *SessionBuilder) Build() domainauth.Session { return b.s }

// Reconciliations returns n reconciliations with predictable accounts and entities.
// Accounts are "1000-00", "1001-00", ...; entities alternate between "US01" and "CA02".
func Reconciliations(n int) []model.Reconciliation {
	out := make([]model.Reconciliation, n)
	base := TestTime()
	for i := range out {
		entity := "US01"
		if i%2 == 1 {
			entity = "CA02"
		}
		due := base.AddDate(0, 0, i-n/2)
		out[i] = model.Reconciliation{
			ID:       fmt.Sprintf("rec-%d", i+1),
			Account:  fmt.Sprintf("%04d-00", 1000+i),
			Entity:   entity,
			Period:   "2024-01",
			Status:   model.ReconciliationStatusOpen,
			Preparer: "pat",
			Balance:  float64(1000 * (i + 1)),
			DueDate:  &due,
		}
	}
	return out
}
