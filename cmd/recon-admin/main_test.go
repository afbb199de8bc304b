package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/target/recon-console/config"
	"github.com/target/recon-console/internal/adapters/devauth"
	domainauth "github.com/target/recon-console/internal/domain/auth"
)

func testCommandContext(in string) (*commandContext, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: config.AppConfig{
			Auth: config.AuthConfig{
				Roles: config.RoleGroups{AdminGroup: "recon-admins", ReviewerGroup: "recon-reviewers"},
				DevAuth: config.DevAuthConfig{
					UserID:      "dev-user",
					Name:        "Dev User",
					Email:       "dev@example.com",
					Groups:      []string{"recon-admins"},
					TokenSecret: "cli-test-secret",
					TokenTTL:    time.Hour,
				},
			},
		},
		In:  strings.NewReader(in),
		Out: out,
	}, out
}

func TestPrintUsageListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	for name := range commands() {
		assert.Contains(t, buf.String(), name)
	}
	assert.Less(t, strings.Index(buf.String(), "clear-sessions"), strings.Index(buf.String(), "list-sessions"))
}

func TestHashPassword(t *testing.T) {
	cmdCtx, out := testCommandContext("correct horse battery\n")
	require.NoError(t, runHashPassword(cmdCtx, nil))

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse battery")))
}

func TestHashPassword_TooShort(t *testing.T) {
	cmdCtx, _ := testCommandContext("short\n")
	assert.ErrorContains(t, runHashPassword(cmdCtx, nil), "at least 8")
}

func TestReadPassword_KeepsInnerSpacesAndNoTrailingNewline(t *testing.T) {
	got, err := readPassword(strings.NewReader("  spaced out pw\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "  spaced out pw", got)

	got, err = readPassword(strings.NewReader("no-newline-pw"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline-pw", got)
}

func TestMintDevToken(t *testing.T) {
	cmdCtx, out := testCommandContext("")
	require.NoError(t, runMintDevToken(cmdCtx, []string{"-user-id", "reviewer-1", "-groups", "recon-reviewers; finance"}))

	issuer, err := devauth.NewTokenIssuer("cli-test-secret", time.Hour)
	require.NoError(t, err)
	claims, err := issuer.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "reviewer-1", claims.Subject)
	assert.Equal(t, "dev@example.com", claims.Email)
	assert.Equal(t, []string{"recon-reviewers", "finance"}, claims.Groups)
}

func TestMintDevToken_FlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "blank user", args: []string{"-user-id", " "}, want: "--user-id"},
		{name: "zero ttl", args: []string{"-ttl", "0s"}, want: "--ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmdCtx, _ := testCommandContext("")
			assert.ErrorContains(t, runMintDevToken(cmdCtx, tt.args), tt.want)
		})
	}
}

func TestMintDevToken_NoSecret(t *testing.T) {
	cmdCtx, _ := testCommandContext("")
	cmdCtx.Config.Auth.DevAuth.TokenSecret = ""
	assert.ErrorContains(t, runMintDevToken(cmdCtx, nil), "token issuer")
}

func TestMapRoles(t *testing.T) {
	cmdCtx, out := testCommandContext("")
	require.NoError(t, runMapRoles(cmdCtx, []string{"-groups", "CN=recon-reviewers,OU=Groups,DC=corp;other"}))
	assert.Contains(t, out.String(), "reviewer")
	assert.Contains(t, out.String(), domainauth.RoleReviewer.LandingPath())
	assert.NotContains(t, out.String(), "admin")

	cmdCtx, out = testCommandContext("")
	require.NoError(t, runMapRoles(cmdCtx, []string{"-groups", "nobody"}))
	assert.Equal(t, "no roles granted\n", out.String())
}

type stubLister struct {
	sessions []domainauth.Session
	err      error
}

func (s stubLister) List(context.Context) ([]domainauth.Session, error) { return s.sessions, s.err }

func TestFilterSessions(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	store := stubLister{sessions: []domainauth.Session{
		{ID: "b", UserID: "zoe", ActiveRole: domainauth.RoleAdmin, AccessToken: "tok", ExpiresAt: now},
		{ID: "a2", UserID: "ann", ActiveRole: domainauth.RoleReviewer, AccessToken: "tok", ExpiresAt: now.Add(time.Hour)},
		{ID: "a1", UserID: "ann", ActiveRole: domainauth.RolePreparer, AccessToken: "tok", ExpiresAt: now},
	}}

	got, err := filterSessions(context.Background(), store, listSessionsOptions{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a1", "a2", "b"}, []string{got[0].ID, got[1].ID, got[2].ID})
	for _, s := range got {
		assert.Empty(t, s.AccessToken)
	}

	got, err = filterSessions(context.Background(), store, listSessionsOptions{UserID: "ann", Role: "reviewer"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a2", got[0].ID)

	_, err = filterSessions(context.Background(), stubLister{err: errors.New("redis down")}, listSessionsOptions{})
	assert.ErrorContains(t, err, "list sessions")
}

func TestParseListSessionsFlags_UnknownRole(t *testing.T) {
	_, err := parseListSessionsFlags([]string{"-role", "auditor"})
	assert.ErrorContains(t, err, "unknown role")
}

func TestPrintSessions(t *testing.T) {
	expires := time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC)
	sessions := []domainauth.Session{{
		ID:         "0123456789abcdef",
		UserID:     "ann",
		ActiveRole: domainauth.RoleReviewer,
		Roles:      []domainauth.Role{domainauth.RoleReviewer, domainauth.RolePreparer},
		ExpiresAt:  expires,
	}}

	cmdCtx, out := testCommandContext("")
	require.NoError(t, printSessions(cmdCtx, sessions, false))
	assert.Contains(t, out.String(), "01234567…")
	assert.NotContains(t, out.String(), "0123456789abcdef")
	assert.Contains(t, out.String(), "reviewer,preparer")
	assert.Contains(t, out.String(), "2026-03-31T18:00:00Z")
	assert.Contains(t, out.String(), "1 session(s)")

	cmdCtx, out = testCommandContext("")
	require.NoError(t, printSessions(cmdCtx, sessions, true))
	var decoded []domainauth.Session
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "ann", decoded[0].UserID)

	cmdCtx, out = testCommandContext("")
	require.NoError(t, printSessions(cmdCtx, nil, false))
	assert.Equal(t, "no live sessions\n", out.String())
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "y\n"},
		{in: "YES\n"},
		{in: "n\n", wantErr: true},
		{in: "\n", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		cmdCtx, out := testCommandContext(tt.in)
		err := confirm(cmdCtx, "Delete?")
		if tt.wantErr {
			assert.ErrorIs(t, err, errAborted, "input %q", tt.in)
		} else {
			assert.NoError(t, err, "input %q", tt.in)
		}
		assert.Equal(t, "Delete? [y/N]: ", out.String())
	}
}
