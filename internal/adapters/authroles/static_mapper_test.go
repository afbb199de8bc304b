package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/target/recon-console/config"
	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/ports"
)

var _ ports.RoleMapper = GroupMapper{}

func testMapper() GroupMapper {
	return NewGroupMapper(config.RoleGroups{
		AdminGroup:    "Recon-Admins",
		DirectorGroup: "recon-directors",
		ReviewerGroup: "recon-reviewers",
		PreparerGroup: "recon-preparers",
	})
}

func TestGroupMapper_Map(t *testing.T) {
	tests := []struct {
		name   string
		groups []string
		want   []domainauth.Role
	}{
		{"no groups", nil, nil},
		{"unknown group", []string{"finance"}, nil},
		{"single", []string{"recon-preparers"}, []domainauth.Role{domainauth.RolePreparer}},
		{
			"priority order regardless of input order",
			[]string{"recon-preparers", "recon-admins", "recon-reviewers"},
			[]domainauth.Role{domainauth.RoleAdmin, domainauth.RoleReviewer, domainauth.RolePreparer},
		},
		{"case insensitive", []string{"RECON-DIRECTORS"}, []domainauth.Role{domainauth.RoleDirector}},
		{
			"distinguished name",
			[]string{"CN=Recon-Reviewers,OU=Groupings,DC=corp,DC=example,DC=com"},
			[]domainauth.Role{domainauth.RoleReviewer},
		},
		{"duplicates collapse", []string{"recon-admins", "Recon-Admins"}, []domainauth.Role{domainauth.RoleAdmin}},
	}

	m := testMapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.groups))
		})
	}
}

func TestGroupMapper_EmptyGroupGrantsNothing(t *testing.T) {
	m := NewGroupMapper(config.RoleGroups{AdminGroup: "recon-admins"})
	assert.Nil(t, m.Map([]string{"", " "}))
}

func TestCommonName(t *testing.T) {
	assert.Equal(t, "recon-admins", commonName("CN=Recon-Admins,OU=Groups"))
	assert.Equal(t, "", commonName("OU=Groups,DC=corp"))
	assert.Equal(t, "", commonName("plain-group"))
}
