// Package authroles turns directory group memberships into dashboard roles.
package authroles

import (
	"strings"

	"github.com/target/recon-console/config"
	domainauth "github.com/target/recon-console/internal/domain/auth"
)

// GroupMapper grants each role whose configured group appears in the user's groups.
// Groups compare case-insensitively and may be given either as a bare name or as
// an LDAP distinguished name whose leading CN matches.
type GroupMapper struct {
	groups map[domainauth.Role]string
}

// NewGroupMapper builds a mapper from the configured role groups. Empty groups grant nothing.
func NewGroupMapper(cfg config.RoleGroups) GroupMapper {
	return GroupMapper{groups: map[domainauth.Role]string{
		domainauth.RoleAdmin:    normalize(cfg.AdminGroup),
		domainauth.RoleDirector: normalize(cfg.DirectorGroup),
		domainauth.RoleReviewer: normalize(cfg.ReviewerGroup),
		domainauth.RolePreparer: normalize(cfg.PreparerGroup),
	}}
}

// Map returns granted roles in descending privilege order, without duplicates.
func (m GroupMapper) Map(groups []string) []domainauth.Role {
	have := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		have[normalize(g)] = struct{}{}
		if cn := commonName(g); cn != "" {
			have[cn] = struct{}{}
		}
	}

	var out []domainauth.Role
	for _, r := range domainauth.AllRoles() {
		g := m.groups[r]
		if g == "" {
			continue
		}
		if _, ok := have[g]; ok {
			out = append(out, r)
		}
	}
	return out
}

func normalize(g string) string { return strings.ToLower(strings.TrimSpace(g)) }

// commonName extracts the first CN from a distinguished name like "CN=Recon-Admins,OU=Groups,DC=corp".
func commonName(dn string) string {
	first, _, _ := strings.Cut(dn, ",")
	k, v, ok := strings.Cut(first, "=")
	if !ok || !strings.EqualFold(strings.TrimSpace(k), "cn") {
		return ""
	}
	return normalize(v)
}
