package auth

import (
	"strings"

	"github.com/prueba/login-api/internal/model"
)

// Authority is a single granted capability identifier, e.g.
// "ROLE_USER". Authorities are derived from role names and are the
// only authorization currency the core deals in; permission rows are
// modeled but never consulted here.
type Authority string

// RolePrefix is prepended to every role name when deriving its
// authority string.
const RolePrefix = "ROLE_"

// AuthoritiesOf flattens a user's roles into the set of authority
// strings used both for token issuance and in-process checks.
// Duplicate role names collapse to one authority; order follows the
// role order.
func AuthoritiesOf(roles []model.Role) []Authority {
	seen := make(map[Authority]bool, len(roles))
	out := make([]Authority, 0, len(roles))
	for _, role := range roles {
		a := Authority(RolePrefix + role.Name)
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// JoinAuthorities serializes an authority set into the comma-joined
// claim form embedded in tokens.
func JoinAuthorities(authorities []Authority) string {
	parts := make([]string, len(authorities))
	for i, a := range authorities {
		parts[i] = string(a)
	}
	return strings.Join(parts, ",")
}

// SplitAuthorities parses the comma-joined claim back into a typed
// slice. Empty segments are dropped so a trailing comma or an empty
// claim yields no authorities rather than a blank one.
func SplitAuthorities(joined string) []Authority {
	var out []Authority
	for _, part := range strings.Split(joined, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, Authority(part))
		}
	}
	return out
}

// HasAuthority reports whether the set contains the given authority.
func HasAuthority(set []Authority, want Authority) bool {
	for _, a := range set {
		if a == want {
			return true
		}
	}
	return false
}
