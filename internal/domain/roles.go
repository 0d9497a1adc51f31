package domain

import "strings"

// Role is the privilege level carried in test-API tokens and granted to
// fixture accounts.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// rank orders roles; unknown roles rank 0.
var rank = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

func (r Role) Valid() bool { return rank[r] > 0 }

// Covers reports whether r grants at least the privileges of min.
func (r Role) Covers(min Role) bool {
	return r.Valid() && min.Valid() && rank[r] >= rank[min]
}

// Authority is the name the user-management library stores in the role
// table, e.g. ROLE_ADMIN.
func Authority(r Role) string {
	return "ROLE_" + strings.ToUpper(string(r))
}
