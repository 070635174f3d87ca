package auth

import "strings"

// Role is an RBAC role carried in the JWT.
type Role string

const (
	// RoleViewer can read assignments and reports.
	RoleViewer Role = "viewer"
	// RoleBursar can assign fees and run reconciliation.
	RoleBursar Role = "bursar"
	// RoleAdmin can additionally edit structures, categories and scholarships.
	RoleAdmin Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer: 1,
	RoleBursar: 2,
	RoleAdmin:  3,
}

// NormalizeRole parses a raw role string.
func NormalizeRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := roleRank[role]; !ok {
		return "", false
	}
	return role, true
}

// RoleAtLeast reports whether role meets the required rank.
func RoleAtLeast(role, required Role) bool {
	return roleRank[role] >= roleRank[required]
}
