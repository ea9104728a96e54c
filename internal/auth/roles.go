package auth

import "strings"

// Role represents a user role.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// NormalizeRole validates and normalizes a role string. Legacy tokens carry
// a "ROLE_" prefix and "CLIENT" as a synonym for USER; both are accepted.
func NormalizeRole(value string) (Role, bool) {
	normalized := strings.ToUpper(strings.TrimPrefix(value, "ROLE_"))
	switch normalized {
	case "ADMIN":
		return RoleAdmin, true
	case "USER", "CLIENT":
		return RoleUser, true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	default:
		return 0
	}
}
