package auth

// IsValidRole checks that the role is one of the predefined roles
func IsValidRole(r AccountRole) bool {
	switch r {
	case RoleFieldAgent, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into an AccountRole
func ParseRole(roleStr string) (AccountRole, bool) {
	role := AccountRole(roleStr)
	return role, IsValidRole(role)
}

// DefaultRole is the role assigned when registration carries no validated
// invitation: the least-privileged one.
func DefaultRole() AccountRole {
	return RoleFieldAgent
}

// RoleIsAtLeast checks the role hierarchy: admin outranks fieldAgent.
func RoleIsAtLeast(r, min AccountRole) bool {
	hierarchy := map[AccountRole]int{
		RoleFieldAgent: 0,
		RoleAdmin:      1,
	}

	current, ok := hierarchy[r]
	if !ok {
		return false
	}

	minLevel, ok := hierarchy[min]
	if !ok {
		return false
	}

	return current >= minLevel
}

// AllRoles returns the predefined roles in hierarchical order
func AllRoles() []AccountRole {
	return []AccountRole{RoleFieldAgent, RoleAdmin}
}
