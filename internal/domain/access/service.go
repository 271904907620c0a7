// Package access is the RBAC + per-resource policy decision engine behind
// every protected route and conditional UI affordance.
package access

// CanAccess decides whether role may exercise key in ctx. It is pure and
// total: it never errors, and an unknown key or absent role denies.
//
// The evaluation order is fixed: absent role, then role membership, then
// the rule's condition (a rule without one allows). Reordering these steps
// would change the meaning of the table, so don't.
func CanAccess(key Key, role Role, ctx Context) bool {
	if role == "" {
		return false
	}
	rule, ok := rules[key]
	if !ok {
		return false
	}
	if !rule.allowsRole(role) {
		return false
	}
	if rule.Condition == nil {
		return true
	}
	return rule.Condition(ctx, role)
}

// IsStaff reports whether role belongs to the back-office roles.
func IsStaff(role Role) bool {
	for _, staff := range StaffRoles {
		if role == staff {
			return true
		}
	}
	return false
}

// Keys lists every registered access key, for exhaustive guard tests.
func Keys() []Key {
	keys := make([]Key, 0, len(rules))
	for key := range rules {
		keys = append(keys, key)
	}
	return keys
}

// AllowedRoles returns the role set for key, nil when key is unknown.
func AllowedRoles(key Key) []Role {
	rule, ok := rules[key]
	if !ok {
		return nil
	}
	out := make([]Role, len(rule.AllowedRoles))
	copy(out, rule.AllowedRoles)
	return out
}
