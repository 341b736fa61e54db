package identity

// PermissionMatrix is the static authorization table for role transitions
// and flag toggles. It has no state and no side effects; an instance exists
// only so the rules travel through constructors instead of package globals.
type PermissionMatrix struct{}

// NewPermissionMatrix returns the compiled-in permission table.
func NewPermissionMatrix() PermissionMatrix {
	return PermissionMatrix{}
}

// CanChangeRole decides whether actorRole may move a target from currentRole
// to newRole. When denied, reason names the violated rule.
func (PermissionMatrix) CanChangeRole(actorRole, currentRole, newRole Role) (allowed bool, reason string) {
	switch actorRole {
	case RoleSuperuser:
		// Full control, except the frozen SUPERUSER role.
		if currentRole == RoleSuperuser && newRole != RoleSuperuser {
			return false, "cannot change role of SUPERUSER"
		}
		return true, ""
	case RoleSuperAdmin:
		if currentRole != RoleUser && currentRole != RoleAdmin {
			return false, "SUPER_ADMIN can only change roles of USER and ADMIN"
		}
		if newRole != RoleUser && newRole != RoleAdmin {
			return false, "SUPER_ADMIN can only grant USER or ADMIN"
		}
		return true, ""
	default:
		return false, "only SUPERUSER or SUPER_ADMIN can change roles"
	}
}

// CanToggleFlag decides whether actorRole may toggle flag on a target that
// currently holds targetRole.
func (PermissionMatrix) CanToggleFlag(actorRole Role, flag Flag, targetRole Role) (allowed bool, reason string) {
	switch actorRole {
	case RoleSuperuser:
		return true, ""
	case RoleSuperAdmin:
		if flag != FlagAdminApproval {
			return false, "SUPER_ADMIN can only toggle admin_approval"
		}
		if targetRole != RoleUser && targetRole != RoleAdmin {
			return false, "SUPER_ADMIN can only toggle flags for USER and ADMIN"
		}
		return true, ""
	default:
		return false, "only SUPERUSER or SUPER_ADMIN can toggle flags"
	}
}
