// Package identity contains the domain types and authorization rules for
// marketplace identities.
package identity

import (
	"time"
)

// Role represents an identity's position in the role hierarchy.
type Role string

const (
	// RoleUser is the default role with no operator privileges.
	RoleUser Role = "USER"
	// RoleAdmin may log in through the privileged path and run reset flows.
	RoleAdmin Role = "ADMIN"
	// RoleSuperAdmin may additionally grant and revoke ADMIN.
	RoleSuperAdmin Role = "SUPER_ADMIN"
	// RoleSuperuser is the singleton root role. Its role field is frozen.
	RoleSuperuser Role = "SUPERUSER"
)

// IsValid returns true if the role is a known valid role.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin, RoleSuperuser:
		return true
	default:
		return false
	}
}

// IsPrivileged returns true for roles that carry a secondary credential and
// are admitted by the privileged login path.
func (r Role) IsPrivileged() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin, RoleSuperuser:
		return true
	default:
		return false
	}
}

// Flag names a toggleable boolean attribute on an identity. The set is
// closed: flags map to explicit fields, never to reflective lookup.
type Flag string

const (
	// FlagAdminApproval marks an identity as operator-approved.
	FlagAdminApproval Flag = "admin_approval"
	// FlagActive marks an identity as active (not suspended).
	FlagActive Flag = "active"
	// FlagVerified marks an identity's email address as verified.
	FlagVerified Flag = "verified"
)

// IsValid returns true if the flag names a known boolean attribute.
func (f Flag) IsValid() bool {
	switch f {
	case FlagAdminApproval, FlagActive, FlagVerified:
		return true
	default:
		return false
	}
}

// Identity represents a marketplace account.
type Identity struct {
	// ID is the store-assigned numeric identifier.
	ID int64
	// Email is the unique login email.
	Email string
	// Role is the identity's current role.
	Role Role
	// PasswordHash is the opaque password hash. Empty until a credential
	// has been set.
	PasswordHash string
	// SecondaryCredential is the role-prefixed credential required at
	// privileged login. Nil for USER; globally unique when set. During
	// the reset protocol it doubles as the single-use OTP.
	SecondaryCredential *string
	// TokenVersion increments to invalidate outstanding token pairs.
	TokenVersion int
	// AdminApproval marks the identity as operator-approved.
	AdminApproval bool
	// Active marks the identity as active.
	Active bool
	// Verified marks the email address as verified.
	Verified bool
	// CreatedAt is when the identity was created (UTC).
	CreatedAt time.Time
	// UpdatedAt is when the identity was last modified (UTC).
	UpdatedAt time.Time
}

// SecondaryCredentialValue returns the secondary credential or "" when unset.
func (i *Identity) SecondaryCredentialValue() string {
	if i.SecondaryCredential == nil {
		return ""
	}
	return *i.SecondaryCredential
}

// SetFlag flips the named flag to the given value. Returns ErrBadRequest for
// unknown flags.
func (i *Identity) SetFlag(flag Flag, value bool) error {
	switch flag {
	case FlagAdminApproval:
		i.AdminApproval = value
	case FlagActive:
		i.Active = value
	case FlagVerified:
		i.Verified = value
	default:
		return ErrBadRequest
	}
	return nil
}

// FlagValue reads the named flag. Returns ErrBadRequest for unknown flags.
func (i *Identity) FlagValue(flag Flag) (bool, error) {
	switch flag {
	case FlagAdminApproval:
		return i.AdminApproval, nil
	case FlagActive:
		return i.Active, nil
	case FlagVerified:
		return i.Verified, nil
	default:
		return false, ErrBadRequest
	}
}
