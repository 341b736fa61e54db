package identity

import (
	"context"
	"errors"
)

// Store errors. Implementations map their native uniqueness and missing-row
// signals onto these sentinels.
var (
	// ErrStoreNotFound is returned when no row matches the lookup.
	ErrStoreNotFound = errors.New("identity store: not found")
	// ErrConflict is returned when a write violates a uniqueness
	// constraint (email, secondary credential). Callers retry id-bearing
	// writes a bounded number of times before giving up.
	ErrConflict = errors.New("identity store: uniqueness conflict")
)

// Store provides identity persistence. Implementations must enforce
// uniqueness of email and of the secondary credential, and Update must be an
// atomic field-set so no role change partially applies.
// Implementations: in-memory (dev/tests), SQLite (prod).
type Store interface {
	// FindByEmail retrieves an identity by email.
	// Returns ErrStoreNotFound if no identity holds the email.
	FindByEmail(ctx context.Context, email string) (*Identity, error)

	// FindByID retrieves an identity by numeric id.
	// Returns ErrStoreNotFound if it doesn't exist.
	FindByID(ctx context.Context, id int64) (*Identity, error)

	// FindByRole retrieves any identity holding the role.
	// Returns ErrStoreNotFound when none does. Used for the SUPERUSER
	// singleton check.
	FindByRole(ctx context.Context, role Role) (*Identity, error)

	// Create persists a new identity and assigns its ID.
	// Returns ErrConflict on email or secondary-credential collision.
	Create(ctx context.Context, ident *Identity) error

	// Update persists every mutable field of the identity atomically.
	// Returns ErrStoreNotFound if the identity doesn't exist and
	// ErrConflict on secondary-credential collision.
	Update(ctx context.Context, ident *Identity) error
}
