// Package otp manages time-boxed single-use verification codes.
package otp

import (
	"context"
	"errors"
	"time"
)

// ErrConflict is returned when a concurrent issuance races on the same
// identity's code row. Issue retries by replacing the stale row.
var ErrConflict = errors.New("code store: write conflict")

// Code is a stored verification code. At most one live code exists per
// identity.
type Code struct {
	// IdentityID is the owning identity.
	IdentityID int64
	// Value is the 6-digit numeric code.
	Value string
	// ExpiresAt is the absolute expiry (UTC).
	ExpiresAt time.Time
}

// Store persists verification codes keyed by identity id.
// Implementations: in-memory (dev/tests), SQLite (prod).
type Store interface {
	// Upsert stores the code for the identity, replacing any existing
	// one. Returns ErrConflict if a concurrent writer wins the race; the
	// caller retries.
	Upsert(ctx context.Context, code Code) error

	// Consume atomically deletes the identity's code if it matches value
	// exactly and expires after now, reporting whether it did. A false
	// return mutates nothing. The conditional delete is the effective
	// lock: of two racing consumers at most one observes true.
	Consume(ctx context.Context, identityID int64, value string, now time.Time) (bool, error)
}
