package identity

import (
	"errors"
	"fmt"
)

// Error taxonomy for the identity core. Authorization and validation
// failures are returned as typed errors to the immediate caller; only
// store-level conflicts are retried internally.
var (
	// ErrInvalidCredentials is returned for every credential failure at
	// login and reset. It never reveals which factor failed or whether
	// the email exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotRegistered is returned by reset and verification flows
	// when no identity holds the email.
	ErrEmailNotRegistered = errors.New("email not registered")
	// ErrNotVerified is returned after successful authentication when the
	// identity's email has not been verified.
	ErrNotVerified = errors.New("email not verified")
	// ErrNotFound is returned when a target identity does not exist.
	ErrNotFound = errors.New("identity not found")
	// ErrBadRequest is returned for malformed input such as an unknown
	// role or flag name.
	ErrBadRequest = errors.New("bad request")
	// ErrAlreadyInRole is returned when a role change is a no-op.
	ErrAlreadyInRole = errors.New("identity already has the requested role")
	// ErrInvalidVerificationCode is returned when a verification code is
	// absent, expired, or does not match. Callers cannot distinguish.
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	// ErrInternal is returned when bounded retries on store conflicts are
	// exhausted.
	ErrInternal = errors.New("internal error")
)

// ErrForbidden is the base error matched by every ForbiddenError.
var ErrForbidden = errors.New("forbidden")

// ForbiddenError is an authorization denial carrying the violated rule.
// It unwraps to ErrForbidden so callers can match with errors.Is.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// Unwrap makes errors.Is(err, ErrForbidden) hold.
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// Forbidden returns a ForbiddenError with the given reason.
func Forbidden(reason string) error {
	return &ForbiddenError{Reason: reason}
}
