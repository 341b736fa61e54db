// Package service implements the identity credential lifecycle: login,
// role transitions, and the OTP-gated password reset protocol.
package service

import (
	"context"

	"github.com/marketauth/marketauth/internal/domain/identity"
)

// PasswordHasher hashes and verifies passwords. The algorithm is opaque to
// the services.
type PasswordHasher interface {
	// Hash returns an opaque hash of the plaintext.
	Hash(plain string) (string, error)

	// Verify reports whether the plaintext matches the stored hash.
	Verify(plain, hashed string) (bool, error)
}

// TokenPair holds a minted access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenMinter produces token pairs for authenticated identities. Signing
// and claims layout are opaque to the services.
type TokenMinter interface {
	Mint(ctx context.Context, ident *identity.Identity) (*TokenPair, error)
}
