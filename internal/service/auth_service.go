package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/marketauth/marketauth/internal/domain/identity"
	"github.com/marketauth/marketauth/internal/domain/otp"
)

// Login jitter bounds. The delay is drawn uniformly and applied before the
// store lookup on every call, so observable timing cannot be correlated
// precisely to database work. It bounds only the pre-lookup phase and does
// not by itself make the whole operation constant-time.
const (
	loginJitterMin = 50 * time.Millisecond
	loginJitterMax = 150 * time.Millisecond
)

// decoyPassword feeds the precomputed hash compared against when no
// identity holds the email, keeping the hash comparison on every path.
const decoyPassword = "decoy-password-for-absent-identities"

// decoySecondaryCredential is compared against when no identity holds the
// email, keeping the secondary-credential comparison on every path.
const decoySecondaryCredential = "DECOY0000000000000000"

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Identity *identity.Identity
	Tokens   *TokenPair
}

// AuthService authenticates privileged identities and runs the email
// verification flow.
type AuthService struct {
	store   identity.Store
	codes   *otp.Manager
	hasher  PasswordHasher
	minter  TokenMinter
	metrics *Metrics
	logger  *slog.Logger

	decoyHash string
	sleep     func(time.Duration)
}

// NewAuthService creates an AuthService. It precomputes the decoy password
// hash used for timing-neutral comparisons, which is the only way
// construction can fail.
func NewAuthService(store identity.Store, codes *otp.Manager, hasher PasswordHasher, minter TokenMinter, metrics *Metrics, logger *slog.Logger) (*AuthService, error) {
	decoyHash, err := hasher.Hash(decoyPassword)
	if err != nil {
		return nil, fmt.Errorf("precompute decoy hash: %w", err)
	}
	return &AuthService{
		store:     store,
		codes:     codes,
		hasher:    hasher,
		minter:    minter,
		metrics:   metrics,
		logger:    logger,
		decoyHash: decoyHash,
		sleep:     time.Sleep,
	}, nil
}

// Login authenticates an email+password+secondary-credential triple and
// mints a token pair.
//
// Every credential failure, including "no such email", returns
// identity.ErrInvalidCredentials: the password and secondary-credential
// comparisons run whether or not the identity exists, against decoy values
// when it does not, and control flow never short-circuits on the lookup
// result. Post-authentication checks (verified flag, privileged role) come
// after the caller has proven possession of the credentials and return
// distinct errors.
func (s *AuthService) Login(ctx context.Context, email, password, secondaryCredential string) (*LoginResult, error) {
	// Fast-path input validation; rejects before the jitter. This is not
	// a user-existence check.
	if email == "" || password == "" || secondaryCredential == "" {
		s.metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, identity.ErrInvalidCredentials
	}

	s.sleep(loginJitter())

	ident, err := s.store.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, identity.ErrStoreNotFound) {
		s.metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("lookup identity: %w", err)
	}

	hashToCheck := s.decoyHash
	credentialToCheck := decoySecondaryCredential
	hasStoredHash := false
	if ident != nil {
		if ident.PasswordHash != "" {
			hashToCheck = ident.PasswordHash
			hasStoredHash = true
		}
		credentialToCheck = ident.SecondaryCredentialValue()
	}

	// The decoy comparison runs even when the identity has no stored hash,
	// but its outcome can never authenticate: the decoy plaintext is a
	// compile-time constant, so matching it must count for nothing.
	passwordOK, err := s.hasher.Verify(password, hashToCheck)
	if err != nil {
		s.metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("verify password: %w", err)
	}
	passwordOK = passwordOK && hasStoredHash
	credentialOK := subtle.ConstantTimeCompare([]byte(secondaryCredential), []byte(credentialToCheck)) == 1

	if ident == nil || !passwordOK || !credentialOK {
		s.metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, identity.ErrInvalidCredentials
	}

	// Post-authentication checks. These may leak account state; the
	// caller has already proven possession of all three factors.
	if !ident.Verified {
		s.metrics.LoginsTotal.WithLabelValues("not_verified").Inc()
		return nil, identity.ErrNotVerified
	}
	if !ident.Role.IsPrivileged() {
		s.metrics.LoginsTotal.WithLabelValues("forbidden").Inc()
		return nil, identity.Forbidden("admin approval required")
	}

	tokens, err := s.minter.Mint(ctx, ident)
	if err != nil {
		s.metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("mint tokens: %w", err)
	}

	s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("login succeeded", "identity_id", ident.ID, "email_hash", emailHash(email), "role", ident.Role)
	return &LoginResult{Identity: ident, Tokens: tokens}, nil
}

// RequestEmailVerification issues a verification code for the identity
// holding the email. The code is returned for out-of-band delivery.
func (s *AuthService) RequestEmailVerification(ctx context.Context, email string) (string, error) {
	ident, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	code, err := s.codes.Issue(ctx, ident.ID)
	if err != nil {
		return "", err
	}
	s.metrics.CodesIssuedTotal.Inc()
	s.logger.Info("email verification code issued", "identity_id", ident.ID, "email_hash", emailHash(email))
	return code, nil
}

// VerifyEmail consumes a verification code and marks the identity's email
// as verified.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	ident, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	ok, err := s.codes.Verify(ctx, ident.ID, code)
	if err != nil {
		return err
	}
	if !ok {
		return identity.ErrInvalidVerificationCode
	}

	ident.Verified = true
	if err := s.store.Update(ctx, ident); err != nil {
		return fmt.Errorf("persist verified flag: %w", err)
	}
	s.logger.Info("email verified", "identity_id", ident.ID, "email_hash", emailHash(email))
	return nil
}

// findByEmail maps the store's not-found onto the flow-level error.
func (s *AuthService) findByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	ident, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, identity.ErrStoreNotFound) {
		return nil, identity.ErrEmailNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	return ident, nil
}

// loginJitter draws a delay uniformly from [loginJitterMin, loginJitterMax].
func loginJitter() time.Duration {
	return loginJitterMin + time.Duration(rand.Int63n(int64(loginJitterMax-loginJitterMin)))
}
