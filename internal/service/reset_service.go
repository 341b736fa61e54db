package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marketauth/marketauth/internal/domain/credential"
	"github.com/marketauth/marketauth/internal/domain/identity"
	"github.com/marketauth/marketauth/internal/domain/otp"
)

// ResetService runs the three-phase OTP-gated password reset for privileged
// identities. State between phases lives in the persisted verification code
// and the secondary credential; the service itself is stateless.
type ResetService struct {
	store   identity.Store
	codes   *otp.Manager
	gen     credential.Generator
	hasher  PasswordHasher
	metrics *Metrics
	logger  *slog.Logger

	superuserSecret string
}

// NewResetService creates a ResetService.
func NewResetService(store identity.Store, codes *otp.Manager, gen credential.Generator, hasher PasswordHasher, superuserSecret string, metrics *Metrics, logger *slog.Logger) *ResetService {
	return &ResetService{
		store:           store,
		codes:           codes,
		gen:             gen,
		hasher:          hasher,
		metrics:         metrics,
		logger:          logger,
		superuserSecret: superuserSecret,
	}
}

// RequestReset is phase 1: prove possession of the standing secondary
// credential (and, for SUPERUSER, the configured secret key) and receive a
// verification code for out-of-band delivery.
//
// Regular users are not admitted; they use a separate flow.
func (s *ResetService) RequestReset(ctx context.Context, email, secondaryCredential, secretKey string) (string, error) {
	ident, err := s.findByEmail(ctx, email)
	if err != nil {
		s.metrics.ResetStepsTotal.WithLabelValues("request", "denied").Inc()
		return "", err
	}

	if !ident.Verified {
		s.metrics.ResetStepsTotal.WithLabelValues("request", "denied").Inc()
		return "", identity.Forbidden("email not verified")
	}
	if !ident.Role.IsPrivileged() {
		s.metrics.ResetStepsTotal.WithLabelValues("request", "denied").Inc()
		return "", identity.Forbidden("only ADMIN, SUPER_ADMIN, and SUPERUSER can use this reset flow")
	}

	if ident.Role == identity.RoleSuperuser {
		if secretKey == "" || secondaryCredential == "" {
			s.metrics.ResetStepsTotal.WithLabelValues("request", "denied").Inc()
			return "", identity.Forbidden("superuser reset requires secret key and secondary credential")
		}
		if subtle.ConstantTimeCompare([]byte(secretKey), []byte(s.superuserSecret)) != 1 {
			s.metrics.ResetStepsTotal.WithLabelValues("request", "denied").Inc()
			return "", identity.Forbidden("invalid superuser secret key")
		}
	} else if secondaryCredential == "" {
		s.metrics.ResetStepsTotal.WithLabelValues("request", "denied").Inc()
		return "", identity.Forbidden("reset requires the secondary credential")
	}

	if subtle.ConstantTimeCompare([]byte(secondaryCredential), []byte(ident.SecondaryCredentialValue())) != 1 {
		s.metrics.ResetStepsTotal.WithLabelValues("request", "denied").Inc()
		return "", identity.ErrInvalidCredentials
	}

	code, err := s.codes.Issue(ctx, ident.ID)
	if err != nil {
		return "", err
	}
	s.metrics.CodesIssuedTotal.Inc()
	s.metrics.ResetStepsTotal.WithLabelValues("request", "ok").Inc()
	s.logger.Info("password reset requested", "identity_id", ident.ID, "email_hash", emailHash(email), "role", ident.Role)
	return code, nil
}

// VerifyResetCode is phase 2: consume the verification code and rotate the
// secondary credential. The returned value is a single-use bearer OTP
// authorizing exactly one ResetWithOTP call; the rotation simultaneously
// supersedes the long-lived credential the identity held before, so a stale
// read of the old value fails phase 3.
func (s *ResetService) VerifyResetCode(ctx context.Context, email, code string) (string, error) {
	ident, err := s.findByEmail(ctx, email)
	if err != nil {
		s.metrics.ResetStepsTotal.WithLabelValues("verify", "denied").Inc()
		return "", err
	}

	// Codes are also issued for email verification; a USER must not be
	// able to walk one into this flow and acquire a rotated credential.
	if !ident.Role.IsPrivileged() {
		s.metrics.ResetStepsTotal.WithLabelValues("verify", "denied").Inc()
		return "", identity.Forbidden("only ADMIN, SUPER_ADMIN, and SUPERUSER can use this reset flow")
	}

	ok, err := s.codes.Verify(ctx, ident.ID, code)
	if err != nil {
		return "", err
	}
	if !ok {
		s.metrics.ResetStepsTotal.WithLabelValues("verify", "denied").Inc()
		return "", identity.ErrInvalidVerificationCode
	}

	if err := rotateSecondaryCredential(ctx, s.store, s.gen, ident); err != nil {
		return "", err
	}

	s.metrics.ResetStepsTotal.WithLabelValues("verify", "ok").Inc()
	s.logger.Info("reset code verified, OTP issued", "identity_id", ident.ID, "email_hash", emailHash(email))
	return *ident.SecondaryCredential, nil
}

// ResetWithOTP is phase 3: exchange the OTP from phase 2 for a new
// password. The OTP is the identity's current secondary credential; after a
// successful reset it is rotated again so it cannot be replayed.
func (s *ResetService) ResetWithOTP(ctx context.Context, email, otpValue, newPassword string) error {
	ident, err := s.findByEmail(ctx, email)
	if err != nil {
		s.metrics.ResetStepsTotal.WithLabelValues("reset", "denied").Inc()
		return err
	}

	if otpValue == "" || subtle.ConstantTimeCompare([]byte(otpValue), []byte(ident.SecondaryCredentialValue())) != 1 {
		s.metrics.ResetStepsTotal.WithLabelValues("reset", "denied").Inc()
		return identity.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	ident.PasswordHash = hash

	// Rotation persists the new password hash in the same atomic update.
	if err := rotateSecondaryCredential(ctx, s.store, s.gen, ident); err != nil {
		return err
	}

	s.metrics.ResetStepsTotal.WithLabelValues("reset", "ok").Inc()
	s.logger.Info("password reset completed", "identity_id", ident.ID, "email_hash", emailHash(email))
	return nil
}

// findByEmail maps the store's not-found onto the flow-level error.
func (s *ResetService) findByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	ident, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, identity.ErrStoreNotFound) {
		return nil, identity.ErrEmailNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	return ident, nil
}
