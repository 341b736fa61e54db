package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marketauth/marketauth/internal/domain/credential"
	"github.com/marketauth/marketauth/internal/domain/identity"
)

// RoleService applies role transitions and flag toggles under the
// permission matrix, and bootstraps the singleton superuser.
type RoleService struct {
	store   identity.Store
	gen     credential.Generator
	matrix  identity.PermissionMatrix
	hasher  PasswordHasher
	metrics *Metrics
	logger  *slog.Logger

	// superuserSecret gates BootstrapSuperuser. Compared for equality
	// only, never logged.
	superuserSecret string
}

// NewRoleService creates a RoleService.
func NewRoleService(store identity.Store, gen credential.Generator, matrix identity.PermissionMatrix, hasher PasswordHasher, superuserSecret string, metrics *Metrics, logger *slog.Logger) *RoleService {
	return &RoleService{
		store:           store,
		gen:             gen,
		matrix:          matrix,
		hasher:          hasher,
		metrics:         metrics,
		logger:          logger,
		superuserSecret: superuserSecret,
	}
}

// ChangeRole moves the identity holding targetEmail to newRole on behalf of
// actor. Exactly one transition is applied per call.
//
// Every successful transition rotates the target's secondary credential (or
// clears it for USER), immediately invalidating whatever credential the
// target relied on for privileged login or reset flows.
func (s *RoleService) ChangeRole(ctx context.Context, actor *identity.Identity, targetEmail string, newRole identity.Role) (*identity.Identity, error) {
	if !newRole.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", identity.ErrBadRequest, newRole)
	}

	target, err := s.store.FindByEmail(ctx, targetEmail)
	if errors.Is(err, identity.ErrStoreNotFound) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup target: %w", err)
	}

	if allowed, reason := s.matrix.CanChangeRole(actor.Role, target.Role, newRole); !allowed {
		return nil, identity.Forbidden(reason)
	}

	// Frozen invariant, enforced independently of the matrix and for
	// every actor.
	if target.Role == identity.RoleSuperuser && newRole != identity.RoleSuperuser {
		return nil, identity.Forbidden("cannot change role of SUPERUSER")
	}

	if target.Role == newRole {
		return nil, identity.ErrAlreadyInRole
	}

	switch newRole {
	case identity.RoleAdmin, identity.RoleSuperAdmin:
		target.Role = newRole
		if err := rotateSecondaryCredential(ctx, s.store, s.gen, target); err != nil {
			return nil, err
		}
	case identity.RoleUser:
		target.Role = identity.RoleUser
		target.SecondaryCredential = nil
		if err := s.store.Update(ctx, target); err != nil {
			return nil, fmt.Errorf("persist role change: %w", err)
		}
	default:
		// SUPERUSER is born through bootstrap, never granted. The
		// singleton invariant would not survive a transition here.
		return nil, identity.Forbidden("SUPERUSER can only be created by bootstrap")
	}

	s.metrics.RoleChangesTotal.WithLabelValues(string(newRole)).Inc()
	s.logger.Info("role changed",
		"actor_id", actor.ID,
		"target_id", target.ID,
		"email_hash", emailHash(targetEmail),
		"new_role", newRole)
	return target, nil
}

// ToggleFlag flips the named boolean flag on the identity holding
// targetEmail on behalf of actor.
func (s *RoleService) ToggleFlag(ctx context.Context, actor *identity.Identity, targetEmail string, flag identity.Flag) (*identity.Identity, error) {
	target, err := s.store.FindByEmail(ctx, targetEmail)
	if errors.Is(err, identity.ErrStoreNotFound) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup target: %w", err)
	}

	if allowed, reason := s.matrix.CanToggleFlag(actor.Role, flag, target.Role); !allowed {
		return nil, identity.Forbidden(reason)
	}

	current, err := target.FlagValue(flag)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown flag %q", identity.ErrBadRequest, flag)
	}
	if err := target.SetFlag(flag, !current); err != nil {
		return nil, fmt.Errorf("%w: unknown flag %q", identity.ErrBadRequest, flag)
	}

	if err := s.store.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("persist flag toggle: %w", err)
	}

	s.metrics.FlagTogglesTotal.WithLabelValues(string(flag)).Inc()
	s.logger.Info("flag toggled",
		"actor_id", actor.ID,
		"target_id", target.ID,
		"email_hash", emailHash(targetEmail),
		"flag", flag,
		"value", !current)
	return target, nil
}

// BootstrapSuperuser creates the one and only SUPERUSER identity, gated by
// the configured secret key.
func (s *RoleService) BootstrapSuperuser(ctx context.Context, secretKey, email, password string) (*identity.Identity, error) {
	if subtle.ConstantTimeCompare([]byte(secretKey), []byte(s.superuserSecret)) != 1 {
		return nil, identity.Forbidden("invalid superuser secret key")
	}

	_, err := s.store.FindByRole(ctx, identity.RoleSuperuser)
	if err == nil {
		return nil, identity.Forbidden("superuser already exists")
	}
	if !errors.Is(err, identity.ErrStoreNotFound) {
		return nil, fmt.Errorf("check superuser singleton: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	for attempt := 0; attempt < conflictRetries; attempt++ {
		cred, err := s.gen.GenerateID(string(identity.RoleSuperuser), credentialIDLength)
		if err != nil {
			return nil, fmt.Errorf("generate secondary credential: %w", err)
		}

		now := time.Now().UTC()
		ident := &identity.Identity{
			Email:               email,
			Role:                identity.RoleSuperuser,
			PasswordHash:        hash,
			SecondaryCredential: &cred,
			TokenVersion:        1,
			Active:              true,
			CreatedAt:           now,
			UpdatedAt:           now,
		}

		err = s.store.Create(ctx, ident)
		if err == nil {
			s.logger.Info("superuser bootstrapped", "identity_id", ident.ID, "email_hash", emailHash(email))
			return ident, nil
		}
		if !errors.Is(err, identity.ErrConflict) {
			return nil, fmt.Errorf("persist superuser: %w", err)
		}
		// A conflict on the email itself will never resolve; only
		// credential collisions are worth retrying.
		if existing, lookupErr := s.store.FindByEmail(ctx, email); lookupErr == nil && existing != nil {
			return nil, fmt.Errorf("email already registered: %w", identity.ErrConflict)
		}
	}
	return nil, fmt.Errorf("secondary credential collided %d times: %w", conflictRetries, identity.ErrInternal)
}
