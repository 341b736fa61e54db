package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marketauth/marketauth/internal/domain/credential"
)

// DefaultTTL is the default code lifetime.
const DefaultTTL = 10 * time.Minute

// issueRetries bounds retries when concurrent issuance races on the code
// row.
const issueRetries = 3

// Config holds code manager configuration.
type Config struct {
	// TTL is the code lifetime. Default: 10 minutes.
	TTL time.Duration
}

// Manager issues and verifies single-use verification codes.
type Manager struct {
	store Store
	gen   credential.Generator
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a Manager with the given store, generator, and config.
func NewManager(store Store, gen credential.Generator, cfg Config) *Manager {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store: store,
		gen:   gen,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates a fresh code for the identity, valid for the configured
// TTL, replacing any existing code so at most one is live. Write conflicts
// from racing issuers are retried a bounded number of times.
func (m *Manager) Issue(ctx context.Context, identityID int64) (string, error) {
	var lastErr error
	for attempt := 0; attempt < issueRetries; attempt++ {
		value, err := m.gen.GenerateCode()
		if err != nil {
			return "", err
		}
		err = m.store.Upsert(ctx, Code{
			IdentityID: identityID,
			Value:      value,
			ExpiresAt:  m.now().Add(m.ttl),
		})
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrConflict) {
			return "", fmt.Errorf("store verification code: %w", err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("issue verification code after %d attempts: %w", issueRetries, lastErr)
}

// Verify reports whether value is the identity's current, unexpired code.
// On true the code is consumed and cannot be verified again. Verify never
// fails for business reasons: expired, mismatched, and absent codes all
// yield false, so callers cannot build an oracle from the distinction.
func (m *Manager) Verify(ctx context.Context, identityID int64, value string) (bool, error) {
	ok, err := m.store.Consume(ctx, identityID, value, m.now())
	if err != nil {
		return false, fmt.Errorf("consume verification code: %w", err)
	}
	return ok, nil
}
