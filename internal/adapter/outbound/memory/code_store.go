package memory

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/marketauth/marketauth/internal/domain/otp"
)

// CodeStore implements otp.Store with an in-memory map keyed by identity
// id, which enforces the one-live-code-per-identity rule by construction.
// Thread-safe. For development/testing only.
type CodeStore struct {
	mu    sync.Mutex
	codes map[int64]otp.Code
}

// NewCodeStore creates a new in-memory verification code store.
func NewCodeStore() *CodeStore {
	return &CodeStore{codes: make(map[int64]otp.Code)}
}

// Upsert stores the code for the identity, replacing any existing one.
func (s *CodeStore) Upsert(ctx context.Context, code otp.Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[code.IdentityID] = code
	return nil
}

// Consume atomically deletes the identity's code if it matches value and
// expires after now, reporting whether it did. Of two racing consumers at
// most one observes true; the lock makes delete-on-match atomic.
func (s *CodeStore) Consume(ctx context.Context, identityID int64, value string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[identityID]
	if !ok {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(code.Value), []byte(value)) != 1 {
		return false, nil
	}
	if !code.ExpiresAt.After(now) {
		return false, nil
	}

	delete(s.codes, identityID)
	return true, nil
}

// Len reports the number of live codes (for tests).
func (s *CodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}
