// Package memory provides in-memory implementations of the outbound stores.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/marketauth/marketauth/internal/domain/identity"
)

// IdentityStore implements identity.Store with in-memory maps.
// Thread-safe for concurrent access. For development/testing only.
type IdentityStore struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*identity.Identity
	byEmail map[string]int64
	byCred  map[string]int64
}

// NewIdentityStore creates a new in-memory identity store.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{
		nextID:  1,
		byID:    make(map[int64]*identity.Identity),
		byEmail: make(map[string]int64),
		byCred:  make(map[string]int64),
	}
}

// FindByEmail retrieves an identity by email.
// Returns identity.ErrStoreNotFound if no identity holds the email.
func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, identity.ErrStoreNotFound
	}
	return copyIdentity(s.byID[id]), nil
}

// FindByID retrieves an identity by numeric id.
// Returns identity.ErrStoreNotFound if it doesn't exist.
func (s *IdentityStore) FindByID(ctx context.Context, id int64) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ident, ok := s.byID[id]
	if !ok {
		return nil, identity.ErrStoreNotFound
	}
	return copyIdentity(ident), nil
}

// FindByRole retrieves any identity holding the role.
// Returns identity.ErrStoreNotFound when none does.
func (s *IdentityStore) FindByRole(ctx context.Context, role identity.Role) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ident := range s.byID {
		if ident.Role == role {
			return copyIdentity(ident), nil
		}
	}
	return nil, identity.ErrStoreNotFound
}

// Create persists a new identity and assigns its ID.
// Returns identity.ErrConflict on email or secondary-credential collision.
func (s *IdentityStore) Create(ctx context.Context, ident *identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(ident.Email)
	if _, exists := s.byEmail[email]; exists {
		return identity.ErrConflict
	}
	if ident.SecondaryCredential != nil {
		if _, exists := s.byCred[*ident.SecondaryCredential]; exists {
			return identity.ErrConflict
		}
	}

	ident.ID = s.nextID
	s.nextID++

	stored := copyIdentity(ident)
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID
	if stored.SecondaryCredential != nil {
		s.byCred[*stored.SecondaryCredential] = stored.ID
	}
	return nil
}

// Update persists every mutable field of the identity atomically.
// Returns identity.ErrStoreNotFound if the identity doesn't exist and
// identity.ErrConflict on email or secondary-credential collision.
func (s *IdentityStore) Update(ctx context.Context, ident *identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[ident.ID]
	if !ok {
		return identity.ErrStoreNotFound
	}

	email := normalizeEmail(ident.Email)
	if owner, exists := s.byEmail[email]; exists && owner != ident.ID {
		return identity.ErrConflict
	}
	if ident.SecondaryCredential != nil {
		if owner, exists := s.byCred[*ident.SecondaryCredential]; exists && owner != ident.ID {
			return identity.ErrConflict
		}
	}

	delete(s.byEmail, normalizeEmail(existing.Email))
	if existing.SecondaryCredential != nil {
		delete(s.byCred, *existing.SecondaryCredential)
	}

	ident.UpdatedAt = time.Now().UTC()
	stored := copyIdentity(ident)
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID
	if stored.SecondaryCredential != nil {
		s.byCred[*stored.SecondaryCredential] = stored.ID
	}
	return nil
}

// copyIdentity returns a deep copy so callers cannot mutate stored state.
func copyIdentity(ident *identity.Identity) *identity.Identity {
	cp := *ident
	if ident.SecondaryCredential != nil {
		cred := *ident.SecondaryCredential
		cp.SecondaryCredential = &cred
	}
	return &cp
}

// normalizeEmail lowercases the address so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
