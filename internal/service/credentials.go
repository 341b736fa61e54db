package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/marketauth/marketauth/internal/domain/credential"
	"github.com/marketauth/marketauth/internal/domain/identity"
)

// credentialIDLength is the conventional total length passed to the id
// generator. The generator guarantees a minimum random suffix on top of the
// role prefix.
const credentialIDLength = 12

// conflictRetries bounds retries when a generated secondary credential
// collides with the store's uniqueness constraint.
const conflictRetries = 3

// rotateSecondaryCredential assigns a fresh role-prefixed secondary
// credential to the identity and persists it. Uniqueness conflicts are
// retried with a newly generated value; exhausted retries surface as
// identity.ErrInternal.
func rotateSecondaryCredential(ctx context.Context, store identity.Store, gen credential.Generator, ident *identity.Identity) error {
	for attempt := 0; attempt < conflictRetries; attempt++ {
		id, err := gen.GenerateID(string(ident.Role), credentialIDLength)
		if err != nil {
			return fmt.Errorf("generate secondary credential: %w", err)
		}
		ident.SecondaryCredential = &id

		err = store.Update(ctx, ident)
		if err == nil {
			return nil
		}
		if !errors.Is(err, identity.ErrConflict) {
			return fmt.Errorf("persist secondary credential: %w", err)
		}
	}
	return fmt.Errorf("secondary credential collided %d times: %w", conflictRetries, identity.ErrInternal)
}
