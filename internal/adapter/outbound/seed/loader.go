// Package seed bulk-loads identities from a YAML file into a store, for
// development and first-boot provisioning.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marketauth/marketauth/internal/domain/credential"
	"github.com/marketauth/marketauth/internal/domain/identity"
)

// Entry is one identity in the seed file. PasswordHash is a PHC-format
// Argon2id hash (generate one with `marketauth hash-password`); cleartext
// passwords never appear in seed files.
type Entry struct {
	Email         string `yaml:"email"`
	Role          string `yaml:"role"`
	PasswordHash  string `yaml:"password_hash"`
	Verified      bool   `yaml:"verified"`
	AdminApproval bool   `yaml:"admin_approval"`
}

// File is the top-level seed file layout.
type File struct {
	Identities []Entry `yaml:"identities"`
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, e := range f.Identities {
		if e.Email == "" {
			return nil, fmt.Errorf("seed entry %d: email is required", i)
		}
		role := identity.Role(e.Role)
		if !role.IsValid() {
			return nil, fmt.Errorf("seed entry %d: unknown role %q", i, e.Role)
		}
		if role == identity.RoleSuperuser {
			return nil, fmt.Errorf("seed entry %d: SUPERUSER is created by bootstrap, not seeding", i)
		}
	}
	return &f, nil
}

// Apply creates every entry in the store. Privileged entries get a freshly
// generated secondary credential, returned alongside the created identity
// for out-of-band delivery. Entries whose email already exists are skipped.
func Apply(ctx context.Context, store identity.Store, gen credential.Generator, f *File) ([]*identity.Identity, error) {
	var created []*identity.Identity
	for _, e := range f.Identities {
		if _, err := store.FindByEmail(ctx, e.Email); err == nil {
			continue
		} else if !errors.Is(err, identity.ErrStoreNotFound) {
			return created, fmt.Errorf("lookup %s: %w", e.Email, err)
		}

		role := identity.Role(e.Role)
		now := time.Now().UTC()
		ident := &identity.Identity{
			Email:         e.Email,
			Role:          role,
			PasswordHash:  e.PasswordHash,
			TokenVersion:  1,
			AdminApproval: e.AdminApproval,
			Active:        true,
			Verified:      e.Verified,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if role.IsPrivileged() {
			cred, err := gen.GenerateID(string(role), 12)
			if err != nil {
				return created, fmt.Errorf("generate credential for %s: %w", e.Email, err)
			}
			ident.SecondaryCredential = &cred
		}

		if err := store.Create(ctx, ident); err != nil {
			return created, fmt.Errorf("create %s: %w", e.Email, err)
		}
		created = append(created, ident)
	}
	return created, nil
}
