package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/marketauth/marketauth/internal/domain/identity"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "marketauth.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func cred(value string) *string {
	return &value
}

func TestIdentityStore_CreateAndFind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewIdentityStore(openTestDB(t))

	ident := &identity.Identity{
		Email:               "admin@example.com",
		Role:                identity.RoleAdmin,
		PasswordHash:        "hash",
		SecondaryCredential: cred("ADMIN1A2B3C4D"),
		TokenVersion:        1,
		AdminApproval:       true,
		Active:              true,
		Verified:            true,
	}
	if err := store.Create(ctx, ident); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if ident.ID == 0 {
		t.Fatal("Create() did not assign an ID")
	}
	if ident.CreatedAt.IsZero() || ident.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}

	// COLLATE NOCASE makes the email lookup case-insensitive.
	got, err := store.FindByEmail(ctx, "ADMIN@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("FindByEmail() error: %v", err)
	}
	if got.ID != ident.ID {
		t.Errorf("FindByEmail ID = %d, want %d", got.ID, ident.ID)
	}
	if got.Role != identity.RoleAdmin {
		t.Errorf("Role = %s, want ADMIN", got.Role)
	}
	if got.SecondaryCredentialValue() != "ADMIN1A2B3C4D" {
		t.Errorf("SecondaryCredential = %q", got.SecondaryCredentialValue())
	}
	if !got.AdminApproval || !got.Active || !got.Verified {
		t.Errorf("flags = %v/%v/%v, want all true", got.AdminApproval, got.Active, got.Verified)
	}
	if !got.CreatedAt.Equal(ident.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, ident.CreatedAt)
	}

	if _, err := store.FindByID(ctx, ident.ID); err != nil {
		t.Errorf("FindByID() error: %v", err)
	}
	if _, err := store.FindByRole(ctx, identity.RoleAdmin); err != nil {
		t.Errorf("FindByRole() error: %v", err)
	}
}

func TestIdentityStore_NullCredential(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewIdentityStore(openTestDB(t))

	// Multiple NULL secondary credentials must coexist: SQLite's UNIQUE
	// treats NULLs as distinct, which is exactly what USER rows need.
	for _, email := range []string{"u1@example.com", "u2@example.com"} {
		err := store.Create(ctx, &identity.Identity{Email: email, Role: identity.RoleUser})
		if err != nil {
			t.Fatalf("Create(%s) error: %v", email, err)
		}
	}

	got, err := store.FindByEmail(ctx, "u1@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error: %v", err)
	}
	if got.SecondaryCredential != nil {
		t.Errorf("SecondaryCredential = %q, want nil", *got.SecondaryCredential)
	}
}

func TestIdentityStore_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewIdentityStore(openTestDB(t))

	if _, err := store.FindByEmail(ctx, "ghost@example.com"); !errors.Is(err, identity.ErrStoreNotFound) {
		t.Errorf("FindByEmail error = %v, want ErrStoreNotFound", err)
	}
	if _, err := store.FindByID(ctx, 42); !errors.Is(err, identity.ErrStoreNotFound) {
		t.Errorf("FindByID error = %v, want ErrStoreNotFound", err)
	}
	if _, err := store.FindByRole(ctx, identity.RoleSuperuser); !errors.Is(err, identity.ErrStoreNotFound) {
		t.Errorf("FindByRole error = %v, want ErrStoreNotFound", err)
	}
	err := store.Update(ctx, &identity.Identity{ID: 42, Email: "ghost@example.com", Role: identity.RoleUser})
	if !errors.Is(err, identity.ErrStoreNotFound) {
		t.Errorf("Update error = %v, want ErrStoreNotFound", err)
	}
}

func TestIdentityStore_UniqueViolations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewIdentityStore(openTestDB(t))

	first := &identity.Identity{
		Email:               "a@example.com",
		Role:                identity.RoleAdmin,
		SecondaryCredential: cred("ADMINXXXXXXXX"),
	}
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	err := store.Create(ctx, &identity.Identity{Email: "A@Example.Com", Role: identity.RoleUser})
	if !errors.Is(err, identity.ErrConflict) {
		t.Errorf("Create(duplicate email) error = %v, want ErrConflict", err)
	}

	err = store.Create(ctx, &identity.Identity{
		Email:               "b@example.com",
		Role:                identity.RoleAdmin,
		SecondaryCredential: cred("ADMINXXXXXXXX"),
	})
	if !errors.Is(err, identity.ErrConflict) {
		t.Errorf("Create(duplicate credential) error = %v, want ErrConflict", err)
	}

	second := &identity.Identity{
		Email:               "b@example.com",
		Role:                identity.RoleAdmin,
		SecondaryCredential: cred("ADMINYYYYYYYY"),
	}
	if err := store.Create(ctx, second); err != nil {
		t.Fatalf("Create(second) error: %v", err)
	}
	second.SecondaryCredential = cred("ADMINXXXXXXXX")
	if err := store.Update(ctx, second); !errors.Is(err, identity.ErrConflict) {
		t.Errorf("Update(duplicate credential) error = %v, want ErrConflict", err)
	}
}

func TestIdentityStore_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewIdentityStore(openTestDB(t))

	ident := &identity.Identity{
		Email:               "rotate@example.com",
		Role:                identity.RoleAdmin,
		SecondaryCredential: cred("ADMINOLDOLDOK"),
		TokenVersion:        1,
	}
	if err := store.Create(ctx, ident); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	ident.Role = identity.RoleSuperAdmin
	ident.SecondaryCredential = cred("SUPER_ADMINNEWOK")
	ident.TokenVersion = 2
	ident.Verified = true
	if err := store.Update(ctx, ident); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err := store.FindByID(ctx, ident.ID)
	if err != nil {
		t.Fatalf("FindByID() error: %v", err)
	}
	if got.Role != identity.RoleSuperAdmin {
		t.Errorf("Role = %s, want SUPER_ADMIN", got.Role)
	}
	if got.SecondaryCredentialValue() != "SUPER_ADMINNEWOK" {
		t.Errorf("SecondaryCredential = %q", got.SecondaryCredentialValue())
	}
	if got.TokenVersion != 2 {
		t.Errorf("TokenVersion = %d, want 2", got.TokenVersion)
	}
	if !got.Verified {
		t.Error("Verified not persisted")
	}

	// The old credential is released for reuse after rotation.
	err = store.Create(ctx, &identity.Identity{
		Email:               "other@example.com",
		Role:                identity.RoleAdmin,
		SecondaryCredential: cred("ADMINOLDOLDOK"),
	})
	if err != nil {
		t.Errorf("Create() with a released credential: %v", err)
	}
}
