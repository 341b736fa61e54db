package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/marketauth/marketauth/internal/domain/identity"
)

// IdentityStore implements identity.Store on a SQLite database. Uniqueness
// of email and secondary credential is enforced by the schema; violations
// surface as identity.ErrConflict.
type IdentityStore struct {
	db *sql.DB
}

// NewIdentityStore creates an IdentityStore on the given database.
func NewIdentityStore(db *sql.DB) *IdentityStore {
	return &IdentityStore{db: db}
}

const identityColumns = `id, email, role, password_hash, secondary_credential,
	token_version, admin_approval, active, verified, created_at, updated_at`

// FindByEmail retrieves an identity by email (case-insensitive).
func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE email = ?`, email)
	return scanIdentity(row)
}

// FindByID retrieves an identity by numeric id.
func (s *IdentityStore) FindByID(ctx context.Context, id int64) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	return scanIdentity(row)
}

// FindByRole retrieves any identity holding the role.
func (s *IdentityStore) FindByRole(ctx context.Context, role identity.Role) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE role = ? LIMIT 1`, string(role))
	return scanIdentity(row)
}

// Create persists a new identity and assigns its ID.
func (s *IdentityStore) Create(ctx context.Context, ident *identity.Identity) error {
	now := time.Now().UTC()
	if ident.CreatedAt.IsZero() {
		ident.CreatedAt = now
	}
	ident.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (email, role, password_hash, secondary_credential,
			token_version, admin_approval, active, verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ident.Email, string(ident.Role), ident.PasswordHash, credArg(ident),
		ident.TokenVersion, ident.AdminApproval, ident.Active, ident.Verified,
		formatTime(ident.CreatedAt), formatTime(ident.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrConflict
		}
		return fmt.Errorf("insert identity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read assigned id: %w", err)
	}
	ident.ID = id
	return nil
}

// Update persists every mutable field atomically in a single statement.
func (s *IdentityStore) Update(ctx context.Context, ident *identity.Identity) error {
	ident.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE identities
		 SET email = ?, role = ?, password_hash = ?, secondary_credential = ?,
		     token_version = ?, admin_approval = ?, active = ?, verified = ?,
		     updated_at = ?
		 WHERE id = ?`,
		ident.Email, string(ident.Role), ident.PasswordHash, credArg(ident),
		ident.TokenVersion, ident.AdminApproval, ident.Active, ident.Verified,
		formatTime(ident.UpdatedAt), ident.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrConflict
		}
		return fmt.Errorf("update identity: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if affected == 0 {
		return identity.ErrStoreNotFound
	}
	return nil
}

// scanIdentity reads one identity row, mapping sql.ErrNoRows onto the
// store sentinel.
func scanIdentity(row *sql.Row) (*identity.Identity, error) {
	var (
		ident     identity.Identity
		role      string
		cred      sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(&ident.ID, &ident.Email, &role, &ident.PasswordHash, &cred,
		&ident.TokenVersion, &ident.AdminApproval, &ident.Active, &ident.Verified,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan identity: %w", err)
	}

	ident.Role = identity.Role(role)
	if cred.Valid {
		value := cred.String
		ident.SecondaryCredential = &value
	}
	if ident.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if ident.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &ident, nil
}

// credArg maps the optional secondary credential onto a nullable column.
func credArg(ident *identity.Identity) any {
	if ident.SecondaryCredential == nil {
		return nil
	}
	return *ident.SecondaryCredential
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}
