package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/marketauth/marketauth/internal/domain/otp"
)

// CodeStore implements otp.Store on a SQLite database. The primary key on
// identity_id enforces the one-live-code-per-identity rule; the upsert
// replaces any existing row atomically, so issuance races never surface as
// conflicts to the caller.
type CodeStore struct {
	db *sql.DB
}

// NewCodeStore creates a CodeStore on the given database.
func NewCodeStore(db *sql.DB) *CodeStore {
	return &CodeStore{db: db}
}

// Upsert stores the code for the identity, replacing any existing one.
func (s *CodeStore) Upsert(ctx context.Context, code otp.Code) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO verification_codes (identity_id, code, expires_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (identity_id) DO UPDATE
		 SET code = excluded.code, expires_at = excluded.expires_at`,
		code.IdentityID, code.Value, code.ExpiresAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("upsert verification code: %w", err)
	}
	return nil
}

// Consume deletes the identity's code if it matches value exactly and
// expires after now, reporting whether it did. The conditional DELETE is a
// single atomic statement: of two racing consumers at most one deletes the
// row and observes true.
func (s *CodeStore) Consume(ctx context.Context, identityID int64, value string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM verification_codes
		 WHERE identity_id = ? AND code = ? AND expires_at > ?`,
		identityID, value, now.UTC().UnixNano())
	if err != nil {
		return false, fmt.Errorf("consume verification code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read rows affected: %w", err)
	}
	return affected > 0, nil
}

// PruneExpired removes codes whose expiry has passed. Expired codes are
// already unverifiable; pruning just keeps the table small.
func (s *CodeStore) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE expires_at <= ?`, now.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune expired codes: %w", err)
	}
	return res.RowsAffected()
}
