// Package sqlite provides SQLite-backed implementations of the outbound
// stores, using the pure-Go modernc.org/sqlite driver (no cgo).
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS identities (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	email                TEXT    NOT NULL UNIQUE COLLATE NOCASE,
	role                 TEXT    NOT NULL,
	password_hash        TEXT    NOT NULL DEFAULT '',
	secondary_credential TEXT             UNIQUE,
	token_version        INTEGER NOT NULL DEFAULT 1,
	admin_approval       INTEGER NOT NULL DEFAULT 0,
	active               INTEGER NOT NULL DEFAULT 1,
	verified             INTEGER NOT NULL DEFAULT 0,
	created_at           TEXT    NOT NULL,
	updated_at           TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS verification_codes (
	identity_id INTEGER PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
	code        TEXT    NOT NULL,
	expires_at  INTEGER NOT NULL
);
`

// Open opens (creating if necessary) the database at path, enables WAL and
// foreign keys, and applies the schema.
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness-constraint
// failure. The primary result code is in the low byte of the extended code.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
