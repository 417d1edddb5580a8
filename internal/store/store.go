// Package store owns the SQLite database behind the ledger: connection
// lifecycle, pragmas, schema, and the transaction boundary every mutating
// operation runs inside.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// Store wraps the ledger database. SQLite runs in WAL mode with a single
// writer connection, so transactions serialize naturally and readers are
// never blocked.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at path. Safe to call repeatedly;
// pragmas and schema application are idempotent. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	// Transactions start as writers immediately, so a competing process
	// waits on busy_timeout instead of failing mid-transaction on the
	// read-to-write lock upgrade.
	db, err := sql.Open("sqlite3", "file:"+path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent mutation attempts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn inside one database transaction. Commit on nil, rollback on
// error. This is the atomicity boundary for every ledger-mutating operation:
// header, lines, and any transaction-status update land together or not at all.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("executing %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading user_version: %w", err)
	}
	if version < currentSchemaVersion {
		stmt := fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("setting user_version: %w", err)
		}
	}
	return nil
}
