package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	tables := []string{
		"accounts", "journal_entries", "journal_entry_lines",
		"bank_transactions", "bank_account_links", "audit_log",
	}
	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var version int
	require.NoError(t, s2.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

// Two handles on the same file both mutate successfully: the immediate
// write lock is taken per transaction, not held for the connection's life.
func TestOpen_TwoHandlesShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	defer s1.Close()
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	insert := func(s *Store, entityID string) error {
		return s.WithTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO audit_log (occurred_at, action, entity, entity_id)
				 VALUES ('2025-01-01T00:00:00Z', 'test', 'x', ?)`, entityID)
			return err
		})
	}
	require.NoError(t, insert(s1, "1"))
	require.NoError(t, insert(s2, "2"))

	var count int
	require.NoError(t, s1.DB().QueryRow("SELECT COUNT(*) FROM audit_log").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer s.Close()

	boom := errors.New("boom")
	err = s.WithTx(context.Background(), func(tx *sql.Tx) error {
		_, execErr := tx.Exec(
			`INSERT INTO audit_log (occurred_at, action, entity, entity_id) VALUES ('2025-01-01T00:00:00Z', 'test', 'x', '1')`)
		require.NoError(t, execErr)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM audit_log").Scan(&count))
	assert.Zero(t, count, "rolled-back insert must not persist")
}

func TestWithTx_Commit(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer s.Close()

	err = s.WithTx(context.Background(), func(tx *sql.Tx) error {
		_, execErr := tx.Exec(
			`INSERT INTO audit_log (occurred_at, action, entity, entity_id) VALUES ('2025-01-01T00:00:00Z', 'test', 'x', '1')`)
		return execErr
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM audit_log").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestActiveCodeUniqueness(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer s.Close()

	insert := `INSERT INTO accounts (id, code, name, type, normal_balance, is_active, created_at, updated_at)
	           VALUES (?, '1010', 'Checking', 'asset', 'debit', ?, '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`

	_, err = s.DB().Exec(insert, "a1", 1)
	require.NoError(t, err)

	// Same code on a second active row violates the partial unique index.
	_, err = s.DB().Exec(insert, "a2", 1)
	require.Error(t, err)

	// An inactive row may reuse the code.
	_, err = s.DB().Exec(insert, "a3", 0)
	require.NoError(t, err)
}
