// Package audit records who changed what and why. Every lifecycle transition
// and bulk correction writes a row here inside the same database transaction
// as the change itself.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Entry is one row in the audit log.
type Entry struct {
	OccurredAt time.Time
	Actor      string
	Action     string
	Entity     string
	EntityID   string
	Reason     string
	Detail     string
}

// Execer is satisfied by both *sql.DB and *sql.Tx, so audit rows can join the
// caller's transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Append writes one audit entry.
func Append(ctx context.Context, e Execer, entry Entry) error {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	_, err := e.ExecContext(ctx,
		`INSERT INTO audit_log (occurred_at, actor, action, entity, entity_id, reason, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.OccurredAt.Format(time.RFC3339), entry.Actor, entry.Action,
		entry.Entity, entry.EntityID, entry.Reason, entry.Detail)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// ListForEntity returns the audit trail for one entity, oldest first.
func ListForEntity(ctx context.Context, db *sql.DB, entity, entityID string) ([]Entry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT occurred_at, actor, action, entity, entity_id, reason, detail
		 FROM audit_log WHERE entity = ? AND entity_id = ? ORDER BY id`,
		entity, entityID)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var occurred string
		if err := rows.Scan(&occurred, &e.Actor, &e.Action, &e.Entity, &e.EntityID, &e.Reason, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, occurred)
		if err != nil {
			return nil, fmt.Errorf("parsing audit timestamp %q: %w", occurred, err)
		}
		e.OccurredAt = ts
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
