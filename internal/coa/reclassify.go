package coa

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fieldbooks-dev/fieldbooks/internal/audit"
	"github.com/fieldbooks-dev/fieldbooks/internal/model"
)

// Change retypes one account, addressed by code.
type Change struct {
	Code    string
	NewType model.AccountType
	// NewSubtype is applied as given; an empty string clears the subtype.
	NewSubtype string
}

// RowResult reports the outcome of one Change within a bulk reclassification.
type RowResult struct {
	Code    string
	Applied bool
	Err     error
}

// Reclassify retypes a set of accounts in one database transaction, recording
// an audit row per applied change. Individual rows degrade per-row: an unknown
// code or invalid type is reported in its RowResult and skipped while the rest
// of the batch proceeds. Only an infrastructure failure rolls the whole batch
// back.
func (s *Service) Reclassify(ctx context.Context, changes []Change, actor, reason string) ([]RowResult, error) {
	if reason == "" {
		return nil, &model.ValidationError{Field: "reason", Reason: "bulk reclassification requires a reason"}
	}

	results := make([]RowResult, len(changes))
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		for i, change := range changes {
			results[i] = RowResult{Code: change.Code}

			if !change.NewType.Valid() {
				results[i].Err = &model.ValidationError{
					Field:  "type",
					Reason: fmt.Sprintf("unknown account type %q", change.NewType),
				}
				continue
			}

			account, err := scanAccount(tx.QueryRowContext(ctx,
				selectAccount+` WHERE code = ? AND is_active = 1`, change.Code))
			if errors.Is(err, sql.ErrNoRows) {
				results[i].Err = &model.NotFoundError{Entity: "account", ID: change.Code}
				continue
			}
			if err != nil {
				return fmt.Errorf("loading account %q: %w", change.Code, err)
			}

			oldType := account.Type
			normal := model.NormalBalanceFor(change.NewType)
			_, err = tx.ExecContext(ctx,
				`UPDATE accounts SET type = ?, subtype = ?, normal_balance = ?, updated_at = ? WHERE id = ?`,
				string(change.NewType), change.NewSubtype, string(normal),
				s.now().Format(time.RFC3339), account.ID)
			if err != nil {
				return fmt.Errorf("retyping account %q: %w", change.Code, err)
			}

			if err := audit.Append(ctx, tx, audit.Entry{
				Actor:    actor,
				Action:   "reclassify",
				Entity:   "account",
				EntityID: account.ID,
				Reason:   reason,
				Detail:   fmt.Sprintf("%s: %s -> %s", change.Code, oldType, change.NewType),
			}); err != nil {
				return err
			}
			results[i].Applied = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
