package feed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldbooks-dev/fieldbooks/internal/audit"
	"github.com/fieldbooks-dev/fieldbooks/internal/journal"
	"github.com/fieldbooks-dev/fieldbooks/internal/model"
)

// AcceptParams categorizes a pending transaction into the ledger.
type AcceptParams struct {
	AccountID   string // destination account, mandatory
	ClassID     string
	VendorID    string
	Description string // overrides the bank description on the entry if set
}

// Accept resolves a pending transaction into a balanced two-line journal
// entry: one leg on the bank GL account (resolved via BankAccountLink, by the
// transaction's sign), the opposite leg on the destination account. On success
// the transaction is marked accepted with the entry linked.
func (s *Service) Accept(ctx context.Context, txnID string, params AcceptParams) (*model.Transaction, error) {
	if params.AccountID == "" {
		return nil, &model.ValidationError{Field: "account_id", Reason: "account_id is required"}
	}

	var accepted *model.Transaction
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		txn, err := getTxnTx(ctx, tx, txnID)
		if err != nil {
			return err
		}
		if txn.Status != model.TxnPending {
			return &model.InvalidStateError{
				Entity: "transaction", ID: txnID,
				State: string(txn.Status), Operation: "accept",
			}
		}

		if _, err := activeAccountTx(ctx, tx, params.AccountID); err != nil {
			return err
		}

		// No implicit default account: an unlinked source is an error.
		var glAccountID string
		err = tx.QueryRowContext(ctx,
			`SELECT account_id FROM bank_account_links WHERE source = ?`, txn.Source,
		).Scan(&glAccountID)
		if errors.Is(err, sql.ErrNoRows) {
			return &model.UnlinkedBankSourceError{Source: txn.Source}
		}
		if err != nil {
			return fmt.Errorf("resolving bank link: %w", err)
		}

		description := txn.Description
		if params.Description != "" {
			description = params.Description
		}

		// Negative amount: funds left the bank account, so credit the bank
		// GL account and debit the destination. Positive is the mirror.
		magnitude := txn.Amount.Abs()
		var lines []model.LineInput
		if txn.Amount.IsNegative() {
			lines = []model.LineInput{
				{AccountID: params.AccountID, Debit: magnitude, ClassID: params.ClassID, VendorID: params.VendorID},
				{AccountID: glAccountID, Credit: magnitude},
			}
		} else {
			lines = []model.LineInput{
				{AccountID: glAccountID, Debit: magnitude},
				{AccountID: params.AccountID, Credit: magnitude, ClassID: params.ClassID, VendorID: params.VendorID},
			}
		}

		source := model.SourceBankImport
		if txn.Source == model.ManualSource {
			source = model.SourceManual
		}

		// The key carries the row version so a re-accept after unaccept posts
		// a fresh entry while a blind retry of the same accept replays.
		entry, err := s.journal.CreatePostedTx(ctx, tx, journal.CreateParams{
			EntryDate:      txn.Date,
			Lines:          lines,
			Source:         source,
			Description:    description,
			IdempotencyKey: fmt.Sprintf("txn:%s:%d", txn.ID, txn.Version),
		})
		if err != nil {
			return err
		}

		err = s.applyTransition(ctx, tx, txn.ID, model.TxnPending, txn.Version, map[string]any{
			"status":                 string(model.TxnAccepted),
			"accepted_account_id":    params.AccountID,
			"accepted_gl_account_id": glAccountID,
			"class_id":               params.ClassID,
			"vendor_id":              params.VendorID,
			"journal_entry_id":       entry.ID,
		})
		if err != nil {
			return err
		}

		if err := audit.Append(ctx, tx, audit.Entry{
			Action: "accept", Entity: "transaction", EntityID: txn.ID,
			Detail: fmt.Sprintf("entry %s, account %s", entry.EntryNumber, params.AccountID),
		}); err != nil {
			return err
		}

		accepted, err = getTxnTx(ctx, tx, txnID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// Exclude moves a pending transaction out of consideration, recording why.
// No journal entry is created.
func (s *Service) Exclude(ctx context.Context, txnID, reason string) error {
	if reason == "" {
		return &model.ValidationError{Field: "reason", Reason: "exclusion requires a reason"}
	}
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		txn, err := getTxnTx(ctx, tx, txnID)
		if err != nil {
			return err
		}
		if txn.Status != model.TxnPending {
			return &model.InvalidStateError{
				Entity: "transaction", ID: txnID,
				State: string(txn.Status), Operation: "exclude",
			}
		}
		err = s.applyTransition(ctx, tx, txn.ID, model.TxnPending, txn.Version, map[string]any{
			"status":           string(model.TxnExcluded),
			"exclusion_reason": reason,
		})
		if err != nil {
			return err
		}
		return audit.Append(ctx, tx, audit.Entry{
			Action: "exclude", Entity: "transaction", EntityID: txn.ID, Reason: reason,
		})
	})
}

// Unaccept returns an accepted transaction to pending, voiding the linked
// journal entry rather than editing its lines. The voided entry stays inert
// in the ledger as audit history.
func (s *Service) Unaccept(ctx context.Context, txnID string) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		txn, err := getTxnTx(ctx, tx, txnID)
		if err != nil {
			return err
		}
		if txn.Status != model.TxnAccepted {
			return &model.InvalidStateError{
				Entity: "transaction", ID: txnID,
				State: string(txn.Status), Operation: "unaccept",
			}
		}

		if txn.JournalEntryID != "" {
			if err := s.journal.VoidTx(ctx, tx, txn.JournalEntryID, "unaccept"); err != nil {
				return err
			}
		}

		err = s.applyTransition(ctx, tx, txn.ID, model.TxnAccepted, txn.Version, map[string]any{
			"status":                 string(model.TxnPending),
			"accepted_account_id":    nil,
			"accepted_gl_account_id": nil,
			"class_id":               "",
			"vendor_id":              "",
			"journal_entry_id":       nil,
		})
		if err != nil {
			return err
		}
		return audit.Append(ctx, tx, audit.Entry{
			Action: "unaccept", Entity: "transaction", EntityID: txn.ID,
			Detail: "voided entry " + txn.JournalEntryID,
		})
	})
}

// Restore returns an excluded transaction to pending, clearing the reason.
func (s *Service) Restore(ctx context.Context, txnID string) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		txn, err := getTxnTx(ctx, tx, txnID)
		if err != nil {
			return err
		}
		if txn.Status != model.TxnExcluded {
			return &model.InvalidStateError{
				Entity: "transaction", ID: txnID,
				State: string(txn.Status), Operation: "restore",
			}
		}
		err = s.applyTransition(ctx, tx, txn.ID, model.TxnExcluded, txn.Version, map[string]any{
			"status":           string(model.TxnPending),
			"exclusion_reason": "",
		})
		if err != nil {
			return err
		}
		return audit.Append(ctx, tx, audit.Entry{
			Action: "restore", Entity: "transaction", EntityID: txn.ID,
		})
	})
}

// applyTransition performs the observe-and-set on a transaction row as a
// compare-and-set against both the expected status and the row version. A
// concurrent writer (another process sharing the database) that slipped in
// between observe and set leaves zero rows affected; the caller then gets
// InvalidState if the state moved on, or ConcurrencyConflict if only the
// version did.
func (s *Service) applyTransition(ctx context.Context, q queryExecer, txnID string, from model.TransactionStatus, version int, fields map[string]any) error {
	setClauses := []string{"version = version + 1", "updated_at = ?"}
	args := []any{s.now().Format(time.RFC3339)}
	for column, value := range fields {
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}
	args = append(args, txnID, string(from), version)

	result, err := q.ExecContext(ctx,
		`UPDATE bank_transactions SET `+strings.Join(setClauses, ", ")+
			` WHERE id = ? AND status = ? AND version = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var status string
	err = q.QueryRowContext(ctx,
		`SELECT status FROM bank_transactions WHERE id = ?`, txnID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.NotFoundError{Entity: "transaction", ID: txnID}
	}
	if err != nil {
		return fmt.Errorf("rechecking transaction: %w", err)
	}
	if status != string(from) {
		return &model.InvalidStateError{
			Entity: "transaction", ID: txnID, State: status, Operation: "transition",
		}
	}
	return &model.ConcurrencyConflictError{Entity: "transaction", ID: txnID}
}

type queryExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
