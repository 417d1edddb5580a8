// Package coa manages the chart of accounts: creation, retyping,
// deactivation, and the bulk reclassification used for chart corrections.
package coa

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldbooks-dev/fieldbooks/internal/audit"
	"github.com/fieldbooks-dev/fieldbooks/internal/model"
	"github.com/fieldbooks-dev/fieldbooks/internal/store"
)

// Service provides chart-of-accounts operations over the ledger store.
type Service struct {
	store *store.Store
	now   func() time.Time
}

// NewService creates a chart-of-accounts Service.
func NewService(s *store.Store) *Service {
	return &Service{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// CreateParams holds the caller-supplied fields for a new account.
// normal_balance is derived from Type and never accepted as input.
type CreateParams struct {
	Code    string
	Name    string
	Type    model.AccountType
	Subtype string
}

// Create adds an account. Fails with DuplicateCode if an active account
// already uses the code.
func (s *Service) Create(ctx context.Context, params CreateParams) (*model.Account, error) {
	if params.Code == "" {
		return nil, &model.ValidationError{Field: "code", Reason: "code is required"}
	}
	if params.Name == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "name is required"}
	}
	if !params.Type.Valid() {
		return nil, &model.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown account type %q", params.Type)}
	}

	now := s.now()
	account := &model.Account{
		ID:            uuid.NewString(),
		Code:          params.Code,
		Name:          params.Name,
		Type:          params.Type,
		Subtype:       params.Subtype,
		NormalBalance: model.NormalBalanceFor(params.Type),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var existingID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM accounts WHERE code = ? AND is_active = 1`, params.Code,
		).Scan(&existingID)
		if err == nil {
			return &model.DuplicateCodeError{Code: params.Code, ExistingID: existingID}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking code %q: %w", params.Code, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO accounts (id, code, name, type, subtype, normal_balance, is_active, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			account.ID, account.Code, account.Name, string(account.Type), account.Subtype,
			string(account.NormalBalance), now.Format(time.RFC3339), now.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("inserting account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateParams holds optional field changes; nil means leave unchanged.
type UpdateParams struct {
	Name    *string
	Type    *model.AccountType
	Subtype *string
}

// Update changes an account's name, type, or subtype. A type change forces
// re-derivation of normal_balance.
func (s *Service) Update(ctx context.Context, accountID string, params UpdateParams) (*model.Account, error) {
	var updated *model.Account
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		account, err := getTx(ctx, tx, accountID)
		if err != nil {
			return err
		}

		if params.Name != nil {
			account.Name = *params.Name
		}
		if params.Type != nil {
			if !params.Type.Valid() {
				return &model.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown account type %q", *params.Type)}
			}
			account.Type = *params.Type
			account.NormalBalance = model.NormalBalanceFor(account.Type)
		}
		if params.Subtype != nil {
			account.Subtype = *params.Subtype
		}
		account.UpdatedAt = s.now()

		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET name = ?, type = ?, subtype = ?, normal_balance = ?, updated_at = ? WHERE id = ?`,
			account.Name, string(account.Type), account.Subtype,
			string(account.NormalBalance), account.UpdatedAt.Format(time.RFC3339), accountID)
		if err != nil {
			return fmt.Errorf("updating account: %w", err)
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deactivate soft-deactivates an account. Fails with HasDependentActivity if
// the account's all-time recomputed balance is non-zero, unless force is set.
// Rows are never hard-deleted.
func (s *Service) Deactivate(ctx context.Context, accountID string, force bool) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		account, err := getTx(ctx, tx, accountID)
		if err != nil {
			return err
		}

		balance, err := allTimeBalanceTx(ctx, tx, account)
		if err != nil {
			return err
		}
		if !balance.IsZero() && !force {
			return &model.HasDependentActivityError{AccountID: accountID, Balance: balance}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET is_active = 0, updated_at = ? WHERE id = ?`,
			s.now().Format(time.RFC3339), accountID)
		if err != nil {
			return fmt.Errorf("deactivating account: %w", err)
		}
		return audit.Append(ctx, tx, audit.Entry{
			Action: "deactivate", Entity: "account", EntityID: accountID,
		})
	})
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := scanAccount(s.store.DB().QueryRowContext(ctx, selectAccount+` WHERE id = ?`, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "account", ID: accountID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return account, nil
}

// GetByCode returns the active account using code.
func (s *Service) GetByCode(ctx context.Context, code string) (*model.Account, error) {
	account, err := scanAccount(s.store.DB().QueryRowContext(ctx,
		selectAccount+` WHERE code = ? AND is_active = 1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "account", ID: code}
	}
	if err != nil {
		return nil, fmt.Errorf("loading account by code: %w", err)
	}
	return account, nil
}

// List returns accounts ordered by code. With activeOnly, deactivated rows
// are skipped.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]model.Account, error) {
	query := selectAccount
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY code`

	rows, err := s.store.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// ByType returns active accounts of the given type, ordered by code.
func (s *Service) ByType(ctx context.Context, accountType model.AccountType) ([]model.Account, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		selectAccount+` WHERE type = ? AND is_active = 1 ORDER BY code`, string(accountType))
	if err != nil {
		return nil, fmt.Errorf("querying accounts by type: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// RefreshCachedBalance recomputes an account's all-time balance and stores it
// in the cached column. The cache is display sugar only; reports never read it.
func (s *Service) RefreshCachedBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		account, err := getTx(ctx, tx, accountID)
		if err != nil {
			return err
		}
		balance, err = allTimeBalanceTx(ctx, tx, account)
		if err != nil {
			return err
		}
		cents, err := model.CentsFromDecimal(balance)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET current_balance_cents = ?, updated_at = ? WHERE id = ?`,
			cents, s.now().Format(time.RFC3339), accountID)
		if err != nil {
			return fmt.Errorf("storing cached balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

const selectAccount = `SELECT id, code, name, type, subtype, normal_balance, is_active, current_balance_cents, created_at, updated_at FROM accounts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (*model.Account, error) {
	var account model.Account
	var isActive int
	var balanceCents int64
	var createdAt, updatedAt string
	err := r.Scan(&account.ID, &account.Code, &account.Name, &account.Type,
		&account.Subtype, &account.NormalBalance, &isActive, &balanceCents,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	account.IsActive = isActive != 0
	account.CurrentBalance = model.DecimalFromCents(balanceCents)
	if account.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if account.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &account, nil
}

func getTx(ctx context.Context, tx *sql.Tx, accountID string) (*model.Account, error) {
	account, err := scanAccount(tx.QueryRowContext(ctx, selectAccount+` WHERE id = ?`, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "account", ID: accountID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return account, nil
}

// allTimeBalanceTx recomputes the account's cumulative balance from posted
// lines, signed by the account type's convention.
func allTimeBalanceTx(ctx context.Context, tx *sql.Tx, account *model.Account) (decimal.Decimal, error) {
	var debits, credits int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(l.debit_cents), 0), COALESCE(SUM(l.credit_cents), 0)
		 FROM journal_entry_lines l
		 JOIN journal_entries e ON e.id = l.journal_entry_id
		 WHERE l.account_id = ? AND e.status = 'posted'`,
		account.ID).Scan(&debits, &credits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing lines for account %s: %w", account.ID, err)
	}

	var cents int64
	if model.NormalBalanceFor(account.Type) == model.NormalDebit {
		cents = debits - credits
	} else {
		cents = credits - debits
	}
	return model.DecimalFromCents(cents), nil
}
