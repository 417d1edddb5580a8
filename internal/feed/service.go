// Package feed is the transaction acceptance workflow: it turns raw bank-feed
// (and manually injected) transactions into posted journal entries. States are
// pending, accepted, and excluded; rows only ever transition, never disappear.
package feed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldbooks-dev/fieldbooks/internal/audit"
	"github.com/fieldbooks-dev/fieldbooks/internal/cache"
	"github.com/fieldbooks-dev/fieldbooks/internal/journal"
	"github.com/fieldbooks-dev/fieldbooks/internal/model"
	"github.com/fieldbooks-dev/fieldbooks/internal/store"
)

const dateFormat = "2006-01-02"

// linkCacheTTL bounds how long a resolved bank link may be served without
// rechecking the database on the read path. Mutations always hit the database.
const linkCacheTTL = 5 * time.Minute

// Service drives the acceptance workflow over the ledger store.
type Service struct {
	store   *store.Store
	journal *journal.Service
	links   *cache.TTL[string, string]
	now     func() time.Time
}

// NewService creates a feed Service. A nil clock uses the system clock for
// the link cache.
func NewService(s *store.Store, j *journal.Service, clock cache.Clock) *Service {
	return &Service{
		store:   s,
		journal: j,
		links:   cache.NewTTL[string, string](linkCacheTTL, clock),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// LinkBankSource maps an external bank-account reference to the GL account
// that serves as its automatic counter-leg. Re-linking replaces the mapping.
func (s *Service) LinkBankSource(ctx context.Context, source, accountID string) error {
	if source == "" {
		return &model.ValidationError{Field: "source", Reason: "source is required"}
	}
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		account, err := activeAccountTx(ctx, tx, accountID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bank_account_links (source, account_id, created_at) VALUES (?, ?, ?)
			 ON CONFLICT(source) DO UPDATE SET account_id = excluded.account_id`,
			source, account.ID, s.now().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("linking bank source: %w", err)
		}
		return audit.Append(ctx, tx, audit.Entry{
			Action: "link", Entity: "bank_source", EntityID: source,
			Detail: "account " + account.ID,
		})
	})
	if err != nil {
		return err
	}
	s.links.Invalidate(source)
	return nil
}

// ResolveLink returns the GL account linked to a bank source. Results are
// TTL-cached; LinkBankSource invalidates.
func (s *Service) ResolveLink(ctx context.Context, source string) (string, error) {
	if accountID, ok := s.links.Get(source); ok {
		return accountID, nil
	}
	var accountID string
	err := s.store.DB().QueryRowContext(ctx,
		`SELECT account_id FROM bank_account_links WHERE source = ?`, source).Scan(&accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &model.UnlinkedBankSourceError{Source: source}
	}
	if err != nil {
		return "", fmt.Errorf("resolving bank link: %w", err)
	}
	s.links.Set(source, accountID)
	return accountID, nil
}

// IngestRow is one raw transaction delivered by a bank sync.
type IngestRow struct {
	Date        time.Time
	Description string
	// Amount is signed from the bank account's perspective.
	Amount decimal.Decimal
	Source string // opaque external bank-account reference
}

// Ingest stores raw bank-feed rows as pending transactions. Acceptance later
// requires a BankAccountLink for each row's source; ingestion itself does not.
func (s *Service) Ingest(ctx context.Context, rows []IngestRow) ([]model.Transaction, error) {
	txns := make([]model.Transaction, 0, len(rows))
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, row := range rows {
			if row.Source == "" {
				return &model.ValidationError{Field: "source", Reason: "source is required"}
			}
			txn, err := s.insertPendingTx(ctx, tx, row.Date, row.Description, row.Amount, row.Source)
			if err != nil {
				return err
			}
			txns = append(txns, *txn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// ManualKind distinguishes the two directions of a hand-entered transaction.
type ManualKind string

const (
	ManualDeposit ManualKind = "deposit"
	ManualPayment ManualKind = "payment"
)

// CreateManual injects a synthetic pending transaction not backed by any bank
// source. It enters the same workflow as bank-sourced records. Amount is a
// positive magnitude; the kind sets the sign.
func (s *Service) CreateManual(ctx context.Context, date time.Time, description string, amount decimal.Decimal, kind ManualKind) (*model.Transaction, error) {
	if !amount.IsPositive() {
		return nil, &model.ValidationError{Field: "amount", Reason: "amount must be positive"}
	}
	var signed decimal.Decimal
	switch kind {
	case ManualDeposit:
		signed = amount
	case ManualPayment:
		signed = amount.Neg()
	default:
		return nil, &model.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown manual transaction type %q", kind)}
	}

	var txn *model.Transaction
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		txn, txErr = s.insertPendingTx(ctx, tx, date, description, signed, model.ManualSource)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *Service) insertPendingTx(ctx context.Context, tx *sql.Tx, date time.Time, description string, amount decimal.Decimal, source string) (*model.Transaction, error) {
	cents, err := model.CentsFromDecimal(amount)
	if err != nil {
		return nil, err
	}
	now := s.now()
	txn := &model.Transaction{
		ID:          uuid.NewString(),
		Date:        date,
		Description: description,
		Amount:      amount,
		Source:      source,
		Status:      model.TxnPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bank_transactions (id, txn_date, description, amount_cents, source, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', 0, ?, ?)`,
		txn.ID, date.Format(dateFormat), description, cents, source,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("inserting transaction: %w", err)
	}
	return txn, nil
}

// Get returns a transaction by id.
func (s *Service) Get(ctx context.Context, txnID string) (*model.Transaction, error) {
	txn, err := scanTxn(s.store.DB().QueryRowContext(ctx, selectTxn+` WHERE id = ?`, txnID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "transaction", ID: txnID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading transaction: %w", err)
	}
	return txn, nil
}

// ListByStatus returns transactions in a given workflow state, oldest first.
func (s *Service) ListByStatus(ctx context.Context, status model.TransactionStatus) ([]model.Transaction, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		selectTxn+` WHERE status = ? ORDER BY txn_date, created_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

const selectTxn = `SELECT id, txn_date, description, amount_cents, source, status,
	COALESCE(accepted_account_id, ''), COALESCE(accepted_gl_account_id, ''),
	class_id, vendor_id, exclusion_reason, COALESCE(journal_entry_id, ''),
	version, created_at, updated_at
	FROM bank_transactions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTxn(r rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var txnDate, createdAt, updatedAt string
	var cents int64
	err := r.Scan(&txn.ID, &txnDate, &txn.Description, &cents, &txn.Source,
		&txn.Status, &txn.AcceptedAccountID, &txn.AcceptedGLAccountID,
		&txn.ClassID, &txn.VendorID, &txn.ExclusionReason, &txn.JournalEntryID,
		&txn.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	txn.Amount = model.DecimalFromCents(cents)
	if txn.Date, err = time.Parse(dateFormat, txnDate); err != nil {
		return nil, fmt.Errorf("parsing transaction date %q: %w", txnDate, err)
	}
	if txn.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if txn.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &txn, nil
}

func getTxnTx(ctx context.Context, tx *sql.Tx, txnID string) (*model.Transaction, error) {
	txn, err := scanTxn(tx.QueryRowContext(ctx, selectTxn+` WHERE id = ?`, txnID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "transaction", ID: txnID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading transaction: %w", err)
	}
	return txn, nil
}

func activeAccountTx(ctx context.Context, tx *sql.Tx, accountID string) (*model.Account, error) {
	var id string
	var isActive int
	err := tx.QueryRowContext(ctx,
		`SELECT id, is_active FROM accounts WHERE id = ?`, accountID).Scan(&id, &isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "account", ID: accountID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	if isActive == 0 {
		return nil, &model.ValidationError{
			Field:  "account_id",
			Reason: fmt.Sprintf("account %s is deactivated", accountID),
		}
	}
	return &model.Account{ID: id, IsActive: true}, nil
}
