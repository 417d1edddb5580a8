// Package journal persists balanced journal entries and enforces the posting
// lifecycle: draft -> posted -> void, with posted -> void allowed directly and
// nothing else. Voided entries keep their lines for audit; the status filter
// keeps them out of every balance.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldbooks-dev/fieldbooks/internal/audit"
	"github.com/fieldbooks-dev/fieldbooks/internal/entrynum"
	"github.com/fieldbooks-dev/fieldbooks/internal/model"
	"github.com/fieldbooks-dev/fieldbooks/internal/store"
)

const dateFormat = "2006-01-02"

// Service provides journal entry persistence over the ledger store.
type Service struct {
	store *store.Store
	now   func() time.Time
}

// NewService creates a journal Service.
func NewService(s *store.Store) *Service {
	return &Service{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// CreateParams holds the inputs for creating a journal entry.
type CreateParams struct {
	EntryDate   time.Time
	Lines       []model.LineInput
	Source      model.EntrySource
	Description string
	// IdempotencyKey, when set, makes retried creation return the original
	// entry instead of double-posting. The acceptance workflow derives it
	// from the originating transaction id.
	IdempotencyKey string
}

// CreatePosted validates, writes the header and all lines in one transaction,
// and marks the entry posted.
func (s *Service) CreatePosted(ctx context.Context, params CreateParams) (*model.JournalEntry, error) {
	var entry *model.JournalEntry
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		entry, txErr = s.CreatePostedTx(ctx, tx, params)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreatePostedTx is CreatePosted within a caller-owned transaction, so the
// acceptance workflow can commit the entry and the transaction-status update
// together.
func (s *Service) CreatePostedTx(ctx context.Context, tx *sql.Tx, params CreateParams) (*model.JournalEntry, error) {
	return s.createTx(ctx, tx, params, model.StatusPosted)
}

// CreateDraft writes an entry in draft status. Drafts obey the same balance
// and line invariants as posted entries; only their status differs.
func (s *Service) CreateDraft(ctx context.Context, params CreateParams) (*model.JournalEntry, error) {
	var entry *model.JournalEntry
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		entry, txErr = s.createTx(ctx, tx, params, model.StatusDraft)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) createTx(ctx context.Context, tx *sql.Tx, params CreateParams, status model.EntryStatus) (*model.JournalEntry, error) {
	// Idempotent replay: a key we have already posted returns the original.
	if params.IdempotencyKey != "" {
		existing, err := getByKeyTx(ctx, tx, params.IdempotencyKey)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	totalDebit, _, err := ValidateLines(params.Lines)
	if err != nil {
		return nil, err
	}
	for _, line := range params.Lines {
		known, err := accountExistsTx(ctx, tx, line.AccountID)
		if err != nil {
			return nil, err
		}
		if !known {
			return nil, &model.NotFoundError{Entity: "account", ID: line.AccountID}
		}
	}
	if params.Source == "" {
		return nil, &model.ValidationError{Field: "source", Reason: "source is required"}
	}

	seq, err := nextSeqTx(ctx, tx, params.EntryDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	totalCents, err := model.CentsFromDecimal(totalDebit)
	if err != nil {
		return nil, err
	}

	entry := &model.JournalEntry{
		ID:             uuid.NewString(),
		EntryNumber:    entrynum.ForDate(params.EntryDate, seq),
		EntryDate:      params.EntryDate,
		Status:         status,
		Source:         params.Source,
		Description:    params.Description,
		TotalDebit:     totalDebit,
		IdempotencyKey: params.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var key any
	if entry.IdempotencyKey != "" {
		key = entry.IdempotencyKey
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO journal_entries (id, entry_number, entry_date, status, source, description, total_debit_cents, idempotency_key, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.EntryNumber, entry.EntryDate.Format(dateFormat),
		string(entry.Status), string(entry.Source), entry.Description,
		totalCents, key, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("inserting journal entry: %w", err)
	}

	for _, line := range params.Lines {
		debitCents, err := model.CentsFromDecimal(line.Debit)
		if err != nil {
			return nil, err
		}
		creditCents, err := model.CentsFromDecimal(line.Credit)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO journal_entry_lines (id, journal_entry_id, account_id, debit_cents, credit_cents, class_id, vendor_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), entry.ID, line.AccountID, debitCents, creditCents,
			line.ClassID, line.VendorID)
		if err != nil {
			return nil, fmt.Errorf("inserting journal entry line: %w", err)
		}
	}

	return entry, nil
}

// Post transitions a draft entry to posted after re-checking its balance from
// the stored lines.
func (s *Service) Post(ctx context.Context, entryID string) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		entry, err := getTx(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != model.StatusDraft {
			return &model.InvalidStateError{
				Entity: "journal entry", ID: entryID,
				State: string(entry.Status), Operation: "post",
			}
		}

		var debits, credits int64
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(debit_cents), 0), COALESCE(SUM(credit_cents), 0)
			 FROM journal_entry_lines WHERE journal_entry_id = ?`, entryID,
		).Scan(&debits, &credits)
		if err != nil {
			return fmt.Errorf("summing lines: %w", err)
		}
		if debits != credits {
			return &model.UnbalancedEntryError{
				TotalDebit:  model.DecimalFromCents(debits),
				TotalCredit: model.DecimalFromCents(credits),
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE journal_entries SET status = ?, updated_at = ? WHERE id = ?`,
			string(model.StatusPosted), s.now().Format(time.RFC3339), entryID)
		if err != nil {
			return fmt.Errorf("posting entry: %w", err)
		}
		return audit.Append(ctx, tx, audit.Entry{
			Action: "post", Entity: "journal_entry", EntityID: entryID,
		})
	})
}

// Void marks an entry void. Lines stay in place for audit; aggregation skips
// them through the status filter.
func (s *Service) Void(ctx context.Context, entryID, reason string) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		return s.VoidTx(ctx, tx, entryID, reason)
	})
}

// VoidTx is Void within a caller-owned transaction.
func (s *Service) VoidTx(ctx context.Context, tx *sql.Tx, entryID, reason string) error {
	entry, err := getTx(ctx, tx, entryID)
	if err != nil {
		return err
	}
	if entry.Status == model.StatusVoid {
		return &model.InvalidStateError{
			Entity: "journal entry", ID: entryID,
			State: string(model.StatusVoid), Operation: "void",
		}
	}
	if entry.Status != model.StatusPosted {
		return &model.InvalidStateError{
			Entity: "journal entry", ID: entryID,
			State: string(entry.Status), Operation: "void",
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE journal_entries SET status = ?, updated_at = ? WHERE id = ?`,
		string(model.StatusVoid), s.now().Format(time.RFC3339), entryID)
	if err != nil {
		return fmt.Errorf("voiding entry: %w", err)
	}
	return audit.Append(ctx, tx, audit.Entry{
		Action: "void", Entity: "journal_entry", EntityID: entryID, Reason: reason,
	})
}

// Get returns an entry by id.
func (s *Service) Get(ctx context.Context, entryID string) (*model.JournalEntry, error) {
	return getRow(ctx, s.store.DB().QueryRowContext(ctx,
		selectEntry+` WHERE id = ?`, entryID), entryID)
}

// Lines returns an entry's lines in insertion order.
func (s *Service) Lines(ctx context.Context, entryID string) ([]model.JournalEntryLine, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		`SELECT id, journal_entry_id, account_id, debit_cents, credit_cents, class_id, vendor_id
		 FROM journal_entry_lines WHERE journal_entry_id = ? ORDER BY rowid`, entryID)
	if err != nil {
		return nil, fmt.Errorf("querying lines: %w", err)
	}
	defer rows.Close()

	var lines []model.JournalEntryLine
	for rows.Next() {
		var line model.JournalEntryLine
		var debitCents, creditCents int64
		if err := rows.Scan(&line.ID, &line.JournalEntryID, &line.AccountID,
			&debitCents, &creditCents, &line.ClassID, &line.VendorID); err != nil {
			return nil, fmt.Errorf("scanning line: %w", err)
		}
		line.Debit = model.DecimalFromCents(debitCents)
		line.Credit = model.DecimalFromCents(creditCents)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ListByDateRange returns entries with entry_date in [start, end], any status,
// ordered by date then entry number.
func (s *Service) ListByDateRange(ctx context.Context, start, end time.Time) ([]model.JournalEntry, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		selectEntry+` WHERE entry_date >= ? AND entry_date <= ? ORDER BY entry_date, entry_number`,
		start.Format(dateFormat), end.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

const selectEntry = `SELECT id, entry_number, entry_date, status, source, description, total_debit_cents, COALESCE(idempotency_key, ''), created_at, updated_at FROM journal_entries`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	var entryDate, createdAt, updatedAt string
	var totalCents int64
	err := r.Scan(&entry.ID, &entry.EntryNumber, &entryDate, &entry.Status,
		&entry.Source, &entry.Description, &totalCents, &entry.IdempotencyKey,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	entry.EntryDate, err = time.Parse(dateFormat, entryDate)
	if err != nil {
		return nil, fmt.Errorf("parsing entry date %q: %w", entryDate, err)
	}
	entry.TotalDebit = model.DecimalFromCents(totalCents)
	if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if entry.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &entry, nil
}

func getRow(_ context.Context, row *sql.Row, entryID string) (*model.JournalEntry, error) {
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "journal entry", ID: entryID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading journal entry: %w", err)
	}
	return entry, nil
}

func getTx(ctx context.Context, tx *sql.Tx, entryID string) (*model.JournalEntry, error) {
	return getRow(ctx, tx.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, entryID), entryID)
}

func getByKeyTx(ctx context.Context, tx *sql.Tx, key string) (*model.JournalEntry, error) {
	entry, err := scanEntry(tx.QueryRowContext(ctx, selectEntry+` WHERE idempotency_key = ?`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "journal entry", ID: key}
	}
	if err != nil {
		return nil, fmt.Errorf("loading journal entry by key: %w", err)
	}
	return entry, nil
}

func accountExistsTx(ctx context.Context, tx *sql.Tx, accountID string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = ?`, accountID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking account %s: %w", accountID, err)
	}
	return true, nil
}

// nextSeqTx returns the next entry sequence for the month of date. The
// sequence suffix is compared numerically, not as text: "2025-03-1000" must
// follow "2025-03-999".
func nextSeqTx(ctx context.Context, tx *sql.Tx, date time.Time) (int, error) {
	prefix := entrynum.MonthPrefix(date)
	var last sql.NullInt64
	err := tx.QueryRowContext(ctx,
		`SELECT MAX(CAST(substr(entry_number, length(?) + 1) AS INTEGER))
		 FROM journal_entries WHERE entry_number LIKE ? || '%'`,
		prefix, prefix).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("finding last entry number: %w", err)
	}
	if !last.Valid {
		return 1, nil
	}
	return int(last.Int64) + 1, nil
}

func isNotFound(err error) bool {
	var nf *model.NotFoundError
	return errors.As(err, &nf)
}
