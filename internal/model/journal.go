package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusDraft  EntryStatus = "draft"
	StatusPosted EntryStatus = "posted"
	StatusVoid   EntryStatus = "void"
)

// EntrySource records what produced a journal entry.
type EntrySource string

const (
	SourceManual     EntrySource = "manual"
	SourceBankImport EntrySource = "bank_import"
	SourcePOS        EntrySource = "pos"
	SourceSystem     EntrySource = "system"
)

// JournalEntry is the header of a balanced set of postings.
// For a posted entry, the sum of line debits equals the sum of line credits
// equals TotalDebit.
type JournalEntry struct {
	ID          string
	EntryNumber string // "YYYY-MM-NNN", sequential per month
	EntryDate   time.Time
	Status      EntryStatus
	Source      EntrySource
	Description string
	TotalDebit  decimal.Decimal
	// IdempotencyKey dedupes retried posting requests. Empty for entries
	// created outside the acceptance workflow.
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// JournalEntryLine is one side of a posting. Exactly one of Debit/Credit
// carries the amount; both are non-negative. Lines are immutable once the
// parent entry is posted and survive voiding for audit.
type JournalEntryLine struct {
	ID             string
	JournalEntryID string
	AccountID      string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	ClassID        string // optional reporting dimension
	VendorID       string // optional reporting dimension
}

// LineInput is a line as supplied to entry creation, before ids are assigned.
type LineInput struct {
	AccountID string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	ClassID   string
	VendorID  string
}
