package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the acceptance-workflow state of a raw transaction.
type TransactionStatus string

const (
	TxnPending  TransactionStatus = "pending"
	TxnAccepted TransactionStatus = "accepted"
	TxnExcluded TransactionStatus = "excluded"
)

// ManualSource is the Source value for transactions injected by hand rather
// than delivered by a bank feed.
const ManualSource = "manual"

// Transaction is a raw bank-feed (or manually injected) record awaiting
// acceptance into the ledger. Rows are never deleted; they only transition.
type Transaction struct {
	ID          string
	Date        time.Time
	Description string
	// Amount is signed from the bank account's perspective: negative means
	// funds left the account, positive means funds entered.
	Amount decimal.Decimal
	// Source is the opaque external bank-account reference, or ManualSource.
	Source string
	Status TransactionStatus
	// AcceptedAccountID is the destination account chosen at acceptance.
	AcceptedAccountID string
	// AcceptedGLAccountID is the bank-side GL account resolved via the
	// BankAccountLink at acceptance.
	AcceptedGLAccountID string
	ClassID             string
	VendorID            string
	ExclusionReason     string
	JournalEntryID      string
	// Version guards concurrent mutation: every state transition does a
	// compare-and-set on it.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BankAccountLink maps one external bank-account reference to the GL account
// that serves as the automatic counter-leg for its transactions.
type BankAccountLink struct {
	Source    string // external bank-account reference
	AccountID string
	CreatedAt time.Time
}
