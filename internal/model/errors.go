package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Typed errors for every ledger-mutating operation. Each carries enough
// structure (ids, expected vs actual sums) for a caller to act on; nothing
// is ever silently coerced or auto-balanced.

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// UnbalancedEntryError reports a journal entry whose debits and credits differ.
type UnbalancedEntryError struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("unbalanced entry: debits (%s) != credits (%s)",
		e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2))
}

// DuplicateCodeError reports an account code already used by an active account.
type DuplicateCodeError struct {
	Code       string
	ExistingID string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("duplicate account code %q (account %s)", e.Code, e.ExistingID)
}

// HasDependentActivityError reports a deactivation attempt on an account whose
// all-time balance is non-zero.
type HasDependentActivityError struct {
	AccountID string
	Balance   decimal.Decimal
}

func (e *HasDependentActivityError) Error() string {
	return fmt.Sprintf("account %s has a non-zero balance (%s); pass force to deactivate",
		e.AccountID, e.Balance.StringFixed(2))
}

// UnlinkedBankSourceError reports a transaction whose external bank-account
// reference has no BankAccountLink.
type UnlinkedBankSourceError struct {
	Source string
}

func (e *UnlinkedBankSourceError) Error() string {
	return fmt.Sprintf("bank source %q has no linked GL account", e.Source)
}

// InvalidStateError reports a lifecycle transition that is not legal from the
// entity's current state.
type InvalidStateError struct {
	Entity    string // "transaction" or "journal entry"
	ID        string
	State     string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s is %s; cannot %s", e.Entity, e.ID, e.State, e.Operation)
}

// NotFoundError reports a missing row.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConcurrencyConflictError reports a lost optimistic-version race on a
// transaction row. The losing caller must not retry blindly.
type ConcurrencyConflictError struct {
	Entity string
	ID     string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Entity, e.ID)
}
