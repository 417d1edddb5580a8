package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// AccountTypes lists all five types in statement order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// Valid reports whether t is one of the five ledger account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalance is the side on which an account's natural positive balance sits.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "debit"
	NormalCredit NormalBalance = "credit"
)

// NormalBalanceFor derives the normal balance from the account type.
// It is the only source of this value; callers never set it directly.
func NormalBalanceFor(t AccountType) NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalDebit
	default:
		return NormalCredit
	}
}

// Account is one row in the chart of accounts.
type Account struct {
	ID            string
	Code          string // display key, unique among active accounts
	Name          string
	Type          AccountType
	Subtype       string // free-text classification within the type
	NormalBalance NormalBalance
	IsActive      bool
	// CurrentBalance is a cached display value. It is never authoritative;
	// reports always recompute from posted lines.
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
