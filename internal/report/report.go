// Package report is the balance and statement engine. It always recomputes
// from posted journal entry lines; the cached balance column on accounts is
// never consulted. Data-quality anomalies (mis-typed accounts, balances in an
// unexpected direction) produce warnings alongside the statement, never errors.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldbooks-dev/fieldbooks/internal/model"
	"github.com/fieldbooks-dev/fieldbooks/internal/store"
)

const dateFormat = "2006-01-02"

// Service computes balances and financial statements.
type Service struct {
	store *store.Store
}

// NewService creates a report Service.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// AccountLine is one account's contribution to a statement.
type AccountLine struct {
	AccountID string
	Code      string
	Name      string
	Type      model.AccountType
	Balance   decimal.Decimal
}

// IncomeStatement is revenue minus expenses over a date range, grouped by
// account and filtered to accounts with activity in the range.
type IncomeStatement struct {
	Start         time.Time
	End           time.Time
	Revenue       []AccountLine
	Expenses      []AccountLine
	TotalRevenue  decimal.Decimal
	TotalExpenses decimal.Decimal
	NetIncome     decimal.Decimal
	Warnings      []string
}

// BalanceSheet is assets versus liabilities plus equity as of a date, using
// cumulative-since-inception sums (not range-bounded — this asymmetry with the
// income statement is standard accounting practice).
type BalanceSheet struct {
	AsOf             time.Time
	Assets           []AccountLine
	Liabilities      []AccountLine
	Equity           []AccountLine
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	TotalEquity      decimal.Decimal
	Warnings         []string
}

// signedCents applies the per-type sign convention. Classification drives the
// math; account codes never do.
func signedCents(accountType model.AccountType, debits, credits int64) int64 {
	switch accountType {
	case model.AccountTypeRevenue, model.AccountTypeLiability, model.AccountTypeEquity:
		return credits - debits
	default: // asset, expense
		return debits - credits
	}
}

// AccountBalance computes one account's net balance over [start, end] from
// posted lines only.
func (s *Service) AccountBalance(ctx context.Context, accountID string, start, end time.Time) (decimal.Decimal, error) {
	var accountType string
	err := s.store.DB().QueryRowContext(ctx,
		`SELECT type FROM accounts WHERE id = ?`, accountID).Scan(&accountType)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, &model.NotFoundError{Entity: "account", ID: accountID}
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading account: %w", err)
	}

	var debits, credits int64
	err = s.store.DB().QueryRowContext(ctx,
		`SELECT COALESCE(SUM(l.debit_cents), 0), COALESCE(SUM(l.credit_cents), 0)
		 FROM journal_entry_lines l
		 JOIN journal_entries e ON e.id = l.journal_entry_id
		 WHERE l.account_id = ? AND e.status = 'posted'
		   AND e.entry_date >= ? AND e.entry_date <= ?`,
		accountID, start.Format(dateFormat), end.Format(dateFormat),
	).Scan(&debits, &credits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing lines: %w", err)
	}

	return model.DecimalFromCents(signedCents(model.AccountType(accountType), debits, credits)), nil
}

// aggregateRow is one account's posted-line sums.
type aggregateRow struct {
	AccountID string
	Code      string
	Name      string
	Type      model.AccountType
	Debits    int64
	Credits   int64
}

// aggregate sums posted lines per account. A zero start time means
// since-inception. Only accounts with at least one posted line in range are
// returned.
func (s *Service) aggregate(ctx context.Context, start, end time.Time) ([]aggregateRow, error) {
	query := `SELECT a.id, a.code, a.name, a.type,
	                 COALESCE(SUM(l.debit_cents), 0), COALESCE(SUM(l.credit_cents), 0)
	          FROM journal_entry_lines l
	          JOIN journal_entries e ON e.id = l.journal_entry_id
	          JOIN accounts a ON a.id = l.account_id
	          WHERE e.status = 'posted' AND e.entry_date <= ?`
	args := []any{end.Format(dateFormat)}
	if !start.IsZero() {
		query += ` AND e.entry_date >= ?`
		args = append(args, start.Format(dateFormat))
	}
	query += ` GROUP BY a.id, a.code, a.name, a.type ORDER BY a.code`

	rows, err := s.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregating lines: %w", err)
	}
	defer rows.Close()

	var result []aggregateRow
	for rows.Next() {
		var row aggregateRow
		if err := rows.Scan(&row.AccountID, &row.Code, &row.Name, &row.Type, &row.Debits, &row.Credits); err != nil {
			return nil, fmt.Errorf("scanning aggregate row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// GetIncomeStatement renders the income statement for [start, end].
func (s *Service) GetIncomeStatement(ctx context.Context, start, end time.Time) (*IncomeStatement, error) {
	rows, err := s.aggregate(ctx, start, end)
	if err != nil {
		return nil, err
	}

	stmt := &IncomeStatement{
		Start:         start,
		End:           end,
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, row := range rows {
		line := AccountLine{
			AccountID: row.AccountID,
			Code:      row.Code,
			Name:      row.Name,
			Type:      row.Type,
			Balance:   model.DecimalFromCents(signedCents(row.Type, row.Debits, row.Credits)),
		}
		switch row.Type {
		case model.AccountTypeRevenue:
			stmt.Revenue = append(stmt.Revenue, line)
			stmt.TotalRevenue = stmt.TotalRevenue.Add(line.Balance)
		case model.AccountTypeExpense:
			stmt.Expenses = append(stmt.Expenses, line)
			stmt.TotalExpenses = stmt.TotalExpenses.Add(line.Balance)
		default:
			continue
		}
		if line.Balance.IsNegative() {
			stmt.Warnings = append(stmt.Warnings, fmt.Sprintf(
				"account %s (%s) has a %s balance of %s, opposite its normal direction",
				line.Code, line.Name, line.Type, line.Balance.StringFixed(2)))
		}
	}
	stmt.NetIncome = stmt.TotalRevenue.Sub(stmt.TotalExpenses)
	return stmt, nil
}

// GetBalanceSheet renders the balance sheet as of a date. The structural
// identity assets == liabilities + equity is checked and surfaced as a
// warning when violated — typically a mis-classification, not a math error.
func (s *Service) GetBalanceSheet(ctx context.Context, asOf time.Time) (*BalanceSheet, error) {
	rows, err := s.aggregate(ctx, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}

	sheet := &BalanceSheet{
		AsOf:             asOf,
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}
	for _, row := range rows {
		line := AccountLine{
			AccountID: row.AccountID,
			Code:      row.Code,
			Name:      row.Name,
			Type:      row.Type,
			Balance:   model.DecimalFromCents(signedCents(row.Type, row.Debits, row.Credits)),
		}
		switch row.Type {
		case model.AccountTypeAsset:
			sheet.Assets = append(sheet.Assets, line)
			sheet.TotalAssets = sheet.TotalAssets.Add(line.Balance)
		case model.AccountTypeLiability:
			sheet.Liabilities = append(sheet.Liabilities, line)
			sheet.TotalLiabilities = sheet.TotalLiabilities.Add(line.Balance)
		case model.AccountTypeEquity:
			sheet.Equity = append(sheet.Equity, line)
			sheet.TotalEquity = sheet.TotalEquity.Add(line.Balance)
		}
	}

	if diff := sheet.TotalAssets.Sub(sheet.TotalLiabilities.Add(sheet.TotalEquity)); !diff.IsZero() {
		sheet.Warnings = append(sheet.Warnings, fmt.Sprintf(
			"assets (%s) != liabilities + equity (%s); difference %s — check account classification",
			sheet.TotalAssets.StringFixed(2),
			sheet.TotalLiabilities.Add(sheet.TotalEquity).StringFixed(2),
			diff.StringFixed(2)))
	}
	return sheet, nil
}
