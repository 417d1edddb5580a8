package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldbooks-dev/fieldbooks/internal/coa"
	"github.com/fieldbooks-dev/fieldbooks/internal/journal"
	"github.com/fieldbooks-dev/fieldbooks/internal/model"
	"github.com/fieldbooks-dev/fieldbooks/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }

type fixture struct {
	store   *store.Store
	coa     *coa.Service
	journal *journal.Service
	report  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return &fixture{
		store:   s,
		coa:     coa.NewService(s),
		journal: journal.NewService(s),
		report:  NewService(s),
	}
}

func (f *fixture) account(t *testing.T, code, name string, accountType model.AccountType) *model.Account {
	t.Helper()
	account, err := f.coa.Create(context.Background(), coa.CreateParams{
		Code: code, Name: name, Type: accountType,
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) post(t *testing.T, d time.Time, lines ...model.LineInput) *model.JournalEntry {
	t.Helper()
	entry, err := f.journal.CreatePosted(context.Background(), journal.CreateParams{
		EntryDate: d,
		Lines:     lines,
		Source:    model.SourceManual,
	})
	require.NoError(t, err)
	return entry
}

// Account 4010 (revenue) with a 500.00 credit and a 20.00 debit in range
// nets to 480.00.
func TestAccountBalance_RevenueNetting(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, "1010", "Farm Checking", model.AccountTypeAsset)
	sales := f.account(t, "4010", "Crop Sales", model.AccountTypeRevenue)

	f.post(t, date(2025, 3, 1),
		model.LineInput{AccountID: checking.ID, Debit: dec("500.00")},
		model.LineInput{AccountID: sales.ID, Credit: dec("500.00")})
	f.post(t, date(2025, 3, 15),
		model.LineInput{AccountID: sales.ID, Debit: dec("20.00")},
		model.LineInput{AccountID: checking.ID, Credit: dec("20.00")})

	balance, err := f.report.AccountBalance(context.Background(), sales.ID,
		date(2025, 1, 1), date(2025, 12, 31))
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("480.00")), "got %s", balance)
}

func TestAccountBalance_ExcludesVoidAndOutOfRange(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, "1010", "Farm Checking", model.AccountTypeAsset)
	fuel := f.account(t, "6010", "Fuel & Oil", model.AccountTypeExpense)

	f.post(t, date(2025, 2, 1),
		model.LineInput{AccountID: fuel.ID, Debit: dec("100.00")},
		model.LineInput{AccountID: checking.ID, Credit: dec("100.00")})

	voided := f.post(t, date(2025, 2, 2),
		model.LineInput{AccountID: fuel.ID, Debit: dec("999.00")},
		model.LineInput{AccountID: checking.ID, Credit: dec("999.00")})
	require.NoError(t, f.journal.Void(context.Background(), voided.ID, "entered twice"))

	// Outside the queried range.
	f.post(t, date(2024, 12, 31),
		model.LineInput{AccountID: fuel.ID, Debit: dec("50.00")},
		model.LineInput{AccountID: checking.ID, Credit: dec("50.00")})

	balance, err := f.report.AccountBalance(context.Background(), fuel.ID,
		date(2025, 1, 1), date(2025, 12, 31))
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("100.00")), "got %s", balance)
}

func TestAccountBalance_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.report.AccountBalance(context.Background(), "missing", date(2025, 1, 1), date(2025, 12, 31))
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
}

// Net income equals revenue minus expenses exactly, including when expenses
// exceed revenue — no sign inversion.
func TestIncomeStatement_NetIsRevenueMinusExpenses(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, "1010", "Farm Checking", model.AccountTypeAsset)
	sales := f.account(t, "4010", "Crop Sales", model.AccountTypeRevenue)
	feed := f.account(t, "5020", "Feed", model.AccountTypeExpense)

	f.post(t, date(2025, 1, 15),
		model.LineInput{AccountID: checking.ID, Debit: dec("81707.22")},
		model.LineInput{AccountID: sales.ID, Credit: dec("81707.22")})
	f.post(t, date(2025, 6, 1),
		model.LineInput{AccountID: feed.ID, Debit: dec("99631.40")},
		model.LineInput{AccountID: checking.ID, Credit: dec("99631.40")})

	stmt, err := f.report.GetIncomeStatement(context.Background(), date(2025, 1, 1), date(2025, 12, 31))
	require.NoError(t, err)

	assert.True(t, stmt.TotalRevenue.Equal(dec("81707.22")), "revenue %s", stmt.TotalRevenue)
	assert.True(t, stmt.TotalExpenses.Equal(dec("99631.40")), "expenses %s", stmt.TotalExpenses)
	assert.True(t, stmt.NetIncome.Equal(dec("-17924.18")), "net %s", stmt.NetIncome)
	require.Len(t, stmt.Revenue, 1)
	require.Len(t, stmt.Expenses, 1)
	assert.Equal(t, "4010", stmt.Revenue[0].Code)
}

func TestIncomeStatement_ActivityFilterAndRange(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, "1010", "Farm Checking", model.AccountTypeAsset)
	sales := f.account(t, "4010", "Crop Sales", model.AccountTypeRevenue)
	f.account(t, "4020", "Livestock Sales", model.AccountTypeRevenue) // no activity

	f.post(t, date(2025, 3, 1),
		model.LineInput{AccountID: checking.ID, Debit: dec("10.00")},
		model.LineInput{AccountID: sales.ID, Credit: dec("10.00")})

	stmt, err := f.report.GetIncomeStatement(context.Background(), date(2025, 1, 1), date(2025, 12, 31))
	require.NoError(t, err)
	require.Len(t, stmt.Revenue, 1, "accounts without activity are omitted")

	// A range excluding all activity yields an empty statement.
	empty, err := f.report.GetIncomeStatement(context.Background(), date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	assert.Empty(t, empty.Revenue)
	assert.True(t, empty.NetIncome.IsZero())
}

// The balance sheet uses cumulative-since-inception sums regardless of the
// income statement's range bounds.
func TestBalanceSheet_CumulativeAndIdentity(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, "1010", "Farm Checking", model.AccountTypeAsset)
	loan := f.account(t, "2510", "Equipment Loan", model.AccountTypeLiability)
	equity := f.account(t, "3010", "Owner's Equity", model.AccountTypeEquity)

	// Opening contribution in 2024, loan draw in 2025.
	f.post(t, date(2024, 6, 1),
		model.LineInput{AccountID: checking.ID, Debit: dec("1000.00")},
		model.LineInput{AccountID: equity.ID, Credit: dec("1000.00")})
	f.post(t, date(2025, 2, 1),
		model.LineInput{AccountID: checking.ID, Debit: dec("500.00")},
		model.LineInput{AccountID: loan.ID, Credit: dec("500.00")})

	sheet, err := f.report.GetBalanceSheet(context.Background(), date(2025, 12, 31))
	require.NoError(t, err)

	assert.True(t, sheet.TotalAssets.Equal(dec("1500.00")), "assets %s", sheet.TotalAssets)
	assert.True(t, sheet.TotalLiabilities.Equal(dec("500.00")))
	assert.True(t, sheet.TotalEquity.Equal(dec("1000.00")))
	assert.Empty(t, sheet.Warnings, "identity holds for a correctly classified chart")

	// As of mid-2024 the loan has not happened yet.
	earlier, err := f.report.GetBalanceSheet(context.Background(), date(2024, 12, 31))
	require.NoError(t, err)
	assert.True(t, earlier.TotalAssets.Equal(dec("1000.00")))
	assert.Empty(t, earlier.Liabilities)
}

// A mis-classified account breaks the identity; the engine warns instead of
// rejecting the statement.
func TestBalanceSheet_MisclassificationWarns(t *testing.T) {
	f := newFixture(t)
	checking := f.account(t, "1010", "Farm Checking", model.AccountTypeAsset)
	equity := f.account(t, "3010", "Owner's Equity", model.AccountTypeEquity)
	// A truck mis-typed as revenue: its balance drops out of the balance
	// sheet entirely, breaking the identity.
	truck := f.account(t, "1510", "Farm Truck", model.AccountTypeRevenue)

	f.post(t, date(2025, 1, 1),
		model.LineInput{AccountID: checking.ID, Debit: dec("1000.00")},
		model.LineInput{AccountID: equity.ID, Credit: dec("1000.00")})
	f.post(t, date(2025, 3, 1),
		model.LineInput{AccountID: truck.ID, Debit: dec("300.00")},
		model.LineInput{AccountID: checking.ID, Credit: dec("300.00")})

	sheet, err := f.report.GetBalanceSheet(context.Background(), date(2025, 12, 31))
	require.NoError(t, err, "anomalies never fail report generation")
	assert.True(t, sheet.TotalAssets.Equal(dec("700.00")))
	assert.True(t, sheet.TotalEquity.Equal(dec("1000.00")))
	require.NotEmpty(t, sheet.Warnings)
	assert.Contains(t, sheet.Warnings[0], "classification")

	// The reconciliation view flags the mis-typed account for review.
	mismatches, err := f.report.ReconcileTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "1510", mismatches[0].Code)
	assert.Equal(t, model.AccountTypeRevenue, mismatches[0].Type)
	assert.Equal(t, model.AccountTypeAsset, mismatches[0].ExpectedType)
}

func TestTypeForCodePrefix(t *testing.T) {
	tests := []struct {
		code string
		want model.AccountType
		ok   bool
	}{
		{"1010", model.AccountTypeAsset, true},
		{"2510", model.AccountTypeLiability, true},
		{"3010", model.AccountTypeEquity, true},
		{"4010", model.AccountTypeRevenue, true},
		{"5020", model.AccountTypeExpense, true},
		{"6010", model.AccountTypeExpense, true},
		{"A100", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := TypeForCodePrefix(tt.code)
		assert.Equal(t, tt.ok, ok, "code %q", tt.code)
		if tt.ok {
			assert.Equal(t, tt.want, got, "code %q", tt.code)
		}
	}
}
