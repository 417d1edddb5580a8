package coa

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldbooks-dev/fieldbooks/internal/journal"
	"github.com/fieldbooks-dev/fieldbooks/internal/model"
	"github.com/fieldbooks-dev/fieldbooks/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreate_DerivesNormalBalance(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)
	ctx := context.Background()

	tests := []struct {
		accountType model.AccountType
		want        model.NormalBalance
	}{
		{model.AccountTypeAsset, model.NormalDebit},
		{model.AccountTypeExpense, model.NormalDebit},
		{model.AccountTypeLiability, model.NormalCredit},
		{model.AccountTypeEquity, model.NormalCredit},
		{model.AccountTypeRevenue, model.NormalCredit},
	}
	for i, tt := range tests {
		account, err := svc.Create(ctx, CreateParams{
			Code: string(rune('1'+i)) + "000",
			Name: "Test " + string(tt.accountType),
			Type: tt.accountType,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, account.NormalBalance, "type %s", tt.accountType)
	}
}

func TestCreate_DuplicateCode(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateParams{Code: "1010", Name: "Checking", Type: model.AccountTypeAsset})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateParams{Code: "1010", Name: "Other", Type: model.AccountTypeAsset})
	var dup *model.DuplicateCodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "1010", dup.Code)
	assert.Equal(t, first.ID, dup.ExistingID)
}

func TestCreate_CodeReusableAfterDeactivation(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateParams{Code: "1010", Name: "Checking", Type: model.AccountTypeAsset})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, first.ID, false))

	_, err = svc.Create(ctx, CreateParams{Code: "1010", Name: "New Checking", Type: model.AccountTypeAsset})
	require.NoError(t, err)
}

func TestUpdate_TypeChangeRederivesNormalBalance(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)
	ctx := context.Background()

	account, err := svc.Create(ctx, CreateParams{Code: "4010", Name: "Misc", Type: model.AccountTypeRevenue})
	require.NoError(t, err)
	assert.Equal(t, model.NormalCredit, account.NormalBalance)

	newType := model.AccountTypeAsset
	updated, err := svc.Update(ctx, account.ID, UpdateParams{Type: &newType})
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeAsset, updated.Type)
	assert.Equal(t, model.NormalDebit, updated.NormalBalance)
}

func TestDeactivate_HasDependentActivity(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)
	jsvc := journal.NewService(s)
	ctx := context.Background()

	checking, err := svc.Create(ctx, CreateParams{Code: "1010", Name: "Checking", Type: model.AccountTypeAsset})
	require.NoError(t, err)
	fuel, err := svc.Create(ctx, CreateParams{Code: "6010", Name: "Fuel", Type: model.AccountTypeExpense})
	require.NoError(t, err)

	_, err = jsvc.CreatePosted(ctx, journal.CreateParams{
		EntryDate: date(2025, 2, 1),
		Lines: []model.LineInput{
			{AccountID: fuel.ID, Debit: dec("80.00")},
			{AccountID: checking.ID, Credit: dec("80.00")},
		},
		Source: model.SourceManual,
	})
	require.NoError(t, err)

	err = svc.Deactivate(ctx, fuel.ID, false)
	var hda *model.HasDependentActivityError
	require.ErrorAs(t, err, &hda)
	assert.True(t, hda.Balance.Equal(dec("80.00")))

	// Force wins, and the row survives as inactive.
	require.NoError(t, svc.Deactivate(ctx, fuel.ID, true))
	got, err := svc.Get(ctx, fuel.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestRefreshCachedBalance(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)
	jsvc := journal.NewService(s)
	ctx := context.Background()

	checking, err := svc.Create(ctx, CreateParams{Code: "1010", Name: "Checking", Type: model.AccountTypeAsset})
	require.NoError(t, err)
	sales, err := svc.Create(ctx, CreateParams{Code: "4010", Name: "Crop Sales", Type: model.AccountTypeRevenue})
	require.NoError(t, err)

	_, err = jsvc.CreatePosted(ctx, journal.CreateParams{
		EntryDate: date(2025, 3, 1),
		Lines: []model.LineInput{
			{AccountID: checking.ID, Debit: dec("500.00")},
			{AccountID: sales.ID, Credit: dec("500.00")},
		},
		Source: model.SourceManual,
	})
	require.NoError(t, err)

	balance, err := svc.RefreshCachedBalance(ctx, checking.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("500.00")))

	got, err := svc.Get(ctx, checking.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(dec("500.00")))
}

func TestListAndByType(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)
	ctx := context.Background()

	for _, params := range DefaultChart() {
		_, err := svc.Create(ctx, params)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultChart()))

	revenue, err := svc.ByType(ctx, model.AccountTypeRevenue)
	require.NoError(t, err)
	assert.Len(t, revenue, 4)
	for _, a := range revenue {
		assert.Equal(t, model.AccountTypeRevenue, a.Type)
	}

	byCode, err := svc.GetByCode(ctx, "4010")
	require.NoError(t, err)
	assert.Equal(t, "Crop Sales", byCode.Name)
}
