package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalBalanceFor_AllTypes(t *testing.T) {
	want := map[AccountType]NormalBalance{
		AccountTypeAsset:     NormalDebit,
		AccountTypeExpense:   NormalDebit,
		AccountTypeLiability: NormalCredit,
		AccountTypeEquity:    NormalCredit,
		AccountTypeRevenue:   NormalCredit,
	}
	require.Len(t, AccountTypes, len(want))
	for _, at := range AccountTypes {
		assert.Equal(t, want[at], NormalBalanceFor(at), "type %s", at)
	}
}

func TestAccountType_Valid(t *testing.T) {
	for _, at := range AccountTypes {
		assert.True(t, at.Valid())
	}
	assert.False(t, AccountType("contra_asset").Valid())
	assert.False(t, AccountType("").Valid())
}

func TestCentsFromDecimal(t *testing.T) {
	tests := []struct {
		in    string
		cents int64
	}{
		{"0", 0},
		{"4.00", 400},
		{"-42.50", -4250},
		{"999.99", 99999},
		{"81707.22", 8170722},
	}
	for _, tt := range tests {
		d, err := decimal.NewFromString(tt.in)
		require.NoError(t, err)
		cents, err := CentsFromDecimal(d)
		require.NoError(t, err)
		assert.Equal(t, tt.cents, cents, "input %s", tt.in)
	}
}

func TestCentsFromDecimal_RejectsSubCent(t *testing.T) {
	d := decimal.RequireFromString("1.005")
	_, err := CentsFromDecimal(d)
	require.Error(t, err)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestDecimalFromCents_RoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, -1, 400, -4250, 8170722} {
		d := DecimalFromCents(cents)
		back, err := CentsFromDecimal(d)
		require.NoError(t, err)
		assert.Equal(t, cents, back)
	}
}
