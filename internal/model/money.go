package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Monetary values are stored as integer cents and exposed as decimals.
// These two functions are the only conversion points; anything with more
// than two decimal places is rejected rather than rounded.

var centsFactor = decimal.NewFromInt(100)

// CentsFromDecimal converts a decimal amount to integer cents.
func CentsFromDecimal(d decimal.Decimal) (int64, error) {
	scaled := d.Mul(centsFactor)
	if !scaled.Equal(scaled.Floor()) {
		return 0, &ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("amount %s has more than 2 decimal places", d),
		}
	}
	return scaled.IntPart(), nil
}

// DecimalFromCents converts integer cents back to a decimal amount.
func DecimalFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
