package journal

import (
	"github.com/shopspring/decimal"

	"github.com/fieldbooks-dev/fieldbooks/internal/model"
)

// ValidateLines checks the line-level invariants of a journal entry and
// returns the debit/credit totals. Rules, in order:
//
//  1. the line set is non-empty
//  2. debit and credit are non-negative with at most 2 decimal places
//  3. exactly one of debit/credit carries the amount per line
//  4. totals balance to the cent
//
// An unbalanced set is rejected, never auto-balanced with a plug line.
// Account existence is checked separately against the database.
func ValidateLines(lines []model.LineInput) (totalDebit, totalCredit decimal.Decimal, err error) {
	if len(lines) == 0 {
		return decimal.Zero, decimal.Zero, &model.ValidationError{
			Field:  "lines",
			Reason: "entry must have at least one line",
		}
	}

	totalDebit = decimal.Zero
	totalCredit = decimal.Zero
	for _, line := range lines {
		if line.AccountID == "" {
			return decimal.Zero, decimal.Zero, &model.ValidationError{
				Field:  "lines",
				Reason: "line is missing an account",
			}
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return decimal.Zero, decimal.Zero, &model.ValidationError{
				Field:  "lines",
				Reason: "debit and credit must be non-negative",
			}
		}
		if _, err := model.CentsFromDecimal(line.Debit); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if _, err := model.CentsFromDecimal(line.Credit); err != nil {
			return decimal.Zero, decimal.Zero, err
		}

		hasDebit := !line.Debit.IsZero()
		hasCredit := !line.Credit.IsZero()
		if hasDebit == hasCredit {
			return decimal.Zero, decimal.Zero, &model.ValidationError{
				Field:  "lines",
				Reason: "line must carry exactly one of debit or credit",
			}
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}

	if !totalDebit.Equal(totalCredit) {
		return decimal.Zero, decimal.Zero, &model.UnbalancedEntryError{
			TotalDebit:  totalDebit,
			TotalCredit: totalCredit,
		}
	}

	return totalDebit, totalCredit, nil
}
