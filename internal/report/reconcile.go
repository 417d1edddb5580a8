package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldbooks-dev/fieldbooks/internal/model"
)

// TypeMismatch flags an account whose classification disagrees with the
// code-prefix convention. Classification drives all report math; this view
// exists only so a bookkeeper can review likely mis-typed accounts.
type TypeMismatch struct {
	AccountID    string
	Code         string
	Name         string
	Type         model.AccountType
	ExpectedType model.AccountType
}

func (m TypeMismatch) String() string {
	return fmt.Sprintf("account %s (%s) is typed %s but its code prefix suggests %s",
		m.Code, m.Name, m.Type, m.ExpectedType)
}

// prefixConvention maps the leading code digit to the conventional type.
var prefixConvention = map[byte]model.AccountType{
	'1': model.AccountTypeAsset,
	'2': model.AccountTypeLiability,
	'3': model.AccountTypeEquity,
	'4': model.AccountTypeRevenue,
	'5': model.AccountTypeExpense,
	'6': model.AccountTypeExpense,
}

// TypeForCodePrefix returns the conventional type for an account code, if the
// code follows the digit-prefix convention.
func TypeForCodePrefix(code string) (model.AccountType, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	t, ok := prefixConvention[code[0]]
	return t, ok
}

// ReconcileTypes lists active accounts whose type disagrees with their code
// prefix. Mismatched accounts still aggregate by their classification.
func (s *Service) ReconcileTypes(ctx context.Context) ([]TypeMismatch, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		`SELECT id, code, name, type FROM accounts WHERE is_active = 1 ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var mismatches []TypeMismatch
	for rows.Next() {
		var id, code, name, accountType string
		if err := rows.Scan(&id, &code, &name, &accountType); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		expected, ok := TypeForCodePrefix(code)
		if !ok || expected == model.AccountType(accountType) {
			continue
		}
		mismatches = append(mismatches, TypeMismatch{
			AccountID:    id,
			Code:         code,
			Name:         name,
			Type:         model.AccountType(accountType),
			ExpectedType: expected,
		})
	}
	return mismatches, rows.Err()
}
