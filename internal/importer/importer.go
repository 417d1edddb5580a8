// Package importer reads external CSV files into the ledger: chart bootstrap
// rows, historical journal entry backfills, and raw bank-feed exports. Import
// paths degrade per row rather than aborting the batch; every skipped row is
// reported back to the caller.
package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fieldbooks-dev/fieldbooks/internal/coa"
	"github.com/fieldbooks-dev/fieldbooks/internal/model"
	"github.com/fieldbooks-dev/fieldbooks/internal/store"
)

const dateFormat = "2006-01-02"

// RowResult records what happened to one CSV row. Err and Warning are
// mutually independent: a row can import with a warning, or be skipped
// with an Err while the rest of the batch proceeds.
type RowResult struct {
	Line    int // 1-based line number in the file, header included
	Code    string
	Warning string
	Err     error
}

// ChartReport summarizes a chart bootstrap import.
type ChartReport struct {
	Created int
	Skipped int
	Rows    []RowResult
}

// ChartImporter bootstraps a chart of accounts from {code, name, type_hint,
// balance} rows.
type ChartImporter struct {
	store *store.Store
	coa   *coa.Service
}

func NewChartImporter(s *store.Store, accounts *coa.Service) *ChartImporter {
	return &ChartImporter{store: s, coa: accounts}
}

// Import reads chart rows and creates the accounts. Unmapped type hints land
// in the default expense bucket with a warning; malformed or duplicate rows
// are skipped and reported, never fatal. The balance column seeds the
// account's cached display balance and nothing else.
func (imp *ChartImporter) Import(ctx context.Context, r io.Reader) (*ChartReport, error) {
	rows, err := readCSV(r, []string{"code", "name", "type_hint", "balance"})
	if err != nil {
		return nil, err
	}

	report := &ChartReport{}
	for _, row := range rows {
		result := RowResult{Line: row.line, Code: row.get("code")}

		accountType, subtype, mapped := coa.MapTypeHint(row.get("type_hint"))
		if !mapped {
			result.Warning = fmt.Sprintf("unmapped type %q, defaulting to %s/%s",
				row.get("type_hint"), accountType, subtype)
		}

		balance, err := parseOptionalDecimal(row.get("balance"))
		if err != nil {
			result.Err = fmt.Errorf("parsing balance: %w", err)
			report.Skipped++
			report.Rows = append(report.Rows, result)
			continue
		}

		account, err := imp.coa.Create(ctx, coa.CreateParams{
			Code:    row.get("code"),
			Name:    row.get("name"),
			Type:    accountType,
			Subtype: subtype,
		})
		if err != nil {
			result.Err = err
			report.Skipped++
			report.Rows = append(report.Rows, result)
			continue
		}

		if !balance.IsZero() {
			if err := imp.seedCachedBalance(ctx, account.ID, balance); err != nil {
				result.Warning = "balance not seeded: " + err.Error()
			}
		}

		report.Created++
		report.Rows = append(report.Rows, result)
	}
	return report, nil
}

func (imp *ChartImporter) seedCachedBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	cents, err := model.CentsFromDecimal(balance)
	if err != nil {
		return err
	}
	return imp.store.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE accounts SET current_balance_cents = ? WHERE id = ?`, cents, accountID)
		return err
	})
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

// csvRow is one data row with header-indexed access.
type csvRow struct {
	line   int
	fields map[string]string
}

func (r csvRow) get(col string) string { return strings.TrimSpace(r.fields[col]) }

// readCSV parses a headered CSV, checking that the required columns exist.
// Column order is caller's choice; extra columns are ignored.
func readCSV(r io.Reader, required []string) ([]csvRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV: missing header row")
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	rows := make([]csvRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		fields := make(map[string]string, len(index))
		for name, col := range index {
			if col < len(rec) {
				fields[name] = rec[col]
			}
		}
		rows = append(rows, csvRow{line: i + 2, fields: fields})
	}
	return rows, nil
}
