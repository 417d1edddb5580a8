package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldbooks-dev/fieldbooks/internal/coa"
	"github.com/fieldbooks-dev/fieldbooks/internal/journal"
	"github.com/fieldbooks-dev/fieldbooks/internal/model"
)

// EntryResult records the fate of one logical entry in a backfill file.
type EntryResult struct {
	Group       string
	EntryNumber string
	Err         error
}

// BackfillReport summarizes a historical entry import.
type BackfillReport struct {
	Posted  int
	Skipped int
	Entries []EntryResult
}

// EntryImporter backfills historical journal entries from {entry, date,
// description, debit, credit, account_code} rows. Rows sharing an entry value
// form one logical entry.
type EntryImporter struct {
	coa     *coa.Service
	journal *journal.Service
}

func NewEntryImporter(accounts *coa.Service, j *journal.Service) *EntryImporter {
	return &EntryImporter{coa: accounts, journal: j}
}

// backfillLine is one normalized line of a pending entry.
type backfillLine struct {
	code   string
	debit  decimal.Decimal
	credit decimal.Decimal
}

// pendingEntry accumulates the rows of one logical entry in file order.
type pendingEntry struct {
	group       string
	date        time.Time
	description string
	lines       []backfillLine
	err         error // first row-level problem; poisons the whole entry
}

// Import reads backfill rows, validates each logical entry balances, and
// posts it. A bad entry is skipped and reported; the rest of the file still
// posts. Legacy rows carrying amounts on both sides are netted to a single
// one-sided line at the boundary.
func (imp *EntryImporter) Import(ctx context.Context, r io.Reader) (*BackfillReport, error) {
	rows, err := readCSV(r, []string{"entry", "date", "description", "debit", "credit", "account_code"})
	if err != nil {
		return nil, err
	}

	var order []string
	groups := make(map[string]*pendingEntry)
	for _, row := range rows {
		group := row.get("entry")
		if group == "" {
			group = fmt.Sprintf("line-%d", row.line)
		}
		entry, ok := groups[group]
		if !ok {
			entry = &pendingEntry{group: group}
			groups[group] = entry
			order = append(order, group)
		}
		if entry.err != nil {
			continue
		}
		entry.err = imp.accumulate(entry, row)
	}

	report := &BackfillReport{}
	for _, group := range order {
		entry := groups[group]
		result := EntryResult{Group: group}
		if entry.err == nil {
			result.EntryNumber, entry.err = imp.post(ctx, entry)
		}
		if entry.err != nil {
			result.Err = entry.err
			report.Skipped++
		} else {
			report.Posted++
		}
		report.Entries = append(report.Entries, result)
	}
	return report, nil
}

func (imp *EntryImporter) accumulate(entry *pendingEntry, row csvRow) error {
	date, err := time.Parse(dateFormat, row.get("date"))
	if err != nil {
		return fmt.Errorf("line %d: parsing date %q: %w", row.line, row.get("date"), err)
	}
	if entry.lines == nil {
		entry.date = date
		entry.description = row.get("description")
	} else if !entry.date.Equal(date) {
		return fmt.Errorf("line %d: date %s disagrees with entry date %s",
			row.line, date.Format(dateFormat), entry.date.Format(dateFormat))
	}

	debit, err := parseOptionalDecimal(row.get("debit"))
	if err != nil {
		return fmt.Errorf("line %d: parsing debit: %w", row.line, err)
	}
	credit, err := parseOptionalDecimal(row.get("credit"))
	if err != nil {
		return fmt.Errorf("line %d: parsing credit: %w", row.line, err)
	}

	line, err := normalizeLine(row.get("account_code"), debit, credit)
	if err != nil {
		return fmt.Errorf("line %d: %w", row.line, err)
	}
	entry.lines = append(entry.lines, line)
	return nil
}

// normalizeLine maps legacy dual-field rows onto the canonical one-sided
// shape. Rows with amounts on both sides are netted; the remainder lands on
// whichever side was larger.
func normalizeLine(code string, debit, credit decimal.Decimal) (backfillLine, error) {
	if code == "" {
		return backfillLine{}, fmt.Errorf("missing account_code")
	}
	if debit.IsNegative() || credit.IsNegative() {
		return backfillLine{}, fmt.Errorf("negative amount on account %s", code)
	}
	line := backfillLine{code: code}
	switch {
	case debit.IsPositive() && credit.IsPositive():
		net := debit.Sub(credit)
		switch {
		case net.IsPositive():
			line.debit = net
		case net.IsNegative():
			line.credit = net.Neg()
		default:
			return backfillLine{}, fmt.Errorf("debit and credit cancel to zero on account %s", code)
		}
	case debit.IsPositive():
		line.debit = debit
	case credit.IsPositive():
		line.credit = credit
	default:
		return backfillLine{}, fmt.Errorf("no amount on account %s", code)
	}
	return line, nil
}

func (imp *EntryImporter) post(ctx context.Context, entry *pendingEntry) (string, error) {
	lines := make([]model.LineInput, 0, len(entry.lines))
	for _, line := range entry.lines {
		account, err := imp.coa.GetByCode(ctx, line.code)
		if err != nil {
			return "", fmt.Errorf("account %s: %w", line.code, err)
		}
		lines = append(lines, model.LineInput{
			AccountID: account.ID,
			Debit:     line.debit,
			Credit:    line.credit,
		})
	}
	posted, err := imp.journal.CreatePosted(ctx, journal.CreateParams{
		EntryDate:   entry.date,
		Lines:       lines,
		Source:      model.SourceSystem,
		Description: entry.description,
	})
	if err != nil {
		return "", err
	}
	return posted.EntryNumber, nil
}
