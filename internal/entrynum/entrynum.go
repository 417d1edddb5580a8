// Package entrynum formats and parses the human-facing journal entry numbers.
package entrynum

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format returns an entry number like "2025-03-017".
func Format(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// ForDate returns the entry number for a date and sequence.
func ForDate(date time.Time, seq int) string {
	return Format(date.Year(), int(date.Month()), seq)
}

// Parse splits "2025-03-017" into year, month, seq.
func Parse(number string) (year, month, seq int, err error) {
	parts := strings.SplitN(number, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid entry number format: %q", number)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in entry number %q: %w", number, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in entry number %q: %w", number, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in entry number %q: %w", number, err)
	}

	return year, month, seq, nil
}

// MonthPrefix returns the "2025-03-" prefix shared by a month's entries.
func MonthPrefix(date time.Time) string {
	return fmt.Sprintf("%04d-%02d-", date.Year(), int(date.Month()))
}
