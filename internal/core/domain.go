package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Well-known column names of the CSV files the dashboard reads and writes.
const (
	ColumnAccount           = "account"
	ColumnTags              = "tags"
	ColumnText              = "text"
	ColumnPredictedCategory = "Predicted_Category"
	ColumnDateTime          = "date_time"
	ColumnAmount            = "amount"
	ColumnMonth             = "month"
	ColumnForecast          = "forecast"
)

// CategorizedFilename is the name offered for the categorized download.
const CategorizedFilename = "categorized_expenses.csv"

type (
	// Transaction is one row of the expense or income ledgers.
	Transaction struct {
		Timestamp time.Time
		Amount    decimal.Decimal
		Account   string
		Tag       string
	}

	// Month is a calendar bucket key (year + month).
	Month struct {
		Year  int
		Month time.Month
	}
)

var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidTime    = errors.New("invalid timestamp")
	ErrInvalidMonth   = errors.New("invalid month")
)

// MissingColumnsError reports which required columns a table lacks.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// RowError locates a parse failure inside a table. Row is 1-based and
// counts data rows only (the header is not row 1).
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// MonthOf returns the bucket a timestamp falls in. Day and time of day are discarded.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String formats the key as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Before reports whether m is an earlier calendar month than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// ParseMonth accepts YYYY-MM or any timestamp layout understood by ParseTimestamp.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01", s); err == nil {
		return MonthOf(t), nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

// timestampLayouts lists the layouts tried, most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// ParseTimestamp parses the timestamp formats found in exported ledgers.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTime)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// TransactionsFromTable converts a ledger table into transactions.
// date_time and amount are required; account and tags are read when present.
// A blank amount counts as zero, any other unparseable cell is a RowError.
func TransactionsFromTable(t *Table) ([]Transaction, error) {
	if err := t.Require(ColumnDateTime, ColumnAmount); err != nil {
		return nil, err
	}
	dateCol := t.ColumnIndex(ColumnDateTime)
	amountCol := t.ColumnIndex(ColumnAmount)
	accountCol := t.ColumnIndex(ColumnAccount)
	tagCol := t.ColumnIndex(ColumnTags)

	out := make([]Transaction, 0, len(t.Rows))
	for i, row := range t.Rows {
		ts, err := ParseTimestamp(row[dateCol])
		if err != nil {
			return nil, &RowError{Row: i + 1, Column: ColumnDateTime, Err: err}
		}
		amount := decimal.Zero
		if strings.TrimSpace(row[amountCol]) != "" {
			amount, err = ParseAmount(row[amountCol])
			if err != nil {
				return nil, &RowError{Row: i + 1, Column: ColumnAmount, Err: err}
			}
		}
		tx := Transaction{Timestamp: ts, Amount: amount}
		if accountCol >= 0 {
			tx.Account = row[accountCol]
		}
		if tagCol >= 0 {
			tx.Tag = row[tagCol]
		}
		out = append(out, tx)
	}
	return out, nil
}
