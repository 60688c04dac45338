package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ForecastPoint is one row of the pre-computed forecast.
type ForecastPoint struct {
	Month    Month
	Forecast decimal.Decimal
}

// ForecastReason names why a forecast could not be presented.
type ForecastReason string

const (
	ForecastNotFound       ForecastReason = "not_found"
	ForecastUnreadable     ForecastReason = "unreadable"
	ForecastMalformedCSV   ForecastReason = "malformed_csv"
	ForecastMissingColumns ForecastReason = "missing_columns"
	ForecastBadMonth       ForecastReason = "bad_month"
	ForecastBadValue       ForecastReason = "bad_value"
	ForecastEmpty          ForecastReason = "empty"
)

// ForecastError carries the specific cause behind an unavailable forecast.
type ForecastError struct {
	Reason ForecastReason
	Err    error
}

func (e *ForecastError) Error() string {
	if e.Err == nil {
		return "forecast unavailable: " + string(e.Reason)
	}
	return fmt.Sprintf("forecast unavailable (%s): %v", e.Reason, e.Err)
}

func (e *ForecastError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the ForecastReason of err, or "" when err is not a ForecastError.
func ReasonOf(err error) ForecastReason {
	var fe *ForecastError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}

// Forecast is the outcome of loading the forecast file: either Points are set
// and Err is nil, or Err explains why nothing can be shown.
type Forecast struct {
	Points []ForecastPoint
	Err    error
}

// Available reports whether the forecast can be shown.
func (f Forecast) Available() bool {
	return f.Err == nil && len(f.Points) > 0
}

// Reason returns the failure reason, "" when available.
func (f Forecast) Reason() ForecastReason {
	return ReasonOf(f.Err)
}

// NextMonth returns the first forecast row rounded to two decimals, using
// half-to-even rounding.
func (f Forecast) NextMonth() (ForecastPoint, bool) {
	if !f.Available() {
		return ForecastPoint{}, false
	}
	p := f.Points[0]
	return ForecastPoint{Month: p.Month, Forecast: p.Forecast.RoundBank(2)}, true
}

// ForecastFromTable parses a {month, forecast} table. Row order is kept as in the file.
func ForecastFromTable(t *Table) Forecast {
	if err := t.Require(ColumnMonth, ColumnForecast); err != nil {
		return Forecast{Err: &ForecastError{Reason: ForecastMissingColumns, Err: err}}
	}
	if t.Len() == 0 {
		return Forecast{Err: &ForecastError{Reason: ForecastEmpty}}
	}
	monthCol := t.ColumnIndex(ColumnMonth)
	valueCol := t.ColumnIndex(ColumnForecast)
	points := make([]ForecastPoint, 0, t.Len())
	for i, row := range t.Rows {
		m, err := ParseMonth(row[monthCol])
		if err != nil {
			return Forecast{Err: &ForecastError{Reason: ForecastBadMonth, Err: &RowError{Row: i + 1, Column: ColumnMonth, Err: err}}}
		}
		v, err := ParseAmount(row[valueCol])
		if err != nil {
			return Forecast{Err: &ForecastError{Reason: ForecastBadValue, Err: &RowError{Row: i + 1, Column: ColumnForecast, Err: err}}}
		}
		points = append(points, ForecastPoint{Month: m, Forecast: v})
	}
	return Forecast{Points: points}
}
