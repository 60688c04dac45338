// Package core provides the domain types of the dashboard: ledgers, monthly
// buckets, tables and the insights derived from them.
//
// This file contains functions for parsing and formatting monetary amounts.
// Amounts are exact decimals so that bucket sums never drift.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to an exact amount.
//
// Surrounding whitespace and currency symbols are ignored. Both dot and comma
// decimal separators are accepted when only one of them is present; with both
// present the comma is treated as a thousands separator.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34
//	ParseAmount("12,34")     -> 12.34
//	ParseAmount("1,234.50")  -> 1234.5
//	ParseAmount("-7")        -> -7
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "₹$€£ ")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals and the given symbol,
// e.g. "₹1234.50" or "-₹12.00".
func FormatAmount(symbol string, d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + symbol + d.Neg().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}
