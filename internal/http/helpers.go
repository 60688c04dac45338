package http

import (
	"strings"

	"budgetlens/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type seriesPoint struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// chartPoints flattens a series for Chart.js, which wants plain numbers.
func chartPoints(s core.MonthlySeries) []seriesPoint {
	out := make([]seriesPoint, len(s))
	for i, p := range s {
		out[i] = seriesPoint{Month: p.Month.String(), Amount: p.Amount.InexactFloat64()}
	}
	return out
}
