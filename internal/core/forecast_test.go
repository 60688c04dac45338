package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastFromTable(t *testing.T) {
	f := ForecastFromTable(NewTable([]string{"month", "forecast"}, [][]string{
		{"2024-07-01", "1234.565"},
		{"2024-08-01", "1300"},
	}))
	require.True(t, f.Available())
	assert.Len(t, f.Points, 2)

	next, ok := f.NextMonth()
	require.True(t, ok)
	assert.Equal(t, "2024-07", next.Month.String())
	assert.Equal(t, "1234.56", next.Forecast.StringFixed(2), "half-to-even rounding")
}

func TestForecastFromTable_Reasons(t *testing.T) {
	tests := []struct {
		name   string
		table  *Table
		reason ForecastReason
	}{
		{"missing columns", NewTable([]string{"month"}, [][]string{{"2024-01"}}), ForecastMissingColumns},
		{"no rows", NewTable([]string{"month", "forecast"}, nil), ForecastEmpty},
		{"bad month", NewTable([]string{"month", "forecast"}, [][]string{{"soon", "1"}}), ForecastBadMonth},
		{"bad value", NewTable([]string{"month", "forecast"}, [][]string{{"2024-01", "lots"}}), ForecastBadValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ForecastFromTable(tt.table)
			assert.False(t, f.Available())
			assert.Equal(t, tt.reason, f.Reason())
			_, ok := f.NextMonth()
			assert.False(t, ok)
		})
	}
}
