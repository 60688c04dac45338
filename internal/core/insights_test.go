package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighestMonth(t *testing.T) {
	s := AggregateMonthly([]Transaction{
		tx("2024-01-01", "100"),
		tx("2024-02-01", "300"),
		tx("2024-03-01", "300"),
		tx("2024-04-01", "50"),
	})
	best, ok := HighestMonth(s)
	require.True(t, ok)
	assert.Equal(t, "2024-02", best.Month.String(), "ties resolve to the earliest month")

	_, ok = HighestMonth(nil)
	assert.False(t, ok)
}

func TestSpendingInsight(t *testing.T) {
	tests := []struct {
		name     string
		amounts  []string
		trend    Trend
		tone     Tone
		computed bool
	}{
		{"rising", []string{"100", "200"}, TrendUp, ToneWarning, true},
		{"falling", []string{"200", "100"}, TrendDown, ToneSuccess, true},
		{"flat", []string{"100", "100"}, TrendFlat, ToneInfo, true},
		{"single month", []string{"100"}, TrendUnknown, ToneInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var txs []Transaction
			for i, a := range tt.amounts {
				txs = append(txs, tx("2024-0"+string(rune('1'+i))+"-10", a))
			}
			s := AggregateMonthly(txs)
			assert.Equal(t, tt.trend, RecentTrend(s))
			in := SpendingInsight(s)
			assert.Equal(t, tt.tone, in.Tone)
			assert.Equal(t, tt.computed, in.Computed)
			assert.NotEmpty(t, in.Message)
		})
	}
}

func TestSavingsInsight(t *testing.T) {
	positive := Savings(AggregateMonthly([]Transaction{tx("2024-01-01", "10")}), nil)
	assert.Equal(t, ToneSuccess, SavingsInsight(positive).Tone)

	negative := Savings(nil, AggregateMonthly([]Transaction{tx("2024-01-01", "10")}))
	in := SavingsInsight(negative)
	assert.Equal(t, ToneWarning, in.Tone)
	assert.Contains(t, in.Message, "2024-01")

	assert.False(t, SavingsInsight(nil).Computed)
}
