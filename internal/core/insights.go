package core

import "github.com/shopspring/decimal"

// Trend is the direction between the two most recent buckets of a series.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendFlat    Trend = "flat"
	TrendUnknown Trend = "unknown"
)

// Tone drives how an insight is shown (success, info or warning banner).
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
)

// Insight is a human readable remark about a series. Computed is false when
// the series did not carry enough data to back the message.
type Insight struct {
	Message  string
	Tone     Tone
	Computed bool
}

// HighestMonth returns the month with the largest amount. Ties resolve to the
// earliest month. ok is false for an empty series.
func HighestMonth(s MonthlySeries) (MonthAmount, bool) {
	if len(s) == 0 {
		return MonthAmount{}, false
	}
	best := s[0]
	for _, p := range s[1:] {
		if p.Amount.GreaterThan(best.Amount) {
			best = p
		}
	}
	return best, true
}

// RecentTrend compares the last bucket with the one before it.
func RecentTrend(s MonthlySeries) Trend {
	if len(s) < 2 {
		return TrendUnknown
	}
	switch s[len(s)-1].Amount.Cmp(s[len(s)-2].Amount) {
	case 1:
		return TrendUp
	case -1:
		return TrendDown
	default:
		return TrendFlat
	}
}

// SpendingInsight words the recent expense trend.
func SpendingInsight(expenses MonthlySeries) Insight {
	switch RecentTrend(expenses) {
	case TrendUp:
		return Insight{Message: "You are spending more lately. Try setting a budget next month!", Tone: ToneWarning, Computed: true}
	case TrendDown:
		return Insight{Message: "Spending dropped compared to the previous month. Keep it up!", Tone: ToneSuccess, Computed: true}
	case TrendFlat:
		return Insight{Message: "Spending is unchanged from the previous month.", Tone: ToneInfo, Computed: true}
	default:
		return Insight{Message: "Not enough monthly data to tell a spending trend yet.", Tone: ToneInfo}
	}
}

// SavingsInsight words the sign of the most recent savings bucket.
func SavingsInsight(savings MonthlySeries) Insight {
	last, ok := savings.Last()
	if !ok {
		return Insight{Message: "No savings data yet.", Tone: ToneInfo}
	}
	switch last.Amount.Cmp(decimal.Zero) {
	case 1:
		return Insight{Message: "Great job saving! Maintain this positive trend!", Tone: ToneSuccess, Computed: true}
	case 0:
		return Insight{Message: "You broke even in " + last.Month.String() + ". Nothing was saved.", Tone: ToneInfo, Computed: true}
	default:
		return Insight{Message: "You spent more than you earned in " + last.Month.String() + ". Review your expenses.", Tone: ToneWarning, Computed: true}
	}
}
