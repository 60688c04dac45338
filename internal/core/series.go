package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthAmount is one bucket of a monthly series.
type MonthAmount struct {
	Month  Month
	Amount decimal.Decimal
}

// MonthlySeries is ordered by month, ascending, with unique keys.
type MonthlySeries []MonthAmount

// AggregateMonthly buckets transactions by calendar month and sums their
// amounts. The result is in calendar order regardless of input order.
func AggregateMonthly(txs []Transaction) MonthlySeries {
	sums := make(map[Month]decimal.Decimal)
	for _, tx := range txs {
		m := MonthOf(tx.Timestamp)
		sums[m] = sums[m].Add(tx.Amount)
	}
	return seriesFromMap(sums)
}

func seriesFromMap(sums map[Month]decimal.Decimal) MonthlySeries {
	out := make(MonthlySeries, 0, len(sums))
	for m, v := range sums {
		out = append(out, MonthAmount{Month: m, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// Savings returns income minus expense for every month present in either
// series. A month missing on one side counts as zero there.
func Savings(income, expense MonthlySeries) MonthlySeries {
	diff := make(map[Month]decimal.Decimal, len(income)+len(expense))
	for _, p := range income {
		diff[p.Month] = diff[p.Month].Add(p.Amount)
	}
	for _, p := range expense {
		diff[p.Month] = diff[p.Month].Sub(p.Amount)
	}
	return seriesFromMap(diff)
}

// Total sums every bucket.
func (s MonthlySeries) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s {
		total = total.Add(p.Amount)
	}
	return total
}

// Get returns the amount for a month.
func (s MonthlySeries) Get(m Month) (decimal.Decimal, bool) {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Month.Before(m) })
	if i < len(s) && s[i].Month == m {
		return s[i].Amount, true
	}
	return decimal.Zero, false
}

// Months returns the bucket keys in order.
func (s MonthlySeries) Months() []Month {
	out := make([]Month, len(s))
	for i, p := range s {
		out[i] = p.Month
	}
	return out
}

// Last returns the most recent bucket.
func (s MonthlySeries) Last() (MonthAmount, bool) {
	if len(s) == 0 {
		return MonthAmount{}, false
	}
	return s[len(s)-1], true
}
