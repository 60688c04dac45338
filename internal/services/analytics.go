package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetlens/internal/cache"
	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
	"budgetlens/internal/tabular"
)

// SeriesSection is one loaded ledger. Err is set when the file could not be
// turned into a series; the other sections still render.
type SeriesSection struct {
	Path   string
	Series core.MonthlySeries
	Err    error
}

// OK reports whether the section loaded.
func (s SeriesSection) OK() bool { return s.Err == nil }

// Dashboard is everything the analytics tab shows.
type Dashboard struct {
	Expenses       SeriesSection
	Income         SeriesSection
	Savings        core.MonthlySeries
	SavingsOK      bool
	HighestExpense core.MonthAmount
	HasHighest     bool
	Spending       core.Insight
	SavingsRemark  core.Insight
	Currency       string
}

// AnalyticsService turns the expense and income ledgers into monthly series.
type AnalyticsService struct {
	expensesPath string
	incomePath   string
	currency     string
	cache        cache.Cache[core.MonthlySeries]
	logger       *applog.Logger
}

// NewAnalyticsService builds the service. seriesCache may be nil to parse on
// every call.
func NewAnalyticsService(expensesPath, incomePath, currency string, seriesCache cache.Cache[core.MonthlySeries], logger *applog.Logger) *AnalyticsService {
	return &AnalyticsService{
		expensesPath: expensesPath,
		incomePath:   incomePath,
		currency:     currency,
		cache:        seriesCache,
		logger:       logger.WithComponent(applog.ComponentAnalytics),
	}
}

// Dashboard loads both ledgers in parallel and derives savings and insights.
func (s *AnalyticsService) Dashboard(ctx context.Context) Dashboard {
	d := Dashboard{
		Expenses: SeriesSection{Path: s.expensesPath},
		Income:   SeriesSection{Path: s.incomePath},
		Currency: s.currency,
	}

	// Section errors are kept on the dashboard, so the group never fails.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Expenses.Series, d.Expenses.Err = s.Series(gctx, s.expensesPath)
		return nil
	})
	g.Go(func() error {
		d.Income.Series, d.Income.Err = s.Series(gctx, s.incomePath)
		return nil
	})
	_ = g.Wait()

	if d.Expenses.OK() {
		d.HighestExpense, d.HasHighest = core.HighestMonth(d.Expenses.Series)
		d.Spending = core.SpendingInsight(d.Expenses.Series)
	}
	if d.Expenses.OK() && d.Income.OK() {
		d.Savings = core.Savings(d.Income.Series, d.Expenses.Series)
		d.SavingsOK = true
		d.SavingsRemark = core.SavingsInsight(d.Savings)
	}
	return d
}

// Series returns the monthly totals of one ledger file, from cache when the
// file is unchanged since the last parse.
func (s *AnalyticsService) Series(ctx context.Context, path string) (core.MonthlySeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := cache.FileKey(path)
	if err != nil {
		s.logLoadError(ctx, path, err, applog.ErrorTypeNotFound)
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if s.cache != nil {
		if series, ok := s.cache.Get(key); ok {
			return series, nil
		}
	}

	start := time.Now()
	t, err := tabular.ReadFile(path)
	if err != nil {
		s.logLoadError(ctx, path, err, applog.ErrorTypeData)
		return nil, err
	}
	txs, err := core.TransactionsFromTable(t)
	if err != nil {
		s.logLoadError(ctx, path, err, applog.ErrorTypeData)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	series := core.AggregateMonthly(txs)
	if s.cache != nil {
		s.cache.Set(key, series)
	}
	s.logger.DebugContext(ctx, "Ledger aggregated",
		applog.FieldFile, path,
		applog.FieldRows, len(txs),
		"months", len(series),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return series, nil
}

func (s *AnalyticsService) logLoadError(ctx context.Context, path string, err error, errType string) {
	fields := applog.NewFields().WithOperation(applog.OpLoad).WithError(err, errType)
	fields[applog.FieldFile] = path
	s.logger.Fields(ctx, slog.LevelWarn, "Ledger unavailable", fields)
}
