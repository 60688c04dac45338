package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budgetlens/internal/core"
	"budgetlens/internal/services"
)

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show monthly expenses, income and savings with insights",
		RunE: func(cmd *cobra.Command, _ []string) error {
			analytics := services.NewAnalyticsService(cfg.ExpensesCSV, cfg.IncomeCSV, cfg.CurrencySymbol, nil, logger)
			d := analytics.Dashboard(cmd.Context())
			w := cmd.OutOrStdout()

			for _, section := range []struct {
				title string
				s     services.SeriesSection
			}{{"Expenses", d.Expenses}, {"Income", d.Income}} {
				fmt.Fprintf(w, "%s (%s)\n", section.title, section.s.Path)
				if !section.s.OK() {
					fmt.Fprintf(w, "  unavailable: %v\n\n", section.s.Err)
					continue
				}
				printSeries(w, d.Currency, section.s.Series)
			}

			if d.SavingsOK {
				fmt.Fprintln(w, "Savings")
				printSeries(w, d.Currency, d.Savings)
			}
			if d.HasHighest {
				fmt.Fprintf(w, "Highest spending: %s (%s)\n", d.HighestExpense.Month, core.FormatAmount(d.Currency, d.HighestExpense.Amount))
			}
			if d.Expenses.OK() {
				fmt.Fprintf(w, "Spending: %s\n", d.Spending.Message)
			}
			if d.SavingsOK {
				fmt.Fprintf(w, "Savings: %s\n", d.SavingsRemark.Message)
			}
			return nil
		},
	}
}

func printSeries(out io.Writer, currency string, s core.MonthlySeries) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, p := range s {
		fmt.Fprintf(w, "  %s\t%s\t\n", p.Month, core.FormatAmount(currency, p.Amount))
	}
	fmt.Fprintf(w, "  total\t%s\t\n", core.FormatAmount(currency, s.Total()))
	_ = w.Flush()
	fmt.Fprintln(out)
}

func forecastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Show next month's forecast or why it is unavailable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := services.NewForecastService(cfg.ForecastCSV, logger).Load(cmd.Context())
			w := cmd.OutOrStdout()
			next, ok := f.NextMonth()
			if !ok {
				fmt.Fprintf(w, "%s (reason: %s)\n", services.ForecastUnavailableMessage, f.Reason())
				return nil
			}
			fmt.Fprintf(w, "Next month's forecast (%s): %s\n", next.Month, core.FormatAmount(cfg.CurrencySymbol, next.Forecast))
			printForecast(w, cfg.CurrencySymbol, f.Points)
			return nil
		},
	}
}

func printForecast(out io.Writer, currency string, points []core.ForecastPoint) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, p := range points {
		fmt.Fprintf(w, "  %s\t%s\t\n", p.Month, core.FormatAmount(currency, p.Forecast))
	}
	_ = w.Flush()
}
