package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"budgetlens/internal/cli"
	"budgetlens/internal/config"
	applog "budgetlens/internal/log"
)

var (
	cfg    *config.Config
	logger *applog.Logger

	rootCmd = &cobra.Command{
		Use:   "budgetlens-cli",
		Short: "Categorize expenses and inspect monthly finances from the terminal",
		Long: `budgetlens-cli runs the same model, ledgers and forecast as the web
dashboard. Settings come from the environment and an optional .env file.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(categorizeCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(forecastCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	level, _ := cmd.Flags().GetString("log-level")
	c := applog.DefaultConfig()
	c.Level = applog.ParseLevel(level)
	c.Output = os.Stderr
	logger = applog.New(c)
	applog.SetDefault(logger)

	cfg = config.Load()
	return nil
}
