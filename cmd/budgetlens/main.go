package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"budgetlens/internal/backend"
	"budgetlens/internal/cache"
	"budgetlens/internal/cli"
	"budgetlens/internal/core"
	apphttp "budgetlens/internal/http"
	applog "budgetlens/internal/log"
	"budgetlens/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	artifacts := cli.LoadArtifacts(logger, cfg)
	options := cli.LoadOptions(logger, cfg.OptionsFile)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid history backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create history backend", applog.FieldError, err, "backend", cfg.HistoryBackend)
		os.Exit(1)
	}

	// Ledgers are re-parsed only when their modification time or size changes.
	seriesCache := cache.NewLRUCache[core.MonthlySeries](16, time.Hour)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(seriesCache)
	cacheManager.StartCleanup(10 * time.Minute)

	categorizer := services.NewCategorizer(artifacts, result.History, services.CategorizerOptions{
		IncludeTextColumn: cfg.IncludeTextColumn,
		PreviewRows:       cfg.PreviewRows,
	}, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Categorizer: categorizer,
		Analytics:   services.NewAnalyticsService(cfg.ExpensesCSV, cfg.IncomeCSV, cfg.CurrencySymbol, seriesCache, logger),
		Forecast:    services.NewForecastService(cfg.ForecastCSV, logger),
		History:     result.History,
		Options:     options,
	}, apphttp.ServerConfig{
		MaxUploadBytes:   cfg.MaxUploadBytes,
		CurrencySymbol:   cfg.CurrencySymbol,
		DownloadTTL:      apphttp.DefaultServerConfig().DownloadTTL,
		UploadsPerMinute: apphttp.DefaultServerConfig().UploadsPerMinute,
		TrustedProxies:   cfg.TrustedProxies,
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if err := result.Cleanup(); err != nil {
			logger.Error("History backend cleanup failed", applog.FieldError, err)
		}
	})

	logger.Info("Starting budgetlens server",
		"port", cfg.Port,
		"history_backend", cfg.HistoryBackend,
		"export_enabled", result.History.ExportEnabled(),
		"labels", len(categorizer.Labels()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
