// Package cli provides common process initialization shared by
// cmd/budgetlens, cmd/budgetlens-worker and cmd/budgetlens-cli.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetlens/internal/config"
	applog "budgetlens/internal/log"
	"budgetlens/internal/model"
	"budgetlens/internal/storage"
)

// SetupLogger builds the process logger at the given level and installs it
// as the slog default.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	cfg.Component = applog.ComponentApp
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// LoadArtifacts loads the classifier and vectorizer or exits the process.
func LoadArtifacts(logger *applog.Logger, cfg *config.Config) *model.Artifacts {
	start := time.Now()
	artifacts, err := model.LoadArtifacts(cfg.ClassifierPath, cfg.VectorizerPath)
	if err != nil {
		logger.Error("Failed to load model artifacts",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpLoad,
			"classifier_path", cfg.ClassifierPath,
			"vectorizer_path", cfg.VectorizerPath)
		os.Exit(1)
	}
	logger.Info("Model artifacts loaded",
		applog.FieldVectorizerDim, artifacts.Vectorizer.Dim(),
		applog.FieldLabels, len(artifacts.Classifier.Classes()),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return artifacts
}

// LoadOptions reads the dropdown option sets or exits the process.
func LoadOptions(logger *applog.Logger, path string) config.Options {
	opts, err := config.LoadOptions(path)
	if err != nil {
		logger.Error("Failed to load options file", "error", err, "path", path)
		os.Exit(1)
	}
	return opts
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
