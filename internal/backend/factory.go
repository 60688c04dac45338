package backend

import (
	"context"
	"fmt"

	"budgetlens/internal/amqp"
	applog "budgetlens/internal/log"
	"budgetlens/internal/services"
	"budgetlens/internal/sheets/memory"
	"budgetlens/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentHistory)}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	closers := []func() error{repo.Close}

	// AMQP is optional: without it batches are recorded but never exported.
	var publisher services.Publisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without export", "error", err)
		} else {
			publisher = client
			closers = append([]func() error{client.Close}, closers...)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	history := services.NewHistoryService(repo, publisher, f.logger, closers...)
	f.logger.Info("Initialized SQLite history backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{History: history, Cleanup: history.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	limit := config.MemoryLimit
	if limit == 0 {
		limit = DefaultMemoryLimit
	}
	history := services.NewHistoryService(memory.New(limit), nil, f.logger)
	f.logger.Info("Initialized memory history backend", "limit", limit)
	return &BackendResult{History: history, Cleanup: history.Close}, nil
}
