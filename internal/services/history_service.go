package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
	"budgetlens/internal/sheets"
)

// Publisher announces recorded batches to downstream consumers.
type Publisher interface {
	PublishBatchCategorized(ctx context.Context, batchID string, rows int) error
}

// HistoryService records batch runs locally, then announces them. The local
// write is the source of truth; announcing is best effort.
type HistoryService struct {
	recorder  sheets.BatchRecorder
	publisher Publisher
	closers   []func() error
	logger    *applog.Logger
}

func NewHistoryService(recorder sheets.BatchRecorder, publisher Publisher, logger *applog.Logger, closers ...func() error) *HistoryService {
	return &HistoryService{
		recorder:  recorder,
		publisher: publisher,
		closers:   closers,
		logger:    logger.WithComponent(applog.ComponentHistory),
	}
}

// Record saves the batch and publishes an export message. Only a failed save
// is returned; a failed publish is logged and the periodic sweep picks the
// batch up later.
func (s *HistoryService) Record(ctx context.Context, b core.Batch) error {
	if s.publisher == nil {
		b.Status = core.ExportDisabled
	}
	if err := s.recorder.RecordBatch(ctx, b); err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishBatchCategorized(ctx, b.ID, b.RowCount); err != nil {
		s.logger.Fields(ctx, slog.LevelError, "Failed to publish batch message",
			applog.NewFields().
				WithBatch(b.ID, b.Filename, b.RowCount).
				WithOperation(applog.OpPublish).
				WithError(err, applog.ErrorTypeNetwork))
	}
	return nil
}

// Recent lists the newest batch summaries.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]core.Batch, error) {
	return s.recorder.RecentBatches(ctx, limit)
}

// ExportEnabled reports whether recorded batches are announced for export.
func (s *HistoryService) ExportEnabled() bool {
	return s.publisher != nil
}

// Close releases the store and the publisher connection.
func (s *HistoryService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close history service: %w", err)
	}
	return nil
}
