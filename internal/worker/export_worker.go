// Package worker exports recorded batches to the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgetlens/internal/amqp"
	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
	"budgetlens/internal/sheets"
)

// ExportWorker moves batches from the history store to the spreadsheet.
type ExportWorker struct {
	source    sheets.BatchSource
	exporter  sheets.RowExporter
	batchSize int
	logger    *applog.Logger
	now       func() time.Time
}

func NewExportWorker(source sheets.BatchSource, exporter sheets.RowExporter, batchSize int, logger *applog.Logger) *ExportWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &ExportWorker{
		source:    source,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger.WithComponent(applog.ComponentWorker),
		now:       time.Now,
	}
}

// HandleMessage exports the batch named in msg. Returning an error makes the
// consumer requeue the message; unknown batches are dropped.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.BatchCategorizedMessage) error {
	w.logger.InfoContext(ctx, "Processing batch message",
		applog.FieldBatchID, msg.BatchID,
		applog.FieldRows, msg.Rows)

	b, err := w.source.GetBatch(ctx, msg.BatchID)
	if errors.Is(err, core.ErrBatchNotFound) {
		w.logger.WarnContext(ctx, "Batch not found, dropping message", applog.FieldBatchID, msg.BatchID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get batch from storage: %w", err)
	}
	if b.Status == core.ExportDone {
		w.logger.DebugContext(ctx, "Batch already exported", applog.FieldBatchID, b.ID)
		return nil
	}
	return w.export(ctx, b)
}

// ProcessPending exports up to batchSize batches still waiting, covering
// messages that were lost or arrived while the worker was down. It returns
// the number of batches exported.
func (w *ExportWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.source.PendingBatches(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending batches: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	w.logger.InfoContext(ctx, "Processing pending batches", "count", len(pending))

	exported := 0
	for _, summary := range pending {
		if ctx.Err() != nil {
			return exported, ctx.Err()
		}
		b, err := w.source.GetBatch(ctx, summary.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to load pending batch", applog.FieldBatchID, summary.ID, "error", err)
			continue
		}
		if err := w.export(ctx, b); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export pending batch", applog.FieldBatchID, b.ID, "error", err)
			continue
		}
		exported++
	}
	return exported, nil
}

// RunPeriodic calls ProcessPending every interval until ctx ends.
func (w *ExportWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}

func (w *ExportWorker) export(ctx context.Context, b core.Batch) error {
	n, err := w.exporter.ExportBatch(ctx, b)
	if err != nil {
		if markErr := w.source.MarkExportFailed(ctx, b.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark export error", applog.FieldBatchID, b.ID, "error", markErr)
		}
		return fmt.Errorf("export batch %s: %w", b.ID, err)
	}
	if err := w.source.MarkExported(ctx, b.ID, w.now()); err != nil {
		// Rows are in the sheet already; the exporter skips the batch next time.
		w.logger.ErrorContext(ctx, "Failed to mark batch exported", applog.FieldBatchID, b.ID, "error", err)
	}
	w.logger.InfoContext(ctx, "Batch exported",
		applog.FieldBatchID, b.ID,
		applog.FieldRows, n)
	return nil
}
