package sheets

import (
	"context"
	"time"

	"budgetlens/internal/core"
)

// Ports for categorization history and export adapters.
type (
	// BatchRecorder keeps the history of batch runs shown on the dashboard.
	BatchRecorder interface {
		RecordBatch(ctx context.Context, b core.Batch) error
		// RecentBatches returns batch summaries, newest first, without rows.
		RecentBatches(ctx context.Context, limit int) ([]core.Batch, error)
	}

	// BatchSource is read by the export worker.
	BatchSource interface {
		GetBatch(ctx context.Context, id string) (core.Batch, error)
		PendingBatches(ctx context.Context, limit int) ([]core.Batch, error)
		MarkExported(ctx context.Context, id string, at time.Time) error
		MarkExportFailed(ctx context.Context, id string) error
	}

	// RowExporter appends categorized rows to an external spreadsheet.
	RowExporter interface {
		ExportBatch(ctx context.Context, b core.Batch) (appended int, err error)
	}
)
