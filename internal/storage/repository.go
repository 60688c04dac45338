// Package storage persists categorization history in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"budgetlens/internal/core"
	applog "budgetlens/internal/log"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *applog.Logger
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent uploads.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RecordBatch stores the batch and its rows in one transaction.
func (r *SQLiteRepository) RecordBatch(ctx context.Context, b core.Batch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := r.queries.WithTx(tx)
	status := b.Status
	if status == "" {
		status = core.ExportPending
	}
	if err := q.InsertBatch(ctx, batchRecord{
		ID:           b.ID,
		Filename:     b.Filename,
		RowCount:     int64(b.RowCount),
		CreatedAt:    b.CreatedAt.UTC().Format(timeLayout),
		ExportStatus: string(status),
	}); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	for _, row := range b.Rows {
		if err := q.InsertBatchRow(ctx, b.ID, rowRecord{
			RowIndex: int64(row.Index),
			Account:  row.Account,
			Tags:     row.Tags,
			Label:    row.Label,
		}); err != nil {
			return fmt.Errorf("insert batch row %d: %w", row.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	r.logger.InfoContext(ctx, "Batch saved to SQLite",
		applog.FieldBatchID, b.ID,
		applog.FieldFilename, b.Filename,
		applog.FieldRows, b.RowCount)
	return nil
}

// RecentBatches returns summaries with label counts, newest first.
func (r *SQLiteRepository) RecentBatches(ctx context.Context, limit int) ([]core.Batch, error) {
	recs, err := r.queries.RecentBatches(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list recent batches: %w", err)
	}
	out := make([]core.Batch, 0, len(recs))
	for _, rec := range recs {
		b, err := toBatch(rec)
		if err != nil {
			return nil, err
		}
		if b.LabelCounts, err = r.labelCounts(ctx, b.ID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// GetBatch loads a batch with all of its rows.
func (r *SQLiteRepository) GetBatch(ctx context.Context, id string) (core.Batch, error) {
	rec, err := r.queries.GetBatch(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Batch{}, fmt.Errorf("%w: %s", core.ErrBatchNotFound, id)
	}
	if err != nil {
		return core.Batch{}, fmt.Errorf("get batch %s: %w", id, err)
	}
	b, err := toBatch(rec)
	if err != nil {
		return core.Batch{}, err
	}
	rows, err := r.queries.BatchRows(ctx, id)
	if err != nil {
		return core.Batch{}, fmt.Errorf("get batch rows %s: %w", id, err)
	}
	b.Rows = make([]core.BatchRow, len(rows))
	for i, row := range rows {
		b.Rows[i] = core.BatchRow{Index: int(row.RowIndex), Account: row.Account, Tags: row.Tags, Label: row.Label}
	}
	b.LabelCounts = core.CountLabels(b.Rows)
	return b, nil
}

// PendingBatches returns batches not yet exported, oldest first.
func (r *SQLiteRepository) PendingBatches(ctx context.Context, limit int) ([]core.Batch, error) {
	recs, err := r.queries.PendingBatches(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending batches: %w", err)
	}
	out := make([]core.Batch, 0, len(recs))
	for _, rec := range recs {
		b, err := toBatch(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id string, at time.Time) error {
	if err := r.setStatus(ctx, id, core.ExportDone, sql.NullString{String: at.UTC().Format(timeLayout), Valid: true}); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Batch marked as exported", applog.FieldBatchID, id)
	return nil
}

func (r *SQLiteRepository) MarkExportFailed(ctx context.Context, id string) error {
	if err := r.setStatus(ctx, id, core.ExportFailed, sql.NullString{}); err != nil {
		return err
	}
	r.logger.WarnContext(ctx, "Batch marked with export error", applog.FieldBatchID, id)
	return nil
}

func (r *SQLiteRepository) setStatus(ctx context.Context, id string, status core.ExportStatus, at sql.NullString) error {
	n, err := r.queries.UpdateExportStatus(ctx, id, string(status), at)
	if err != nil {
		return fmt.Errorf("update export status %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrBatchNotFound, id)
	}
	return nil
}

func (r *SQLiteRepository) labelCounts(ctx context.Context, id string) ([]core.LabelCount, error) {
	recs, err := r.queries.LabelCounts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count labels %s: %w", id, err)
	}
	out := make([]core.LabelCount, len(recs))
	for i, rec := range recs {
		out[i] = core.LabelCount{Label: rec.Label, Count: int(rec.Count)}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

func toBatch(rec batchRecord) (core.Batch, error) {
	created, err := time.Parse(timeLayout, rec.CreatedAt)
	if err != nil {
		return core.Batch{}, fmt.Errorf("parse created_at of batch %s: %w", rec.ID, err)
	}
	b := core.Batch{
		ID:        rec.ID,
		Filename:  rec.Filename,
		RowCount:  int(rec.RowCount),
		CreatedAt: created,
		Status:    core.ExportStatus(rec.ExportStatus),
	}
	if rec.ExportedAt.Valid {
		at, err := time.Parse(timeLayout, rec.ExportedAt.String)
		if err != nil {
			return core.Batch{}, fmt.Errorf("parse exported_at of batch %s: %w", rec.ID, err)
		}
		b.ExportedAt = &at
	}
	return b, nil
}
