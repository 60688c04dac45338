package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL used by the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type batchRecord struct {
	ID           string
	Filename     string
	RowCount     int64
	CreatedAt    string
	ExportStatus string
	ExportedAt   sql.NullString
}

type rowRecord struct {
	RowIndex int64
	Account  string
	Tags     string
	Label    string
}

type labelCountRecord struct {
	Label string
	Count int64
}

const insertBatch = `INSERT INTO batches (id, filename, row_count, created_at, export_status)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertBatch(ctx context.Context, b batchRecord) error {
	_, err := q.db.ExecContext(ctx, insertBatch, b.ID, b.Filename, b.RowCount, b.CreatedAt, b.ExportStatus)
	return err
}

const insertBatchRow = `INSERT INTO batch_rows (batch_id, row_index, account, tags, label)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertBatchRow(ctx context.Context, batchID string, r rowRecord) error {
	_, err := q.db.ExecContext(ctx, insertBatchRow, batchID, r.RowIndex, r.Account, r.Tags, r.Label)
	return err
}

const selectBatchColumns = `SELECT id, filename, row_count, created_at, export_status, exported_at FROM batches`

func scanBatch(sc interface{ Scan(...any) error }) (batchRecord, error) {
	var b batchRecord
	err := sc.Scan(&b.ID, &b.Filename, &b.RowCount, &b.CreatedAt, &b.ExportStatus, &b.ExportedAt)
	return b, err
}

func (q *Queries) GetBatch(ctx context.Context, id string) (batchRecord, error) {
	return scanBatch(q.db.QueryRowContext(ctx, selectBatchColumns+` WHERE id = ?`, id))
}

func (q *Queries) listBatches(ctx context.Context, query string, args ...any) ([]batchRecord, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []batchRecord
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (q *Queries) RecentBatches(ctx context.Context, limit int64) ([]batchRecord, error) {
	return q.listBatches(ctx, selectBatchColumns+` ORDER BY created_at DESC, id LIMIT ?`, limit)
}

func (q *Queries) PendingBatches(ctx context.Context, limit int64) ([]batchRecord, error) {
	return q.listBatches(ctx, selectBatchColumns+` WHERE export_status IN ('pending', 'failed') ORDER BY created_at, id LIMIT ?`, limit)
}

const selectBatchRows = `SELECT row_index, account, tags, label FROM batch_rows WHERE batch_id = ? ORDER BY row_index`

func (q *Queries) BatchRows(ctx context.Context, batchID string) ([]rowRecord, error) {
	rows, err := q.db.QueryContext(ctx, selectBatchRows, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []rowRecord
	for rows.Next() {
		var r rowRecord
		if err := rows.Scan(&r.RowIndex, &r.Account, &r.Tags, &r.Label); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const selectLabelCounts = `SELECT label, COUNT(*) FROM batch_rows WHERE batch_id = ? GROUP BY label`

func (q *Queries) LabelCounts(ctx context.Context, batchID string) ([]labelCountRecord, error) {
	rows, err := q.db.QueryContext(ctx, selectLabelCounts, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []labelCountRecord
	for rows.Next() {
		var r labelCountRecord
		if err := rows.Scan(&r.Label, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const updateExportStatus = `UPDATE batches SET export_status = ?, exported_at = ? WHERE id = ?`

func (q *Queries) UpdateExportStatus(ctx context.Context, id, status string, exportedAt sql.NullString) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateExportStatus, status, exportedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
