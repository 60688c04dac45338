package core

import (
	"errors"
	"sort"
	"time"
)

// ErrBatchNotFound is returned by history stores for an unknown batch id.
var ErrBatchNotFound = errors.New("batch not found")

// ExportStatus tracks whether a batch has reached the spreadsheet.
type ExportStatus string

const (
	ExportPending  ExportStatus = "pending"
	ExportDone     ExportStatus = "exported"
	ExportFailed   ExportStatus = "failed"
	ExportDisabled ExportStatus = "disabled"
)

// BatchRow is one categorized upload row as kept in history.
type BatchRow struct {
	Index   int
	Account string
	Tags    string
	Label   string
}

// LabelCount is the number of rows that received a label.
type LabelCount struct {
	Label string
	Count int
}

// Batch is one run of the batch categorizer.
type Batch struct {
	ID          string
	Filename    string
	RowCount    int
	LabelCounts []LabelCount
	CreatedAt   time.Time
	Status      ExportStatus
	ExportedAt  *time.Time
	Rows        []BatchRow
}

// NewBatch builds a pending batch and tallies its labels.
func NewBatch(id, filename string, rows []BatchRow, createdAt time.Time) Batch {
	return Batch{
		ID:          id,
		Filename:    filename,
		RowCount:    len(rows),
		LabelCounts: CountLabels(rows),
		CreatedAt:   createdAt,
		Status:      ExportPending,
		Rows:        rows,
	}
}

// CountLabels tallies labels, most frequent first, ties by label name.
func CountLabels(rows []BatchRow) []LabelCount {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Label]++
	}
	out := make([]LabelCount, 0, len(counts))
	for l, c := range counts {
		out = append(out, LabelCount{Label: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// BatchRowsFromTable extracts history rows from a categorized table.
func BatchRowsFromTable(t *Table) []BatchRow {
	acc := t.ColumnIndex(ColumnAccount)
	tags := t.ColumnIndex(ColumnTags)
	pred := t.ColumnIndex(ColumnPredictedCategory)
	rows := make([]BatchRow, len(t.Rows))
	for i, r := range t.Rows {
		row := BatchRow{Index: i}
		if acc >= 0 {
			row.Account = r[acc]
		}
		if tags >= 0 {
			row.Tags = r[tags]
		}
		if pred >= 0 {
			row.Label = r[pred]
		}
		rows[i] = row
	}
	return rows
}
