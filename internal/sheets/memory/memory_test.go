package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetlens/internal/core"
)

func batchAt(id string, minute int) core.Batch {
	rows := []core.BatchRow{{Index: 0, Account: "Cash", Tags: "Food", Label: "Food"}}
	return core.NewBatch(id, id+".csv", rows, time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC))
}

func TestStoreRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := New(0)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.RecordBatch(ctx, batchAt(id, i)); err != nil {
			t.Fatalf("RecordBatch(%s) error = %v", id, err)
		}
	}

	recent, err := s.RecentBatches(ctx, 2)
	if err != nil {
		t.Fatalf("RecentBatches() error = %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Fatalf("unexpected recent batches: %+v", recent)
	}
	if recent[0].Rows != nil {
		t.Error("summaries must not carry rows")
	}
}

func TestStoreLimitDropsOldest(t *testing.T) {
	ctx := context.Background()
	s := New(2)
	for i, id := range []string{"a", "b", "c"} {
		_ = s.RecordBatch(ctx, batchAt(id, i))
	}
	if _, err := s.GetBatch(ctx, "a"); !errors.Is(err, core.ErrBatchNotFound) {
		t.Errorf("expected oldest batch dropped, got %v", err)
	}
}

func TestStoreExportLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New(0)
	_ = s.RecordBatch(ctx, batchAt("a", 0))
	_ = s.RecordBatch(ctx, batchAt("b", 1))

	pending, _ := s.PendingBatches(ctx, 10)
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}

	now := time.Now()
	if err := s.MarkExported(ctx, "a", now); err != nil {
		t.Fatalf("MarkExported() error = %v", err)
	}
	if err := s.MarkExportFailed(ctx, "b"); err != nil {
		t.Fatalf("MarkExportFailed() error = %v", err)
	}
	b, _ := s.GetBatch(ctx, "a")
	if b.Status != core.ExportDone || b.ExportedAt == nil {
		t.Errorf("unexpected batch after export: %+v", b)
	}

	pending, _ = s.PendingBatches(ctx, 10)
	if len(pending) != 1 || pending[0].ID != "b" {
		t.Errorf("failed batches should stay pending for retry, got %+v", pending)
	}

	if err := s.MarkExported(ctx, "zzz", now); !errors.Is(err, core.ErrBatchNotFound) {
		t.Errorf("expected ErrBatchNotFound, got %v", err)
	}
}
