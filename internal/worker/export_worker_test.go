package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budgetlens/internal/amqp"
	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
	"budgetlens/internal/sheets/memory"
)

type fakeExporter struct {
	mu       sync.Mutex
	fail     bool
	exported []string
}

func (f *fakeExporter) ExportBatch(_ context.Context, b core.Batch) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("sheets unavailable")
	}
	f.exported = append(f.exported, b.ID)
	return len(b.Rows), nil
}

func seed(t *testing.T, store *memory.Store, ids ...string) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		rows := []core.BatchRow{{Index: 0, Account: "Cash", Tags: "Food", Label: "Food"}}
		if err := store.RecordBatch(context.Background(), core.NewBatch(id, "u.csv", rows, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}
}

func TestHandleMessageExportsAndMarks(t *testing.T) {
	ctx := context.Background()
	store := memory.New(0)
	seed(t, store, "b-1")
	exp := &fakeExporter{}
	w := NewExportWorker(store, exp, 10, applog.Discard())

	if err := w.HandleMessage(ctx, amqp.NewBatchCategorizedMessage("b-1", 1)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if len(exp.exported) != 1 {
		t.Fatalf("expected one export, got %v", exp.exported)
	}
	b, _ := store.GetBatch(ctx, "b-1")
	if b.Status != core.ExportDone {
		t.Errorf("Status = %v, want exported", b.Status)
	}

	// A redelivered message is a no-op.
	if err := w.HandleMessage(ctx, amqp.NewBatchCategorizedMessage("b-1", 1)); err != nil {
		t.Fatalf("second HandleMessage() error = %v", err)
	}
	if len(exp.exported) != 1 {
		t.Errorf("batch exported twice: %v", exp.exported)
	}
}

func TestHandleMessageUnknownBatchIsDropped(t *testing.T) {
	w := NewExportWorker(memory.New(0), &fakeExporter{}, 10, applog.Discard())
	if err := w.HandleMessage(context.Background(), amqp.NewBatchCategorizedMessage("ghost", 1)); err != nil {
		t.Errorf("unknown batch should not requeue, got %v", err)
	}
}

func TestHandleMessageExportFailureRequeues(t *testing.T) {
	ctx := context.Background()
	store := memory.New(0)
	seed(t, store, "b-1")
	w := NewExportWorker(store, &fakeExporter{fail: true}, 10, applog.Discard())

	if err := w.HandleMessage(ctx, amqp.NewBatchCategorizedMessage("b-1", 1)); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	b, _ := store.GetBatch(ctx, "b-1")
	if b.Status != core.ExportFailed {
		t.Errorf("Status = %v, want failed", b.Status)
	}
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	ctx := context.Background()
	store := memory.New(0)
	seed(t, store, "a", "b", "c")
	exp := &fakeExporter{}
	w := NewExportWorker(store, exp, 2, applog.Discard())

	n, err := w.ProcessPending(ctx)
	if err != nil || n != 2 {
		t.Fatalf("ProcessPending() = %d, %v; want 2, nil", n, err)
	}
	n, err = w.ProcessPending(ctx)
	if err != nil || n != 1 {
		t.Fatalf("second ProcessPending() = %d, %v; want 1, nil", n, err)
	}
	if n, _ := w.ProcessPending(ctx); n != 0 {
		t.Errorf("expected nothing left, exported %d", n)
	}
}

func TestRunPeriodicStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewExportWorker(memory.New(0), &fakeExporter{}, 1, applog.Discard())
	done := make(chan struct{})
	go func() {
		w.RunPeriodic(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodic did not stop")
	}
}
