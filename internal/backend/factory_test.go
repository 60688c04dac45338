package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"budgetlens/internal/config"
	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
)

func TestBackendTypeIsValid(t *testing.T) {
	tests := []struct {
		in   BackendType
		want bool
	}{
		{SQLiteBackend, true},
		{MemoryBackend, true},
		{"sheets", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.in.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg := &config.Config{HistoryBackend: "sqlite", SQLiteDBPath: "x.db", AMQPURL: "amqp://h", AMQPExchange: "e", AMQPQueue: "q"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != "x.db" || got.AMQPQueue != "q" {
		t.Errorf("unexpected backend config: %+v", got)
	}

	cfg.HistoryBackend = "postgres"
	if _, err := FromAppConfig(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Error("sqlite without path should fail validation")
	}
	if err := (Config{Type: MemoryBackend}).Validate(); err != nil {
		t.Errorf("memory should validate: %v", err)
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(applog.Discard()).CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.History.ExportEnabled() {
		t.Error("memory backend should not export")
	}
	if err := res.History.Record(ctx, core.NewBatch("b1", "f.csv", nil, time.Now())); err != nil {
		t.Fatalf("Record: %v", err)
	}
	recent, err := res.History.Recent(ctx, 5)
	if err != nil || len(recent) != 1 {
		t.Fatalf("Recent = %v, %v", recent, err)
	}
}

func TestCreateSQLiteBackendWithoutAMQP(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	res, err := NewFactory(applog.Discard()).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if err := res.History.Record(ctx, core.NewBatch("b1", "f.csv", []core.BatchRow{{Index: 0, Label: "Food"}}, time.Now())); err != nil {
		t.Fatalf("Record: %v", err)
	}
	recent, err := res.History.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Status != core.ExportDisabled {
		t.Errorf("unexpected recent batches: %+v", recent)
	}
}
