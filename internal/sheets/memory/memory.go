// Package memory is the process-local history store used when no database
// is configured. Contents are lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"budgetlens/internal/core"
)

type Store struct {
	mu      sync.Mutex
	limit   int
	batches map[string]core.Batch
	order   []string
}

// New keeps at most limit batches, dropping the oldest first. A limit below
// one keeps everything.
func New(limit int) *Store {
	return &Store{limit: limit, batches: make(map[string]core.Batch)}
}

func (s *Store) RecordBatch(_ context.Context, b core.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.batches[b.ID]; !exists {
		s.order = append(s.order, b.ID)
	}
	s.batches[b.ID] = cloneBatch(b)
	if s.limit > 0 {
		for len(s.order) > s.limit {
			delete(s.batches, s.order[0])
			s.order = s.order[1:]
		}
	}
	return nil
}

func (s *Store) RecentBatches(_ context.Context, limit int) ([]core.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Batch, 0, len(s.order))
	for _, id := range s.order {
		b := s.batches[id]
		b.Rows = nil
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetBatch(_ context.Context, id string) (core.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return core.Batch{}, core.ErrBatchNotFound
	}
	return cloneBatch(b), nil
}

func (s *Store) PendingBatches(_ context.Context, limit int) ([]core.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Batch
	for _, id := range s.order {
		b := s.batches[id]
		if b.Status == core.ExportPending || b.Status == core.ExportFailed {
			out = append(out, cloneBatch(b))
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) MarkExported(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(b *core.Batch) {
		b.Status = core.ExportDone
		b.ExportedAt = &at
	})
}

func (s *Store) MarkExportFailed(_ context.Context, id string) error {
	return s.update(id, func(b *core.Batch) { b.Status = core.ExportFailed })
}

func (s *Store) update(id string, fn func(*core.Batch)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return core.ErrBatchNotFound
	}
	fn(&b)
	s.batches[id] = b
	return nil
}

func cloneBatch(b core.Batch) core.Batch {
	b.Rows = append([]core.BatchRow(nil), b.Rows...)
	b.LabelCounts = append([]core.LabelCount(nil), b.LabelCounts...)
	return b
}
