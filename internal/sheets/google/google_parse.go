package google

import (
	"fmt"
	"strings"
	"time"

	"budgetlens/internal/core"
)

// batchValues lays out one sheet row per batch row:
// batch id, created at, row index, account, tags, predicted category.
func batchValues(b core.Batch) [][]any {
	created := b.CreatedAt.UTC().Format(time.RFC3339)
	out := make([][]any, len(b.Rows))
	for i, r := range b.Rows {
		out[i] = []any{b.ID, created, r.Index, r.Account, r.Tags, r.Label}
	}
	return out
}

// containsBatch scans a column-A values matrix for the batch id.
func containsBatch(values [][]any, batchID string) bool {
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == batchID {
			return true
		}
	}
	return false
}
