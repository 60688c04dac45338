package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetlens/internal/cache"
	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
	"budgetlens/internal/model"
	"budgetlens/internal/sheets/memory"
	"budgetlens/internal/tabular"
)

func testArtifacts(t *testing.T) *model.Artifacts {
	t.Helper()
	vec, err := model.NewVectorizer(model.VectorizerSpec{
		Kind:       model.KindCount,
		Vocabulary: map[string]int{"acct_1": 0, "acct_2": 1, "tag_1": 2, "tag_2": 3},
		// underscores are word characters, so acct_1 stays one token
	})
	require.NoError(t, err)
	clf, err := model.NewClassifier(model.ClassifierSpec{
		Kind:      model.KindLinear,
		Classes:   []string{"Food", "Rent", "Travel"},
		NFeatures: 4,
		Coef:      [][]float64{{1, 0, 1, 0}, {0, 2, 0, 0}, {0, 0, 0, 2}},
		Intercept: []float64{0, 0, 0},
	})
	require.NoError(t, err)
	a, err := model.NewArtifacts(clf, vec)
	require.NoError(t, err)
	return a
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishBatchCategorized(_ context.Context, id string, _ int) error {
	f.published = append(f.published, id)
	return f.err
}

func TestCategorizer_PredictReturnsKnownLabel(t *testing.T) {
	c := NewCategorizer(testArtifacts(t), nil, CategorizerOptions{}, applog.Discard())
	labels := c.Labels()
	for _, acct := range []string{"acct_1", "acct_2", "acct_3"} {
		for _, tag := range []string{"tag_1", "tag_2", "tag_3"} {
			p, err := c.Predict(context.Background(), acct, tag)
			require.NoError(t, err)
			assert.Contains(t, labels, p.Label)
			assert.Equal(t, acct+" "+tag, p.Text)
		}
	}

	p, err := c.Predict(context.Background(), "acct_1", "tag_1")
	require.NoError(t, err)
	assert.Equal(t, "Food", p.Label)
}

func TestCategorizer_BatchMatchesSinglePredictions(t *testing.T) {
	ctx := context.Background()
	c := NewCategorizer(testArtifacts(t), nil, CategorizerOptions{}, applog.Discard())
	in := core.NewTable([]string{"account", "tags", "note"}, [][]string{
		{"acct_2", "tag_1", "rent"},
		{"acct_1", "tag_2", "trip"},
	})

	res, err := c.CategorizeBatch(ctx, in, "upload.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"account", "tags", "note", "Predicted_Category"}, res.Output.Columns)
	require.Equal(t, 2, res.Output.Len())
	assert.Equal(t, core.CategorizedFilename, res.Filename)
	assert.NotEmpty(t, res.BatchID)

	for i, row := range in.Rows {
		single, err := c.Predict(ctx, row[0], row[1])
		require.NoError(t, err)
		assert.Equal(t, single.Label, res.Output.Rows[i][3])
		assert.Equal(t, row[2], res.Output.Rows[i][2])
	}

	parsed, err := tabular.ReadBytes(res.CSV)
	require.NoError(t, err)
	assert.Equal(t, res.Output.Columns, parsed.Columns)
	assert.Equal(t, res.Output.Rows, parsed.Rows)
	assert.True(t, res.Table.HasColumn(core.ColumnText))
}

func TestCategorizer_BatchOptions(t *testing.T) {
	rows := make([][]string, 8)
	for i := range rows {
		rows[i] = []string{"acct_1", "tag_1", "Old"}
	}
	in := core.NewTable([]string{"account", "tags", "Predicted_Category"}, rows)

	c := NewCategorizer(testArtifacts(t), nil, CategorizerOptions{IncludeTextColumn: true, PreviewRows: 3}, applog.Discard())
	res, err := c.CategorizeBatch(context.Background(), in, "x.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"account", "tags", "Predicted_Category", "text"}, res.Output.Columns)
	assert.Equal(t, "Food", res.Output.Rows[0][2])
	assert.Equal(t, 3, res.Preview.Len())
	assert.Equal(t, []core.LabelCount{{Label: "Food", Count: 8}}, res.LabelCounts)
}

func TestCategorizer_ReportsProgressPerChunk(t *testing.T) {
	rows := make([][]string, predictChunk+5)
	for i := range rows {
		rows[i] = []string{"acct_1", "tag_2"}
	}
	in := core.NewTable([]string{"account", "tags"}, rows)

	var calls [][2]int
	opts := CategorizerOptions{Progress: func(done, total int) { calls = append(calls, [2]int{done, total}) }}
	c := NewCategorizer(testArtifacts(t), nil, opts, applog.Discard())
	res, err := c.CategorizeBatch(context.Background(), in, "big.csv")
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{predictChunk, len(rows)}, {len(rows), len(rows)}}, calls)
	assert.Equal(t, len(rows), res.Output.Len())
	assert.Equal(t, "Travel", res.Output.Rows[len(rows)-1][2])
}

func TestCategorizer_MissingColumns(t *testing.T) {
	history := NewHistoryService(memory.New(0), nil, applog.Discard())
	c := NewCategorizer(testArtifacts(t), history, CategorizerOptions{}, applog.Discard())
	in := core.NewTable([]string{"account", "note"}, [][]string{{"acct_1", "x"}})

	res, err := c.CategorizeBatch(context.Background(), in, "bad.csv")
	assert.Nil(t, res)
	require.ErrorIs(t, err, core.ErrMissingColumns)
	var mce *core.MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{"tags"}, mce.Missing)

	recent, err := history.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestCategorizer_RecordsHistory(t *testing.T) {
	ctx := context.Background()
	store := memory.New(0)
	pub := &fakePublisher{}
	c := NewCategorizer(testArtifacts(t), NewHistoryService(store, pub, applog.Discard()), CategorizerOptions{}, applog.Discard())
	c.newID = func() string { return "batch-1" }
	c.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	in := core.NewTable([]string{"account", "tags"}, [][]string{{"acct_2", "tag_1"}})
	_, err := c.CategorizeBatch(ctx, in, "upload.csv")
	require.NoError(t, err)

	b, err := store.GetBatch(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, "upload.csv", b.Filename)
	assert.Equal(t, core.ExportPending, b.Status)
	require.Len(t, b.Rows, 1)
	assert.Equal(t, "Rent", b.Rows[0].Label)
	assert.Equal(t, []string{"batch-1"}, pub.published)
}

func TestHistoryService_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.New(0)
	h := NewHistoryService(store, &fakePublisher{err: errors.New("broker down")}, applog.Discard())

	b := core.NewBatch("b1", "f.csv", []core.BatchRow{{Index: 0, Label: "Food"}}, time.Now())
	require.NoError(t, h.Record(ctx, b))
	assert.True(t, h.ExportEnabled())

	got, err := store.GetBatch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, core.ExportPending, got.Status)
}

func TestHistoryService_NoPublisherDisablesExport(t *testing.T) {
	ctx := context.Background()
	store := memory.New(0)
	closed := false
	h := NewHistoryService(store, nil, applog.Discard(), func() error { closed = true; return nil })

	require.NoError(t, h.Record(ctx, core.NewBatch("b1", "f.csv", nil, time.Now())))
	got, err := store.GetBatch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, core.ExportDisabled, got.Status)
	assert.False(t, h.ExportEnabled())

	require.NoError(t, h.Close())
	assert.True(t, closed)
}

func TestAnalytics_Dashboard(t *testing.T) {
	dir := t.TempDir()
	exp := writeFile(t, dir, "expenses.csv", "date_time,amount,account\n"+
		"2024-01-15 10:00:00,100,a\n"+
		"2024-01-20 09:00:00,50,b\n"+
		"2024-02-03 12:00:00,80.5,a\n")
	inc := writeFile(t, dir, "income.csv", "date_time,amount\n"+
		"2024-01-01,500\n"+
		"2024-03-01,200\n")

	svc := NewAnalyticsService(exp, inc, "₹", nil, applog.Discard())
	d := svc.Dashboard(context.Background())
	require.NoError(t, d.Expenses.Err)
	require.NoError(t, d.Income.Err)

	require.Len(t, d.Expenses.Series, 2)
	assert.Equal(t, "150", d.Expenses.Series[0].Amount.String())
	assert.Equal(t, "2024-01", d.Expenses.Series[0].Month.String())

	require.True(t, d.HasHighest)
	assert.Equal(t, "2024-01", d.HighestExpense.Month.String())
	assert.Equal(t, core.ToneSuccess, d.Spending.Tone)

	require.True(t, d.SavingsOK)
	require.Len(t, d.Savings, 3)
	assert.Equal(t, "350", d.Savings[0].Amount.String())
	assert.Equal(t, "-80.5", d.Savings[1].Amount.String())
	assert.Equal(t, "200", d.Savings[2].Amount.String())
	assert.True(t, d.SavingsRemark.Computed)
}

func TestAnalytics_SectionFailuresAreIsolated(t *testing.T) {
	dir := t.TempDir()
	exp := writeFile(t, dir, "expenses.csv", "date_time,amount\n2024-01-15,abc\n")
	inc := writeFile(t, dir, "income.csv", "date_time,amount\n2024-01-01,10\n")

	svc := NewAnalyticsService(exp, inc, "₹", nil, applog.Discard())
	d := svc.Dashboard(context.Background())

	var rowErr *core.RowError
	require.ErrorAs(t, d.Expenses.Err, &rowErr)
	assert.Equal(t, 1, rowErr.Row)
	require.NoError(t, d.Income.Err)
	assert.False(t, d.SavingsOK)
	assert.False(t, d.HasHighest)

	missing := NewAnalyticsService(filepath.Join(dir, "nope.csv"), inc, "₹", nil, applog.Discard())
	d = missing.Dashboard(context.Background())
	assert.ErrorIs(t, d.Expenses.Err, os.ErrNotExist)
}

func TestAnalytics_CachesUntilFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "expenses.csv", "date_time,amount\n2024-01-15,10\n")
	lru := cache.NewLRUCache[core.MonthlySeries](4, time.Hour)
	svc := NewAnalyticsService(path, path, "₹", lru, applog.Discard())

	first, err := svc.Series(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, lru.Size())

	again, err := svc.Series(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, lru.Size())

	require.NoError(t, os.WriteFile(path, []byte("date_time,amount\n2024-01-15,10\n2024-02-01,5\n"), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	changed, err := svc.Series(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, changed, 2)
}

func TestForecastService_Load(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content *string
		reason  core.ForecastReason
	}{
		{name: "absent file", reason: core.ForecastNotFound},
		{name: "zero bytes", content: ptr(""), reason: core.ForecastEmpty},
		{name: "header only", content: ptr("month,forecast\n"), reason: core.ForecastEmpty},
		{name: "wrong columns", content: ptr("month,value\n2024-04,1\n"), reason: core.ForecastMissingColumns},
		{name: "bad month", content: ptr("month,forecast\nsoon,1\n"), reason: core.ForecastBadMonth},
		{name: "bad value", content: ptr("month,forecast\n2024-04,lots\n"), reason: core.ForecastBadValue},
		{name: "malformed", content: ptr("month,forecast\n\"2024-04,1\n"), reason: core.ForecastMalformedCSV},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "forecast"+string(rune('a'+i))+".csv")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}
			f := NewForecastService(path, applog.Discard()).Load(context.Background())
			assert.False(t, f.Available())
			assert.Equal(t, tt.reason, f.Reason())
		})
	}
}

func TestForecastService_Available(t *testing.T) {
	path := writeFile(t, t.TempDir(), "forecast.csv", "month,forecast\n2024-04,1234.565\n2024-05,99\n")
	f := NewForecastService(path, applog.Discard()).Load(context.Background())
	require.True(t, f.Available())
	next, ok := f.NextMonth()
	require.True(t, ok)
	assert.Equal(t, "2024-04", next.Month.String())
	assert.Equal(t, "1234.56", next.Forecast.StringFixed(2))
}

func ptr(s string) *string { return &s }
