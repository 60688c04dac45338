// Package services holds the application use cases: single and batch
// categorization, monthly analytics, the forecast view and batch history.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
	"budgetlens/internal/model"
	"budgetlens/internal/tabular"
)

// Prediction is the outcome of categorizing a single (account, tag) pair.
type Prediction struct {
	Account string
	Tag     string
	Text    string
	Label   string
}

// BatchResult is a categorized upload.
type BatchResult struct {
	BatchID string
	// Table carries every input column plus the derived text and the
	// predicted label.
	Table *core.Table
	// Output is what gets downloaded: the input columns plus
	// Predicted_Category, and the text column only when enabled.
	Output      *core.Table
	Preview     *core.Table
	CSV         []byte
	Filename    string
	LabelCounts []core.LabelCount
}

type CategorizerOptions struct {
	IncludeTextColumn bool
	PreviewRows       int
	// Progress, when set, is called after each chunk of a batch is labelled.
	Progress func(done, total int)
}

// predictChunk bounds how many rows are vectorized at once.
const predictChunk = 1000

// Categorizer applies the loaded model to single pairs and whole uploads.
type Categorizer struct {
	artifacts *model.Artifacts
	history   *HistoryService
	opts      CategorizerOptions
	logger    *applog.Logger
	newID     func() string
	now       func() time.Time
}

// NewCategorizer wires the model in. history may be nil to skip recording.
func NewCategorizer(artifacts *model.Artifacts, history *HistoryService, opts CategorizerOptions, logger *applog.Logger) *Categorizer {
	if opts.PreviewRows < 1 {
		opts.PreviewRows = 5
	}
	return &Categorizer{
		artifacts: artifacts,
		history:   history,
		opts:      opts,
		logger:    logger.WithComponent(applog.ComponentCategorize),
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Labels returns the set of categories the model can produce.
func (c *Categorizer) Labels() []string {
	return c.artifacts.Classifier.Classes()
}

// Predict categorizes one account and tag joined by a single space.
func (c *Categorizer) Predict(ctx context.Context, account, tag string) (Prediction, error) {
	text := account + " " + tag
	labels, err := c.artifacts.Predict([]string{text})
	if err != nil {
		c.logModelError(ctx, applog.OpPredict, err)
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	p := Prediction{Account: account, Tag: tag, Text: text, Label: labels[0]}
	c.logger.Fields(ctx, slog.LevelDebug, "Prediction made",
		applog.NewFields().WithPrediction(account, tag, p.Label).WithOperation(applog.OpPredict))
	return p, nil
}

// CategorizeBatch labels every row of t. The table must have account and
// tags columns; otherwise a *core.MissingColumnsError is returned and nothing
// is processed. Row order and original columns are kept.
func (c *Categorizer) CategorizeBatch(ctx context.Context, t *core.Table, sourceName string) (*BatchResult, error) {
	if err := t.Require(core.ColumnAccount, core.ColumnTags); err != nil {
		c.logger.Fields(ctx, slog.LevelWarn, "Upload rejected",
			applog.NewFields().
				WithBatch("", sourceName, t.Len()).
				WithOperation(applog.OpValidate).
				WithError(err, applog.ErrorTypeValidation))
		return nil, err
	}

	texts := t.JoinColumns(core.ColumnAccount, core.ColumnTags)
	labels, err := c.predictAll(ctx, texts)
	if err != nil {
		c.logModelError(ctx, applog.OpBatch, err)
		return nil, fmt.Errorf("categorize batch: %w", err)
	}

	full := t.WithColumn(core.ColumnText, texts).WithColumn(core.ColumnPredictedCategory, labels)
	output := t.WithColumn(core.ColumnPredictedCategory, labels)
	if c.opts.IncludeTextColumn {
		output = full
	}
	csv, err := tabular.Bytes(output)
	if err != nil {
		return nil, fmt.Errorf("serialize categorized csv: %w", err)
	}

	rows := core.BatchRowsFromTable(output)
	batch := core.NewBatch(c.newID(), sourceName, rows, c.now().UTC())
	res := &BatchResult{
		BatchID:     batch.ID,
		Table:       full,
		Output:      output,
		Preview:     output.Head(c.opts.PreviewRows),
		CSV:         csv,
		Filename:    core.CategorizedFilename,
		LabelCounts: batch.LabelCounts,
	}

	c.logger.Fields(ctx, slog.LevelInfo, "Batch categorized",
		applog.NewFields().WithBatch(batch.ID, sourceName, batch.RowCount).WithOperation(applog.OpBatch))

	if c.history != nil {
		if err := c.history.Record(ctx, batch); err != nil {
			c.logger.Fields(ctx, slog.LevelError, "Failed to record batch history",
				applog.NewFields().
					WithBatch(batch.ID, sourceName, batch.RowCount).
					WithOperation(applog.OpRecord).
					WithError(err, applog.ErrorTypeDatabase))
		}
	}
	return res, nil
}

func (c *Categorizer) predictAll(ctx context.Context, texts []string) ([]string, error) {
	labels := make([]string, 0, len(texts))
	for start := 0; start < len(texts); start += predictChunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+predictChunk, len(texts))
		chunk, err := c.artifacts.Predict(texts[start:end])
		if err != nil {
			return nil, err
		}
		labels = append(labels, chunk...)
		if c.opts.Progress != nil {
			c.opts.Progress(end, len(texts))
		}
	}
	return labels, nil
}

func (c *Categorizer) logModelError(ctx context.Context, op string, err error) {
	fields := applog.NewFields().WithOperation(op).WithError(err, applog.ErrorTypeModel)
	if errors.Is(err, model.ErrModelMismatch) {
		fields[applog.FieldVectorizerDim] = c.artifacts.Vectorizer.Dim()
		fields[applog.FieldClassifierDim] = c.artifacts.Classifier.NumFeatures()
	}
	c.logger.Fields(ctx, slog.LevelError, "Model inference failed", fields)
}
