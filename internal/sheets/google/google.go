// Package google exports categorized batches to a Google Sheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
	ports "budgetlens/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// sheetBase is prefixed with the batch year, e.g. "2024 Categorized".
	sheetBase string
	logger    *applog.Logger
}

var _ ports.RowExporter = (*Client)(nil)

type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New builds a client authenticated with a service account. Credentials come
// from Options, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, opts Options, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = "Categorized"
	}
	logger = logger.WithComponent(applog.ComponentExport)

	creds, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		sheetBase:     sheet,
		logger:        logger,
	}, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportBatch appends every row of b to the year sheet. A batch whose id is
// already present in column A is skipped, so redelivered messages do not
// duplicate rows.
func (c *Client) ExportBatch(ctx context.Context, b core.Batch) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	if len(b.Rows) == 0 {
		return 0, nil
	}
	sheet := yearPrefixedName(c.sheetBase, b.CreatedAt.Year())

	idRange := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, idRange).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", idRange, err)
	}
	if containsBatch(resp.Values, b.ID) {
		c.logger.InfoContext(ctx, "Batch already present in sheet, skipping", applog.FieldBatchID, b.ID, "sheet", sheet)
		return 0, nil
	}

	vr := &gsheet.ValueRange{Values: batchValues(b)}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, fmt.Sprintf("%s!A:F", sheet), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("append rows to %s: %w", sheet, err)
	}

	c.logger.InfoContext(ctx, "Batch appended to sheet",
		applog.FieldBatchID, b.ID,
		applog.FieldRows, len(b.Rows),
		"sheet", sheet)
	return len(b.Rows), nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
