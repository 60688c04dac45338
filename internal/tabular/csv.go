// Package tabular reads and writes the CSV files the application exchanges
// with users and with the offline pipeline.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"budgetlens/internal/core"
)

var (
	// ErrEmptyFile is returned when the input has no header line.
	ErrEmptyFile = errors.New("csv has no header")
	// ErrMalformed wraps parse failures and rows wider than the header.
	ErrMalformed = errors.New("malformed csv")
)

// Read parses a CSV stream into a table. A leading UTF-8 or UTF-16 byte order
// mark is honoured, rows shorter than the header are padded and header names
// are trimmed of surrounding whitespace.
func Read(r io.Reader) (*core.Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrMalformed, line, len(rec), len(header))
		}
		if len(rec) == 1 && rec[0] == "" && len(header) > 1 {
			continue
		}
		rows = append(rows, rec)
	}
	return core.NewTable(header, rows), nil
}

// ReadBytes parses an in-memory CSV document.
func ReadBytes(data []byte) (*core.Table, error) {
	return Read(bytes.NewReader(data))
}

// ReadFile opens and parses a CSV file. A missing file surfaces os.ErrNotExist.
func ReadFile(path string) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Write serializes a table as UTF-8 CSV with a header line and no index column.
func Write(w io.Writer, t *core.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Bytes serializes a table to memory.
func Bytes(t *core.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
