package core

import "strings"

// Table is a rectangular view of a CSV file: a header and rows that all have
// exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable builds a table, padding short rows with empty cells.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	t.Rows = make([][]string, len(rows))
	for i, r := range rows {
		t.Rows[i] = padRow(r, len(columns))
	}
	return t
}

func padRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

// ColumnIndex returns the position of the column with exactly this name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether a column with exactly this name exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Require returns a *MissingColumnsError naming every absent column.
func (t *Table) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !t.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Missing: missing}
	}
	return nil
}

// Column returns a copy of every value in the named column.
func (t *Table) Column(name string) []string {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out
}

// WithColumn returns a copy of the table where the named column holds values.
// An existing column is overwritten in place, otherwise the column is appended.
// len(values) must equal the number of rows.
func (t *Table) WithColumn(name string, values []string) *Table {
	idx := t.ColumnIndex(name)
	cols := append([]string(nil), t.Columns...)
	if idx < 0 {
		cols = append(cols, name)
		idx = len(cols) - 1
	}
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := padRow(r, len(cols))
		row[idx] = values[i]
		rows[i] = row
	}
	return &Table{Columns: cols, Rows: rows}
}

// Without returns a copy of the table without the named column.
func (t *Table) Without(name string) *Table {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return t.Clone()
	}
	cols := make([]string, 0, len(t.Columns)-1)
	cols = append(cols, t.Columns[:idx]...)
	cols = append(cols, t.Columns[idx+1:]...)
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, 0, len(cols))
		row = append(row, r[:idx]...)
		row = append(row, r[idx+1:]...)
		rows[i] = row
	}
	return &Table{Columns: cols, Rows: rows}
}

// Head returns at most n leading rows as a new table.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}
	return NewTable(t.Columns, t.Rows[:n])
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	return NewTable(t.Columns, t.Rows)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// JoinColumns concatenates two columns row-wise with a single space.
func (t *Table) JoinColumns(a, b string) []string {
	ia, ib := t.ColumnIndex(a), t.ColumnIndex(b)
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		var sb strings.Builder
		if ia >= 0 {
			sb.WriteString(r[ia])
		}
		sb.WriteByte(' ')
		if ib >= 0 {
			sb.WriteString(r[ib])
		}
		out[i] = sb.String()
	}
	return out
}
