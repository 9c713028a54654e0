package models

import "strings"

// Table is an in-memory header + rows view of one uploaded sheet.
// Rows are always padded/truncated to len(Headers) by the readers.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

func NewTable(name string, headers []string) *Table {
	return &Table{Name: name, Headers: headers}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the first header equal to name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, h := range t.Headers {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Value returns the trimmed cell of row i under column name, or "" when either is missing.
func (t *Table) Value(i int, name string) string {
	idx, ok := t.ColumnIndex(name)
	if !ok || i < 0 || i >= len(t.Rows) || idx >= len(t.Rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[i][idx])
}

func (t *Table) AppendRow(row []string) {
	padded := make([]string, len(t.Headers))
	copy(padded, row)
	t.Rows = append(t.Rows, padded)
}

// Column accessor bound to a fixed header position, resolved once per table.
type Column struct {
	Name  string
	Index int
}

func (c Column) Get(row []string) string {
	if c.Index < 0 || c.Index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[c.Index])
}
