package domain

import "strings"

// Table is an already-parsed spreadsheet: an ordered header row plus raw text cells.
// Rows may be shorter than Columns; missing cells read as blank.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ColumnIndex returns the position of the named column, or -1.
// Names are compared after trimming surrounding whitespace.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	want := strings.TrimSpace(name)
	if want == "" {
		return -1
	}
	for i, col := range t.Columns {
		if strings.TrimSpace(col) == want {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has the named column
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the raw value at (row, col) or "" when the row is short
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// IsBlankRow reports whether every cell of the row is empty after trimming
func (t *Table) IsBlankRow(row int) bool {
	if row < 0 || row >= len(t.Rows) {
		return true
	}
	for _, cell := range t.Rows[row] {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
