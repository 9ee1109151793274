// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is returned when a table lacks a column the caller asked for.
var ErrMissingColumn = errors.New("missing column")

// Table is one worksheet: a header row of column names and string cells below it.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewTable builds a Table from a header row and data rows.
// Header names are trimmed; for repeated names the first column wins.
// Rows whose cells are all blank are dropped.
func NewTable(name string, header []string, rows [][]string) *Table {
	t := &Table{
		Name:    name,
		Columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		t.Columns[i] = h
		if _, exists := t.index[h]; !exists && h != "" {
			t.index[h] = i
		}
	}
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FromRows builds a Table whose first row is the header.
func FromRows(name string, rows [][]string) *Table {
	if len(rows) == 0 {
		return NewTable(name, nil, nil)
	}
	return NewTable(name, rows[0], rows[1:])
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// MissingColumns returns the names, in argument order, that the table lacks.
func (t *Table) MissingColumns(names ...string) []string {
	var missing []string
	for _, name := range names {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// RequireColumns returns an error wrapping ErrMissingColumn when any name is absent.
func (t *Table) RequireColumns(names ...string) error {
	missing := t.MissingColumns(names...)
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("sheet %q: %w: %s", t.Name, ErrMissingColumn, strings.Join(missing, ", "))
}

// Cell returns the trimmed value at row/column, or "" when the row is shorter
// than the header. Callers must check the column exists first.
func (t *Table) Cell(row int, column string) string {
	col, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return ""
	}
	cells := t.Rows[row]
	if col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}

// Index maps normalized values of column to the row numbers holding them,
// in sheet order. Rows with a blank key are skipped.
func (t *Table) Index(column string) (map[string][]int, error) {
	if err := t.RequireColumns(column); err != nil {
		return nil, err
	}
	idx := make(map[string][]int, len(t.Rows))
	for i := range t.Rows {
		key := t.Cell(i, column)
		if key == "" {
			continue
		}
		key = NormalizeKey(key)
		idx[key] = append(idx[key], i)
	}
	return idx, nil
}
