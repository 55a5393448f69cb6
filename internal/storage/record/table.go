// Package record persists tabular datasets as line-delimited JSON and reads
// them back as raw text.
package record

import (
	"fmt"

	"github.com/newthinker/klineprompt/internal/core"
)

// Table is an ordered set of named columns with one value per column per row.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a row. The number of values must match the number of columns.
func (t *Table) Append(values ...any) {
	if len(values) != len(t.Columns) {
		panic(fmt.Sprintf("record: row has %d values, table has %d columns", len(values), len(t.Columns)))
	}
	t.Rows = append(t.Rows, values)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of a column, or -1.
func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Project returns a copy restricted to columns, in that order. Every
// requested column must exist.
func (t *Table) Project(columns []string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j := t.Index(c)
		if j < 0 {
			return nil, core.WrapError(core.ErrSchema, fmt.Errorf("column %q not in dataset", c))
		}
		idx[i] = j
	}

	out := &Table{
		Columns: append([]string(nil), columns...),
		Rows:    make([][]any, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		projected := make([]any, len(idx))
		for i, j := range idx {
			projected[i] = row[j]
		}
		out.Rows = append(out.Rows, projected)
	}
	return out, nil
}

// clone copies the row slices so callers' data is never mutated.
func (t *Table) clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}
