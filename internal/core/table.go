package core

import (
	"fmt"
	"slices"
)

// Row is one record of a Table. ID never changes after ingestion.
type Row struct {
	ID     RowID
	Source string // Name of the source the row was read from
	Values map[string]Cell
}

// Get returns the value of column, or a null cell if the row lacks it.
func (r *Row) Get(column string) Cell {
	if r == nil {
		return NullCell()
	}
	c, ok := r.Values[column]
	if !ok {
		return NullCell()
	}
	return c
}

func (r *Row) clone() *Row {
	values := make(map[string]Cell, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return &Row{ID: r.ID, Source: r.Source, Values: values}
}

// Table is an ordered, column-named set of rows keyed by RowID.
type Table struct {
	Columns []string
	Rows    []*Row

	index map[RowID]int
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Append adds a row. The row ID must not already be present.
func (t *Table) Append(r *Row) error {
	t.ensureIndex()
	if _, ok := t.index[r.ID]; ok {
		return fmt.Errorf("append row %d: row already present", r.ID)
	}
	if r.Values == nil {
		r.Values = make(map[string]Cell)
	}
	t.index[r.ID] = len(t.Rows)
	t.Rows = append(t.Rows, r)
	return nil
}

// AppendValues is a convenience for building tables in code. Values are
// matched to Columns by position; "" becomes null.
func (t *Table) AppendValues(id RowID, values ...string) error {
	if len(values) > len(t.Columns) {
		return fmt.Errorf("append row %d: %d values for %d columns", id, len(values), len(t.Columns))
	}
	row := &Row{ID: id, Values: make(map[string]Cell, len(t.Columns))}
	for i, col := range t.Columns {
		if i < len(values) {
			row.Values[col] = StringCell(values[i])
		} else {
			row.Values[col] = NullCell()
		}
	}
	return t.Append(row)
}

// Row returns the row with the given identity.
func (t *Table) Row(id RowID) (*Row, bool) {
	t.ensureIndex()
	i, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return t.Rows[i], true
}

// Has reports whether a row with the given identity is present.
func (t *Table) Has(id RowID) bool {
	_, ok := t.Row(id)
	return ok
}

// HasColumn reports whether column is part of the table.
func (t *Table) HasColumn(column string) bool {
	return slices.Contains(t.Columns, column)
}

// Get returns the cell at (id, column).
func (t *Table) Get(id RowID, column string) (Cell, bool) {
	r, ok := t.Row(id)
	if !ok {
		return Cell{}, false
	}
	return r.Get(column), true
}

// Set overwrites the cell at (id, column).
func (t *Table) Set(id RowID, column string, c Cell) error {
	r, ok := t.Row(id)
	if !ok {
		return &UnknownRowError{Row: id}
	}
	if !t.HasColumn(column) {
		return &UnknownColumnError{Column: column}
	}
	r.Values[column] = c
	return nil
}

// IDs returns all row identities in table order.
func (t *Table) IDs() []RowID {
	ids := make([]RowID, len(t.Rows))
	for i, r := range t.Rows {
		ids[i] = r.ID
	}
	return ids
}

// Column returns the values of a column in row order.
func (t *Table) Column(column string) []Cell {
	out := make([]Cell, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Get(column)
	}
	return out
}

// AddColumn appends a column filled with nulls. It is a no-op if the column
// already exists.
func (t *Table) AddColumn(column string) {
	if t.HasColumn(column) {
		return
	}
	t.Columns = append(t.Columns, column)
	for _, r := range t.Rows {
		if _, ok := r.Values[column]; !ok {
			r.Values[column] = NullCell()
		}
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: slices.Clone(t.Columns),
		Rows:    make([]*Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = r.clone()
	}
	return out
}

// Select returns a copy containing only the given rows, in table order.
// Unknown identities are ignored.
func (t *Table) Select(ids []RowID) *Table {
	want := make(map[RowID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := NewTable(t.Columns...)
	for _, r := range t.Rows {
		if _, ok := want[r.ID]; ok {
			_ = out.Append(r.clone())
		}
	}
	return out
}

// remove detaches the given rows and returns them in table order.
func (t *Table) remove(ids map[RowID]struct{}) []*Row {
	var removed []*Row
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		if _, ok := ids[r.ID]; ok {
			removed = append(removed, r)
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	t.index = nil
	return removed
}

func (t *Table) ensureIndex() {
	if t.index != nil && len(t.index) == len(t.Rows) {
		return
	}
	t.index = make(map[RowID]int, len(t.Rows))
	for i, r := range t.Rows {
		t.index[r.ID] = i
	}
}
