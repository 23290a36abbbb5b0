package dataset

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrLengthMismatch  = errors.New("column length mismatch")
)

// Column is a named, homogeneous sequence of scalars.
// Exactly one of Ints, Floats or Texts is populated, according to Kind.
type Column struct {
	Name string
	Kind Kind
	// Width is the fixed byte width of a text column in the legacy
	// on-disk form. Zero means variable length.
	Width int

	Ints   []int64
	Floats []float64
	Texts  []string
}

func IntColumn(name string, v ...int64) *Column {
	return &Column{Name: name, Kind: Int, Ints: v}
}

func FloatColumn(name string, v ...float64) *Column {
	return &Column{Name: name, Kind: Float, Floats: v}
}

func TextColumn(name string, v ...string) *Column {
	return &Column{Name: name, Kind: Text, Texts: v}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case Int:
		return len(c.Ints)
	case Float:
		return len(c.Floats)
	case Text:
		return len(c.Texts)
	}
	return 0
}

// Value returns row i as a scalar.
func (c *Column) Value(i int) Value {
	switch c.Kind {
	case Int:
		return IntValue(c.Ints[i])
	case Float:
		return FloatValue(c.Floats[i])
	case Text:
		return TextValue(c.Texts[i])
	}
	return Value{}
}

// Values returns every row of the column as scalars.
func (c *Column) Values() []Value {
	out := make([]Value, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Width: c.Width}
	switch c.Kind {
	case Int:
		out.Ints = make([]int64, len(rows))
		for i, r := range rows {
			out.Ints[i] = c.Ints[r]
		}
	case Float:
		out.Floats = make([]float64, len(rows))
		for i, r := range rows {
			out.Floats[i] = c.Floats[r]
		}
	case Text:
		out.Texts = make([]string, len(rows))
		for i, r := range rows {
			out.Texts[i] = c.Texts[r]
		}
	}
	return out
}

// Table is an immutable set of equal-length named columns.
// It is safe for concurrent use.
type Table struct {
	name    string
	columns []*Column
	byName  map[string]int
	rows    int

	mu      sync.RWMutex
	indexes map[string]map[string][]int
}

// New builds a table from columns. Column names must be unique and every
// column must have the same length. The columns must not be modified
// afterwards.
func New(name string, columns ...*Column) (*Table, error) {
	t := &Table{
		name:    name,
		columns: columns,
		byName:  make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, ok := t.byName[c.Name]; ok {
			return nil, fmt.Errorf("table %s: %w: %s", name, ErrDuplicateColumn, c.Name)
		}
		t.byName[c.Name] = i
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("table %s: %w: column %s has %d rows, want %d",
				name, ErrLengthMismatch, c.Name, c.Len(), t.rows)
		}
	}
	return t, nil
}

func (t *Table) Name() string { return t.name }

func (t *Table) NumRows() int { return t.rows }

func (t *Table) NumColumns() int { return len(t.columns) }

// Columns returns the columns in schema order.
func (t *Table) Columns() []*Column { return t.columns }

// ColumnNames returns the column names in schema order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by its stored name. The match is exact.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Row returns row i in schema order.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.columns))
	for j, c := range t.columns {
		out[j] = c.Value(i)
	}
	return out
}

// Take returns a new table holding the given rows, in the given order.
func (t *Table) Take(rows []int) *Table {
	columns := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		columns[i] = c.take(rows)
	}
	out := &Table{
		name:    t.name,
		columns: columns,
		byName:  t.byName,
		rows:    len(rows),
	}
	return out
}

// Find returns the rows whose text column equals key, in row order.
// The per-column index is built on first use. A missing or non-text
// column matches nothing.
func (t *Table) Find(column, key string) []int {
	t.mu.RLock()
	idx, ok := t.indexes[column]
	t.mu.RUnlock()
	if !ok {
		idx = t.buildIndex(column)
	}
	return idx[key]
}

func (t *Table) buildIndex(column string) map[string][]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.indexes[column]; ok {
		return idx
	}
	idx := make(map[string][]int)
	if c, ok := t.Column(column); ok && c.Kind == Text {
		for i, s := range c.Texts {
			idx[s] = append(idx[s], i)
		}
	}
	if t.indexes == nil {
		t.indexes = make(map[string]map[string][]int)
	}
	t.indexes[column] = idx
	return idx
}
