package tdb

import (
	"strings"

	"github.com/maloquacious/tdb/internal/dataset"
)

// MSIDColumn is the join key shared by the master and satellite tables.
const MSIDColumn = "MSID"

// TableView gives column and MSID access to a table, or to a single row
// extracted from one. Column names are matched after upper-casing.
type TableView struct {
	table  *dataset.Table
	single bool
}

// NewTableView wraps a whole table.
func NewTableView(t *dataset.Table) *TableView {
	return &TableView{table: t}
}

func (v *TableView) Name() string { return v.table.Name() }

// Table returns the wrapped table. For a single-row view this is a
// one-row table.
func (v *TableView) Table() *dataset.Table { return v.table }

// IsRow reports whether the view wraps a single extracted row.
func (v *TableView) IsRow() bool { return v.single }

// RowCount is 1 for a single-row view and the table length otherwise.
func (v *TableView) RowCount() int {
	if v.single {
		return 1
	}
	return v.table.NumRows()
}

// ColumnNames returns the schema in stored order.
func (v *TableView) ColumnNames() []string { return v.table.ColumnNames() }

// HasColumn reports whether name, upper-cased, is a column.
func (v *TableView) HasColumn(name string) bool {
	_, ok := v.table.Column(strings.ToUpper(name))
	return ok
}

// Column returns the named column. On a single-row view the field is a
// scalar.
func (v *TableView) Column(name string) (Field, error) {
	key := strings.ToUpper(name)
	c, ok := v.table.Column(key)
	if !ok {
		return Field{}, &ColumnNotFoundError{Table: v.Name(), Column: key}
	}
	return Field{column: c, scalar: v.single}, nil
}

// Values returns the row of a single-row view, or the first row of a
// multi-row view. It is nil for an empty table.
func (v *TableView) Values() []dataset.Value {
	if v.table.NumRows() == 0 {
		return nil
	}
	return v.table.Row(0)
}

// Row returns row i in schema order.
func (v *TableView) Row(i int) []dataset.Value { return v.table.Row(i) }

// ByMSID selects the rows for an MSID, case-insensitively.
//
// An existing column name takes precedence over MSID filtering: if the
// upper-cased identifier names a column, the result is that column with
// kind ColumnMatch. A table without an MSID column otherwise fails with
// ErrColumnNotFound.
func (v *TableView) ByMSID(msid string) (Selection, error) {
	key := strings.ToUpper(msid)
	if c, ok := v.table.Column(key); ok {
		return Selection{Kind: ColumnMatch, Field: Field{column: c, scalar: v.single}}, nil
	}
	if _, ok := v.table.Column(MSIDColumn); !ok {
		return Selection{}, &ColumnNotFoundError{Table: v.Name(), Column: key}
	}
	return v.selectMSID(key), nil
}

// selectMSID filters on the MSID column without the column-name rule.
// key must already be upper case.
func (v *TableView) selectMSID(key string) Selection {
	rows := v.table.Find(MSIDColumn, key)
	switch len(rows) {
	case 0:
		return Selection{Kind: Missing}
	case 1:
		return Selection{Kind: OneRow, View: &TableView{table: v.table.Take(rows), single: true}}
	default:
		return Selection{Kind: ManyRows, View: &TableView{table: v.table.Take(rows)}}
	}
}

// SelectionKind tags the shape of a Selection.
type SelectionKind int

const (
	Missing     SelectionKind = iota // no rows for the MSID
	OneRow                           // View is a single-row view
	ManyRows                         // View holds two or more rows, or a whole table
	ColumnMatch                      // the identifier named a column, see Field
)

func (k SelectionKind) String() string {
	switch k {
	case Missing:
		return "missing"
	case OneRow:
		return "one row"
	case ManyRows:
		return "many rows"
	case ColumnMatch:
		return "column"
	}
	return "unknown"
}

// Selection is the result of an MSID lookup on a table.
// Missing is a valid empty result, not an error.
type Selection struct {
	Kind  SelectionKind
	View  *TableView
	Field Field
}

// Found reports whether the selection holds any data.
func (s Selection) Found() bool { return s.Kind != Missing }

// RowCount is 0 for Missing and the view's row count for row selections.
// For ColumnMatch it is the column length.
func (s Selection) RowCount() int {
	switch s.Kind {
	case OneRow, ManyRows:
		return s.View.RowCount()
	case ColumnMatch:
		return s.Field.Len()
	}
	return 0
}

// Field is a column taken from a TableView. It is a scalar when the view
// wraps a single row and a sequence otherwise.
type Field struct {
	column *dataset.Column
	scalar bool
}

func (f Field) Name() string {
	if f.column == nil {
		return ""
	}
	return f.column.Name
}

func (f Field) Kind() dataset.Kind {
	if f.column == nil {
		return 0
	}
	return f.column.Kind
}

// IsScalar reports whether the field came from a single-row view.
func (f Field) IsScalar() bool { return f.scalar }

func (f Field) Len() int {
	if f.column == nil {
		return 0
	}
	return f.column.Len()
}

// Value returns the scalar, or the first element of a sequence.
// An empty field yields the zero Value.
func (f Field) Value() dataset.Value {
	if f.Len() == 0 {
		return dataset.Value{}
	}
	return f.column.Value(0)
}

// Values returns every element.
func (f Field) Values() []dataset.Value {
	if f.column == nil {
		return nil
	}
	return f.column.Values()
}

// Strings returns every element as text.
func (f Field) Strings() []string {
	out := make([]string, f.Len())
	for i := range out {
		out[i] = f.column.Value(i).Text()
	}
	return out
}

// String renders a scalar as its value and a sequence as a bracketed list.
func (f Field) String() string {
	if f.scalar {
		return f.Value().String()
	}
	return "[" + strings.Join(f.Strings(), " ") + "]"
}
