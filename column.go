package datagrid

import (
	"maps"
	"slices"
)

// Cell is passed to a column [Formatter].
type Cell struct {
	Record Record
	Column *Column
	// Row is the zero-based index of the record on the current page.
	Row int
}

// Formatter computes the display value of a cell.
type Formatter func(c Cell) string

// Column describes one grid column.
type Column struct {
	label     string
	field     string
	orderBy   string
	attrs     map[string]string
	autoFill  string
	formatter Formatter
	sortable  bool
}

// ColumnOption configures a [Column].
type ColumnOption func(*Column)

// WithOrderBy sets the expression handed to the datasource when sorting
// by this column. It defaults to the field name.
func WithOrderBy(expr string) ColumnOption {
	return func(c *Column) { c.orderBy = expr }
}

// WithAttributes sets attributes rendered on the column's cells.
func WithAttributes(attrs map[string]string) ColumnOption {
	return func(c *Column) { c.attrs = maps.Clone(attrs) }
}

// WithAutoFill sets the value shown when a cell would be empty.
func WithAutoFill(value string) ColumnOption {
	return func(c *Column) { c.autoFill = value }
}

// WithFormatter sets a formatter that replaces the field value.
func WithFormatter(f Formatter) ColumnOption {
	return func(c *Column) { c.formatter = f }
}

// Unsortable disables sorting by this column.
func Unsortable() ColumnOption {
	return func(c *Column) { c.sortable = false }
}

// NewColumn returns a column showing field under label. A column with no
// field only shows formatter output or its auto-fill value, and cannot be
// sorted.
func NewColumn(label, field string, opts ...ColumnOption) *Column {
	c := &Column{label: label, field: field, orderBy: field, sortable: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Column) Label() string                 { return c.label }
func (c *Column) Field() string                 { return c.field }
func (c *Column) OrderBy() string               { return c.orderBy }
func (c *Column) AutoFill() string              { return c.autoFill }
func (c *Column) Formatter() Formatter          { return c.formatter }
func (c *Column) Attributes() map[string]string { return maps.Clone(c.attrs) }

func (c *Column) SetLabel(label string)       { c.label = label }
func (c *Column) SetField(field string)       { c.field = field }
func (c *Column) SetOrderBy(expr string)      { c.orderBy = expr }
func (c *Column) SetAutoFill(value string)    { c.autoFill = value }
func (c *Column) SetFormatter(f Formatter)    { c.formatter = f }
func (c *Column) SetSortable(sortable bool)   { c.sortable = sortable }
func (c *Column) SetAttributes(attrs map[string]string) {
	c.attrs = maps.Clone(attrs)
}

// Sortable reports whether the column can be sorted by.
func (c *Column) Sortable() bool {
	return c.sortable && c.field != "" && c.orderBy != ""
}

// Value returns the display value of the column for rec: formatter
// output, else the field value, falling back to the auto-fill value when
// the result is empty.
func (c *Column) Value(rec Record, row int) string {
	var v string
	switch {
	case c.formatter != nil:
		v = c.formatter(Cell{Record: rec, Column: c, Row: row})
	case c.field != "":
		v = rec.String(c.field)
	}
	if v == "" {
		return c.autoFill
	}
	return v
}

// attributeKeys returns attribute names in a stable order.
func (c *Column) attributeKeys() []string {
	return slices.Sorted(maps.Keys(c.attrs))
}

// ColumnReporter is implemented by datasources that describe their own
// columns, such as struct-backed collections with label tags.
type ColumnReporter interface {
	Columns() []*Column
}

// Position selects where [Grid.AddColumn] inserts a column.
type Position struct {
	where    int
	relative string
}

const (
	posLast = iota
	posFirst
	posBefore
	posAfter
)

var (
	// Last appends the column. It is the zero Position.
	Last = Position{where: posLast}
	// First prepends the column.
	First = Position{where: posFirst}
)

// Before inserts the column before the column showing field.
func Before(field string) Position { return Position{where: posBefore, relative: field} }

// After inserts the column after the column showing field.
func After(field string) Position { return Position{where: posAfter, relative: field} }

// defaultColumns builds one column per field, labeled with the field
// name.
func defaultColumns(fields []string) []*Column {
	cols := make([]*Column, len(fields))
	for i, f := range fields {
		cols[i] = NewColumn(f, f)
	}
	return cols
}
