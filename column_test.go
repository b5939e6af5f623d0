package datagrid_test

import (
	"strings"
	"testing"

	"github.com/bjaus/datagrid"
	"github.com/stretchr/testify/assert"
)

func TestColumnValue(t *testing.T) {
	t.Parallel()
	rec := datagrid.RecordFromMap(map[string]any{"name": "ada", "note": nil}, []string{"name", "note"})
	upper := func(c datagrid.Cell) string { return strings.ToUpper(c.Record.String("name")) }
	tests := map[string]struct {
		col  *datagrid.Column
		want string
	}{
		"field":               {col: datagrid.NewColumn("Name", "name"), want: "ada"},
		"formatter":           {col: datagrid.NewColumn("Name", "name", datagrid.WithFormatter(upper)), want: "ADA"},
		"auto fill nil":       {col: datagrid.NewColumn("Note", "note", datagrid.WithAutoFill("n/a")), want: "n/a"},
		"auto fill missing":   {col: datagrid.NewColumn("X", "missing", datagrid.WithAutoFill("?")), want: "?"},
		"no field no fill":    {col: datagrid.NewColumn("Blank", ""), want: ""},
		"no field, formatter": {col: datagrid.NewColumn("Shout", "", datagrid.WithFormatter(upper)), want: "ADA"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.col.Value(rec, 0))
		})
	}
}

func TestColumnSortable(t *testing.T) {
	t.Parallel()
	assert.True(t, datagrid.NewColumn("A", "a").Sortable())
	assert.False(t, datagrid.NewColumn("A", "a", datagrid.Unsortable()).Sortable())
	assert.False(t, datagrid.NewColumn("Actions", "").Sortable())

	c := datagrid.NewColumn("A", "a", datagrid.WithOrderBy("lower(a)"))
	assert.Equal(t, "lower(a)", c.OrderBy())
	c.SetSortable(false)
	assert.False(t, c.Sortable())
}

func TestColumnAttributesAreCopied(t *testing.T) {
	t.Parallel()
	attrs := map[string]string{"class": "num"}
	c := datagrid.NewColumn("A", "a", datagrid.WithAttributes(attrs))
	attrs["class"] = "changed"
	got := c.Attributes()
	got["class"] = "also changed"
	assert.Equal(t, map[string]string{"class": "num"}, c.Attributes())
}
