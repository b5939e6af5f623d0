package config

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/datagrid"
)

func TestLoad(t *testing.T) {
	t.Parallel()
	g, err := Load("testdata/people.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "people.csv"), g.Source.Path)
	assert.Equal(t, 2, g.RowsPerPage)
	assert.Equal(t, datagrid.NewSortSpec("age", datagrid.Descending), g.Sort())
	assert.Equal(t, datagrid.CSVRenderer, g.RendererKind())
	require.Len(t, g.Columns, 3)
	assert.False(t, g.Columns[2].NewColumn().Sortable())
}

func TestBuild(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg, err := Load("testdata/people.yaml")
	require.NoError(t, err)

	g, err := cfg.Build(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	var buf bytes.Buffer
	require.NoError(t, g.Render(ctx, &buf))
	assert.Equal(t, "Name;Age;City\nCy;101;Paris\nAda;36;London\n", buf.String())

	g.SetCurrentPage(2)
	buf.Reset()
	require.NoError(t, g.Render(ctx, &buf))
	assert.Equal(t, "Name;Age;City\nBob;25;-\n", buf.String())
}

func TestBuildWithRequest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg, err := Load("testdata/people.yaml")
	require.NoError(t, err)
	cfg.Prefix = "p_"

	req := datagrid.Request{Get: map[string][]string{"p_orderBy": {"name"}, "p_page": {"2"}}}
	g, err := cfg.Build(ctx, datagrid.WithRequest(req))
	require.NoError(t, err)

	records, err := g.RecordSet(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Cy", records[0].String("name"))
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input string
		want  string
	}{
		"unknown key": {
			input: "source: {path: a.csv}\nrows: 3\n",
			want:  "field rows not found",
		},
		"missing path": {
			input: "renderer: {kind: json}\n",
			want:  "source: path is required",
		},
		"sql without query": {
			input: "source: {kind: sql}\n",
			want:  "source: sql needs a query",
		},
		"unknown source": {
			input: "source: {kind: mongo, path: x}\n",
			want:  `unknown datasource "mongo"`,
		},
		"unknown renderer": {
			input: "source: {path: a.csv}\nrenderer: {kind: pdf}\n",
			want:  `unknown renderer "pdf"`,
		},
		"bad direction": {
			input: "source: {path: a.csv}\ndefault_sort: [{field: a, direction: up}]\n",
			want:  `invalid sort direction "up"`,
		},
		"empty column": {
			input: "source: {path: a.csv}\ncolumns: [{auto_fill: x}]\n",
			want:  "columns[0]: label or field is required",
		},
		"negative page size": {
			input: "source: {path: a.csv}\nrows_per_page: -1\n",
			want:  "rows_per_page must not be negative",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseCollectsEveryProblem(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte("renderer: {kind: pdf}\nrows_per_page: -2\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, datagrid.ErrValidation)
	assert.ErrorIs(t, err, datagrid.ErrDriverLoad)
	assert.ErrorContains(t, err, "source: path is required")
}

func TestColumnDefaults(t *testing.T) {
	t.Parallel()
	c := Column{Field: "total", OrderBy: "sum_total", Attributes: map[string]string{"class": "num"}}.NewColumn()
	assert.Equal(t, "total", c.Label())
	assert.Equal(t, "sum_total", c.OrderBy())
	assert.True(t, c.Sortable())
	assert.Equal(t, map[string]string{"class": "num"}, c.Attributes())
}
