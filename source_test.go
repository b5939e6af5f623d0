package datagrid_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/bjaus/datagrid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindSource(t *testing.T, kind datagrid.SourceKind, source any, opts datagrid.Options) datagrid.DataSource {
	t.Helper()
	ds, err := datagrid.NewDataSource(kind)
	require.NoError(t, err)
	require.NoError(t, ds.Bind(context.Background(), source, opts))
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func values(records []datagrid.Record, field string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.String(field)
	}
	return out
}

func TestArraySourceSort(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := bindSource(t, datagrid.ArraySource, []map[string]any{
		{"n": 10, "s": "b"},
		{"n": 2, "s": "a"},
		{"n": 2, "s": "c"},
	}, nil)

	assert.Equal(t, []string{"n", "s"}, ds.Fields())

	require.NoError(t, ds.Sort(datagrid.SortSpec{
		{Field: "n", Direction: datagrid.Ascending},
		{Field: "s", Direction: datagrid.Descending},
	}))
	got, err := ds.Fetch(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, values(got, "s"))

	// Clearing the sort restores the bound order.
	require.NoError(t, ds.Sort(nil))
	got, err = ds.Fetch(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, values(got, "s"))
}

func TestArraySourceStableTies(t *testing.T) {
	t.Parallel()
	ds := bindSource(t, datagrid.ArraySource, [][]string{
		{"k", "id"},
		{"x", "1"},
		{"x", "2"},
		{"a", "3"},
	}, datagrid.Options{"header": true})

	for _, dir := range []datagrid.Direction{datagrid.Ascending, datagrid.Descending} {
		require.NoError(t, ds.Sort(datagrid.NewSortSpec("k", dir)))
		got, err := ds.Fetch(context.Background(), 0, 0)
		require.NoError(t, err)
		ids := values(got, "id")
		if dir == datagrid.Ascending {
			assert.Equal(t, []string{"3", "1", "2"}, ids)
		} else {
			assert.Equal(t, []string{"1", "2", "3"}, ids)
		}
	}
}

func TestArraySourceMixedValues(t *testing.T) {
	t.Parallel()
	orders := [][]string{
		{"2", "10", "1a", "N/A"},
		{"1a", "2", "N/A", "10"},
		{"10", "N/A", "1a", "2"},
		{"N/A", "1a", "10", "2"},
	}
	for _, order := range orders {
		rows := [][]string{{"v"}}
		for _, v := range order {
			rows = append(rows, []string{v})
		}
		ds := bindSource(t, datagrid.ArraySource, rows, datagrid.Options{"header": true})

		require.NoError(t, ds.Sort(datagrid.NewSortSpec("v", datagrid.Ascending)))
		got, err := ds.Fetch(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "10", "1a", "N/A"}, values(got, "v"), "input %v", order)

		require.NoError(t, ds.Sort(datagrid.NewSortSpec("v", datagrid.Descending)))
		got, err = ds.Fetch(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"N/A", "1a", "10", "2"}, values(got, "v"), "input %v", order)
	}
}

func TestArraySourceFetchWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := bindSource(t, datagrid.ArraySource, [][]string{{"a"}, {"b"}, {"c"}}, nil)

	tests := map[string]struct {
		offset, limit int
		want          []string
	}{
		"all":          {offset: 0, limit: 0, want: []string{"a", "b", "c"}},
		"window":       {offset: 1, limit: 1, want: []string{"b"}},
		"tail":         {offset: 2, limit: 5, want: []string{"c"}},
		"past the end": {offset: 9, limit: 2, want: []string{}},
	}
	for name, tt := range tests {
		got, err := ds.Fetch(ctx, tt.offset, tt.limit)
		require.NoError(t, err, name)
		assert.Equal(t, tt.want, values(got, "0"), name)
	}

	_, err := ds.Fetch(ctx, -1, 0)
	assert.ErrorIs(t, err, datagrid.ErrValidation)
}

func TestArraySourceBindError(t *testing.T) {
	t.Parallel()
	ds, err := datagrid.NewDataSource(datagrid.ArraySource)
	require.NoError(t, err)
	assert.ErrorIs(t, ds.Bind(context.Background(), 42, nil), datagrid.ErrBinding)
	assert.ErrorIs(t, ds.Bind(context.Background(), [][]string{}, datagrid.Options{"nope": 1}), datagrid.ErrValidation)
	assert.ErrorIs(t, ds.Bind(context.Background(), [][]string{}, datagrid.Options{"locale": "not a locale!"}), datagrid.ErrValidation)
}

func TestCSVSourceFetchWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := bindSource(t, datagrid.CSVSource, "testdata/numbers.csv", nil)

	assert.Equal(t, []string{"num", "the_str"}, ds.Fields())
	n, err := ds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := ds.Fetch(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"num", "the_str"}, got[0].Keys())
	assert.Equal(t, "2", got[0].String("num"))
	assert.Equal(t, "two", got[0].String("the_str"))
}

func TestCSVSourceOptions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	input := "# people\nada;36\n\nbob;25\n"
	ds := bindSource(t, datagrid.CSVSource, input, datagrid.Options{
		"delimiter": ";",
		"comment":   "#",
		"header":    false,
		"fields":    []string{"name", "age"},
	})

	require.NoError(t, ds.Sort(datagrid.NewSortSpec("age", datagrid.Ascending)))
	got, err := ds.Fetch(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "ada"}, values(got, "name"))

	bad, err := datagrid.NewDataSource(datagrid.CSVSource)
	require.NoError(t, err)
	assert.ErrorIs(t, bad.Bind(ctx, "a,b\n", datagrid.Options{"delimiter": ";;"}), datagrid.ErrValidation)
}

func TestXMLSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	doc := `<people>
  <person id="1"><name>Ada</name><age>36</age></person>
  <person id="2"><name>Bob</name><age>25</age></person>
  <person id="3"><name>Cy</name><age>101</age></person>
</people>`
	ds := bindSource(t, datagrid.XMLSource, doc, nil)

	assert.Equal(t, []string{"age", "id", "name"}, ds.Fields())
	require.NoError(t, ds.Sort(datagrid.NewSortSpec("age", datagrid.Descending)))
	got, err := ds.Fetch(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cy", "Ada", "Bob"}, values(got, "name"))
	assert.Equal(t, []string{"3", "1", "2"}, values(got, "id"))

	noAttrs := bindSource(t, datagrid.XMLSource, doc, datagrid.Options{"attributes": false, "path": "people.person"})
	assert.Equal(t, []string{"age", "name"}, noAttrs.Fields())
}

func TestXMLSourceAmbiguousRows(t *testing.T) {
	t.Parallel()
	ds, err := datagrid.NewDataSource(datagrid.XMLSource)
	require.NoError(t, err)
	err = ds.Bind(context.Background(), "<root><a>1</a><b>2</b></root>", nil)
	assert.ErrorIs(t, err, datagrid.ErrBinding)
}

type employee struct {
	Name   string `datagrid:"name,label=Full name"`
	Age    int    `datagrid:"age"`
	Team   string
	Secret string `datagrid:"-"`
}

func TestObjectSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	people := []employee{
		{Name: "Ada", Age: 36, Team: "core", Secret: "x"},
		{Name: "Bob", Age: 25, Team: "web", Secret: "y"},
	}
	ds := bindSource(t, datagrid.ObjectSource, people, nil)

	assert.Equal(t, []string{"name", "age", "Team"}, ds.Fields())
	assert.True(t, ds.Capabilities().Has(datagrid.SourceObjects))

	reporter, ok := ds.(datagrid.ColumnReporter)
	require.True(t, ok)
	cols := reporter.Columns()
	require.Len(t, cols, 1)
	assert.Equal(t, "Full name", cols[0].Label())
	assert.Equal(t, "name", cols[0].Field())

	require.NoError(t, ds.Sort(datagrid.NewSortSpec("age", datagrid.Ascending)))
	got, err := ds.Fetch(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, people[1], got[0].Object())
	v, ok := got[0].Get("age")
	require.True(t, ok)
	assert.Equal(t, 25, v)
}

func TestObjectSourceRejectsNonStructs(t *testing.T) {
	t.Parallel()
	ds, err := datagrid.NewDataSource(datagrid.ObjectSource)
	require.NoError(t, err)
	assert.ErrorIs(t, ds.Bind(context.Background(), []int{1, 2}, nil), datagrid.ErrBinding)
	assert.ErrorIs(t, ds.Bind(context.Background(), "nope", nil), datagrid.ErrBinding)
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`
		CREATE TABLE sales (id INTEGER PRIMARY KEY, region TEXT, amount INTEGER);
		INSERT INTO sales (region, amount) VALUES
			('north', 10), ('north', 20), ('south', 5), ('east', 7), ('east', 1);
	`)
	require.NoError(t, err)
	return db
}

func TestSQLSourceGroupByCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openSQLite(t)
	ds := bindSource(t, datagrid.SQLSource, datagrid.SQLQuery{
		DB:    db,
		Query: "SELECT region, SUM(amount) AS total FROM sales GROUP BY region",
	}, nil)

	assert.Equal(t, []string{"region", "total"}, ds.Fields())
	n, err := ds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLSourceSortAndPage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openSQLite(t)
	ds := bindSource(t, datagrid.SQLSource, datagrid.SQLQuery{
		DB:    db,
		Query: "SELECT id, region, amount FROM sales WHERE amount > ? ORDER BY id;",
		Args:  []any{1},
	}, nil)

	n, err := ds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, ds.Sort(datagrid.SortSpec{
		{Field: "region", Direction: datagrid.Ascending},
		{Field: "amount", Direction: datagrid.Descending},
	}))
	got, err := ds.Fetch(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "north"}, values(got, "region"))
	assert.Equal(t, []string{"20", "10"}, values(got, "amount"))

	assert.ErrorIs(t, ds.Sort(datagrid.NewSortSpec("amount; DROP TABLE sales", datagrid.Ascending)), datagrid.ErrValidation)
}

func TestSQLSourceLimitedQuery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := bindSource(t, datagrid.SQLSource, datagrid.SQLQuery{
		DB:    openSQLite(t),
		Query: "SELECT id, region FROM sales ORDER BY id LIMIT 3",
	}, nil)

	n, err := ds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, ds.Sort(datagrid.SortSpec{
		{Field: "region", Direction: datagrid.Descending},
		{Field: "id", Direction: datagrid.Descending},
	}))
	got, err := ds.Fetch(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2"}, values(got, "id"))
	got, err = ds.Fetch(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, values(got, "id"))
}

func TestSQLGridPagesLimitedQuery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := datagrid.New(datagrid.WithRowsPerPage(2))
	t.Cleanup(func() { _ = g.Close() })
	require.NoError(t, g.Bind(ctx, datagrid.SQLQuery{DB: openSQLite(t), Query: "SELECT id, region FROM sales LIMIT 3"}, nil))

	g.SortRecordSet(datagrid.NewSortSpec("region", datagrid.Ascending))
	got, err := g.RecordSet(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "north"}, values(got, "region"))
	assert.Equal(t, 2, g.PageState().PageCount())
}

func TestSQLSourceCountOncePerBind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openSQLite(t)
	q := datagrid.SQLQuery{DB: db, Query: "SELECT id, region FROM sales"}
	g := datagrid.New(datagrid.WithRowsPerPage(2))
	t.Cleanup(func() { _ = g.Close() })
	require.NoError(t, g.Bind(ctx, q, nil))
	assert.Equal(t, 5, g.PageState().Total)

	_, err := db.ExecContext(ctx, "DELETE FROM sales WHERE region = 'east'")
	require.NoError(t, err)

	// Paging and sorting keep the count taken at bind.
	g.SetCurrentPage(2)
	g.SortRecordSet(datagrid.NewSortSpec("id", datagrid.Descending))
	got, err := g.RecordSet(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, g.PageState().Total)
	assert.Equal(t, []string{"1"}, values(got, "id"))

	// Binding again counts again.
	require.NoError(t, g.Bind(ctx, q, nil))
	assert.Equal(t, 3, g.PageState().Total)
}

func TestSQLSourceCountQuery(t *testing.T) {
	t.Parallel()
	db := openSQLite(t)
	ds := bindSource(t, datagrid.SQLSource, datagrid.SQLQuery{DB: db, Query: "SELECT * FROM sales"},
		datagrid.Options{"count_query": "SELECT 99"})
	n, err := ds.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 99, n)
}

func TestSQLSourceBindErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds, err := datagrid.NewDataSource(datagrid.SQLSource)
	require.NoError(t, err)
	assert.ErrorIs(t, ds.Bind(ctx, "SELECT 1", nil), datagrid.ErrBinding)
	assert.ErrorIs(t, ds.Bind(ctx, datagrid.SQLQuery{DB: openSQLite(t), Query: "  "}, nil), datagrid.ErrBinding)
	assert.ErrorIs(t, ds.Bind(ctx, datagrid.SQLQuery{DB: openSQLite(t), Query: "SELECT * FROM missing"}, nil), datagrid.ErrQuery)
	assert.ErrorIs(t, ds.Bind(ctx, "SELECT 1", datagrid.Options{"driver": "nosuchdriver", "dsn": "x"}), datagrid.ErrDriverLoad)
}

func TestDetectSourceKind(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		source  any
		want    datagrid.SourceKind
		wantErr error
	}{
		"records":     {source: []datagrid.Record{}, want: datagrid.ArraySource},
		"maps":        {source: []map[string]any{}, want: datagrid.ArraySource},
		"rows":        {source: [][]string{}, want: datagrid.ArraySource},
		"csv file":    {source: "data/People.CSV", want: datagrid.CSVSource},
		"xml file":    {source: "feed.xml", want: datagrid.XMLSource},
		"xlsx file":   {source: "book.xlsx", want: datagrid.XLSXSource},
		"parquet":     {source: "t.parquet", want: datagrid.ArrowSource},
		"inline xml":  {source: "  <a><b>1</b></a>", want: datagrid.XMLSource},
		"inline csv":  {source: "a,b\n1,2\n", want: datagrid.CSVSource},
		"xml bytes":   {source: []byte("<a/>"), want: datagrid.XMLSource},
		"sql":         {source: datagrid.SQLQuery{Query: "SELECT 1"}, want: datagrid.SQLSource},
		"structs":     {source: []employee{}, want: datagrid.ObjectSource},
		"struct ptrs": {source: []*employee{}, want: datagrid.ObjectSource},
		"unknown":     {source: 42, wantErr: datagrid.ErrBinding},
		"nil":         {source: nil, wantErr: datagrid.ErrBinding},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := datagrid.DetectSourceKind(tt.source)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSourceKind(t *testing.T) {
	t.Parallel()
	for _, k := range datagrid.SourceKinds() {
		got, err := datagrid.ParseSourceKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := datagrid.ParseSourceKind("mongo")
	assert.ErrorIs(t, err, datagrid.ErrDriverLoad)
}
