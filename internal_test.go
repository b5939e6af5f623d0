package datagrid

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInternalWrite = errors.New("write failed")

func TestWrapCellWideCharSafety(t *testing.T) {
	t.Parallel()
	// Full-width runes take two columns and never fit width 1.
	lines := wrapCell("你好", 1)
	assert.Equal(t, []string{"你", "好"}, lines)
}

func TestWrapCell(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		in    string
		width int
		want  []string
	}{
		"no wrap": {in: "hi", width: 0, want: []string{"hi"}},
		"fits":    {in: "hi", width: 5, want: []string{"hi"}},
		"basic":   {in: "Hello", width: 3, want: []string{"Hel", "lo"}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, wrapCell(tt.in, tt.width))
		})
	}
}

func TestTableLayout(t *testing.T) {
	t.Parallel()
	columns := []*Column{NewColumn("Name", "name"), NewColumn("Team", "team")}
	records := []Record{
		RecordFromMap(map[string]any{"name": "Alice", "team": "a"}, []string{"name", "team"}),
		RecordFromMap(map[string]any{"name": "Bo", "team": "b"}, []string{"name", "team"}),
	}
	tests := map[string]struct {
		columns []*Column
		opts    Options
		want    string
	}{
		"title groups and wrapping": {
			columns: columns,
			opts: Options{
				"border": "ascii", "title": "Team", "caption": false,
				"group_by": "team", "wrap_widths": map[string]int{"name": 3},
			},
			want: "+--------------+\n" +
				"|     Team     |\n" +
				"+-------+------+\n" +
				"| Nam   | Team |\n" +
				"| e     |      |\n" +
				"+-------+------+\n" +
				"| Ali   | a    |\n" +
				"| ce    |      |\n" +
				"+-------+------+\n" +
				"| Bo    | b    |\n" +
				"+-------+------+\n",
		},
		"plain with repeated header": {
			columns: columns[:1],
			opts: Options{
				"border": "none", "caption": false, "numbered": true,
				"repeat_header": 1, "max_widths": map[string]int{"name": 4},
			},
			want: "#  Name\n-  ----\n1  A...\n-  ----\n#  Name\n-  ----\n2  Bo\n",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := newTableRenderer()
			require.NoError(t, r.SetOptions(tt.opts))
			r.SetData(tt.columns, records)
			var buf bytes.Buffer
			require.NoError(t, r.Render(&buf))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestTableLayoutWriteError(t *testing.T) {
	t.Parallel()
	l := &textLayout{w: &errWriterInternal{}, widths: []int{1}, aligns: []alignment{alignLeft}}
	l.row([]string{"a"})
	l.row([]string{"b"})
	assert.ErrorIs(t, l.err, errInternalWrite)
}

func TestSQLSourceReleasesOwnedConnection(t *testing.T) {
	t.Parallel()
	opts := Options{"driver": "sqlite3", "dsn": filepath.Join(t.TempDir(), "grid.db")}

	s := newSQLSource()
	err := s.Bind(context.Background(), "SELECT * FROM missing", opts)
	require.ErrorIs(t, err, ErrQuery)
	assert.Nil(t, s.db)
	assert.False(t, s.owned)
}

func TestGridReleasesSourceOnFailedFetch(t *testing.T) {
	t.Parallel()
	opts := Options{
		"driver":      "sqlite3",
		"dsn":         filepath.Join(t.TempDir(), "grid.db"),
		"count_query": "SELECT COUNT(*) FROM missing",
	}

	s := newSQLSource()
	g := New()
	err := g.bindOwned(context.Background(), s, "SELECT 1 AS n", opts, SQLSource)
	require.ErrorIs(t, err, ErrQuery)
	assert.Nil(t, s.db)
	assert.Nil(t, g.source)
	assert.ErrorIs(t, g.Build(context.Background()), ErrBinding)
}

func TestSQLIdentifierQuoting(t *testing.T) {
	t.Parallel()
	mysqlDB, err := sql.Open("mysql", "user:secret@tcp(127.0.0.1:3306)/grid")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mysqlDB.Close() })
	sqliteDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteDB.Close() })

	tests := map[string]struct {
		source *sqlSource
		want   string
	}{
		"off":              {source: &sqlSource{db: mysqlDB}, want: "t.name"},
		"mysql connection": {source: &sqlSource{db: mysqlDB, opts: sqlSourceOptions{QuoteIdentifiers: true}}, want: "`t`.`name`"},
		"mysql option":     {source: &sqlSource{opts: sqlSourceOptions{Driver: "mysql", QuoteIdentifiers: true}}, want: "`t`.`name`"},
		"sqlite":           {source: &sqlSource{db: sqliteDB, opts: sqlSourceOptions{QuoteIdentifiers: true}}, want: `"t"."name"`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.source.identifier("t.name"))
		})
	}
}

func TestSQLSelectQuery(t *testing.T) {
	t.Parallel()
	sorted := NewSortSpec("id", Descending)
	tests := map[string]struct {
		query string
		sort  SortSpec
		limit int
		want  string
	}{
		"plain": {
			query: "SELECT id FROM t", sort: sorted, limit: 2,
			want: "SELECT id FROM t ORDER BY id DESC LIMIT 2 OFFSET 4",
		},
		"limited": {
			query: "SELECT id FROM t LIMIT 3", limit: 2,
			want: "SELECT * FROM (SELECT id FROM t LIMIT 3) AS datagrid_sorted LIMIT 2 OFFSET 4",
		},
		"ordered": {
			query: "SELECT id FROM t ORDER BY id", sort: sorted,
			want: "SELECT * FROM (SELECT id FROM t ORDER BY id) AS datagrid_sorted ORDER BY id DESC",
		},
		"unpaged": {
			query: "SELECT id FROM t LIMIT 3",
			want:  "SELECT id FROM t LIMIT 3",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := &sqlSource{query: tt.query, sort: tt.sort}
			assert.Equal(t, tt.want, s.selectQuery(4, tt.limit))
		})
	}
}

func TestWriteCSVRow(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, writeCSVRow(&buf, []string{"a", "b,c"}, ',', false))
	require.NoError(t, writeCSVRow(&buf, []string{"d", "e"}, ';', true))
	assert.Equal(t, "a,\"b,c\"\nd;e\r\n", buf.String())
}

func TestWriteCSVRowError(t *testing.T) {
	t.Parallel()
	// Small data: flush error hit via cw.Error().
	assert.Error(t, writeCSVRow(&errWriterInternal{}, []string{"a", "b"}, ',', false))
	// Large data exceeds the bufio buffer, causing cw.Write to fail.
	assert.Error(t, writeCSVRow(&errWriterInternal{}, []string{strings.Repeat("x", 5000)}, ',', false))
}

func TestCSVLine(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		fields    []string
		delimiter string
		enclosure string
		quoteAll  bool
		want      string
	}{
		"plain":          {fields: []string{"a", "b"}, delimiter: ";", enclosure: "'", want: "a;b"},
		"delimiter":      {fields: []string{"a;b", "c"}, delimiter: ";", enclosure: "'", want: "'a;b';c"},
		"enclosure":      {fields: []string{"it's"}, delimiter: ",", enclosure: "'", want: "'it''s'"},
		"quote all":      {fields: []string{"a", ""}, delimiter: ",", enclosure: `"`, quoteAll: true, want: `"a",""`},
		"leading space":  {fields: []string{" a"}, delimiter: ",", enclosure: `"`, want: `" a"`},
		"no enclosure":   {fields: []string{"a,b", "c"}, delimiter: ",", enclosure: "", want: "a,b,c"},
		"embedded break": {fields: []string{"a\nb"}, delimiter: ",", enclosure: "|", want: "|a\nb|"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, csvLine(tt.fields, tt.delimiter, tt.enclosure, tt.quoteAll))
		})
	}
}

func TestTagName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"name":       "name",
		"first name": "first_name",
		"0":          "_0",
		"":           "_",
		"a-b.c":      "a-b.c",
		"-x":         "_x",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, tagName(in))
		})
	}
}

func TestLinkBuilderHref(t *testing.T) {
	t.Parallel()
	l := linkBuilder{
		base:   "/people",
		prefix: "p_",
		query:  url.Values{"q": {"smith"}, "p_page": {"4"}, "p_orderBy": {"old"}},
		extra:  map[string]string{"tab": "2"},
	}
	spec := SortSpec{{Field: "name", Direction: Ascending}, {Field: "age", Direction: Descending}}
	assert.Equal(t,
		"/people?p_direction=ASC&p_direction=DESC&p_orderBy=name&p_orderBy=age&p_page=2&q=smith&tab=2",
		l.href(2, spec))
	assert.Equal(t, "/people?q=smith&tab=2", l.href(0, nil))
	assert.Equal(t, [][2]string{{"q", "smith"}, {"tab", "2"}}, l.hidden())
}

func TestCellValue(t *testing.T) {
	t.Parallel()
	rec := RecordFromMap(map[string]any{"n": 3, "empty": ""}, []string{"n", "empty"})
	assert.Equal(t, 3, cellValue(NewColumn("N", "n"), rec, 0))
	assert.Equal(t, "-", cellValue(NewColumn("E", "empty", WithAutoFill("-")), rec, 0))
	upper := NewColumn("N", "n", WithFormatter(func(c Cell) string { return "#" + c.Record.String("n") }))
	assert.Equal(t, "#3", cellValue(upper, rec, 0))
}

func TestMarkdownEscape(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `a\|b c`, markdownEscape("a|b\nc"))
}

func TestRecordRange(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "No records", recordRange(PageState{Page: 1, PerPage: 10}))
	assert.Equal(t, "Records 1,001 - 1,010 of 1,234", recordRange(PageState{Page: 101, PerPage: 10, Total: 1234}))
}

type errWriterInternal struct{}

func (e *errWriterInternal) Write([]byte) (int, error) {
	return 0, errInternalWrite
}
