package datagrid

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/Velocidex/ordereddict"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLQuery is the source value for the sql driver. When DB is nil the
// driver opens a connection from the "driver" and "dsn" options and owns
// it until Close.
type SQLQuery struct {
	DB    *sql.DB
	Query string
	Args  []any
}

type sqlSourceOptions struct {
	// Driver is a database/sql driver name: sqlite3, mysql or postgres.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// CountQuery replaces the count heuristics when set.
	CountQuery       string `yaml:"count_query"`
	QuoteIdentifiers bool   `yaml:"quote_identifiers"`
}

var (
	// Best effort: these keywords make a wrapped COUNT(*) disagree with
	// the number of rows the query returns.
	sqlAggregating = regexp.MustCompile(`(?i)\b(GROUP\s+BY|DISTINCT|UNION)\b`)
	sqlWindowed    = regexp.MustCompile(`(?i)\b(ORDER\s+BY|LIMIT|OFFSET|FETCH)\b`)
	sqlIdentifier  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)
)

// sqlSource pages and sorts a query on the server.
type sqlSource struct {
	db      *sql.DB
	owned   bool
	query   string
	args    []any
	opts    sqlSourceOptions
	fields  []string
	sort    SortSpec
	count   int
	counted bool
}

func newSQLSource() *sqlSource {
	return &sqlSource{}
}

func (s *sqlSource) Bind(ctx context.Context, source any, opts Options) error {
	o := sqlSourceOptions{}
	if err := decodeOptions(string(SQLSource), opts, &o); err != nil {
		return err
	}
	var q SQLQuery
	switch v := source.(type) {
	case SQLQuery:
		q = v
	case *SQLQuery:
		q = *v
	case string:
		q = SQLQuery{Query: v}
	default:
		return fmt.Errorf("%w: sql source cannot bind %T", ErrBinding, source)
	}
	q.Query = strings.TrimRight(strings.TrimSpace(q.Query), "; \n\t")
	if q.Query == "" {
		return fmt.Errorf("%w: sql source needs a query", ErrBinding)
	}

	if err := s.Close(); err != nil {
		return err
	}
	s.db, s.owned = q.DB, false
	if s.db == nil {
		if o.Driver == "" || o.DSN == "" {
			return fmt.Errorf("%w: sql source needs a *sql.DB or the \"driver\" and \"dsn\" options", ErrBinding)
		}
		db, err := sql.Open(o.Driver, o.DSN)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDriverLoad, err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return queryError(string(SQLSource), err)
		}
		s.db, s.owned = db, true
	}
	s.query, s.args, s.opts = q.Query, q.Args, o
	s.sort, s.counted = nil, false
	if err := s.probe(ctx); err != nil {
		_ = s.Close()
		return err
	}
	return nil
}

// probe reads the result columns without fetching rows.
func (s *sqlSource) probe(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM ("+s.query+") AS datagrid_probe LIMIT 0", s.args...)
	if err != nil {
		return queryError(string(SQLSource), err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return queryError(string(SQLSource), err)
	}
	s.fields = cols
	return rows.Err()
}

func (s *sqlSource) Count(ctx context.Context) (int, error) {
	if s.counted {
		return s.count, nil
	}
	n, err := s.countRows(ctx)
	if err != nil {
		return 0, err
	}
	s.count, s.counted = n, true
	return n, nil
}

func (s *sqlSource) countRows(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("%w: sql source is not bound", ErrBinding)
	}
	var n int
	switch {
	case s.opts.CountQuery != "":
		if err := s.db.QueryRowContext(ctx, s.opts.CountQuery, s.args...).Scan(&n); err != nil {
			return 0, queryError(string(SQLSource), err)
		}
	case sqlAggregating.MatchString(s.query):
		rows, err := s.db.QueryContext(ctx, s.query, s.args...)
		if err != nil {
			return 0, queryError(string(SQLSource), err)
		}
		defer rows.Close()
		for rows.Next() {
			n++
		}
		if err := rows.Err(); err != nil {
			return 0, queryError(string(SQLSource), err)
		}
	default:
		q := "SELECT COUNT(*) FROM (" + s.query + ") AS datagrid_count"
		if err := s.db.QueryRowContext(ctx, q, s.args...).Scan(&n); err != nil {
			return 0, queryError(string(SQLSource), err)
		}
	}
	return n, nil
}

func (s *sqlSource) Sort(spec SortSpec) error {
	for _, f := range spec {
		if !sqlIdentifier.MatchString(f.Field) {
			return fmt.Errorf("%w: sql sort field %q is not an identifier", ErrValidation, f.Field)
		}
	}
	s.sort = spec.Clone()
	return nil
}

func (s *sqlSource) Fetch(ctx context.Context, offset, limit int) ([]Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: sql source is not bound", ErrBinding)
	}
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: negative offset or limit (%d, %d)", ErrValidation, offset, limit)
	}
	q := s.selectQuery(offset, limit)
	rows, err := s.db.QueryContext(ctx, q, s.args...)
	if err != nil {
		return nil, queryError(string(SQLSource), err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, queryError(string(SQLSource), err)
	}
	skip := 0
	if limit == 0 {
		skip = offset
	}
	records := []Record{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range columns {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, queryError(string(SQLSource), err)
		}
		if skip > 0 {
			skip--
			continue
		}
		row := ordereddict.NewDict()
		for i, name := range columns {
			value := values[i]
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			row.Set(name, value)
		}
		records = append(records, NewRecord(row))
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(string(SQLSource), err)
	}
	return records, nil
}

// selectQuery adds ORDER BY and LIMIT clauses. A query that already
// orders or limits its rows is wrapped in a sub-select first.
func (s *sqlSource) selectQuery(offset, limit int) string {
	q := s.query
	if (len(s.sort) > 0 || limit > 0) && sqlWindowed.MatchString(q) {
		q = "SELECT * FROM (" + q + ") AS datagrid_sorted"
	}
	if len(s.sort) > 0 {
		parts := make([]string, len(s.sort))
		for i, f := range s.sort {
			parts[i] = s.identifier(f.Field) + " " + string(f.Direction)
		}
		q += " ORDER BY " + strings.Join(parts, ", ")
	}
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	return q
}

func (s *sqlSource) identifier(name string) string {
	if !s.opts.QuoteIdentifiers {
		return name
	}
	quote := `"`
	if s.backticks() {
		quote = "`"
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quote + p + quote
	}
	return strings.Join(parts, ".")
}

// backticks reports whether the connection speaks the MySQL dialect, which
// reads double quotes as string literals.
func (s *sqlSource) backticks() bool {
	if s.opts.Driver == "mysql" {
		return true
	}
	if s.db == nil {
		return false
	}
	switch s.db.Driver().(type) {
	case *mysql.MySQLDriver, mysql.MySQLDriver:
		return true
	}
	return false
}

func (s *sqlSource) Fields() []string { return append([]string(nil), s.fields...) }

func (s *sqlSource) Capabilities() SourceCaps {
	return SourceMultiSort | SourceLimit | SourceCount
}

func (s *sqlSource) Close() error {
	if s.db == nil || !s.owned {
		return nil
	}
	err := s.db.Close()
	s.db, s.owned = nil, false
	return err
}
