package datagrid

import (
	"bytes"
	"io"
	"iter"
	"maps"
	"net/url"
	"os"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Renderer is an output adapter for one format. The grid hands it the
// columns, the current page of records, the page state and the sort,
// then calls Build and one of the output methods. Build is idempotent:
// it does nothing until a setter or Reset marks the output stale.
type Renderer interface {
	SetOptions(opts Options) error
	SetData(columns []*Column, records []Record)
	SetLimit(state PageState)
	SetCurrentSorting(spec SortSpec)
	// SetQuery sets the request parameter prefix and the query values
	// that generated links preserve.
	SetQuery(prefix string, query url.Values)
	Build() error
	Built() bool
	Reset()
	Render(w io.Writer) error
}

// Flattener is implemented by renderers that can return their output
// instead of writing it.
type Flattener interface {
	Flatten() (any, error)
}

// ContainerFiller is implemented by renderers that can fill a native
// object supplied by the caller.
type ContainerFiller interface {
	SetContainer(container any) error
}

// StreamRenderer is implemented by renderers that can write records as
// they arrive.
type StreamRenderer interface {
	Stream(w io.Writer, columns []*Column, seq iter.Seq2[Record, error]) error
}

// rendererBase carries the state every renderer receives from the grid.
type rendererBase struct {
	name    string
	columns []*Column
	records []Record
	page    PageState
	sort    SortSpec
	prefix  string
	query   url.Values
	built   bool
	out     []byte
}

func (b *rendererBase) SetData(columns []*Column, records []Record) {
	b.columns, b.records = columns, records
	b.built = false
}

func (b *rendererBase) SetLimit(state PageState) {
	b.page = state
	b.built = false
}

func (b *rendererBase) SetCurrentSorting(spec SortSpec) {
	b.sort = spec.Clone()
	b.built = false
}

func (b *rendererBase) SetQuery(prefix string, query url.Values) {
	b.prefix, b.query = prefix, query
	b.built = false
}

func (b *rendererBase) Built() bool { return b.built }

func (b *rendererBase) Reset() { b.built = false }

// build runs fn into a fresh buffer unless the output is current.
func (b *rendererBase) build(fn func(w io.Writer) error) error {
	if b.built {
		return nil
	}
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	b.out = buf.Bytes()
	b.built = true
	return nil
}

func (b *rendererBase) labels() []string {
	out := make([]string, len(b.columns))
	for i, c := range b.columns {
		out[i] = c.Label()
	}
	return out
}

func (b *rendererBase) rows() [][]string {
	out := make([][]string, len(b.records))
	for i, rec := range b.records {
		out[i] = cells(b.columns, rec, i)
	}
	return out
}

func cells(columns []*Column, rec Record, row int) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Value(rec, row)
	}
	return out
}

// cellValue keeps the typed field value for structured outputs. Columns
// with a formatter, or with an empty value and an auto-fill, yield the
// display string instead.
func cellValue(c *Column, rec Record, row int) any {
	if c.Formatter() == nil && c.Field() != "" {
		if v, ok := rec.Get(c.Field()); ok && v != nil && stringify(v) != "" {
			return v
		}
	}
	return c.Value(rec, row)
}

// recordRange formats the caption shown by the console renderers.
func recordRange(p PageState) string {
	if p.Total <= 0 {
		return "No records"
	}
	return "Records " + humanize.Comma(int64(p.FirstRecord())) + " - " +
		humanize.Comma(int64(p.LastRecord())) + " of " + humanize.Comma(int64(p.Total))
}

func recordSeq(records []Record) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// writeOutput writes data to filename when set, else to w.
func writeOutput(w io.Writer, filename string, data []byte) error {
	if filename == "" {
		_, err := w.Write(data)
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// linkBuilder builds hrefs that carry the paging and sorting parameters
// and preserve the other query values.
type linkBuilder struct {
	base   string
	prefix string
	query  url.Values
	extra  map[string]string
}

func (b *rendererBase) links(base string, extra map[string]string) linkBuilder {
	return linkBuilder{base: base, prefix: b.prefix, query: b.query, extra: extra}
}

// href returns a link to page sorted by spec. A zero page is left out.
func (l linkBuilder) href(page int, spec SortSpec) string {
	v := url.Values{}
	for k, vals := range l.query {
		if l.own(k) {
			continue
		}
		v[k] = append([]string(nil), vals...)
	}
	for k, val := range l.extra {
		v.Set(k, val)
	}
	if page > 0 {
		v.Set(l.prefix+"page", strconv.Itoa(page))
	}
	for _, f := range spec {
		v.Add(l.prefix+"orderBy", f.Field)
		v.Add(l.prefix+"direction", string(f.Direction))
	}
	return l.base + "?" + v.Encode()
}

// hidden returns the preserved query values as name/value pairs for form
// fields, in key order.
func (l linkBuilder) hidden() [][2]string {
	v := url.Values{}
	for k, vals := range l.query {
		if !l.own(k) {
			v[k] = vals
		}
	}
	for k, val := range l.extra {
		v.Set(k, val)
	}
	var out [][2]string
	for _, k := range slices.Sorted(maps.Keys(v)) {
		for _, val := range v[k] {
			out = append(out, [2]string{k, val})
		}
	}
	return out
}

func (l linkBuilder) own(key string) bool {
	switch key {
	case l.prefix + "page", l.prefix + "orderBy", l.prefix + "direction":
		return true
	}
	return false
}
