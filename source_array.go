package datagrid

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"

	"github.com/Velocidex/ordereddict"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type arrayOptions struct {
	// Fields selects and orders the fields of each record.
	Fields []string `yaml:"fields"`
	// Header treats the first row of a [][]string source as field names.
	Header bool `yaml:"header"`
	// Locale is the BCP 47 tag used to collate strings.
	Locale string `yaml:"locale"`
}

// arraySource serves an in-memory record set. The file-backed drivers
// embed it and only differ in how they load records.
type arraySource struct {
	name     string
	records  []Record
	view     []Record
	fields   []string
	sort     SortSpec
	collator *collate.Collator
	caps     SourceCaps
}

func newArraySource() *arraySource {
	return &arraySource{name: string(ArraySource)}
}

func (s *arraySource) Bind(_ context.Context, source any, opts Options) error {
	o := arrayOptions{}
	if err := decodeOptions(s.name, opts, &o); err != nil {
		return err
	}
	records, fields, err := recordsFromValue(source, o)
	if err != nil {
		return err
	}
	return s.load(records, fields, o.Locale)
}

// load replaces the record set. fields may be nil, in which case the keys
// of the first record are reported.
func (s *arraySource) load(records []Record, fields []string, locale string) error {
	tag := language.Und
	if locale != "" {
		t, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("%w: %s option \"locale\": %w", ErrValidation, s.name, err)
		}
		tag = t
	}
	s.collator = collate.New(tag)
	s.records = slices.Clone(records)
	s.fields = fields
	if s.fields == nil && len(records) > 0 {
		s.fields = records[0].Keys()
	}
	s.view = nil
	return nil
}

func (s *arraySource) Count(context.Context) (int, error) {
	return len(s.records), nil
}

func (s *arraySource) Sort(spec SortSpec) error {
	if s.sort.Equal(spec) {
		return nil
	}
	s.sort = spec.Clone()
	s.view = nil
	return nil
}

func (s *arraySource) Fetch(_ context.Context, offset, limit int) ([]Record, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: negative offset or limit (%d, %d)", ErrValidation, offset, limit)
	}
	rows := s.records
	if len(s.sort) > 0 {
		if s.view == nil {
			s.apply()
		}
		rows = s.view
	}
	if offset >= len(rows) {
		return []Record{}, nil
	}
	end := len(rows)
	if limit > 0 {
		end = min(offset+limit, end)
	}
	return slices.Clone(rows[offset:end]), nil
}

func (s *arraySource) Fields() []string { return slices.Clone(s.fields) }

func (s *arraySource) Capabilities() SourceCaps {
	return SourceMultiSort | SourceLimit | SourceCount | s.caps
}

func (s *arraySource) Close() error { return nil }

// apply builds the sorted view. The sort is stable, so records that
// compare equal on every field keep their original order.
func (s *arraySource) apply() {
	s.view = slices.Clone(s.records)
	sort.SliceStable(s.view, func(i, j int) bool {
		return s.less(s.view[i], s.view[j])
	})
}

func (s *arraySource) less(a, b Record) bool {
	for _, f := range s.sort {
		av, _ := a.Get(f.Field)
		bv, _ := b.Get(f.Field)
		c := s.compare(av, bv)
		if c == 0 {
			continue
		}
		if f.Direction == Descending {
			return c > 0
		}
		return c < 0
	}
	return false
}

// compare orders numbers numerically and everything else by collation.
// Numbers sort before other values, so mixed columns still order
// consistently.
func (s *arraySource) compare(a, b any) int {
	an, aok := number(a)
	bn, bok := number(b)
	switch {
	case aok && bok:
		return cmp.Compare(an, bn)
	case aok:
		return -1
	case bok:
		return 1
	}
	return s.collator.CompareString(stringify(a), stringify(b))
}

// recordsFromValue converts the supported in-memory shapes into records.
func recordsFromValue(source any, o arrayOptions) ([]Record, []string, error) {
	switch v := source.(type) {
	case []Record:
		return selectFields(v, o.Fields), fieldsOrNil(o.Fields), nil
	case []*ordereddict.Dict:
		out := make([]Record, len(v))
		for i, d := range v {
			out[i] = NewRecord(d)
		}
		return selectFields(out, o.Fields), fieldsOrNil(o.Fields), nil
	case []map[string]any:
		keys := o.Fields
		if keys == nil {
			keys = unionKeys(v)
		}
		out := make([]Record, len(v))
		for i, m := range v {
			out[i] = RecordFromMap(m, keys)
		}
		return out, keys, nil
	case []map[string]string:
		conv := make([]map[string]any, len(v))
		for i, m := range v {
			conv[i] = make(map[string]any, len(m))
			for k, val := range m {
				conv[i][k] = val
			}
		}
		return recordsFromValue(conv, o)
	case [][]string:
		return recordsFromRows(v, o.Header, o.Fields), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: array source cannot bind %T", ErrBinding, source)
	}
}

// recordsFromRows converts string rows. Field names come from fields,
// the header row, or the column index, in that order.
func recordsFromRows(rows [][]string, header bool, fields []string) []Record {
	if header && len(rows) > 0 {
		if fields == nil {
			fields = rows[0]
		}
		rows = rows[1:]
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		d := ordereddict.NewDict()
		n := len(row)
		if fields != nil {
			n = len(fields)
		}
		for i := 0; i < n; i++ {
			name := strconv.Itoa(i)
			if fields != nil {
				name = fields[i]
			}
			var val any
			if i < len(row) {
				val = row[i]
			}
			d.Set(name, val)
		}
		out = append(out, NewRecord(d))
	}
	return out
}

func selectFields(records []Record, fields []string) []Record {
	if fields == nil {
		return records
	}
	out := make([]Record, len(records))
	for i, r := range records {
		d := ordereddict.NewDict()
		for _, f := range fields {
			v, _ := r.Get(f)
			d.Set(f, v)
		}
		out[i] = ObjectRecord(r.Object(), d)
	}
	return out
}

func fieldsOrNil(fields []string) []string {
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// unionKeys returns every key seen across maps, sorted, since map
// iteration order carries no meaning.
func unionKeys(ms []map[string]any) []string {
	seen := map[string]struct{}{}
	for _, m := range ms {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}
