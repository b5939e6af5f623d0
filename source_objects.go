package datagrid

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/Velocidex/ordereddict"
)

type objectSourceOptions struct {
	Fields []string `yaml:"fields"`
	Locale string   `yaml:"locale"`
}

// objectField maps a struct field to a record field.
type objectField struct {
	index []int
	name  string
	label string
}

// objectSource binds a slice of structs. Records keep the original
// element so object-preserving renderers can use it directly.
//
// Struct tags: `datagrid:"name"` renames a field, `datagrid:"-"` skips
// it and `datagrid:"name,label=Title"` also reports a column label.
type objectSource struct {
	arraySource
	columns []*Column
}

func newObjectSource() *objectSource {
	return &objectSource{arraySource: arraySource{name: string(ObjectSource), caps: SourceObjects}}
}

func (s *objectSource) Bind(_ context.Context, source any, opts Options) error {
	o := objectSourceOptions{}
	if err := decodeOptions(s.name, opts, &o); err != nil {
		return err
	}
	v := reflect.ValueOf(source)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Errorf("%w: objects source needs a slice, got %T", ErrBinding, source)
	}
	elem := v.Type().Elem()
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("%w: objects source needs struct elements, got %s", ErrBinding, v.Type().Elem())
	}

	fields := structFields(elem)
	if o.Fields != nil {
		fields = pickFields(fields, o.Fields)
	}
	names := make([]string, len(fields))
	s.columns = nil
	for i, f := range fields {
		names[i] = f.name
		if f.label != "" {
			s.columns = append(s.columns, NewColumn(f.label, f.name))
		}
	}

	records := make([]Record, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		sv := reflect.Indirect(item)
		d := ordereddict.NewDict()
		for _, f := range fields {
			if !sv.IsValid() {
				d.Set(f.name, nil)
				continue
			}
			fv, err := sv.FieldByIndexErr(f.index)
			if err != nil {
				d.Set(f.name, nil)
				continue
			}
			d.Set(f.name, fv.Interface())
		}
		records = append(records, ObjectRecord(item.Interface(), d))
	}
	return s.load(records, names, o.Locale)
}

// Columns returns the columns declared through label tags.
func (s *objectSource) Columns() []*Column {
	return s.columns
}

func structFields(t reflect.Type) []objectField {
	var out []objectField
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		f := objectField{index: sf.Index, name: sf.Name}
		if tag, ok := sf.Tag.Lookup("datagrid"); ok {
			if tag == "-" {
				continue
			}
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				f.name = parts[0]
			}
			for _, p := range parts[1:] {
				if label, ok := strings.CutPrefix(p, "label="); ok {
					f.label = label
				}
			}
		}
		out = append(out, f)
	}
	return out
}

func pickFields(all []objectField, names []string) []objectField {
	byName := make(map[string]objectField, len(all))
	for _, f := range all {
		byName[f.name] = f
	}
	out := make([]objectField, 0, len(names))
	for _, n := range names {
		if f, ok := byName[n]; ok {
			out = append(out, f)
		}
	}
	return out
}
