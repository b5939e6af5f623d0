package datagrid

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/clbanning/mxj"
)

type xmlSourceOptions struct {
	// Path is an mxj dot path to the row elements, e.g. "catalog.book".
	// Empty means the children of the root element.
	Path       string   `yaml:"path"`
	Fields     []string `yaml:"fields"`
	Attributes bool     `yaml:"attributes"`
	Locale     string   `yaml:"locale"`
}

// xmlSource reads records from XML. Each row element becomes a record
// whose fields are its child elements and, optionally, its attributes.
type xmlSource struct {
	arraySource
}

func newXMLSource() *xmlSource {
	return &xmlSource{arraySource{name: string(XMLSource)}}
}

func (s *xmlSource) Bind(_ context.Context, source any, opts Options) error {
	o := xmlSourceOptions{Attributes: true}
	if err := decodeOptions(s.name, opts, &o); err != nil {
		return err
	}
	r, closer, err := openText(s.name, source)
	if err != nil {
		return err
	}
	defer closer()

	m, err := mxj.NewMapXmlReader(r)
	if err != nil {
		return queryError(s.name, err)
	}
	path := o.Path
	if path == "" {
		path, err = defaultRowPath(m)
		if err != nil {
			return err
		}
	}
	values, err := m.ValuesForPath(path)
	if err != nil {
		return queryError(s.name, err)
	}

	rows := make([]map[string]any, 0, len(values))
	for _, v := range values {
		rows = append(rows, flattenElement(path, v, o.Attributes))
	}
	keys := o.Fields
	if keys == nil {
		keys = unionKeys(rows)
	}
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = RecordFromMap(row, keys)
	}
	return s.load(records, keys, o.Locale)
}

// defaultRowPath picks root.child when the root element has exactly one
// kind of child element.
func defaultRowPath(m mxj.Map) (string, error) {
	if len(m) != 1 {
		return "", fmt.Errorf("%w: xml document has %d root elements", ErrBinding, len(m))
	}
	for root, v := range m {
		children, ok := v.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: xml root %q has no child elements", ErrBinding, root)
		}
		var elems []string
		for k := range children {
			if !strings.HasPrefix(k, "-") && k != "#text" {
				elems = append(elems, k)
			}
		}
		if len(elems) != 1 {
			return "", fmt.Errorf("%w: xml root %q has %d child element kinds, set the \"path\" option", ErrBinding, root, len(elems))
		}
		return root + "." + elems[0], nil
	}
	return "", nil
}

// flattenElement turns one mxj element value into field values. Nested
// elements are kept as their text content or their mxj representation.
func flattenElement(path string, v any, attrs bool) map[string]any {
	out := map[string]any{}
	elem, ok := v.(map[string]any)
	if !ok {
		name := path[strings.LastIndex(path, ".")+1:]
		out[name] = v
		return out
	}
	for _, k := range slices.Sorted(maps.Keys(elem)) {
		val := elem[k]
		switch {
		case k == "#text":
			name := path[strings.LastIndex(path, ".")+1:]
			out[name] = val
		case strings.HasPrefix(k, "-"):
			if attrs {
				out[strings.TrimPrefix(k, "-")] = val
			}
		default:
			out[k] = elementText(val)
		}
	}
	return out
}

func elementText(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if text, ok := m["#text"]; ok {
		return text
	}
	return mxj.Map(m).Old()
}
