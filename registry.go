package datagrid

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/Velocidex/ordereddict"
	"github.com/apache/arrow-go/v18/arrow"
)

// SourceKind names a datasource driver.
type SourceKind string

const (
	ArraySource  SourceKind = "array"
	CSVSource    SourceKind = "csv"
	XMLSource    SourceKind = "xml"
	SQLSource    SourceKind = "sql"
	ObjectSource SourceKind = "objects"
	ArrowSource  SourceKind = "arrow"
	XLSXSource   SourceKind = "xlsx"
)

var sourceKinds = []SourceKind{ArraySource, CSVSource, XMLSource, SQLSource, ObjectSource, ArrowSource, XLSXSource}

var sources = map[SourceKind]func() DataSource{
	ArraySource:  func() DataSource { return newArraySource() },
	CSVSource:    func() DataSource { return newCSVSource() },
	XMLSource:    func() DataSource { return newXMLSource() },
	SQLSource:    func() DataSource { return newSQLSource() },
	ObjectSource: func() DataSource { return newObjectSource() },
	ArrowSource:  func() DataSource { return newArrowSource() },
	XLSXSource:   func() DataSource { return newXLSXSource() },
}

// String returns the kind name.
func (k SourceKind) String() string { return string(k) }

// SourceKinds returns every datasource kind.
func SourceKinds() []SourceKind {
	out := make([]SourceKind, len(sourceKinds))
	copy(out, sourceKinds)
	return out
}

// ParseSourceKind parses a datasource kind name.
func ParseSourceKind(s string) (SourceKind, error) {
	for _, k := range sourceKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown datasource %q", ErrDriverLoad, s)
}

// NewDataSource returns an unbound datasource of the given kind.
func NewDataSource(kind SourceKind) (DataSource, error) {
	fn, ok := sources[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown datasource %q", ErrDriverLoad, kind)
	}
	return fn(), nil
}

// DetectSourceKind picks a datasource kind for source. Strings are
// matched by file extension, then by content: text starting with "<" is
// XML and anything else is CSV. SQL queries must be passed as [SQLQuery]
// or bound with an explicit kind.
func DetectSourceKind(source any) (SourceKind, error) {
	switch v := source.(type) {
	case SQLQuery, *SQLQuery:
		return SQLSource, nil
	case arrow.Table, arrow.Record:
		return ArrowSource, nil
	case *excelize.File:
		return XLSXSource, nil
	case []Record, []*ordereddict.Dict, []map[string]any, []map[string]string, [][]string:
		return ArraySource, nil
	case []byte:
		return sniffText(string(v)), nil
	case string:
		switch strings.ToLower(filepath.Ext(v)) {
		case ".csv", ".tsv", ".txt":
			return CSVSource, nil
		case ".xml":
			return XMLSource, nil
		case ".parquet":
			return ArrowSource, nil
		case ".xlsx":
			return XLSXSource, nil
		}
		return sniffText(v), nil
	}
	t := reflect.TypeOf(source)
	if t != nil && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		elem := t.Elem()
		if elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		if elem.Kind() == reflect.Struct {
			return ObjectSource, nil
		}
	}
	return "", fmt.Errorf("%w: cannot detect a datasource for %T", ErrBinding, source)
}

func sniffText(s string) SourceKind {
	if strings.HasPrefix(strings.TrimSpace(s), "<") {
		return XMLSource
	}
	return CSVSource
}

// RendererKind names a renderer driver.
type RendererKind string

const (
	HTMLRenderer     RendererKind = "html"
	CSVRenderer      RendererKind = "csv"
	XMLRenderer      RendererKind = "xml"
	JSONRenderer     RendererKind = "json"
	JSONLRenderer    RendererKind = "jsonl"
	YAMLRenderer     RendererKind = "yaml"
	MarkdownRenderer RendererKind = "markdown"
	TableRenderer    RendererKind = "table"
	ConsoleRenderer  RendererKind = "console"
	TemplateRenderer RendererKind = "template"
	XLSXRenderer     RendererKind = "xlsx"
	PagerRenderer    RendererKind = "pager"
	SortFormRenderer RendererKind = "sortform"
)

// RendererCaps is the capability set a renderer declares at
// registration. The grid checks it before using an optional interface.
type RendererCaps uint8

const (
	// CanFlatten means the renderer implements [Flattener].
	CanFlatten RendererCaps = 1 << iota
	// CanStream means the renderer implements [StreamRenderer].
	CanStream
	// CanFill means the renderer implements [ContainerFiller].
	CanFill
	// PreservesObjects means the renderer can emit the original objects
	// of object-backed records.
	PreservesObjects
)

// Has reports whether all of want are set.
func (c RendererCaps) Has(want RendererCaps) bool { return c&want == want }

type rendererEntry struct {
	caps RendererCaps
	new  func() Renderer
}

var rendererKinds = []RendererKind{
	HTMLRenderer, CSVRenderer, XMLRenderer, JSONRenderer, JSONLRenderer, YAMLRenderer, MarkdownRenderer,
	TableRenderer, ConsoleRenderer, TemplateRenderer, XLSXRenderer, PagerRenderer, SortFormRenderer,
}

var renderers = map[RendererKind]rendererEntry{
	HTMLRenderer:     {CanFlatten, func() Renderer { return newHTMLRenderer() }},
	CSVRenderer:      {CanFlatten | CanStream, func() Renderer { return newCSVRenderer() }},
	XMLRenderer:      {CanFlatten | CanStream, func() Renderer { return newXMLRenderer() }},
	JSONRenderer:     {CanFlatten | PreservesObjects, func() Renderer { return newJSONRenderer() }},
	JSONLRenderer:    {CanFlatten | CanStream, func() Renderer { return newJSONLRenderer() }},
	YAMLRenderer:     {CanFlatten, func() Renderer { return newYAMLRenderer() }},
	MarkdownRenderer: {CanFlatten, func() Renderer { return newMarkdownRenderer() }},
	TableRenderer:    {CanFlatten, func() Renderer { return newTableRenderer() }},
	ConsoleRenderer:  {CanFlatten | CanFill, func() Renderer { return newConsoleRenderer() }},
	TemplateRenderer: {CanFlatten | PreservesObjects, func() Renderer { return newTemplateRenderer() }},
	XLSXRenderer:     {CanFill, func() Renderer { return newXLSXRenderer() }},
	PagerRenderer:    {CanFlatten, func() Renderer { return newPagerRenderer() }},
	SortFormRenderer: {CanFlatten, func() Renderer { return newSortFormRenderer() }},
}

// String returns the kind name.
func (k RendererKind) String() string { return string(k) }

// RendererKinds returns every renderer kind.
func RendererKinds() []RendererKind {
	out := make([]RendererKind, len(rendererKinds))
	copy(out, rendererKinds)
	return out
}

// ParseRendererKind parses a renderer kind name.
func ParseRendererKind(s string) (RendererKind, error) {
	for _, k := range rendererKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown renderer %q", ErrDriverLoad, s)
}

// NewRenderer returns a renderer of the given kind with default options.
func NewRenderer(kind RendererKind) (Renderer, error) {
	e, ok := renderers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown renderer %q", ErrDriverLoad, kind)
	}
	return e.new(), nil
}

// Capabilities returns the capability set registered for kind.
func Capabilities(kind RendererKind) (RendererCaps, error) {
	e, ok := renderers[kind]
	if !ok {
		return 0, fmt.Errorf("%w: unknown renderer %q", ErrDriverLoad, kind)
	}
	return e.caps, nil
}
