package datagrid

import (
	"encoding/xml"
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode"
)

type xmlOptions struct {
	RootTag     string `yaml:"root_tag"`
	RowTag      string `yaml:"row_tag"`
	Declaration bool   `yaml:"declaration"`
	Indent      string `yaml:"indent"`
	UseLabels   bool   `yaml:"use_labels"`
	Filename    string `yaml:"filename"`
}

// xmlRenderer writes one row element per record with one child element
// per column.
type xmlRenderer struct {
	rendererBase
	opts xmlOptions
}

func newXMLRenderer() *xmlRenderer {
	return &xmlRenderer{
		rendererBase: rendererBase{name: string(XMLRenderer)},
		opts:         xmlOptions{RootTag: "data", RowTag: "row", Declaration: true, Indent: "  "},
	}
}

func (r *xmlRenderer) SetOptions(opts Options) error {
	o := r.opts
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	if o.RootTag == "" || o.RowTag == "" {
		return fmt.Errorf("%w: %s options \"root_tag\" and \"row_tag\" must not be empty", ErrValidation, r.name)
	}
	r.opts = o
	r.built = false
	return nil
}

func (r *xmlRenderer) Build() error {
	return r.build(func(w io.Writer) error {
		return r.Stream(w, r.columns, recordSeq(r.records))
	})
}

func (r *xmlRenderer) Render(w io.Writer) error {
	if err := r.Build(); err != nil {
		return err
	}
	return writeOutput(w, r.opts.Filename, r.out)
}

func (r *xmlRenderer) Flatten() (any, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return string(r.out), nil
}

// Stream writes the document, flushing after every row.
func (r *xmlRenderer) Stream(w io.Writer, columns []*Column, seq iter.Seq2[Record, error]) error {
	if r.opts.Declaration {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
	}
	names := make([]xml.Name, len(columns))
	for i, c := range columns {
		name := c.Field()
		if r.opts.UseLabels || name == "" {
			name = c.Label()
		}
		names[i] = xml.Name{Local: tagName(name)}
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", r.opts.Indent)
	root := xml.StartElement{Name: xml.Name{Local: tagName(r.opts.RootTag)}}
	rowTag := xml.StartElement{Name: xml.Name{Local: tagName(r.opts.RowTag)}}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	row := 0
	for rec, err := range seq {
		if err != nil {
			return err
		}
		if err := enc.EncodeToken(rowTag); err != nil {
			return err
		}
		for i, c := range columns {
			if err := enc.EncodeElement(c.Value(rec, row), xml.StartElement{Name: names[i]}); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(rowTag.End()); err != nil {
			return err
		}
		if err := enc.Flush(); err != nil {
			return err
		}
		row++
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// tagName turns s into a valid element name.
func tagName(s string) string {
	var sb strings.Builder
	for i, c := range s {
		switch {
		case unicode.IsLetter(c) || c == '_':
			sb.WriteRune(c)
		case i > 0 && (unicode.IsDigit(c) || c == '-' || c == '.'):
			sb.WriteRune(c)
		case i == 0 && unicode.IsDigit(c):
			sb.WriteRune('_')
			sb.WriteRune(c)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}
