package datagrid

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/Velocidex/ordereddict"
)

type jsonOptions struct {
	Indent          string `yaml:"indent"`
	PreserveObjects bool   `yaml:"preserve_objects"`
	UseLabels       bool   `yaml:"use_labels"`
	// Envelope wraps the records with the paging state.
	Envelope bool `yaml:"envelope"`
}

// jsonRenderer writes the page as an array of objects whose keys keep
// the column order.
type jsonRenderer struct {
	rendererBase
	opts jsonOptions
}

func newJSONRenderer() *jsonRenderer {
	return &jsonRenderer{rendererBase: rendererBase{name: string(JSONRenderer)}}
}

func (r *jsonRenderer) SetOptions(opts Options) error {
	o := r.opts
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	r.opts = o
	r.built = false
	return nil
}

func (r *jsonRenderer) Build() error { return r.build(r.write) }

func (r *jsonRenderer) Render(w io.Writer) error {
	if err := r.Build(); err != nil {
		return err
	}
	_, err := w.Write(r.out)
	return err
}

func (r *jsonRenderer) Flatten() (any, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return string(r.out), nil
}

func (r *jsonRenderer) write(w io.Writer) error {
	items := make([]any, len(r.records))
	for i, rec := range r.records {
		if obj := rec.Object(); r.opts.PreserveObjects && obj != nil {
			items[i] = obj
			continue
		}
		items[i] = recordDict(r.columns, rec, i, r.opts.UseLabels)
	}
	var v any = items
	if r.opts.Envelope {
		v = ordereddict.NewDict().
			Set("page", r.page.Page).
			Set("per_page", r.page.PerPage).
			Set("total", r.page.Total).
			Set("page_count", r.page.PageCount()).
			Set("records", items)
	}
	return encodeJSON(w, v, r.opts.Indent)
}

func encodeJSON(w io.Writer, v any, indent string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if indent != "" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", indent); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// recordDict maps column keys to cell values in column order.
func recordDict(columns []*Column, rec Record, row int, useLabels bool) *ordereddict.Dict {
	d := ordereddict.NewDict()
	for _, c := range columns {
		key := c.Field()
		if useLabels || key == "" {
			key = c.Label()
		}
		d.Set(key, cellValue(c, rec, row))
	}
	return d
}
