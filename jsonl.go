package datagrid

import (
	"io"
	"iter"
)

// jsonlRenderer writes one object per line.
type jsonlRenderer struct {
	rendererBase
	useLabels bool
}

func newJSONLRenderer() *jsonlRenderer {
	return &jsonlRenderer{rendererBase: rendererBase{name: string(JSONLRenderer)}}
}

func (r *jsonlRenderer) SetOptions(opts Options) error {
	o := struct {
		UseLabels bool `yaml:"use_labels"`
	}{r.useLabels}
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	r.useLabels = o.UseLabels
	r.built = false
	return nil
}

func (r *jsonlRenderer) Build() error {
	return r.build(func(w io.Writer) error {
		return r.Stream(w, r.columns, recordSeq(r.records))
	})
}

func (r *jsonlRenderer) Render(w io.Writer) error {
	if err := r.Build(); err != nil {
		return err
	}
	_, err := w.Write(r.out)
	return err
}

func (r *jsonlRenderer) Flatten() (any, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return string(r.out), nil
}

func (r *jsonlRenderer) Stream(w io.Writer, columns []*Column, seq iter.Seq2[Record, error]) error {
	row := 0
	for rec, err := range seq {
		if err != nil {
			return err
		}
		if err := encodeJSON(w, recordDict(columns, rec, row, r.useLabels), ""); err != nil {
			return err
		}
		row++
	}
	return nil
}
