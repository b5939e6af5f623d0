package datagrid

import (
	"io"

	"gopkg.in/yaml.v3"
)

type yamlOptions struct {
	Indent    int  `yaml:"indent"`
	UseLabels bool `yaml:"use_labels"`
}

// yamlRenderer writes the page as a sequence of mappings in column order.
type yamlRenderer struct {
	rendererBase
	opts yamlOptions
}

func newYAMLRenderer() *yamlRenderer {
	return &yamlRenderer{
		rendererBase: rendererBase{name: string(YAMLRenderer)},
		opts:         yamlOptions{Indent: 2},
	}
}

func (r *yamlRenderer) SetOptions(opts Options) error {
	o := r.opts
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	r.opts = o
	r.built = false
	return nil
}

func (r *yamlRenderer) Build() error { return r.build(r.write) }

func (r *yamlRenderer) Render(w io.Writer) error {
	if err := r.Build(); err != nil {
		return err
	}
	_, err := w.Write(r.out)
	return err
}

func (r *yamlRenderer) Flatten() (any, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return string(r.out), nil
}

func (r *yamlRenderer) write(w io.Writer) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for i, rec := range r.records {
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, c := range r.columns {
			key := c.Field()
			if r.opts.UseLabels || key == "" {
				key = c.Label()
			}
			val := &yaml.Node{}
			if err := val.Encode(cellValue(c, rec, i)); err != nil {
				return err
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
		}
		seq.Content = append(seq.Content, m)
	}

	enc := yaml.NewEncoder(w)
	if r.opts.Indent > 0 {
		enc.SetIndent(r.opts.Indent)
	}
	if err := enc.Encode(seq); err != nil {
		return err
	}
	return enc.Close()
}
