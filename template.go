package datagrid

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize"
)

type templateOptions struct {
	Template     string `yaml:"template"`
	TemplateFile string `yaml:"template_file"`
}

// TemplateColumn describes one column to a template.
type TemplateColumn struct {
	Label     string
	Field     string
	Sortable  bool
	Direction Direction
}

// TemplateData is the variable bundle the template renderer flattens to
// and executes its template against.
type TemplateData struct {
	Columns []TemplateColumn
	// Rows holds the display value of every cell.
	Rows [][]string
	// Records holds the records of the page.
	Records []Record
	// Objects holds the original objects of object-backed records, or
	// nil entries.
	Objects     []any
	Page        int
	PageCount   int
	PerPage     int
	Total       int
	FirstRecord int
	LastRecord  int
	Sort        SortSpec
}

// templateRenderer executes a text/template with the sprig and humanize
// functions.
type templateRenderer struct {
	rendererBase
	opts templateOptions
	tmpl *template.Template
	data TemplateData
}

func newTemplateRenderer() *templateRenderer {
	return &templateRenderer{rendererBase: rendererBase{name: string(TemplateRenderer)}}
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"comma":   func(n int) string { return humanize.Comma(int64(n)) },
		"bytes":   func(n int) string { return humanize.Bytes(uint64(max(n, 0))) },
		"ordinal": humanize.Ordinal,
	}
}

func (r *templateRenderer) SetOptions(opts Options) error {
	o := r.opts
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	text := o.Template
	if text == "" && o.TemplateFile != "" {
		data, err := os.ReadFile(o.TemplateFile)
		if err != nil {
			return fmt.Errorf("%w: %s option \"template_file\": %w", ErrValidation, r.name, err)
		}
		text = string(data)
	}
	var tmpl *template.Template
	if text != "" {
		t, err := template.New("datagrid").Funcs(sprig.TxtFuncMap()).Funcs(templateFuncs()).Parse(text)
		if err != nil {
			return fmt.Errorf("%w: %s option \"template\": %w", ErrValidation, r.name, err)
		}
		tmpl = t
	}
	r.opts, r.tmpl = o, tmpl
	r.built = false
	return nil
}

func (r *templateRenderer) Build() error {
	if r.built {
		return nil
	}
	r.data = r.bundle()
	if r.tmpl == nil {
		r.out = nil
		r.built = true
		return nil
	}
	return r.build(func(w io.Writer) error {
		return r.tmpl.Execute(w, r.data)
	})
}

func (r *templateRenderer) Render(w io.Writer) error {
	if r.tmpl == nil {
		return unsupported("Render", r.name, "set the template option or use Output for the variable bundle")
	}
	if err := r.Build(); err != nil {
		return err
	}
	_, err := w.Write(r.out)
	return err
}

// Flatten returns the [TemplateData] bundle.
func (r *templateRenderer) Flatten() (any, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return r.data, nil
}

func (r *templateRenderer) bundle() TemplateData {
	d := TemplateData{
		Rows:        r.rows(),
		Records:     r.records,
		Objects:     make([]any, len(r.records)),
		Page:        r.page.Page,
		PageCount:   r.page.PageCount(),
		PerPage:     r.page.PerPage,
		Total:       r.page.Total,
		FirstRecord: r.page.FirstRecord(),
		LastRecord:  r.page.LastRecord(),
		Sort:        r.sort.Clone(),
	}
	for _, c := range r.columns {
		dir, _ := r.sort.Direction(c.Field())
		d.Columns = append(d.Columns, TemplateColumn{
			Label:     c.Label(),
			Field:     c.Field(),
			Sortable:  c.Sortable(),
			Direction: dir,
		})
	}
	for i, rec := range r.records {
		d.Objects[i] = rec.Object()
	}
	return d
}
