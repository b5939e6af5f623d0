package datagrid

import (
	"fmt"
	"html"
	"io"
	"strings"
)

type sortFormOptions struct {
	// Fields is the number of field/direction select pairs.
	Fields      int               `yaml:"fields"`
	SubmitLabel string            `yaml:"submit_label"`
	EmptyLabel  string            `yaml:"empty_label"`
	BaseURL     string            `yaml:"base_url"`
	ExtraVars   map[string]string `yaml:"extra_vars"`
}

// sortFormRenderer renders a GET form selecting a multi-field sort. The
// grid reads the repeated orderBy and direction values back as a sort.
type sortFormRenderer struct {
	rendererBase
	opts sortFormOptions
}

func newSortFormRenderer() *sortFormRenderer {
	return &sortFormRenderer{
		rendererBase: rendererBase{name: string(SortFormRenderer)},
		opts:         sortFormOptions{Fields: 2, SubmitLabel: "Sort", EmptyLabel: "---"},
	}
}

func (r *sortFormRenderer) SetOptions(opts Options) error {
	o := r.opts
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	if o.Fields < 1 {
		return fmt.Errorf("%w: %s option \"fields\" must be at least 1, got %d", ErrValidation, r.name, o.Fields)
	}
	r.opts = o
	r.built = false
	return nil
}

func (r *sortFormRenderer) Build() error { return r.build(r.write) }

func (r *sortFormRenderer) Render(w io.Writer) error {
	if err := r.Build(); err != nil {
		return err
	}
	_, err := w.Write(r.out)
	return err
}

func (r *sortFormRenderer) Flatten() (any, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return string(r.out), nil
}

func (r *sortFormRenderer) write(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<form method=\"get\" action=\"%s\">\n", html.EscapeString(r.opts.BaseURL))
	for _, kv := range r.links(r.opts.BaseURL, r.opts.ExtraVars).hidden() {
		fmt.Fprintf(&sb, "  <input type=\"hidden\" name=\"%s\" value=\"%s\">\n", html.EscapeString(kv[0]), html.EscapeString(kv[1]))
	}
	for i := range r.opts.Fields {
		var current SortField
		if i < len(r.sort) {
			current = r.sort[i]
		}
		sb.WriteString("  <div>\n")
		fmt.Fprintf(&sb, "    <select name=\"%s\">\n", html.EscapeString(r.prefix+"orderBy"))
		sb.WriteString(option("", r.opts.EmptyLabel, current.Field == ""))
		for _, c := range r.columns {
			if c.Sortable() {
				sb.WriteString(option(c.Field(), c.Label(), current.Field == c.Field()))
			}
		}
		sb.WriteString("    </select>\n")
		fmt.Fprintf(&sb, "    <select name=\"%s\">\n", html.EscapeString(r.prefix+"direction"))
		sb.WriteString(option(string(Ascending), "ASC", current.Direction != Descending))
		sb.WriteString(option(string(Descending), "DESC", current.Direction == Descending))
		sb.WriteString("    </select>\n  </div>\n")
	}
	fmt.Fprintf(&sb, "  <input type=\"submit\" value=\"%s\">\n</form>\n", html.EscapeString(r.opts.SubmitLabel))
	_, err := io.WriteString(w, sb.String())
	return err
}

func option(value, label string, selected bool) string {
	sel := ""
	if selected {
		sel = " selected"
	}
	return fmt.Sprintf("      <option value=\"%s\"%s>%s</option>\n", html.EscapeString(value), sel, html.EscapeString(label))
}
