package datagrid

import (
	"fmt"
	"html"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// formatterPolicy sanitizes formatter output, which may carry markup.
var formatterPolicy = bluemonday.UGCPolicy()

type htmlOptions struct {
	Caption           string            `yaml:"caption"`
	Header            bool              `yaml:"header"`
	Sortable          bool              `yaml:"sortable"`
	EmptyMessage      string            `yaml:"empty_message"`
	TableAttributes   map[string]string `yaml:"table_attributes"`
	OddRowAttributes  map[string]string `yaml:"odd_row_attributes"`
	EvenRowAttributes map[string]string `yaml:"even_row_attributes"`
	SortIconASC       string            `yaml:"sort_icon_asc"`
	SortIconDESC      string            `yaml:"sort_icon_desc"`
	Align             map[string]string `yaml:"align"`
	BaseURL           string            `yaml:"base_url"`
	ExtraVars         map[string]string `yaml:"extra_vars"`
}

// htmlRenderer renders a <table>. Sortable columns get header links that
// toggle the direction of the column.
type htmlRenderer struct {
	rendererBase
	opts   htmlOptions
	aligns map[string]alignment
}

func newHTMLRenderer() *htmlRenderer {
	return &htmlRenderer{
		rendererBase: rendererBase{name: string(HTMLRenderer)},
		opts:         htmlOptions{Header: true, Sortable: true},
	}
}

func (r *htmlRenderer) SetOptions(opts Options) error {
	o := r.opts
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	aligns, err := parseAlignments(r.name, o.Align)
	if err != nil {
		return err
	}
	r.opts, r.aligns = o, aligns
	r.built = false
	return nil
}

func (r *htmlRenderer) Build() error { return r.build(r.write) }

func (r *htmlRenderer) Render(w io.Writer) error {
	if err := r.Build(); err != nil {
		return err
	}
	_, err := w.Write(r.out)
	return err
}

func (r *htmlRenderer) Flatten() (any, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return string(r.out), nil
}

func (r *htmlRenderer) write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "<table%s>\n", attributes(r.opts.TableAttributes)); err != nil {
		return err
	}
	if r.opts.Caption != "" {
		if _, err := fmt.Fprintf(w, "  <caption>%s</caption>\n", html.EscapeString(r.opts.Caption)); err != nil {
			return err
		}
	}

	if r.opts.Header {
		if _, err := fmt.Fprintln(w, "  <thead>\n    <tr>"); err != nil {
			return err
		}
		for _, c := range r.columns {
			style := alignStyle(r.aligns[c.Field()])
			if _, err := fmt.Fprintf(w, "      <th%s>%s</th>\n", style, r.headerCell(c)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, "    </tr>\n  </thead>"); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "  <tbody>"); err != nil {
		return err
	}
	if len(r.records) == 0 && r.opts.EmptyMessage != "" {
		if _, err := fmt.Fprintf(w, "    <tr>\n      <td colspan=\"%d\">%s</td>\n    </tr>\n",
			max(len(r.columns), 1), html.EscapeString(r.opts.EmptyMessage)); err != nil {
			return err
		}
	}
	for i, rec := range r.records {
		rowAttrs := r.opts.OddRowAttributes
		if i%2 == 1 {
			rowAttrs = r.opts.EvenRowAttributes
		}
		if _, err := fmt.Fprintf(w, "    <tr%s>\n", attributes(rowAttrs)); err != nil {
			return err
		}
		for _, c := range r.columns {
			attrs := attributes(c.Attributes())
			if !strings.Contains(attrs, ` style="`) {
				attrs += alignStyle(r.aligns[c.Field()])
			}
			if _, err := fmt.Fprintf(w, "      <td%s>%s</td>\n", attrs, htmlCell(c, rec, i)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, "    </tr>"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "  </tbody>"); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, "</table>")
	return err
}

// headerCell returns the escaped label, linked when the column sorts.
// The link sorts ascending unless the column is the current primary sort
// in ascending order.
func (r *htmlRenderer) headerCell(c *Column) string {
	label := html.EscapeString(c.Label())
	if !r.opts.Sortable || !c.Sortable() {
		return label
	}
	dir := Ascending
	current, sorted := Direction(""), false
	if len(r.sort) > 0 && r.sort[0].Field == c.Field() {
		current, sorted = r.sort[0].Direction, true
		if current == Ascending {
			dir = Descending
		}
	}
	href := r.links(r.opts.BaseURL, r.opts.ExtraVars).href(0, NewSortSpec(c.Field(), dir))
	icon := ""
	if sorted {
		icon = r.opts.SortIconASC
		if current == Descending {
			icon = r.opts.SortIconDESC
		}
	}
	return fmt.Sprintf(`<a href="%s">%s</a>%s`, html.EscapeString(href), label, html.EscapeString(icon))
}

// htmlCell escapes field values and sanitizes formatter output.
func htmlCell(c *Column, rec Record, row int) string {
	v := c.Value(rec, row)
	if c.Formatter() != nil {
		return formatterPolicy.Sanitize(v)
	}
	return html.EscapeString(v)
}

// attributes renders name="value" pairs in name order.
func attributes(attrs map[string]string) string {
	var sb strings.Builder
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		fmt.Fprintf(&sb, ` %s="%s"`, html.EscapeString(k), html.EscapeString(attrs[k]))
	}
	return sb.String()
}

func alignStyle(a alignment) string {
	switch a {
	case alignRight:
		return ` style="text-align: right"`
	case alignCenter:
		return ` style="text-align: center"`
	default:
		return ""
	}
}
