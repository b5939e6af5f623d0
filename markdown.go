package datagrid

import (
	"io"
	"strings"
)

type markdownOptions struct {
	Align map[string]string `yaml:"align"`
}

// markdownRenderer renders a GitHub-flavored Markdown table.
type markdownRenderer struct {
	rendererBase
	aligns map[string]alignment
}

func newMarkdownRenderer() *markdownRenderer {
	return &markdownRenderer{rendererBase: rendererBase{name: string(MarkdownRenderer)}}
}

func (r *markdownRenderer) SetOptions(opts Options) error {
	o := markdownOptions{}
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	aligns, err := parseAlignments(r.name, o.Align)
	if err != nil {
		return err
	}
	r.aligns = aligns
	r.built = false
	return nil
}

func (r *markdownRenderer) Build() error { return r.build(r.write) }

func (r *markdownRenderer) Render(w io.Writer) error {
	if err := r.Build(); err != nil {
		return err
	}
	_, err := w.Write(r.out)
	return err
}

func (r *markdownRenderer) Flatten() (any, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return string(r.out), nil
}

func (r *markdownRenderer) write(w io.Writer) error {
	if len(r.columns) == 0 {
		return nil
	}
	header, rows := r.labels(), r.rows()
	for _, row := range rows {
		for i, cell := range row {
			row[i] = markdownEscape(cell)
		}
	}

	l := &textLayout{w: w, left: "| ", sep: " | ", right: " |"}
	l.widths = cellWidths(header, rows)
	for i, c := range r.columns {
		// Alignment markers need three dashes.
		l.widths[i] = max(l.widths[i], 3)
		l.aligns = append(l.aligns, r.aligns[c.Field()])
	}

	l.row(header)
	marks := make([]string, len(l.widths))
	for i, width := range l.widths {
		switch l.aligns[i] {
		case alignRight:
			marks[i] = strings.Repeat("-", width-1) + ":"
		case alignCenter:
			marks[i] = ":" + strings.Repeat("-", width-2) + ":"
		default:
			marks[i] = strings.Repeat("-", width)
		}
	}
	l.print(l.left + strings.Join(marks, l.sep) + l.right)
	for _, row := range rows {
		l.row(row)
	}
	return l.err
}

// markdownEscape keeps cell text from breaking the table layout.
func markdownEscape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
