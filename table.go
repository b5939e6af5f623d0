package datagrid

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

type borderStyle int

const (
	borderRounded borderStyle = iota // ╭─╮╰╯│┬┴├┤┼
	borderNone                       // space-separated columns
	borderASCII                      // +-+|
	borderHeavy                      // ┏━┓┗┛┃┳┻┣┫╋
	borderDouble                     // ╔═╗╚╝║╦╩╠╣╬
)

var borderNames = map[string]borderStyle{
	"rounded": borderRounded,
	"none":    borderNone,
	"ascii":   borderASCII,
	"heavy":   borderHeavy,
	"double":  borderDouble,
}

type alignment int

const (
	alignLeft alignment = iota
	alignCenter
	alignRight
)

// parseAlignments decodes an "align" option mapping fields to left,
// center or right.
func parseAlignments(driver string, in map[string]string) (map[string]alignment, error) {
	out := make(map[string]alignment, len(in))
	for field, name := range in {
		switch strings.ToLower(name) {
		case "left", "":
			out[field] = alignLeft
		case "center":
			out[field] = alignCenter
		case "right":
			out[field] = alignRight
		default:
			return nil, fmt.Errorf("%w: %s option \"align\": unknown alignment %q for %q", ErrValidation, driver, name, field)
		}
	}
	return out, nil
}

// border holds the box drawing characters of one style, corners and tees
// named by position.
type border struct {
	h, v      string
	tl, tr    string
	bl, br    string
	tt, bt    string
	lt, rt, x string
}

var borders = map[borderStyle]border{
	borderRounded: {h: "─", v: "│", tl: "╭", tr: "╮", bl: "╰", br: "╯", tt: "┬", bt: "┴", lt: "├", rt: "┤", x: "┼"},
	borderASCII:   {h: "-", v: "|", tl: "+", tr: "+", bl: "+", br: "+", tt: "+", bt: "+", lt: "+", rt: "+", x: "+"},
	borderHeavy:   {h: "━", v: "┃", tl: "┏", tr: "┓", bl: "┗", br: "┛", tt: "┳", bt: "┻", lt: "┣", rt: "┫", x: "╋"},
	borderDouble:  {h: "═", v: "║", tl: "╔", tr: "╗", bl: "╚", br: "╝", tt: "╦", bt: "╩", lt: "╠", rt: "╣", x: "╬"},
}

type tableOptions struct {
	Title        string            `yaml:"title"`
	Border       string            `yaml:"border"`
	Numbered     bool              `yaml:"numbered"`
	NumberHeader string            `yaml:"number_header"`
	Align        map[string]string `yaml:"align"`
	MaxWidths    map[string]int    `yaml:"max_widths"`
	WrapWidths   map[string]int    `yaml:"wrap_widths"`
	RepeatHeader int               `yaml:"repeat_header"`
	GroupBy      string            `yaml:"group_by"`
	Caption      bool              `yaml:"caption"`
}

// tableRenderer draws a bordered text table with a record range caption.
type tableRenderer struct {
	rendererBase
	opts   tableOptions
	style  borderStyle
	aligns map[string]alignment
}

func newTableRenderer() *tableRenderer {
	return &tableRenderer{
		rendererBase: rendererBase{name: string(TableRenderer)},
		opts:         tableOptions{Border: "rounded", NumberHeader: "#", Caption: true},
	}
}

func (r *tableRenderer) SetOptions(opts Options) error {
	o := r.opts
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	style, ok := borderNames[strings.ToLower(o.Border)]
	if !ok {
		return fmt.Errorf("%w: %s option \"border\": unknown style %q", ErrValidation, r.name, o.Border)
	}
	aligns, err := parseAlignments(r.name, o.Align)
	if err != nil {
		return err
	}
	r.opts, r.style, r.aligns = o, style, aligns
	r.built = false
	return nil
}

func (r *tableRenderer) Build() error { return r.build(r.write) }

func (r *tableRenderer) Render(w io.Writer) error {
	if err := r.Build(); err != nil {
		return err
	}
	_, err := w.Write(r.out)
	return err
}

func (r *tableRenderer) Flatten() (any, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return string(r.out), nil
}

func (r *tableRenderer) write(w io.Writer) error {
	header, rows := r.labels(), r.rows()
	l := &textLayout{w: w}

	var groups []string
	if r.opts.GroupBy != "" {
		groups = make([]string, len(r.records))
		for i, rec := range r.records {
			groups[i] = rec.String(r.opts.GroupBy)
		}
	}

	// Row numbers continue across pages.
	if r.opts.Numbered {
		header = append([]string{r.opts.NumberHeader}, header...)
		first := max(r.page.FirstRecord(), 1)
		for i, row := range rows {
			rows[i] = append([]string{fmt.Sprint(first + i)}, row...)
		}
		l.aligns = append(l.aligns, alignRight)
		l.wrap = append(l.wrap, 0)
	}
	for _, c := range r.columns {
		l.aligns = append(l.aligns, r.aligns[c.Field()])
		l.wrap = append(l.wrap, r.opts.WrapWidths[c.Field()])
	}

	l.widths = cellWidths(header, rows)
	offset := len(header) - len(r.columns)
	for i, c := range r.columns {
		if limit := r.opts.MaxWidths[c.Field()]; limit > 0 {
			l.widths[i+offset] = min(l.widths[i+offset], limit)
		}
	}

	if r.style == borderNone {
		l.sep, l.trim = "  ", true
		l.body(header, rows, groups, r.opts.RepeatHeader, func() { l.rule("", "-", "  ", "", 0) })
	} else {
		b := borders[r.style]
		l.left, l.sep, l.right = b.v+" ", " "+b.v+" ", " "+b.v
		if r.opts.Title != "" {
			l.rule(b.tl, b.h, b.h, b.tr, 2)
			l.print(b.v + " " + alignCell(r.opts.Title, l.innerWidth()-2, alignCenter) + " " + b.v)
			l.rule(b.lt, b.h, b.tt, b.rt, 2)
		} else {
			l.rule(b.tl, b.h, b.tt, b.tr, 2)
		}
		l.body(header, rows, groups, r.opts.RepeatHeader, func() { l.rule(b.lt, b.h, b.x, b.rt, 2) })
		l.rule(b.bl, b.h, b.bt, b.br, 2)
	}

	if r.opts.Caption {
		l.print(recordRange(r.page))
	}
	return l.err
}

// textLayout writes rows of fixed-width cells framed by left, sep and
// right. Writing stops at the first error, kept in err.
type textLayout struct {
	w      io.Writer
	widths []int
	aligns []alignment
	wrap   []int

	left, sep, right string
	trim             bool

	err error
}

func (l *textLayout) print(s string) {
	if l.err == nil {
		_, l.err = fmt.Fprintln(l.w, s)
	}
}

// body writes the header, then the rows. divider runs under the header,
// between groups and around repeated headers.
func (l *textLayout) body(header []string, rows [][]string, groups []string, repeat int, divider func()) {
	if len(header) > 0 {
		l.row(header)
		divider()
	}
	for i, row := range rows {
		if i > 0 && len(groups) > 0 && groups[i] != groups[i-1] {
			divider()
		}
		if i > 0 && repeat > 0 && len(header) > 0 && i%repeat == 0 {
			divider()
			l.row(header)
			divider()
		}
		l.row(row)
	}
}

func (l *textLayout) row(cells []string) {
	for _, line := range l.lines(cells) {
		for i, width := range l.widths {
			line[i] = formatTableCell(line[i], width, l.aligns[i])
		}
		s := l.left + strings.Join(line, l.sep) + l.right
		if l.trim {
			s = strings.TrimRight(s, " ")
		}
		l.print(s)
	}
}

// lines splits one row into the physical lines its wrapped cells need.
func (l *textLayout) lines(cells []string) [][]string {
	cols := make([][]string, len(l.widths))
	height := 1
	for i, width := range l.widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		cols[i] = []string{cell}
		if i < len(l.wrap) && l.wrap[i] > 0 && l.wrap[i] < width {
			cols[i] = wrapCell(cell, l.wrap[i])
		}
		height = max(height, len(cols[i]))
	}
	out := make([][]string, height)
	for n := range out {
		out[n] = make([]string, len(cols))
		for i, col := range cols {
			if n < len(col) {
				out[n][i] = col[n]
			}
		}
	}
	return out
}

// rule draws a horizontal line, each column widened by pad.
func (l *textLayout) rule(left, fill, mid, right string, pad int) {
	parts := make([]string, len(l.widths))
	for i, width := range l.widths {
		parts[i] = strings.Repeat(fill, width+pad)
	}
	l.print(left + strings.Join(parts, mid) + right)
}

// innerWidth is the width between the outer borders of a bordered table.
func (l *textLayout) innerWidth() int {
	n := max(len(l.widths)-1, 0)
	for _, width := range l.widths {
		n += width + 2
	}
	return n
}

func cellWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}
	return widths
}

// wrapCell breaks s into lines no wider than width. A rune wider than
// width gets a line of its own.
func wrapCell(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}
	var lines []string
	var line strings.Builder
	used := 0
	for _, c := range s {
		cw := runewidth.RuneWidth(c)
		if used > 0 && used+cw > width {
			lines = append(lines, line.String())
			line.Reset()
			used = 0
		}
		line.WriteRune(c)
		used += cw
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func formatTableCell(s string, width int, align alignment) string {
	if width > 0 && runewidth.StringWidth(s) > width {
		tail := "..."
		if width <= 3 {
			tail = ""
		}
		s = runewidth.Truncate(s, width, tail)
	}
	return alignCell(s, width, align)
}

func alignCell(s string, width int, align alignment) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	switch align {
	case alignRight:
		return strings.Repeat(" ", pad) + s
	case alignCenter:
		left := pad / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
	default:
		return s + strings.Repeat(" ", pad)
	}
}
