package datagrid

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

type consoleOptions struct {
	Caption  bool `yaml:"caption"`
	Border   bool `yaml:"border"`
	RowLine  bool `yaml:"row_line"`
	AutoWrap bool `yaml:"auto_wrap"`
}

// consoleRenderer renders through tablewriter. With a container it fills
// the caller's table and leaves rendering to the caller.
type consoleRenderer struct {
	rendererBase
	opts      consoleOptions
	container *tablewriter.Table
}

func newConsoleRenderer() *consoleRenderer {
	return &consoleRenderer{
		rendererBase: rendererBase{name: string(ConsoleRenderer)},
		opts:         consoleOptions{Caption: true, Border: true},
	}
}

func (r *consoleRenderer) SetOptions(opts Options) error {
	o := r.opts
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	r.opts = o
	r.built = false
	return nil
}

// SetContainer takes a *tablewriter.Table to fill on Build. Nil removes
// it.
func (r *consoleRenderer) SetContainer(container any) error {
	switch t := container.(type) {
	case nil:
		r.container = nil
	case *tablewriter.Table:
		r.container = t
	default:
		return fmt.Errorf("%w: %s container must be a *tablewriter.Table, got %T", ErrBinding, r.name, container)
	}
	r.built = false
	return nil
}

func (r *consoleRenderer) Build() error {
	if r.container != nil {
		if r.built {
			return nil
		}
		r.container.ClearRows()
		r.fill(r.container)
		r.out = nil
		r.built = true
		return nil
	}
	return r.build(func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		r.fill(table)
		table.Render()
		return nil
	})
}

func (r *consoleRenderer) fill(table *tablewriter.Table) {
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(r.opts.AutoWrap)
	table.SetBorder(r.opts.Border)
	table.SetRowLine(r.opts.RowLine)
	table.SetHeader(r.labels())
	for _, row := range r.rows() {
		table.Append(row)
	}
	if r.opts.Caption {
		table.SetCaption(true, recordRange(r.page))
	}
}

func (r *consoleRenderer) Render(w io.Writer) error {
	if r.container != nil {
		return unsupported("Render", r.name, "render the filled container, or use Render without Fill")
	}
	if err := r.Build(); err != nil {
		return err
	}
	_, err := w.Write(r.out)
	return err
}

func (r *consoleRenderer) Flatten() (any, error) {
	if r.container != nil {
		return r.container, r.Build()
	}
	if err := r.Build(); err != nil {
		return nil, err
	}
	return string(r.out), nil
}
