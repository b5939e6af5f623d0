package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bjaus/datagrid"
	"github.com/bjaus/datagrid/internal/config"
)

// RenderOptions holds the flags of the render command.
type RenderOptions struct {
	Format  string
	Page    int
	PerPage int
	Sort    []string
	Output  string
	All     bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <grid.yaml>",
		Short: "Render one page of a grid",
		Long: `Render a page of the grid defined in a YAML file.

--sort takes field or field:desc and may be repeated. --all streams every
record instead of one page, for the csv, xml and jsonl formats.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "renderer kind (defaults to the grid definition)")
	cmd.Flags().IntVarP(&opts.Page, "page", "p", 0, "page to render")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", -1, "records per page, 0 for all")
	cmd.Flags().StringArrayVarP(&opts.Sort, "sort", "s", nil, "sort field, as field or field:desc")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.All, "all", false, "stream every record")

	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *RenderOptions, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := rootOpts.Logger()

	cfg, err := config.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "load grid definition", err)
	}
	var kind []datagrid.RendererKind
	if opts.Format != "" {
		k, err := datagrid.ParseRendererKind(opts.Format)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --format", err)
		}
		kind = append(kind, k)
	}
	spec, err := parseSortFlags(opts.Sort)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --sort", err)
	}

	g, err := cfg.Build(ctx, datagrid.WithLogger(log))
	if err != nil {
		return classify("build grid", err)
	}
	defer g.Close()

	if opts.PerPage >= 0 {
		g.SetRowsPerPage(opts.PerPage)
	}
	if opts.Page > 0 {
		g.SetCurrentPage(opts.Page)
	}
	if len(spec) > 0 {
		g.SortRecordSet(spec)
	}

	out := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "create output", err)
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)

	if opts.All {
		err = g.Stream(ctx, w, kind...)
	} else {
		err = g.Render(ctx, w, kind...)
	}
	if err != nil {
		return classify("render", err)
	}
	if err := w.Flush(); err != nil {
		return WrapExitError(ExitFailure, "write output", err)
	}
	log.WithField("page", g.PageState().Page).Debug("rendered")
	return nil
}

// parseSortFlags turns field[:direction] values into a sort.
func parseSortFlags(values []string) (datagrid.SortSpec, error) {
	var spec datagrid.SortSpec
	for _, v := range values {
		field, dir, found := strings.Cut(v, ":")
		field = strings.TrimSpace(field)
		if field == "" {
			return nil, fmt.Errorf("%w: empty sort field in %q", datagrid.ErrValidation, v)
		}
		d := datagrid.Ascending
		if found {
			parsed, err := datagrid.ParseDirection(dir)
			if err != nil {
				return nil, err
			}
			d = parsed
		}
		spec = spec.With(field, d)
	}
	return spec, nil
}
