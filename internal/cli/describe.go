package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bjaus/datagrid"
	"github.com/bjaus/datagrid/internal/config"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe <grid.yaml>",
		Short: "Show the datasource and columns of a grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "load grid definition", err)
			}
			kind, err := datagrid.ParseRendererKind(format)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --format", err)
			}

			g, err := cfg.Build(ctx, datagrid.WithLogger(rootOpts.Logger()))
			if err != nil {
				return classify("build grid", err)
			}
			defer g.Close()
			if _, err := g.RecordSet(ctx); err != nil {
				return classify("fetch records", err)
			}

			st := g.PageState()
			fmt.Fprintf(cmd.OutOrStdout(), "source: %s (%d records, %d pages)\n", sourceKind(cfg), st.Total, st.PageCount())

			// The column list is itself rendered as a grid.
			rows := make([]map[string]any, 0, len(g.Columns()))
			for _, c := range g.Columns() {
				rows = append(rows, map[string]any{
					"field":    c.Field(),
					"label":    c.Label(),
					"order_by": c.OrderBy(),
					"sortable": c.Sortable(),
				})
			}
			desc := datagrid.New(datagrid.WithLogger(rootOpts.Logger()))
			opts := datagrid.Options{"fields": []string{"field", "label", "order_by", "sortable"}}
			if err := desc.Bind(ctx, rows, opts, datagrid.ArraySource); err != nil {
				return classify("describe columns", err)
			}
			if kind == datagrid.TableRenderer {
				if err := desc.SetRendererOptions(kind, datagrid.Options{"caption": false}); err != nil {
					return classify("describe columns", err)
				}
			}
			if err := desc.Render(ctx, cmd.OutOrStdout(), kind); err != nil {
				return classify("describe columns", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(datagrid.TableRenderer), "renderer kind for the column list")

	return cmd
}

func sourceKind(cfg *config.Grid) string {
	if cfg.Source.Kind != "" {
		return cfg.Source.Kind
	}
	kind, err := datagrid.DetectSourceKind(cfg.Source.Path)
	if err != nil {
		return "unknown"
	}
	return kind.String()
}
