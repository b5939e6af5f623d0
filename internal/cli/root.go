// Package cli implements the datagrid command.
package cli

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool

	log *logrus.Logger
}

// Logger returns the logger configured by the root command.
func (o *RootOptions) Logger() *logrus.Logger {
	if o.log == nil {
		o.log = newLogger(io.Discard, false)
	}
	return o.log
}

// NewRootCommand creates the root command for the datagrid CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "datagrid",
		Short: "Page, sort and render tabular data",
		Long: `Render a grid defined in a YAML file to HTML, CSV, XML, JSON, YAML,
Markdown, text tables or spreadsheets, or serve it over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = newLogger(cmd.ErrOrStderr(), opts.Verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))

	return cmd
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
