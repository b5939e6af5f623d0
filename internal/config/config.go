// Package config loads grid definitions from YAML files.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bjaus/datagrid"
)

// Grid is a grid definition: where the records come from, which columns
// to show and how to render them.
type Grid struct {
	Source      Source      `yaml:"source"`
	Columns     []Column    `yaml:"columns"`
	RowsPerPage int         `yaml:"rows_per_page"`
	DefaultSort []SortField `yaml:"default_sort"`
	Renderer    Renderer    `yaml:"renderer"`
	// Prefix is prepended to the page, orderBy and direction parameters.
	Prefix string `yaml:"prefix"`
}

// Source selects the datasource. Kind is detected from Path when empty.
// The sql kind reads Query and takes its connection from the "driver"
// and "dsn" options.
type Source struct {
	Kind    string           `yaml:"kind"`
	Path    string           `yaml:"path"`
	Query   string           `yaml:"query"`
	Options datagrid.Options `yaml:"options"`
}

// Column declares one grid column.
type Column struct {
	Label      string            `yaml:"label"`
	Field      string            `yaml:"field"`
	OrderBy    string            `yaml:"order_by"`
	AutoFill   string            `yaml:"auto_fill"`
	Sortable   *bool             `yaml:"sortable"`
	Attributes map[string]string `yaml:"attributes"`
}

// SortField is one entry of the default sort.
type SortField struct {
	Field     string `yaml:"field"`
	Direction string `yaml:"direction"`
}

// Renderer selects the renderer used when none is requested.
type Renderer struct {
	Kind    string           `yaml:"kind"`
	Options datagrid.Options `yaml:"options"`
}

// Load reads and validates the definition at path. A relative source path
// is resolved against the directory of the file.
func Load(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if g.Source.Path != "" && !filepath.IsAbs(g.Source.Path) {
		g.Source.Path = filepath.Join(filepath.Dir(path), g.Source.Path)
	}
	return g, nil
}

// Parse decodes and validates a definition. Unknown keys are an error.
func Parse(data []byte) (*Grid, error) {
	var g Grid
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", datagrid.ErrValidation, err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate reports every problem with the definition.
func (g *Grid) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{datagrid.ErrValidation}, args...)...))
	}

	if g.Source.Kind != "" {
		if _, err := datagrid.ParseSourceKind(g.Source.Kind); err != nil {
			errs = append(errs, err)
		}
	}
	if g.Source.Kind == string(datagrid.SQLSource) {
		if g.Source.Query == "" {
			invalid("source: sql needs a query")
		}
	} else if g.Source.Path == "" {
		invalid("source: path is required")
	}

	for i, c := range g.Columns {
		if c.Label == "" && c.Field == "" {
			invalid("columns[%d]: label or field is required", i)
		}
	}
	if g.RowsPerPage < 0 {
		invalid("rows_per_page must not be negative, got %d", g.RowsPerPage)
	}
	for i, f := range g.DefaultSort {
		if f.Field == "" {
			invalid("default_sort[%d]: field is required", i)
		}
		if f.Direction != "" {
			if _, err := datagrid.ParseDirection(f.Direction); err != nil {
				errs = append(errs, fmt.Errorf("default_sort[%d]: %w", i, err))
			}
		}
	}
	if g.Renderer.Kind != "" {
		if _, err := datagrid.ParseRendererKind(g.Renderer.Kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sort returns the default sort. Fields without a direction sort
// ascending.
func (g *Grid) Sort() datagrid.SortSpec {
	var spec datagrid.SortSpec
	for _, f := range g.DefaultSort {
		dir := datagrid.Ascending
		if d, err := datagrid.ParseDirection(f.Direction); err == nil {
			dir = d
		}
		spec = spec.With(f.Field, dir)
	}
	return spec
}

// RendererKind returns the configured renderer kind, html by default.
func (g *Grid) RendererKind() datagrid.RendererKind {
	if g.Renderer.Kind == "" {
		return datagrid.HTMLRenderer
	}
	return datagrid.RendererKind(g.Renderer.Kind)
}

// NewColumn converts the declaration into a grid column.
func (c Column) NewColumn() *datagrid.Column {
	var opts []datagrid.ColumnOption
	if c.OrderBy != "" {
		opts = append(opts, datagrid.WithOrderBy(c.OrderBy))
	}
	if c.AutoFill != "" {
		opts = append(opts, datagrid.WithAutoFill(c.AutoFill))
	}
	if len(c.Attributes) > 0 {
		opts = append(opts, datagrid.WithAttributes(c.Attributes))
	}
	if c.Sortable != nil && !*c.Sortable {
		opts = append(opts, datagrid.Unsortable())
	}
	label := c.Label
	if label == "" {
		label = c.Field
	}
	return datagrid.NewColumn(label, c.Field, opts...)
}

// Build creates the grid, attaches the configured renderer and binds the
// source. opts are applied after the configured ones, so a request set
// through them is read on bind.
func (g *Grid) Build(ctx context.Context, opts ...datagrid.Option) (*datagrid.Grid, error) {
	base := []datagrid.Option{
		datagrid.WithRowsPerPage(g.RowsPerPage),
		datagrid.WithRequestPrefix(g.Prefix),
		datagrid.WithDefaultSort(g.Sort()),
	}
	grid := datagrid.New(append(base, opts...)...)
	for _, c := range g.Columns {
		grid.AddColumn(c.NewColumn())
	}
	if err := grid.SetRenderer(g.RendererKind(), g.Renderer.Options); err != nil {
		return nil, err
	}

	var kind []datagrid.SourceKind
	if g.Source.Kind != "" {
		kind = append(kind, datagrid.SourceKind(g.Source.Kind))
	}
	var source any = g.Source.Path
	if g.Source.Kind == string(datagrid.SQLSource) {
		source = datagrid.SQLQuery{Query: g.Source.Query}
	}
	if err := grid.Bind(ctx, source, g.Source.Options, kind...); err != nil {
		return nil, err
	}
	return grid, nil
}
