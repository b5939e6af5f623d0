package datagrid

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"
)

// Grid coordinates a datasource and a renderer. It owns the columns, the
// paging state and the sort, fetches the current page when the state
// changes and hands it to the renderer.
//
// A Grid is not safe for concurrent use.
type Grid struct {
	log logrus.FieldLogger

	source     DataSource
	sourceKind string
	owned      bool

	columns  []*Column
	reported map[*Column]bool
	auto     []*Column

	active     *active
	rendererOp map[RendererKind]Options

	request Request
	prefix  string

	page        int
	perPage     int
	total       int
	sort        SortSpec
	defaultSort SortSpec

	records []Record
	fresh   bool
	version int
}

// active is the renderer in use. synced is the grid version last pushed
// to it.
type active struct {
	r      Renderer
	kind   RendererKind
	caps   RendererCaps
	synced int
}

// Option configures a [Grid].
type Option func(*Grid)

// WithRowsPerPage sets the page size. Zero shows every record.
func WithRowsPerPage(n int) Option {
	return func(g *Grid) { g.perPage = max(n, 0) }
}

// WithRequestPrefix sets the prefix of the page, orderBy and direction
// parameters, so several grids can share one request.
func WithRequestPrefix(prefix string) Option {
	return func(g *Grid) { g.prefix = prefix }
}

// WithRequest sets the request the paging and sorting state is read
// from on Bind.
func WithRequest(r Request) Option {
	return func(g *Grid) { g.request = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Grid) { g.log = l }
}

// WithDefaultSort sets the sort used when no explicit sort is requested.
func WithDefaultSort(spec SortSpec) Option {
	return func(g *Grid) { g.defaultSort = spec.Clone() }
}

// New returns a grid showing page 1 with no page size limit.
func New(opts ...Option) *Grid {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	g := &Grid{
		log:        discard,
		reported:   map[*Column]bool{},
		rendererOp: map[RendererKind]Options{},
		page:       1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Bind creates a datasource for source and binds it. The kind is
// detected from the source value unless given.
func (g *Grid) Bind(ctx context.Context, source any, opts Options, kind ...SourceKind) error {
	var k SourceKind
	if len(kind) > 0 {
		k = kind[0]
	} else {
		detected, err := DetectSourceKind(source)
		if err != nil {
			return err
		}
		k = detected
	}
	ds, err := NewDataSource(k)
	if err != nil {
		return err
	}
	return g.bindOwned(ctx, ds, source, opts, k)
}

// bindOwned binds ds and attaches it. A datasource that fails to bind or
// fetch is closed and dropped.
func (g *Grid) bindOwned(ctx context.Context, ds DataSource, source any, opts Options, kind SourceKind) error {
	if err := ds.Bind(ctx, source, opts); err != nil {
		_ = ds.Close()
		return err
	}
	if err := g.attachSource(ctx, ds, string(kind), true); err != nil {
		_ = ds.Close()
		if g.source == ds {
			g.source, g.owned = nil, false
		}
		return err
	}
	return nil
}

// BindDataSource binds an already bound datasource. The grid does not
// close it.
func (g *Grid) BindDataSource(ctx context.Context, ds DataSource) error {
	if ds == nil {
		return fmt.Errorf("%w: nil datasource", ErrBinding)
	}
	return g.attachSource(ctx, ds, fmt.Sprintf("%T", ds), false)
}

func (g *Grid) attachSource(ctx context.Context, ds DataSource, kind string, owned bool) error {
	if err := g.closeSource(); err != nil {
		return err
	}
	g.source, g.sourceKind, g.owned = ds, kind, owned
	g.auto = nil
	g.mergeReported()
	g.applyRequest()
	g.invalidate()

	g.log.WithFields(logrus.Fields{
		"driver": kind,
		"caps":   ds.Capabilities(),
		"page":   g.page,
		"sort":   g.effectiveSort().String(),
	}).Debug("datasource bound")

	if err := g.fetch(ctx); err != nil {
		return err
	}
	if g.active != nil {
		g.sync()
	}
	return nil
}

// mergeReported replaces the columns reported by the previous datasource
// with those of the current one. Fields that already have a column are
// skipped.
func (g *Grid) mergeReported() {
	g.columns = slices.DeleteFunc(g.columns, func(c *Column) bool { return g.reported[c] })
	clear(g.reported)
	cr, ok := g.source.(ColumnReporter)
	if !ok {
		return
	}
	for _, c := range cr.Columns() {
		if g.Column(c.Field()) != nil {
			continue
		}
		g.columns = append(g.columns, c)
		g.reported[c] = true
	}
}

// applyRequest reads page and sort from the request. Sort fields that
// match no sortable column or source field are dropped.
func (g *Grid) applyRequest() {
	st := ParseRequest(g.request, g.prefix)
	if st.HasPage {
		g.page = st.Page
	}
	if !st.HasSort {
		return
	}
	var spec SortSpec
	for _, f := range st.Sort {
		if !g.sortable(f.Field) {
			g.log.WithField("field", f.Field).Warn("ignoring sort on unknown or unsortable field")
			continue
		}
		spec = append(spec, f)
	}
	if len(spec) > 0 {
		g.sort = spec
	}
}

func (g *Grid) sortable(field string) bool {
	if c := g.Column(field); c != nil {
		return c.Sortable()
	}
	if len(g.columns) > 0 {
		return false
	}
	fields := g.source.Fields()
	return len(fields) == 0 || slices.Contains(fields, field)
}

// SetRequest replaces the request and applies its paging and sorting
// state.
func (g *Grid) SetRequest(r Request) {
	g.request = r
	if g.source != nil {
		g.applyRequest()
		g.invalidate()
	}
}

// Close closes the datasource when the grid created it.
func (g *Grid) Close() error {
	return g.closeSource()
}

func (g *Grid) closeSource() error {
	if g.source == nil || !g.owned {
		return nil
	}
	err := g.source.Close()
	g.source, g.owned = nil, false
	return err
}

// AttachRenderer makes r the active renderer. caps declares which
// optional interfaces the grid may use.
func (g *Grid) AttachRenderer(r Renderer, caps RendererCaps) {
	g.active = &active{r: r, caps: caps, synced: -1}
	if g.source != nil {
		g.sync()
	}
}

// SetRenderer creates a renderer of kind with opts merged over the
// options stored for kind, and makes it the active renderer.
func (g *Grid) SetRenderer(kind RendererKind, opts Options) error {
	saved, had := g.rendererOp[kind]
	if opts != nil {
		g.rendererOp[kind] = saved.Merge(opts)
	}
	a, err := g.newActive(kind)
	if err != nil {
		if had {
			g.rendererOp[kind] = saved
		} else {
			delete(g.rendererOp, kind)
		}
		return err
	}
	g.active = a
	if g.source != nil {
		g.sync()
	}
	return nil
}

// SetRendererOptions stores options for kind. They apply to the active
// renderer when it is of that kind and to every later renderer of that
// kind.
func (g *Grid) SetRendererOptions(kind RendererKind, opts Options) error {
	merged := g.rendererOp[kind].Merge(opts)
	if g.active != nil && g.active.kind == kind {
		if err := g.active.r.SetOptions(merged); err != nil {
			return err
		}
	}
	g.rendererOp[kind] = merged
	return nil
}

func (g *Grid) newActive(kind RendererKind) (*active, error) {
	r, err := NewRenderer(kind)
	if err != nil {
		return nil, err
	}
	caps, _ := Capabilities(kind)
	if opts := g.rendererOp[kind]; len(opts) > 0 {
		if err := r.SetOptions(opts); err != nil {
			return nil, err
		}
	}
	return &active{r: r, kind: kind, caps: caps, synced: -1}, nil
}

// Renderer returns the active renderer, or nil.
func (g *Grid) Renderer() Renderer {
	if g.active == nil {
		return nil
	}
	return g.active.r
}

// use makes the renderer of kind active for one call. The returned func
// restores the previous renderer. With no kind the active renderer is
// used, and an HTML renderer is attached when there is none.
func (g *Grid) use(kind ...RendererKind) (func(), error) {
	noop := func() {}
	if len(kind) == 0 || (g.active != nil && g.active.kind == kind[0] && kind[0] != "") {
		if g.active == nil {
			if err := g.SetRenderer(HTMLRenderer, nil); err != nil {
				return noop, err
			}
		}
		return noop, nil
	}
	a, err := g.newActive(kind[0])
	if err != nil {
		return noop, err
	}
	saved := g.active
	g.active = a
	g.log.WithFields(logrus.Fields{"renderer": kind[0]}).Debug("renderer swapped in")
	return func() { g.active = saved }, nil
}

// AddColumn inserts col at pos. A position relative to a missing field
// appends.
func (g *Grid) AddColumn(col *Column, pos ...Position) {
	p := Last
	if len(pos) > 0 {
		p = pos[0]
	}
	i := len(g.columns)
	switch p.where {
	case posFirst:
		i = 0
	case posBefore, posAfter:
		if j := g.columnIndex(p.relative); j >= 0 {
			i = j
			if p.where == posAfter {
				i++
			}
		}
	}
	g.columns = slices.Insert(g.columns, i, col)
	g.touch()
}

// RemoveColumn removes the columns showing field.
func (g *Grid) RemoveColumn(field string) {
	g.columns = slices.DeleteFunc(g.columns, func(c *Column) bool { return c.Field() == field })
	g.auto = slices.DeleteFunc(g.auto, func(c *Column) bool { return c.Field() == field })
	g.touch()
}

// Column returns the column showing field, or nil.
func (g *Grid) Column(field string) *Column {
	for _, c := range g.Columns() {
		if c.Field() == field {
			return c
		}
	}
	return nil
}

func (g *Grid) columnIndex(field string) int {
	return slices.IndexFunc(g.columns, func(c *Column) bool { return c.Field() == field })
}

// Columns returns the columns in display order: the declared and
// reported columns, or the generated ones when there are none.
func (g *Grid) Columns() []*Column {
	if len(g.columns) > 0 {
		return slices.Clone(g.columns)
	}
	return slices.Clone(g.auto)
}

// SetCurrentPage selects the page to show. Out of range pages are
// clamped on the next fetch.
func (g *Grid) SetCurrentPage(page int) {
	g.page = page
	g.invalidate()
}

// SetRowsPerPage sets the page size. Zero shows every record.
func (g *Grid) SetRowsPerPage(n int) {
	g.perPage = max(n, 0)
	g.invalidate()
}

// SortRecordSet sets the explicit sort. A nil spec falls back to the
// default sort.
func (g *Grid) SortRecordSet(spec SortSpec) {
	g.sort = spec.Clone()
	g.invalidate()
}

// SetDefaultSort sets the sort used when no explicit sort is set.
func (g *Grid) SetDefaultSort(spec SortSpec) {
	g.defaultSort = spec.Clone()
	g.invalidate()
}

// CurrentSort returns the sort in effect: the explicit sort, else the
// default sort.
func (g *Grid) CurrentSort() SortSpec {
	return g.effectiveSort().Clone()
}

func (g *Grid) effectiveSort() SortSpec {
	if len(g.sort) > 0 {
		return g.sort
	}
	return g.defaultSort
}

// PageState returns the paging state of the last fetch.
func (g *Grid) PageState() PageState {
	return PageState{Page: g.page, PerPage: g.perPage, Total: g.total}
}

// RecordSet returns the records of the current page, fetching them when
// the state changed.
func (g *Grid) RecordSet(ctx context.Context) ([]Record, error) {
	if err := g.fetch(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(g.records), nil
}

// invalidate marks the record set stale.
func (g *Grid) invalidate() {
	g.fresh = false
	g.touch()
}

// touch marks the renderer output stale.
func (g *Grid) touch() {
	g.version++
	if g.active != nil {
		g.active.r.Reset()
	}
}

// driverSort maps fields to column orderBy expressions and keeps only
// the first field for drivers without multi-field sorting.
func (g *Grid) driverSort(spec SortSpec) SortSpec {
	out := make(SortSpec, 0, len(spec))
	for _, f := range spec {
		if c := g.Column(f.Field); c != nil && c.OrderBy() != "" {
			f.Field = c.OrderBy()
		}
		out = append(out, f)
	}
	if !g.source.Capabilities().Has(SourceMultiSort) {
		out = out.First()
	}
	return out
}

// fetch loads the current page unless the record set is fresh. A failed
// fetch leaves no records.
func (g *Grid) fetch(ctx context.Context) error {
	if g.source == nil {
		return fmt.Errorf("%w: no datasource bound", ErrBinding)
	}
	if g.fresh {
		return nil
	}
	g.records = nil
	if err := g.source.Sort(g.driverSort(g.effectiveSort())); err != nil {
		return err
	}
	total, err := g.source.Count(ctx)
	if err != nil {
		return err
	}
	st := PageState{Page: g.page, PerPage: g.perPage, Total: total}.Clamp()
	records, err := g.source.Fetch(ctx, st.Offset(), st.PerPage)
	if err != nil {
		return err
	}
	g.page, g.total, g.records = st.Page, total, records

	if len(g.columns) == 0 && len(g.auto) == 0 {
		fields := g.source.Fields()
		if len(fields) == 0 && len(records) > 0 {
			fields = records[0].Keys()
		}
		g.auto = defaultColumns(fields)
	}
	g.fresh = true
	g.version++

	g.log.WithFields(logrus.Fields{
		"driver":  g.sourceKind,
		"page":    st.Page,
		"perPage": st.PerPage,
		"total":   total,
		"records": len(records),
	}).Debug("fetched records")
	return nil
}

// sync pushes the grid state to the active renderer when it changed.
func (g *Grid) sync() {
	a := g.active
	if a.synced == g.version {
		return
	}
	a.r.SetData(g.Columns(), g.records)
	a.r.SetLimit(g.PageState())
	a.r.SetCurrentSorting(g.effectiveSort())
	a.r.SetQuery(g.prefix, g.request.Get)
	a.synced = g.version
}

// Build fetches the current page if needed and builds the active
// renderer. Calling it again without a state change does nothing.
func (g *Grid) Build(ctx context.Context) error {
	if _, err := g.use(); err != nil {
		return err
	}
	return g.build(ctx)
}

func (g *Grid) build(ctx context.Context) error {
	if err := g.fetch(ctx); err != nil {
		return err
	}
	g.sync()
	return g.active.r.Build()
}

// Render builds and writes the output of the renderer of kind, or of the
// active renderer. A different kind is used for this call only.
func (g *Grid) Render(ctx context.Context, w io.Writer, kind ...RendererKind) error {
	restore, err := g.use(kind...)
	if err != nil {
		return err
	}
	defer restore()
	if err := g.build(ctx); err != nil {
		return err
	}
	return g.active.r.Render(w)
}

// Output builds and returns the deferred output of the renderer: a
// string for text formats, [TemplateData] for templates.
func (g *Grid) Output(ctx context.Context, kind ...RendererKind) (any, error) {
	restore, err := g.use(kind...)
	if err != nil {
		return nil, err
	}
	defer restore()
	a := g.active
	f, ok := a.r.(Flattener)
	if !a.caps.Has(CanFlatten) || !ok {
		return nil, unsupported("Output", g.rendererName(), "use Render to write the output")
	}
	if err := g.build(ctx); err != nil {
		return nil, err
	}
	return f.Flatten()
}

// Fill builds the renderer into a native container supplied by the
// caller, such as a *tablewriter.Table or an *excelize.File.
func (g *Grid) Fill(ctx context.Context, container any, kind ...RendererKind) error {
	restore, err := g.use(kind...)
	if err != nil {
		return err
	}
	defer restore()
	a := g.active
	cf, ok := a.r.(ContainerFiller)
	if !a.caps.Has(CanFill) || !ok {
		return unsupported("Fill", g.rendererName(), "use Render or Output")
	}
	if err := cf.SetContainer(container); err != nil {
		return err
	}
	defer func() { _ = cf.SetContainer(nil) }()
	return g.build(ctx)
}

func (g *Grid) rendererName() string {
	if g.active.kind != "" {
		return string(g.active.kind)
	}
	return fmt.Sprintf("%T", g.active.r)
}
