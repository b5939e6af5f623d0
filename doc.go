// Package datagrid pages, sorts and renders tabular data.
//
// A [Grid] sits between a [DataSource], which reads records from a
// backend, and a [Renderer], which writes them in one output format. The
// grid owns the columns, the current page and the sort. It fetches the
// current page again whenever one of them changes, and it rebuilds the
// renderer output only then.
//
//	g := datagrid.New(datagrid.WithRowsPerPage(20))
//	if err := g.Bind(ctx, "people.csv", nil); err != nil { ... }
//	g.SortRecordSet(datagrid.NewSortSpec("age", datagrid.Descending))
//	err := g.Render(ctx, os.Stdout, datagrid.TableRenderer)
//
// # Datasources
//
// Drivers are picked by [SourceKind] or detected from the source value
// with [DetectSourceKind]:
//
//   - [ArraySource]: in-memory maps, ordered dicts, records or string rows
//   - [CSVSource]: CSV files, text, bytes or readers
//   - [XMLSource]: XML documents, scoped with an mxj dot path
//   - [SQLSource]: a [SQLQuery] over sqlite3, mysql or postgres
//   - [ObjectSource]: slices of structs, keeping the original objects
//   - [ArrowSource]: Arrow tables and records, Parquet files
//   - [XLSXSource]: spreadsheet workbooks
//
// Each driver declares its [SourceCaps]. Drivers without
// [SourceMultiSort] are only given the first field of a sort.
//
// # Renderers
//
// Renderers are picked by [RendererKind]. [Grid.Render] writes to an
// io.Writer and works with every renderer. [Grid.Output] returns the
// deferred output of renderers registered with [CanFlatten].
// [Grid.Fill] fills a caller's native object for renderers with
// [CanFill]. [Grid.Stream] writes every record as it is fetched for
// renderers with [CanStream]. Calling an entry point the renderer does
// not support returns an [*UnsupportedError] naming the alternative.
//
// Passing a kind to Render, Output, Fill or Stream uses that renderer
// for the one call and keeps the active renderer:
//
//	html, _ := g.Output(ctx)                       // active renderer
//	_ = g.Render(ctx, w, datagrid.CSVRenderer)     // CSV this time only
//
// # Requests
//
// The page, orderBy and direction parameters are read from a [Request]
// on Bind. POST values take precedence over GET values, which take
// precedence over cookies. [WithRequestPrefix] namespaces the parameters
// so several grids can share a page.
//
// # Errors
//
// The package exports sentinel errors for programmatic handling:
//
//   - [ErrBinding]: the source value cannot be bound, or nothing is bound
//   - [ErrDriverLoad]: unknown driver kind
//   - [ErrUnsupported]: the driver does not implement the operation
//   - [ErrQuery]: the backend failed to count or fetch
//   - [ErrValidation]: a bad option or argument
package datagrid
