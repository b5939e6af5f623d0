package datagrid

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/sirupsen/logrus"
)

// streamChunk is the number of records fetched per datasource call while
// streaming.
const streamChunk = 500

// Records iterates over every record of the datasource in the current
// sort order, fetching chunk records at a time. It ignores paging. A
// non-positive chunk uses a default size.
func (g *Grid) Records(ctx context.Context, chunk int) iter.Seq2[Record, error] {
	if chunk <= 0 {
		chunk = streamChunk
	}
	return func(yield func(Record, error) bool) {
		if g.source == nil {
			yield(Record{}, fmt.Errorf("%w: no datasource bound", ErrBinding))
			return
		}
		if err := g.source.Sort(g.driverSort(g.effectiveSort())); err != nil {
			yield(Record{}, err)
			return
		}
		for offset := 0; ; offset += chunk {
			if err := ctx.Err(); err != nil {
				yield(Record{}, err)
				return
			}
			records, err := g.source.Fetch(ctx, offset, chunk)
			if err != nil {
				yield(Record{}, err)
				return
			}
			g.log.WithFields(logrus.Fields{"offset": offset, "records": len(records)}).Debug("streamed chunk")
			for _, r := range records {
				if !yield(r, nil) {
					return
				}
			}
			if len(records) < chunk {
				return
			}
		}
	}
}

// Stream writes every record through a streaming renderer as the chunks
// arrive, instead of building the current page.
func (g *Grid) Stream(ctx context.Context, w io.Writer, kind ...RendererKind) error {
	restore, err := g.use(kind...)
	if err != nil {
		return err
	}
	defer restore()
	a := g.active
	sr, ok := a.r.(StreamRenderer)
	if !a.caps.Has(CanStream) || !ok {
		return unsupported("Stream", g.rendererName(), "use Render to write the current page")
	}
	columns := g.Columns()
	if len(columns) == 0 {
		if err := g.fetch(ctx); err != nil {
			return err
		}
		columns = g.Columns()
	}
	return sr.Stream(w, columns, g.Records(ctx, streamChunk))
}

// RecordsFromChan adapts a channel of records to the iterator form taken
// by [StreamRenderer].
func RecordsFromChan(ch <-chan Record) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for r := range ch {
			if !yield(r, nil) {
				return
			}
		}
	}
}
