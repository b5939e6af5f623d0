package datagrid

import (
	"context"
	"fmt"
	"os"

	"github.com/Velocidex/ordereddict"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

type arrowSourceOptions struct {
	Fields []string `yaml:"fields"`
	Locale string   `yaml:"locale"`
}

// arrowSource reads an Arrow table, an Arrow record batch or a Parquet
// file into records.
type arrowSource struct {
	arraySource
}

func newArrowSource() *arrowSource {
	return &arrowSource{arraySource{name: string(ArrowSource)}}
}

func (s *arrowSource) Bind(ctx context.Context, source any, opts Options) error {
	o := arrowSourceOptions{}
	if err := decodeOptions(s.name, opts, &o); err != nil {
		return err
	}
	var table arrow.Table
	switch v := source.(type) {
	case arrow.Table:
		table = v
	case arrow.Record:
		table = array.NewTableFromRecords(v.Schema(), []arrow.Record{v})
		defer table.Release()
	case string:
		t, err := readParquet(ctx, v)
		if err != nil {
			return err
		}
		table = t
		defer table.Release()
	default:
		return fmt.Errorf("%w: arrow source cannot bind %T", ErrBinding, source)
	}

	records, fields, err := tableRecords(table)
	if err != nil {
		return queryError(s.name, err)
	}
	if o.Fields != nil {
		records, fields = selectFields(records, o.Fields), o.Fields
	}
	return s.load(records, fields, o.Locale)
}

func readParquet(ctx context.Context, path string) (arrow.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, queryError(string(ArrowSource), err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, queryError(string(ArrowSource), fmt.Errorf("open parquet reader: %w", err))
	}
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, queryError(string(ArrowSource), fmt.Errorf("create arrow reader: %w", err))
	}
	table, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, queryError(string(ArrowSource), fmt.Errorf("read parquet data: %w", err))
	}
	return table, nil
}

func tableRecords(table arrow.Table) ([]Record, []string, error) {
	schema := table.Schema()
	fields := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		fields[i] = f.Name
	}

	tr := array.NewTableReader(table, table.NumRows())
	defer tr.Release()

	records := make([]Record, 0, table.NumRows())
	for tr.Next() {
		rec := tr.Record()
		for row := 0; row < int(rec.NumRows()); row++ {
			d := ordereddict.NewDict()
			for col, arr := range rec.Columns() {
				d.Set(fields[col], arrowValue(arr, row))
			}
			records = append(records, NewRecord(d))
		}
	}
	if err := tr.Err(); err != nil {
		return nil, nil, err
	}
	return records, fields, nil
}

// arrowValue returns the Go value at pos, keeping numeric types so the
// array sort compares numbers numerically.
func arrowValue(col arrow.Array, pos int) any {
	if col.IsNull(pos) {
		return nil
	}
	switch c := col.(type) {
	case *array.String:
		return c.Value(pos)
	case *array.LargeString:
		return c.Value(pos)
	case *array.Binary:
		return string(c.Value(pos))
	case *array.Boolean:
		return c.Value(pos)
	case *array.Int8:
		return int64(c.Value(pos))
	case *array.Int16:
		return int64(c.Value(pos))
	case *array.Int32:
		return int64(c.Value(pos))
	case *array.Int64:
		return c.Value(pos)
	case *array.Uint8:
		return uint64(c.Value(pos))
	case *array.Uint16:
		return uint64(c.Value(pos))
	case *array.Uint32:
		return uint64(c.Value(pos))
	case *array.Uint64:
		return c.Value(pos)
	case *array.Float16:
		return float64(c.Value(pos).Float32())
	case *array.Float32:
		return float64(c.Value(pos))
	case *array.Float64:
		return c.Value(pos)
	case *array.Date32:
		return c.Value(pos).ToTime().Format("2006-01-02")
	case *array.Date64:
		return c.Value(pos).ToTime().Format("2006-01-02")
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		return c.Value(pos).ToTime(unit).Format("2006-01-02 15:04:05.999999999")
	case *array.Decimal128:
		return c.Value(pos).BigInt().String()
	default:
		return c.ValueStr(pos)
	}
}
