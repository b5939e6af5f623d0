package datagrid

import "context"

// SourceCaps is the capability set a datasource driver declares.
type SourceCaps uint8

const (
	// SourceMultiSort means every field of a SortSpec is honored. Other
	// drivers only receive the first field.
	SourceMultiSort SourceCaps = 1 << iota
	// SourceWrite means the driver can write records back.
	SourceWrite
	// SourceLimit means Fetch honors offset and limit natively.
	SourceLimit
	// SourceCount means Count is computed without fetching all records.
	SourceCount
	// SourceObjects means records carry their original objects.
	SourceObjects
)

// Has reports whether all of want are set.
func (c SourceCaps) Has(want SourceCaps) bool { return c&want == want }

// DataSource is a backend adapter for one data format. Sort must be
// called before Fetch for the sort to apply. Count results are cached
// after the first computation.
type DataSource interface {
	// Bind attaches the driver to source, with opts merged over the
	// driver defaults.
	Bind(ctx context.Context, source any, opts Options) error
	// Count returns the total number of records.
	Count(ctx context.Context) (int, error)
	// Sort sets the order used by subsequent fetches.
	Sort(spec SortSpec) error
	// Fetch returns up to limit records starting at offset. A zero limit
	// returns all remaining records.
	Fetch(ctx context.Context, offset, limit int) ([]Record, error)
	// Fields returns the field names the source reports, or nil.
	Fields() []string
	// Capabilities returns the driver's capability set.
	Capabilities() SourceCaps
	// Close releases resources the driver owns.
	Close() error
}
