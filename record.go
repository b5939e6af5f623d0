package datagrid

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Velocidex/ordereddict"
)

// Record is one row of a record set: an ordered mapping of field name to
// value. Records produced by object-backed datasources also carry the
// original object, which object-preserving renderers pass through.
type Record struct {
	fields *ordereddict.Dict
	object any
}

// NewRecord returns a record over fields. A nil dict yields an empty
// record.
func NewRecord(fields *ordereddict.Dict) Record {
	if fields == nil {
		fields = ordereddict.NewDict()
	}
	return Record{fields: fields}
}

// RecordFromMap builds a record from m using keys as the field order.
// Keys missing from m are set to nil.
func RecordFromMap(m map[string]any, keys []string) Record {
	d := ordereddict.NewDict()
	for _, k := range keys {
		d.Set(k, m[k])
	}
	return Record{fields: d}
}

// ObjectRecord returns a record that preserves obj next to its flattened
// fields.
func ObjectRecord(obj any, fields *ordereddict.Dict) Record {
	r := NewRecord(fields)
	r.object = obj
	return r
}

// Get returns the value of field and whether it is present.
func (r Record) Get(field string) (any, bool) {
	if r.fields == nil {
		return nil, false
	}
	return r.fields.Get(field)
}

// String returns the value of field formatted for display. Missing
// fields and nil values yield "".
func (r Record) String(field string) string {
	v, _ := r.Get(field)
	return stringify(v)
}

// Keys returns the field names in order.
func (r Record) Keys() []string {
	if r.fields == nil {
		return nil
	}
	return r.fields.Keys()
}

// Fields returns the underlying ordered dict.
func (r Record) Fields() *ordereddict.Dict {
	return r.fields
}

// Object returns the preserved object, or nil.
func (r Record) Object() any {
	return r.object
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.Keys())
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// number reports v as a float when it is numeric or a numeric string.
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
