package datagrid

import (
	"fmt"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// ParseDirection parses "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC":
		return Ascending, nil
	case "DESC":
		return Descending, nil
	default:
		return "", fmt.Errorf("%w: invalid sort direction %q", ErrValidation, s)
	}
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// SortField is one field of a [SortSpec].
type SortField struct {
	Field     string    `yaml:"field"`
	Direction Direction `yaml:"direction"`
}

// SortSpec is an ordered field to direction mapping. Earlier fields take
// precedence; later ones only break ties.
type SortSpec []SortField

// NewSortSpec returns a single-field spec.
func NewSortSpec(field string, dir Direction) SortSpec {
	return SortSpec{{Field: field, Direction: dir}}
}

// With returns a copy of s with field set to dir. An existing field keeps
// its position.
func (s SortSpec) With(field string, dir Direction) SortSpec {
	out := s.Clone()
	for i := range out {
		if out[i].Field == field {
			out[i].Direction = dir
			return out
		}
	}
	return append(out, SortField{Field: field, Direction: dir})
}

// Direction returns the direction of field, if present.
func (s SortSpec) Direction(field string) (Direction, bool) {
	for _, f := range s {
		if f.Field == field {
			return f.Direction, true
		}
	}
	return "", false
}

// Fields returns the field names in precedence order.
func (s SortSpec) Fields() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Field
	}
	return out
}

// First returns a spec holding only the highest-precedence field.
func (s SortSpec) First() SortSpec {
	if len(s) == 0 {
		return nil
	}
	return SortSpec{s[0]}
}

// Reverse returns a copy with every direction flipped.
func (s SortSpec) Reverse() SortSpec {
	out := s.Clone()
	for i := range out {
		out[i].Direction = out[i].Direction.Reverse()
	}
	return out
}

// Clone returns a copy of s.
func (s SortSpec) Clone() SortSpec {
	if s == nil {
		return nil
	}
	out := make(SortSpec, len(s))
	copy(out, s)
	return out
}

// Equal reports whether both specs hold the same fields, directions and
// order.
func (s SortSpec) Equal(other SortSpec) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the spec as "a ASC, b DESC".
func (s SortSpec) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.Field + " " + string(f.Direction)
	}
	return strings.Join(parts, ", ")
}
