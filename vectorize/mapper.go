package vectorize

import (
	"fmt"
	"reflect"
)

// Slice is the half-open index range [Start, End) a variable occupies in the
// flat vector.
type Slice struct {
	Name       string
	Start, End int
}

// Len returns End-Start.
func (s Slice) Len() int { return s.End - s.Start }

// Mapper flattens a fixed set of variables. It is immutable after New.
type Mapper struct {
	vars   []Variable
	slices []Slice
	index  map[string]int // name -> position in vars/slices
	dims   int
}

// New builds a Mapper over vars.
//
// Repeated references to the same variable are folded into one; the order of
// first appearance fixes the layout. Two distinct variables sharing a name are
// rejected with ErrDuplicateName.
//
// Errors:
//   - ErrNoVariables, ErrDuplicateName, ErrInvalidShape.
func New(vars ...Variable) (*Mapper, error) {
	m := &Mapper{index: make(map[string]int, len(vars))}
	for _, v := range vars {
		if v == nil {
			continue
		}
		name := v.Name()
		if at, seen := m.index[name]; seen {
			if sameVariable(m.vars[at], v) {
				continue
			}
			return nil, fmt.Errorf("vectorize: %q: %w", name, ErrDuplicateName)
		}
		shape := v.Shape()
		if err := validateShape(shape); err != nil {
			return nil, fmt.Errorf("vectorize: %q: %w", name, err)
		}
		n := Size(shape)
		m.index[name] = len(m.vars)
		m.vars = append(m.vars, v)
		m.slices = append(m.slices, Slice{Name: name, Start: m.dims, End: m.dims + n})
		m.dims += n
	}
	if len(m.vars) == 0 {
		return nil, ErrNoVariables
	}

	return m, nil
}

// sameVariable reports whether a and b are the same object. Values of
// non-comparable dynamic types are never considered the same.
func sameVariable(a, b Variable) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}

	return a == b
}

// Dimensions returns the length of the flat vector.
func (m *Mapper) Dimensions() int { return m.dims }

// Variables returns the deduplicated variables in layout order.
func (m *Mapper) Variables() []Variable {
	out := make([]Variable, len(m.vars))
	copy(out, m.vars)

	return out
}

// Slice returns the range of the named variable.
func (m *Mapper) Slice(name string) (Slice, bool) {
	at, ok := m.index[name]
	if !ok {
		return Slice{}, false
	}

	return m.slices[at], true
}

// Slices returns all ranges in layout order.
func (m *Mapper) Slices() []Slice {
	out := make([]Slice, len(m.slices))
	copy(out, m.slices)

	return out
}

// ToVector reads every variable and returns the concatenated row-major values.
func (m *Mapper) ToVector() []float64 {
	x := make([]float64, m.dims)
	for i, v := range m.vars {
		s := m.slices[i]
		copy(x[s.Start:s.End], v.Value())
	}

	return x
}

// FromVector writes x back into the variables, each from its own range.
//
// Errors:
//   - ErrDimensionMismatch when len(x) != Dimensions().
//   - Any error returned by Variable.SetValue, wrapped with the variable name.
func (m *Mapper) FromVector(x []float64) error {
	if len(x) != m.dims {
		return fmt.Errorf("vectorize: FromVector: len %d, want %d: %w", len(x), m.dims, ErrDimensionMismatch)
	}
	for i, v := range m.vars {
		s := m.slices[i]
		buf := make([]float64, s.Len())
		copy(buf, x[s.Start:s.End])
		if err := v.SetValue(buf); err != nil {
			return fmt.Errorf("vectorize: FromVector %q: %w", s.Name, err)
		}
	}

	return nil
}

// Split cuts x into per-variable pieces keyed by name.
//
// Errors:
//   - ErrDimensionMismatch when len(x) != Dimensions().
func (m *Mapper) Split(x []float64) (map[string][]float64, error) {
	if len(x) != m.dims {
		return nil, fmt.Errorf("vectorize: Split: len %d, want %d: %w", len(x), m.dims, ErrDimensionMismatch)
	}
	out := make(map[string][]float64, len(m.slices))
	for _, s := range m.slices {
		piece := make([]float64, s.Len())
		copy(piece, x[s.Start:s.End])
		out[s.Name] = piece
	}

	return out, nil
}
