package vectorize

import (
	"fmt"
	"slices"
)

// Variable is a named value of fixed shape owned by a model.
//
// Implementations must be comparable (typically pointers): the Mapper uses
// == to tell a repeated reference from a distinct variable with the same name.
type Variable interface {
	// Name is the stable identity of the variable.
	Name() string
	// Shape is the fixed extent per axis; an empty shape denotes a scalar.
	Shape() []int
	// Value returns a row-major copy of the current value.
	Value() []float64
	// SetValue replaces the current value with a row-major buffer of Size(Shape()) elements.
	SetValue(v []float64) error
}

// Size returns the element count of shape (1 for a scalar).
func Size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}

	return n
}

func validateShape(shape []int) error {
	for axis, d := range shape {
		if d <= 0 {
			return fmt.Errorf("axis %d extent %d: %w", axis, d, ErrInvalidShape)
		}
	}

	return nil
}

// Var is an in-memory Variable.
type Var struct {
	name  string
	shape []int
	data  []float64
}

var _ Variable = (*Var)(nil)

// NewScalar returns a scalar variable holding v.
func NewScalar(name string, v float64) *Var {
	return &Var{name: name, data: []float64{v}}
}

// NewVar returns a variable of the given shape holding a copy of values
// (row-major). len(values) must equal Size(shape).
func NewVar(name string, shape []int, values []float64) (*Var, error) {
	if err := validateShape(shape); err != nil {
		return nil, fmt.Errorf("vectorize: NewVar %q: %w", name, err)
	}
	if n := Size(shape); len(values) != n {
		return nil, fmt.Errorf("vectorize: NewVar %q: %d values for %d elements: %w",
			name, len(values), n, ErrDimensionMismatch)
	}

	return &Var{name: name, shape: slices.Clone(shape), data: slices.Clone(values)}, nil
}

// Name implements Variable.
func (v *Var) Name() string { return v.name }

// Shape implements Variable.
func (v *Var) Shape() []int { return slices.Clone(v.shape) }

// Value implements Variable.
func (v *Var) Value() []float64 { return slices.Clone(v.data) }

// Scalar returns the first element; convenient for scalar variables.
func (v *Var) Scalar() float64 { return v.data[0] }

// SetValue implements Variable.
func (v *Var) SetValue(vals []float64) error {
	if len(vals) != len(v.data) {
		return fmt.Errorf("vectorize: %q: %d values for %d elements: %w",
			v.name, len(vals), len(v.data), ErrDimensionMismatch)
	}
	copy(v.data, vals)

	return nil
}
