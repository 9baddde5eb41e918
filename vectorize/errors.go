package vectorize

import "errors"

var (
	// ErrDimensionMismatch indicates a flat vector or value buffer whose length
	// differs from the expected element count.
	ErrDimensionMismatch = errors.New("vectorize: dimension mismatch")

	// ErrDuplicateName indicates two distinct variables sharing one name.
	ErrDuplicateName = errors.New("vectorize: duplicate variable name")

	// ErrInvalidShape indicates a shape with a non-positive extent.
	ErrInvalidShape = errors.New("vectorize: shape extents must be > 0")

	// ErrNoVariables indicates a Mapper built from an empty variable set.
	ErrNoVariables = errors.New("vectorize: no variables")
)
