package hmc

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/gradsample/matrix"
)

var (
	// ErrMissingCovariance indicates that mode finding is disabled and no
	// covariance was supplied, leaving no curvature information.
	ErrMissingCovariance = errors.New("hmc: no covariance supplied and mode finding disabled")

	// ErrSingularCovariance indicates a covariance (or the curvature estimate
	// it derives from) that cannot be inverted or is not positive definite.
	ErrSingularCovariance = errors.New("hmc: covariance is singular or not positive definite")

	// ErrDimensionMismatch indicates a supplied matrix whose size differs from
	// the model's dimensions.
	ErrDimensionMismatch = errors.New("hmc: dimension mismatch")
)

// CovarianceError reports an unusable mass matrix together with the matrix
// itself. It matches ErrSingularCovariance and its Cause under errors.Is.
type CovarianceError struct {
	// Source names where the matrix came from: "supplied", "hessian" or "optimizer".
	Source string
	// Matrix is the matrix whose inversion or factorization failed.
	Matrix matrix.Matrix
	// Cause is the underlying matrix error (matrix.ErrSingular,
	// matrix.ErrNotPositiveDefinite, matrix.ErrAsymmetry, ...).
	Cause error
}

func (e *CovarianceError) Error() string {
	return fmt.Sprintf("hmc: %s covariance unusable: %v", e.Source, e.Cause)
}

// Unwrap exposes both ErrSingularCovariance and the cause.
func (e *CovarianceError) Unwrap() []error {
	return []error{ErrSingularCovariance, e.Cause}
}
