// SPDX-License-Identifier: MIT

package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ToSymDense copies a symmetric Matrix into a gonum *mat.SymDense.
//
// Implementation:
//   - Stage 1: validate m square and symmetric within eps*max(1, max|m|)
//     (eps = DefaultEpsilon unless overridden by WithEpsilon).
//   - Stage 2: copy the upper triangle.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrNaNInf, ErrAsymmetry.
//
// Complexity: O(n^2).
func ToSymDense(m Matrix, opts ...Option) (*mat.SymDense, error) {
	o := gatherOptions(opts...)
	if err := ValidateSquareNonNil(m); err != nil {
		return nil, matrixErrorf("ToSymDense", err)
	}
	tol := o.eps * symmetryTol(m) / DefaultEpsilon
	if err := ValidateSymmetric(m, tol); err != nil {
		return nil, matrixErrorf("ToSymDense", err)
	}

	n := m.Rows()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v, err := m.At(i, j)
			if err != nil {
				return nil, matrixErrorf("ToSymDense", err)
			}
			out.SetSym(i, j, v)
		}
	}

	return out, nil
}

// FromGonum copies any gonum matrix into a fresh *Dense.
//
// Errors:
//   - ErrNilMatrix (nil src), ErrInvalidDimensions (empty), ErrNaNInf.
func FromGonum(src mat.Matrix) (*Dense, error) {
	if src == nil {
		return nil, matrixErrorf("FromGonum", ErrNilMatrix)
	}
	r, c := src.Dims()
	out, err := NewDense(r, c)
	if err != nil {
		return nil, matrixErrorf("FromGonum", err)
	}
	var v float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v = src.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, matrixErrorf("FromGonum", fmt.Errorf("(%d,%d): %w", i, j, ErrNaNInf))
			}
			out.data[i*c+j] = v
		}
	}

	return out, nil
}

// Cholesky computes the lower-triangular L with A = L·Lᵀ through gonum's
// mat.Cholesky.
//
// Implementation:
//   - Stage 1: ToSymDense (square, finite, symmetric within DefaultEpsilon
//     relative to max |A|).
//   - Stage 2: mat.Cholesky.Factorize; false means A is not positive definite.
//   - Stage 3: copy the lower factor back into a *Dense.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrNaNInf, ErrAsymmetry,
//     ErrNotPositiveDefinite.
//
// Complexity:
//   - Time O(n^3/3), Space O(n^2).
//
// AI-Hints:
//   - Use as the positive-definiteness check for mass matrices.
func Cholesky(m Matrix) (*Dense, error) {
	sym, err := ToSymDense(m)
	if err != nil {
		return nil, matrixErrorf(opCholesky, err)
	}
	var ch mat.Cholesky
	if !ch.Factorize(sym) {
		return nil, matrixErrorf(opCholesky, ErrNotPositiveDefinite)
	}
	var tri mat.TriDense
	ch.LTo(&tri)
	L, err := FromGonum(&tri)
	if err != nil {
		return nil, matrixErrorf(opCholesky, err)
	}

	return L, nil
}
