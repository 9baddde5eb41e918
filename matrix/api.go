// SPDX-License-Identifier: MIT
// Package matrix - public API facades.
//
// Purpose:
//   - Provide thin entry points for common tasks across the package.
//   - Each facade delegates to the canonical implementation; no loop duplication.
//
// AI-Hints:
//   - Prefer passing *Dense to unlock fast-paths in kernels (flat-slice loops).
//   - Use NewIdentity/NewDiagonal for explicit mass matrices in tests and CLIs.

package matrix

// NewIdentity returns I_n (n×n identity; ones on the diagonal, zeros elsewhere).
// Complexity: O(n^2) zeroing (constructor) + O(n) writes on the diagonal.
func NewIdentity(n int) (*Dense, error) {
	I, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		I.data[i*n+i] = 1.0
	}

	return I, nil
}

// NewDiagonal returns the square matrix with diag on its diagonal.
//
// Errors:
//   - ErrInvalidDimensions (empty diag), ErrNaNInf (non-finite entry).
//
// Complexity: O(n^2).
func NewDiagonal(diag []float64) (*Dense, error) {
	n := len(diag)
	D, err := NewDense(n, n)
	if err != nil {
		return nil, matrixErrorf("NewDiagonal", err)
	}
	for i, v := range diag {
		if err = D.Set(i, i, v); err != nil {
			return nil, matrixErrorf("NewDiagonal", err)
		}
	}

	return D, nil
}

// Symmetrize returns (m + mᵀ)/2. Deterministic composition: Transpose → Add → Scale.
// Complexity: O(rc).
//
// AI-Hints: finite-difference Hessians are only symmetric up to truncation
// error; run them through here before inversion.
func Symmetrize(m Matrix) (Matrix, error) {
	mt, err := Transpose(m)
	if err != nil {
		return nil, matrixErrorf("Symmetrize", err)
	}
	sum, err := Add(m, mt)
	if err != nil {
		return nil, matrixErrorf("Symmetrize", err)
	}

	return Scale(sum, 0.5)
}

// AllClose reports whether |a-b| ≤ atol + rtol*|b| holds element-wise.
// NaN never compares close. Time: O(r*c). Space: O(1).
func AllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	return ewAllClose(a, b, rtol, atol)
}

// CenterColumns returns Xc = X − mean(X, by columns) and the column means.
// Time: O(r*c). Space: O(r*c).
func CenterColumns(X Matrix) (Matrix, []float64, error) { return centerColumns(X) }

// Covariance returns the unbiased sample covariance of the columns of X
// (rows are observations) and the column means used for centering.
// Requires at least two rows. Time: O(r*c^2).
func Covariance(X Matrix) (Matrix, []float64, error) { return covariance(X) }
