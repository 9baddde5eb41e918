// Package matrix provides the dense linear algebra shared by the sampler.
//
// The package offers:
//
//   - Dense, a row-major float64 matrix with bounds-checked accessors and a
//     finite-values numeric policy.
//   - Kernels: Add, Mul, Transpose, Scale, MatVec, QuadForm, LU and Inverse.
//     Cholesky delegates to gonum. Singular inputs are reported with
//     ErrSingular, indefinite ones with ErrNotPositiveDefinite.
//   - Column statistics (CenterColumns, Covariance) for summarizing draws.
//   - A small bridge to gonum (ToSymDense, FromGonum) for the distributions
//     and optimizers built on it.
//
// Mass matrices are small (one row per model coordinate), so every kernel is
// a straightforward O(n^3) or better loop with a *Dense fast path.
package matrix
