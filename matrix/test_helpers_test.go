// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers.
//
// Purpose:
//   • Provide small, deterministic fixtures and utilities for kernel tests.
//   • Keep all data finite and well-formed to avoid numeric-policy interference.

package matrix_test

import (
	"math/rand/v2"
	"testing"

	"github.com/katalvlaran/gradsample/matrix"
	"github.com/stretchr/testify/require"
)

// hide wraps any Matrix to hide its concrete type from type assertions,
// forcing kernels onto their interface fallback path.
type hide struct{ matrix.Matrix }

// MustDense allocates an r×c *Dense or fails the test.
func MustDense(t *testing.T, r, c int) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDense(r, c)
	require.NoError(t, err)

	return m
}

// NewFilledDense builds an r×c *Dense from row-major values.
func NewFilledDense(t *testing.T, r, c int, vals []float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(r, c, vals)
	require.NoError(t, err)

	return m
}

// RandFilledDense returns an r×c *Dense with entries uniform in [-1,1).
func RandFilledDense(t *testing.T, r, c int, seed uint64) *matrix.Dense {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed))
	vals := make([]float64, r*c)
	for i := range vals {
		vals[i] = 2*rng.Float64() - 1
	}

	return NewFilledDense(t, r, c, vals)
}

// RandSPD returns AᵀA + n·I for a random A, which is symmetric positive-definite.
func RandSPD(t *testing.T, n int, seed uint64) *matrix.Dense {
	t.Helper()
	A := RandFilledDense(t, n, n, seed)
	At, err := matrix.Transpose(A)
	require.NoError(t, err)
	G, err := matrix.Mul(At, A)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		MustSet(t, G, i, i, MustAt(t, G, i, i)+float64(n))
	}

	return G.(*matrix.Dense)
}

// MustSet sets m[i,j]=v or fails the test.
func MustSet(t *testing.T, m matrix.Matrix, i, j int, v float64) {
	t.Helper()
	require.NoError(t, m.Set(i, j, v))
}

// MustAt reads m[i,j] or fails the test.
func MustAt(t *testing.T, m matrix.Matrix, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}

// CompareExact asserts m equals want element-wise with no tolerance.
func CompareExact(t *testing.T, want [][]float64, m matrix.Matrix) {
	t.Helper()
	require.Equal(t, len(want), m.Rows(), "rows")
	for i := range want {
		require.Equal(t, len(want[i]), m.Cols(), "cols of row %d", i)
		for j := range want[i] {
			require.Equalf(t, want[i][j], MustAt(t, m, i, j), "m[%d,%d]", i, j)
		}
	}
}

// CompareClose asserts AllClose(a,b) under (rtol, atol).
func CompareClose(t *testing.T, a, b matrix.Matrix, rtol, atol float64) {
	t.Helper()
	ok, err := matrix.AllClose(a, b, rtol, atol)
	require.NoError(t, err)
	require.Truef(t, ok, "AllClose=false (rtol=%g, atol=%g)\n%v\nvs\n%v", rtol, atol, a, b)
}
