// SPDX-License-Identifier: MIT
package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/gradsample/matrix"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	a := NewFilledDense(t, 2, 2, []float64{1, 2, 3, 4})
	b := NewFilledDense(t, 2, 2, []float64{10, 20, 30, 40})

	sum, err := matrix.Add(a, b)
	require.NoError(t, err)
	CompareExact(t, [][]float64{{11, 22}, {33, 44}}, sum)

	viaAt, err := matrix.Add(hide{b}, a) // fallback path
	require.NoError(t, err)
	CompareExact(t, [][]float64{{11, 22}, {33, 44}}, viaAt)

	_, err = matrix.Add(a, MustDense(t, 2, 3))
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.Add(nil, a)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestMulFastPathMatchesFallback(t *testing.T) {
	a := RandFilledDense(t, 3, 4, 1)
	b := RandFilledDense(t, 4, 2, 2)

	fast, err := matrix.Mul(a, b)
	require.NoError(t, err)
	slow, err := matrix.Mul(hide{a}, hide{b})
	require.NoError(t, err)
	CompareClose(t, fast, slow, 0, 1e-14)

	_, err = matrix.Mul(a, a)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestTransposeScale(t *testing.T) {
	a := NewFilledDense(t, 2, 3, []float64{1, 2, 3, 4, 5, 6})
	at, err := matrix.Transpose(a)
	require.NoError(t, err)
	CompareExact(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, at)

	neg, err := matrix.Scale(hide{a}, -1)
	require.NoError(t, err)
	CompareExact(t, [][]float64{{-1, -2, -3}, {-4, -5, -6}}, neg)
}

func TestMatVecQuadForm(t *testing.T) {
	a := NewFilledDense(t, 2, 2, []float64{2, 1, 1, 3})
	x := []float64{1, -2}

	y, err := matrix.MatVec(a, x)
	require.NoError(t, err)
	require.Equal(t, []float64{0, -5}, y)

	y2, err := matrix.MatVec(hide{a}, x)
	require.NoError(t, err)
	require.Equal(t, y, y2)

	// xᵀAx = 2 - 2 - 2 + 12 = 10
	q, err := matrix.QuadForm(a, x)
	require.NoError(t, err)
	require.Equal(t, 10.0, q)
	q2, err := matrix.QuadForm(hide{a}, x)
	require.NoError(t, err)
	require.Equal(t, q, q2)

	_, err = matrix.MatVec(a, []float64{1})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.QuadForm(MustDense(t, 2, 3), x)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestInverse(t *testing.T) {
	spd := RandSPD(t, 4, 7)
	inv, err := matrix.Inverse(spd)
	require.NoError(t, err)

	prod, err := matrix.Mul(spd, inv)
	require.NoError(t, err)
	I, err := matrix.NewIdentity(4)
	require.NoError(t, err)
	CompareClose(t, prod, I, 0, 1e-10)

	inv2, err := matrix.Inverse(hide{spd})
	require.NoError(t, err)
	CompareClose(t, inv, inv2, 0, 1e-14)
}

func TestInverseSingular(t *testing.T) {
	s := NewFilledDense(t, 2, 2, []float64{1, 2, 2, 4})
	_, err := matrix.Inverse(s)
	require.ErrorIs(t, err, matrix.ErrSingular)

	_, err = matrix.Inverse(MustDense(t, 2, 3))
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestLUReconstructs(t *testing.T) {
	a := NewFilledDense(t, 3, 3, []float64{4, 3, 2, 2, 1, 3, 3, 2, 1})
	L, U, err := matrix.LU(a)
	require.NoError(t, err)
	require.Equal(t, 1.0, MustAt(t, L, 1, 1))
	require.Equal(t, 0.0, MustAt(t, U, 2, 0))

	prod, err := matrix.Mul(L, U)
	require.NoError(t, err)
	CompareClose(t, prod, a, 0, 1e-12)
}

func TestCholesky(t *testing.T) {
	a := NewFilledDense(t, 2, 2, []float64{4, 2, 2, 3})
	L, err := matrix.Cholesky(a)
	require.NoError(t, err)
	require.Equal(t, 0.0, MustAt(t, L, 0, 1))

	Lt, err := matrix.Transpose(L)
	require.NoError(t, err)
	prod, err := matrix.Mul(L, Lt)
	require.NoError(t, err)
	CompareClose(t, prod, a, 0, 1e-12)

	_, err = matrix.Cholesky(NewFilledDense(t, 2, 2, []float64{1, 2, 2, 1}))
	require.ErrorIs(t, err, matrix.ErrNotPositiveDefinite)

	_, err = matrix.Cholesky(NewFilledDense(t, 2, 2, []float64{1, 0.5, 0, 1}))
	require.ErrorIs(t, err, matrix.ErrAsymmetry)
}

func TestCholeskyFactorAndDefiniteness(t *testing.T) {
	cases := []struct {
		name string
		data []float64
		want []float64 // lower factor, nil when not positive definite
	}{
		{"spd", []float64{4, 2, 2, 3}, []float64{2, 0, 1, math.Sqrt2}},
		{"identity", []float64{1, 0, 0, 1}, []float64{1, 0, 0, 1}},
		{"tiny diagonal", []float64{1e-300, 0, 0, 1e-300}, []float64{1e-150, 0, 0, 1e-150}},
		{"semidefinite", []float64{1, 1, 1, 1}, nil},
		{"indefinite", []float64{1, 2, 2, 1}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			L, err := matrix.Cholesky(NewFilledDense(t, 2, 2, tc.data))
			if tc.want == nil {
				require.ErrorIs(t, err, matrix.ErrNotPositiveDefinite)
				require.Nil(t, L)
				return
			}
			require.NoError(t, err)
			CompareClose(t, L, NewFilledDense(t, 2, 2, tc.want), 1e-12, 0)
		})
	}
}
