// Package matrix_test contains unit tests for the Dense implementation
// of the Matrix interface in the matrix package.
package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/gradsample/matrix"
	"github.com/stretchr/testify/require"
)

// TestNewDenseInvalidDimensions ensures that NewDense rejects non-positive dimensions.
func TestNewDenseInvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 5)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDense(5, 0)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestRowsCols verifies that Rows() and Cols() return correct dimension values.
func TestRowsCols(t *testing.T) {
	m := MustDense(t, 3, 4)
	require.Equal(t, 3, m.Rows())
	require.Equal(t, 4, m.Cols())
}

// TestAtSetOutOfBounds ensures At() and Set() return ErrOutOfRange on invalid access.
func TestAtSetOutOfBounds(t *testing.T) {
	m := MustDense(t, 2, 2)

	_, err := m.At(-1, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	_, err = m.At(0, 2)
	require.ErrorIs(t, err, matrix.ErrIndexOutOfBounds) // legacy alias

	require.ErrorIs(t, m.Set(2, 0, 1.23), matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(0, -1, 4.56), matrix.ErrOutOfRange)
}

// TestSetRejectsNonFinite checks the default numeric policy.
func TestSetRejectsNonFinite(t *testing.T) {
	m := MustDense(t, 2, 2)
	require.ErrorIs(t, m.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
	require.ErrorIs(t, m.Set(0, 0, math.Inf(-1)), matrix.ErrNaNInf)

	_, err := matrix.NewDenseFrom(1, 2, []float64{1, math.Inf(1)})
	require.ErrorIs(t, err, matrix.ErrNaNInf)
}

func TestNewDenseFromCopies(t *testing.T) {
	src := []float64{1, 2, 3, 4, 5, 6}
	m := NewFilledDense(t, 2, 3, src)
	src[0] = 99
	require.Equal(t, 1.0, MustAt(t, m, 0, 0))
	require.Equal(t, 6.0, MustAt(t, m, 1, 2))

	_, err := matrix.NewDenseFrom(2, 2, []float64{1, 2, 3})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

// TestCloneIndependent verifies that Clone() produces an independent deep copy.
func TestCloneIndependent(t *testing.T) {
	m := NewFilledDense(t, 2, 2, []float64{1, 2, 3, 4})
	c := m.Clone()
	MustSet(t, m, 0, 0, 10)
	require.Equal(t, 1.0, MustAt(t, c, 0, 0))
}

func TestString(t *testing.T) {
	m := NewFilledDense(t, 2, 2, []float64{2, 4, 6, 8})
	require.Equal(t, "[2, 4]\n[6, 8]\n", m.String())
}
