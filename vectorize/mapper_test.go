package vectorize_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/gradsample/vectorize"
	"github.com/stretchr/testify/require"
)

// mustVar builds a Var or fails the test.
func mustVar(t *testing.T, name string, shape []int, vals []float64) *vectorize.Var {
	t.Helper()
	v, err := vectorize.NewVar(name, shape, vals)
	require.NoError(t, err)

	return v
}

func TestMapperLayoutAndPartition(t *testing.T) {
	a := vectorize.NewScalar("a", 1)
	b := mustVar(t, "b", []int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	c := mustVar(t, "c", []int{4}, []float64{7, 8, 9, 10})

	m, err := vectorize.New(b, a, c, b) // b repeated: folded
	require.NoError(t, err)
	require.Equal(t, 11, m.Dimensions())
	require.Len(t, m.Variables(), 3)

	covered := make([]int, m.Dimensions())
	next := 0
	for _, s := range m.Slices() {
		require.Equal(t, next, s.Start, "slices must be contiguous")
		for i := s.Start; i < s.End; i++ {
			covered[i]++
		}
		next = s.End
	}
	require.Equal(t, m.Dimensions(), next)
	for i, n := range covered {
		require.Equalf(t, 1, n, "index %d", i)
	}

	s, ok := m.Slice("a")
	require.True(t, ok)
	require.Equal(t, vectorize.Slice{Name: "a", Start: 6, End: 7}, s)
	_, ok = m.Slice("missing")
	require.False(t, ok)
}

func TestRoundTripBitExact(t *testing.T) {
	vals := []float64{math.Pi, math.Copysign(0, -1), 1e-300, math.MaxFloat64, math.SmallestNonzeroFloat64, -2.5}
	b := mustVar(t, "b", []int{3, 2}, vals)
	a := vectorize.NewScalar("a", math.E)
	m, err := vectorize.New(a, b)
	require.NoError(t, err)

	x := m.ToVector()
	require.Equal(t, math.E, x[0])
	require.Equal(t, vals, x[1:])

	// Scribble over the variables, then write the snapshot back.
	require.NoError(t, a.SetValue([]float64{0}))
	require.NoError(t, b.SetValue(make([]float64, 6)))
	require.NoError(t, m.FromVector(x))

	got := m.ToVector()
	for i := range x {
		require.Equal(t, math.Float64bits(x[i]), math.Float64bits(got[i]), "index %d", i)
	}
	require.Equal(t, math.E, a.Scalar())
}

func TestFromVectorDimensionMismatch(t *testing.T) {
	m, err := vectorize.New(vectorize.NewScalar("a", 0))
	require.NoError(t, err)
	require.ErrorIs(t, m.FromVector([]float64{1, 2}), vectorize.ErrDimensionMismatch)
}

func TestNewErrors(t *testing.T) {
	_, err := vectorize.New()
	require.ErrorIs(t, err, vectorize.ErrNoVariables)

	_, err = vectorize.New(vectorize.NewScalar("x", 0), vectorize.NewScalar("x", 1))
	require.ErrorIs(t, err, vectorize.ErrDuplicateName)

	_, err = vectorize.NewVar("bad", []int{2, 0}, nil)
	require.ErrorIs(t, err, vectorize.ErrInvalidShape)

	_, err = vectorize.NewVar("short", []int{3}, []float64{1})
	require.ErrorIs(t, err, vectorize.ErrDimensionMismatch)
}

func TestSplit(t *testing.T) {
	a := vectorize.NewScalar("a", 0)
	b := mustVar(t, "b", []int{2}, []float64{0, 0})
	m, err := vectorize.New(a, b)
	require.NoError(t, err)

	x := []float64{1, 2, 3}
	parts, err := m.Split(x)
	require.NoError(t, err)
	require.Equal(t, []float64{1}, parts["a"])
	require.Equal(t, []float64{2, 3}, parts["b"])
	parts["b"][0] = 9
	require.Equal(t, 2.0, x[1], "pieces are copies")

	_, err = m.Split([]float64{1, 2})
	require.ErrorIs(t, err, vectorize.ErrDimensionMismatch)
}
