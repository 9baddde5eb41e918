package hessian_test

import (
	"testing"

	"github.com/katalvlaran/gradsample/hessian"
	"github.com/katalvlaran/gradsample/matrix"
	"github.com/katalvlaran/gradsample/model"
	"github.com/katalvlaran/gradsample/vectorize"
	"github.com/stretchr/testify/require"
)

func adapterFor(t *testing.T, target model.Target, x0 ...float64) *model.VarAdapter {
	t.Helper()
	vars := []vectorize.Variable{vectorize.NewScalar("a", x0[0]), vectorize.NewScalar("b", x0[1])}
	m, err := vectorize.New(vars...)
	require.NoError(t, err)
	a, err := model.NewVarAdapter(m, target)
	require.NoError(t, err)

	return a
}

func TestApproximateRecoversPrecision(t *testing.T) {
	cov, err := matrix.NewDenseFrom(2, 2, []float64{1, 0.3, 0.3, 2})
	require.NoError(t, err)
	g, err := model.NewGaussian([]float64{1, -2}, cov)
	require.NoError(t, err)
	want, err := matrix.Inverse(cov)
	require.NoError(t, err)

	for _, scheme := range []hessian.Scheme{hessian.Central, hessian.Forward} {
		t.Run(scheme.String(), func(t *testing.T) {
			a := adapterFor(t, g, 0.5, 0.5)
			h, err := hessian.Approximate(a, []float64{1, -2}, hessian.WithScheme(scheme))
			require.NoError(t, err)

			ok, err := matrix.AllClose(h, want, 0.01, 1e-6)
			require.NoError(t, err)
			require.Truef(t, ok, "got\n%v\nwant\n%v", h, want)
			require.NoError(t, matrix.ValidateSymmetric(h, 0))

			// No net effect on the committed state.
			require.Equal(t, model.Committed, a.State())
			require.Equal(t, []float64{0.5, 0.5}, a.CommittedVector())
		})
	}
}

func TestApproximateInfeasibleProbe(t *testing.T) {
	cov, err := matrix.NewIdentity(2)
	require.NoError(t, err)
	g, err := model.NewGaussian([]float64{0.5, 0.5}, cov)
	require.NoError(t, err)
	b, err := model.NewBounded(g, []float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)

	a := adapterFor(t, b, 0.5, 0.5)
	_, err = hessian.Approximate(a, []float64{0, 0.5}, hessian.WithStep(1e-3))
	require.ErrorIs(t, err, model.ErrInfeasible)
	require.Equal(t, model.Committed, a.State())
	require.Equal(t, []float64{0.5, 0.5}, a.CommittedVector())
}

func TestApproximateDimensionMismatch(t *testing.T) {
	cov, err := matrix.NewIdentity(2)
	require.NoError(t, err)
	g, err := model.NewGaussian([]float64{0, 0}, cov)
	require.NoError(t, err)
	_, err = hessian.Approximate(adapterFor(t, g, 0, 0), []float64{1})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	require.Panics(t, func() { hessian.WithStep(-1) })
}
