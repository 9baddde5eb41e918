package model_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/katalvlaran/gradsample/matrix"
	"github.com/katalvlaran/gradsample/model"
	"github.com/katalvlaran/gradsample/vectorize"
	"github.com/stretchr/testify/require"
)

// quadratic is log p(x) = -½ Σ x_i² with a feasibility cut at |x_0| > 10.
var quadratic = model.Funcs{
	LogP: func(x []float64) model.LogP {
		if math.Abs(x[0]) > 10 {
			return model.Infeasible()
		}
		s := 0.0
		for _, v := range x {
			s += v * v
		}
		return model.Finite(-0.5 * s)
	},
	Grad: func(dst, x []float64) {
		for i, v := range x {
			dst[i] = -v
		}
	},
}

func newAdapter(t *testing.T, x0 ...float64) (*model.VarAdapter, []*vectorize.Var) {
	t.Helper()
	vars := make([]vectorize.Variable, len(x0))
	out := make([]*vectorize.Var, len(x0))
	for i, v := range x0 {
		out[i] = vectorize.NewScalar(string(rune('a'+i)), v)
		vars[i] = out[i]
	}
	m, err := vectorize.New(vars...)
	require.NoError(t, err)
	a, err := model.NewVarAdapter(m, quadratic)
	require.NoError(t, err)

	return a, out
}

func TestLogP(t *testing.T) {
	v, ok := model.Finite(-1.5).Value()
	require.True(t, ok)
	require.Equal(t, -1.5, v)

	require.False(t, model.Finite(math.Inf(-1)).Feasible())
	require.False(t, model.Finite(math.NaN()).Feasible())
	require.False(t, model.LogP{}.Feasible())
	require.False(t, model.Finite(1).Add(model.Infeasible()).Feasible())
	require.Equal(t, "infeasible", model.Infeasible().String())
	require.Equal(t, "3", model.Finite(1).Add(model.Finite(2)).String())
}

func TestStageCommitRevert(t *testing.T) {
	a, vars := newAdapter(t, 1, 2)
	require.Equal(t, model.Committed, a.State())

	require.NoError(t, a.SetTrial([]float64{3, 4}))
	require.Equal(t, model.Staged, a.State())
	require.Equal(t, 3.0, vars[0].Scalar(), "variables hold the staged position")
	require.Equal(t, []float64{1, 2}, a.CommittedVector())

	a.Revert()
	require.Equal(t, model.Committed, a.State())
	require.Equal(t, []float64{1, 2}, a.Vector())
	require.Equal(t, 1.0, vars[0].Scalar())

	require.NoError(t, a.SetTrial([]float64{5, 6}))
	a.Commit()
	require.Equal(t, []float64{5, 6}, a.CommittedVector())
	a.Revert() // no-op in Committed
	require.Equal(t, []float64{5, 6}, a.Vector())
	require.Equal(t, 1, a.Reverts())
}

func TestSetTrialOverStagedRevertsFirst(t *testing.T) {
	a, _ := newAdapter(t, 0, 0)
	require.NoError(t, a.SetTrial([]float64{1, 1}))
	require.NoError(t, a.SetTrial([]float64{2, 2}))
	require.Equal(t, 1, a.Reverts(), "second SetTrial reverts the first")
	require.Equal(t, []float64{0, 0}, a.CommittedVector())

	a.Revert()
	require.Equal(t, []float64{0, 0}, a.Vector())
	require.Equal(t, 2, a.Reverts())

	require.ErrorIs(t, a.SetTrial([]float64{1}), vectorize.ErrDimensionMismatch)
}

// positive is a scalar that refuses values <= 0.
type positive struct{ *vectorize.Var }

func (p *positive) SetValue(v []float64) error {
	if len(v) == 1 && v[0] <= 0 {
		return fmt.Errorf("%s must be positive, got %g", p.Name(), v[0])
	}
	return p.Var.SetValue(v)
}

func TestSetTrialRejectedLeavesCommittedValues(t *testing.T) {
	x := vectorize.NewScalar("x", 1)
	scale := &positive{vectorize.NewScalar("scale", 2)}
	m, err := vectorize.New(x, scale)
	require.NoError(t, err)
	a, err := model.NewVarAdapter(m, quadratic)
	require.NoError(t, err)

	require.Error(t, a.SetTrial([]float64{9, -1}))
	require.Equal(t, model.Committed, a.State())
	require.Equal(t, 1.0, x.Scalar(), "x must not keep the rejected trial value")
	require.Equal(t, 2.0, scale.Scalar())
	require.Equal(t, []float64{1, 2}, a.CommittedVector())
	require.Equal(t, []float64{1, 2}, m.ToVector())

	// A staged trial is discarded before the rejected one.
	require.NoError(t, a.SetTrial([]float64{3, 4}))
	require.Error(t, a.SetTrial([]float64{5, 0}))
	require.Equal(t, model.Committed, a.State())
	require.Equal(t, []float64{1, 2}, a.Vector())
	require.Equal(t, []float64{1, 2}, m.ToVector())
}

func TestEvaluationAndCache(t *testing.T) {
	a, _ := newAdapter(t, 1, 2)
	lp, ok := a.LogDensity().Value()
	require.True(t, ok)
	require.Equal(t, -2.5, lp)
	g, ok := a.Gradient()
	require.True(t, ok)
	require.Equal(t, []float64{-1, -2}, g)

	require.NoError(t, a.SetTrial([]float64{20, 0}))
	require.False(t, a.LogDensity().Feasible())
	_, ok = a.Gradient()
	require.False(t, ok)

	a.Revert()
	_, _ = a.Gradient()
	d, gr := a.Evaluations()
	require.Equal(t, 2, d, "committed evaluation is reused after revert")
	require.Equal(t, 1, gr)
}

func TestGaussianTarget(t *testing.T) {
	cov, err := matrix.NewDiagonal([]float64{4, 0.25})
	require.NoError(t, err)
	g, err := model.NewGaussian([]float64{1, -1}, cov)
	require.NoError(t, err)

	lp, ok := g.LogDensity([]float64{1, -1}).Value()
	require.True(t, ok)
	// log N(μ; μ, Σ) = -log(2π) - ½ log det Σ, det Σ = 1
	require.InDelta(t, -math.Log(2*math.Pi), lp, 1e-12)

	dst := make([]float64, 2)
	g.Gradient(dst, []float64{3, 0})
	require.InDeltaSlice(t, []float64{-0.5, -4}, dst, 1e-12)

	bad, err := matrix.NewDenseFrom(2, 2, []float64{1, 2, 2, 1})
	require.NoError(t, err)
	_, err = model.NewGaussian([]float64{0, 0}, bad)
	require.ErrorIs(t, err, matrix.ErrNotPositiveDefinite)
}

func TestBoundedTarget(t *testing.T) {
	b, err := model.NewBounded(quadratic, []float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	require.True(t, b.LogDensity([]float64{0.5, 1}).Feasible())
	require.False(t, b.LogDensity([]float64{-0.1, 0.5}).Feasible())

	dst := make([]float64, 2)
	b.Gradient(dst, []float64{0.5, 0.5})
	require.Equal(t, []float64{-0.5, -0.5}, dst)

	_, err = model.NewBounded(quadratic, []float64{0}, []float64{1, 2})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}
