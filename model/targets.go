package model

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat/distmv"

	"github.com/katalvlaran/gradsample/matrix"
)

// Gaussian is the multivariate normal target N(μ, Σ).
type Gaussian struct {
	mu        []float64
	precision matrix.Matrix
	dist      *distmv.Normal
}

var _ Target = (*Gaussian)(nil)

// NewGaussian returns N(mu, cov).
//
// Errors:
//   - matrix.ErrDimensionMismatch when cov is not len(mu)×len(mu).
//   - matrix.ErrAsymmetry, matrix.ErrNotPositiveDefinite, matrix.ErrSingular
//     for an invalid covariance.
func NewGaussian(mu []float64, cov matrix.Matrix) (*Gaussian, error) {
	if err := matrix.ValidateSquareNonNil(cov); err != nil {
		return nil, fmt.Errorf("model: NewGaussian: %w", err)
	}
	if cov.Rows() != len(mu) {
		return nil, fmt.Errorf("model: NewGaussian: cov %dx%d for mean of %d: %w",
			cov.Rows(), cov.Cols(), len(mu), matrix.ErrDimensionMismatch)
	}
	sym, err := matrix.ToSymDense(cov)
	if err != nil {
		return nil, fmt.Errorf("model: NewGaussian: %w", err)
	}
	dist, ok := distmv.NewNormal(mu, sym, nil)
	if !ok {
		return nil, fmt.Errorf("model: NewGaussian: %w", matrix.ErrNotPositiveDefinite)
	}
	prec, err := matrix.Inverse(cov)
	if err != nil {
		return nil, fmt.Errorf("model: NewGaussian: %w", err)
	}

	return &Gaussian{mu: slices.Clone(mu), precision: prec, dist: dist}, nil
}

// LogDensity implements Target.
func (g *Gaussian) LogDensity(x []float64) LogP {
	return Finite(g.dist.LogProb(x))
}

// Gradient implements Target: ∇log p(x) = -Σ⁻¹(x-μ).
func (g *Gaussian) Gradient(dst, x []float64) {
	d := make([]float64, len(x))
	for i := range x {
		d[i] = g.mu[i] - x[i]
	}
	// Shapes were validated at construction.
	v, _ := matrix.MatVec(g.precision, d)
	copy(dst, v)
}

// Bounded restricts a target to the box [Lo, Hi]; positions outside are
// Infeasible. Bounds are inclusive.
type Bounded struct {
	Target
	Lo, Hi []float64
}

var _ Target = (*Bounded)(nil)

// NewBounded wraps t. lo and hi must have equal lengths with lo[i] <= hi[i].
func NewBounded(t Target, lo, hi []float64) (*Bounded, error) {
	if len(lo) != len(hi) {
		return nil, fmt.Errorf("model: NewBounded: %d lower vs %d upper bounds: %w",
			len(lo), len(hi), matrix.ErrDimensionMismatch)
	}
	for i := range lo {
		if lo[i] > hi[i] {
			return nil, fmt.Errorf("model: NewBounded: coordinate %d: lower %g > upper %g", i, lo[i], hi[i])
		}
	}

	return &Bounded{Target: t, Lo: slices.Clone(lo), Hi: slices.Clone(hi)}, nil
}

// Contains reports whether x lies inside the box.
func (b *Bounded) Contains(x []float64) bool {
	if len(x) != len(b.Lo) {
		return false
	}
	for i, v := range x {
		if v < b.Lo[i] || v > b.Hi[i] {
			return false
		}
	}

	return true
}

// LogDensity implements Target.
func (b *Bounded) LogDensity(x []float64) LogP {
	if !b.Contains(x) {
		return Infeasible()
	}

	return b.Target.LogDensity(x)
}
