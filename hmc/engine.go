package hmc

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/katalvlaran/gradsample/hessian"
	"github.com/katalvlaran/gradsample/matrix"
	"github.com/katalvlaran/gradsample/mode"
	"github.com/katalvlaran/gradsample/model"
)

// Engine is a Hamiltonian Monte Carlo proposal engine bound to one adapter.
type Engine struct {
	a      model.Adapter
	opts   options
	logger *slog.Logger

	covariance *matrix.Dense
	precision  *matrix.Dense
	momentum   *distmv.Normal

	coin     distuv.Uniform  // U(0,1) for the Metropolis test
	stepDraw *distuv.Uniform // nil unless a step-size range is configured

	stepSize float64 // fixed, or the last drawn value
	steps    int     // last leapfrog count

	acceptance float64
	stats      Stats
}

// New builds an engine over a. See the package documentation for the
// initialization policy.
//
// Errors:
//   - ErrMissingCovariance when mode finding is disabled and no covariance is supplied.
//   - ErrDimensionMismatch when the supplied covariance is not d×d.
//   - *CovarianceError (matching ErrSingularCovariance) for an unusable covariance.
//   - mode finder and Hessian approximator errors, wrapped.
func New(a model.Adapter, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, set := range opts {
		set(&o)
	}
	d := a.Dimensions()
	a.Revert()

	if o.covariance != nil {
		if err := matrix.ValidateSquareNonNil(o.covariance); err != nil || o.covariance.Rows() != d {
			return nil, fmt.Errorf("hmc: New: covariance for %d dimensions: %w", d, ErrDimensionMismatch)
		}
	} else if !o.findMode {
		return nil, ErrMissingCovariance
	}

	e := &Engine{a: a, opts: o, logger: o.logger}

	var found *mode.Result
	if o.findMode {
		res, err := mode.Find(a, append([]mode.Option{mode.WithLogger(o.logger)}, o.modeOpts...)...)
		if err != nil {
			return nil, fmt.Errorf("hmc: New: %w", err)
		}
		found = &res
	}

	if err := e.initCovariance(found); err != nil {
		return nil, err
	}

	src := sourceFromSeed(o.seed)
	if err := e.initMomentum(src); err != nil {
		return nil, err
	}
	e.coin = distuv.Uniform{Min: 0, Max: 1, Src: src}

	switch {
	case o.stepSize > 0:
		e.stepSize = o.stepSize
	case o.stepMax > 0:
		e.stepDraw = &distuv.Uniform{Min: o.stepMin, Max: o.stepMax, Src: src}
		e.stepSize = (o.stepMin + o.stepMax) / 2
	default:
		e.stepSize = o.scaling / math.Pow(float64(d), 0.25)
	}
	e.steps = e.leapfrogCount(e.stepSize)

	e.logger.Info("hmc: initialized",
		"dims", d,
		"find_mode", o.findMode,
		"curvature", o.curvature.String(),
		"step_size", e.stepSize,
		"leapfrog_steps", e.steps)

	return e, nil
}

// initCovariance fills covariance and precision following the curvature policy.
func (e *Engine) initCovariance(found *mode.Result) error {
	o := e.opts
	if o.covariance != nil {
		cov, err := suppliedCovariance(o.covariance)
		if err != nil {
			return err
		}
		return e.setCovariance(cov, "supplied")
	}

	if o.curvature == CurvatureOptimizer {
		if found != nil {
			cov, err := found.Curvature()
			if err == nil {
				return e.setCovariance(cov, "optimizer")
			}
			e.logger.Info("hmc: optimizer curvature unavailable, using hessian", "reason", err)
		} else {
			e.logger.Info("hmc: optimizer curvature unavailable, using hessian", "reason", "mode search disabled")
		}
	}

	prec, err := hessian.Approximate(e.a, e.a.CommittedVector(),
		append([]hessian.Option{hessian.WithLogger(e.logger)}, o.hessOpts...)...)
	if err != nil {
		return fmt.Errorf("hmc: New: %w", err)
	}
	cov, err := matrix.Inverse(prec)
	if err != nil {
		return &CovarianceError{Source: "hessian", Matrix: prec, Cause: err}
	}

	return e.setCovariance(cov.(*matrix.Dense), "hessian")
}

// setCovariance symmetrizes cov, inverts it and checks positive definiteness.
func (e *Engine) setCovariance(cov *matrix.Dense, source string) error {
	sym, err := matrix.Symmetrize(cov)
	if err != nil {
		return &CovarianceError{Source: source, Matrix: cov, Cause: err}
	}
	if _, err = matrix.Cholesky(sym); err != nil {
		if errors.Is(err, matrix.ErrNotPositiveDefinite) {
			// Distinguish exact singularity for callers that care.
			if _, invErr := matrix.Inverse(sym); invErr != nil {
				err = invErr
			}
		}
		return &CovarianceError{Source: source, Matrix: cov, Cause: err}
	}
	prec, err := matrix.Inverse(sym)
	if err != nil {
		return &CovarianceError{Source: source, Matrix: cov, Cause: err}
	}
	prec, err = matrix.Symmetrize(prec)
	if err != nil {
		return &CovarianceError{Source: source, Matrix: cov, Cause: err}
	}
	e.covariance = sym.(*matrix.Dense)
	e.precision = prec.(*matrix.Dense)

	return nil
}

// initMomentum builds N(0, precision) on src.
func (e *Engine) initMomentum(src rand.Source) error {
	sym, err := matrix.ToSymDense(e.precision)
	if err != nil {
		return &CovarianceError{Source: "precision", Matrix: e.precision, Cause: err}
	}
	n, ok := distmv.NewNormal(make([]float64, e.a.Dimensions()), sym, src)
	if !ok {
		return &CovarianceError{Source: "precision", Matrix: e.precision, Cause: matrix.ErrNotPositiveDefinite}
	}
	e.momentum = n

	return nil
}

// SetCovariance reconfigures the mass matrix between steps.
func (e *Engine) SetCovariance(m matrix.Matrix) error {
	if err := matrix.ValidateSquareNonNil(m); err != nil || m.Rows() != e.a.Dimensions() {
		return fmt.Errorf("hmc: SetCovariance: %w", ErrDimensionMismatch)
	}
	cov, err := suppliedCovariance(m)
	if err != nil {
		return err
	}
	oldCov, oldPrec, oldMom := e.covariance, e.precision, e.momentum
	if err = e.setCovariance(cov, "supplied"); err != nil {
		return err
	}
	if err = e.initMomentum(e.coin.Src); err != nil {
		e.covariance, e.precision, e.momentum = oldCov, oldPrec, oldMom
		return err
	}

	return nil
}

// suppliedCovariance copies a caller's matrix after checking it is finite
// and symmetric.
func suppliedCovariance(m matrix.Matrix) (*matrix.Dense, error) {
	cov, err := denseCopy(m)
	if err == nil {
		_, err = matrix.ToSymDense(cov)
	}
	if err != nil {
		return nil, &CovarianceError{Source: "supplied", Matrix: m, Cause: err}
	}

	return cov, nil
}

func denseCopy(m matrix.Matrix) (*matrix.Dense, error) {
	n := m.Rows()
	out, err := matrix.NewDense(n, m.Cols())
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < m.Cols(); j++ {
			v, err := m.At(i, j)
			if err != nil {
				return nil, err
			}
			if err = out.Set(i, j, v); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// leapfrogCount resolves n for step size eps.
func (e *Engine) leapfrogCount(eps float64) int {
	if e.opts.leapfrog > 0 {
		return e.opts.leapfrog
	}

	return max(1, int(math.Floor(e.opts.trajectory/eps)))
}

// CurrentVector returns a copy of the committed position.
func (e *Engine) CurrentVector() []float64 { return e.a.CommittedVector() }

// AcceptanceProbability is min(exp(ratio), 1) of the last step; 0 after a
// rejected infeasible or non-finite proposal.
func (e *Engine) AcceptanceProbability() float64 { return e.acceptance }

// Covariance returns a copy of Σ.
func (e *Engine) Covariance() *matrix.Dense { return e.covariance.Clone().(*matrix.Dense) }

// Precision returns a copy of Σ⁻¹.
func (e *Engine) Precision() *matrix.Dense { return e.precision.Clone().(*matrix.Dense) }

// StepSize returns the step size of the last step (or the configured one
// before any step).
func (e *Engine) StepSize() float64 { return e.stepSize }

// LeapfrogSteps returns the leapfrog count of the last step.
func (e *Engine) LeapfrogSteps() int { return e.steps }

// KineticEnergy returns ½·pᵀ·Σ·p under the engine's covariance.
func (e *Engine) KineticEnergy(p []float64) (float64, error) {
	return KineticEnergy(e.covariance, p)
}

// Dimensions returns the model's dimensions.
func (e *Engine) Dimensions() int { return e.a.Dimensions() }

// Stats returns a snapshot of the tally.
func (e *Engine) Stats() Stats { return e.stats }
