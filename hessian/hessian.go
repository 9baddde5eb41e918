// Package hessian estimates the curvature of a model's log-density by finite
// differences of its analytic gradient.
//
// Each probe stages a perturbed position on the adapter, reads the gradient
// and reverts, so Approximate has no net effect on the committed state.
package hessian

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gradsample/matrix"
	"github.com/katalvlaran/gradsample/model"
)

// Scheme selects the finite-difference formula.
type Scheme int

const (
	// Central differences: (g(x+h) - g(x-h)) / 2h, two probes per coordinate.
	Central Scheme = iota
	// Forward differences: (g(x+h) - g(x)) / h, one probe per coordinate plus the origin.
	Forward
)

func (s Scheme) String() string {
	switch s {
	case Central:
		return "central"
	case Forward:
		return "forward"
	default:
		return "unknown"
	}
}

// DefaultStep is the perturbation size; zero defers to the formula's own
// default step in gonum's fd package.
const DefaultStep = 0

const panicStep = "hessian: WithStep: step must be finite and >= 0"

// Option configures Approximate.
type Option func(*options)

type options struct {
	scheme Scheme
	step   float64
	logger *slog.Logger
}

// WithScheme selects Central (default) or Forward differences.
func WithScheme(s Scheme) Option { return func(o *options) { o.scheme = s } }

// WithStep sets the perturbation size. Panics on negative or non-finite input.
func WithStep(h float64) Option {
	if h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		panic(panicStep)
	}

	return func(o *options) { o.step = h }
}

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Approximate returns -(J + Jᵀ)/2 where J is the finite-difference Jacobian
// of ∇log p at x. This is the Hessian of -log p; at a mode it is positive
// definite and serves as a precision estimate whose inverse is a covariance.
//
// Errors:
//   - matrix.ErrDimensionMismatch when len(x) != a.Dimensions().
//   - model.ErrInfeasible when a probe lands outside the support; the error
//     names the probe.
//   - Adapter errors from SetTrial, wrapped.
func Approximate(a model.Adapter, x []float64, opts ...Option) (*matrix.Dense, error) {
	o := options{scheme: Central, step: DefaultStep, logger: slog.Default()}
	for _, set := range opts {
		set(&o)
	}
	n := a.Dimensions()
	if len(x) != n {
		return nil, fmt.Errorf("hessian: Approximate: len %d, want %d: %w", len(x), n, matrix.ErrDimensionMismatch)
	}
	a.Revert()

	var (
		probes  int
		failure error
	)
	grad := func(y, p []float64) {
		defer a.Revert()
		probes++
		if failure != nil {
			clear(y)
			return
		}
		if err := a.SetTrial(p); err != nil {
			failure = err
			clear(y)
			return
		}
		g, ok := a.Gradient()
		if !ok {
			failure = fmt.Errorf("probe %d at %v: %w", probes, p, model.ErrInfeasible)
			clear(y)
			return
		}
		copy(y, g)
	}

	settings := &fd.JacobianSettings{Step: o.step}
	switch o.scheme {
	case Forward:
		settings.Formula = fd.Forward
	default:
		settings.Formula = fd.Central
	}
	// Concurrent stays false: the adapter holds one staged position at a time.
	jac := mat.NewDense(n, n, nil)
	fd.Jacobian(jac, grad, x, settings)
	if failure != nil {
		return nil, fmt.Errorf("hessian: Approximate: %w", failure)
	}

	J, err := matrix.FromGonum(jac)
	if err != nil {
		return nil, fmt.Errorf("hessian: Approximate: %w", err)
	}
	sym, err := matrix.Symmetrize(J)
	if err != nil {
		return nil, fmt.Errorf("hessian: Approximate: %w", err)
	}
	neg, err := matrix.Scale(sym, -1)
	if err != nil {
		return nil, fmt.Errorf("hessian: Approximate: %w", err)
	}
	o.logger.Debug("hessian: approximated", "dims", n, "scheme", o.scheme.String(), "probes", probes)

	return neg.(*matrix.Dense), nil
}
