package mode

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/katalvlaran/gradsample/matrix"
	"github.com/katalvlaran/gradsample/model"
)

// Result of a mode search.
type Result struct {
	// X is the best position found; the adapter is committed there.
	X []float64
	// LogP is log p(X).
	LogP model.LogP
	// InvHessian is the BFGS estimate of the inverse Hessian of -log p at X,
	// a covariance approximation. Nil when no curvature update took place.
	InvHessian *matrix.Dense
	// Iterations counts major iterations; Evaluations counts positions staged.
	Iterations, Evaluations int
	// Status reports why the search stopped.
	Status optimize.Status
}

// Curvature returns the inverse-Hessian estimate.
//
// Errors:
//   - ErrNoCurvature when the search made no curvature update.
func (r Result) Curvature() (*matrix.Dense, error) {
	if r.InvHessian == nil {
		return nil, ErrNoCurvature
	}

	return r.InvHessian, nil
}

const evalMask = optimize.FuncEvaluation | optimize.GradEvaluation | optimize.HessEvaluation

// objective presents -log p and -∇log p of an adapter to the optimizer.
type objective struct {
	a     model.Adapter
	evals int

	bestX []float64
	bestF float64
}

// evaluate stages x and fills what op asks for. Infeasible positions report
// InfeasibleObjective and a zero gradient.
func (o *objective) evaluate(op optimize.Operation, loc *optimize.Location) error {
	if err := o.a.SetTrial(loc.X); err != nil {
		return err
	}
	o.evals++

	lp, feasible := o.a.LogDensity().Value()
	f := InfeasibleObjective
	if feasible {
		f = math.Min(-lp, InfeasibleObjective)
	}
	if op&optimize.FuncEvaluation != 0 {
		loc.F = f
	}
	if op&optimize.GradEvaluation != 0 {
		g, ok := o.a.Gradient()
		if !ok {
			clear(loc.Gradient)
		} else {
			for i, v := range g {
				loc.Gradient[i] = -v
			}
		}
	}
	if feasible && f < o.bestF {
		o.bestF = f
		copy(o.bestX, loc.X)
	}

	return nil
}

// Find maximizes log p starting from the adapter's committed position.
//
// Errors:
//   - ErrInfeasibleStart when the starting position has zero probability.
//   - Adapter errors from SetTrial, wrapped.
//
// A search that ends because the line search stalls is not an error; the
// best position seen is returned with Status optimize.Success, or
// optimize.Failure if the line searcher itself failed.
func Find(a model.Adapter, opts ...Option) (Result, error) {
	o := defaultOptions()
	for _, set := range opts {
		set(&o)
	}
	d := a.Dimensions()
	maxIter := o.maxIter
	if maxIter == 0 {
		maxIter = DefaultIterationsPerDim * d
	}

	a.Revert()
	x0 := a.CommittedVector()
	obj := &objective{a: a, bestX: slices.Clone(x0), bestF: math.Inf(1)}
	loc := &optimize.Location{X: slices.Clone(x0), Gradient: make([]float64, d)}
	if err := obj.evaluate(optimize.FuncEvaluation|optimize.GradEvaluation, loc); err != nil {
		a.Revert()
		return Result{}, fmt.Errorf("mode: Find: %w", err)
	}
	if math.IsInf(obj.bestF, 1) {
		a.Revert()
		return Result{}, ErrInfeasibleStart
	}

	dir := &bfgs{}
	method := &optimize.LinesearchMethod{NextDirectioner: dir, Linesearcher: o.ls()}
	status := optimize.NotTerminated
	iter := 0

	if floats.Norm(loc.Gradient, math.Inf(1)) < o.gradThresh {
		status = optimize.GradientThreshold
	} else {
		op, err := method.Init(loc)
	search:
		for err == nil {
			switch {
			case op&evalMask != 0:
				if err = obj.evaluate(op, loc); err != nil {
					a.Revert()
					return Result{}, fmt.Errorf("mode: Find: %w", err)
				}
			case op == optimize.MajorIteration:
				iter++
				o.logger.Debug("mode: iteration", "iter", iter, "neglogp", loc.F)
				if floats.Norm(loc.Gradient, math.Inf(1)) < o.gradThresh {
					status = optimize.GradientThreshold
					break search
				}
				if iter >= maxIter {
					status = optimize.IterationLimit
					break search
				}
			default:
				status = optimize.Failure
				break search
			}
			op, err = method.Iterate(loc)
		}
		switch {
		case err == nil:
		case errors.Is(err, optimize.ErrNoProgress), errors.Is(err, optimize.ErrNonDescentDirection):
			status = optimize.Success
		default:
			o.logger.Warn("mode: line search failed", "err", err, "iter", iter)
			status = optimize.Failure
		}
	}

	// Leave the adapter committed at the best position.
	if err := a.SetTrial(obj.bestX); err != nil {
		a.Revert()
		return Result{}, fmt.Errorf("mode: Find: %w", err)
	}
	a.Commit()

	res := Result{
		X:           slices.Clone(obj.bestX),
		LogP:        a.LogDensity(),
		Iterations:  iter,
		Evaluations: obj.evals,
		Status:      status,
	}
	if h := dir.estimate(); h != nil {
		inv, err := matrix.FromGonum(h)
		if err == nil {
			res.InvHessian = inv
		}
	}
	o.logger.Info("mode: found", "iterations", iter, "evaluations", obj.evals,
		"logp", res.LogP.String(), "status", status.String())

	return res, nil
}
