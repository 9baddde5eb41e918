package hmc

import (
	"fmt"
	"math"
)

// Stats tallies step outcomes.
type Stats struct {
	Steps         int     // Step calls
	Accepted      int     // committed proposals
	Infeasible    int     // trajectories rejected for leaving the support
	NonFinite     int     // proposals rejected for a non-finite energy difference
	SumAcceptance float64 // sum of AcceptanceProbability over all steps
}

// AcceptanceRate is Accepted/Steps, or 0 before the first step.
func (s Stats) AcceptanceRate() float64 {
	if s.Steps == 0 {
		return 0
	}

	return float64(s.Accepted) / float64(s.Steps)
}

// MeanAcceptance is the mean recorded acceptance probability.
func (s Stats) MeanAcceptance() float64 {
	if s.Steps == 0 {
		return 0
	}

	return s.SumAcceptance / float64(s.Steps)
}

// outcome of one step, for the tally.
type outcome int

const (
	rejected outcome = iota
	accepted
	infeasible
	nonFinite
)

// Step performs one proposal and accept/reject cycle. On return the adapter
// is committed, either at the proposal or at the previous position.
//
// Only adapter failures are returned as errors; the adapter is reverted first.
func (e *Engine) Step() error {
	e.a.Revert()

	eps := e.stepSize
	if e.stepDraw != nil {
		eps = e.stepDraw.Rand()
	}
	n := e.leapfrogCount(eps)
	e.stepSize, e.steps = eps, n

	lp0, ok0 := e.a.LogDensity().Value()
	p0 := e.momentum.Rand(nil)

	in := Integrator{Covariance: e.covariance, StepSize: eps, Steps: n}
	tr, err := in.Propose(e.a, p0)
	if err != nil {
		e.a.Revert()
		return fmt.Errorf("hmc: Step: %w", err)
	}
	if !ok0 || !tr.Feasible {
		e.reject(infeasible)
		return nil
	}
	lp1, ok1 := e.a.LogDensity().Value()
	if !ok1 {
		e.reject(infeasible)
		return nil
	}

	k0, err := e.KineticEnergy(p0)
	if err != nil {
		e.a.Revert()
		return fmt.Errorf("hmc: Step: %w", err)
	}
	k1, err := e.KineticEnergy(tr.Momentum)
	if err != nil {
		e.a.Revert()
		return fmt.Errorf("hmc: Step: %w", err)
	}

	ratio := (-lp0) - (-lp1) + k0 - k1
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		e.logger.Debug("hmc: non-finite acceptance ratio", "logp0", lp0, "logp1", lp1, "k0", k0, "k1", k1)
		e.reject(nonFinite)
		return nil
	}

	e.acceptance = math.Min(math.Exp(ratio), 1)
	if math.Log(e.coin.Rand()) < ratio {
		e.a.Commit()
		e.record(accepted)
		return nil
	}
	e.a.Revert()
	e.record(rejected)

	return nil
}

func (e *Engine) reject(why outcome) {
	e.a.Revert()
	e.acceptance = 0
	if why == infeasible {
		e.logger.Debug("hmc: infeasible trajectory rejected", "step_size", e.stepSize, "leapfrog_steps", e.steps)
	}
	e.record(why)
}

func (e *Engine) record(o outcome) {
	if !e.opts.tally {
		return
	}
	e.stats.Steps++
	e.stats.SumAcceptance += e.acceptance
	switch o {
	case accepted:
		e.stats.Accepted++
	case infeasible:
		e.stats.Infeasible++
	case nonFinite:
		e.stats.NonFinite++
	}
}
