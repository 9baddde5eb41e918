package hmc

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/gradsample/matrix"
	"github.com/katalvlaran/gradsample/model"
)

// KineticEnergy returns ½·pᵀ·Σ·p.
func KineticEnergy(covariance matrix.Matrix, p []float64) (float64, error) {
	q, err := matrix.QuadForm(covariance, p)
	if err != nil {
		return 0, fmt.Errorf("hmc: KineticEnergy: %w", err)
	}

	return 0.5 * q, nil
}

// Integrator is the leapfrog map for a fixed metric, step size and step count.
type Integrator struct {
	Covariance matrix.Matrix
	StepSize   float64
	Steps      int
}

// Trajectory is the outcome of one integration.
type Trajectory struct {
	// Momentum at the end of the trajectory.
	Momentum []float64
	// Feasible is false when the trajectory reached a position whose gradient
	// is undefined; the adapter then holds that position staged and the
	// trajectory must be rejected.
	Feasible bool
	// Steps is the number of position updates performed.
	Steps int
}

// Run integrates from the adapter's committed position with momentum p:
//
//	p ← p + ε/2·∇log p(x)
//	repeat n times: x ← x + ε·Σ·p (staged); p ← p + ε·∇log p(x) except after the last
//	p ← p + ε/2·∇log p(x)
//
// The end position is left staged on the adapter. p is not modified.
func (in Integrator) Run(a model.Adapter, p []float64) (Trajectory, error) {
	if len(p) != a.Dimensions() {
		return Trajectory{}, fmt.Errorf("hmc: Run: momentum len %d, want %d: %w", len(p), a.Dimensions(), ErrDimensionMismatch)
	}
	a.Revert()
	x := a.CommittedVector()
	mom := slices.Clone(p)

	g, ok := a.Gradient()
	if !ok {
		return Trajectory{Momentum: mom}, nil
	}
	floats.AddScaled(mom, in.StepSize/2, g)

	for i := 0; i < in.Steps; i++ {
		v, err := matrix.MatVec(in.Covariance, mom)
		if err != nil {
			return Trajectory{}, fmt.Errorf("hmc: Run: %w", err)
		}
		floats.AddScaled(x, in.StepSize, v)
		if err = a.SetTrial(x); err != nil {
			return Trajectory{}, fmt.Errorf("hmc: Run: %w", err)
		}
		if g, ok = a.Gradient(); !ok {
			return Trajectory{Momentum: mom, Steps: i + 1}, nil
		}
		if i != in.Steps-1 {
			floats.AddScaled(mom, in.StepSize, g)
		}
	}
	floats.AddScaled(mom, in.StepSize/2, g)

	return Trajectory{Momentum: mom, Feasible: true, Steps: in.Steps}, nil
}

// Propose runs the integrator and negates the final momentum, which makes
// the map an involution: proposing again from the end state with the
// returned momentum leads back to the start.
func (in Integrator) Propose(a model.Adapter, p []float64) (Trajectory, error) {
	tr, err := in.Run(a, p)
	if err != nil {
		return tr, err
	}
	floats.Scale(-1, tr.Momentum)

	return tr, nil
}
