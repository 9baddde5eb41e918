package mode

import "errors"

var (
	// ErrInfeasibleStart indicates that the starting position has zero probability.
	ErrInfeasibleStart = errors.New("mode: starting position is infeasible")

	// ErrNoCurvature indicates that no BFGS update took place, so no inverse
	// Hessian estimate exists.
	ErrNoCurvature = errors.New("mode: no curvature estimate available")
)
