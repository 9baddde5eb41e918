// Package mode locates a local maximum of a model's log-density.
//
// Find minimizes -log p with a BFGS quasi-Newton method over a gonum line
// search. Infeasible positions never reach the optimizer as non-finite
// numbers: the objective there is the large finite InfeasibleObjective and
// the gradient is zero, so line searches back away from them.
//
// On return the adapter is committed at the best position found, and the
// Result carries the optimizer's inverse-Hessian estimate when at least one
// curvature update took place.
package mode
