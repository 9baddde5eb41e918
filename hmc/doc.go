// Package hmc implements the Hamiltonian Monte Carlo step engine.
//
// An Engine owns a mass matrix pair: the covariance Σ, used as the metric of
// the position update x += ε·Σ·p and of the kinetic energy ½·pᵀΣp, and its
// inverse, the precision, used as the covariance of the momentum draw.
//
// Construction follows a fixed policy:
//
//  1. optionally relocate the chain to a mode of log p (package mode);
//  2. take Σ from WithCovariance, or estimate it at the current position:
//     CurvatureHessian inverts a finite-difference Hessian (package hessian),
//     CurvatureOptimizer reuses the mode finder's BFGS inverse Hessian and
//     falls back to the Hessian when none exists;
//  3. invert Σ and check positive definiteness. Failures surface as a
//     *CovarianceError matching ErrSingularCovariance.
//
// Each Step draws a momentum, runs a leapfrog trajectory through the model
// adapter, negates the final momentum and applies a Metropolis–Hastings test.
// Infeasible trajectories and non-finite energy differences are rejections,
// never errors.
//
// Engines are not safe for concurrent use.
package hmc
