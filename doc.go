// Package gradsample is a gradient-based proposal engine for Markov chain
// Monte Carlo: it finds the mode of a log-density, approximates its curvature
// there and uses the result as the mass matrix of Hamiltonian Monte Carlo.
//
// Everything is organized under small subpackages:
//
//	matrix/      dense row-major matrices, LU/Cholesky/inverse, covariance
//	vectorize/   flatten named, shaped variables into one float64 vector and back
//	model/       log-density results, the staged/committed model adapter, stock targets
//	mode/        BFGS mode finder over -log p
//	hessian/     finite-difference Hessian of log p at a point
//	hmc/         the HMC step engine: momentum draw, leapfrog, Metropolis test
//	chain/       burn-in / thinning driver around any stepper
//	trace/       SQLite store for chain draws and their summaries
//
// Quick example:
//
//	m, _ := vectorize.New(vectorize.NewScalar("x", 5))
//	a, _ := model.NewVarAdapter(m, model.Funcs{...})
//	e, _ := hmc.New(a, hmc.WithSeed(1))
//	for i := 0; i < 1000; i++ {
//		_ = e.Step()
//	}
//
// The cmd/hmcsample program runs the bundled example models from the command line.
package gradsample
