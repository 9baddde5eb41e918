// Package model is the narrow evaluation surface the samplers consume.
//
// It defines:
//
//   - LogP, a log-density that is either a finite value or the Infeasible
//     marker (the position has zero probability).
//   - Adapter, the staged/committed evaluation protocol: SetTrial stages a
//     candidate position, Commit keeps it, Revert restores the committed one.
//     At most one trial is staged at a time; staging over a staged trial
//     reverts it first.
//   - Target, what a concrete model implements (log-density and gradient of a
//     flat vector), and VarAdapter, the Adapter that drives a Target through
//     a vectorize.Mapper so the model's variables always hold the position in
//     effect.
//   - Stock targets: Gaussian and Bounded.
package model
