// Package chain drives a proposal engine for a fixed number of iterations,
// discarding a burn-in prefix and keeping every Thin-th draw after it.
//
// Draw i (0-based) is kept when i >= Burn and (i-Burn) % Thin == 0, so a run of
// Iterations draws yields ⌈(Iterations-Burn)/Thin⌉ samples. Kept samples are
// handed to a Sink in order; Run stops at the first Step or Sink error and
// checks the context between steps.
package chain
