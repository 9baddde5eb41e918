package mode

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Defaults.
const (
	// DefaultGradientThreshold stops the search once ‖∇log p‖∞ falls below it.
	DefaultGradientThreshold = 1e-6

	// DefaultIterationsPerDim bounds major iterations at this many per dimension
	// unless WithMaxIterations overrides it.
	DefaultIterationsPerDim = 200

	// InfeasibleObjective is the objective reported at infeasible positions.
	InfeasibleObjective = 3e102
)

const (
	panicMaxIterations = "mode: WithMaxIterations: n must be > 0"
	panicThreshold     = "mode: WithGradientThreshold: threshold must be finite and > 0"
	panicLinesearcher  = "mode: WithLinesearcher: nil linesearcher"
)

// Option configures Find.
type Option func(*options)

type options struct {
	maxIter    int // 0 => DefaultIterationsPerDim * d
	gradThresh float64
	ls         func() optimize.Linesearcher
	logger     *slog.Logger
}

func defaultOptions() options {
	return options{
		gradThresh: DefaultGradientThreshold,
		ls:         func() optimize.Linesearcher { return &optimize.Bisection{} },
		logger:     slog.Default(),
	}
}

// WithMaxIterations bounds the number of major iterations. Panics if n <= 0.
func WithMaxIterations(n int) Option {
	if n <= 0 {
		panic(panicMaxIterations)
	}

	return func(o *options) { o.maxIter = n }
}

// WithGradientThreshold sets the ‖∇log p‖∞ convergence threshold.
func WithGradientThreshold(th float64) Option {
	if !(th > 0) || math.IsInf(th, 0) {
		panic(panicThreshold)
	}

	return func(o *options) { o.gradThresh = th }
}

// WithLinesearcher replaces the default optimize.Bisection line search.
// newLS is called once per Find, so stateful line searchers are not shared.
func WithLinesearcher(newLS func() optimize.Linesearcher) Option {
	if newLS == nil {
		panic(panicLinesearcher)
	}

	return func(o *options) { o.ls = newLS }
}

// WithLogger sets the logger for progress records. nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
