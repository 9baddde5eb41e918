package hmc

import (
	"log/slog"
	"math"

	"github.com/katalvlaran/gradsample/hessian"
	"github.com/katalvlaran/gradsample/matrix"
	"github.com/katalvlaran/gradsample/mode"
)

// Curvature selects how the covariance is estimated when none is supplied.
type Curvature int

const (
	// CurvatureHessian inverts a finite-difference Hessian of -log p.
	CurvatureHessian Curvature = iota
	// CurvatureOptimizer reuses the mode finder's BFGS inverse Hessian,
	// falling back to CurvatureHessian when no estimate exists.
	CurvatureOptimizer
)

func (c Curvature) String() string {
	switch c {
	case CurvatureHessian:
		return "hessian"
	case CurvatureOptimizer:
		return "optimizer"
	default:
		return "unknown"
	}
}

// Defaults.
const (
	// DefaultStepSizeScaling s gives the step size ε = s / d^¼.
	DefaultStepSizeScaling = 0.25

	// DefaultTrajectoryLength L gives the leapfrog count n = ⌊L/ε⌋, at least 1.
	DefaultTrajectoryLength = 2.0

	// DefaultFindMode runs the mode finder before estimating curvature.
	DefaultFindMode = true

	// DefaultTally records Stats on every step.
	DefaultTally = true
)

const (
	panicStepSize   = "hmc: WithStepSize: step must be finite and > 0"
	panicStepRange  = "hmc: WithStepSizeRange: need 0 < min <= max < Inf"
	panicScaling    = "hmc: WithStepSizeScaling: scaling must be finite and > 0"
	panicTrajectory = "hmc: WithTrajectoryLength: length must be finite and > 0"
	panicLeapfrog   = "hmc: WithLeapfrogSteps: n must be > 0"
	panicCurvature  = "hmc: WithCurvature: unknown strategy"
)

// Option configures New. Constructors panic only on nonsensical values.
type Option func(*options)

type options struct {
	stepSize         float64 // > 0 when fixed
	stepMin, stepMax float64 // > 0 when drawn per step
	scaling          float64
	trajectory       float64
	leapfrog         int // 0 => derived from trajectory
	covariance       matrix.Matrix
	findMode         bool
	curvature        Curvature
	hessOpts         []hessian.Option
	modeOpts         []mode.Option
	tally            bool
	seed             uint64
	logger           *slog.Logger
}

func defaultOptions() options {
	return options{
		scaling:    DefaultStepSizeScaling,
		trajectory: DefaultTrajectoryLength,
		findMode:   DefaultFindMode,
		curvature:  CurvatureHessian,
		tally:      DefaultTally,
		logger:     slog.Default(),
	}
}

func positiveFinite(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

// WithStepSize fixes the leapfrog step size. It overrides WithStepSizeRange
// and WithStepSizeScaling.
func WithStepSize(eps float64) Option {
	if !positiveFinite(eps) {
		panic(panicStepSize)
	}

	return func(o *options) {
		o.stepSize = eps
		o.stepMin, o.stepMax = 0, 0
	}
}

// WithStepSizeRange draws a fresh step size uniformly from [min, max] on every
// step. It overrides WithStepSize.
func WithStepSizeRange(min, max float64) Option {
	if !positiveFinite(min) || !positiveFinite(max) || min > max {
		panic(panicStepRange)
	}

	return func(o *options) {
		o.stepMin, o.stepMax = min, max
		o.stepSize = 0
	}
}

// WithStepSizeScaling sets s in ε = s / d^¼ (used when no explicit step size
// or range is configured).
func WithStepSizeScaling(s float64) Option {
	if !positiveFinite(s) {
		panic(panicScaling)
	}

	return func(o *options) { o.scaling = s }
}

// WithTrajectoryLength sets L in n = ⌊L/ε⌋.
func WithTrajectoryLength(l float64) Option {
	if !positiveFinite(l) {
		panic(panicTrajectory)
	}

	return func(o *options) { o.trajectory = l }
}

// WithLeapfrogSteps fixes the leapfrog count, ignoring the trajectory length.
func WithLeapfrogSteps(n int) Option {
	if n <= 0 {
		panic(panicLeapfrog)
	}

	return func(o *options) { o.leapfrog = n }
}

// WithCovariance supplies the covariance Σ, skipping curvature estimation.
// The matrix is copied at construction.
func WithCovariance(m matrix.Matrix) Option {
	return func(o *options) { o.covariance = m }
}

// WithFindMode toggles mode finding at construction (default true).
func WithFindMode(on bool) Option {
	return func(o *options) { o.findMode = on }
}

// WithCurvature selects the curvature strategy (default CurvatureHessian).
func WithCurvature(c Curvature) Option {
	if c != CurvatureHessian && c != CurvatureOptimizer {
		panic(panicCurvature)
	}

	return func(o *options) { o.curvature = c }
}

// WithHessianOptions forwards options to hessian.Approximate.
func WithHessianOptions(opts ...hessian.Option) Option {
	return func(o *options) { o.hessOpts = append(o.hessOpts, opts...) }
}

// WithModeOptions forwards options to mode.Find.
func WithModeOptions(opts ...mode.Option) Option {
	return func(o *options) { o.modeOpts = append(o.modeOpts, opts...) }
}

// WithTally toggles Stats recording (default true).
func WithTally(on bool) Option {
	return func(o *options) { o.tally = on }
}

// WithSeed seeds the engine's random source; 0 selects a fixed default seed.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithLogger sets the logger, also handed to the mode finder and Hessian
// approximator. nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
