package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// ErrInvalidConfig reports a Config that cannot describe a run.
var ErrInvalidConfig = errors.New("chain: invalid config")

// Stepper is the engine side of a run. *hmc.Engine satisfies it.
type Stepper interface {
	Step() error
	CurrentVector() []float64
}

// acceptanceReporter is implemented by steppers that expose the acceptance
// probability of their last step.
type acceptanceReporter interface {
	AcceptanceProbability() float64
}

// Sample is one kept draw.
type Sample struct {
	Index      int       // position among kept samples
	Iteration  int       // draw number the sample was taken at
	Vector     []float64 // committed position after the draw
	Acceptance float64   // acceptance probability of the draw, 0 if unknown
}

// Sink consumes kept samples.
type Sink interface {
	Record(Sample) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Sample) error

// Record implements Sink.
func (f SinkFunc) Record(s Sample) error { return f(s) }

// Collector is an in-memory Sink.
type Collector struct {
	Samples []Sample
}

// Record implements Sink.
func (c *Collector) Record(s Sample) error {
	c.Samples = append(c.Samples, s)
	return nil
}

// Vectors returns the kept positions in order.
func (c *Collector) Vectors() [][]float64 {
	out := make([][]float64, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = slices.Clone(s.Vector)
	}

	return out
}

// Config describes a run.
type Config struct {
	Iterations int          // total draws, burn-in included; > 0
	Burn       int          // leading draws discarded; 0 <= Burn < Iterations
	Thin       int          // keep every Thin-th draw after burn-in; 0 means 1
	Logger     *slog.Logger // nil means slog.Default()
}

func (c Config) validate() error {
	switch {
	case c.Iterations <= 0:
		return fmt.Errorf("iterations %d: %w", c.Iterations, ErrInvalidConfig)
	case c.Burn < 0 || c.Burn >= c.Iterations:
		return fmt.Errorf("burn %d for %d iterations: %w", c.Burn, c.Iterations, ErrInvalidConfig)
	case c.Thin < 0:
		return fmt.Errorf("thin %d: %w", c.Thin, ErrInvalidConfig)
	}

	return nil
}

// Kept returns the number of samples a run with c hands to its sink.
func (c Config) Kept() int {
	if c.validate() != nil {
		return 0
	}
	thin := max(c.Thin, 1)

	return (c.Iterations - c.Burn + thin - 1) / thin
}

// Result summarizes a finished or interrupted run.
type Result struct {
	Iterations int // draws performed
	Kept       int // samples recorded
}

// Run performs cfg.Iterations steps of s, recording kept samples in sink.
// On cancellation it returns the partial Result and ctx.Err().
func Run(ctx context.Context, s Stepper, cfg Config, sink Sink) (Result, error) {
	var res Result
	if err := cfg.validate(); err != nil {
		return res, fmt.Errorf("chain: Run: %w", err)
	}
	thin := max(cfg.Thin, 1)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ar, hasAcceptance := s.(acceptanceReporter)

	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			logger.Info("chain: run interrupted", "iterations", res.Iterations, "kept", res.Kept)
			return res, err
		}
		if err := s.Step(); err != nil {
			return res, fmt.Errorf("chain: Run: draw %d: %w", i, err)
		}
		res.Iterations++
		if i < cfg.Burn || (i-cfg.Burn)%thin != 0 {
			continue
		}
		smp := Sample{Index: res.Kept, Iteration: i, Vector: s.CurrentVector()}
		if hasAcceptance {
			smp.Acceptance = ar.AcceptanceProbability()
		}
		if err := sink.Record(smp); err != nil {
			return res, fmt.Errorf("chain: Run: record sample %d: %w", res.Kept, err)
		}
		res.Kept++
	}
	logger.Info("chain: run finished", "iterations", res.Iterations, "kept", res.Kept)

	return res, nil
}
