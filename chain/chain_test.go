package chain_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gradsample/chain"
)

// counter steps x by one; it fails on draw failAt when failAt > 0.
type counter struct {
	x      float64
	calls  int
	failAt int
}

var errBoom = errors.New("boom")

func (c *counter) Step() error {
	c.calls++
	if c.failAt > 0 && c.calls == c.failAt {
		return errBoom
	}
	c.x++
	return nil
}

func (c *counter) CurrentVector() []float64 { return []float64{c.x} }

func (c *counter) AcceptanceProbability() float64 { return 0.5 }

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRunBurnThin(t *testing.T) {
	cases := []struct {
		name       string
		cfg        chain.Config
		iterations []int
	}{
		{"all", chain.Config{Iterations: 4}, []int{0, 1, 2, 3}},
		{"burn", chain.Config{Iterations: 5, Burn: 3}, []int{3, 4}},
		{"thin", chain.Config{Iterations: 7, Thin: 3}, []int{0, 3, 6}},
		{"burn+thin", chain.Config{Iterations: 10, Burn: 2, Thin: 4}, []int{2, 6}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logger = quiet
			var got chain.Collector
			res, err := chain.Run(context.Background(), &counter{}, tc.cfg, &got)
			require.NoError(t, err)
			require.Equal(t, tc.cfg.Iterations, res.Iterations)
			require.Equal(t, len(tc.iterations), res.Kept)
			require.Equal(t, tc.cfg.Kept(), res.Kept)
			for k, s := range got.Samples {
				assert.Equal(t, k, s.Index)
				assert.Equal(t, tc.iterations[k], s.Iteration)
				assert.Equal(t, []float64{float64(s.Iteration + 1)}, s.Vector)
				assert.Equal(t, 0.5, s.Acceptance)
			}
		})
	}
}

func TestRunInvalidConfig(t *testing.T) {
	for _, cfg := range []chain.Config{
		{Iterations: 0},
		{Iterations: 3, Burn: 3},
		{Iterations: 3, Burn: -1},
		{Iterations: 3, Thin: -2},
	} {
		_, err := chain.Run(context.Background(), &counter{}, cfg, &chain.Collector{})
		require.ErrorIs(t, err, chain.ErrInvalidConfig)
		require.Zero(t, cfg.Kept())
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &counter{}
	sink := chain.SinkFunc(func(s chain.Sample) error {
		if s.Iteration == 2 {
			cancel()
		}
		return nil
	})

	res, err := chain.Run(ctx, c, chain.Config{Iterations: 100, Logger: quiet}, sink)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, res.Iterations)
	require.Equal(t, 3, res.Kept)
	require.Equal(t, 3, c.calls)
}

func TestRunPropagatesErrors(t *testing.T) {
	res, err := chain.Run(context.Background(), &counter{failAt: 3}, chain.Config{Iterations: 10, Logger: quiet}, &chain.Collector{})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, 2, res.Iterations)

	errSink := errors.New("full")
	res, err = chain.Run(context.Background(), &counter{}, chain.Config{Iterations: 10, Logger: quiet},
		chain.SinkFunc(func(chain.Sample) error { return errSink }))
	require.ErrorIs(t, err, errSink)
	require.Equal(t, 1, res.Iterations)
	require.Zero(t, res.Kept)
}

func TestCollectorVectorsAreCopies(t *testing.T) {
	var c chain.Collector
	require.NoError(t, c.Record(chain.Sample{Vector: []float64{1, 2}}))
	v := c.Vectors()
	v[0][0] = 9
	require.Equal(t, []float64{1, 2}, c.Samples[0].Vector)
}
