// Command hmcsample runs the Hamiltonian Monte Carlo sampler on built-in
// example models and optionally records the chain in a SQLite trace.
//
//	hmcsample normal   [flags]   standard normal started at x=5
//	hmcsample gaussian [flags]   3+1 independent normals of very different scales
//	hmcsample powerlaw [flags]   a·Re^b regression with bounded uniform priors
//	hmcsample runs     --db PATH
//	hmcsample summary  --db PATH --run ID
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/katalvlaran/gradsample/chain"
	"github.com/katalvlaran/gradsample/hmc"
	"github.com/katalvlaran/gradsample/model"
	"github.com/katalvlaran/gradsample/trace"
	"github.com/katalvlaran/gradsample/vectorize"
)

var examples = map[string]func(seed uint64) (example, error){
	"normal":   normalExample,
	"gaussian": gaussianExample,
	"powerlaw": powerLawExample,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "normal", "gaussian", "powerlaw":
		return runSample(ctx, args[0], args[1:], out)
	case "runs":
		return runRuns(ctx, args[1:], out)
	case "summary":
		return runSummary(ctx, args[1:], out)
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runSample(ctx context.Context, name string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	steps := fs.Int("steps", 2000, "iterations, burn-in included")
	burn := fs.Int("burn", 0, "leading iterations to discard")
	thin := fs.Int("thin", 1, "keep every n-th iteration after burn-in")
	seed := fs.Uint64("seed", 1, "random seed for the sampler and synthetic data")
	scaling := fs.Float64("scaling", hmc.DefaultStepSizeScaling, "step size scaling s in s/d^(1/4)")
	trajectory := fs.Float64("trajectory", hmc.DefaultTrajectoryLength, "trajectory length")
	curvature := fs.String("curvature", "hessian", "covariance estimate: hessian|optimizer")
	dbPath := fs.String("db", "", "sqlite trace path; empty keeps samples in memory")
	logLevel := fs.String("log-level", "warn", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *scaling <= 0 || *trajectory <= 0 {
		return fmt.Errorf("scaling and trajectory must be > 0")
	}
	logger, err := newLogger(*logLevel)
	if err != nil {
		return err
	}
	cur, err := curvatureFromName(*curvature)
	if err != nil {
		return err
	}

	ex, err := examples[name](*seed)
	if err != nil {
		return err
	}
	m, err := vectorize.New(ex.vars...)
	if err != nil {
		return err
	}
	a, err := model.NewVarAdapter(m, ex.target)
	if err != nil {
		return err
	}
	eng, err := hmc.New(a,
		hmc.WithSeed(*seed),
		hmc.WithStepSizeScaling(*scaling),
		hmc.WithTrajectoryLength(*trajectory),
		hmc.WithCurvature(cur),
		hmc.WithLogger(logger))
	if err != nil {
		return err
	}
	cfg := chain.Config{Iterations: *steps, Burn: *burn, Thin: *thin, Logger: logger}

	var sum trace.Summary
	if *dbPath != "" {
		store, err := trace.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		tr, err := store.NewRun(name, m.Dimensions())
		if err != nil {
			return err
		}
		if _, err = chain.Run(ctx, eng, cfg, tr); err != nil {
			return err
		}
		if sum, err = store.Summary(tr.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "run %s\n", tr.ID)
	} else {
		var col chain.Collector
		if _, err = chain.Run(ctx, eng, cfg, &col); err != nil {
			return err
		}
		if sum, err = trace.Summarize(col.Samples); err != nil {
			return err
		}
	}

	st := eng.Stats()
	fmt.Fprintf(out, "steps %d accepted %d (%.1f%%) mean acceptance %.3f step size %.4g leapfrog %d\n",
		st.Steps, st.Accepted, 100*st.AcceptanceRate(), st.MeanAcceptance(), eng.StepSize(), eng.LeapfrogSteps())

	if err = printPosition(out, a); err != nil {
		return err
	}
	return printSummary(out, coordinateNames(m), sum)
}

// printPosition writes the chain's final committed position, one variable per line.
func printPosition(out io.Writer, a *model.VarAdapter) error {
	m := a.Mapper()
	parts, err := m.Split(a.CommittedVector())
	if err != nil {
		return err
	}
	for _, s := range m.Slices() {
		fmt.Fprintf(out, "final %s %.4g\n", s.Name, parts[s.Name])
	}
	return nil
}

func runRuns(_ context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	dbPath := fs.String("db", "", "sqlite trace path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return errors.New("runs requires --db")
	}

	store, err := trace.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	runs, err := store.Runs()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tlabel\tdims\tcreated")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.Label, r.Dims, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runSummary(_ context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	dbPath := fs.String("db", "", "sqlite trace path")
	runID := fs.String("run", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" || *runID == "" {
		return errors.New("summary requires --db and --run")
	}
	id, err := uuid.Parse(*runID)
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	store, err := trace.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	r, err := store.Run(id)
	if err != nil {
		return err
	}
	sum, err := store.Summary(id)
	if err != nil {
		return err
	}

	names := make([]string, r.Dims)
	for i := range names {
		names[i] = fmt.Sprintf("[%d]", i)
	}
	fmt.Fprintf(out, "run %s (%s) samples %d mean acceptance %.3f\n", r.ID, r.Label, sum.Count, sum.MeanAcceptance)
	return printSummary(out, names, sum)
}

// coordinateNames labels flat coordinates: scalars by name, others as name[i].
func coordinateNames(m *vectorize.Mapper) []string {
	names := make([]string, 0, m.Dimensions())
	for _, s := range m.Slices() {
		if s.Len() == 1 {
			names = append(names, s.Name)
			continue
		}
		for i := 0; i < s.Len(); i++ {
			names = append(names, fmt.Sprintf("%s[%d]", s.Name, i))
		}
	}
	return names
}

func printSummary(out io.Writer, names []string, sum trace.Summary) error {
	sd := sum.StdDev()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "variable\tmean\tsd")
	for i, name := range names {
		if sd == nil {
			fmt.Fprintf(w, "%s\t%.4g\t-\n", name, sum.Mean[i])
			continue
		}
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\n", name, sum.Mean[i], sd[i])
	}
	return w.Flush()
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func curvatureFromName(name string) (hmc.Curvature, error) {
	switch name {
	case "hessian":
		return hmc.CurvatureHessian, nil
	case "optimizer":
		return hmc.CurvatureOptimizer, nil
	default:
		return 0, fmt.Errorf("unknown curvature: %s", name)
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: hmcsample <normal|gaussian|powerlaw|runs|summary> [flags]", msg)
}
