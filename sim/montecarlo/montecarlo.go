package montecarlo

import (
	"context"
	"fmt"

	"github.com/sysdyn/sysdyn/internal/taskpool"
	"github.com/sysdyn/sysdyn/sim"
)

// SampleContext is what a Parameter's Sampler receives for one iteration:
// the 1-based iteration number, that parameter's resolved baseline value,
// and a draw from its dedicated PRNG stream. Random is fixed for the
// lifetime of one SampleContext — this batch precomputes exactly one
// draw per parameter per iteration up front (spec.md §5: "implementations
// may precompute seeds before fan-out"), so a sampler calling Random()
// more than once observes the same value each time.
type SampleContext struct {
	Iteration int
	Baseline  float64
	Random    func() float64
}

// Parameter is one Monte Carlo input: a name resolvable against the base
// model's stocks/constants, and a function computing the override value
// for a given iteration's sample context.
type Parameter struct {
	Name    string
	Sampler func(SampleContext) float64
}

// Config describes one Monte Carlo batch (spec.md §4.10).
type Config struct {
	Base        *sim.Model
	Iterations  int
	Parameters  []Parameter
	Metrics     []string
	Seed        int64
	Percentiles []float64
	Concurrency int
	SolverName  string
}

// Result is the aggregated outcome of a Monte Carlo batch.
type Result struct {
	Metrics    map[string]MetricSummary
	Iterations int
}

// Run executes cfg.Iterations independent simulations, each with every
// parameter overridden per its Sampler, and aggregates cfg.Metrics across
// all iterations. For a fixed Seed, Parameters, and Iterations, the
// result is bit-identical regardless of Concurrency (spec.md §8): every
// parameter's random draw for every iteration is computed serially,
// up front, from a PartitionedRNG before any concurrent simulation work
// begins.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Iterations <= 0 {
		return nil, &sim.MonteCarloConfigurationError{Reason: "iterations must be > 0"}
	}
	percentiles := cfg.Percentiles
	if len(percentiles) == 0 {
		percentiles = []float64{0.5, 0.9, 0.95}
	}

	baselines := make([]float64, len(cfg.Parameters))
	for i, p := range cfg.Parameters {
		v, ok := cfg.Base.ValueByName(p.Name)
		if !ok {
			return nil, &sim.MonteCarloConfigurationError{Reason: fmt.Sprintf("parameter %q has no resolvable baseline", p.Name)}
		}
		baselines[i] = v
	}

	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	draws := make([][]float64, cfg.Iterations)
	for it := 0; it < cfg.Iterations; it++ {
		draws[it] = make([]float64, len(cfg.Parameters))
		for pi, p := range cfg.Parameters {
			draws[it][pi] = rng.ForParameter(p.Name).Float64()
		}
	}

	type iterationResult struct {
		values map[string]float64
		err    error
	}

	iterResults := taskpool.Run(cfg.Iterations, cfg.Concurrency, func(it int) iterationResult {
		overrides := make(map[string]float64, len(cfg.Parameters))
		for pi, p := range cfg.Parameters {
			draw := draws[it][pi]
			sc := SampleContext{
				Iteration: it + 1,
				Baseline:  baselines[pi],
				Random:    func() float64 { return draw },
			}
			overrides[p.Name] = p.Sampler(sc)
		}

		target, err := sim.ApplyOverrides(cfg.Base, overrides)
		if err != nil {
			return iterationResult{err: err}
		}
		cm, err := sim.Compile(target)
		if err != nil {
			return iterationResult{err: err}
		}
		solver, err := sim.NewSolver(cfg.SolverName)
		if err != nil {
			return iterationResult{err: err}
		}
		final, err := sim.SimulateFinal(ctx, cm, solver)
		if err != nil {
			return iterationResult{err: err}
		}

		values := make(map[string]float64, len(cfg.Metrics))
		for _, name := range cfg.Metrics {
			v, err := sim.MetricAt(target, []sim.SimState{*final}, name, target.TimeConfig.End)
			if err != nil {
				return iterationResult{err: err}
			}
			values[name] = v
		}
		return iterationResult{values: values}
	})

	collected := make(map[string][]float64, len(cfg.Metrics))
	for _, name := range cfg.Metrics {
		collected[name] = make([]float64, 0, cfg.Iterations)
	}
	for _, r := range iterResults {
		if r.err != nil {
			return nil, r.err
		}
		for _, name := range cfg.Metrics {
			collected[name] = append(collected[name], r.values[name])
		}
	}

	summaries := make(map[string]MetricSummary, len(cfg.Metrics))
	for _, name := range cfg.Metrics {
		summaries[name] = Summarize(name, collected[name], percentiles)
	}
	return &Result{Metrics: summaries, Iterations: cfg.Iterations}, nil
}
