// Package sensitivity measures a target metric's marginal response to
// percent perturbations of named parameters, and implements grid and
// random-search optimisers over parameter constraints (spec.md §4.9).
package sensitivity

import (
	"context"
	"math"
	"sort"

	"github.com/sysdyn/sysdyn/sim"
)

// Options configures every run this package issues.
type Options struct {
	SolverName string
}

// Result reports one parameter's measured impact on the target metric.
type Result struct {
	Parameter  string
	Impact     float64
	Direction  string // "positive", "negative", or "neutral"
	Confidence float64
}

// Analyze runs base once as the baseline, then once per entry in params
// with that parameter perturbed to baseline*(1+variationPct/100),
// measuring target at final time and computing each parameter's impact.
// Results are sorted by |impact| descending (spec.md §4.9).
func Analyze(ctx context.Context, base *sim.Model, target string, params []string, variationPct float64, opts Options) ([]Result, error) {
	baselineMetric, err := runMetric(ctx, base, nil, target, opts)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(params))
	for _, p := range params {
		baseVal, ok := base.ValueByName(p)
		if !ok {
			return nil, &sim.ScenarioOverrideNotFoundError{Targets: []string{p}}
		}
		perturbed := baseVal * (1 + variationPct/100)
		metric, err := runMetric(ctx, base, map[string]float64{p: perturbed}, target, opts)
		if err != nil {
			return nil, err
		}
		impact := impactOf(metric, baselineMetric)
		results = append(results, Result{
			Parameter:  p,
			Impact:     impact,
			Direction:  direction(impact),
			Confidence: 1,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].Impact) > math.Abs(results[j].Impact)
	})
	return results, nil
}

func impactOf(metric, baseline float64) float64 {
	if baseline == 0 {
		return metric - baseline
	}
	return 100 * (metric - baseline) / baseline
}

func direction(impact float64) string {
	switch {
	case impact > 0:
		return "positive"
	case impact < 0:
		return "negative"
	default:
		return "neutral"
	}
}

func runMetric(ctx context.Context, base *sim.Model, overrides map[string]float64, target string, opts Options) (float64, error) {
	final, err := runFinal(ctx, base, overrides, opts)
	if err != nil {
		return 0, err
	}
	return sim.MetricAt(base, []sim.SimState{*final}, target, base.TimeConfig.End)
}

func runFinal(ctx context.Context, base *sim.Model, overrides map[string]float64, opts Options) (*sim.SimState, error) {
	target := base
	if overrides != nil {
		applied, err := sim.ApplyOverrides(base, overrides)
		if err != nil {
			return nil, err
		}
		target = applied
	}
	cm, err := sim.Compile(target)
	if err != nil {
		return nil, err
	}
	solver, err := sim.NewSolver(opts.SolverName)
	if err != nil {
		return nil, err
	}
	return sim.SimulateFinal(ctx, cm, solver)
}
