// Package scenario applies named parameter overrides to a base model and
// compares the resulting runs against an implicit, override-free
// baseline (spec.md §4.8).
package scenario

import (
	"context"

	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/sim"
)

// Definition names a set of overrides to apply to a base model.
// BaseModelID, when non-empty, must match the model Compare is run
// against.
type Definition struct {
	Name        string
	BaseModelID ids.ModelID
	Overrides   map[string]float64
}

// Summary reports one scenario's outcome relative to the baseline run.
type Summary struct {
	Name           string
	FinalTime      float64
	FinalStocks    map[string]float64
	FinalVariables map[string]float64
	DeltaStocks    map[string]float64
	DeltaVariables map[string]float64
}

// Comparison is the outcome of running a base model plus a set of
// scenario definitions, each against an implicit Baseline with no
// overrides at position 0.
type Comparison struct {
	Baseline  Summary
	Scenarios []Summary
}

// CompareOptions configures Compare's execution.
type CompareOptions struct {
	SolverName  string
	Parallelism int
}

// Compare runs base plus every scenario definition in defs in parallel —
// an implicit no-override Baseline occupies position 0 — and returns
// their final-state deltas against the baseline (spec.md §4.8).
func Compare(ctx context.Context, base *sim.Model, defs []Definition, opts CompareOptions) (*Comparison, error) {
	targets := make([]*sim.Model, 0, len(defs)+1)
	names := make([]string, 0, len(defs)+1)

	baseline := base.Clone()
	baseline.Name = "Baseline"
	targets = append(targets, baseline)
	names = append(names, "Baseline")

	for _, def := range defs {
		if def.BaseModelID != "" && def.BaseModelID != base.ID {
			return nil, &sim.ScenarioModelMismatchError{Expected: string(base.ID), Got: string(def.BaseModelID)}
		}
		target, err := sim.ApplyOverrides(base, def.Overrides)
		if err != nil {
			return nil, err
		}
		target.Name = def.Name
		targets = append(targets, target)
		names = append(names, def.Name)
	}

	results := sim.SimulateParallel(ctx, targets, sim.ParallelOptions{
		Parallelism: opts.Parallelism,
		SolverName:  opts.SolverName,
	})
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
	}

	baselineSummary := summarize(base, names[0], *results[0].Final, nil)
	scenarios := make([]Summary, 0, len(defs))
	for i := 1; i < len(results); i++ {
		scenarios = append(scenarios, summarize(base, names[i], *results[i].Final, &baselineSummary))
	}
	return &Comparison{Baseline: baselineSummary, Scenarios: scenarios}, nil
}

func summarize(base *sim.Model, name string, final sim.SimState, baseline *Summary) Summary {
	s := Summary{
		Name:           name,
		FinalTime:      final.Time,
		FinalStocks:    base.StocksByName(final),
		FinalVariables: base.VariablesByName(final),
	}
	if baseline == nil {
		return s
	}
	s.DeltaStocks = delta(s.FinalStocks, baseline.FinalStocks)
	s.DeltaVariables = delta(s.FinalVariables, baseline.FinalVariables)
	return s
}

// delta computes scenario − baseline by name, treating a name missing
// from either side as 0 (spec.md §4.8).
func delta(scenario, baseline map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scenario))
	seen := make(map[string]bool, len(scenario))
	for name, v := range scenario {
		out[name] = v - baseline[name]
		seen[name] = true
	}
	for name, v := range baseline {
		if !seen[name] {
			out[name] = 0 - v
		}
	}
	return out
}
