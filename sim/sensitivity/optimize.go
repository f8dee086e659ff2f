package sensitivity

import (
	"context"
	"math/rand"

	"github.com/sysdyn/sysdyn/internal/taskpool"
	"github.com/sysdyn/sysdyn/sim"
)

// Objective names the metric an optimiser searches for and the direction
// to optimise it in.
type Objective struct {
	Target    string
	Direction string // "maximize" or "minimize"
	AtTime    float64
}

// Constraint bounds one parameter's search range.
type Constraint struct {
	Parameter string
	Min       float64
	Max       float64
}

// OptimizeResult is the outcome of a grid or random search.
type OptimizeResult struct {
	Objective      Objective
	BestParameters map[string]float64
	Value          float64
	Iterations     int
	Strategy       string
}

// Grid evaluates the full Cartesian product of max(2, stepsPerParameter)
// linearly-spaced values per constraint and keeps the best (spec.md
// §4.9).
func Grid(ctx context.Context, base *sim.Model, obj Objective, constraints []Constraint, stepsPerParameter int, opts Options) (*OptimizeResult, error) {
	n := stepsPerParameter
	if n < 2 {
		n = 2
	}
	grids := make([][]float64, len(constraints))
	for i, c := range constraints {
		grids[i] = linspace(c.Min, c.Max, n)
	}
	combos := cartesianProduct(constraints, grids)
	return evaluate(ctx, base, obj, combos, "grid", opts)
}

// Random draws iterations uniform samples per parameter within its
// constraint range, always also counting the no-override baseline
// (spec.md §4.9), and keeps the best. sample, when nil, defaults to
// math/rand's global source.
func Random(ctx context.Context, base *sim.Model, obj Objective, constraints []Constraint, iterations int, sample func() float64, opts Options) (*OptimizeResult, error) {
	if sample == nil {
		sample = rand.Float64
	}
	combos := make([]map[string]float64, 0, iterations+1)
	combos = append(combos, map[string]float64{})
	for i := 0; i < iterations; i++ {
		combo := make(map[string]float64, len(constraints))
		for _, c := range constraints {
			combo[c.Parameter] = c.Min + sample()*(c.Max-c.Min)
		}
		combos = append(combos, combo)
	}
	return evaluate(ctx, base, obj, combos, "random", opts)
}

func linspace(min, max float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = min
		return out
	}
	step := (max - min) / float64(n-1)
	for i := 0; i < n; i++ {
		out[i] = min + step*float64(i)
	}
	return out
}

func cartesianProduct(constraints []Constraint, grids [][]float64) []map[string]float64 {
	combos := []map[string]float64{{}}
	for i, c := range constraints {
		var next []map[string]float64
		for _, combo := range combos {
			for _, v := range grids[i] {
				extended := make(map[string]float64, len(combo)+1)
				for k, existing := range combo {
					extended[k] = existing
				}
				extended[c.Parameter] = v
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}

type evaluation struct {
	params map[string]float64
	value  float64
	err    error
}

func evaluate(ctx context.Context, base *sim.Model, obj Objective, combos []map[string]float64, strategy string, opts Options) (*OptimizeResult, error) {
	results := taskpool.Run(len(combos), 0, func(i int) evaluation {
		var overrides map[string]float64
		if len(combos[i]) > 0 {
			overrides = combos[i]
		}
		final, err := runFinal(ctx, base, overrides, opts)
		if err != nil {
			return evaluation{params: combos[i], err: err}
		}
		value, err := sim.MetricAt(base, []sim.SimState{*final}, obj.Target, obj.AtTime)
		return evaluation{params: combos[i], value: value, err: err}
	})

	var best *evaluation
	for i := range results {
		r := results[i]
		if r.err != nil {
			return nil, r.err
		}
		if best == nil || isBetter(r.value, best.value, obj.Direction) {
			best = &r
		}
	}

	return &OptimizeResult{
		Objective:      obj,
		BestParameters: best.params,
		Value:          best.value,
		Iterations:     len(combos),
		Strategy:       strategy,
	}, nil
}

func isBetter(candidate, current float64, direction string) bool {
	if direction == "minimize" {
		return candidate < current
	}
	return candidate > current
}
