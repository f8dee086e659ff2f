package sim

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/internal/taskpool"
	"github.com/sysdyn/sysdyn/sim/equation"
	"github.com/sysdyn/sysdyn/sim/quantity"
)

// EvaluateSnapshot evaluates auxiliaries and flow rates against
// stockValues at time, producing a SimState. It validates flow-rate
// dimensional homogeneity via cm.ValidateFlowRateUnits, caching the
// expected unit map on the first call.
func EvaluateSnapshot(cm *CompiledModel, stockValues map[ids.StockID]float64, time float64, delayStore *equation.DelayStateStore, commit bool) (*SimState, error) {
	scope, err := BaseScope(cm, stockValues, time)
	if err != nil {
		return nil, err
	}
	if err := EvaluateAuxiliaries(cm, scope, delayStore, commit); err != nil {
		return nil, err
	}
	rawRates, err := FlowRates(cm, scope, delayStore, commit)
	if err != nil {
		return nil, err
	}
	if err := cm.ValidateFlowRateUnits(rawRates); err != nil {
		return nil, err
	}

	state := &SimState{
		Time:      time,
		Stocks:    make(map[ids.StockID]float64, len(cm.Model.Stocks)),
		Rates:     make(map[ids.FlowID]float64, len(cm.Model.Flows)),
		Variables: make(map[ids.VariableID]float64, len(cm.Model.Variables)),
		Units: SimStateUnits{
			Stocks:    make(map[ids.StockID]quantity.Units, len(cm.Model.Stocks)),
			Rates:     make(map[ids.FlowID]quantity.Units, len(cm.Model.Flows)),
			Variables: make(map[ids.VariableID]quantity.Units, len(cm.Model.Variables)),
		},
	}
	for _, s := range cm.Model.Stocks {
		state.Stocks[s.ID] = stockValues[s.ID]
		if u, err := scopeUnits(scope, s.Name); err == nil {
			state.Units.Stocks[s.ID] = u
		}
	}
	for _, f := range cm.Model.Flows {
		q := rawRates[string(f.ID)]
		state.Rates[f.ID] = q.Value
		state.Units.Rates[f.ID] = q.Units
	}
	for _, v := range cm.Model.Variables {
		q, ok := scope[v.Name]
		if !ok {
			continue
		}
		state.Variables[v.ID] = q.Value
		state.Units.Variables[v.ID] = q.Units
	}
	return state, nil
}

func scopeUnits(scope equation.Scope, name string) (quantity.Units, error) {
	q, ok := scope[name]
	if !ok {
		return nil, &EquationEvaluationError{Subject: name}
	}
	return q.Units, nil
}

// initialStockValues returns the model's initial stock levels.
func initialStockValues(m *Model) map[ids.StockID]float64 {
	out := make(map[ids.StockID]float64, len(m.Stocks))
	for _, s := range m.Stocks {
		out[s.ID] = s.InitialValue
	}
	return out
}

// numSteps returns how many dt-sized steps fit in [start, end], per
// spec.md §4.7: the largest t <= end reachable by start + k*dt.
func numSteps(tc TimeConfig) int {
	return int(math.Floor((tc.End-tc.Start)/tc.Step + 1e-9))
}

// Simulate emits successive snapshots from cm's TimeConfig.Start through
// its last dt-reachable time <= End, calling emit for each in
// non-decreasing time order. Iteration stops early (without error) if
// emit returns false, or if ctx is cancelled.
func Simulate(ctx context.Context, cm *CompiledModel, solver Solver, emit func(SimState) bool) error {
	stockValues := initialStockValues(cm.Model)
	// commit=false against a clone: the first real commit happens inside
	// solver.Step for i=0, so every DELAY/SMOOTH node advances exactly
	// once per accepted timestep (see CommitStep).
	state, err := EvaluateSnapshot(cm, stockValues, cm.Model.TimeConfig.Start, cm.DelayStore().Clone(), false)
	if err != nil {
		return err
	}
	if !emit(*state) {
		return nil
	}

	steps := numSteps(cm.Model.TimeConfig)
	dt := cm.Model.TimeConfig.Step
	logrus.Debugf("sim: simulating %q for %d steps of dt=%v", cm.Model.Name, steps, dt)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		next, err := solver.Step(ctx, cm, state, dt)
		if err != nil {
			return err
		}
		state = next
		if !emit(*state) {
			return nil
		}
	}
	return nil
}

// SimulateFinal runs cm to completion and returns only the last snapshot.
func SimulateFinal(ctx context.Context, cm *CompiledModel, solver Solver) (*SimState, error) {
	var last SimState
	err := Simulate(ctx, cm, solver, func(s SimState) bool {
		last = s
		return true
	})
	if err != nil {
		return nil, err
	}
	return &last, nil
}

// SimulateEager runs cm to completion and collects every snapshot.
func SimulateEager(ctx context.Context, cm *CompiledModel, solver Solver) ([]SimState, error) {
	var states []SimState
	err := Simulate(ctx, cm, solver, func(s SimState) bool {
		states = append(states, s)
		return true
	})
	if err != nil {
		return nil, err
	}
	return states, nil
}

// ParallelResult pairs one target model's outcome with its input index,
// so callers can restore input order after concurrent completion.
type ParallelResult struct {
	Index  int
	Model  *Model
	Final  *SimState
	States []SimState // only populated when collectStates is true
	Err    error
}

// ParallelOptions configures SimulateParallel.
type ParallelOptions struct {
	// Parallelism bounds concurrent simulations; 0 means unbounded.
	Parallelism int
	// CollectStates, when true, retains every snapshot per target instead
	// of only the final one.
	CollectStates bool
	SolverName    string
}

// SimulateParallel runs one independent simulation per target model,
// bounded by opts.Parallelism, preserving input order in the result slice
// regardless of completion order (spec.md §5).
func SimulateParallel(ctx context.Context, targets []*Model, opts ParallelOptions) []ParallelResult {
	return taskpool.Run(len(targets), opts.Parallelism, func(i int) ParallelResult {
		return runOne(ctx, i, targets[i], opts)
	})
}

func runOne(ctx context.Context, index int, target *Model, opts ParallelOptions) ParallelResult {
	cm, err := Compile(target)
	if err != nil {
		return ParallelResult{Index: index, Model: target, Err: err}
	}
	solver, err := NewSolver(opts.SolverName)
	if err != nil {
		return ParallelResult{Index: index, Model: target, Err: err}
	}
	if opts.CollectStates {
		states, err := SimulateEager(ctx, cm, solver)
		if err != nil {
			return ParallelResult{Index: index, Model: target, Err: err}
		}
		final := states[len(states)-1]
		return ParallelResult{Index: index, Model: target, Final: &final, States: states}
	}
	final, err := SimulateFinal(ctx, cm, solver)
	if err != nil {
		return ParallelResult{Index: index, Model: target, Err: err}
	}
	return ParallelResult{Index: index, Model: target, Final: final}
}
