package sim

import (
	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/sim/equation"
	"github.com/sysdyn/sysdyn/sim/graph"
	"github.com/sysdyn/sysdyn/sim/quantity"
	"github.com/sysdyn/sysdyn/sim/units"
)

// CompiledModel is a Model whose equations have been parsed and whose
// auxiliary/constant dependency order has been resolved. Building one is
// the first phase of running a simulation (spec.md §4.5/§4.7).
type CompiledModel struct {
	Model *Model
	Graph *graph.Graph

	// VariableEqs holds the parsed equation for each auxiliary variable,
	// keyed by its Variable.ID string. Constants have no entry.
	VariableEqs map[string]*equation.EquationNode

	// FlowEqs holds the parsed rate equation for each flow, keyed by its
	// Flow.ID string.
	FlowEqs map[string]*equation.EquationNode

	// cachedFlowUnits is set from the units observed on the first
	// evaluated step; every later step's flow-rate units must match it
	// exactly (spec.md §4.6: "dimensional check is performed on the first
	// step and cached").
	cachedFlowUnits map[string]quantity.Units

	// delayStore holds the persistent DELAY/SMOOTH stage state for this
	// compiled model's single simulation run. A CompiledModel is meant to
	// back exactly one Simulate call; scenario/sensitivity/montecarlo
	// callers each Compile their own target model, so there is no sharing
	// across concurrent runs.
	delayStore *equation.DelayStateStore
}

// DelayStore returns cm's persistent delay-state store, lazily
// initializing it on first use.
func (cm *CompiledModel) DelayStore() *equation.DelayStateStore {
	if cm.delayStore == nil {
		cm.delayStore = equation.NewDelayStateStore()
	}
	return cm.delayStore
}

// Compile parses m's equations and orders its auxiliary variables.
func Compile(m *Model) (*CompiledModel, error) {
	nodes := make([]graph.Node, 0, len(m.Variables))
	for _, v := range m.Variables {
		nodes = append(nodes, graph.Node{
			ID:       string(v.ID),
			Name:     v.Name,
			Kind:     toGraphKind(v.Kind),
			Equation: v.Equation,
			HasValue: v.Kind == KindConstant && v.HasValue,
		})
	}
	g, err := graph.Build(nodes)
	if err != nil {
		return nil, wrapGraphError(err)
	}

	// nextDelayNodeID is shared across every equation parsed for this
	// model, so DELAY/SMOOTH call sites in different equations never
	// collide in the model's single DelayStateStore (keyed by bare int).
	nextDelayNodeID := 0
	next := func() int {
		nextDelayNodeID++
		return nextDelayNodeID
	}

	varEqs := make(map[string]*equation.EquationNode, len(m.Variables))
	for _, v := range m.Variables {
		if v.Kind != KindAuxiliary {
			continue
		}
		eq, err := equation.Parse(v.Equation)
		if err != nil {
			return nil, &EquationParseError{Subject: v.Name, Err: err}
		}
		eq.RenumberDelayNodes(next)
		varEqs[string(v.ID)] = eq
	}

	flowEqs := make(map[string]*equation.EquationNode, len(m.Flows))
	for _, f := range m.Flows {
		eq, err := equation.Parse(f.RateEquation)
		if err != nil {
			return nil, &EquationParseError{Subject: f.Name, Err: err}
		}
		eq.RenumberDelayNodes(next)
		flowEqs[string(f.ID)] = eq
	}

	return &CompiledModel{Model: m, Graph: g, VariableEqs: varEqs, FlowEqs: flowEqs}, nil
}

func toGraphKind(k VariableKind) graph.VarKind {
	if k == KindConstant {
		return graph.KindConstant
	}
	return graph.KindAuxiliary
}

func wrapGraphError(err error) error {
	switch e := err.(type) {
	case *graph.CycleError:
		return &EquationGraphCycleError{Nodes: e.Nodes}
	case *graph.MissingConstantValueError:
		return &EquationGraphBuildError{Reason: e.Error()}
	default:
		return &EquationGraphBuildError{Reason: err.Error()}
	}
}

func macroMap(defs []equation.FunctionDef) map[string]equation.FunctionDef {
	if len(defs) == 0 {
		return nil
	}
	m := make(map[string]equation.FunctionDef, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	return m
}

// BaseScope seeds a step's evaluation scope with the reserved time names
// and current stock values, before auxiliaries are evaluated over it.
func BaseScope(cm *CompiledModel, stockValues map[ids.StockID]float64, time float64) (equation.Scope, error) {
	scope := equation.Scope{
		"TIME":         quantity.Unitless(time),
		"TIME_STEP":    quantity.Unitless(cm.Model.TimeConfig.Step),
		"INITIAL_TIME": quantity.Unitless(cm.Model.TimeConfig.Start),
		"FINAL_TIME":   quantity.Unitless(cm.Model.TimeConfig.End),
	}
	for _, s := range cm.Model.Stocks {
		u, err := units.Parse(s.Units)
		if err != nil {
			return nil, &EquationParseError{Subject: s.Name, Err: err}
		}
		scope[s.Name] = quantity.New(stockValues[s.ID], u)
	}
	return scope, nil
}

// EvaluateAuxiliaries walks cm.Graph.EvaluationOrder, writing each
// constant's value and each auxiliary's computed quantity into scope, in
// dependency order (spec.md §4.5/§4.7 step (b)).
func EvaluateAuxiliaries(cm *CompiledModel, scope equation.Scope, delayStore *equation.DelayStateStore, commit bool) error {
	for _, id := range cm.Graph.EvaluationOrder {
		node := cm.Graph.ByID(id)
		if node.Kind == graph.KindConstant {
			v := cm.Model.variableByID(ids.VariableID(id))
			scope[node.Name] = quantity.Unitless(v.Value)
			continue
		}
		eq := cm.VariableEqs[id]
		result, err := equation.Evaluate(eq.Expr, scope, node.Equation, equation.Options{
			DelayState: delayStore,
			Commit:     commit,
			Macros:     macroMap(eq.Defs),
		})
		if err != nil {
			return &EquationEvaluationError{Subject: node.Name, Err: err}
		}
		scope[node.Name] = result
	}
	return nil
}

// FlowRates evaluates every flow's rate equation against scope, returning
// a map keyed by Flow.ID string (spec.md §4.7 step (c)).
func FlowRates(cm *CompiledModel, scope equation.Scope, delayStore *equation.DelayStateStore, commit bool) (map[string]quantity.Quantity, error) {
	rates := make(map[string]quantity.Quantity, len(cm.Model.Flows))
	for _, f := range cm.Model.Flows {
		eq := cm.FlowEqs[string(f.ID)]
		q, err := equation.Evaluate(eq.Expr, scope, f.RateEquation, equation.Options{
			DelayState: delayStore,
			Commit:     commit,
			Macros:     macroMap(eq.Defs),
		})
		if err != nil {
			return nil, &EquationEvaluationError{Subject: f.Name, Err: err}
		}
		rates[string(f.ID)] = q
	}
	return rates, nil
}

// tickUnit is the implicit time unit (spec.md glossary: "Tick — the
// implicit time unit when no unit suffix is supplied").
var tickUnit = quantity.Units{"tick": 1}

// ValidateFlowRateUnits checks that each flow's rate carries either
// stock_units/tick or the stock's bare units (implicitly per tick), caching the observed unit map on the first call
// and requiring exact agreement (via quantity.UnitsEqual) on every
// subsequent call (spec.md §4.6).
func (cm *CompiledModel) ValidateFlowRateUnits(rates map[string]quantity.Quantity) error {
	if cm.cachedFlowUnits == nil {
		cm.cachedFlowUnits = make(map[string]quantity.Units, len(rates))
		for _, f := range cm.Model.Flows {
			q := rates[string(f.ID)]
			if err := cm.checkAgainstStocks(f, q.Units); err != nil {
				return err
			}
			cm.cachedFlowUnits[string(f.ID)] = q.Units
		}
		return nil
	}
	for _, f := range cm.Model.Flows {
		q := rates[string(f.ID)]
		if !quantity.UnitsEqual(cm.cachedFlowUnits[string(f.ID)], q.Units) {
			return &UnitMismatchError{
				Flow:     f.Name,
				Expected: cm.cachedFlowUnits[string(f.ID)].String(),
				Got:      q.Units.String(),
			}
		}
	}
	return nil
}

// EvaluateRatesAt evaluates auxiliaries and flow rates at stockValues and
// time, returning each flow's rate keyed by FlowID without building a full
// SimState. Solvers that need rates at intermediate stock values — RK4 and
// adaptive sub-stages — use this instead of EvaluateSnapshot to avoid
// paying for variable/unit bookkeeping they don't need until the step is
// accepted.
func EvaluateRatesAt(cm *CompiledModel, stockValues map[ids.StockID]float64, time float64, delayStore *equation.DelayStateStore, commit bool) (map[ids.FlowID]float64, error) {
	scope, err := BaseScope(cm, stockValues, time)
	if err != nil {
		return nil, err
	}
	if err := EvaluateAuxiliaries(cm, scope, delayStore, commit); err != nil {
		return nil, err
	}
	raw, err := FlowRates(cm, scope, delayStore, commit)
	if err != nil {
		return nil, err
	}
	if err := cm.ValidateFlowRateUnits(raw); err != nil {
		return nil, err
	}
	out := make(map[ids.FlowID]float64, len(raw))
	for _, f := range cm.Model.Flows {
		out[f.ID] = raw[string(f.ID)].Value
	}
	return out, nil
}

// StockDeltas computes each stock's net instantaneous rate — inflow sum
// minus outflow sum — from a flow-rate map (spec.md §4.6 step 3).
func StockDeltas(cm *CompiledModel, rates map[ids.FlowID]float64) map[ids.StockID]float64 {
	deltas := make(map[ids.StockID]float64, len(cm.Model.Stocks))
	for _, s := range cm.Model.Stocks {
		deltas[s.ID] = 0
	}
	for _, f := range cm.Model.Flows {
		r := rates[f.ID]
		if f.Target != nil {
			deltas[*f.Target] += r
		}
		if f.Source != nil {
			deltas[*f.Source] -= r
		}
	}
	return deltas
}

// CommitStep advances cm's persistent delay state by exactly one real
// timestep, evaluating at (stockValues, time) with commit=true. Solvers
// call this once per accepted step — RK4's sub-stage rate evaluations use
// a cloned store instead, so this is the only point at which a step's
// DELAY/SMOOTH primitives actually advance.
func CommitStep(cm *CompiledModel, stockValues map[ids.StockID]float64, time float64) error {
	_, err := EvaluateRatesAt(cm, stockValues, time, cm.DelayStore(), true)
	return err
}

// SnapshotAt builds a reporting SimState at (stockValues, time) without
// mutating cm's persistent delay state, evaluating instead against a
// clone. Solvers call this to produce the SimState they return from Step,
// after CommitStep has already advanced the real store for this timestep.
func SnapshotAt(cm *CompiledModel, stockValues map[ids.StockID]float64, time float64) (*SimState, error) {
	return EvaluateSnapshot(cm, stockValues, time, cm.DelayStore().Clone(), false)
}

func (cm *CompiledModel) checkAgainstStocks(f Flow, rateUnits quantity.Units) error {
	check := func(stockID *ids.StockID) error {
		if stockID == nil {
			return nil
		}
		s := cm.Model.stockByID(*stockID)
		if s == nil {
			return nil
		}
		stockUnits, err := units.Parse(s.Units)
		if err != nil {
			return &EquationParseError{Subject: s.Name, Err: err}
		}
		// A rate with no explicit tick dimension is implicitly per-tick
		// (spec.md glossary), so either the stock's bare units or its
		// units divided by an explicit tick literal are acceptable.
		bare := quantity.New(1, stockUnits).Units
		perTick := quantity.Div(quantity.New(1, stockUnits), quantity.New(1, tickUnit)).Units
		if quantity.UnitsEqual(bare, rateUnits) || quantity.UnitsEqual(perTick, rateUnits) {
			return nil
		}
		return &UnitMismatchError{Flow: f.Name, Expected: perTick.String(), Got: rateUnits.String()}
	}
	if err := check(f.Source); err != nil {
		return err
	}
	return check(f.Target)
}
