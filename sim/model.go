package sim

import (
	"fmt"
	"strings"

	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/sim/quantity"
)

// VariableKind distinguishes a constant (fixed value) from an auxiliary
// (recomputed every timestep from its equation).
type VariableKind int

const (
	KindConstant VariableKind = iota
	KindAuxiliary
)

func (k VariableKind) String() string {
	if k == KindConstant {
		return "constant"
	}
	return "auxiliary"
}

// Stock is an accumulator: a quantity that persists across timesteps and is
// mutated only by the solver integrating inbound/outbound flow rates.
type Stock struct {
	ID           ids.StockID
	Name         string
	InitialValue float64
	Units        string
	Description  string
}

// Flow transfers quantity from Source to Target at the rate its
// RateEquation evaluates to each step. A nil Source or Target means
// "cloud" — an external source or sink outside the modeled stocks.
type Flow struct {
	ID           ids.FlowID
	Name         string
	Source       *ids.StockID
	Target       *ids.StockID
	RateEquation string
	Units        string
}

// Variable is a named auxiliary or constant. Constants carry a concrete
// Value; auxiliaries recompute Equation every timestep.
type Variable struct {
	ID       ids.VariableID
	Name     string
	Equation string
	Kind     VariableKind
	Value    float64
	HasValue bool
}

// TimeConfig bounds and steps a simulation run.
type TimeConfig struct {
	Start float64
	End   float64
	Step  float64
}

// Validate checks the structural invariants TimeConfig must satisfy on its
// own (step > 0, end reachable from start). This is a tier-1 construction
// check (spec.md §7).
func (tc TimeConfig) Validate() error {
	if tc.Step <= 0 {
		return fmt.Errorf("TimeConfig.Step must be > 0, got %v", tc.Step)
	}
	if tc.End < tc.Start {
		return fmt.Errorf("TimeConfig.End (%v) must be >= TimeConfig.Start (%v)", tc.End, tc.Start)
	}
	return nil
}

// Model is a complete system dynamics model: its stocks, flows, variables,
// and the time window a simulation run advances over.
type Model struct {
	ID         ids.ModelID
	Name       string
	Stocks     []Stock
	Flows      []Flow
	Variables  []Variable
	TimeConfig TimeConfig
}

// SimState is one simulation snapshot: stock levels, flow rates, and
// auxiliary/constant values at a point in time, plus the units each
// quantity was computed in.
type SimState struct {
	Time      float64
	Stocks    map[ids.StockID]float64
	Rates     map[ids.FlowID]float64
	Variables map[ids.VariableID]float64
	Units     SimStateUnits
}

// SimStateUnits carries the unit-exponent map each SimState field was
// computed in, keyed the same way as the corresponding value map.
type SimStateUnits struct {
	Stocks    map[ids.StockID]quantity.Units
	Rates     map[ids.FlowID]quantity.Units
	Variables map[ids.VariableID]quantity.Units
	Time      quantity.Units
}

// stockByID, stockByName, variableByID, variableByName are small lookup
// helpers used across compile.go, override.go, metric.go, validate.go and
// this file.

func (m *Model) stockByID(id ids.StockID) *Stock {
	for i := range m.Stocks {
		if m.Stocks[i].ID == id {
			return &m.Stocks[i]
		}
	}
	return nil
}

func (m *Model) stockByName(name string) *Stock {
	for i := range m.Stocks {
		if m.Stocks[i].Name == name {
			return &m.Stocks[i]
		}
	}
	return nil
}

func (m *Model) variableByID(id ids.VariableID) *Variable {
	for i := range m.Variables {
		if m.Variables[i].ID == id {
			return &m.Variables[i]
		}
	}
	return nil
}

func (m *Model) variableByName(name string) *Variable {
	for i := range m.Variables {
		if m.Variables[i].Name == name {
			return &m.Variables[i]
		}
	}
	return nil
}

// Clone returns a deep copy of m, suitable for scenario override
// application (spec.md §4.8: override application produces a *new*
// derived model, never mutating the original).
func (m *Model) Clone() *Model {
	out := &Model{
		ID:         m.ID,
		Name:       m.Name,
		TimeConfig: m.TimeConfig,
		Stocks:     make([]Stock, len(m.Stocks)),
		Flows:      make([]Flow, len(m.Flows)),
		Variables:  make([]Variable, len(m.Variables)),
	}
	copy(out.Stocks, m.Stocks)
	copy(out.Flows, m.Flows)
	copy(out.Variables, m.Variables)
	for i, f := range m.Flows {
		if f.Source != nil {
			s := *f.Source
			out.Flows[i].Source = &s
		}
		if f.Target != nil {
			t := *f.Target
			out.Flows[i].Target = &t
		}
	}
	return out
}

// ValueByName returns name's current baseline value — a stock's initial
// value or a constant's value — used as the reference point for
// sensitivity perturbation and Monte Carlo sampling (spec.md §4.9/§4.10).
func (m *Model) ValueByName(name string) (float64, bool) {
	if s := m.stockByName(name); s != nil {
		return s.InitialValue, true
	}
	if v := m.variableByName(name); v != nil && v.Kind == KindConstant {
		return v.Value, true
	}
	return 0, false
}

// StocksByName renders state's stock values keyed by stock name, for
// scenario comparison summaries.
func (m *Model) StocksByName(state SimState) map[string]float64 {
	out := make(map[string]float64, len(m.Stocks))
	for _, s := range m.Stocks {
		out[s.Name] = state.Stocks[s.ID]
	}
	return out
}

// VariablesByName renders state's variable values keyed by variable name,
// for scenario comparison summaries.
func (m *Model) VariablesByName(state SimState) map[string]float64 {
	out := make(map[string]float64, len(m.Variables))
	for _, v := range m.Variables {
		out[v.Name] = state.Variables[v.ID]
	}
	return out
}

// Describe renders a short human-readable summary of m, used by the CLI
// (cmd/run.go) to print what was just simulated.
func (m *Model) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model %q (%d stocks, %d flows, %d variables)\n", m.Name, len(m.Stocks), len(m.Flows), len(m.Variables))
	for _, s := range m.Stocks {
		fmt.Fprintf(&b, "  stock  %-20s initial=%v", s.Name, s.InitialValue)
		if s.Units != "" {
			fmt.Fprintf(&b, " units=%s", s.Units)
		}
		b.WriteString("\n")
	}
	for _, f := range m.Flows {
		src, tgt := "cloud", "cloud"
		if f.Source != nil {
			if s := m.stockByID(*f.Source); s != nil {
				src = s.Name
			}
		}
		if f.Target != nil {
			if s := m.stockByID(*f.Target); s != nil {
				tgt = s.Name
			}
		}
		fmt.Fprintf(&b, "  flow   %-20s %s -> %s : %s\n", f.Name, src, tgt, f.RateEquation)
	}
	for _, v := range m.Variables {
		fmt.Fprintf(&b, "  %-6s %-20s %s\n", v.Kind, v.Name, v.Equation)
	}
	fmt.Fprintf(&b, "  time   start=%v end=%v step=%v\n", m.TimeConfig.Start, m.TimeConfig.End, m.TimeConfig.Step)
	return b.String()
}
