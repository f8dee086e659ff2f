package sim

import (
	"context"
	"fmt"
)

// Solver advances a compiled model by one timestep, producing the next
// SimState from the current one. Concrete implementations live in
// sim/solver/euler, sim/solver/rk4, and sim/solver/adaptive.
type Solver interface {
	// Step integrates cm from state by dt, evaluating auxiliaries and flow
	// rates as needed and returning the resulting snapshot. The persistent
	// delay store is cm.DelayStore(); implementations commit into it via
	// CommitStep once per step, and sub-stage evaluations (RK4, adaptive)
	// run against a clone of it.
	Step(ctx context.Context, cm *CompiledModel, state *SimState, dt float64) (*SimState, error)
}

// SolverFactory constructs a fresh Solver instance. Factories are
// registered by name via RegisterSolver, the same package-level
// factory-registration idiom used throughout this codebase to avoid an
// import cycle between sim (interface owner) and sim/solver/* (concrete
// implementations): solver sub-packages import sim and call
// RegisterSolver from an init() function; sim itself never imports them.
type SolverFactory func() Solver

var solverRegistry = map[string]SolverFactory{}

// RegisterSolver registers factory under name, overwriting any prior
// registration. Called from solver sub-package init() functions.
func RegisterSolver(name string, factory SolverFactory) {
	solverRegistry[name] = factory
}

// NewSolver constructs the solver registered under name.
func NewSolver(name string) (Solver, error) {
	factory, ok := solverRegistry[name]
	if !ok {
		return nil, fmt.Errorf("sim: no solver registered under %q (forgot to import its package for side-effecting init()?)", name)
	}
	return factory(), nil
}

// MustNewSolver is like NewSolver but panics on an unregistered name,
// for callers (e.g. CLI flag defaults) that consider this a programmer
// error rather than a runtime condition to recover from.
func MustNewSolver(name string) Solver {
	s, err := NewSolver(name)
	if err != nil {
		panic(err)
	}
	return s
}

// RegisteredSolvers returns the names currently registered, for CLI help
// text and validation.
func RegisteredSolvers() []string {
	names := make([]string, 0, len(solverRegistry))
	for name := range solverRegistry {
		names = append(names, name)
	}
	return names
}
