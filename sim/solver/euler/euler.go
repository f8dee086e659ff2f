// Package euler registers the fixed-step forward-Euler solver under the
// name "euler".
package euler

import (
	"context"

	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/sim"
)

func init() {
	sim.RegisterSolver("euler", func() sim.Solver { return &Solver{} })
}

// Solver implements forward Euler integration (spec.md §4.6): the net
// flow rate already computed for the current state is multiplied by dt
// and added to each stock directly, with no intermediate evaluations.
type Solver struct{}

func (s *Solver) Step(_ context.Context, cm *sim.CompiledModel, state *sim.SimState, dt float64) (*sim.SimState, error) {
	if err := sim.CommitStep(cm, state.Stocks, state.Time); err != nil {
		return nil, err
	}
	deltas := sim.StockDeltas(cm, state.Rates)
	next := make(map[ids.StockID]float64, len(state.Stocks))
	for id, v := range state.Stocks {
		next[id] = v + dt*deltas[id]
	}
	return sim.SnapshotAt(cm, next, state.Time+dt)
}
