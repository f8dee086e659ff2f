// Package rk4 registers the fixed-step classical Runge-Kutta solver under
// the name "rk4".
package rk4

import (
	"context"

	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/sim"
)

func init() {
	sim.RegisterSolver("rk4", func() sim.Solver { return &Solver{} })
}

// Solver implements the genuine 4-stage Runge-Kutta method (spec.md
// §4.6): four rate evaluations at (t,y), (t+dt/2,y+dt/2*k1),
// (t+dt/2,y+dt/2*k2) and (t+dt,y+dt*k3), combined as
// y' = y + dt/6*(k1+2k2+2k3+k4). The three intermediate evaluations are
// speculative and must not be allowed to advance DELAY/SMOOTH state, so
// they run against clones of the model's delay store; only one real
// commit happens per step, keyed to the step's starting state.
type Solver struct{}

func (s *Solver) Step(_ context.Context, cm *sim.CompiledModel, state *sim.SimState, dt float64) (*sim.SimState, error) {
	y := state.Stocks
	t := state.Time

	k1 := sim.StockDeltas(cm, state.Rates)

	y2 := addScaled(y, k1, dt/2)
	rates2, err := sim.EvaluateRatesAt(cm, y2, t+dt/2, cm.DelayStore().Clone(), false)
	if err != nil {
		return nil, err
	}
	k2 := sim.StockDeltas(cm, rates2)

	y3 := addScaled(y, k2, dt/2)
	rates3, err := sim.EvaluateRatesAt(cm, y3, t+dt/2, cm.DelayStore().Clone(), false)
	if err != nil {
		return nil, err
	}
	k3 := sim.StockDeltas(cm, rates3)

	y4 := addScaled(y, k3, dt)
	rates4, err := sim.EvaluateRatesAt(cm, y4, t+dt, cm.DelayStore().Clone(), false)
	if err != nil {
		return nil, err
	}
	k4 := sim.StockDeltas(cm, rates4)

	next := make(map[ids.StockID]float64, len(y))
	for id := range y {
		next[id] = y[id] + dt/6*(k1[id]+2*k2[id]+2*k3[id]+k4[id])
	}

	if err := sim.CommitStep(cm, state.Stocks, state.Time); err != nil {
		return nil, err
	}
	return sim.SnapshotAt(cm, next, t+dt)
}

func addScaled(y, k map[ids.StockID]float64, scale float64) map[ids.StockID]float64 {
	out := make(map[ids.StockID]float64, len(y))
	for id, v := range y {
		out[id] = v + scale*k[id]
	}
	return out
}
