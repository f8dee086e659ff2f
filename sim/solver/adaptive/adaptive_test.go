package adaptive

import (
	"context"
	"math"
	"testing"

	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/sim"
)

func growthModel(t *testing.T, step float64) *sim.CompiledModel {
	t.Helper()
	stockID, err := ids.NewStockID(ids.New())
	if err != nil {
		t.Fatal(err)
	}
	flowID, err := ids.NewFlowID(ids.New())
	if err != nil {
		t.Fatal(err)
	}
	m := &sim.Model{
		Name:   "growth",
		Stocks: []sim.Stock{{ID: stockID, Name: "Population", InitialValue: 100, Units: "people"}},
		Flows: []sim.Flow{{
			ID: flowID, Name: "Births", Target: &stockID,
			RateEquation: "0.1 * Population",
			Units:        "people/tick",
		}},
		TimeConfig: sim.TimeConfig{Start: 0, End: 10, Step: step},
	}
	cm, err := sim.Compile(m)
	if err != nil {
		t.Fatal(err)
	}
	return cm
}

func TestStep_ReachesExactTargetTime(t *testing.T) {
	cm := growthModel(t, 1)
	stockID := cm.Model.Stocks[0].ID
	stockValues := map[ids.StockID]float64{stockID: 100}
	state, err := sim.EvaluateSnapshot(cm, stockValues, 0, cm.DelayStore(), true)
	if err != nil {
		t.Fatal(err)
	}
	solver := &Solver{AbsTol: 1e-8, RelTol: 1e-8}
	next, err := solver.Step(context.Background(), cm, state, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(next.Time-1) > 1e-9 {
		t.Errorf("time = %v, want 1", next.Time)
	}
	exact := 100 * math.Exp(0.1)
	if math.Abs(next.Stocks[stockID]-exact) > 1e-4 {
		t.Errorf("stock = %v, want close to %v", next.Stocks[stockID], exact)
	}
}

func TestStep_RejectsOutOfRangeDt(t *testing.T) {
	cm := growthModel(t, 1)
	stockID := cm.Model.Stocks[0].ID
	stockValues := map[ids.StockID]float64{stockID: 100}
	state, err := sim.EvaluateSnapshot(cm, stockValues, 0, cm.DelayStore(), true)
	if err != nil {
		t.Fatal(err)
	}
	solver := &Solver{AbsTol: 1e-8, RelTol: 1e-8}
	_, err = solver.Step(context.Background(), cm, state, 100)
	if err == nil {
		t.Fatal("expected InvalidTimeStepError, got nil")
	}
	if _, ok := err.(*sim.InvalidTimeStepError); !ok {
		t.Errorf("got %T, want *sim.InvalidTimeStepError", err)
	}
}

func TestStep_RegisteredByName(t *testing.T) {
	solver, err := sim.NewSolver("adaptive")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := solver.(*Solver); !ok {
		t.Errorf("got %T, want *Solver", solver)
	}
}
