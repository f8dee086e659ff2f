package euler

import (
	"context"
	"testing"

	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/sim"
)

func growthModel(t *testing.T) *sim.CompiledModel {
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
		TimeConfig: sim.TimeConfig{Start: 0, End: 10, Step: 1},
	}
	cm, err := sim.Compile(m)
	if err != nil {
		t.Fatal(err)
	}
	return cm
}

func TestStep_PureGrowthMatchesEulerFormula(t *testing.T) {
	cm := growthModel(t)
	stockValues := map[ids.StockID]float64{}
	for _, s := range cm.Model.Stocks {
		stockValues[s.ID] = s.InitialValue
	}
	state, err := sim.EvaluateSnapshot(cm, stockValues, 0, cm.DelayStore(), true)
	if err != nil {
		t.Fatal(err)
	}
	solver := &Solver{}
	next, err := solver.Step(context.Background(), cm, state, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := 100 + 1*0.1*100
	got := next.Stocks[cm.Model.Stocks[0].ID]
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if next.Time != 1 {
		t.Errorf("time = %v, want 1", next.Time)
	}
}

func TestStep_RegisteredByName(t *testing.T) {
	solver, err := sim.NewSolver("euler")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := solver.(*Solver); !ok {
		t.Errorf("got %T, want *Solver", solver)
	}
}
