package sensitivity

import (
	"context"
	"testing"

	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/sim"
	_ "github.com/sysdyn/sysdyn/sim/solver/euler"
)

func growthModel(t *testing.T) *sim.Model {
	t.Helper()
	stockID, err := ids.NewStockID(ids.New())
	if err != nil {
		t.Fatal(err)
	}
	flowID, err := ids.NewFlowID(ids.New())
	if err != nil {
		t.Fatal(err)
	}
	rateID, err := ids.NewVariableID(ids.New())
	if err != nil {
		t.Fatal(err)
	}
	return &sim.Model{
		Name:   "growth",
		Stocks: []sim.Stock{{ID: stockID, Name: "Population", InitialValue: 100, Units: "people"}},
		Flows: []sim.Flow{{
			ID: flowID, Name: "Births", Target: &stockID,
			RateEquation: "GrowthRate * Population",
			Units:        "people/tick",
		}},
		Variables: []sim.Variable{{ID: rateID, Name: "GrowthRate", Kind: sim.KindConstant, Value: 0.1, HasValue: true}},
		TimeConfig: sim.TimeConfig{Start: 0, End: 10, Step: 1},
	}
}

func TestAnalyze_PositiveImpactSortedFirst(t *testing.T) {
	m := growthModel(t)
	results, err := Analyze(context.Background(), m, "Population", []string{"GrowthRate"}, 50, Options{SolverName: "euler"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Direction != "positive" {
		t.Errorf("direction = %q, want positive", results[0].Direction)
	}
	if results[0].Confidence != 1 {
		t.Errorf("confidence = %v, want 1", results[0].Confidence)
	}
}

func TestGrid_MonotonicModelPicksUpperBound(t *testing.T) {
	m := growthModel(t)
	result, err := Grid(context.Background(), m, Objective{Target: "Population", Direction: "maximize", AtTime: 10},
		[]Constraint{{Parameter: "GrowthRate", Min: 0.05, Max: 0.15}}, 5, Options{SolverName: "euler"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Iterations != 5 {
		t.Errorf("iterations = %d, want 5", result.Iterations)
	}
	if got := result.BestParameters["GrowthRate"]; got < 0.1499 || got > 0.1501 {
		t.Errorf("best parameter = %v, want ~0.15", got)
	}
}

func TestRandom_CountsBaselinePlusIterations(t *testing.T) {
	m := growthModel(t)
	calls := 0
	sample := func() float64 {
		calls++
		return 0.5
	}
	result, err := Random(context.Background(), m, Objective{Target: "Population", Direction: "maximize", AtTime: 10},
		[]Constraint{{Parameter: "GrowthRate", Min: 0.05, Max: 0.15}}, 9, sample, Options{SolverName: "euler"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Iterations != 10 {
		t.Errorf("iterations = %d, want 10 (9 + baseline)", result.Iterations)
	}
}
