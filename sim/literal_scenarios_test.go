package sim_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/sim"
	_ "github.com/sysdyn/sysdyn/sim/solver/euler"
	_ "github.com/sysdyn/sysdyn/sim/solver/rk4"
)

func mustStockID(t *testing.T) ids.StockID {
	t.Helper()
	id, err := ids.NewStockID(ids.New())
	require.NoError(t, err)
	return id
}

func mustFlowID(t *testing.T) ids.FlowID {
	t.Helper()
	id, err := ids.NewFlowID(ids.New())
	require.NoError(t, err)
	return id
}

func mustVariableID(t *testing.T) ids.VariableID {
	t.Helper()
	id, err := ids.NewVariableID(ids.New())
	require.NoError(t, err)
	return id
}

// TestPureGrowth_EulerAndRK4 matches the canonical growth scenario: P=1000,
// a cloud-sinked self-loop flow at rate 0.1*P/tick, ten unit steps.
func TestPureGrowth_EulerAndRK4(t *testing.T) {
	stockID := mustStockID(t)
	flowID := mustFlowID(t)
	model := &sim.Model{
		Name:   "growth",
		Stocks: []sim.Stock{{ID: stockID, Name: "P", InitialValue: 1000, Units: "people"}},
		Flows: []sim.Flow{{
			ID: flowID, Name: "Growth", Target: &stockID,
			RateEquation: "0.1 * P",
			Units:        "people/tick",
		}},
		TimeConfig: sim.TimeConfig{Start: 0, End: 10, Step: 1},
	}

	cm, err := sim.Compile(model)
	require.NoError(t, err)
	eulerSolver, err := sim.NewSolver("euler")
	require.NoError(t, err)
	final, err := sim.SimulateFinal(context.Background(), cm, eulerSolver)
	require.NoError(t, err)
	assert.InDelta(t, 1000*math.Pow(1.1, 10), final.Stocks[stockID], 1e-6)

	cm2, err := sim.Compile(model)
	require.NoError(t, err)
	rk4Solver, err := sim.NewSolver("rk4")
	require.NoError(t, err)
	final2, err := sim.SimulateFinal(context.Background(), cm2, rk4Solver)
	require.NoError(t, err)
	// Each RK4 step of P' = 0.1P with dt=1 multiplies P by the degree-4
	// Taylor polynomial of e^0.1, so ten steps end about 2e-3 below 1000e.
	assert.InDelta(t, 1000*math.Pow(1+0.1+0.1*0.1/2+0.1*0.1*0.1/6+0.1*0.1*0.1*0.1/24, 10), final2.Stocks[stockID], 1e-6)
}

// TestMassConservation_ExactEulerArithmetic matches the canonical transfer
// scenario: a constant-rate flow moves mass from A to B with no feedback,
// so Euler's update is exact arithmetic at every step.
func TestMassConservation_ExactEulerArithmetic(t *testing.T) {
	stockA := mustStockID(t)
	stockB := mustStockID(t)
	flowID := mustFlowID(t)
	model := &sim.Model{
		Name: "transfer",
		Stocks: []sim.Stock{
			{ID: stockA, Name: "A", InitialValue: 100, Units: "units"},
			{ID: stockB, Name: "B", InitialValue: 0, Units: "units"},
		},
		Flows: []sim.Flow{{
			ID: flowID, Name: "Transfer", Source: &stockA, Target: &stockB,
			RateEquation: "5{units}",
			Units:        "units/tick",
		}},
		TimeConfig: sim.TimeConfig{Start: 0, End: 10, Step: 1},
	}

	cm, err := sim.Compile(model)
	require.NoError(t, err)
	solver, err := sim.NewSolver("euler")
	require.NoError(t, err)
	final, err := sim.SimulateFinal(context.Background(), cm, solver)
	require.NoError(t, err)

	assert.Equal(t, 50.0, final.Stocks[stockA])
	assert.Equal(t, 50.0, final.Stocks[stockB])
	assert.Equal(t, 100.0, final.Stocks[stockA]+final.Stocks[stockB])
}

// TestUnitMismatch_RejectsIncompatibleFlowTarget matches the canonical
// unit-mismatch scenario: a kg-denominated rate expression feeding a
// people-denominated stock must fail dimensional validation.
func TestUnitMismatch_RejectsIncompatibleFlowTarget(t *testing.T) {
	stockA := mustStockID(t)
	stockPeople := mustStockID(t)
	flowID := mustFlowID(t)
	model := &sim.Model{
		Name: "mismatch",
		Stocks: []sim.Stock{
			{ID: stockA, Name: "A", InitialValue: 10, Units: "kg"},
			{ID: stockPeople, Name: "Population", InitialValue: 0, Units: "people"},
		},
		Flows: []sim.Flow{{
			ID: flowID, Name: "Bad", Target: &stockPeople,
			RateEquation: "A",
			Units:        "people/tick",
		}},
		TimeConfig: sim.TimeConfig{Start: 0, End: 1, Step: 1},
	}

	cm, err := sim.Compile(model)
	require.NoError(t, err)
	solver, err := sim.NewSolver("euler")
	require.NoError(t, err)
	_, err = sim.SimulateFinal(context.Background(), cm, solver)
	require.Error(t, err)
	assert.IsType(t, &sim.UnitMismatchError{}, err)
}

// TestSIR_ConservesTotalPopulation matches the canonical SIR scenario:
// S+I+R must stay constant (to within float64 accumulation error) across
// the whole run regardless of the epidemic's internal dynamics.
func TestSIR_ConservesTotalPopulation(t *testing.T) {
	stockS := mustStockID(t)
	stockI := mustStockID(t)
	stockR := mustStockID(t)
	infections := mustFlowID(t)
	recoveries := mustFlowID(t)
	gamma := mustVariableID(t)

	model := &sim.Model{
		Name: "sir",
		Stocks: []sim.Stock{
			{ID: stockS, Name: "S", InitialValue: 20, Units: "people"},
			{ID: stockI, Name: "I", InitialValue: 15, Units: "people"},
			{ID: stockR, Name: "R", InitialValue: 10, Units: "people"},
		},
		Flows: []sim.Flow{
			// Beta's 1/people dimension is carried by the rate literal
			// itself, since a KindConstant variable always enters scope
			// unitless: S*I contributes people^2, so Beta must cancel
			// one factor for Infections to land on people (implicit tick).
			{ID: infections, Name: "Infections", Source: &stockS, Target: &stockI,
				RateEquation: "0.01{1/people} * S * I", Units: "people/tick"},
			{ID: recoveries, Name: "Recoveries", Source: &stockI, Target: &stockR,
				RateEquation: "Gamma * I", Units: "people/tick"},
		},
		Variables: []sim.Variable{
			{ID: gamma, Name: "Gamma", Kind: sim.KindConstant, Value: 0.02, HasValue: true},
		},
		TimeConfig: sim.TimeConfig{Start: 0, End: 200, Step: 1},
	}

	cm, err := sim.Compile(model)
	require.NoError(t, err)
	solver, err := sim.NewSolver("euler")
	require.NoError(t, err)

	const initialTotal = 45.0
	var maxDeviation float64
	var peakI float64
	err = sim.Simulate(context.Background(), cm, solver, func(s sim.SimState) bool {
		total := s.Stocks[stockS] + s.Stocks[stockI] + s.Stocks[stockR]
		if d := math.Abs(total - initialTotal); d > maxDeviation {
			maxDeviation = d
		}
		if s.Stocks[stockI] > peakI {
			peakI = s.Stocks[stockI]
		}
		return true
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, maxDeviation, 1e-9)
	assert.Greater(t, peakI, 25.0)
	assert.Less(t, peakI, 32.0)
}
