package montecarlo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/sim"
	_ "github.com/sysdyn/sysdyn/sim/solver/euler"
)

func growthModel(t *testing.T) *sim.Model {
	t.Helper()
	stockID, err := ids.NewStockID(ids.New())
	require.NoError(t, err)
	flowID, err := ids.NewFlowID(ids.New())
	require.NoError(t, err)
	rateID, err := ids.NewVariableID(ids.New())
	require.NoError(t, err)
	dieID, err := ids.NewVariableID(ids.New())
	require.NoError(t, err)
	return &sim.Model{
		Name:   "growth",
		Stocks: []sim.Stock{{ID: stockID, Name: "Population", InitialValue: 1000, Units: "people"}},
		Flows: []sim.Flow{{
			ID: flowID, Name: "Births", Target: &stockID,
			RateEquation: "BirthRate * Population",
			Units:        "people/tick",
		}},
		Variables: []sim.Variable{
			{ID: rateID, Name: "BirthRate", Kind: sim.KindConstant, Value: 0.1, HasValue: true},
			{ID: dieID, Name: "DeathRate", Kind: sim.KindConstant, Value: 0.05, HasValue: true},
		},
		TimeConfig: sim.TimeConfig{Start: 0, End: 10, Step: 1},
	}
}

func rateScaler(scaleBase, scaleSpan float64) func(SampleContext) float64 {
	return func(sc SampleContext) float64 {
		return sc.Baseline * (scaleBase + sc.Random()*scaleSpan)
	}
}

func baseConfig(t *testing.T) Config {
	return Config{
		Base:       growthModel(t),
		Iterations: 80,
		Parameters: []Parameter{
			{Name: "BirthRate", Sampler: rateScaler(0.8, 0.6)},
			{Name: "DeathRate", Sampler: rateScaler(0.7, 0.6)},
		},
		Metrics:     []string{"Population"},
		Seed:        20251031,
		Concurrency: 1,
		SolverName:  "euler",
	}
}

func TestRun_DeterministicAcrossReruns(t *testing.T) {
	first, err := Run(context.Background(), baseConfig(t))
	require.NoError(t, err)
	second, err := Run(context.Background(), baseConfig(t))
	require.NoError(t, err)
	assert.Equal(t, first.Metrics, second.Metrics, "results diverged across reruns")
}

func TestRun_DeterministicAcrossConcurrency(t *testing.T) {
	serial := baseConfig(t)
	serial.Concurrency = 1
	parallel := baseConfig(t)
	parallel.Concurrency = 8

	serialResult, err := Run(context.Background(), serial)
	require.NoError(t, err)
	parallelResult, err := Run(context.Background(), parallel)
	require.NoError(t, err)
	assert.Equal(t, serialResult.Metrics, parallelResult.Metrics, "results diverged between concurrency=1 and concurrency=8")
}

func TestRun_PercentileBoundsHold(t *testing.T) {
	result, err := Run(context.Background(), baseConfig(t))
	require.NoError(t, err)
	summary := result.Metrics["Population"]
	assert.GreaterOrEqual(t, summary.Variance, 0.0)

	var p50, p95 float64
	for _, pv := range summary.Percentiles {
		if pv.Percentile == 0.5 {
			p50 = pv.Value
		}
		if pv.Percentile == 0.95 {
			p95 = pv.Value
		}
	}
	assert.LessOrEqual(t, summary.Min, p50)
	assert.LessOrEqual(t, p50, p95)
	assert.LessOrEqual(t, p95, summary.Max)
}

func TestRun_UnresolvableParameterBaseline(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Parameters = append(cfg.Parameters, Parameter{Name: "DoesNotExist", Sampler: rateScaler(1, 0)})
	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.IsType(t, &sim.MonteCarloConfigurationError{}, err)
}

func TestRun_ZeroIterationsRejected(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Iterations = 0
	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.IsType(t, &sim.MonteCarloConfigurationError{}, err)
}
