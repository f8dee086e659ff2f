package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validModelConfig() ModelConfig {
	return ModelConfig{
		Name: "growth",
		Stocks: []StockConfig{
			{Name: "Population", InitialValue: 100, Units: "people"},
		},
		Flows: []FlowConfig{
			{Name: "Births", Target: "Population", RateEquation: "0.1 * Population", Units: "people/tick"},
		},
		Variables:  []VariableConfig{{Name: "Rate", Kind: "constant", Value: 0.1}},
		TimeConfig: TimeConfigDTO{Start: 0, End: 10, Step: 1},
	}
}

func TestModelConfig_ToModel_ResolvesFlowEndpoints(t *testing.T) {
	m, err := validModelConfig().ToModel()
	require.NoError(t, err)
	require.Len(t, m.Stocks, 1)
	require.Len(t, m.Flows, 1)
	require.NotNil(t, m.Flows[0].Target)
	assert.Equal(t, m.Stocks[0].ID, *m.Flows[0].Target)
	assert.Nil(t, m.Flows[0].Source, "flow source should be nil (cloud)")
}

func TestModelConfig_ToModel_UnknownFlowEndpointRejected(t *testing.T) {
	cfg := validModelConfig()
	cfg.Flows[0].Source = "DoesNotExist"
	_, err := cfg.ToModel()
	assert.Error(t, err, "expected error for unknown flow source")
}

func TestModelConfig_Validate_RejectsEmptyName(t *testing.T) {
	cfg := validModelConfig()
	cfg.Name = ""
	assert.Error(t, cfg.Validate(), "expected error for empty model name")
}

func TestFlowConfig_Validate_RejectsBothCloudFlow(t *testing.T) {
	f := FlowConfig{Name: "Nowhere", RateEquation: "1"}
	assert.Error(t, f.Validate(), "expected error for flow with neither source nor target")
}

func TestVariableConfig_Validate_RejectsUnknownKind(t *testing.T) {
	v := VariableConfig{Name: "X", Kind: "bogus"}
	assert.Error(t, v.Validate(), "expected error for unknown variable kind")
}
