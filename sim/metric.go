package sim

import "github.com/sysdyn/sysdyn/internal/ids"

// MetricAt reads name from the first snapshot in states with Time >=
// atTime, falling back to the last snapshot if none qualifies. name is
// checked against stocks first (by name, then by raw id string), then
// variables the same way (spec.md §4.9 objective evaluation).
func MetricAt(m *Model, states []SimState, name string, atTime float64) (float64, error) {
	if len(states) == 0 {
		return 0, &ScenarioMetricNotFoundError{Target: name}
	}
	state := states[len(states)-1]
	for _, s := range states {
		if s.Time >= atTime {
			state = s
			break
		}
	}

	if s := m.stockByName(name); s != nil {
		return state.Stocks[s.ID], nil
	}
	if id, err := ids.NewStockID(name); err == nil {
		if v, ok := state.Stocks[id]; ok {
			return v, nil
		}
	}
	if v := m.variableByName(name); v != nil {
		return state.Variables[v.ID], nil
	}
	if id, err := ids.NewVariableID(name); err == nil {
		if v, ok := state.Variables[id]; ok {
			return v, nil
		}
	}
	return 0, &ScenarioMetricNotFoundError{Target: name}
}
