package sim

// ApplyOverrides returns a clone of m with each name→value override
// applied: a name resolves to a stock's InitialValue or a constant
// variable's Value. Auxiliary variables cannot be overridden (spec.md
// §4.8); names matching neither are reported together.
func ApplyOverrides(m *Model, overrides map[string]float64) (*Model, error) {
	out := m.Clone()
	var missing []string
	for name, value := range overrides {
		if s := out.stockByName(name); s != nil {
			s.InitialValue = value
			continue
		}
		if v := out.variableByName(name); v != nil {
			if v.Kind != KindConstant {
				return nil, &ScenarioUnsupportedOverrideError{Target: name, Reason: "auxiliary variables cannot be overridden"}
			}
			v.Value = value
			v.HasValue = true
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return nil, &ScenarioOverrideNotFoundError{Targets: missing}
	}
	return out, nil
}
