package sim

import "fmt"

// ValidateModel collects every structural problem in m rather than
// failing on the first, mirroring the config-struct Validate() convention
// used elsewhere in this codebase but aggregated across the whole model
// (spec.md §10 ADDED).
func ValidateModel(m *Model) error {
	var problems []string

	seenStockIDs := map[string]bool{}
	seenStockNames := map[string]bool{}
	for _, s := range m.Stocks {
		if s.Name == "" {
			problems = append(problems, fmt.Sprintf("stock %s: name must not be empty", s.ID))
		}
		if seenStockIDs[string(s.ID)] {
			problems = append(problems, fmt.Sprintf("duplicate stock id %s", s.ID))
		}
		seenStockIDs[string(s.ID)] = true
		if seenStockNames[s.Name] {
			problems = append(problems, fmt.Sprintf("duplicate stock name %q", s.Name))
		}
		seenStockNames[s.Name] = true
	}

	seenFlowIDs := map[string]bool{}
	for _, f := range m.Flows {
		if f.Name == "" {
			problems = append(problems, fmt.Sprintf("flow %s: name must not be empty", f.ID))
		}
		if seenFlowIDs[string(f.ID)] {
			problems = append(problems, fmt.Sprintf("duplicate flow id %s", f.ID))
		}
		seenFlowIDs[string(f.ID)] = true
		if f.RateEquation == "" {
			problems = append(problems, fmt.Sprintf("flow %q: rateEquation must not be empty", f.Name))
		}
		if f.Source == nil && f.Target == nil {
			problems = append(problems, fmt.Sprintf("flow %q: must have at least one of source/target (not both cloud)", f.Name))
		}
		if f.Source != nil && m.stockByID(*f.Source) == nil {
			problems = append(problems, fmt.Sprintf("flow %q: source %s is not a stock in this model", f.Name, *f.Source))
		}
		if f.Target != nil && m.stockByID(*f.Target) == nil {
			problems = append(problems, fmt.Sprintf("flow %q: target %s is not a stock in this model", f.Name, *f.Target))
		}
		if f.Source != nil && f.Target != nil {
			src, tgt := m.stockByID(*f.Source), m.stockByID(*f.Target)
			if src != nil && tgt != nil && src.Units != tgt.Units {
				problems = append(problems, fmt.Sprintf("flow %q: source units %q and target units %q must match", f.Name, src.Units, tgt.Units))
			}
		}
	}

	seenVarIDs := map[string]bool{}
	seenVarNames := map[string]bool{}
	for _, v := range m.Variables {
		if v.Name == "" {
			problems = append(problems, fmt.Sprintf("variable %s: name must not be empty", v.ID))
		}
		if seenVarIDs[string(v.ID)] {
			problems = append(problems, fmt.Sprintf("duplicate variable id %s", v.ID))
		}
		seenVarIDs[string(v.ID)] = true
		if seenVarNames[v.Name] {
			problems = append(problems, fmt.Sprintf("duplicate variable name %q", v.Name))
		}
		seenVarNames[v.Name] = true
		if v.Kind == KindConstant && !v.HasValue {
			problems = append(problems, fmt.Sprintf("constant %q: has no value", v.Name))
		}
		if v.Kind == KindAuxiliary && v.Equation == "" {
			problems = append(problems, fmt.Sprintf("auxiliary %q: equation must not be empty", v.Name))
		}
	}

	if err := m.TimeConfig.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if _, err := Compile(m); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) == 0 {
		return nil
	}
	return &ModelValidationError{Problems: problems}
}
