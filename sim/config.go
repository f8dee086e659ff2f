package sim

import (
	"fmt"

	"github.com/sysdyn/sysdyn/internal/ids"
)

// StockConfig is the YAML-decodable form of a Stock.
type StockConfig struct {
	Name         string  `yaml:"name"`
	InitialValue float64 `yaml:"initialValue"`
	Units        string  `yaml:"units"`
	Description  string  `yaml:"description"`
}

func (c StockConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("stock: name must not be empty")
	}
	return nil
}

// FlowConfig is the YAML-decodable form of a Flow. Source and Target name
// a stock by its StockConfig.Name; an empty one means "cloud".
type FlowConfig struct {
	Name         string `yaml:"name"`
	Source       string `yaml:"source"`
	Target       string `yaml:"target"`
	RateEquation string `yaml:"rateEquation"`
	Units        string `yaml:"units"`
}

func (c FlowConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("flow: name must not be empty")
	}
	if c.RateEquation == "" {
		return fmt.Errorf("flow %q: rateEquation must not be empty", c.Name)
	}
	if c.Source == "" && c.Target == "" {
		return fmt.Errorf("flow %q: must have at least one of source/target", c.Name)
	}
	return nil
}

// VariableConfig is the YAML-decodable form of a Variable. Kind is
// "constant" or "auxiliary"; constants set Value, auxiliaries set
// Equation.
type VariableConfig struct {
	Name     string  `yaml:"name"`
	Kind     string  `yaml:"kind"`
	Value    float64 `yaml:"value"`
	Equation string  `yaml:"equation"`
}

func (c VariableConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("variable: name must not be empty")
	}
	switch c.Kind {
	case "constant":
	case "auxiliary":
		if c.Equation == "" {
			return fmt.Errorf("auxiliary %q: equation must not be empty", c.Name)
		}
	default:
		return fmt.Errorf("variable %q: kind must be \"constant\" or \"auxiliary\", got %q", c.Name, c.Kind)
	}
	return nil
}

// TimeConfigDTO is the YAML-decodable form of TimeConfig.
type TimeConfigDTO struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Step  float64 `yaml:"step"`
}

func (c TimeConfigDTO) Validate() error {
	return c.toDomain().Validate()
}

func (c TimeConfigDTO) toDomain() TimeConfig {
	return TimeConfig{Start: c.Start, End: c.End, Step: c.Step}
}

// ModelConfig is the YAML-decodable form of a Model (spec.md §3.1).
type ModelConfig struct {
	Name       string           `yaml:"name"`
	Stocks     []StockConfig    `yaml:"stocks"`
	Flows      []FlowConfig     `yaml:"flows"`
	Variables  []VariableConfig `yaml:"variables"`
	TimeConfig TimeConfigDTO    `yaml:"time"`
}

// Validate checks every structural/numeric invariant spec.md names —
// nonempty names, step > 0, and so on — but not general schema
// conformance; that is the seam an out-of-scope schema-validation layer
// would occupy upstream of this call.
func (c ModelConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("model: name must not be empty")
	}
	for _, s := range c.Stocks {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, f := range c.Flows {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	for _, v := range c.Variables {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return c.TimeConfig.Validate()
}

// ToModel builds the domain Model c describes, minting a fresh UUID for
// the model and for every stock, flow, and variable, resolving each
// flow's Source/Target stock name against the stocks just minted.
func (c ModelConfig) ToModel() (*Model, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	modelID, err := ids.NewModelID(ids.New())
	if err != nil {
		return nil, err
	}

	m := &Model{ID: modelID, Name: c.Name, TimeConfig: c.TimeConfig.toDomain()}

	stockIDByName := make(map[string]ids.StockID, len(c.Stocks))
	for _, sc := range c.Stocks {
		id, err := ids.NewStockID(ids.New())
		if err != nil {
			return nil, err
		}
		stockIDByName[sc.Name] = id
		m.Stocks = append(m.Stocks, Stock{
			ID: id, Name: sc.Name, InitialValue: sc.InitialValue,
			Units: sc.Units, Description: sc.Description,
		})
	}

	for _, fc := range c.Flows {
		id, err := ids.NewFlowID(ids.New())
		if err != nil {
			return nil, err
		}
		flow := Flow{ID: id, Name: fc.Name, RateEquation: fc.RateEquation, Units: fc.Units}
		if fc.Source != "" {
			sid, ok := stockIDByName[fc.Source]
			if !ok {
				return nil, fmt.Errorf("flow %q: source %q is not a declared stock", fc.Name, fc.Source)
			}
			flow.Source = &sid
		}
		if fc.Target != "" {
			tid, ok := stockIDByName[fc.Target]
			if !ok {
				return nil, fmt.Errorf("flow %q: target %q is not a declared stock", fc.Name, fc.Target)
			}
			flow.Target = &tid
		}
		m.Flows = append(m.Flows, flow)
	}

	for _, vc := range c.Variables {
		id, err := ids.NewVariableID(ids.New())
		if err != nil {
			return nil, err
		}
		v := Variable{ID: id, Name: vc.Name}
		if vc.Kind == "constant" {
			v.Kind = KindConstant
			v.Value = vc.Value
			v.HasValue = true
		} else {
			v.Kind = KindAuxiliary
			v.Equation = vc.Equation
		}
		m.Variables = append(m.Variables, v)
	}

	return m, nil
}
