package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sysdyn/sysdyn/sim"
	"github.com/sysdyn/sysdyn/sim/montecarlo"
	"github.com/sysdyn/sysdyn/sim/scenario"
	"github.com/sysdyn/sysdyn/sim/sensitivity"
)

func loadModel(path string) (*sim.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file %s: %w", path, err)
	}
	var cfg sim.ModelConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing model file %s: %w", path, err)
	}
	return cfg.ToModel()
}

// scenarioOverrideConfig names one override within a scenario definition.
type scenarioOverrideConfig struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

type scenarioConfig struct {
	Name      string                   `yaml:"name"`
	Overrides []scenarioOverrideConfig `yaml:"overrides"`
}

func (c scenarioConfig) toDefinition() scenario.Definition {
	overrides := make(map[string]float64, len(c.Overrides))
	for _, o := range c.Overrides {
		overrides[o.Name] = o.Value
	}
	return scenario.Definition{Name: c.Name, Overrides: overrides}
}

type scenarioFileConfig struct {
	Scenarios []scenarioConfig `yaml:"scenarios"`
}

func loadScenarios(path string) ([]scenario.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file %s: %w", path, err)
	}
	var cfg scenarioFileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing scenario file %s: %w", path, err)
	}
	defs := make([]scenario.Definition, len(cfg.Scenarios))
	for i, s := range cfg.Scenarios {
		defs[i] = s.toDefinition()
	}
	return defs, nil
}

type objectiveConfig struct {
	Target    string  `yaml:"target"`
	Direction string  `yaml:"direction"`
	AtTime    float64 `yaml:"atTime"`
}

func (c objectiveConfig) toObjective() sensitivity.Objective {
	return sensitivity.Objective{Target: c.Target, Direction: c.Direction, AtTime: c.AtTime}
}

type constraintConfig struct {
	Parameter string  `yaml:"parameter"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
}

func loadObjective(path string) (sensitivity.Objective, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sensitivity.Objective{}, fmt.Errorf("reading objective file %s: %w", path, err)
	}
	var obj objectiveConfig
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return sensitivity.Objective{}, fmt.Errorf("parsing objective file %s: %w", path, err)
	}
	return obj.toObjective(), nil
}

func loadConstraints(path string) ([]sensitivity.Constraint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading constraints file %s: %w", path, err)
	}
	var cfgs []constraintConfig
	if err := yaml.Unmarshal(data, &cfgs); err != nil {
		return nil, fmt.Errorf("parsing constraints file %s: %w", path, err)
	}
	constraints := make([]sensitivity.Constraint, len(cfgs))
	for i, c := range cfgs {
		constraints[i] = sensitivity.Constraint{Parameter: c.Parameter, Min: c.Min, Max: c.Max}
	}
	return constraints, nil
}

// monteCarloParameterConfig describes one parameter's sampler as the
// linear-scaling shape used throughout spec examples:
// baseline * (scaleBase + r*scaleSpan), r ~ U[0,1).
type monteCarloParameterConfig struct {
	Name      string  `yaml:"name"`
	ScaleBase float64 `yaml:"scaleBase"`
	ScaleSpan float64 `yaml:"scaleSpan"`
}

type monteCarloFileConfig struct {
	Iterations  int                         `yaml:"iterations"`
	Parameters  []monteCarloParameterConfig `yaml:"parameters"`
	Metrics     []string                    `yaml:"metrics"`
	Seed        int64                       `yaml:"seed"`
	Percentiles []float64                   `yaml:"percentiles"`
	Concurrency int                         `yaml:"concurrency"`
}

func loadMonteCarlo(path string, base *sim.Model, solverName string) (montecarlo.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return montecarlo.Config{}, fmt.Errorf("reading montecarlo file %s: %w", path, err)
	}
	var cfg monteCarloFileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return montecarlo.Config{}, fmt.Errorf("parsing montecarlo file %s: %w", path, err)
	}

	params := make([]montecarlo.Parameter, len(cfg.Parameters))
	for i, p := range cfg.Parameters {
		scaleBase, scaleSpan := p.ScaleBase, p.ScaleSpan
		params[i] = montecarlo.Parameter{
			Name: p.Name,
			Sampler: func(sc montecarlo.SampleContext) float64 {
				return sc.Baseline * (scaleBase + sc.Random()*scaleSpan)
			},
		}
	}

	return montecarlo.Config{
		Base:        base,
		Iterations:  cfg.Iterations,
		Parameters:  params,
		Metrics:     cfg.Metrics,
		Seed:        cfg.Seed,
		Percentiles: cfg.Percentiles,
		Concurrency: cfg.Concurrency,
		SolverName:  solverName,
	}, nil
}
