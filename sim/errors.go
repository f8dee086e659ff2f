package sim

import "fmt"

// EquationParseError reports a parse failure in a variable's or flow's
// equation (Err is the underlying *equation.Diagnostic) or in a stock's
// units string (Err is the units parser's error). Subject names the
// variable, flow or stock.
type EquationParseError struct {
	Subject string
	Err     error
}

func (e *EquationParseError) Error() string {
	return fmt.Sprintf("parsing equation for %q: %v", e.Subject, e.Err)
}

func (e *EquationParseError) Unwrap() error { return e.Err }

// EquationEvaluationError reports an evaluation failure while computing a
// variable's or flow's value during a simulation step.
type EquationEvaluationError struct {
	Subject string
	Err     error
}

func (e *EquationEvaluationError) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Subject, e.Err)
}

func (e *EquationEvaluationError) Unwrap() error { return e.Err }

// EquationGraphBuildError reports a non-cycle failure compiling the
// dependency graph (e.g. a constant missing its value).
type EquationGraphBuildError struct {
	Reason string
}

func (e *EquationGraphBuildError) Error() string {
	return "building dependency graph: " + e.Reason
}

// EquationGraphCycleError reports a dependency cycle among auxiliary
// variables, naming every variable involved.
type EquationGraphCycleError struct {
	Nodes []string
}

func (e *EquationGraphCycleError) Error() string {
	return fmt.Sprintf("dependency cycle among variables: %v", e.Nodes)
}

// UnitMismatchError reports a flow rate whose units don't match (or drift
// from) stock_units / time_units.
type UnitMismatchError struct {
	Flow     string
	Expected string
	Got      string
}

func (e *UnitMismatchError) Error() string {
	return fmt.Sprintf("flow %q: rate units %q do not match expected %q", e.Flow, e.Got, e.Expected)
}

// InvalidTimeStepError reports a step size outside the adaptive solver's
// permitted range [1e-9, end-start].
type InvalidTimeStepError struct {
	Step float64
	Min  float64
	Max  float64
}

func (e *InvalidTimeStepError) Error() string {
	return fmt.Sprintf("time step %v outside permitted range [%v, %v]", e.Step, e.Min, e.Max)
}

// ConvergenceError reports an adaptive solver's failure to find an
// acceptable step at or above MinDt.
type ConvergenceError struct {
	ModelName string
	TimeStep  float64
	ErrorNorm float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("model %q: adaptive solver failed to converge at dt=%v (error norm %v)", e.ModelName, e.TimeStep, e.ErrorNorm)
}

// ScenarioOverrideNotFoundError reports override names that matched
// neither a stock nor a constant variable.
type ScenarioOverrideNotFoundError struct {
	Targets []string
}

func (e *ScenarioOverrideNotFoundError) Error() string {
	return fmt.Sprintf("scenario override target(s) not found: %v", e.Targets)
}

// ScenarioUnsupportedOverrideError reports an override aimed at something
// that cannot be overridden: an auxiliary variable.
type ScenarioUnsupportedOverrideError struct {
	Target string
	Reason string
}

func (e *ScenarioUnsupportedOverrideError) Error() string {
	return fmt.Sprintf("scenario override %q unsupported: %s", e.Target, e.Reason)
}

// ScenarioModelMismatchError reports a scenario definition whose
// BaseModelID doesn't match the model it's being applied to.
type ScenarioModelMismatchError struct {
	Expected string
	Got      string
}

func (e *ScenarioModelMismatchError) Error() string {
	return fmt.Sprintf("scenario base model %q does not match target model %q", e.Got, e.Expected)
}

// ScenarioMetricNotFoundError reports a metric name that resolved to
// neither a stock nor a variable, by name or by id.
type ScenarioMetricNotFoundError struct {
	Target string
}

func (e *ScenarioMetricNotFoundError) Error() string {
	return fmt.Sprintf("metric %q not found among stocks or variables", e.Target)
}

// MonteCarloConfigurationError reports an invalid Monte Carlo batch
// configuration (e.g. zero iterations, an unresolvable parameter
// baseline).
type MonteCarloConfigurationError struct {
	Reason string
}

func (e *MonteCarloConfigurationError) Error() string {
	return "invalid Monte Carlo configuration: " + e.Reason
}

// ModelValidationError aggregates every structural problem ValidateModel
// finds, rather than failing on the first (spec.md §10 ADDED).
type ModelValidationError struct {
	Problems []string
}

func (e *ModelValidationError) Error() string {
	return fmt.Sprintf("model validation failed with %d problem(s): %v", len(e.Problems), e.Problems)
}
