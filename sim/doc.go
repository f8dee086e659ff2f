// Package sim provides the core continuous-time system-dynamics simulation
// engine.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - model.go: Stock, Flow, Variable, TimeConfig, Model — the data model.
//   - compile.go: CompiledModel — parses equations and orders auxiliaries.
//   - solver.go: the Solver interface and its registration seam.
//   - driver.go: the time-step loop that advances a Model one snapshot at a time.
//
// # Architecture
//
// The sim package defines the data model, the compiled-equation-graph
// representation, and the Solver extension point; concrete solvers live in
// sub-packages:
//   - sim/solver/euler: fixed-step forward Euler.
//   - sim/solver/rk4: fixed-step 4th-order Runge-Kutta.
//   - sim/solver/adaptive: embedded Runge-Kutta with adaptive step size.
//
// Solver sub-packages register their constructor via an init() function
// that calls RegisterSolver — the same factory-registration pattern used
// throughout this codebase to avoid an import cycle between sim (interface
// owner) and sim/solver/* (implementations): production code imports the
// concrete solver package for its side-effecting init(), and sim itself
// never imports any of them.
//
// sim/scenario, sim/sensitivity, and sim/montecarlo build on top of this
// package's Driver to provide parameter-override comparison, sensitivity
// sweeps, optimisation, and Monte Carlo sampling.
package sim
