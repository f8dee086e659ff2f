package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sysdyn/sysdyn/sim"
	"github.com/sysdyn/sysdyn/sim/montecarlo"
	"github.com/sysdyn/sysdyn/sim/sensitivity"
)

var (
	optimizeModelPath       string
	optimizeObjectivePath   string
	optimizeConstraintsPath string
	optimizeSolver          string
	optimizeSteps           int
	optimizeIterations      int
	optimizeSeed            int64
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search parameter constraints for the best objective value",
}

var optimizeGridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Exhaustively grid-search each constraint's range",
	RunE: func(cmd *cobra.Command, args []string) error {
		model, obj, constraints, err := loadOptimizeInputs()
		if err != nil {
			return err
		}
		result, err := sensitivity.Grid(context.Background(), model, obj, constraints, optimizeSteps,
			sensitivity.Options{SolverName: optimizeSolver})
		if err != nil {
			return err
		}
		printOptimizeResult(result)
		return nil
	},
}

var optimizeRandomCmd = &cobra.Command{
	Use:   "random",
	Short: "Randomly sample each constraint's range",
	RunE: func(cmd *cobra.Command, args []string) error {
		model, obj, constraints, err := loadOptimizeInputs()
		if err != nil {
			return err
		}
		rng := montecarlo.NewMulberry32(uint32(optimizeSeed))
		result, err := sensitivity.Random(context.Background(), model, obj, constraints, optimizeIterations, rng.Float64,
			sensitivity.Options{SolverName: optimizeSolver})
		if err != nil {
			return err
		}
		printOptimizeResult(result)
		return nil
	},
}

func loadOptimizeInputs() (*sim.Model, sensitivity.Objective, []sensitivity.Constraint, error) {
	model, err := loadModel(optimizeModelPath)
	if err != nil {
		return nil, sensitivity.Objective{}, nil, err
	}
	obj, err := loadObjective(optimizeObjectivePath)
	if err != nil {
		return nil, sensitivity.Objective{}, nil, err
	}
	constraints, err := loadConstraints(optimizeConstraintsPath)
	if err != nil {
		return nil, sensitivity.Objective{}, nil, err
	}
	return model, obj, constraints, nil
}

func printOptimizeResult(result *sensitivity.OptimizeResult) {
	fmt.Printf("strategy=%s iterations=%d value=%v\n", result.Strategy, result.Iterations, result.Value)
	fmt.Printf("best parameters: %v\n", result.BestParameters)
}

func init() {
	for _, c := range []*cobra.Command{optimizeGridCmd, optimizeRandomCmd} {
		c.Flags().StringVar(&optimizeModelPath, "model", "", "path to a model YAML file (required)")
		c.Flags().StringVar(&optimizeObjectivePath, "objective", "", "path to an objective YAML file (required)")
		c.Flags().StringVar(&optimizeConstraintsPath, "constraints", "", "path to a constraints YAML file (required)")
		c.Flags().StringVar(&optimizeSolver, "solver", "euler", "solver to use: euler, rk4, or adaptive")
		c.MarkFlagRequired("model")
		c.MarkFlagRequired("objective")
		c.MarkFlagRequired("constraints")
	}
	optimizeGridCmd.Flags().IntVar(&optimizeSteps, "steps", 5, "number of grid steps per parameter")
	optimizeRandomCmd.Flags().IntVar(&optimizeIterations, "iterations", 50, "number of random samples")
	optimizeRandomCmd.Flags().Int64Var(&optimizeSeed, "seed", 1, "PRNG seed for random sampling")

	optimizeCmd.AddCommand(optimizeGridCmd)
	optimizeCmd.AddCommand(optimizeRandomCmd)
}
