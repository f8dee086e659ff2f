package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sysdyn/sysdyn/sim/scenario"
)

var (
	scenarioModelPath   string
	scenarioDefsPath    string
	scenarioSolver      string
	scenarioParallelism int
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Compare scenario overrides against a baseline run",
}

var scenarioCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run a baseline plus named scenario overrides and report deltas",
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadModel(scenarioModelPath)
		if err != nil {
			return err
		}
		defs, err := loadScenarios(scenarioDefsPath)
		if err != nil {
			return err
		}
		comparison, err := scenario.Compare(context.Background(), model, defs, scenario.CompareOptions{
			SolverName:  scenarioSolver,
			Parallelism: scenarioParallelism,
		})
		if err != nil {
			return err
		}
		fmt.Printf("baseline: time=%v stocks=%v\n", comparison.Baseline.FinalTime, comparison.Baseline.FinalStocks)
		for _, s := range comparison.Scenarios {
			fmt.Printf("%s: time=%v stocks=%v delta=%v\n", s.Name, s.FinalTime, s.FinalStocks, s.DeltaStocks)
		}
		return nil
	},
}

func init() {
	scenarioCompareCmd.Flags().StringVar(&scenarioModelPath, "model", "", "path to a model YAML file (required)")
	scenarioCompareCmd.Flags().StringVar(&scenarioDefsPath, "scenarios", "", "path to a scenario definitions YAML file (required)")
	scenarioCompareCmd.Flags().StringVar(&scenarioSolver, "solver", "euler", "solver to use: euler, rk4, or adaptive")
	scenarioCompareCmd.Flags().IntVar(&scenarioParallelism, "parallelism", 0, "max concurrent simulations (0 = unbounded)")
	scenarioCompareCmd.MarkFlagRequired("model")
	scenarioCompareCmd.MarkFlagRequired("scenarios")

	scenarioCmd.AddCommand(scenarioCompareCmd)
}
