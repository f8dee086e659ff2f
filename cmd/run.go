package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sysdyn/sysdyn/sim"
	"github.com/sysdyn/sysdyn/sim/export"
)

var (
	runModelPath string
	runSolver    string
	runEager     bool
	runCSVPath   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a model to completion and report its final state",
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadModel(runModelPath)
		if err != nil {
			return err
		}
		if err := sim.ValidateModel(model); err != nil {
			return err
		}
		logrus.Info(model.Describe())

		cm, err := sim.Compile(model)
		if err != nil {
			return err
		}
		solver, err := sim.NewSolver(runSolver)
		if err != nil {
			return err
		}

		ctx := context.Background()
		if runEager || runCSVPath != "" {
			states, err := sim.SimulateEager(ctx, cm, solver)
			if err != nil {
				return err
			}
			if runCSVPath != "" {
				if err := export.WriteCSV(model, states, runCSVPath); err != nil {
					return err
				}
				logrus.Infof("wrote %d snapshot(s) to %s", len(states), runCSVPath)
			}
			final := states[len(states)-1]
			fmt.Printf("final time=%v stocks=%v\n", final.Time, model.StocksByName(final))
			return nil
		}

		final, err := sim.SimulateFinal(ctx, cm, solver)
		if err != nil {
			return err
		}
		fmt.Printf("final time=%v stocks=%v\n", final.Time, model.StocksByName(*final))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runModelPath, "model", "", "path to a model YAML file (required)")
	runCmd.Flags().StringVar(&runSolver, "solver", "euler", "solver to use: euler, rk4, or adaptive")
	runCmd.Flags().BoolVar(&runEager, "eager", false, "collect every snapshot instead of only the final one")
	runCmd.Flags().StringVar(&runCSVPath, "csv", "", "write every snapshot to this CSV file")
	runCmd.MarkFlagRequired("model")
}
