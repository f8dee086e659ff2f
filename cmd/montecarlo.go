package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sysdyn/sysdyn/sim/montecarlo"
)

var (
	montecarloModelPath  string
	montecarloConfigPath string
	montecarloSolver     string
	montecarloSeedFlag   int64
)

var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Run a model repeatedly under randomized parameter draws and aggregate metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadModel(montecarloModelPath)
		if err != nil {
			return err
		}
		cfg, err := loadMonteCarlo(montecarloConfigPath, model, montecarloSolver)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = montecarloSeedFlag
		}

		result, err := montecarlo.Run(context.Background(), cfg)
		if err != nil {
			return err
		}
		for _, name := range cfg.Metrics {
			summary := result.Metrics[name]
			fmt.Printf("%s: mean=%v min=%v max=%v\n", summary.Name, summary.Mean, summary.Min, summary.Max)
			for _, pv := range summary.Percentiles {
				fmt.Printf("  p%.0f=%v\n", pv.Percentile*100, pv.Value)
			}
		}
		return nil
	},
}

func init() {
	montecarloCmd.Flags().StringVar(&montecarloModelPath, "model", "", "path to a model YAML file (required)")
	montecarloCmd.Flags().StringVar(&montecarloConfigPath, "config", "", "path to a montecarlo batch YAML file (required)")
	montecarloCmd.Flags().StringVar(&montecarloSolver, "solver", "euler", "solver to use: euler, rk4, or adaptive")
	montecarloCmd.Flags().Int64Var(&montecarloSeedFlag, "seed", 0, "PRNG seed, overriding the one in the config file")
	montecarloCmd.MarkFlagRequired("model")
	montecarloCmd.MarkFlagRequired("config")
}
