// cmd/root.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	_ "github.com/sysdyn/sysdyn/sim/solver/adaptive"
	_ "github.com/sysdyn/sysdyn/sim/solver/euler"
	_ "github.com/sysdyn/sysdyn/sim/solver/rk4"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "sysdyn",
	Short: "Continuous-time system dynamics simulation engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(sensitivityCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(montecarloCmd)
}
