package main

import (
	"delay-prediction-api/logging"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "delayctl",
		Short:        "Offline delay prediction tooling",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup("delayctl", logLevel, true)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(predictCmd())
	root.AddCommand(rulesCmd())
	return root
}
