// Package cmd implements the visitbench command-line tool: cobra command
// tree, logrus leveled logging. Grounded on the teacher's cmd/root.go
// (command registration + log-level flag wiring pattern).
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "visitbench",
	Short: "Replay recorded visits against a live streaming LLM endpoint",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

// Execute runs the root command, exiting the process with status 1 on
// failure (matching the teacher's Execute()).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(composeCmd)
}
