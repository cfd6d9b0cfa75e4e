package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records build information injected by main
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = v
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	PersistentPreRunE: skipInit,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hashsharing %s (built %s, %s)\n", version, buildTime, runtime.Version())
	},
}

var environmentsCmd = &cobra.Command{
	Use:               "environments",
	Short:             "List the known environments",
	PersistentPreRunE: skipInit,
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderEnvironments(cmd.OutOrStdout())
	},
}
