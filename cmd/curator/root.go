package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/curator/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Curator - project retention for dependency tracking",
	Long: `Curator keeps a project store tidy by deactivating or deleting
top-level projects whose version matches a pattern and whose last import
is older than a configured age.

The retention policy lives in the settings store under the "maintenance"
group:
  - cleanup.enabled
  - cleanup.version.match
  - cleanup.older.than.days
  - cleanup.delete.project`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a status derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
