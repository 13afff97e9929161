// Command segsim runs Schelling-style segregation simulations on a
// bounded grid: random initialization, round-based relocation of
// unsatisfied agents, persistence of runs, and a live browser view.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "segsim",
		Short: "Agent-based segregation simulator",
		Long: `segsim simulates residential segregation dynamics on a bounded grid.

Agents of k groups relocate when too few of their neighbors share their
group. Runs are deterministic for a given seed and can be persisted to
SQLite, exported as CSV, and watched live in a browser.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: ./segsim.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
		newRunsCmd(),
		newExportCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
