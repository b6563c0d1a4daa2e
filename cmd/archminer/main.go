// Package main implements the archminer CLI, a batch miner that turns
// GitHub repositories into annotated module-structure records.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is stamped at build time.
var version = "dev"

var (
	configPath       string
	countFlag        int
	parallelismFlag  int
	forceExtract     bool
	forceCommunities bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "archminer",
	Short: "Mine module structure from abandoned repositories",
	Long: `archminer discovers repositories on GitHub, annotates their files,
extracts dependency graphs, detects communities, and exports one merged
JSON record per project.

A run is resumable: records from earlier runs are rehydrated and
finished stages are skipped, so interrupting a batch loses at most the
projects in flight.`,
	Version: version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one mining run",
	Long: `Execute one mining run end to end.

Examples:
  # Mine ten projects with the default config
  archminer run

  # A larger batch with bounded concurrency
  archminer run --count 100 --parallelism 4

  # Recompute graphs and communities for already-exported projects
  archminer run --force-extract --force-communities`,
	RunE: runPipeline,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/archminer/config.yaml)")
	runCmd.Flags().IntVar(&countFlag, "count", 0, "projects to discover (overrides config)")
	runCmd.Flags().IntVar(&parallelismFlag, "parallelism", -1, "concurrent workers, 0 for all CPUs (overrides config)")
	runCmd.Flags().BoolVar(&forceExtract, "force-extract", false, "re-run graph extraction even when artifacts exist")
	runCmd.Flags().BoolVar(&forceCommunities, "force-communities", false, "recompute community assignments even when present")
	rootCmd.AddCommand(runCmd)
}
