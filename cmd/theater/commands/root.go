// Package commands implements the theater operator CLI: a thin,
// direct-database inspection tool over the actor-process registry. Per
// spec.md §1, the external management-socket wire protocol is out of
// scope for the core, so (unlike the teacher's substrate CLI, which can
// also speak gRPC to a live daemon) this CLI only ever opens
// internal/registry directly — there is no live-daemon transport to dial.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// registryDBPath is the path to the SQLite actor-process registry.
	registryDBPath string

	// outputFormat controls output format (text, json).
	outputFormat string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "theater",
	Short: "Theater actor-supervision runtime CLI",
	Long: `theater inspects the on-disk actor-process registry kept by theaterd.

It is a direct-database inspection tool, not a client for a live
management-socket connection: that wire protocol is explicitly out of
scope for the core (spec.md §1), so every subcommand here opens the
registry database itself.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&registryDBPath, "registry-db", "",
		"Path to the SQLite actor-process registry (default: ~/.theater/registry.db)",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "text",
		"Output format: text, json",
	)

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
