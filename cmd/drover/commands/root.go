package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// configPath is shared by all subcommands. The file is optional; a missing
// file falls back to defaults plus environment variables.
var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "drover",
	Short: "Drover - deploy queue coordinator",
	Long: `Drover coordinates a team's deploy queue on a shared kanban board.

Users line up in a queue column, drover notifies whoever reaches the front,
chases them when they stall, and rotates them to the back of the line when
others are waiting. The board is the only persisted state, so drover can be
restarted at any time without losing the queue.`,
	Version: version,
	// Prevent silent success when flags are passed without a subcommand
	// e.g., "drover --json" instead of "drover status --json"
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is specified, show help
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// The printer package formats the detail; main prints the error once
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "drover.yml", "Path to the drover configuration file")
}
