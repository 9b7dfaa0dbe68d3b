package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dovecote/drover/internal/scaffold"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter drover.yml",
	Long: `Create a starter drover.yml in the current directory.

The file documents every setting alongside its default. Credentials are
never written to the file; export DROVER_BOARD_KEY and DROVER_BOARD_TOKEN
instead.

Use --force to overwrite an existing drover.yml.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Force reinitialization (removes existing drover.yml)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	// Check for an existing config (unless --force)
	if !forceInit {
		if err := scaffold.CheckExisting(); err != nil {
			return err
		}
	}

	if err := scaffold.Initialize(forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess()

	return nil
}
