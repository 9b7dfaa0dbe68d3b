package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dovecote/drover/internal/printer"
)

var startCmd = &cobra.Command{
	Use:   "start <user>",
	Short: "Start a deploy",
	Long: `Move a user's card from the queue into the deploying column and stamp it
with a "Deploy started" comment.

Anyone may start a deploy, not just the head of the line; the queue is
advisory. A user who never queued gets a fresh card created directly in the
deploying column so the deploy is still visible on the board.

Examples:
  drover start alice`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	user := args[0]

	coord, _, err := newCoordinator(ctx)
	if err != nil {
		return err
	}

	if err := coord.StartDeploy(ctx, user); err != nil {
		return err
	}

	printer.Success("Deploy started for %s\n", user)
	printSubject(ctx, coord)
	return nil
}
