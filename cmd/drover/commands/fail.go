package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dovecote/drover/internal/printer"
)

var failCmd = &cobra.Command{
	Use:   "fail <user>",
	Short: "Mark a deploy as failed",
	Long: `Mark a user's running deploy as failed.

The card gets a "Deploy failed!" comment and moves to the top of the queue
column, so the user can retry ahead of the line once they have fixed the
problem. If the user has no card in the deploying column nothing changes.

Examples:
  drover fail alice`,
	Args: cobra.ExactArgs(1),
	RunE: runFail,
}

func init() {
	rootCmd.AddCommand(failCmd)
}

func runFail(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	user := args[0]

	coord, _, err := newCoordinator(ctx)
	if err != nil {
		return err
	}

	moved, err := coord.MarkFailure(ctx, user)
	if err != nil {
		return err
	}
	if !moved {
		printer.Warning("%s has no running deploy\n", user)
		return nil
	}

	printer.Success("Deploy marked failed; %s is back at the front of the line\n", user)
	printSubject(ctx, coord)
	return nil
}
