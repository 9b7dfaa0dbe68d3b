package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dovecote/drover/internal/printer"
)

var doneCmd = &cobra.Command{
	Use:   "done <user>",
	Short: "Mark a deploy as succeeded",
	Long: `Mark a user's running deploy as succeeded.

The card gets a "Deploy succeeded!" comment and moves to the top of the done
column. If the user has no card in the deploying column nothing changes on
the board.

Examples:
  drover done alice`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

func init() {
	rootCmd.AddCommand(doneCmd)
}

func runDone(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	user := args[0]

	coord, _, err := newCoordinator(ctx)
	if err != nil {
		return err
	}

	moved, err := coord.MarkSuccess(ctx, user)
	if err != nil {
		return err
	}
	if !moved {
		printer.Warning("%s has no running deploy\n", user)
		return nil
	}

	printer.Success("Deploy succeeded for %s\n", user)
	printSubject(ctx, coord)
	return nil
}
