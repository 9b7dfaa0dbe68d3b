package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dovecote/drover/internal/printer"
)

var queueCmd = &cobra.Command{
	Use:   "queue <user>",
	Short: "Join the deploy queue",
	Long: `Add a user to the back of the deploy queue.

A card named after the user is appended to the bottom of the queue column.
Queueing twice creates a second card; the board shows the duplicate and the
team sorts it out, drover never deletes cards.

Examples:
  # Line up for a deploy
  drover queue alice

  # Pair deploys share one card
  drover queue alice+bob`,
	Args: cobra.ExactArgs(1),
	RunE: runQueue,
}

func init() {
	rootCmd.AddCommand(queueCmd)
}

func runQueue(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	user := args[0]

	coord, _, err := newCoordinator(ctx)
	if err != nil {
		return err
	}

	if _, err := coord.Enqueue(ctx, user); err != nil {
		return err
	}

	printer.Success("%s is in line\n", user)
	printSubject(ctx, coord)
	return nil
}
