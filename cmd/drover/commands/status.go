package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dovecote/drover/internal/deploy"
	"github.com/dovecote/drover/internal/printer"
)

var (
	statusJSON bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the deploy queue",
	Long: `Show who is deploying and who is waiting in line.

Reads the queue and deploying columns and prints them in board order, with
each waiting user's idle time (how long since their card last saw activity).

Use --json for machine-readable output.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	coord, _, err := newCoordinator(ctx)
	if err != nil {
		return err
	}

	snap, err := coord.Snapshot(ctx)
	if err != nil {
		return err
	}

	if statusJSON {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(deploy.Subject(snap))

	if len(snap.Queue) == 0 {
		if len(snap.Running) == 0 {
			fmt.Println()
			fmt.Println("Run 'drover queue <user>' to join the line.")
		}
		return nil
	}

	fmt.Println()
	fmt.Printf("%-4s %-24s %s\n", "POS", "USER", "IDLE")
	for i, card := range snap.Queue {
		fmt.Printf("%-4d %-24s %s\n", i+1, card.Name, formatDuration(time.Since(card.LastActivity)))
	}

	return nil
}

// printSubject shows the one-line queue summary after a mutating command.
// Best effort: the mutation already succeeded, so a failed re-read is not an
// error worth surfacing.
func printSubject(ctx context.Context, coord *deploy.Coordinator) {
	snap, err := coord.Snapshot(ctx)
	if err != nil {
		return
	}
	printer.Info("%s\n", deploy.Subject(snap))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	hours := d / time.Hour
	d -= hours * time.Hour

	minutes := d / time.Minute
	d -= minutes * time.Minute

	seconds := d / time.Second

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	} else {
		return fmt.Sprintf("%ds", seconds)
	}
}
