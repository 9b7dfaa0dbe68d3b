package deploy

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dovecote/drover/pkg/board"
)

// Snapshot is one read of the queue and running columns. The two reads can
// race board mutations; consumers treat the result as advisory and re-read on
// the next poll.
type Snapshot struct {
	Queue   []board.Card `json:"queue"`
	Running []board.Card `json:"running"`
}

// Snapshot reads both columns concurrently and returns them top-first.
func (c *Coordinator) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cards, err := c.board.Cards(ctx, c.columns.Queue)
		if err != nil {
			return fmt.Errorf("queue column: %w", err)
		}
		snap.Queue = cards
		return nil
	})
	g.Go(func() error {
		cards, err := c.board.Cards(ctx, c.columns.Running)
		if err != nil {
			return fmt.Errorf("running column: %w", err)
		}
		snap.Running = cards
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to snapshot board: %w", err)
	}
	return &snap, nil
}
