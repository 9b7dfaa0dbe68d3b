// Package deploy implements the deployment queue itself: the coordinator that
// executes queue commands against the board, and the monitor that polls the
// board to notify, escalate, and rotate the head of the line.
//
// The board is the only store. Every decision is made from a fresh read and
// every state change is written straight back, so any number of restarts (or
// overlapping polls) converge on the same queue.
package deploy

import (
	"context"
	"fmt"

	"github.com/dovecote/drover/pkg/board"
)

// Columns holds the board column IDs for the three queue roles after name
// resolution.
type Columns struct {
	Queue   string // users waiting for the deploy slot
	Running string // the active deploy, normally at most one card
	Done    string // finished deploys, kept for history
}

// ResolveColumns maps the configured column names to board column IDs. All
// three columns must already exist on the board; a missing column is a
// startup failure, not something to create or heal at runtime.
func ResolveColumns(ctx context.Context, client *board.Client, boardID, queueName, runningName, doneName string) (Columns, error) {
	lists, err := client.Lists(ctx, boardID)
	if err != nil {
		return Columns{}, fmt.Errorf("failed to resolve columns: %w", err)
	}
	ids, err := columnIDs(lists, queueName, runningName, doneName)
	if err != nil {
		return Columns{}, err
	}
	return Columns{Queue: ids[0], Running: ids[1], Done: ids[2]}, nil
}

// columnIDs returns the IDs of the named columns, in request order.
func columnIDs(lists []board.List, names ...string) ([]string, error) {
	byName := make(map[string]string, len(lists))
	for _, l := range lists {
		byName[l.Name] = l.ID
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("column %q not found on board", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
