// Package board provides a typed Go client for the Trello-compatible REST API
// that holds the deployment queue. The board is the single source of truth for
// queue membership: drover components read cards, move them between columns,
// and leave comments, but never persist board state themselves.
//
// All operations are thin wrappers over individual API calls. The client keeps
// no cache; callers that need a consistent view fetch it per poll and tolerate
// the board changing between requests.
package board

import (
	"fmt"
	"strings"
	"time"
)

// List is one column on the board (for drover: the queue, running, and done
// columns).
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Card is one board entry representing a user (or several users) waiting for
// or holding the deploy slot. The display name joins multiple owners with "+"
// ("alice+bob"). LastActivity is bumped by the board on every create, move,
// and comment, and anchors the coordinator's escalation timer.
type Card struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LastActivity time.Time `json:"dateLastActivity"`
	Pos          float64   `json:"pos"`
}

// Owners returns the user identifiers encoded in the card's display name.
// A display name of "alice+bob" yields ["alice", "bob"].
func (c *Card) Owners() []string {
	if c.Name == "" {
		return nil
	}
	return strings.Split(c.Name, "+")
}

// HasOwner reports whether user appears in the card's display name.
func (c *Card) HasOwner(user string) bool {
	for _, owner := range c.Owners() {
		if owner == user {
			return true
		}
	}
	return false
}

// Comment is a single comment on a card. The coordinator reads only the most
// recent comment of the head-of-queue card; its text is the persisted
// "already notified" marker.
type Comment struct {
	ID   string
	Text string
	Date time.Time
}

// Position controls where a moved card lands within its destination column.
type Position string

const (
	// PositionDefault lets the board choose the insertion point, which is the
	// top of the column.
	PositionDefault Position = ""

	// PositionTop places the card at the top of the column.
	PositionTop Position = "top"

	// PositionBottom places the card at the bottom of the column.
	PositionBottom Position = "bottom"
)

// Validate checks if the Position is a known value.
func (p Position) Validate() error {
	switch p {
	case PositionDefault, PositionTop, PositionBottom:
		return nil
	default:
		return fmt.Errorf("unknown position: %q", p)
	}
}
