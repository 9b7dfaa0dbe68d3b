package deploy

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/dovecote/drover/internal/notify"
	"github.com/dovecote/drover/pkg/board"
)

// Comments written on cards as the deploy lifecycle progresses. They double
// as the card's audit trail on the board.
const (
	commentDeployStarted   = "Deploy started"
	commentDeploySucceeded = "Deploy succeeded!"
	commentDeployFailed    = "Deploy failed!"
)

// Coordinator executes deploy queue commands against the board. It holds the
// board client, the resolved column IDs, and the notification fan-out, but no
// queue state of its own; every operation re-reads the board.
type Coordinator struct {
	board    *board.Client
	boardID  string
	columns  Columns
	notifier *notify.Dispatcher
	subjects *notify.SubjectPublisher
	logger   *log.Logger
}

// New creates a Coordinator. Columns come from ResolveColumns at startup;
// the dispatcher and publisher may have zero sinks (one-shot CLI commands
// run that way).
func New(client *board.Client, boardID string, columns Columns, notifier *notify.Dispatcher, subjects *notify.SubjectPublisher, logger *log.Logger) *Coordinator {
	return &Coordinator{
		board:    client,
		boardID:  boardID,
		columns:  columns,
		notifier: notifier,
		subjects: subjects,
		logger:   logger,
	}
}

// Ping verifies that the board is reachable and the configured board exists.
func (c *Coordinator) Ping(ctx context.Context) error {
	if _, err := c.board.Lists(ctx, c.boardID); err != nil {
		return fmt.Errorf("board unreachable: %w", err)
	}
	return nil
}

// Enqueue adds user to the back of the line and returns the created card.
// Nothing stops a user from queueing twice; the board shows it and humans
// sort it out.
func (c *Coordinator) Enqueue(ctx context.Context, user string) (*board.Card, error) {
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}
	card, err := c.board.CreateCard(ctx, c.columns.Queue, user)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue %s: %w", user, err)
	}
	c.logger.WithFields(log.Fields{"user": user, "card": card.ID}).Info("user joined the line")
	return card, nil
}

// StartDeploy claims the deploy slot for user. A queued card is commented and
// moved to the top of the running column; a user with no queue card gets a
// fresh running card instead, since deploys outside the line still need to be
// visible on the board.
func (c *Coordinator) StartDeploy(ctx context.Context, user string) error {
	if user == "" {
		return fmt.Errorf("user cannot be empty")
	}
	cards, err := c.board.Cards(ctx, c.columns.Queue)
	if err != nil {
		return fmt.Errorf("failed to read the queue: %w", err)
	}

	card, ok := findCardForOwner(cards, user)
	if !ok {
		created, err := c.board.CreateCard(ctx, c.columns.Running, user)
		if err != nil {
			return fmt.Errorf("failed to start deploy for %s: %w", user, err)
		}
		c.logger.WithFields(log.Fields{"user": user, "card": created.ID}).Info("deploy started without queueing")
		return nil
	}

	if err := c.board.AddComment(ctx, card.ID, commentDeployStarted); err != nil {
		return fmt.Errorf("failed to record deploy start for %s: %w", user, err)
	}
	if err := c.board.MoveCard(ctx, card.ID, c.columns.Running, board.PositionDefault); err != nil {
		return fmt.Errorf("failed to move %s into the running column: %w", user, err)
	}
	c.logger.WithFields(log.Fields{"user": user, "card": card.ID}).Info("deploy started")
	return nil
}

// MarkSuccess retires user's running card to the done column with a
// "Deploy succeeded!" comment. Returns false when the user has no card in
// the running column.
func (c *Coordinator) MarkSuccess(ctx context.Context, user string) (bool, error) {
	return c.finishDeploy(ctx, user, commentDeploySucceeded, c.columns.Done, board.PositionDefault, "deploy succeeded")
}

// MarkFailure sends user's running card back to the top of the queue with a
// "Deploy failed!" comment, so the user retries before anyone else goes.
// Returns false when the user has no card in the running column.
func (c *Coordinator) MarkFailure(ctx context.Context, user string) (bool, error) {
	return c.finishDeploy(ctx, user, commentDeployFailed, c.columns.Queue, board.PositionTop, "deploy failed")
}

func (c *Coordinator) finishDeploy(ctx context.Context, user, comment, destColumn string, pos board.Position, outcome string) (bool, error) {
	if user == "" {
		return false, fmt.Errorf("user cannot be empty")
	}
	cards, err := c.board.Cards(ctx, c.columns.Running)
	if err != nil {
		return false, fmt.Errorf("failed to read the running column: %w", err)
	}

	card, ok := findCardForOwner(cards, user)
	if !ok {
		return false, nil
	}

	if err := c.board.AddComment(ctx, card.ID, comment); err != nil {
		return false, fmt.Errorf("failed to comment on %s's card: %w", user, err)
	}
	if err := c.board.MoveCard(ctx, card.ID, destColumn, pos); err != nil {
		return false, fmt.Errorf("failed to move %s's card: %w", user, err)
	}
	c.logger.WithFields(log.Fields{"user": user, "card": card.ID}).Info(outcome)
	return true, nil
}

// findCardForOwner returns the first card whose display name lists user as an
// owner. Shared cards ("alice+bob") match any one of their owners.
func findCardForOwner(cards []board.Card, user string) (*board.Card, bool) {
	for i := range cards {
		if cards[i].HasOwner(user) {
			return &cards[i], true
		}
	}
	return nil, false
}
