package deploy

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dovecote/drover/internal/notify"
	"github.com/dovecote/drover/pkg/board"
)

// Messages sent to users as their turn comes and goes.
const (
	msgYourTurn = "You're up! Start your deploy or step out of the line."
	msgStillYou = "Still waiting on you. Nobody else is in line, so you keep your spot."
	msgRotated  = "You took too long to deploy, so you've been moved to the back of the line."
)

// Monitor polls the board and runs the turn-taking state machine: notify the
// head of the queue when the slot frees up, escalate when the patience window
// expires, and keep the published subject in step with the board.
type Monitor struct {
	coord    *Coordinator
	interval time.Duration
	patience time.Duration
	logger   *log.Logger
}

// NewMonitor creates a Monitor polling every interval and escalating heads
// that stay unresponsive for longer than patience.
func NewMonitor(coord *Coordinator, interval, patience time.Duration, logger *log.Logger) *Monitor {
	return &Monitor{
		coord:    coord,
		interval: interval,
		patience: patience,
		logger:   logger,
	}
}

// Run polls until the context is cancelled. Every tick runs on its own
// goroutine so a slow board cannot stall the schedule; ticks re-read the
// board from scratch, which keeps overlapping ticks convergent rather than
// conflicting.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.WithFields(log.Fields{
		"interval": m.interval.String(),
		"patience": m.patience.String(),
	}).Info("deploy monitor started")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("deploy monitor stopped")
			return nil
		case <-ticker.C:
			go m.Tick(ctx)
		}
	}
}

// Tick performs one poll: snapshot the board, escalate the head of the queue
// if the slot is free, republish the subject. Errors are logged and the tick
// abandoned; the next poll gets a fresh view.
func (m *Monitor) Tick(ctx context.Context) {
	snap, err := m.coord.Snapshot(ctx)
	if err != nil {
		m.logger.WithError(err).Warn("skipping poll, board read failed")
		return
	}

	if len(snap.Running) == 0 && len(snap.Queue) > 0 {
		m.escalate(ctx, snap)
	}

	m.coord.subjects.Publish(Subject(snap))
}

// escalate applies the head-of-queue decision for one poll.
func (m *Monitor) escalate(ctx context.Context, snap *Snapshot) {
	head := snap.Queue[0]

	comments, err := m.coord.board.Comments(ctx, head.ID)
	if err != nil {
		m.logger.WithError(err).WithField("card", head.ID).Warn("skipping escalation, comment read failed")
		return
	}
	var latest string
	if len(comments) > 0 {
		latest = comments[0].Text
	}

	action := DecideHead(latest, time.Since(head.LastActivity), m.patience, len(snap.Queue))
	logger := m.logger.WithFields(log.Fields{"user": head.Name, "card": head.ID, "action": string(action)})

	switch action {
	case ActionNotify:
		m.coord.notifier.Notify(head.Name, msgYourTurn, notify.SeverityLow)
		m.comment(ctx, head.ID, notifiedComment(head.Name))
		logger.Info("notified head of the line")

	case ActionRemind:
		m.coord.notifier.Notify(head.Name, msgStillYou, notify.SeverityHigh)
		m.comment(ctx, head.ID, notifiedComment(head.Name))
		logger.Info("reminded sole queued user")

	case ActionRotate:
		m.coord.notifier.Notify(head.Name, msgRotated, notify.SeverityHigh)
		m.comment(ctx, head.ID, gaveUpComment(head.Name))
		if err := m.coord.board.MoveCard(ctx, head.ID, m.coord.columns.Queue, board.PositionBottom); err != nil {
			logger.WithError(err).Warn("failed to rotate card to the back of the line")
			return
		}
		logger.Info("rotated unresponsive user to the back of the line")

	case ActionWait:
		// Notified and still within patience; nothing to do this poll.
	}
}

// comment writes a card comment, logging instead of failing the tick when the
// board rejects it. The worst case is one duplicate notification next poll.
func (m *Monitor) comment(ctx context.Context, cardID, text string) {
	if err := m.coord.board.AddComment(ctx, cardID, text); err != nil {
		m.logger.WithError(err).WithField("card", cardID).Warn("failed to comment on card")
	}
}
