package deploy

import (
	"fmt"
	"strings"
	"time"
)

// sentinel prefixes every "it's your turn" comment. The newest comment of the
// head-of-queue card is the only notification state drover keeps, and it
// lives on the board, so a restarted (or concurrently running) monitor sees
// exactly what its predecessor wrote instead of double-notifying.
const sentinel = "Notified"

// notifiedComment is the turn notification marker written on a card. It must
// start with the sentinel.
func notifiedComment(user string) string {
	return fmt.Sprintf("%s %s they're up", sentinel, user)
}

// gaveUpComment records a rotation. It deliberately does not carry the
// sentinel: once rotated back to the head, the user is notified afresh.
func gaveUpComment(user string) string {
	return fmt.Sprintf("Gave up on %s", user)
}

// HeadAction is the monitor's decision for the head-of-queue card on one
// poll. It is only evaluated while the running column is empty and the queue
// is not.
type HeadAction string

const (
	// ActionNotify tells the head-of-queue user it is their turn.
	ActionNotify HeadAction = "notify"

	// ActionWait leaves an already-notified user alone while the patience
	// window is still open.
	ActionWait HeadAction = "wait"

	// ActionRemind nudges an expired user again when nobody is waiting
	// behind them, since rotating a queue of one changes nothing.
	ActionRemind HeadAction = "remind"

	// ActionRotate sends an expired user to the back of the line because
	// someone behind them is ready to go.
	ActionRotate HeadAction = "rotate"
)

// DecideHead classifies the head-of-queue card. latestComment is the newest
// comment on the card ("" when it has none), sinceActivity is the age of the
// card's last board activity, and queueLen counts the whole queue including
// the head. The patience window is inclusive: escalation starts strictly
// after patience has elapsed.
func DecideHead(latestComment string, sinceActivity, patience time.Duration, queueLen int) HeadAction {
	if !strings.HasPrefix(latestComment, sentinel) {
		return ActionNotify
	}
	if sinceActivity <= patience {
		return ActionWait
	}
	if queueLen > 1 {
		return ActionRotate
	}
	return ActionRemind
}
