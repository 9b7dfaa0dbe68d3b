// Package relay bridges coordinator output to Redis Pub/Sub. Chat bots and
// other delivery agents subscribe to the relay channels instead of linking
// drover; the coordinator stays transport-blind and the board stays the only
// persisted state, since Pub/Sub retains nothing.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/dovecote/drover/internal/notify"
)

// Pub/Sub channel pattern helpers
//
// Channels are namespaced by board ID so several drover instances watching
// different boards can share one Redis server.
//
// Channel pattern: drover:{board_id}:{stream}

// NotificationsChannel returns the Pub/Sub channel carrying user
// notifications.
// Pattern: drover:{board_id}:notifications
func NotificationsChannel(boardID string) string {
	return fmt.Sprintf("drover:%s:notifications", boardID)
}

// SubjectChannel returns the Pub/Sub channel carrying subject changes.
// Pattern: drover:{board_id}:subject
func SubjectChannel(boardID string) string {
	return fmt.Sprintf("drover:%s:subject", boardID)
}

// NotificationEvent is the JSON payload published for each notification.
type NotificationEvent struct {
	User     string          `json:"user"`
	Message  string          `json:"message"`
	Severity notify.Severity `json:"severity"`
	SentAtMs int64           `json:"sent_at_ms"`
}

// SubjectEvent is the JSON payload published when the channel subject
// changes.
type SubjectEvent struct {
	Subject     string `json:"subject"`
	ChangedAtMs int64  `json:"changed_at_ms"`
}

// Relay publishes coordinator events for one board to Redis.
// The relay is safe for concurrent use.
type Relay struct {
	rdb     *redis.Client
	boardID string
	logger  *log.Logger
}

// New creates a relay for the given board.
// Returns an error if boardID is empty.
func New(redisOpts *redis.Options, boardID string, logger *log.Logger) (*Relay, error) {
	if boardID == "" {
		return nil, fmt.Errorf("board ID cannot be empty")
	}
	return &Relay{
		rdb:     redis.NewClient(redisOpts),
		boardID: boardID,
		logger:  logger,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (r *Relay) Close() error {
	return r.rdb.Close()
}

// Ping verifies Redis connectivity. Useful at startup and for health checks.
func (r *Relay) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// NotificationSink returns a notify.Sink publishing each notification to the
// board's notification channel. Publish failures are logged and the event
// dropped: delivery is best effort, the board comment remains the durable
// record.
func (r *Relay) NotificationSink(ctx context.Context) notify.Sink {
	return func(n notify.Notification) {
		event := NotificationEvent{
			User:     n.User,
			Message:  n.Message,
			Severity: n.Severity,
			SentAtMs: time.Now().UnixMilli(),
		}
		r.publish(ctx, NotificationsChannel(r.boardID), event)
	}
}

// SubjectSink returns a notify.SubjectSink publishing subject changes to the
// board's subject channel.
func (r *Relay) SubjectSink(ctx context.Context) notify.SubjectSink {
	return func(subject string) {
		event := SubjectEvent{
			Subject:     subject,
			ChangedAtMs: time.Now().UnixMilli(),
		}
		r.publish(ctx, SubjectChannel(r.boardID), event)
	}
}

func (r *Relay) publish(ctx context.Context, channel string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.WithError(err).WithField("channel", channel).Warn("failed to marshal relay event")
		return
	}
	if err := r.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		r.logger.WithError(err).WithField("channel", channel).Warn("failed to publish relay event")
	}
}

// Event is one message received by a subscriber. Exactly one of the fields is
// set.
type Event struct {
	Notification *NotificationEvent
	Subject      *SubjectEvent
}

// Subscription represents an active Pub/Sub subscription to both relay
// channels. Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of relay events.
// The channel is closed when the subscription is closed or the context is
// cancelled.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Errors returns the channel of subscription errors. Errors are non-fatal;
// the offending message is skipped and the subscription continues.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe listens on both relay channels for the relay's board.
// Caller must call subscription.Close() when done. Context cancellation also
// stops the subscription.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once: a slow subscriber misses events rather than stalling the
// publisher.
func (r *Relay) Subscribe(ctx context.Context) (*Subscription, error) {
	notifCh := NotificationsChannel(r.boardID)
	subjectCh := SubjectChannel(r.boardID)
	pubsub := r.rdb.Subscribe(ctx, notifCh, subjectCh)

	eventsChan := make(chan Event, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				event, err := decodeEvent(msg.Channel, notifCh, msg.Payload)
				if err != nil {
					select {
					case errorsChan <- err:
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

func decodeEvent(channel, notificationsChannel, payload string) (Event, error) {
	if channel == notificationsChannel {
		var n NotificationEvent
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			return Event{}, fmt.Errorf("failed to unmarshal notification event: %w", err)
		}
		return Event{Notification: &n}, nil
	}
	var s SubjectEvent
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal subject event: %w", err)
	}
	return Event{Subject: &s}, nil
}
