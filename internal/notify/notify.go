// Package notify carries the coordinator's outbound traffic: user
// notifications fanned out to registered sinks, and channel-subject updates
// published only when the subject actually changes. Sinks are the seam
// between queue logic and delivery transports; the coordinator never knows
// where a notification ends up.
package notify

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Severity indicates how loudly a notification should be delivered. Sinks map
// it to their transport's idea of urgency (a quiet message, an @-mention, a
// page).
type Severity string

const (
	// SeverityHigh marks escalations: the user is blocking others or about to
	// lose their spot.
	SeverityHigh Severity = "high"

	// SeverityMedium marks informational nudges that should still be seen.
	SeverityMedium Severity = "medium"

	// SeverityLow marks routine turn notifications.
	SeverityLow Severity = "low"
)

// Validate checks if the Severity is a known value.
func (s Severity) Validate() error {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return nil
	default:
		return fmt.Errorf("unknown severity: %q", s)
	}
}

// Notification is one message addressed to one user.
type Notification struct {
	User     string
	Message  string
	Severity Severity
}

// Sink receives notifications. Sinks run synchronously on the notifying
// goroutine and in registration order; a sink that panics is the
// registerer's bug, not the dispatcher's.
type Sink func(Notification)

// SubjectSink receives the channel subject each time it changes.
type SubjectSink func(subject string)

// Dispatcher fans each notification out to every registered sink.
// Registration normally happens once at startup, but both methods are safe
// for concurrent use with overlapping monitor ticks.
type Dispatcher struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewDispatcher creates a Dispatcher with no sinks. Notifications sent before
// any sink is registered are dropped.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register adds a sink. Sinks cannot be removed.
func (d *Dispatcher) Register(sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, sink)
}

// Notify delivers a notification to every sink in registration order.
func (d *Dispatcher) Notify(user, message string, severity Severity) {
	d.mu.RLock()
	sinks := d.sinks
	d.mu.RUnlock()

	n := Notification{User: user, Message: message, Severity: severity}
	for _, sink := range sinks {
		sink(n)
	}
}

// SubjectPublisher pushes channel-subject updates to registered sinks,
// deduplicating consecutive publishes of the same subject so a steady queue
// does not re-set the subject on every poll.
type SubjectPublisher struct {
	mu        sync.Mutex
	sinks     []SubjectSink
	last      string
	published bool
}

// NewSubjectPublisher creates a SubjectPublisher with no sinks.
func NewSubjectPublisher() *SubjectPublisher {
	return &SubjectPublisher{}
}

// Register adds a subject sink.
func (p *SubjectPublisher) Register(sink SubjectSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks = append(p.sinks, sink)
}

// Publish sends the subject to every sink unless it matches the previously
// published subject. The very first publish always goes out, even if the
// subject is empty. Delivery happens under the publisher's lock, so
// overlapping polls cannot reorder subject updates.
func (p *SubjectPublisher) Publish(subject string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.published && subject == p.last {
		return
	}
	p.last = subject
	p.published = true
	for _, sink := range p.sinks {
		sink(subject)
	}
}

// LogSink returns a Sink that records each notification on the logger. The
// run daemon registers it so every notification is visible in the logs even
// when no relay is configured.
func LogSink(logger *log.Logger) Sink {
	return func(n Notification) {
		logger.WithFields(log.Fields{
			"user":     n.User,
			"severity": string(n.Severity),
		}).Info(n.Message)
	}
}

// LogSubjectSink returns a SubjectSink that records subject changes on the
// logger.
func LogSubjectSink(logger *log.Logger) SubjectSink {
	return func(subject string) {
		logger.WithField("subject", subject).Info("channel subject changed")
	}
}
