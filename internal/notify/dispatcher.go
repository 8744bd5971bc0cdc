package notify

import (
	"context"

	"brigade/pkg/logger"
)

// Notifier delivers a single event to one collaborator (websocket hub,
// analytics sink, ...).
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Dispatcher fans events out to all registered notifiers.
// Publish never blocks the caller and never returns an error: delivery
// failures are logged and swallowed.
type Dispatcher struct {
	notifiers []Notifier
}

// NewDispatcher creates a dispatcher over the given notifiers.
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers}
}

// Register adds a notifier. Not safe for concurrent use with Publish;
// register everything during wiring.
func (d *Dispatcher) Register(n Notifier) {
	d.notifiers = append(d.notifiers, n)
}

// Publish delivers the event to every notifier on a separate goroutine.
func (d *Dispatcher) Publish(ctx context.Context, event Event) {
	if d == nil || len(d.notifiers) == 0 {
		return
	}

	// Detach from the request context so late delivery is not cancelled
	// together with the originating request.
	ctx = context.WithoutCancel(ctx)

	for _, n := range d.notifiers {
		go func(n Notifier) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "notifier panicked", "event", event.EventType(), "panic", r)
				}
			}()
			if err := n.Notify(ctx, event); err != nil {
				logger.Warn(ctx, "notification failed", "event", event.EventType(), "error", err)
			}
		}(n)
	}
}

// LogNotifier writes events to the structured log. Used as the default
// analytics sink in development.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(ctx context.Context, event Event) error {
	logger.Info(ctx, "event", "type", event.EventType(), "payload", event)
	return nil
}

var _ Notifier = LogNotifier{}
