package notify

import (
	"context"
	"fmt"
	"time"
)

// Publisher delivers events to whoever presents them.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Notifier publishes events onto a Bus using the kind as subject.
type Notifier struct {
	bus   Bus
	clock func() time.Time
}

var _ Publisher = (*Notifier)(nil)

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithNotifierClock overrides the timestamp source.
func WithNotifierClock(clock func() time.Time) NotifierOption {
	return func(n *Notifier) {
		n.clock = clock
	}
}

// NewNotifier creates a notifier on top of bus.
func NewNotifier(bus Bus, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		bus:   bus,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Publish stamps, encodes and sends the event.
func (n *Notifier) Publish(ctx context.Context, ev Event) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if !ev.Kind.Valid() {
		return fmt.Errorf("publish: unknown event kind %q", ev.Kind)
	}
	if ev.Message == "" {
		ev.Message = ev.Kind.Message()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = n.clock()
	}

	data, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind, err)
	}
	return n.bus.Publish(string(ev.Kind), data)
}
