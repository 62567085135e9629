package notify

import (
	"errors"
	"strings"
)

// Common errors.
var (
	ErrClosed         = errors.New("bus closed")
	ErrInvalidSubject = errors.New("invalid subject")
)

// Message represents a message received from the bus.
type Message struct {
	// Subject the message was published to.
	Subject string

	// Data is the message payload.
	Data []byte
}

// Bus provides in-process pub/sub messaging.
type Bus interface {
	// Publish sends a message to all subscribers matching subject.
	Publish(subject string, data []byte) error

	// Subscribe creates a subscription. The pattern is either an exact
	// subject, a prefix ending in "*", or "*" alone for everything.
	Subscribe(pattern string) (Subscription, error)

	// Close shuts down the bus and closes every subscription channel.
	Close() error
}

// Subscription represents an active subscription.
type Subscription interface {
	// Messages returns the channel for incoming messages.
	// Channel is closed when subscription ends.
	Messages() <-chan *Message

	// Unsubscribe cancels the subscription.
	Unsubscribe() error
}

// Config holds bus configuration.
type Config struct {
	// BufferSize for subscription channels.
	// Default: 256
	BufferSize int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
	}
}

// ValidateSubject checks that a published subject is concrete.
func ValidateSubject(subject string) error {
	if subject == "" || strings.Contains(subject, "*") {
		return ErrInvalidSubject
	}
	return nil
}

// ValidatePattern checks a subscription pattern. A wildcard is only allowed
// as the final character.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return ErrInvalidSubject
	}
	if i := strings.Index(pattern, "*"); i >= 0 && i != len(pattern)-1 {
		return ErrInvalidSubject
	}
	return nil
}

// Match reports whether subject satisfies pattern.
func Match(pattern, subject string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(subject, prefix)
	}
	return pattern == subject
}
