package notify

import (
	"sync"
	"sync/atomic"
)

// MemoryBus implements Bus using in-memory channels.
type MemoryBus struct {
	config Config

	mu      sync.RWMutex
	subs    []*memorySub
	closed  atomic.Bool
	dropped atomic.Uint64
}

type memorySub struct {
	pattern string
	ch      chan *Message
	closed  atomic.Bool
	bus     *MemoryBus
}

var _ Bus = (*MemoryBus)(nil)

// NewMemoryBus creates a new in-memory message bus.
func NewMemoryBus(cfg Config) *MemoryBus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &MemoryBus{config: cfg}
}

// Publish sends a message to all matching subscribers.
func (b *MemoryBus) Publish(subject string, data []byte) error {
	if err := ValidateSubject(subject); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}

	msg := &Message{
		Subject: subject,
		Data:    data,
	}

	// Hold the read lock while sending so Close cannot close a channel
	// mid-send. Sends never block.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.closed.Load() || !Match(sub.pattern, subject) {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			// Buffer full, drop message
			b.dropped.Add(1)
		}
	}
	return nil
}

// Subscribe creates a subscription for a subject pattern.
func (b *MemoryBus) Subscribe(pattern string) (Subscription, error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}

	sub := &memorySub{
		pattern: pattern,
		ch:      make(chan *Message, b.config.BufferSize),
		bus:     b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		return nil, ErrClosed
	}
	b.subs = append(b.subs, sub)
	return sub, nil
}

// Dropped returns how many deliveries were skipped because a subscriber
// buffer was full.
func (b *MemoryBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close shuts down the bus.
func (b *MemoryBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if !sub.closed.Swap(true) {
			close(sub.ch)
		}
	}
	b.subs = nil

	return nil
}

// Messages returns the message channel.
func (s *memorySub) Messages() <-chan *Message {
	return s.ch
}

// Unsubscribe cancels the subscription.
func (s *memorySub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if s.closed.Swap(true) {
		return nil
	}

	for i, sub := range s.bus.subs {
		if sub == s {
			s.bus.subs = append(s.bus.subs[:i], s.bus.subs[i+1:]...)
			break
		}
	}

	close(s.ch)
	return nil
}
