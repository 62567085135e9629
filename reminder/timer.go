// Package reminder periodically nudges the user about pending tasks.
//
// A Timer is an explicit start/stop state machine. It never fires on its own
// before Start, fires once per interval while running, and is guaranteed to be
// silent once Stop returns. A stopped Timer cannot be restarted; create a new
// one instead.
//
//	t, _ := reminder.New(reminder.Config{Source: store, Publisher: notifier})
//	t.Start(ctx)
//	defer t.Stop()
package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/vinayprograms/taskboard/errors"
	"github.com/vinayprograms/taskboard/logging"
	"github.com/vinayprograms/taskboard/notify"
	"github.com/vinayprograms/taskboard/tasks"
)

// DefaultInterval is the time between reminder checks.
const DefaultInterval = 60 * time.Second

// Common errors.
var (
	ErrAlreadyStarted = errors.Conflict("reminder already started")
	ErrNotStarted     = errors.Conflict("reminder not started")
	ErrTerminated     = errors.Conflict("reminder already stopped")
	ErrInvalidConfig  = errors.InvalidInput("invalid reminder configuration")
)

// Source provides the task snapshot a reminder inspects.
type Source interface {
	Snapshot() []tasks.Task
}

// State is the externally visible timer state.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

type phase int

const (
	phaseIdle phase = iota
	phaseRunning
	phaseTerminated
)

// Config configures a Timer.
type Config struct {
	// Source is read on every firing. Required.
	Source Source

	// Publisher receives reminder.pending events. Required.
	Publisher notify.Publisher

	// Interval between firings.
	// Default: 60s
	Interval time.Duration

	// Clock stamps published events.
	// Default: time.Now
	Clock func() time.Time

	// Logger is optional.
	Logger *logging.Logger
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.Source == nil {
		return errors.Wrap(ErrInvalidConfig, "source is required")
	}
	if c.Publisher == nil {
		return errors.Wrap(ErrInvalidConfig, "publisher is required")
	}
	return nil
}

// Timer fires reminder.pending while any task is pending.
type Timer struct {
	source    Source
	publisher notify.Publisher
	interval  time.Duration
	clock     func() time.Time
	logger    *logging.Logger

	mu     sync.Mutex
	phase  phase
	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a stopped timer.
func New(cfg Config) (*Timer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Timer{
		source:    cfg.Source,
		publisher: cfg.Publisher,
		interval:  interval,
		clock:     clock,
		logger:    cfg.Logger,
	}, nil
}

// Interval returns the configured firing interval.
func (t *Timer) Interval() time.Duration {
	return t.interval
}

// Start begins firing every interval. The first firing happens one interval
// after Start. Cancelling ctx stops the timer.
func (t *Timer) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.phase {
	case phaseRunning:
		return ErrAlreadyStarted
	case phaseTerminated:
		return ErrTerminated
	}

	if ctx == nil {
		ctx = context.Background()
	}

	t.phase = phaseRunning
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})

	go t.run(ctx, t.stopCh, t.doneCh)
	return nil
}

// run is the main reminder loop.
func (t *Timer) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.mu.Lock()
			t.phase = phaseTerminated
			t.mu.Unlock()
			return
		case <-stopCh:
			return
		case <-ticker.C:
			// Stop may have raced with the tick
			select {
			case <-stopCh:
				return
			default:
			}
			t.fire(ctx)
		}
	}
}

// Stop halts the timer and waits for the loop to exit. Calling Stop on a
// timer that already stopped is a no-op.
func (t *Timer) Stop() error {
	t.mu.Lock()
	switch t.phase {
	case phaseIdle:
		t.mu.Unlock()
		return ErrNotStarted
	case phaseRunning:
		t.phase = phaseTerminated
		close(t.stopCh)
	}
	done := t.doneCh
	t.mu.Unlock()

	<-done
	return nil
}

// Check performs one firing: if any task is pending, exactly one
// reminder.pending event is published. Returns whether an event was sent.
func (t *Timer) Check() bool {
	return t.fire(context.Background())
}

func (t *Timer) fire(ctx context.Context) bool {
	pending := 0
	for _, task := range t.source.Snapshot() {
		if task.Status == tasks.StatusPending {
			pending++
		}
	}
	if pending == 0 {
		return false
	}

	ev := notify.PendingReminder(pending)
	ev.Timestamp = t.clock()
	if err := t.publisher.Publish(ctx, ev); err != nil {
		if t.logger != nil {
			t.logger.OperationFailed("reminder", "", err)
		}
		return false
	}

	if t.logger != nil {
		t.logger.ReminderFired(pending)
	}
	return true
}

// State reports whether the timer is running.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase == phaseRunning {
		return StateRunning
	}
	return StateStopped
}

// OnShutdown stops the timer. A timer that never started is not an error.
func (t *Timer) OnShutdown(ctx context.Context) error {
	err := t.Stop()
	if err == ErrNotStarted {
		return nil
	}
	return err
}
