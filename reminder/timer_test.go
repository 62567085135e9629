package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vinayprograms/taskboard/notify"
	"github.com/vinayprograms/taskboard/tasks"
)

// staticSource serves a fixed snapshot.
type staticSource struct {
	mu   sync.Mutex
	snap []tasks.Task
}

func (s *staticSource) Snapshot() []tasks.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tasks.Task(nil), s.snap...)
}

func (s *staticSource) set(statuses ...tasks.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
	for _, st := range statuses {
		s.snap = append(s.snap, tasks.Task{Title: "t", Status: st})
	}
}

// recorder counts published events.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
	ch     chan notify.Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan notify.Event, 64)}
}

func (r *recorder) Publish(ctx context.Context, ev notify.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.ch <- ev:
	default:
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newTimer(t *testing.T, src Source, pub notify.Publisher, interval time.Duration) *Timer {
	t.Helper()
	timer, err := New(Config{Source: src, Publisher: pub, Interval: interval})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return timer
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing source", Config{Publisher: newRecorder()}},
		{"missing publisher", Config{Source: &staticSource{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	timer := newTimer(t, &staticSource{}, newRecorder(), 0)
	if timer.Interval() != DefaultInterval {
		t.Errorf("Interval() = %v, want %v", timer.Interval(), DefaultInterval)
	}
	if timer.State() != StateStopped {
		t.Errorf("initial State() = %q, want stopped", timer.State())
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		statuses []tasks.Status
		fired    bool
		pending  int
	}{
		{"empty", nil, false, 0},
		{"none pending", []tasks.Status{tasks.StatusCompleted, tasks.StatusInProgress}, false, 0},
		{"one pending", []tasks.Status{tasks.StatusPending}, true, 1},
		{"many pending still one event", []tasks.Status{tasks.StatusPending, tasks.StatusPending, tasks.StatusPending}, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &staticSource{}
			src.set(tt.statuses...)
			rec := newRecorder()
			timer := newTimer(t, src, rec, time.Hour)

			if got := timer.Check(); got != tt.fired {
				t.Errorf("Check() = %v, want %v", got, tt.fired)
			}

			want := 0
			if tt.fired {
				want = 1
			}
			if rec.count() != want {
				t.Fatalf("events = %d, want %d", rec.count(), want)
			}
			if tt.fired {
				ev := rec.events[0]
				if ev.Kind != notify.KindReminderPending || ev.Pending != tt.pending {
					t.Errorf("event = %+v", ev)
				}
				if ev.Message != notify.MsgReminderPending {
					t.Errorf("Message = %q", ev.Message)
				}
			}
		})
	}
}

func TestTimer_FiresWhileRunning(t *testing.T) {
	src := &staticSource{}
	src.set(tasks.StatusPending)
	rec := newRecorder()
	timer := newTimer(t, src, rec, 10*time.Millisecond)

	if err := timer.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer timer.Stop()

	if timer.State() != StateRunning {
		t.Errorf("State() = %q, want running", timer.State())
	}

	for i := 0; i < 2; i++ {
		select {
		case <-rec.ch:
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for reminder %d", i+1)
		}
	}
}

func TestTimer_NoPendingNoEvents(t *testing.T) {
	src := &staticSource{}
	src.set(tasks.StatusCompleted)
	rec := newRecorder()
	timer := newTimer(t, src, rec, 5*time.Millisecond)

	timer.Start(context.Background())
	time.Sleep(40 * time.Millisecond)
	timer.Stop()

	if rec.count() != 0 {
		t.Errorf("events = %d, want 0", rec.count())
	}
}

func TestTimer_StopSilences(t *testing.T) {
	src := &staticSource{}
	src.set(tasks.StatusPending)
	rec := newRecorder()
	timer := newTimer(t, src, rec, 5*time.Millisecond)

	timer.Start(context.Background())
	select {
	case <-rec.ch:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for first reminder")
	}

	if err := timer.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	after := rec.count()
	time.Sleep(30 * time.Millisecond)
	if rec.count() != after {
		t.Errorf("events after Stop: %d -> %d", after, rec.count())
	}
	if timer.State() != StateStopped {
		t.Errorf("State() = %q, want stopped", timer.State())
	}
}

func TestTimer_Lifecycle(t *testing.T) {
	timer := newTimer(t, &staticSource{}, newRecorder(), time.Hour)

	if err := timer.Stop(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Stop before Start = %v, want ErrNotStarted", err)
	}
	if err := timer.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := timer.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
	if err := timer.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if err := timer.Stop(); err != nil {
		t.Errorf("second Stop = %v, want nil", err)
	}
	if err := timer.Start(context.Background()); !errors.Is(err, ErrTerminated) {
		t.Errorf("Start after Stop = %v, want ErrTerminated", err)
	}
}

func TestTimer_ContextCancel(t *testing.T) {
	src := &staticSource{}
	src.set(tasks.StatusPending)
	rec := newRecorder()
	timer := newTimer(t, src, rec, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	timer.Start(ctx)
	cancel()

	deadline := time.After(time.Second)
	for timer.State() != StateStopped {
		select {
		case <-deadline:
			t.Fatal("timer did not stop after context cancel")
		case <-time.After(time.Millisecond):
		}
	}

	// Stop still waits for the loop and reports success
	if err := timer.Stop(); err != nil {
		t.Errorf("Stop after cancel = %v", err)
	}
	after := rec.count()
	time.Sleep(20 * time.Millisecond)
	if rec.count() != after {
		t.Error("events published after cancel")
	}
}

func TestTimer_OnShutdown(t *testing.T) {
	timer := newTimer(t, &staticSource{}, newRecorder(), time.Hour)
	if err := timer.OnShutdown(context.Background()); err != nil {
		t.Errorf("OnShutdown before Start = %v", err)
	}

	timer = newTimer(t, &staticSource{}, newRecorder(), time.Hour)
	timer.Start(context.Background())
	if err := timer.OnShutdown(context.Background()); err != nil {
		t.Errorf("OnShutdown = %v", err)
	}
	if timer.State() != StateStopped {
		t.Error("OnShutdown should stop the timer")
	}
}
