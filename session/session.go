// Package session owns every component of a running taskboard.
//
// A Session wires the notification bus, the task store, the optional search
// index and the reminder timer, and tears them down in order through a
// shutdown coordinator. Front-ends talk only to the Session.
package session

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vinayprograms/taskboard/config"
	"github.com/vinayprograms/taskboard/errors"
	"github.com/vinayprograms/taskboard/logging"
	"github.com/vinayprograms/taskboard/notify"
	"github.com/vinayprograms/taskboard/reminder"
	"github.com/vinayprograms/taskboard/report"
	"github.com/vinayprograms/taskboard/search"
	"github.com/vinayprograms/taskboard/shutdown"
	"github.com/vinayprograms/taskboard/stats"
	"github.com/vinayprograms/taskboard/tasks"
	"github.com/vinayprograms/taskboard/telemetry"
)

// Shutdown phases. Lower phases shut down first.
const (
	PhaseGate      = 0  // reject new operations before anything closes
	PhaseReminder  = 10 // stop firing before the bus goes away
	PhaseIndex     = 20
	PhaseBus       = 30 // closes subscriber channels
	PhaseTelemetry = 35 // flush spans recorded by earlier phases
	PhaseFinal     = 40
)

// ErrSessionClosed is returned by every operation after Close.
var ErrSessionClosed = errors.Unavailable("session closed")

// Session is the top-level lifecycle owner.
type Session struct {
	cfg    config.Config
	logger *logging.Logger
	clock  func() time.Time
	tracer *telemetry.Tracer

	provider *telemetry.Provider
	bus      *notify.MemoryBus
	notifier *notify.Notifier
	index    *search.Index
	store    *tasks.Store
	reminder *reminder.Timer
	coord    *shutdown.Coordinator

	started time.Time
	closed  atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source for tasks, events and statistics.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithTracer sets the tracer passed to the task store.
func WithTracer(t *telemetry.Tracer) Option {
	return func(s *Session) {
		s.tracer = t
	}
}

// WithTelemetry uses the provider's tracer and shuts the provider down
// after the bus.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(s *Session) {
		s.provider = p
		s.tracer = p.Tracer()
	}
}

// New builds a session from validated configuration. Nothing runs until
// Start.
func New(cfg config.Config, logger *logging.Logger, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.New()
		logger.SetOutput(io.Discard)
	}

	s := &Session{
		cfg:     cfg,
		logger:  logger.WithComponent("session"),
		clock:   time.Now,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = telemetry.GetTracer()
	}

	s.bus = notify.NewMemoryBus(notify.Config{BufferSize: cfg.Bus.BufferSize})
	s.notifier = notify.NewNotifier(s.bus, notify.WithNotifierClock(s.clock))

	storeOpts := []tasks.StoreOption{
		tasks.WithClock(s.clock),
		tasks.WithPublisher(s.notifier),
		tasks.WithTracer(s.tracer),
	}
	if cfg.Search.Enabled {
		idx, err := search.New()
		if err != nil {
			s.bus.Close()
			return nil, errors.Wrap(err, "create search index")
		}
		s.index = idx
		storeOpts = append(storeOpts, tasks.WithIndexer(idx))
	}
	s.store = tasks.NewStore(storeOpts...)

	timer, err := reminder.New(reminder.Config{
		Source:    s.store,
		Publisher: s.notifier,
		Interval:  cfg.Reminder.Interval.Duration,
		Clock:     s.clock,
		Logger:    logger.WithComponent("reminder"),
	})
	if err != nil {
		s.bus.Close()
		if s.index != nil {
			s.index.Close()
		}
		return nil, err
	}
	s.reminder = timer

	s.coord = shutdown.NewCoordinator(shutdown.Config{
		ContinueOnError: true,
		OnProgress: func(r shutdown.HandlerResult) {
			fields := map[string]interface{}{
				"handler":  r.Name,
				"phase":    r.Phase,
				"duration": r.Duration.String(),
			}
			if r.Err != nil {
				fields["error"] = r.Err.Error()
				s.logger.Warn("shutdown_handler", fields)
				return
			}
			s.logger.Debug("shutdown_handler", fields)
		},
	})
	s.coord.RegisterFuncWithPhase("gate", func(ctx context.Context) error {
		s.closed.Store(true)
		return nil
	}, PhaseGate)
	s.coord.RegisterWithPhase("reminder", s.reminder, PhaseReminder)
	if s.index != nil {
		s.coord.RegisterWithPhase("search-index", s.index, PhaseIndex)
	}
	s.coord.RegisterFuncWithPhase("bus", func(ctx context.Context) error {
		return s.bus.Close()
	}, PhaseBus)
	if s.provider != nil {
		s.coord.RegisterWithPhase("telemetry", s.provider, PhaseTelemetry)
	}
	s.coord.RegisterFuncWithPhase("session", func(ctx context.Context) error {
		s.logger.SessionClosed(time.Since(s.started), s.store.Len())
		return nil
	}, PhaseFinal)

	return s, nil
}

// Start begins the reminder timer.
func (s *Session) Start(ctx context.Context) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := s.reminder.Start(ctx); err != nil {
		return err
	}
	s.started = time.Now()
	s.logger.SessionStart(s.reminder.Interval())
	return nil
}

// HandleSignals closes the session on SIGINT or SIGTERM.
func (s *Session) HandleSignals() {
	s.coord.HandleSignals()
}

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} {
	return s.coord.Done()
}

// Close shuts every component down in phase order. Safe to call more than
// once; later calls return the first result.
func (s *Session) Close(ctx context.Context) error {
	s.closed.Store(true)
	err := s.coord.Shutdown(ctx)
	if err == shutdown.ErrAlreadyShutdown {
		<-s.coord.Done()
		return s.coord.Err()
	}
	return err
}

func (s *Session) isClosed() bool {
	if s.closed.Load() {
		return true
	}
	select {
	case <-s.coord.Done():
		return true
	default:
		return false
	}
}

// Add creates a task.
func (s *Session) Add(ctx context.Context, title, description string, dueDate *time.Time) (string, error) {
	if s.isClosed() {
		return "", ErrSessionClosed
	}
	id, err := s.store.Add(ctx, title, description, dueDate)
	switch {
	case errors.Is(err, errors.ErrCodeInvalidInput):
		s.logger.TaskRejected(err.Error())
		return "", err
	case err != nil && id == "":
		s.logger.OperationFailed("add", "", err)
		return "", err
	case err != nil:
		// Stored but not indexed
		s.logger.OperationFailed("add", id, err)
	}
	s.logger.TaskAdded(id, strings.TrimSpace(title))
	return id, err
}

// SetStatus changes the status of a task.
func (s *Session) SetStatus(ctx context.Context, id string, status tasks.Status) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := s.store.SetStatus(ctx, id, status); err != nil {
		s.logger.OperationFailed("set_status", id, err)
		return err
	}
	s.logger.StatusChanged(id, status.String())
	return nil
}

// Remove deletes a task.
func (s *Session) Remove(ctx context.Context, id string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := s.store.Remove(ctx, id); err != nil {
		s.logger.OperationFailed("remove", id, err)
		return err
	}
	s.logger.TaskRemoved(id)
	return nil
}

// Get returns a copy of one task.
func (s *Session) Get(id string) (tasks.Task, error) {
	return s.store.Get(id)
}

// Snapshot returns every task in insertion order.
func (s *Session) Snapshot() []tasks.Task {
	return s.store.Snapshot()
}

// Summary computes dashboard statistics as of now.
func (s *Session) Summary() stats.Summary {
	return stats.Summarize(s.store.Snapshot(), s.clock())
}

// Report builds a report as of now.
func (s *Session) Report() report.Report {
	return report.Build(s.store.Snapshot(), s.clock())
}

// WriteReport writes a report in format, or the configured format when
// format is empty.
func (s *Session) WriteReport(w io.Writer, format report.Format) error {
	if format == "" {
		format = s.cfg.ReportFormat()
	}
	return report.Write(w, s.Report(), format)
}

// SaveReport writes a report to a file and returns the path written.
//
// An empty format is taken from the path's extension, then from config. An
// empty path, or one naming a directory, gets the default file name inside
// it; empty uses the configured report directory.
func (s *Session) SaveReport(path string, format report.Format) (string, error) {
	if format == "" {
		if f, ok := report.FormatFromPath(path); ok {
			format = f
		} else {
			format = s.cfg.ReportFormat()
		}
	}
	if path == "" {
		path = filepath.Join(s.cfg.Report.Dir, report.DefaultFilename(format))
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, report.DefaultFilename(format))
	}

	if err := report.Save(path, s.Report(), format); err != nil {
		s.logger.OperationFailed("save_report", "", err)
		return "", err
	}
	s.logger.Info("report_saved", map[string]interface{}{
		"path":   path,
		"format": string(format),
	})
	return path, nil
}

// Search runs a full-text query.
func (s *Session) Search(ctx context.Context, query string) ([]tasks.Task, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	return s.store.Search(ctx, query)
}

// Subscribe listens for notifications matching pattern, e.g. "*" or "task.*".
func (s *Session) Subscribe(pattern string) (notify.Subscription, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	return s.bus.Subscribe(pattern)
}

// CheckReminder fires the reminder once, outside its schedule.
func (s *Session) CheckReminder() bool {
	if s.isClosed() {
		return false
	}
	return s.reminder.Check()
}

// ReminderState reports whether the reminder timer is running.
func (s *Session) ReminderState() reminder.State {
	return s.reminder.State()
}
