package tasks

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/taskboard/errors"
	"github.com/vinayprograms/taskboard/notify"
	"github.com/vinayprograms/taskboard/telemetry"
)

// Store owns the ordered task collection for a session.
type Store struct {
	mu    sync.RWMutex
	tasks []*Task

	clock     func() time.Time
	idGen     func() string
	publisher notify.Publisher
	indexer   Indexer
	tracer    *telemetry.Tracer
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the time source used for CreatedAt and CompletedAt.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithIDGenerator sets a custom ID generator function.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) {
		s.idGen = gen
	}
}

// WithPublisher sets where task events are sent.
func WithPublisher(p notify.Publisher) StoreOption {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithIndexer attaches a full-text index.
func WithIndexer(idx Indexer) StoreOption {
	return func(s *Store) {
		s.indexer = idx
	}
}

// WithTracer sets the tracer used for mutation spans.
func WithTracer(t *telemetry.Tracer) StoreOption {
	return func(s *Store) {
		s.tracer = t
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		clock: time.Now,
		idGen: generateID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = telemetry.GetTracer()
	}
	return s
}

// Add creates a pending task and returns its ID. The title is trimmed; an
// empty result is rejected with ErrEmptyTitle and nothing is created.
func (s *Store) Add(ctx context.Context, title, description string, dueDate *time.Time) (id string, err error) {
	ctx, span := s.tracer.StartTaskSpan(ctx, "add")
	title = strings.TrimSpace(title)
	defer func() {
		s.tracer.EndTaskSpan(span, telemetry.TaskSpanOptions{
			TaskID: id,
			Status: StatusPending.String(),
			Title:  title,
		}, err)
	}()

	if title == "" {
		return "", ErrEmptyTitle
	}

	task := &Task{
		Title:       title,
		Description: description,
		Status:      StatusPending,
	}
	if dueDate != nil {
		due := *dueDate
		task.DueDate = &due
	}

	s.mu.Lock()
	task.ID = s.idGen()
	if s.indexOf(task.ID) >= 0 {
		s.mu.Unlock()
		return "", errors.Wrap(ErrDuplicateID, "add task", errors.WithTaskID(task.ID))
	}
	task.CreatedAt = s.clock()
	s.tasks = append(s.tasks, task)
	indexErr := s.index(task)
	s.mu.Unlock()

	s.publish(ctx, notify.TaskAdded(task.ID, task.Title))

	if indexErr != nil {
		return task.ID, errors.WrapWithCode(indexErr, errors.ErrCodeInternal, "index task", errors.WithTaskID(task.ID))
	}
	return task.ID, nil
}

// SetStatus replaces the status of a task, keeping its position and every
// other field. Entering StatusCompleted records CompletedAt and publishes
// task.completed; leaving it clears CompletedAt.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) (err error) {
	ctx, span := s.tracer.StartTaskSpan(ctx, "set_status")
	defer func() {
		s.tracer.EndTaskSpan(span, telemetry.TaskSpanOptions{TaskID: id, Status: status.String()}, err)
	}()

	if !status.Valid() {
		return errors.Wrap(ErrInvalidStatus, "set status "+string(status), errors.WithTaskID(id))
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return errors.Wrap(ErrTaskNotFound, "set status", errors.WithTaskID(id))
	}

	task := s.tasks[i]
	prev := task.Status
	task.Status = status
	switch {
	case status == StatusCompleted && prev != StatusCompleted:
		now := s.clock()
		task.CompletedAt = &now
	case status != StatusCompleted:
		task.CompletedAt = nil
	}
	title := task.Title
	indexErr := s.index(task)
	s.mu.Unlock()

	if status == StatusCompleted && prev != StatusCompleted {
		s.publish(ctx, notify.TaskCompleted(id, title))
	}

	if indexErr != nil {
		return errors.WrapWithCode(indexErr, errors.ErrCodeInternal, "index task", errors.WithTaskID(id))
	}
	return nil
}

// Remove deletes a task.
func (s *Store) Remove(ctx context.Context, id string) (err error) {
	ctx, span := s.tracer.StartTaskSpan(ctx, "remove")
	defer func() {
		s.tracer.EndTaskSpan(span, telemetry.TaskSpanOptions{TaskID: id}, err)
	}()

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return errors.Wrap(ErrTaskNotFound, "remove", errors.WithTaskID(id))
	}

	title := s.tasks[i].Title
	s.tasks = slices.Delete(s.tasks, i, i+1)
	var indexErr error
	if s.indexer != nil {
		indexErr = s.indexer.Delete(id)
	}
	s.mu.Unlock()

	s.publish(ctx, notify.TaskDeleted(id, title))

	if indexErr != nil {
		return errors.WrapWithCode(indexErr, errors.ErrCodeInternal, "unindex task", errors.WithTaskID(id))
	}
	return nil
}

// Get returns a copy of one task.
func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, errors.Wrap(ErrTaskNotFound, "get", errors.WithTaskID(id))
	}
	return *s.tasks[i].Clone(), nil
}

// Snapshot returns a deep copy of every task in insertion order.
func (s *Store) Snapshot() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		snap[i] = *t.Clone()
	}
	return snap
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Search returns tasks matching a full-text query, in store order.
func (s *Store) Search(ctx context.Context, query string) ([]Task, error) {
	if s.indexer == nil {
		return nil, ErrSearchDisabled
	}

	limit := s.Len()
	if limit == 0 {
		return []Task{}, nil
	}

	ids, err := s.indexer.Search(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "search tasks")
	}

	hits := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		hits[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Task, 0, len(ids))
	for _, t := range s.tasks {
		if _, ok := hits[t.ID]; ok {
			result = append(result, *t.Clone())
		}
	}
	return result, nil
}

// indexOf returns the position of id, or -1. Caller holds mu.
func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// index pushes a copy of task to the indexer. Caller holds mu.
func (s *Store) index(task *Task) error {
	if s.indexer == nil {
		return nil
	}
	return s.indexer.Index(*task.Clone())
}

// publish sends an event, ignoring failures.
func (s *Store) publish(ctx context.Context, ev notify.Event) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, ev)
}

// generateID creates a unique task ID.
func generateID() string {
	return uuid.New().String()
}
