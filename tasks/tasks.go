package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/vinayprograms/taskboard/errors"
)

// Common errors.
var (
	// ErrEmptyTitle indicates the title was empty or only whitespace.
	ErrEmptyTitle = errors.InvalidInput("task title is empty")

	// ErrInvalidStatus indicates a status outside the closed set.
	ErrInvalidStatus = errors.InvalidInput("invalid task status")

	// ErrTaskNotFound indicates the requested task does not exist.
	ErrTaskNotFound = errors.NotFound("task not found")

	// ErrDuplicateID indicates the ID generator returned an ID already in use.
	ErrDuplicateID = errors.Conflict("duplicate task id")

	// ErrSearchDisabled indicates the store has no indexer.
	ErrSearchDisabled = errors.Unavailable("search is not enabled")
)

// Status represents the current state of a task.
type Status string

const (
	// StatusPending is the initial status of every task.
	StatusPending Status = "pending"

	// StatusInProgress indicates work has started.
	StatusInProgress Status = "in-progress"

	// StatusCompleted indicates the task is done.
	StatusCompleted Status = "completed"
)

var labels = map[Status]string{
	StatusPending:    "Pending",
	StatusInProgress: "In Progress",
	StatusCompleted:  "Completed",
}

// Statuses returns the closed status set in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Label returns the display name of the status.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus parses a status name. Matching ignores case and accepts
// "in_progress" and "in progress" for StatusInProgress.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	st := Status(norm)
	if !st.Valid() {
		return "", errors.Wrap(ErrInvalidStatus, "parse status "+s)
	}
	return st, nil
}

// Task is a unit of work tracked for the session.
type Task struct {
	// ID is the unique identifier for the task. Immutable.
	ID string `json:"id" yaml:"id"`

	// Title is never empty and carries no surrounding whitespace.
	Title string `json:"title" yaml:"title"`

	// Description may be empty.
	Description string `json:"description" yaml:"description"`

	// Status is the current state of the task.
	Status Status `json:"status" yaml:"status"`

	// CreatedAt is when the task was added.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// DueDate is the optional deadline. Nil means no deadline.
	DueDate *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`

	// CompletedAt is when the task last entered StatusCompleted.
	// Nil unless the task is currently completed.
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Clone creates a deep copy of the task.
func (t *Task) Clone() *Task {
	clone := &Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
	}

	if t.DueDate != nil {
		due := *t.DueDate
		clone.DueDate = &due
	}

	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		clone.CompletedAt = &completed
	}

	return clone
}

// IsOverdue reports whether the due date has passed and the task is not
// completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && now.After(*t.DueDate) && t.Status != StatusCompleted
}

// Indexer keeps a searchable view of tasks in step with the store.
type Indexer interface {
	// Index adds or replaces the task in the index.
	Index(task Task) error

	// Delete removes a task from the index.
	Delete(id string) error

	// Search returns IDs of tasks matching query, best match first.
	Search(ctx context.Context, query string, limit int) ([]string, error)
}
