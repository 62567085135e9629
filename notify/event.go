package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies a notification.
type Kind string

const (
	KindTaskAdded       Kind = "task.added"
	KindTaskCompleted   Kind = "task.completed"
	KindTaskDeleted     Kind = "task.deleted"
	KindReminderPending Kind = "reminder.pending"
)

// User-facing messages, one per kind.
const (
	MsgTaskAdded       = "New task added successfully!"
	MsgTaskCompleted   = "Congratulations! Task completed!"
	MsgTaskDeleted     = "Task deleted successfully!"
	MsgReminderPending = "You have pending tasks waiting for your attention!"
)

var messages = map[Kind]string{
	KindTaskAdded:       MsgTaskAdded,
	KindTaskCompleted:   MsgTaskCompleted,
	KindTaskDeleted:     MsgTaskDeleted,
	KindReminderPending: MsgReminderPending,
}

// Message returns the user-facing text for the kind.
func (k Kind) Message() string {
	return messages[k]
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := messages[k]
	return ok
}

// Event is a single notification.
type Event struct {
	Kind      Kind      `json:"kind"`
	TaskID    string    `json:"task_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	Pending   int       `json:"pending,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func newEvent(kind Kind, id, title string) Event {
	return Event{
		Kind:    kind,
		TaskID:  id,
		Title:   title,
		Message: kind.Message(),
	}
}

// TaskAdded builds the event published after a task is created.
func TaskAdded(id, title string) Event {
	return newEvent(KindTaskAdded, id, title)
}

// TaskCompleted builds the event published when a task becomes completed.
func TaskCompleted(id, title string) Event {
	return newEvent(KindTaskCompleted, id, title)
}

// TaskDeleted builds the event published after a task is removed.
func TaskDeleted(id, title string) Event {
	return newEvent(KindTaskDeleted, id, title)
}

// PendingReminder builds the periodic reminder event.
func PendingReminder(pending int) Event {
	ev := newEvent(KindReminderPending, "", "")
	ev.Pending = pending
	return ev
}

// Marshal serializes the event to JSON.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes an event from JSON.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return e, nil
}

// Decode turns a bus message back into an event.
func Decode(msg *Message) (Event, error) {
	if msg == nil {
		return Event{}, fmt.Errorf("decode event: nil message")
	}
	return Unmarshal(msg.Data)
}
