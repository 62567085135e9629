// Package logging provides leveled console output for a taskboard session.
// Notifications are the user-facing record; this package is for operators
// watching what the session does.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger writes one line per entry: LEVEL TIMESTAMP [component] message key=value ...
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
}

var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger writing INFO and above to stdout.
func New() *Logger {
	return &Logger{
		mu:       &sync.Mutex{},
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// ParseLevel converts a case-insensitive level name into a Level.
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelPriority[level]; !ok {
		return "", fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// WithComponent returns a new logger with the given component name.
// The child shares the parent's output lock.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields renders fields as key=value pairs sorted by key.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Task-domain helpers ---

// TaskAdded logs a new task.
func (l *Logger) TaskAdded(id, title string) {
	l.Info("task_added", map[string]interface{}{
		"task":  id,
		"title": title,
	})
}

// TaskRejected logs an add that failed validation.
func (l *Logger) TaskRejected(reason string) {
	l.Debug("task_rejected", map[string]interface{}{
		"reason": reason,
	})
}

// StatusChanged logs a status update.
func (l *Logger) StatusChanged(id, status string) {
	l.Info("status_changed", map[string]interface{}{
		"task":   id,
		"status": status,
	})
}

// TaskRemoved logs a deletion.
func (l *Logger) TaskRemoved(id string) {
	l.Info("task_removed", map[string]interface{}{
		"task": id,
	})
}

// OperationFailed logs a failed store operation.
func (l *Logger) OperationFailed(op, id string, err error) {
	l.Warn("operation_failed", map[string]interface{}{
		"op":    op,
		"task":  id,
		"error": err.Error(),
	})
}

// ReminderFired logs a reminder firing with the number of pending tasks.
func (l *Logger) ReminderFired(pending int) {
	l.Debug("reminder_fired", map[string]interface{}{
		"pending": pending,
	})
}

// SessionStart logs the start of a session.
func (l *Logger) SessionStart(interval time.Duration) {
	l.Info("session_start", map[string]interface{}{
		"reminder_interval": interval.String(),
	})
}

// SessionClosed logs the end of a session.
func (l *Logger) SessionClosed(duration time.Duration, tasks int) {
	l.Info("session_closed", map[string]interface{}{
		"duration": duration.String(),
		"tasks":    tasks,
	})
}
