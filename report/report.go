// Package report builds an exportable summary of the session's tasks.
//
// A Report is computed from a snapshot at a point in time and can be written
// as aligned plain text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vinayprograms/taskboard/errors"
	"github.com/vinayprograms/taskboard/stats"
	"github.com/vinayprograms/taskboard/tasks"
)

// NoDueDate is shown for tasks without a deadline.
const NoDueDate = "No due date"

// DateLayout formats the created and due columns.
const DateLayout = "2006-01-02"

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.InvalidInput("unknown report format")

// ParseFormat parses a format name. Empty selects text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", errors.Wrap(ErrUnknownFormat, fmt.Sprintf("format %q", s))
	}
}

// DefaultBaseName names saved reports when no file name is given.
const DefaultBaseName = "task-report"

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".txt"
	}
}

// DefaultFilename returns "task-report" with the extension for f.
func DefaultFilename(f Format) string {
	return DefaultBaseName + f.Extension()
}

// FormatFromPath infers a format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return FormatText, true
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// Save writes r to the file at path, replacing it if it exists.
func Save(path string, r Report, format Format) (err error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close report file")
		}
	}()
	return Write(f, r, format)
}

// Row is one line of the task table.
type Row struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Status  string `json:"status" yaml:"status"`
	Created string `json:"created" yaml:"created"`
	Due     string `json:"due" yaml:"due"`
	Overdue bool   `json:"overdue" yaml:"overdue"`
}

// Report is a point-in-time summary.
type Report struct {
	GeneratedAt           time.Time `json:"generated_at" yaml:"generated_at"`
	Total                 int       `json:"total" yaml:"total"`
	Pending               int       `json:"pending" yaml:"pending"`
	InProgress            int       `json:"in_progress" yaml:"in_progress"`
	Completed             int       `json:"completed" yaml:"completed"`
	Overdue               int       `json:"overdue" yaml:"overdue"`
	CompletionRate        float64   `json:"completion_rate" yaml:"completion_rate"`
	AverageCompletionTime float64   `json:"average_completion_days" yaml:"average_completion_days"`
	Rows                  []Row     `json:"tasks" yaml:"tasks"`
}

// Build computes a report from snapshot as of now.
func Build(snapshot []tasks.Task, now time.Time) Report {
	sum := stats.Summarize(snapshot, now)

	r := Report{
		GeneratedAt:           now,
		Total:                 sum.Total,
		Pending:               sum.Counts[tasks.StatusPending],
		InProgress:            sum.Counts[tasks.StatusInProgress],
		Completed:             sum.Counts[tasks.StatusCompleted],
		Overdue:               sum.Overdue,
		CompletionRate:        sum.CompletionRate,
		AverageCompletionTime: sum.AverageCompletionTime,
		Rows:                  make([]Row, 0, len(snapshot)),
	}

	for i := range snapshot {
		t := &snapshot[i]
		due := NoDueDate
		if t.DueDate != nil {
			due = t.DueDate.Format(DateLayout)
		}
		r.Rows = append(r.Rows, Row{
			ID:      t.ID,
			Title:   t.Title,
			Status:  t.Status.String(),
			Created: t.CreatedAt.Format(DateLayout),
			Due:     due,
			Overdue: t.IsOverdue(now),
		})
	}
	return r
}

// Write encodes r to w in the given format.
func Write(w io.Writer, r Report, format Format) error {
	switch format {
	case FormatText, "":
		return writeText(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return errors.Wrap(err, "encode json report")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return errors.Wrap(err, "encode yaml report")
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, "encode yaml report")
		}
		return nil
	default:
		return errors.Wrap(ErrUnknownFormat, fmt.Sprintf("format %q", format))
	}
}

func writeText(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintln(&b, "Task Manager Report")
	fmt.Fprintf(&b, "Generated on: %s\n", r.GeneratedAt.Format(DateLayout))
	fmt.Fprintf(&b, "Total Tasks: %d\n", r.Total)
	fmt.Fprintf(&b, "Pending: %d  In Progress: %d  Completed: %d  Overdue: %d\n",
		r.Pending, r.InProgress, r.Completed, r.Overdue)
	fmt.Fprintf(&b, "Completion Rate: %.1f%%\n", r.CompletionRate)
	fmt.Fprintf(&b, "Average Completion Time: %.1f days\n", r.AverageCompletionTime)
	fmt.Fprintln(&b)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, "write report")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Task\tStatus\tCreated\tDue Date")
	for _, row := range r.Rows {
		due := row.Due
		if row.Overdue {
			due += " (overdue)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Title, row.Status, row.Created, due)
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "write report")
	}
	return nil
}
