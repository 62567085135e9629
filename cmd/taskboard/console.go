package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/vinayprograms/taskboard/notify"
	"github.com/vinayprograms/taskboard/report"
	"github.com/vinayprograms/taskboard/session"
	"github.com/vinayprograms/taskboard/tasks"
)

const dueLayout = "2006-01-02"

const helpText = `Commands:
  add <title> [| description [| YYYY-MM-DD]]   add a task
  list                                        list tasks
  status <id> <pending|in-progress|completed>  change a task's status
  rm <id>                                     delete a task
  stats                                       show statistics
  report [text|json|yaml] [path]              print a report, or save it to path
  export [text|json|yaml] [path]              save a report (default task-report.<ext>)
  search <query>                              full-text search (status:<name> filters)
  remind                                      check for pending tasks now
  help                                        show this help
  quit                                        end the session
IDs may be shortened to any unique prefix.`

// console is a line-oriented front-end for a session.
type console struct {
	sess *session.Session
	in   io.Reader

	mu  sync.Mutex
	out io.Writer
}

func newConsole(sess *session.Session, in io.Reader, out io.Writer) *console {
	return &console{sess: sess, in: in, out: out}
}

// printf writes to out. Safe for use by the notification printer.
func (c *console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// Run reads commands until quit, end of input, ctx cancellation or session
// shutdown.
func (c *console) Run(ctx context.Context) error {
	sub, err := c.sess.Subscribe("*")
	if err != nil {
		return err
	}
	printerDone := make(chan struct{})
	go c.printNotifications(sub, printerDone)
	defer func() {
		sub.Unsubscribe()
		<-printerDone
	}()

	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.printf("taskboard %s. Type 'help' for commands.\n", Version)
	for {
		c.printf("> ")
		select {
		case <-ctx.Done():
			return nil
		case <-c.sess.Done():
			c.printf("\nsession closed\n")
			return nil
		case err := <-readErr:
			c.printf("\n")
			return err
		case line := <-lines:
			if quit := c.Execute(ctx, line); quit {
				return nil
			}
		}
	}
}

func (c *console) printNotifications(sub notify.Subscription, done chan<- struct{}) {
	defer close(done)
	for msg := range sub.Messages() {
		ev, err := notify.Decode(msg)
		if err != nil {
			continue
		}
		switch {
		case ev.Kind == notify.KindReminderPending:
			c.printf("\n* %s (%d pending)\n", ev.Message, ev.Pending)
		case ev.Title != "":
			c.printf("* %s [%s]\n", ev.Message, ev.Title)
		default:
			c.printf("* %s\n", ev.Message)
		}
	}
}

// Execute runs one command line and reports whether the session should end.
func (c *console) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch strings.ToLower(cmd) {
	case "add":
		err = c.add(ctx, rest)
	case "list", "ls":
		c.list()
	case "status", "set":
		err = c.setStatus(ctx, rest)
	case "rm", "remove", "delete":
		err = c.remove(ctx, rest)
	case "stats":
		c.stats()
	case "report":
		err = c.report(rest, false)
	case "export", "save":
		err = c.report(rest, true)
	case "search", "find":
		err = c.search(ctx, rest)
	case "remind":
		if !c.sess.CheckReminder() {
			c.printf("No pending tasks.\n")
		}
	case "help", "?":
		c.printf("%s\n", helpText)
	case "quit", "exit", "q":
		return true
	default:
		c.printf("unknown command %q, type 'help'\n", cmd)
	}

	if err != nil {
		c.printf("error: %v\n", err)
	}
	return false
}

func (c *console) add(ctx context.Context, rest string) error {
	parts := strings.SplitN(rest, "|", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	title := parts[0]
	var description string
	if len(parts) > 1 {
		description = parts[1]
	}

	var due *time.Time
	if len(parts) > 2 && parts[2] != "" {
		d, err := parseDue(parts[2])
		if err != nil {
			return err
		}
		due = &d
	}

	id, err := c.sess.Add(ctx, title, description, due)
	if err != nil && id == "" {
		return err
	}
	c.printf("added %s\n", shortID(id))
	return err
}

func (c *console) list() {
	snap := c.sess.Snapshot()
	if len(snap) == 0 {
		c.printf("No tasks.\n")
		return
	}

	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tDUE")
	for _, t := range snap {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format(dueLayout)
			if t.IsOverdue(now) {
				due += " (overdue)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", shortID(t.ID), t.Title, t.Status.Label(), due)
	}
	tw.Flush()
}

func (c *console) setStatus(ctx context.Context, rest string) error {
	idArg, statusArg, ok := strings.Cut(rest, " ")
	if !ok {
		return fmt.Errorf("usage: status <id> <status>")
	}
	id, err := c.resolveID(idArg)
	if err != nil {
		return err
	}
	status, err := tasks.ParseStatus(statusArg)
	if err != nil {
		return err
	}
	if err := c.sess.SetStatus(ctx, id, status); err != nil {
		return err
	}
	c.printf("%s is now %s\n", shortID(id), status.Label())
	return nil
}

func (c *console) remove(ctx context.Context, rest string) error {
	if rest == "" {
		return fmt.Errorf("usage: rm <id>")
	}
	id, err := c.resolveID(rest)
	if err != nil {
		return err
	}
	return c.sess.Remove(ctx, id)
}

func (c *console) stats() {
	sum := c.sess.Summary()
	c.printf("Total tasks: %d\n", sum.Total)
	for _, s := range sum.Distribution {
		c.printf("  %-12s %3d  (%.1f%%)\n", s.Label, s.Count, s.Percentage)
	}
	c.printf("Completion rate: %.1f%%\n", sum.CompletionRate)
	c.printf("Average completion time: %.1f days\n", sum.AverageCompletionTime)
	c.printf("Average time to complete: %.1f days\n", sum.AverageTimeToComplete)
	c.printf("Overdue: %d\n", sum.Overdue)
}

// report prints a report, or saves it when a path is given or save is set.
func (c *console) report(rest string, save bool) error {
	format, path, err := parseReportArgs(rest)
	if err != nil {
		return err
	}

	if save || path != "" {
		written, err := c.sess.SaveReport(path, format)
		if err != nil {
			return err
		}
		c.printf("report saved to %s\n", written)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.WriteReport(c.out, format)
}

// parseReportArgs splits "[format] [path]". A lone argument that is not a
// format must look like a file path.
func parseReportArgs(rest string) (report.Format, string, error) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", "", nil
	}

	f, ferr := report.ParseFormat(fields[0])
	if ferr == nil {
		return f, strings.Join(fields[1:], " "), nil
	}
	if len(fields) > 1 {
		return "", "", ferr
	}
	if _, ok := report.FormatFromPath(fields[0]); ok || strings.ContainsRune(fields[0], filepath.Separator) {
		return "", fields[0], nil
	}
	return "", "", ferr
}

func (c *console) search(ctx context.Context, rest string) error {
	found, err := c.sess.Search(ctx, rest)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		c.printf("No matches.\n")
		return nil
	}
	for _, t := range found {
		c.printf("%s  %s  [%s]\n", shortID(t.ID), t.Title, t.Status.Label())
	}
	return nil
}

// resolveID expands a unique ID prefix to the full ID.
func (c *console) resolveID(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	var match string
	for _, t := range c.sess.Snapshot() {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", prefix)
			}
			match = t.ID
		}
	}
	if match == "" {
		// Let the store report not-found with its own error
		return prefix, nil
	}
	return match, nil
}

// parseDue reads YYYY-MM-DD as the last second of that local day, so a task
// is not overdue until its due day has passed.
func parseDue(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dueLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("due date must be YYYY-MM-DD: %q", s)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.Local), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
