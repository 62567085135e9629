package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vinayprograms/taskboard/config"
	"github.com/vinayprograms/taskboard/report"
	"github.com/vinayprograms/taskboard/session"
	"github.com/vinayprograms/taskboard/tasks"
)

// syncBuffer is a bytes.Buffer safe for the console's two writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	cfg := config.Default()
	cfg.Reminder.Interval = config.Duration{Duration: time.Hour}
	sess, err := session.New(cfg, nil)
	if err != nil {
		t.Fatalf("session.New error: %v", err)
	}
	t.Cleanup(func() { sess.Close(context.Background()) })
	return sess
}

func TestConsole_Execute(t *testing.T) {
	sess := newTestSession(t)
	out := &syncBuffer{}
	c := newConsole(sess, strings.NewReader(""), out)
	ctx := context.Background()

	c.Execute(ctx, "add Write report | quarterly | 2000-01-01")
	c.Execute(ctx, "add Buy milk")
	c.Execute(ctx, "add    ")

	snap := sess.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("tasks = %d, want 2", len(snap))
	}
	if snap[0].Description != "quarterly" || snap[0].DueDate == nil {
		t.Errorf("first task = %+v", snap[0])
	}
	if !strings.Contains(out.String(), "error: ") {
		t.Error("empty title should print an error")
	}

	c.Execute(ctx, "list")
	if !strings.Contains(out.String(), "2000-01-01 (overdue)") {
		t.Errorf("list missing overdue marker:\n%s", out.String())
	}

	c.Execute(ctx, "status "+snap[0].ID[:8]+" completed")
	if got, _ := sess.Get(snap[0].ID); got.Status != tasks.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}

	c.Execute(ctx, "status "+snap[1].ID+" in progress")
	if got, _ := sess.Get(snap[1].ID); got.Status != tasks.StatusInProgress {
		t.Errorf("status = %s, want in-progress", got.Status)
	}

	c.Execute(ctx, "stats")
	if !strings.Contains(out.String(), "Completion rate: 50.0%") {
		t.Errorf("stats output:\n%s", out.String())
	}

	c.Execute(ctx, "search milk")
	if !strings.Contains(out.String(), "Buy milk") {
		t.Error("search output missing match")
	}

	c.Execute(ctx, "report json")
	if !strings.Contains(out.String(), `"completion_rate": 50`) {
		t.Errorf("json report missing:\n%s", out.String())
	}

	c.Execute(ctx, "rm "+snap[1].ID)
	if len(sess.Snapshot()) != 1 {
		t.Error("rm did not remove the task")
	}

	c.Execute(ctx, "rm nope")
	if !strings.Contains(out.String(), "task not found") {
		t.Error("missing id should print not found")
	}

	if !c.Execute(ctx, "quit") {
		t.Error("quit should end the session")
	}
}

func TestConsole_BadInput(t *testing.T) {
	sess := newTestSession(t)
	out := &syncBuffer{}
	c := newConsole(sess, strings.NewReader(""), out)
	ctx := context.Background()

	tests := []struct {
		line string
		want string
	}{
		{"frobnicate", "unknown command"},
		{"add x | y | tomorrow", "YYYY-MM-DD"},
		{"status onlyid", "usage: status"},
		{"status abc archived", "invalid task status"},
		{"report pdf", "unknown report format"},
		{"report pdf out.txt", "unknown report format"},
		{"rm", "usage: rm"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c.Execute(ctx, tt.line)
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out.String())
			}
		})
	}
}

func TestConsole_RunPrintsNotifications(t *testing.T) {
	sess := newTestSession(t)
	out := &syncBuffer{}
	in := strings.NewReader("add Write report\nremind\nquit\n")
	c := newConsole(sess, in, out)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	for _, want := range []string{
		"New task added successfully! [Write report]",
		"You have pending tasks waiting for your attention! (1 pending)",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestConsole_RunStopsOnSessionClose(t *testing.T) {
	sess := newTestSession(t)
	out := &syncBuffer{}

	// Input that never ends
	pr, pw := io.Pipe()
	defer pw.Close()
	c := newConsole(sess, pr, out)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	sess.Close(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after session close")
	}
}

func TestShortID(t *testing.T) {
	if shortID("0123456789") != "01234567" {
		t.Error("long id not shortened")
	}
	if shortID("abc") != "abc" {
		t.Error("short id changed")
	}
}

func TestConsole_SaveReport(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Reminder.Interval = config.Duration{Duration: time.Hour}
	cfg.Report.Dir = dir
	sess, err := session.New(cfg, nil)
	if err != nil {
		t.Fatalf("session.New error: %v", err)
	}
	t.Cleanup(func() { sess.Close(context.Background()) })

	out := &syncBuffer{}
	c := newConsole(sess, strings.NewReader(""), out)
	ctx := context.Background()
	c.Execute(ctx, "add Write report | quarterly")

	jsonPath := filepath.Join(dir, "weekly.json")
	c.Execute(ctx, "report "+jsonPath)
	c.Execute(ctx, "export yaml")
	c.Execute(ctx, "report text "+filepath.Join(dir, "plain"))

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read %s: %v\n%s", jsonPath, err, out.String())
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("saved report is not JSON: %v", err)
	}
	if r.Total != 1 || r.Rows[0].Title != "Write report" {
		t.Errorf("saved report = %+v", r)
	}

	yamlData, err := os.ReadFile(filepath.Join(dir, "task-report.yaml"))
	if err != nil {
		t.Fatalf("export did not write the default file: %v", err)
	}
	if !strings.Contains(string(yamlData), "title: Write report") {
		t.Errorf("yaml report:\n%s", yamlData)
	}

	plain, err := os.ReadFile(filepath.Join(dir, "plain"))
	if err != nil {
		t.Fatalf("read plain: %v", err)
	}
	if !strings.Contains(string(plain), "Task Manager Report") {
		t.Errorf("text report:\n%s", plain)
	}

	if strings.Count(out.String(), "report saved to ") != 3 {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestParseReportArgs(t *testing.T) {
	tests := []struct {
		in         string
		wantFormat report.Format
		wantPath   string
		wantErr    bool
	}{
		{"", "", "", false},
		{"json", report.FormatJSON, "", false},
		{"yaml out/r.yaml", report.FormatYAML, "out/r.yaml", false},
		{"r.json", "", "r.json", false},
		{"pdf", "", "", true},
		{"pdf r.txt", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, p, err := parseReportArgs(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if f != tt.wantFormat || p != tt.wantPath {
				t.Errorf("parseReportArgs(%q) = %q, %q", tt.in, f, p)
			}
		})
	}
}

func TestParseDue_EndOfDay(t *testing.T) {
	today := time.Now().Format(dueLayout)
	due, err := parseDue(today)
	if err != nil {
		t.Fatalf("parseDue error: %v", err)
	}
	if due.Hour() != 23 || due.Minute() != 59 {
		t.Errorf("due = %v, want end of day", due)
	}

	task := tasks.Task{Status: tasks.StatusPending, DueDate: &due}
	if task.IsOverdue(time.Now()) {
		t.Error("a task due today should not be overdue")
	}

	if _, err := parseDue("tomorrow"); err == nil {
		t.Error("expected error for malformed date")
	}
}
