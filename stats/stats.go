// Package stats computes aggregate statistics over a task snapshot.
//
// Every function is pure: the result depends only on the snapshot and, where
// time matters, the supplied now. Inputs are never modified. Percentages and
// day counts are rounded to one decimal place.
package stats

import (
	"math"
	"time"

	"github.com/vinayprograms/taskboard/tasks"
)

const day = 24 * time.Hour

// Slice is one segment of a status chart.
type Slice struct {
	Status     tasks.Status `json:"status" yaml:"status"`
	Label      string       `json:"label" yaml:"label"`
	Count      int          `json:"count" yaml:"count"`
	Percentage float64      `json:"percentage" yaml:"percentage"`
}

// Summary aggregates the dashboard and report figures.
type Summary struct {
	Total                 int                      `json:"total" yaml:"total"`
	Counts                map[tasks.Status]int     `json:"counts" yaml:"counts"`
	Percentages           map[tasks.Status]float64 `json:"percentages" yaml:"percentages"`
	CompletionRate        float64                  `json:"completion_rate" yaml:"completion_rate"`
	AverageCompletionTime float64                  `json:"average_completion_days" yaml:"average_completion_days"`
	AverageTimeToComplete float64                  `json:"average_time_to_complete_days" yaml:"average_time_to_complete_days"`
	Overdue               int                      `json:"overdue" yaml:"overdue"`
	Distribution          []Slice                  `json:"distribution" yaml:"distribution"`
}

// CountsByStatus counts tasks per status. Exactly the three valid statuses
// are present; tasks with any other status are not counted.
func CountsByStatus(snapshot []tasks.Task) map[tasks.Status]int {
	counts := make(map[tasks.Status]int, 3)
	for _, s := range tasks.Statuses() {
		counts[s] = 0
	}
	for _, t := range snapshot {
		if t.Status.Valid() {
			counts[t.Status]++
		}
	}
	return counts
}

// Percentages returns each status' share of the total. All zero when empty.
func Percentages(snapshot []tasks.Task) map[tasks.Status]float64 {
	counts := CountsByStatus(snapshot)
	pct := make(map[tasks.Status]float64, len(counts))
	for _, s := range tasks.Statuses() {
		pct[s] = percent(counts[s], len(snapshot))
	}
	return pct
}

// CompletionRate returns the percentage of completed tasks, 0 when empty.
func CompletionRate(snapshot []tasks.Task) float64 {
	return percent(CountsByStatus(snapshot)[tasks.StatusCompleted], len(snapshot))
}

// AverageCompletionTime returns the mean age in days of completed tasks,
// measured from CreatedAt to now. 0 when nothing is completed.
//
// This is the age of completed tasks, not the time it took to complete them;
// see AverageTimeToComplete for the latter.
func AverageCompletionTime(snapshot []tasks.Task, now time.Time) float64 {
	var total time.Duration
	n := 0
	for _, t := range snapshot {
		if t.Status != tasks.StatusCompleted {
			continue
		}
		total += now.Sub(t.CreatedAt)
		n++
	}
	return averageDays(total, n)
}

// AverageTimeToComplete returns the mean days from CreatedAt to CompletedAt
// over completed tasks that recorded a completion time.
func AverageTimeToComplete(snapshot []tasks.Task) float64 {
	var total time.Duration
	n := 0
	for _, t := range snapshot {
		if t.Status != tasks.StatusCompleted || t.CompletedAt == nil {
			continue
		}
		total += t.CompletedAt.Sub(t.CreatedAt)
		n++
	}
	return averageDays(total, n)
}

// IsOverdue reports whether the task has a due date before now and is not
// completed.
func IsOverdue(task tasks.Task, now time.Time) bool {
	return task.IsOverdue(now)
}

// OverdueCount counts overdue tasks.
func OverdueCount(snapshot []tasks.Task, now time.Time) int {
	n := 0
	for i := range snapshot {
		if snapshot[i].IsOverdue(now) {
			n++
		}
	}
	return n
}

// Distribution returns one chart slice per status in display order.
func Distribution(snapshot []tasks.Task) []Slice {
	counts := CountsByStatus(snapshot)
	slices := make([]Slice, 0, len(counts))
	for _, s := range tasks.Statuses() {
		slices = append(slices, Slice{
			Status:     s,
			Label:      s.Label(),
			Count:      counts[s],
			Percentage: percent(counts[s], len(snapshot)),
		})
	}
	return slices
}

// Summarize computes every statistic for snapshot.
func Summarize(snapshot []tasks.Task, now time.Time) Summary {
	return Summary{
		Total:                 len(snapshot),
		Counts:                CountsByStatus(snapshot),
		Percentages:           Percentages(snapshot),
		CompletionRate:        CompletionRate(snapshot),
		AverageCompletionTime: AverageCompletionTime(snapshot, now),
		AverageTimeToComplete: AverageTimeToComplete(snapshot),
		Overdue:               OverdueCount(snapshot, now),
		Distribution:          Distribution(snapshot),
	}
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(count) / float64(total) * 100)
}

func averageDays(total time.Duration, n int) float64 {
	if n == 0 {
		return 0
	}
	return round1(float64(total) / float64(n) / float64(day))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
