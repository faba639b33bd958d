package engine

import (
	"math"
	"slices"
	"time"
)

type Summary struct {
	Total     int
	Completed int
	// HoursSpent is the total time spent, rounded to one decimal.
	HoursSpent float64
	// Productivity is the share of completed tasks, in whole percent.
	Productivity int
}

func Summarize(tasks []Task) Summary {
	var (
		summary Summary
		minutes int
	)
	for _, task := range tasks {
		summary.Total++
		if task.IsCompleted {
			summary.Completed++
		}
		minutes += task.TimeSpent
	}

	summary.HoursSpent = math.Round(float64(minutes)/60*10) / 10
	if summary.Total > 0 {
		summary.Productivity = int(math.Round(float64(summary.Completed) * 100 / float64(summary.Total)))
	}
	return summary
}

// CalendarMarks returns the distinct due dates, as midnight in loc, in
// ascending order.
func CalendarMarks(tasks []Task, loc *time.Location) []time.Time {
	seen := map[time.Time]bool{}
	marks := []time.Time{}
	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}
		day := DueDay(*task.DueDate, loc)
		if !seen[day] {
			seen[day] = true
			marks = append(marks, day)
		}
	}
	slices.SortFunc(marks, func(a, b time.Time) int { return a.Compare(b) })
	return marks
}

func (e *Engine) Summary() Summary {
	return Summarize(e.Tasks())
}
