package engine

import (
	"slices"
	"strings"
	"time"
)

type TimeFrame string

const (
	TimeFrameAny   TimeFrame = ""
	TimeFrameToday TimeFrame = "today"
	TimeFrameWeek  TimeFrame = "week"
	TimeFrameMonth TimeFrame = "month"
)

type SortKey string

const (
	SortNone          SortKey = ""
	SortDueDate       SortKey = "dueDate"
	SortPriority      SortKey = "priority"
	SortEstimatedTime SortKey = "estimatedTime"
)

// All matches every category or priority.
const All = "all"

// Criteria narrows and orders the task list. SelectedDate takes precedence
// over TimeFrame. Dates are compared in the location of the reference time.
type Criteria struct {
	HideCompleted bool
	SelectedDate  *time.Time
	TimeFrame     TimeFrame
	Category      string
	Priority      string
	SortBy        SortKey
}

func ParseTimeFrame(value string) (TimeFrame, bool) {
	switch TimeFrame(strings.ToLower(strings.TrimSpace(value))) {
	case TimeFrameAny, TimeFrame(All):
		return TimeFrameAny, true
	case TimeFrameToday:
		return TimeFrameToday, true
	case TimeFrameWeek:
		return TimeFrameWeek, true
	case TimeFrameMonth:
		return TimeFrameMonth, true
	}
	return "", false
}

func ParseSortKey(value string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return SortNone, true
	case "duedate", "due":
		return SortDueDate, true
	case "priority":
		return SortPriority, true
	case "estimatedtime", "estimate":
		return SortEstimatedTime, true
	}
	return "", false
}

// Derive returns the tasks to display for c, relative to now. It never
// modifies tasks and returns the same order for the same inputs.
func Derive(tasks []Task, c Criteria, now time.Time) []Task {
	out := make([]Task, 0, len(tasks))
	keep := matcher(c, now)
	for _, task := range tasks {
		if keep(task) {
			out = append(out, task)
		}
	}

	if cmp := comparator(c.SortBy); cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

func matcher(c Criteria, now time.Time) func(Task) bool {
	loc := now.Location()

	var inDates func(time.Time) bool
	switch {
	case c.SelectedDate != nil:
		y, m, d := c.SelectedDate.Date()
		inDates = func(due time.Time) bool {
			dy, dm, dd := DueDay(due, loc).Date()
			return dy == y && dm == m && dd == d
		}
	case c.TimeFrame != TimeFrameAny:
		start, end := FrameBounds(c.TimeFrame, now)
		inDates = func(due time.Time) bool {
			day := DueDay(due, loc)
			return !day.Before(start) && day.Before(end)
		}
	}

	return func(task Task) bool {
		if c.HideCompleted && task.IsCompleted {
			return false
		}
		if inDates != nil && (task.DueDate == nil || !inDates(*task.DueDate)) {
			return false
		}
		if !matchesAll(c.Category) && task.Category != c.Category {
			return false
		}
		if !matchesAll(c.Priority) && !strings.EqualFold(string(task.Priority), c.Priority) {
			return false
		}
		return true
	}
}

// DueDay returns the calendar day of due as midnight in loc. A due date at
// exactly midnight UTC was sent without a time of day, so it keeps its UTC
// date in every zone.
func DueDay(due time.Time, loc *time.Location) time.Time {
	utc := due.UTC()
	if utc.Hour() == 0 && utc.Minute() == 0 && utc.Second() == 0 && utc.Nanosecond() == 0 {
		y, m, d := utc.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	y, m, d := due.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// FrameBounds returns the [start, end) window of frame around now. Weeks
// start on Monday.
func FrameBounds(frame TimeFrame, now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	switch frame {
	case TimeFrameToday:
		return today, today.AddDate(0, 0, 1)
	case TimeFrameWeek:
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case TimeFrameMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0)
	default:
		return time.Time{}, time.Time{}
	}
}

func comparator(key SortKey) func(a, b Task) int {
	switch key {
	case SortDueDate:
		// Tasks without a due date go last.
		return func(a, b Task) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			default:
				return a.DueDate.Compare(*b.DueDate)
			}
		}
	case SortPriority:
		return func(a, b Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		}
	case SortEstimatedTime:
		return func(a, b Task) int {
			return a.Estimate() - b.Estimate()
		}
	default:
		return nil
	}
}

func matchesAll(value string) bool {
	return value == "" || strings.EqualFold(value, All)
}
