package domain

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities for sorting: high < medium < low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

func ParsePriority(value string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(value))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	}
	return "", false
}

type Repetition string

const (
	RepetitionNone    Repetition = "none"
	RepetitionOneTime Repetition = "one-time"
	RepetitionDaily   Repetition = "daily"
	RepetitionWeekly  Repetition = "weekly"
	RepetitionMonthly Repetition = "monthly"
	RepetitionWeekday Repetition = "weekday"
)

// ParseRepetition canonicalizes a repetition value. Legacy capitalized values
// ("None", "Daily", "Weekly") map onto the lower-case set.
func ParseRepetition(value string) (Repetition, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none":
		return RepetitionNone, true
	case "one-time", "onetime", "once":
		return RepetitionOneTime, true
	case "daily":
		return RepetitionDaily, true
	case "weekly":
		return RepetitionWeekly, true
	case "monthly":
		return RepetitionMonthly, true
	case "weekday":
		return RepetitionWeekday, true
	}
	return "", false
}

type Task struct {
	ID            string
	Owner         string
	Title         string
	Description   *string
	Priority      Priority
	DueDate       *time.Time
	Category      string
	Repetition    Repetition
	EstimatedTime *int
	IsCompleted   bool
	TimeSpent     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Estimate returns the planned minutes, treating a missing estimate as zero.
func (t Task) Estimate() int {
	if t.EstimatedTime == nil {
		return 0
	}
	return *t.EstimatedTime
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	t.Description = cloneString(t.Description)
	t.DueDate = cloneTime(t.DueDate)
	t.EstimatedTime = cloneInt(t.EstimatedTime)
	return t
}

type CreateTaskInput struct {
	Title         string
	Description   *string
	Priority      Priority
	DueDate       *time.Time
	Category      string
	Repetition    Repetition
	EstimatedTime *int
	IsCompleted   bool
	TimeSpent     int
}

// UpdateTaskInput is a partial update. Pointer fields are applied when non-nil;
// the *Set flags allow clearing nullable fields.
type UpdateTaskInput struct {
	Title            *string
	Description      *string
	DescriptionSet   bool
	Priority         *Priority
	DueDate          *time.Time
	DueDateSet       bool
	Category         *string
	Repetition       *Repetition
	EstimatedTime    *int
	EstimatedTimeSet bool
	IsCompleted      *bool
	TimeSpent        *int
}

func (in UpdateTaskInput) IsEmpty() bool {
	return in.Title == nil &&
		!in.DescriptionSet &&
		in.Priority == nil &&
		!in.DueDateSet &&
		in.Category == nil &&
		in.Repetition == nil &&
		!in.EstimatedTimeSet &&
		in.IsCompleted == nil &&
		in.TimeSpent == nil
}

// Apply copies the set fields onto task.
func (in UpdateTaskInput) Apply(task *Task) {
	if in.Title != nil {
		task.Title = *in.Title
	}
	if in.DescriptionSet {
		task.Description = cloneString(in.Description)
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.DueDateSet {
		task.DueDate = cloneTime(in.DueDate)
	}
	if in.Category != nil {
		task.Category = *in.Category
	}
	if in.Repetition != nil {
		task.Repetition = *in.Repetition
	}
	if in.EstimatedTimeSet {
		task.EstimatedTime = cloneInt(in.EstimatedTime)
	}
	if in.IsCompleted != nil {
		task.IsCompleted = *in.IsCompleted
	}
	if in.TimeSpent != nil {
		task.TimeSpent = *in.TimeSpent
	}
}

// Identity is the verified caller. Subject is stable and is used as task owner.
type Identity struct {
	Subject string
	Email   string
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
