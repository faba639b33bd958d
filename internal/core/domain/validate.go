package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const MaxTitleLength = 255

func (in CreateTaskInput) Validate() error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if _, ok := ParsePriority(string(in.Priority)); !ok {
		return invalid("priority", "must be one of high, medium, low")
	}
	if _, ok := ParseRepetition(string(in.Repetition)); !ok {
		return invalid("repetition", "is not a known repetition")
	}
	if in.EstimatedTime != nil && *in.EstimatedTime < 0 {
		return invalid("estimatedTime", "must not be negative")
	}
	if in.TimeSpent < 0 {
		return invalid("timeSpent", "must not be negative")
	}
	return nil
}

func (in UpdateTaskInput) Validate() error {
	if in.IsEmpty() {
		return invalid("body", "has no updatable field")
	}
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return err
		}
	}
	if in.Priority != nil {
		if _, ok := ParsePriority(string(*in.Priority)); !ok {
			return invalid("priority", "must be one of high, medium, low")
		}
	}
	if in.Repetition != nil {
		if _, ok := ParseRepetition(string(*in.Repetition)); !ok {
			return invalid("repetition", "is not a known repetition")
		}
	}
	if in.EstimatedTimeSet && in.EstimatedTime != nil && *in.EstimatedTime < 0 {
		return invalid("estimatedTime", "must not be negative")
	}
	if in.TimeSpent != nil && *in.TimeSpent < 0 {
		return invalid("timeSpent", "must not be negative")
	}
	return nil
}

// Normalize trims text fields, fills defaults and canonicalizes enumerations.
// Unknown enumeration values are kept as is so Validate can reject them.
func (in CreateTaskInput) Normalize() CreateTaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if in.Priority == "" {
		in.Priority = PriorityMedium
	} else if priority, ok := ParsePriority(string(in.Priority)); ok {
		in.Priority = priority
	}
	if in.Repetition == "" {
		in.Repetition = RepetitionOneTime
	} else if repetition, ok := ParseRepetition(string(in.Repetition)); ok {
		in.Repetition = repetition
	}
	in.DueDate = utc(in.DueDate)
	return in
}

func (in UpdateTaskInput) Normalize() UpdateTaskInput {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		in.Category = &category
	}
	if in.Priority != nil {
		if priority, ok := ParsePriority(string(*in.Priority)); ok {
			in.Priority = &priority
		}
	}
	if in.Repetition != nil {
		if repetition, ok := ParseRepetition(string(*in.Repetition)); ok {
			in.Repetition = &repetition
		}
	}
	in.DueDate = utc(in.DueDate)
	return in
}

func ValidateTimeSpent(minutes int) error {
	if minutes < 0 {
		return invalid("timeSpent", "must not be negative")
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return invalid("title", "is too long")
	}
	return nil
}

func utc(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := value.UTC()
	return &v
}
