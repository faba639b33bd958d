package mapper

import (
	"time"

	"github.com/AmimerNabil/achieveai/internal/adapter/http/dto"
	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

func ToTaskItems(tasks []domain.Task) []dto.TaskItem {
	items := make([]dto.TaskItem, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, ToTaskItem(task))
	}
	return items
}

func ToTaskItem(task domain.Task) dto.TaskItem {
	item := dto.TaskItem{
		ID:          task.ID,
		Owner:       task.Owner,
		Title:       task.Title,
		Priority:    string(task.Priority),
		Category:    task.Category,
		Repetition:  string(task.Repetition),
		IsCompleted: task.IsCompleted,
		TimeSpent:   task.TimeSpent,
		CreatedAt:   task.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if task.Description != nil {
		value := *task.Description
		item.Description = &value
	}

	if task.DueDate != nil {
		value := task.DueDate.UTC().Format(time.RFC3339)
		item.DueDate = &value
	}

	if task.EstimatedTime != nil {
		value := *task.EstimatedTime
		item.EstimatedTime = &value
	}

	return item
}

// FromTaskItem is the reverse mapping used by API clients.
func FromTaskItem(item dto.TaskItem) (domain.Task, error) {
	task := domain.Task{
		ID:          item.ID,
		Owner:       item.Owner,
		Title:       item.Title,
		Priority:    domain.Priority(item.Priority),
		Category:    item.Category,
		Repetition:  domain.Repetition(item.Repetition),
		IsCompleted: item.IsCompleted,
		TimeSpent:   item.TimeSpent,
	}

	if priority, ok := domain.ParsePriority(item.Priority); ok {
		task.Priority = priority
	}
	if repetition, ok := domain.ParseRepetition(item.Repetition); ok {
		task.Repetition = repetition
	}

	if item.Description != nil {
		value := *item.Description
		task.Description = &value
	}

	if item.DueDate != nil {
		dueDate, err := ParseDueDate(*item.DueDate)
		if err != nil {
			return domain.Task{}, err
		}
		task.DueDate = &dueDate
	}

	if item.EstimatedTime != nil {
		value := *item.EstimatedTime
		task.EstimatedTime = &value
	}

	var err error
	if item.CreatedAt != "" {
		if task.CreatedAt, err = time.Parse(time.RFC3339, item.CreatedAt); err != nil {
			return domain.Task{}, err
		}
	}
	if item.UpdatedAt != "" {
		if task.UpdatedAt, err = time.Parse(time.RFC3339, item.UpdatedAt); err != nil {
			return domain.Task{}, err
		}
	}

	return task, nil
}

// ParseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC midnight).
func ParseDueDate(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}
