package taskclient

import (
	"time"

	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

// createBody omits unset fields; the server rejects null for the ones with
// defaults.
func createBody(input domain.CreateTaskInput) map[string]any {
	body := map[string]any{"title": input.Title}
	if input.Description != nil {
		body["description"] = *input.Description
	}
	if input.Priority != "" {
		body["priority"] = string(input.Priority)
	}
	if input.DueDate != nil {
		body["dueDate"] = formatTime(*input.DueDate)
	}
	if input.Category != "" {
		body["category"] = input.Category
	}
	if input.Repetition != "" {
		body["repetition"] = string(input.Repetition)
	}
	if input.EstimatedTime != nil {
		body["estimatedTime"] = *input.EstimatedTime
	}
	if input.IsCompleted {
		body["isCompleted"] = true
	}
	if input.TimeSpent > 0 {
		body["timeSpent"] = input.TimeSpent
	}
	return body
}

// updateBody sends only the fields set on input. Cleared nullable fields are
// sent as JSON null.
func updateBody(input domain.UpdateTaskInput) map[string]any {
	body := map[string]any{}
	if input.Title != nil {
		body["title"] = *input.Title
	}
	if input.DescriptionSet {
		body["description"] = input.Description
	}
	if input.Priority != nil {
		body["priority"] = string(*input.Priority)
	}
	if input.DueDateSet {
		if input.DueDate == nil {
			body["dueDate"] = nil
		} else {
			body["dueDate"] = formatTime(*input.DueDate)
		}
	}
	if input.Category != nil {
		body["category"] = *input.Category
	}
	if input.Repetition != nil {
		body["repetition"] = string(*input.Repetition)
	}
	if input.EstimatedTimeSet {
		body["estimatedTime"] = input.EstimatedTime
	}
	if input.IsCompleted != nil {
		body["isCompleted"] = *input.IsCompleted
	}
	if input.TimeSpent != nil {
		body["timeSpent"] = *input.TimeSpent
	}
	return body
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
