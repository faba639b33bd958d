package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/AmimerNabil/achieveai/internal/adapter/http/dto"
	"github.com/AmimerNabil/achieveai/internal/adapter/http/mapper"
	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

var ErrInvalidTaskPayload = errors.New("invalid task payload")

func BuildCreateTaskInput(req dto.CreateTaskRequest, raw map[string]json.RawMessage) (domain.CreateTaskInput, error) {
	for _, field := range []string{"priority", "repetition", "isCompleted", "timeSpent"} {
		if hasJSONField(raw, field) && isJSONNull(raw[field]) {
			return domain.CreateTaskInput{}, ErrInvalidTaskPayload
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.CreateTaskInput{}, ErrInvalidTaskPayload
	}

	priority := domain.PriorityMedium
	if req.Priority != nil {
		value, ok := domain.ParsePriority(*req.Priority)
		if !ok {
			return domain.CreateTaskInput{}, ErrInvalidTaskPayload
		}
		priority = value
	}

	repetition := domain.RepetitionOneTime
	if req.Repetition != nil {
		value, ok := domain.ParseRepetition(*req.Repetition)
		if !ok {
			return domain.CreateTaskInput{}, ErrInvalidTaskPayload
		}
		repetition = value
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		parsedDueDate, err := mapper.ParseDueDate(*req.DueDate)
		if err != nil {
			return domain.CreateTaskInput{}, ErrInvalidTaskPayload
		}
		dueDate = &parsedDueDate
	}

	input := domain.CreateTaskInput{
		Title:         title,
		Description:   req.Description,
		Priority:      priority,
		DueDate:       dueDate,
		Repetition:    repetition,
		EstimatedTime: req.EstimatedTime,
	}
	if req.Category != nil {
		input.Category = strings.TrimSpace(*req.Category)
	}
	if req.IsCompleted != nil {
		input.IsCompleted = *req.IsCompleted
	}
	if req.TimeSpent != nil {
		input.TimeSpent = *req.TimeSpent
	}
	return input, nil
}

func BuildUpdateTaskInput(req dto.UpdateTaskRequest, raw map[string]json.RawMessage) (domain.UpdateTaskInput, error) {
	if !hasTaskUpdateFields(raw) {
		return domain.UpdateTaskInput{}, ErrInvalidTaskPayload
	}

	// These fields are not nullable.
	for _, field := range []string{"title", "priority", "repetition", "isCompleted", "timeSpent"} {
		if hasJSONField(raw, field) && isJSONNull(raw[field]) {
			return domain.UpdateTaskInput{}, ErrInvalidTaskPayload
		}
	}

	var input domain.UpdateTaskInput

	if req.Title != nil {
		value := strings.TrimSpace(*req.Title)
		if value == "" {
			return domain.UpdateTaskInput{}, ErrInvalidTaskPayload
		}
		input.Title = &value
	}

	if req.Priority != nil {
		value, ok := domain.ParsePriority(*req.Priority)
		if !ok {
			return domain.UpdateTaskInput{}, ErrInvalidTaskPayload
		}
		input.Priority = &value
	}

	if req.Repetition != nil {
		value, ok := domain.ParseRepetition(*req.Repetition)
		if !ok {
			return domain.UpdateTaskInput{}, ErrInvalidTaskPayload
		}
		input.Repetition = &value
	}

	input.DescriptionSet = hasJSONField(raw, "description")
	input.Description = req.Description

	input.DueDateSet = hasJSONField(raw, "dueDate")
	if input.DueDateSet && !isJSONNull(raw["dueDate"]) {
		if req.DueDate == nil {
			return domain.UpdateTaskInput{}, ErrInvalidTaskPayload
		}
		parsedDueDate, err := mapper.ParseDueDate(*req.DueDate)
		if err != nil {
			return domain.UpdateTaskInput{}, ErrInvalidTaskPayload
		}
		input.DueDate = &parsedDueDate
	}

	if hasJSONField(raw, "category") {
		category := ""
		if req.Category != nil {
			category = strings.TrimSpace(*req.Category)
		}
		input.Category = &category
	}

	input.EstimatedTimeSet = hasJSONField(raw, "estimatedTime")
	input.EstimatedTime = req.EstimatedTime

	input.IsCompleted = req.IsCompleted
	input.TimeSpent = req.TimeSpent

	return input, nil
}

func hasTaskUpdateFields(raw map[string]json.RawMessage) bool {
	return hasJSONField(raw, "title") ||
		hasJSONField(raw, "description") ||
		hasJSONField(raw, "priority") ||
		hasJSONField(raw, "dueDate") ||
		hasJSONField(raw, "category") ||
		hasJSONField(raw, "repetition") ||
		hasJSONField(raw, "estimatedTime") ||
		hasJSONField(raw, "isCompleted") ||
		hasJSONField(raw, "timeSpent")
}

func hasJSONField(raw map[string]json.RawMessage, field string) bool {
	_, ok := raw[field]
	return ok
}

func isJSONNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}
