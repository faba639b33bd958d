package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTask       = errors.New("invalid task")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid timer transition")
	ErrUnknownTask       = errors.New("unknown task")
)

// ValidationError reports the offending field. It matches ErrInvalidTask with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid task: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTask
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
