package engine

import (
	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

// State is the timer/completion status of a task. Exactly one applies at a time.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Task is a stored task plus the client-side timer flag.
type Task struct {
	domain.Task
	IsTimerRunning bool
}

// Session identifies the user the engine acts for.
type Session struct {
	Owner string
}

// restingState is the state of a task whose timer is not running.
func restingState(task domain.Task) State {
	switch {
	case task.IsCompleted:
		return StateCompleted
	case task.TimeSpent > 0:
		return StatePaused
	default:
		return StateIdle
	}
}
