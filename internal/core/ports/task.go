package ports

import (
	"context"
	"time"

	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

// TaskRepository is owner scoped: every call names the owner explicitly and
// never sees another owner's documents.
type TaskRepository interface {
	ListTasks(ctx context.Context, owner string) ([]domain.Task, error)
	GetTask(ctx context.Context, owner, id string) (domain.Task, error)
	CreateTask(ctx context.Context, task domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, owner, id string, input domain.UpdateTaskInput, updatedAt time.Time) (domain.Task, error)
	UpdateTimeSpent(ctx context.Context, owner, id string, minutes int, updatedAt time.Time) (domain.Task, error)
	DeleteTask(ctx context.Context, owner, id string) error
}

type TaskService interface {
	ListTasks(ctx context.Context, owner string) ([]domain.Task, error)
	GetTask(ctx context.Context, owner, id string) (domain.Task, error)
	CreateTask(ctx context.Context, owner string, input domain.CreateTaskInput) (domain.Task, error)
	UpdateTask(ctx context.Context, owner, id string, input domain.UpdateTaskInput) (domain.Task, error)
	UpdateTimeSpent(ctx context.Context, owner, id string, minutes int) (domain.Task, error)
	DeleteTask(ctx context.Context, owner, id string) error
}

type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}
