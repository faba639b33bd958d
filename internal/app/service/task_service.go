package service

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/AmimerNabil/achieveai/internal/core/domain"
	"github.com/AmimerNabil/achieveai/internal/core/ports"
)

type TaskService struct {
	taskRepository ports.TaskRepository
	clock          clockwork.Clock
}

func NewTaskService(taskRepository ports.TaskRepository, clock clockwork.Clock) *TaskService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TaskService{taskRepository: taskRepository, clock: clock}
}

func (s *TaskService) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	if owner == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.taskRepository.ListTasks(ctx, owner)
}

func (s *TaskService) GetTask(ctx context.Context, owner, id string) (domain.Task, error) {
	if owner == "" {
		return domain.Task{}, domain.ErrUnauthorized
	}
	return s.taskRepository.GetTask(ctx, owner, id)
}

func (s *TaskService) CreateTask(ctx context.Context, owner string, input domain.CreateTaskInput) (domain.Task, error) {
	if owner == "" {
		return domain.Task{}, domain.ErrUnauthorized
	}
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return domain.Task{}, err
	}

	now := s.clock.Now().UTC()
	return s.taskRepository.CreateTask(ctx, domain.Task{
		Owner:         owner,
		Title:         input.Title,
		Description:   input.Description,
		Priority:      input.Priority,
		DueDate:       input.DueDate,
		Category:      input.Category,
		Repetition:    input.Repetition,
		EstimatedTime: input.EstimatedTime,
		IsCompleted:   input.IsCompleted,
		TimeSpent:     input.TimeSpent,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (s *TaskService) UpdateTask(ctx context.Context, owner, id string, input domain.UpdateTaskInput) (domain.Task, error) {
	if owner == "" {
		return domain.Task{}, domain.ErrUnauthorized
	}
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return domain.Task{}, err
	}
	return s.taskRepository.UpdateTask(ctx, owner, id, input, s.clock.Now().UTC())
}

func (s *TaskService) UpdateTimeSpent(ctx context.Context, owner, id string, minutes int) (domain.Task, error) {
	if owner == "" {
		return domain.Task{}, domain.ErrUnauthorized
	}
	if err := domain.ValidateTimeSpent(minutes); err != nil {
		return domain.Task{}, err
	}
	return s.taskRepository.UpdateTimeSpent(ctx, owner, id, minutes, s.clock.Now().UTC())
}

func (s *TaskService) DeleteTask(ctx context.Context, owner, id string) error {
	if owner == "" {
		return domain.ErrUnauthorized
	}
	return s.taskRepository.DeleteTask(ctx, owner, id)
}

var _ ports.TaskService = (*TaskService)(nil)
