package engine

import (
	"context"
	"sync"
	"time"

	"github.com/AmimerNabil/achieveai/internal/core/domain"
	"github.com/AmimerNabil/achieveai/internal/core/ports"
)

// Gateway is the remote Task Service as seen by one signed-in user.
type Gateway interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, input domain.CreateTaskInput) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, input domain.UpdateTaskInput) (domain.Task, error)
	UpdateTimeSpent(ctx context.Context, id string, minutes int) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// DeadlineStore persists the absolute end time of every running timer so a
// countdown survives a restart of the client.
type DeadlineStore interface {
	SaveDeadline(ctx context.Context, owner, taskID string, deadline time.Time) error
	DeleteDeadline(ctx context.Context, owner, taskID string) error
	ListDeadlines(ctx context.Context, owner string) (map[string]time.Time, error)
}

// Notifier surfaces engine events to the user.
type Notifier interface {
	// TimerExpired fires once when a running countdown reaches zero.
	TimerExpired(task Task)
	// SyncFailed reports a remote call that failed. Local state is kept.
	SyncFailed(op string, taskID string, err error)
}

// Dispatcher runs a remote call and hands its result to apply on the
// engine's thread.
type Dispatcher interface {
	Dispatch(call func(ctx context.Context) (domain.Task, error), apply func(domain.Task, error))
}

type inlineDispatcher struct {
	ctx context.Context
}

// InlineDispatcher runs calls synchronously on the caller's goroutine. Used by
// one-shot clients that do not run a Loop.
func InlineDispatcher(ctx context.Context) Dispatcher {
	return inlineDispatcher{ctx: ctx}
}

func (d inlineDispatcher) Dispatch(call func(ctx context.Context) (domain.Task, error), apply func(domain.Task, error)) {
	apply(call(d.ctx))
}

type nopNotifier struct{}

func (nopNotifier) TimerExpired(Task)               {}
func (nopNotifier) SyncFailed(string, string, error) {}

// MemoryDeadlines keeps deadlines in process memory.
type MemoryDeadlines struct {
	mu        sync.Mutex
	deadlines map[string]map[string]time.Time
}

var _ DeadlineStore = (*MemoryDeadlines)(nil)

func NewMemoryDeadlines() *MemoryDeadlines {
	return &MemoryDeadlines{deadlines: map[string]map[string]time.Time{}}
}

func (m *MemoryDeadlines) SaveDeadline(_ context.Context, owner, taskID string, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deadlines[owner] == nil {
		m.deadlines[owner] = map[string]time.Time{}
	}
	m.deadlines[owner][taskID] = deadline
	return nil
}

func (m *MemoryDeadlines) DeleteDeadline(_ context.Context, owner, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.deadlines[owner], taskID)
	return nil
}

func (m *MemoryDeadlines) ListDeadlines(_ context.Context, owner string) (map[string]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]time.Time, len(m.deadlines[owner]))
	for id, deadline := range m.deadlines[owner] {
		out[id] = deadline
	}
	return out, nil
}

type serviceGateway struct {
	service ports.TaskService
	owner   string
}

// NewServiceGateway binds an in-process TaskService to one owner.
func NewServiceGateway(service ports.TaskService, owner string) Gateway {
	return serviceGateway{service: service, owner: owner}
}

func (g serviceGateway) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return g.service.ListTasks(ctx, g.owner)
}

func (g serviceGateway) CreateTask(ctx context.Context, input domain.CreateTaskInput) (domain.Task, error) {
	return g.service.CreateTask(ctx, g.owner, input)
}

func (g serviceGateway) UpdateTask(ctx context.Context, id string, input domain.UpdateTaskInput) (domain.Task, error) {
	return g.service.UpdateTask(ctx, g.owner, id, input)
}

func (g serviceGateway) UpdateTimeSpent(ctx context.Context, id string, minutes int) (domain.Task, error) {
	return g.service.UpdateTimeSpent(ctx, g.owner, id, minutes)
}

func (g serviceGateway) DeleteTask(ctx context.Context, id string) error {
	return g.service.DeleteTask(ctx, g.owner, id)
}
