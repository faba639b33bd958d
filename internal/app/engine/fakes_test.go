package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AmimerNabil/achieveai/internal/app/engine"
	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

var errOffline = errors.New("offline")

// fakeGateway is an in-memory Task Service that records every call.
type fakeGateway struct {
	mu     sync.Mutex
	tasks  []domain.Task
	calls  []string
	fail   bool
	nextID int
}

func newFakeGateway(tasks ...domain.Task) *fakeGateway {
	return &fakeGateway{tasks: tasks}
}

func (g *fakeGateway) record(call string) error {
	g.calls = append(g.calls, call)
	if g.fail {
		return errOffline
	}
	return nil
}

func (g *fakeGateway) setFail(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = fail
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) find(id string) (int, error) {
	for i, task := range g.tasks {
		if task.ID == id {
			return i, nil
		}
	}
	return -1, domain.ErrTaskNotFound
}

// completeElsewhere marks a task completed as another client would.
func (g *fakeGateway) completeElsewhere(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i, err := g.find(id); err == nil {
		g.tasks[i].IsCompleted = true
	}
}

func (g *fakeGateway) Stored(id string) domain.Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, err := g.find(id)
	if err != nil {
		return domain.Task{}
	}
	return g.tasks[i]
}

func (g *fakeGateway) ListTasks(context.Context) ([]domain.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("list"); err != nil {
		return nil, err
	}
	return append([]domain.Task(nil), g.tasks...), nil
}

func (g *fakeGateway) CreateTask(_ context.Context, input domain.CreateTaskInput) (domain.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("create"); err != nil {
		return domain.Task{}, err
	}
	g.nextID++
	task := domain.Task{
		ID:            fmt.Sprintf("new-%d", g.nextID),
		Owner:         "alice",
		Title:         input.Title,
		Description:   input.Description,
		Priority:      input.Priority,
		DueDate:       input.DueDate,
		Category:      input.Category,
		Repetition:    input.Repetition,
		EstimatedTime: input.EstimatedTime,
		IsCompleted:   input.IsCompleted,
		TimeSpent:     input.TimeSpent,
	}
	g.tasks = append(g.tasks, task)
	return task, nil
}

func (g *fakeGateway) UpdateTask(_ context.Context, id string, input domain.UpdateTaskInput) (domain.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("update " + id); err != nil {
		return domain.Task{}, err
	}
	i, err := g.find(id)
	if err != nil {
		return domain.Task{}, err
	}
	input.Apply(&g.tasks[i])
	return g.tasks[i], nil
}

func (g *fakeGateway) UpdateTimeSpent(_ context.Context, id string, minutes int) (domain.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(fmt.Sprintf("time %s %d", id, minutes)); err != nil {
		return domain.Task{}, err
	}
	i, err := g.find(id)
	if err != nil {
		return domain.Task{}, err
	}
	g.tasks[i].TimeSpent = minutes
	return g.tasks[i], nil
}

func (g *fakeGateway) DeleteTask(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("delete " + id); err != nil {
		return err
	}
	i, err := g.find(id)
	if err != nil {
		return err
	}
	g.tasks = append(g.tasks[:i], g.tasks[i+1:]...)
	return nil
}

// manualDispatcher holds remote calls until the test resolves them.
type manualDispatcher struct {
	pending []pendingCall
}

type pendingCall struct {
	call  func(ctx context.Context) (domain.Task, error)
	apply func(domain.Task, error)
}

func (d *manualDispatcher) Dispatch(call func(ctx context.Context) (domain.Task, error), apply func(domain.Task, error)) {
	d.pending = append(d.pending, pendingCall{call: call, apply: apply})
}

func (d *manualDispatcher) resolve(i int) {
	p := d.pending[i]
	p.apply(p.call(context.Background()))
}

type recordingNotifier struct {
	mu      sync.Mutex
	expired []string
	failed  []string
}

func (n *recordingNotifier) TimerExpired(task engine.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired = append(n.expired, task.ID)
}

func (n *recordingNotifier) SyncFailed(op string, taskID string, _ error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, op+" "+taskID)
}

func intPtr(v int) *int {
	return &v
}

func datePtr(year int, month time.Month, day int) *time.Time {
	v := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &v
}
