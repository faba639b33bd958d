package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

// Remote operations, as reported to Notifier.SyncFailed.
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpUpdateTime = "updateTime"
	OpDelete     = "delete"
)

type Options struct {
	Clock      clockwork.Clock
	Deadlines  DeadlineStore
	Notifier   Notifier
	Dispatcher Dispatcher
	Logger     *zap.Logger
}

type entry struct {
	task    Task
	state   State
	version uint64

	deadline time.Time
	expired  bool
	// reported is the last timeSpent sent to the gateway.
	reported int
}

// Engine holds the signed-in user's task list and drives the timer state
// machine. It is not safe for concurrent use: every call, including Tick and
// the results handed back by the Dispatcher, must happen on one goroutine.
type Engine struct {
	session    Session
	gateway    Gateway
	clock      clockwork.Clock
	deadlines  DeadlineStore
	notifier   Notifier
	dispatcher Dispatcher
	logger     *zap.Logger

	order   []string
	entries map[string]*entry
	seq     uint64
}

func New(session Session, gateway Gateway, opts Options) (*Engine, error) {
	if session.Owner == "" {
		return nil, domain.ErrUnauthorized
	}
	if gateway == nil {
		return nil, errors.New("engine: gateway is required")
	}

	e := &Engine{
		session:    session,
		gateway:    gateway,
		clock:      opts.Clock,
		deadlines:  opts.Deadlines,
		notifier:   opts.Notifier,
		dispatcher: opts.Dispatcher,
		logger:     opts.Logger,
		entries:    map[string]*entry{},
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	if e.deadlines == nil {
		e.deadlines = NewMemoryDeadlines()
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.dispatcher == nil {
		e.dispatcher = InlineDispatcher(context.Background())
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.logger = e.logger.With(zap.String("owner", session.Owner))
	return e, nil
}

func (e *Engine) Session() Session {
	return e.session
}

// Load replaces the local list with the remote one and restores running
// timers from their persisted deadlines. Results of calls still in flight
// from before the reload are discarded.
func (e *Engine) Load(ctx context.Context) error {
	tasks, err := e.gateway.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	deadlines, err := e.deadlines.ListDeadlines(ctx, e.session.Owner)
	if err != nil {
		e.logger.Warn("could not read timer deadlines", zap.Error(err))
		deadlines = nil
	}

	e.order = make([]string, 0, len(tasks))
	e.entries = make(map[string]*entry, len(tasks))
	for _, task := range tasks {
		en := &entry{
			task:     Task{Task: task},
			state:    restingState(task),
			version:  e.nextVersion(),
			reported: task.TimeSpent,
		}
		if deadline, ok := deadlines[task.ID]; ok {
			delete(deadlines, task.ID)
			if task.IsCompleted {
				e.forgetDeadline(task.ID)
			} else {
				en.deadline = deadline
				en.state = StateRunning
				en.task.IsTimerRunning = true
			}
		}
		e.order = append(e.order, task.ID)
		e.entries[task.ID] = en
	}

	for id := range deadlines {
		e.logger.Debug("dropping deadline of unknown task", zap.String("task_id", id))
		e.forgetDeadline(id)
	}

	// Time that passed while no client was running is counted now.
	e.Tick()
	return nil
}

// Tasks returns the local list in display order.
func (e *Engine) Tasks() []Task {
	out := make([]Task, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.snapshot(e.entries[id]))
	}
	return out
}

func (e *Engine) Task(id string) (Task, error) {
	en, err := e.lookup(id)
	if err != nil {
		return Task{}, err
	}
	return e.snapshot(en), nil
}

func (e *Engine) State(id string) (State, error) {
	en, err := e.lookup(id)
	if err != nil {
		return StateIdle, err
	}
	return en.state, nil
}

// Remaining is the countdown shown for a task: time to the deadline while
// running, otherwise the unspent part of the estimate.
func (e *Engine) Remaining(id string) (time.Duration, error) {
	en, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	return e.remaining(en, e.clock.Now()), nil
}

// View applies the filter and sort pipeline to the current list.
func (e *Engine) View(criteria Criteria) []Task {
	return Derive(e.Tasks(), criteria, e.clock.Now())
}

func (e *Engine) Start(id string) error {
	en, err := e.lookup(id)
	if err != nil {
		return err
	}
	if en.state != StateIdle && en.state != StatePaused {
		return transitionError("start", en.state)
	}

	e.arm(en, e.clock.Now())
	e.touch(en)
	return nil
}

func (e *Engine) Pause(id string) error {
	en, err := e.lookup(id)
	if err != nil {
		return err
	}
	if en.state != StateRunning {
		return transitionError("pause", en.state)
	}

	e.halt(en, e.clock.Now())
	en.state = StatePaused
	e.touch(en)
	e.syncTime(en)
	return nil
}

// Restart resets time spent and counts down the full estimate again. A running
// timer may be restarted without pausing it first.
func (e *Engine) Restart(id string) error {
	en, err := e.lookup(id)
	if err != nil {
		return err
	}
	if en.state != StatePaused && en.state != StateRunning {
		return transitionError("restart", en.state)
	}

	en.task.TimeSpent = 0
	e.arm(en, e.clock.Now())
	e.touch(en)
	e.syncTime(en)
	return nil
}

func (e *Engine) Stop(id string) error {
	en, err := e.lookup(id)
	if err != nil {
		return err
	}
	if en.state != StatePaused {
		return transitionError("stop", en.state)
	}

	en.task.TimeSpent = 0
	en.state = StateIdle
	e.forgetDeadline(id)
	e.touch(en)
	e.syncTime(en)
	return nil
}

// ToggleComplete flips completion. Completing a running task freezes its
// accumulated time and stops the timer.
func (e *Engine) ToggleComplete(id string) error {
	en, err := e.lookup(id)
	if err != nil {
		return err
	}

	var input domain.UpdateTaskInput
	if en.state == StateCompleted {
		en.task.IsCompleted = false
		en.state = restingState(en.task.Task)
	} else {
		if en.state == StateRunning {
			e.halt(en, e.clock.Now())
			spent := en.task.TimeSpent
			input.TimeSpent = &spent
			en.reported = spent
		}
		en.task.IsCompleted = true
		en.state = StateCompleted
	}
	completed := en.task.IsCompleted
	input.IsCompleted = &completed

	e.touch(en)
	e.sync(en, OpUpdate, func(ctx context.Context) (domain.Task, error) {
		return e.gateway.UpdateTask(ctx, id, input)
	})
	return nil
}

// Tick advances every running timer. It persists time spent at most once per
// minute of change and raises the expiry signal once per countdown.
func (e *Engine) Tick() {
	now := e.clock.Now()
	for _, id := range slices.Clone(e.order) {
		en, ok := e.entries[id]
		if !ok || en.state != StateRunning {
			continue
		}

		left := e.catchUp(en, now)
		if en.task.TimeSpent != en.reported {
			e.touch(en)
			e.syncTime(en)
		}
		if left == 0 && !en.expired && en.state == StateRunning {
			en.expired = true
			e.forgetDeadline(id)
			e.notifier.TimerExpired(e.snapshot(en))
		}
	}
}

// Create validates input locally and adds the task once the gateway has
// assigned it an id.
func (e *Engine) Create(input domain.CreateTaskInput) error {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}

	e.dispatcher.Dispatch(
		func(ctx context.Context) (domain.Task, error) {
			return e.gateway.CreateTask(ctx, input)
		},
		func(created domain.Task, err error) {
			if err != nil {
				e.syncFailed(OpCreate, "", err)
				return
			}
			if _, exists := e.entries[created.ID]; exists {
				return
			}
			e.entries[created.ID] = &entry{
				task:     Task{Task: created},
				state:    restingState(created),
				version:  e.nextVersion(),
				reported: created.TimeSpent,
			}
			e.order = append([]string{created.ID}, e.order...)
		},
	)
	return nil
}

// Update applies a partial edit locally and sends it to the gateway.
func (e *Engine) Update(id string, input domain.UpdateTaskInput) error {
	en, err := e.lookup(id)
	if err != nil {
		return err
	}
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}

	now := e.clock.Now()
	wasRunning := en.state == StateRunning
	if wasRunning {
		e.catchUp(en, now)
	}
	input.Apply(&en.task.Task)

	switch {
	case en.task.IsCompleted:
		if wasRunning {
			e.clearTimer(en)
			if input.TimeSpent == nil {
				spent := en.task.TimeSpent
				input.TimeSpent = &spent
			}
		}
		en.state = StateCompleted
	case wasRunning:
		if input.TimeSpent != nil || input.EstimatedTimeSet {
			e.arm(en, now)
		}
	case en.state == StateCompleted || input.TimeSpent != nil:
		en.state = restingState(en.task.Task)
	}
	if input.TimeSpent != nil {
		en.reported = *input.TimeSpent
	}

	e.touch(en)
	e.sync(en, OpUpdate, func(ctx context.Context) (domain.Task, error) {
		return e.gateway.UpdateTask(ctx, id, input)
	})
	return nil
}

// Delete removes the task once the gateway confirms it.
func (e *Engine) Delete(id string) error {
	if _, err := e.lookup(id); err != nil {
		return err
	}

	e.dispatcher.Dispatch(
		func(ctx context.Context) (domain.Task, error) {
			return domain.Task{}, e.gateway.DeleteTask(ctx, id)
		},
		func(_ domain.Task, err error) {
			if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
				e.syncFailed(OpDelete, id, err)
				return
			}
			e.remove(id)
		},
	)
	return nil
}

func (e *Engine) lookup(id string) (*entry, error) {
	en, ok := e.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTask, id)
	}
	return en, nil
}

func (e *Engine) snapshot(en *entry) Task {
	return Task{Task: en.task.Task.Clone(), IsTimerRunning: en.task.IsTimerRunning}
}

func (e *Engine) nextVersion() uint64 {
	e.seq++
	return e.seq
}

func (e *Engine) touch(en *entry) {
	en.version = e.nextVersion()
}

func (e *Engine) remaining(en *entry, now time.Time) time.Duration {
	if en.state != StateRunning {
		left := en.task.Estimate() - en.task.TimeSpent
		if left < 0 {
			return 0
		}
		return time.Duration(left) * time.Minute
	}

	left := en.deadline.Sub(now).Truncate(time.Second)
	if left < 0 {
		return 0
	}
	return left
}

// catchUp recomputes whole minutes spent from the countdown. Time spent never
// decreases here and stops growing once the estimate is used up.
func (e *Engine) catchUp(en *entry, now time.Time) time.Duration {
	left := e.remaining(en, now)
	elapsed := time.Duration(en.task.Estimate())*time.Minute - left
	if minutes := int(elapsed / time.Minute); minutes > en.task.TimeSpent {
		en.task.TimeSpent = minutes
	}
	return left
}

func (e *Engine) arm(en *entry, now time.Time) {
	left := en.task.Estimate() - en.task.TimeSpent
	if left < 0 {
		left = 0
	}
	en.deadline = now.Add(time.Duration(left) * time.Minute)
	en.expired = false
	en.state = StateRunning
	en.task.IsTimerRunning = true
	e.saveDeadline(en.task.ID, en.deadline)
}

// halt freezes the accumulated time and stops the countdown.
func (e *Engine) halt(en *entry, now time.Time) {
	e.catchUp(en, now)
	e.clearTimer(en)
}

func (e *Engine) clearTimer(en *entry) {
	en.deadline = time.Time{}
	en.expired = false
	en.task.IsTimerRunning = false
	e.forgetDeadline(en.task.ID)
}

func (e *Engine) remove(id string) {
	if _, ok := e.entries[id]; !ok {
		return
	}
	delete(e.entries, id)
	e.order = slices.DeleteFunc(e.order, func(other string) bool { return other == id })
	e.forgetDeadline(id)
}

func (e *Engine) syncTime(en *entry) {
	id, minutes := en.task.ID, en.task.TimeSpent
	en.reported = minutes
	e.sync(en, OpUpdateTime, func(ctx context.Context) (domain.Task, error) {
		return e.gateway.UpdateTimeSpent(ctx, id, minutes)
	})
}

// sync sends a change for en. The result is applied only if the task still
// exists and has not changed locally since; otherwise it is dropped. Failures
// are reported unless the task is gone.
func (e *Engine) sync(en *entry, op string, call func(ctx context.Context) (domain.Task, error)) {
	id, version := en.task.ID, en.version
	e.dispatcher.Dispatch(call, func(remote domain.Task, err error) {
		current, ok := e.entries[id]
		if !ok {
			e.logger.Debug("dropping result for removed task", zap.String("op", op), zap.String("task_id", id))
			return
		}
		if err != nil {
			e.syncFailed(op, id, err)
			return
		}
		if current.version != version {
			e.logger.Debug("dropping stale task result", zap.String("op", op), zap.String("task_id", id))
			return
		}
		if current.state == StateRunning && current.task.TimeSpent > remote.TimeSpent {
			remote.TimeSpent = current.task.TimeSpent
		}
		current.task.Task = remote
		switch {
		case remote.IsCompleted:
			if current.state == StateRunning {
				e.clearTimer(current)
			}
			current.state = StateCompleted
		case current.state != StateRunning:
			current.state = restingState(remote)
		}
	})
}

func (e *Engine) syncFailed(op, id string, err error) {
	e.logger.Error("task sync failed", zap.String("op", op), zap.String("task_id", id), zap.Error(err))
	e.notifier.SyncFailed(op, id, err)
}

func (e *Engine) saveDeadline(id string, deadline time.Time) {
	if err := e.deadlines.SaveDeadline(context.Background(), e.session.Owner, id, deadline); err != nil {
		e.logger.Warn("could not persist timer deadline", zap.String("task_id", id), zap.Error(err))
	}
}

func (e *Engine) forgetDeadline(id string) {
	if err := e.deadlines.DeleteDeadline(context.Background(), e.session.Owner, id); err != nil {
		e.logger.Warn("could not clear timer deadline", zap.String("task_id", id), zap.Error(err))
	}
}

func transitionError(action string, state State) error {
	return fmt.Errorf("%w: cannot %s a %s task", domain.ErrInvalidTransition, action, state)
}
