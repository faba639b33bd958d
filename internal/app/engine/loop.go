package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

const TickInterval = time.Second

var ErrLoopStopped = errors.New("engine loop stopped")

// Loop is the single goroutine that owns an Engine. User actions, one-second
// ticks and remote results are all run on it in arrival order. Remote calls
// run on their own goroutines so a slow call never holds up the loop.
type Loop struct {
	ctx   context.Context
	clock clockwork.Clock
	inbox chan func()

	done     chan struct{}
	stopOnce sync.Once
}

var _ Dispatcher = (*Loop)(nil)

// NewLoop returns a loop whose remote calls use ctx. It does nothing until Run.
func NewLoop(ctx context.Context, clock clockwork.Clock) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{ctx: ctx, clock: clock, inbox: make(chan func(), 64), done: make(chan struct{})}
}

// Run ticks e every second and runs queued work until ctx is done. Once it
// returns the loop accepts no more work.
func (l *Loop) Run(ctx context.Context, e *Engine) error {
	ticker := l.clock.NewTicker(TickInterval)
	defer ticker.Stop()
	defer l.stopOnce.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			e.Tick()
		case fn := <-l.inbox:
			fn()
		}
	}
}

// Do queues fn to run on the loop. It returns false if the loop stopped or
// its context ended first.
func (l *Loop) Do(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.inbox <- fn:
		return true
	case <-l.done:
		return false
	case <-l.ctx.Done():
		return false
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if !l.Do(func() { done <- fn() }) {
		return l.stopErr()
	}
	select {
	case err := <-done:
		return err
	case <-l.done:
		select {
		case err := <-done:
			return err
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) Dispatch(call func(ctx context.Context) (domain.Task, error), apply func(domain.Task, error)) {
	go func() {
		task, err := call(l.ctx)
		l.Do(func() { apply(task, err) })
	}()
}

func (l *Loop) stopErr() error {
	if err := l.ctx.Err(); err != nil {
		return err
	}
	return ErrLoopStopped
}
