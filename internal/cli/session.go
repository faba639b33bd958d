package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/AmimerNabil/achieveai/internal/adapter/deadline"
	"github.com/AmimerNabil/achieveai/internal/app/engine"
	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

// session is one loaded engine plus the local state backing it.
type session struct {
	engine   *engine.Engine
	notifier *notifier
	store    *deadline.Store
}

// open loads the task list the way a client does on start: fetch tasks,
// restore running timers, count time that passed while nothing was running.
func (a *app) open(ctx context.Context, dispatcher engine.Dispatcher) (*session, error) {
	gateway, err := a.newGateway(a.cfg)
	if err != nil {
		return nil, err
	}

	store, err := deadline.Open(ctx, a.cfg.Deadlines)
	if err != nil {
		return nil, err
	}

	n := newNotifier(a.errOut)
	if dispatcher == nil {
		dispatcher = engine.InlineDispatcher(ctx)
	}
	e, err := engine.New(engine.Session{Owner: a.cfg.Owner}, gateway, engine.Options{
		Clock:      a.clock,
		Deadlines:  store,
		Notifier:   n,
		Dispatcher: dispatcher,
		Logger:     a.logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := e.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return &session{engine: e, notifier: n, store: store}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// run opens a session, applies fn and reports any remote call that failed
// along the way.
func (a *app) run(ctx context.Context, fn func(s *session) error) error {
	s, err := a.open(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			a.logger.Warn("could not close timer database", zap.Error(err))
		}
	}()

	if err := fn(s); err != nil {
		return err
	}
	return s.notifier.Err()
}

// resolve accepts a full task id or an unambiguous prefix of one.
func resolve(e *engine.Engine, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty id", domain.ErrUnknownTask)
	}

	var matches []string
	for _, task := range e.Tasks() {
		if task.ID == ref {
			return ref, nil
		}
		if strings.HasPrefix(task.ID, ref) {
			matches = append(matches, task.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownTask, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous: %s", ref, strings.Join(matches, ", "))
	}
}

// notifier rings the terminal bell on expiry and collects sync failures.
type notifier struct {
	mu     sync.Mutex
	w      io.Writer
	failed []error
}

var _ engine.Notifier = (*notifier)(nil)

func newNotifier(w io.Writer) *notifier {
	return &notifier{w: w}
}

func (n *notifier) TimerExpired(task engine.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "\a⏰ time is up for %q\n", task.Title)
}

func (n *notifier) SyncFailed(op string, taskID string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if taskID != "" {
		err = fmt.Errorf("%s %s: %w", op, taskID, err)
	} else {
		err = fmt.Errorf("%s: %w", op, err)
	}
	fmt.Fprintf(n.w, "sync failed: %v\n", err)
	n.failed = append(n.failed, err)
}

// Err joins every failure seen so far.
func (n *notifier) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return errors.Join(n.failed...)
}
