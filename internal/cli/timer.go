package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AmimerNabil/achieveai/internal/app/engine"
)

func (a *app) timerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Start, pause and reset task timers",
		Long: `Timers count down a task's estimated time. Time spent is saved once a minute
while a timer runs and when it is paused.

A started timer keeps running after taskctl exits; use "timer watch" to be
alerted when it runs out.`,
	}

	actions := []struct {
		use   string
		short string
		act   func(*engine.Engine) func(string) error
	}{
		{"start", "Start or resume a task's timer", func(e *engine.Engine) func(string) error { return e.Start }},
		{"pause", "Pause a running timer", func(e *engine.Engine) func(string) error { return e.Pause }},
		{"restart", "Reset time spent to zero and start again", func(e *engine.Engine) func(string) error { return e.Restart }},
		{"stop", "Reset a paused timer to zero", func(e *engine.Engine) func(string) error { return e.Stop }},
	}
	for _, action := range actions {
		cmd.AddCommand(&cobra.Command{
			Use:   action.use + " <id>",
			Short: action.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd.Context(), func(s *session) error {
					id, err := resolve(s.engine, args[0])
					if err != nil {
						return err
					}
					if err := action.act(s.engine)(id); err != nil {
						return err
					}
					return printTimer(cmd.OutOrStdout(), s.engine, id)
				})
			},
		})
	}

	cmd.AddCommand(a.watchCommand())
	return cmd
}

func (a *app) watchCommand() *cobra.Command {
	var (
		every    time.Duration
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep running timers counting and ring when one runs out",
		Long: `watch keeps the task list loaded and ticks every running timer once a
second until interrupted. Time spent is saved every minute and the terminal
bell rings when a countdown reaches zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			return a.watch(ctx, cmd.OutOrStdout(), every)
		},
	}
	cmd.Flags().DurationVar(&every, "every", time.Minute, "how often to print the running timers")
	cmd.Flags().DurationVar(&duration, "for", 0, "stop watching after this long (default until interrupted)")
	return cmd
}

func (a *app) watch(ctx context.Context, w io.Writer, every time.Duration) error {
	loop := engine.NewLoop(ctx, a.clock)
	s, err := a.open(ctx, loop)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			a.logger.Warn("could not close timer database", zap.Error(err))
		}
	}()

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx, s.engine) }()

	show := func() {
		_ = loop.Call(ctx, func() error { return printRunning(w, s.engine) })
	}
	show()

	if every <= 0 {
		every = time.Minute
	}
	ticker := a.clock.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				fmt.Fprintln(w, "Stopped watching. Running timers keep counting.")
				return nil
			}
			return err
		case <-ticker.Chan():
			show()
		}
	}
}

func printRunning(w io.Writer, e *engine.Engine) error {
	running := 0
	for _, task := range e.Tasks() {
		if !task.IsTimerRunning {
			continue
		}
		running++
		remaining, err := e.Remaining(task.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  %-30s %s left, %s\n", shortID(task.ID), task.Title, formatDuration(remaining), spentLabel(task))
	}
	if running == 0 {
		fmt.Fprintln(w, "No timers running.")
	}
	return nil
}

func printTimer(w io.Writer, e *engine.Engine, id string) error {
	task, err := e.Task(id)
	if err != nil {
		return err
	}
	state, err := e.State(id)
	if err != nil {
		return err
	}
	remaining, err := e.Remaining(id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s %q: %s, %s left (%s)\n", shortID(id), task.Title, state, formatDuration(remaining), spentLabel(task))
	return err
}
