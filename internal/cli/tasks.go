package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AmimerNabil/achieveai/internal/app/engine"
	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

func (a *app) addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&a.output, "output", "o", outputTable, "output format: table, json or yaml")
}

func (a *app) listCommand() *cobra.Command {
	var (
		hideCompleted bool
		date          string
		frame         string
		category      string
		priority      string
		sortBy        string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long: `List tasks, optionally filtered and sorted.

--date shows a single day and takes precedence over --frame.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := a.now()
			criteria := engine.Criteria{
				HideCompleted: hideCompleted,
				Category:      category,
				Priority:      priority,
			}

			var ok bool
			if criteria.TimeFrame, ok = engine.ParseTimeFrame(frame); !ok {
				return fmt.Errorf("unknown time frame %q (want all, today, week or month)", frame)
			}
			if criteria.SortBy, ok = engine.ParseSortKey(sortBy); !ok {
				return fmt.Errorf("unknown sort key %q (want dueDate, priority or estimatedTime)", sortBy)
			}
			if priority != "" && !strings.EqualFold(priority, engine.All) {
				if _, ok := domain.ParsePriority(priority); !ok {
					return fmt.Errorf("unknown priority %q", priority)
				}
			}
			if date != "" {
				day, err := a.parseDate(date)
				if err != nil {
					return err
				}
				criteria.SelectedDate = &day
			}

			return a.run(cmd.Context(), func(s *session) error {
				tasks := engine.Derive(s.engine.Tasks(), criteria, now)
				return writeRows(cmd.OutOrStdout(), a.output, rowsFor(s.engine, tasks), now)
			})
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&hideCompleted, "hide-completed", false, "leave out completed tasks")
	flags.StringVar(&date, "date", "", "only tasks due on this day (YYYY-MM-DD)")
	flags.StringVar(&frame, "frame", "", "only tasks due in this window: all, today, week, month")
	flags.StringVar(&category, "category", "", "only tasks in this category")
	flags.StringVar(&priority, "priority", "", "only tasks with this priority")
	flags.StringVar(&sortBy, "sort", "", "sort by dueDate, priority or estimatedTime")
	a.addOutputFlag(cmd)
	return cmd
}

func (a *app) addCommand() *cobra.Command {
	var (
		description string
		priority    string
		due         string
		category    string
		repetition  string
		estimate    int
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := domain.CreateTaskInput{
				Title:      strings.Join(args, " "),
				Priority:   domain.Priority(priority),
				Category:   category,
				Repetition: domain.Repetition(repetition),
			}
			if cmd.Flags().Changed("description") {
				input.Description = &description
			}
			if cmd.Flags().Changed("estimate") {
				input.EstimatedTime = &estimate
			}
			if due != "" {
				day, err := a.parseDate(due)
				if err != nil {
					return err
				}
				input.DueDate = &day
			}

			return a.run(cmd.Context(), func(s *session) error {
				before := len(s.engine.Tasks())
				if err := s.engine.Create(input); err != nil {
					return err
				}
				tasks := s.engine.Tasks()
				if len(tasks) > before {
					fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q\n", shortID(tasks[0].ID), tasks[0].Title)
				}
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&description, "description", "d", "", "longer description")
	flags.StringVarP(&priority, "priority", "p", "", "high, medium or low (default medium)")
	flags.StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	flags.StringVarP(&category, "category", "c", "", "category")
	flags.StringVarP(&repetition, "repeat", "r", "", "none, one-time, daily, weekly, monthly or weekday")
	flags.IntVarP(&estimate, "estimate", "e", 0, "estimated minutes")
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	var (
		title         string
		description   string
		priority      string
		due           string
		category      string
		repetition    string
		estimate      int
		spent         int
		clearDesc     bool
		clearDue      bool
		clearEstimate bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			var input domain.UpdateTaskInput

			if changed("title") {
				input.Title = &title
			}
			if changed("description") {
				input.Description, input.DescriptionSet = &description, true
			}
			if clearDesc {
				input.Description, input.DescriptionSet = nil, true
			}
			if changed("priority") {
				p := domain.Priority(priority)
				input.Priority = &p
			}
			if changed("due") {
				day, err := a.parseDate(due)
				if err != nil {
					return err
				}
				input.DueDate, input.DueDateSet = &day, true
			}
			if clearDue {
				input.DueDate, input.DueDateSet = nil, true
			}
			if changed("category") {
				input.Category = &category
			}
			if changed("repeat") {
				r := domain.Repetition(repetition)
				input.Repetition = &r
			}
			if changed("estimate") {
				input.EstimatedTime, input.EstimatedTimeSet = &estimate, true
			}
			if clearEstimate {
				input.EstimatedTime, input.EstimatedTimeSet = nil, true
			}
			if changed("spent") {
				input.TimeSpent = &spent
			}

			return a.run(cmd.Context(), func(s *session) error {
				id, err := resolve(s.engine, args[0])
				if err != nil {
					return err
				}
				if err := s.engine.Update(id, input); err != nil {
					return err
				}
				return a.printTask(cmd, s, id, outputTable)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&title, "title", "t", "", "new title")
	flags.StringVarP(&description, "description", "d", "", "new description")
	flags.BoolVar(&clearDesc, "clear-description", false, "remove the description")
	flags.StringVarP(&priority, "priority", "p", "", "high, medium or low")
	flags.StringVar(&due, "due", "", "new due date (YYYY-MM-DD)")
	flags.BoolVar(&clearDue, "clear-due", false, "remove the due date")
	flags.StringVarP(&category, "category", "c", "", "new category")
	flags.StringVarP(&repetition, "repeat", "r", "", "none, one-time, daily, weekly, monthly or weekday")
	flags.IntVarP(&estimate, "estimate", "e", 0, "estimated minutes")
	flags.BoolVar(&clearEstimate, "clear-estimate", false, "remove the estimate")
	flags.IntVar(&spent, "spent", 0, "minutes already spent")
	cmd.MarkFlagsMutuallyExclusive("description", "clear-description")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	cmd.MarkFlagsMutuallyExclusive("estimate", "clear-estimate")
	return cmd
}

func (a *app) doneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle whether a task is completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(s *session) error {
				id, err := resolve(s.engine, args[0])
				if err != nil {
					return err
				}
				if err := s.engine.ToggleComplete(id); err != nil {
					return err
				}
				task, err := s.engine.Task(id)
				if err != nil {
					return err
				}
				status := "open"
				if task.IsCompleted {
					status = "completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q is %s (%s spent)\n", shortID(id), task.Title, status, spentLabel(task))
				return nil
			})
		},
	}
}

func (a *app) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(s *session) error {
				id, err := resolve(s.engine, args[0])
				if err != nil {
					return err
				}
				if err := s.engine.Delete(id); err != nil {
					return err
				}
				if _, err := s.engine.Task(id); err == nil {
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", shortID(id))
				return nil
			})
		},
	}
}

func (a *app) showCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(s *session) error {
				id, err := resolve(s.engine, args[0])
				if err != nil {
					return err
				}
				return a.printTask(cmd, s, id, a.output)
			})
		},
	}
	a.addOutputFlag(cmd)
	return cmd
}

func (a *app) printTask(cmd *cobra.Command, s *session, id, format string) error {
	task, err := s.engine.Task(id)
	if err != nil {
		return err
	}
	rows := rowsFor(s.engine, []engine.Task{task})
	return writeDetail(cmd.OutOrStdout(), format, rows[0], a.now())
}

func (a *app) now() time.Time {
	return a.clock.Now().In(a.cfg.Location())
}

// parseDate reads YYYY-MM-DD as midnight in the configured time zone.
func (a *app) parseDate(value string) (time.Time, error) {
	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(value), a.cfg.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return day, nil
}
