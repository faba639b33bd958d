package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/AmimerNabil/achieveai/internal/app/engine"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// taskView is the machine-readable form of a task with its timer state.
type taskView struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	Priority      string `json:"priority" yaml:"priority"`
	DueDate       string `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Category      string `json:"category,omitempty" yaml:"category,omitempty"`
	Repetition    string `json:"repetition" yaml:"repetition"`
	EstimatedTime *int   `json:"estimatedTime,omitempty" yaml:"estimatedTime,omitempty"`
	TimeSpent     int    `json:"timeSpent" yaml:"timeSpent"`
	IsCompleted   bool   `json:"isCompleted" yaml:"isCompleted"`
	State         string `json:"state" yaml:"state"`
	Remaining     string `json:"remaining" yaml:"remaining"`
}

type row struct {
	task      engine.Task
	state     engine.State
	remaining time.Duration
}

func rowsFor(e *engine.Engine, tasks []engine.Task) []row {
	rows := make([]row, 0, len(tasks))
	for _, task := range tasks {
		state, _ := e.State(task.ID)
		remaining, _ := e.Remaining(task.ID)
		rows = append(rows, row{task: task, state: state, remaining: remaining})
	}
	return rows
}

func toView(r row, loc *time.Location) taskView {
	view := taskView{
		ID:            r.task.ID,
		Title:         r.task.Title,
		Priority:      string(r.task.Priority),
		Category:      r.task.Category,
		Repetition:    string(r.task.Repetition),
		EstimatedTime: r.task.EstimatedTime,
		TimeSpent:     r.task.TimeSpent,
		IsCompleted:   r.task.IsCompleted,
		State:         r.state.String(),
		Remaining:     formatDuration(r.remaining),
	}
	if r.task.Description != nil {
		view.Description = *r.task.Description
	}
	if r.task.DueDate != nil {
		view.DueDate = engine.DueDay(*r.task.DueDate, loc).Format(time.DateOnly)
	}
	return view
}

func writeStructured(w io.Writer, format string, value any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func writeRows(w io.Writer, format string, rows []row, now time.Time) error {
	if format != outputTable {
		views := make([]taskView, 0, len(rows))
		for _, r := range rows {
			views = append(views, toView(r, now.Location()))
		}
		return writeStructured(w, format, views)
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRIORITY\tDUE\tCATEGORY\tSPENT\tSTATE\tREMAINING")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r.task.ID),
			r.task.Title,
			r.task.Priority,
			dueLabel(r.task, now),
			orDash(r.task.Category),
			spentLabel(r.task),
			r.state,
			formatDuration(r.remaining),
		)
	}
	return tw.Flush()
}

func writeDetail(w io.Writer, format string, r row, now time.Time) error {
	if format != outputTable {
		return writeStructured(w, format, toView(r, now.Location()))
	}

	view := toView(r, now.Location())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", view.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", view.Title)
	fmt.Fprintf(tw, "Description:\t%s\n", orDash(view.Description))
	fmt.Fprintf(tw, "Priority:\t%s\n", view.Priority)
	fmt.Fprintf(tw, "Due:\t%s\n", dueLabel(r.task, now))
	fmt.Fprintf(tw, "Category:\t%s\n", orDash(view.Category))
	fmt.Fprintf(tw, "Repeats:\t%s\n", view.Repetition)
	fmt.Fprintf(tw, "Spent:\t%s\n", spentLabel(r.task))
	fmt.Fprintf(tw, "State:\t%s\n", view.State)
	fmt.Fprintf(tw, "Remaining:\t%s\n", view.Remaining)
	return tw.Flush()
}

func dueLabel(task engine.Task, now time.Time) string {
	if task.DueDate == nil {
		return "-"
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	day := engine.DueDay(*task.DueDate, now.Location())

	switch day.Sub(today) {
	case 0:
		return day.Format(time.DateOnly) + " (today)"
	case 24 * time.Hour:
		return day.Format(time.DateOnly) + " (tomorrow)"
	}
	return fmt.Sprintf("%s (%s)", day.Format(time.DateOnly), humanize.RelTime(day, today, "ago", "from now"))
}

func spentLabel(task engine.Task) string {
	if task.EstimatedTime == nil {
		return fmt.Sprintf("%dm", task.TimeSpent)
	}
	return fmt.Sprintf("%dm/%dm", task.TimeSpent, *task.EstimatedTime)
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
