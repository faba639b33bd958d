package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AmimerNabil/achieveai/internal/app/engine"
)

type statsView struct {
	Total        int      `json:"total" yaml:"total"`
	Completed    int      `json:"completed" yaml:"completed"`
	HoursSpent   float64  `json:"hoursSpent" yaml:"hoursSpent"`
	Productivity int      `json:"productivity" yaml:"productivity"`
	DueDates     []string `json:"dueDates,omitempty" yaml:"dueDates,omitempty"`
}

func (a *app) statsCommand() *cobra.Command {
	var calendar bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show totals, hours spent and productivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), func(s *session) error {
				tasks := s.engine.Tasks()
				summary := engine.Summarize(tasks)
				view := statsView{
					Total:        summary.Total,
					Completed:    summary.Completed,
					HoursSpent:   summary.HoursSpent,
					Productivity: summary.Productivity,
				}
				if calendar {
					for _, day := range engine.CalendarMarks(tasks, a.cfg.Location()) {
						view.DueDates = append(view.DueDates, day.Format(time.DateOnly))
					}
				}

				w := cmd.OutOrStdout()
				if a.output != outputTable {
					return writeStructured(w, a.output, view)
				}

				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "Tasks:\t%s\n", humanize.Comma(int64(view.Total)))
				fmt.Fprintf(tw, "Completed:\t%s\n", humanize.Comma(int64(view.Completed)))
				fmt.Fprintf(tw, "Hours spent:\t%s\n", humanize.FtoaWithDigits(view.HoursSpent, 1))
				fmt.Fprintf(tw, "Productivity:\t%d%%\n", view.Productivity)
				if calendar {
					fmt.Fprintf(tw, "Due dates:\t%d\n", len(view.DueDates))
					for _, day := range view.DueDates {
						fmt.Fprintf(tw, "\t%s\n", day)
					}
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&calendar, "calendar", false, "also list the days that have tasks due")
	a.addOutputFlag(cmd)
	return cmd
}
