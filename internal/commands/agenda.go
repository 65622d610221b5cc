package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"flynesis-planner/internal/datetime"
	"flynesis-planner/internal/domain"
	"flynesis-planner/internal/service"
)

func addAgenda(topLevel *cobra.Command, g *globalOptions) {
	date := ""
	asHTML := false
	cmd := &cobra.Command{
		Use:   "agenda <identity>",
		Short: "Show an account's events, open tasks and focus count for a day.",
		Example: `
planner agenda tg:123456
planner agenda tg:123456 --date 2024-06-10
planner agenda tg:123456 --html
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			rt, err := open(g, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			loc, err := rt.cfg.Location()
			if err != nil {
				return err
			}
			day := time.Now().In(loc)
			if date != "" {
				if day, err = datetime.ParseISO(date, loc); err != nil {
					return fmt.Errorf("--date: %w", err)
				}
			}
			flyID, err := rt.account(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			agenda := service.NewAgendaService(rt.store)
			if asHTML {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), agenda.DailyDigest(cmd.Context(), flyID, day))
				return nil
			}
			printAgenda(cmd.OutOrStdout(), agenda.Day(cmd.Context(), flyID, day))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to show, YYYY-MM-DD. Defaults to today.")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print the digest as it is sent to Telegram.")

	topLevel.AddCommand(cmd)
}

func printAgenda(out io.Writer, day service.Agenda) {
	title := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint)
	format24h := day.Settings.TimeFormat.Is24h()

	_, _ = fmt.Fprintln(out, title.Sprint(day.Date.Format("Monday, 02 Jan 2006")))
	_, _ = fmt.Fprintln(out)

	events := uitable.New()
	events.Separator = "  "
	events.MaxColWidth = 60
	for _, e := range day.Events {
		span := datetime.FormatMinutes(e.StartMin, format24h) + "–" + datetime.FormatMinutes(e.EndMin, format24h)
		events.AddRow(span, e.Title, faint.Sprint(e.Type))
	}
	if len(day.Events) == 0 {
		events.AddRow(faint.Sprint("nothing scheduled"))
	}
	events.RightAlign(0)
	_, _ = fmt.Fprintln(out, events)
	_, _ = fmt.Fprintln(out)

	tasks := uitable.New()
	tasks.Separator = "  "
	tasks.MaxColWidth = 60
	for _, t := range day.Tasks {
		tasks.AddRow(taskMark(t), t.Title, tagLabel(t.Tag), dueLabel(t, day.Date))
	}
	if len(day.Tasks) == 0 {
		tasks.AddRow(faint.Sprint("no open tasks"))
	}
	_, _ = fmt.Fprintln(out, tasks)
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintf(out, "focus sessions: %d\n", day.Sessions)
}

func taskMark(t domain.Task) string {
	if t.Status == domain.StatusDoing {
		return color.CyanString("▶")
	}
	return "•"
}

func tagLabel(tag string) string {
	if tag == "" {
		return ""
	}
	return color.New(color.Faint).Sprint("#" + tag)
}

func dueLabel(t domain.Task, now time.Time) string {
	switch {
	case t.DueISO == "":
		return ""
	case service.Overdue(t, now):
		return color.RedString("overdue %s", t.DueISO)
	default:
		return "due " + t.DueISO
	}
}
