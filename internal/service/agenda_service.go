package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"flynesis-planner/internal/datetime"
	"flynesis-planner/internal/domain"
	"flynesis-planner/internal/focus"
	"flynesis-planner/internal/layout"
)

// AgendaSource is the read side of the store client.
type AgendaSource interface {
	EventsBetween(ctx context.Context, flyID, fromISO, toISO string) []domain.CalendarEvent
	Tasks(ctx context.Context, flyID string) []domain.Task
	Settings(ctx context.Context, flyID string) domain.Settings
	FocusSessions(ctx context.Context, flyID string) []domain.FocusSession
}

// AgendaService builds the daily digest sent to each account.
type AgendaService struct {
	source AgendaSource
}

func NewAgendaService(source AgendaSource) *AgendaService {
	return &AgendaService{source: source}
}

// Agenda is one account's day: its events in grid order, open tasks and the
// number of focus sessions completed.
type Agenda struct {
	Date     time.Time
	Settings domain.Settings
	Events   []domain.CalendarEvent
	Tasks    []domain.Task
	Sessions int
}

// Day collects the agenda of the local date of now.
func (s *AgendaService) Day(ctx context.Context, flyID string, now time.Time) Agenda {
	today := datetime.DateISO(now)
	return Agenda{
		Date:     now,
		Settings: s.source.Settings(ctx, flyID),
		Events:   layout.EventsOn(s.source.EventsBetween(ctx, flyID, today, today), today),
		Tasks:    openTasks(s.source.Tasks(ctx, flyID)),
		Sessions: focus.CountOn(s.source.FocusSessions(ctx, flyID), now),
	}
}

// DailyDigest renders today's events, open tasks and focus count as
// Telegram HTML.
func (s *AgendaService) DailyDigest(ctx context.Context, flyID string, now time.Time) string {
	day := s.Day(ctx, flyID, now)
	settings, events, tasks, sessions := day.Settings, day.Events, day.Tasks, day.Sessions

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily agenda</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Monday, 02 Jan 2006")))

	builder.WriteString("📅 <b>Today</b>\n")
	if len(events) == 0 {
		builder.WriteString("— nothing scheduled\n")
	} else {
		for _, e := range events {
			builder.WriteString(FormatEvent(e, settings.TimeFormat.Is24h()))
			builder.WriteByte('\n')
		}
	}

	builder.WriteString("\n🔥 <b>Open tasks</b>\n")
	if len(tasks) == 0 {
		builder.WriteString("— no open tasks\n")
	} else {
		for _, t := range tasks {
			builder.WriteString(formatTask(t, now))
		}
	}

	builder.WriteString(fmt.Sprintf("\n🍅 Focus sessions today: <b>%d</b>", sessions))
	return strings.TrimSpace(builder.String())
}

// openTasks keeps Todo and Doing tasks, earliest due date first. Tasks
// without a due date come last, newest first.
func openTasks(tasks []domain.Task) []domain.Task {
	var open []domain.Task
	for _, t := range tasks {
		if t.Status != domain.StatusDone {
			open = append(open, t)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		switch {
		case open[i].DueISO == "" && open[j].DueISO == "":
			return open[i].CreatedAtISO > open[j].CreatedAtISO
		case open[i].DueISO == "":
			return false
		case open[j].DueISO == "":
			return true
		default:
			return open[i].DueISO < open[j].DueISO
		}
	})
	return open
}

// FormatEvent renders one event line such as "• 9:00–10:00 Standup (Meeting)".
func FormatEvent(e domain.CalendarEvent, format24h bool) string {
	line := fmt.Sprintf("• %s–%s %s <i>(%s)</i>",
		datetime.FormatMinutes(e.StartMin, format24h),
		datetime.FormatMinutes(e.EndMin, format24h),
		html.EscapeString(strings.TrimSpace(e.Title)),
		html.EscapeString(string(e.Type)))
	if e.Notes != "" {
		line += fmt.Sprintf("\n   📝 %s", html.EscapeString(e.Notes))
	}
	return line
}

func formatTask(task domain.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if task.Status == domain.StatusDoing {
		icon = "🔵"
	}
	if Overdue(task, now) {
		icon = "⚠️"
	} else if task.DueISO != "" && task.DueISO <= datetime.AddDaysISO(datetime.DateISO(now), 2) {
		icon = "⏳"
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))
	if tag := strings.TrimSpace(task.Tag); tag != "" {
		sb.WriteString(fmt.Sprintf(" <i>(#%s)</i>", html.EscapeString(tag)))
	}
	if task.DueISO != "" {
		if Overdue(task, now) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · <b>overdue</b>", task.DueISO))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s", task.DueISO))
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}
