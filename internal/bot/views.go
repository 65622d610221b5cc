package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flynesis-planner/internal/datetime"
	"flynesis-planner/internal/domain"
	"flynesis-planner/internal/layout"
	"flynesis-planner/internal/planner"
	"flynesis-planner/internal/service"
)

const (
	shortIDLen    = 8
	minRefLen     = 4
	maxListed     = 30
	maxTaskButton = 20
)

var errAmbiguous = errors.New("ambiguous id")

// handleCalendar shows the named view, or the account's default view when
// name is empty, around the date given as argument or today.
func (b *Bot) handleCalendar(ctx context.Context, msg *tgbotapi.Message, name string) error {
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	dateISO := ""
	if msg.IsCommand() {
		dateISO = strings.TrimSpace(msg.CommandArguments())
	}
	return b.sendCalendar(msg.Chat.ID, ctl, name, dateISO)
}

func (b *Bot) sendCalendar(chatID int64, ctl *planner.Controller, name, dateISO string) error {
	settings := ctl.Settings()
	view := settings.DefaultView
	if name != "" {
		parsed, err := domain.ParseView(name)
		if err != nil {
			return b.sendText(chatID, escape(err.Error()))
		}
		view = parsed
	}

	today := b.now().In(b.loc)
	date := today
	if dateISO != "" {
		parsed, err := datetime.ParseISO(dateISO, b.loc)
		if err != nil {
			return b.sendText(chatID, "Use a date like <code>2024-06-30</code>.")
		}
		date = parsed
	}

	rendered, err := ctl.Render(view, date, today)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	msg := tgbotapi.NewMessage(chatID, renderView(rendered, settings.TimeFormat.Is24h()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = calendarKeyboard(rendered)
	_, err = b.api.Send(msg)
	return err
}

// calendarKeyboard pages to the days just outside the rendered range, so it
// works the same for every view.
func calendarKeyboard(v layout.View) tgbotapi.InlineKeyboardMarkup {
	prev := datetime.AddDaysISO(v.From, -1)
	next := datetime.AddDaysISO(v.To, 1)
	var views []tgbotapi.InlineKeyboardButton
	for _, other := range domain.Views {
		if other == v.Kind {
			continue
		}
		views = append(views, tgbotapi.NewInlineKeyboardButtonData(string(other), fmt.Sprintf("%s%s:%s", cbCalendar, other, v.From)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️", fmt.Sprintf("%s%s:%s", cbCalendar, v.Kind, prev)),
			tgbotapi.NewInlineKeyboardButtonData("▶️", fmt.Sprintf("%s%s:%s", cbCalendar, v.Kind, next)),
		),
		tgbotapi.NewInlineKeyboardRow(views...),
	)
}

// renderView turns a laid out view into message text.
func renderView(v layout.View, format24h bool) string {
	var builder strings.Builder
	if v.Grid != nil {
		builder.WriteString(fmt.Sprintf("🗓 <b>%s</b> · %s – %s\n", v.Kind, v.From, v.To))
		for _, col := range v.Grid.Columns {
			builder.WriteString("\n")
			builder.WriteString(dayHeader(col.Date.Format("Mon 02 Jan"), col.IsToday))
			if len(col.Placements) == 0 {
				builder.WriteString("— free\n")
				continue
			}
			for _, p := range col.Placements {
				builder.WriteString(service.FormatEvent(p.Event, format24h))
				builder.WriteByte('\n')
			}
		}
	}
	if v.Month != nil {
		builder.WriteString(fmt.Sprintf("🗓 <b>%s %d</b>\n", v.Month.Month, v.Month.Year))
		busy := false
		for _, week := range v.Month.Weeks {
			for _, cell := range week {
				if !cell.InMonth || len(cell.Titles) == 0 {
					continue
				}
				busy = true
				titles := make([]string, len(cell.Titles))
				for i, t := range cell.Titles {
					titles[i] = escape(t)
				}
				line := strings.Join(titles, ", ")
				if cell.Overflow > 0 {
					line += fmt.Sprintf(" <i>+%d more</i>", cell.Overflow)
				}
				builder.WriteString(dayHeader(cell.Date.Format("Mon 02"), cell.IsToday))
				builder.WriteString("   " + line + "\n")
			}
		}
		if !busy {
			builder.WriteString("— nothing planned this month\n")
		}
	}
	return strings.TrimSpace(builder.String())
}

func dayHeader(label string, today bool) string {
	if today {
		return fmt.Sprintf("👉 <b>%s · today</b>\n", label)
	}
	return fmt.Sprintf("<b>%s</b>\n", label)
}

func (b *Bot) handleEvents(ctx context.Context, msg *tgbotapi.Message) error {
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	query := strings.TrimSpace(msg.CommandArguments())
	events := ctl.SearchEvents(query)
	if len(events) == 0 {
		return b.sendText(msg.Chat.ID, "No events found. Add one with /newevent.")
	}

	format24h := ctl.Settings().TimeFormat.Is24h()
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📅 <b>Events</b> (%d)\n\n", len(events)))
	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, e := range events {
		if i == maxListed {
			builder.WriteString(fmt.Sprintf("…and %d more. Narrow it down with /events &lt;query&gt;.", len(events)-maxListed))
			break
		}
		builder.WriteString(fmt.Sprintf("<code>%s</code> %s\n%s\n", shortID(e.ID), e.DateISO, service.FormatEvent(e, format24h)))
		if i < maxTaskButton {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✏️ "+shortTitle(e.Title, 24), cbEventEdit+e.ID),
				tgbotapi.NewInlineKeyboardButtonData("🗑", cbEventDelete+e.ID),
			))
		}
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, strings.TrimSpace(builder.String()))
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(out)
	return err
}

func (b *Bot) handleTasks(ctx context.Context, msg *tgbotapi.Message) error {
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	query := ""
	if msg.IsCommand() {
		query = msg.CommandArguments()
	}
	return b.sendBoard(msg.Chat.ID, ctl, query)
}

func (b *Bot) sendBoard(chatID int64, ctl *planner.Controller, query string) error {
	board := ctl.Board(query)
	if board.Len() == 0 {
		return b.sendText(chatID, "The board is empty. Add a task with /newtask.")
	}
	text, buttons := renderBoard(board, b.now().In(b.loc))
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err := b.api.Send(msg)
	return err
}

var columnTitles = map[domain.TaskStatus]string{
	domain.StatusTodo:  "📝 <b>Todo</b>",
	domain.StatusDoing: "🔄 <b>Doing</b>",
	domain.StatusDone:  "✅ <b>Done</b>",
}

// renderBoard lists the columns and offers a button row per task to move it
// along, raise it within its column, edit it or delete it.
func renderBoard(board planner.Board, now time.Time) (string, [][]tgbotapi.InlineKeyboardButton) {
	var builder strings.Builder
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, status := range domain.Statuses {
		column := board.Column(status)
		builder.WriteString(fmt.Sprintf("%s (%d)\n", columnTitles[status], len(column)))
		if len(column) == 0 {
			builder.WriteString("—\n\n")
			continue
		}
		for i, t := range column {
			builder.WriteString(formatBoardTask(t, now))
			if len(buttons) >= maxTaskButton {
				continue
			}
			row := []tgbotapi.InlineKeyboardButton{}
			switch status {
			case domain.StatusTodo:
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("▶️ "+shortTitle(t.Title, 18), moveData(domain.StatusDoing, t.ID)))
			case domain.StatusDoing:
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("✅ "+shortTitle(t.Title, 18), moveData(domain.StatusDone, t.ID)))
			default:
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("↩️ "+shortTitle(t.Title, 18), moveData(domain.StatusTodo, t.ID)))
			}
			if i > 0 {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬆️", cbTaskUp+t.ID))
			}
			row = append(row,
				tgbotapi.NewInlineKeyboardButtonData("✏️", cbTaskEdit+t.ID),
				tgbotapi.NewInlineKeyboardButtonData("🗑", cbTaskDelete+t.ID),
			)
			buttons = append(buttons, row)
		}
		builder.WriteByte('\n')
	}
	return strings.TrimSpace(builder.String()), buttons
}

// moveTaskUp swaps a task with the one above it in its column and shows the
// board again.
func (b *Bot) moveTaskUp(chatID int64, ctl *planner.Controller, id string) error {
	task, ok := ctl.Task(id)
	if !ok {
		return b.sendText(chatID, "Task not found.")
	}
	column := ctl.Board("").Column(task.Status)
	for i, t := range column {
		if t.ID != id {
			continue
		}
		if i == 0 {
			break
		}
		if ctl.ReorderTask(id, column[i-1].ID) {
			log.Printf("[info] task raised id=%s over=%s", id, column[i-1].ID)
		}
		break
	}
	return b.sendBoard(chatID, ctl, "")
}

func moveData(status domain.TaskStatus, id string) string {
	return fmt.Sprintf("%s%s:%s", cbMove, status, id)
}

func formatBoardTask(t domain.Task, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("• <code>%s</code> %s %s", shortID(t.ID), priorityIcon(t.Priority), escape(t.Title)))
	if t.Tag != "" {
		sb.WriteString(fmt.Sprintf(" <i>#%s</i>", escape(t.Tag)))
	}
	if t.DueISO != "" {
		if service.Overdue(t, now) {
			sb.WriteString(fmt.Sprintf(" ⚠️ <b>%s</b>", t.DueISO))
		} else {
			sb.WriteString(fmt.Sprintf(" ⏰ %s", t.DueISO))
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}

func priorityIcon(p domain.Priority) string {
	switch p {
	case domain.PriorityHigh:
		return "🔴"
	case domain.PriorityLow:
		return "⚪"
	default:
		return "🟡"
	}
}

func (b *Bot) handleTags(ctx context.Context, msg *tgbotapi.Message) error {
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	tags := b.tags.List(ctx, ctl.FlyID())
	if len(tags) == 0 {
		return b.sendText(msg.Chat.ID, "No open task has a tag yet.")
	}
	var builder strings.Builder
	builder.WriteString("🏷 <b>Tags</b>\n")
	for _, t := range tags {
		builder.WriteString(fmt.Sprintf("• #%s · %d\n", escape(t.Tag), t.Count))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleMove(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /move &lt;id&gt; &lt;todo|doing|done&gt;")
	}
	status, ok := domain.ParseTaskStatus(args[1])
	if !ok {
		return b.sendText(msg.Chat.ID, "The status is one of todo, doing, done.")
	}
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	id, err := resolveID(taskIDs(ctl.Tasks()), args[0])
	if err != nil {
		return b.sendText(msg.Chat.ID, refError(err))
	}
	return b.moveTask(ctx, msg.Chat.ID, ctl, id, status)
}

func (b *Bot) moveTask(ctx context.Context, chatID int64, ctl *planner.Controller, id string, status domain.TaskStatus) error {
	task, ok := ctl.MoveTask(ctx, id, status)
	if !ok {
		return b.sendText(chatID, "⚠️ The task was not moved. Try again later.")
	}
	log.Printf("[info] task moved id=%s status=%s", task.ID, task.Status)
	return b.sendBoard(chatID, ctl, "")
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	ref := strings.TrimSpace(msg.CommandArguments())
	if ref == "" {
		return b.sendText(msg.Chat.ID, "Usage: /delete &lt;id&gt; (ids are listed by /tasks and /events)")
	}
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	if id, err := resolveID(taskIDs(ctl.Tasks()), ref); err == nil {
		return b.askDeleteConfirmation(msg.Chat.ID, msg.From, ctl, actionDeleteTask, id)
	} else if errors.Is(err, errAmbiguous) {
		return b.sendText(msg.Chat.ID, refError(err))
	}
	id, err := resolveID(eventIDs(ctl.Events()), ref)
	if err != nil {
		return b.sendText(msg.Chat.ID, refError(err))
	}
	return b.askDeleteConfirmation(msg.Chat.ID, msg.From, ctl, actionDeleteEvent, id)
}

func (b *Bot) askDeleteConfirmation(chatID int64, from *tgbotapi.User, ctl *planner.Controller, action confirmationAction, id string) error {
	var text string
	switch action {
	case actionDeleteTask:
		task, ok := ctl.Task(id)
		if !ok {
			return b.sendText(chatID, "Task not found.")
		}
		text = fmt.Sprintf("Delete the task «%s»?", escape(task.Title))
	default:
		event, ok := ctl.Event(id)
		if !ok {
			return b.sendText(chatID, "Event not found.")
		}
		text = fmt.Sprintf("Delete the event «%s» on %s?", escape(event.Title), event.DateISO)
	}
	b.setConfirmation(from.ID, confirmationRequest{action: action, id: id})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, from *tgbotapi.User, id string) error {
	ctl, ok := b.plannerFor(ctx, chatID, from)
	if !ok {
		return nil
	}
	task, found := ctl.Task(id)
	if !found {
		return b.sendText(chatID, "Task not found or already deleted.")
	}
	if !ctl.DeleteTask(ctx, id) {
		return b.sendText(chatID, "⚠️ The task was not deleted. Try again later.")
	}
	log.Printf("[info] task deleted id=%s user=%d", id, from.ID)
	return b.sendText(chatID, fmt.Sprintf("🗑 Task «%s» deleted.", escape(task.Title)))
}

func (b *Bot) deleteEvent(ctx context.Context, chatID int64, from *tgbotapi.User, id string) error {
	ctl, ok := b.plannerFor(ctx, chatID, from)
	if !ok {
		return nil
	}
	event, found := ctl.Event(id)
	if !found {
		return b.sendText(chatID, "Event not found or already deleted.")
	}
	if !ctl.DeleteEvent(ctx, id) {
		return b.sendText(chatID, "⚠️ The event was not deleted. Try again later.")
	}
	log.Printf("[info] event deleted id=%s user=%d", id, from.ID)
	return b.sendText(chatID, fmt.Sprintf("🗑 Event «%s» deleted.", escape(event.Title)))
}

func (b *Bot) handleSettings(ctx context.Context, msg *tgbotapi.Message) error {
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		return b.sendSettings(msg.Chat.ID, ctl.Settings())
	}
	if len(args) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /settings &lt;week|time|view&gt; &lt;value&gt;")
	}
	return b.updateSetting(ctx, msg.Chat.ID, ctl, args[0], args[1])
}

func (b *Bot) updateSetting(ctx context.Context, chatID int64, ctl *planner.Controller, key, value string) error {
	next, err := applySetting(ctl.Settings(), key, value)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	if !ctl.UpdateSettings(ctx, next) {
		return b.sendText(chatID, "⚠️ Settings were not saved. Try again later.")
	}
	return b.sendSettings(chatID, next)
}

func (b *Bot) sendSettings(chatID int64, s domain.Settings) error {
	text := fmt.Sprintf("⚙️ <b>Settings</b>\n• Week starts on: %s\n• Time format: %s\n• Default view: %s",
		s.WeekStart, s.TimeFormat, s.DefaultView)

	otherWeek := domain.WeekStartSun
	if s.WeekStart == domain.WeekStartSun {
		otherWeek = domain.WeekStartMon
	}
	otherFormat := domain.TimeFormat12h
	if s.TimeFormat == domain.TimeFormat12h {
		otherFormat = domain.TimeFormat24h
	}
	var viewRow []tgbotapi.InlineKeyboardButton
	for _, v := range domain.Views {
		if v != s.DefaultView {
			viewRow = append(viewRow, tgbotapi.NewInlineKeyboardButtonData("View: "+string(v), cbSettings+"view:"+string(v)))
		}
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Week: "+string(otherWeek), cbSettings+"week:"+string(otherWeek)),
			tgbotapi.NewInlineKeyboardButtonData("Time: "+string(otherFormat), cbSettings+"time:"+string(otherFormat)),
		),
		tgbotapi.NewInlineKeyboardRow(viewRow...),
	)
	return b.sendWithReplyMarkup(chatID, text, markup)
}

// applySetting returns s with one preference changed.
func applySetting(s domain.Settings, key, value string) (domain.Settings, error) {
	switch strings.ToLower(key) {
	case "week", "weekstart":
		w, err := domain.ParseWeekStart(value)
		if err != nil {
			return s, err
		}
		s.WeekStart = w
	case "time", "timeformat":
		f, err := domain.ParseTimeFormat(value)
		if err != nil {
			return s, err
		}
		s.TimeFormat = f
	case "view", "defaultview":
		v, err := domain.ParseView(value)
		if err != nil {
			return s, err
		}
		s.DefaultView = v
	default:
		return s, fmt.Errorf("unknown setting %q", key)
	}
	return s, nil
}

// resolveID matches ref against ids exactly or as a unique prefix of at
// least minRefLen characters.
func resolveID(ids []string, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	var match string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if len(ref) >= minRefLen && strings.HasPrefix(id, ref) {
			if match != "" {
				return "", errAmbiguous
			}
			match = id
		}
	}
	if match == "" {
		return "", errNotFound
	}
	return match, nil
}

func refError(err error) string {
	if errors.Is(err, errAmbiguous) {
		return "Several items start with that id. Type more of it."
	}
	return "Nothing with that id. See /tasks and /events."
}

func taskIDs(tasks []domain.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func eventIDs(events []domain.CalendarEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
