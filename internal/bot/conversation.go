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
	"flynesis-planner/internal/planner"
	"flynesis-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTaskTitle
	stageTaskPriority
	stageTaskTag
	stageTaskDue
	stageEventTitle
	stageEventDate
	stageEventStart
	stageEventEnd
	stageEventType
	stageEventPriority
	stageEventNotes
	stageEventColor
	stageImport
)

// defaultEventLength is the span a new event gets when the end is skipped.
const defaultEventLength = 60

// conversationState is one user's open dialog. editID names the task or
// event being edited; it is empty for a new one.
type conversationState struct {
	stage    conversationStage
	editID   string
	startMin int
	task     service.TaskInput
	event    service.EventInput
}

func (s *conversationState) editing() bool { return s.editID != "" }

type confirmationAction int

const (
	actionDeleteTask confirmationAction = iota
	actionDeleteEvent
	actionReset
)

type confirmationRequest struct {
	action confirmationAction
	id     string
}

func (b *Bot) startTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From); !ok {
		return nil
	}
	log.Printf("[info] start task dialog user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTaskTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) startEventConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From); !ok {
		return nil
	}
	log.Printf("[info] start event dialog user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageEventTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "📅 New event.\n<b>Step 1:</b> what is it?", cancelKeyboard())
}

// handleEdit starts the edit dialog of the task or event named by the
// argument. Tasks win when a prefix matches both.
func (b *Bot) handleEdit(ctx context.Context, msg *tgbotapi.Message) error {
	ref := strings.TrimSpace(msg.CommandArguments())
	if ref == "" {
		return b.sendText(msg.Chat.ID, "Usage: /edit &lt;id&gt; (ids are listed by /tasks and /events)")
	}
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	if id, err := resolveID(taskIDs(ctl.Tasks()), ref); err == nil {
		return b.startTaskEdit(msg.Chat.ID, msg.From, ctl, id)
	} else if errors.Is(err, errAmbiguous) {
		return b.sendText(msg.Chat.ID, refError(err))
	}
	id, err := resolveID(eventIDs(ctl.Events()), ref)
	if err != nil {
		return b.sendText(msg.Chat.ID, refError(err))
	}
	return b.startEventEdit(msg.Chat.ID, msg.From, ctl, id)
}

func (b *Bot) startTaskEdit(chatID int64, from *tgbotapi.User, ctl *planner.Controller, id string) error {
	task, ok := ctl.Task(id)
	if !ok {
		return b.sendText(chatID, "Task not found.")
	}
	log.Printf("[info] start task edit id=%s user=%d", id, from.ID)
	b.setConversation(from.ID, &conversationState{stage: stageTaskTitle, editID: id})
	return b.sendWithReplyMarkup(chatID,
		fmt.Sprintf("✏️ Editing «%s».\nSkip any step to keep the current value.\n<b>Step 1:</b> new title?", escape(task.Title)),
		skipKeyboard())
}

func (b *Bot) startEventEdit(chatID int64, from *tgbotapi.User, ctl *planner.Controller, id string) error {
	event, ok := ctl.Event(id)
	if !ok {
		return b.sendText(chatID, "Event not found.")
	}
	log.Printf("[info] start event edit id=%s user=%d", id, from.ID)
	b.setConversation(from.ID, &conversationState{stage: stageEventTitle, editID: id})
	return b.sendWithReplyMarkup(chatID,
		fmt.Sprintf("✏️ Editing «%s» on %s.\nSkip any step to keep the current value.\n<b>Step 1:</b> new title?",
			escape(event.Title), event.DateISO),
		skipKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	skip := isSkipInput(text)
	switch state.stage {
	case stageTaskTitle:
		if skip && state.editing() {
			text = ""
		} else if text == "" || skip {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty.", cancelKeyboard())
		}
		state.task.Title = text
		state.stage = stageTaskPriority
		return b.sendWithReplyMarkup(msg.Chat.ID, b.taskPrompt(ctl, state, "⚡ Priority?"), priorityKeyboard())
	case stageTaskPriority:
		if !skip {
			if _, ok := domain.ParsePriority(text); !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Low, Medium or High.", priorityKeyboard())
			}
			state.task.Priority = text
		}
		state.stage = stageTaskTag
		return b.sendWithReplyMarkup(msg.Chat.ID, b.taskPrompt(ctl, state, "🏷 Tag? Pick one or type a new one."),
			b.tagKeyboard(ctx, msg.From, state.editing()))
	case stageTaskTag:
		switch {
		case isClearInput(text) && state.editing():
			state.task.ClearTag = true
		case !skip:
			state.task.Tag = strings.TrimPrefix(text, "#")
		}
		state.stage = stageTaskDue
		return b.sendWithReplyMarkup(msg.Chat.ID, b.taskPrompt(ctl, state, "⏰ Due date as <code>2024-06-30</code>?"),
			optionalKeyboard(state.editing()))
	case stageTaskDue:
		switch {
		case isClearInput(text) && state.editing():
			state.task.ClearDue = true
		case !skip:
			if _, err := datetime.ParseISO(text, b.loc); err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2024-06-30</code> or skip.",
					optionalKeyboard(state.editing()))
			}
			state.task.Due = text
		}
		b.clearConversation(msg.From.ID)
		return b.finishTask(ctx, msg, ctl, state)

	case stageEventTitle:
		if skip && state.editing() {
			text = ""
		} else if text == "" || skip {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty.", cancelKeyboard())
		}
		state.event.Title = text
		state.stage = stageEventDate
		return b.sendWithReplyMarkup(msg.Chat.ID,
			fmt.Sprintf("🗓 Date as <code>2024-06-30</code>? Skip for %s.", b.eventDateDefault(ctl, state)), skipKeyboard())
	case stageEventDate:
		if skip {
			text = b.eventDateDefault(ctl, state)
		}
		if _, err := datetime.ParseISO(text, b.loc); err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2024-06-30</code> or skip.", skipKeyboard())
		}
		state.event.Date = text
		state.stage = stageEventStart
		return b.promptClock(msg.Chat.ID, ctl, "🕘 Start time? <code>09:00</code> or <code>9:00 AM</code>.", b.eventStartDefault(ctl, state))
	case stageEventStart:
		start := b.eventStartDefault(ctl, state)
		if !skip {
			parsed, err := datetime.ParseClock(text)
			if err != nil {
				return b.promptClock(msg.Chat.ID, ctl, "I cannot read that time. Try <code>09:00</code>.", start)
			}
			start = parsed
		}
		state.startMin = start
		state.event.Start = datetime.FormatClock(start)
		state.stage = stageEventEnd
		return b.promptClock(msg.Chat.ID, ctl, "🕙 End time?", b.eventEndDefault(ctl, state))
	case stageEventEnd:
		end := b.eventEndDefault(ctl, state)
		if !skip {
			parsed, err := datetime.ParseClock(text)
			if err != nil {
				return b.promptClock(msg.Chat.ID, ctl, "I cannot read that time. Try <code>10:00</code>.", end)
			}
			end = parsed
		}
		if !datetime.ValidRange(state.startMin, end) {
			return b.promptClock(msg.Chat.ID, ctl, "The event must end after it starts, on the same day.",
				min(state.startMin+30, datetime.MinutesPerDay-1))
		}
		state.event.End = datetime.FormatClock(end)
		state.stage = stageEventType
		return b.sendWithReplyMarkup(msg.Chat.ID, b.eventPrompt(ctl, state, "🏷 What kind of event?"), eventTypeKeyboard())
	case stageEventType:
		if !skip {
			if _, ok := domain.ParseEventType(text); !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the buttons.", eventTypeKeyboard())
			}
			state.event.Type = text
		}
		state.stage = stageEventPriority
		return b.sendWithReplyMarkup(msg.Chat.ID, b.eventPrompt(ctl, state, "⚡ Priority?"), priorityKeyboard())
	case stageEventPriority:
		if !skip {
			if _, ok := domain.ParsePriority(text); !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Low, Medium or High.", priorityKeyboard())
			}
			state.event.Priority = text
		}
		state.stage = stageEventNotes
		return b.sendWithReplyMarkup(msg.Chat.ID, b.eventPrompt(ctl, state, "📝 Notes?"), optionalKeyboard(state.editing()))
	case stageEventNotes:
		switch {
		case isClearInput(text) && state.editing():
			state.event.ClearNotes = true
		case !skip:
			state.event.Notes = text
		}
		state.stage = stageEventColor
		return b.sendWithReplyMarkup(msg.Chat.ID, b.eventPrompt(ctl, state, "🎨 Color?"), colorKeyboard())
	case stageEventColor:
		if !skip {
			if _, ok := service.ParseColor(text); !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the buttons.", colorKeyboard())
			}
			state.event.Color = text
		}
		b.clearConversation(msg.From.ID)
		return b.finishEvent(ctx, msg, ctl, state)

	case stageImport:
		if msg.Document == nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Send the exported <code>.json</code> file as a document.", cancelKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.handleImportUpload(ctx, msg)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "The dialog was reset. Start again with /newtask or /newevent.")
	}
}

// taskPrompt adds the current value of the edited task to a question.
func (b *Bot) taskPrompt(ctl *planner.Controller, state *conversationState, question string) string {
	if !state.editing() {
		return question + " (skip for the default)"
	}
	task, ok := ctl.Task(state.editID)
	if !ok {
		return question
	}
	var current string
	switch state.stage {
	case stageTaskPriority:
		current = string(task.Priority)
	case stageTaskTag:
		current = "#" + task.Tag
		if task.Tag == "" {
			current = "none"
		}
	case stageTaskDue:
		current = task.DueISO
		if current == "" {
			current = "none"
		}
	}
	return fmt.Sprintf("%s Now: <b>%s</b>", question, escape(current))
}

// eventPrompt adds the current value of the edited event to a question.
func (b *Bot) eventPrompt(ctl *planner.Controller, state *conversationState, question string) string {
	if !state.editing() {
		return question + " (skip for the default)"
	}
	event, ok := ctl.Event(state.editID)
	if !ok {
		return question
	}
	var current string
	switch state.stage {
	case stageEventType:
		current = string(event.Type)
	case stageEventPriority:
		current = string(event.Priority)
	case stageEventNotes:
		current = event.Notes
		if current == "" {
			current = "none"
		}
	case stageEventColor:
		current = event.Color
	}
	return fmt.Sprintf("%s Now: <b>%s</b>", question, escape(current))
}

func (b *Bot) promptClock(chatID int64, ctl *planner.Controller, question string, suggested int) error {
	format24h := ctl.Settings().TimeFormat.Is24h()
	text := fmt.Sprintf("%s Skip for <b>%s</b>.", question, datetime.FormatMinutes(suggested, format24h))
	return b.sendWithReplyMarkup(chatID, text, timeKeyboard(suggested, format24h))
}

func (b *Bot) eventDateDefault(ctl *planner.Controller, state *conversationState) string {
	if event, ok := b.editedEvent(ctl, state); ok {
		return event.DateISO
	}
	return datetime.DateISO(b.now().In(b.loc))
}

// eventStartDefault is the edited event's start, or the half hour closest
// to now for a new event.
func (b *Bot) eventStartDefault(ctl *planner.Controller, state *conversationState) int {
	if event, ok := b.editedEvent(ctl, state); ok {
		return event.StartMin
	}
	now := b.now().In(b.loc)
	start := datetime.RoundToNearest30(now.Hour()*60 + now.Minute())
	return min(max(start, datetime.FirstHour*60), 23*60)
}

// eventEndDefault keeps the edited event's length, or gives a new event an
// hour. It never passes the last minute of the day.
func (b *Bot) eventEndDefault(ctl *planner.Controller, state *conversationState) int {
	length := defaultEventLength
	if event, ok := b.editedEvent(ctl, state); ok {
		length = event.EndMin - event.StartMin
	}
	return min(state.startMin+length, datetime.MinutesPerDay-1)
}

func (b *Bot) editedEvent(ctl *planner.Controller, state *conversationState) (domain.CalendarEvent, bool) {
	if !state.editing() {
		return domain.CalendarEvent{}, false
	}
	return ctl.Event(state.editID)
}

func (b *Bot) finishTask(ctx context.Context, msg *tgbotapi.Message, ctl *planner.Controller, state *conversationState) error {
	var existing *domain.Task
	if state.editing() {
		task, ok := ctl.Task(state.editID)
		if !ok {
			return b.sendText(msg.Chat.ID, "The task is gone, nothing was saved.")
		}
		existing = &task
	}
	draft, err := b.tasks.Draft(state.task, existing)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Cannot save the task: %s", escape(err.Error())))
	}
	task, ok := ctl.SaveTask(ctx, draft)
	if !ok {
		return b.sendText(msg.Chat.ID, "⚠️ The task was not saved. Try again later.")
	}

	var summary strings.Builder
	if existing != nil {
		log.Printf("[info] task updated id=%s user=%d", task.ID, msg.From.ID)
		summary.WriteString("✅ <b>Task updated</b>\n")
	} else {
		log.Printf("[info] task created id=%s user=%d", task.ID, msg.From.ID)
		summary.WriteString("✅ <b>Task saved</b>\n")
	}
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", shortID(task.ID)))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	summary.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	if task.Tag != "" {
		summary.WriteString(fmt.Sprintf("• <b>Tag:</b> #%s\n", escape(task.Tag)))
	}
	if task.DueISO != "" {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueISO))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(summary.String()))
}

func (b *Bot) finishEvent(ctx context.Context, msg *tgbotapi.Message, ctl *planner.Controller, state *conversationState) error {
	var existing *domain.CalendarEvent
	if state.editing() {
		event, ok := ctl.Event(state.editID)
		if !ok {
			return b.sendText(msg.Chat.ID, "The event is gone, nothing was saved.")
		}
		existing = &event
	}
	draft, err := b.events.Draft(state.event, existing)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Cannot save the event: %s", escape(err.Error())))
	}
	event, ok := ctl.SaveEvent(ctx, draft)
	if !ok {
		return b.sendText(msg.Chat.ID, "⚠️ The event was not saved. Try again later.")
	}

	verb := "saved"
	if existing != nil {
		verb = "updated"
	}
	log.Printf("[info] event %s id=%s user=%d", verb, event.ID, msg.From.ID)

	day := event.DateISO
	if datetime.IsToday(day, b.now().In(b.loc)) {
		day += " · today"
	}
	format24h := ctl.Settings().TimeFormat.Is24h()
	text := fmt.Sprintf("✅ <b>Event %s</b> <code>%s</code>\n🗓 %s\n%s",
		verb, shortID(event.ID), day, service.FormatEvent(event, format24h))
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		switch req.action {
		case actionDeleteTask:
			return b.deleteTask(ctx, msg.Chat.ID, msg.From, req.id)
		case actionDeleteEvent:
			return b.deleteEvent(ctx, msg.Chat.ID, msg.From, req.id)
		default:
			return b.resetAccount(ctx, msg.Chat.ID, msg.From)
		}
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "👌 Nothing changed.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel.", confirmKeyboard())
	}
}

// deadline bounds the store work of one confirmed action.
func deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 30*time.Second)
}

var errNotFound = errors.New("not found")
