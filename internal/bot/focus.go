package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flynesis-planner/internal/focus"
	"flynesis-planner/internal/planner"
)

const (
	focusStart = "start"
	focusPause = "pause"
	focusReset = "reset"
	focusShow  = "show"
)

// handleFocus shows the user's timer. An argument links the next session to
// a task.
func (b *Bot) handleFocus(ctx context.Context, msg *tgbotapi.Message) error {
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	timer := b.timerFor(msg.Chat.ID, msg.From.ID, ctl)
	if msg.IsCommand() {
		if ref := strings.TrimSpace(msg.CommandArguments()); ref != "" {
			id, err := resolveID(taskIDs(ctl.Tasks()), ref)
			if err != nil {
				return b.sendText(msg.Chat.ID, refError(err))
			}
			timer.SetTask(id)
		}
	}
	return b.sendFocus(ctx, msg.Chat.ID, ctl, timer.State())
}

func (b *Bot) focusAction(chatID int64, from *tgbotapi.User, ctl *planner.Controller, action string) error {
	timer := b.timerFor(chatID, from.ID, ctl)
	switch action {
	case focusStart:
		timer.Start()
	case focusPause:
		timer.Pause()
	case focusReset:
		timer.Reset()
	case focusShow:
	default:
		return nil
	}
	return b.sendFocus(context.Background(), chatID, ctl, timer.State())
}

// timerFor returns the user's timer, creating it on first use. Finished
// phases are announced in the chat.
func (b *Bot) timerFor(chatID, userID int64, ctl *planner.Controller) *focus.Timer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.timers[userID]; ok {
		return t
	}
	t := focus.NewTimer(ctl, b.cfg.Focus())
	t.OnPhaseEnd(func(ended focus.Phase, next focus.State) {
		b.reply(chatID, b.phaseEndText(ctl, ended, next))
	})
	b.timers[userID] = t
	return t
}

func (b *Bot) phaseEndText(ctl *planner.Controller, ended focus.Phase, next focus.State) string {
	if ended == focus.PhaseWork {
		today := ctl.FocusToday(context.Background(), b.now().In(b.loc))
		return fmt.Sprintf("🍅 <b>Focus session done!</b> Sessions today: %d.\n☕ Take a %s break, then /focus to start it.",
			today, next.Clock())
	}
	return "⏰ <b>Break is over.</b> Ready for the next session? /focus"
}

func (b *Bot) sendFocus(ctx context.Context, chatID int64, ctl *planner.Controller, state focus.State) error {
	phase := "🍅 Work"
	if state.Phase == focus.PhaseBreak {
		phase = "☕ Break"
	}
	status := "paused"
	if state.Running {
		status = "running"
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s · <b>%s</b> · %s\n", phase, state.Clock(), status))
	if state.TaskID != "" {
		if task, ok := ctl.Task(state.TaskID); ok {
			builder.WriteString(fmt.Sprintf("📌 %s\n", escape(task.Title)))
		}
	}
	builder.WriteString(fmt.Sprintf("Sessions today: %d", ctl.FocusToday(ctx, b.now().In(b.loc))))

	toggle := tgbotapi.NewInlineKeyboardButtonData("▶️ Start", cbFocus+focusStart)
	if state.Running {
		toggle = tgbotapi.NewInlineKeyboardButtonData("⏸ Pause", cbFocus+focusPause)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		toggle,
		tgbotapi.NewInlineKeyboardButtonData("⏹ Reset", cbFocus+focusReset),
		tgbotapi.NewInlineKeyboardButtonData("🔄", cbFocus+focusShow),
	))
	return b.sendWithReplyMarkup(chatID, builder.String(), markup)
}
