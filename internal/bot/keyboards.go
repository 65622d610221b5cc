package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flynesis-planner/internal/datetime"
	"flynesis-planner/internal/domain"
	"flynesis-planner/internal/service"
)

const (
	btnSkip         = "⏭️ Skip"
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	btnCancelDialog = "⏪ Stop"
	btnClear        = "🧹 Clear"

	menuLabelCalendar = "🗓 Calendar"
	menuLabelTasks    = "📋 Tasks"
	menuLabelNewTask  = "➕ Task"
	menuLabelNewEvent = "➕ Event"
	menuLabelFocus    = "🍅 Focus"
	menuLabelHelp     = "ℹ️ Help"
)

// maxTagButtons limits the tag suggestions offered in the task dialog.
const maxTagButtons = 6

// timeButtons is how many half-hour slots the time steps offer.
const timeButtons = 4

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	if !isMenuLabel(text) {
		return false, nil
	}
	// The menu always abandons an unfinished dialog.
	b.clearConversation(msg.From.ID)
	b.clearConfirmation(msg.From.ID)

	switch text {
	case strings.ToLower(menuLabelCalendar):
		return true, b.handleCalendar(ctx, msg, "")
	case strings.ToLower(menuLabelTasks):
		return true, b.handleTasks(ctx, msg)
	case strings.ToLower(menuLabelNewTask):
		return true, b.startTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelNewEvent):
		return true, b.startEventConversation(ctx, msg)
	case strings.ToLower(menuLabelFocus):
		return true, b.handleFocus(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func isMenuLabel(text string) bool {
	for _, label := range []string{menuLabelCalendar, menuLabelTasks, menuLabelNewTask, menuLabelNewEvent, menuLabelFocus, menuLabelHelp} {
		if text == strings.ToLower(label) {
			return true
		}
	}
	return false
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCalendar),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewEvent),
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelFocus),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(domain.Priorities))
	for _, p := range domain.Priorities {
		row = append(row, tgbotapi.NewKeyboardButton(string(p)))
	}
	kb := tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func eventTypeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(domain.EventTypes); i += 3 {
		end := min(i+3, len(domain.EventTypes))
		var row []tgbotapi.KeyboardButton
		for _, t := range domain.EventTypes[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(string(t)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// tagKeyboard suggests the user's existing tags.
func (b *Bot) tagKeyboard(ctx context.Context, from *tgbotapi.User, clearable bool) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	b.mu.Lock()
	ctl := b.planners[from.ID]
	b.mu.Unlock()
	if ctl != nil {
		tags := b.tags.List(ctx, ctl.FlyID())
		if len(tags) > maxTagButtons {
			tags = tags[:maxTagButtons]
		}
		var row []tgbotapi.KeyboardButton
		for _, t := range tags {
			row = append(row, tgbotapi.NewKeyboardButton("#"+t.Tag))
			if len(row) == 3 {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	rows = append(rows, optionalRow(clearable))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// optionalKeyboard is the skip keyboard of a free-text step. While editing it
// also offers to clear the current value.
func optionalKeyboard(clearable bool) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(optionalRow(clearable))
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func optionalRow(clearable bool) []tgbotapi.KeyboardButton {
	row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSkip))
	if clearable {
		row = append(row, tgbotapi.NewKeyboardButton(btnClear))
	}
	return append(row, tgbotapi.NewKeyboardButton(btnCancelDialog))
}

func colorKeyboard() tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(service.Palette))
	for _, swatch := range service.Palette {
		row = append(row, tgbotapi.NewKeyboardButton(swatch.Name))
	}
	kb := tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// timeKeyboard offers the half-hour slots starting at the one closest to
// the suggested minute.
func timeKeyboard(suggested int, format24h bool) tgbotapi.ReplyKeyboardMarkup {
	slots := datetime.TimeSlots(format24h)
	first := (datetime.RoundToNearest30(suggested) - datetime.FirstHour*60) / 30
	first = min(max(first, 0), len(slots)-timeButtons)

	row := make([]tgbotapi.KeyboardButton, 0, timeButtons)
	for _, slot := range slots[first : first+timeButtons] {
		row = append(row, tgbotapi.NewKeyboardButton(slot))
	}
	kb := tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isClearInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnClear) || value == "clear"
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop"
}
