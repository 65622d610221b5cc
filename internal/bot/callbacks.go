package bot

import (
	"context"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flynesis-planner/internal/domain"
)

const (
	cbCalendar    = "cal:"
	cbMove        = "move:"
	cbTaskDelete  = "tdel:"
	cbEventDelete = "edel:"
	cbTaskEdit    = "tedit:"
	cbEventEdit   = "eedit:"
	cbTaskUp      = "up:"
	cbSettings    = "set:"
	cbFocus       = "focus:"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[warn] callback ack: %v", err)
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	log.Printf("[info] callback user=%d data=%s", cb.From.ID, data)

	ctl, ok := b.plannerFor(ctx, chatID, cb.From)
	if !ok {
		return nil
	}

	switch {
	case strings.HasPrefix(data, cbCalendar):
		view, date, found := strings.Cut(strings.TrimPrefix(data, cbCalendar), ":")
		if !found {
			return nil
		}
		return b.sendCalendar(chatID, ctl, view, date)
	case strings.HasPrefix(data, cbMove):
		raw, id, found := strings.Cut(strings.TrimPrefix(data, cbMove), ":")
		status, valid := domain.ParseTaskStatus(raw)
		if !found || !valid {
			return nil
		}
		return b.moveTask(ctx, chatID, ctl, id, status)
	case strings.HasPrefix(data, cbTaskDelete):
		return b.askDeleteConfirmation(chatID, cb.From, ctl, actionDeleteTask, strings.TrimPrefix(data, cbTaskDelete))
	case strings.HasPrefix(data, cbEventDelete):
		return b.askDeleteConfirmation(chatID, cb.From, ctl, actionDeleteEvent, strings.TrimPrefix(data, cbEventDelete))
	case strings.HasPrefix(data, cbTaskEdit):
		b.clearConversation(cb.From.ID)
		return b.startTaskEdit(chatID, cb.From, ctl, strings.TrimPrefix(data, cbTaskEdit))
	case strings.HasPrefix(data, cbEventEdit):
		b.clearConversation(cb.From.ID)
		return b.startEventEdit(chatID, cb.From, ctl, strings.TrimPrefix(data, cbEventEdit))
	case strings.HasPrefix(data, cbTaskUp):
		return b.moveTaskUp(chatID, ctl, strings.TrimPrefix(data, cbTaskUp))
	case strings.HasPrefix(data, cbSettings):
		key, value, found := strings.Cut(strings.TrimPrefix(data, cbSettings), ":")
		if !found {
			return nil
		}
		return b.updateSetting(ctx, chatID, ctl, key, value)
	case strings.HasPrefix(data, cbFocus):
		return b.focusAction(chatID, cb.From, ctl, strings.TrimPrefix(data, cbFocus))
	default:
		return nil
	}
}
