package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flynesis-planner/internal/ics"
	"flynesis-planner/internal/planner"
	"flynesis-planner/internal/storage"
)

// keepBackups is how many snapshots per account survive a prune.
const keepBackups = 10

func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message) error {
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	data := ctl.Export(ctx)
	name := fmt.Sprintf("flynesis-export-%s.json", b.now().In(b.loc).Format("2006-01-02"))
	return b.sendDocument(msg.Chat.ID, name, data, "📦 Your planner data. Send it back with /import to restore.")
}

func (b *Bot) handleICS(ctx context.Context, msg *tgbotapi.Message) error {
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	calendar, skipped := ics.Export(ctl.Events(), b.loc, b.now())
	caption := "📆 Import this file into any calendar app."
	if skipped > 0 {
		caption += fmt.Sprintf(" %d events with broken dates were left out.", skipped)
	}
	return b.sendDocument(msg.Chat.ID, "flynesis.ics", []byte(calendar), caption)
}

func (b *Bot) startImport(ctx context.Context, msg *tgbotapi.Message) error {
	if _, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From); !ok {
		return nil
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageImport})
	return b.sendWithReplyMarkup(msg.Chat.ID,
		"📥 Send the exported <code>.json</code> file. It <b>replaces</b> your events, tasks and focus sessions; a backup is taken first.",
		cancelKeyboard())
}

func (b *Bot) handleImportUpload(ctx context.Context, msg *tgbotapi.Message) error {
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	if msg.Document.FileSize > maxUpload {
		return b.sendText(msg.Chat.ID, "The file is too large.")
	}
	url, err := b.api.GetFileDirectURL(msg.Document.FileID)
	if err != nil {
		log.Printf("[warn] file url user=%d: %v", msg.From.ID, err)
		return b.sendText(msg.Chat.ID, "⚠️ Could not fetch the file. Try again.")
	}

	ctx, cancel := deadline(ctx)
	defer cancel()
	data, err := b.fetch(ctx, url)
	if err != nil {
		log.Printf("[warn] download import user=%d: %v", msg.From.ID, err)
		return b.sendText(msg.Chat.ID, "⚠️ Could not fetch the file. Try again.")
	}

	if err := storage.Validate(data); err != nil {
		return b.sendText(msg.Chat.ID, "❌ That file is not a planner export. Nothing changed.")
	}
	key, err := b.backupBefore(ctx, ctl)
	if err != nil {
		return b.sendText(msg.Chat.ID, "⚠️ Could not take a backup, nothing was imported.")
	}

	report, ok := ctl.Import(ctx, data)
	log.Printf("[info] import user=%d events=%d tasks=%d sessions=%d failed=%d backup=%s",
		msg.From.ID, report.Events, report.Tasks, report.Sessions, report.Failed, key)

	var builder strings.Builder
	if ok && report.Failed == 0 {
		builder.WriteString("✅ <b>Import finished</b>\n")
	} else {
		builder.WriteString("⚠️ <b>Import finished with errors</b>\n")
	}
	builder.WriteString(fmt.Sprintf("• Events: %d\n• Tasks: %d\n• Focus sessions: %d\n", report.Events, report.Tasks, report.Sessions))
	if report.Failed > 0 {
		builder.WriteString(fmt.Sprintf("• Not saved: %d\n", report.Failed))
	}
	if !ok {
		builder.WriteString("Some data could not be replaced.\n")
	}
	builder.WriteString(fmt.Sprintf("Backup: <code>%s</code>", escape(key)))
	return b.sendText(msg.Chat.ID, builder.String())
}

func (b *Bot) askResetConfirmation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From); !ok {
		return nil
	}
	b.setConfirmation(msg.From.ID, confirmationRequest{action: actionReset})
	return b.sendWithReplyMarkup(msg.Chat.ID,
		"🧨 Delete <b>all</b> events, tasks and focus sessions? Settings stay. A backup is taken first.",
		confirmKeyboard())
}

func (b *Bot) resetAccount(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	ctl, ok := b.plannerFor(ctx, chatID, from)
	if !ok {
		return nil
	}
	ctx, cancel := deadline(ctx)
	defer cancel()

	key, err := b.backupBefore(ctx, ctl)
	if err != nil {
		return b.sendText(chatID, "⚠️ Could not take a backup, nothing was deleted.")
	}
	if !ctl.Reset(ctx) {
		return b.sendText(chatID, "⚠️ The reset did not finish. Some data may remain.")
	}
	log.Printf("[info] reset user=%d backup=%s", from.ID, key)
	return b.sendText(chatID, fmt.Sprintf("🧹 Everything is cleared. Backup: <code>%s</code>", escape(key)))
}

// backupBefore archives the current data of the account and prunes old
// snapshots. It fails, and nothing is archived, when the data cannot be read.
func (b *Bot) backupBefore(ctx context.Context, ctl *planner.Controller) (string, error) {
	data, err := ctl.Backup(ctx)
	if err != nil {
		return "", err
	}
	key, err := b.backups.Save(ctl.FlyID(), data)
	if err != nil {
		log.Printf("[warn] backup %s: %v", ctl.FlyID(), err)
		return "", err
	}
	if _, err := b.backups.Prune(ctx, ctl.FlyID(), keepBackups); err != nil {
		log.Printf("[warn] prune backups %s: %v", ctl.FlyID(), err)
	}
	return key, nil
}
