package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flynesis-planner/internal/auth"
	"flynesis-planner/internal/backup"
	"flynesis-planner/internal/config"
	"flynesis-planner/internal/focus"
	"flynesis-planner/internal/planner"
	"flynesis-planner/internal/service"
	"flynesis-planner/internal/storage"
)

// identityPrefix marks Telegram identities in fly_accounts.
const identityPrefix = "tg:"

// messenger is the part of the Telegram API the handlers use.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Deps are the services the bot works with.
type Deps struct {
	Store   *storage.Client
	Auth    *auth.Bootstrapper
	Backups *backup.Archive
	Config  config.Config
}

// Bot aggregates the Telegram API with the planner.
type Bot struct {
	api     messenger
	poller  *tgbotapi.BotAPI
	store   *storage.Client
	auth    *auth.Bootstrapper
	backups *backup.Archive
	agenda  *service.AgendaService
	tags    *service.TagService
	tasks   *service.TaskService
	events  *service.EventService
	cfg     config.Config
	loc     *time.Location
	now     func() time.Time
	fetch   func(ctx context.Context, url string) ([]byte, error)

	mu            sync.Mutex
	planners      map[int64]*planner.Controller
	timers        map[int64]*focus.Timer
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
}

func New(deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(deps.Config.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b, err := newBot(api, deps)
	if err != nil {
		return nil, err
	}
	b.poller = api
	return b, nil
}

func newBot(api messenger, deps Deps) (*Bot, error) {
	loc, err := deps.Config.Location()
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:           api,
		store:         deps.Store,
		auth:          deps.Auth,
		backups:       deps.Backups,
		agenda:        service.NewAgendaService(deps.Store),
		tags:          service.NewTagService(deps.Store),
		tasks:         service.NewTaskService(),
		events:        service.NewEventService(),
		cfg:           deps.Config,
		loc:           loc,
		now:           time.Now,
		fetch:         download,
		planners:      make(map[int64]*planner.Controller),
		timers:        make(map[int64]*focus.Timer),
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.poller == nil {
		return errors.New("bot has no telegram connection")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.poller.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.poller.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("[warn] handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("[warn] handle message: %v", err)
		}
	}
}

// Close stops every running focus timer.
func (b *Bot) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, t := range b.timers {
		t.Close()
		delete(b.timers, id)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /newtask, /newevent or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	// A command always abandons an unfinished dialog.
	b.clearConversation(msg.From.ID)
	b.clearConfirmation(msg.From.ID)

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "calendar":
		return b.handleCalendar(ctx, msg, "")
	case "day", "today":
		return b.handleCalendar(ctx, msg, "Day")
	case "week":
		return b.handleCalendar(ctx, msg, "Week")
	case "month":
		return b.handleCalendar(ctx, msg, "Month")
	case "events":
		return b.handleEvents(ctx, msg)
	case "tasks":
		return b.handleTasks(ctx, msg)
	case "tags":
		return b.handleTags(ctx, msg)
	case "newtask":
		return b.startTaskConversation(ctx, msg)
	case "newevent":
		return b.startEventConversation(ctx, msg)
	case "edit":
		return b.handleEdit(ctx, msg)
	case "move":
		return b.handleMove(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "focus":
		return b.handleFocus(ctx, msg)
	case "settings":
		return b.handleSettings(ctx, msg)
	case "digest":
		return b.handleDigest(ctx, msg)
	case "export":
		return b.handleExport(ctx, msg)
	case "import":
		return b.startImport(ctx, msg)
	case "reset":
		return b.askResetConfirmation(ctx, msg)
	case "ics":
		return b.handleICS(ctx, msg)
	case "cancel":
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From); !ok {
		return nil
	}
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your calendar, task board and focus sessions.</b>\n\n%s",
		escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "Commands:\n" +
	"• /calendar — your default view, /day, /week, /month &lt;YYYY-MM-DD&gt;\n" +
	"• /events &lt;query&gt; — find events\n" +
	"• /newevent — add an event\n" +
	"• /tasks &lt;query&gt; — task board\n" +
	"• /newtask — add a task\n" +
	"• /edit &lt;id&gt; — change a task or event\n" +
	"• /move &lt;id&gt; &lt;todo|doing|done&gt; — move a task\n" +
	"• /delete &lt;id&gt; — delete a task or event\n" +
	"• /tags — tags of open tasks\n" +
	"• /focus &lt;task id&gt; — Pomodoro timer\n" +
	"• /settings — week start, time format, default view\n" +
	"• /digest — today's agenda\n" +
	"• /export, /import, /reset, /ics — your data\n" +
	"• /cancel — stop the current dialog"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+helpText)
}

func (b *Bot) handleDigest(ctx context.Context, msg *tgbotapi.Message) error {
	ctl, ok := b.plannerFor(ctx, msg.Chat.ID, msg.From)
	if !ok {
		return nil
	}
	return b.sendText(msg.Chat.ID, b.agenda.DailyDigest(ctx, ctl.FlyID(), b.now().In(b.loc)))
}

// SendDailyDigests sends the agenda to every Telegram-linked account.
func (b *Bot) SendDailyDigests(ctx context.Context) error {
	identities, err := b.auth.Identities(ctx, identityPrefix)
	if err != nil {
		return err
	}
	now := b.now().In(b.loc)
	for _, id := range identities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		chatID, err := strconv.ParseInt(strings.TrimPrefix(id.AuthUserID, identityPrefix), 10, 64)
		if err != nil {
			log.Printf("[warn] skip digest for identity %s: %v", id.AuthUserID, err)
			continue
		}
		if err := b.sendText(chatID, b.agenda.DailyDigest(ctx, id.FlyID, now)); err != nil {
			log.Printf("[warn] send digest to %d: %v", chatID, err)
		}
	}
	return nil
}

// plannerFor returns the user's controller, bootstrapping it on first use.
// When the user cannot be signed in it replies with where to go and reports
// false.
func (b *Bot) plannerFor(ctx context.Context, chatID int64, from *tgbotapi.User) (*planner.Controller, bool) {
	b.mu.Lock()
	ctl, ok := b.planners[from.ID]
	b.mu.Unlock()
	if ok {
		return ctl, true
	}

	session := &auth.Session{UserID: fmt.Sprintf("%s%d", identityPrefix, from.ID)}
	ctl, err := planner.Bootstrap(ctx, b.auth, b.store, session)
	if err != nil {
		if url, redirect := auth.RedirectFor(err, b.cfg.LoginURL, b.cfg.SignupURL); redirect {
			text := "🔑 Please sign in first: " + escape(url)
			if errors.Is(err, auth.ErrNoAccount) {
				text = "🆕 No planner account is linked to this Telegram user yet. Sign up here: " + escape(url)
			}
			b.reply(chatID, text)
			return nil, false
		}
		log.Printf("[warn] bootstrap user=%d: %v", from.ID, err)
		b.reply(chatID, "⚠️ Could not load your planner. Try again later.")
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.planners[from.ID]; ok {
		return existing, true
	}
	b.planners[from.ID] = ctl
	log.Printf("[info] planner loaded user=%d flyid=%s", from.ID, ctl.FlyID())
	return ctl, true
}

// reply sends text and only logs a failure.
func (b *Bot) reply(chatID int64, text string) {
	if err := b.sendText(chatID, text); err != nil {
		log.Printf("[warn] send to %d: %v", chatID, err)
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendDocument(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(doc)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

// maxUpload bounds imported files.
const maxUpload = 5 << 20

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxUpload))
}

func escape(s string) string {
	return html.EscapeString(s)
}
