package bot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"flynesis-planner/internal/auth"
	"flynesis-planner/internal/backup"
	"flynesis-planner/internal/config"
	"flynesis-planner/internal/domain"
	"flynesis-planner/internal/layout"
	"flynesis-planner/internal/model"
	"flynesis-planner/internal/planner"
	"flynesis-planner/internal/repository"
	"flynesis-planner/internal/storage"
)

var fixedNow = time.Date(2024, time.June, 10, 10, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return "https://files.example/" + fileID, nil
}

func (f *fakeAPI) texts() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	texts := f.texts()
	if len(texts) == 0 {
		t.Fatalf("nothing was sent")
	}
	return texts[len(texts)-1].Text
}

func (f *fakeAPI) documents() []tgbotapi.DocumentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.DocumentConfig
	for _, c := range f.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

type fixture struct {
	db      *gorm.DB
	bot     *Bot
	api     *fakeAPI
	store   *storage.Client
	backups *backup.Archive
}

func newFixture(t *testing.T, autoLink bool) *fixture {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "planner.db"), false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { sqlDB.Close() })
	}

	cfg := config.Default()
	cfg.Timezone = "UTC"
	store := storage.NewClient(db)
	archive := backup.Open(filepath.Join(t.TempDir(), "backups"))
	api := &fakeAPI{}
	b, err := newBot(api, Deps{
		Store:   store,
		Auth:    auth.NewBootstrapper(db, autoLink),
		Backups: archive,
		Config:  cfg,
	})
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	b.now = func() time.Time { return fixedNow }
	t.Cleanup(b.Close)
	return &fixture{db: db, bot: b, api: api, store: store, backups: archive}
}

func message(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, FirstName: "Ada"},
		Chat: &tgbotapi.Chat{ID: userID, Type: "private"},
		Text: text,
	}
}

func command(userID int64, text string) *tgbotapi.Message {
	msg := message(userID, text)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}}
	return msg
}

func (f *fixture) say(t *testing.T, msg *tgbotapi.Message) {
	t.Helper()
	if err := f.bot.handleMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle %q: %v", msg.Text, err)
	}
}

func (f *fixture) press(t *testing.T, userID int64, data string) {
	t.Helper()
	cb := &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID, Type: "private"}},
		Data:    data,
	}
	if err := f.bot.handleCallback(context.Background(), cb); err != nil {
		t.Fatalf("callback %q: %v", data, err)
	}
}

func (f *fixture) flyID(t *testing.T, userID int64) string {
	t.Helper()
	f.bot.mu.Lock()
	defer f.bot.mu.Unlock()
	ctl, ok := f.bot.planners[userID]
	if !ok {
		t.Fatalf("user %d has no planner", userID)
	}
	return ctl.FlyID()
}

func TestStartGreetsAndLinks(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/start"))
	if text := f.api.lastText(t); !strings.Contains(text, "Hi, Ada") {
		t.Fatalf("unexpected greeting: %s", text)
	}
	if got := f.store.Settings(context.Background(), f.flyID(t, 1)); got != domain.DefaultSettings() {
		t.Fatalf("settings not prepared: %+v", got)
	}
}

func TestUnlinkedUserIsSentToSignup(t *testing.T) {
	f := newFixture(t, false)
	f.say(t, command(1, "/tasks"))
	if text := f.api.lastText(t); !strings.Contains(text, f.bot.cfg.SignupURL) {
		t.Fatalf("expected signup link, got %s", text)
	}
	if len(f.bot.planners) != 0 {
		t.Fatalf("no planner should be cached")
	}
}

func TestNewTaskDialog(t *testing.T) {
	f := newFixture(t, true)
	for _, msg := range []*tgbotapi.Message{
		command(1, "/newtask"),
		message(1, "Buy milk"),
		message(1, "urgent"),
		message(1, "High"),
		message(1, "#home"),
		message(1, "30.06.2024"),
		message(1, "2024-06-30"),
	} {
		f.say(t, msg)
	}

	tasks := f.store.Tasks(context.Background(), f.flyID(t, 1))
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %+v", tasks)
	}
	task := tasks[0]
	if task.Title != "Buy milk" || task.Priority != domain.PriorityHigh || task.Tag != "home" || task.DueISO != "2024-06-30" || task.Status != domain.StatusTodo {
		t.Fatalf("unexpected task: %+v", task)
	}
	if domain.IsPlaceholderID(task.ID) {
		t.Fatalf("stored task kept a placeholder id: %s", task.ID)
	}
	if text := f.api.lastText(t); !strings.Contains(text, "Task saved") {
		t.Fatalf("unexpected summary: %s", text)
	}
	if f.bot.hasConversation(1) {
		t.Fatalf("dialog should be finished")
	}
}

func TestNewEventDialogAndDayView(t *testing.T) {
	f := newFixture(t, true)
	for _, msg := range []*tgbotapi.Message{
		command(1, "/newevent"),
		message(1, "Standup"),
		message(1, "2024-06-10"),
		message(1, "09:00"),
		message(1, "08:00"),
		message(1, "09:15"),
		message(1, "meeting"),
		message(1, "High"),
		message(1, "Room 4"),
		message(1, "orange"),
		message(1, "blue"),
	} {
		f.say(t, msg)
	}

	events := f.store.Events(context.Background(), f.flyID(t, 1))
	if len(events) != 1 {
		t.Fatalf("expected one event, got %+v", events)
	}
	e := events[0]
	if e.Title != "Standup" || e.StartMin != 540 || e.EndMin != 555 || e.Type != domain.EventMeeting {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.Priority != domain.PriorityHigh || e.Notes != "Room 4" || e.Color != "#4BA8FF" {
		t.Fatalf("optional steps were not applied: %+v", e)
	}
	if text := f.api.lastText(t); !strings.Contains(text, "Event saved") || !strings.Contains(text, "today") {
		t.Fatalf("unexpected summary: %s", text)
	}

	f.say(t, command(1, "/day 2024-06-10"))
	text := f.api.lastText(t)
	if !strings.Contains(text, "Standup") || !strings.Contains(text, "9:00–9:15") || !strings.Contains(text, "today") {
		t.Fatalf("unexpected day view: %s", text)
	}
}

func TestNewEventDefaultsToNextHalfHour(t *testing.T) {
	f := newFixture(t, true)
	f.bot.now = func() time.Time { return fixedNow.Add(20 * time.Minute) }
	f.say(t, command(1, "/newevent"))
	f.say(t, message(1, "Lunch"))
	for i := 0; i < 7; i++ {
		f.say(t, message(1, btnSkip))
	}

	events := f.store.Events(context.Background(), f.flyID(t, 1))
	if len(events) != 1 {
		t.Fatalf("expected one event, got %+v", events)
	}
	e := events[0]
	if e.DateISO != "2024-06-10" || e.StartMin != 10*60+30 || e.EndMin != 11*60+30 {
		t.Fatalf("unexpected defaults: %+v", e)
	}
	if e.Type != domain.EventTask || e.Priority != domain.PriorityMedium || e.Color != "#A472FF" || e.Notes != "" {
		t.Fatalf("unexpected defaults: %+v", e)
	}
}

func TestTimeKeyboardOffersNearbySlots(t *testing.T) {
	kb := timeKeyboard(9*60+10, true)
	var labels []string
	for _, button := range kb.Keyboard[0] {
		labels = append(labels, button.Text)
	}
	if got := strings.Join(labels, " "); got != "9:00 9:30 10:00 10:30" {
		t.Fatalf("slots = %s", got)
	}

	kb = timeKeyboard(23*60+50, false)
	last := kb.Keyboard[0][len(kb.Keyboard[0])-1].Text
	if len(kb.Keyboard[0]) != timeButtons || last != "11:30 PM" {
		t.Fatalf("late slots = %+v", kb.Keyboard[0])
	}
}

func TestEditEventKeepsIDAndPosition(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/start"))
	ctx := context.Background()
	ctl := f.bot.planners[1]
	var ids []string
	for _, title := range []string{"Gym", "Standup", "Dinner"} {
		e, ok := ctl.SaveEvent(ctx, domain.CalendarEvent{Title: title, DateISO: "2024-06-11", StartMin: 540, EndMin: 600,
			Type: domain.EventMeeting, Priority: domain.PriorityHigh, Notes: "old", Color: "#4BA8FF"})
		if !ok {
			t.Fatalf("save %s", title)
		}
		ids = append(ids, e.ID)
	}

	f.press(t, 1, cbEventEdit+ids[1])
	for _, text := range []string{"Standup v2", btnSkip, "11:00", btnSkip, btnSkip, "Low", btnClear, "Green"} {
		f.say(t, message(1, text))
	}
	if text := f.api.lastText(t); !strings.Contains(text, "Event updated") {
		t.Fatalf("unexpected summary: %s", text)
	}

	events := ctl.Events()
	if len(events) != 3 {
		t.Fatalf("edit must not add an event: %+v", events)
	}
	for i, id := range ids {
		if events[i].ID != id {
			t.Fatalf("position %d holds %s, want %s", i, events[i].ID, id)
		}
	}
	e := events[1]
	if e.Title != "Standup v2" || e.DateISO != "2024-06-11" || e.StartMin != 660 || e.EndMin != 720 {
		t.Fatalf("unexpected edited event: %+v", e)
	}
	if e.Type != domain.EventMeeting || e.Priority != domain.PriorityLow || e.Notes != "" || e.Color != "#10B981" {
		t.Fatalf("unexpected edited event: %+v", e)
	}

	stored := f.store.Events(ctx, ctl.FlyID())
	if len(stored) != 3 {
		t.Fatalf("store holds %d events", len(stored))
	}
	for _, s := range stored {
		if s.ID == ids[1] && s.Title != "Standup v2" {
			t.Fatalf("store kept the old title: %+v", s)
		}
	}
}

func TestEditTaskCommand(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/start"))
	ctx := context.Background()
	ctl := f.bot.planners[1]
	task, _ := ctl.SaveTask(ctx, domain.Task{Title: "Write", Status: domain.StatusDoing, Priority: domain.PriorityHigh,
		Tag: "work", DueISO: "2024-06-30"})

	f.say(t, command(1, "/edit"))
	if text := f.api.lastText(t); !strings.Contains(text, "Usage") {
		t.Fatalf("expected usage, got %s", text)
	}

	f.say(t, command(1, "/edit "+shortID(task.ID)))
	for _, text := range []string{btnSkip, "Low", btnClear, btnSkip} {
		f.say(t, message(1, text))
	}
	if text := f.api.lastText(t); !strings.Contains(text, "Task updated") {
		t.Fatalf("unexpected summary: %s", text)
	}

	got, ok := ctl.Task(task.ID)
	if !ok || len(ctl.Tasks()) != 1 {
		t.Fatalf("edit replaced the task: %+v", ctl.Tasks())
	}
	if got.Title != "Write" || got.Status != domain.StatusDoing || got.Priority != domain.PriorityLow || got.Tag != "" || got.DueISO != "2024-06-30" {
		t.Fatalf("unexpected edited task: %+v", got)
	}
}

func TestRaiseTaskWithinColumn(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/start"))
	ctx := context.Background()
	ctl := f.bot.planners[1]
	var ids []string
	for _, spec := range []struct {
		title  string
		status domain.TaskStatus
	}{{"A", domain.StatusTodo}, {"B", domain.StatusDone}, {"C", domain.StatusTodo}} {
		task, _ := ctl.SaveTask(ctx, domain.Task{Title: spec.title, Status: spec.status, Priority: domain.PriorityLow})
		ids = append(ids, task.ID)
	}

	f.press(t, 1, cbTaskUp+ids[2])
	todo := ctl.Board("").Todo
	if len(todo) != 2 || todo[0].ID != ids[2] || todo[1].ID != ids[0] {
		t.Fatalf("C should lead the todo column: %+v", todo)
	}
	if text := f.api.lastText(t); !strings.Contains(text, "Todo") {
		t.Fatalf("board was not shown again: %s", text)
	}

	f.press(t, 1, cbTaskUp+ids[2])
	if todo := ctl.Board("").Todo; todo[0].ID != ids[2] {
		t.Fatalf("the first task must stay first: %+v", todo)
	}
	if done := ctl.Board("").Done; len(done) != 1 || done[0].ID != ids[1] {
		t.Fatalf("other columns changed: %+v", done)
	}
}

func TestBoardOffersRaiseOnlyBelowTheTop(t *testing.T) {
	board := planner.Board{Todo: []domain.Task{
		{ID: "t1", Title: "A", Status: domain.StatusTodo},
		{ID: "t2", Title: "B", Status: domain.StatusTodo},
	}}
	_, buttons := renderBoard(board, fixedNow)
	if len(buttons) != 2 {
		t.Fatalf("expected two rows, got %d", len(buttons))
	}
	has := func(row []tgbotapi.InlineKeyboardButton, data string) bool {
		for _, b := range row {
			if b.CallbackData != nil && *b.CallbackData == data {
				return true
			}
		}
		return false
	}
	if has(buttons[0], cbTaskUp+"t1") || !has(buttons[1], cbTaskUp+"t2") {
		t.Fatalf("raise buttons misplaced: %+v", buttons)
	}
	if !has(buttons[0], cbTaskEdit+"t1") || !has(buttons[1], cbTaskEdit+"t2") {
		t.Fatalf("edit buttons missing: %+v", buttons)
	}
}

func TestStopAbandonsDialog(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/newtask"))
	f.say(t, message(1, btnCancelDialog))
	if f.bot.hasConversation(1) {
		t.Fatalf("dialog should be cleared")
	}
	if len(f.store.Tasks(context.Background(), f.flyID(t, 1))) != 0 {
		t.Fatalf("nothing should be saved")
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/start"))
	ctx := context.Background()
	ctl := f.bot.planners[1]
	task, ok := ctl.SaveTask(ctx, domain.Task{Title: "Old", Status: domain.StatusTodo, Priority: domain.PriorityLow})
	if !ok {
		t.Fatalf("save task")
	}

	f.say(t, command(1, "/delete "+shortID(task.ID)))
	if _, pending := f.bot.getConfirmation(1); !pending {
		t.Fatalf("delete should wait for confirmation")
	}
	f.say(t, message(1, btnCancel))
	if len(f.store.Tasks(ctx, ctl.FlyID())) != 1 {
		t.Fatalf("cancel must keep the task")
	}

	f.press(t, 1, cbTaskDelete+task.ID)
	f.say(t, message(1, btnConfirm))
	if len(f.store.Tasks(ctx, ctl.FlyID())) != 0 || len(ctl.Tasks()) != 0 {
		t.Fatalf("task should be gone")
	}
}

func TestMoveAndSettingsCallbacks(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/start"))
	ctx := context.Background()
	ctl := f.bot.planners[1]
	task, _ := ctl.SaveTask(ctx, domain.Task{Title: "Write", Status: domain.StatusTodo, Priority: domain.PriorityMedium})

	f.press(t, 1, moveData(domain.StatusDoing, task.ID))
	stored := f.store.Tasks(ctx, ctl.FlyID())
	if len(stored) != 1 || stored[0].Status != domain.StatusDoing {
		t.Fatalf("task not moved: %+v", stored)
	}

	f.say(t, command(1, "/move "+shortID(task.ID)+" done"))
	if got, _ := ctl.Task(task.ID); got.Status != domain.StatusDone {
		t.Fatalf("task not moved by command: %+v", got)
	}

	f.press(t, 1, cbSettings+"week:Sun")
	f.press(t, 1, cbSettings+"time:12h")
	want := domain.Settings{WeekStart: domain.WeekStartSun, TimeFormat: domain.TimeFormat12h, DefaultView: domain.ViewWeek}
	if got := f.store.Settings(ctx, ctl.FlyID()); got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

func TestResetTakesBackupFirst(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/start"))
	ctx := context.Background()
	ctl := f.bot.planners[1]
	ctl.SaveEvent(ctx, domain.CalendarEvent{Title: "Gig", DateISO: "2024-06-12", StartMin: 1200, EndMin: 1260,
		Type: domain.EventMusic, Priority: domain.PriorityHigh, Color: "#FF7CEB"})

	f.say(t, command(1, "/reset"))
	f.say(t, message(1, btnConfirm))

	if len(f.store.Events(ctx, ctl.FlyID())) != 0 || len(ctl.Events()) != 0 {
		t.Fatalf("events should be cleared")
	}
	keys := f.backups.List(ctx, ctl.FlyID())
	if len(keys) != 1 {
		t.Fatalf("expected one backup, got %v", keys)
	}
	data, err := f.backups.Read(keys[0])
	if err != nil || !strings.Contains(string(data), "Gig") {
		t.Fatalf("backup lost the event: %s, %v", data, err)
	}
}

func TestResetRefusesWithoutReadableBackup(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/start"))
	ctx := context.Background()
	ctl := f.bot.planners[1]
	ctl.SaveEvent(ctx, domain.CalendarEvent{Title: "Gig", DateISO: "2024-06-12", StartMin: 1200, EndMin: 1260,
		Type: domain.EventMusic, Priority: domain.PriorityHigh, Color: "#FF7CEB"})
	if err := f.db.Migrator().DropTable(&model.FocusSession{}); err != nil {
		t.Fatalf("drop focus sessions: %v", err)
	}

	f.say(t, command(1, "/reset"))
	f.say(t, message(1, btnConfirm))
	if text := f.api.lastText(t); !strings.Contains(text, "Could not take a backup") {
		t.Fatalf("unexpected reply: %s", text)
	}
	if keys := f.backups.List(ctx, ctl.FlyID()); len(keys) != 0 {
		t.Fatalf("an incomplete snapshot was archived: %v", keys)
	}
	if len(f.store.Events(ctx, ctl.FlyID())) != 1 {
		t.Fatalf("events must survive a refused reset")
	}
}

func TestImportUpload(t *testing.T) {
	f := newFixture(t, true)
	doc := `{"events":[{"id":"x","title":"Gig","dateISO":"2024-06-12","startMin":1200,"endMin":1260,"type":"Music","priority":"High","color":"#FF7CEB"}],"tasks":[]}`
	var fetched string
	f.bot.fetch = func(_ context.Context, url string) ([]byte, error) {
		fetched = url
		if strings.HasSuffix(url, "/broken") {
			return []byte(`{"events":"nope"}`), nil
		}
		if strings.HasSuffix(url, "/offline") {
			return nil, errors.New("offline")
		}
		return []byte(doc), nil
	}
	upload := func(fileID string) *tgbotapi.Message {
		msg := message(1, "")
		msg.Document = &tgbotapi.Document{FileID: fileID, FileName: "export.json", FileSize: 200}
		return msg
	}

	f.say(t, command(1, "/import"))
	f.say(t, upload("broken"))
	if text := f.api.lastText(t); !strings.Contains(text, "not a planner export") {
		t.Fatalf("unexpected reply: %s", text)
	}

	f.say(t, command(1, "/import"))
	f.say(t, upload("offline"))
	if text := f.api.lastText(t); !strings.Contains(text, "Could not fetch") {
		t.Fatalf("unexpected reply: %s", text)
	}

	f.say(t, command(1, "/import"))
	f.say(t, upload("good"))
	if fetched != "https://files.example/good" {
		t.Fatalf("unexpected download url %s", fetched)
	}
	ctx := context.Background()
	events := f.store.Events(ctx, f.flyID(t, 1))
	if len(events) != 1 || events[0].Title != "Gig" || events[0].ID == "x" {
		t.Fatalf("unexpected events after import: %+v", events)
	}
	if text := f.api.lastText(t); !strings.Contains(text, "Import finished") {
		t.Fatalf("unexpected reply: %s", text)
	}
	if len(f.backups.List(ctx, f.flyID(t, 1))) != 1 {
		t.Fatalf("import should take one backup")
	}
}

func TestExportAndICSDocuments(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/start"))
	ctl := f.bot.planners[1]
	ctl.SaveEvent(context.Background(), domain.CalendarEvent{Title: "Gig", DateISO: "2024-06-12", StartMin: 1200, EndMin: 1260,
		Type: domain.EventMusic, Priority: domain.PriorityHigh, Color: "#FF7CEB"})

	f.say(t, command(1, "/export"))
	f.say(t, command(1, "/ics"))
	docs := f.api.documents()
	if len(docs) != 2 {
		t.Fatalf("expected two documents, got %d", len(docs))
	}
	export, ok := docs[0].File.(tgbotapi.FileBytes)
	if !ok || export.Name != "flynesis-export-2024-06-10.json" || !strings.Contains(string(export.Bytes), `"title": "Gig"`) {
		t.Fatalf("unexpected export document: %+v", docs[0].File)
	}
	calendar, ok := docs[1].File.(tgbotapi.FileBytes)
	if !ok || !strings.Contains(string(calendar.Bytes), "SUMMARY:Gig") {
		t.Fatalf("unexpected ics document: %+v", docs[1].File)
	}
}

func TestDailyDigestsGoToLinkedUsers(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/start"))
	f.say(t, command(2, "/start"))
	before := len(f.api.texts())

	if err := f.bot.SendDailyDigests(context.Background()); err != nil {
		t.Fatalf("digests: %v", err)
	}
	sent := f.api.texts()[before:]
	if len(sent) != 2 {
		t.Fatalf("expected two digests, got %d", len(sent))
	}
	chats := map[int64]bool{}
	for _, m := range sent {
		if !strings.Contains(m.Text, "Daily agenda") {
			t.Fatalf("unexpected digest to %d: %s", m.ChatID, m.Text)
		}
		chats[m.ChatID] = true
	}
	if !chats[1] || !chats[2] {
		t.Fatalf("digests went to %v", chats)
	}
}

func TestFocusTimersCloseOnShutdown(t *testing.T) {
	f := newFixture(t, true)
	f.say(t, command(1, "/focus"))
	if text := f.api.lastText(t); !strings.Contains(text, "25:00") {
		t.Fatalf("unexpected focus view: %s", text)
	}
	f.press(t, 1, cbFocus+focusStart)
	timer := f.bot.timers[1]
	if !timer.State().Running {
		t.Fatalf("timer should run")
	}
	f.bot.Close()
	if timer.State().Running || timer.Start() {
		t.Fatalf("closed timer must not run")
	}
	if len(f.bot.timers) != 0 {
		t.Fatalf("timers should be released")
	}
}

func TestResolveID(t *testing.T) {
	ids := []string{"3f2a9c10-aaaa", "3f2b0000-bbbb", "77aa0000-cccc"}
	cases := []struct {
		ref  string
		want string
		err  error
	}{
		{"77aa", "77aa0000-cccc", nil},
		{"3f2a9c10-aaaa", "3f2a9c10-aaaa", nil},
		{"3f2", "", errNotFound},
		{"3f2a", "3f2a9c10-aaaa", nil},
		{"zzzz", "", errNotFound},
	}
	for _, c := range cases {
		got, err := resolveID(ids, c.ref)
		if got != c.want || !errors.Is(err, c.err) {
			t.Fatalf("resolveID(%q) = %q, %v", c.ref, got, err)
		}
	}
	if _, err := resolveID([]string{"abcd-1", "abcd-2"}, "abcd"); !errors.Is(err, errAmbiguous) {
		t.Fatalf("expected errAmbiguous, got %v", err)
	}
}

func TestApplySetting(t *testing.T) {
	s := domain.DefaultSettings()
	s, err := applySetting(s, "view", "month")
	if err != nil || s.DefaultView != domain.ViewMonth {
		t.Fatalf("view: %+v, %v", s, err)
	}
	if _, err := applySetting(s, "week", "friday"); err == nil {
		t.Fatalf("friday is not a week start")
	}
	if _, err := applySetting(s, "colour", "red"); err == nil {
		t.Fatalf("unknown key should fail")
	}
}

func TestRenderMonthCollapsesBusyDays(t *testing.T) {
	var events []domain.CalendarEvent
	for i := 0; i < 5; i++ {
		events = append(events, domain.CalendarEvent{Title: "E" + string(rune('A'+i)), DateISO: "2024-06-14", StartMin: 540 + i*10, EndMin: 600 + i*10})
	}
	v, err := layout.Render(domain.ViewMonth, fixedNow, events, layout.Options{WeekStart: domain.WeekStartMon, Today: fixedNow})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	text := renderView(v, true)
	if !strings.Contains(text, "June 2024") || !strings.Contains(text, "EA, EB, EC <i>+2 more</i>") {
		t.Fatalf("unexpected month text: %s", text)
	}

	kb := calendarKeyboard(v)
	if got := kb.InlineKeyboard[0][0].CallbackData; got == nil || *got != "cal:Month:2024-05-26" {
		t.Fatalf("unexpected previous page %v", got)
	}
}
