// Package storage is the planner's store client. Every method is scoped by an
// account id and converts failures into sentinel results: reads return empty
// collections, writes return false. Failures are logged here once so callers
// only decide what to show the user.
package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"flynesis-planner/internal/domain"
	"flynesis-planner/internal/mapper"
	"flynesis-planner/internal/model"
	"flynesis-planner/internal/repository"
)

type Client struct {
	events   *repository.EventRepository
	tasks    *repository.TaskRepository
	settings *repository.SettingsRepository
	focus    *repository.FocusRepository
	now      func() time.Time
}

func NewClient(db *gorm.DB) *Client {
	return &Client{
		events:   repository.NewEventRepository(db),
		tasks:    repository.NewTaskRepository(db),
		settings: repository.NewSettingsRepository(db),
		focus:    repository.NewFocusRepository(db),
		now:      time.Now,
	}
}

// Events returns the account's events by date, then start minute.
func (c *Client) Events(ctx context.Context, flyID string) []domain.CalendarEvent {
	rows, err := c.events.ListByAccount(ctx, flyID)
	if err != nil {
		log.Printf("[warn] load events flyid=%s: %v", flyID, err)
		return []domain.CalendarEvent{}
	}
	return eventsFromRows(rows)
}

// EventsBetween returns events dated within the inclusive ISO range.
func (c *Client) EventsBetween(ctx context.Context, flyID, fromISO, toISO string) []domain.CalendarEvent {
	rows, err := c.events.ListBetween(ctx, flyID, fromISO, toISO)
	if err != nil {
		log.Printf("[warn] load events flyid=%s range=%s..%s: %v", flyID, fromISO, toISO, err)
		return []domain.CalendarEvent{}
	}
	return eventsFromRows(rows)
}

// SaveEvent creates the event when its id is a placeholder and updates it
// otherwise. The stored event is returned with its store-assigned id.
func (c *Client) SaveEvent(ctx context.Context, flyID string, event domain.CalendarEvent) (domain.CalendarEvent, bool) {
	rec := mapper.EventToStorage(event, flyID)
	if domain.IsPlaceholderID(event.ID) {
		if err := c.events.Create(ctx, &rec); err != nil {
			log.Printf("[warn] save event flyid=%s: %v", flyID, err)
			return domain.CalendarEvent{}, false
		}
		return mapper.EventFromStorage(rec), true
	}
	stored, err := c.events.Update(ctx, event.ID, &rec)
	if err != nil {
		log.Printf("[warn] save event id=%s flyid=%s: %v", event.ID, flyID, err)
		return domain.CalendarEvent{}, false
	}
	return mapper.EventFromStorage(*stored), true
}

func (c *Client) DeleteEvent(ctx context.Context, flyID, id string) bool {
	if err := c.events.Delete(ctx, flyID, id); err != nil {
		log.Printf("[warn] delete event id=%s flyid=%s: %v", id, flyID, err)
		return false
	}
	return true
}

// Tasks returns the account's tasks, newest first.
func (c *Client) Tasks(ctx context.Context, flyID string) []domain.Task {
	rows, err := c.tasks.ListByAccount(ctx, flyID)
	if err != nil {
		log.Printf("[warn] load tasks flyid=%s: %v", flyID, err)
		return []domain.Task{}
	}
	tasks := make([]domain.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, mapper.TaskFromStorage(r))
	}
	return tasks
}

// SaveTask routes placeholder ids to create and everything else to update.
// An update never changes the creation time.
func (c *Client) SaveTask(ctx context.Context, flyID string, task domain.Task) (domain.Task, bool) {
	rec := mapper.TaskToStorage(task, flyID)
	if domain.IsPlaceholderID(task.ID) {
		if err := c.tasks.Create(ctx, &rec); err != nil {
			log.Printf("[warn] save task flyid=%s: %v", flyID, err)
			return domain.Task{}, false
		}
		return mapper.TaskFromStorage(rec), true
	}
	stored, err := c.tasks.Update(ctx, task.ID, &rec)
	if err != nil {
		log.Printf("[warn] save task id=%s flyid=%s: %v", task.ID, flyID, err)
		return domain.Task{}, false
	}
	return mapper.TaskFromStorage(*stored), true
}

func (c *Client) DeleteTask(ctx context.Context, flyID, id string) bool {
	if err := c.tasks.Delete(ctx, flyID, id); err != nil {
		log.Printf("[warn] delete task id=%s flyid=%s: %v", id, flyID, err)
		return false
	}
	return true
}

// Settings returns the stored preferences, or the defaults when the account
// has no row or the read fails.
func (c *Client) Settings(ctx context.Context, flyID string) domain.Settings {
	row, err := c.settings.Find(ctx, flyID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[warn] load settings flyid=%s: %v", flyID, err)
		}
		return domain.DefaultSettings()
	}
	return mapper.SettingsFromStorage(*row)
}

func (c *Client) SaveSettings(ctx context.Context, flyID string, settings domain.Settings) bool {
	rec := mapper.SettingsToStorage(settings, flyID)
	if err := c.settings.Upsert(ctx, &rec); err != nil {
		log.Printf("[warn] save settings flyid=%s: %v", flyID, err)
		return false
	}
	return true
}

// FocusSessions returns completed sessions, most recent first.
func (c *Client) FocusSessions(ctx context.Context, flyID string) []domain.FocusSession {
	rows, err := c.focus.ListByAccount(ctx, flyID)
	if err != nil {
		log.Printf("[warn] load focus sessions flyid=%s: %v", flyID, err)
		return []domain.FocusSession{}
	}
	sessions := make([]domain.FocusSession, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, mapper.FocusSessionFromStorage(r))
	}
	return sessions
}

// SaveFocusSession appends a session. Sessions are never updated, so the id
// is ignored. A missing completion time is stamped with the current time.
func (c *Client) SaveFocusSession(ctx context.Context, flyID string, session domain.FocusSession) (domain.FocusSession, bool) {
	rec := mapper.FocusSessionToStorage(session, flyID)
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = c.now()
	}
	if err := c.focus.Create(ctx, &rec); err != nil {
		log.Printf("[warn] save focus session flyid=%s: %v", flyID, err)
		return domain.FocusSession{}, false
	}
	return mapper.FocusSessionFromStorage(rec), true
}

func eventsFromRows(rows []model.Event) []domain.CalendarEvent {
	events := make([]domain.CalendarEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, mapper.EventFromStorage(r))
	}
	return events
}
