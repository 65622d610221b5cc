// Package planner holds the in-memory view state of one signed-in account.
package planner

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"flynesis-planner/internal/auth"
	"flynesis-planner/internal/domain"
	"flynesis-planner/internal/focus"
	"flynesis-planner/internal/layout"
	"flynesis-planner/internal/storage"
)

// Store is the persistence the controller delegates to. Implementations
// never fail loudly: reads return empty collections and writes return false.
type Store interface {
	Events(ctx context.Context, flyID string) []domain.CalendarEvent
	SaveEvent(ctx context.Context, flyID string, event domain.CalendarEvent) (domain.CalendarEvent, bool)
	DeleteEvent(ctx context.Context, flyID, id string) bool
	Tasks(ctx context.Context, flyID string) []domain.Task
	SaveTask(ctx context.Context, flyID string, task domain.Task) (domain.Task, bool)
	DeleteTask(ctx context.Context, flyID, id string) bool
	Settings(ctx context.Context, flyID string) domain.Settings
	SaveSettings(ctx context.Context, flyID string, settings domain.Settings) bool
	FocusSessions(ctx context.Context, flyID string) []domain.FocusSession
	SaveFocusSession(ctx context.Context, flyID string, session domain.FocusSession) (domain.FocusSession, bool)
	Export(ctx context.Context, flyID string) []byte
	Backup(ctx context.Context, flyID string) ([]byte, error)
	Import(ctx context.Context, flyID string, data []byte) (storage.ImportReport, bool)
	Reset(ctx context.Context, flyID string) bool
}

// Authenticator turns a session into a prepared account id.
type Authenticator interface {
	Bootstrap(ctx context.Context, session *auth.Session) (string, error)
}

// Controller owns the account's events, tasks and settings. Mutations go to
// the store first and touch memory only when the store accepted them.
type Controller struct {
	store Store
	flyID string

	mu       sync.RWMutex
	events   *orderedMap[domain.CalendarEvent]
	tasks    *orderedMap[domain.Task]
	settings domain.Settings
}

// New returns an empty controller. Call Reload to fill it.
func New(store Store, flyID string) *Controller {
	return &Controller{
		store:    store,
		flyID:    flyID,
		events:   newOrderedMap(func(e domain.CalendarEvent) string { return e.ID }),
		tasks:    newOrderedMap(func(t domain.Task) string { return t.ID }),
		settings: domain.DefaultSettings(),
	}
}

// Bootstrap authenticates the session, prepares the account and loads its
// data. On any failure no controller is returned; auth.ErrNoSession and
// auth.ErrNoAccount pass through unwrapped.
func Bootstrap(ctx context.Context, authn Authenticator, store Store, session *auth.Session) (*Controller, error) {
	flyID, err := authn.Bootstrap(ctx, session)
	if err != nil {
		return nil, err
	}
	c := New(store, flyID)
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload replaces the in-memory collections with the store's. Settings,
// events and tasks load in parallel.
func (c *Controller) Reload(ctx context.Context) error {
	var (
		settings domain.Settings
		events   []domain.CalendarEvent
		tasks    []domain.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		settings = c.store.Settings(gctx, c.flyID)
		return nil
	})
	g.Go(func() error {
		events = c.store.Events(gctx, c.flyID)
		return nil
	})
	g.Go(func() error {
		tasks = c.store.Tasks(gctx, c.flyID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = settings
	c.events.Replace(events)
	c.tasks.Replace(tasks)
	return nil
}

func (c *Controller) FlyID() string { return c.flyID }

// Events returns a copy of the events in store order.
func (c *Controller) Events() []domain.CalendarEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events.Values()
}

// Tasks returns a copy of the tasks in board order.
func (c *Controller) Tasks() []domain.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tasks.Values()
}

func (c *Controller) Task(id string) (domain.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tasks.Get(id)
}

func (c *Controller) Event(id string) (domain.CalendarEvent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events.Get(id)
}

func (c *Controller) Settings() domain.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// SaveEvent stores the event and splices the stored copy into memory.
func (c *Controller) SaveEvent(ctx context.Context, event domain.CalendarEvent) (domain.CalendarEvent, bool) {
	saved, ok := c.store.SaveEvent(ctx, c.flyID, event)
	if !ok {
		return domain.CalendarEvent{}, false
	}
	c.mu.Lock()
	c.events.Upsert(saved)
	c.mu.Unlock()
	return saved, true
}

func (c *Controller) DeleteEvent(ctx context.Context, id string) bool {
	if !c.store.DeleteEvent(ctx, c.flyID, id) {
		return false
	}
	c.mu.Lock()
	c.events.Remove(id)
	c.mu.Unlock()
	return true
}

// SaveTask stores the task and splices the stored copy into memory.
func (c *Controller) SaveTask(ctx context.Context, task domain.Task) (domain.Task, bool) {
	saved, ok := c.store.SaveTask(ctx, c.flyID, task)
	if !ok {
		return domain.Task{}, false
	}
	c.mu.Lock()
	c.tasks.Upsert(saved)
	c.mu.Unlock()
	return saved, true
}

func (c *Controller) DeleteTask(ctx context.Context, id string) bool {
	if !c.store.DeleteTask(ctx, c.flyID, id) {
		return false
	}
	c.mu.Lock()
	c.tasks.Remove(id)
	c.mu.Unlock()
	return true
}

func (c *Controller) UpdateSettings(ctx context.Context, settings domain.Settings) bool {
	if !c.store.SaveSettings(ctx, c.flyID, settings) {
		return false
	}
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
	return true
}

// Render lays out view around date using the account's week start. today
// only drives highlighting.
func (c *Controller) Render(view domain.View, date, today time.Time) (layout.View, error) {
	settings := c.Settings()
	return layout.Render(view, date, c.Events(), layout.Options{
		RowHeight: layout.DefaultRowHeight,
		WeekStart: settings.WeekStart,
		Today:     today,
	})
}

// SearchEvents returns events whose title contains query, ignoring case.
// An empty query matches everything.
func (c *Controller) SearchEvents(query string) []domain.CalendarEvent {
	q := strings.ToLower(strings.TrimSpace(query))
	events := c.Events()
	if q == "" {
		return events
	}
	var out []domain.CalendarEvent
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Title), q) {
			out = append(out, e)
		}
	}
	return out
}

// Export returns the account snapshot as JSON.
func (c *Controller) Export(ctx context.Context) []byte {
	return c.store.Export(ctx, c.flyID)
}

// Backup returns the account snapshot, or an error when the store could not
// read all of it.
func (c *Controller) Backup(ctx context.Context) ([]byte, error) {
	return c.store.Backup(ctx, c.flyID)
}

// Import replaces the account data and reloads memory, also after a partial
// failure, so the controller shows what the store actually holds.
func (c *Controller) Import(ctx context.Context, data []byte) (storage.ImportReport, bool) {
	report, ok := c.store.Import(ctx, c.flyID, data)
	if err := c.Reload(ctx); err != nil {
		return report, false
	}
	return report, ok
}

// Reset clears events, tasks and focus sessions, then reloads memory.
func (c *Controller) Reset(ctx context.Context) bool {
	ok := c.store.Reset(ctx, c.flyID)
	if err := c.Reload(ctx); err != nil {
		return false
	}
	return ok
}

// RecordFocus appends a completed focus session.
func (c *Controller) RecordFocus(ctx context.Context, session domain.FocusSession) bool {
	_, ok := c.store.SaveFocusSession(ctx, c.flyID, session)
	return ok
}

// FocusToday counts sessions completed on ref's local date.
func (c *Controller) FocusToday(ctx context.Context, ref time.Time) int {
	return focus.CountOn(c.store.FocusSessions(ctx, c.flyID), ref)
}
