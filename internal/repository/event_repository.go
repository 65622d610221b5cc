package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"flynesis-planner/internal/model"
)

// EventRepository handles CRUD for calendar events.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListByAccount returns events ordered by date, then start minute.
func (r *EventRepository) ListByAccount(ctx context.Context, flyID string) ([]model.Event, error) {
	var events []model.Event
	if err := r.db.WithContext(ctx).Where("flyid = ?", flyID).
		Order("date_iso ASC").
		Order("start_min ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListBetween returns events dated within [fromISO, toISO].
func (r *EventRepository) ListBetween(ctx context.Context, flyID, fromISO, toISO string) ([]model.Event, error) {
	var events []model.Event
	if err := r.db.WithContext(ctx).
		Where("flyid = ? AND date_iso >= ? AND date_iso <= ?", flyID, fromISO, toISO).
		Order("date_iso ASC").
		Order("start_min ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events between %s and %s: %w", fromISO, toISO, err)
	}
	return events, nil
}

func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of the event, including NULL notes.
func (r *EventRepository) Update(ctx context.Context, id string, event *model.Event) (*model.Event, error) {
	res := r.db.WithContext(ctx).Model(&model.Event{}).Where("id = ? AND flyid = ?", id, event.FlyID).
		Updates(map[string]interface{}{
			"title":      event.Title,
			"date_iso":   event.DateISO,
			"start_min":  event.StartMin,
			"end_min":    event.EndMin,
			"type":       event.Type,
			"priority":   event.Priority,
			"notes":      event.Notes,
			"color":      event.Color,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update event %s: %w", id, gorm.ErrRecordNotFound)
	}
	return r.FindByID(ctx, event.FlyID, id)
}

func (r *EventRepository) FindByID(ctx context.Context, flyID, id string) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).Where("flyid = ? AND id = ?", flyID, id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) Delete(ctx context.Context, flyID, id string) error {
	if err := r.db.WithContext(ctx).Where("flyid = ? AND id = ?", flyID, id).
		Delete(&model.Event{}).Error; err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (r *EventRepository) DeleteAll(ctx context.Context, flyID string) error {
	if err := r.db.WithContext(ctx).Where("flyid = ?", flyID).Delete(&model.Event{}).Error; err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	return nil
}
