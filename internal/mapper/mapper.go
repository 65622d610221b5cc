// Package mapper converts between storage records and view models.
//
// ToXxx functions leave the store-assigned identity and timestamps zero so the
// record can be used for both insert and update. FromXxx functions turn NULL
// columns into empty optional fields. Nothing here validates input.
package mapper

import (
	"flynesis-planner/internal/domain"
	"flynesis-planner/internal/model"
)

func EventToStorage(e domain.CalendarEvent, flyID string) model.Event {
	return model.Event{
		FlyID:    flyID,
		Title:    e.Title,
		DateISO:  e.DateISO,
		StartMin: e.StartMin,
		EndMin:   e.EndMin,
		Type:     string(e.Type),
		Priority: string(e.Priority),
		Notes:    nullable(e.Notes),
		Color:    e.Color,
	}
}

func EventFromStorage(r model.Event) domain.CalendarEvent {
	return domain.CalendarEvent{
		ID:       r.ID,
		Title:    r.Title,
		DateISO:  r.DateISO,
		StartMin: r.StartMin,
		EndMin:   r.EndMin,
		Type:     domain.EventType(r.Type),
		Priority: domain.Priority(r.Priority),
		Notes:    deref(r.Notes),
		Color:    r.Color,
	}
}

func TaskToStorage(t domain.Task, flyID string) model.Task {
	return model.Task{
		FlyID:    flyID,
		Title:    t.Title,
		Status:   string(t.Status),
		Priority: string(t.Priority),
		Tag:      nullable(t.Tag),
		DueISO:   nullable(t.DueISO),
	}
}

func TaskFromStorage(r model.Task) domain.Task {
	return domain.Task{
		ID:           r.ID,
		Title:        r.Title,
		Status:       domain.TaskStatus(r.Status),
		Priority:     domain.Priority(r.Priority),
		Tag:          deref(r.Tag),
		DueISO:       deref(r.DueISO),
		CreatedAtISO: domain.FormatTimestamp(r.CreatedAt),
	}
}

func SettingsToStorage(s domain.Settings, flyID string) model.Settings {
	return model.Settings{
		FlyID:       flyID,
		WeekStart:   string(s.WeekStart),
		TimeFormat:  string(s.TimeFormat),
		DefaultView: string(s.DefaultView),
	}
}

func SettingsFromStorage(r model.Settings) domain.Settings {
	return domain.Settings{
		WeekStart:   domain.WeekStart(r.WeekStart),
		TimeFormat:  domain.TimeFormat(r.TimeFormat),
		DefaultView: domain.View(r.DefaultView),
	}
}

// FocusSessionToStorage keeps the completion time, which belongs to the
// session rather than to the store. An unparsable timestamp maps to zero time.
func FocusSessionToStorage(s domain.FocusSession, flyID string) model.FocusSession {
	completed, _ := domain.ParseTimestamp(s.CompletedAtISO)
	return model.FocusSession{
		FlyID:       flyID,
		TaskID:      nullable(s.TaskID),
		Duration:    s.Duration,
		CompletedAt: completed,
	}
}

func FocusSessionFromStorage(r model.FocusSession) domain.FocusSession {
	return domain.FocusSession{
		ID:             r.ID,
		TaskID:         deref(r.TaskID),
		Duration:       r.Duration,
		CompletedAtISO: domain.FormatTimestamp(r.CompletedAt),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
