package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"flynesis-planner/internal/datetime"
	"flynesis-planner/internal/domain"
)

// Swatch is a named event color.
type Swatch struct {
	Name string
	Hex  string
}

// Palette lists the event colors offered to users. The first is the default.
var Palette = []Swatch{
	{Name: "Purple", Hex: "#A472FF"},
	{Name: "Pink", Hex: "#FF7CEB"},
	{Name: "Blue", Hex: "#4BA8FF"},
	{Name: "Green", Hex: "#10B981"},
}

// ParseColor accepts a palette color by name or hex code, ignoring case.
func ParseColor(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, sw := range Palette {
		if strings.EqualFold(raw, sw.Name) || strings.EqualFold(raw, sw.Hex) {
			return sw.Hex, true
		}
	}
	return "", false
}

// ErrInvalidRange is returned when an event does not end after it starts.
var ErrInvalidRange = errors.New("event must end after it starts")

// EventInput is raw user input for a calendar event. Times accept "14:30"
// or "2:30 PM". Empty fields take defaults, or keep the edited event's
// values.
type EventInput struct {
	Title    string
	Date     string
	Start    string
	End      string
	Type     string
	Priority string
	Notes    string
	Color    string
	// ClearNotes drops the notes of the edited event.
	ClearNotes bool
}

// EventService turns user input into events ready for saving.
type EventService struct {
	now func() time.Time
}

func NewEventService() *EventService {
	return &EventService{now: time.Now}
}

// Draft builds the event to save. Editing keeps the existing id and fills
// blank input from the existing event.
func (s *EventService) Draft(input EventInput, existing *domain.CalendarEvent) (domain.CalendarEvent, error) {
	now := s.now()
	e := domain.CalendarEvent{
		ID:       domain.NewPlaceholderID(domain.EventPrefix, now),
		DateISO:  datetime.DateISO(now),
		StartMin: 9 * 60,
		EndMin:   10 * 60,
		Type:     domain.EventTask,
		Priority: domain.PriorityMedium,
		Color:    Palette[0].Hex,
	}
	if existing != nil {
		e = *existing
	}

	e.Title = strings.TrimSpace(input.Title)
	if e.Title == "" && existing != nil {
		e.Title = existing.Title
	}
	if e.Title == "" {
		return domain.CalendarEvent{}, ErrTitleRequired
	}

	if raw := strings.TrimSpace(input.Date); raw != "" {
		if _, err := datetime.ParseISO(raw, time.UTC); err != nil {
			return domain.CalendarEvent{}, err
		}
		e.DateISO = raw
	}
	if raw := strings.TrimSpace(input.Start); raw != "" {
		start, err := datetime.ParseClock(raw)
		if err != nil {
			return domain.CalendarEvent{}, err
		}
		e.StartMin = start
	}
	if raw := strings.TrimSpace(input.End); raw != "" {
		end, err := datetime.ParseClock(raw)
		if err != nil {
			return domain.CalendarEvent{}, err
		}
		e.EndMin = end
	}
	if !datetime.ValidRange(e.StartMin, e.EndMin) {
		return domain.CalendarEvent{}, ErrInvalidRange
	}

	if raw := strings.TrimSpace(input.Type); raw != "" {
		t, ok := domain.ParseEventType(raw)
		if !ok {
			return domain.CalendarEvent{}, fmt.Errorf("unknown event type %q", raw)
		}
		e.Type = t
	}
	if raw := strings.TrimSpace(input.Priority); raw != "" {
		p, ok := domain.ParsePriority(raw)
		if !ok {
			return domain.CalendarEvent{}, fmt.Errorf("unknown priority %q", raw)
		}
		e.Priority = p
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" || existing == nil || input.ClearNotes {
		e.Notes = notes
	}
	if raw := strings.TrimSpace(input.Color); raw != "" {
		hex, ok := ParseColor(raw)
		if !ok {
			return domain.CalendarEvent{}, fmt.Errorf("unknown color %q", raw)
		}
		e.Color = hex
	}
	return e, nil
}
