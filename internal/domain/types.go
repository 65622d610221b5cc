package domain

import "strings"

// EventType categorises a calendar event.
type EventType string

const (
	EventTask     EventType = "Task"
	EventMeeting  EventType = "Meeting"
	EventPersonal EventType = "Personal"
	EventMusic    EventType = "Music"
	EventFlynesis EventType = "Flynesis"
	EventOther    EventType = "Other"
)

// EventTypes lists every event type in display order.
var EventTypes = []EventType{EventTask, EventMeeting, EventPersonal, EventMusic, EventFlynesis, EventOther}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

type TaskStatus string

const (
	StatusTodo  TaskStatus = "Todo"
	StatusDoing TaskStatus = "Doing"
	StatusDone  TaskStatus = "Done"
)

// Statuses is the column order of the task board.
var Statuses = []TaskStatus{StatusTodo, StatusDoing, StatusDone}

// ParseTaskStatus matches a status case-insensitively.
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	for _, s := range Statuses {
		if strings.EqualFold(string(s), raw) {
			return s, true
		}
	}
	return "", false
}

// ParsePriority matches a priority case-insensitively.
func ParsePriority(raw string) (Priority, bool) {
	for _, p := range Priorities {
		if strings.EqualFold(string(p), raw) {
			return p, true
		}
	}
	return "", false
}

// ParseEventType matches an event type case-insensitively.
func ParseEventType(raw string) (EventType, bool) {
	for _, t := range EventTypes {
		if strings.EqualFold(string(t), raw) {
			return t, true
		}
	}
	return "", false
}

// CalendarEvent is a timed entry on a single calendar date.
// StartMin and EndMin are minutes since midnight, StartMin < EndMin.
type CalendarEvent struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	DateISO  string    `json:"dateISO"`
	StartMin int       `json:"startMin"`
	EndMin   int       `json:"endMin"`
	Type     EventType `json:"type"`
	Priority Priority  `json:"priority"`
	Notes    string    `json:"notes,omitempty"`
	Color    string    `json:"color"`
}

// Task is an item on the task board.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Status       TaskStatus `json:"status"`
	Priority     Priority   `json:"priority"`
	Tag          string     `json:"tag,omitempty"`
	DueISO       string     `json:"dueISO,omitempty"`
	CreatedAtISO string     `json:"createdAtISO"`
}

// FocusSession records one completed work phase of the focus timer.
type FocusSession struct {
	ID             string `json:"id"`
	TaskID         string `json:"taskId,omitempty"`
	Duration       int    `json:"duration"`
	CompletedAtISO string `json:"completedAtISO"`
}
