package domain

import (
	"fmt"
	"strings"
	"time"
)

// Identity prefixes handed out by the client before the store assigns a real id.
const (
	EventPrefix   = "event-"
	TaskPrefix    = "task-"
	SessionPrefix = "session-"
	SamplePrefix  = "sample-"
)

var placeholderPrefixes = []string{EventPrefix, TaskPrefix, SessionPrefix, SamplePrefix}

// IsPlaceholderID reports whether id marks an entity that was never persisted.
func IsPlaceholderID(id string) bool {
	if id == "" {
		return true
	}
	for _, prefix := range placeholderPrefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

// NewPlaceholderID builds a client-side identity such as "event-1718000000000".
func NewPlaceholderID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%d", prefix, now.UnixMilli())
}

// FocusData groups focus sessions in the export document.
type FocusData struct {
	Sessions []FocusSession `json:"sessions"`
}

// Snapshot is the export/import document of one account.
type Snapshot struct {
	Events     []CalendarEvent `json:"events"`
	Tasks      []Task          `json:"tasks"`
	Settings   Settings        `json:"settings"`
	Focus      FocusData       `json:"focus"`
	ExportedAt string          `json:"exportedAt"`
}

// TimestampLayout is the ISO-8601 form used for every timestamp string.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 with or without fractional seconds.
func ParseTimestamp(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
}
