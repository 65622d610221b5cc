package domain

import (
	"fmt"
	"strings"
	"time"
)

// View selects a calendar projection. The set is closed: layout.Render is the
// only place that switches over it.
type View string

const (
	ViewDay   View = "Day"
	ViewWeek  View = "Week"
	ViewMonth View = "Month"
)

var Views = []View{ViewDay, ViewWeek, ViewMonth}

func ParseView(raw string) (View, error) {
	for _, v := range Views {
		if strings.EqualFold(string(v), raw) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", raw)
}

type WeekStart string

const (
	WeekStartMon WeekStart = "Mon"
	WeekStartSun WeekStart = "Sun"
)

func ParseWeekStart(raw string) (WeekStart, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "mon", "monday":
		return WeekStartMon, nil
	case "sun", "sunday":
		return WeekStartSun, nil
	default:
		return "", fmt.Errorf("unknown week start %q", raw)
	}
}

// Weekday returns the first day of the week. Anything but Sun means Monday.
func (w WeekStart) Weekday() time.Weekday {
	if w == WeekStartSun {
		return time.Sunday
	}
	return time.Monday
}

type TimeFormat string

const (
	TimeFormat12h TimeFormat = "12h"
	TimeFormat24h TimeFormat = "24h"
)

func ParseTimeFormat(raw string) (TimeFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "12h", "12":
		return TimeFormat12h, nil
	case "24h", "24":
		return TimeFormat24h, nil
	default:
		return "", fmt.Errorf("unknown time format %q", raw)
	}
}

// Is24h reports whether clock values render on a 24 hour dial.
func (f TimeFormat) Is24h() bool {
	return f != TimeFormat12h
}

// Settings is the per-account singleton of display preferences.
type Settings struct {
	WeekStart   WeekStart  `json:"weekStart"`
	TimeFormat  TimeFormat `json:"timeFormat"`
	DefaultView View       `json:"defaultView"`
}

// DefaultSettings is what an account gets before it saves anything.
func DefaultSettings() Settings {
	return Settings{
		WeekStart:   WeekStartMon,
		TimeFormat:  TimeFormat24h,
		DefaultView: ViewWeek,
	}
}
