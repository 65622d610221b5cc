// Package datetime converts between calendar dates, ISO date strings and
// minute-of-day integers.
package datetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// ISOLayout is the calendar date format, no time component.
	ISOLayout = "2006-01-02"

	// FirstHour and LastHour bound the hour rows of the day and week grids.
	FirstHour = 6
	LastHour  = 23

	MinutesPerDay = 24 * 60
)

// DateISO formats t as YYYY-MM-DD in its own location.
func DateISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// ParseISO parses a YYYY-MM-DD string at midnight in loc.
func ParseISO(dateISO string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(ISOLayout, strings.TrimSpace(dateISO), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", dateISO, err)
	}
	return t, nil
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDaysISO shifts a date string by days. Invalid input is returned unchanged.
func AddDaysISO(dateISO string, days int) string {
	t, err := ParseISO(dateISO, time.UTC)
	if err != nil {
		return dateISO
	}
	return DateISO(t.AddDate(0, 0, days))
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsToday reports whether dateISO is the calendar date of ref.
func IsToday(dateISO string, ref time.Time) bool {
	return DateISO(ref) == strings.TrimSpace(dateISO)
}

// StartOfWeek returns midnight of the first day of the week containing t.
func StartOfWeek(t time.Time, first time.Weekday) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) - int(first) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// EndOfWeek returns midnight of the last day of the week containing t.
func EndOfWeek(t time.Time, first time.Weekday) time.Time {
	return StartOfWeek(t, first).AddDate(0, 0, 6)
}

// WeekDays returns the seven dates of the week containing t.
func WeekDays(t time.Time, first time.Weekday) []time.Time {
	start := StartOfWeek(t, first)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns midnight of the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// DaysBetween lists every date from start to end inclusive.
func DaysBetween(start, end time.Time) []time.Time {
	start, end = StartOfDay(start), StartOfDay(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Hours returns the hour rows shown on the day and week grids (6..23).
func Hours() []int {
	hours := make([]int, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// FormatMinutes renders a minute-of-day as "9:05" (24h) or "9:05 AM" (12h).
func FormatMinutes(minutes int, format24h bool) string {
	hours := minutes / 60
	mins := minutes % 60
	if format24h {
		return fmt.Sprintf("%d:%02d", hours, mins)
	}
	h := hours % 12
	if h == 0 {
		h = 12
	}
	ampm := "AM"
	if hours >= 12 {
		ampm = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, mins, ampm)
}

// FormatClock renders a minute-of-day as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseClock parses "HH:MM", optionally followed by AM/PM, into minutes since midnight.
func ParseClock(raw string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 || len(fields) > 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	parts := strings.Split(fields[0], ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if len(fields) == 2 {
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("invalid 12h hour in %q", raw)
		}
		switch strings.ToUpper(fields[1]) {
		case "AM":
			if hour == 12 {
				hour = 0
			}
		case "PM":
			if hour != 12 {
				hour += 12
			}
		default:
			return 0, fmt.Errorf("invalid meridiem in %q", raw)
		}
	}
	return hour*60 + minute, nil
}

// RoundToNearest30 snaps minutes to the closest half hour.
func RoundToNearest30(minutes int) int {
	return (minutes + 15) / 30 * 30
}

// TimeSlots lists the half-hour slot labels from the first grid hour to midnight.
func TimeSlots(format24h bool) []string {
	slots := make([]string, 0, (24-FirstHour)*2)
	for h := FirstHour; h < 24; h++ {
		for m := 0; m < 60; m += 30 {
			slots = append(slots, FormatMinutes(h*60+m, format24h))
		}
	}
	return slots
}

// ValidRange reports whether start/end form a valid event span within one day.
func ValidRange(startMin, endMin int) bool {
	return startMin >= 0 && startMin < endMin && endMin < MinutesPerDay
}
