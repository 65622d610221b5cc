// Package ics renders planner events as an iCalendar feed.
package ics

import (
	"fmt"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"flynesis-planner/internal/datetime"
	"flynesis-planner/internal/domain"
)

const productID = "-//Flynesis//Planner//EN"

var (
	propertyColor    = ical.ComponentProperty("COLOR")
	propertyPriority = ical.ComponentProperty("PRIORITY")
)

// priorityValue maps to the RFC 5545 scale, where 1 is the highest.
func priorityValue(p domain.Priority) int {
	switch p {
	case domain.PriorityHigh:
		return 1
	case domain.PriorityLow:
		return 9
	default:
		return 5
	}
}

// Export serializes events as one VCALENDAR. Dates and minutes are read in
// loc. Events with an unparsable date are skipped; the second value counts
// them.
func Export(events []domain.CalendarEvent, loc *time.Location, stamp time.Time) (string, int) {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	skipped := 0
	for _, e := range events {
		day, err := datetime.ParseISO(e.DateISO, loc)
		if err != nil {
			skipped++
			continue
		}
		vevent := cal.AddEvent(uid(e))
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(wallClock(day, e.StartMin))
		vevent.SetEndAt(wallClock(day, e.EndMin))
		vevent.SetSummary(e.Title)
		if e.Notes != "" {
			vevent.SetDescription(e.Notes)
		}
		vevent.SetProperty(ical.ComponentPropertyCategories, string(e.Type))
		vevent.SetProperty(propertyPriority, strconv.Itoa(priorityValue(e.Priority)))
		if e.Color != "" {
			vevent.SetProperty(propertyColor, e.Color)
		}
	}
	return cal.Serialize(), skipped
}

// wallClock is the instant the clock on day's wall shows minutes past
// midnight. Days with a DST switch are shorter or longer than 24h, so the
// minutes are not added as a duration.
func wallClock(day time.Time, minutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minutes, 0, 0, day.Location())
}

func uid(e domain.CalendarEvent) string {
	return fmt.Sprintf("%s@flynesis-planner", e.ID)
}
