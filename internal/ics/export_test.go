package ics

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	ical "github.com/arran4/golang-ical"

	"flynesis-planner/internal/domain"
)

func TestExportParsesBack(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	events := []domain.CalendarEvent{
		{ID: "a1", Title: "Standup", DateISO: "2024-06-10", StartMin: 540, EndMin: 600,
			Type: domain.EventMeeting, Priority: domain.PriorityHigh, Notes: "room 4", Color: "#4BA8FF"},
		{ID: "b2", Title: "Broken", DateISO: "10/06/2024", StartMin: 0, EndMin: 30},
	}
	out, skipped := Export(events, loc, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	if skipped != 1 {
		t.Fatalf("expected one skipped event, got %d", skipped)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse exported calendar: %v", err)
	}
	vevents := cal.Events()
	if len(vevents) != 1 {
		t.Fatalf("expected 1 VEVENT, got %d", len(vevents))
	}
	ev := vevents[0]
	if p := ev.GetProperty(ical.ComponentPropertyUniqueId); p == nil || p.Value != "a1@flynesis-planner" {
		t.Fatalf("unexpected UID: %+v", p)
	}
	if p := ev.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "Standup" {
		t.Fatalf("unexpected SUMMARY: %+v", p)
	}
	if p := ev.GetProperty(ical.ComponentPropertyCategories); p == nil || p.Value != "Meeting" {
		t.Fatalf("unexpected CATEGORIES: %+v", p)
	}
	start, err := ev.GetStartAt()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if want := time.Date(2024, time.June, 10, 7, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("expected start %s, got %s", want, start)
	}
	end, err := ev.GetEndAt()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if end.Sub(start) != time.Hour {
		t.Fatalf("expected one hour event, got %s", end.Sub(start))
	}
	if !strings.Contains(out, "PRIORITY:1") || !strings.Contains(out, "COLOR:#4BA8FF") {
		t.Fatalf("priority or color missing:\n%s", out)
	}
}

func TestExportEmpty(t *testing.T) {
	out, skipped := Export(nil, nil, time.Now())
	if skipped != 0 || !strings.Contains(out, "BEGIN:VCALENDAR") || strings.Contains(out, "BEGIN:VEVENT") {
		t.Fatalf("unexpected empty export:\n%s", out)
	}
}

func TestExportKeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	events := []domain.CalendarEvent{
		{ID: "spring", Title: "Spring", DateISO: "2024-03-10", StartMin: 540, EndMin: 600},
		{ID: "fall", Title: "Fall", DateISO: "2024-11-03", StartMin: 540, EndMin: 600},
		{ID: "night", Title: "Night", DateISO: "2024-03-10", StartMin: 30, EndMin: 180},
	}
	out, _ := Export(events, ny, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	for _, want := range []string{
		"DTSTART:20240310T130000Z", "DTEND:20240310T140000Z",
		"DTSTART:20241103T140000Z", "DTEND:20241103T150000Z",
		"DTSTART:20240310T053000Z", "DTEND:20240310T070000Z",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in:\n%s", want, out)
		}
	}
}
