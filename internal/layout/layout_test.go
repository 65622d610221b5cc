package layout

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"flynesis-planner/internal/domain"
)

func ev(id, date string, start, end int) domain.CalendarEvent {
	return domain.CalendarEvent{ID: id, Title: "title " + id, DateISO: date, StartMin: start, EndMin: end,
		Type: domain.EventTask, Priority: domain.PriorityLow, Color: "#A472FF"}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlaceNineToTen(t *testing.T) {
	p := Place(ev("a", "2024-06-10", 540, 600), 60)
	if p.Top != 180 || p.Height != 60 {
		t.Fatalf("expected top=180 height=60, got top=%v height=%v", p.Top, p.Height)
	}
	p = Place(ev("b", "2024-06-10", 390, 405), 40)
	if p.Top != 20 || p.Height != 10 {
		t.Fatalf("expected top=20 height=10, got top=%v height=%v", p.Top, p.Height)
	}
}

func TestDayGridOverlappingEvents(t *testing.T) {
	events := []domain.CalendarEvent{
		ev("long", "2024-06-10", 540, 630),
		ev("short", "2024-06-10", 540, 600),
		ev("other-day", "2024-06-11", 540, 600),
	}
	g := DayGrid(day(2024, time.June, 10), events, Options{RowHeight: 60})
	if len(g.Hours) != 18 || g.Hours[0] != 6 || g.Hours[17] != 23 {
		t.Fatalf("unexpected hour rows: %v", g.Hours)
	}
	if len(g.Columns) != 1 {
		t.Fatalf("day grid should have one column, got %d", len(g.Columns))
	}
	got := g.Columns[0].Placements
	if len(got) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(got))
	}
	if got[0].Event.ID != "short" || got[0].Top != 180 || got[0].Height != 60 {
		t.Fatalf("unexpected first placement: %+v", got[0])
	}
	if got[1].Event.ID != "long" || got[1].Top != 180 || got[1].Height != 90 {
		t.Fatalf("unexpected second placement: %+v", got[1])
	}
}

func TestEventsOnIsExactSubsetRegardlessOfOrder(t *testing.T) {
	events := []domain.CalendarEvent{
		ev("1", "2024-06-10", 600, 660),
		ev("2", "2024-06-09", 600, 660),
		ev("3", "2024-06-10", 60, 120),
		ev("4", "2024-06-12", 0, 30),
	}
	reversed := make([]domain.CalendarEvent, len(events))
	for i, e := range events {
		reversed[len(events)-1-i] = e
	}
	a := EventsOn(events, "2024-06-10")
	b := EventsOn(reversed, "2024-06-10")
	if len(a) != 2 || !reflect.DeepEqual(a, b) {
		t.Fatalf("filter depends on input order: %+v vs %+v", a, b)
	}
	for _, e := range a {
		if e.DateISO != "2024-06-10" {
			t.Fatalf("unexpected event %+v", e)
		}
	}
}

func TestWeekGridRespectsWeekStart(t *testing.T) {
	wed := day(2024, time.June, 12)
	mon := WeekGrid(wed, nil, Options{WeekStart: domain.WeekStartMon})
	if mon.Columns[0].DateISO != "2024-06-10" || mon.Columns[6].DateISO != "2024-06-16" {
		t.Fatalf("monday week: %s..%s", mon.Columns[0].DateISO, mon.Columns[6].DateISO)
	}
	sun := WeekGrid(wed, nil, Options{WeekStart: domain.WeekStartSun})
	if sun.Columns[0].DateISO != "2024-06-09" || sun.Columns[6].DateISO != "2024-06-15" {
		t.Fatalf("sunday week: %s..%s", sun.Columns[0].DateISO, sun.Columns[6].DateISO)
	}
}

func TestWeekGridTodayHighlight(t *testing.T) {
	wed := day(2024, time.June, 12)
	g := WeekGrid(wed, []domain.CalendarEvent{ev("x", "2024-06-13", 480, 540)}, Options{Today: wed.Add(15 * time.Hour)})
	for _, col := range g.Columns {
		if col.IsToday != (col.DateISO == "2024-06-12") {
			t.Fatalf("wrong today flag on %s", col.DateISO)
		}
		if col.DateISO == "2024-06-13" && len(col.Placements) != 1 {
			t.Fatalf("thursday should hold one event")
		}
	}
	if g := WeekGrid(wed, nil, Options{}); g.Columns[2].IsToday {
		t.Fatalf("zero reference date must not highlight anything")
	}
}

func TestMonthGridSpanAndOverflow(t *testing.T) {
	var events []domain.CalendarEvent
	for i := 0; i < 5; i++ {
		events = append(events, ev(fmt.Sprint(i), "2024-06-10", 480+i*30, 500+i*30))
	}
	events = append(events, ev("outside", "2024-06-02", 60, 90))

	m := MonthGrid(day(2024, time.June, 20), events, Options{WeekStart: domain.WeekStartMon})
	first, last := m.Weeks[0][0], m.Weeks[len(m.Weeks)-1][6]
	if first.DateISO != "2024-05-27" || last.DateISO != "2024-06-30" {
		t.Fatalf("unexpected span %s..%s", first.DateISO, last.DateISO)
	}
	if len(m.Weeks) != 5 {
		t.Fatalf("expected 5 weeks, got %d", len(m.Weeks))
	}
	if first.InMonth || !m.Weeks[1][0].InMonth {
		t.Fatalf("in-month flags are wrong")
	}
	for _, week := range m.Weeks {
		for _, cell := range week {
			switch cell.DateISO {
			case "2024-06-10":
				if len(cell.Titles) != MaxCellTitles || cell.Overflow != 2 || cell.Titles[0] != "title 0" {
					t.Fatalf("unexpected busy cell: %+v", cell)
				}
			case "2024-06-02":
				if len(cell.Titles) != 1 || cell.Overflow != 0 {
					t.Fatalf("unexpected cell: %+v", cell)
				}
			}
		}
	}

	sun := MonthGrid(day(2024, time.June, 1), nil, Options{WeekStart: domain.WeekStartSun})
	if sun.Weeks[0][0].DateISO != "2024-05-26" || sun.Weeks[len(sun.Weeks)-1][6].DateISO != "2024-07-06" {
		t.Fatalf("sunday span %s..%s", sun.Weeks[0][0].DateISO, sun.Weeks[len(sun.Weeks)-1][6].DateISO)
	}
}

func TestRenderDispatchAndDeterminism(t *testing.T) {
	events := []domain.CalendarEvent{ev("a", "2024-06-10", 540, 600), ev("b", "2024-06-10", 540, 630)}
	opts := Options{RowHeight: 48, WeekStart: domain.WeekStartMon, Today: day(2024, time.June, 10)}
	date := day(2024, time.June, 10)

	for _, view := range domain.Views {
		a, err := Render(view, date, events, opts)
		if err != nil {
			t.Fatalf("render %s: %v", view, err)
		}
		b, _ := Render(view, date, events, opts)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("render %s is not deterministic", view)
		}
		if a.Kind != view || (a.Grid == nil) == (a.Month == nil) {
			t.Fatalf("render %s produced %+v", view, a)
		}
	}

	week, _ := Render(domain.ViewWeek, date, events, opts)
	if week.From != "2024-06-10" || week.To != "2024-06-16" {
		t.Fatalf("week range %s..%s", week.From, week.To)
	}
	if _, err := Render(domain.View("Year"), date, events, opts); err == nil {
		t.Fatalf("unknown view should fail")
	}
}
