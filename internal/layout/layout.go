// Package layout computes calendar grids from a flat event list. Every
// function is pure: "today" is whatever Options.Today says, never the clock.
package layout

import (
	"fmt"
	"sort"
	"time"

	"flynesis-planner/internal/datetime"
	"flynesis-planner/internal/domain"
)

const (
	DefaultRowHeight = 60
	// MaxCellTitles is how many event titles a month cell lists before
	// collapsing the rest into an overflow count.
	MaxCellTitles = 3
)

type Options struct {
	// RowHeight is the height of one hour row in pixels.
	RowHeight float64
	WeekStart domain.WeekStart
	// Today marks the highlighted day. Zero means no highlight.
	Today time.Time
}

func (o Options) rowHeight() float64 {
	if o.RowHeight <= 0 {
		return DefaultRowHeight
	}
	return o.RowHeight
}

// Placement is an event positioned on an hour grid. Events that overlap are
// placed independently and may cover each other.
type Placement struct {
	Event  domain.CalendarEvent
	Top    float64
	Height float64
}

type DayColumn struct {
	Date       time.Time
	DateISO    string
	IsToday    bool
	Placements []Placement
}

// Grid is an hour grid with one column per day.
type Grid struct {
	Hours     []int
	RowHeight float64
	Columns   []DayColumn
}

type MonthCell struct {
	Date     time.Time
	DateISO  string
	InMonth  bool
	IsToday  bool
	Titles   []string
	Overflow int
}

// Month covers whole weeks from the one holding the 1st to the one holding
// the last day of the month.
type Month struct {
	Year  int
	Month time.Month
	Weeks [][]MonthCell
}

// Place positions one event: the top edge sits (startMin/60 - 6) rows down,
// the height spans its duration.
func Place(e domain.CalendarEvent, rowHeight float64) Placement {
	return Placement{
		Event:  e,
		Top:    (float64(e.StartMin)/60 - datetime.FirstHour) * rowHeight,
		Height: float64(e.EndMin-e.StartMin) / 60 * rowHeight,
	}
}

// EventsOn returns the events dated dateISO, sorted by start then end minute.
// Events with equal times keep their input order.
func EventsOn(events []domain.CalendarEvent, dateISO string) []domain.CalendarEvent {
	var out []domain.CalendarEvent
	for _, e := range events {
		if e.DateISO == dateISO {
			out = append(out, e)
		}
	}
	sortByTime(out)
	return out
}

func sortByTime(events []domain.CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].StartMin != events[j].StartMin {
			return events[i].StartMin < events[j].StartMin
		}
		return events[i].EndMin < events[j].EndMin
	})
}

func byDate(events []domain.CalendarEvent) map[string][]domain.CalendarEvent {
	out := make(map[string][]domain.CalendarEvent)
	for _, e := range events {
		out[e.DateISO] = append(out[e.DateISO], e)
	}
	for _, list := range out {
		sortByTime(list)
	}
	return out
}

func column(day time.Time, events []domain.CalendarEvent, opts Options) DayColumn {
	col := DayColumn{
		Date:       day,
		DateISO:    datetime.DateISO(day),
		IsToday:    !opts.Today.IsZero() && datetime.SameDay(day, opts.Today),
		Placements: make([]Placement, 0, len(events)),
	}
	for _, e := range events {
		col.Placements = append(col.Placements, Place(e, opts.rowHeight()))
	}
	return col
}

// DayGrid lays out the events of date.
func DayGrid(date time.Time, events []domain.CalendarEvent, opts Options) Grid {
	day := datetime.StartOfDay(date)
	return Grid{
		Hours:     datetime.Hours(),
		RowHeight: opts.rowHeight(),
		Columns:   []DayColumn{column(day, EventsOn(events, datetime.DateISO(day)), opts)},
	}
}

// WeekGrid lays out the seven days of the week holding date, starting on
// opts.WeekStart.
func WeekGrid(date time.Time, events []domain.CalendarEvent, opts Options) Grid {
	index := byDate(events)
	days := datetime.WeekDays(date, opts.WeekStart.Weekday())
	grid := Grid{
		Hours:     datetime.Hours(),
		RowHeight: opts.rowHeight(),
		Columns:   make([]DayColumn, 0, len(days)),
	}
	for _, day := range days {
		grid.Columns = append(grid.Columns, column(day, index[datetime.DateISO(day)], opts))
	}
	return grid
}

// MonthGrid builds the month holding date.
func MonthGrid(date time.Time, events []domain.CalendarEvent, opts Options) Month {
	index := byDate(events)
	first := opts.WeekStart.Weekday()
	start := datetime.StartOfWeek(datetime.StartOfMonth(date), first)
	end := datetime.EndOfWeek(datetime.EndOfMonth(date), first)

	m := Month{Year: date.Year(), Month: date.Month()}
	var week []MonthCell
	for _, day := range datetime.DaysBetween(start, end) {
		iso := datetime.DateISO(day)
		cell := MonthCell{
			Date:    day,
			DateISO: iso,
			InMonth: day.Month() == m.Month,
			IsToday: !opts.Today.IsZero() && datetime.SameDay(day, opts.Today),
		}
		for i, e := range index[iso] {
			if i == MaxCellTitles {
				cell.Overflow = len(index[iso]) - MaxCellTitles
				break
			}
			cell.Titles = append(cell.Titles, e.Title)
		}
		week = append(week, cell)
		if len(week) == 7 {
			m.Weeks = append(m.Weeks, week)
			week = nil
		}
	}
	return m
}

// View is the output of Render. Exactly one of Grid and Month is set. From
// and To are the first and last ISO dates the view covers.
type View struct {
	Kind  domain.View
	From  string
	To    string
	Grid  *Grid
	Month *Month
}

// Render is the single place where a calendar view is chosen. Adding a view
// means extending domain.View and this switch.
func Render(view domain.View, date time.Time, events []domain.CalendarEvent, opts Options) (View, error) {
	switch view {
	case domain.ViewDay:
		g := DayGrid(date, events, opts)
		return View{Kind: view, From: g.first(), To: g.last(), Grid: &g}, nil
	case domain.ViewWeek:
		g := WeekGrid(date, events, opts)
		return View{Kind: view, From: g.first(), To: g.last(), Grid: &g}, nil
	case domain.ViewMonth:
		m := MonthGrid(date, events, opts)
		return View{Kind: view, From: m.first(), To: m.last(), Month: &m}, nil
	default:
		return View{}, fmt.Errorf("unknown view %q", view)
	}
}

func (g Grid) first() string { return g.Columns[0].DateISO }
func (g Grid) last() string  { return g.Columns[len(g.Columns)-1].DateISO }

func (m Month) first() string { return m.Weeks[0][0].DateISO }
func (m Month) last() string {
	week := m.Weeks[len(m.Weeks)-1]
	return week[len(week)-1].DateISO
}
