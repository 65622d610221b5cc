package datetime

import (
	"testing"
	"time"
)

func TestWeekDaysRespectsWeekStart(t *testing.T) {
	wednesday := time.Date(2024, time.June, 12, 15, 30, 0, 0, time.UTC)

	mon := WeekDays(wednesday, time.Monday)
	if len(mon) != 7 {
		t.Fatalf("expected 7 days, got %d", len(mon))
	}
	if got := DateISO(mon[0]); got != "2024-06-10" {
		t.Fatalf("monday week should start 2024-06-10, got %s", got)
	}
	if got := DateISO(mon[6]); got != "2024-06-16" {
		t.Fatalf("monday week should end 2024-06-16, got %s", got)
	}

	sun := WeekDays(wednesday, time.Sunday)
	if got := DateISO(sun[0]); got != "2024-06-09" {
		t.Fatalf("sunday week should start 2024-06-09, got %s", got)
	}
	if sun[0].Weekday() != time.Sunday {
		t.Fatalf("expected sunday, got %s", sun[0].Weekday())
	}
}

func TestStartOfWeekOnFirstDay(t *testing.T) {
	monday := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	if got := StartOfWeek(monday, time.Monday); !got.Equal(monday) {
		t.Fatalf("expected %s, got %s", monday, got)
	}
	sunday := time.Date(2024, time.June, 16, 8, 0, 0, 0, time.UTC)
	if got := DateISO(StartOfWeek(sunday, time.Monday)); got != "2024-06-10" {
		t.Fatalf("sunday belongs to the week starting 2024-06-10, got %s", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := []struct {
		minutes int
		h24     bool
		want    string
	}{
		{0, true, "0:00"},
		{0, false, "12:00 AM"},
		{540, true, "9:00"},
		{545, false, "9:05 AM"},
		{720, false, "12:00 PM"},
		{1439, true, "23:59"},
		{1439, false, "11:59 PM"},
	}
	for _, tc := range cases {
		if got := FormatMinutes(tc.minutes, tc.h24); got != tc.want {
			t.Fatalf("FormatMinutes(%d, %t) = %q, want %q", tc.minutes, tc.h24, got, tc.want)
		}
	}
	if got := FormatClock(545); got != "09:05" {
		t.Fatalf("FormatClock(545) = %q", got)
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]int{
		"09:00":    540,
		"9:30":     570,
		"12:00 AM": 0,
		"12:15 PM": 735,
		"1:00 pm":  780,
		"23:59":    1439,
	}
	for raw, want := range cases {
		got, err := ParseClock(raw)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseClock(%q) = %d, want %d", raw, got, want)
		}
	}
	for _, raw := range []string{"", "24:00", "9", "9:60", "13:00 PM", "10:00 XM"} {
		if _, err := ParseClock(raw); err == nil {
			t.Fatalf("ParseClock(%q) should fail", raw)
		}
	}
}

func TestHoursAndSlots(t *testing.T) {
	hours := Hours()
	if len(hours) != 18 || hours[0] != 6 || hours[17] != 23 {
		t.Fatalf("unexpected hours %v", hours)
	}
	slots := TimeSlots(true)
	if len(slots) != 36 {
		t.Fatalf("expected 36 slots, got %d", len(slots))
	}
	if slots[0] != "6:00" || slots[1] != "6:30" || slots[35] != "23:30" {
		t.Fatalf("unexpected slots %v", slots)
	}
}

func TestRoundToNearest30(t *testing.T) {
	for in, want := range map[int]int{0: 0, 14: 0, 15: 30, 44: 30, 45: 60, 541: 540} {
		if got := RoundToNearest30(in); got != want {
			t.Fatalf("RoundToNearest30(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestAddDaysISOAndMonthBounds(t *testing.T) {
	if got := AddDaysISO("2024-02-28", 2); got != "2024-03-01" {
		t.Fatalf("leap year add: got %s", got)
	}
	if got := AddDaysISO("garbage", 1); got != "garbage" {
		t.Fatalf("invalid input should be returned unchanged, got %s", got)
	}
	ref := time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC)
	if got := DateISO(EndOfMonth(ref)); got != "2024-02-29" {
		t.Fatalf("end of february 2024: got %s", got)
	}
	if days := DaysBetween(StartOfMonth(ref), EndOfMonth(ref)); len(days) != 29 {
		t.Fatalf("expected 29 days, got %d", len(days))
	}
}

func TestValidRange(t *testing.T) {
	if !ValidRange(540, 600) {
		t.Fatalf("540-600 should be valid")
	}
	for _, r := range [][2]int{{600, 600}, {600, 540}, {-1, 30}, {0, 1440}} {
		if ValidRange(r[0], r[1]) {
			t.Fatalf("%v should be invalid", r)
		}
	}
}
