package isoweek

import (
	"errors"
	"testing"
	"time"
)

func TestMondayOfKnownDates(t *testing.T) {
	tests := []struct {
		year, week int
		want       string
	}{
		{2025, 1, "2024-12-30"}, // ISO 2025-W01 starts in calendar 2024
		{2025, 2, "2025-01-06"},
		{2025, 4, "2025-01-20"},
		{2024, 1, "2024-01-01"},
		{2020, 53, "2020-12-28"}, // 53-week year
		{2026, 1, "2025-12-29"},
	}

	for _, tt := range tests {
		got, err := MondayOf(tt.year, tt.week)
		if err != nil {
			t.Fatalf("MondayOf(%d, %d): %v", tt.year, tt.week, err)
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("MondayOf(%d, %d) = %s, want %s", tt.year, tt.week, got.Format("2006-01-02"), tt.want)
		}
		if got.Weekday() != time.Monday {
			t.Errorf("MondayOf(%d, %d) is a %s", tt.year, tt.week, got.Weekday())
		}
	}
}

func TestMondayOfInvalidWeek(t *testing.T) {
	cases := []struct{ year, week int }{
		{2025, 0},
		{2025, -1},
		{2025, 53}, // 2025 has 52 weeks
		{2020, 54},
	}
	for _, c := range cases {
		_, err := MondayOf(c.year, c.week)
		if err == nil {
			t.Errorf("MondayOf(%d, %d): expected error", c.year, c.week)
			continue
		}
		var iwe *InvalidWeekError
		if !errors.As(err, &iwe) {
			t.Errorf("MondayOf(%d, %d): error is %T, want *InvalidWeekError", c.year, c.week, err)
		}
	}
}

// Every valid (year, week) pair must round-trip through Of.
func TestRoundTripAllWeeks(t *testing.T) {
	for year := 1990; year <= 2040; year++ {
		for week := 1; week <= Weeks(year); week++ {
			monday, err := MondayOf(year, week)
			if err != nil {
				t.Fatalf("MondayOf(%d, %d): %v", year, week, err)
			}
			gotYear, gotWeek := Of(monday)
			if gotYear != year || gotWeek != week {
				t.Fatalf("Of(MondayOf(%d, %d)) = (%d, %d)", year, week, gotYear, gotWeek)
			}
		}
	}
}

func TestWeeks(t *testing.T) {
	tests := []struct {
		year, want int
	}{
		{2020, 53},
		{2015, 53},
		{2024, 52},
		{2025, 52},
		{2026, 53},
	}
	for _, tt := range tests {
		if got := Weeks(tt.year); got != tt.want {
			t.Errorf("Weeks(%d) = %d, want %d", tt.year, got, tt.want)
		}
	}
}

func TestWeeksSince(t *testing.T) {
	date := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return d
	}

	tests := []struct {
		name    string
		sowing  string
		monday  string
		want    int
	}{
		{"same week", "2025-01-06", "2025-01-06", 0},
		{"two weeks later", "2025-01-06", "2025-01-20", 2}, // spec scenario A
		{"one week before sowing", "2025-01-13", "2025-01-06", -1},
		{"mid-week sowing, same ISO week", "2025-01-08", "2025-01-06", -1},
		{"mid-week sowing, following Monday", "2025-01-08", "2025-01-13", 0},
		{"year boundary", "2024-12-16", "2025-01-06", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeeksSince(date(tt.sowing), date(tt.monday)); got != tt.want {
				t.Errorf("WeeksSince(%s, %s) = %d, want %d", tt.sowing, tt.monday, got, tt.want)
			}
		})
	}
}

// WeeksSince must be unaffected by the wall-clock time or zone of its inputs.
func TestWeeksSinceNormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+12", 12*3600)
	sowing := time.Date(2025, 1, 6, 23, 45, 0, 0, loc)
	monday := time.Date(2025, 1, 20, 1, 0, 0, 0, time.UTC)
	if got := WeeksSince(sowing, monday); got != 2 {
		t.Errorf("WeeksSince with zoned inputs = %d, want 2", got)
	}
}

func TestIsMonday(t *testing.T) {
	monday := time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC)
	if !IsMonday(monday) {
		t.Error("2025-01-06 should be a Monday")
	}
	if IsMonday(monday.AddDate(0, 0, 1)) {
		t.Error("2025-01-07 should not be a Monday")
	}
}
