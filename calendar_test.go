package main

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeSkipsWeekends(t *testing.T) {
	cal := SchoolCalendar{
		Start:         date(2026, time.January, 5), // Monday
		End:           date(2026, time.January, 11),
		PerDayMinutes: 25,
	}
	term := cal.Compute()
	if len(term.Days) != 5 {
		t.Fatalf("expected 5 weekdays, got %d", len(term.Days))
	}
	if term.EffectiveDays != 5 {
		t.Fatalf("expected 5 effective days, got %d", term.EffectiveDays)
	}
	if term.ExpectedMinutes != 125 {
		t.Fatalf("expected 125 minutes, got %d", term.ExpectedMinutes)
	}
}

func TestComputeDropsExcludedDays(t *testing.T) {
	cal := SchoolCalendar{
		Start:         date(2026, time.January, 5),
		End:           date(2026, time.January, 16),
		PerDayMinutes: 25,
		Exclusions: []DateRange{
			{Name: "Session break", Start: date(2026, time.January, 12), End: date(2026, time.January, 14)},
		},
	}
	term := cal.Compute()
	if len(term.Days) != 7 {
		t.Fatalf("expected 7 days after exclusion, got %d", len(term.Days))
	}
	for _, d := range term.Days {
		if d.Month() == time.January && d.Day() >= 12 && d.Day() <= 14 {
			t.Fatalf("excluded day %s present in term days", d.Format("2006-01-02"))
		}
	}
}

func TestComputeHalfDayAdjustment(t *testing.T) {
	cal := SchoolCalendar{
		Start:         date(2026, time.January, 5),
		End:           date(2026, time.January, 16),
		PerDayMinutes: 10,
		HalfDays: []time.Time{
			date(2026, time.January, 7),
			date(2026, time.January, 8),
			date(2026, time.January, 9),
		},
	}
	term := cal.Compute()
	// Three half-days still cost a single full day.
	if term.EffectiveDays != 9 {
		t.Fatalf("expected 9 effective days, got %d", term.EffectiveDays)
	}
	if term.ExpectedMinutes != 90 {
		t.Fatalf("expected 90 minutes, got %d", term.ExpectedMinutes)
	}
	if len(term.Days) != 10 {
		t.Fatalf("timeline keeps all 10 days, got %d", len(term.Days))
	}
}

func TestComputeHalfDayOutsideTermIgnored(t *testing.T) {
	cal := SchoolCalendar{
		Start:         date(2026, time.January, 5),
		End:           date(2026, time.January, 9),
		PerDayMinutes: 25,
		HalfDays: []time.Time{
			date(2025, time.December, 17),
			date(2025, time.December, 18),
		},
	}
	term := cal.Compute()
	if term.EffectiveDays != 5 {
		t.Fatalf("expected 5 effective days, got %d", term.EffectiveDays)
	}
}

func TestComputeStartAfterEnd(t *testing.T) {
	cal := SchoolCalendar{
		Start:         date(2026, time.February, 1),
		End:           date(2026, time.January, 1),
		PerDayMinutes: 25,
	}
	term := cal.Compute()
	if len(term.Days) != 0 || term.EffectiveDays != 0 || term.ExpectedMinutes != 0 {
		t.Fatalf("expected empty term, got %+v", term)
	}
}

func TestDefaultConfigCalendar(t *testing.T) {
	cal, err := DefaultConfig().Calendar()
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	term := cal.Compute()
	if term.EffectiveDays <= 0 {
		t.Fatalf("expected positive effective days, got %d", term.EffectiveDays)
	}
	if term.ExpectedMinutes != term.EffectiveDays*25 {
		t.Fatalf("expected minutes %d to be 25x days %d", term.ExpectedMinutes, term.EffectiveDays)
	}
	for _, d := range term.Days {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			t.Fatalf("weekend day %s in term", d.Format("2006-01-02"))
		}
		if d.Year() == 2025 && d.Month() == time.December && d.Day() >= 22 {
			t.Fatalf("winter break day %s in term", d.Format("2006-01-02"))
		}
	}
}
