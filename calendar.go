package main

import "time"

// DateRange is an inclusive non-instructional block.
type DateRange struct {
	Name  string
	Start time.Time
	End   time.Time
}

// Contains reports whether day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

// SchoolCalendar derives the instructional-day count and the expected
// time-on-task target for a term.
type SchoolCalendar struct {
	Start         time.Time
	End           time.Time
	PerDayMinutes int
	Exclusions    []DateRange
	HalfDays      []time.Time
}

// TermDays holds the resolved calendar for one term.
type TermDays struct {
	// Days are the instructional weekdays in order, before the half-day
	// adjustment. The daily timeline renders one slot per entry.
	Days []time.Time

	// EffectiveDays is len(Days) minus one day per two half-days.
	EffectiveDays int

	// ExpectedMinutes is EffectiveDays times the per-day target.
	ExpectedMinutes int
}

// Compute enumerates Mon-Fri days in [Start, End], drops any day inside
// an exclusion range, and converts half-days to full-day equivalents by
// integer division: two half-days cost one day, three still cost one.
// A start after end yields zero days.
func (c SchoolCalendar) Compute() TermDays {
	var days []time.Time
	for d := dateOnly(c.Start); !d.After(dateOnly(c.End)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if c.excluded(d) {
			continue
		}
		days = append(days, d)
	}

	halfDays := 0
	for _, hd := range c.HalfDays {
		hd = dateOnly(hd)
		if hd.Before(dateOnly(c.Start)) || hd.After(dateOnly(c.End)) {
			continue
		}
		halfDays++
	}

	effective := len(days) - halfDays/2
	if effective < 0 {
		effective = 0
	}
	return TermDays{
		Days:            days,
		EffectiveDays:   effective,
		ExpectedMinutes: effective * c.PerDayMinutes,
	}
}

func (c SchoolCalendar) excluded(day time.Time) bool {
	for _, ex := range c.Exclusions {
		if ex.Contains(day) {
			return true
		}
	}
	return false
}
