package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func smallAggregator(t *testing.T) *Aggregator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Term = TermConfig{
		Start:         "2026-01-05",
		End:           "2026-01-16",
		PerDayMinutes: 25,
		Exclusions: []ExclusionRange{
			{Name: "PD day", Start: "2026-01-12", End: "2026-01-12"},
		},
		HalfDays: []string{"2026-01-08", "2026-01-09"},
	}
	cal, err := cfg.Calendar()
	require.NoError(t, err)
	return NewAggregator(cfg, NewCategorizer(cfg.Apps), cal.Compute())
}

func activityRow(app string, day time.Time, active, xp, accuracy float64) ActivityRecord {
	return ActivityRecord{
		Email:         "kid@example.org",
		App:           app,
		Date:          day,
		ActiveMinutes: active,
		XP:            xp,
		Accuracy:      accuracy,
	}
}

func attempt(day time.Time, grade int, score float64) TestAttemptRecord {
	return TestAttemptRecord{
		Email:    "kid@example.org",
		TestName: "Checkpoint",
		Date:     day,
		Grade:    intPtr(grade),
		Score:    floatPtr(score),
	}
}

func TestAggregateActivityTotals(t *testing.T) {
	agg := smallAggregator(t)
	rec := AssessmentRecord{Name: "Kid Example", Email: "kid@example.org"}
	activity := []ActivityRecord{
		activityRow("MobyMax", date(2026, time.January, 6), 60, 300, 0.8),
		activityRow("MobyMax", date(2026, time.January, 7), 20, 100, 0.9),
		activityRow("Mastery Track", date(2026, time.January, 7), 20, 600, 85),
	}

	m := agg.Aggregate(rec, activity, nil, nil)

	require.True(t, m.HasActivity)
	require.Equal(t, 100.0, m.ActiveMinutes)
	require.Equal(t, 1000.0, m.TotalXP)
	// 8 effective days at 25 min/day gives 200 expected minutes.
	require.Equal(t, 50.0, m.PctExpected)
	require.Equal(t, 12.5, m.DailyAvg)
	require.Equal(t, 400.0, m.InstructionXP)
	require.Equal(t, 600.0, m.TestingXP)
	require.Equal(t, 40.0, m.PctInstruction)
	require.Equal(t, 60.0, m.PctTesting)
	require.Equal(t, 100.0, m.PctInstruction+m.PctPractice+m.PctTesting)

	require.Len(t, m.AppBreakdown, 2)
	require.Equal(t, "Mastery Track", m.AppBreakdown[0].App)
	require.Equal(t, "MobyMax", m.AppBreakdown[1].App)
	require.Equal(t, 60.0, m.AppBreakdown[0].PctXP)
	require.Equal(t, 40.0, m.AppBreakdown[1].PctXP)
	// Fractional accuracies scale to percent, already-scaled ones do not.
	require.Equal(t, 85.0, m.AppBreakdown[0].Accuracy)
	require.Equal(t, 85.0, m.AppBreakdown[1].Accuracy)

	require.Len(t, m.DailyTimeline, 9)
	byDate := map[string]float64{}
	for _, d := range m.DailyTimeline {
		byDate[d.Date] = d.Minutes
	}
	require.Equal(t, 60.0, byDate["2026-01-06"])
	require.Equal(t, 40.0, byDate["2026-01-07"])
	require.Equal(t, 0.0, byDate["2026-01-13"])
}

func TestAggregateNonActiveShare(t *testing.T) {
	agg := smallAggregator(t)
	activity := []ActivityRecord{{
		Email:           "kid@example.org",
		App:             "MobyMax",
		Date:            date(2026, time.January, 6),
		ActiveMinutes:   60,
		InactiveMinutes: 30,
		WasteMinutes:    10,
	}}
	m := agg.Aggregate(AssessmentRecord{Name: "Kid Example", Email: "kid@example.org"}, activity, nil, nil)
	require.Equal(t, 40.0, m.PctNonActive)
}

func TestAggregateNoActivity(t *testing.T) {
	agg := smallAggregator(t)
	m := agg.Aggregate(AssessmentRecord{Name: "Kid Example", Email: "kid@example.org"}, nil, nil, nil)

	require.False(t, m.HasActivity)
	require.Equal(t, 0.0, m.PctExpected)
	require.Equal(t, 0.0, m.DailyAvg)
	require.Empty(t, m.DailyTimeline)
}

func TestAggregateDoomLoop(t *testing.T) {
	agg := smallAggregator(t)
	rec := AssessmentRecord{Name: "Kid Example", Email: "kid@example.org", HMG: floatPtr(3)}
	tests := []TestAttemptRecord{
		attempt(date(2026, time.January, 6), 4, 50),
		attempt(date(2026, time.January, 7), 4, 60),
		attempt(date(2026, time.January, 8), 4, 70),
	}

	m := agg.Aggregate(rec, nil, tests, nil)
	require.Equal(t, []int{4}, m.DoomGrades)
	require.True(t, m.DoomLoopAboveHMG)

	// An eventual pass clears the loop regardless of prior failures.
	tests = append(tests, attempt(date(2026, time.January, 9), 4, 95))
	m = agg.Aggregate(rec, nil, tests, nil)
	require.Empty(t, m.DoomGrades)
	require.False(t, m.DoomLoopAboveHMG)
}

func TestAggregateScorelessAttemptIsNeitherPassNorFail(t *testing.T) {
	agg := smallAggregator(t)
	rec := AssessmentRecord{Name: "Kid Example", Email: "kid@example.org"}
	tests := []TestAttemptRecord{
		{Email: "kid@example.org", Date: date(2026, time.January, 6), Grade: intPtr(4)},
		{Email: "kid@example.org", Date: date(2026, time.January, 7), Grade: intPtr(4)},
		{Email: "kid@example.org", Date: date(2026, time.January, 8), Grade: intPtr(4)},
	}

	m := agg.Aggregate(rec, nil, tests, nil)
	require.Equal(t, 3, m.TotalTests)
	require.Equal(t, 0, m.PassedTests)
	require.Empty(t, m.DoomGrades)
}

func TestResolveHMGFallback(t *testing.T) {
	agg := smallAggregator(t)

	// Absent HMG: take the best passed grade.
	m := agg.Aggregate(AssessmentRecord{Name: "A B", Email: "a@x"}, nil, []TestAttemptRecord{
		attempt(date(2026, time.January, 6), 3, 95),
		attempt(date(2026, time.January, 7), 5, 90),
		attempt(date(2026, time.January, 8), 7, 60),
	}, nil)
	require.NotNil(t, m.HMG)
	require.Equal(t, 5.0, *m.HMG)
	require.Equal(t, 6, *m.ReadingGrade)

	// Sentinel HMG of 1 gives way to stronger test evidence.
	m = agg.Aggregate(AssessmentRecord{Name: "A B", Email: "a@x", HMG: floatPtr(1)}, nil, []TestAttemptRecord{
		attempt(date(2026, time.January, 6), 7, 92),
	}, nil)
	require.Equal(t, 7.0, *m.HMG)

	// A plausible spreadsheet HMG is never lowered.
	m = agg.Aggregate(AssessmentRecord{Name: "A B", Email: "a@x", HMG: floatPtr(4)}, nil, []TestAttemptRecord{
		attempt(date(2026, time.January, 6), 2, 99),
	}, nil)
	require.Equal(t, 4.0, *m.HMG)
}

func TestAggregateFrontierStats(t *testing.T) {
	agg := smallAggregator(t)
	rec := AssessmentRecord{Name: "Kid Example", Email: "kid@example.org", HMG: floatPtr(4)}
	tests := []TestAttemptRecord{
		attempt(date(2026, time.January, 6), 5, 95),
		attempt(date(2026, time.January, 6), 5, 50),
		attempt(date(2026, time.January, 7), 5, 40),
		attempt(date(2026, time.January, 7), 3, 99), // below frontier, ignored
	}

	m := agg.Aggregate(rec, nil, tests, nil)
	require.Equal(t, 3, m.HMGPlus1Total)
	require.Equal(t, 1, m.HMGPlus1Passed)
	require.Equal(t, 33.3, m.HMGPlus1PassRate)
	require.Equal(t, 2, m.HMGPlus1TestDays)
}

func TestAssignBand(t *testing.T) {
	agg := smallAggregator(t)

	cases := []struct {
		name  string
		level string
		hmg   *float64
		age   *float64
		want  ReadingBand
	}{
		{"upper level at G9", "HS", floatPtr(9), floatPtr(10), BandUpper},
		{"core mastery range", "", floatPtr(5), floatPtr(6), BandLower},
		{"young with high hmg", "", floatPtr(10), floatPtr(6), BandLower},
		{"sentinel hmg older upper level", "HS", floatPtr(1), floatPtr(10), BandUpper},
		{"sentinel hmg not upper level", "", floatPtr(1), floatPtr(10), BandLower},
		{"no hmg young", "", nil, floatPtr(5), BandLower},
		{"no hmg no age", "", nil, nil, BandLower},
		{"high hmg outside upper level", "", floatPtr(9), nil, BandLower},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, agg.assignBand(tc.level, tc.hmg, tc.age))
		})
	}
}

func TestUpperLevelTag(t *testing.T) {
	agg := smallAggregator(t)

	m := agg.Aggregate(AssessmentRecord{Name: "A B", Email: "a@x", Level: "HS", HMG: floatPtr(9)}, nil, nil, nil)
	require.Equal(t, "HS (G9+)", m.UpperBandTag)
	require.Equal(t, "HS (G9+)", m.LevelDisplay)

	m = agg.Aggregate(AssessmentRecord{Name: "A B", Email: "a@x", Level: "HS", HMG: floatPtr(6)}, nil, nil, nil)
	require.Equal(t, "HS (≤G8)", m.UpperBandTag)

	m = agg.Aggregate(AssessmentRecord{Name: "A B", Email: "a@x", Level: "HS"}, nil, nil, nil)
	require.Equal(t, "HS (No HMG)", m.UpperBandTag)

	// A fractional HMG between the two bands matches neither comparison.
	m = agg.Aggregate(AssessmentRecord{Name: "A B", Email: "a@x", Level: "HS", HMG: floatPtr(7.5)}, nil, nil, nil)
	require.Equal(t, "HS (No HMG)", m.UpperBandTag)

	m = agg.Aggregate(AssessmentRecord{Name: "A B", Email: "a@x", Level: "ES", HMG: floatPtr(6)}, nil, nil, nil)
	require.Empty(t, m.UpperBandTag)
	require.Equal(t, "ES", m.LevelDisplay)
}

func TestAggregateDerivedScores(t *testing.T) {
	agg := smallAggregator(t)
	rec := AssessmentRecord{
		Name:      "Kid Example",
		Email:     "kid@example.org",
		HMG:       floatPtr(4),
		AgeGrade:  floatPtr(7),
		FallScore: floatPtr(195),
		Growth:    floatPtr(2),
	}

	m := agg.Aggregate(rec, nil, nil, floatPtr(200))
	require.NotNil(t, m.SummerSlide)
	require.Equal(t, -5.0, *m.SummerSlide)
	require.NotNil(t, m.Gap)
	require.Equal(t, -3.0, *m.Gap)
	require.True(t, m.MetTwoX)
	require.Equal(t, "positive", m.GrowthCategory)

	m = agg.Aggregate(AssessmentRecord{Name: "Kid Example", Email: "kid@example.org"}, nil, nil, nil)
	require.Nil(t, m.SummerSlide)
	require.Nil(t, m.Gap)
	require.False(t, m.MetTwoX)
	require.Equal(t, "unknown", m.GrowthCategory)
}
