package main

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestReport(t *testing.T) *RunReport {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Aliases = map[string][]string{
		"Alexander Gray": {"Alex Gray"},
	}
	cal, err := cfg.Calendar()
	require.NoError(t, err)
	term := cal.Compute()

	assessments := []AssessmentRecord{
		{Name: "Jane Smith", Email: "jane@x.org", Campus: "North", Level: "ES",
			AgeGrade: floatPtr(5), HMG: floatPtr(4), FallScore: floatPtr(190),
			WinterScore: floatPtr(195), Growth: floatPtr(5)},
		{Name: "Alexander Gray", Email: "alex@x.org", Campus: "North", Level: "ES",
			AgeGrade: floatPtr(6), HMG: floatPtr(5), FallScore: floatPtr(200),
			WinterScore: floatPtr(198), Growth: floatPtr(-2)},
		{Name: "Pat Quinn", Email: "pat@x.org", Campus: "South", Level: "HS",
			AgeGrade: floatPtr(10), HMG: floatPtr(9)},
	}
	activity := []ActivityRecord{
		{Email: "jane@x.org", App: "MobyMax", Date: date(2025, time.September, 3),
			ActiveMinutes: 40, XP: 200},
		{Email: "alex@x.org", App: "Mastery Track", Date: date(2025, time.September, 3),
			ActiveMinutes: 30, XP: 900},
	}
	tests := []TestAttemptRecord{
		{Email: "alex@x.org", TestName: "G6 Checkpoint", Date: date(2025, time.September, 10),
			Grade: intPtr(6), Score: floatPtr(50)},
	}
	baselines := map[string]float64{"Alex Gray": 205}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return BuildReport(cfg, term, assessments, activity, tests, baselines, log)
}

func TestBuildReportOrdering(t *testing.T) {
	report := buildTestReport(t)
	require.Len(t, report.Students, 3)

	// Worst growth first, unmeasured growth last.
	assert.Equal(t, "alex@x.org", report.Students[0].Email)
	assert.Equal(t, "jane@x.org", report.Students[1].Email)
	assert.Equal(t, "pat@x.org", report.Students[2].Email)
	assert.Nil(t, report.Students[2].Growth)
}

func TestBuildReportBaselineMatch(t *testing.T) {
	report := buildTestReport(t)

	var alex *StudentMetrics
	for _, m := range report.Students {
		if m.Email == "alex@x.org" {
			alex = m
		}
	}
	require.NotNil(t, alex)
	// Matched through the alias table; summer slide is fall minus spring.
	require.NotNil(t, alex.SpringScore)
	assert.Equal(t, 205.0, *alex.SpringScore)
	require.NotNil(t, alex.SummerSlide)
	assert.Equal(t, -5.0, *alex.SummerSlide)
}

func TestBuildReportSlugsAndNames(t *testing.T) {
	report := buildTestReport(t)

	seen := map[string]bool{}
	for _, m := range report.Students {
		require.NotEmpty(t, m.Slug)
		assert.False(t, seen[m.Slug], "duplicate slug %q", m.Slug)
		seen[m.Slug] = true
		// Display names are anonymized, full names preserved separately.
		assert.True(t, strings.HasSuffix(m.Name, "."), "name %q not anonymized", m.Name)
		assert.NotEqual(t, m.Name, m.OriginalName)
	}
}

func TestBuildReportClassifiesAndRollsUp(t *testing.T) {
	report := buildTestReport(t)

	var pat *StudentMetrics
	for _, m := range report.Students {
		if m.Email == "pat@x.org" {
			pat = m
		}
	}
	require.NotNil(t, pat)
	assert.Equal(t, BandUpper, pat.ReadingBand)
	assert.Equal(t, "HS (G9+)", pat.LevelDisplay)
	assert.Contains(t, pat.Issues, IssueNeedsUpperInstruction)

	assert.True(t, report.FlaggedCount() >= 1)
	require.NotEmpty(t, report.Campuses)
	assert.Equal(t, "North", report.Campuses[0].Campus)
	assert.Equal(t, 2, report.Campuses[0].Count)
}

func TestBuildReportIdempotent(t *testing.T) {
	a := buildTestReport(t)
	b := buildTestReport(t)
	require.Len(t, b.Students, len(a.Students))
	for i := range a.Students {
		assert.Equal(t, a.Students[i].Email, b.Students[i].Email)
		assert.Equal(t, a.Students[i].Slug, b.Students[i].Slug)
		assert.Equal(t, a.Students[i].Issues, b.Students[i].Issues)
	}
}

func TestWriteFlaggedCSV(t *testing.T) {
	report := buildTestReport(t)
	path := filepath.Join(t.TempDir(), "flags.csv")
	require.NoError(t, writeFlaggedCSV(report, path, 1))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "name", rows[0][0])
	assert.Equal(t, report.FlaggedCount(), len(rows)-1)
}

func TestRenderWritesAllPages(t *testing.T) {
	report := buildTestReport(t)
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, NewRenderer(dir, log).Render(report))

	index, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Growth Audit")

	for _, m := range report.Students {
		page, err := os.ReadFile(filepath.Join(dir, "students", m.Slug+".html"))
		require.NoError(t, err, "missing page for %s", m.Slug)
		assert.Contains(t, string(page), m.Name)
	}
}
