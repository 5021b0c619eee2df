package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Loader reads the spreadsheet exports. Malformed values are coerced to a
// safe default and logged; only a missing identity column is fatal, since
// aggregation cannot proceed without it.
type Loader struct {
	cfg Config
	log *slog.Logger

	// Malformed counts values that needed coercion across all tables.
	Malformed int
}

func NewLoader(cfg Config, log *slog.Logger) *Loader {
	return &Loader{cfg: cfg, log: log}
}

// LoadAssessments reads the primary assessment table, filtered to the
// configured subject and with early-literacy program rows excluded.
func (l *Loader) LoadAssessments(path string) ([]AssessmentRecord, error) {
	rows, headers, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	nameIdx, ok := findColumn(headers, []string{"student_name", "student", "name"})
	if !ok {
		return nil, errors.New("assessment table: missing student name column")
	}
	emailIdx, ok := findColumn(headers, []string{"email", "student_email"})
	if !ok {
		return nil, errors.New("assessment table: missing email column")
	}
	subjectIdx, ok := findColumn(headers, []string{"subject"})
	if !ok {
		return nil, errors.New("assessment table: missing subject column")
	}

	campusIdx, _ := findColumn(headers, []string{"campus", "school"})
	levelIdx, _ := findColumn(headers, []string{"level", "program_level"})
	commentsIdx, _ := findColumn(headers, []string{"comments", "notes"})
	placementIdx, _ := findColumn(headers, []string{"rit", "placement_grade"})
	ageGradeIdx, _ := findColumn(headers, []string{"age_grade", "grade"})
	hmgIdx, _ := findColumn(headers, []string{"hmg", "highest_mastered_grade"})
	fallIdx, _ := findColumn(headers, []string{"previous_rit_score_(f)", "fall_score", "fall_rit"})
	winterIdx, _ := findColumn(headers, []string{"1st_take_rit_score_(w)", "winter_score", "winter_rit"})
	projScoreIdx, _ := findColumn(headers, []string{"projected_rit_score_(w)", "projected_score"})
	projGrowthIdx, _ := findColumn(headers, []string{"alpha_projected_growth_(f→w)", "projected_growth"})
	growthIdx, _ := findColumn(headers, []string{"growth_after_1st_take_(f→w)", "growth"})
	growthRetakeIdx, _ := findColumn(headers, []string{"growth_after_1st_take_(w→w)", "growth_retake"})
	masteredIdx, _ := findColumn(headers, []string{"effective_grades_mastered_25-26", "grades_mastered"})
	earlyLitIdx, _ := findColumn(headers, []string{"early_lit"})
	predIdx, _ := findColumn(headers, []string{"current_grade_prediction", "prediction"})
	deepDiveIdx, _ := findColumn(headers, []string{"deep_dive"})
	rushedIdx, _ := findColumn(headers, []string{"rushed_map_test?", "rushed_test"})
	retakeIdx, _ := findColumn(headers, []string{"retake_recommended?", "retake_recommended"})
	predValidIdx, _ := findColumn(headers, []string{"was_prediction_valid?", "prediction_valid"})
	putTimeIdx, _ := findColumn(headers, []string{"put_in_expected_time?_(session_2)", "put_in_time"})
	earnedXPIdx, _ := findColumn(headers, []string{"earned_expected_xp?_(session_2)", "earned_xp"})
	accFlagIdx, _ := findColumn(headers, []string{"ave_accuracy_>80%?_(session_2)", "accuracy_flag"})
	masteredOneIdx, _ := findColumn(headers, []string{"mastered_at_least_1_effective_grade_test?", "mastered_one"})

	marker := strings.ToLower(l.cfg.ExcludeCommentMarker)
	var out []AssessmentRecord
	for _, record := range rows {
		if getValue(record, subjectIdx) != l.cfg.Subject {
			continue
		}
		name := getValue(record, nameIdx)
		email := strings.ToLower(getValue(record, emailIdx))
		if name == "" || email == "" {
			l.coerced("assessments", "row missing name or email, skipped")
			continue
		}
		comments := getValue(record, commentsIdx)
		if marker != "" && strings.Contains(strings.ToLower(comments), marker) {
			continue
		}

		rec := AssessmentRecord{
			Name:              name,
			Email:             email,
			Campus:            getValue(record, campusIdx),
			Level:             getValue(record, levelIdx),
			Comments:          comments,
			PlacementGrade:    l.optFloat("assessments", record, placementIdx),
			AgeGrade:          l.optFloat("assessments", record, ageGradeIdx),
			HMG:               l.optFloat("assessments", record, hmgIdx),
			FallScore:         l.optFloat("assessments", record, fallIdx),
			WinterScore:       l.optFloat("assessments", record, winterIdx),
			ProjectedScore:    l.optFloat("assessments", record, projScoreIdx),
			ProjectedGrowth:   l.optFloat("assessments", record, projGrowthIdx),
			Growth:            l.optFloat("assessments", record, growthIdx),
			GrowthRetake:      l.optFloat("assessments", record, growthRetakeIdx),
			GradesMastered:    int(l.numeric("assessments", record, masteredIdx)),
			EarlyLit:          strings.EqualFold(getValue(record, earlyLitIdx), "yes"),
			CurrentPrediction: getValue(record, predIdx),
			DeepDive:          getValue(record, deepDiveIdx),
			RushedTest:        getValue(record, rushedIdx),
			RetakeRecommended: getValue(record, retakeIdx),
			PredictionValid:   getValue(record, predValidIdx),
			PutInTime:         getValue(record, putTimeIdx),
			EarnedXP:          getValue(record, earnedXPIdx),
			AccuracyFlag:      getValue(record, accFlagIdx),
			MasteredOne:       getValue(record, masteredOneIdx),
		}

		// Growth is defined only when both term scores exist. Derive it
		// when the export lacks the column; never substitute zero.
		if rec.Growth == nil && rec.FallScore != nil && rec.WinterScore != nil {
			rec.Growth = floatPtr(*rec.WinterScore - *rec.FallScore)
		}
		out = append(out, rec)
	}

	l.log.Info("loaded assessments", "path", path, "students", len(out))
	return out, nil
}

// LoadActivity reads the daily activity export, dropping test accounts.
func (l *Loader) LoadActivity(path string) ([]ActivityRecord, error) {
	rows, headers, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	emailIdx, ok := findColumn(headers, []string{"email", "student_email"})
	if !ok {
		return nil, errors.New("activity table: missing email column")
	}
	appIdx, ok := findColumn(headers, []string{"app", "application"})
	if !ok {
		return nil, errors.New("activity table: missing app column")
	}
	dateIdx, ok := findColumn(headers, []string{"date", "activity_date"})
	if !ok {
		return nil, errors.New("activity table: missing date column")
	}

	activeIdx, _ := findColumn(headers, []string{"active_minutes"})
	inactiveIdx, _ := findColumn(headers, []string{"inactive_minutes"})
	wasteIdx, _ := findColumn(headers, []string{"waste_minutes"})
	xpIdx, _ := findColumn(headers, []string{"xp_earned", "xp"})
	lessonsIdx, _ := findColumn(headers, []string{"mastered_lessons", "lessons_mastered"})
	correctIdx, _ := findColumn(headers, []string{"correct_questions"})
	totalQIdx, _ := findColumn(headers, []string{"total_questions"})
	accIdx, _ := findColumn(headers, []string{"accuracy_(%)", "accuracy"})

	var out []ActivityRecord
	for _, record := range rows {
		email := strings.ToLower(getValue(record, emailIdx))
		if email == "" {
			l.coerced("activity", "row missing email, skipped")
			continue
		}
		if l.cfg.TestAccountPrefix != "" && strings.HasPrefix(email, l.cfg.TestAccountPrefix) {
			continue
		}
		day, err := parseDate(getValue(record, dateIdx))
		if err != nil {
			l.coerced("activity", fmt.Sprintf("unparseable date for %s, row skipped", email))
			continue
		}
		out = append(out, ActivityRecord{
			Email:           email,
			App:             getValue(record, appIdx),
			Date:            dateOnly(day),
			ActiveMinutes:   l.numeric("activity", record, activeIdx),
			InactiveMinutes: l.numeric("activity", record, inactiveIdx),
			WasteMinutes:    l.numeric("activity", record, wasteIdx),
			XP:              l.numeric("activity", record, xpIdx),
			LessonsMastered: l.numeric("activity", record, lessonsIdx),
			Correct:         l.numeric("activity", record, correctIdx),
			TotalQuestions:  l.numeric("activity", record, totalQIdx),
			Accuracy:        l.numeric("activity", record, accIdx),
		})
	}

	l.log.Info("loaded activity", "path", path, "rows", len(out))
	return out, nil
}

// LoadTestAttempts reads the test-attempt export, restricted to the
// configured subject and to submissions on or after minDate. Out-of-term
// attempts are dropped entirely, not down-weighted.
func (l *Loader) LoadTestAttempts(path string, minDate time.Time) ([]TestAttemptRecord, error) {
	rows, headers, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	emailIdx, ok := findColumn(headers, []string{"student_email", "email"})
	if !ok {
		return nil, errors.New("test attempt table: missing student email column")
	}
	dateIdx, ok := findColumn(headers, []string{"score_date_utc", "submission_date", "date"})
	if !ok {
		return nil, errors.New("test attempt table: missing submission date column")
	}

	subjectIdx, _ := findColumn(headers, []string{"subject"})
	nameIdx, _ := findColumn(headers, []string{"test_name", "test"})
	gradeIdx, _ := findColumn(headers, []string{"test_grade", "grade"})
	scoreIdx, _ := findColumn(headers, []string{"score", "accuracy"})
	typeIdx, _ := findColumn(headers, []string{"test_type", "type"})
	originIdx, _ := findColumn(headers, []string{"origin"})
	xpIdx, _ := findColumn(headers, []string{"xp"})

	minDate = dateOnly(minDate)
	var out []TestAttemptRecord
	for _, record := range rows {
		if subjectIdx >= 0 && getValue(record, subjectIdx) != l.cfg.Subject {
			continue
		}
		email := strings.ToLower(getValue(record, emailIdx))
		if email == "" {
			l.coerced("test attempts", "row missing email, skipped")
			continue
		}
		day, err := parseDate(getValue(record, dateIdx))
		if err != nil {
			l.coerced("test attempts", fmt.Sprintf("unparseable date for %s, row skipped", email))
			continue
		}
		if dateOnly(day).Before(minDate) {
			continue
		}

		rec := TestAttemptRecord{
			Email:    email,
			TestName: getValue(record, nameIdx),
			Date:     dateOnly(day),
			Score:    l.optFloat("test attempts", record, scoreIdx),
			Type:     getValue(record, typeIdx),
			Origin:   getValue(record, originIdx),
			XP:       l.numeric("test attempts", record, xpIdx),
		}
		if g := l.optFloat("test attempts", record, gradeIdx); g != nil {
			rec.Grade = intPtr(int(*g))
		}
		out = append(out, rec)
	}

	l.log.Info("loaded test attempts", "path", path, "rows", len(out))
	return out, nil
}

// LoadBaselines reads the prior-year score table keyed by student name.
func (l *Loader) LoadBaselines(path string) (map[string]float64, error) {
	rows, headers, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	nameIdx, ok := findColumn(headers, []string{"student", "student_name", "name"})
	if !ok {
		return nil, errors.New("baseline table: missing student name column")
	}
	scoreIdx, ok := findColumn(headers, []string{"spring_2425_rit", "prior_score", "score"})
	if !ok {
		return nil, errors.New("baseline table: missing score column")
	}
	subjectIdx, _ := findColumn(headers, []string{"subject"})

	out := make(map[string]float64)
	for _, record := range rows {
		if subjectIdx >= 0 && getValue(record, subjectIdx) != l.cfg.Subject {
			continue
		}
		name := getValue(record, nameIdx)
		if name == "" {
			continue
		}
		score := l.optFloat("baselines", record, scoreIdx)
		if score == nil {
			continue
		}
		out[name] = *score
	}

	l.log.Info("loaded baselines", "path", path, "students", len(out))
	return out, nil
}

// coerced records one malformed-value coercion or row skip. The per-row
// detail logs at debug so big exports stay quiet without --verbose; the
// counter feeds the run summary either way.
func (l *Loader) coerced(table, msg string) {
	l.Malformed++
	l.log.Debug(msg, "table", table)
}

// optFloat parses a score-like value: empty and "n/a" are absent without
// a warning, anything else unparseable is absent with one.
func (l *Loader) optFloat(table string, record []string, idx int) *float64 {
	raw := getValue(record, idx)
	if raw == "" || strings.EqualFold(raw, "n/a") {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || math.IsNaN(v) {
		l.coerced(table, fmt.Sprintf("non-numeric value %q coerced to absent", raw))
		return nil
	}
	return &v
}

// numeric parses a count-like value, coercing anything unparseable to 0.
func (l *Loader) numeric(table string, record []string, idx int) float64 {
	raw := getValue(record, idx)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || math.IsNaN(v) {
		l.coerced(table, fmt.Sprintf("non-numeric value %q coerced to 0", raw))
		return 0
	}
	return v
}

func readCSV(path string) ([][]string, map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headerRow, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read header of %s: %w", path, err)
	}
	// Strip a UTF-8 BOM some exports carry.
	if len(headerRow) > 0 {
		headerRow[0] = strings.TrimPrefix(headerRow[0], "\uFEFF")
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("unable to read CSV %s: %w", path, err)
		}
		if len(record) == 0 {
			continue
		}
		rows = append(rows, record)
	}
	return rows, normalizeHeaders(headerRow), nil
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

func findColumn(headers map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if idx, ok := headers[normalizeHeader(name)]; ok {
			return idx, true
		}
	}
	return -1, false
}

func getValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	layouts := []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"01-02-2006",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %s", value)
}

func dateOnly(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
