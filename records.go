package main

import "time"

// AssessmentRecord is one row of the primary assessment export, one per
// student per subject. Score-like fields are pointers: a nil score is
// "not assessed", which is different from zero everywhere downstream.
type AssessmentRecord struct {
	Name     string
	Email    string
	Campus   string
	Level    string
	Comments string

	PlacementGrade  *float64
	AgeGrade        *float64
	HMG             *float64
	FallScore       *float64
	WinterScore     *float64
	ProjectedScore  *float64
	ProjectedGrowth *float64
	Growth          *float64
	GrowthRetake    *float64
	GradesMastered  int
	EarlyLit        bool

	CurrentPrediction string
	DeepDive          string
	RushedTest        string
	RetakeRecommended string
	PredictionValid   string
	PutInTime         string
	EarnedXP          string
	AccuracyFlag      string
	MasteredOne       string
}

// ActivityRecord is one row of the daily activity export: one student,
// one app, one day. Non-numeric values are already coerced to zero.
type ActivityRecord struct {
	Email           string
	App             string
	Date            time.Time
	ActiveMinutes   float64
	InactiveMinutes float64
	WasteMinutes    float64
	XP              float64
	LessonsMastered float64
	Correct         float64
	TotalQuestions  float64
	Accuracy        float64
}

// TestAttemptRecord is one submitted test. Grade and Score stay nil when
// the export had no parseable value; such attempts count toward totals
// but are neither passes nor doom-loop fails.
type TestAttemptRecord struct {
	Email    string
	TestName string
	Date     time.Time
	Grade    *int
	Score    *float64
	Type     string
	Origin   string
	XP       float64
}

// Passed reports whether the attempt scored at or above the pass threshold.
func (t TestAttemptRecord) Passed(threshold float64) bool {
	return t.Score != nil && *t.Score >= threshold
}

// ReadingBand routes a student into one of the two report cohorts.
type ReadingBand string

const (
	BandLower ReadingBand = "G3-8"
	BandUpper ReadingBand = "G9+"
)

// AppUsage is the per-app rollup shown on student pages.
type AppUsage struct {
	App            string      `json:"app"`
	Category       AppCategory `json:"category"`
	XP             float64     `json:"xp"`
	PctXP          float64     `json:"pct_xp"`
	Minutes        float64     `json:"minutes"`
	Mastered       int         `json:"mastered"`
	Correct        int         `json:"correct"`
	TotalQuestions int         `json:"total_q"`
	Accuracy       float64     `json:"accuracy"`
}

// DayActivity is one school-day slot of the activity timeline.
// Days without activity are present with zero minutes.
type DayActivity struct {
	Date    string  `json:"date"`
	Minutes float64 `json:"minutes"`
}

// TestResult is one test attempt as rendered in the history table.
type TestResult struct {
	Date     string   `json:"date"`
	TestName string   `json:"test_name"`
	Grade    *int     `json:"grade"`
	Score    *float64 `json:"score"`
	Passed   bool     `json:"passed"`
	Type     string   `json:"type"`
	Origin   string   `json:"origin"`
	XP       float64  `json:"xp"`
}

// StudentMetrics is the aggregate record for one student: everything the
// classifier, the systemic scan, and the renderer consume. Computed once
// per run and immutable afterward.
type StudentMetrics struct {
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Email        string `json:"email"`
	Slug         string `json:"slug"`
	Campus       string `json:"campus"`
	Level        string `json:"level"`
	LevelDisplay string `json:"level_display"`
	UpperBandTag string `json:"upper_band_tag"`

	AgeGrade       *int        `json:"age_grade"`
	EarlyLit       bool        `json:"early_lit"`
	PlacementGrade *float64    `json:"placement_grade"`
	HMG            *float64    `json:"hmg"`
	ReadingGrade   *int        `json:"reading_grade"`
	ReadingBand    ReadingBand `json:"reading_band"`

	FallScore       *float64 `json:"fall_score"`
	WinterScore     *float64 `json:"winter_score"`
	ProjectedScore  *float64 `json:"projected_score"`
	ProjectedGrowth *float64 `json:"projected_growth"`
	Growth          *float64 `json:"growth"`
	GrowthRetake    *float64 `json:"growth_retake"`
	GrowthCategory  string   `json:"growth_category"`
	MetTwoX         bool     `json:"met_2x"`
	GradesMastered  int      `json:"grades_mastered"`
	Gap             *float64 `json:"gap"`

	SpringScore *float64 `json:"spring_score"`
	SummerSlide *float64 `json:"summer_slide"`

	HasActivity     bool          `json:"has_activity"`
	ActiveMinutes   float64       `json:"active_minutes"`
	InactiveMinutes float64       `json:"inactive_minutes"`
	WasteMinutes    float64       `json:"waste_minutes"`
	PctNonActive    float64       `json:"pct_non_active"`
	TotalXP         float64       `json:"total_xp"`
	PctExpected     float64       `json:"pct_expected"`
	DailyAvg        float64       `json:"daily_avg"`
	InstructionXP   float64       `json:"instruction_xp"`
	PracticeXP      float64       `json:"practice_xp"`
	TestingXP       float64       `json:"testing_xp"`
	EarlyLitXP      float64       `json:"early_lit_xp"`
	AdminXP         float64       `json:"admin_xp"`
	PctInstruction  float64       `json:"pct_instruction"`
	PctPractice     float64       `json:"pct_practice"`
	PctTesting      float64       `json:"pct_testing"`
	AppBreakdown    []AppUsage    `json:"app_breakdown"`
	DailyTimeline   []DayActivity `json:"daily_timeline"`

	HasTests         bool         `json:"has_tests"`
	TotalTests       int          `json:"total_tests"`
	PassedTests      int          `json:"passed_tests"`
	PassRate         float64      `json:"pass_rate"`
	HMGPlus1Total    int          `json:"hmg_plus1_total"`
	HMGPlus1Passed   int          `json:"hmg_plus1_passed"`
	HMGPlus1PassRate float64      `json:"hmg_plus1_pass_rate"`
	HMGPlus1TestDays int          `json:"hmg_plus1_test_days"`
	DoomGrades       []int        `json:"doom_grades"`
	DoomLoopAboveHMG bool         `json:"doom_loop_above_hmg"`
	GradesTested     []int        `json:"grades_tested"`
	TestHistory      []TestResult `json:"test_history"`

	CurrentPrediction string `json:"current_prediction"`
	DeepDive          string `json:"deep_dive"`
	Comments          string `json:"comments"`
	RushedTest        string `json:"rushed_test"`
	RetakeRecommended string `json:"retake_recommended"`
	PredictionValid   string `json:"prediction_valid"`
	PutInTime         string `json:"put_in_time"`
	EarnedXP          string `json:"earned_xp"`
	AccuracyFlag      string `json:"accuracy_flag"`
	MasteredOne       string `json:"mastered_one"`

	Issues []Issue `json:"issues"`
}

// HasIssue reports whether the classifier flagged the student with issue.
func (m *StudentMetrics) HasIssue(issue Issue) bool {
	for _, i := range m.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
