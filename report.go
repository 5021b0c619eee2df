package main

import (
	"log/slog"
	"sort"
	"time"
)

// RunReport is the complete output of one audit run: the per-student
// metrics, the systemic patterns, and the run parameters needed to read
// the numbers. It marshals directly into the JSON snapshot.
type RunReport struct {
	GeneratedAt     time.Time         `json:"generated_at"`
	Subject         string            `json:"subject"`
	TermStart       string            `json:"term_start"`
	TermEnd         string            `json:"term_end"`
	EffectiveDays   int               `json:"effective_days"`
	ExpectedMinutes int               `json:"expected_minutes"`
	PassThreshold   float64           `json:"pass_threshold"`
	Students        []*StudentMetrics `json:"students"`
	Systemic        []SystemicIssue   `json:"systemic_issues"`
	Campuses        []CampusStats     `json:"campuses"`
	MalformedValues int               `json:"malformed_values"`
}

// FlaggedCount returns how many students carry at least one issue.
func (r *RunReport) FlaggedCount() int {
	n := 0
	for _, m := range r.Students {
		if len(m.Issues) > 0 {
			n++
		}
	}
	return n
}

// BuildReport runs the full pipeline over loaded records: group, match
// prior-year baselines, aggregate, classify, slug, sort.
func BuildReport(cfg Config, term TermDays, assessments []AssessmentRecord, activity []ActivityRecord, tests []TestAttemptRecord, baselines map[string]float64, log *slog.Logger) *RunReport {
	activityByEmail := map[string][]ActivityRecord{}
	for _, row := range activity {
		activityByEmail[row.Email] = append(activityByEmail[row.Email], row)
	}
	testsByEmail := map[string][]TestAttemptRecord{}
	for _, t := range tests {
		testsByEmail[t.Email] = append(testsByEmail[t.Email], t)
	}

	baselineNames := make([]string, 0, len(baselines))
	for name := range baselines {
		baselineNames = append(baselineNames, name)
	}
	sort.Strings(baselineNames)
	matcher := NewNameMatcher(cfg.Aliases)

	agg := NewAggregator(cfg, NewCategorizer(cfg.Apps), term)
	classifier := NewClassifier(cfg.Classify)

	students := make([]*StudentMetrics, 0, len(assessments))
	matched := 0
	for _, rec := range assessments {
		var spring *float64
		if name, ok := matcher.MatchOne(rec.Name, baselineNames); ok {
			spring = floatPtr(baselines[name])
			matched++
		}
		m := agg.Aggregate(rec, activityByEmail[rec.Email], testsByEmail[rec.Email], spring)
		m.Issues = classifier.Classify(m)
		students = append(students, m)
	}
	if len(baselines) > 0 {
		log.Info("matched prior-year baselines",
			"matched", matched, "students", len(students), "baselines", len(baselines))
	}

	resolveSlugs(students)
	sortStudents(students)

	return &RunReport{
		GeneratedAt:     time.Now(),
		Subject:         cfg.Subject,
		TermStart:       cfg.Term.Start,
		TermEnd:         cfg.Term.End,
		EffectiveDays:   term.EffectiveDays,
		ExpectedMinutes: term.ExpectedMinutes,
		PassThreshold:   cfg.Classify.PassThreshold,
		Students:        students,
		Systemic:        FindSystemicIssues(students),
		Campuses:        BuildCampusStats(students),
	}
}

// sortStudents orders worst growth first so the top of every table is
// the students who need attention. Unmeasured students sort last.
func sortStudents(students []*StudentMetrics) {
	sort.SliceStable(students, func(i, j int) bool {
		gi, gj := students[i].Growth, students[j].Growth
		switch {
		case gi == nil && gj == nil:
			return students[i].Name < students[j].Name
		case gi == nil:
			return false
		case gj == nil:
			return true
		case *gi != *gj:
			return *gi < *gj
		default:
			return students[i].Name < students[j].Name
		}
	})
}
