package main

import (
	"sort"
)

// Grade-band boundaries. The lower band is the grade range served by the
// structured instruction apps; the upper band needs a separate resource.
const (
	hmgSentinelMax           = 1 // HMG at or below this means "not meaningfully assessed"
	lowerBandMinHMG          = 2
	lowerBandMaxHMG          = 7
	upperBandMinHMG          = 8
	lowerBandMaxPlausibleHMG = 12
	lowerBandMinAge          = 3
	lowerBandMaxAge          = 8
	upperBandMinAge          = 9
	doomLoopMinFails         = 3
	metTwoXGrowth            = 2
)

// Aggregator turns one student's raw records into a StudentMetrics. It is
// a pure function of its inputs plus the term constants, so students can
// be processed in any order (or in parallel) without coordination.
type Aggregator struct {
	cfg  Config
	cat  *Categorizer
	term TermDays
}

func NewAggregator(cfg Config, cat *Categorizer, term TermDays) *Aggregator {
	return &Aggregator{cfg: cfg, cat: cat, term: term}
}

// Aggregate computes the metrics record for one student. activity and
// tests are that student's record subsets (possibly empty); springScore
// is the prior-year baseline when one matched.
func (a *Aggregator) Aggregate(rec AssessmentRecord, activity []ActivityRecord, tests []TestAttemptRecord, springScore *float64) *StudentMetrics {
	m := &StudentMetrics{
		Name:              anonymizeName(rec.Name),
		OriginalName:      rec.Name,
		Email:             rec.Email,
		Campus:            rec.Campus,
		Level:             rec.Level,
		EarlyLit:          rec.EarlyLit,
		PlacementGrade:    rec.PlacementGrade,
		FallScore:         rec.FallScore,
		WinterScore:       rec.WinterScore,
		ProjectedScore:    rec.ProjectedScore,
		ProjectedGrowth:   rec.ProjectedGrowth,
		Growth:            rec.Growth,
		GrowthRetake:      rec.GrowthRetake,
		GradesMastered:    rec.GradesMastered,
		SpringScore:       springScore,
		CurrentPrediction: rec.CurrentPrediction,
		DeepDive:          rec.DeepDive,
		Comments:          rec.Comments,
		RushedTest:        rec.RushedTest,
		RetakeRecommended: rec.RetakeRecommended,
		PredictionValid:   rec.PredictionValid,
		PutInTime:         rec.PutInTime,
		EarnedXP:          rec.EarnedXP,
		AccuracyFlag:      rec.AccuracyFlag,
		MasteredOne:       rec.MasteredOne,
	}
	if rec.AgeGrade != nil {
		m.AgeGrade = intPtr(int(*rec.AgeGrade))
	}

	a.aggregateActivity(m, activity)
	a.aggregateTests(m, tests)

	m.HMG = a.resolveHMG(rec.HMG, tests)
	if m.HMG != nil {
		m.ReadingGrade = intPtr(int(*m.HMG) + 1)
	}
	a.aggregateFrontier(m, tests)

	m.ReadingBand = a.assignBand(rec.Level, m.HMG, rec.AgeGrade)
	m.LevelDisplay = rec.Level
	if rec.Level == a.cfg.UpperLevel {
		m.UpperBandTag = upperLevelTag(m.HMG)
		m.LevelDisplay = m.UpperBandTag
	}

	if m.SpringScore != nil && m.FallScore != nil {
		m.SummerSlide = floatPtr(round1(*m.FallScore - *m.SpringScore))
	}
	if m.HMG != nil && rec.AgeGrade != nil {
		m.Gap = floatPtr(round1(*m.HMG - *rec.AgeGrade))
	}

	m.GrowthCategory = growthCategory(m.Growth)
	m.MetTwoX = m.Growth != nil && *m.Growth >= metTwoXGrowth

	// Doom loops above the resolved frontier feed the systemic detail
	// split; loops at or below it are retreads of mastered ground.
	if len(m.DoomGrades) > 0 {
		if m.HMG == nil {
			m.DoomLoopAboveHMG = true
		} else {
			for _, g := range m.DoomGrades {
				if g > int(*m.HMG) {
					m.DoomLoopAboveHMG = true
					break
				}
			}
		}
	}

	return m
}

func (a *Aggregator) aggregateActivity(m *StudentMetrics, activity []ActivityRecord) {
	m.HasActivity = len(activity) > 0
	if !m.HasActivity {
		return
	}

	type appAccum struct {
		AppUsage
		accSum   float64
		accCount int
	}
	byApp := map[string]*appAccum{}
	byDay := map[string]float64{}

	for _, row := range activity {
		m.ActiveMinutes += row.ActiveMinutes
		m.InactiveMinutes += row.InactiveMinutes
		m.WasteMinutes += row.WasteMinutes
		m.TotalXP += row.XP

		acc, ok := byApp[row.App]
		if !ok {
			acc = &appAccum{AppUsage: AppUsage{App: row.App, Category: a.cat.Categorize(row.App)}}
			byApp[row.App] = acc
		}
		acc.XP += row.XP
		acc.Minutes += row.ActiveMinutes
		acc.Mastered += int(row.LessonsMastered)
		acc.Correct += int(row.Correct)
		acc.TotalQuestions += int(row.TotalQuestions)
		acc.accSum += row.Accuracy
		acc.accCount++

		byDay[row.Date.Format("2006-01-02")] += row.ActiveMinutes
	}

	for _, acc := range byApp {
		switch acc.Category {
		case CategoryInstruction:
			m.InstructionXP += acc.XP
		case CategoryPractice:
			m.PracticeXP += acc.XP
		case CategoryTesting:
			m.TestingXP += acc.XP
		case CategoryEarlyLit:
			m.EarlyLitXP += acc.XP
		default:
			m.AdminXP += acc.XP
		}

		usage := acc.AppUsage
		if m.TotalXP > 0 {
			usage.PctXP = round1(usage.XP / m.TotalXP * 100)
		}
		usage.XP = round1(usage.XP)
		usage.Minutes = round1(usage.Minutes)
		if acc.accCount > 0 {
			mean := acc.accSum / float64(acc.accCount)
			// Some exports report accuracy as a 0-1 fraction.
			if mean <= 1 {
				mean *= 100
			}
			usage.Accuracy = round1(mean)
		}
		m.AppBreakdown = append(m.AppBreakdown, usage)
	}
	sort.Slice(m.AppBreakdown, func(i, j int) bool {
		if m.AppBreakdown[i].XP != m.AppBreakdown[j].XP {
			return m.AppBreakdown[i].XP > m.AppBreakdown[j].XP
		}
		return m.AppBreakdown[i].App < m.AppBreakdown[j].App
	})

	if a.term.ExpectedMinutes > 0 {
		m.PctExpected = round1(m.ActiveMinutes / float64(a.term.ExpectedMinutes) * 100)
	}
	if a.term.EffectiveDays > 0 {
		m.DailyAvg = round1(m.ActiveMinutes / float64(a.term.EffectiveDays))
	}
	if m.TotalXP > 0 {
		m.PctInstruction = round1(m.InstructionXP / m.TotalXP * 100)
		m.PctPractice = round1(m.PracticeXP / m.TotalXP * 100)
		m.PctTesting = round1(m.TestingXP / m.TotalXP * 100)
	}
	if logged := m.ActiveMinutes + m.InactiveMinutes + m.WasteMinutes; logged > 0 {
		m.PctNonActive = round1((m.InactiveMinutes + m.WasteMinutes) / logged * 100)
	}

	m.ActiveMinutes = round1(m.ActiveMinutes)
	m.InactiveMinutes = round1(m.InactiveMinutes)
	m.WasteMinutes = round1(m.WasteMinutes)
	m.TotalXP = round1(m.TotalXP)

	for _, day := range a.term.Days {
		key := day.Format("2006-01-02")
		m.DailyTimeline = append(m.DailyTimeline, DayActivity{
			Date:    key,
			Minutes: round1(byDay[key]),
		})
	}
}

func (a *Aggregator) aggregateTests(m *StudentMetrics, tests []TestAttemptRecord) {
	m.HasTests = len(tests) > 0
	if !m.HasTests {
		return
	}

	threshold := a.cfg.Classify.PassThreshold
	m.TotalTests = len(tests)

	failsByGrade := map[int]int{}
	passedGrades := map[int]bool{}
	gradesSeen := map[int]bool{}

	for _, t := range tests {
		passed := t.Passed(threshold)
		if passed {
			m.PassedTests++
		}
		var score *float64
		if t.Score != nil {
			score = floatPtr(round1(*t.Score))
		}
		m.TestHistory = append(m.TestHistory, TestResult{
			Date:     t.Date.Format("2006-01-02"),
			TestName: t.TestName,
			Grade:    t.Grade,
			Score:    score,
			Passed:   passed,
			Type:     t.Type,
			Origin:   t.Origin,
			XP:       round1(t.XP),
		})

		if t.Grade == nil {
			continue
		}
		gradesSeen[*t.Grade] = true
		if passed {
			passedGrades[*t.Grade] = true
		} else if t.Score != nil {
			// Scoreless attempts are neither passes nor fails.
			failsByGrade[*t.Grade]++
		}
	}

	sort.SliceStable(m.TestHistory, func(i, j int) bool {
		return m.TestHistory[i].Date < m.TestHistory[j].Date
	})

	for g := range gradesSeen {
		m.GradesTested = append(m.GradesTested, g)
	}
	sort.Ints(m.GradesTested)

	// A grade the student eventually passed is never a doom loop, no
	// matter how many failures preceded the pass.
	for g, fails := range failsByGrade {
		if fails >= doomLoopMinFails && !passedGrades[g] {
			m.DoomGrades = append(m.DoomGrades, g)
		}
	}
	sort.Ints(m.DoomGrades)

	if m.TotalTests > 0 {
		m.PassRate = round1(float64(m.PassedTests) / float64(m.TotalTests) * 100)
	}
}

// resolveHMG applies the test-evidence fallback: a missing or sentinel
// spreadsheet value may be replaced by the best passed test grade, but a
// plausible spreadsheet value is never lowered by test evidence.
func (a *Aggregator) resolveHMG(hmg *float64, tests []TestAttemptRecord) *float64 {
	if hmg != nil && *hmg > hmgSentinelMax {
		return hmg
	}
	best := -1
	for _, t := range tests {
		if t.Grade != nil && t.Passed(a.cfg.Classify.PassThreshold) && *t.Grade > best {
			best = *t.Grade
		}
	}
	if best < 0 {
		return hmg
	}
	if hmg == nil || float64(best) > *hmg {
		return floatPtr(float64(best))
	}
	return hmg
}

// aggregateFrontier computes the HMG+1 totals: attempts at the grade just
// above the resolved mastery level, which measure readiness to advance
// without dilution from remedial retakes below the frontier.
func (a *Aggregator) aggregateFrontier(m *StudentMetrics, tests []TestAttemptRecord) {
	if m.HMG == nil || len(tests) == 0 {
		return
	}
	target := int(*m.HMG) + 1
	days := map[string]bool{}
	for _, t := range tests {
		if t.Grade == nil || *t.Grade != target {
			continue
		}
		m.HMGPlus1Total++
		days[t.Date.Format("2006-01-02")] = true
		if t.Passed(a.cfg.Classify.PassThreshold) {
			m.HMGPlus1Passed++
		}
	}
	m.HMGPlus1TestDays = len(days)
	if m.HMGPlus1Total > 0 {
		m.HMGPlus1PassRate = round1(float64(m.HMGPlus1Passed) / float64(m.HMGPlus1Total) * 100)
	}
}

// assignBand routes the student into a report cohort. The priority order
// is fixed: it decides which instructional-app expectations apply, so a
// reorder silently changes downstream classification.
func (a *Aggregator) assignBand(level string, hmg, ageGrade *float64) ReadingBand {
	upperLevel := level == a.cfg.UpperLevel
	switch {
	case upperLevel && hmg != nil && *hmg >= upperBandMinHMG:
		return BandUpper
	case hmg != nil && *hmg >= lowerBandMinHMG && *hmg <= lowerBandMaxHMG:
		return BandLower
	case ageGrade != nil && *ageGrade >= lowerBandMinAge && *ageGrade <= lowerBandMaxAge &&
		hmg != nil && *hmg >= lowerBandMinHMG && *hmg <= lowerBandMaxPlausibleHMG:
		return BandLower
	case hmg == nil || *hmg <= hmgSentinelMax:
		if ageGrade != nil && *ageGrade >= upperBandMinAge && upperLevel {
			return BandUpper
		}
		return BandLower
	default:
		// HMG 8-12 outside the upper program level.
		return BandLower
	}
}

func upperLevelTag(hmg *float64) string {
	switch {
	case hmg != nil && *hmg >= upperBandMinHMG:
		return "HS (G9+)"
	case hmg != nil && *hmg <= lowerBandMaxHMG:
		return "HS (≤G8)"
	default:
		// Absent HMG, or a fractional value between the two bands.
		return "HS (No HMG)"
	}
}

func growthCategory(growth *float64) string {
	switch {
	case growth == nil:
		return "unknown"
	case *growth < 0:
		return "negative"
	case *growth == 0:
		return "zero"
	default:
		return "positive"
	}
}
