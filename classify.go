package main

// Issue is a stable machine key for one classification flag. Keys appear
// verbatim in the JSON snapshot and the flagged-students CSV.
type Issue string

const (
	IssueNeedsUpperInstruction Issue = "NEEDS_UPPER_INSTRUCTION"
	IssueNeedsLowerInstruction Issue = "NEEDS_LOWER_INSTRUCTION"
	IssueOverTesting           Issue = "OVER_TESTING"
	IssueDoomLoop              Issue = "DOOM_LOOP"
	IssueLowEngagement         Issue = "LOW_ENGAGEMENT"
	IssueTimeNoGrowth          Issue = "TIME_NO_GROWTH"
	IssueAtGradeNoMotivation   Issue = "AT_GRADE_NO_MOTIVATION"
	IssueLargeGap              Issue = "LARGE_GAP"
	IssueLowEffectiveTests     Issue = "LOW_EFFECTIVE_TESTS"
	IssueQuality               Issue = "QUALITY_ISSUE"
)

// Classification thresholds. Percentages are 0-100.
const (
	overTestingXPPct    = 50.0
	lowEngagementPct    = 50.0
	timeNoGrowthPct     = 100.0
	largeGapGrades      = -3.0
	frontierMinAttempts = 2
	frontierLowRatePct  = 50.0
	qualityIssueMinPct  = 75.0
)

// IssueMeta is the display metadata for one issue key.
type IssueMeta struct {
	Title string
	Desc  string
	Color string
}

var issueMetas = map[Issue]IssueMeta{
	IssueNeedsUpperInstruction: {
		Title: "Needs Upper-Band Instruction",
		Desc:  "Reading at grade 8 or above with no instruction app serving that range",
		Color: "#e74c3c",
	},
	IssueNeedsLowerInstruction: {
		Title: "Needs Core Instruction App",
		Desc:  "In the core instruction grade range but spending zero time in any instruction app",
		Color: "#e67e22",
	},
	IssueOverTesting: {
		Title: "Over-Testing",
		Desc:  "More than half of all XP earned in testing apps",
		Color: "#9b59b6",
	},
	IssueDoomLoop: {
		Title: "Doom Loop",
		Desc:  "Failed the same grade-level test three or more times without ever passing it",
		Color: "#c0392b",
	},
	IssueLowEngagement: {
		Title: "Low Engagement",
		Desc:  "Under half of the expected time on task for the term",
		Color: "#7f8c8d",
	},
	IssueTimeNoGrowth: {
		Title: "Time In, No Growth",
		Desc:  "Met or exceeded expected time but score growth is zero or negative",
		Color: "#2980b9",
	},
	IssueAtGradeNoMotivation: {
		Title: "At Grade, Sliding Back",
		Desc:  "Mastery at or above age grade but measured growth is negative",
		Color: "#16a085",
	},
	IssueLargeGap: {
		Title: "Large Grade Gap",
		Desc:  "Mastery level three or more grades below age grade",
		Color: "#8e44ad",
	},
	IssueLowEffectiveTests: {
		Title: "Low Frontier Pass Rate",
		Desc:  "Repeated attempts at the next grade up with under half of them passing",
		Color: "#d35400",
	},
	IssueQuality: {
		Title: "Quality Issue",
		Desc:  "Adequate time on task yet no other flag explains the lack of progress",
		Color: "#34495e",
	},
}

// MetaFor returns the display metadata for an issue, with a neutral
// fallback for unknown keys so the renderer never panics on new flags.
func MetaFor(issue Issue) IssueMeta {
	if meta, ok := issueMetas[issue]; ok {
		return meta
	}
	return IssueMeta{Title: string(issue), Color: "#7f8c8d"}
}

// Classifier applies the flag rules to computed metrics. Rules are
// independent predicates; a student can carry any combination.
type Classifier struct {
	policy ClassifyConfig
}

func NewClassifier(policy ClassifyConfig) *Classifier {
	return &Classifier{policy: policy}
}

// Classify returns the student's flags in a fixed rule order. The
// quality-issue catch-all runs last and only fires when nothing else did.
func (c *Classifier) Classify(m *StudentMetrics) []Issue {
	var issues []Issue

	if m.HMG != nil && *m.HMG >= upperBandMinHMG {
		issues = append(issues, IssueNeedsUpperInstruction)
	}
	if m.HMG != nil && *m.HMG >= lowerBandMinHMG && *m.HMG <= lowerBandMaxHMG &&
		m.HasActivity && !usesCategory(m, CategoryInstruction) {
		issues = append(issues, IssueNeedsLowerInstruction)
	}
	if m.PctTesting > overTestingXPPct {
		issues = append(issues, IssueOverTesting)
	}
	if len(m.DoomGrades) > 0 {
		issues = append(issues, IssueDoomLoop)
	}
	if m.PctExpected < lowEngagementPct {
		issues = append(issues, IssueLowEngagement)
	}
	if m.PctExpected >= timeNoGrowthPct && m.Growth != nil && *m.Growth <= 0 {
		issues = append(issues, IssueTimeNoGrowth)
	}
	if m.Gap != nil && *m.Gap >= 0 && m.Growth != nil && *m.Growth < 0 {
		issues = append(issues, IssueAtGradeNoMotivation)
	}
	if m.Gap != nil && *m.Gap <= largeGapGrades {
		issues = append(issues, IssueLargeGap)
	}
	if m.HMGPlus1Total > frontierMinAttempts && m.HMGPlus1PassRate < frontierLowRatePct {
		issues = append(issues, IssueLowEffectiveTests)
	}

	// The catch-all is for adequate time without growth to show for it;
	// measured positive growth means there is nothing to explain.
	if c.policy.FlagQualityIssue && len(issues) == 0 && m.PctExpected >= qualityIssueMinPct &&
		(m.Growth == nil || *m.Growth <= 0) {
		issues = append(issues, IssueQuality)
	}

	return issues
}

func usesCategory(m *StudentMetrics, cat AppCategory) bool {
	for _, usage := range m.AppBreakdown {
		if usage.Category == cat {
			return true
		}
	}
	return false
}
