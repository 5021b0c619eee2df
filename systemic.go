package main

import (
	"fmt"
	"sort"
	"strings"
)

const topSystemicIssues = 3

// IssueDetail is one pre-formatted stat line shown under a systemic card.
type IssueDetail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SystemicIssue is a pattern affecting enough students to suggest a
// program-level cause rather than a per-student one.
type SystemicIssue struct {
	Key       string            `json:"key"`
	Title     string            `json:"title"`
	Desc      string            `json:"desc"`
	Color     string            `json:"color"`
	Count     int               `json:"count"`
	AvgGrowth *float64          `json:"avg_growth"`
	Details   []IssueDetail     `json:"details"`
	Students  []*StudentMetrics `json:"-"`
	Emails    []string          `json:"student_emails"`
}

// FindSystemicIssues ranks candidate patterns by affected-student count
// and returns the top three. Testing flags merge into one candidate and
// the two missing-instruction flags into another, since each pair shares
// a root cause; every other flag stands alone.
func FindSystemicIssues(students []*StudentMetrics) []SystemicIssue {
	var candidates []SystemicIssue

	if c, ok := mergedCandidate(students, "TESTING_PROBLEMS",
		"Testing Instead of Learning",
		"Students burning term time on assessment apps or stuck retaking failed tests",
		"#c0392b",
		[]Issue{IssueOverTesting, IssueDoomLoop},
		func(group []*StudentMetrics) []IssueDetail {
			overTesting, doomAbove := 0, 0
			for _, m := range group {
				if m.HasIssue(IssueOverTesting) {
					overTesting++
				}
				if m.DoomLoopAboveHMG {
					doomAbove++
				}
			}
			return []IssueDetail{
				{Label: "over-testing students", Value: fmt.Sprintf("%d", overTesting)},
				{Label: "doom loops above mastery level", Value: fmt.Sprintf("%d", doomAbove)},
			}
		}); ok {
		candidates = append(candidates, c)
	}

	if c, ok := mergedCandidate(students, "MISSING_INSTRUCTION",
		"No Instruction App In Rotation",
		"Students whose reading level has no matching instruction app in their daily mix",
		"#e67e22",
		[]Issue{IssueNeedsUpperInstruction, IssueNeedsLowerInstruction},
		func(group []*StudentMetrics) []IssueDetail {
			upper, lower := 0, 0
			for _, m := range group {
				if m.HasIssue(IssueNeedsUpperInstruction) {
					upper++
				}
				if m.HasIssue(IssueNeedsLowerInstruction) {
					lower++
				}
			}
			return []IssueDetail{
				{Label: "needs upper-band resource", Value: fmt.Sprintf("%d", upper)},
				{Label: "needs core instruction app", Value: fmt.Sprintf("%d", lower)},
			}
		}); ok {
		candidates = append(candidates, c)
	}

	if group := withIssue(students, IssueTimeNoGrowth); len(group) > 0 {
		meta := MetaFor(IssueTimeNoGrowth)
		c := SystemicIssue{
			Key:       string(IssueTimeNoGrowth),
			Title:     meta.Title,
			Desc:      meta.Desc,
			Color:     meta.Color,
			Count:     len(group),
			AvgGrowth: avgGrowth(group),
			Students:  group,
			Emails:    emails(group),
		}
		var minutes, pct float64
		negative := 0
		for _, m := range group {
			minutes += m.DailyAvg
			pct += m.PctExpected
			if m.Growth != nil && *m.Growth < 0 {
				negative++
			}
		}
		n := float64(len(group))
		c.Details = []IssueDetail{
			{Label: "avg daily minutes", Value: fmt.Sprintf("%.1f", minutes/n)},
			{Label: "avg % of expected time", Value: fmt.Sprintf("%.0f%%", pct/n)},
			{Label: "students with negative growth", Value: fmt.Sprintf("%d", negative)},
		}
		candidates = append(candidates, c)
	}

	for _, issue := range []Issue{
		IssueLowEngagement,
		IssueLargeGap,
		IssueAtGradeNoMotivation,
		IssueLowEffectiveTests,
		IssueQuality,
	} {
		group := withIssue(students, issue)
		if len(group) == 0 {
			continue
		}
		meta := MetaFor(issue)
		candidates = append(candidates, SystemicIssue{
			Key:       string(issue),
			Title:     meta.Title,
			Desc:      meta.Desc,
			Color:     meta.Color,
			Count:     len(group),
			AvgGrowth: avgGrowth(group),
			Students:  group,
			Emails:    emails(group),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Count > candidates[j].Count
	})
	if len(candidates) > topSystemicIssues {
		candidates = candidates[:topSystemicIssues]
	}
	return candidates
}

func mergedCandidate(students []*StudentMetrics, key, title, desc, color string, issues []Issue, detail func([]*StudentMetrics) []IssueDetail) (SystemicIssue, bool) {
	seen := map[string]bool{}
	var group []*StudentMetrics
	for _, m := range students {
		if seen[m.Email] {
			continue
		}
		for _, issue := range issues {
			if m.HasIssue(issue) {
				seen[m.Email] = true
				group = append(group, m)
				break
			}
		}
	}
	if len(group) == 0 {
		return SystemicIssue{}, false
	}
	return SystemicIssue{
		Key:       key,
		Title:     title,
		Desc:      desc,
		Color:     color,
		Count:     len(group),
		AvgGrowth: avgGrowth(group),
		Details:   detail(group),
		Students:  group,
		Emails:    emails(group),
	}, true
}

func withIssue(students []*StudentMetrics, issue Issue) []*StudentMetrics {
	var group []*StudentMetrics
	for _, m := range students {
		if m.HasIssue(issue) {
			group = append(group, m)
		}
	}
	return group
}

// avgGrowth averages over students with a measured growth value only;
// it returns nil when none of the group was measured.
func avgGrowth(group []*StudentMetrics) *float64 {
	var sum float64
	n := 0
	for _, m := range group {
		if m.Growth != nil {
			sum += *m.Growth
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return floatPtr(round1(sum / float64(n)))
}

func emails(group []*StudentMetrics) []string {
	out := make([]string, len(group))
	for i, m := range group {
		out[i] = m.Email
	}
	return out
}

// CampusStats is the per-campus rollup row on the dashboard.
type CampusStats struct {
	Campus     string   `json:"campus"`
	Count      int      `json:"count"`
	Levels     string   `json:"levels"`
	AvgGrowth  *float64 `json:"avg_growth"`
	NegCount   int      `json:"neg_count"`
	PctMetTwoX float64  `json:"pct_met_2x"`
	FlaggedPct float64  `json:"flagged_pct"`
}

// BuildCampusStats groups students by campus, sorted by headcount
// descending then campus name.
func BuildCampusStats(students []*StudentMetrics) []CampusStats {
	byCampus := map[string][]*StudentMetrics{}
	for _, m := range students {
		byCampus[m.Campus] = append(byCampus[m.Campus], m)
	}

	var stats []CampusStats
	for campus, group := range byCampus {
		levels := map[string]bool{}
		negative, metTwoX, flagged := 0, 0, 0
		for _, m := range group {
			if m.LevelDisplay != "" {
				levels[m.LevelDisplay] = true
			}
			if m.Growth != nil && *m.Growth < 0 {
				negative++
			}
			if m.MetTwoX {
				metTwoX++
			}
			if len(m.Issues) > 0 {
				flagged++
			}
		}
		names := make([]string, 0, len(levels))
		for l := range levels {
			names = append(names, l)
		}
		sort.Strings(names)

		n := float64(len(group))
		stats = append(stats, CampusStats{
			Campus:     campus,
			Count:      len(group),
			Levels:     strings.Join(names, ", "),
			AvgGrowth:  avgGrowth(group),
			NegCount:   negative,
			PctMetTwoX: round1(float64(metTwoX) / n * 100),
			FlaggedPct: round1(float64(flagged) / n * 100),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Campus < stats[j].Campus
	})
	return stats
}
