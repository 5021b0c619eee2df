package main

import (
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// Renderer writes the static HTML report: one dashboard page plus one
// page per student. Pages are self-contained, no external assets, so the
// output directory can be zipped and mailed as-is.
type Renderer struct {
	outDir string
	log    *slog.Logger
}

func NewRenderer(outDir string, log *slog.Logger) *Renderer {
	return &Renderer{outDir: outDir, log: log}
}

func (r *Renderer) Render(report *RunReport) error {
	if err := os.MkdirAll(filepath.Join(r.outDir, "students"), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	funcs := template.FuncMap{
		"num":         formatNum,
		"optNum":      formatOptNum,
		"optInt":      formatOptInt,
		"growthClass": growthClass,
		"meta":        MetaFor,
		"barPct":      barPct,
		"pct": func(v float64) string {
			return formatNum(v) + "%"
		},
	}

	dashTmpl, err := template.New("dashboard").Funcs(funcs).Parse(dashboardTemplate)
	if err != nil {
		return fmt.Errorf("parse dashboard template: %w", err)
	}
	studentTmpl, err := template.New("student").Funcs(funcs).Parse(studentTemplate)
	if err != nil {
		return fmt.Errorf("parse student template: %w", err)
	}

	if err := r.renderDashboard(dashTmpl, report); err != nil {
		return err
	}
	for i, m := range report.Students {
		var prev, next *StudentMetrics
		if i > 0 {
			prev = report.Students[i-1]
		}
		if i < len(report.Students)-1 {
			next = report.Students[i+1]
		}
		if err := r.renderStudent(studentTmpl, report, m, prev, next); err != nil {
			return err
		}
	}
	r.log.Info("report rendered", "dir", r.outDir, "students", len(report.Students))
	return nil
}

// cohortSummary is one KPI column on the dashboard: the whole roster or
// one reading band.
type cohortSummary struct {
	Label          string
	Count          int
	AvgGrowth      *float64
	MetTwoXPct     float64
	NegCount       int
	AvgPctExpected float64
	Flagged        int
}

type issueCard struct {
	Key      Issue
	Meta     IssueMeta
	Students []*StudentMetrics
}

type dashboardView struct {
	Report     *RunReport
	Cohorts    []cohortSummary
	IssueCards []issueCard
	CSS        template.CSS
	JS         template.JS
}

func (r *Renderer) renderDashboard(tmpl *template.Template, report *RunReport) error {
	var lower, upper []*StudentMetrics
	for _, m := range report.Students {
		if m.ReadingBand == BandUpper {
			upper = append(upper, m)
		} else {
			lower = append(lower, m)
		}
	}
	view := dashboardView{
		Report: report,
		Cohorts: []cohortSummary{
			summarizeCohort("All Students", report.Students),
			summarizeCohort("Grades 3-8 Band", lower),
			summarizeCohort("Grades 9+ Band", upper),
		},
		IssueCards: buildIssueCards(report.Students),
		CSS:        template.CSS(reportCSS),
		JS:         template.JS(dashboardJS),
	}

	f, err := os.Create(filepath.Join(r.outDir, "index.html"))
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}
	defer f.Close()
	if err := tmpl.Execute(f, view); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

func summarizeCohort(label string, group []*StudentMetrics) cohortSummary {
	s := cohortSummary{Label: label, Count: len(group), AvgGrowth: avgGrowth(group)}
	if len(group) == 0 {
		return s
	}
	var pctSum float64
	metTwoX := 0
	for _, m := range group {
		pctSum += m.PctExpected
		if m.MetTwoX {
			metTwoX++
		}
		if m.Growth != nil && *m.Growth < 0 {
			s.NegCount++
		}
		if len(m.Issues) > 0 {
			s.Flagged++
		}
	}
	n := float64(len(group))
	s.MetTwoXPct = round1(float64(metTwoX) / n * 100)
	s.AvgPctExpected = round1(pctSum / n)
	return s
}

func buildIssueCards(students []*StudentMetrics) []issueCard {
	order := []Issue{
		IssueDoomLoop,
		IssueOverTesting,
		IssueNeedsUpperInstruction,
		IssueNeedsLowerInstruction,
		IssueTimeNoGrowth,
		IssueLowEngagement,
		IssueLargeGap,
		IssueAtGradeNoMotivation,
		IssueLowEffectiveTests,
		IssueQuality,
	}
	var cards []issueCard
	for _, issue := range order {
		group := withIssue(students, issue)
		if len(group) == 0 {
			continue
		}
		cards = append(cards, issueCard{Key: issue, Meta: MetaFor(issue), Students: group})
	}
	return cards
}

type studentView struct {
	M          *StudentMetrics
	Report     *RunReport
	Prev, Next *StudentMetrics
	MaxDayMin  float64
	CSS        template.CSS
}

func (r *Renderer) renderStudent(tmpl *template.Template, report *RunReport, m, prev, next *StudentMetrics) error {
	view := studentView{
		M:      m,
		Report: report,
		Prev:   prev,
		Next:   next,
		CSS:    template.CSS(reportCSS),
	}
	for _, day := range m.DailyTimeline {
		if day.Minutes > view.MaxDayMin {
			view.MaxDayMin = day.Minutes
		}
	}

	f, err := os.Create(filepath.Join(r.outDir, "students", m.Slug+".html"))
	if err != nil {
		return fmt.Errorf("create student page %s: %w", m.Slug, err)
	}
	defer f.Close()
	if err := tmpl.Execute(f, view); err != nil {
		return fmt.Errorf("render student page %s: %w", m.Slug, err)
	}
	return nil
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptNum(v *float64) string {
	if v == nil {
		return "—"
	}
	return formatNum(*v)
}

func formatOptInt(v *int) string {
	if v == nil {
		return "—"
	}
	return strconv.Itoa(*v)
}

func growthClass(v *float64) string {
	switch {
	case v == nil:
		return "na"
	case *v < 0:
		return "neg"
	case *v == 0:
		return "zero"
	default:
		return "pos"
	}
}

// barPct scales a value against a maximum into a 0-100 CSS percentage.
func barPct(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	p := v / max * 100
	if p > 100 {
		p = 100
	}
	return round1(p)
}
