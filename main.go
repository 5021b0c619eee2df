package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	assessmentsPath := flag.String("assessments", "", "Path to assessment CSV (required)")
	activityPath := flag.String("activity", "", "Path to daily app activity CSV")
	testsPath := flag.String("tests", "", "Path to test attempt CSV")
	baselinePath := flag.String("baseline", "", "Path to prior-year score CSV")
	configPath := flag.String("config", "", "Path to YAML run config; defaults apply when omitted")
	outDir := flag.String("out", "", "Directory for the HTML report; skipped when empty")
	jsonOut := flag.String("json", "", "Optional JSON snapshot output path")
	flagsOut := flag.String("flags-csv", "", "Optional CSV output of flagged students")
	minFlags := flag.Int("min-flags", 1, "Minimum flag count for the flags CSV")
	dbEnabled := flag.Bool("db", false, "Store report in Postgres (requires READING_AUDIT_DB_URL or DATABASE_URL)")
	dbSchema := flag.String("db-schema", "reading_growth_audit", "Postgres schema for audit tables")
	dbTag := flag.String("db-tag", "", "Optional label for this audit run")
	initDB := flag.Bool("init-db", false, "Initialize database schema and seed data if empty")
	verbose := flag.Bool("verbose", false, "Log skipped rows and coerced values")
	flag.Parse()

	if *assessmentsPath == "" {
		exitWithError(errors.New("--assessments is required"))
	}
	if *minFlags < 1 {
		exitWithError(errors.New("--min-flags must be at least 1"))
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			exitWithError(err)
		}
		cfg = loaded
	}
	calendar, err := cfg.Calendar()
	if err != nil {
		exitWithError(err)
	}
	term := calendar.Compute()

	loader := NewLoader(cfg, log)
	assessments, err := loader.LoadAssessments(*assessmentsPath)
	if err != nil {
		exitWithError(err)
	}
	if len(assessments) == 0 {
		exitWithError(fmt.Errorf("no %s rows found in %s", cfg.Subject, filepath.Base(*assessmentsPath)))
	}

	var activity []ActivityRecord
	if *activityPath != "" {
		if activity, err = loader.LoadActivity(*activityPath); err != nil {
			exitWithError(err)
		}
	}
	var tests []TestAttemptRecord
	if *testsPath != "" {
		if tests, err = loader.LoadTestAttempts(*testsPath, calendar.Start); err != nil {
			exitWithError(err)
		}
	}
	baselines := map[string]float64{}
	if *baselinePath != "" {
		if baselines, err = loader.LoadBaselines(*baselinePath); err != nil {
			exitWithError(err)
		}
	}

	report := BuildReport(cfg, term, assessments, activity, tests, baselines, log)
	report.MalformedValues = loader.Malformed

	printSummary(report, *assessmentsPath)

	if *outDir != "" {
		if err := NewRenderer(*outDir, log).Render(report); err != nil {
			exitWithError(err)
		}
		fmt.Printf("\nHTML report written to %s\n", filepath.Join(*outDir, "index.html"))
	}

	if *jsonOut != "" {
		if err := writeJSON(report, *jsonOut); err != nil {
			exitWithError(err)
		}
		fmt.Printf("JSON snapshot saved to %s\n", *jsonOut)
	}

	if *flagsOut != "" {
		if err := writeFlaggedCSV(report, *flagsOut, *minFlags); err != nil {
			exitWithError(err)
		}
		fmt.Printf("Flagged students CSV saved to %s\n", *flagsOut)
	}

	if *dbEnabled || *initDB {
		dbURL := dbURLFromEnv()
		if dbURL == "" {
			exitWithError(errors.New("database URL missing; set READING_AUDIT_DB_URL or DATABASE_URL"))
		}
		dbCfg := DBConfig{
			URL:    dbURL,
			Schema: *dbSchema,
			Tag:    *dbTag,
		}
		seeded := false
		if *initDB {
			runID, err := seedDatabase(report, dbCfg)
			if err != nil {
				exitWithError(err)
			}
			if runID != "" {
				seeded = true
				fmt.Printf("\nSeeded Postgres with initial audit run (run_id=%s)\n", runID)
			}
		}
		if *dbEnabled {
			if seeded {
				fmt.Println("Skipped duplicate insert; current report already used for seed.")
			} else {
				runID, err := storeReportInDB(report, dbCfg)
				if err != nil {
					exitWithError(err)
				}
				fmt.Printf("\nStored audit run in Postgres (run_id=%s)\n", runID)
			}
		}
	}
}

func printSummary(report *RunReport, inputPath string) {
	fmt.Printf("%s Growth Audit\n", report.Subject)
	fmt.Println(strings.Repeat("=", 38))
	fmt.Printf("Input: %s\n", filepath.Base(inputPath))
	fmt.Printf("Term: %s to %s (%d effective days, %d expected minutes)\n",
		report.TermStart, report.TermEnd, report.EffectiveDays, report.ExpectedMinutes)
	fmt.Printf("Students: %d | Flagged: %d\n", len(report.Students), report.FlaggedCount())
	if report.MalformedValues > 0 {
		fmt.Printf("Malformed source values coerced or skipped: %d\n", report.MalformedValues)
	}

	if len(report.Systemic) > 0 {
		fmt.Println("\nSystemic patterns")
		fmt.Println(strings.Repeat("-", 38))
		for _, issue := range report.Systemic {
			avg := "n/a"
			if issue.AvgGrowth != nil {
				avg = fmt.Sprintf("%.1f", *issue.AvgGrowth)
			}
			fmt.Printf("%s | %d students | avg growth %s\n", issue.Title, issue.Count, avg)
			for _, d := range issue.Details {
				fmt.Printf("  %s: %s\n", d.Label, d.Value)
			}
		}
	}

	fmt.Println("\nLargest declines")
	fmt.Println(strings.Repeat("-", 38))
	shown := 0
	for _, m := range report.Students {
		if m.Growth == nil || shown >= 5 {
			break
		}
		fmt.Printf("%s | %s | growth %.1f | time %.0f%% | flags %d\n",
			m.OriginalName, m.Campus, *m.Growth, m.PctExpected, len(m.Issues))
		shown++
	}
	if shown == 0 {
		fmt.Println("No measured growth this term.")
	}

	if len(report.Campuses) > 0 {
		fmt.Println("\nCampus summary")
		fmt.Println(strings.Repeat("-", 38))
		for _, c := range report.Campuses {
			avg := "n/a"
			if c.AvgGrowth != nil {
				avg = fmt.Sprintf("%.1f", *c.AvgGrowth)
			}
			fmt.Printf("%s | students %d | avg growth %s | negative %d | met 2x %.0f%%\n",
				c.Campus, c.Count, avg, c.NegCount, c.PctMetTwoX)
		}
	}
}

func writeJSON(report *RunReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeFlaggedCSV(report *RunReport, path string, minFlags int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{
		"name",
		"email",
		"campus",
		"level",
		"reading_band",
		"hmg",
		"growth",
		"pct_expected",
		"pct_testing",
		"doom_grades",
		"flags",
	}); err != nil {
		return err
	}

	for _, m := range report.Students {
		if len(m.Issues) < minFlags {
			continue
		}
		doom := make([]string, len(m.DoomGrades))
		for i, g := range m.DoomGrades {
			doom[i] = fmt.Sprintf("%d", g)
		}
		record := []string{
			m.OriginalName,
			m.Email,
			m.Campus,
			m.LevelDisplay,
			string(m.ReadingBand),
			formatOptNumCSV(m.HMG),
			formatOptNumCSV(m.Growth),
			fmt.Sprintf("%.1f", m.PctExpected),
			fmt.Sprintf("%.1f", m.PctTesting),
			strings.Join(doom, ";"),
			issueKeys(m.Issues),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatOptNumCSV(value *float64) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *value)
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
