package main

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

func writeTempCSV(t *testing.T, data string) string {
	t.Helper()
	file, err := os.CreateTemp(t.TempDir(), "export-*.csv")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := file.WriteString(data); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}
	return file.Name()
}

func testLoader() *Loader {
	return NewLoader(DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoadAssessments(t *testing.T) {
	csvData := "Student Name,Email,Subject,Campus,Level,Comments,Age Grade,HMG,Previous RIT Score (F),1st Take RIT Score (W),Growth after 1st Take (F→W)\n" +
		"Jane Smith,JANE@X.ORG,Reading,North,ES,,5,3,190,195,\n" +
		"Omar Khan,omar@x.org,Math,North,ES,,5,3,190,195,\n" +
		"Tiny Reader,tiny@x.org,Reading,North,ES,In Early Lit program,1,,,,\n" +
		"Ana Ruiz,ana@x.org,Reading,South,HS,,9,n/a,abc,210,\n"

	loader := testLoader()
	records, err := loader.LoadAssessments(writeTempCSV(t, csvData))
	if err != nil {
		t.Fatalf("load assessments: %v", err)
	}

	// The Math row and the early-lit row are filtered out.
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	jane := records[0]
	if jane.Email != "jane@x.org" {
		t.Fatalf("expected lowercased email, got %q", jane.Email)
	}
	if jane.HMG == nil || *jane.HMG != 3 {
		t.Fatalf("expected HMG 3, got %v", jane.HMG)
	}
	// Growth column empty: derived from the two term scores.
	if jane.Growth == nil || *jane.Growth != 5 {
		t.Fatalf("expected derived growth 5, got %v", jane.Growth)
	}

	ana := records[1]
	if ana.HMG != nil {
		t.Fatalf("n/a HMG must stay absent, got %v", ana.HMG)
	}
	if ana.FallScore != nil {
		t.Fatalf("non-numeric fall score must coerce to absent, got %v", ana.FallScore)
	}
	if ana.Growth != nil {
		t.Fatalf("growth needs both term scores, got %v", ana.Growth)
	}
	// "abc" triggered one coercion warning; "n/a" and blanks do not.
	if loader.Malformed != 1 {
		t.Fatalf("expected 1 malformed value, got %d", loader.Malformed)
	}
}

func TestLoadAssessmentsMissingIdentityColumn(t *testing.T) {
	csvData := "Email,Subject\njane@x.org,Reading\n"
	if _, err := testLoader().LoadAssessments(writeTempCSV(t, csvData)); err == nil {
		t.Fatal("expected error for missing student name column")
	}
}

func TestLoadActivity(t *testing.T) {
	csvData := "Email,App,Date,Active Minutes,XP Earned,Accuracy (%)\n" +
		"jane@x.org,MobyMax,2025-09-03,30,150,82\n" +
		"_test_bot@x.org,MobyMax,2025-09-03,30,150,82\n" +
		"jane@x.org,MobyMax,not-a-date,30,150,82\n" +
		"jane@x.org,Alpha Read,2025-09-04,20,,\n"

	loader := testLoader()
	rows, err := loader.LoadActivity(writeTempCSV(t, csvData))
	if err != nil {
		t.Fatalf("load activity: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after filtering, got %d", len(rows))
	}
	if rows[0].ActiveMinutes != 30 || rows[0].XP != 150 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	// Blank counts coerce to zero silently.
	if rows[1].XP != 0 {
		t.Fatalf("expected zero XP, got %v", rows[1].XP)
	}
	// Only the unparseable date counts as malformed.
	if loader.Malformed != 1 {
		t.Fatalf("expected 1 malformed value, got %d", loader.Malformed)
	}
}

func TestLoadTestAttempts(t *testing.T) {
	csvData := "Student Email,Score Date UTC,Subject,Test Name,Test Grade,Score\n" +
		"jane@x.org,2025-09-10,Reading,G4 Checkpoint,4,92.5\n" +
		"jane@x.org,2025-06-01,Reading,G4 Checkpoint,4,95\n" +
		"jane@x.org,2025-09-11,Math,G4 Checkpoint,4,95\n" +
		"jane@x.org,2025-09-12,Reading,G5 Checkpoint,,\n"

	minDate := time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC)
	loader := testLoader()
	attempts, err := loader.LoadTestAttempts(writeTempCSV(t, csvData), minDate)
	if err != nil {
		t.Fatalf("load test attempts: %v", err)
	}

	// Pre-term and other-subject attempts are dropped.
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	first := attempts[0]
	if first.Grade == nil || *first.Grade != 4 {
		t.Fatalf("expected grade 4, got %v", first.Grade)
	}
	if !first.Passed(89.5) {
		t.Fatal("92.5 must pass at the 89.5 threshold")
	}
	second := attempts[1]
	if second.Grade != nil || second.Score != nil {
		t.Fatalf("blank grade and score must stay absent, got %+v", second)
	}
	if second.Passed(89.5) {
		t.Fatal("scoreless attempt must not pass")
	}
}

func TestLoadBaselines(t *testing.T) {
	csvData := "Student,Subject,Spring 2425 RIT\n" +
		"Jane Smith,Reading,201\n" +
		"Omar Khan,Math,190\n" +
		"Ana Ruiz,Reading,\n"

	baselines, err := testLoader().LoadBaselines(writeTempCSV(t, csvData))
	if err != nil {
		t.Fatalf("load baselines: %v", err)
	}
	if len(baselines) != 1 {
		t.Fatalf("expected 1 baseline, got %d", len(baselines))
	}
	if baselines["Jane Smith"] != 201 {
		t.Fatalf("expected 201, got %v", baselines["Jane Smith"])
	}
}

func TestReadCSVStripsBOM(t *testing.T) {
	csvData := "\uFEFFStudent Name,Email,Subject\nJane Smith,jane@x.org,Reading\n"
	records, err := testLoader().LoadAssessments(writeTempCSV(t, csvData))
	if err != nil {
		t.Fatalf("load assessments: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}
