package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DBConfig carries the Postgres connection settings for one run.
type DBConfig struct {
	URL    string
	Schema string
	Tag    string
}

const dbTimeout = 12 * time.Second

func dbURLFromEnv() string {
	if value := strings.TrimSpace(os.Getenv("READING_AUDIT_DB_URL")); value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("db schema is required")
	}
	valid := regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	if !valid.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

// seedDatabase initializes the schema and, when no runs exist yet, stores
// the current report as the first one. Returns "" when data was present.
func seedDatabase(report *RunReport, cfg DBConfig) (string, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return "", err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return "", err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return "", err
	}

	if err := ensureSchema(ctx, db, schema); err != nil {
		return "", err
	}

	var count int
	if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s.audit_runs`, schema)).Scan(&count); err != nil {
		return "", err
	}
	if count > 0 {
		fmt.Println("Audit data already present; skipping seed.")
		return "", nil
	}

	return storeReportTx(ctx, db, report, schema, cfg.Tag)
}

func storeReportInDB(report *RunReport, cfg DBConfig) (string, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return "", err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return "", err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return "", err
	}

	if err := ensureSchema(ctx, db, schema); err != nil {
		return "", err
	}

	return storeReportTx(ctx, db, report, schema, cfg.Tag)
}

func storeReportTx(ctx context.Context, db *sql.DB, report *RunReport, schema string, tag string) (string, error) {
	runID := uuid.New()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	termStart, err := parseDate(report.TermStart)
	if err != nil {
		return "", err
	}
	termEnd, err := parseDate(report.TermEnd)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.audit_runs (
			id, subject, term_start, term_end, effective_days,
			expected_minutes, pass_threshold, total_students, flagged_students,
			malformed_values, run_tag
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,$9,
			$10,$11
		)`, schema),
		runID,
		report.Subject,
		dateOnly(termStart),
		dateOnly(termEnd),
		report.EffectiveDays,
		report.ExpectedMinutes,
		report.PassThreshold,
		len(report.Students),
		report.FlaggedCount(),
		report.MalformedValues,
		nullString(tag),
	)
	if err != nil {
		_ = tx.Rollback()
		return "", err
	}

	insertStudentSQL := fmt.Sprintf(`
		INSERT INTO %s.student_metrics (
			id, run_id, email, name, campus, level_display, reading_band,
			age_grade, hmg, fall_score, winter_score, growth, summer_slide,
			active_minutes, pct_expected, total_xp, pct_testing,
			total_tests, passed_tests, doom_grade_count, met_2x, issues
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,
			$8,$9,$10,$11,$12,$13,
			$14,$15,$16,$17,
			$18,$19,$20,$21,$22
		)`, schema)

	for _, m := range report.Students {
		_, err = tx.ExecContext(ctx, insertStudentSQL,
			uuid.New(),
			runID,
			m.Email,
			m.OriginalName,
			nullString(m.Campus),
			nullString(m.LevelDisplay),
			string(m.ReadingBand),
			nullInt(m.AgeGrade),
			nullFloat(m.HMG),
			nullFloat(m.FallScore),
			nullFloat(m.WinterScore),
			nullFloat(m.Growth),
			nullFloat(m.SummerSlide),
			m.ActiveMinutes,
			m.PctExpected,
			m.TotalXP,
			m.PctTesting,
			m.TotalTests,
			m.PassedTests,
			len(m.DoomGrades),
			m.MetTwoX,
			issueKeys(m.Issues),
		)
		if err != nil {
			_ = tx.Rollback()
			return "", err
		}
	}

	insertSystemicSQL := fmt.Sprintf(`
		INSERT INTO %s.systemic_issues (
			id, run_id, issue_key, title, student_count, avg_growth
		) VALUES (
			$1,$2,$3,$4,$5,$6
		)`, schema)

	for _, issue := range report.Systemic {
		_, err = tx.ExecContext(ctx, insertSystemicSQL,
			uuid.New(),
			runID,
			issue.Key,
			issue.Title,
			issue.Count,
			nullFloat(issue.AvgGrowth),
		)
		if err != nil {
			_ = tx.Rollback()
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID.String(), nil
}

func ensureSchema(ctx context.Context, db *sql.DB, schema string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.audit_runs (
			id uuid PRIMARY KEY,
			subject text NOT NULL,
			term_start date NOT NULL,
			term_end date NOT NULL,
			effective_days integer NOT NULL,
			expected_minutes integer NOT NULL,
			pass_threshold numeric(5,2) NOT NULL,
			total_students integer NOT NULL,
			flagged_students integer NOT NULL,
			malformed_values integer NOT NULL,
			run_tag text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.student_metrics (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.audit_runs(id) ON DELETE CASCADE,
			email text NOT NULL,
			name text NOT NULL,
			campus text,
			level_display text,
			reading_band text NOT NULL,
			age_grade integer,
			hmg numeric(4,1),
			fall_score numeric(6,1),
			winter_score numeric(6,1),
			growth numeric(6,1),
			summer_slide numeric(6,1),
			active_minutes numeric(10,1) NOT NULL,
			pct_expected numeric(6,1) NOT NULL,
			total_xp numeric(12,1) NOT NULL,
			pct_testing numeric(5,1) NOT NULL,
			total_tests integer NOT NULL,
			passed_tests integer NOT NULL,
			doom_grade_count integer NOT NULL,
			met_2x boolean NOT NULL,
			issues text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.systemic_issues (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.audit_runs(id) ON DELETE CASCADE,
			issue_key text NOT NULL,
			title text NOT NULL,
			student_count integer NOT NULL,
			avg_growth numeric(6,1),
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_student_metrics_run_idx ON %s.student_metrics (run_id)`, schema, schema))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_student_metrics_email_idx ON %s.student_metrics (email)`, schema, schema))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_systemic_issues_run_idx ON %s.systemic_issues (run_id)`, schema, schema))
	return err
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func issueKeys(issues []Issue) string {
	keys := make([]string, len(issues))
	for i, issue := range issues {
		keys[i] = string(issue)
	}
	return strings.Join(keys, ",")
}
