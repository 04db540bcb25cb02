// Package testutil provides test fixtures for packages that exercise the
// SQLite store: a migrated temporary database plus typed seeding helpers
// for the source tables the external ETL normally loads.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/mkedata/crosswalk/internal/storage"
)

// TestDB bundles a migrated store with a raw handle for seeding source
// tables that have no write path through the service interface.
type TestDB struct {
	Store *storage.SQLiteStore
	raw   *sql.DB
	t     *testing.T
}

// SetupTestDB creates a migrated store backed by a file in the test's
// temporary directory. Cleanup is registered automatically.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "crosswalk.db")
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Second handle onto the same file for seeding; WAL permits this.
	raw, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		t.Fatalf("failed to open seeding handle: %v", err)
	}

	t.Cleanup(func() {
		_ = raw.Close()
		_ = store.Close()
	})

	return &TestDB{Store: store, raw: raw, t: t}
}

// DemographicRow is one school-year demographic snapshot for a student.
type DemographicRow struct {
	StudentKey     string
	FirstName      string
	LastName       string
	Birthdate      string
	BirthYear      int
	BirthMonth     int
	Year           int
	Gender         string
	Race           string
	AttDays        float64
	AbsDays        float64
	MembershipDays float64
}

// SeedDemographic inserts demographic snapshots.
func (db *TestDB) SeedDemographic(rows ...DemographicRow) {
	db.t.Helper()
	for _, r := range rows {
		db.exec(`INSERT INTO demographic
			(student_key, first_name, last_name, birthdate, birth_year, birth_month,
			 year, gender, race, att_days, abs_days, membership_days)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.StudentKey, r.FirstName, r.LastName, r.Birthdate, r.BirthYear, r.BirthMonth,
			r.Year, r.Gender, r.Race, r.AttDays, r.AbsDays, r.MembershipDays)
	}
}

// DisciplineRow is one discipline incident.
type DisciplineRow struct {
	StudentKey     string
	Year           int
	DisciplineDays float64
	OffenseGroup   string
}

// SeedDiscipline inserts discipline incidents.
func (db *TestDB) SeedDiscipline(rows ...DisciplineRow) {
	db.t.Helper()
	for _, r := range rows {
		db.exec(`INSERT INTO discipline (student_key, discipline_year, discipline_days, offense_group)
			VALUES (?, ?, ?, ?)`,
			r.StudentKey, r.Year, r.DisciplineDays, r.OffenseGroup)
	}
}

// AssessmentRow is one standardized test result.
type AssessmentRow struct {
	StudentKey string
	Subject    string
	TestType   string
	Result     string
	Year       int
}

// SeedAssessment inserts assessment results.
func (db *TestDB) SeedAssessment(rows ...AssessmentRow) {
	db.t.Helper()
	for _, r := range rows {
		db.exec(`INSERT INTO assessment (student_key, test_subject, test_type, test_primary_result_code, test_year)
			VALUES (?, ?, ?, ?, ?)`,
			r.StudentKey, r.Subject, r.TestType, r.Result, r.Year)
	}
}

// ProgramRow is one program enrollment.
type ProgramRow struct {
	StudentKey  string
	ProgramCode string
	Year        int
}

// SeedProgram inserts program enrollments.
func (db *TestDB) SeedProgram(rows ...ProgramRow) {
	db.t.Helper()
	for _, r := range rows {
		db.exec(`INSERT INTO program_enrollment (student_key, program_code, year)
			VALUES (?, ?, ?)`,
			r.StudentKey, r.ProgramCode, r.Year)
	}
}

// CaseRow is one criminal-justice case record.
type CaseRow struct {
	CaseKey       string
	DefendantName string
	DefendantDOB  string
}

// SeedJuvenileCase inserts juvenile case records.
func (db *TestDB) SeedJuvenileCase(rows ...CaseRow) {
	db.t.Helper()
	for _, r := range rows {
		db.exec(`INSERT INTO juvenile_case (case_key, defendant_name, defendant_dob)
			VALUES (?, ?, ?)`,
			r.CaseKey, r.DefendantName, r.DefendantDOB)
	}
}

// SeedAdultCase inserts adult case records.
func (db *TestDB) SeedAdultCase(rows ...CaseRow) {
	db.t.Helper()
	for _, r := range rows {
		db.exec(`INSERT INTO adult_case (case_key, defendant_name, defendant_dob)
			VALUES (?, ?, ?)`,
			r.CaseKey, r.DefendantName, r.DefendantDOB)
	}
}

// CountRows returns the row count of a table.
func (db *TestDB) CountRows(table string) int {
	db.t.Helper()
	var n int
	//nolint:gosec // test helper; callers pass literal table names
	if err := db.raw.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		db.t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return n
}

func (db *TestDB) exec(query string, args ...any) {
	db.t.Helper()
	if _, err := db.raw.Exec(query, args...); err != nil {
		db.t.Fatalf("failed to seed test data: %v", err)
	}
}
