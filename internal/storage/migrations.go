package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Identity mapping and feature dictionary",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS mapping (
					person_id TEXT PRIMARY KEY,
					student_key TEXT,
					justice_case_key TEXT,
					linked INTEGER NOT NULL DEFAULT 0,
					in_demo_only INTEGER NOT NULL DEFAULT 0,
					in_cj_only INTEGER NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_mapping_student_key ON mapping(student_key)`,
				`CREATE INDEX idx_mapping_justice_key ON mapping(justice_case_key)`,

				`CREATE TABLE IF NOT EXISTS feature_dictionary (
					feature_id INTEGER NOT NULL,
					feature_column_name TEXT NOT NULL,
					feature_type TEXT NOT NULL,
					feature_description TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_feature_dictionary_column ON feature_dictionary(feature_column_name)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Source tables loaded by the external ETL",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS demographic (
					student_key TEXT NOT NULL,
					first_name TEXT,
					last_name TEXT,
					birthdate TEXT,
					birth_year INTEGER,
					birth_month INTEGER,
					year INTEGER,
					gender TEXT,
					race TEXT,
					att_days REAL,
					abs_days REAL,
					membership_days REAL
				)`,
				`CREATE INDEX idx_demographic_student_key ON demographic(student_key)`,
				`CREATE INDEX idx_demographic_year ON demographic(year)`,

				`CREATE TABLE IF NOT EXISTS discipline (
					student_key TEXT NOT NULL,
					discipline_year INTEGER,
					discipline_days REAL,
					offense_group TEXT
				)`,
				`CREATE INDEX idx_discipline_student_key ON discipline(student_key)`,

				`CREATE TABLE IF NOT EXISTS assessment (
					student_key TEXT NOT NULL,
					test_subject TEXT,
					test_type TEXT,
					test_primary_result_code TEXT,
					test_year INTEGER
				)`,
				`CREATE INDEX idx_assessment_student_key ON assessment(student_key)`,

				`CREATE TABLE IF NOT EXISTS program_enrollment (
					student_key TEXT NOT NULL,
					program_code TEXT NOT NULL,
					year INTEGER
				)`,
				`CREATE INDEX idx_program_student_key ON program_enrollment(student_key)`,

				`CREATE TABLE IF NOT EXISTS juvenile_case (
					case_key TEXT NOT NULL,
					defendant_name TEXT,
					defendant_dob TEXT
				)`,
				`CREATE TABLE IF NOT EXISTS adult_case (
					case_key TEXT NOT NULL,
					defendant_name TEXT,
					defendant_dob TEXT
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending schema migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
