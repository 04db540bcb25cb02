package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkedata/crosswalk/internal/model"
)

// SaveMapping replaces the identity mapping table with the given entries.
// The mapping is produced in one batch by the assigner; a partial mapping
// is never useful, so the replace happens in a single transaction.
func (s *SQLiteStore) SaveMapping(ctx context.Context, entries []model.MappingEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: entries", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mapping`); err != nil {
		return fmt.Errorf("failed to clear mapping: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mapping (person_id, student_key, justice_case_key, linked, in_demo_only, in_cj_only)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare mapping insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx,
			e.PersonID,
			nullIfEmpty(e.StudentKey),
			nullIfEmpty(e.JusticeCaseKey),
			boolToInt(e.Linked),
			boolToInt(e.InDemoOnly),
			boolToInt(e.InCJOnly))
		if err != nil {
			return fmt.Errorf("failed to insert mapping entry %s: %w", e.PersonID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mapping: %w", err)
	}

	slog.Info("Saved identity mapping", "entries", len(entries))
	return nil
}

// GetMapping returns every identity mapping entry.
func (s *SQLiteStore) GetMapping(ctx context.Context) ([]model.MappingEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, COALESCE(student_key, ''), COALESCE(justice_case_key, ''),
		       linked, in_demo_only, in_cj_only
		FROM mapping
		ORDER BY person_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mapping: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.MappingEntry
	for rows.Next() {
		var e model.MappingEntry
		var linked, demoOnly, cjOnly int
		if err := rows.Scan(&e.PersonID, &e.StudentKey, &e.JusticeCaseKey, &linked, &demoOnly, &cjOnly); err != nil {
			return nil, fmt.Errorf("failed to scan mapping entry: %w", err)
		}
		e.Linked = linked == 1
		e.InDemoOnly = demoOnly == 1
		e.InCJOnly = cjOnly == 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mapping: %w", err)
	}
	return entries, nil
}

// LoadStudentRecords returns one record per unique student key, first
// observation wins, as cleaned by the external ETL.
func (s *SQLiteStore) LoadStudentRecords(ctx context.Context) ([]model.PersonRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT student_key, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(birthdate, '')
		FROM demographic
		GROUP BY student_key
		ORDER BY student_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query student records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPersonRecords(rows)
}

// LoadJusticeRecords returns the union of juvenile and adult case records.
// Defendant names are stored "Last, First" and split here.
func (s *SQLiteStore) LoadJusticeRecords(ctx context.Context) ([]model.PersonRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT case_key, COALESCE(defendant_name, ''), COALESCE(defendant_dob, '') FROM juvenile_case
		UNION ALL
		SELECT case_key, COALESCE(defendant_name, ''), COALESCE(defendant_dob, '') FROM adult_case
		ORDER BY case_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query justice records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.PersonRecord
	for rows.Next() {
		var key, name, dob string
		if err := rows.Scan(&key, &name, &dob); err != nil {
			return nil, fmt.Errorf("failed to scan justice record: %w", err)
		}
		last, first := splitDefendantName(name)
		records = append(records, model.PersonRecord{
			Key:       key,
			FirstName: first,
			LastName:  last,
			DOB:       dob,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating justice records: %w", err)
	}
	return records, nil
}

// splitDefendantName splits a "Last, First" defendant name. A name with no
// comma is treated as a bare last name.
func splitDefendantName(name string) (last, first string) {
	last, first, found := strings.Cut(name, ",")
	if !found {
		return strings.TrimSpace(name), ""
	}
	return strings.TrimSpace(last), strings.TrimSpace(first)
}

func scanPersonRecords(rows *sql.Rows) ([]model.PersonRecord, error) {
	var records []model.PersonRecord
	for rows.Next() {
		var p model.PersonRecord
		if err := rows.Scan(&p.Key, &p.FirstName, &p.LastName, &p.DOB); err != nil {
			return nil, fmt.Errorf("failed to scan person record: %w", err)
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating person records: %w", err)
	}
	return records, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
