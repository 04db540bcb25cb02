package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mkedata/crosswalk/internal/frame"
	"github.com/mkedata/crosswalk/internal/model"
)

// stagingName returns an unguessable table name for the bulk-load path.
func stagingName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateFrameTable creates a reference-frame feature table seeded with the
// full identity universe from the mapping table and no feature columns.
func (s *SQLiteStore) CreateFrameTable(ctx context.Context, table string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := ValidateIdentifier(table); err != nil {
		return err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mapping`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count mapping: %w", err)
	}
	if count == 0 {
		return ErrMappingNotLoaded
	}

	query := fmt.Sprintf(`CREATE TABLE %s AS SELECT person_id FROM mapping`, table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create frame table %s: %w", table, err)
	}

	slog.Info("Created reference-frame table", "table", table, "identities", count)
	return nil
}

// PersistFeature appends a validated feature column to a reference-frame
// table: ALTER to add the column, bulk-load the computed frame into a
// staging table, UPDATE by person_id, drop the staging table. Existing
// columns are left untouched; schema evolution is additive only.
func (s *SQLiteStore) PersistFeature(ctx context.Context, table string, meta model.FeatureMeta, data *frame.Frame) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	if err := ValidateIdentifier(meta.Column); err != nil {
		return err
	}
	sqlType, err := meta.Type.SQLType()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, meta.Column, sqlType)
	if _, err := tx.ExecContext(ctx, alter); err != nil {
		return fmt.Errorf("failed to add column %s to %s: %w", meta.Column, table, err)
	}

	staging := stagingName("staging")
	if err := bulkLoadFrame(ctx, tx, staging, sqlType, data); err != nil {
		return err
	}

	update := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = (SELECT value FROM %[3]s WHERE %[3]s.person_id = %[1]s.person_id)
		WHERE person_id IN (SELECT person_id FROM %[3]s)`, table, meta.Column, staging)
	if _, err := tx.ExecContext(ctx, update); err != nil {
		return fmt.Errorf("failed to update column %s on %s: %w", meta.Column, table, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE %s`, staging)); err != nil {
		return fmt.Errorf("failed to drop staging table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feature %s: %w", meta.Column, err)
	}

	slog.Info("Persisted feature column", "table", table, "column", meta.Column, "rows", data.Len())
	return nil
}

// RebuildWithEligibility rebuilds a reference-frame table as its join with
// the eligibility result, so every previously-stored feature row is
// restricted to eligible identities. The new table is assembled under a
// staging name and renamed over the original inside one transaction; no
// reader observes a half-renamed table.
func (s *SQLiteStore) RebuildWithEligibility(ctx context.Context, table string, meta model.FeatureMeta, data *frame.Frame) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	if err := ValidateIdentifier(meta.Column); err != nil {
		return err
	}
	sqlType, err := meta.Type.SQLType()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	eligibility := stagingName("eligibility")
	if err := bulkLoadFrame(ctx, tx, eligibility, sqlType, data); err != nil {
		return err
	}

	rebuilt := stagingName("rebuild")
	create := fmt.Sprintf(`
		CREATE TABLE %[1]s AS
		SELECT a.*, b.value AS %[2]s
		FROM %[3]s a
		JOIN %[4]s b ON a.person_id = b.person_id`, rebuilt, meta.Column, table, eligibility)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to build eligibility join for %s: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE %s`, table)); err != nil {
		return fmt.Errorf("failed to drop original table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, rebuilt, table)); err != nil {
		return fmt.Errorf("failed to rename %s over %s: %w", rebuilt, table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE %s`, eligibility)); err != nil {
		return fmt.Errorf("failed to drop eligibility staging table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit eligibility rebuild of %s: %w", table, err)
	}

	slog.Info("Rebuilt reference-frame table with eligibility",
		"table", table, "eligible", data.Len())
	return nil
}

// bulkLoadFrame creates a staging table and loads the frame into it with a
// prepared, parameterized insert.
func bulkLoadFrame(ctx context.Context, tx *sql.Tx, staging, sqlType string, data *frame.Frame) error {
	create := fmt.Sprintf(`CREATE TABLE %s (person_id TEXT PRIMARY KEY, value %s)`, staging, sqlType)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (person_id, value) VALUES (?, ?)`, staging))
	if err != nil {
		return fmt.Errorf("failed to prepare staging insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range data.Rows {
		if _, err := stmt.ExecContext(ctx, row.PersonID, row.Value.Arg()); err != nil {
			return fmt.Errorf("failed to stage row for %s: %w", row.PersonID, err)
		}
	}
	return nil
}

// AppendDictionary records a persisted feature in the feature dictionary.
func (s *SQLiteStore) AppendDictionary(ctx context.Context, meta model.FeatureMeta) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := meta.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feature_dictionary (feature_id, feature_column_name, feature_type, feature_description)
		VALUES (?, ?, ?, ?)`,
		meta.ID, meta.Column, string(meta.Type), meta.Description)
	if err != nil {
		return fmt.Errorf("failed to append feature dictionary entry: %w", err)
	}
	return nil
}

// GetDictionary returns every feature dictionary entry.
func (s *SQLiteStore) GetDictionary(ctx context.Context) ([]model.FeatureMeta, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT feature_id, feature_column_name, feature_type, COALESCE(feature_description, '')
		FROM feature_dictionary
		ORDER BY feature_column_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feature dictionary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.FeatureMeta
	for rows.Next() {
		var m model.FeatureMeta
		var featureType string
		if err := rows.Scan(&m.ID, &m.Column, &featureType, &m.Description); err != nil {
			return nil, fmt.Errorf("failed to scan dictionary entry: %w", err)
		}
		m.Type = model.FeatureType(featureType)
		entries = append(entries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feature dictionary: %w", err)
	}
	return entries, nil
}

// QueryFrame runs a parameterized query whose first column is person_id and
// second column is the value, collecting the result into a frame.
func (s *SQLiteStore) QueryFrame(ctx context.Context, column, query string, args ...any) (*frame.Frame, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(query, "query"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute frame query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := frame.New(column)
	for rows.Next() {
		var personID string
		var raw any
		if err := rows.Scan(&personID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan frame row: %w", err)
		}
		result.Append(personID, toValue(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating frame rows: %w", err)
	}
	return result, nil
}

// toValue converts a driver-returned cell to a frame value.
func toValue(raw any) frame.Value {
	switch v := raw.(type) {
	case nil:
		return frame.Null()
	case int64:
		return frame.Int(v)
	case float64:
		return frame.Float(v)
	case string:
		return frame.Text(v)
	case []byte:
		return frame.Text(string(v))
	default:
		return frame.Text(fmt.Sprintf("%v", v))
	}
}
