package feature

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkedata/crosswalk/internal/frame"
	"github.com/mkedata/crosswalk/internal/model"
	"github.com/mkedata/crosswalk/internal/service"
	"github.com/mkedata/crosswalk/internal/storage"
)

// Window selects how far back an aggregate looks from the frame bound.
type Window int

// Window modes.
const (
	// WindowForever includes every event up to the frame bound.
	WindowForever Window = iota
	// WindowLastN includes only the last N years before the bound.
	WindowLastN
)

// NullFill selects how a descriptor imputes nulls before the gate runs.
type NullFill int

// Null-handling strategies.
const (
	FillDefault NullFill = iota
	FillMean
	FillZero
)

// applyNullFill imputes nulls on a computed frame.
func applyNullFill(data *frame.Frame, fill NullFill, def frame.Value) {
	switch fill {
	case FillMean:
		data.FillNullsWithMean()
	case FillZero:
		data.FillNulls(frame.Float(0))
	default:
		data.FillNulls(def)
	}
}

// AggregateDescriptor is the generic shape for features that aggregate a
// source-table column per student within the reference frame's window.
type AggregateDescriptor struct {
	MetaData    model.FeatureMeta
	SourceTable string
	ValueColumn string
	Aggregate   string
	YearColumn  string
	Window      Window
	NYears      int
	Fill        NullFill
	Default     frame.Value
}

// Meta implements service.Feature.
func (d *AggregateDescriptor) Meta() model.FeatureMeta { return d.MetaData }

// Compute implements service.Feature: one generic routine serves every
// aggregate-shaped feature in the catalog.
func (d *AggregateDescriptor) Compute(ctx context.Context, store service.Store, fr model.Frame) (*frame.Frame, error) {
	for _, ident := range []string{d.SourceTable, d.ValueColumn, d.YearColumn} {
		if err := storage.ValidateIdentifier(ident); err != nil {
			return nil, err
		}
	}
	if err := storage.ValidateAggregate(d.Aggregate); err != nil {
		return nil, err
	}

	where, args := frameWindow(fr, d.YearColumn, "t", d.Window, d.NYears)
	query := fmt.Sprintf(`
		SELECT m.person_id, agg.v
		FROM mapping m
		LEFT JOIN (
			SELECT t.student_key, %s(t.%s) AS v
			FROM %s t
			%s
			WHERE %s
			GROUP BY t.student_key
		) agg ON agg.student_key = m.student_key`,
		d.Aggregate, d.ValueColumn, d.SourceTable, frameJoin(fr), where)

	data, err := store.QueryFrame(ctx, d.MetaData.Column, query, args...)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", d.MetaData.Column, err)
	}
	applyNullFill(data, d.Fill, d.Default)
	return data, nil
}

// DisciplineDescriptor aggregates discipline events, optionally restricted
// to an offense-group allow-list, optionally reduced to a boolean flag.
type DisciplineDescriptor struct {
	MetaData      model.FeatureMeta
	ValueColumn   string
	Aggregate     string
	OffenseGroups []string
	Window        Window
	NYears        int
	AsBoolean     bool
	Fill          NullFill
	Default       frame.Value
}

// Meta implements service.Feature.
func (d *DisciplineDescriptor) Meta() model.FeatureMeta { return d.MetaData }

// Compute implements service.Feature.
func (d *DisciplineDescriptor) Compute(ctx context.Context, store service.Store, fr model.Frame) (*frame.Frame, error) {
	if err := storage.ValidateIdentifier(d.ValueColumn); err != nil {
		return nil, err
	}
	if err := storage.ValidateAggregate(d.Aggregate); err != nil {
		return nil, err
	}

	where, args := frameWindow(fr, "discipline_year", "t", d.Window, d.NYears)
	if len(d.OffenseGroups) > 0 {
		where += fmt.Sprintf(" AND t.offense_group IN (%s)", placeholders(len(d.OffenseGroups)))
		for _, g := range d.OffenseGroups {
			args = append(args, g)
		}
	}

	query := fmt.Sprintf(`
		SELECT m.person_id, agg.v
		FROM mapping m
		LEFT JOIN (
			SELECT t.student_key, %s(t.%s) AS v
			FROM discipline t
			%s
			WHERE %s
			GROUP BY t.student_key
		) agg ON agg.student_key = m.student_key`,
		d.Aggregate, d.ValueColumn, frameJoin(fr), where)

	data, err := store.QueryFrame(ctx, d.MetaData.Column, query, args...)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", d.MetaData.Column, err)
	}

	if d.AsBoolean {
		for i := range data.Rows {
			v := data.Rows[i].Value
			data.Rows[i].Value = frame.Bool(!v.IsNull() && v.Float64() > 0)
		}
		return data, nil
	}
	applyNullFill(data, d.Fill, d.Default)
	return data, nil
}

// SlopeDescriptor measures score trajectory: the last assessment score
// minus the first within the window, binned into categorical labels.
type SlopeDescriptor struct {
	MetaData     model.FeatureMeta
	TestSubject  string
	TestType     string
	Bins         []float64 // ascending upper bounds; one label per bin plus one overflow label
	Labels       []string
	DefaultLabel string
}

// Meta implements service.Feature.
func (d *SlopeDescriptor) Meta() model.FeatureMeta { return d.MetaData }

// Compute implements service.Feature.
func (d *SlopeDescriptor) Compute(ctx context.Context, store service.Store, fr model.Frame) (*frame.Frame, error) {
	where, args := frameWindow(fr, "test_year", "t", WindowForever, 0)

	query := fmt.Sprintf(`
		WITH scored AS (
			SELECT t.student_key,
			       CAST(t.test_primary_result_code AS REAL) AS score,
			       t.test_year
			FROM assessment t
			%s
			WHERE t.test_subject = ? AND t.test_type = ? AND %s
		)
		SELECT m.person_id, lasts.score - firsts.score
		FROM mapping m
		LEFT JOIN (
			SELECT s.student_key, s.score
			FROM scored s
			WHERE s.test_year = (SELECT MIN(s2.test_year) FROM scored s2 WHERE s2.student_key = s.student_key)
		) firsts ON firsts.student_key = m.student_key
		LEFT JOIN (
			SELECT s.student_key, s.score
			FROM scored s
			WHERE s.test_year = (SELECT MAX(s2.test_year) FROM scored s2 WHERE s2.student_key = s.student_key)
		) lasts ON lasts.student_key = m.student_key`,
		frameJoin(fr), where)

	queryArgs := append([]any{d.TestSubject, d.TestType}, args...)
	data, err := store.QueryFrame(ctx, d.MetaData.Column, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", d.MetaData.Column, err)
	}

	for i := range data.Rows {
		v := data.Rows[i].Value
		if v.IsNull() {
			data.Rows[i].Value = frame.Text(d.DefaultLabel)
			continue
		}
		data.Rows[i].Value = frame.Text(d.bin(v.Float64()))
	}
	return data, nil
}

// bin maps a slope onto its categorical label.
func (d *SlopeDescriptor) bin(v float64) string {
	for i, upper := range d.Bins {
		if v <= upper {
			return d.Labels[i]
		}
	}
	return d.Labels[len(d.Labels)-1]
}

// ProgramDescriptor is a boolean program-membership flag: whether the
// student appears in a program's enrollment within the window.
type ProgramDescriptor struct {
	MetaData    model.FeatureMeta
	ProgramCode string
}

// Meta implements service.Feature.
func (d *ProgramDescriptor) Meta() model.FeatureMeta { return d.MetaData }

// Compute implements service.Feature.
func (d *ProgramDescriptor) Compute(ctx context.Context, store service.Store, fr model.Frame) (*frame.Frame, error) {
	where, args := frameWindow(fr, "year", "t", WindowForever, 0)
	args = append([]any{d.ProgramCode}, args...)

	query := fmt.Sprintf(`
		SELECT m.person_id,
		       CASE WHEN p.student_key IS NULL THEN 0 ELSE 1 END
		FROM mapping m
		LEFT JOIN (
			SELECT DISTINCT t.student_key
			FROM program_enrollment t
			%s
			WHERE t.program_code = ? AND %s
		) p ON p.student_key = m.student_key`, frameJoin(fr), where)

	data, err := store.QueryFrame(ctx, d.MetaData.Column, query, args...)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", d.MetaData.Column, err)
	}
	return data, nil
}

// frameJoin returns the demographic join needed for age-mode windows, which
// filter on event_year - birth_year.
func frameJoin(fr model.Frame) string {
	if fr.Mode != model.FrameAge {
		return ""
	}
	return `JOIN (
				SELECT student_key, MIN(birth_year) AS birth_year
				FROM demographic
				GROUP BY student_key
			) bd ON bd.student_key = t.student_key`
}

// frameWindow renders the shared time-window predicate every concrete
// feature applies identically: year mode bounds the event year; age mode
// bounds event_year - birth_year.
func frameWindow(fr model.Frame, yearColumn, alias string, w Window, nYears int) (string, []any) {
	var where string
	var args []any
	if fr.Mode == model.FrameYear {
		where = fmt.Sprintf("%s.%s <= ?", alias, yearColumn)
		args = append(args, fr.Threshold)
	} else {
		where = fmt.Sprintf("%s.%s - bd.birth_year <= ?", alias, yearColumn)
		args = append(args, fr.Threshold)
	}
	if w == WindowLastN {
		if fr.Mode == model.FrameYear {
			where += fmt.Sprintf(" AND %s.%s > ? - ?", alias, yearColumn)
			args = append(args, fr.Threshold, nYears)
		} else {
			where += fmt.Sprintf(" AND %s.%s - bd.birth_year > ? - ?", alias, yearColumn)
			args = append(args, fr.Threshold, nYears)
		}
	}
	return where, args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
