package feature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkedata/crosswalk/internal/frame"
	"github.com/mkedata/crosswalk/internal/model"
	"github.com/mkedata/crosswalk/internal/testutil"
)

// computeNamed resolves a catalog feature and computes it over the frame.
func computeNamed(t *testing.T, db *testutil.TestDB, name, table string) *frame.Frame {
	t.Helper()
	f, err := NewRegistry().Lookup(name)
	require.NoError(t, err)
	fr, err := model.ParseFrame(table)
	require.NoError(t, err)
	data, err := f.Compute(context.Background(), db.Store, fr)
	require.NoError(t, err)
	return data
}

func valueOf(t *testing.T, data *frame.Frame, personID string) frame.Value {
	t.Helper()
	for _, row := range data.Rows {
		if row.PersonID == personID {
			return row.Value
		}
	}
	t.Fatalf("no row for person %s in %s", personID, data.Column)
	return frame.Null()
}

func setupMappedStudents(t *testing.T) *testutil.TestDB {
	t.Helper()
	db := testutil.SetupTestDB(t)
	entries := []model.MappingEntry{
		model.NewMappingEntry("L1", "S1", "J1"),
		model.NewMappingEntry("D1", "S2", ""),
	}
	require.NoError(t, db.Store.SaveMapping(context.Background(), entries))
	return db
}

func TestAggregateDescriptor_YearWindow(t *testing.T) {
	db := setupMappedStudents(t)
	db.SeedDemographic(
		testutil.DemographicRow{StudentKey: "S1", BirthYear: 2000, Year: 2010, AttDays: 100},
		testutil.DemographicRow{StudentKey: "S1", BirthYear: 2000, Year: 2012, AttDays: 150},
		// Past the frame bound; must not contribute.
		testutil.DemographicRow{StudentKey: "S1", BirthYear: 2000, Year: 2014, AttDays: 200},
	)

	data := computeNamed(t, db, "avg_att_days_per_year", "frame_year2013")

	assert.InDelta(t, 125, valueOf(t, data, "L1").Float64(), 0.001)
	// S2 has no observations; the mean of observed students fills in.
	assert.InDelta(t, 125, valueOf(t, data, "D1").Float64(), 0.001)
}

func TestAggregateDescriptor_LastNYears(t *testing.T) {
	db := setupMappedStudents(t)
	db.SeedDemographic(
		testutil.DemographicRow{StudentKey: "S1", BirthYear: 2000, Year: 2012, AttDays: 150},
		testutil.DemographicRow{StudentKey: "S1", BirthYear: 2000, Year: 2013, AttDays: 99},
	)

	data := computeNamed(t, db, "att_days_last_year", "frame_year2013")

	// Only the final year of the window counts.
	assert.InDelta(t, 99, valueOf(t, data, "L1").Float64(), 0.001)
	assert.InDelta(t, 0, valueOf(t, data, "D1").Float64(), 0.001)
}

func TestAggregateDescriptor_AgeWindow(t *testing.T) {
	db := setupMappedStudents(t)
	db.SeedDemographic(
		testutil.DemographicRow{StudentKey: "S1", BirthYear: 2000, Year: 2012, AttDays: 100},
		// Age 18 at observation; outside an age-16 frame.
		testutil.DemographicRow{StudentKey: "S1", BirthYear: 2000, Year: 2018, AttDays: 200},
	)

	data := computeNamed(t, db, "num_demo_records", "frame_age16")

	assert.InDelta(t, 1, valueOf(t, data, "L1").Float64(), 0.001)
	assert.InDelta(t, 0, valueOf(t, data, "D1").Float64(), 0.001)
}

func TestDisciplineDescriptor_OffenseGroups(t *testing.T) {
	db := setupMappedStudents(t)
	db.SeedDiscipline(
		testutil.DisciplineRow{StudentKey: "S1", Year: 2012, DisciplineDays: 3, OffenseGroup: "drugs"},
		testutil.DisciplineRow{StudentKey: "S1", Year: 2012, DisciplineDays: 1, OffenseGroup: "weapons"},
		testutil.DisciplineRow{StudentKey: "S2", Year: 2012, DisciplineDays: 2, OffenseGroup: "weapons"},
	)

	drug := computeNamed(t, db, "has_drug_related_discipline", "frame_year2013")
	assert.InDelta(t, 1, valueOf(t, drug, "L1").Float64(), 0.001)
	assert.InDelta(t, 0, valueOf(t, drug, "D1").Float64(), 0.001)

	weapons := computeNamed(t, db, "num_of_incidents_weapons_related", "frame_year2013")
	assert.InDelta(t, 1, valueOf(t, weapons, "L1").Float64(), 0.001)
	assert.InDelta(t, 1, valueOf(t, weapons, "D1").Float64(), 0.001)

	total := computeNamed(t, db, "num_discipline_days", "frame_year2013")
	assert.InDelta(t, 4, valueOf(t, total, "L1").Float64(), 0.001)
}

func TestDisciplineDescriptor_LastThreeYears(t *testing.T) {
	db := setupMappedStudents(t)
	db.SeedDiscipline(
		testutil.DisciplineRow{StudentKey: "S1", Year: 2008, DisciplineDays: 10, OffenseGroup: "fighting"},
		testutil.DisciplineRow{StudentKey: "S1", Year: 2012, DisciplineDays: 2, OffenseGroup: "fighting"},
	)

	data := computeNamed(t, db, "num_discipline_days_last_3_years", "frame_year2013")

	// 2008 falls outside the trailing three-year window ending 2013.
	assert.InDelta(t, 2, valueOf(t, data, "L1").Float64(), 0.001)
}

func TestSlopeDescriptor_Binning(t *testing.T) {
	db := setupMappedStudents(t)
	db.SeedAssessment(
		testutil.AssessmentRow{StudentKey: "S1", Subject: "math", TestType: "MAP", Result: "200", Year: 2010},
		testutil.AssessmentRow{StudentKey: "S1", Subject: "math", TestType: "MAP", Result: "215", Year: 2013},
		// A later score outside the frame must not shift the slope.
		testutil.AssessmentRow{StudentKey: "S1", Subject: "math", TestType: "MAP", Result: "100", Year: 2015},
		// Different subject; irrelevant to the math slope.
		testutil.AssessmentRow{StudentKey: "S1", Subject: "reading", TestType: "MAP", Result: "500", Year: 2013},
	)

	data := computeNamed(t, db, "math_map_score_slope", "frame_year2013")

	assert.Equal(t, "large_gain", valueOf(t, data, "L1").String())
	assert.Equal(t, "no_tests", valueOf(t, data, "D1").String())
}

func TestSlopeDescriptor_AgeWindow(t *testing.T) {
	db := setupMappedStudents(t)
	db.SeedDemographic(
		testutil.DemographicRow{StudentKey: "S1", BirthYear: 2000, Year: 2012, AttDays: 170},
	)
	db.SeedAssessment(
		testutil.AssessmentRow{StudentKey: "S1", Subject: "math", TestType: "MAP", Result: "100", Year: 2010},
		testutil.AssessmentRow{StudentKey: "S1", Subject: "math", TestType: "MAP", Result: "105", Year: 2014},
		// Taken at age 18; an age-16 frame must not see it.
		testutil.AssessmentRow{StudentKey: "S1", Subject: "math", TestType: "MAP", Result: "200", Year: 2018},
	)

	data := computeNamed(t, db, "math_map_score_slope", "frame_age16")

	assert.Equal(t, "gain", valueOf(t, data, "L1").String())
}

func TestSlopeDescriptor_BinEdges(t *testing.T) {
	d := &SlopeDescriptor{
		Bins:   []float64{-10, 0, 10},
		Labels: []string{"large_drop", "drop", "gain", "large_gain"},
	}

	tests := []struct {
		slope float64
		want  string
	}{
		{slope: -25, want: "large_drop"},
		{slope: -10, want: "large_drop"},
		{slope: -1, want: "drop"},
		{slope: 0, want: "drop"},
		{slope: 5, want: "gain"},
		{slope: 10, want: "gain"},
		{slope: 11, want: "large_gain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.bin(tt.slope), "slope %v", tt.slope)
	}
}

func TestProgramDescriptor_WindowBound(t *testing.T) {
	db := setupMappedStudents(t)
	db.SeedProgram(
		testutil.ProgramRow{StudentKey: "S1", ProgramCode: "esl", Year: 2012},
		// Enrollment after the frame bound; invisible to a 2013 frame.
		testutil.ProgramRow{StudentKey: "S2", ProgramCode: "esl", Year: 2015},
	)

	data := computeNamed(t, db, "is_esl", "frame_year2013")

	assert.InDelta(t, 1, valueOf(t, data, "L1").Float64(), 0.001)
	assert.InDelta(t, 0, valueOf(t, data, "D1").Float64(), 0.001)
}
