package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkedata/crosswalk/internal/model"
)

func TestSaveMapping_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []model.MappingEntry{
		model.NewMappingEntry("L1", "S1", "J1"),
		model.NewMappingEntry("D1", "S2", ""),
		model.NewMappingEntry("C1", "", "J9"),
	}
	require.NoError(t, store.SaveMapping(ctx, entries))

	got, err := store.GetMapping(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// GetMapping orders by person_id: C1, D1, L1.
	assert.Equal(t, "C1", got[0].PersonID)
	assert.True(t, got[0].InCJOnly)
	assert.Empty(t, got[0].StudentKey)
	assert.Equal(t, "J9", got[0].JusticeCaseKey)

	assert.Equal(t, "D1", got[1].PersonID)
	assert.True(t, got[1].InDemoOnly)
	assert.Equal(t, "S2", got[1].StudentKey)
	assert.Empty(t, got[1].JusticeCaseKey)

	assert.Equal(t, "L1", got[2].PersonID)
	assert.True(t, got[2].Linked)
}

func TestSaveMapping_ReplacesPrevious(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMapping(ctx, []model.MappingEntry{
		model.NewMappingEntry("L1", "S1", "J1"),
		model.NewMappingEntry("D1", "S2", ""),
	}))
	require.NoError(t, store.SaveMapping(ctx, []model.MappingEntry{
		model.NewMappingEntry("D1", "S3", ""),
	}))

	got, err := store.GetMapping(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "S3", got[0].StudentKey)
}

func TestSaveMapping_RejectsEmpty(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveMapping(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptySlice)
}

func TestLoadStudentRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.seed(t, `INSERT INTO demographic (student_key, first_name, last_name, birthdate, year)
		VALUES (?, ?, ?, ?, ?)`, "S1", "Jane", "Doe", "2000-01-01", 2012)
	// Same student, later year; one record per key comes back.
	store.seed(t, `INSERT INTO demographic (student_key, first_name, last_name, birthdate, year)
		VALUES (?, ?, ?, ?, ?)`, "S1", "Jane", "Doe", "2000-01-01", 2013)
	store.seed(t, `INSERT INTO demographic (student_key, first_name, last_name, birthdate, year)
		VALUES (?, ?, ?, ?, ?)`, "S2", "Bo", "Ray", "2001-02-02", 2012)

	records, err := store.LoadStudentRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "S1", records[0].Key)
	assert.Equal(t, "Jane", records[0].FirstName)
	assert.Equal(t, "Doe", records[0].LastName)
	assert.Equal(t, "2000-01-01", records[0].DOB)
	assert.Equal(t, "S2", records[1].Key)
}

func TestLoadJusticeRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.seed(t, `INSERT INTO juvenile_case (case_key, defendant_name, defendant_dob)
		VALUES (?, ?, ?)`, "J1", "Doe, Jane", "2000-01-01")
	store.seed(t, `INSERT INTO adult_case (case_key, defendant_name, defendant_dob)
		VALUES (?, ?, ?)`, "J2", "Ray, Bo", "1990-02-02")
	// NULL name and DOB come back empty, not as scan errors.
	store.seed(t, `INSERT INTO adult_case (case_key) VALUES (?)`, "J3")

	records, err := store.LoadJusticeRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "J1", records[0].Key)
	assert.Equal(t, "Jane", records[0].FirstName)
	assert.Equal(t, "Doe", records[0].LastName)

	assert.Equal(t, "J2", records[1].Key)
	assert.Equal(t, "Bo", records[1].FirstName)
	assert.Equal(t, "Ray", records[1].LastName)

	assert.Equal(t, "J3", records[2].Key)
	assert.Empty(t, records[2].FirstName)
	assert.Empty(t, records[2].DOB)
}

func TestSplitDefendantName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantLast  string
		wantFirst string
	}{
		{name: "last comma first", input: "Doe, Jane", wantLast: "Doe", wantFirst: "Jane"},
		{name: "no spaces", input: "Doe,Jane", wantLast: "Doe", wantFirst: "Jane"},
		{name: "no comma", input: "Doe", wantLast: "Doe", wantFirst: ""},
		{name: "empty", input: "", wantLast: "", wantFirst: ""},
		{name: "first name with middle", input: "Doe, Jane Q.", wantLast: "Doe", wantFirst: "Jane Q."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last, first := splitDefendantName(tt.input)
			assert.Equal(t, tt.wantLast, last)
			assert.Equal(t, tt.wantFirst, first)
		})
	}
}
