package assign

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkedata/crosswalk/internal/matcher"
	"github.com/mkedata/crosswalk/internal/model"
)

func TestAssign_PartitionsPopulations(t *testing.T) {
	// 100 students and 30 distinct justice individuals with 20 matched
	// pairs must yield 20 linked, 80 student-only and 10 justice-only
	// identities.
	var students, justice []model.PersonRecord
	for i := 0; i < 100; i++ {
		students = append(students, model.PersonRecord{
			Key:       fmt.Sprintf("S%03d", i),
			FirstName: fmt.Sprintf("First%d", i),
			LastName:  fmt.Sprintf("Last%d", i),
			DOB:       fmt.Sprintf("2000-01-%02d", i%28+1),
		})
	}
	for i := 0; i < 30; i++ {
		justice = append(justice, model.PersonRecord{
			Key:       fmt.Sprintf("J%03d", i),
			FirstName: fmt.Sprintf("JFirst%d", i),
			LastName:  fmt.Sprintf("JLast%d", i),
			DOB:       fmt.Sprintf("1999-01-%02d", i%28+1),
		})
	}
	var candidates []model.MatchCandidate
	for i := 0; i < 20; i++ {
		candidates = append(candidates, model.MatchCandidate{
			JusticeKey: fmt.Sprintf("J%03d", i),
			StudentKey: fmt.Sprintf("S%03d", i),
			Tier:       model.TierExact,
		})
	}

	entries := Assign(students, justice, candidates)
	require.Len(t, entries, 110)

	linked, demoOnly, cjOnly := 0, 0, 0
	for _, e := range entries {
		flags := 0
		if e.Linked {
			linked++
			flags++
			assert.NotEmpty(t, e.StudentKey)
			assert.NotEmpty(t, e.JusticeCaseKey)
		}
		if e.InDemoOnly {
			demoOnly++
			flags++
			assert.NotEmpty(t, e.StudentKey)
			assert.Empty(t, e.JusticeCaseKey)
		}
		if e.InCJOnly {
			cjOnly++
			flags++
			assert.Empty(t, e.StudentKey)
			assert.NotEmpty(t, e.JusticeCaseKey)
		}
		assert.Equal(t, 1, flags, "flags must be mutually exclusive for %s", e.PersonID)
	}
	assert.Equal(t, 20, linked)
	assert.Equal(t, 80, demoOnly)
	assert.Equal(t, 10, cjOnly)

	// Every person_id is unique.
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		_, dup := seen[e.PersonID]
		assert.False(t, dup, "duplicate person_id %s", e.PersonID)
		seen[e.PersonID] = struct{}{}
	}
}

func TestAssign_MultipleCasesOneStudent(t *testing.T) {
	// Two case records linked to one student are one physical person: a
	// single L identity recording the first sorted case key.
	students := []model.PersonRecord{
		{Key: "S1", FirstName: "Ann", LastName: "Lee", DOB: "2000-01-01"},
	}
	justice := []model.PersonRecord{
		{Key: "J2", FirstName: "Ann", LastName: "Lee", DOB: "2000-01-01"},
		{Key: "J1", FirstName: "Ann", LastName: "Lee", DOB: "2000-01-01"},
	}
	candidates := []model.MatchCandidate{
		{JusticeKey: "J2", StudentKey: "S1", Tier: model.TierExact},
		{JusticeKey: "J1", StudentKey: "S1", Tier: model.TierExact},
	}

	entries := Assign(students, justice, candidates)
	require.Len(t, entries, 1)
	assert.Equal(t, "L1", entries[0].PersonID)
	assert.Equal(t, "S1", entries[0].StudentKey)
	assert.Equal(t, "J1", entries[0].JusticeCaseKey)
	assert.True(t, entries[0].Linked)
}

func TestAssign_JusticeDeduplication(t *testing.T) {
	// The same unmatched individual under two case keys gets one C
	// identity, not two.
	justice := []model.PersonRecord{
		{Key: "J1", FirstName: "Bo", LastName: "Ray", DOB: "1999-05-05"},
		{Key: "J2", FirstName: "Bo", LastName: "Ray", DOB: "1999-05-05"},
		{Key: "J3", FirstName: "Cy", LastName: "Vault", DOB: "1998-04-04"},
	}

	entries := Assign(nil, justice, nil)
	require.Len(t, entries, 2)
	assert.Equal(t, "C1", entries[0].PersonID)
	assert.Equal(t, "J1", entries[0].JusticeCaseKey)
	assert.Equal(t, "C2", entries[1].PersonID)
	assert.Equal(t, "J3", entries[1].JusticeCaseKey)
}

func TestAssign_UnidentifiedJusticeRecordsStaySeparate(t *testing.T) {
	// Records with missing names or DOBs carry no evidence they are the
	// same person, so each case keeps its own C identity.
	justice := []model.PersonRecord{
		{Key: "J1", DOB: "1999-05-05"},
		{Key: "J2", DOB: "1999-05-05"},
		{Key: "J3", FirstName: "Cy", LastName: "Vault"},
		{Key: "J4", FirstName: "Cy", LastName: "Vault"},
	}

	entries := Assign(nil, justice, nil)
	require.Len(t, entries, 4)

	caseKeys := make([]string, 0, len(entries))
	for _, e := range entries {
		assert.False(t, e.Linked)
		caseKeys = append(caseKeys, e.JusticeCaseKey)
	}
	assert.ElementsMatch(t, []string{"J1", "J2", "J3", "J4"}, caseKeys)
}

func TestAssign_PartiallyLinkedIndividualIsNotJusticeOnly(t *testing.T) {
	// One of the individual's two case records matched a student; the
	// individual is linked, so no C identity may be created for them.
	students := []model.PersonRecord{
		{Key: "S1", FirstName: "Bo", LastName: "Ray", DOB: "1999-05-05"},
	}
	justice := []model.PersonRecord{
		{Key: "J1", FirstName: "Bo", LastName: "Ray", DOB: "1999-05-05"},
		{Key: "J2", FirstName: "Bo", LastName: "Ray", DOB: "1999-05-05"},
	}
	candidates := []model.MatchCandidate{
		{JusticeKey: "J1", StudentKey: "S1", Tier: model.TierExact},
	}

	entries := Assign(students, justice, candidates)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Linked)
}

func TestAssign_Deterministic(t *testing.T) {
	students := []model.PersonRecord{
		{Key: "S2", FirstName: "B", LastName: "B", DOB: "2000-01-01"},
		{Key: "S1", FirstName: "A", LastName: "A", DOB: "2000-01-01"},
	}
	justice := []model.PersonRecord{
		{Key: "J1", FirstName: "Z", LastName: "Z", DOB: "1999-01-01"},
	}

	first := Assign(students, justice, nil)
	for n := 0; n < 5; n++ {
		assert.Equal(t, first, Assign(students, justice, nil))
	}
}

func TestAssign_EmptyInputs(t *testing.T) {
	assert.Empty(t, Assign(nil, nil, nil))
}

func TestResolveAndAssign_NearDatePair(t *testing.T) {
	// One student and one case record whose dates of birth differ by a
	// single digit: a tier-2 match and exactly one linked identity.
	students := []model.PersonRecord{
		{Key: "1", FirstName: "Jane", LastName: "Doe", DOB: "2000-01-01"},
	}
	justice := []model.PersonRecord{
		{Key: "9", FirstName: "Jane", LastName: "Doe", DOB: "2000-01-02"},
	}

	candidates := matcher.New().Resolve(justice, students)
	require.Len(t, candidates, 1)
	assert.Equal(t, model.TierNearDate, candidates[0].Tier)

	entries := Assign(students, justice, candidates)
	require.Len(t, entries, 1)
	assert.Equal(t, "L1", entries[0].PersonID)
	assert.Equal(t, "1", entries[0].StudentKey)
	assert.Equal(t, "9", entries[0].JusticeCaseKey)
	assert.True(t, entries[0].Linked)
}
