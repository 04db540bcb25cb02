package model

import (
	"fmt"
	"strings"
)

// Provenance prefixes for canonical person IDs.
const (
	PrefixLinked      = "L" // observed in both the student and justice populations
	PrefixStudentOnly = "D" // observed only in the student population
	PrefixJusticeOnly = "C" // observed only in the justice population
)

// NewPersonID builds a canonical identity token from a provenance prefix
// and a dense sequential suffix unique within that prefix.
func NewPersonID(prefix string, seq int) string {
	return fmt.Sprintf("%s%d", prefix, seq)
}

// MappingEntry is one row of the mapping table: a resolved identity and the
// source keys it covers. The three flags are mutually exclusive and derived
// purely from the person_id prefix.
type MappingEntry struct {
	PersonID       string
	StudentKey     string // empty for justice-only identities
	JusticeCaseKey string // empty for student-only identities
	Linked         bool
	InDemoOnly     bool
	InCJOnly       bool
}

// NewMappingEntry derives the provenance flags from the person_id prefix so
// they can never drift from the token itself.
func NewMappingEntry(personID, studentKey, justiceKey string) MappingEntry {
	e := MappingEntry{
		PersonID:       personID,
		StudentKey:     studentKey,
		JusticeCaseKey: justiceKey,
	}
	switch {
	case strings.HasPrefix(personID, PrefixLinked):
		e.Linked = true
	case strings.HasPrefix(personID, PrefixStudentOnly):
		e.InDemoOnly = true
	case strings.HasPrefix(personID, PrefixJusticeOnly):
		e.InCJOnly = true
	}
	return e
}
