package model

// PersonRecord is one individual as observed in a single source system,
// carrying both the raw and normalized identifying fields used for matching.
type PersonRecord struct {
	Key       string // source-system key (student_key or case key)
	FirstName string // raw first name as stored in the source
	LastName  string // raw last name as stored in the source
	DOB       string // date of birth, YYYY-MM-DD

	// Normalized fields, populated by names.NormalizeRecord before matching.
	NormFirst string
	NormLast  string
	BirthYear int
}

// Matchable reports whether the record carries enough identifying
// information to participate in any matching stage. Records failing this
// flow to the unmatched path rather than erroring.
func (p *PersonRecord) Matchable() bool {
	return p.NormFirst != "" && p.NormLast != "" && p.DOB != ""
}

// DedupKey identifies a physical individual within a single population.
// Justice records are deduplicated on this key before identity assignment.
func (p *PersonRecord) DedupKey() string {
	return p.NormFirst + "\x00" + p.NormLast + "\x00" + p.DOB
}
