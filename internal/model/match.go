package model

// MatchTier ranks a matching strategy's confidence within the cascade.
// Lower values indicate higher confidence.
type MatchTier int

// Match tiers, strictly ordered by confidence.
const (
	// TierExact matches normalized first+last name, birth year, and a
	// date-of-birth digit distance of zero.
	TierExact MatchTier = 1
	// TierNearDate is the same name+year join with exactly one differing
	// digit in the date-of-birth string.
	TierNearDate MatchTier = 2
	// TierLastNameJaro requires exact first name + DOB and last-name
	// similarity in [0.8, 1.0).
	TierLastNameJaro MatchTier = 3
	// TierFirstNameJaro requires exact last name + DOB and first-name
	// similarity in [0.8, 1.0).
	TierFirstNameJaro MatchTier = 4
)

// String returns the strategy name recorded with each candidate.
func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierNearDate:
		return "near_date"
	case TierLastNameJaro:
		return "lastname_jaro"
	case TierFirstNameJaro:
		return "firstname_jaro"
	default:
		return "unknown"
	}
}

// MatchCandidate is a pairwise association between a justice-system record
// and a student record produced by one matching strategy.
type MatchCandidate struct {
	JusticeKey string
	StudentKey string
	Tier       MatchTier
	Score      float64 // 1.0 for exact tiers, Jaro score for similarity tiers
}
