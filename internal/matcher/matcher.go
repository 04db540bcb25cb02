// Package matcher implements the multi-stage record-linkage cascade between
// justice-system case records and student demographic records.
package matcher

import (
	"log/slog"
	"sort"

	"github.com/xrash/smetrics"

	"github.com/mkedata/crosswalk/internal/model"
	"github.com/mkedata/crosswalk/internal/names"
)

// Config holds configuration options for the matching cascade.
type Config struct {
	// SimilarityThreshold is the inclusive lower bound for the Jaro score
	// in the similarity tiers. Scores of exactly 1.0 are excluded so exact
	// matches are not re-counted.
	SimilarityThreshold float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{SimilarityThreshold: 0.8}
}

// Matcher runs the matching cascade.
type Matcher struct {
	threshold float64
}

// New creates a matcher with the default configuration.
func New() *Matcher {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a matcher with custom configuration.
func NewWithConfig(cfg Config) *Matcher {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultConfig().SimilarityThreshold
	}
	return &Matcher{threshold: threshold}
}

// Resolve runs the full cascade and returns one candidate per matched
// justice record, best tier first. Records missing a name or date of birth
// are excluded from matching, not errors. The similarity stages run over
// the full populations, not stage-1 leftovers; overlaps are collapsed by
// tier precedence with deterministic first-seen ordering within a tier.
func (m *Matcher) Resolve(justice, students []model.PersonRecord) []model.MatchCandidate {
	justice = normalizeMatchable(justice)
	students = normalizeMatchable(students)

	slog.Info("Starting match cascade",
		"justice_records", len(justice),
		"student_records", len(students))

	var candidates []model.MatchCandidate
	candidates = append(candidates, m.exactCascade(justice, students)...)
	candidates = append(candidates, m.similarityCascade(justice, students)...)

	// Fix iteration order before dedup so ties resolve deterministically.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.JusticeKey != b.JusticeKey {
			return a.JusticeKey < b.JusticeKey
		}
		return a.StudentKey < b.StudentKey
	})

	deduped := dedupeByJusticeKey(candidates)

	slog.Info("Match cascade complete",
		"raw_candidates", len(candidates),
		"resolved", len(deduped))
	return deduped
}

// exactCascade joins on (normalized first name, normalized last name, birth
// year) and partitions joined pairs by digit distance between the two
// date-of-birth strings: zero is tier 1, exactly one is tier 2.
func (m *Matcher) exactCascade(justice, students []model.PersonRecord) []model.MatchCandidate {
	index := make(map[exactKey][]*model.PersonRecord)
	for i := range students {
		s := &students[i]
		if s.BirthYear == 0 {
			continue
		}
		k := exactKey{first: s.NormFirst, last: s.NormLast, year: s.BirthYear}
		index[k] = append(index[k], s)
	}

	var out []model.MatchCandidate
	for i := range justice {
		j := &justice[i]
		if j.BirthYear == 0 {
			continue
		}
		k := exactKey{first: j.NormFirst, last: j.NormLast, year: j.BirthYear}
		for _, s := range index[k] {
			dist, err := names.DigitDistance(j.DOB, s.DOB)
			if err != nil {
				// Differently-formatted dates cannot be compared digit-wise;
				// the pair may still match in the similarity stages.
				slog.Debug("Skipping digit comparison",
					"justice_key", j.Key, "student_key", s.Key, "error", err)
				continue
			}
			switch dist {
			case 0:
				out = append(out, model.MatchCandidate{
					JusticeKey: j.Key, StudentKey: s.Key,
					Tier: model.TierExact, Score: 1.0,
				})
			case 1:
				out = append(out, model.MatchCandidate{
					JusticeKey: j.Key, StudentKey: s.Key,
					Tier: model.TierNearDate, Score: 1.0,
				})
			}
		}
	}
	return out
}

// similarityCascade runs the two symmetric Jaro stages: exact first
// name + DOB scoring last-name similarity (tier 3), and exact last
// name + DOB scoring first-name similarity (tier 4).
func (m *Matcher) similarityCascade(justice, students []model.PersonRecord) []model.MatchCandidate {
	byFirstDOB := make(map[joinKey][]*model.PersonRecord)
	byLastDOB := make(map[joinKey][]*model.PersonRecord)
	for i := range students {
		s := &students[i]
		byFirstDOB[joinKey{name: s.NormFirst, dob: s.DOB}] = append(byFirstDOB[joinKey{name: s.NormFirst, dob: s.DOB}], s)
		byLastDOB[joinKey{name: s.NormLast, dob: s.DOB}] = append(byLastDOB[joinKey{name: s.NormLast, dob: s.DOB}], s)
	}

	var out []model.MatchCandidate
	for i := range justice {
		j := &justice[i]
		for _, s := range byFirstDOB[joinKey{name: j.NormFirst, dob: j.DOB}] {
			score := smetrics.Jaro(j.NormLast, s.NormLast)
			if score >= m.threshold && score < 1.0 {
				out = append(out, model.MatchCandidate{
					JusticeKey: j.Key, StudentKey: s.Key,
					Tier: model.TierLastNameJaro, Score: score,
				})
			}
		}
		for _, s := range byLastDOB[joinKey{name: j.NormLast, dob: j.DOB}] {
			score := smetrics.Jaro(j.NormFirst, s.NormFirst)
			if score >= m.threshold && score < 1.0 {
				out = append(out, model.MatchCandidate{
					JusticeKey: j.Key, StudentKey: s.Key,
					Tier: model.TierFirstNameJaro, Score: score,
				})
			}
		}
	}
	return out
}

type exactKey struct {
	first string
	last  string
	year  int
}

type joinKey struct {
	name string
	dob  string
}

// normalizeMatchable normalizes a population and drops records that cannot
// participate in any stage.
func normalizeMatchable(records []model.PersonRecord) []model.PersonRecord {
	out := make([]model.PersonRecord, 0, len(records))
	for _, r := range records {
		names.NormalizeRecord(&r)
		if !r.Matchable() {
			slog.Debug("Excluding unmatchable record", "key", r.Key)
			continue
		}
		out = append(out, r)
	}
	return out
}

// dedupeByJusticeKey keeps the first candidate per justice record. Input
// must already be sorted by tier precedence; conflicting lower-tier matches
// are logged for audit, never silently dropped without trace.
func dedupeByJusticeKey(candidates []model.MatchCandidate) []model.MatchCandidate {
	kept := make(map[string]model.MatchCandidate, len(candidates))
	var out []model.MatchCandidate
	for _, c := range candidates {
		winner, seen := kept[c.JusticeKey]
		if !seen {
			kept[c.JusticeKey] = c
			out = append(out, c)
			continue
		}
		if winner.StudentKey != c.StudentKey {
			slog.Warn("Conflicting match resolved by tier precedence",
				"justice_key", c.JusticeKey,
				"kept_student", winner.StudentKey, "kept_tier", winner.Tier.String(),
				"dropped_student", c.StudentKey, "dropped_tier", c.Tier.String())
		}
	}
	return out
}
