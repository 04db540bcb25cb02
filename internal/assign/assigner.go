// Package assign collapses match candidates into the canonical identity
// mapping: exactly one person_id per physical individual, partitioned into
// linked, student-only and justice-only populations.
package assign

import (
	"log/slog"
	"sort"

	"github.com/mkedata/crosswalk/internal/model"
	"github.com/mkedata/crosswalk/internal/names"
)

// Assign produces the full mapping table from the source populations and
// the deduplicated match candidates. Enumeration order is deterministic:
// source keys are sorted before sequential suffixes are assigned, so
// re-running the batch over the same inputs yields the same mapping.
func Assign(students, justice []model.PersonRecord, candidates []model.MatchCandidate) []model.MappingEntry {
	var entries []model.MappingEntry

	// Linked identities: one per student key observed in any candidate.
	// When several justice records link to one student they are the same
	// physical individual; the first case key (in sorted candidate order)
	// is recorded and the rest are noted for audit.
	matchedStudents := make(map[string][]string)
	matchedJustice := make(map[string]struct{})
	for _, c := range candidates {
		matchedStudents[c.StudentKey] = append(matchedStudents[c.StudentKey], c.JusticeKey)
		matchedJustice[c.JusticeKey] = struct{}{}
	}

	linkedKeys := sortedKeys(matchedStudents)
	for i, studentKey := range linkedKeys {
		caseKeys := matchedStudents[studentKey]
		sort.Strings(caseKeys)
		if len(caseKeys) > 1 {
			slog.Info("Student linked to multiple case records",
				"student_key", studentKey, "case_keys", caseKeys)
		}
		personID := model.NewPersonID(model.PrefixLinked, i+1)
		entries = append(entries, model.NewMappingEntry(personID, studentKey, caseKeys[0]))
	}

	// Student-only identities: every unique student key with no candidate.
	seq := 0
	for _, studentKey := range uniqueSortedKeys(students) {
		if _, ok := matchedStudents[studentKey]; ok {
			continue
		}
		seq++
		personID := model.NewPersonID(model.PrefixStudentOnly, seq)
		entries = append(entries, model.NewMappingEntry(personID, studentKey, ""))
	}

	// Justice-only identities: the justice population is first deduplicated
	// into physical individuals by normalized name + date of birth; an
	// individual is unmatched only when none of its case keys was linked.
	seq = 0
	for _, individual := range dedupeJustice(justice) {
		linked := false
		for _, key := range individual.caseKeys {
			if _, ok := matchedJustice[key]; ok {
				linked = true
				break
			}
		}
		if linked {
			continue
		}
		seq++
		personID := model.NewPersonID(model.PrefixJusticeOnly, seq)
		entries = append(entries, model.NewMappingEntry(personID, "", individual.caseKeys[0]))
	}

	slog.Info("Assigned canonical identities",
		"linked", len(linkedKeys),
		"student_only", countPrefix(entries, model.PrefixStudentOnly),
		"justice_only", countPrefix(entries, model.PrefixJusticeOnly),
		"total", len(entries))
	return entries
}

// justiceIndividual is one physical individual within the justice
// population, possibly observed under several case keys.
type justiceIndividual struct {
	dedupKey string
	caseKeys []string
}

// dedupeJustice groups justice records into physical individuals, ordered
// by their first (sorted) case key.
func dedupeJustice(justice []model.PersonRecord) []justiceIndividual {
	groups := make(map[string][]string)
	for _, r := range justice {
		names.NormalizeRecord(&r)
		dk := r.DedupKey()
		if !r.Matchable() {
			// A record missing any identifying field cannot be merged
			// with another; keep it as its own individual under its
			// case key so no case silently vanishes from the mapping.
			dk = "\x00case\x00" + r.Key
		}
		groups[dk] = append(groups[dk], r.Key)
	}

	individuals := make([]justiceIndividual, 0, len(groups))
	for dk, keys := range groups {
		sort.Strings(keys)
		individuals = append(individuals, justiceIndividual{dedupKey: dk, caseKeys: keys})
	}
	sort.Slice(individuals, func(i, j int) bool {
		return individuals[i].caseKeys[0] < individuals[j].caseKeys[0]
	})
	return individuals
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func uniqueSortedKeys(records []model.PersonRecord) []string {
	seen := make(map[string]struct{}, len(records))
	var keys []string
	for _, r := range records {
		if _, ok := seen[r.Key]; ok {
			continue
		}
		seen[r.Key] = struct{}{}
		keys = append(keys, r.Key)
	}
	sort.Strings(keys)
	return keys
}

func countPrefix(entries []model.MappingEntry, prefix string) int {
	n := 0
	for _, e := range entries {
		switch prefix {
		case model.PrefixStudentOnly:
			if e.InDemoOnly {
				n++
			}
		case model.PrefixJusticeOnly:
			if e.InCJOnly {
				n++
			}
		case model.PrefixLinked:
			if e.Linked {
				n++
			}
		}
	}
	return n
}
