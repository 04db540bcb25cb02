// Package names provides the deterministic name and date canonicalization
// used by the identity matcher. All functions are pure and idempotent:
// applying them twice yields the same result as once.
package names

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkedata/crosswalk/internal/model"
)

// ErrLengthMismatch indicates DigitDistance was called with strings of
// different lengths. Callers must format both dates identically first.
var ErrLengthMismatch = errors.New("date strings must have equal length")

// suffixTokens are generational suffixes stripped from first names, in
// replacement order. " II" must precede "II" so spaced suffixes are removed
// whole.
var suffixTokens = []string{" III", " II", "II", "Jr.", " Jr"}

// NormalizeFirst canonicalizes a first name: drops a trailing middle
// initial, strips apostrophes, hyphens and generational suffixes, and
// lower-cases. Empty input propagates as empty.
func NormalizeFirst(raw string) string {
	if raw == "" {
		return ""
	}
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	// Middle-initial heuristic: "Kevin F." or "Kevin F" keeps "Kevin".
	if (strings.HasSuffix(name, ".") || (len(name) >= 2 && name[len(name)-2] == ' ')) &&
		strings.Contains(name, " ") {
		name = strings.SplitN(name, " ", 2)[0]
	}
	name = strings.ReplaceAll(name, "'", "")
	name = strings.ReplaceAll(name, "-", "")
	for _, suffix := range suffixTokens {
		name = strings.ReplaceAll(name, suffix, "")
	}
	return strings.TrimSpace(strings.ToLower(name))
}

// NormalizeLast canonicalizes a last name: keeps only the part before the
// first hyphen in compound surnames, removes internal whitespace, and
// lower-cases. Empty input propagates as empty.
func NormalizeLast(raw string) string {
	if raw == "" {
		return ""
	}
	name, _, _ := strings.Cut(raw, "-")
	name = strings.ReplaceAll(name, " ", "")
	return strings.ToLower(name)
}

// DigitDistance counts differing character positions between two
// equal-length date strings. Unequal lengths are a caller error.
func DigitDistance(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	diff := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			diff++
		}
	}
	return diff, nil
}

// NormalizeRecord fills the normalized matching fields on a record. The
// birth year is extracted from the DOB when it parses as YYYY-MM-DD.
func NormalizeRecord(p *model.PersonRecord) {
	p.NormFirst = NormalizeFirst(p.FirstName)
	p.NormLast = NormalizeLast(p.LastName)
	if t, err := time.Parse("2006-01-02", p.DOB); err == nil {
		p.BirthYear = t.Year()
	} else {
		p.BirthYear = 0
	}
}
