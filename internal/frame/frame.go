// Package frame provides the in-memory tabular exchange format passed
// between the matcher, assigner, feature computations and the store
// adapter: one value column keyed by person_id, with explicit null
// tracking so the validation gate can enforce its postconditions.
package frame

import (
	"fmt"
	"strconv"
)

// Kind discriminates the value variants a cell may hold.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
)

// Value is a single typed cell.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating-point value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Text returns a text value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Bool returns a boolean value stored as a small integer, matching the
// physical column type for boolean features.
func Bool(v bool) Value {
	if v {
		return Int(1)
	}
	return Int(0)
}

// Kind returns the value's variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumeric reports whether the cell holds numeric storage.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Float64 returns the cell as a float64. Text and null cells return zero.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	}
	return 0
}

// Arg returns the cell as a driver-compatible query argument.
func (v Value) Arg() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	}
	return nil
}

// String renders the cell for logs and dominance bucketing. Distinct
// values must render distinctly within a kind.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	}
	return "<null>"
}

// Row pairs a person_id with a computed value.
type Row struct {
	PersonID string
	Value    Value
}

// Frame is the result of one feature computation: exactly one value column,
// at most one row per person_id (enforced by the validation gate).
type Frame struct {
	Column string
	Rows   []Row
}

// New creates an empty frame for the named value column.
func New(column string) *Frame {
	return &Frame{Column: column}
}

// Append adds a row.
func (f *Frame) Append(personID string, v Value) {
	f.Rows = append(f.Rows, Row{PersonID: personID, Value: v})
}

// Len returns the row count.
func (f *Frame) Len() int { return len(f.Rows) }

// DuplicatePersonID returns the first person_id appearing more than once,
// if any.
func (f *Frame) DuplicatePersonID() (string, bool) {
	seen := make(map[string]struct{}, len(f.Rows))
	for _, r := range f.Rows {
		if _, ok := seen[r.PersonID]; ok {
			return r.PersonID, true
		}
		seen[r.PersonID] = struct{}{}
	}
	return "", false
}

// FillNulls replaces every null cell with the given default. Features use
// this to satisfy the no-nulls postcondition before the gate runs.
func (f *Frame) FillNulls(def Value) {
	for i := range f.Rows {
		if f.Rows[i].Value.IsNull() {
			f.Rows[i].Value = def
		}
	}
}

// FillNullsWithMean replaces null cells with the mean of the non-null
// numeric cells. Falls back to zero when no numeric cells exist.
func (f *Frame) FillNullsWithMean() {
	var sum float64
	var n int
	for _, r := range f.Rows {
		if r.Value.IsNumeric() {
			sum += r.Value.Float64()
			n++
		}
	}
	mean := 0.0
	if n > 0 {
		mean = sum / float64(n)
	}
	f.FillNulls(Float(mean))
}

// Dominant returns the most frequent rendered value and its count.
func (f *Frame) Dominant() (string, int) {
	counts := make(map[string]int, len(f.Rows))
	best, bestN := "", 0
	for _, r := range f.Rows {
		s := r.Value.String()
		counts[s]++
		if counts[s] > bestN {
			best, bestN = s, counts[s]
		}
	}
	return best, bestN
}

// GoString aids test failure output.
func (r Row) GoString() string {
	return fmt.Sprintf("frame.Row{%s=%s}", r.PersonID, r.Value)
}
