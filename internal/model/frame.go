package model

import (
	"errors"
	"fmt"
	"regexp"
)

// FrameMode selects how a reference frame's threshold is interpreted.
type FrameMode string

// Frame modes.
const (
	// FrameYear includes all source events up to and including the
	// threshold calendar year.
	FrameYear FrameMode = "year"
	// FrameAge includes events where event_year - birth_year is at most
	// the threshold.
	FrameAge FrameMode = "age"
)

// ErrBadFrameName indicates a reference-frame table name with no numeric
// threshold. This is fatal before any compute begins.
var ErrBadFrameName = errors.New("reference-frame table name must embed an integer threshold")

// Frame is a parsed reference frame: the named time-window that scopes
// which historical events a feature may use.
type Frame struct {
	Table     string
	Mode      FrameMode
	Threshold int
}

var nonDigits = regexp.MustCompile(`\D`)

// ParseFrame extracts the embedded integer from a reference-frame table
// name. Thresholds above 1000 are calendar-year bounds; anything else is a
// maximum student age.
func ParseFrame(table string) (Frame, error) {
	digits := nonDigits.ReplaceAllString(table, "")
	if digits == "" {
		return Frame{}, fmt.Errorf("%w: %q", ErrBadFrameName, table)
	}
	var threshold int
	if _, err := fmt.Sscanf(digits, "%d", &threshold); err != nil {
		return Frame{}, fmt.Errorf("%w: %q", ErrBadFrameName, table)
	}
	mode := FrameAge
	if threshold > 1000 {
		mode = FrameYear
	}
	return Frame{Table: table, Mode: mode, Threshold: threshold}, nil
}
