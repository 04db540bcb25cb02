// Package storage provides the relational store adapter backing the
// linkage and feature-materialization pipeline.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrEmptySlice       = errors.New("slice cannot be empty")
	ErrBadIdentifier    = errors.New("identifier contains disallowed characters")
	ErrBadAggregate     = errors.New("aggregate function not in allow-list")
	ErrMappingNotLoaded = errors.New("mapping table is empty; run link first")
)

// identifierPattern is the allow-list for SQL identifiers interpolated into
// DDL. Values always travel as bound parameters; identifiers cannot, so
// anything outside this pattern is rejected outright.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// allowedAggregates is the allow-list for aggregate function names
// interpolated into feature SQL.
var allowedAggregates = map[string]struct{}{
	"sum":   {},
	"avg":   {},
	"count": {},
	"min":   {},
	"max":   {},
}

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// ValidateIdentifier ensures a table or column name is safe to interpolate.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrBadIdentifier, name)
	}
	return nil
}

// ValidateAggregate ensures an aggregate function name is allow-listed.
func ValidateAggregate(fn string) error {
	if _, ok := allowedAggregates[strings.ToLower(fn)]; !ok {
		return fmt.Errorf("%w: %q", ErrBadAggregate, fn)
	}
	return nil
}
