package model

import (
	"errors"
	"fmt"
)

// FeatureType constrains a feature's value domain and physical column type.
type FeatureType string

// Allowed feature types.
const (
	FeatureBoolean     FeatureType = "boolean"
	FeatureNumerical   FeatureType = "numerical"
	FeatureCategorical FeatureType = "categorical"
)

// ErrInvalidFeatureType indicates a feature declared a type outside the
// allowed set.
var ErrInvalidFeatureType = errors.New("feature type must be boolean, numerical or categorical")

// Valid reports whether the type is one of the allowed values.
func (t FeatureType) Valid() bool {
	switch t {
	case FeatureBoolean, FeatureNumerical, FeatureCategorical:
		return true
	}
	return false
}

// SQLType maps the declared type to the physical column type.
func (t FeatureType) SQLType() (string, error) {
	switch t {
	case FeatureBoolean:
		return "INTEGER", nil
	case FeatureNumerical:
		return "REAL", nil
	case FeatureCategorical:
		return "TEXT", nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFeatureType, t)
}

// FeatureMeta describes a computed feature for the feature dictionary.
type FeatureMeta struct {
	ID          int
	Column      string
	Type        FeatureType
	Description string
}

// Validate fails fast on a malformed contract, before any compute runs.
func (m FeatureMeta) Validate() error {
	if m.Column == "" {
		return errors.New("feature column name cannot be empty")
	}
	if !m.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFeatureType, m.Type)
	}
	return nil
}
