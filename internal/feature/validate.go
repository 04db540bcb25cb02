// Package feature defines the feature contract, the descriptor shapes that
// parameterize every concrete feature, the validation gate, and the
// registry mapping feature names to implementations.
package feature

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mkedata/crosswalk/internal/frame"
	"github.com/mkedata/crosswalk/internal/model"
)

// Validation gate rejections. Each is fatal to the one feature being
// materialized, never to the batch.
var (
	ErrNullValues        = errors.New("feature column contains null values")
	ErrNonNumericStorage = errors.New("numerical and boolean features must hold numeric values")
	ErrDuplicatePersonID = errors.New("feature is not unique per person")
)

// dominanceThreshold is the share of rows a single value may hold before
// the low-information warning fires.
const dominanceThreshold = 0.8

// Validate applies the data-quality gate to a computed feature, in order:
// nulls reject, negative numericals warn, non-numeric storage for
// numerical/boolean rejects, a >80%-dominant value warns, duplicate
// person_id rejects. It never imputes; null handling is the feature's own
// responsibility before the gate runs.
func Validate(meta model.FeatureMeta, data *frame.Frame) error {
	return validate(meta, data, false)
}

// ValidateEligibility applies the gate minus the null rule; the eligibility
// feature's load path rebuilds the table from only the rows it returns, so
// absent identities are not nulls to impute.
func ValidateEligibility(meta model.FeatureMeta, data *frame.Frame) error {
	return validate(meta, data, true)
}

func validate(meta model.FeatureMeta, data *frame.Frame, allowNulls bool) error {
	if !allowNulls {
		for _, row := range data.Rows {
			if row.Value.IsNull() {
				return fmt.Errorf("%w: person %s in %s", ErrNullValues, row.PersonID, meta.Column)
			}
		}
	}

	if meta.Type == model.FeatureNumerical {
		for _, row := range data.Rows {
			if row.Value.IsNumeric() && row.Value.Float64() < 0 {
				slog.Warn("Feature contains negative values",
					"feature", meta.Column, "person_id", row.PersonID)
				break
			}
		}
	}

	if meta.Type == model.FeatureNumerical || meta.Type == model.FeatureBoolean {
		for _, row := range data.Rows {
			if row.Value.IsNull() {
				continue
			}
			if !row.Value.IsNumeric() {
				return fmt.Errorf("%w: feature %s holds %q", ErrNonNumericStorage, meta.Column, row.Value.String())
			}
		}
	}

	if data.Len() > 0 {
		if value, count := data.Dominant(); float64(count) > dominanceThreshold*float64(data.Len()) {
			slog.Warn("Single value dominates feature",
				"feature", meta.Column, "value", value,
				"count", count, "rows", data.Len())
		}
	}

	if dup, found := data.DuplicatePersonID(); found {
		return fmt.Errorf("%w: person %s repeats in %s", ErrDuplicatePersonID, dup, meta.Column)
	}

	return nil
}
