package feature

import (
	"context"

	"github.com/mkedata/crosswalk/internal/frame"
	"github.com/mkedata/crosswalk/internal/model"
	"github.com/mkedata/crosswalk/internal/service"
)

// EligibilityColumn names the special feature that gates which identities
// belong in a reference frame's table at all.
const EligibilityColumn = "is_student_relevant"

// maxRelevantAge is the age cutoff for year-mode frames: a student older
// than this at the frame bound is out of the modeled population.
const maxRelevantAge = 20

// Eligibility is the designated eligibility feature. It is always appended
// to a materialization request when absent, and is persisted via a
// destructive rebuild of the frame table rather than a column append.
type Eligibility struct{}

// NewEligibility returns the eligibility feature.
func NewEligibility() *Eligibility { return &Eligibility{} }

// Meta implements service.Feature.
func (e *Eligibility) Meta() model.FeatureMeta {
	return model.FeatureMeta{
		ID:     -1,
		Column: EligibilityColumn,
		Type:   model.FeatureBoolean,
		Description: "whether the identity belongs in this reference frame: a student " +
			"observed within the frame bound and younger than 20 at that bound",
	}
}

// Compute implements service.Feature. It returns rows only for eligible
// identities; the rebuild join drops everyone else, so the result is
// exempt from the null gate.
func (e *Eligibility) Compute(ctx context.Context, store service.Store, fr model.Frame) (*frame.Frame, error) {
	if fr.Mode == model.FrameYear {
		query := `
			SELECT m.person_id, 1
			FROM mapping m
			JOIN (
				SELECT student_key
				FROM demographic
				WHERE year <= ? AND ? - birth_year < ?
				GROUP BY student_key
			) d ON d.student_key = m.student_key`
		return store.QueryFrame(ctx, EligibilityColumn, query, fr.Threshold, fr.Threshold, maxRelevantAge)
	}

	// Age-mode frames restrict events per feature; every mapped student is
	// eligible for the table itself.
	query := `
		SELECT person_id, 1
		FROM mapping
		WHERE student_key IS NOT NULL`
	return store.QueryFrame(ctx, EligibilityColumn, query)
}
