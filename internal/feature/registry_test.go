package feature

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkedata/crosswalk/internal/common"
	"github.com/mkedata/crosswalk/internal/frame"
	"github.com/mkedata/crosswalk/internal/model"
	"github.com/mkedata/crosswalk/internal/service"
)

type noopFeature struct {
	meta model.FeatureMeta
}

func (f *noopFeature) Meta() model.FeatureMeta { return f.meta }

func (f *noopFeature) Compute(_ context.Context, _ service.Store, _ model.Frame) (*frame.Frame, error) {
	return frame.New(f.meta.Column), nil
}

func TestNewRegistry_CatalogLoads(t *testing.T) {
	r := NewRegistry()
	names := r.Names()

	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, EligibilityColumn)
	assert.Contains(t, names, "num_demo_records")
	assert.Contains(t, names, "math_map_score_slope")
	assert.Contains(t, names, "is_student_homeless")
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	f, err := r.Lookup("num_discipline_days")
	require.NoError(t, err)
	assert.Equal(t, "num_discipline_days", f.Meta().Column)

	_, err = r.Lookup("no_such_feature")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnknownFeature)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	err := r.Register(&noopFeature{meta: model.FeatureMeta{
		ID: 99, Column: "custom_flag", Type: model.FeatureBoolean,
	}})
	require.NoError(t, err)

	f, err := r.Lookup("custom_flag")
	require.NoError(t, err)
	assert.Equal(t, 99, f.Meta().ID)
}

func TestRegistry_RegisterRejectsBadContracts(t *testing.T) {
	r := NewRegistry()

	err := r.Register(&noopFeature{meta: model.FeatureMeta{
		ID: 99, Column: "", Type: model.FeatureBoolean,
	}})
	assert.Error(t, err)

	err = r.Register(&noopFeature{meta: model.FeatureMeta{
		ID: 99, Column: "bad_type", Type: "ordinal",
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidFeatureType)

	err = r.Register(&noopFeature{meta: model.FeatureMeta{
		ID: 99, Column: "num_demo_records", Type: model.FeatureNumerical,
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}
