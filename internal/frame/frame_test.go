package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueKinds(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.False(t, Null().IsNumeric())

	assert.True(t, Int(3).IsNumeric())
	assert.InDelta(t, 3, Int(3).Float64(), 0.001)

	assert.True(t, Float(1.5).IsNumeric())
	assert.InDelta(t, 1.5, Float(1.5).Float64(), 0.001)

	assert.False(t, Text("label").IsNumeric())
	assert.Equal(t, "label", Text("label").String())

	assert.InDelta(t, 1, Bool(true).Float64(), 0.001)
	assert.InDelta(t, 0, Bool(false).Float64(), 0.001)
}

func TestValueArg(t *testing.T) {
	assert.Nil(t, Null().Arg())
	assert.Equal(t, int64(3), Int(3).Arg())
	assert.InDelta(t, 1.5, Float(1.5).Arg().(float64), 0.001)
	assert.Equal(t, "x", Text("x").Arg())
}

func TestFrame_DuplicatePersonID(t *testing.T) {
	f := New("att_days")
	f.Append("L1", Float(1))
	f.Append("L2", Float(2))

	_, found := f.DuplicatePersonID()
	assert.False(t, found)

	f.Append("L1", Float(3))
	dup, found := f.DuplicatePersonID()
	assert.True(t, found)
	assert.Equal(t, "L1", dup)
}

func TestFrame_FillNulls(t *testing.T) {
	f := New("att_days")
	f.Append("L1", Float(4))
	f.Append("L2", Null())

	f.FillNulls(Float(0))
	assert.InDelta(t, 0, f.Rows[1].Value.Float64(), 0.001)
	assert.InDelta(t, 4, f.Rows[0].Value.Float64(), 0.001)
}

func TestFrame_FillNullsWithMean(t *testing.T) {
	f := New("att_days")
	f.Append("L1", Float(10))
	f.Append("L2", Float(20))
	f.Append("L3", Null())

	f.FillNullsWithMean()
	assert.InDelta(t, 15, f.Rows[2].Value.Float64(), 0.001)
}

func TestFrame_FillNullsWithMean_AllNull(t *testing.T) {
	f := New("att_days")
	f.Append("L1", Null())

	f.FillNullsWithMean()
	assert.False(t, f.Rows[0].Value.IsNull())
	assert.InDelta(t, 0, f.Rows[0].Value.Float64(), 0.001)
}

func TestFrame_Dominant(t *testing.T) {
	f := New("gender")
	f.Append("L1", Text("f"))
	f.Append("L2", Text("f"))
	f.Append("L3", Text("m"))

	value, count := f.Dominant()
	assert.Equal(t, "f", value)
	assert.Equal(t, 2, count)
}
