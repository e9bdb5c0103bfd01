package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestShape_NumElements(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 120, Shape{2, 3, 4, 5}.NumElements())
	assert.Equal(t, 0, Shape{0, 3}.NumElements())
}

func TestShape_Validate(t *testing.T) {
	require.NoError(t, Shape{0, 2}.Validate())
	require.Error(t, Shape{-1, 2}.Validate())
}

func TestShape_Matches(t *testing.T) {
	declared := Shape{-1, 4}
	assert.True(t, declared.IsDynamic())
	assert.True(t, declared.Matches(Shape{1, 4}))
	assert.True(t, declared.Matches(Shape{7, 4}))
	assert.False(t, declared.Matches(Shape{1, 5}))
	assert.False(t, declared.Matches(Shape{4}))
}

func TestShape_NormalizeAxis(t *testing.T) {
	s := Shape{2, 3, 4, 5}
	for axis, want := range map[int]int{-1: 3, -4: 0, 0: 0, 3: 3} {
		got, err := s.NormalizeAxis(axis)
		require.NoError(t, err)
		assert.Equal(t, want, got, "axis %d", axis)
	}
	_, err := s.NormalizeAxis(4)
	require.Error(t, err)
	_, err = s.NormalizeAxis(-5)
	require.Error(t, err)
}

func TestShape_Unravel(t *testing.T) {
	s := Shape{3, 2, 2}
	assert.Equal(t, []int{0, 0, 0}, s.Unravel(0))
	assert.Equal(t, []int{1, 1, 0}, s.Unravel(6))
	assert.Equal(t, []int{2, 1, 1}, s.Unravel(11))
}

func TestFromSlice(t *testing.T) {
	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, Float32, x.DType())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, x.AsFloat32())
	assert.Equal(t, []int{3, 1}, x.Strides())

	_, err = FromSlice([]float32{1, 2}, Shape{3})
	require.Error(t, err)

	b, err := FromSlice([]bool{true, false, true}, Shape{3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 1}, b.Float64s())
}

func TestFloat16RoundTrip(t *testing.T) {
	x, err := FromSlice([]float16.Float16{float16.Fromfloat32(0.5), float16.Fromfloat32(-2)}, Shape{2})
	require.NoError(t, err)
	assert.Equal(t, Float16, x.DType())
	assert.Equal(t, 2, x.DType().Size())
	assert.Equal(t, []float64{0.5, -2}, x.Float64s())

	x.SetFloat64s([]float64{1.5, 3})
	assert.Equal(t, float32(1.5), x.AsFloat16()[0].Float32())
}

func TestEmpty(t *testing.T) {
	e := Empty(Int64, 0, 3)
	assert.Equal(t, Shape{0, 3}, e.Shape())
	assert.Equal(t, 0, e.NumElements())
	assert.Nil(t, e.AsInt64())
	assert.Empty(t, e.Float64s())

	assert.Equal(t, Shape{0}, Empty(Float32).Shape())
}

func TestClone_IsDeep(t *testing.T) {
	x, err := FromSlice([]float64{1, 2}, Shape{2})
	require.NoError(t, err)
	y := x.Clone()
	y.AsFloat64()[0] = 42
	assert.Equal(t, 1.0, x.AsFloat64()[0])
}

func TestReshape(t *testing.T) {
	x, err := FromSlice([]int64{1, 2, 3, 4}, Shape{4})
	require.NoError(t, err)
	y, err := x.Reshape(Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 2}, y.Shape())
	_, err = x.Reshape(Shape{3})
	require.Error(t, err)
}

func TestParseDataType(t *testing.T) {
	for name, want := range map[string]DataType{"float32": Float32, "fp16": Float16, "float64": Float64, "bool": Bool, "int64": Int64} {
		got, err := ParseDataType(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDataType("complex64")
	require.Error(t, err)
}

func TestScalarValue(t *testing.T) {
	v, err := ScalarValue(Scalar(float32(0.25)))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-9)
	_, err = ScalarValue(Empty(Float32))
	require.Error(t, err)
}
