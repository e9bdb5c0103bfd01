package tensor

import (
	"unsafe"

	"github.com/pkg/errors"
)

// FromSlice creates a tensor holding a copy of data with the given shape.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	if len(data) != shape.NumElements() {
		return nil, errors.Errorf("data length %d does not match shape %s (%d elements)",
			len(data), shape, shape.NumElements())
	}

	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy))
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		//nolint:gosec // unsafe.Slice for a byte view of the typed source slice
		src := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(raw.data))
		copy(raw.data, src)
	}
	return raw, nil
}

// Scalar creates a one-element tensor of shape [1], the layout used for
// learning rates and power accumulators.
func Scalar[T DType](v T) *RawTensor {
	raw, err := FromSlice([]T{v}, Shape{1})
	if err != nil {
		panic(err)
	}
	return raw
}

// Empty creates a tensor with zero elements of the given shape (at least one
// dimension must be 0). With no shape it returns a rank-1 tensor of size 0.
func Empty(dtype DataType, shape ...int) *RawTensor {
	if len(shape) == 0 {
		shape = []int{0}
	}
	return MustNewRaw(Shape(shape), dtype)
}

// FromFloat64s creates a tensor of dtype from float64 values.
func FromFloat64s(values []float64, shape Shape, dtype DataType) (*RawTensor, error) {
	if len(values) != shape.NumElements() {
		return nil, errors.Errorf("data length %d does not match shape %s (%d elements)",
			len(values), shape, shape.NumElements())
	}
	raw, err := NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	raw.SetFloat64s(values)
	return raw, nil
}

// ScalarValue returns the first element of t widened to float64.
func ScalarValue(t *RawTensor) (float64, error) {
	if t == nil || t.NumElements() == 0 {
		return 0, errors.New("expected a non-empty scalar tensor")
	}
	return t.Float64s()[0], nil
}
