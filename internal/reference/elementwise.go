package reference

import (
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// Relu computes max(x, 0) element-wise in the dtype of x.
func Relu(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if x.DType() == tensor.Bool {
		return nil, errors.Errorf("relu: unsupported dtype %s", x.DType())
	}
	values := x.Float64s()
	for i, v := range values {
		if v < 0 {
			values[i] = 0
		}
	}
	return tensor.FromFloat64s(values, x.Shape(), x.DType())
}

// WhereIndex returns the row-major coordinates of the non-zero elements of
// condition as an int64 tensor of shape [numTrue, rank].
func WhereIndex(condition *tensor.RawTensor) (*tensor.RawTensor, error) {
	shape := condition.Shape()
	var coords []int64
	numTrue := 0
	for flat, v := range condition.Float64s() {
		if v == 0 {
			continue
		}
		numTrue++
		for _, c := range shape.Unravel(flat) {
			coords = append(coords, int64(c))
		}
	}
	if numTrue == 0 {
		return tensor.Empty(tensor.Int64, 0, shape.Rank()), nil
	}
	return tensor.FromSlice(coords, tensor.Shape{numTrue, shape.Rank()})
}
