package reference

import (
	"math"

	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// SoftmaxClip is the lower bound applied to max-shifted logits before
// exponentiation.
const SoftmaxClip = -64.0

// Softmax computes a numerically stable softmax of x along axis. Negative
// axes count from the last dimension.
func Softmax(x *tensor.RawTensor, axis int) (*tensor.RawTensor, error) {
	return SoftmaxAs(x, axis, x.DType())
}

// SoftmaxAs casts x to dtype and computes its softmax along axis.
func SoftmaxAs(x *tensor.RawTensor, axis int, dtype tensor.DataType) (*tensor.RawTensor, error) {
	if !dtype.IsFloat() {
		return nil, errors.Errorf("softmax: output dtype %s is not a float type", dtype)
	}
	shape := x.Shape()
	dim, err := shape.NormalizeAxis(axis)
	if err != nil {
		return nil, errors.Wrap(err, "softmax")
	}

	values := castValues(x.Float64s(), dtype)
	out := make([]float64, len(values))
	if len(values) > 0 {
		stride := shape.ComputeStrides()[dim]
		size := shape[dim]
		for base := range sliceBases(shape, dim) {
			stableSoftmax(values, out, base, stride, size)
		}
	}
	return tensor.FromFloat64s(out, shape, dtype)
}

func stableSoftmax(in, out []float64, base, stride, size int) {
	maxVal := math.Inf(-1)
	for i := 0; i < size; i++ {
		maxVal = math.Max(maxVal, in[base+i*stride])
	}
	sum := 0.0
	for i := 0; i < size; i++ {
		shifted := math.Max(in[base+i*stride]-maxVal, SoftmaxClip)
		e := math.Exp(shifted)
		out[base+i*stride] = e
		sum += e
	}
	for i := 0; i < size; i++ {
		out[base+i*stride] /= sum
	}
}

// sliceBases yields the flat offset of the first element of every 1-D slice
// of shape along dim.
func sliceBases(shape tensor.Shape, dim int) func(yield func(int) bool) {
	return func(yield func(int) bool) {
		strides := shape.ComputeStrides()
		for flat := 0; flat < shape.NumElements(); flat++ {
			if (flat/strides[dim])%shape[dim] != 0 {
				continue
			}
			if !yield(flat) {
				return
			}
		}
	}
}

// castValues rounds values to the precision of dtype.
func castValues(values []float64, dtype tensor.DataType) []float64 {
	t, err := tensor.FromFloat64s(values, tensor.Shape{len(values)}, dtype)
	if err != nil {
		panic(err)
	}
	return t.Float64s()
}
