package cpu

import (
	"github.com/born-ml/opcheck/internal/tensor"
)

// WhereIndex returns the coordinates of every non-zero element of condition
// as an int64 tensor of shape [numTrue, rank], in row-major order.
func (cpu *CPUBackend) WhereIndex(condition *tensor.RawTensor) *tensor.RawTensor {
	shape := condition.Shape()
	rank := len(shape)

	var hits []int
	switch condition.DType() {
	case tensor.Bool:
		for i, v := range condition.AsBool() {
			if v {
				hits = append(hits, i)
			}
		}
	default:
		// Any numeric dtype: non-zero counts as true.
		for i, v := range condition.Float64s() {
			if v != 0 {
				hits = append(hits, i)
			}
		}
	}

	result := newResult("where_index", tensor.Shape{len(hits), rank}, tensor.Int64)
	dst := result.AsInt64()
	for row, flat := range hits {
		for d, c := range shape.Unravel(flat) {
			dst[row*rank+d] = int64(c)
		}
	}
	return result
}
