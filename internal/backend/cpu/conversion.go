package cpu

import (
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// Cast converts the tensor to a different data type.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	// No-op if same dtype
	if x.DType() == dtype {
		return x
	}

	result := newResult("cast", x.Shape(), dtype)
	switch {
	case x.DType() == tensor.Float32 && dtype == tensor.Float64:
		dst := result.AsFloat64()
		for i, v := range x.AsFloat32() {
			dst[i] = float64(v)
		}
	case x.DType() == tensor.Float64 && dtype == tensor.Float32:
		dst := result.AsFloat32()
		for i, v := range x.AsFloat64() {
			dst[i] = float32(v)
		}
	case x.DType() == tensor.Float32 && dtype == tensor.Float16:
		narrow16(result.AsFloat16(), x.AsFloat32())
	case x.DType() == tensor.Float16 && dtype == tensor.Float32:
		copy(result.AsFloat32(), widen16(x.AsFloat16()))
	default:
		// Remaining pairs go through float64.
		result.SetFloat64s(x.Float64s())
	}
	return result
}

func panicUnsupportedDType(op string, dtype tensor.DataType) {
	panic(errors.Wrapf(tensor.ErrUnsupported, "cpu: %s: dtype %s", op, dtype))
}
