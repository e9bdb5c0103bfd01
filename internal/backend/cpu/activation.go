package cpu

import (
	"math"

	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/gomlx/exceptions"
	"github.com/x448/float16"
)

// Softmax computes softmax along the specified dimension.
// Softmax(x_i) = exp(x_i - max(x)) / sum(exp(x_j - max(x))) for all j in dimension.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	dim = normalizeDim("softmax", x.Shape(), dim)
	result := newResult("softmax", x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		softmax(result.AsFloat32(), x.AsFloat32(), x.Shape(), dim)
	case tensor.Float64:
		softmax(result.AsFloat64(), x.AsFloat64(), x.Shape(), dim)
	case tensor.Float16:
		dst := make([]float32, x.NumElements())
		softmax(dst, widen16(x.AsFloat16()), x.Shape(), dim)
		narrow16(result.AsFloat16(), dst)
	default:
		panicUnsupportedDType("softmax", x.DType())
	}

	return result
}

func softmax[T float32 | float64](dst, src []T, shape tensor.Shape, dim int) {
	forEachSlice(shape, dim, func(base, stride, size int) {
		// Find max for numerical stability
		maxVal := T(math.Inf(-1))
		for i := 0; i < size; i++ {
			if v := src[base+i*stride]; v > maxVal {
				maxVal = v
			}
		}

		var sum T
		for i := 0; i < size; i++ {
			idx := base + i*stride
			e := T(math.Exp(float64(src[idx] - maxVal)))
			dst[idx] = e
			sum += e
		}

		for i := 0; i < size; i++ {
			dst[base+i*stride] /= sum
		}
	})
}

// SoftmaxGrad computes the input gradient of softmax from its output y:
//
//	dx = y * (dy - sum(dy * y))
//
// with the sum taken along dim.
func (cpu *CPUBackend) SoftmaxGrad(out, outGrad *tensor.RawTensor, dim int) *tensor.RawTensor {
	checkSameLayout("softmax_grad", out, outGrad)
	dim = normalizeDim("softmax_grad", out.Shape(), dim)
	result := newResult("softmax_grad", out.Shape(), out.DType())

	switch out.DType() {
	case tensor.Float32:
		softmaxGrad(result.AsFloat32(), out.AsFloat32(), outGrad.AsFloat32(), out.Shape(), dim)
	case tensor.Float64:
		softmaxGrad(result.AsFloat64(), out.AsFloat64(), outGrad.AsFloat64(), out.Shape(), dim)
	case tensor.Float16:
		dst := make([]float32, out.NumElements())
		softmaxGrad(dst, widen16(out.AsFloat16()), widen16(outGrad.AsFloat16()), out.Shape(), dim)
		narrow16(result.AsFloat16(), dst)
	default:
		panicUnsupportedDType("softmax_grad", out.DType())
	}

	return result
}

func softmaxGrad[T float32 | float64](dst, y, dy []T, shape tensor.Shape, dim int) {
	forEachSlice(shape, dim, func(base, stride, size int) {
		var dot T
		for i := 0; i < size; i++ {
			idx := base + i*stride
			dot += dy[idx] * y[idx]
		}
		for i := 0; i < size; i++ {
			idx := base + i*stride
			dst[idx] = y[idx] * (dy[idx] - dot)
		}
	})
}

// ReLU applies max(x, 0) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := newResult("relu", x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		relu(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		relu(result.AsFloat64(), x.AsFloat64())
	case tensor.Int32:
		relu(result.AsInt32(), x.AsInt32())
	case tensor.Int64:
		relu(result.AsInt64(), x.AsInt64())
	case tensor.Float16:
		dst := result.AsFloat16()
		for i, v := range x.AsFloat16() {
			if v.Float32() > 0 {
				dst[i] = v
			}
		}
	default:
		panicUnsupportedDType("relu", x.DType())
	}

	return result
}

func relu[T float32 | float64 | int32 | int64](dst, src []T) {
	for i, v := range src {
		if v > 0 {
			dst[i] = v
		}
	}
}

// ReLUGrad passes the output gradient through where the forward output is
// positive.
func (cpu *CPUBackend) ReLUGrad(out, outGrad *tensor.RawTensor) *tensor.RawTensor {
	checkSameLayout("relu_grad", out, outGrad)
	result := newResult("relu_grad", out.Shape(), out.DType())

	switch out.DType() {
	case tensor.Float32:
		reluGrad(result.AsFloat32(), out.AsFloat32(), outGrad.AsFloat32())
	case tensor.Float64:
		reluGrad(result.AsFloat64(), out.AsFloat64(), outGrad.AsFloat64())
	case tensor.Float16:
		dst := result.AsFloat16()
		dy := outGrad.AsFloat16()
		for i, v := range out.AsFloat16() {
			if v.Float32() > 0 {
				dst[i] = dy[i]
			}
		}
	default:
		panicUnsupportedDType("relu_grad", out.DType())
	}

	return result
}

func reluGrad[T float32 | float64](dst, y, dy []T) {
	for i, v := range y {
		if v > 0 {
			dst[i] = dy[i]
		}
	}
}

func normalizeDim(op string, shape tensor.Shape, dim int) int {
	d, err := shape.NormalizeAxis(dim)
	if err != nil {
		exceptions.Panicf("%s: %v", op, err)
	}
	return d
}

func checkSameLayout(op string, a, b *tensor.RawTensor) {
	if !a.Shape().Equal(b.Shape()) || a.DType() != b.DType() {
		exceptions.Panicf("%s: layout mismatch: %s vs %s", op, a, b)
	}
}

func widen16(src []float16.Float16) []float32 {
	dst := make([]float32, len(src))
	for i, v := range src {
		dst[i] = v.Float32()
	}
	return dst
}

func narrow16(dst []float16.Float16, src []float32) {
	for i, v := range src {
		dst[i] = float16.Fromfloat32(v)
	}
}
