//go:build windows

package webgpu

import (
	"encoding/binary"
	"math"

	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

func requireFloat32(op string, ts ...*tensor.RawTensor) {
	for _, t := range ts {
		if t.DType() != tensor.Float32 {
			panic(errors.Wrapf(tensor.ErrUnsupported, "webgpu: %s: only float32 is supported, got %s", op, t.DType()))
		}
	}
}

func requireSameShape(op string, a *tensor.RawTensor, others ...*tensor.RawTensor) {
	for _, o := range others {
		if !a.Shape().Equal(o.Shape()) {
			exceptions.Panicf("webgpu: %s: shape mismatch: %s vs %s", op, a.Shape(), o.Shape())
		}
	}
}

func sizeParams(n int, extra ...float32) []byte {
	params := make([]byte, 4+4*len(extra))
	//nolint:gosec // G115: element counts are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	for i, v := range extra {
		binary.LittleEndian.PutUint32(params[4+4*i:], math.Float32bits(v))
	}
	return params
}

// axisParams views shape as [outer, dim, inner] around axis.
func axisParams(shape tensor.Shape, axis int) (rows int, params []byte) {
	inner := 1
	for _, d := range shape[axis+1:] {
		inner *= d
	}
	dim := shape[axis]
	rows = shape.NumElements() / dim
	params = make([]byte, 12)
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(rows))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(dim))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(inner))
	return rows, params
}

func (b *Backend) run(name, code string, like *tensor.RawTensor, inputs []*tensor.RawTensor, numOutputs int, params []byte, invocations int) []*tensor.RawTensor {
	outs := make([]*tensor.RawTensor, numOutputs)
	if like.NumElements() == 0 {
		for i := range outs {
			outs[i] = tensor.MustNewRaw(like.Shape(), like.DType())
		}
		return outs
	}

	data := make([][]byte, len(inputs))
	for i, in := range inputs {
		data[i] = in.Data()
	}
	//nolint:gosec // G115: ByteSize is non-negative
	results, err := b.dispatch(name, code, data, numOutputs, uint64(like.ByteSize()), params, invocations)
	if err != nil {
		panic(err)
	}
	for i, r := range results {
		outs[i] = tensor.MustNewRaw(like.Shape(), like.DType())
		copy(outs[i].Data(), r)
	}
	return outs
}

// ReLU applies max(0, x) element-wise.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32("relu", x)
	n := x.NumElements()
	return b.run("relu", reluShader, x, []*tensor.RawTensor{x}, 1, sizeParams(n), n)[0]
}

// ReLUGrad masks outGrad where the forward output is not positive.
func (b *Backend) ReLUGrad(out, outGrad *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32("relu_grad", out, outGrad)
	requireSameShape("relu_grad", out, outGrad)
	n := out.NumElements()
	return b.run("relu_grad", reluGradShader, out, []*tensor.RawTensor{out, outGrad}, 1, sizeParams(n), n)[0]
}

func normalizeDim(op string, shape tensor.Shape, dim int) int {
	axis, err := shape.NormalizeAxis(dim)
	if err != nil {
		panic(errors.Wrapf(err, "webgpu: %s", op))
	}
	return axis
}

// Softmax computes softmax along dim.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	requireFloat32("softmax", x)
	axis := normalizeDim("softmax", x.Shape(), dim)
	if x.NumElements() == 0 {
		return tensor.MustNewRaw(x.Shape(), x.DType())
	}
	rows, params := axisParams(x.Shape(), axis)
	return b.run("softmax", softmaxShader, x, []*tensor.RawTensor{x}, 1, params, rows)[0]
}

// SoftmaxGrad computes out * (outGrad - sum(out * outGrad)) along dim.
func (b *Backend) SoftmaxGrad(out, outGrad *tensor.RawTensor, dim int) *tensor.RawTensor {
	requireFloat32("softmax_grad", out, outGrad)
	requireSameShape("softmax_grad", out, outGrad)
	axis := normalizeDim("softmax_grad", out.Shape(), dim)
	if out.NumElements() == 0 {
		return tensor.MustNewRaw(out.Shape(), out.DType())
	}
	rows, params := axisParams(out.Shape(), axis)
	return b.run("softmax_grad", softmaxGradShader, out, []*tensor.RawTensor{out, outGrad}, 1, params, rows)[0]
}

// Adam performs one fused Adam step. The bias correction is folded into the
// learning rate on the host; the power accumulators advance on the device.
func (b *Backend) Adam(args tensor.AdamArgs) tensor.AdamResult {
	requireFloat32("adam", args.Param, args.Grad, args.Moment1, args.Moment2, args.Beta1Pow, args.Beta2Pow)
	requireSameShape("adam", args.Param, args.Grad, args.Moment1, args.Moment2)
	if args.SkipUpdate {
		return tensor.AdamResult{
			Param:    args.Param.Clone(),
			Moment1:  args.Moment1.Clone(),
			Moment2:  args.Moment2.Clone(),
			Beta1Pow: args.Beta1Pow.Clone(),
			Beta2Pow: args.Beta2Pow.Clone(),
		}
	}

	beta1Pow, err := tensor.ScalarValue(args.Beta1Pow)
	if err != nil {
		panic(errors.Wrap(err, "webgpu: adam: Beta1Pow"))
	}
	beta2Pow, err := tensor.ScalarValue(args.Beta2Pow)
	if err != nil {
		panic(errors.Wrap(err, "webgpu: adam: Beta2Pow"))
	}
	if beta1Pow == 1 {
		exceptions.Panicf("webgpu: adam: beta1_pow must not be 1")
	}
	lrT := args.LearningRate * math.Sqrt(1-beta2Pow) / (1 - beta1Pow)

	n := args.Param.NumElements()
	params := sizeParams(n, float32(args.Beta1), float32(args.Beta2), float32(args.Epsilon), float32(lrT))
	outs := b.run("adam", adamShader, args.Param,
		[]*tensor.RawTensor{args.Param, args.Grad, args.Moment1, args.Moment2}, 3, params, n)
	res := tensor.AdamResult{Param: outs[0], Moment1: outs[1], Moment2: outs[2]}
	if args.UseGlobalBetaPow {
		res.Beta1Pow = tensor.Empty(args.Beta1Pow.DType())
		res.Beta2Pow = tensor.Empty(args.Beta2Pow.DType())
		return res
	}
	res.Beta1Pow = b.scale("adam_beta1_pow", args.Beta1Pow, args.Beta1)
	res.Beta2Pow = b.scale("adam_beta2_pow", args.Beta2Pow, args.Beta2)
	return res
}

func (b *Backend) scale(name string, x *tensor.RawTensor, factor float64) *tensor.RawTensor {
	n := x.NumElements()
	return b.run(name, scaleShader, x, []*tensor.RawTensor{x}, 1, sizeParams(n, float32(factor)), n)[0]
}

// WhereIndex has no GPU kernel: its output size depends on the data.
func (b *Backend) WhereIndex(condition *tensor.RawTensor) *tensor.RawTensor {
	panic(errors.Wrapf(tensor.ErrUnsupported, "webgpu: where_index: %s", condition))
}

// Cast only supports the identity conversion.
func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() != dtype {
		panic(errors.Wrapf(tensor.ErrUnsupported, "webgpu: cast %s to %s", x.DType(), dtype))
	}
	return x
}
