package cpu

import (
	"math"

	"github.com/born-ml/opcheck/internal/parallel"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Adam performs one Adam step with bias correction folded into the learning
// rate:
//
//	m1'  = beta1 * m1 + (1-beta1) * g
//	m2'  = beta2 * m2 + (1-beta2) * g²
//	lr_t = lr * sqrt(1 - beta2^t) / (1 - beta1^t)
//	p'   = p - lr_t * m1' / (sqrt(m2') + eps)
//
// The power accumulators advance by one factor of their beta unless
// UseGlobalBetaPow is set. SkipUpdate returns copies of every input.
func (cpu *CPUBackend) Adam(args tensor.AdamArgs) tensor.AdamResult {
	for _, t := range []*tensor.RawTensor{args.Grad, args.Moment1, args.Moment2} {
		checkSameLayout("adam", args.Param, t)
	}
	beta1Pow, beta2Pow := adamPow("Beta1Pow", args.Beta1Pow), adamPow("Beta2Pow", args.Beta2Pow)

	if args.SkipUpdate {
		return tensor.AdamResult{
			Param:    args.Param.Clone(),
			Moment1:  args.Moment1.Clone(),
			Moment2:  args.Moment2.Clone(),
			Beta1Pow: args.Beta1Pow.Clone(),
			Beta2Pow: args.Beta2Pow.Clone(),
		}
	}

	result := tensor.AdamResult{
		Param:   newResult("adam", args.Param.Shape(), args.Param.DType()),
		Moment1: newResult("adam", args.Param.Shape(), args.Param.DType()),
		Moment2: newResult("adam", args.Param.Shape(), args.Param.DType()),
	}
	if args.UseGlobalBetaPow {
		result.Beta1Pow = tensor.Empty(args.Beta1Pow.DType())
		result.Beta2Pow = tensor.Empty(args.Beta2Pow.DType())
	} else {
		result.Beta1Pow = scalePow(args.Beta1Pow, args.Beta1)
		result.Beta2Pow = scalePow(args.Beta2Pow, args.Beta2)
	}

	if beta1Pow == 1 {
		exceptions.Panicf("adam: beta1 power accumulator is 1, bias correction would divide by zero")
	}
	lrT := args.LearningRate * math.Sqrt(1-beta2Pow) / (1 - beta1Pow)

	switch args.Param.DType() {
	case tensor.Float32:
		adamUpdate(
			result.Param.AsFloat32(), result.Moment1.AsFloat32(), result.Moment2.AsFloat32(),
			args.Param.AsFloat32(), args.Grad.AsFloat32(), args.Moment1.AsFloat32(), args.Moment2.AsFloat32(),
			args, lrT, cpu.par,
		)
	case tensor.Float64:
		adamUpdate(
			result.Param.AsFloat64(), result.Moment1.AsFloat64(), result.Moment2.AsFloat64(),
			args.Param.AsFloat64(), args.Grad.AsFloat64(), args.Moment1.AsFloat64(), args.Moment2.AsFloat64(),
			args, lrT, cpu.par,
		)
	default:
		panicUnsupportedDType("adam", args.Param.DType())
	}

	return result
}

func adamUpdate[T float32 | float64](paramOut, m1Out, m2Out, param, grad, m1, m2 []T, args tensor.AdamArgs, lr float64, par parallel.Config) {
	beta1 := T(args.Beta1)
	beta2 := T(args.Beta2)
	eps := T(args.Epsilon)
	lrT := T(lr)

	parallel.ForChunks(len(param), func(start, end int) {
		for i := start; i < end; i++ {
			g := grad[i]
			m1Out[i] = beta1*m1[i] + (1-beta1)*g
			m2Out[i] = beta2*m2[i] + (1-beta2)*g*g
			paramOut[i] = param[i] - lrT*(m1Out[i]/(T(math.Sqrt(float64(m2Out[i])))+eps))
		}
	}, par)
}

// adamPow reads a one-element power accumulator.
func adamPow(name string, pow *tensor.RawTensor) float64 {
	if pow == nil {
		exceptions.Panicf("adam: missing %s accumulator", name)
	}
	if !pow.DType().IsFloat() {
		panic(errors.Wrapf(tensor.ErrUnsupported, "adam: %s dtype %s is not a float type", name, pow.DType()))
	}
	v, err := tensor.ScalarValue(pow)
	if err != nil {
		panic(errors.Wrapf(err, "adam: %s", name))
	}
	return v
}

// scalePow advances a power accumulator by one factor of beta.
func scalePow(pow *tensor.RawTensor, beta float64) *tensor.RawTensor {
	values := pow.Float64s()
	for i := range values {
		values[i] *= beta
	}
	out := pow.Clone()
	out.SetFloat64s(values)
	return out
}
