package reference

import (
	"math"

	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// AdamInputs are the tensor inputs of one Adam step. LearningRate, Beta1Pow
// and Beta2Pow are one-element tensors. The optional tensors override the
// matching AdamAttrs fields when set.
type AdamInputs struct {
	Param        *tensor.RawTensor
	Grad         *tensor.RawTensor
	Moment1      *tensor.RawTensor
	Moment2      *tensor.RawTensor
	LearningRate *tensor.RawTensor
	Beta1Pow     *tensor.RawTensor
	Beta2Pow     *tensor.RawTensor

	Beta1Tensor   *tensor.RawTensor
	Beta2Tensor   *tensor.RawTensor
	EpsilonTensor *tensor.RawTensor
	SkipUpdate    *tensor.RawTensor
}

// AdamAttrs are the scalar attributes of the adam operator.
type AdamAttrs struct {
	Beta1            float64
	Beta2            float64
	Epsilon          float64
	UseGlobalBetaPow bool
}

// DefaultAdamAttrs returns the attribute defaults of the adam operator.
func DefaultAdamAttrs() AdamAttrs {
	return AdamAttrs{Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-8}
}

// AdamOutputs are the results of one Adam step.
type AdamOutputs struct {
	ParamOut    *tensor.RawTensor
	Moment1Out  *tensor.RawTensor
	Moment2Out  *tensor.RawTensor
	Beta1PowOut *tensor.RawTensor
	Beta2PowOut *tensor.RawTensor
}

// AdamHyper holds resolved hyper-parameters of one step.
type AdamHyper struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	Beta1Pow     float64
	Beta2Pow     float64
	Skip         bool
}

// ResolveAdam reads the scalar inputs and applies tensor overrides.
func ResolveAdam(in AdamInputs, attrs AdamAttrs) (AdamHyper, error) {
	h := AdamHyper{Beta1: attrs.Beta1, Beta2: attrs.Beta2, Epsilon: attrs.Epsilon}

	required := []struct {
		name string
		t    *tensor.RawTensor
		dst  *float64
	}{
		{"LearningRate", in.LearningRate, &h.LearningRate},
		{"Beta1Pow", in.Beta1Pow, &h.Beta1Pow},
		{"Beta2Pow", in.Beta2Pow, &h.Beta2Pow},
	}
	for _, r := range required {
		v, err := tensor.ScalarValue(r.t)
		if err != nil {
			return h, errors.Wrapf(err, "adam: input %s", r.name)
		}
		*r.dst = v
	}

	overrides := []struct {
		name string
		t    *tensor.RawTensor
		dst  *float64
	}{
		{"Beta1Tensor", in.Beta1Tensor, &h.Beta1},
		{"Beta2Tensor", in.Beta2Tensor, &h.Beta2},
		{"EpsilonTensor", in.EpsilonTensor, &h.Epsilon},
	}
	for _, o := range overrides {
		if o.t == nil {
			continue
		}
		v, err := tensor.ScalarValue(o.t)
		if err != nil {
			return h, errors.Wrapf(err, "adam: input %s", o.name)
		}
		*o.dst = v
	}

	if in.SkipUpdate != nil {
		v, err := tensor.ScalarValue(in.SkipUpdate)
		if err != nil {
			return h, errors.Wrap(err, "adam: input SkipUpdate")
		}
		h.Skip = v != 0
	}
	return h, nil
}

// AdamStep simulates one step of the Adam optimizer:
//
//	m1'  = beta1 * m1 + (1-beta1) * g
//	m2'  = beta2 * m2 + (1-beta2) * g²
//	lr_t = lr * sqrt(1 - beta2_pow) / (1 - beta1_pow)
//	p'   = p - lr_t * m1' / (sqrt(m2') + eps)
//
// The power accumulators advance by one factor of their beta. With
// SkipUpdate set every output is a copy of its input. With UseGlobalBetaPow
// the power outputs are empty.
func AdamStep(in AdamInputs, attrs AdamAttrs) (AdamOutputs, error) {
	for name, t := range map[string]*tensor.RawTensor{
		"Param": in.Param, "Grad": in.Grad, "Moment1": in.Moment1, "Moment2": in.Moment2,
	} {
		if t == nil {
			return AdamOutputs{}, errors.Errorf("adam: missing input %s", name)
		}
		if !t.Shape().Equal(in.Param.Shape()) {
			return AdamOutputs{}, errors.Errorf("adam: %s shape %s does not match Param shape %s",
				name, t.Shape(), in.Param.Shape())
		}
	}

	h, err := ResolveAdam(in, attrs)
	if err != nil {
		return AdamOutputs{}, err
	}

	if h.Skip {
		return AdamOutputs{
			ParamOut:    in.Param.Clone(),
			Moment1Out:  in.Moment1.Clone(),
			Moment2Out:  in.Moment2.Clone(),
			Beta1PowOut: in.Beta1Pow.Clone(),
			Beta2PowOut: in.Beta2Pow.Clone(),
		}, nil
	}
	if h.Beta1Pow == 1 {
		return AdamOutputs{}, errors.New("adam: Beta1Pow is 1, bias correction is undefined")
	}

	param, grad := in.Param.Float64s(), in.Grad.Float64s()
	m1, m2 := in.Moment1.Float64s(), in.Moment2.Float64s()
	lrT := h.LearningRate * math.Sqrt(1-h.Beta2Pow) / (1 - h.Beta1Pow)
	for i, g := range grad {
		m1[i] = h.Beta1*m1[i] + (1-h.Beta1)*g
		m2[i] = h.Beta2*m2[i] + (1-h.Beta2)*g*g
		param[i] -= lrT * (m1[i] / (math.Sqrt(m2[i]) + h.Epsilon))
	}

	shape, dtype := in.Param.Shape(), in.Param.DType()
	var out AdamOutputs
	if out.ParamOut, err = tensor.FromFloat64s(param, shape, dtype); err != nil {
		return out, err
	}
	if out.Moment1Out, err = tensor.FromFloat64s(m1, shape, in.Moment1.DType()); err != nil {
		return out, err
	}
	if out.Moment2Out, err = tensor.FromFloat64s(m2, shape, in.Moment2.DType()); err != nil {
		return out, err
	}

	if attrs.UseGlobalBetaPow {
		out.Beta1PowOut = tensor.Empty(in.Beta1Pow.DType())
		out.Beta2PowOut = tensor.Empty(in.Beta2Pow.DType())
		return out, nil
	}
	out.Beta1PowOut = scaled(in.Beta1Pow, h.Beta1)
	out.Beta2PowOut = scaled(in.Beta2Pow, h.Beta2)
	return out, nil
}

func scaled(t *tensor.RawTensor, factor float64) *tensor.RawTensor {
	values := t.Float64s()
	for i := range values {
		values[i] *= factor
	}
	out := t.Clone()
	out.SetFloat64s(values)
	return out
}
