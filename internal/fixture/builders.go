package fixture

import (
	"github.com/born-ml/opcheck/internal/ops"
	"github.com/born-ml/opcheck/internal/reference"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// Softmax returns a builder for softmax of x along axis with the expected
// output already set.
func Softmax(name string, x *tensor.RawTensor, axis int) *Builder {
	b := New(name, "softmax").Input("X", x).Attr("axis", axis)
	out, err := reference.Softmax(x, axis)
	if err != nil {
		return b.fail(errors.Wrapf(err, "fixture %s", name))
	}
	return b.Expect("Out", out)
}

// SoftmaxAs is Softmax with the dtype attribute set.
func SoftmaxAs(name string, x *tensor.RawTensor, axis int, dtype tensor.DataType) *Builder {
	b := New(name, "softmax").Input("X", x).Attr("axis", axis).Attr("dtype", dtype)
	out, err := reference.SoftmaxAs(x, axis, dtype)
	if err != nil {
		return b.fail(errors.Wrapf(err, "fixture %s", name))
	}
	return b.Expect("Out", out)
}

// Relu returns a builder for relu of x.
func Relu(name string, x *tensor.RawTensor) *Builder {
	b := New(name, "relu").Input("X", x)
	out, err := reference.Relu(x)
	if err != nil {
		return b.fail(errors.Wrapf(err, "fixture %s", name))
	}
	return b.Expect("Out", out)
}

// WhereIndex returns a builder for where_index of condition.
func WhereIndex(name string, condition *tensor.RawTensor) *Builder {
	b := New(name, "where_index").Input("Condition", condition)
	out, err := reference.WhereIndex(condition)
	if err != nil {
		return b.fail(errors.Wrapf(err, "fixture %s", name))
	}
	return b.Expect("Out", out)
}

// Adam returns a builder for one adam step. Only the attributes present in
// attrs are passed to the operator; the reference uses the operator
// defaults for the others.
func Adam(name string, in reference.AdamInputs, attrs ops.Attrs) *Builder {
	b := New(name, "adam")
	for slot, t := range map[string]*tensor.RawTensor{
		"Param":         in.Param,
		"Grad":          in.Grad,
		"Moment1":       in.Moment1,
		"Moment2":       in.Moment2,
		"LearningRate":  in.LearningRate,
		"Beta1Pow":      in.Beta1Pow,
		"Beta2Pow":      in.Beta2Pow,
		"Beta1Tensor":   in.Beta1Tensor,
		"Beta2Tensor":   in.Beta2Tensor,
		"EpsilonTensor": in.EpsilonTensor,
		"SkipUpdate":    in.SkipUpdate,
	} {
		if t != nil {
			b.Input(slot, t)
		}
	}
	for k, v := range attrs {
		b.Attr(k, v)
	}

	refAttrs, err := adamAttrs(attrs)
	if err != nil {
		return b.fail(errors.Wrapf(err, "fixture %s", name))
	}
	out, err := reference.AdamStep(in, refAttrs)
	if err != nil {
		return b.fail(errors.Wrapf(err, "fixture %s", name))
	}
	return b.Expect("ParamOut", out.ParamOut).
		Expect("Moment1Out", out.Moment1Out).
		Expect("Moment2Out", out.Moment2Out).
		Expect("Beta1PowOut", out.Beta1PowOut).
		Expect("Beta2PowOut", out.Beta2PowOut)
}

func adamAttrs(attrs ops.Attrs) (reference.AdamAttrs, error) {
	var (
		a   reference.AdamAttrs
		err error
	)
	if a.Beta1, err = attrs.Float("beta1", ops.DefaultBeta1); err != nil {
		return a, err
	}
	if a.Beta2, err = attrs.Float("beta2", ops.DefaultBeta2); err != nil {
		return a, err
	}
	if a.Epsilon, err = attrs.Float("epsilon", ops.DefaultEpsilon); err != nil {
		return a, err
	}
	a.UseGlobalBetaPow, err = attrs.Bool("use_global_beta_pow", false)
	return a, err
}
