package ops

import (
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// Adam attribute defaults.
const (
	DefaultBeta1   = 0.9
	DefaultBeta2   = 0.999
	DefaultEpsilon = 1e-8
)

// adamOp performs one fused Adam step. The scalar inputs LearningRate,
// Beta1Pow and Beta2Pow are one-element tensors. Beta1Tensor, Beta2Tensor
// and EpsilonTensor override the beta1, beta2 and epsilon attributes.
//
// A true SkipUpdate copies every input to its output. With the
// use_global_beta_pow attribute the power accumulators are maintained by
// the caller and Beta1PowOut and Beta2PowOut are empty.
type adamOp struct{}

func (adamOp) Type() string { return "adam" }

func (adamOp) Inputs() []Slot {
	return []Slot{
		{Name: "Param"},
		{Name: "Grad"},
		{Name: "Moment1"},
		{Name: "Moment2"},
		{Name: "LearningRate"},
		{Name: "Beta1Pow"},
		{Name: "Beta2Pow"},
		{Name: "Beta1Tensor", Optional: true},
		{Name: "Beta2Tensor", Optional: true},
		{Name: "EpsilonTensor", Optional: true},
		{Name: "SkipUpdate", Optional: true},
	}
}

func (adamOp) Outputs() []string {
	return []string{"ParamOut", "Moment1Out", "Moment2Out", "Beta1PowOut", "Beta2PowOut"}
}

func (adamOp) InferMeta(in map[string]Meta, attrs Attrs) (map[string]Meta, error) {
	param := in["Param"]
	for _, name := range []string{"Grad", "Moment1", "Moment2"} {
		m := in[name]
		if !param.Shape.Matches(m.Shape) && !m.Shape.Matches(param.Shape) {
			return nil, errors.Errorf("%s shape %s does not match Param shape %s", name, m.Shape, param.Shape)
		}
		if m.DType != param.DType {
			return nil, errors.Errorf("%s dtype %s does not match Param dtype %s", name, m.DType, param.DType)
		}
	}
	global, err := attrs.Bool("use_global_beta_pow", false)
	if err != nil {
		return nil, err
	}

	out := map[string]Meta{
		"ParamOut":    {Shape: param.Shape.Clone(), DType: param.DType},
		"Moment1Out":  {Shape: param.Shape.Clone(), DType: param.DType},
		"Moment2Out":  {Shape: param.Shape.Clone(), DType: param.DType},
		"Beta1PowOut": {Shape: in["Beta1Pow"].Shape.Clone(), DType: in["Beta1Pow"].DType},
		"Beta2PowOut": {Shape: in["Beta2Pow"].Shape.Clone(), DType: in["Beta2Pow"].DType},
	}
	if global {
		out["Beta1PowOut"] = Meta{Shape: tensor.Shape{0}, DType: in["Beta1Pow"].DType}
		out["Beta2PowOut"] = Meta{Shape: tensor.Shape{0}, DType: in["Beta2Pow"].DType}
	}
	return out, nil
}

type adamScalars struct {
	lr, beta1, beta2, epsilon float64
	skip                      bool
}

func scalarInput(in Values, name string, dst *float64) {
	t := in[name]
	if t == nil {
		return
	}
	v, err := tensor.ScalarValue(t)
	if err != nil {
		panic(errors.Wrapf(err, "adam: input %s", name))
	}
	*dst = v
}

func resolveAdam(in Values, attrs Attrs) adamScalars {
	s := adamScalars{
		beta1:   mustAttr(attrs.Float("beta1", DefaultBeta1)),
		beta2:   mustAttr(attrs.Float("beta2", DefaultBeta2)),
		epsilon: mustAttr(attrs.Float("epsilon", DefaultEpsilon)),
	}
	scalarInput(in, "LearningRate", &s.lr)
	scalarInput(in, "Beta1Tensor", &s.beta1)
	scalarInput(in, "Beta2Tensor", &s.beta2)
	scalarInput(in, "EpsilonTensor", &s.epsilon)

	var skip float64
	scalarInput(in, "SkipUpdate", &skip)
	s.skip = skip != 0
	return s
}

func (adamOp) Forward(b tensor.Backend, in Values, attrs Attrs) Values {
	s := resolveAdam(in, attrs)
	res := b.Adam(tensor.AdamArgs{
		Param:            in["Param"],
		Grad:             in["Grad"],
		Moment1:          in["Moment1"],
		Moment2:          in["Moment2"],
		Beta1Pow:         in["Beta1Pow"],
		Beta2Pow:         in["Beta2Pow"],
		LearningRate:     s.lr,
		Beta1:            s.beta1,
		Beta2:            s.beta2,
		Epsilon:          s.epsilon,
		SkipUpdate:       s.skip,
		UseGlobalBetaPow: mustAttr(attrs.Bool("use_global_beta_pow", false)),
	})
	return Values{
		"ParamOut":    res.Param,
		"Moment1Out":  res.Moment1,
		"Moment2Out":  res.Moment2,
		"Beta1PowOut": res.Beta1Pow,
		"Beta2PowOut": res.Beta2Pow,
	}
}
