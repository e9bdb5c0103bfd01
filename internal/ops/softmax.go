package ops

import (
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// softmaxOp normalizes exponentials along one axis:
//
//	Out_i = exp(X_i - max(X)) / Σ_j exp(X_j - max(X))
//
// With the dtype attribute set, X is cast before the softmax.
//
// Backward:
//
//	dX_j = Out_j * (dOut_j - Σ_i dOut_i * Out_i)
type softmaxOp struct{}

func (softmaxOp) Type() string { return "softmax" }

func (softmaxOp) Inputs() []Slot { return []Slot{{Name: "X"}} }

func (softmaxOp) Outputs() []string { return []string{"Out"} }

func (softmaxOp) GradInputs() []string { return []string{"X"} }

func (softmaxOp) InferMeta(in map[string]Meta, attrs Attrs) (map[string]Meta, error) {
	x := in["X"]
	axis, err := attrs.Int("axis", -1)
	if err != nil {
		return nil, err
	}
	if _, err := x.Shape.NormalizeAxis(axis); err != nil {
		return nil, err
	}
	dtype := x.DType
	if dt, ok, err := attrs.DType("dtype"); err != nil {
		return nil, err
	} else if ok {
		dtype = dt
	}
	if !dtype.IsFloat() {
		return nil, errors.Wrapf(ErrUnsupported, "dtype %s", dtype)
	}
	return map[string]Meta{"Out": {Shape: x.Shape.Clone(), DType: dtype}}, nil
}

func (softmaxOp) Forward(b tensor.Backend, in Values, attrs Attrs) Values {
	axis := mustAttr(attrs.Int("axis", -1))
	x := in["X"]
	if dt, ok, err := attrs.DType("dtype"); err != nil {
		panic(err)
	} else if ok {
		x = b.Cast(x, dt)
	}
	return Values{"Out": b.Softmax(x, axis)}
}

func (softmaxOp) Backward(b tensor.Backend, in, out, outGrad Values, attrs Attrs) Values {
	axis := mustAttr(attrs.Int("axis", -1))
	dx := b.SoftmaxGrad(out["Out"], outGrad["Out"], axis)
	return Values{"X": b.Cast(dx, in["X"].DType())}
}
