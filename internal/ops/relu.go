package ops

import (
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// reluOp represents a ReLU activation: Out = max(0, X).
//
// Backward pass:
//   - dX = dOut where Out > 0, else 0
type reluOp struct{}

func (reluOp) Type() string { return "relu" }

func (reluOp) Inputs() []Slot { return []Slot{{Name: "X"}} }

func (reluOp) Outputs() []string { return []string{"Out"} }

func (reluOp) GradInputs() []string { return []string{"X"} }

func (reluOp) InferMeta(in map[string]Meta, _ Attrs) (map[string]Meta, error) {
	x := in["X"]
	if x.DType == tensor.Bool {
		return nil, errors.Wrapf(ErrUnsupported, "dtype %s", x.DType)
	}
	return map[string]Meta{"Out": {Shape: x.Shape.Clone(), DType: x.DType}}, nil
}

func (reluOp) Forward(b tensor.Backend, in Values, _ Attrs) Values {
	return Values{"Out": b.ReLU(in["X"])}
}

func (reluOp) Backward(b tensor.Backend, _, out, outGrad Values, _ Attrs) Values {
	return Values{"X": b.ReLUGrad(out["Out"], outGrad["Out"])}
}
