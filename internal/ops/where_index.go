package ops

import (
	"github.com/born-ml/opcheck/internal/tensor"
)

// whereIndexOp returns the coordinates of the non-zero elements of
// Condition, one row per element in row-major order. The number of rows is
// only known after execution, so the static output shape is [-1, rank].
type whereIndexOp struct{}

func (whereIndexOp) Type() string { return "where_index" }

func (whereIndexOp) Inputs() []Slot { return []Slot{{Name: "Condition"}} }

func (whereIndexOp) Outputs() []string { return []string{"Out"} }

func (whereIndexOp) InferMeta(in map[string]Meta, _ Attrs) (map[string]Meta, error) {
	rank := in["Condition"].Shape.Rank()
	return map[string]Meta{"Out": {Shape: tensor.Shape{-1, rank}, DType: tensor.Int64}}, nil
}

func (whereIndexOp) Forward(b tensor.Backend, in Values, _ Attrs) Values {
	return Values{"Out": b.WhereIndex(in["Condition"])}
}
