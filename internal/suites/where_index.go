package suites

import (
	"github.com/born-ml/opcheck/internal/fixture"
	"github.com/born-ml/opcheck/internal/opcheck"
	"github.com/born-ml/opcheck/internal/tensor"
)

// WhereIndex checks where_index on boolean and numeric conditions of rank 1
// to 3, an all-false condition, and a condition fed into a program that
// declared its leading dimension as unknown.
func WhereIndex() ([]opcheck.Case, error) {
	var s suite

	add := func(name string, cond *tensor.RawTensor, err error, configure ...func(*opcheck.Case)) {
		if c := s.tensor(cond, err); s.err == nil {
			s.add(fixture.WhereIndex(name, c), configure...)
		}
	}

	cond, err := tensor.FromSlice([]bool{true, false, true}, tensor.Shape{3})
	add("where_index_bool", cond, err)

	cond, err = tensor.FromSlice([]int64{1, 0, 8}, tensor.Shape{3})
	add("where_index_not_bool", cond, err)

	cond, err = tensor.FromSlice([]bool{false, false, false}, tensor.Shape{3})
	add("where_index_all_false", cond, err)

	cond, err = tensor.FromSlice([]bool{true, false, false, true}, tensor.Shape{2, 2})
	add("where_index_rank2", cond, err)

	cond, err = tensor.FromSlice([]bool{
		true, false, false, true,
		false, true, true, false,
		false, false, false, true,
	}, tensor.Shape{3, 2, 2})
	add("where_index_rank3", cond, err)

	cond, err = tensor.FromSlice([]bool{true, false, false, false}, tensor.Shape{1, 4})
	if c := s.tensor(cond, err); s.err == nil {
		s.add(fixture.WhereIndex("where_index_dynamic", c).Declare("Condition", tensor.Shape{-1, 4}),
			onlyModes(opcheck.Graph))
	}
	return s.result()
}
