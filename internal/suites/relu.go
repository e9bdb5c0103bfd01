package suites

import (
	"github.com/born-ml/opcheck/internal/fixture"
	"github.com/born-ml/opcheck/internal/opcheck"
	"github.com/born-ml/opcheck/internal/tensor"
)

// reluKink is the distance from zero inside which central differences
// straddle the ReLU kink.
const reluKink = 0.005

// Relu checks relu on float32 with a gradient check, on float16 without one,
// and on a hand-written input with negative values.
func Relu() ([]opcheck.Case, error) {
	var s suite

	x := s.tensor(fixture.NewGenerator(2021).Random(tensor.Shape{3, 2}, tensor.Float32))
	if s.err == nil {
		for i, v := range x.AsFloat32() {
			if v > -reluKink && v < reluKink {
				x.AsFloat32()[i] = 0.02
			}
		}
		s.add(fixture.Relu("relu", x), withGrad(opcheck.GradSpec{
			Inputs:           []string{"X"},
			Output:           "Out",
			MaxRelativeError: 0.01,
		}))
	}

	x16 := s.tensor(fixture.NewGenerator(2021).Random(tensor.Shape{3, 2}, tensor.Float16))
	if s.err == nil {
		s.add(fixture.Relu("relu_fp16", x16).Atol(1e-5))
	}

	neg := s.tensor(tensor.FromSlice([]float32{0.1, -0.1, -1.0}, tensor.Shape{3}))
	if s.err == nil {
		s.add(fixture.Relu("relu_neg", neg))
	}
	return s.result()
}
