package suites

import (
	"fmt"

	"github.com/born-ml/opcheck/internal/compare"
	"github.com/born-ml/opcheck/internal/fixture"
	"github.com/born-ml/opcheck/internal/opcheck"
	"github.com/born-ml/opcheck/internal/tensor"
)

// Softmax checks softmax over float64 inputs drawn from [0.1, 1) on every
// axis, with a gradient check on X, plus float32 cases with NumPy allclose
// tolerances.
func Softmax() ([]opcheck.Case, error) {
	var s suite

	shapes := []struct {
		shape tensor.Shape
		axis  int
	}{
		{tensor.Shape{10, 10}, -1},
		{tensor.Shape{2, 3, 4, 5}, -1},
		{tensor.Shape{2, 3, 4, 5}, 0},
		{tensor.Shape{2, 3, 4, 5}, 1},
		{tensor.Shape{2, 3, 4, 5}, 2},
		{tensor.Shape{2, 3, 4, 5}, 3},
	}
	for _, tc := range shapes {
		g := fixture.NewGenerator(0)
		x := s.tensor(g.Uniform(tc.shape, 0.1, 1, tensor.Float64))
		weights := s.tensor(g.Uniform(tc.shape, -1, 1, tensor.Float64))
		if s.err != nil {
			break
		}
		name := fmt.Sprintf("softmax_%s_axis%d", shapeName(tc.shape), tc.axis)
		s.add(fixture.Softmax(name, x, tc.axis), withGrad(opcheck.GradSpec{
			Inputs:           []string{"X"},
			Output:           "Out",
			MaxRelativeError: 0.01,
			OutputGrad:       weights,
		}))
	}

	x := s.tensor(fixture.NewGenerator(10).Uniform(tensor.Shape{2, 3, 4, 5}, -1, 1, tensor.Float32))
	if s.err == nil {
		s.add(fixture.Softmax("softmax_api_axis-1", x, -1).Tolerance(compare.API))
		s.add(fixture.Softmax("softmax_api_axis0", x, 0).Tolerance(compare.API))
		s.add(fixture.SoftmaxAs("softmax_api_float64", x, -1, tensor.Float64).Tolerance(compare.API))
	}
	return s.result()
}

func shapeName(shape tensor.Shape) string {
	name := ""
	for i, d := range shape {
		if i > 0 {
			name += "x"
		}
		name += fmt.Sprint(d)
	}
	return name
}
