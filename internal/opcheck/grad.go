package opcheck

import (
	"context"
	"fmt"
	"math"

	"github.com/born-ml/opcheck/internal/fixture"
	"github.com/born-ml/opcheck/internal/ops"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// GradError reports an analytic gradient that disagrees with its finite
// difference approximation.
type GradError struct {
	Input            string
	Index            []int
	Analytic         float64
	Numeric          float64
	RelativeError    float64
	MaxRelativeError float64
}

func (e *GradError) Error() string {
	return fmt.Sprintf("%s@GRAD: max relative error %g > %g at %v: analytic %g, numeric %g",
		e.Input, e.RelativeError, e.MaxRelativeError, e.Index, e.Analytic, e.Numeric)
}

// CheckGrad compares the backend gradient of spec.Inputs with central
// differences of the forward pass, both computed on the device. The
// forward pass runs in mode.
func (c *Checker) CheckGrad(ctx context.Context, f *fixture.Fixture, spec GradSpec, mode Mode) error {
	if spec.Output == "" || len(spec.Inputs) == 0 {
		return errors.New("gradient check needs inputs and an output")
	}
	if spec.Delta == 0 {
		spec.Delta = DefaultDelta
	}

	run, err := prepare(c.backend, f, mode)
	if err != nil {
		return err
	}
	out, err := run(ctx, f.Inputs)
	if err != nil {
		return err
	}
	y, ok := out[spec.Output]
	if !ok {
		return errors.Errorf("output %s was not produced", spec.Output)
	}
	weights, err := lossWeights(y, spec.OutputGrad)
	if err != nil {
		return err
	}

	grads, err := ops.RunBackward(ctx, c.backend, f.Op, f.Inputs, out, ops.Values{spec.Output: weights}, f.Attrs)
	if err != nil {
		return err
	}

	w := weights.Float64s()
	loss := func(in ops.Values) (float64, error) {
		res, err := run(ctx, in)
		if err != nil {
			return 0, err
		}
		sum := 0.0
		for i, v := range res[spec.Output].Float64s() {
			sum += w[i] * v
		}
		return sum, nil
	}

	for _, name := range spec.Inputs {
		analytic, ok := grads[name]
		if !ok {
			return errors.Errorf("no gradient produced for input %s", name)
		}
		numeric, err := numericGrad(f.Inputs, name, spec.Delta, loss)
		if err != nil {
			return errors.WithMessagef(err, "numeric gradient of %s", name)
		}
		if err := checkRelative(name, f.Inputs[name].Shape(), analytic.Float64s(), numeric, spec.MaxRelativeError); err != nil {
			return err
		}
	}
	return nil
}

// lossWeights returns the output gradient: explicit weights, or 1/N for a
// mean loss.
func lossWeights(y, explicit *tensor.RawTensor) (*tensor.RawTensor, error) {
	if explicit != nil {
		if !explicit.Shape().Equal(y.Shape()) {
			return nil, errors.Errorf("output gradient shape %s does not match output shape %s", explicit.Shape(), y.Shape())
		}
		if explicit.DType() != y.DType() {
			return nil, errors.Errorf("output gradient dtype %s does not match output dtype %s", explicit.DType(), y.DType())
		}
		return explicit, nil
	}
	n := y.NumElements()
	values := make([]float64, n)
	for i := range values {
		values[i] = 1 / float64(n)
	}
	return tensor.FromFloat64s(values, y.Shape(), y.DType())
}

// numericGrad perturbs every element of input name by ±delta.
func numericGrad(inputs ops.Values, name string, delta float64, loss func(ops.Values) (float64, error)) ([]float64, error) {
	x, ok := inputs[name]
	if !ok {
		return nil, errors.Errorf("unknown input %s", name)
	}
	if !x.DType().IsFloat() {
		return nil, errors.Errorf("input %s has non-float dtype %s", name, x.DType())
	}

	values := x.Float64s()
	grad := make([]float64, len(values))
	in := make(ops.Values, len(inputs))
	for k, v := range inputs {
		in[k] = v
	}

	eval := func(i int, v float64) (float64, error) {
		saved := values[i]
		values[i] = v
		perturbed, err := tensor.FromFloat64s(values, x.Shape(), x.DType())
		values[i] = saved
		if err != nil {
			return 0, err
		}
		in[name] = perturbed
		return loss(in)
	}

	for i, orig := range values {
		plus, err := eval(i, orig+delta)
		if err != nil {
			return nil, err
		}
		minus, err := eval(i, orig-delta)
		if err != nil {
			return nil, err
		}
		grad[i] = (plus - minus) / (2 * delta)
	}
	return grad, nil
}

// checkRelative computes |analytic - numeric| / |numeric| per element, with
// numeric magnitudes below 1e-3 replaced by 1.
func checkRelative(name string, shape tensor.Shape, analytic, numeric []float64, maxRel float64) error {
	if len(analytic) != len(numeric) {
		return errors.Errorf("%s@GRAD: %d analytic values, %d numeric", name, len(analytic), len(numeric))
	}
	worst := &GradError{Input: name, MaxRelativeError: maxRel, RelativeError: -1}
	for i := range numeric {
		denom := math.Abs(numeric[i])
		if denom < 1e-3 {
			denom = 1
		}
		rel := math.Abs(analytic[i]-numeric[i]) / denom
		if math.IsNaN(rel) {
			rel = math.Inf(1)
		}
		if rel > worst.RelativeError {
			worst.RelativeError = rel
			worst.Index = shape.Unravel(i)
			worst.Analytic = analytic[i]
			worst.Numeric = numeric[i]
		}
	}
	if worst.RelativeError > maxRel {
		return worst
	}
	return nil
}
