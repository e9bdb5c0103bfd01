package suites

import (
	"math"

	"github.com/born-ml/opcheck/internal/fixture"
	"github.com/born-ml/opcheck/internal/ops"
	"github.com/born-ml/opcheck/internal/opcheck"
	"github.com/born-ml/opcheck/internal/reference"
	"github.com/born-ml/opcheck/internal/tensor"
)

const (
	adamLearningRate = 0.004
	adamBeta1        = 0.78
	adamBeta2        = 0.836
	adamEpsilon      = 1e-4
	adamAtol         = 1e-5
)

// adamInputs draws a float32 [102, 105] Adam state after ten steps. The
// second moment is non-negative.
func adamInputs(s *suite, seed uint64) reference.AdamInputs {
	g := fixture.NewGenerator(seed)
	shape := tensor.Shape{102, 105}
	return reference.AdamInputs{
		Param:        s.tensor(g.Uniform(shape, -1, 1, tensor.Float32)),
		Grad:         s.tensor(g.Uniform(shape, -1, 1, tensor.Float32)),
		Moment1:      s.tensor(g.Uniform(shape, -1, 1, tensor.Float32)),
		Moment2:      s.tensor(g.Random(shape, tensor.Float32)),
		LearningRate: tensor.Scalar(float32(adamLearningRate)),
		Beta1Pow:     tensor.Scalar(float32(math.Pow(adamBeta1, 10))),
		Beta2Pow:     tensor.Scalar(float32(math.Pow(adamBeta2, 10))),
	}
}

func withBetaTensors(in reference.AdamInputs) reference.AdamInputs {
	in.Beta1Tensor = tensor.Scalar(float32(adamBeta1))
	in.Beta2Tensor = tensor.Scalar(float32(adamBeta2))
	in.EpsilonTensor = tensor.Scalar(float32(adamEpsilon))
	return in
}

// Adam checks one adam step with attribute betas, tensor betas, a skipped
// update and externally maintained power accumulators.
func Adam() ([]opcheck.Case, error) {
	var s suite

	in := adamInputs(&s, 1)
	if s.err == nil {
		s.add(fixture.Adam("adam", in, ops.Attrs{
			"epsilon": adamEpsilon, "beta1": adamBeta1, "beta2": adamBeta2,
		}).Atol(adamAtol))
	}

	in = withBetaTensors(adamInputs(&s, 2))
	if s.err == nil {
		s.add(fixture.Adam("adam_epsilon_tensor", in, ops.Attrs{"epsilon": adamEpsilon}).Atol(adamAtol))
	}

	in = withBetaTensors(adamInputs(&s, 3))
	in.SkipUpdate = s.tensor(tensor.FromSlice([]bool{true}, tensor.Shape{1}))
	if s.err == nil {
		s.add(fixture.Adam("adam_skip_update", in, ops.Attrs{"epsilon": adamEpsilon}).Atol(adamAtol))
	}

	in = withBetaTensors(adamInputs(&s, 4))
	if s.err == nil {
		s.add(fixture.Adam("adam_global_beta_pow", in, ops.Attrs{"use_global_beta_pow": true}).Atol(adamAtol))
	}
	return s.result()
}
