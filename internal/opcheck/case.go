package opcheck

import (
	"github.com/born-ml/opcheck/internal/fixture"
	"github.com/born-ml/opcheck/internal/tensor"
)

// DefaultDelta is the finite-difference step of gradient checks.
const DefaultDelta = 0.005

// GradSpec configures a gradient check.
//
// The loss is Σ w·Output with weights OutputGrad; without OutputGrad the
// loss is the mean of Output. The analytic gradient of each input must
// match the central difference
//
//	(loss(x + Delta) - loss(x - Delta)) / (2 * Delta)
//
// within MaxRelativeError, where magnitudes below 1e-3 count as 1.
type GradSpec struct {
	Inputs           []string
	Output           string
	MaxRelativeError float64
	Delta            float64
	OutputGrad       *tensor.RawTensor
}

// Case is one entry of an operator suite.
type Case struct {
	Fixture *fixture.Fixture

	// Modes restricts the execution modes; empty means every mode.
	Modes []Mode

	// Grad enables a gradient check.
	Grad *GradSpec

	// SkipParity excludes the case from baseline comparison.
	SkipParity bool
}

// Name returns the fixture name.
func (c Case) Name() string {
	return c.Fixture.Name
}

// Op returns the operator type.
func (c Case) Op() string {
	return c.Fixture.Op
}
