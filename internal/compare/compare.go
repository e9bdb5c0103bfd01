// Package compare checks device outputs against expected tensors with
// NumPy allclose semantics: |actual - expected| <= atol + rtol*|expected|.
package compare

import (
	"fmt"
	"math"

	"github.com/born-ml/opcheck/internal/tensor"
)

// Tolerance bounds the allowed element-wise deviation.
type Tolerance struct {
	Atol float64
	Rtol float64
}

// Exact requires bit-equal values.
var Exact = Tolerance{}

// API is the tolerance of np.allclose defaults.
var API = Tolerance{Atol: 1e-8, Rtol: 1e-5}

// DefaultTolerance returns the tolerance used when a case does not set one.
func DefaultTolerance(dtype tensor.DataType) Tolerance {
	switch dtype {
	case tensor.Float16:
		return Tolerance{Atol: 1e-3, Rtol: 1e-3}
	case tensor.Float32, tensor.Float64:
		return Tolerance{Atol: 1e-5, Rtol: 1e-5}
	default:
		return Exact
	}
}

// IsZero reports whether t is the zero Tolerance.
func (t Tolerance) IsZero() bool {
	return t == Tolerance{}
}

// Scale multiplies both bounds by factor.
func (t Tolerance) Scale(factor float64) Tolerance {
	return Tolerance{Atol: t.Atol * factor, Rtol: t.Rtol * factor}
}

// Allows reports whether actual is close enough to expected. NaNs only
// match NaNs and an infinity only matches the same infinity.
func (t Tolerance) Allows(actual, expected float64) bool {
	if math.IsNaN(actual) || math.IsNaN(expected) {
		return math.IsNaN(actual) && math.IsNaN(expected)
	}
	if math.IsInf(actual, 0) || math.IsInf(expected, 0) {
		return actual == expected
	}
	return math.Abs(actual-expected) <= t.Atol+t.Rtol*math.Abs(expected)
}

// String renders the bounds.
func (t Tolerance) String() string {
	return fmt.Sprintf("atol=%g rtol=%g", t.Atol, t.Rtol)
}
