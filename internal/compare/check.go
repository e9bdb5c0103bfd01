package compare

import (
	"fmt"
	"math"

	"github.com/born-ml/opcheck/internal/tensor"
)

// Check compares actual against expected. It returns a *MismatchError when
// the dtypes or shapes differ or any element falls outside tol.
func Check(name string, actual, expected *tensor.RawTensor, tol Tolerance) error {
	switch {
	case actual == nil:
		return &MismatchError{Name: name, Reason: "no output was produced"}
	case actual.DType() != expected.DType():
		return &MismatchError{Name: name, Reason: fmt.Sprintf("dtype %s, expected %s", actual.DType(), expected.DType())}
	case !actual.Shape().Equal(expected.Shape()):
		return &MismatchError{Name: name, Reason: fmt.Sprintf("shape %s, expected %s", actual.Shape(), expected.Shape())}
	}
	return CheckValues(name, actual, expected, tol)
}

// CheckValues compares element values only, ignoring dtype. Shapes must
// hold the same number of elements.
func CheckValues(name string, actual, expected *tensor.RawTensor, tol Tolerance) error {
	if actual.NumElements() != expected.NumElements() {
		return &MismatchError{Name: name, Reason: fmt.Sprintf("%d elements, expected %d",
			actual.NumElements(), expected.NumElements())}
	}

	a, e := actual.Float64s(), expected.Float64s()
	var mismatch *MismatchError
	for i := range a {
		if tol.Allows(a[i], e[i]) {
			continue
		}
		if mismatch == nil {
			mismatch = &MismatchError{
				Name:      name,
				Index:     expected.Shape().Unravel(i),
				Actual:    a[i],
				Expected:  e[i],
				Total:     len(a),
				Tolerance: tol,
			}
		}
		mismatch.Count++
		if d := math.Abs(a[i] - e[i]); d > mismatch.MaxDiff || math.IsNaN(d) {
			mismatch.MaxDiff = d
		}
	}
	if mismatch != nil {
		return mismatch
	}
	return nil
}
