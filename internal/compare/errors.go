package compare

import (
	"fmt"
)

// MismatchError reports a tensor that differs from its expectation.
type MismatchError struct {
	// Name of the compared tensor, e.g. "Out" or "X@GRAD".
	Name string
	// Reason is set for structural mismatches (shape or dtype).
	Reason string

	// First offending element.
	Index    []int
	Actual   float64
	Expected float64

	MaxDiff   float64
	Count     int
	Total     int
	Tolerance Tolerance
}

func (e *MismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("%s: %d of %d elements not close (%s): first at %v: actual %g, expected %g; max abs diff %g",
		e.Name, e.Count, e.Total, e.Tolerance, e.Index, e.Actual, e.Expected, e.MaxDiff)
}
