package tensor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Shape represents the dimensions of a tensor.
//
// Concrete tensors have non-negative dimensions; a zero dimension makes an
// empty tensor. Declared shapes in a graph program may also use -1 for a
// dimension that is only known at feed time.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	n := 1 // Scalar has 1 element
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// Validate checks if the shape is a valid concrete shape (all dimensions >= 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return errors.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	return nil
}

// IsDynamic reports whether any dimension is unknown (-1).
func (s Shape) IsDynamic() bool {
	for _, dim := range s {
		if dim < 0 {
			return true
		}
	}
	return false
}

// Matches reports whether the concrete shape other satisfies the declared
// shape s, where -1 in s accepts any size.
func (s Shape) Matches(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] >= 0 && s[i] != other[i] {
			return false
		}
	}
	return true
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// NormalizeAxis resolves a possibly negative axis against the rank of s.
func (s Shape) NormalizeAxis(axis int) (int, error) {
	rank := len(s)
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, errors.Errorf("axis %d out of range for tensor of rank %d", axis, rank)
	}
	return axis, nil
}

// Unravel converts a flat row-major index into per-dimension coordinates.
func (s Shape) Unravel(flat int) []int {
	coords := make([]int, len(s))
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == 0 {
			return coords
		}
		coords[i] = flat % s[i]
		flat /= s[i]
	}
	return coords
}

// String renders the shape the way NumPy prints it, e.g. [2, 3, 4].
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprint(d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
