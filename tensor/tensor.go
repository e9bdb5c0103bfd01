// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor types used to write operator
// cases and custom device backends.
//
// The package defines:
//   - RawTensor: dense row-major tensor with a runtime DataType
//   - Shape: tensor dimensions, where -1 marks a dimension known at feed time
//   - Backend: the kernels a device must provide to have its operators checked
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{0.1, -0.1, -1}, tensor.Shape{3})
//	out := cpu.New().ReLU(x) // [0.1, 0, 0]
package tensor

import (
	"github.com/born-ml/opcheck/internal/tensor"
)

// DType is a constraint for tensor element types.
// Supported types: float32, float64, float16, int32, int64, uint8, bool.
type DType = tensor.DType

// DataType represents the runtime data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Float16 DataType = tensor.Float16
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is a dense tensor with its data type known at run time.
type RawTensor = tensor.RawTensor

// FromSlice creates a tensor holding a copy of data.
//
// Example:
//
//	x, err := tensor.FromSlice([]bool{true, false, true}, tensor.Shape{3})
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromFloat64s creates a tensor of dtype from float64 values.
func FromFloat64s(values []float64, shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.FromFloat64s(values, shape, dtype)
}

// Scalar creates a one-element tensor of shape [1].
func Scalar[T DType](v T) *RawTensor {
	return tensor.Scalar(v)
}

// Empty creates a tensor with zero elements.
func Empty(dtype DataType, shape ...int) *RawTensor {
	return tensor.Empty(dtype, shape...)
}

// ParseDataType parses a data type name such as "float32" or "fp16".
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}
