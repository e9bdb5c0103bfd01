// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/opcheck/internal/tensor"
)

// Backend defines the kernels a compute device must provide.
//
// Kernels panic with an error on invalid input; the error wraps
// ErrUnsupported when the device has no kernel for the dtype. Register an
// implementation with device.Register to have it checked.
type Backend = tensor.Backend

// AdamArgs are the inputs of one fused Adam update.
type AdamArgs = tensor.AdamArgs

// AdamResult holds the updated parameter, moments and power accumulators.
type AdamResult = tensor.AdamResult

// Releaser is implemented by backends holding device resources.
type Releaser = tensor.Releaser

// ErrUnsupported marks a missing kernel.
var ErrUnsupported = tensor.ErrUnsupported
