// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend.
//
// Importing the package registers the "webgpu" driver. Kernels cover
// float32 relu, softmax and adam; other operators report
// tensor.ErrUnsupported. On platforms without a WebGPU runtime opening the
// driver returns device.ErrUnavailable.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    c, err := opcheck.Open(device.Custom("webgpu", 0), "cpu")
//	    ...
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/opcheck/internal/backend/webgpu"
)

// DriverName is the name the backend registers under.
const DriverName = internalwebgpu.DriverName

// IsAvailable reports whether a WebGPU adapter can be obtained.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
