// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// Importing the package registers the "cpu" driver, which also serves the
// custom_cpu, mlu and npu placements by default.
//
// Example:
//
//	b := cpu.New()
//	out := b.Softmax(x, -1)
package cpu

import (
	internalcpu "github.com/born-ml/opcheck/internal/backend/cpu"
	"github.com/born-ml/opcheck/tensor"
)

// DriverName is the name the backend registers under.
const DriverName = internalcpu.DriverName

// Backend is the CPU backend.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend.
func New() *Backend {
	return internalcpu.New()
}
