// Package webgpu implements the WebGPU device for operator checks.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// Only float32 kernels are provided; every other dtype panics with an error
// wrapping tensor.ErrUnsupported. On platforms without the native library the
// driver reports device.ErrUnavailable.
package webgpu

import (
	"github.com/born-ml/opcheck/internal/device"
)

// DriverName is the name the backend registers under.
const DriverName = "webgpu"

func init() {
	device.Register(DriverName, open)
}
