// Package cpu implements the pure Go CPU backend. Besides serving plain CPU
// placements it emulates the custom device placements (custom_cpu, mlu,
// npu) so their operator suites run on any machine.
package cpu

import (
	"fmt"

	"github.com/born-ml/opcheck/internal/device"
	"github.com/born-ml/opcheck/internal/parallel"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/gomlx/exceptions"
)

// DriverName is the device driver name this package registers.
const DriverName = "cpu"

func init() {
	device.Register(DriverName, func(p device.Place) (tensor.Backend, error) {
		return NewForPlace(p), nil
	})
}

// CPUBackend implements tensor kernels on the host CPU.
type CPUBackend struct {
	name string
	par  parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{name: "CPU", par: parallel.DefaultConfig()}
}

// NewForPlace creates a CPU backend emulating the given placement.
func NewForPlace(p device.Place) *CPUBackend {
	if p.Type == DriverName {
		return New()
	}
	return &CPUBackend{name: fmt.Sprintf("CPU (emulating %s)", p), par: parallel.DefaultConfig()}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return cpu.name
}

func newResult(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype)
	if err != nil {
		exceptions.Panicf("%s: failed to create result tensor: %v", op, err)
	}
	return result
}

// forEachSlice visits every 1-D slice of shape along dim, passing the flat
// offset of its first element, the stride between its elements and its length.
func forEachSlice(shape tensor.Shape, dim int, fn func(base, stride, size int)) {
	strides := shape.ComputeStrides()
	size := shape[dim]
	stride := strides[dim]

	numRows := 1
	for i := range shape {
		if i != dim {
			numRows *= shape[i]
		}
	}

	for row := 0; row < numRows; row++ {
		base := 0
		remaining := row
		for i := len(shape) - 1; i >= 0; i-- {
			if i == dim {
				continue
			}
			coord := remaining % shape[i]
			remaining /= shape[i]
			base += coord * strides[i]
		}
		fn(base, stride, size)
	}
}
