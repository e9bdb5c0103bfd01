//go:build !windows

package webgpu

import (
	"github.com/born-ml/opcheck/internal/device"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// IsAvailable reports whether a WebGPU adapter can be used on this platform.
func IsAvailable() bool {
	return false
}

func open(p device.Place) (tensor.Backend, error) {
	return nil, errors.Wrapf(device.ErrUnavailable, "webgpu: no native library on this platform for %s", p)
}
