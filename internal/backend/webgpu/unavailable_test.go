//go:build !windows

package webgpu

import (
	"testing"

	"github.com/born-ml/opcheck/internal/device"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestOpen_Unavailable(t *testing.T) {
	assert.False(t, IsAvailable())
	_, err := device.Open(device.Custom("webgpu", 0))
	assert.True(t, errors.Is(err, device.ErrUnavailable), "got %v", err)
}
