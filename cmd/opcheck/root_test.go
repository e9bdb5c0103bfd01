package main

import (
	"bytes"
	"testing"

	"github.com/born-ml/opcheck/internal/backend/cpu"
	"github.com/born-ml/opcheck/internal/config"
	"github.com/born-ml/opcheck/internal/device"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityReLU is a CPU backend whose relu passes negative values through.
type identityReLU struct {
	*cpu.CPUBackend
}

func (identityReLU) Name() string { return "identity relu" }

func (identityReLU) ReLU(x *tensor.RawTensor) *tensor.RawTensor { return x.Clone() }

func init() {
	device.Register("identity_relu", func(device.Place) (tensor.Backend, error) {
		return identityReLU{cpu.New()}, nil
	})
}

// execute runs the root command with args in a clean directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Cleanup(device.ResetBindings)
	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"run", "list", "devices", "version"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("place"))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestRun_Relu(t *testing.T) {
	out, err := execute(t, "run", "relu", "--place=npu:0")
	require.NoError(t, err)
	assert.Contains(t, out, "relu_neg")
	assert.Contains(t, out, "3/3 cases passed on npu:0")
}

func TestRun_Failure(t *testing.T) {
	out, err := execute(t, "run", "relu", "--place=xpu:0", "--device-drivers=xpu=identity_relu", "--grad=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 cases failed on xpu:0")
	assert.Contains(t, out, "FAIL relu_neg output/eager")
	assert.Contains(t, out, "2/3 cases passed on xpu:0 (identity relu)")
}

func TestRun_UnknownOp(t *testing.T) {
	_, err := execute(t, "run", "conv2d")
	require.Error(t, err)
}

func TestRun_UnknownDevice(t *testing.T) {
	_, err := execute(t, "run", "relu", "--place=tpu:0")
	require.ErrorIs(t, err, device.ErrUnknownDevice)
}

func TestRun_DriverBinding(t *testing.T) {
	out, err := execute(t, "run", "where_index", "--place=xpu:3", "--device-drivers=xpu=cpu", "--modes=graph")
	require.NoError(t, err)
	assert.Contains(t, out, "where_index_dynamic")
	assert.Contains(t, out, "xpu:3")
}

func TestList(t *testing.T) {
	out, err := execute(t, "list", "--ops=adam")
	require.NoError(t, err)
	assert.Contains(t, out, "adam_global_beta_pow")
	assert.NotContains(t, out, "relu")
}

func TestDevices(t *testing.T) {
	out, err := execute(t, "devices", "--device-drivers=xpu=nowhere")
	require.NoError(t, err)
	assert.Contains(t, out, "custom_cpu")
	assert.Contains(t, out, "no such driver")
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })
	activeCfg = nil

	_, err := requireConfig()
	require.Error(t, err)
}

func TestSelectCases(t *testing.T) {
	cfg := config.DefaultConfig()
	all, err := selectCases(cfg)
	require.NoError(t, err)

	cfg.Check.Ops = []string{"softmax"}
	some, err := selectCases(cfg)
	require.NoError(t, err)
	assert.Less(t, len(some), len(all))
}
