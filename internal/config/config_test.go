package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/opcheck/internal/device"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

func newFlagBinder(defaults Config, args ...string) (*fakeBinder, error) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	return &fakeBinder{fs: fs}, fs.Parse(args)
}

// inTempDir keeps an opcheck.yaml in the working directory from leaking
// into the test.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "custom_cpu:0", cfg.Device.Place)
	assert.Equal(t, "cpu", cfg.Device.Drivers["npu"])
	assert.Equal(t, []string{"eager", "graph"}, cfg.Check.Modes)
	assert.Equal(t, "cpu", cfg.Check.Parity)
	assert.True(t, cfg.Check.Grad)
	assert.Equal(t, 1.0, cfg.Tolerance.Scale)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)
	cmd, err := newFlagBinder(DefaultConfig())
	require.NoError(t, err)

	cfg, err := Load(LoadOptions{Cmd: cmd, Defaults: DefaultConfig()})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Device.Place, cfg.Device.Place)
	assert.Equal(t, device.Place{Type: "custom_cpu"}, cfg.Place())
	assert.Len(t, cfg.CheckerOptions(), 4)
}

func TestLoad_Flags(t *testing.T) {
	inTempDir(t)
	cmd, err := newFlagBinder(DefaultConfig(),
		"--place=npu:1", "--modes=graph", "--device-drivers=xpu=cpu", "--ops=relu,adam", "--grad=false", "--tolerance-scale=4", "--workers=8")
	require.NoError(t, err)

	cfg, err := Load(LoadOptions{Cmd: cmd, Defaults: DefaultConfig()})
	require.NoError(t, err)
	assert.Equal(t, "npu:1", cfg.Device.Place)
	assert.Equal(t, []string{"graph"}, cfg.Check.Modes)
	assert.Equal(t, []string{"relu", "adam"}, cfg.Check.Ops)
	assert.False(t, cfg.Check.Grad)
	assert.Equal(t, 4.0, cfg.Tolerance.Scale)
	assert.Equal(t, 8, cfg.Check.Workers)
	assert.Equal(t, "cpu", cfg.Device.Drivers["xpu"])
	assert.Equal(t, "webgpu", cfg.Device.Drivers["webgpu"])
}

func TestLoad_Env(t *testing.T) {
	inTempDir(t)
	t.Setenv("OPCHECK_DEVICE_PLACE", "mlu:0")
	t.Setenv("OPCHECK_LOG_VERBOSITY", "2")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	require.NoError(t, err)
	assert.Equal(t, "mlu:0", cfg.Device.Place)
	assert.Equal(t, 2, cfg.Log.Verbosity)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := inTempDir(t)
	yaml := []byte(`
device:
  place: xpu:2
  drivers:
    xpu: cpu
check:
  modes: [eager]
tolerance:
  scale: 10
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "opcheck.yaml"), yaml, 0o600))

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	require.NoError(t, err)
	assert.Equal(t, "xpu:2", cfg.Device.Place)
	assert.Equal(t, "cpu", cfg.Device.Drivers["xpu"])
	assert.Equal(t, []string{"eager"}, cfg.Check.Modes)
	assert.Equal(t, 10.0, cfg.Tolerance.Scale)

	t.Cleanup(device.ResetBindings)
	cfg.BindDrivers()
	driver, ok := device.DriverFor("xpu")
	require.True(t, ok)
	assert.Equal(t, "cpu", driver)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	inTempDir(t)
	_, err := Load(LoadOptions{ConfigFile: "nope.yaml", Defaults: DefaultConfig()})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"place":   func(c *Config) { c.Device.Place = "" },
		"parity":  func(c *Config) { c.Check.Parity = "npu:x" },
		"modes":   func(c *Config) { c.Check.Modes = []string{"jit"} },
		"empty":   func(c *Config) { c.Check.Modes = nil },
		"scale":   func(c *Config) { c.Tolerance.Scale = 0 },
		"workers": func(c *Config) { c.Check.Workers = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
