// Package config loads opcheck settings from flags, OPCHECK_* environment
// variables and an optional opcheck.yaml, in that order of precedence.
package config

import (
	"sort"
	"strings"

	"github.com/born-ml/opcheck/internal/device"
	"github.com/born-ml/opcheck/internal/opcheck"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Device    DeviceConfig    `mapstructure:"device"`
	Check     CheckConfig     `mapstructure:"check"`
	Tolerance ToleranceConfig `mapstructure:"tolerance"`
	Log       LogConfig       `mapstructure:"log"`
}

type DeviceConfig struct {
	// Place is the placement under check, e.g. "npu:0".
	Place string `mapstructure:"place"`
	// Drivers binds placement types to registered drivers.
	Drivers map[string]string `mapstructure:"drivers"`
}

type CheckConfig struct {
	Modes []string `mapstructure:"modes"`
	// Ops restricts the run to these operator suites; empty runs all.
	Ops []string `mapstructure:"ops"`
	// Parity is the baseline placement outputs are compared against; empty
	// disables the parity check.
	Parity string `mapstructure:"parity"`
	Grad   bool   `mapstructure:"grad"`
	// Workers is how many cases run concurrently.
	Workers int `mapstructure:"workers"`
}

type ToleranceConfig struct {
	Scale float64 `mapstructure:"scale"`
}

type LogConfig struct {
	Verbosity int `mapstructure:"verbosity"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	drivers := make(map[string]string, len(device.DefaultBindings))
	for k, v := range device.DefaultBindings {
		drivers[k] = v
	}
	return Config{
		Device: DeviceConfig{
			Place:   "custom_cpu:0",
			Drivers: drivers,
		},
		Check: CheckConfig{
			Modes:   []string{"eager", "graph"},
			Parity:  "cpu",
			Grad:    true,
			Workers: 1,
		},
		Tolerance: ToleranceConfig{Scale: 1},
	}
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"place":           "device.place",
	"modes":           "check.modes",
	"ops":             "check.ops",
	"parity":          "check.parity",
	"grad":            "check.grad",
	"workers":         "check.workers",
	"tolerance-scale": "tolerance.scale",
	"verbosity":       "log.verbosity",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("place", defaults.Device.Place, "Device placement to check (type[:id])")
	fs.StringToString("device-drivers", defaults.Device.Drivers, "Driver bound to each placement type")
	fs.StringSlice("modes", defaults.Check.Modes, "Execution modes: eager, graph")
	fs.StringSlice("ops", defaults.Check.Ops, "Operator suites to run (default all)")
	fs.String("parity", defaults.Check.Parity, "Baseline placement for parity checks (empty disables)")
	fs.Bool("grad", defaults.Check.Grad, "Run gradient checks")
	fs.Int("workers", defaults.Check.Workers, "Cases checked concurrently")
	fs.Float64("tolerance-scale", defaults.Tolerance.Scale, "Multiplier applied to every tolerance")
	fs.IntP("verbosity", "v", defaults.Log.Verbosity, "klog verbosity level")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		fs := opts.Cmd.Flags()
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	v.SetEnvPrefix("OPCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "read config file")
		}
	} else {
		v.SetConfigName("opcheck")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, errors.Wrap(err, "read config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if opts.Cmd != nil {
		if err := mergeDriverFlag(opts.Cmd.Flags(), &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeDriverFlag adds --device-drivers entries on top of the loaded
// bindings.
func mergeDriverFlag(fs *pflag.FlagSet, cfg *Config) error {
	f := fs.Lookup("device-drivers")
	if f == nil || !f.Changed {
		return nil
	}
	drivers, err := fs.GetStringToString("device-drivers")
	if err != nil {
		return errors.Wrap(err, "device-drivers")
	}
	if cfg.Device.Drivers == nil {
		cfg.Device.Drivers = make(map[string]string, len(drivers))
	}
	for k, v := range drivers {
		cfg.Device.Drivers[k] = v
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("device.place", c.Device.Place)
	v.SetDefault("device.drivers", c.Device.Drivers)
	v.SetDefault("check.modes", c.Check.Modes)
	v.SetDefault("check.ops", c.Check.Ops)
	v.SetDefault("check.parity", c.Check.Parity)
	v.SetDefault("check.grad", c.Check.Grad)
	v.SetDefault("check.workers", c.Check.Workers)
	v.SetDefault("tolerance.scale", c.Tolerance.Scale)
	v.SetDefault("log.verbosity", c.Log.Verbosity)
}

// Validate checks that the placements and modes parse and that the numeric
// settings are in range.
func (c Config) Validate() error {
	if _, err := device.ParsePlace(c.Device.Place); err != nil {
		return errors.Wrap(err, "device.place")
	}
	if c.Check.Parity != "" {
		if _, err := device.ParsePlace(c.Check.Parity); err != nil {
			return errors.Wrap(err, "check.parity")
		}
	}
	modes, err := opcheck.ParseModes(c.Check.Modes)
	if err != nil {
		return errors.Wrap(err, "check.modes")
	}
	if len(modes) == 0 {
		return errors.New("check.modes is empty")
	}
	if c.Check.Workers < 1 {
		return errors.Errorf("check.workers must be at least 1, got %d", c.Check.Workers)
	}
	if c.Tolerance.Scale <= 0 {
		return errors.Errorf("tolerance.scale must be positive, got %g", c.Tolerance.Scale)
	}
	return nil
}

// Place returns the parsed device.place.
func (c Config) Place() device.Place {
	p, _ := device.ParsePlace(c.Device.Place)
	return p
}

// CheckerOptions turns the check and tolerance settings into checker options.
func (c Config) CheckerOptions() []opcheck.Option {
	modes, _ := opcheck.ParseModes(c.Check.Modes)
	return []opcheck.Option{
		opcheck.WithModes(modes...),
		opcheck.WithGrad(c.Check.Grad),
		opcheck.WithWorkers(c.Check.Workers),
		opcheck.WithToleranceScale(c.Tolerance.Scale),
	}
}

// BindDrivers applies device.drivers to the device registry, in sorted
// placement order.
func (c Config) BindDrivers() {
	types := make([]string, 0, len(c.Device.Drivers))
	for t := range c.Device.Drivers {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		device.Bind(t, c.Device.Drivers[t])
	}
}
