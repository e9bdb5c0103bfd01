// Package opcheck runs operator fixtures on a device placement and checks
// the results against the reference outputs.
//
// A Checker verifies three things per case and execution mode:
//   - output: every device output is close to the reference output
//   - grad: analytic input gradients match finite differences
//   - parity: device outputs are close to those of a baseline backend
package opcheck

import (
	"context"
	"slices"
	"time"

	"github.com/born-ml/opcheck/internal/compare"
	"github.com/born-ml/opcheck/internal/device"
	"github.com/born-ml/opcheck/internal/fixture"
	"github.com/born-ml/opcheck/internal/parallel"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Checker verifies fixtures on one device placement.
type Checker struct {
	place    device.Place
	backend  tensor.Backend
	baseline tensor.Backend
	scale    float64
	modes    []Mode
	grad     bool
	workers  int

	owned []tensor.Backend
}

// Option configures a Checker.
type Option func(*Checker)

// WithBaseline enables parity checks against b.
func WithBaseline(b tensor.Backend) Option {
	return func(c *Checker) { c.baseline = b }
}

// WithToleranceScale multiplies every tolerance by factor.
func WithToleranceScale(factor float64) Option {
	return func(c *Checker) { c.scale = factor }
}

// WithModes restricts the execution modes of every case.
func WithModes(modes ...Mode) Option {
	return func(c *Checker) { c.modes = slices.Clone(modes) }
}

// WithWorkers sets how many cases RunAll checks concurrently.
func WithWorkers(n int) Option {
	return func(c *Checker) { c.workers = n }
}

// WithGrad enables or disables gradient checks.
func WithGrad(enabled bool) Option {
	return func(c *Checker) { c.grad = enabled }
}

// New creates a checker running on b, which serves place.
func New(place device.Place, b tensor.Backend, opts ...Option) *Checker {
	c := &Checker{
		place:   place,
		backend: b,
		scale:   1,
		modes:   AllModes,
		grad:    true,
		workers: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open opens the backend bound to place and creates a checker for it. When
// baseline is not empty a parity backend is opened for that placement too.
// Close releases both.
func Open(place device.Place, baseline string, opts ...Option) (*Checker, error) {
	b, err := device.Open(place)
	if err != nil {
		return nil, err
	}
	c := New(place, b, opts...)
	c.owned = append(c.owned, b)
	if baseline != "" {
		bp, err := device.ParsePlace(baseline)
		if err != nil {
			c.Close()
			return nil, errors.Wrap(err, "baseline")
		}
		base, err := device.Open(bp)
		if err != nil {
			c.Close()
			return nil, errors.Wrap(err, "baseline")
		}
		c.baseline = base
		c.owned = append(c.owned, base)
	}
	return c, nil
}

// Close releases the backends opened by Open.
func (c *Checker) Close() {
	for _, b := range c.owned {
		device.Close(b)
	}
	c.owned = nil
}

// Place returns the checked placement.
func (c *Checker) Place() device.Place { return c.place }

// Backend returns the checked backend.
func (c *Checker) Backend() tensor.Backend { return c.backend }

func (c *Checker) tolerance(f *fixture.Fixture, output string) compare.Tolerance {
	return f.ToleranceFor(output).Scale(c.scale)
}

// CheckOutput runs f in mode and compares every expected output.
func (c *Checker) CheckOutput(ctx context.Context, f *fixture.Fixture, mode Mode) error {
	got, err := Execute(ctx, c.backend, f, mode)
	if err != nil {
		return err
	}
	for _, name := range f.OutputNames() {
		if err := compare.Check(name, got[name], f.Outputs[name], c.tolerance(f, name)); err != nil {
			return err
		}
	}
	return nil
}

// CheckParity runs f in mode on the device and on the baseline backend and
// compares the two sets of outputs.
func (c *Checker) CheckParity(ctx context.Context, f *fixture.Fixture, mode Mode) error {
	if c.baseline == nil {
		return errors.New("no baseline backend configured")
	}
	got, err := Execute(ctx, c.backend, f, mode)
	if err != nil {
		return err
	}
	want, err := Execute(ctx, c.baseline, f, mode)
	if err != nil {
		return errors.WithMessagef(err, "baseline %s", c.baseline.Name())
	}
	for _, name := range f.OutputNames() {
		if err := compare.Check(name, got[name], want[name], c.tolerance(f, name)); err != nil {
			return errors.WithMessagef(err, "versus %s", c.baseline.Name())
		}
	}
	return nil
}

// Modes returns the modes tc runs in on this checker.
func (c *Checker) Modes(tc Case) []Mode {
	if len(tc.Modes) == 0 {
		return c.modes
	}
	var modes []Mode
	for _, m := range c.modes {
		if slices.Contains(tc.Modes, m) {
			modes = append(modes, m)
		}
	}
	return modes
}

// Run performs every enabled check of tc.
func (c *Checker) Run(ctx context.Context, tc Case) *Report {
	report := &Report{Case: tc.Name(), Op: tc.Op()}
	for _, mode := range c.Modes(tc) {
		klog.V(2).Infof("opcheck: %s %s/%s on %s (%s)", tc.Op(), tc.Name(), mode, c.place, c.backend.Name())

		start := time.Now()
		report.add(CheckOutput, mode, start, c.CheckOutput(ctx, tc.Fixture, mode))

		if tc.Grad != nil && c.grad {
			start = time.Now()
			report.add(CheckGrad, mode, start, c.CheckGrad(ctx, tc.Fixture, *tc.Grad, mode))
		}
		if c.baseline != nil && !tc.SkipParity {
			start = time.Now()
			report.add(CheckParity, mode, start, c.CheckParity(ctx, tc.Fixture, mode))
		}
	}
	for _, r := range report.Results {
		if r.Err != nil {
			klog.V(1).Infof("opcheck: %s %s/%s failed: %v", tc.Name(), r.Check, r.Mode, r.Err)
		}
	}
	return report
}

// RunAll runs every case and returns the reports in case order. Up to the
// configured number of workers run concurrently. Cases not started before
// ctx is cancelled are left out.
func (c *Checker) RunAll(ctx context.Context, cases []Case) ([]*Report, error) {
	reports := make([]*Report, len(cases))
	parallel.For(len(cases), func(i int) {
		if ctx.Err() != nil {
			return
		}
		reports[i] = c.Run(ctx, cases[i])
	}, parallel.Workers(c.workers))

	if err := ctx.Err(); err != nil {
		done := reports[:0]
		for _, r := range reports {
			if r != nil {
				done = append(done, r)
			}
		}
		return done, err
	}
	return reports, nil
}
