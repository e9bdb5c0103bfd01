package opcheck

import (
	"context"
	"fmt"
	"testing"

	"github.com/born-ml/opcheck/internal/backend/cpu"
	"github.com/born-ml/opcheck/internal/compare"
	"github.com/born-ml/opcheck/internal/device"
	"github.com/born-ml/opcheck/internal/fixture"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenBackend wraps the CPU backend with wrong kernels.
type brokenBackend struct {
	*cpu.CPUBackend
}

func (brokenBackend) Name() string { return "broken" }

// ReLU returns its input unchanged.
func (brokenBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor { return x.Clone() }

// ReLUGrad returns the output gradient unmasked and doubled.
func (brokenBackend) ReLUGrad(_, outGrad *tensor.RawTensor) *tensor.RawTensor {
	values := outGrad.Float64s()
	for i := range values {
		values[i] *= 2
	}
	out := outGrad.Clone()
	out.SetFloat64s(values)
	return out
}

func newChecker(opts ...Option) *Checker {
	return New(device.Custom("custom_cpu", 0), cpu.NewForPlace(device.Custom("custom_cpu", 0)), opts...)
}

func reluFixture(t *testing.T) *fixture.Fixture {
	t.Helper()
	x := must.M1(tensor.FromSlice([]float32{0.1, -0.1, -1.0, 0.7}, tensor.Shape{2, 2}))
	return must.M1(fixture.Relu("relu_neg", x).Build())
}

func TestParseMode(t *testing.T) {
	modes, err := ParseModes([]string{"eager", "static", "Graph", "dygraph"})
	require.NoError(t, err)
	assert.Equal(t, []Mode{Eager, Graph, Graph, Eager}, modes)
	_, err = ParseMode("jit")
	require.Error(t, err)
	assert.Equal(t, "graph", Graph.String())
}

func TestCheckOutput(t *testing.T) {
	c := newChecker()
	f := reluFixture(t)
	for _, mode := range AllModes {
		require.NoError(t, c.CheckOutput(context.Background(), f, mode), mode.String())
	}

	broken := New(device.Custom("mlu", 0), brokenBackend{cpu.New()})
	err := broken.CheckOutput(context.Background(), f, Eager)
	var mismatch *compare.MismatchError
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Equal(t, "Out", mismatch.Name)
	assert.Equal(t, []int{0, 1}, mismatch.Index)
}

func TestCheckOutput_Unsupported(t *testing.T) {
	c := newChecker()
	x := must.M1(tensor.FromSlice([]int32{1, -2}, tensor.Shape{2}))
	f := must.M1(fixture.New("softmax_int", "softmax").Input("X", x).Expect("Out", x).Build())
	err := c.CheckOutput(context.Background(), f, Eager)
	assert.True(t, errors.Is(err, tensor.ErrUnsupported), "got %v", err)
	err = c.CheckOutput(context.Background(), f, Graph)
	assert.True(t, errors.Is(err, tensor.ErrUnsupported), "got %v", err)
}

func TestCheckGrad(t *testing.T) {
	c := newChecker()
	x := must.M1(tensor.FromSlice([]float64{0.2, 0.5, 0.9, 0.3, 0.1, 0.6}, tensor.Shape{2, 3}))
	f := must.M1(fixture.Softmax("softmax", x, -1).Build())
	w := must.M1(tensor.FromSlice([]float64{1, -2, 0.5, 3, 0.25, -1}, tensor.Shape{2, 3}))

	for _, mode := range AllModes {
		spec := GradSpec{Inputs: []string{"X"}, Output: "Out", MaxRelativeError: 0.01, OutputGrad: w}
		require.NoError(t, c.CheckGrad(context.Background(), f, spec, mode), mode.String())

		spec.OutputGrad = nil
		require.NoError(t, c.CheckGrad(context.Background(), f, spec, mode), mode.String())
	}
}

func TestCheckGrad_Broken(t *testing.T) {
	c := New(device.Custom("mlu", 0), brokenBackend{cpu.New()})
	x := must.M1(tensor.FromSlice([]float64{0.5, -0.5}, tensor.Shape{2}))
	f := must.M1(fixture.New("relu", "relu").Input("X", x).Expect("Out", x).Build())
	err := c.CheckGrad(context.Background(), f, GradSpec{Inputs: []string{"X"}, Output: "Out", MaxRelativeError: 0.01}, Eager)
	var gradErr *GradError
	require.True(t, errors.As(err, &gradErr), "got %v", err)
	assert.Equal(t, "X", gradErr.Input)
}

func TestCheckParity(t *testing.T) {
	f := reluFixture(t)
	c := newChecker(WithBaseline(cpu.New()))
	require.NoError(t, c.CheckParity(context.Background(), f, Graph))

	broken := New(device.Custom("mlu", 0), brokenBackend{cpu.New()}, WithBaseline(cpu.New()))
	require.Error(t, broken.CheckParity(context.Background(), f, Eager))

	require.Error(t, newChecker().CheckParity(context.Background(), f, Eager))
}

func TestRun_Report(t *testing.T) {
	f := reluFixture(t)
	c := newChecker(WithBaseline(cpu.New()))
	report := c.Run(context.Background(), Case{Fixture: f, Grad: &GradSpec{Inputs: []string{"X"}, Output: "Out", MaxRelativeError: 0.01}})
	require.NoError(t, report.Err())
	// output, grad and parity in both modes
	assert.Len(t, report.Results, 6)

	c = newChecker(WithModes(Graph), WithGrad(false))
	report = c.Run(context.Background(), Case{Fixture: f, Modes: []Mode{Graph}, Grad: &GradSpec{Inputs: []string{"X"}, Output: "Out"}})
	require.Len(t, report.Results, 1)
	assert.Equal(t, CheckOutput, report.Results[0].Check)
	assert.Equal(t, Graph, report.Results[0].Mode)

	assert.Empty(t, c.Modes(Case{Fixture: f, Modes: []Mode{Eager}}))
}

func TestRun_Failure(t *testing.T) {
	c := New(device.Custom("npu", 0), brokenBackend{cpu.New()})
	report := c.Run(context.Background(), Case{Fixture: reluFixture(t)})
	assert.True(t, report.Failed())
	assert.Contains(t, report.Err().Error(), "relu_neg output/eager")
}

func TestToleranceScale(t *testing.T) {
	x := must.M1(tensor.FromSlice([]float32{1}, tensor.Shape{1}))
	off := must.M1(tensor.FromSlice([]float32{1.00005}, tensor.Shape{1}))
	f := must.M1(fixture.New("scaled", "relu").Input("X", x).Expect("Out", off).Build())

	require.Error(t, newChecker().CheckOutput(context.Background(), f, Eager))
	require.NoError(t, newChecker(WithToleranceScale(10)).CheckOutput(context.Background(), f, Eager))
}

func TestOpen(t *testing.T) {
	c, err := Open(device.Custom("npu", 0), "cpu")
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "npu:0", c.Place().String())
	require.NoError(t, c.CheckParity(context.Background(), reluFixture(t), Eager))

	_, err = Open(device.Custom("tpu", 0), "")
	assert.True(t, errors.Is(err, device.ErrUnknownDevice))
}

func TestRunAll_Workers(t *testing.T) {
	f := reluFixture(t)
	cases := make([]Case, 5)
	for i := range cases {
		g := must.M1(fixture.New(fmt.Sprintf("relu_%d", i), "relu").
			Input("X", f.Inputs["X"]).Expect("Out", f.Outputs["Out"]).Build())
		cases[i] = Case{Fixture: g}
	}
	reports, err := newChecker(WithWorkers(3)).RunAll(context.Background(), cases)
	require.NoError(t, err)
	require.Len(t, reports, len(cases))
	for i, r := range reports {
		assert.Equal(t, cases[i].Name(), r.Case)
		assert.False(t, r.Failed())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reports, err = newChecker().RunAll(ctx, cases)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
}
