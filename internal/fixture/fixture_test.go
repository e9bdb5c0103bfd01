package fixture

import (
	"testing"

	"github.com/born-ml/opcheck/internal/compare"
	"github.com/born-ml/opcheck/internal/ops"
	"github.com/born-ml/opcheck/internal/reference"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Reproducible(t *testing.T) {
	a := must.M1(NewGenerator(2021).Uniform(tensor.Shape{4, 5}, -1, 1, tensor.Float32))
	b := must.M1(NewGenerator(2021).Uniform(tensor.Shape{4, 5}, -1, 1, tensor.Float32))
	assert.Equal(t, a.Data(), b.Data())

	c := must.M1(NewGenerator(2022).Uniform(tensor.Shape{4, 5}, -1, 1, tensor.Float32))
	assert.NotEqual(t, a.Data(), c.Data())
}

func TestGenerator_Ranges(t *testing.T) {
	g := NewGenerator(0)
	for _, v := range must.M1(g.Uniform(tensor.Shape{100}, 0.1, 1, tensor.Float64)).AsFloat64() {
		assert.GreaterOrEqual(t, v, 0.1)
		assert.Less(t, v, 1.0)
	}
	for _, v := range must.M1(g.Ints(tensor.Shape{100}, 2, tensor.Int64)).AsInt64() {
		assert.Contains(t, []int64{0, 1}, v)
	}
	bools := must.M1(g.Bools(tensor.Shape{3, 3}, 0.5))
	assert.Equal(t, tensor.Bool, bools.DType())
	r := must.M1(g.Random(tensor.Shape{2}, tensor.Float16))
	assert.Equal(t, tensor.Float16, r.DType())
}

func TestBuilder(t *testing.T) {
	x := must.M1(tensor.FromSlice([]bool{true, false, false, false}, tensor.Shape{1, 4}))
	f, err := WhereIndex("dynamic", x).Declare("Condition", tensor.Shape{-1, 4}).Build()
	require.NoError(t, err)
	assert.Equal(t, "where_index", f.Op)
	assert.Equal(t, tensor.Shape{-1, 4}, f.DeclaredShape("Condition"))
	assert.Equal(t, []int64{0, 0}, f.Outputs["Out"].AsInt64())
	assert.True(t, f.ToleranceFor("Out").IsZero())

	_, err = WhereIndex("bad", x).Declare("Condition", tensor.Shape{-1, 3}).Build()
	require.Error(t, err)

	_, err = New("empty", "relu").Input("X", x).Build()
	require.Error(t, err)

	_, err = New("nil", "relu").Input("X", nil).Expect("Out", x).Build()
	require.Error(t, err)
}

func TestSoftmaxFixture(t *testing.T) {
	x := must.M1(NewGenerator(0).Uniform(tensor.Shape{2, 3}, 0.1, 1, tensor.Float64))
	f := must.M1(Softmax("softmax", x, 0).Build())
	assert.Equal(t, 0, f.Attrs["axis"])
	assert.Equal(t, compare.DefaultTolerance(tensor.Float64), f.ToleranceFor("Out"))

	f = must.M1(SoftmaxAs("cast", x, -1, tensor.Float32).Tolerance(compare.API).Build())
	assert.Equal(t, tensor.Float32, f.Outputs["Out"].DType())
	assert.Equal(t, compare.API, f.ToleranceFor("Out"))

	_, err := Softmax("bad", x, 4).Build()
	require.Error(t, err)
}

func TestAdamFixture(t *testing.T) {
	g := NewGenerator(1)
	shape := tensor.Shape{4, 3}
	in := reference.AdamInputs{
		Param:         must.M1(g.Uniform(shape, -1, 1, tensor.Float32)),
		Grad:          must.M1(g.Uniform(shape, -1, 1, tensor.Float32)),
		Moment1:       must.M1(g.Uniform(shape, -1, 1, tensor.Float32)),
		Moment2:       must.M1(g.Random(shape, tensor.Float32)),
		LearningRate:  tensor.Scalar(float32(0.004)),
		Beta1Pow:      tensor.Scalar(float32(0.1)),
		Beta2Pow:      tensor.Scalar(float32(0.2)),
		Beta1Tensor:   tensor.Scalar(float32(0.78)),
		Beta2Tensor:   tensor.Scalar(float32(0.836)),
		EpsilonTensor: tensor.Scalar(float32(1e-4)),
	}
	f, err := Adam("global", in, ops.Attrs{"use_global_beta_pow": true}).Atol(1e-5).Build()
	require.NoError(t, err)
	assert.Len(t, f.Inputs, 10)
	assert.Equal(t, []string{"Beta1PowOut", "Beta2PowOut", "Moment1Out", "Moment2Out", "ParamOut"}, f.OutputNames())
	assert.Equal(t, 0, f.Outputs["Beta1PowOut"].NumElements())
	assert.Equal(t, compare.Tolerance{Atol: 1e-5, Rtol: 1e-5}, f.ToleranceFor("ParamOut"))

	_, err = Adam("bad", in, ops.Attrs{"beta1": "x"}).Build()
	require.Error(t, err)
}

func TestFixture_Clone(t *testing.T) {
	x := must.M1(tensor.FromSlice([]float32{-1, 1}, tensor.Shape{2}))
	f := must.M1(Relu("relu", x).Build())
	c := f.Clone()
	c.Inputs["X"].AsFloat32()[0] = 5
	c.Attrs["extra"] = true
	assert.Equal(t, float32(-1), f.Inputs["X"].AsFloat32()[0])
	assert.False(t, f.Attrs.Has("extra"))
	assert.Equal(t, []string{"X"}, f.InputNames())
}
