package reference

import (
	"math"
	"testing"

	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftmax_SumsToOne(t *testing.T) {
	values := make([]float64, 2*3*4*5)
	for i := range values {
		values[i] = math.Sin(float64(i)) * 3
	}
	shape := tensor.Shape{2, 3, 4, 5}
	x := must.M1(tensor.FromFloat64s(values, shape, tensor.Float64))

	for axis := -4; axis < 4; axis++ {
		out, err := Softmax(x, axis)
		require.NoError(t, err, "axis %d", axis)
		dim := must.M1(shape.NormalizeAxis(axis))

		sums := make(map[int]float64)
		for flat, v := range out.Float64s() {
			coords := shape.Unravel(flat)
			coords[dim] = 0
			key := 0
			for i, c := range coords {
				key += c * shape.ComputeStrides()[i]
			}
			sums[key] += v
		}
		assert.Len(t, sums, shape.NumElements()/shape[dim])
		for _, s := range sums {
			assert.InDelta(t, 1.0, s, 1e-12, "axis %d", axis)
		}
	}
}

func TestSoftmax_Values(t *testing.T) {
	x := must.M1(tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{1, 3}))
	out := must.M1(Softmax(x, -1))
	e1, e2, e3 := math.Exp(-2), math.Exp(-1), 1.0
	sum := e1 + e2 + e3
	assert.InDeltaSlice(t, []float64{e1 / sum, e2 / sum, e3 / sum}, out.Float64s(), 1e-15)
}

func TestSoftmax_Clip(t *testing.T) {
	x := must.M1(tensor.FromSlice([]float64{0, -1000}, tensor.Shape{2}))
	out := must.M1(Softmax(x, 0)).Float64s()
	tiny := math.Exp(SoftmaxClip)
	assert.InDelta(t, 1/(1+tiny), out[0], 1e-20)
	assert.Greater(t, out[1], 0.0)
}

func TestSoftmaxAs(t *testing.T) {
	x := must.M1(tensor.FromSlice([]float32{0.1, 0.2, 0.3, 0.4}, tensor.Shape{2, 2}))
	out, err := SoftmaxAs(x, -1, tensor.Float64)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float64, out.DType())

	_, err = SoftmaxAs(x, -1, tensor.Int32)
	require.Error(t, err)
	_, err = Softmax(x, 2)
	require.Error(t, err)
}

func adamInputs(t *testing.T) AdamInputs {
	t.Helper()
	shape := tensor.Shape{2, 2}
	return AdamInputs{
		Param:        must.M1(tensor.FromSlice([]float32{0.5, -0.5, 1, -1}, shape)),
		Grad:         must.M1(tensor.FromSlice([]float32{0.1, 0.2, -0.3, 0.4}, shape)),
		Moment1:      must.M1(tensor.FromSlice([]float32{0, 0.1, 0.2, -0.1}, shape)),
		Moment2:      must.M1(tensor.FromSlice([]float32{0.5, 0.25, 0.1, 0.9}, shape)),
		LearningRate: tensor.Scalar(float32(0.004)),
		Beta1Pow:     tensor.Scalar(float32(math.Pow(0.78, 10))),
		Beta2Pow:     tensor.Scalar(float32(math.Pow(0.836, 10))),
	}
}

func TestAdamStep(t *testing.T) {
	in := adamInputs(t)
	attrs := AdamAttrs{Beta1: 0.78, Beta2: 0.836, Epsilon: 1e-4}
	out, err := AdamStep(in, attrs)
	require.NoError(t, err)

	b1p := float64(float32(math.Pow(0.78, 10)))
	b2p := float64(float32(math.Pow(0.836, 10)))
	lrT := float64(float32(0.004)) * math.Sqrt(1-b2p) / (1 - b1p)
	p, g := in.Param.Float64s()[2], in.Grad.Float64s()[2]
	m1 := 0.78*in.Moment1.Float64s()[2] + 0.22*g
	m2 := 0.836*in.Moment2.Float64s()[2] + 0.164*g*g
	assert.InDelta(t, m1, out.Moment1Out.Float64s()[2], 1e-7)
	assert.InDelta(t, m2, out.Moment2Out.Float64s()[2], 1e-7)
	assert.InDelta(t, p-lrT*m1/(math.Sqrt(m2)+1e-4), out.ParamOut.Float64s()[2], 1e-6)
	assert.InDelta(t, b1p*0.78, out.Beta1PowOut.Float64s()[0], 1e-7)
	assert.InDelta(t, b2p*0.836, out.Beta2PowOut.Float64s()[0], 1e-7)
	assert.Equal(t, tensor.Float32, out.ParamOut.DType())
}

func TestAdamStep_TensorsOverrideAttrs(t *testing.T) {
	in := adamInputs(t)
	in.Beta1Tensor = tensor.Scalar(float32(0.78))
	in.Beta2Tensor = tensor.Scalar(float32(0.836))
	in.EpsilonTensor = tensor.Scalar(float32(1e-4))
	fromTensors := must.M1(AdamStep(in, DefaultAdamAttrs()))

	in = adamInputs(t)
	fromAttrs := must.M1(AdamStep(in, AdamAttrs{Beta1: 0.78, Beta2: 0.836, Epsilon: 1e-4}))
	assert.InDeltaSlice(t, fromAttrs.ParamOut.Float64s(), fromTensors.ParamOut.Float64s(), 1e-7)
}

func TestAdamStep_SkipUpdateIsIdentity(t *testing.T) {
	in := adamInputs(t)
	in.SkipUpdate = must.M1(tensor.FromSlice([]bool{true}, tensor.Shape{1}))
	out, err := AdamStep(in, DefaultAdamAttrs())
	require.NoError(t, err)
	assert.Equal(t, in.Param.Float64s(), out.ParamOut.Float64s())
	assert.Equal(t, in.Moment1.Float64s(), out.Moment1Out.Float64s())
	assert.Equal(t, in.Moment2.Float64s(), out.Moment2Out.Float64s())
	assert.Equal(t, in.Beta1Pow.Float64s(), out.Beta1PowOut.Float64s())
	assert.Equal(t, in.Beta2Pow.Float64s(), out.Beta2PowOut.Float64s())
}

func TestAdamStep_GlobalBetaPow(t *testing.T) {
	in := adamInputs(t)
	attrs := AdamAttrs{Beta1: 0.78, Beta2: 0.836, Epsilon: 1e-4, UseGlobalBetaPow: true}
	out, err := AdamStep(in, attrs)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Beta1PowOut.NumElements())
	assert.Equal(t, 0, out.Beta2PowOut.NumElements())
	assert.NotEqual(t, in.Param.Float64s(), out.ParamOut.Float64s())
}

func TestAdamStep_Errors(t *testing.T) {
	in := adamInputs(t)
	in.Grad = must.M1(tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}))
	_, err := AdamStep(in, DefaultAdamAttrs())
	require.Error(t, err)

	in = adamInputs(t)
	in.LearningRate = nil
	_, err = AdamStep(in, DefaultAdamAttrs())
	require.Error(t, err)

	in = adamInputs(t)
	in.Beta1Pow = tensor.Scalar(float32(1))
	_, err = AdamStep(in, DefaultAdamAttrs())
	require.Error(t, err)
}

func TestRelu(t *testing.T) {
	x := must.M1(tensor.FromSlice([]float32{0.1, -0.1, -1.0, 0, 2}, tensor.Shape{5}))
	out := must.M1(Relu(x))
	assert.Equal(t, []float32{0.1, 0, 0, 0, 2}, out.AsFloat32())

	_, err := Relu(must.M1(tensor.FromSlice([]bool{true}, tensor.Shape{1})))
	require.Error(t, err)
}

func TestWhereIndex(t *testing.T) {
	tests := []struct {
		name      string
		condition *tensor.RawTensor
		want      []int64
		wantShape tensor.Shape
	}{
		{"Bool", must.M1(tensor.FromSlice([]bool{true, false, true}, tensor.Shape{3})), []int64{0, 2}, tensor.Shape{2, 1}},
		{"NotBool", must.M1(tensor.FromSlice([]int64{1, 0, 8}, tensor.Shape{3})), []int64{0, 2}, tensor.Shape{2, 1}},
		{"AllFalse", must.M1(tensor.FromSlice([]bool{false, false, false}, tensor.Shape{3})), nil, tensor.Shape{0, 1}},
		{"Rank2", must.M1(tensor.FromSlice([]bool{true, false, false, true}, tensor.Shape{2, 2})), []int64{0, 0, 1, 1}, tensor.Shape{2, 2}},
		{
			"Rank3",
			must.M1(tensor.FromSlice([]bool{
				true, false, false, true,
				false, true, true, false,
				false, false, false, true,
			}, tensor.Shape{3, 2, 2})),
			[]int64{0, 0, 0, 0, 1, 1, 1, 0, 1, 1, 1, 0, 2, 1, 1},
			tensor.Shape{5, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := WhereIndex(tt.condition)
			require.NoError(t, err)
			assert.Equal(t, tensor.Int64, out.DType())
			assert.Equal(t, tt.wantShape, out.Shape())
			assert.Equal(t, tt.want, out.AsInt64())
		})
	}
}
