package fixture

import (
	"math/rand/v2"

	"github.com/born-ml/opcheck/internal/tensor"
)

// Generator draws reproducible tensor data. Two generators created with the
// same seed produce bit-identical sequences.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Uniform draws values uniformly from [lo, hi) and stores them as dtype.
func (g *Generator) Uniform(shape tensor.Shape, lo, hi float64, dtype tensor.DataType) (*tensor.RawTensor, error) {
	values := make([]float64, shape.NumElements())
	for i := range values {
		values[i] = lo + (hi-lo)*g.rng.Float64()
	}
	return tensor.FromFloat64s(values, shape, dtype)
}

// Random draws values uniformly from [0, 1).
func (g *Generator) Random(shape tensor.Shape, dtype tensor.DataType) (*tensor.RawTensor, error) {
	return g.Uniform(shape, 0, 1, dtype)
}

// Ints draws integers uniformly from [0, n).
func (g *Generator) Ints(shape tensor.Shape, n int, dtype tensor.DataType) (*tensor.RawTensor, error) {
	values := make([]float64, shape.NumElements())
	for i := range values {
		values[i] = float64(g.rng.IntN(n))
	}
	return tensor.FromFloat64s(values, shape, dtype)
}

// Bools draws booleans that are true with probability p.
func (g *Generator) Bools(shape tensor.Shape, p float64) (*tensor.RawTensor, error) {
	values := make([]bool, shape.NumElements())
	for i := range values {
		values[i] = g.rng.Float64() < p
	}
	return tensor.FromSlice(values, shape)
}
