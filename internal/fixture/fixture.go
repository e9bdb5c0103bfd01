// Package fixture builds operator test cases: named inputs, attributes and
// the expected outputs computed by the reference calculators.
package fixture

import (
	"sort"

	"github.com/born-ml/opcheck/internal/compare"
	"github.com/born-ml/opcheck/internal/ops"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// Fixture is one operator test case. Expected outputs never come from a
// backend. A Fixture is not modified after Build; use Clone to derive a
// variant.
type Fixture struct {
	Name string
	Op   string

	Inputs  ops.Values
	Attrs   ops.Attrs
	Outputs ops.Values

	// Declared overrides the placeholder shape of an input in graph mode,
	// e.g. [-1, 4] for a dimension known only at feed time.
	Declared map[string]tensor.Shape

	// Tolerance applies to every output when set; otherwise each output
	// uses compare.DefaultTolerance of its dtype.
	Tolerance compare.Tolerance
}

// ToleranceFor returns the tolerance for the named expected output.
func (f *Fixture) ToleranceFor(output string) compare.Tolerance {
	if !f.Tolerance.IsZero() {
		return f.Tolerance
	}
	if t, ok := f.Outputs[output]; ok {
		return compare.DefaultTolerance(t.DType())
	}
	return compare.Exact
}

// DeclaredShape returns the graph placeholder shape of the named input.
func (f *Fixture) DeclaredShape(input string) tensor.Shape {
	if s, ok := f.Declared[input]; ok {
		return s
	}
	return f.Inputs[input].Shape()
}

// InputNames returns the input names, sorted.
func (f *Fixture) InputNames() []string {
	return sortedKeys(f.Inputs)
}

// OutputNames returns the expected output names, sorted.
func (f *Fixture) OutputNames() []string {
	return sortedKeys(f.Outputs)
}

// Clone returns a deep copy.
func (f *Fixture) Clone() *Fixture {
	c := &Fixture{
		Name:      f.Name,
		Op:        f.Op,
		Inputs:    cloneValues(f.Inputs),
		Attrs:     f.Attrs.Clone(),
		Outputs:   cloneValues(f.Outputs),
		Declared:  make(map[string]tensor.Shape, len(f.Declared)),
		Tolerance: f.Tolerance,
	}
	for k, v := range f.Declared {
		c.Declared[k] = v.Clone()
	}
	return c
}

func cloneValues(v ops.Values) ops.Values {
	out := make(ops.Values, len(v))
	for k, t := range v {
		out[k] = t.Clone()
	}
	return out
}

func sortedKeys(v ops.Values) []string {
	names := make([]string, 0, len(v))
	for k := range v {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Builder assembles a Fixture. The first error is kept and returned by
// Build, so calls can be chained.
type Builder struct {
	f   *Fixture
	err error
}

// New starts a fixture for operator op.
func New(name, op string) *Builder {
	return &Builder{f: &Fixture{
		Name:     name,
		Op:       op,
		Inputs:   make(ops.Values),
		Attrs:    make(ops.Attrs),
		Outputs:  make(ops.Values),
		Declared: make(map[string]tensor.Shape),
	}}
}

// Input sets an input tensor.
func (b *Builder) Input(name string, t *tensor.RawTensor) *Builder {
	if t == nil {
		return b.fail(errors.Errorf("fixture %s: input %s is nil", b.f.Name, name))
	}
	b.f.Inputs[name] = t
	return b
}

// InputErr sets an input from a constructor result.
func (b *Builder) InputErr(name string, t *tensor.RawTensor, err error) *Builder {
	if err != nil {
		return b.fail(errors.Wrapf(err, "fixture %s: input %s", b.f.Name, name))
	}
	return b.Input(name, t)
}

// Attr sets an attribute.
func (b *Builder) Attr(name string, value any) *Builder {
	b.f.Attrs[name] = value
	return b
}

// Expect sets an expected output.
func (b *Builder) Expect(name string, t *tensor.RawTensor) *Builder {
	if t == nil {
		return b.fail(errors.Errorf("fixture %s: expected output %s is nil", b.f.Name, name))
	}
	b.f.Outputs[name] = t
	return b
}

// Declare sets the graph placeholder shape of an input.
func (b *Builder) Declare(input string, shape tensor.Shape) *Builder {
	b.f.Declared[input] = shape.Clone()
	return b
}

// Tolerance sets the tolerance of every output.
func (b *Builder) Tolerance(tol compare.Tolerance) *Builder {
	b.f.Tolerance = tol
	return b
}

// Atol sets the absolute tolerance of every output, with rtol 1e-5.
func (b *Builder) Atol(atol float64) *Builder {
	b.f.Tolerance = compare.Tolerance{Atol: atol, Rtol: 1e-5}
	return b
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Build validates and returns the fixture.
func (b *Builder) Build() (*Fixture, error) {
	if b.err != nil {
		return nil, b.err
	}
	f := b.f
	if f.Name == "" || f.Op == "" {
		return nil, errors.New("fixture needs a name and an operator")
	}
	if len(f.Outputs) == 0 {
		return nil, errors.Errorf("fixture %s: no expected outputs", f.Name)
	}
	for name, shape := range f.Declared {
		in, ok := f.Inputs[name]
		if !ok {
			return nil, errors.Errorf("fixture %s: declared shape for unknown input %s", f.Name, name)
		}
		if !shape.Matches(in.Shape()) {
			return nil, errors.Errorf("fixture %s: input %s shape %s does not match declared %s",
				f.Name, name, in.Shape(), shape)
		}
	}
	return f, nil
}
