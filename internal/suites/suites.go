// Package suites is the catalog of operator cases checked on every device.
package suites

import (
	"sort"

	"github.com/born-ml/opcheck/internal/fixture"
	"github.com/born-ml/opcheck/internal/opcheck"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

var catalog = map[string]func() ([]opcheck.Case, error){
	"softmax":     Softmax,
	"adam":        Adam,
	"relu":        Relu,
	"where_index": WhereIndex,
}

// Ops returns the operators with a suite, sorted.
func Ops() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every case of every suite.
func All() ([]opcheck.Case, error) {
	return ByOp(Ops()...)
}

// ByOp returns the cases of the named operator suites, in the given order.
func ByOp(names ...string) ([]opcheck.Case, error) {
	var cases []opcheck.Case
	for _, name := range names {
		build, ok := catalog[name]
		if !ok {
			return nil, errors.Errorf("no suite for operator %q", name)
		}
		c, err := build()
		if err != nil {
			return nil, errors.WithMessagef(err, "suite %s", name)
		}
		cases = append(cases, c...)
	}
	return cases, nil
}

// suite accumulates cases and keeps the first construction error.
type suite struct {
	cases []opcheck.Case
	err   error
}

func (s *suite) tensor(t *tensor.RawTensor, err error) *tensor.RawTensor {
	if err != nil && s.err == nil {
		s.err = err
	}
	return t
}

func (s *suite) add(b *fixture.Builder, configure ...func(*opcheck.Case)) {
	f, err := b.Build()
	if err != nil {
		if s.err == nil {
			s.err = err
		}
		return
	}
	c := opcheck.Case{Fixture: f}
	for _, fn := range configure {
		fn(&c)
	}
	s.cases = append(s.cases, c)
}

func (s *suite) result() ([]opcheck.Case, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cases, nil
}

func withGrad(spec opcheck.GradSpec) func(*opcheck.Case) {
	return func(c *opcheck.Case) { c.Grad = &spec }
}

func onlyModes(modes ...opcheck.Mode) func(*opcheck.Case) {
	return func(c *opcheck.Case) { c.Modes = modes }
}
