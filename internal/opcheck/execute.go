package opcheck

import (
	"context"

	"github.com/born-ml/opcheck/internal/fixture"
	"github.com/born-ml/opcheck/internal/graph"
	"github.com/born-ml/opcheck/internal/ops"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// runner executes the operator of a fixture on replacement inputs.
type runner func(ctx context.Context, in ops.Values) (ops.Values, error)

// Execute runs the operator of f on b in mode and returns its outputs.
func Execute(ctx context.Context, b tensor.Backend, f *fixture.Fixture, mode Mode) (ops.Values, error) {
	run, err := prepare(b, f, mode)
	if err != nil {
		return nil, err
	}
	return run(ctx, f.Inputs)
}

func prepare(b tensor.Backend, f *fixture.Fixture, mode Mode) (runner, error) {
	switch mode {
	case Eager:
		return func(ctx context.Context, in ops.Values) (ops.Values, error) {
			return ops.Run(ctx, b, f.Op, in, f.Attrs)
		}, nil
	case Graph:
		return prepareGraph(b, f)
	}
	return nil, errors.Errorf("unknown execution mode %d", mode)
}

// prepareGraph builds a one-operator program: a placeholder per input and
// the expected outputs fetched by slot name.
func prepareGraph(b tensor.Backend, f *fixture.Fixture) (runner, error) {
	prog := graph.NewProgram()
	vars := make(map[string]*graph.Var, len(f.Inputs))
	for _, name := range f.InputNames() {
		v, err := prog.Data(name, f.DeclaredShape(name), f.Inputs[name].DType())
		if err != nil {
			return nil, err
		}
		vars[name] = v
	}
	outs, err := prog.Append(f.Op, vars, f.Attrs)
	if err != nil {
		return nil, err
	}

	names := f.OutputNames()
	fetch := make([]*graph.Var, len(names))
	for i, name := range names {
		v, ok := outs[name]
		if !ok {
			return nil, errors.Errorf("%s has no output %s", f.Op, name)
		}
		fetch[i] = v
	}

	exe := graph.NewExecutor(b)
	return func(ctx context.Context, in ops.Values) (ops.Values, error) {
		res, err := exe.Run(ctx, prog, in, fetch...)
		if err != nil {
			return nil, err
		}
		out := make(ops.Values, len(names))
		for i, name := range names {
			out[name] = res[i]
		}
		return out, nil
	}, nil
}
