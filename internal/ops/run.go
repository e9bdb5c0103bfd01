package ops

import (
	"context"

	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Run applies the operator eagerly: inputs are concrete tensors and the
// outputs are computed immediately on b.
func Run(ctx context.Context, b tensor.Backend, opType string, in Values, attrs Attrs) (Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	op, err := Lookup(opType)
	if err != nil {
		return nil, err
	}
	in, err = bindInputs(op, in)
	if err != nil {
		return nil, err
	}

	klog.V(3).Infof("ops: %s on %s", opType, b.Name())
	var out Values
	if err := catch(func() { out = op.Forward(b, in, attrs) }); err != nil {
		return nil, errors.WithMessagef(err, "%s on %s", opType, b.Name())
	}
	for _, name := range op.Outputs() {
		if out[name] == nil {
			return nil, errors.Errorf("%s on %s: output %s was not produced", opType, b.Name(), name)
		}
	}
	return out, nil
}

// RunBackward computes the gradients of the differentiable inputs of opType.
// out holds the forward outputs and outGrad the gradient of each of them.
func RunBackward(ctx context.Context, b tensor.Backend, opType string, in, out, outGrad Values, attrs Attrs) (Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	op, err := Lookup(opType)
	if err != nil {
		return nil, err
	}
	diff, ok := op.(Differentiable)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupported, "%s has no gradient", opType)
	}
	in, err = bindInputs(op, in)
	if err != nil {
		return nil, err
	}

	var grads Values
	if err := catch(func() { grads = diff.Backward(b, in, out, outGrad, attrs) }); err != nil {
		return nil, errors.WithMessagef(err, "%s gradient on %s", opType, b.Name())
	}
	return grads, nil
}

// Infer validates the input metadata and returns the metadata of every
// output of opType.
func Infer(opType string, in map[string]Meta, attrs Attrs) (map[string]Meta, error) {
	op, err := Lookup(opType)
	if err != nil {
		return nil, err
	}
	for name := range in {
		if !hasSlot(op, name) {
			return nil, errors.Errorf("%s: unknown input %q", opType, name)
		}
	}
	for _, slot := range op.Inputs() {
		if _, ok := in[slot.Name]; !ok && !slot.Optional {
			return nil, errors.Errorf("%s: missing input %q", opType, slot.Name)
		}
	}
	out, err := op.InferMeta(in, attrs)
	if err != nil {
		return nil, errors.WithMessage(err, opType)
	}
	return out, nil
}

// bindInputs checks in against the operator slots and drops nil optional
// inputs.
func bindInputs(op Operator, in Values) (Values, error) {
	bound := make(Values, len(in))
	for name, t := range in {
		if !hasSlot(op, name) {
			return nil, errors.Errorf("%s: unknown input %q", op.Type(), name)
		}
		if t != nil {
			bound[name] = t
		}
	}
	for _, slot := range op.Inputs() {
		if bound[slot.Name] == nil && !slot.Optional {
			return nil, errors.Errorf("%s: missing input %q", op.Type(), slot.Name)
		}
	}
	return bound, nil
}

func hasSlot(op Operator, name string) bool {
	for _, slot := range op.Inputs() {
		if slot.Name == name {
			return true
		}
	}
	return false
}

// catch runs fn and converts a panic into an error.
func catch(fn func()) error {
	exception := exceptions.Try(fn)
	if exception == nil {
		return nil
	}
	if err, ok := exception.(error); ok {
		return err
	}
	return errors.Errorf("%v", exception)
}

// mustAttr unwraps an attribute lookup inside Forward, where errors panic.
func mustAttr[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
