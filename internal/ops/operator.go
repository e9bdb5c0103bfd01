// Package ops defines the checked operators and runs them eagerly on a
// backend.
//
// Each operator implements the Operator interface, which provides:
//   - Input and output slot names, matching the operator's documented contract
//   - Static shape and dtype inference, used when a graph program is built
//   - Forward pass: computed by the backend kernels
//
// Operators with an analytic gradient also implement Differentiable.
//
// Supported operators:
//   - softmax: X -> Out, attributes axis (default -1) and dtype
//   - relu: X -> Out
//   - adam: fused Adam step with power accumulators
//   - where_index: Condition -> Out, int64 coordinates of non-zero elements
package ops

import (
	"sort"
	"sync"

	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// ErrUnsupported is the cause of errors raised for an operator type, dtype
// or attribute a backend cannot handle.
var ErrUnsupported = tensor.ErrUnsupported

// ErrUnknownOperator is returned by Lookup for unregistered types.
var ErrUnknownOperator = errors.New("unknown operator")

// Values maps input or output slot names to tensors.
type Values map[string]*tensor.RawTensor

// Slot describes one operator input.
type Slot struct {
	Name     string
	Optional bool
}

// Meta is the static description of a tensor: its dtype and shape, where
// -1 marks a dimension only known at run time.
type Meta struct {
	Shape tensor.Shape
	DType tensor.DataType
}

// MetaOf returns the Meta of a concrete tensor.
func MetaOf(t *tensor.RawTensor) Meta {
	return Meta{Shape: t.Shape().Clone(), DType: t.DType()}
}

// Operator is one checked operator type.
type Operator interface {
	// Type returns the operator type name, e.g. "softmax".
	Type() string

	// Inputs and Outputs list the slot names.
	Inputs() []Slot
	Outputs() []string

	// InferMeta computes output metadata from input metadata and attributes.
	InferMeta(in map[string]Meta, attrs Attrs) (map[string]Meta, error)

	// Forward computes the outputs on the backend. Like backend kernels it
	// panics with an error on invalid input.
	Forward(b tensor.Backend, in Values, attrs Attrs) Values
}

// Differentiable is an operator with an analytic gradient.
type Differentiable interface {
	Operator

	// GradInputs lists the inputs Backward produces gradients for.
	GradInputs() []string

	// Backward computes input gradients given the forward inputs, the
	// forward outputs and the gradient of every output.
	Backward(b tensor.Backend, in, out, outGrad Values, attrs Attrs) Values
}

var (
	mu        sync.RWMutex
	operators = make(map[string]Operator)
)

// Register makes op available under op.Type(). It panics on duplicates.
func Register(op Operator) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := operators[op.Type()]; dup {
		panic(errors.Errorf("ops: operator %q registered twice", op.Type()))
	}
	operators[op.Type()] = op
}

// Lookup returns the operator registered under opType.
func Lookup(opType string) (Operator, error) {
	mu.RLock()
	defer mu.RUnlock()
	op, ok := operators[opType]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownOperator, "%q", opType)
	}
	return op, nil
}

// Types returns the registered operator types, sorted.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]string, 0, len(operators))
	for t := range operators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func init() {
	Register(softmaxOp{})
	Register(reluOp{})
	Register(adamOp{})
	Register(whereIndexOp{})
}
