package graph

import (
	"context"

	"github.com/born-ml/opcheck/internal/ops"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Executor runs programs on one backend.
type Executor struct {
	backend tensor.Backend
}

// NewExecutor creates an executor for b.
func NewExecutor(b tensor.Backend) *Executor {
	return &Executor{backend: b}
}

// Backend returns the backend the executor runs on.
func (e *Executor) Backend() tensor.Backend {
	return e.backend
}

// Run feeds the placeholders of p, runs the nodes the fetched variables
// depend on and returns the fetched tensors in order. Fed tensors must have
// the declared dtype and match the declared shape. Operator outputs are
// checked against the shapes inferred at building time.
func (e *Executor) Run(ctx context.Context, p *Program, feed map[string]*tensor.RawTensor, fetch ...*Var) ([]*tensor.RawTensor, error) {
	for _, v := range fetch {
		if v == nil || p.vars[v.name] != v {
			return nil, errors.New("fetched variable does not belong to this program")
		}
	}
	for name := range feed {
		v, ok := p.Var(name)
		if !ok || !v.IsData() {
			return nil, errors.Errorf("feed %q is not a data variable of the program", name)
		}
	}

	needed := p.needed(fetch)
	scope := make(map[*Var]*tensor.RawTensor)
	for _, v := range p.DataVars() {
		t, fed := feed[v.name]
		if !fed || t == nil {
			if needed.data[v] {
				return nil, errors.Errorf("data %q was not fed", v.name)
			}
			continue
		}
		if t.DType() != v.meta.DType {
			return nil, errors.Errorf("feed %q: dtype %s, declared %s", v.name, t.DType(), v.meta.DType)
		}
		if !v.meta.Shape.Matches(t.Shape()) {
			return nil, errors.Errorf("feed %q: shape %s does not match declared shape %s", v.name, t.Shape(), v.meta.Shape)
		}
		scope[v] = t
	}

	for i, n := range p.nodes {
		if !needed.nodes[n] {
			continue
		}
		in := make(ops.Values, len(n.inputs))
		for slot, v := range n.inputs {
			in[slot] = scope[v]
		}
		klog.V(3).Infof("graph: node %d %s on %s", i, n.opType, e.backend.Name())
		out, err := ops.Run(ctx, e.backend, n.opType, in, n.attrs)
		if err != nil {
			return nil, errors.WithMessagef(err, "node %d", i)
		}
		for slot, v := range n.outputs {
			t := out[slot]
			if t.DType() != v.meta.DType || !v.meta.Shape.Matches(t.Shape()) {
				return nil, errors.Errorf("node %d %s: output %s is %s, inferred %s%s",
					i, n.opType, v.name, t, v.meta.DType, v.meta.Shape)
			}
			scope[v] = t
		}
	}

	results := make([]*tensor.RawTensor, len(fetch))
	for i, v := range fetch {
		results[i] = scope[v]
	}
	return results, nil
}

type dependencies struct {
	nodes map[*node]bool
	data  map[*Var]bool
}

// needed returns the nodes and placeholders fetch depends on. Without
// fetched variables every node runs.
func (p *Program) needed(fetch []*Var) dependencies {
	deps := dependencies{nodes: make(map[*node]bool), data: make(map[*Var]bool)}
	if len(fetch) == 0 {
		for _, n := range p.nodes {
			deps.nodes[n] = true
			for _, v := range n.inputs {
				if v.IsData() {
					deps.data[v] = true
				}
			}
		}
		return deps
	}

	stack := append([]*Var(nil), fetch...)
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v.IsData() {
			deps.data[v] = true
			continue
		}
		if deps.nodes[v.producer] {
			continue
		}
		deps.nodes[v.producer] = true
		for _, in := range v.producer.inputs {
			stack = append(stack, in)
		}
	}
	return deps
}
