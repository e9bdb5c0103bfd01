// Package graph builds static operator programs and executes them on a
// backend.
//
// Work is split in two phases:
//
//   - Graph building time: Program.Data declares placeholders and
//     Program.Append adds operator nodes. Shapes and dtypes are inferred and
//     checked here, and no tensor data exists yet. A placeholder dimension of
//     -1 is only known at feed time.
//
//   - Execution time: Executor.Run feeds concrete tensors, runs the nodes
//     needed for the fetched variables in program order and returns them.
package graph

import (
	"fmt"
	"strings"

	"github.com/born-ml/opcheck/internal/ops"
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// Var is a symbolic tensor of a program: a data placeholder or an operator
// output.
type Var struct {
	name     string
	meta     ops.Meta
	producer *node
}

// Name returns the variable name, e.g. "X" or "softmax_0.tmp_0".
func (v *Var) Name() string { return v.name }

// Shape returns the static shape; -1 marks a dimension known at run time.
func (v *Var) Shape() tensor.Shape { return v.meta.Shape }

// DType returns the static data type.
func (v *Var) DType() tensor.DataType { return v.meta.DType }

// IsData reports whether v is a placeholder fed at execution time.
func (v *Var) IsData() bool { return v.producer == nil }

func (v *Var) String() string {
	return fmt.Sprintf("%s: %s%s", v.name, v.meta.DType, v.meta.Shape)
}

type node struct {
	opType  string
	attrs   ops.Attrs
	inputs  map[string]*Var
	outputs map[string]*Var
	outList []*Var
}

// Program is a static list of operator nodes over named variables.
type Program struct {
	vars     map[string]*Var
	data     []*Var
	nodes    []*node
	opCounts map[string]int
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{
		vars:     make(map[string]*Var),
		opCounts: make(map[string]int),
	}
}

// Data declares a placeholder to be fed at execution time.
func (p *Program) Data(name string, shape tensor.Shape, dtype tensor.DataType) (*Var, error) {
	if name == "" {
		return nil, errors.New("data variable needs a name")
	}
	if _, dup := p.vars[name]; dup {
		return nil, errors.Errorf("variable %q already declared", name)
	}
	for i, d := range shape {
		if d < -1 {
			return nil, errors.Errorf("data %q: invalid dimension %d at index %d", name, d, i)
		}
	}
	v := &Var{name: name, meta: ops.Meta{Shape: shape.Clone(), DType: dtype}}
	p.vars[name] = v
	p.data = append(p.data, v)
	return v, nil
}

// Append adds an operator node reading inputs and returns its outputs by
// slot name. Output shapes and dtypes are inferred immediately.
func (p *Program) Append(opType string, inputs map[string]*Var, attrs ops.Attrs) (map[string]*Var, error) {
	meta := make(map[string]ops.Meta, len(inputs))
	for slot, v := range inputs {
		if v == nil {
			continue
		}
		if p.vars[v.name] != v {
			return nil, errors.Errorf("%s: input %s: variable %q does not belong to this program", opType, slot, v.name)
		}
		meta[slot] = v.meta
	}
	outMeta, err := ops.Infer(opType, meta, attrs)
	if err != nil {
		return nil, errors.WithMessage(err, "building program")
	}
	op, err := ops.Lookup(opType)
	if err != nil {
		return nil, err
	}

	n := &node{
		opType:  opType,
		attrs:   attrs.Clone(),
		inputs:  make(map[string]*Var, len(meta)),
		outputs: make(map[string]*Var),
	}
	for slot, v := range inputs {
		if v != nil {
			n.inputs[slot] = v
		}
	}
	id := p.opCounts[opType]
	p.opCounts[opType]++
	for i, slot := range op.Outputs() {
		v := &Var{
			name:     fmt.Sprintf("%s_%d.tmp_%d", opType, id, i),
			meta:     outMeta[slot],
			producer: n,
		}
		p.vars[v.name] = v
		n.outputs[slot] = v
		n.outList = append(n.outList, v)
	}
	p.nodes = append(p.nodes, n)
	return n.outputs, nil
}

// Var returns the variable called name.
func (p *Program) Var(name string) (*Var, bool) {
	v, ok := p.vars[name]
	return v, ok
}

// DataVars returns the placeholders in declaration order.
func (p *Program) DataVars() []*Var {
	return append([]*Var(nil), p.data...)
}

// NumOps returns the number of operator nodes.
func (p *Program) NumOps() int {
	return len(p.nodes)
}

// String lists the program, one line per placeholder and node.
func (p *Program) String() string {
	var sb strings.Builder
	for _, v := range p.data {
		fmt.Fprintf(&sb, "data %s\n", v)
	}
	for _, n := range p.nodes {
		var outs []string
		for _, v := range n.outList {
			outs = append(outs, v.name)
		}
		fmt.Fprintf(&sb, "%s(%d inputs) -> %s\n", n.opType, len(n.inputs), strings.Join(outs, ", "))
	}
	return sb.String()
}
