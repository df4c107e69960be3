package transform

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/shir/ir"
)

// sinkPrefix starts the name of the bodiless functions that consume the
// side-effecting values of removed phonies.
const sinkPrefix = "phony_sink"

// RemovePhonies deletes phony assignments together with the pure values that
// only exist to feed them. Side-effecting values found while unwinding (calls
// and loads) are preserved in evaluation order: a single call stays as a
// standalone statement, anything else is passed to a generated phony_sink
// function.
func RemovePhonies(m *ir.Module) error {
	r := &removePhonies{
		module:  m,
		builder: ir.NewBuilder(m),
		sinks:   map[string]*ir.Function{},
	}
	for _, f := range m.Functions {
		if strings.HasPrefix(f.Name, sinkPrefix) {
			params := make([]ir.Value, len(f.Params))
			for i, p := range f.Params {
				params[i] = p
			}
			r.sinks[r.signature(params)] = f
		}
	}
	for _, f := range slices.Clone(m.Functions) {
		ir.Walk(f.Block, func(inst ir.Instruction) bool {
			if p, ok := inst.(*ir.Phony); ok {
				r.remove(p)
			}
			return true
		})
	}
	return nil
}

type removePhonies struct {
	module  *ir.Module
	builder *ir.Builder
	sinks   map[string]*ir.Function
}

func (r *removePhonies) remove(p *ir.Phony) {
	v := p.Value()
	blk := p.Block()
	// Blocks end with a terminator, so a phony always has a successor.
	next := blk.Instructions()[blk.IndexOf(p)+1]
	ir.Destroy(p)

	var effects []ir.Value
	sweep(v, &effects)

	switch {
	case len(effects) == 0:
	case len(effects) == 1 && isCall(effects[0]):
	default:
		r.builder.SetBefore(next)
		r.builder.Call(r.sink(effects), effects...)
	}
}

// sweep destroys v if it became unused and is pure, then continues with its
// operands. Side-effecting values are appended to effects in evaluation order.
func sweep(v ir.Value, effects *[]ir.Value) {
	res, ok := v.(*ir.InstructionResult)
	if !ok || ir.HasUses(res) {
		return
	}
	inst := res.Instruction()
	if inst.Accesses().Any() || ir.HasSideEffects(inst) {
		*effects = append(*effects, res)
		return
	}
	operands := slices.Clone(inst.Operands())
	ir.Destroy(inst)
	for _, op := range operands {
		if op != nil {
			sweep(op, effects)
		}
	}
}

func isCall(v ir.Value) bool {
	res, ok := v.(*ir.InstructionResult)
	if !ok {
		return false
	}
	_, ok = res.Instruction().(*ir.Call)
	return ok
}

// signature keys sinks by the types of the values they consume.
func (r *removePhonies) signature(values []ir.Value) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = r.module.Types.Format(v.Type())
	}
	return strings.Join(names, ",")
}

// sink returns the phony_sink function taking the types of values.
func (r *removePhonies) sink(values []ir.Value) *ir.Function {
	key := r.signature(values)
	if f, ok := r.sinks[key]; ok {
		return f
	}

	n := len(r.sinks)
	for r.module.Function(fmt.Sprintf("%s%d", sinkPrefix, n)) != nil {
		n++
	}
	f := r.module.NewFunction(fmt.Sprintf("%s%d", sinkPrefix, n), r.module.Types.Void())
	for i, v := range values {
		f.AddParam(fmt.Sprintf("p%d", i), v.Type())
	}
	b := ir.NewBuilder(r.module)
	b.SetBlock(f.Block)
	b.Return(f, nil)

	r.sinks[key] = f
	return f
}
