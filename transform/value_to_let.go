package transform

import (
	"slices"

	"github.com/gogpu/shir/ir"
)

// ValueToLet binds instruction results to lets wherever emitting them inline
// at their use could change the program. A result stays inlinable only when
// it has exactly one use, that use is in the same block and no memory access
// or side effect between the definition and the use conflicts with it.
//
// Pointer results are never bound since backends re-emit pointer expressions
// at each use. The non-constant indices of a pointer access that is re-emitted
// more than once are bound instead.
func ValueToLet(m *ir.Module) error {
	for _, f := range m.Functions {
		v := &valueToLet{builder: ir.NewBuilder(m), types: m.Types}
		v.block(f.Block)
	}
	return nil
}

type valueToLet struct {
	builder *ir.Builder
	types   *ir.TypeRegistry
}

// pendingValue is a result that will be emitted at its use.
type pendingValue struct {
	inst     ir.Instruction
	accesses ir.Accesses // including the accesses of values inlined into it
}

func (v *valueToLet) block(b *ir.Block) {
	var pending []pendingValue

	indexOf := func(val ir.Value) int {
		r, ok := val.(*ir.InstructionResult)
		if !ok {
			return -1
		}
		return slices.IndexFunc(pending, func(p pendingValue) bool { return p.inst == r.Instruction() })
	}
	bind := func(i int) {
		v.bind(pending[i].inst)
		pending = slices.Delete(pending, i, i+1)
	}

	for _, inst := range slices.Clone(b.Instructions()) {
		accesses := inst.Accesses()

		if c, ok := inst.(ir.ControlInstruction); ok {
			for _, nested := range c.Blocks() {
				accesses |= blockAccesses(nested)
			}
		}

		// A pointer access used more than once is re-emitted at every use, so
		// its operands cannot be inlined into it.
		reemitted := false
		if a, ok := inst.(*ir.Access); ok && v.types.IsPointer(a.Result().Type()) {
			reemitted = ir.HasUses(a.Result()) && !v.inlinable(a)
		}

		// Operands are evaluated in order. A pending value with accesses that
		// is consumed after a later-defined one would be evaluated out of order.
		last := -1
		var consumed []pendingValue
		for _, op := range inst.Operands() {
			i := indexOf(op)
			if i < 0 {
				continue
			}
			if reemitted && !v.types.IsPointer(op.Type()) {
				bind(i)
				continue
			}
			if pending[i].accesses.Any() {
				if i < last {
					bind(i)
					last--
					continue
				}
				last = i
			}
			consumed = append(consumed, pending[i])
		}
		for _, c := range consumed {
			accesses |= c.accesses
			i := slices.IndexFunc(pending, func(p pendingValue) bool { return p.inst == c.inst })
			pending = slices.Delete(pending, i, i+1)
		}

		// Pending values are evaluated after inst; bind the ones whose
		// accesses would be reordered across it.
		for i := len(pending) - 1; i >= 0; i-- {
			if conflicts(accesses, pending[i].accesses) {
				bind(i)
			}
		}

		if c, ok := inst.(ir.ControlInstruction); ok {
			for _, nested := range c.Blocks() {
				v.block(nested)
			}
		}

		r := inst.Result()
		if r == nil || !ir.HasUses(r) {
			continue
		}
		switch inst.(type) {
		case *ir.Var, *ir.Let:
			continue
		}

		if v.types.IsPointer(r.Type()) {
			if _, ok := inst.(*ir.Access); ok && !reemitted {
				pending = append(pending, pendingValue{inst: inst, accesses: accesses})
			}
			continue
		}

		if v.inlinable(inst) {
			pending = append(pending, pendingValue{inst: inst, accesses: accesses})
			continue
		}
		v.bind(inst)
	}
}

// inlinable reports whether inst has a single unnamed use in its own block.
func (v *valueToLet) inlinable(inst ir.Instruction) bool {
	r := inst.Result()
	if r.Name() != "" {
		return false
	}
	uses := r.Uses()
	return len(uses) == 1 && uses[0].Instruction.Block() == inst.Block()
}

// bind inserts a let after inst and redirects all uses of its result to the let.
func (v *valueToLet) bind(inst ir.Instruction) {
	r := inst.Result()
	uses := slices.Clone(r.Uses())

	v.builder.SetAfter(inst)
	l := v.builder.Let(r)
	for _, u := range uses {
		u.Instruction.SetOperand(u.Operand, l.Result())
	}
	if name := r.Name(); name != "" {
		l.Result().SetName(name)
		r.SetName("")
	}
}

// conflicts reports whether a value with accesses b may not be moved after
// an instruction with accesses a.
func conflicts(a, b ir.Accesses) bool {
	return (a.Has(ir.AccessesStore) && b.Any()) || (a.Has(ir.AccessesLoad) && b.Has(ir.AccessesStore))
}

// blockAccesses returns the union of the accesses of all instructions in b.
func blockAccesses(b *ir.Block) ir.Accesses {
	var acc ir.Accesses
	ir.Walk(b, func(inst ir.Instruction) bool {
		acc |= inst.Accesses()
		return true
	})
	return acc
}
