package transform

import (
	"slices"

	"github.com/gogpu/shir/ir"
)

// SimplifyPointers removes pointer indirection that text backends cannot
// spell directly. Pointer lets are replaced by the pointer they bind, chains
// of pointer accesses are folded into a single access and accesses without
// indices are replaced by their object. Pointer accesses left without uses
// are removed.
func SimplifyPointers(m *ir.Module) error {
	types := m.Types
	for _, f := range m.Functions {
		var accesses []*ir.Access

		ir.Walk(f.Block, func(inst ir.Instruction) bool {
			switch inst := inst.(type) {
			case *ir.Let:
				if types.IsPointer(inst.Result().Type()) {
					ir.ReplaceAllUsesWith(inst.Result(), inst.Value())
					ir.Destroy(inst)
				}
			case *ir.Access:
				if !types.IsPointer(inst.Result().Type()) {
					break
				}
				if len(inst.Indices()) == 0 {
					ir.ReplaceAllUsesWith(inst.Result(), inst.Object())
					ir.Destroy(inst)
					break
				}
				foldAccess(inst)
				accesses = append(accesses, inst)
			}
			return true
		})

		// Later accesses may have released earlier ones; sweep backwards.
		for _, a := range slices.Backward(accesses) {
			if a.Alive() && !ir.HasUses(a.Result()) {
				ir.Destroy(a)
			}
		}
	}
	return nil
}

// foldAccess merges a's object into a when the object is itself a pointer access.
func foldAccess(a *ir.Access) {
	r, ok := a.Object().(*ir.InstructionResult)
	if !ok {
		return
	}
	inner, ok := r.Instruction().(*ir.Access)
	if !ok {
		return
	}

	operands := make([]ir.Value, 0, len(inner.Operands())+len(a.Indices()))
	operands = append(operands, inner.Operands()...)
	operands = append(operands, a.Indices()...)

	ir.TruncateOperands(a, 0)
	for _, op := range operands {
		ir.AppendOperand(a, op)
	}

	if !ir.HasUses(inner.Result()) {
		ir.Destroy(inner)
	}
}
