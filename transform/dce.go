package transform

import (
	"slices"

	"github.com/gogpu/shir/ir"
)

// DeadCodeElimination removes instructions whose results are unused and
// that have no side effects, until nothing more can be removed.
func DeadCodeElimination(m *ir.Module) error {
	for _, f := range m.Functions {
		for removeDead(f.Block) {
		}
	}
	return nil
}

// removeDead makes one backwards sweep over b and reports whether it removed anything.
func removeDead(b *ir.Block) bool {
	changed := false
	for _, inst := range slices.Backward(slices.Clone(b.Instructions())) {
		if c, ok := inst.(ir.ControlInstruction); ok {
			for _, nested := range c.Blocks() {
				if removeDead(nested) {
					changed = true
				}
			}
			continue
		}
		r := inst.Result()
		if r == nil || ir.HasUses(r) || ir.HasSideEffects(inst) {
			continue
		}
		ir.Destroy(inst)
		changed = true
	}
	return changed
}
