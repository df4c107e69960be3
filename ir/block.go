package ir

import "slices"

// Block is an ordered list of instructions.
type Block struct {
	instructions []Instruction
	parent       ControlInstruction // nil for function and module root blocks
	function     *Function          // nil for the module root block
}

// NewBlock creates a detached block. Control instruction constructors
// attach their blocks; callers rarely need this directly.
func NewBlock() *Block {
	return &Block{}
}

// Instructions returns the instructions of the block in order.
// The slice must not be modified.
func (b *Block) Instructions() []Instruction { return b.instructions }

// Len returns the number of instructions.
func (b *Block) Len() int { return len(b.instructions) }

// IsEmpty reports whether the block has no instructions.
func (b *Block) IsEmpty() bool { return len(b.instructions) == 0 }

// Front returns the first instruction, or nil.
func (b *Block) Front() Instruction {
	if len(b.instructions) == 0 {
		return nil
	}
	return b.instructions[0]
}

// Back returns the last instruction, or nil.
func (b *Block) Back() Instruction {
	if len(b.instructions) == 0 {
		return nil
	}
	return b.instructions[len(b.instructions)-1]
}

// Terminator returns the terminator of the block, or nil if the block is not terminated.
func (b *Block) Terminator() Terminator {
	t, _ := b.Back().(Terminator)
	return t
}

// Parent returns the control instruction that owns the block, or nil.
func (b *Block) Parent() ControlInstruction { return b.parent }

// Function returns the function that owns the block, or nil for the module root.
func (b *Block) Function() *Function { return b.function }

// IndexOf returns the position of inst in the block, or -1.
func (b *Block) IndexOf(inst Instruction) int {
	return slices.Index(b.instructions, inst)
}

// Append adds inst at the end of the block.
func (b *Block) Append(inst Instruction) {
	b.attach(inst)
	b.instructions = append(b.instructions, inst)
}

// Prepend adds inst at the start of the block.
func (b *Block) Prepend(inst Instruction) {
	b.attach(inst)
	b.instructions = slices.Insert(b.instructions, 0, inst)
}

// InsertBefore inserts inst immediately before ref. ref must be in the block.
func (b *Block) InsertBefore(ref, inst Instruction) {
	b.attach(inst)
	i := b.IndexOf(ref)
	if i < 0 {
		panic("ir: InsertBefore reference is not in block")
	}
	b.instructions = slices.Insert(b.instructions, i, inst)
}

// InsertAfter inserts inst immediately after ref. ref must be in the block.
func (b *Block) InsertAfter(ref, inst Instruction) {
	b.attach(inst)
	i := b.IndexOf(ref)
	if i < 0 {
		panic("ir: InsertAfter reference is not in block")
	}
	b.instructions = slices.Insert(b.instructions, i+1, inst)
}

// Remove detaches inst from the block without touching its operands.
func (b *Block) Remove(inst Instruction) {
	i := b.IndexOf(inst)
	if i < 0 {
		return
	}
	b.instructions = slices.Delete(b.instructions, i, i+1)
	inst.base().block = nil
}

// ReplaceWith swaps old for inst at the same position. old is detached but
// not destroyed.
func (b *Block) ReplaceWith(old, inst Instruction) {
	b.attach(inst)
	i := b.IndexOf(old)
	if i < 0 {
		panic("ir: ReplaceWith reference is not in block")
	}
	b.instructions[i] = inst
	old.base().block = nil
}

func (b *Block) attach(inst Instruction) {
	base := inst.base()
	if base.block != nil {
		base.block.Remove(inst)
	}
	base.block = b
	if c, ok := inst.(ControlInstruction); ok {
		for _, nested := range c.Blocks() {
			nested.setFunction(b.function)
		}
	}
}

func (b *Block) setFunction(f *Function) {
	b.function = f
	for _, inst := range b.instructions {
		if c, ok := inst.(ControlInstruction); ok {
			for _, nested := range c.Blocks() {
				nested.setFunction(f)
			}
		}
	}
}

// Walk calls fn for every instruction in b and its nested blocks, in
// program order. Returning false from fn skips the nested blocks of that
// instruction. Instructions may be removed or inserted around the current
// one while walking.
func Walk(b *Block, fn func(Instruction) bool) {
	for _, inst := range slices.Clone(b.instructions) {
		if !inst.Alive() || inst.Block() != b {
			continue
		}
		if !fn(inst) {
			continue
		}
		if c, ok := inst.(ControlInstruction); ok {
			for _, nested := range c.Blocks() {
				Walk(nested, fn)
			}
		}
	}
}

// IsWithin reports whether b is outer itself or nested (at any depth) inside outer.
func (b *Block) IsWithin(outer *Block) bool {
	for blk := b; blk != nil; {
		if blk == outer {
			return true
		}
		p := blk.parent
		if p == nil {
			return false
		}
		blk = p.Block()
	}
	return false
}
