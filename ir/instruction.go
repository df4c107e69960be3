package ir

// Instruction is a node of the IR graph. An instruction belongs to at most
// one block, reads zero or more operands and produces zero or one result.
type Instruction interface {
	// Block returns the block that contains the instruction, or nil if detached.
	Block() *Block
	// Operands returns the operand list. Optional operands may be nil.
	Operands() []Value
	// Operand returns the i-th operand, or nil if out of range.
	Operand(i int) Value
	// SetOperand replaces the i-th operand, keeping use lists up to date.
	SetOperand(i int, v Value)
	// Result returns the value produced by the instruction, or nil.
	Result() *InstructionResult
	// Accesses reports the memory accesses performed by the instruction.
	Accesses() Accesses
	// Opcode returns the IR text mnemonic of the instruction.
	Opcode() string
	// Alive reports whether the instruction has not been destroyed.
	Alive() bool

	base() *instructionBase
}

// Accesses is a set of memory access kinds.
type Accesses uint8

const (
	// AccessesLoad means the instruction may read memory.
	AccessesLoad Accesses = 1 << iota
	// AccessesStore means the instruction may write memory or has other side effects.
	AccessesStore
)

// Has reports whether all kinds in o are present.
func (a Accesses) Has(o Accesses) bool { return a&o == o }

// Any reports whether any access is performed.
func (a Accesses) Any() bool { return a != 0 }

type instructionBase struct {
	self     Instruction
	block    *Block
	operands []Value
	result   *InstructionResult
	dead     bool
}

func (i *instructionBase) base() *instructionBase     { return i }
func (i *instructionBase) Block() *Block              { return i.block }
func (i *instructionBase) Operands() []Value          { return i.operands }
func (i *instructionBase) Result() *InstructionResult { return i.result }
func (i *instructionBase) Accesses() Accesses         { return 0 }
func (i *instructionBase) Alive() bool                { return !i.dead }

func (i *instructionBase) Operand(n int) Value {
	if n < 0 || n >= len(i.operands) {
		return nil
	}
	return i.operands[n]
}

func (i *instructionBase) SetOperand(n int, v Value) {
	for len(i.operands) <= n {
		i.operands = append(i.operands, nil)
	}
	if old := i.operands[n]; old != nil {
		old.removeUse(Use{Instruction: i.self, Operand: n})
	}
	i.operands[n] = v
	if v != nil {
		v.addUse(Use{Instruction: i.self, Operand: n})
	}
}

// init wires self and the operands. Must be called once by every constructor.
func (i *instructionBase) init(self Instruction, operands ...Value) {
	i.self = self
	i.operands = make([]Value, 0, len(operands))
	for n, op := range operands {
		i.SetOperand(n, op)
	}
}

// AppendOperand adds an operand at the end of the operand list.
func AppendOperand(inst Instruction, v Value) {
	inst.SetOperand(len(inst.Operands()), v)
}

// TruncateOperands drops operands from index n onwards.
func TruncateOperands(inst Instruction, n int) {
	b := inst.base()
	for len(b.operands) > n {
		last := len(b.operands) - 1
		b.self.SetOperand(last, nil)
		b.operands = b.operands[:last]
	}
}

// Destroy detaches inst from its block, drops its operand uses and marks
// it dead. Nested blocks of control instructions are destroyed recursively.
// The result must have no remaining uses.
func Destroy(inst Instruction) {
	b := inst.base()
	if b.dead {
		return
	}
	if b.block != nil {
		b.block.Remove(inst)
	}
	for n := range b.operands {
		inst.SetOperand(n, nil)
	}
	if c, ok := inst.(ControlInstruction); ok {
		for _, blk := range c.Blocks() {
			for _, nested := range append([]Instruction(nil), blk.instructions...) {
				Destroy(nested)
			}
		}
	}
	b.dead = true
}

// ControlInstruction is an instruction that owns nested blocks.
type ControlInstruction interface {
	Instruction
	Blocks() []*Block
}

// Terminator is an instruction that must be the last in its block.
type Terminator interface {
	Instruction
	terminator()
}

// IsTerminator reports whether inst ends a block.
func IsTerminator(inst Instruction) bool {
	_, ok := inst.(Terminator)
	return ok
}

// HasSideEffects reports whether removing inst could change program behavior
// even if its result is unused.
func HasSideEffects(inst Instruction) bool {
	switch inst.(type) {
	case ControlInstruction, Terminator, *Store, *Call, *Phony:
		return true
	}
	return inst.Accesses().Has(AccessesStore)
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

// Var declares a variable. The result is a pointer to the variable.
// Operand 0 is the optional initializer.
type Var struct {
	instructionBase
	Binding *ResourceBinding // group/binding for uniform and storage variables
}

func (*Var) Opcode() string { return "var" }

// Initializer returns the initializer value, or nil.
func (v *Var) Initializer() Value { return v.Operand(0) }

// ResourceBinding represents a resource binding.
type ResourceBinding struct {
	Group   uint32
	Binding uint32
}

// Let binds a value to a name.
type Let struct{ instructionBase }

func (*Let) Opcode() string { return "let" }

// Value returns the bound value.
func (l *Let) Value() Value { return l.Operand(0) }

// Load reads the value behind a pointer.
type Load struct{ instructionBase }

func (*Load) Opcode() string     { return "load" }
func (*Load) Accesses() Accesses { return AccessesLoad }
func (l *Load) From() Value      { return l.Operand(0) }

// Store writes a value through a pointer.
type Store struct{ instructionBase }

func (*Store) Opcode() string     { return "store" }
func (*Store) Accesses() Accesses { return AccessesStore }
func (s *Store) To() Value        { return s.Operand(0) }
func (s *Store) Value() Value     { return s.Operand(1) }

// Access indexes into a composite value or a pointer to a composite.
// If the object is a pointer the result is a pointer.
type Access struct{ instructionBase }

func (*Access) Opcode() string { return "access" }

// Object returns the accessed value or pointer.
func (a *Access) Object() Value { return a.Operand(0) }

// Indices returns the index list.
func (a *Access) Indices() []Value { return a.operands[1:] }

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

// BinaryOp represents binary operators.
type BinaryOp uint8

const (
	BinaryAdd BinaryOp = iota
	BinarySubtract
	BinaryMultiply
	BinaryDivide
	BinaryModulo
	BinaryAnd
	BinaryOr
	BinaryXor
	BinaryShiftLeft
	BinaryShiftRight
	BinaryEqual
	BinaryNotEqual
	BinaryLess
	BinaryLessEqual
	BinaryGreater
	BinaryGreaterEqual
)

var binaryOpNames = [...]string{
	"add", "sub", "mul", "div", "mod", "and", "or", "xor", "shl", "shr",
	"eq", "ne", "lt", "le", "gt", "ge",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// IsComparison reports whether the operator produces a bool.
func (op BinaryOp) IsComparison() bool { return op >= BinaryEqual }

// ParseBinaryOp parses a binary mnemonic.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	for i, n := range binaryOpNames {
		if n == s {
			return BinaryOp(i), true
		}
	}
	return 0, false
}

// Binary applies a binary operator to two operands.
type Binary struct {
	instructionBase
	Op BinaryOp
}

func (b *Binary) Opcode() string { return b.Op.String() }
func (b *Binary) LHS() Value     { return b.Operand(0) }
func (b *Binary) RHS() Value     { return b.Operand(1) }

// UnaryOp represents unary operators.
type UnaryOp uint8

const (
	UnaryNegate UnaryOp = iota
	UnaryNot
	UnaryComplement
)

var unaryOpNames = [...]string{"neg", "not", "complement"}

func (op UnaryOp) String() string { return unaryOpNames[op] }

// ParseUnaryOp parses a unary mnemonic.
func ParseUnaryOp(s string) (UnaryOp, bool) {
	for i, n := range unaryOpNames {
		if n == s {
			return UnaryOp(i), true
		}
	}
	return 0, false
}

// Unary applies a unary operator.
type Unary struct {
	instructionBase
	Op UnaryOp
}

func (u *Unary) Opcode() string { return u.Op.String() }
func (u *Unary) Value() Value   { return u.Operand(0) }

// Convert is a value conversion between numeric and bool types.
type Convert struct{ instructionBase }

func (*Convert) Opcode() string { return "convert" }
func (c *Convert) Value() Value { return c.Operand(0) }

// Bitcast reinterprets the bits of a value.
type Bitcast struct{ instructionBase }

func (*Bitcast) Opcode() string { return "bitcast" }
func (c *Bitcast) Value() Value { return c.Operand(0) }

// Construct builds a composite from its operands. A single scalar operand
// for a vector result splats.
type Construct struct{ instructionBase }

func (*Construct) Opcode() string { return "construct" }

// Swizzle selects vector components.
type Swizzle struct {
	instructionBase
	Indices []uint32
}

func (*Swizzle) Opcode() string { return "swizzle" }
func (s *Swizzle) Value() Value { return s.Operand(0) }

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// Call calls a user function.
type Call struct {
	instructionBase
	Target *Function
}

func (*Call) Opcode() string     { return "call" }
func (*Call) Accesses() Accesses { return AccessesLoad | AccessesStore }
func (c *Call) Args() []Value    { return c.operands }

// BuiltinCall calls a side-effect free builtin function.
type BuiltinCall struct {
	instructionBase
	Func BuiltinFunc
}

func (c *BuiltinCall) Opcode() string { return c.Func.String() }
func (c *BuiltinCall) Args() []Value  { return c.operands }

// Phony evaluates a value and discards it.
type Phony struct{ instructionBase }

func (*Phony) Opcode() string { return "phony" }
func (p *Phony) Value() Value { return p.Operand(0) }

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

// If executes True when the condition holds and False otherwise.
type If struct {
	instructionBase
	True  *Block
	False *Block
}

func (*If) Opcode() string     { return "if" }
func (i *If) Condition() Value { return i.Operand(0) }
func (i *If) Blocks() []*Block { return []*Block{i.True, i.False} }

// Loop executes Body repeatedly. Continuing runs at the end of each iteration
// and after a continue.
type Loop struct {
	instructionBase
	Body       *Block
	Continuing *Block
}

func (*Loop) Opcode() string     { return "loop" }
func (l *Loop) Blocks() []*Block { return []*Block{l.Body, l.Continuing} }

// Switch executes the case whose selectors match the selector value.
type Switch struct {
	instructionBase
	Cases []*SwitchCase
}

// SwitchCase is one arm of a switch.
type SwitchCase struct {
	Selectors []CaseSelector
	Block     *Block
}

// CaseSelector is a case value or the default marker.
type CaseSelector struct {
	Default bool
	Value   uint32 // bit pattern of the i32/u32 case value
}

func (*Switch) Opcode() string    { return "switch" }
func (s *Switch) Selector() Value { return s.Operand(0) }

func (s *Switch) Blocks() []*Block {
	blocks := make([]*Block, len(s.Cases))
	for i, c := range s.Cases {
		blocks[i] = c.Block
	}
	return blocks
}

// IsDefault reports whether the case contains the default selector.
func (c *SwitchCase) IsDefault() bool {
	for _, s := range c.Selectors {
		if s.Default {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Terminators
// ---------------------------------------------------------------------------

// Return returns from the function, optionally with a value.
type Return struct {
	instructionBase
	Function *Function
}

func (*Return) Opcode() string { return "ret" }
func (*Return) terminator()    {}
func (r *Return) Value() Value { return r.Operand(0) }

// ExitIf leaves an if.
type ExitIf struct {
	instructionBase
	If *If
}

func (*ExitIf) Opcode() string { return "exit_if" }
func (*ExitIf) terminator()    {}

// ExitLoop leaves a loop.
type ExitLoop struct {
	instructionBase
	Loop *Loop
}

func (*ExitLoop) Opcode() string { return "exit_loop" }
func (*ExitLoop) terminator()    {}

// ExitSwitch leaves a switch.
type ExitSwitch struct {
	instructionBase
	Switch *Switch
}

func (*ExitSwitch) Opcode() string { return "exit_switch" }
func (*ExitSwitch) terminator()    {}

// Continue jumps from the loop body to the continuing block.
type Continue struct {
	instructionBase
	Loop *Loop
}

func (*Continue) Opcode() string { return "continue" }
func (*Continue) terminator()    {}

// NextIteration ends the continuing block and starts the next iteration.
type NextIteration struct {
	instructionBase
	Loop *Loop
}

func (*NextIteration) Opcode() string { return "next_iteration" }
func (*NextIteration) terminator()    {}

// BreakIf ends the continuing block, leaving the loop if the condition holds.
type BreakIf struct {
	instructionBase
	Loop *Loop
}

func (*BreakIf) Opcode() string     { return "break_if" }
func (*BreakIf) terminator()        {}
func (b *BreakIf) Condition() Value { return b.Operand(0) }

// Discard ends the invocation (fragment shaders only).
type Discard struct{ instructionBase }

func (*Discard) Opcode() string     { return "discard" }
func (*Discard) terminator()        {}
func (*Discard) Accesses() Accesses { return AccessesStore }

// Unreachable marks a point control never reaches.
type Unreachable struct{ instructionBase }

func (*Unreachable) Opcode() string { return "unreachable" }
func (*Unreachable) terminator()    {}
