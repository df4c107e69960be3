package ir

// Builder creates instructions and inserts them at a cursor.
//
// The zero insertion point creates detached instructions. SetBlock appends
// to the end of a block; SetBefore and SetAfter insert relative to an
// existing instruction. With SetAfter, consecutive instructions keep their
// creation order.
type Builder struct {
	Module *Module

	block  *Block
	before Instruction
	after  Instruction
}

// NewBuilder creates a builder for m with no insertion point.
func NewBuilder(m *Module) *Builder {
	return &Builder{Module: m}
}

// SetBlock makes the builder append to the end of b.
func (b *Builder) SetBlock(blk *Block) {
	b.block, b.before, b.after = blk, nil, nil
}

// SetBefore makes the builder insert immediately before ref.
func (b *Builder) SetBefore(ref Instruction) {
	b.block, b.before, b.after = ref.Block(), ref, nil
}

// SetAfter makes the builder insert immediately after ref.
func (b *Builder) SetAfter(ref Instruction) {
	b.block, b.before, b.after = ref.Block(), nil, ref
}

// ClearInsertionPoint makes the builder create detached instructions.
func (b *Builder) ClearInsertionPoint() {
	b.block, b.before, b.after = nil, nil, nil
}

// Block returns the block the builder inserts into.
func (b *Builder) Block() *Block { return b.block }

func (b *Builder) insert(inst Instruction) {
	switch {
	case b.block == nil:
	case b.before != nil:
		b.block.InsertBefore(b.before, inst)
	case b.after != nil:
		b.block.InsertAfter(b.after, inst)
		b.after = inst
	default:
		b.block.Append(inst)
	}
}

func (b *Builder) result(inst Instruction, t TypeHandle) {
	ib := inst.base()
	ib.result = &InstructionResult{
		valueBase:   valueBase{id: b.Module.allocID(), typ: t},
		instruction: inst,
	}
}

func (b *Builder) finish(inst Instruction, t TypeHandle, hasResult bool, operands ...Value) {
	inst.base().init(inst, operands...)
	if hasResult {
		b.result(inst, t)
	}
	b.insert(inst)
}

// Types returns the module type registry.
func (b *Builder) Types() *TypeRegistry { return b.Module.Types }

// Var declares a variable of pointer type ptr. init may be nil.
func (b *Builder) Var(ptr TypeHandle, init Value) *Var {
	v := &Var{}
	if init != nil {
		b.finish(v, ptr, true, init)
	} else {
		b.finish(v, ptr, true)
	}
	return v
}

// Let binds v.
func (b *Builder) Let(v Value) *Let {
	l := &Let{}
	b.finish(l, v.Type(), true, v)
	return l
}

// Load reads through ptr.
func (b *Builder) Load(ptr Value) *Load {
	l := &Load{}
	t := ptr.Type()
	if p, ok := b.Module.Types.PointeeOf(t); ok {
		t = p.Base
	}
	b.finish(l, t, true, ptr)
	return l
}

// Store writes v through ptr.
func (b *Builder) Store(ptr, v Value) *Store {
	s := &Store{}
	b.finish(s, 0, false, ptr, v)
	return s
}

// Access indexes into obj. t is the result type.
func (b *Builder) Access(t TypeHandle, obj Value, indices ...Value) *Access {
	a := &Access{}
	b.finish(a, t, true, append([]Value{obj}, indices...)...)
	return a
}

// Binary applies op.
func (b *Builder) Binary(op BinaryOp, t TypeHandle, lhs, rhs Value) *Binary {
	i := &Binary{Op: op}
	b.finish(i, t, true, lhs, rhs)
	return i
}

// Unary applies op.
func (b *Builder) Unary(op UnaryOp, t TypeHandle, v Value) *Unary {
	i := &Unary{Op: op}
	b.finish(i, t, true, v)
	return i
}

// Convert converts v to t.
func (b *Builder) Convert(t TypeHandle, v Value) *Convert {
	i := &Convert{}
	b.finish(i, t, true, v)
	return i
}

// Bitcast reinterprets v as t.
func (b *Builder) Bitcast(t TypeHandle, v Value) *Bitcast {
	i := &Bitcast{}
	b.finish(i, t, true, v)
	return i
}

// Construct builds a value of type t.
func (b *Builder) Construct(t TypeHandle, args ...Value) *Construct {
	i := &Construct{}
	b.finish(i, t, true, args...)
	return i
}

// Swizzle selects components of v.
func (b *Builder) Swizzle(t TypeHandle, v Value, indices ...uint32) *Swizzle {
	i := &Swizzle{Indices: indices}
	b.finish(i, t, true, v)
	return i
}

// Call calls f. Calls to void functions have no result.
func (b *Builder) Call(f *Function, args ...Value) *Call {
	c := &Call{Target: f}
	b.finish(c, f.ReturnType, !b.Module.Types.IsVoid(f.ReturnType), args...)
	return c
}

// CallBuiltin calls a builtin with result type t.
func (b *Builder) CallBuiltin(fn BuiltinFunc, t TypeHandle, args ...Value) *BuiltinCall {
	c := &BuiltinCall{Func: fn}
	b.finish(c, t, true, args...)
	return c
}

// Phony discards v.
func (b *Builder) Phony(v Value) *Phony {
	p := &Phony{}
	b.finish(p, 0, false, v)
	return p
}

// Return returns from f. v may be nil.
func (b *Builder) Return(f *Function, v Value) *Return {
	r := &Return{Function: f}
	if v != nil {
		b.finish(r, 0, false, v)
	} else {
		b.finish(r, 0, false)
	}
	return r
}

// If creates an if with empty true and false blocks.
func (b *Builder) If(cond Value) *If {
	i := &If{}
	i.True = &Block{parent: i}
	i.False = &Block{parent: i}
	b.finish(i, 0, false, cond)
	return i
}

// Loop creates a loop with empty body and continuing blocks.
func (b *Builder) Loop() *Loop {
	l := &Loop{}
	l.Body = &Block{parent: l}
	l.Continuing = &Block{parent: l}
	b.finish(l, 0, false)
	return l
}

// Switch creates a switch without cases.
func (b *Builder) Switch(selector Value) *Switch {
	s := &Switch{}
	b.finish(s, 0, false, selector)
	return s
}

// AddCase appends a case to s and returns its block.
func (s *Switch) AddCase(selectors ...CaseSelector) *Block {
	blk := &Block{parent: s}
	if s.block != nil {
		blk.function = s.block.function
	}
	s.Cases = append(s.Cases, &SwitchCase{Selectors: selectors, Block: blk})
	return blk
}

// ExitIf leaves i.
func (b *Builder) ExitIf(i *If) *ExitIf {
	e := &ExitIf{If: i}
	b.finish(e, 0, false)
	return e
}

// ExitLoop leaves l.
func (b *Builder) ExitLoop(l *Loop) *ExitLoop {
	e := &ExitLoop{Loop: l}
	b.finish(e, 0, false)
	return e
}

// ExitSwitch leaves s.
func (b *Builder) ExitSwitch(s *Switch) *ExitSwitch {
	e := &ExitSwitch{Switch: s}
	b.finish(e, 0, false)
	return e
}

// Continue jumps to the continuing block of l.
func (b *Builder) Continue(l *Loop) *Continue {
	c := &Continue{Loop: l}
	b.finish(c, 0, false)
	return c
}

// NextIteration starts the next iteration of l.
func (b *Builder) NextIteration(l *Loop) *NextIteration {
	n := &NextIteration{Loop: l}
	b.finish(n, 0, false)
	return n
}

// BreakIf leaves l when cond holds.
func (b *Builder) BreakIf(l *Loop, cond Value) *BreakIf {
	bi := &BreakIf{Loop: l}
	b.finish(bi, 0, false, cond)
	return bi
}

// Discard ends the invocation.
func (b *Builder) Discard() *Discard {
	d := &Discard{}
	b.finish(d, 0, false)
	return d
}

// Unreachable marks unreachable code.
func (b *Builder) Unreachable() *Unreachable {
	u := &Unreachable{}
	b.finish(u, 0, false)
	return u
}
