package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseLists(t *testing.T) {
	m := NewModule()
	f32 := m.Types.Scalar(F32)
	f := m.NewFunction("f", f32)
	p := f.AddParam("p", f32)
	b := NewBuilder(m)
	b.SetBlock(f.Block)

	add := b.Binary(BinaryAdd, f32, p, p)
	require.Len(t, p.Uses(), 2)
	assert.Equal(t, Use{Instruction: add, Operand: 0}, p.Uses()[0])
	assert.Equal(t, Use{Instruction: add, Operand: 1}, p.Uses()[1])

	q := f.AddParam("q", f32)
	add.SetOperand(1, q)
	assert.Len(t, p.Uses(), 1)
	assert.Len(t, q.Uses(), 1)

	ReplaceAllUsesWith(p, q)
	assert.False(t, HasUses(p))
	assert.Len(t, q.Uses(), 2)
	assert.Same(t, q, add.LHS())

	ret := b.Return(f, add.Result())
	require.True(t, HasUses(add.Result()))
	Destroy(ret)
	assert.False(t, ret.Alive())
	assert.False(t, HasUses(add.Result()))
	assert.Equal(t, 1, f.Block.Len())
	assert.Nil(t, ret.Block())
}

func TestValueIDsAreUnique(t *testing.T) {
	m := NewModule()
	f32 := m.Types.Scalar(F32)
	f := m.NewFunction("f", f32)
	p := f.AddParam("p", f32)
	c := m.ConstF32(1)
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	add := b.Binary(BinaryAdd, f32, p, c)

	ids := map[ValueID]bool{p.ID(): true}
	assert.False(t, ids[c.ID()])
	ids[c.ID()] = true
	assert.False(t, ids[add.Result().ID()])
}

func TestBuilderInsertionPoints(t *testing.T) {
	m := NewModule()
	f32 := m.Types.Scalar(F32)
	f := m.NewFunction("f", f32)
	p := f.AddParam("p", f32)
	b := NewBuilder(m)
	b.SetBlock(f.Block)

	first := b.Unary(UnaryNegate, f32, p)
	ret := b.Return(f, first.Result())

	b.SetAfter(first)
	second := b.Binary(BinaryAdd, f32, first.Result(), p)
	third := b.Binary(BinaryMultiply, f32, second.Result(), p)

	b.SetBefore(ret)
	fourth := b.Let(third.Result())

	assert.Equal(t, []Instruction{first, second, third, fourth, ret}, f.Block.Instructions())
	for _, inst := range f.Block.Instructions() {
		assert.Same(t, f.Block, inst.Block())
	}

	b.ClearInsertionPoint()
	detached := b.Unary(UnaryNegate, f32, p)
	assert.Nil(t, detached.Block())
	assert.Equal(t, 5, f.Block.Len())
}

func TestControlBlocksOwnership(t *testing.T) {
	m := NewModule()
	f := m.NewFunction("f", m.Types.Void())
	b := NewBuilder(m)
	b.SetBlock(f.Block)

	loop := b.Loop()
	b.SetBlock(loop.Body)
	cond := b.If(m.ConstBool(true))
	sw := b.Switch(m.ConstI32(1))
	caseBlock := sw.AddCase(CaseSelector{Value: 1}, CaseSelector{Default: true})

	for _, blk := range []*Block{loop.Body, loop.Continuing, cond.True, cond.False, caseBlock} {
		assert.Same(t, f, blk.Function())
	}
	assert.Equal(t, ControlInstruction(loop), loop.Body.Parent())
	assert.Equal(t, ControlInstruction(sw), caseBlock.Parent())
	assert.True(t, caseBlock.IsWithin(f.Block))
	assert.True(t, cond.True.IsWithin(loop.Body))
	assert.False(t, loop.Continuing.IsWithin(loop.Body))
	assert.True(t, sw.Cases[0].IsDefault())
}

func TestWalk(t *testing.T) {
	m := buildCounter()
	f := m.Function("main")
	require.NotNil(t, f)

	var opcodes []string
	Walk(f.Block, func(inst Instruction) bool {
		opcodes = append(opcodes, inst.Opcode())
		return true
	})
	assert.Equal(t, []string{
		"var", "loop",
		"load", "ge", "if", "exit_loop", "exit_if", "continue",
		"load", "add", "store", "next_iteration",
		"load", "convert", "construct", "ret",
	}, opcodes)

	// Skipping nested blocks.
	n := 0
	Walk(f.Block, func(inst Instruction) bool {
		n++
		return false
	})
	assert.Equal(t, f.Block.Len(), n)
	assert.Equal(t, 16, m.InstructionCount())
}

func TestWalkTolerantOfRemoval(t *testing.T) {
	m := buildCounter()
	f := m.Function("main")

	var seen []string
	Walk(f.Block, func(inst Instruction) bool {
		seen = append(seen, inst.Opcode())
		if _, ok := inst.(*Loop); ok {
			Destroy(inst)
			return false
		}
		return true
	})
	assert.Equal(t, []string{"var", "loop", "load", "convert", "construct", "ret"}, seen)
}

func TestTypeRegistryInterning(t *testing.T) {
	r := NewTypeRegistry()
	a := r.Vector(Vec3, F32)
	b := r.GetOrCreate("ignored", VectorType{Size: Vec3, Scalar: F32})
	assert.Equal(t, a, b)

	s1 := r.GetOrCreate("S", StructType{Members: []StructMember{{Name: "a", Type: a}}})
	s2 := r.GetOrCreate("T", StructType{Members: []StructMember{{Name: "a", Type: a}}})
	assert.NotEqual(t, s1, s2)
	h, ok := r.Struct("T")
	require.True(t, ok)
	assert.Equal(t, s2, h)

	assert.Equal(t, "vec3<f32>", r.Format(a))
	assert.Equal(t, "array<vec3<f32>, 4>", r.Format(r.Array(a, 4)))
	assert.Equal(t, "array<f32>", r.Format(r.Array(r.Scalar(F32), 0)))
	assert.Equal(t, "ptr<storage, S, read>", r.Format(r.Pointer(SpaceStorage, s1, AccessRead)))
	assert.Equal(t, r.Vector(Vec3, I32), r.WithScalar(a, I32))
}

func TestFormatConstant(t *testing.T) {
	m := NewModule()
	tests := []struct {
		c    *Constant
		want string
	}{
		{m.ConstI32(-5), "-5i"},
		{m.ConstU32(7), "7u"},
		{m.ConstF32(1), "1.0f"},
		{m.ConstF32(1.5), "1.5f"},
		{m.ConstF32(2147483520), "2147483520.0f"},
		{m.ConstF16(0.25), "0.25h"},
		{m.ConstBool(true), "true"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			s, ok := ScalarConstant(tt.c)
			require.True(t, ok)
			st, _ := m.Types.Inner(tt.c.Type()).(ScalarType)
			assert.Equal(t, tt.want, FormatConstant(s, st))
		})
	}
}

func TestBuiltinResultType(t *testing.T) {
	r := NewTypeRegistry()
	f32 := r.Scalar(F32)
	vec3 := r.Vector(Vec3, F32)
	bvec3 := r.Vector(Vec3, Bool)

	got, ok := BuiltinDot.ResultType(r, []TypeHandle{vec3, vec3})
	require.True(t, ok)
	assert.Equal(t, f32, got)

	got, ok = BuiltinSelect.ResultType(r, []TypeHandle{vec3, vec3, bvec3})
	require.True(t, ok)
	assert.Equal(t, vec3, got)

	_, ok = BuiltinSqrt.ResultType(r, []TypeHandle{r.Scalar(I32)})
	assert.False(t, ok)

	fn, ok := ParseBuiltinFunc("normalize")
	require.True(t, ok)
	assert.Equal(t, BuiltinNormalize, fn)
}

func TestCallOrder(t *testing.T) {
	m := NewModule()
	void := m.Types.Void()
	main := m.NewFunction("main", void)
	helper := m.NewFunction("helper", void)
	leaf := m.NewFunction("leaf", void)

	b := NewBuilder(m)
	b.SetBlock(main.Block)
	b.Call(helper)
	b.Return(main, nil)
	b.SetBlock(helper.Block)
	b.Call(leaf)
	b.Return(helper, nil)
	b.SetBlock(leaf.Block)
	b.Return(leaf, nil)

	assert.Equal(t, []*Function{leaf, helper, main}, m.CallOrder())
}
