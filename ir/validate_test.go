package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCounter builds a fragment shader that counts to four in a loop:
//
//	var counter = 0i
//	loop { if counter >= 4 { break } continuing { counter += 1 } }
//	return vec4(f32(counter))
func buildCounter() *Module {
	m := NewModule()
	i32 := m.Types.Scalar(I32)
	f32 := m.Types.Scalar(F32)
	vec4 := m.Types.Vector(Vec4, F32)

	f := m.NewFunction("main", vec4)
	f.Stage = StageFragment
	f.ReturnBinding = LocationBinding{Location: 0}

	b := NewBuilder(m)
	b.SetBlock(f.Block)
	counter := b.Var(m.Types.Pointer(SpaceFunction, i32, AccessReadWrite), m.ConstI32(0))
	counter.Result().SetName("counter")

	loop := b.Loop()
	b.SetBlock(loop.Body)
	cur := b.Load(counter.Result())
	done := b.Binary(BinaryGreaterEqual, m.Types.Scalar(Bool), cur.Result(), m.ConstI32(4))
	cond := b.If(done.Result())
	b.Continue(loop)

	b.SetBlock(cond.True)
	b.ExitLoop(loop)
	b.SetBlock(cond.False)
	b.ExitIf(cond)

	b.SetBlock(loop.Continuing)
	cur2 := b.Load(counter.Result())
	next := b.Binary(BinaryAdd, i32, cur2.Result(), m.ConstI32(1))
	b.Store(counter.Result(), next.Result())
	b.NextIteration(loop)

	b.SetBlock(f.Block)
	final := b.Load(counter.Result())
	conv := b.Convert(f32, final.Result())
	col := b.Construct(vec4, conv.Result())
	b.Return(f, col.Result())
	return m
}

func requireValid(t *testing.T, m *Module) {
	t.Helper()
	errs, err := Validate(m)
	require.NoError(t, err)
	for _, e := range errs {
		t.Errorf("unexpected validation error: %s", e.Error())
	}
}

func requireInvalid(t *testing.T, m *Module, substr string) {
	t.Helper()
	errs, err := Validate(m)
	require.NoError(t, err)
	require.NotEmpty(t, errs, "expected validation errors")
	for _, e := range errs {
		if strings.Contains(e.Error(), substr) {
			return
		}
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	t.Fatalf("no error contains %q; got:\n%s", substr, strings.Join(msgs, "\n"))
}

func TestValidate_ValidModule(t *testing.T) {
	requireValid(t, buildCounter())
}

func TestValidate_NilModule(t *testing.T) {
	_, err := Validate(nil)
	assert.Error(t, err)
}

func TestValidate_MissingTerminator(t *testing.T) {
	m := buildCounter()
	f := m.Function("main")
	Destroy(f.Block.Back())
	requireInvalid(t, m, "block does not end with a terminator")
}

func TestValidate_TerminatorNotLast(t *testing.T) {
	m := NewModule()
	f := m.NewFunction("f", m.Types.Void())
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	b.Return(f, nil)
	b.Return(f, nil)
	requireInvalid(t, m, "terminator must be the last instruction")
}

func TestValidate_EmptyBlock(t *testing.T) {
	m := NewModule()
	m.NewFunction("f", m.Types.Void())
	requireInvalid(t, m, "block is empty")
}

func TestValidate_ValueNotVisibleAfterIf(t *testing.T) {
	m := NewModule()
	f32 := m.Types.Scalar(F32)
	f := m.NewFunction("f", f32)
	p := f.AddParam("p", f32)
	b := NewBuilder(m)
	b.SetBlock(f.Block)

	cond := b.If(m.ConstBool(true))
	b.SetBlock(cond.True)
	inner := b.Unary(UnaryNegate, f32, p)
	b.ExitIf(cond)
	b.SetBlock(cond.False)
	b.ExitIf(cond)

	b.SetBlock(f.Block)
	b.Return(f, inner.Result())
	requireInvalid(t, m, "is not visible")
}

func TestValidate_ContinuingCannotSeeBody(t *testing.T) {
	m := buildCounter()
	f := m.Function("main")
	loop := f.Block.Instructions()[1].(*Loop)
	bodyLoad := loop.Body.Front().(*Load)
	add := loop.Continuing.Instructions()[1].(*Binary)
	add.SetOperand(0, bodyLoad.Result())
	requireInvalid(t, m, "is not visible")
}

func TestValidate_StaleUseList(t *testing.T) {
	m := buildCounter()
	f := m.Function("main")
	ret := f.Block.Back().(*Return)
	// Bypass SetOperand so the use list is not updated.
	ret.operands[0] = m.ConstF32(1)
	requireInvalid(t, m, "does not record this use")
}

func TestValidate_ExitLoopAcrossSwitch(t *testing.T) {
	m := NewModule()
	f := m.NewFunction("f", m.Types.Void())
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	loop := b.Loop()
	b.Return(f, nil)

	b.SetBlock(loop.Body)
	sw := b.Switch(m.ConstI32(0))
	b.ExitLoop(loop)
	b.SetBlock(sw.AddCase(CaseSelector{Default: true}))
	b.ExitLoop(loop)

	b.SetBlock(loop.Continuing)
	b.NextIteration(loop)

	requireInvalid(t, m, "exit_loop must be in the body of its loop")
}

func TestValidate_ContinueInContinuing(t *testing.T) {
	m := NewModule()
	f := m.NewFunction("f", m.Types.Void())
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	loop := b.Loop()
	b.Return(f, nil)
	b.SetBlock(loop.Body)
	b.ExitLoop(loop)
	b.SetBlock(loop.Continuing)
	b.Continue(loop)

	requireInvalid(t, m, "continue must be in the body of its loop")
}

func TestValidate_BreakIfOutsideContinuing(t *testing.T) {
	m := NewModule()
	f := m.NewFunction("f", m.Types.Void())
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	loop := b.Loop()
	b.Return(f, nil)
	b.SetBlock(loop.Body)
	b.BreakIf(loop, m.ConstBool(true))
	b.SetBlock(loop.Continuing)
	b.NextIteration(loop)

	requireInvalid(t, m, "break_if must terminate the continuing block")
}

func TestValidate_SwitchCases(t *testing.T) {
	m := NewModule()
	f := m.NewFunction("f", m.Types.Void())
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	sw := b.Switch(m.ConstI32(3))
	b.Return(f, nil)
	b.SetBlock(sw.AddCase(CaseSelector{Value: 1}))
	b.ExitSwitch(sw)
	b.SetBlock(sw.AddCase(CaseSelector{Value: 1}))
	b.ExitSwitch(sw)

	requireInvalid(t, m, "duplicate switch case value 1")
	requireInvalid(t, m, "exactly one default")
}

func TestValidate_BinaryTypes(t *testing.T) {
	m := NewModule()
	f32 := m.Types.Scalar(F32)
	f := m.NewFunction("f", f32)
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	add := b.Binary(BinaryAdd, f32, m.ConstF32(1), m.ConstI32(1))
	b.Return(f, add.Result())
	requireInvalid(t, m, "invalid operand types f32 and i32 for add")
}

func TestValidate_MatrixVectorMultiply(t *testing.T) {
	m := NewModule()
	vec4 := m.Types.Vector(Vec4, F32)
	mat := m.Types.GetOrCreate("", MatrixType{Columns: Vec4, Rows: Vec4, Scalar: F32})
	f := m.NewFunction("f", vec4)
	mp := f.AddParam("m", mat)
	vp := f.AddParam("v", vec4)
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	mul := b.Binary(BinaryMultiply, vec4, mp, vp)
	b.Return(f, mul.Result())
	requireValid(t, m)
}

func TestValidate_LoadStoreTypes(t *testing.T) {
	m := NewModule()
	f32 := m.Types.Scalar(F32)
	f := m.NewFunction("f", m.Types.Void())
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	v := b.Var(m.Types.Pointer(SpaceFunction, f32, AccessReadWrite), nil)
	b.Store(v.Result(), m.ConstI32(1))
	b.Return(f, nil)
	requireInvalid(t, m, "stored value i32 does not match pointee f32")
}

func TestValidate_ReturnType(t *testing.T) {
	m := NewModule()
	f := m.NewFunction("f", m.Types.Scalar(F32))
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	b.Return(f, m.ConstU32(1))
	requireInvalid(t, m, "returned u32, want f32")
}

func TestValidate_ResourceBindings(t *testing.T) {
	m := NewModule()
	f32 := m.Types.Scalar(F32)
	b := NewBuilder(m)
	b.SetBlock(m.Root)

	u := b.Var(m.Types.Pointer(SpaceUniform, f32, AccessRead), nil)
	u.Result().SetName("u")
	s := b.Var(m.Types.Pointer(SpaceStorage, f32, AccessReadWrite), nil)
	s.Result().SetName("s")
	s.Binding = &ResourceBinding{Group: 0, Binding: 1}
	s2 := b.Var(m.Types.Pointer(SpaceStorage, f32, AccessRead), nil)
	s2.Result().SetName("s2")
	s2.Binding = &ResourceBinding{Group: 0, Binding: 1}
	fv := b.Var(m.Types.Pointer(SpaceFunction, f32, AccessReadWrite), nil)
	fv.Result().SetName("fv")

	requireInvalid(t, m, "uniform variable requires @group/@binding")
	requireInvalid(t, m, "duplicate binding @group(0) @binding(1)")
	requireInvalid(t, m, "module-scope variable cannot be in function space")
}

func TestValidate_EntryPointIO(t *testing.T) {
	m := NewModule()
	vec4 := m.Types.Vector(Vec4, F32)
	f := m.NewFunction("main", vec4)
	f.Stage = StageFragment
	f.AddParam("color", vec4)
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	b.Return(f, f.Params[0])

	requireInvalid(t, m, "entry point parameter 0 has no IO binding")
	requireInvalid(t, m, "entry point result has no IO binding")
}

func TestValidate_VertexRequiresPosition(t *testing.T) {
	m := NewModule()
	vec4 := m.Types.Vector(Vec4, F32)
	f := m.NewFunction("vs", vec4)
	f.Stage = StageVertex
	f.ReturnBinding = LocationBinding{Location: 0}
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	b.Return(f, m.ConstZero(vec4))

	requireInvalid(t, m, "vertex entry point must return @builtin(position)")
}

func TestValidate_CallArguments(t *testing.T) {
	m := NewModule()
	f32 := m.Types.Scalar(F32)
	callee := m.NewFunction("callee", f32)
	x := callee.AddParam("x", f32)
	b := NewBuilder(m)
	b.SetBlock(callee.Block)
	b.Return(callee, x)

	caller := m.NewFunction("caller", f32)
	b.SetBlock(caller.Block)
	call := b.Call(callee, m.ConstI32(1))
	b.Return(caller, call.Result())

	requireInvalid(t, m, "argument 0 has type i32, want f32")
}

func TestValidate_DuplicateIDs(t *testing.T) {
	m := buildCounter()
	f := m.Function("main")
	ret := f.Block.Back().(*Return)
	construct := ret.Value().(*InstructionResult)
	construct.id = f.Block.Front().Result().ID()
	requireInvalid(t, m, "is used by both")
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Message: "boom", Function: "main", Instruction: "%1 = add"}
	assert.Equal(t, "in function main, instruction %1 = add: boom", e.Error())
	assert.Equal(t, "boom", ValidationError{Message: "boom"}.Error())
}
