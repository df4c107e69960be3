package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassemble(t *testing.T) {
	want := `@fragment
func %main() -> vec4<f32> @location(0) {
  %counter: ptr<function, i32, read_write> = var 0i
  loop {
    %1: i32 = load %counter
    %2: bool = ge %1, 4i
    if %2 {
      exit_loop
    } else {
      exit_if
    }
    continue
  } continuing {
    %3: i32 = load %counter
    %4: i32 = add %3, 1i
    store %counter, %4
    next_iteration
  }
  %5: i32 = load %counter
  %6: f32 = convert %5
  %7: vec4<f32> = construct %6
  ret %7
}
`
	assert.Equal(t, want, Disassemble(buildCounter()))
}

func TestDisassembleModuleScope(t *testing.T) {
	m := NewModule()
	f32 := m.Types.Scalar(F32)
	vec3 := m.Types.Vector(Vec3, F32)
	st := m.Types.GetOrCreate("Params", StructType{Members: []StructMember{
		{Name: "scale", Type: f32},
		{Name: "offset", Type: vec3},
	}})

	b := NewBuilder(m)
	b.SetBlock(m.Root)
	g := b.Var(m.Types.Pointer(SpacePrivate, f32, AccessReadWrite), m.ConstF32(1))
	g.Result().SetName("g")
	u := b.Var(m.Types.Pointer(SpaceUniform, st, AccessRead), nil)
	u.Result().SetName("params")
	u.Binding = &ResourceBinding{Group: 0, Binding: 2}

	f := m.NewFunction("scale", vec3)
	x := f.AddParam("x", vec3)
	b.SetBlock(f.Block)
	ptr := b.Access(m.Types.Pointer(SpaceUniform, f32, AccessRead), u.Result(), m.ConstU32(0))
	s := b.Load(ptr.Result())
	sw := b.Swizzle(m.Types.Scalar(F32), x, 2)
	mul := b.Binary(BinaryMultiply, f32, s.Result(), sw.Result())
	gl := b.Load(g.Result())
	sum := b.Binary(BinaryAdd, f32, mul.Result(), gl.Result())
	v := b.Construct(vec3, sum.Result(), m.ConstF32(0), m.ConstF32(0.5))
	mx := b.CallBuiltin(BuiltinMax, vec3, v.Result(), m.ConstZero(vec3))
	b.Return(f, mx.Result())

	want := `struct Params {
  scale: f32,
  offset: vec3<f32>,
}

%g: ptr<private, f32, read_write> = var 1.0f
%params: ptr<uniform, Params, read> = var @group(0) @binding(2)

func %scale(%x: vec3<f32>) -> vec3<f32> {
  %1: ptr<uniform, f32, read> = access %params, 0u
  %2: f32 = load %1
  %3: f32 = swizzle %x, z
  %4: f32 = mul %2, %3
  %5: f32 = load %g
  %6: f32 = add %4, %5
  %7: vec3<f32> = construct %6, 0.0f, 0.5f
  %8: vec3<f32> = max %7, vec3<f32>()
  ret %8
}
`
	assert.Equal(t, want, Disassemble(m))
}

func TestDisassembleUniqueNames(t *testing.T) {
	m := NewModule()
	f32 := m.Types.Scalar(F32)
	f := m.NewFunction("f", f32)
	p := f.AddParam("x", f32)
	b := NewBuilder(m)
	b.SetBlock(f.Block)
	neg := b.Unary(UnaryNegate, f32, p)
	neg.Result().SetName("x")
	b.Return(f, neg.Result())

	want := `func %f(%x: f32) -> f32 {
  %x_1: f32 = neg %x
  ret %x_1
}
`
	assert.Equal(t, want, Disassemble(m))
}
