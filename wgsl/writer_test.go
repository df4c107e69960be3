package wgsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shir/ir"
	"github.com/gogpu/shir/irtext"
)

func compile(t *testing.T, src string, opts Options) (string, TranslationInfo) {
	t.Helper()
	m, err := irtext.Parse(src)
	require.NoError(t, err)
	out, info, err := Compile(m, opts)
	require.NoError(t, err)
	return out, info
}

func TestCompileLoop(t *testing.T) {
	src := `@fragment
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
	want := `@fragment
fn main() -> @location(0) vec4<f32> {
    var counter: i32 = 0i;
    loop {
        if counter >= 4i {
            break;
        }
        continuing {
            counter = counter + 1i;
        }
    }
    return vec4<f32>(f32(counter));
}
`
	out, info := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
	assert.Equal(t, map[string]string{"main": "main"}, info.EntryPointNames)
	assert.False(t, info.UsesF16)
}

func TestCompileModuleScope(t *testing.T) {
	src := `struct Params {
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
	want := `struct Params {
    scale: f32,
    offset: vec3<f32>,
}

var<private> g: f32 = 1.0f;
@group(0) @binding(2) var<uniform> params: Params;

fn scale(x: vec3<f32>) -> vec3<f32> {
    return max(vec3<f32>((params.scale * x.z) + g, 0.0f, 0.5f), vec3<f32>());
}
`
	out, _ := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
}

func TestCompilePointersAndSwitch(t *testing.T) {
	src := `func %bump(%p: ptr<function, i32, read_write>, %by: i32) {
  %1: i32 = load %p
  %2: i32 = add %1, %by
  store %p, %2
  ret
}

@compute @workgroup_size(8, 1, 1)
func %main(%id: vec3<u32> @builtin(global_invocation_id)) {
  %n: ptr<function, i32, read_write> = var
  %1: u32 = swizzle %id, x
  %2: i32 = convert %1
  switch %2 {
    case 0i, 1i {
      call %bump, %n, 1i
      exit_switch
    }
    case -1i, default {
      exit_switch
    }
  }
  %3: i32 = load %n
  phony %3
  ret
}
`
	want := `fn bump(p: ptr<function, i32>, by: i32) {
    *p = (*p) + by;
}

@compute @workgroup_size(8, 1, 1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    var n: i32;
    switch i32(id.x) {
        case 0i, 1i: {
            bump(&n, 1i);
        }
        case -1i, default: {
        }
    }
    _ = n;
}
`
	out, _ := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
}

func TestCompileDeclaredValues(t *testing.T) {
	src := `func %f(%a: f32, %h: f16) -> f32 {
  %1: f32 = mul %a, 2.0f
  %sum: f32 = add %1, %1
  %2: f32 = neg %sum
  %3: f32 = sub %2, -1.0f
  ret %3
}
`
	want := `enable f16;

fn f(a: f32, h: f16) -> f32 {
    let _e0 = a * 2.0f;
    let sum = _e0 + _e0;
    return (-sum) - (-1.0f);
}
`
	out, info := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
	assert.True(t, info.UsesF16)
}

func TestCompileEntryPointsOnly(t *testing.T) {
	src := `func %unused() {
  ret
}

func %var(%x: f32) -> f32 {
  ret %x
}

@fragment
func %main() -> vec4<f32> @location(0) {
  %1: f32 = call %var, 1.0f
  %2: vec4<f32> = construct %1
  ret %2
}
`
	opts := DefaultOptions()
	opts.EntryPointsOnly = true
	opts.Indent = "  "
	want := `fn var_(x: f32) -> f32 {
  return x;
}

@fragment
fn main() -> @location(0) vec4<f32> {
  return vec4<f32>(var_(1.0f));
}
`
	out, _ := compile(t, src, opts)
	assert.Equal(t, want, out)
}

func TestScalarLiterals(t *testing.T) {
	tests := []struct {
		value ir.ScalarValue
		typ   ir.ScalarType
		want  string
	}{
		{ir.ScalarValue{Bits: 0x80000000, Kind: ir.ScalarSint}, ir.I32, "i32(-2147483648)"},
		{ir.ScalarValue{Bits: 0xffffffff, Kind: ir.ScalarSint}, ir.I32, "-1i"},
		{ir.ScalarValue{Bits: 7, Kind: ir.ScalarUint}, ir.U32, "7u"},
		{ir.ScalarValue{Bits: 0x7f800000, Kind: ir.ScalarFloat}, ir.F32, "bitcast<f32>(0x7f800000u)"},
		{ir.ScalarValue{Bits: 0x3fc00000, Kind: ir.ScalarFloat}, ir.F32, "1.5f"},
		{ir.ScalarValue{Bits: 1, Kind: ir.ScalarBool}, ir.Bool, "true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scalarLiteral(tt.value, tt.typ))
	}
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "loop_", Escape("loop"))
	assert.Equal(t, "_x", Escape("__x"))
	assert.Equal(t, "color", Escape("color"))
	assert.True(t, IsReserved("texture_2d"))
}

func TestCompileNilModule(t *testing.T) {
	_, _, err := Compile(nil, DefaultOptions())
	var werr *Error
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, ErrInvalidModule, werr.Kind)
	assert.Equal(t, "wgsl: InvalidModule: nil module", err.Error())
}
