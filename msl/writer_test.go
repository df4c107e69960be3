package msl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shir/ir"
	"github.com/gogpu/shir/irtext"
)

const header = `// language: metal2.1
#include <metal_stdlib>
#include <simd/simd.h>

using metal::uint;
`

func compile(t *testing.T, src string, opts Options) (string, TranslationInfo) {
	t.Helper()
	m, err := irtext.Parse(src)
	require.NoError(t, err)
	out, info, err := Compile(m, opts)
	require.NoError(t, err)
	return out, info
}

func compileErr(t *testing.T, src string, opts Options) *Error {
	t.Helper()
	m, err := irtext.Parse(src)
	require.NoError(t, err)
	_, _, err = Compile(m, opts)
	var merr *Error
	require.True(t, errors.As(err, &merr), "want *msl.Error, got %v", err)
	return merr
}

func TestCompileVertex(t *testing.T) {
	src := `struct VertexOut {
  position: vec4<f32> @builtin(position),
  color: vec3<f32> @location(0),
}

%camera: ptr<uniform, mat4x4<f32>, read> = var @group(0) @binding(0)

@vertex
func %vs(%pos: vec3<f32> @location(0), %vi: u32 @builtin(vertex_index)) -> VertexOut {
  %1: mat4x4<f32> = load %camera
  %2: vec4<f32> = construct %pos, 1.0f
  %3: vec4<f32> = mul %1, %2
  %4: f32 = convert %vi
  %5: vec3<f32> = construct %4
  %6: VertexOut = construct %3, %5
  ret %6
}
`
	want := header + `
struct VertexOut {
    metal::float4 position;
    metal::float3 color;
};

struct vs_in {
    metal::float3 pos [[attribute(0)]];
};
struct vs_out {
    metal::float4 position [[position]];
    metal::float3 color [[user(loc0)]];
};
vertex vs_out vs(
  vs_in varyings [[stage_in]]
, uint vi [[vertex_id]]
, constant metal::float4x4& camera [[buffer(0)]]
) {
    const auto _tmp = VertexOut {camera * metal::float4(varyings.pos, 1.0f), metal::float3(static_cast<float>(vi))};
    return vs_out { _tmp.position, _tmp.color };
}
`
	out, info := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
	assert.Equal(t, map[string]string{"vs": "vs"}, info.EntryPointNames)
	assert.Equal(t, map[string]map[string]uint8{"vs": {"camera": 0}}, info.BufferSlots)
}

func TestCompileKernel(t *testing.T) {
	src := `%data: ptr<storage, array<f32>, read_write> = var @group(0) @binding(3)
%tile: ptr<workgroup, array<f32, 4>, read_write> = var

func %bump(%p: ptr<function, u32, read_write>) {
  %1: u32 = load %p
  %2: u32 = add %1, 1u
  store %p, %2
  ret
}

@compute @workgroup_size(4, 1, 1)
func %main(%lid: u32 @builtin(local_invocation_index)) {
  %i: ptr<function, u32, read_write> = var 0u
  loop {
    %1: u32 = load %i
    %2: bool = ge %1, 4u
    if %2 {
      exit_loop
    }
    %3: ptr<storage, f32, read_write> = access %data, %1
    %4: f32 = load %3
    %5: ptr<workgroup, f32, read_write> = access %tile, %lid
    store %5, %4
    continue
  } continuing {
    call %bump, %i
    next_iteration
  }
  ret
}
`
	want := header + `
struct array4_float {
    float inner[4];
};

void bump(thread uint& p) {
    p = p + 1u;
}

kernel void main_(
  uint lid [[thread_index_in_threadgroup]]
, device float* data [[buffer(0)]]
) {
    threadgroup array4_float tile;
    uint i = 0u;
    while(true) {
        uint _e0 = i;
        if (_e0 >= 4u) {
            break;
        }
        tile.inner[lid] = data[_e0];
        bump(i);
    }
}
`
	out, info := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
	assert.Equal(t, "main_", info.EntryPointNames["main"])
	assert.Equal(t, [3]uint32{4, 1, 1}, info.WorkgroupSizes["main_"])
}

func TestCompileFragment(t *testing.T) {
	src := `@fragment
func %fs(%c: vec4<f32> @location(0), %id: u32 @location(1) @interpolate(flat)) -> vec4<f32> @location(0) {
  %1: bool = eq %id, 0u
  if %1 {
    discard
  }
  %2: vec4<f32> = select %c, vec4<f32>(0.0f, 0.0f, 0.0f, 1.0f), %1
  ret %2
}
`
	want := header + `
struct fs_in {
    metal::float4 c [[user(loc0)]];
    uint id [[user(loc1), flat]];
};
struct fs_out {
    metal::float4 value [[color(0)]];
};
fragment fs_out fs(
  fs_in varyings [[stage_in]]
) {
    bool _e0 = varyings.id == 0u;
    if (_e0) {
        metal::discard_fragment();
    }
    return fs_out { metal::select(varyings.c, metal::float4(0.0f, 0.0f, 0.0f, 1.0f), _e0) };
}
`
	out, _ := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
}

const lightSource = `struct Light {
  dir: vec3<f32>,
  power: f32,
}

%light: ptr<uniform, Light, read> = var @group(1) @binding(2)

@fragment
func %fs() -> vec4<f32> @location(0) {
  %1: ptr<uniform, vec3<f32>, read> = access %light, 0u
  %2: vec3<f32> = load %1
  %3: vec4<f32> = construct %2, 1.0f
  ret %3
}
`

func TestCompilePackedMember(t *testing.T) {
	out, _ := compile(t, lightSource, DefaultOptions())
	assert.Contains(t, out, "    metal::packed_float3 dir;\n    float power;\n")
	assert.Contains(t, out, "  constant Light& light [[buffer(0)]]\n")
	assert.Contains(t, out, "return fs_out { metal::float4(metal::float3(light.dir), 1.0f) };")
}

func TestBufferSlots(t *testing.T) {
	opts := DefaultOptions()
	opts.PerEntryPointMap = map[string]EntryPointResources{
		"fs": {Resources: map[ir.ResourceBinding]BindTarget{{Group: 1, Binding: 2}: {Buffer: 5}}},
	}
	out, info := compile(t, lightSource, opts)
	assert.Contains(t, out, "light [[buffer(5)]]")
	assert.Equal(t, uint8(5), info.BufferSlots["fs"]["light"])

	opts = DefaultOptions()
	opts.FakeMissingBindings = false
	merr := compileErr(t, lightSource, opts)
	assert.Equal(t, ErrMissingBinding, merr.Kind)
}

func TestGlobalOutsideEntryPoint(t *testing.T) {
	src := `%g: ptr<private, f32, read_write> = var 1.0f

func %get() -> f32 {
  %1: f32 = load %g
  ret %1
}
`
	merr := compileErr(t, src, DefaultOptions())
	assert.Equal(t, ErrUnsupportedFeature, merr.Kind)
	assert.Contains(t, merr.Error(), "module variable g is referenced from get")
}

func TestScalarLiterals(t *testing.T) {
	tests := []struct {
		value ir.ScalarValue
		typ   ir.ScalarType
		want  string
	}{
		{ir.ScalarValue{Bits: 0x80000000, Kind: ir.ScalarSint}, ir.I32, "(-2147483647 - 1)"},
		{ir.ScalarValue{Bits: 0xfffffffe, Kind: ir.ScalarSint}, ir.I32, "-2"},
		{ir.ScalarValue{Bits: 3, Kind: ir.ScalarUint}, ir.U32, "3u"},
		{ir.ScalarValue{Bits: 0x7fc00000, Kind: ir.ScalarFloat}, ir.F32, "NAN"},
		{ir.ScalarValue{Bits: 0xff800000, Kind: ir.ScalarFloat}, ir.F16, "static_cast<half>(-INFINITY)"},
		{ir.ScalarValue{Bits: 0x3f000000, Kind: ir.ScalarFloat}, ir.F16, "0.5h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scalarLiteral(tt.value, tt.typ))
	}
}

func TestEscapeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"float", "float_"},
		{"kernel", "kernel_"},
		{"__x", "x"},
		{"", "unnamed"},
		{"color_output", "color_output"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeName(tt.input), tt.input)
	}
	assert.False(t, isReserved("myVar"))
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "2.1", Version2_1.String())
	assert.True(t, Version1_2.Less(Version2_0))
	assert.False(t, Version3_0.Less(Version2_3))

	v, ok := ParseVersion("2.3")
	assert.True(t, ok)
	assert.Equal(t, Version2_3, v)
	for _, bad := range []string{"", "2", "0.9", "2.1.0", "metal2.1"} {
		_, ok := ParseVersion(bad)
		assert.False(t, ok, bad)
	}

	_, _, err := Compile(nil, DefaultOptions())
	require.Error(t, err)
}
