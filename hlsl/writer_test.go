// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shir/ir"
	"github.com/gogpu/shir/irtext"
)

func compile(t *testing.T, src string, opts *Options) (string, *TranslationInfo) {
	t.Helper()
	m, err := irtext.Parse(src)
	require.NoError(t, err)
	out, info, err := Compile(m, opts)
	require.NoError(t, err)
	return out, info
}

func compileErr(t *testing.T, src string, opts *Options) *Error {
	t.Helper()
	m, err := irtext.Parse(src)
	require.NoError(t, err)
	_, _, err = Compile(m, opts)
	var herr *Error
	require.True(t, errors.As(err, &herr), "want *hlsl.Error, got %v", err)
	return herr
}

func TestCompileVertex(t *testing.T) {
	src := `struct VertexOut {
  position: vec4<f32> @builtin(position),
  color: vec3<f32> @location(0),
}

%scale: ptr<uniform, f32, read> = var @group(0) @binding(0)

@vertex
func %vs(%vi: u32 @builtin(vertex_index)) -> VertexOut {
  %1: f32 = convert %vi
  %2: f32 = load %scale
  %3: f32 = mul %1, %2
  %4: vec4<f32> = construct %3, 0.0f, 0.0f, 1.0f
  %5: vec3<f32> = construct %3
  %6: VertexOut = construct %4, %5
  ret %6
}
`
	want := `struct VertexOut {
    float4 position : SV_Position;
    float3 color : LOC0;
};

VertexOut ConstructVertexOut(float4 arg0, float3 arg1) {
    VertexOut ret = (VertexOut)0;
    ret.position = arg0;
    ret.color = arg1;
    return ret;
}

cbuffer scale : register(b0, space0) { float scale; }

VertexOut vs(uint vi : SV_VertexID) {
    float _e0 = float(vi) * scale;
    return ConstructVertexOut(float4(_e0, 0.0, 0.0, 1.0), (_e0).xxx);
}
`
	out, info := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
	assert.Equal(t, map[string]string{"vs": "vs"}, info.EntryPointNames)
	assert.Equal(t, map[string]string{"vs": "vs_5_1"}, info.EntryPointProfiles)
	assert.Equal(t, map[string]string{"scale": "register(b0, space0)"}, info.RegisterBindings)
	assert.Equal(t, []string{"ConstructVertexOut"}, info.HelperFunctions)
	assert.Equal(t, ShaderModel5_1, info.RequiredShaderModel)
}

func TestCompileLoopContinuing(t *testing.T) {
	src := `%data: ptr<storage, array<f32>, read_write> = var @group(0) @binding(1)

@compute @workgroup_size(64, 1, 1)
func %main(%id: vec3<u32> @builtin(global_invocation_id)) {
  %i: ptr<function, u32, read_write> = var 0u
  loop {
    %1: u32 = load %i
    %2: ptr<storage, f32, read_write> = access %data, %1
    %3: f32 = load %2
    %4: bool = lt %3, 0.0f
    if %4 {
      continue
    } else {
      exit_if
    }
    %5: f32 = mul %3, 2.0f
    store %2, %5
    continue
  } continuing {
    %6: u32 = load %i
    %7: u32 = add %6, 1u
    store %i, %7
    %8: bool = ge %7, 4u
    break_if %8
  }
  ret
}
`
	want := `RWStructuredBuffer<float> data : register(u1, space0);

[numthreads(64, 1, 1)]
void main(uint3 id : SV_DispatchThreadID) {
    uint i = 0u;
    while (true) {
        float _e0 = data[i];
        if (_e0 < 0.0) {
            uint _e1 = i + 1u;
            i = _e1;
            if (_e1 >= 4u) {
                break;
            }
            continue;
        }
        data[i] = _e0 * 2.0;
        uint _e2 = i + 1u;
        i = _e2;
        if (_e2 >= 4u) {
            break;
        }
    }
}
`
	out, info := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
	assert.Equal(t, "cs_5_1", info.EntryPointProfiles["main"])
}

func TestCompileMatrixAndSwitch(t *testing.T) {
	src := `struct Camera {
  view: mat4x4<f32>,
}

%cam: ptr<uniform, Camera, read> = var @group(1) @binding(0)

func %bump(%p: ptr<function, i32, read_write>, %by: i32) {
  %1: i32 = load %p
  %2: i32 = add %1, %by
  store %p, %2
  ret
}

@vertex
func %vs(%pos: vec4<f32> @location(0), %kind: i32 @location(1)) -> vec4<f32> @builtin(position) {
  %n: ptr<function, i32, read_write> = var
  switch %kind {
    case 0i, 1i {
      call %bump, %n, 1i
      exit_switch
    }
    case -1i, default {
      exit_switch
    }
  }
  %1: ptr<uniform, mat4x4<f32>, read> = access %cam, 0u
  %2: mat4x4<f32> = load %1
  %3: vec4<f32> = mul %2, %pos
  ret %3
}
`
	want := `struct Camera {
    row_major float4x4 view;
};

cbuffer cam : register(b0, space1) { Camera cam; }

void bump(inout int p, int by) {
    p = p + by;
}

float4 vs(float4 pos : LOC0, int kind : LOC1) : SV_Position {
    int n = (int)0;
    switch(kind) {
        case 0:
        case 1: {
            bump(n, 1);
            break;
        }
        case -1:
        default: {
            break;
        }
    }
    return mul(pos, cam.view);
}
`
	out, _ := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
}

func TestCompileGlobalNameCollidesWithStruct(t *testing.T) {
	src := `struct Camera {
  view: mat4x4<f32>,
}

%camera: ptr<uniform, Camera, read> = var @group(0) @binding(0)

@vertex
func %vs(%pos: vec4<f32> @location(0)) -> vec4<f32> @builtin(position) {
  %1: ptr<uniform, mat4x4<f32>, read> = access %camera, 0u
  %2: mat4x4<f32> = load %1
  %3: vec4<f32> = mul %2, %pos
  ret %3
}
`
	out, _ := compile(t, src, DefaultOptions())
	assert.Contains(t, out, "cbuffer camera_1 : register(b0, space0) { Camera camera_1; }\n")
	assert.Contains(t, out, "return mul(pos, camera_1.view);\n")
}

func TestCompileFragmentSelect(t *testing.T) {
	src := `@fragment
func %fs(%c: vec4<f32> @location(0), %id: u32 @location(1) @interpolate(flat)) -> vec4<f32> @location(0) {
  %1: bool = eq %id, 0u
  %2: vec4<f32> = select %c, vec4<f32>(0.0f, 0.0f, 0.0f, 1.0f), %1
  ret %2
}
`
	want := `float4 fs(float4 c : LOC0, nointerpolation uint id : LOC1) : SV_Target0 {
    return (id == 0u ? float4(0.0, 0.0, 0.0, 1.0) : c);
}
`
	out, info := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
	assert.Equal(t, "ps_5_1", info.EntryPointProfiles["fs"])
}

func TestCompileArrayConstructor(t *testing.T) {
	src := `func %arr(%x: f32) -> array<f32, 2> {
  %1: array<f32, 2> = construct %x, 1.0f
  ret %1
}
`
	want := `typedef float array2_float[2];

array2_float Constructarray2_float(float arg0, float arg1) {
    array2_float ret = { arg0, arg1 };
    return ret;
}

array2_float arr(float x) {
    return Constructarray2_float(x, 1.0);
}
`
	out, info := compile(t, src, DefaultOptions())
	assert.Equal(t, want, out)
	assert.Equal(t, []string{"Constructarray2_float"}, info.HelperFunctions)
}

const halfSource = `func %f(%h: f16) -> f16 {
  %1: f16 = mul %h, 2.0h
  ret %1
}
`

func TestCompileHalf(t *testing.T) {
	herr := compileErr(t, halfSource, DefaultOptions())
	assert.Equal(t, ErrInvalidShaderModel, herr.Kind)

	opts := DefaultOptions()
	opts.ShaderModel = ShaderModel6_2
	out, info := compile(t, halfSource, opts)
	assert.Equal(t, "half f(half h) {\n    return h * 2.0h;\n}\n", out)
	assert.Equal(t, ShaderModel6_2, info.RequiredShaderModel)
}

const bufferSource = `%lights: ptr<storage, array<vec4<f32>>, read> = var @group(2) @binding(5)

@fragment
func %fs() -> vec4<f32> @location(0) {
  %1: ptr<storage, vec4<f32>, read> = access %lights, 0u
  %2: vec4<f32> = load %1
  ret %2
}
`

func TestCompileBindings(t *testing.T) {
	out, info := compile(t, bufferSource, DefaultOptions())
	assert.Contains(t, out, "StructuredBuffer<float4> lights : register(t5, space2);\n")
	assert.Contains(t, out, "    return lights[0u];\n")
	assert.Equal(t, "register(t5, space2)", info.RegisterBindings["lights"])

	opts := DefaultOptions()
	opts.BindingMap[ResourceBinding{Group: 2, Binding: 5}] = BindTarget{Space: 0, Register: 7}
	out, _ = compile(t, bufferSource, opts)
	assert.Contains(t, out, "lights : register(t7, space0);")

	opts = DefaultOptions()
	opts.ShaderModel = ShaderModel5_0
	out, _ = compile(t, bufferSource, opts)
	assert.Contains(t, out, "lights : register(t5);")

	opts = DefaultOptions()
	opts.FakeMissingBindings = false
	herr := compileErr(t, bufferSource, opts)
	assert.True(t, herr.IsMissingBinding())
	assert.Equal(t, "hlsl MissingBinding: no register for @group(2) @binding(5)", herr.Error())
}

func TestCompileUnsupportedBuiltin(t *testing.T) {
	src := `@compute @workgroup_size(1, 1, 1)
func %main(%n: vec3<u32> @builtin(num_workgroups)) {
  ret
}
`
	herr := compileErr(t, src, DefaultOptions())
	assert.True(t, herr.IsUnsupportedFeature())
}

func TestScalarLiterals(t *testing.T) {
	tests := []struct {
		value ir.ScalarValue
		typ   ir.ScalarType
		want  string
	}{
		{ir.ScalarValue{Bits: 0x80000000, Kind: ir.ScalarSint}, ir.I32, "int(-2147483647 - 1)"},
		{ir.ScalarValue{Bits: 0xffffffff, Kind: ir.ScalarSint}, ir.I32, "-1"},
		{ir.ScalarValue{Bits: 7, Kind: ir.ScalarUint}, ir.U32, "7u"},
		{ir.ScalarValue{Bits: 0xff800000, Kind: ir.ScalarFloat}, ir.F32, "asfloat(0xff800000u)"},
		{ir.ScalarValue{Bits: 0x3fc00000, Kind: ir.ScalarFloat}, ir.F32, "1.5"},
		{ir.ScalarValue{Bits: 0x3fc00000, Kind: ir.ScalarFloat}, ir.F16, "1.5h"},
		{ir.ScalarValue{Bits: 0, Kind: ir.ScalarBool}, ir.Bool, "false"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scalarLiteral(tt.value, tt.typ))
	}
}

func TestCompileNilModule(t *testing.T) {
	_, _, err := Compile(nil, nil)
	var herr *Error
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, ErrInternalError, herr.Kind)
}
