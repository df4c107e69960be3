package spirv

import (
	"errors"
	"fmt"
	"strings"
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
	errs, err := ir.Validate(m)
	require.NoError(t, err)
	require.Empty(t, errs)
	bin, info, err := Compile(m, opts)
	require.NoError(t, err)
	text, err := Disassemble(bin)
	require.NoError(t, err)
	return text, info
}

func compileErr(t *testing.T, src string, opts Options) *Error {
	t.Helper()
	m, err := irtext.Parse(src)
	require.NoError(t, err)
	_, _, err = Compile(m, opts)
	var serr *Error
	require.True(t, errors.As(err, &serr), "want *spirv.Error, got %v", err)
	return serr
}

// line formats a disassembled instruction with a result id.
func line(result, body string) string {
	return fmt.Sprintf("%12s = %s", result, body)
}

// op formats a disassembled instruction without a result id.
func op(body string) string {
	return strings.Repeat(" ", 15) + body
}

// assertInOrder checks that every line occurs in text, in the given order.
func assertInOrder(t *testing.T, text string, lines ...string) {
	t.Helper()
	rest := text
	for _, l := range lines {
		i := strings.Index(rest, "\n"+l+"\n")
		if !assert.GreaterOrEqual(t, i, 0, "missing or out of order: %q\n%s", l, text) {
			return
		}
		rest = rest[i+len(l)+1:]
	}
}

func TestCompileCompute(t *testing.T) {
	src := `%data: ptr<storage, array<u32>, read_write> = var @group(0) @binding(0)

@compute @workgroup_size(64, 1, 1)
func %main(%gid: vec3<u32> @builtin(global_invocation_id)) {
  %1: u32 = access %gid, 0u
  %2: ptr<storage, u32, read_write> = access %data, %1
  %3: u32 = load %2
  %4: u32 = mul %3, 2u
  store %2, %4
  ret
}
`
	out, info := compile(t, src, DefaultOptions())
	assert.True(t, strings.HasPrefix(out, "; SPIR-V\n; Version: 1.3\n; Generator: 0\n; Bound: 27\n; Schema: 0\n"))
	assertInOrder(t, out,
		op("OpCapability Shader"),
		line("%1", `OpExtInstImport "GLSL.std.450"`),
		op("OpMemoryModel Logical GLSL450"),
		op(`OpEntryPoint GLCompute %main "main" %gid_0`),
		op("OpExecutionMode %main LocalSize 64 1 1"),
		op(`OpName %data_block "data_block"`),
		op(`OpMemberName %data_block 0 "inner"`),
		op(`OpName %main_inner "main_inner"`),
		op("OpDecorate %_runtimearr_uint ArrayStride 4"),
		op("OpDecorate %data_block Block"),
		op("OpMemberDecorate %data_block 0 Offset 0"),
		op("OpDecorate %data DescriptorSet 0"),
		op("OpDecorate %data Binding 0"),
		op("OpDecorate %gid_0 BuiltIn GlobalInvocationId"),
		line("%uint", "OpTypeInt 32 0"),
		line("%_runtimearr_uint", "OpTypeRuntimeArray %uint"),
		line("%data_block", "OpTypeStruct %_runtimearr_uint"),
		line("%data", "OpVariable %_ptr_StorageBuffer_data_block StorageBuffer"),
		line("%main_inner", "OpFunction %void None %10"),
		line("%gid", "OpFunctionParameter %v3uint"),
		line("%13", "OpCompositeExtract %uint %gid 0"),
		line("%16", "OpAccessChain %_ptr_StorageBuffer_uint %data %uint_0 %13"),
		line("%17", "OpLoad %uint %16"),
		line("%19", "OpIMul %uint %17 %uint_2"),
		op("OpStore %16 %19"),
		op("OpReturn"),
		op("OpFunctionEnd"),
		line("%main", "OpFunction %void None %21"),
		line("%25", "OpLoad %v3uint %gid_0"),
		line("%26", "OpFunctionCall %void %main_inner %25"),
		op("OpReturn"),
	)
	assert.Equal(t, map[string]string{"main": "main"}, info.EntryPointNames)
	assert.Equal(t, []Capability{CapabilityShader}, info.Capabilities)
	assert.Equal(t, uint32(27), info.Bound)
}

func TestCompileVertex(t *testing.T) {
	src := `struct VertexOut {
  position: vec4<f32> @builtin(position),
  color: vec3<f32> @location(0),
}

@vertex
func %vs(%pos: vec3<f32> @location(0), %id: u32 @builtin(vertex_index)) -> VertexOut {
  %1: vec4<f32> = construct %pos, 1.0f
  %2: f32 = convert %id
  %3: vec3<f32> = construct %2
  %4: VertexOut = construct %1, %3
  ret %4
}
`
	out, _ := compile(t, src, DefaultOptions())
	assertInOrder(t, out,
		op(`OpEntryPoint Vertex %vs "vs" %pos_0 %id_0 %vs_position %vs_color`),
		op(`OpName %VertexOut "VertexOut"`),
		op(`OpMemberName %VertexOut 0 "position"`),
		op(`OpMemberName %VertexOut 1 "color"`),
		op("OpDecorate %pos_0 Location 0"),
		op("OpDecorate %id_0 BuiltIn VertexIndex"),
		op("OpDecorate %vs_position BuiltIn Position"),
		op("OpDecorate %vs_color Location 0"),
		line("%float_1", "OpConstant %float 1"),
	)
	assert.Contains(t, out, line("%vs_position", "OpVariable %_ptr_Output_v4float Output"))
	assert.Contains(t, out, "OpConvertUToF %float %id\n")
	assert.Contains(t, out, "OpCompositeConstruct %v4float %pos %float_1\n")
	assert.Contains(t, out, "OpCompositeExtract %v4float")
	assert.NotContains(t, out, "Flat")
	assert.NotContains(t, out, "OpExecutionMode")
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
	out, _ := compile(t, src, DefaultOptions())
	assertInOrder(t, out,
		op(`OpEntryPoint Fragment %fs "fs" %c_0 %id_0 %fs_out`),
		op("OpExecutionMode %fs OriginUpperLeft"),
		op("OpDecorate %c_0 Location 0"),
		op("OpDecorate %id_0 Location 1"),
		op("OpDecorate %id_0 Flat"),
		op("OpDecorate %fs_out Location 0"),
		line("%17", "OpConstantComposite %v4float %float_0 %float_0 %float_0 %float_1"),
		line("%12", "OpIEqual %bool %id %uint_0"),
		op("OpSelectionMerge %13 None"),
		op("OpBranchConditional %12 %14 %13"),
		line("%14", "OpLabel"),
		op("OpKill"),
		line("%13", "OpLabel"),
		line("%19", "OpCompositeConstruct %v4bool %12 %12 %12 %12"),
		line("%20", "OpSelect %v4float %19 %17 %c"),
		op("OpReturnValue %20"),
	)
	assert.NotContains(t, out, "OpDecorate %c_0 Flat")
}

func TestCompileLoopAndSwitch(t *testing.T) {
	src := `@compute @workgroup_size(1, 1, 1)
func %main() {
  %i: ptr<function, i32, read_write> = var 0i
  %stop: ptr<function, bool, read_write> = var false
  loop {
    %1: i32 = load %i
    switch %1 {
      case 3i {
        store %stop, true
        exit_switch
      }
      case -1i, default {
        exit_switch
      }
    }
    %2: bool = load %stop
    if %2 {
      exit_loop
    }
    continue
  } continuing {
    %3: i32 = load %i
    %4: i32 = add %3, 1i
    store %i, %4
    %5: bool = ge %4, 10i
    break_if %5
  }
  ret
}
`
	out, info := compile(t, src, DefaultOptions())
	assertInOrder(t, out,
		op(`OpEntryPoint GLCompute %main "main"`),
		op("OpExecutionMode %main LocalSize 1 1 1"),
		line("%5", "OpLabel"),
		line("%i", "OpVariable %_ptr_Function_int Function"),
		line("%stop", "OpVariable %_ptr_Function_bool Function"),
		op("OpStore %i %int_0"),
		op("OpStore %stop %false"),
		op("OpBranch %14"),
		line("%14", "OpLabel"),
		op("OpLoopMerge %16 %15 None"),
		op("OpBranch %17"),
		line("%17", "OpLabel"),
		line("%18", "OpLoad %int %i"),
		op("OpSelectionMerge %19 None"),
		op("OpSwitch %18 %21 3 %20 -1 %21"),
		line("%20", "OpLabel"),
		op("OpStore %stop %true"),
		op("OpBranch %19"),
		line("%21", "OpLabel"),
		op("OpBranch %19"),
		line("%19", "OpLabel"),
		line("%23", "OpLoad %bool %stop"),
		op("OpSelectionMerge %24 None"),
		op("OpBranchConditional %23 %25 %24"),
		line("%25", "OpLabel"),
		op("OpBranch %16"),
		line("%24", "OpLabel"),
		op("OpBranch %15"),
		line("%15", "OpLabel"),
		line("%26", "OpLoad %int %i"),
		line("%28", "OpIAdd %int %26 %int_1"),
		op("OpStore %i %28"),
		line("%30", "OpSGreaterThanEqual %bool %28 %int_10"),
		op("OpBranchConditional %30 %16 %14"),
		line("%16", "OpLabel"),
		op("OpReturn"),
		op("OpFunctionEnd"),
	)
	// Initialized variables need no null constant.
	assert.NotContains(t, out, "OpConstantNull")
	assert.Equal(t, uint32(34), info.Bound)
}

func TestCompileLocalVarDefault(t *testing.T) {
	src := `@compute @workgroup_size(1, 1, 1)
func %main() {
  %a: ptr<function, u32, read_write> = var
  %b: ptr<function, u32, read_write> = var 7u
  %1: u32 = load %a
  store %b, %1
  ret
}
`
	out, _ := compile(t, src, DefaultOptions())
	assert.Equal(t, 1, strings.Count(out, "OpConstantNull"))
	assertInOrder(t, out,
		line("%9", "OpConstantNull %uint"),
		line("%uint_7", "OpConstant %uint 7"),
		op("OpStore %a %9"),
		op("OpStore %b %uint_7"),
	)
}

const uniformSource = `struct Light {
  dir: vec3<f32>,
  power: f32,
}

%light: ptr<uniform, Light, read> = var @group(1) @binding(2)
%camera: ptr<uniform, mat4x4<f32>, read> = var @group(0) @binding(0)

@vertex
func %vs(%pos: vec4<f32> @location(0)) -> vec4<f32> @builtin(position) {
  %1: mat4x4<f32> = load %camera
  %2: vec4<f32> = mul %1, %pos
  %3: ptr<uniform, f32, read> = access %light, 1u
  %4: f32 = load %3
  %5: vec4<f32> = mul %2, %4
  ret %5
}
`

func TestCompileUniforms(t *testing.T) {
	out, _ := compile(t, uniformSource, DefaultOptions())
	assertInOrder(t, out,
		op(`OpEntryPoint Vertex %vs "vs" %pos_0 %vs_out`),
		op("OpMemberDecorate %Light 0 Offset 0"),
		op("OpMemberDecorate %Light 1 Offset 12"),
		op("OpDecorate %Light Block"),
		op("OpDecorate %light DescriptorSet 1"),
		op("OpDecorate %light Binding 2"),
		op("OpDecorate %camera_block Block"),
		op("OpMemberDecorate %camera_block 0 Offset 0"),
		op("OpMemberDecorate %camera_block 0 ColMajor"),
		op("OpMemberDecorate %camera_block 0 MatrixStride 16"),
		op("OpDecorate %vs_out BuiltIn Position"),
	)
	assert.Contains(t, out, "OpAccessChain %_ptr_Uniform_mat4v4float %camera %uint_0\n")
	assert.Contains(t, out, "OpAccessChain %_ptr_Uniform_float %light %uint_1\n")
	assert.Contains(t, out, "OpMatrixTimesVector %v4float")
	assert.Contains(t, out, "OpVectorTimesScalar %v4float")
	assert.NotContains(t, out, "NonWritable")
}

func TestCompileInterfaceGlobals(t *testing.T) {
	opts := DefaultOptions()
	opts.Version = Version1_4
	out, _ := compile(t, uniformSource, opts)
	assert.Contains(t, out, "; Version: 1.4\n")
	assert.Contains(t, out, op(`OpEntryPoint Vertex %vs "vs" %pos_0 %vs_out %light %camera`)+"\n")
}

func TestCompileHalf(t *testing.T) {
	src := `%buf: ptr<storage, array<f16>, read> = var @group(0) @binding(1)

@fragment
func %fs(%h: f16 @location(0)) -> vec4<f32> @location(0) {
  %1: ptr<storage, f16, read> = access %buf, 0u
  %2: f16 = load %1
  %3: f16 = add %2, 0.5h
  %4: f32 = convert %3
  %5: vec4<f32> = construct %4
  ret %5
}
`
	out, info := compile(t, src, DefaultOptions())
	assert.Equal(t, []Capability{
		CapabilityShader,
		CapabilityStorageBuffer16BitAccess,
		CapabilityFloat16,
		CapabilityStorageInputOutput16,
	}, info.Capabilities)
	assert.Contains(t, out, op("OpDecorate %_runtimearr_half ArrayStride 2")+"\n")
	assert.Contains(t, out, op("OpDecorate %buf NonWritable")+"\n")
	assert.Contains(t, out, line("%half_0_5", "OpConstant %half 0.5")+"\n")
	assert.Contains(t, out, "OpFConvert %float")
}

func TestCompileHalfRounding(t *testing.T) {
	src := `@fragment
func %fs(%h: f16 @location(0)) -> vec4<f32> @location(0) {
  %1: f16 = mul %h, 0.1h
  %2: f32 = convert %1
  %3: vec4<f32> = construct %2
  ret %3
}
`
	out, _ := compile(t, src, DefaultOptions())
	// 0.1 narrows to 0x2e66.
	assert.Contains(t, out, "= OpConstant %half 0.099975586\n")
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
		msg  string
	}{
		{
			name: "missing binding",
			src: `%buf: ptr<storage, array<u32>, read_write> = var

@compute @workgroup_size(1, 1, 1)
func %main() {
  ret
}
`,
			kind: ErrMissingBinding,
			msg:  "resource buf has no @group/@binding",
		},
		{
			name: "pointer into a variable",
			src: `func %bump(%p: ptr<function, u32, read_write>) {
  %1: u32 = load %p
  %2: u32 = add %1, 1u
  store %p, %2
  ret
}

@compute @workgroup_size(1, 1, 1)
func %main() {
  %v: ptr<function, vec2<u32>, read_write> = var
  %1: ptr<function, u32, read_write> = access %v, 0u
  call %bump, %1
  ret
}
`,
			kind: ErrUnsupportedFeature,
			msg:  "is not a variable or parameter",
		},
		{
			name: "builtin in the wrong stage",
			src: `@fragment
func %fs(%vi: u32 @builtin(vertex_index)) -> vec4<f32> @location(0) {
  %1: f32 = convert %vi
  %2: vec4<f32> = construct %1
  ret %2
}
`,
			kind: ErrUnsupportedFeature,
			msg:  "@builtin(vertex_index) is not a fragment input",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serr := compileErr(t, tt.src, DefaultOptions())
			assert.Equal(t, tt.kind, serr.Kind)
			assert.Contains(t, serr.Error(), tt.msg)
		})
	}
}

func TestCompileVersion(t *testing.T) {
	m, err := irtext.Parse("@compute @workgroup_size(1, 1, 1)\nfunc %main() {\n  ret\n}\n")
	require.NoError(t, err)

	_, _, err = Compile(m, Options{Version: Version1_0})
	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, ErrUnsupportedFeature, serr.Kind)

	bin, _, err := Compile(m, Options{})
	require.NoError(t, err)
	text, err := Disassemble(bin)
	require.NoError(t, err)
	assert.Contains(t, text, "; Version: 1.3\n")
	assert.NotContains(t, text, "OpName", "debug names are off without Options.Debug")

	_, _, err = Compile(nil, DefaultOptions())
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, ErrInvalidModule, serr.Kind)
}
