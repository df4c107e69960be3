package spirv

import "fmt"

// Version represents a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common SPIR-V versions.
var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_4 = Version{1, 4}
	Version1_5 = Version{1, 5}
	Version1_6 = Version{1, 6}
)

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v is older than o.
func (v Version) Less(o Version) bool {
	return v.Major < o.Major || v.Major == o.Major && v.Minor < o.Minor
}

// ParseVersion parses a "major.minor" version such as "1.4".
func ParseVersion(s string) (Version, bool) {
	var v Version
	var rest string
	if n, _ := fmt.Sscanf(s, "%d.%d%s", &v.Major, &v.Minor, &rest); n != 2 {
		return Version{}, false
	}
	return v, v.Major == 1 && v.Minor <= 6
}

// word returns the version as encoded in the module header.
func (v Version) word() uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)<<8
}

// Options configures SPIR-V generation.
type Options struct {
	// Version is the SPIR-V version to target. Defaults to 1.3 if zero.
	Version Version

	// Capabilities are additional capabilities to declare.
	Capabilities []Capability

	// Debug emits OpName and OpMemberName for named values and types.
	Debug bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Version: Version1_3,
		Debug:   true,
	}
}

// TranslationInfo describes a generated module.
type TranslationInfo struct {
	// EntryPointNames maps IR entry point names to OpEntryPoint names.
	EntryPointNames map[string]string

	// Capabilities lists the declared capabilities in declaration order.
	Capabilities []Capability

	// Bound is the id bound written to the header.
	Bound uint32
}

// SPIR-V magic number and constants.
const (
	MagicNumber = 0x07230203
	GeneratorID = 0x00000000 // Unregistered generator
)

// Capability represents a SPIR-V capability.
type Capability uint32

const (
	CapabilityMatrix                             Capability = 0
	CapabilityShader                             Capability = 1
	CapabilityFloat16                            Capability = 9
	CapabilityFloat64                            Capability = 10
	CapabilityInt64                              Capability = 11
	CapabilityInt16                              Capability = 22
	CapabilitySampleRateShading                  Capability = 35
	CapabilityStorageBuffer16BitAccess           Capability = 4433
	CapabilityUniformAndStorageBuffer16BitAccess Capability = 4434
	CapabilityStorageInputOutput16               Capability = 4436
)

// AddressingModel represents a SPIR-V addressing model.
type AddressingModel uint32

const (
	AddressingModelLogical AddressingModel = 0
)

// MemoryModel represents a SPIR-V memory model.
type MemoryModel uint32

const (
	MemoryModelGLSL450 MemoryModel = 1
)

// ExecutionModel represents the stage of an entry point.
type ExecutionModel uint32

const (
	ExecutionModelVertex    ExecutionModel = 0
	ExecutionModelFragment  ExecutionModel = 4
	ExecutionModelGLCompute ExecutionModel = 5
)

// ExecutionMode represents an entry point execution mode.
type ExecutionMode uint32

const (
	ExecutionModeOriginUpperLeft ExecutionMode = 7
	ExecutionModeDepthReplacing  ExecutionMode = 12
	ExecutionModeLocalSize       ExecutionMode = 17
)

// StorageClass represents a SPIR-V storage class.
type StorageClass uint32

const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassStorageBuffer   StorageClass = 12
)

// Decoration represents a SPIR-V decoration.
type Decoration uint32

const (
	DecorationBlock         Decoration = 2
	DecorationRowMajor      Decoration = 4
	DecorationColMajor      Decoration = 5
	DecorationArrayStride   Decoration = 6
	DecorationMatrixStride  Decoration = 7
	DecorationBuiltIn       Decoration = 11
	DecorationFlat          Decoration = 14
	DecorationNonWritable   Decoration = 24
	DecorationLocation      Decoration = 30
	DecorationBinding       Decoration = 33
	DecorationDescriptorSet Decoration = 34
	DecorationOffset        Decoration = 35
)

// BuiltIn represents a SPIR-V built-in variable.
type BuiltIn uint32

const (
	BuiltInPosition             BuiltIn = 0
	BuiltInFragCoord            BuiltIn = 15
	BuiltInFrontFacing          BuiltIn = 17
	BuiltInSampleID             BuiltIn = 18
	BuiltInFragDepth            BuiltIn = 22
	BuiltInNumWorkgroups        BuiltIn = 24
	BuiltInWorkgroupID          BuiltIn = 26
	BuiltInLocalInvocationID    BuiltIn = 27
	BuiltInGlobalInvocationID   BuiltIn = 28
	BuiltInLocalInvocationIndex BuiltIn = 29
	BuiltInVertexIndex          BuiltIn = 42
	BuiltInInstanceIndex        BuiltIn = 43
)

// FunctionControl is the function control mask.
type FunctionControl uint32

const FunctionControlNone FunctionControl = 0

// SelectionControl is the selection control mask.
type SelectionControl uint32

const SelectionControlNone SelectionControl = 0

// LoopControl is the loop control mask.
type LoopControl uint32

const LoopControlNone LoopControl = 0

// OpCode represents a SPIR-V opcode.
type OpCode uint16

const (
	OpNop                  OpCode = 0
	OpUndef                OpCode = 1
	OpSource               OpCode = 3
	OpName                 OpCode = 5
	OpMemberName           OpCode = 6
	OpExtension            OpCode = 10
	OpExtInstImport        OpCode = 11
	OpExtInst              OpCode = 12
	OpMemoryModel          OpCode = 14
	OpEntryPoint           OpCode = 15
	OpExecutionMode        OpCode = 16
	OpCapability           OpCode = 17
	OpTypeVoid             OpCode = 19
	OpTypeBool             OpCode = 20
	OpTypeInt              OpCode = 21
	OpTypeFloat            OpCode = 22
	OpTypeVector           OpCode = 23
	OpTypeMatrix           OpCode = 24
	OpTypeArray            OpCode = 28
	OpTypeRuntimeArray     OpCode = 29
	OpTypeStruct           OpCode = 30
	OpTypePointer          OpCode = 32
	OpTypeFunction         OpCode = 33
	OpConstantTrue         OpCode = 41
	OpConstantFalse        OpCode = 42
	OpConstant             OpCode = 43
	OpConstantComposite    OpCode = 44
	OpConstantNull         OpCode = 46
	OpFunction             OpCode = 54
	OpFunctionParameter    OpCode = 55
	OpFunctionEnd          OpCode = 56
	OpFunctionCall         OpCode = 57
	OpVariable             OpCode = 59
	OpLoad                 OpCode = 61
	OpStore                OpCode = 62
	OpAccessChain          OpCode = 65
	OpDecorate             OpCode = 71
	OpMemberDecorate       OpCode = 72
	OpVectorExtractDynamic OpCode = 77
	OpVectorShuffle        OpCode = 79
	OpCompositeConstruct   OpCode = 80
	OpCompositeExtract     OpCode = 81
	OpCopyObject           OpCode = 83
	OpConvertFToU          OpCode = 109
	OpConvertFToS          OpCode = 110
	OpConvertSToF          OpCode = 111
	OpConvertUToF          OpCode = 112
	OpFConvert             OpCode = 115
	OpBitcast              OpCode = 124
	OpSNegate              OpCode = 126
	OpFNegate              OpCode = 127
	OpIAdd                 OpCode = 128
	OpFAdd                 OpCode = 129
	OpISub                 OpCode = 130
	OpFSub                 OpCode = 131
	OpIMul                 OpCode = 132
	OpFMul                 OpCode = 133
	OpUDiv                 OpCode = 134
	OpSDiv                 OpCode = 135
	OpFDiv                 OpCode = 136
	OpUMod                 OpCode = 137
	OpSRem                 OpCode = 138
	OpFRem                 OpCode = 140
	OpVectorTimesScalar    OpCode = 142
	OpMatrixTimesScalar    OpCode = 143
	OpVectorTimesMatrix    OpCode = 144
	OpMatrixTimesVector    OpCode = 145
	OpMatrixTimesMatrix    OpCode = 146
	OpDot                  OpCode = 148
	OpAny                  OpCode = 154
	OpAll                  OpCode = 155
	OpLogicalEqual         OpCode = 164
	OpLogicalNotEqual      OpCode = 165
	OpLogicalOr            OpCode = 166
	OpLogicalAnd           OpCode = 167
	OpLogicalNot           OpCode = 168
	OpSelect               OpCode = 169
	OpIEqual               OpCode = 170
	OpINotEqual            OpCode = 171
	OpUGreaterThan         OpCode = 172
	OpSGreaterThan         OpCode = 173
	OpUGreaterThanEqual    OpCode = 174
	OpSGreaterThanEqual    OpCode = 175
	OpULessThan            OpCode = 176
	OpSLessThan            OpCode = 177
	OpULessThanEqual       OpCode = 178
	OpSLessThanEqual       OpCode = 179
	OpFOrdEqual            OpCode = 180
	OpFUnordNotEqual       OpCode = 183
	OpFOrdLessThan         OpCode = 184
	OpFOrdGreaterThan      OpCode = 186
	OpFOrdLessThanEqual    OpCode = 188
	OpFOrdGreaterThanEqual OpCode = 190
	OpShiftRightLogical    OpCode = 194
	OpShiftRightArithmetic OpCode = 195
	OpShiftLeftLogical     OpCode = 196
	OpBitwiseOr            OpCode = 197
	OpBitwiseXor           OpCode = 198
	OpBitwiseAnd           OpCode = 199
	OpNot                  OpCode = 200
	OpLoopMerge            OpCode = 246
	OpSelectionMerge       OpCode = 247
	OpLabel                OpCode = 248
	OpBranch               OpCode = 249
	OpBranchConditional    OpCode = 250
	OpSwitch               OpCode = 251
	OpKill                 OpCode = 252
	OpReturn               OpCode = 253
	OpReturnValue          OpCode = 254
	OpUnreachable          OpCode = 255
)

// GLSL.std.450 extended instructions.
const (
	GLSLstd450FAbs      uint32 = 4
	GLSLstd450SAbs      uint32 = 5
	GLSLstd450Floor     uint32 = 8
	GLSLstd450Ceil      uint32 = 9
	GLSLstd450Fract     uint32 = 10
	GLSLstd450Sin       uint32 = 13
	GLSLstd450Cos       uint32 = 14
	GLSLstd450Pow       uint32 = 26
	GLSLstd450Exp       uint32 = 27
	GLSLstd450Log       uint32 = 28
	GLSLstd450Sqrt      uint32 = 31
	GLSLstd450FMin      uint32 = 37
	GLSLstd450UMin      uint32 = 38
	GLSLstd450SMin      uint32 = 39
	GLSLstd450FMax      uint32 = 40
	GLSLstd450UMax      uint32 = 41
	GLSLstd450SMax      uint32 = 42
	GLSLstd450FClamp    uint32 = 43
	GLSLstd450UClamp    uint32 = 44
	GLSLstd450SClamp    uint32 = 45
	GLSLstd450FMix      uint32 = 46
	GLSLstd450Length    uint32 = 66
	GLSLstd450Normalize uint32 = 69
)
