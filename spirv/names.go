package spirv

import "strconv"

// resultKind tells whether an instruction has a result id and result type.
type resultKind uint8

const (
	noResult resultKind = iota
	hasResult
	typedResult
)

// opInfo describes the operand layout of an opcode after its result type
// and result id. Each byte of operands is one operand kind:
//
//	i  id
//	n  literal number
//	s  literal string
//	c  literal typed by the result type
//	C  Capability
//	A  AddressingModel
//	M  MemoryModel
//	E  ExecutionModel
//	X  ExecutionMode and its literals
//	S  StorageClass
//	D  Decoration and its literals
//	F  FunctionControl
//	L  LoopControl
//	P  SelectionControl
//	G  GLSL.std.450 instruction
//	p  switch literal and label pairs
//
// A kind followed by '*' matches zero or more operands.
type opInfo struct {
	name     string
	result   resultKind
	operands string
}

var opcodes = map[OpCode]opInfo{
	OpNop:                  {"OpNop", noResult, ""},
	OpUndef:                {"OpUndef", typedResult, ""},
	OpSource:               {"OpSource", noResult, "nn*"},
	OpName:                 {"OpName", noResult, "is"},
	OpMemberName:           {"OpMemberName", noResult, "ins"},
	OpExtension:            {"OpExtension", noResult, "s"},
	OpExtInstImport:        {"OpExtInstImport", hasResult, "s"},
	OpExtInst:              {"OpExtInst", typedResult, "iGi*"},
	OpMemoryModel:          {"OpMemoryModel", noResult, "AM"},
	OpEntryPoint:           {"OpEntryPoint", noResult, "Eisi*"},
	OpExecutionMode:        {"OpExecutionMode", noResult, "iX"},
	OpCapability:           {"OpCapability", noResult, "C"},
	OpTypeVoid:             {"OpTypeVoid", hasResult, ""},
	OpTypeBool:             {"OpTypeBool", hasResult, ""},
	OpTypeInt:              {"OpTypeInt", hasResult, "nn"},
	OpTypeFloat:            {"OpTypeFloat", hasResult, "n"},
	OpTypeVector:           {"OpTypeVector", hasResult, "in"},
	OpTypeMatrix:           {"OpTypeMatrix", hasResult, "in"},
	OpTypeArray:            {"OpTypeArray", hasResult, "ii"},
	OpTypeRuntimeArray:     {"OpTypeRuntimeArray", hasResult, "i"},
	OpTypeStruct:           {"OpTypeStruct", hasResult, "i*"},
	OpTypePointer:          {"OpTypePointer", hasResult, "Si"},
	OpTypeFunction:         {"OpTypeFunction", hasResult, "ii*"},
	OpConstantTrue:         {"OpConstantTrue", typedResult, ""},
	OpConstantFalse:        {"OpConstantFalse", typedResult, ""},
	OpConstant:             {"OpConstant", typedResult, "c"},
	OpConstantComposite:    {"OpConstantComposite", typedResult, "i*"},
	OpConstantNull:         {"OpConstantNull", typedResult, ""},
	OpFunction:             {"OpFunction", typedResult, "Fi"},
	OpFunctionParameter:    {"OpFunctionParameter", typedResult, ""},
	OpFunctionEnd:          {"OpFunctionEnd", noResult, ""},
	OpFunctionCall:         {"OpFunctionCall", typedResult, "ii*"},
	OpVariable:             {"OpVariable", typedResult, "Si*"},
	OpLoad:                 {"OpLoad", typedResult, "i"},
	OpStore:                {"OpStore", noResult, "ii"},
	OpAccessChain:          {"OpAccessChain", typedResult, "ii*"},
	OpDecorate:             {"OpDecorate", noResult, "iD"},
	OpMemberDecorate:       {"OpMemberDecorate", noResult, "inD"},
	OpVectorExtractDynamic: {"OpVectorExtractDynamic", typedResult, "ii"},
	OpVectorShuffle:        {"OpVectorShuffle", typedResult, "iin*"},
	OpCompositeConstruct:   {"OpCompositeConstruct", typedResult, "i*"},
	OpCompositeExtract:     {"OpCompositeExtract", typedResult, "in*"},
	OpCopyObject:           {"OpCopyObject", typedResult, "i"},
	OpConvertFToU:          {"OpConvertFToU", typedResult, "i"},
	OpConvertFToS:          {"OpConvertFToS", typedResult, "i"},
	OpConvertSToF:          {"OpConvertSToF", typedResult, "i"},
	OpConvertUToF:          {"OpConvertUToF", typedResult, "i"},
	OpFConvert:             {"OpFConvert", typedResult, "i"},
	OpBitcast:              {"OpBitcast", typedResult, "i"},
	OpSNegate:              {"OpSNegate", typedResult, "i"},
	OpFNegate:              {"OpFNegate", typedResult, "i"},
	OpIAdd:                 {"OpIAdd", typedResult, "ii"},
	OpFAdd:                 {"OpFAdd", typedResult, "ii"},
	OpISub:                 {"OpISub", typedResult, "ii"},
	OpFSub:                 {"OpFSub", typedResult, "ii"},
	OpIMul:                 {"OpIMul", typedResult, "ii"},
	OpFMul:                 {"OpFMul", typedResult, "ii"},
	OpUDiv:                 {"OpUDiv", typedResult, "ii"},
	OpSDiv:                 {"OpSDiv", typedResult, "ii"},
	OpFDiv:                 {"OpFDiv", typedResult, "ii"},
	OpUMod:                 {"OpUMod", typedResult, "ii"},
	OpSRem:                 {"OpSRem", typedResult, "ii"},
	OpFRem:                 {"OpFRem", typedResult, "ii"},
	OpVectorTimesScalar:    {"OpVectorTimesScalar", typedResult, "ii"},
	OpMatrixTimesScalar:    {"OpMatrixTimesScalar", typedResult, "ii"},
	OpVectorTimesMatrix:    {"OpVectorTimesMatrix", typedResult, "ii"},
	OpMatrixTimesVector:    {"OpMatrixTimesVector", typedResult, "ii"},
	OpMatrixTimesMatrix:    {"OpMatrixTimesMatrix", typedResult, "ii"},
	OpDot:                  {"OpDot", typedResult, "ii"},
	OpAny:                  {"OpAny", typedResult, "i"},
	OpAll:                  {"OpAll", typedResult, "i"},
	OpLogicalEqual:         {"OpLogicalEqual", typedResult, "ii"},
	OpLogicalNotEqual:      {"OpLogicalNotEqual", typedResult, "ii"},
	OpLogicalOr:            {"OpLogicalOr", typedResult, "ii"},
	OpLogicalAnd:           {"OpLogicalAnd", typedResult, "ii"},
	OpLogicalNot:           {"OpLogicalNot", typedResult, "i"},
	OpSelect:               {"OpSelect", typedResult, "iii"},
	OpIEqual:               {"OpIEqual", typedResult, "ii"},
	OpINotEqual:            {"OpINotEqual", typedResult, "ii"},
	OpUGreaterThan:         {"OpUGreaterThan", typedResult, "ii"},
	OpSGreaterThan:         {"OpSGreaterThan", typedResult, "ii"},
	OpUGreaterThanEqual:    {"OpUGreaterThanEqual", typedResult, "ii"},
	OpSGreaterThanEqual:    {"OpSGreaterThanEqual", typedResult, "ii"},
	OpULessThan:            {"OpULessThan", typedResult, "ii"},
	OpSLessThan:            {"OpSLessThan", typedResult, "ii"},
	OpULessThanEqual:       {"OpULessThanEqual", typedResult, "ii"},
	OpSLessThanEqual:       {"OpSLessThanEqual", typedResult, "ii"},
	OpFOrdEqual:            {"OpFOrdEqual", typedResult, "ii"},
	OpFUnordNotEqual:       {"OpFUnordNotEqual", typedResult, "ii"},
	OpFOrdLessThan:         {"OpFOrdLessThan", typedResult, "ii"},
	OpFOrdGreaterThan:      {"OpFOrdGreaterThan", typedResult, "ii"},
	OpFOrdLessThanEqual:    {"OpFOrdLessThanEqual", typedResult, "ii"},
	OpFOrdGreaterThanEqual: {"OpFOrdGreaterThanEqual", typedResult, "ii"},
	OpShiftRightLogical:    {"OpShiftRightLogical", typedResult, "ii"},
	OpShiftRightArithmetic: {"OpShiftRightArithmetic", typedResult, "ii"},
	OpShiftLeftLogical:     {"OpShiftLeftLogical", typedResult, "ii"},
	OpBitwiseOr:            {"OpBitwiseOr", typedResult, "ii"},
	OpBitwiseXor:           {"OpBitwiseXor", typedResult, "ii"},
	OpBitwiseAnd:           {"OpBitwiseAnd", typedResult, "ii"},
	OpNot:                  {"OpNot", typedResult, "i"},
	OpLoopMerge:            {"OpLoopMerge", noResult, "iiL"},
	OpSelectionMerge:       {"OpSelectionMerge", noResult, "iP"},
	OpLabel:                {"OpLabel", hasResult, ""},
	OpBranch:               {"OpBranch", noResult, "i"},
	OpBranchConditional:    {"OpBranchConditional", noResult, "iii"},
	OpSwitch:               {"OpSwitch", noResult, "iip*"},
	OpKill:                 {"OpKill", noResult, ""},
	OpReturn:               {"OpReturn", noResult, ""},
	OpReturnValue:          {"OpReturnValue", noResult, "i"},
	OpUnreachable:          {"OpUnreachable", noResult, ""},
}

func (op OpCode) String() string {
	if info, ok := opcodes[op]; ok {
		return info.name
	}
	return "Op" + strconv.Itoa(int(op))
}

var capabilityNames = map[Capability]string{
	CapabilityMatrix:                             "Matrix",
	CapabilityShader:                             "Shader",
	CapabilityFloat16:                            "Float16",
	CapabilityFloat64:                            "Float64",
	CapabilityInt64:                              "Int64",
	CapabilityInt16:                              "Int16",
	CapabilitySampleRateShading:                  "SampleRateShading",
	CapabilityStorageBuffer16BitAccess:           "StorageBuffer16BitAccess",
	CapabilityUniformAndStorageBuffer16BitAccess: "UniformAndStorageBuffer16BitAccess",
	CapabilityStorageInputOutput16:               "StorageInputOutput16",
}

func (c Capability) String() string { return enumName(capabilityNames, c) }

var executionModelNames = map[ExecutionModel]string{
	ExecutionModelVertex:    "Vertex",
	ExecutionModelFragment:  "Fragment",
	ExecutionModelGLCompute: "GLCompute",
}

func (m ExecutionModel) String() string { return enumName(executionModelNames, m) }

var executionModeNames = map[ExecutionMode]string{
	ExecutionModeOriginUpperLeft: "OriginUpperLeft",
	ExecutionModeDepthReplacing:  "DepthReplacing",
	ExecutionModeLocalSize:       "LocalSize",
}

func (m ExecutionMode) String() string { return enumName(executionModeNames, m) }

var storageClassNames = map[StorageClass]string{
	StorageClassUniformConstant: "UniformConstant",
	StorageClassInput:           "Input",
	StorageClassUniform:         "Uniform",
	StorageClassOutput:          "Output",
	StorageClassWorkgroup:       "Workgroup",
	StorageClassPrivate:         "Private",
	StorageClassFunction:        "Function",
	StorageClassStorageBuffer:   "StorageBuffer",
}

func (c StorageClass) String() string { return enumName(storageClassNames, c) }

var decorationNames = map[Decoration]string{
	DecorationBlock:         "Block",
	DecorationRowMajor:      "RowMajor",
	DecorationColMajor:      "ColMajor",
	DecorationArrayStride:   "ArrayStride",
	DecorationMatrixStride:  "MatrixStride",
	DecorationBuiltIn:       "BuiltIn",
	DecorationFlat:          "Flat",
	DecorationNonWritable:   "NonWritable",
	DecorationLocation:      "Location",
	DecorationBinding:       "Binding",
	DecorationDescriptorSet: "DescriptorSet",
	DecorationOffset:        "Offset",
}

func (d Decoration) String() string { return enumName(decorationNames, d) }

var builtInNames = map[BuiltIn]string{
	BuiltInPosition:             "Position",
	BuiltInFragCoord:            "FragCoord",
	BuiltInFrontFacing:          "FrontFacing",
	BuiltInSampleID:             "SampleId",
	BuiltInFragDepth:            "FragDepth",
	BuiltInNumWorkgroups:        "NumWorkgroups",
	BuiltInWorkgroupID:          "WorkgroupId",
	BuiltInLocalInvocationID:    "LocalInvocationId",
	BuiltInGlobalInvocationID:   "GlobalInvocationId",
	BuiltInLocalInvocationIndex: "LocalInvocationIndex",
	BuiltInVertexIndex:          "VertexIndex",
	BuiltInInstanceIndex:        "InstanceIndex",
}

func (b BuiltIn) String() string { return enumName(builtInNames, b) }

var glslNames = map[uint32]string{
	GLSLstd450FAbs:      "FAbs",
	GLSLstd450SAbs:      "SAbs",
	GLSLstd450Floor:     "Floor",
	GLSLstd450Ceil:      "Ceil",
	GLSLstd450Fract:     "Fract",
	GLSLstd450Sin:       "Sin",
	GLSLstd450Cos:       "Cos",
	GLSLstd450Pow:       "Pow",
	GLSLstd450Exp:       "Exp",
	GLSLstd450Log:       "Log",
	GLSLstd450Sqrt:      "Sqrt",
	GLSLstd450FMin:      "FMin",
	GLSLstd450UMin:      "UMin",
	GLSLstd450SMin:      "SMin",
	GLSLstd450FMax:      "FMax",
	GLSLstd450UMax:      "UMax",
	GLSLstd450SMax:      "SMax",
	GLSLstd450FClamp:    "FClamp",
	GLSLstd450UClamp:    "UClamp",
	GLSLstd450SClamp:    "SClamp",
	GLSLstd450FMix:      "FMix",
	GLSLstd450Length:    "Length",
	GLSLstd450Normalize: "Normalize",
}

func enumName[T ~uint32](names map[T]string, v T) string {
	if n, ok := names[v]; ok {
		return n
	}
	return strconv.FormatUint(uint64(v), 10)
}
