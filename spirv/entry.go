package spirv

import (
	"github.com/gogpu/shir/ir"
)

// writeEntryPoint emits the wrapper function that OpEntryPoint names. It
// loads the Input variables, calls the translated entry function and
// stores its result to Output variables.
func (w *Writer) writeEntryPoint(f *ir.Function) {
	w.fragDepth = false
	void := w.voidType()
	wrapper := w.b.AllocID()
	code := &Function{
		Definition: NewInstruction(OpFunction, void, wrapper, uint32(FunctionControlNone), w.functionType(void)),
	}
	w.fn = &functionState{f: f, code: code, terminated: true, targets: make(map[ir.Instruction]targets)}
	w.label(w.b.AllocID())

	var interfaces []uint32
	args := make([]uint32, 0, len(f.Params)+1)
	args = append(args, w.funcIDs[f])
	for _, p := range f.Params {
		if st, ok := w.types.Inner(p.Type()).(ir.StructType); ok && p.Binding == nil {
			members := make([]uint32, len(st.Members))
			for i, m := range st.Members {
				v := w.ioVariable(f.Stage, m.Type, m.Binding, StorageClassInput, p.Name()+"_"+m.Name)
				interfaces = append(interfaces, v)
				members[i] = w.emitValue(OpLoad, w.typeID(m.Type), v)
			}
			args = append(args, w.emitValue(OpCompositeConstruct, w.typeID(p.Type()), members...))
			continue
		}
		v := w.ioVariable(f.Stage, p.Type(), p.Binding, StorageClassInput, p.Name())
		interfaces = append(interfaces, v)
		args = append(args, w.emitValue(OpLoad, w.typeID(p.Type()), v))
	}

	result := w.emitValue(OpFunctionCall, w.typeID(f.ReturnType), args...)
	if !w.types.IsVoid(f.ReturnType) {
		if st, ok := w.types.Inner(f.ReturnType).(ir.StructType); ok && f.ReturnBinding == nil {
			for i, m := range st.Members {
				v := w.ioVariable(f.Stage, m.Type, m.Binding, StorageClassOutput, f.Name+"_"+m.Name)
				interfaces = append(interfaces, v)
				part := w.emitValue(OpCompositeExtract, w.typeID(m.Type), result, uint32(i)) //nolint:gosec // G115: member counts are small
				w.emit(OpStore, v, part)
			}
		} else {
			v := w.ioVariable(f.Stage, f.ReturnType, f.ReturnBinding, StorageClassOutput, f.Name+"_out")
			interfaces = append(interfaces, v)
			w.emit(OpStore, v, result)
		}
	}
	w.terminate(OpReturn)
	w.b.AddFunction(code)
	w.fn = nil
	if w.err != nil {
		return
	}

	w.name(wrapper, f.Name)
	if !w.options.Version.Less(Version1_4) {
		interfaces = append(interfaces, w.usedGlobals(f)...)
	}
	w.b.AddEntryPoint(executionModel(f.Stage), wrapper, f.Name, interfaces)

	switch f.Stage {
	case ir.StageFragment:
		w.b.AddExecutionMode(wrapper, ExecutionModeOriginUpperLeft)
		if w.fragDepth {
			w.b.AddExecutionMode(wrapper, ExecutionModeDepthReplacing)
		}
	case ir.StageCompute:
		size := f.WorkgroupSize
		for i := range size {
			if size[i] == 0 {
				size[i] = 1
			}
		}
		w.b.AddExecutionMode(wrapper, ExecutionModeLocalSize, size[0], size[1], size[2])
	}
	w.entryPointNames[f.Name] = f.Name
}

func executionModel(stage ir.ShaderStage) ExecutionModel {
	switch stage {
	case ir.StageVertex:
		return ExecutionModelVertex
	case ir.StageFragment:
		return ExecutionModelFragment
	default:
		return ExecutionModelGLCompute
	}
}

// ioVariable declares an Input or Output variable for one entry point
// parameter, result or struct member.
func (w *Writer) ioVariable(stage ir.ShaderStage, t ir.TypeHandle, binding ir.Binding, class StorageClass, name string) uint32 {
	id := w.b.AddVariable(w.pointerType(class, w.typeID(t)), class, 0)
	w.name(id, name)
	s, _ := w.types.ScalarOf(t)

	switch b := binding.(type) {
	case ir.LocationBinding:
		w.b.AddDecorate(id, DecorationLocation, b.Location)
		if (b.Flat || s.IsInteger()) && isVarying(stage, class) {
			w.b.AddDecorate(id, DecorationFlat)
		}
	case ir.BuiltinBinding:
		builtIn, ok := ioBuiltin(stage, b.Builtin, class)
		if !ok {
			w.fail(ErrUnsupportedFeature, "@builtin(%s) is not a %s %s", b.Builtin, stage, ioDirection(class))
			return id
		}
		w.b.AddDecorate(id, DecorationBuiltIn, uint32(builtIn))
		switch builtIn {
		case BuiltInFragDepth:
			w.fragDepth = true
		case BuiltInSampleID:
			w.b.AddCapability(CapabilitySampleRateShading)
			w.b.AddDecorate(id, DecorationFlat)
		}
	default:
		w.fail(ErrInvalidModule, "entry point IO %s has no binding", name)
		return id
	}

	if s == ir.F16 {
		w.b.AddCapability(CapabilityStorageInputOutput16)
	}
	return id
}

// isVarying reports whether the variable carries interpolated data
// between the vertex and fragment stages.
func isVarying(stage ir.ShaderStage, class StorageClass) bool {
	return stage == ir.StageFragment && class == StorageClassInput ||
		stage == ir.StageVertex && class == StorageClassOutput
}

func ioDirection(class StorageClass) string {
	if class == StorageClassInput {
		return "input"
	}
	return "output"
}

// ioBuiltin maps a builtin value to the SPIR-V built-in for a stage and
// direction.
func ioBuiltin(stage ir.ShaderStage, b ir.BuiltinValue, class StorageClass) (BuiltIn, bool) {
	in := class == StorageClassInput
	switch b {
	case ir.BuiltinPosition:
		if stage == ir.StageVertex && !in {
			return BuiltInPosition, true
		}
		if stage == ir.StageFragment && in {
			return BuiltInFragCoord, true
		}
	case ir.BuiltinVertexIndex:
		return BuiltInVertexIndex, stage == ir.StageVertex && in
	case ir.BuiltinInstanceIndex:
		return BuiltInInstanceIndex, stage == ir.StageVertex && in
	case ir.BuiltinFrontFacing:
		return BuiltInFrontFacing, stage == ir.StageFragment && in
	case ir.BuiltinFragDepth:
		return BuiltInFragDepth, stage == ir.StageFragment && !in
	case ir.BuiltinSampleIndex:
		return BuiltInSampleID, stage == ir.StageFragment && in
	case ir.BuiltinLocalInvocationID:
		return BuiltInLocalInvocationID, stage == ir.StageCompute && in
	case ir.BuiltinLocalInvocationIndex:
		return BuiltInLocalInvocationIndex, stage == ir.StageCompute && in
	case ir.BuiltinGlobalInvocationID:
		return BuiltInGlobalInvocationID, stage == ir.StageCompute && in
	case ir.BuiltinWorkGroupID:
		return BuiltInWorkgroupID, stage == ir.StageCompute && in
	case ir.BuiltinNumWorkGroups:
		return BuiltInNumWorkgroups, stage == ir.StageCompute && in
	}
	return 0, false
}
