package msl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shir/ir"
)

// ioMember is one member of an entry point's input or output struct.
type ioMember struct {
	name string
	typ  string
	attr string
	// source is the member of the returned struct an output is copied from.
	source string
}

// entryPoint holds the interface of the entry point being written.
type entryPoint struct {
	outName      string
	outputs      []ioMember
	outputStruct bool
}

// writeFunction writes a regular function definition. Pointer parameters
// become references in the pointee's address space.
func (w *Writer) writeFunction(f *ir.Function) {
	w.currentFunction = f
	w.entry = nil
	w.temps = 0

	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		name := w.namer.call(nameOr(p, fmt.Sprintf("arg_%d", i)))
		w.names[p] = name
		params[i] = w.typeName(p.Type()) + " " + name
	}

	w.writeLine("%s %s(%s) {", w.typeName(f.ReturnType), w.funcNames[f], strings.Join(params, ", "))
	w.pushIndent()
	w.writeBlock(f.Block)
	w.popIndent()
	w.writeLine("}")
}

// writeEntryPoint writes an entry point with its IO structs:
//
//	struct vs_in {
//	    metal::float4 pos [[attribute(0)]];
//	};
//	struct vs_out {
//	    metal::float4 value [[position]];
//	};
//	vertex vs_out vs(
//	  vs_in varyings [[stage_in]]
//	, uint vi [[vertex_id]]
//	, constant Camera& camera [[buffer(0)]]
//	) {
//
//nolint:gocognit,gocyclo,cyclop // walks params, result and resources in one place
func (w *Writer) writeEntryPoint(f *ir.Function) {
	w.currentFunction = f
	w.temps = 0
	name := w.funcNames[f]
	if f.Stage == ir.StageCompute {
		w.workgroupSizes[name] = f.WorkgroupSize
	}

	var (
		inputs  []ioMember
		params  []string
		prelude []string
	)
	varyings := ""
	if w.hasLocationInputs(f) {
		varyings = w.namer.call("varyings")
	}
	inNames := newNamer()

	for i, p := range f.Params {
		pname := w.namer.call(nameOr(p, fmt.Sprintf("arg_%d", i)))
		w.names[p] = pname
		typ := w.typeName(p.Type())

		if st, ok := w.types.Inner(p.Type()).(ir.StructType); ok && p.Binding == nil {
			members := w.memberNames[p.Type()]
			parts := make([]string, len(st.Members))
			for j, m := range st.Members {
				mt := w.typeName(m.Type)
				switch b := m.Binding.(type) {
				case ir.LocationBinding:
					mn := inNames.call(members[j])
					inputs = append(inputs, ioMember{name: mn, typ: mt, attr: w.inputAttr(f.Stage, b)})
					parts[j] = varyings + "." + mn
				case ir.BuiltinBinding:
					bn := w.namer.call(pname + "_" + members[j])
					params = append(params, fmt.Sprintf("%s %s %s", mt, bn, w.builtinAttr(b.Builtin, false)))
					parts[j] = bn
				default:
					w.fail(ErrMissingBinding, "entry point %s: member %s of %s has no IO binding", f.Name, members[j], pname)
					return
				}
			}
			prelude = append(prelude, fmt.Sprintf("const %s %s = { %s };", typ, pname, strings.Join(parts, ", ")))
			continue
		}

		switch b := p.Binding.(type) {
		case ir.LocationBinding:
			mn := inNames.call(pname)
			inputs = append(inputs, ioMember{name: mn, typ: typ, attr: w.inputAttr(f.Stage, b)})
			w.names[p] = varyings + "." + mn
		case ir.BuiltinBinding:
			params = append(params, fmt.Sprintf("%s %s %s", typ, pname, w.builtinAttr(b.Builtin, false)))
		default:
			w.fail(ErrMissingBinding, "entry point %s: parameter %s has no IO binding", f.Name, pname)
			return
		}
	}

	ep := &entryPoint{}
	ret := "void"
	if !w.types.IsVoid(f.ReturnType) {
		ep.outName = w.namer.call(f.Name + "_out")
		ret = ep.outName
		if st, ok := w.types.Inner(f.ReturnType).(ir.StructType); ok && f.ReturnBinding == nil {
			ep.outputStruct = true
			for j, m := range st.Members {
				mn := w.memberNames[f.ReturnType][j]
				ep.outputs = append(ep.outputs, ioMember{name: mn, typ: w.typeName(m.Type), attr: w.outputAttr(f.Stage, m.Binding), source: mn})
			}
		} else {
			ep.outputs = []ioMember{{name: "value", typ: w.typeName(f.ReturnType), attr: w.outputAttr(f.Stage, f.ReturnBinding)}}
		}
	}

	slots := make(map[string]uint8)
	var next uint8
	for _, g := range w.referencedGlobals(f) {
		ptr, _ := w.types.PointeeOf(g.Result().Type())
		gname := w.names[g.Result()]
		switch ptr.Space {
		case ir.SpaceUniform, ir.SpaceStorage:
			slot, ok := w.bufferSlot(f, g, &next)
			if !ok {
				return
			}
			slots[gname] = slot
			space := addressSpaceName(ptr.Space, ptr.Access)
			if arr, ok := w.types.Inner(ptr.Base).(ir.ArrayType); ok && arr.Size == nil {
				params = append(params, fmt.Sprintf("%s %s* %s [[buffer(%d)]]", space, w.typeName(arr.Base), gname, slot))
			} else {
				params = append(params, fmt.Sprintf("%s %s& %s [[buffer(%d)]]", space, w.typeName(ptr.Base), gname, slot))
			}
		case ir.SpacePrivate:
			init := "{}"
			if v := g.Initializer(); v != nil {
				init = w.expr(v)
			}
			prelude = append(prelude, fmt.Sprintf("%s %s = %s;", w.typeName(ptr.Base), gname, init))
		case ir.SpaceWorkGroup:
			if f.Stage != ir.StageCompute {
				w.fail(ErrUnsupportedFeature, "workgroup variable %s used from a %s entry point", gname, f.Stage)
				return
			}
			prelude = append(prelude, fmt.Sprintf("threadgroup %s %s;", w.typeName(ptr.Base), gname))
		default:
			w.fail(ErrInvalidModule, "module variable %s in %s space", gname, ptr.Space)
			return
		}
	}
	if len(slots) > 0 {
		w.bufferSlots[name] = slots
	}
	if w.err != nil {
		return
	}

	if len(inputs) > 0 {
		inName := w.namer.call(f.Name + "_in")
		w.writeIOStruct(inName, inputs)
		params = append([]string{fmt.Sprintf("%s %s [[stage_in]]", inName, varyings)}, params...)
	}
	if ep.outName != "" {
		w.writeIOStruct(ep.outName, ep.outputs)
	}

	stage := map[ir.ShaderStage]string{
		ir.StageVertex:   "vertex",
		ir.StageFragment: "fragment",
		ir.StageCompute:  "kernel",
	}[f.Stage]
	if len(params) == 0 {
		w.writeLine("%s %s %s() {", stage, ret, name)
	} else {
		w.writeLine("%s %s %s(", stage, ret, name)
		for i, p := range params {
			sep := ", "
			if i == 0 {
				sep = "  "
			}
			w.writeLine("%s%s", sep, p)
		}
		w.writeLine(") {")
	}

	w.entry = ep
	w.pushIndent()
	for _, line := range prelude {
		w.writeLine("%s", line)
	}
	w.writeBlock(f.Block)
	w.popIndent()
	w.writeLine("}")
	w.entry = nil
}

func (w *Writer) writeIOStruct(name string, members []ioMember) {
	w.writeLine("struct %s {", name)
	w.pushIndent()
	for _, m := range members {
		w.writeLine("%s %s %s;", m.typ, m.name, m.attr)
	}
	w.popIndent()
	w.writeLine("};")
}

func (w *Writer) hasLocationInputs(f *ir.Function) bool {
	for _, p := range f.Params {
		if _, ok := p.Binding.(ir.LocationBinding); ok {
			return true
		}
		if st, ok := w.types.Inner(p.Type()).(ir.StructType); ok && p.Binding == nil {
			for _, m := range st.Members {
				if _, ok := m.Binding.(ir.LocationBinding); ok {
					return true
				}
			}
		}
	}
	return false
}

// bufferSlot resolves the buffer slot of a resource for entry point f.
func (w *Writer) bufferSlot(f *ir.Function, g *ir.Var, next *uint8) (uint8, bool) {
	name := w.names[g.Result()]
	if g.Binding == nil {
		w.fail(ErrMissingBinding, "resource %s has no binding", name)
		return 0, false
	}
	if res, ok := w.options.PerEntryPointMap[f.Name]; ok {
		if bt, ok := res.Resources[*g.Binding]; ok {
			return bt.Buffer, true
		}
	}
	if !w.options.FakeMissingBindings {
		w.fail(ErrMissingBinding, "entry point %s: no buffer slot for @group(%d) @binding(%d)", f.Name, g.Binding.Group, g.Binding.Binding)
		return 0, false
	}
	slot := *next
	*next++
	return slot, true
}

func (w *Writer) inputAttr(stage ir.ShaderStage, b ir.LocationBinding) string {
	switch stage {
	case ir.StageVertex:
		return fmt.Sprintf("[[attribute(%d)]]", b.Location)
	case ir.StageFragment:
		return userAttr(b)
	}
	w.fail(ErrUnsupportedFeature, "%s entry points take no location inputs", stage)
	return ""
}

func (w *Writer) outputAttr(stage ir.ShaderStage, b ir.Binding) string {
	switch b := b.(type) {
	case ir.LocationBinding:
		if stage == ir.StageFragment {
			return fmt.Sprintf("[[color(%d)]]", b.Location)
		}
		return userAttr(b)
	case ir.BuiltinBinding:
		return w.builtinAttr(b.Builtin, true)
	}
	w.fail(ErrMissingBinding, "entry point output has no IO binding")
	return ""
}

func userAttr(b ir.LocationBinding) string {
	if b.Flat {
		return fmt.Sprintf("[[user(loc%d), flat]]", b.Location)
	}
	return fmt.Sprintf("[[user(loc%d)]]", b.Location)
}

// builtinAttr returns the attribute for a built-in value.
func (w *Writer) builtinAttr(b ir.BuiltinValue, output bool) string {
	switch b {
	case ir.BuiltinPosition:
		return "[[position]]"
	case ir.BuiltinVertexIndex:
		return "[[vertex_id]]"
	case ir.BuiltinInstanceIndex:
		return "[[instance_id]]"
	case ir.BuiltinFrontFacing:
		return "[[front_facing]]"
	case ir.BuiltinFragDepth:
		if output {
			return "[[depth(any)]]"
		}
	case ir.BuiltinSampleIndex:
		return "[[sample_id]]"
	case ir.BuiltinLocalInvocationID:
		return "[[thread_position_in_threadgroup]]"
	case ir.BuiltinLocalInvocationIndex:
		return "[[thread_index_in_threadgroup]]"
	case ir.BuiltinGlobalInvocationID:
		return "[[thread_position_in_grid]]"
	case ir.BuiltinWorkGroupID:
		return "[[threadgroup_position_in_grid]]"
	case ir.BuiltinNumWorkGroups:
		return "[[threadgroups_per_grid]]"
	}
	w.fail(ErrUnsupportedFeature, "builtin %s is not supported here", b)
	return ""
}
