package spirv

import (
	"fmt"
	"slices"

	"github.com/gogpu/shir/ir"
)

// Writer translates an IR module to SPIR-V.
type Writer struct {
	module  *ir.Module
	types   *ir.TypeRegistry
	options Options
	b       *ModuleBuilder

	glslID uint32

	typeIDs map[ir.TypeHandle]uint32
	// lookup interns non-aggregate types and constants by their operands.
	lookup map[string]uint32
	// layouts holds the address space each host-shareable type is laid
	// out for.
	layouts map[ir.TypeHandle]ir.AddressSpace
	blocks  map[ir.TypeHandle]bool

	globals map[*ir.InstructionResult]*global
	funcIDs map[*ir.Function]uint32
	values  map[ir.Value]uint32

	fn              *functionState
	fragDepth       bool
	entryPointNames map[string]string
	err             error
}

// global is a module-scope variable.
type global struct {
	id    uint32
	class StorageClass
	// wrapped globals hold their value in member 0 of a Block struct.
	wrapped bool
}

// Compile translates an IR module to a SPIR-V binary.
func Compile(module *ir.Module, options Options) ([]byte, TranslationInfo, error) {
	if module == nil {
		return nil, TranslationInfo{}, newError(ErrInvalidModule, "nil module")
	}
	if options.Version.Major == 0 {
		options.Version = Version1_3
	}
	if options.Version.Less(Version1_3) {
		return nil, TranslationInfo{}, newError(ErrUnsupportedFeature, "SPIR-V %s is not supported, 1.3 or later is required", options.Version)
	}

	w := newWriter(module, options)
	if err := w.writeModule(); err != nil {
		return nil, TranslationInfo{}, err
	}
	info := TranslationInfo{
		EntryPointNames: w.entryPointNames,
		Capabilities:    slices.Clone(w.b.Capabilities()),
		Bound:           w.b.Bound(),
	}
	return w.b.Build(), info, nil
}

func newWriter(module *ir.Module, options Options) *Writer {
	return &Writer{
		module:          module,
		types:           module.Types,
		options:         options,
		b:               NewModuleBuilder(options.Version),
		typeIDs:         make(map[ir.TypeHandle]uint32),
		lookup:          make(map[string]uint32),
		layouts:         make(map[ir.TypeHandle]ir.AddressSpace),
		blocks:          make(map[ir.TypeHandle]bool),
		globals:         make(map[*ir.InstructionResult]*global),
		funcIDs:         make(map[*ir.Function]uint32),
		values:          make(map[ir.Value]uint32),
		entryPointNames: make(map[string]string),
	}
}

func (w *Writer) fail(kind ErrorKind, format string, args ...any) {
	if w.err == nil {
		w.err = newError(kind, format, args...)
	}
}

// name attaches a debug name to id.
func (w *Writer) name(id uint32, name string) {
	if w.options.Debug && name != "" && id != 0 {
		w.b.AddName(id, name)
	}
}

func (w *Writer) writeModule() error {
	w.b.AddCapability(CapabilityShader)
	for _, c := range w.options.Capabilities {
		w.b.AddCapability(c)
	}
	w.glslID = w.b.AddExtInstImport("GLSL.std.450")
	w.b.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)

	globals := w.module.Globals()
	for _, g := range globals {
		if ptr, ok := w.types.PointeeOf(g.Result().Type()); ok && ptr.Space.IsHostShareable() {
			w.markLayout(ptr.Base, ptr.Space)
		}
	}
	for _, g := range globals {
		w.writeGlobal(g)
	}
	if w.err != nil {
		return w.err
	}

	order := w.module.CallOrder()
	for _, f := range order {
		w.funcIDs[f] = w.b.AllocID()
	}
	for _, f := range order {
		w.writeFunction(f)
		if w.err != nil {
			return w.err
		}
	}
	for _, f := range order {
		if f.IsEntryPoint() {
			w.writeEntryPoint(f)
		}
	}
	return w.err
}

// markLayout records the address space t is laid out for. A type shared
// by uniform and storage buffers must have the same layout in both.
func (w *Writer) markLayout(t ir.TypeHandle, space ir.AddressSpace) {
	if s, ok := w.types.ScalarOf(t); ok && s == ir.F16 {
		w.b.AddCapability(CapabilityStorageBuffer16BitAccess)
		if space == ir.SpaceUniform {
			w.b.AddCapability(CapabilityUniformAndStorageBuffer16BitAccess)
		}
	}
	switch inner := w.types.Inner(t).(type) {
	case ir.ArrayType:
		if prev, ok := w.layouts[t]; ok {
			if prev != space && w.types.ArrayStride(t, prev) != w.types.ArrayStride(t, space) {
				w.fail(ErrUnsupportedType, "array %s is shared by %s and %s buffers with different strides", w.types.Format(t), prev, space)
			}
			return
		}
		w.layouts[t] = space
		w.markLayout(inner.Base, space)
	case ir.StructType:
		if prev, ok := w.layouts[t]; ok {
			if prev != space && !slices.Equal(w.types.MemberOffsets(t, prev), w.types.MemberOffsets(t, space)) {
				w.fail(ErrUnsupportedType, "struct %s is shared by %s and %s buffers with different layouts", w.types.Format(t), prev, space)
			}
			return
		}
		w.layouts[t] = space
		for _, m := range inner.Members {
			w.markLayout(m.Type, space)
		}
	}
}

// writeGlobal declares a module-scope variable. Uniform and storage
// variables whose type is not a struct are wrapped in a Block struct.
func (w *Writer) writeGlobal(g *ir.Var) {
	r := g.Result()
	ptr, ok := w.types.PointeeOf(r.Type())
	if !ok {
		w.fail(ErrInvalidModule, "module variable %s is not a pointer", ir.ValueName(r))
		return
	}
	name := r.Name()
	gl := &global{class: storageClass(ptr.Space)}

	switch ptr.Space {
	case ir.SpacePrivate:
		base := w.typeID(ptr.Base)
		var init uint32
		switch v := g.Initializer().(type) {
		case nil:
			init = w.null(base)
		case *ir.Constant:
			init = w.constant(v)
		default:
			w.fail(ErrUnsupportedFeature, "module variable %s has a non-constant initializer", name)
			return
		}
		gl.id = w.b.AddVariable(w.pointerType(gl.class, base), gl.class, init)

	case ir.SpaceWorkGroup:
		gl.id = w.b.AddVariable(w.pointerType(gl.class, w.typeID(ptr.Base)), gl.class, 0)

	case ir.SpaceUniform, ir.SpaceStorage:
		if g.Binding == nil {
			w.fail(ErrMissingBinding, "resource %s has no @group/@binding", name)
			return
		}
		var block uint32
		if _, isStruct := w.types.Inner(ptr.Base).(ir.StructType); isStruct {
			block = w.typeID(ptr.Base)
			if !w.blocks[ptr.Base] {
				w.blocks[ptr.Base] = true
				w.b.AddDecorate(block, DecorationBlock)
			}
		} else {
			gl.wrapped = true
			block = w.b.AddType(OpTypeStruct, w.typeID(ptr.Base))
			w.b.AddDecorate(block, DecorationBlock)
			w.b.AddMemberDecorate(block, 0, DecorationOffset, 0)
			w.decorateMatrix(block, 0, ptr.Base)
			if name != "" {
				w.name(block, name+"_block")
			}
			if w.options.Debug {
				w.b.AddMemberName(block, 0, "inner")
			}
		}
		gl.id = w.b.AddVariable(w.pointerType(gl.class, block), gl.class, 0)
		w.b.AddDecorate(gl.id, DecorationDescriptorSet, g.Binding.Group)
		w.b.AddDecorate(gl.id, DecorationBinding, g.Binding.Binding)
		if ptr.Space == ir.SpaceStorage && ptr.Access == ir.AccessRead {
			w.b.AddDecorate(gl.id, DecorationNonWritable)
		}

	default:
		w.fail(ErrInvalidModule, "module variable %s in %s space", name, ptr.Space)
		return
	}

	w.name(gl.id, name)
	w.globals[r] = gl
	w.values[r] = gl.id
}

// usedGlobals returns the module variables f reaches, directly or through
// calls, in declaration order.
func (w *Writer) usedGlobals(f *ir.Function) []uint32 {
	used := make(map[*ir.InstructionResult]bool)
	seen := make(map[*ir.Function]bool)
	var visit func(fn *ir.Function)
	visit = func(fn *ir.Function) {
		if seen[fn] {
			return
		}
		seen[fn] = true
		ir.Walk(fn.Block, func(inst ir.Instruction) bool {
			for _, op := range inst.Operands() {
				if r, ok := op.(*ir.InstructionResult); ok && w.globals[r] != nil {
					used[r] = true
				}
			}
			if c, ok := inst.(*ir.Call); ok && c.Target != nil {
				visit(c.Target)
			}
			return true
		})
	}
	visit(f)

	var ids []uint32
	for _, g := range w.module.Globals() {
		if used[g.Result()] {
			ids = append(ids, w.globals[g.Result()].id)
		}
	}
	return ids
}

func storageClass(space ir.AddressSpace) StorageClass {
	switch space {
	case ir.SpacePrivate:
		return StorageClassPrivate
	case ir.SpaceWorkGroup:
		return StorageClassWorkgroup
	case ir.SpaceUniform:
		return StorageClassUniform
	case ir.SpaceStorage:
		return StorageClassStorageBuffer
	default:
		return StorageClassFunction
	}
}

// structural returns the id of a non-aggregate type, declaring it once.
func (w *Writer) structural(op OpCode, operands ...uint32) uint32 {
	key := fmt.Sprint("type", op, operands)
	if id, ok := w.lookup[key]; ok {
		return id
	}
	id := w.b.AddType(op, operands...)
	w.lookup[key] = id
	return id
}
