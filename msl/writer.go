package msl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shir/ir"
)

// Writer generates MSL source code from IR.
type Writer struct {
	module  *ir.Module
	types   *ir.TypeRegistry
	options *Options

	// Output buffer
	out strings.Builder

	// Current indentation level
	indent int

	// Name management
	namer       *namer
	names       map[ir.Value]string
	funcNames   map[*ir.Function]string
	typeNames   map[ir.TypeHandle]string
	memberNames map[ir.TypeHandle][]string
	temps       int

	// packed marks vec3 struct members declared as packed vectors.
	packed map[ir.TypeHandle][]bool

	// Function context (set during function writing)
	currentFunction *ir.Function
	entry           *entryPoint
	breakable       []ir.ControlInstruction

	// Output tracking
	entryPointNames map[string]string
	workgroupSizes  map[string][3]uint32
	bufferSlots     map[string]map[string]uint8

	err error
}

// namer generates unique identifiers.
type namer struct {
	usedNames map[string]struct{}
	counter   uint32
}

func newNamer() *namer {
	return &namer{
		usedNames: make(map[string]struct{}),
	}
}

// call generates a unique name based on the given base.
func (n *namer) call(base string) string {
	// First try the base name directly
	escaped := escapeName(base)
	if _, used := n.usedNames[escaped]; !used {
		n.usedNames[escaped] = struct{}{}
		return escaped
	}

	// Add numeric suffix
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", escaped, n.counter)
		if _, used := n.usedNames[candidate]; !used {
			n.usedNames[candidate] = struct{}{}
			return candidate
		}
	}
}

// newWriter creates a new MSL writer.
func newWriter(module *ir.Module, options *Options) *Writer {
	return &Writer{
		module:          module,
		types:           module.Types,
		options:         options,
		namer:           newNamer(),
		names:           make(map[ir.Value]string),
		funcNames:       make(map[*ir.Function]string),
		typeNames:       make(map[ir.TypeHandle]string),
		memberNames:     make(map[ir.TypeHandle][]string),
		packed:          make(map[ir.TypeHandle][]bool),
		entryPointNames: make(map[string]string),
		workgroupSizes:  make(map[string][3]uint32),
		bufferSlots:     make(map[string]map[string]uint8),
	}
}

// String returns the generated MSL source code.
func (w *Writer) String() string {
	return w.out.String()
}

// writeModule generates MSL code for the entire module.
func (w *Writer) writeModule() error {
	w.writeHeader()

	funcs := w.module.CallOrder()
	w.registerNames(funcs)
	w.checkGlobalUses(funcs)
	if w.err != nil {
		return w.err
	}

	w.writeTypes()

	for _, f := range funcs {
		if w.err != nil {
			break
		}
		w.writeLine("")
		if f.IsEntryPoint() {
			w.writeEntryPoint(f)
		} else {
			w.writeFunction(f)
		}
	}
	return w.err
}

// writeHeader writes the MSL file header.
func (w *Writer) writeHeader() {
	w.writeLine("// language: metal%s", w.options.LangVersion)
	w.writeLine("#include <metal_stdlib>")
	w.writeLine("#include <simd/simd.h>")
	w.writeLine("")
	w.writeLine("using metal::uint;")
}

// registerNames assigns unique names to functions, types, members and
// module variables. Entry points are named first.
func (w *Writer) registerNames(funcs []*ir.Function) {
	for _, f := range funcs {
		if f.IsEntryPoint() {
			w.funcNames[f] = w.namer.call(f.Name)
			w.entryPointNames[f.Name] = w.funcNames[f]
		}
	}
	for _, f := range funcs {
		if !f.IsEntryPoint() {
			w.funcNames[f] = w.namer.call(f.Name)
		}
	}

	for i, t := range w.types.Types() {
		h := ir.TypeHandle(i) //nolint:gosec // G115: i indexes the registry
		switch inner := t.Inner.(type) {
		case ir.StructType:
			w.typeNames[h] = w.namer.call(t.Name)
			members := make([]string, len(inner.Members))
			for j, m := range inner.Members {
				name := m.Name
				if name == "" {
					name = fmt.Sprintf("member_%d", j)
				}
				members[j] = escapeName(name)
			}
			w.memberNames[h] = members
		case ir.ArrayType:
			if inner.Size != nil {
				base := strings.TrimPrefix(w.typeName(inner.Base), Namespace)
				w.typeNames[h] = w.namer.call(fmt.Sprintf("array%d_%s", *inner.Size, base))
			}
		}
	}

	for _, g := range w.module.Globals() {
		w.names[g.Result()] = w.namer.call(nameOr(g.Result(), "global"))
	}
}

// checkGlobalUses rejects module variables referenced outside entry points.
func (w *Writer) checkGlobalUses(funcs []*ir.Function) {
	for _, f := range funcs {
		if f.IsEntryPoint() {
			continue
		}
		for _, g := range w.referencedGlobals(f) {
			w.fail(ErrUnsupportedFeature, "module variable %s is referenced from %s, which is not an entry point",
				w.names[g.Result()], f.Name)
			return
		}
	}
}

// referencedGlobals returns the module variables f uses directly, in
// declaration order.
func (w *Writer) referencedGlobals(f *ir.Function) []*ir.Var {
	used := make(map[ir.Value]bool)
	ir.Walk(f.Block, func(inst ir.Instruction) bool {
		for _, op := range inst.Operands() {
			if r, ok := op.(*ir.InstructionResult); ok {
				if _, isVar := r.Instruction().(*ir.Var); isVar && r.Instruction().Block() == w.module.Root {
					used[r] = true
				}
			}
		}
		return true
	})
	var vars []*ir.Var
	for _, g := range w.module.Globals() {
		if used[g.Result()] {
			vars = append(vars, g)
		}
	}
	return vars
}

// fail records the first error.
func (w *Writer) fail(kind ErrorKind, format string, args ...any) {
	if w.err == nil {
		w.err = newError(kind, format, args...)
	}
}

// Output helpers

// write writes text to the output. If args are provided, uses fmt.Fprintf.
//
//nolint:goprintffuncname
func (w *Writer) write(format string, args ...any) {
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
}

// writeLine writes a line with optional format args and a newline.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	if format != "" {
		w.writeIndent()
	}
	w.write(format, args...)
	w.out.WriteByte('\n')
}

// writeIndent writes the current indentation.
func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
}

// pushIndent increases indentation.
func (w *Writer) pushIndent() {
	w.indent++
}

// popIndent decreases indentation.
func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}

func nameOr(v ir.Value, fallback string) string {
	if v.Name() != "" {
		return v.Name()
	}
	return fallback
}
