package wgsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shir/ir"
)

// Writer generates WGSL source code from IR.
type Writer struct {
	module  *ir.Module
	types   *ir.TypeRegistry
	options *Options

	out    strings.Builder
	indent int

	namer       *namer
	names       map[ir.Value]string
	funcNames   map[*ir.Function]string
	typeNames   map[ir.TypeHandle]string
	memberNames map[ir.TypeHandle][]string
	temps       int

	// currentFunction is the function being written.
	currentFunction *ir.Function

	entryPointNames map[string]string
	usesF16         bool

	// err is the first error hit while writing.
	err error
}

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
		entryPointNames: make(map[string]string),
	}
}

// String returns the generated WGSL source code.
func (w *Writer) String() string {
	return w.out.String()
}

func (w *Writer) writeModule() error {
	funcs := w.module.Functions
	if w.options.EntryPointsOnly {
		funcs = reachable(w.module)
	}
	w.registerNames(funcs)

	if w.needsF16() {
		w.usesF16 = true
		w.writeLine("enable f16;")
	}

	w.writeStructs()
	w.writeGlobals()
	for _, f := range funcs {
		w.separate()
		w.writeFunction(f)
	}
	return w.err
}

// registerNames names structs, members, globals and functions up front.
// Function names are claimed first so that entry points keep theirs.
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
		st, ok := t.Inner.(ir.StructType)
		if !ok {
			continue
		}
		h := ir.TypeHandle(i) //nolint:gosec // G115: i indexes the registry
		w.typeNames[h] = w.namer.call(t.Name)
		members := make([]string, len(st.Members))
		for j, m := range st.Members {
			name := m.Name
			if name == "" {
				name = fmt.Sprintf("member_%d", j)
			}
			members[j] = Escape(name)
		}
		w.memberNames[h] = members
	}

	for _, g := range w.module.Globals() {
		w.names[g.Result()] = w.namer.call(nameOr(g.Result(), "global"))
	}
}

func (w *Writer) needsF16() bool {
	for i := range w.types.Types() {
		if s, ok := w.types.ScalarOf(ir.TypeHandle(i)); ok && s == ir.F16 { //nolint:gosec // G115: i indexes the registry
			return true
		}
	}
	return false
}

func (w *Writer) writeStructs() {
	for i, t := range w.types.Types() {
		st, ok := t.Inner.(ir.StructType)
		if !ok {
			continue
		}
		h := ir.TypeHandle(i) //nolint:gosec // G115: i indexes the registry
		w.separate()
		w.writeLine("struct %s {", w.typeNames[h])
		w.pushIndent()
		for j, m := range st.Members {
			attr := ""
			if m.Binding != nil {
				attr = ir.FormatBinding(m.Binding) + " "
			}
			w.writeLine("%s%s: %s,", attr, w.memberNames[h][j], w.typeName(m.Type))
		}
		w.popIndent()
		w.writeLine("}")
	}
}

func (w *Writer) writeGlobals() {
	globals := w.module.Globals()
	if len(globals) == 0 {
		return
	}
	w.separate()
	for _, g := range globals {
		ptr, _ := w.types.PointeeOf(g.Result().Type())
		var attr string
		if g.Binding != nil {
			attr = fmt.Sprintf("@group(%d) @binding(%d) ", g.Binding.Group, g.Binding.Binding)
		}
		space := ptr.Space.String()
		if ptr.Space == ir.SpaceStorage {
			access := "read_write"
			if ptr.Access == ir.AccessRead {
				access = "read"
			}
			space += ", " + access
		}
		decl := fmt.Sprintf("%svar<%s> %s: %s", attr, space, w.names[g.Result()], w.typeName(ptr.Base))
		if init := g.Initializer(); init != nil {
			decl += " = " + w.expr(init)
		}
		w.writeLine("%s;", decl)
	}
}

// separate writes a blank line between top-level items.
func (w *Writer) separate() {
	if w.out.Len() > 0 {
		w.out.WriteByte('\n')
	}
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

// writeLine writes an indented line.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	w.writeIndent()
	w.write(format, args...)
	w.out.WriteByte('\n')
}

func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString(w.options.Indent)
	}
}

func (w *Writer) pushIndent() {
	w.indent++
}

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

// reachable returns the functions called directly or indirectly from an
// entry point, in declaration order.
func reachable(m *ir.Module) []*ir.Function {
	seen := make(map[*ir.Function]bool)
	var visit func(f *ir.Function)
	visit = func(f *ir.Function) {
		if seen[f] {
			return
		}
		seen[f] = true
		ir.Walk(f.Block, func(inst ir.Instruction) bool {
			if c, ok := inst.(*ir.Call); ok {
				visit(c.Target)
			}
			return true
		})
	}
	for _, ep := range m.EntryPoints() {
		visit(ep)
	}

	funcs := make([]*ir.Function, 0, len(seen))
	for _, f := range m.Functions {
		if seen[f] {
			funcs = append(funcs, f)
		}
	}
	return funcs
}
