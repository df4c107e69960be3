// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shir/ir"
)

// Writer generates HLSL source code from IR.
type Writer struct {
	module  *ir.Module
	types   *ir.TypeRegistry
	options *Options

	// Output is assembled from three sections: struct declarations,
	// helper typedefs and functions, then resources and functions.
	head    strings.Builder
	helpers strings.Builder
	out     strings.Builder
	dst     *strings.Builder
	indent  int

	namer        *namer
	names        map[ir.Value]string
	funcNames    map[*ir.Function]string
	typeNames    map[ir.TypeHandle]string
	memberNames  map[ir.TypeHandle][]string
	arrayNames   map[ir.TypeHandle]string
	constructors map[ir.TypeHandle]string
	fragOutputs  map[ir.TypeHandle]bool
	temps        int

	currentFunction *ir.Function
	// breakable holds the enclosing loops and switches, innermost last.
	breakable []ir.ControlInstruction

	entryPointNames     map[string]string
	registerBindings    map[string]string
	helperFunctions     []string
	requiredShaderModel ShaderModel

	err error
}

func newWriter(module *ir.Module, options *Options) *Writer {
	w := &Writer{
		module:              module,
		types:               module.Types,
		options:             options,
		namer:               newNamer(),
		names:               make(map[ir.Value]string),
		funcNames:           make(map[*ir.Function]string),
		typeNames:           make(map[ir.TypeHandle]string),
		memberNames:         make(map[ir.TypeHandle][]string),
		arrayNames:          make(map[ir.TypeHandle]string),
		constructors:        make(map[ir.TypeHandle]string),
		fragOutputs:         make(map[ir.TypeHandle]bool),
		entryPointNames:     make(map[string]string),
		registerBindings:    make(map[string]string),
		requiredShaderModel: options.ShaderModel,
	}
	w.dst = &w.out
	return w
}

// String returns the generated HLSL source code.
func (w *Writer) String() string {
	sections := make([]string, 0, 3)
	for _, s := range []*strings.Builder{&w.head, &w.helpers, &w.out} {
		if s.Len() > 0 {
			sections = append(sections, s.String())
		}
	}
	return strings.Join(sections, "\n")
}

func (w *Writer) writeModule() error {
	if w.usesF16() {
		if !w.options.ShaderModel.SupportsFloat16() {
			return NewError(ErrInvalidShaderModel, "f16 requires %s, got %s", ShaderModel6_2, w.options.ShaderModel)
		}
		w.requiredShaderModel = max(w.requiredShaderModel, ShaderModel6_2)
	}

	funcs := w.module.CallOrder()
	w.registerNames(funcs)

	w.dst = &w.head
	w.writeStructs()

	w.dst = &w.out
	w.writeGlobals()
	for _, f := range funcs {
		if w.err != nil {
			break
		}
		w.separate()
		w.writeFunction(f)
	}
	return w.err
}

// registerNames assigns unique names to functions, structs and members.
// Entry points are named first so that they keep their IR names.
func (w *Writer) registerNames(funcs []*ir.Function) {
	for _, f := range funcs {
		if !f.IsEntryPoint() {
			continue
		}
		w.funcNames[f] = w.namer.call(f.Name)
		w.entryPointNames[f.Name] = w.funcNames[f]
		if f.Stage == ir.StageFragment {
			w.fragOutputs[f.ReturnType] = true
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
}

func (w *Writer) usesF16() bool {
	for i := range w.types.Types() {
		if s, ok := w.types.ScalarOf(ir.TypeHandle(i)); ok && s == ir.F16 { //nolint:gosec // G115: i indexes the registry
			return true
		}
	}
	return false
}

// separate writes a blank line between top-level items.
func (w *Writer) separate() {
	if w.dst.Len() > 0 {
		w.dst.WriteByte('\n')
	}
}

// fail records the first error.
func (w *Writer) fail(kind ErrorKind, format string, args ...any) {
	if w.err == nil {
		w.err = NewError(kind, format, args...)
	}
}

// Output helpers

// write writes text to the output. If args are provided, uses fmt.Fprintf.
//
//nolint:goprintffuncname
func (w *Writer) write(format string, args ...any) {
	if len(args) == 0 {
		w.dst.WriteString(format)
	} else {
		fmt.Fprintf(w.dst, format, args...)
	}
}

// writeLine writes an indented line.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	w.writeIndent()
	w.write(format, args...)
	w.dst.WriteByte('\n')
}

func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.dst.WriteString("    ")
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

// inHelpers runs fn with output redirected to the helper section.
func (w *Writer) inHelpers(fn func()) {
	dst, indent := w.dst, w.indent
	w.dst, w.indent = &w.helpers, 0
	w.separate()
	fn()
	w.dst, w.indent = dst, indent
}

func nameOr(v ir.Value, fallback string) string {
	if v.Name() != "" {
		return v.Name()
	}
	return fallback
}
