// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shir/ir"
)

// scalarTypeToHLSL returns the HLSL type name for a scalar type.
func scalarTypeToHLSL(s ir.ScalarType) string {
	switch s.Kind {
	case ir.ScalarBool:
		return "bool"
	case ir.ScalarSint:
		return "int"
	case ir.ScalarUint:
		return "uint"
	}
	if s.Width == 2 {
		return "half"
	}
	return "float"
}

// typeName returns the HLSL name of a type. Arrays are named through a
// typedef so that they can appear in casts and as return types.
func (w *Writer) typeName(t ir.TypeHandle) string {
	switch inner := w.types.Inner(t).(type) {
	case ir.VoidType:
		return "void"
	case ir.ScalarType:
		return scalarTypeToHLSL(inner)
	case ir.VectorType:
		return fmt.Sprintf("%s%d", scalarTypeToHLSL(inner.Scalar), inner.Size)
	case ir.MatrixType:
		return fmt.Sprintf("%s%dx%d", scalarTypeToHLSL(inner.Scalar), inner.Columns, inner.Rows)
	case ir.StructType:
		return w.typeNames[t]
	case ir.ArrayType:
		return w.arrayTypedef(t, inner)
	}
	w.fail(ErrUnsupportedType, "type %s has no HLSL spelling", w.types.Format(t))
	return "<invalid>"
}

// decl returns a declarator for a value of type t called name, with array
// dimensions after the name.
func (w *Writer) decl(t ir.TypeHandle, name string) string {
	var dims strings.Builder
	for {
		arr, ok := w.types.Inner(t).(ir.ArrayType)
		if !ok {
			break
		}
		if arr.Size == nil {
			w.fail(ErrUnsupportedType, "runtime-sized array %s outside a storage buffer", name)
			return "<invalid>"
		}
		fmt.Fprintf(&dims, "[%d]", *arr.Size)
		t = arr.Base
	}
	return w.typeName(t) + " " + name + dims.String()
}

// layoutDecl is decl with row_major added for matrices, so that a column of
// the IR matrix is one contiguous HLSL row in host-shareable memory.
func (w *Writer) layoutDecl(t ir.TypeHandle, name string) string {
	base := t
	for {
		arr, ok := w.types.Inner(base).(ir.ArrayType)
		if !ok {
			break
		}
		base = arr.Base
	}
	if _, ok := w.types.Inner(base).(ir.MatrixType); ok {
		return "row_major " + w.decl(t, name)
	}
	return w.decl(t, name)
}

func (w *Writer) arrayTypedef(t ir.TypeHandle, arr ir.ArrayType) string {
	if name, ok := w.arrayNames[t]; ok {
		return name
	}
	if arr.Size == nil {
		w.fail(ErrUnsupportedType, "runtime-sized array outside a storage buffer")
		return "<invalid>"
	}
	base := w.typeName(arr.Base)
	name := w.namer.call(fmt.Sprintf("array%d_%s", *arr.Size, base))
	w.arrayNames[t] = name
	w.inHelpers(func() {
		w.writeLine("typedef %s %s[%d];", base, name, *arr.Size)
	})
	return name
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
			name := w.memberNames[h][j]
			if arr, ok := w.types.Inner(m.Type).(ir.ArrayType); ok && arr.Size == nil {
				w.fail(ErrUnsupportedType, "struct %s: runtime-sized member %s", t.Name, name)
				continue
			}
			prefix, suffix := w.ioQualifiers(m.Binding, w.fragOutputs[h])
			w.writeLine("%s%s%s;", prefix, w.layoutDecl(m.Type, name), suffix)
		}
		w.popIndent()
		w.writeLine("};")
	}
}

// semantic returns the HLSL semantic for an IO binding. Locations are
// render targets for fragment outputs and LOC# everywhere else.
func (w *Writer) semantic(b ir.Binding, fragmentOutput bool) string {
	switch b := b.(type) {
	case ir.LocationBinding:
		if fragmentOutput {
			return fmt.Sprintf("SV_Target%d", b.Location)
		}
		return fmt.Sprintf("LOC%d", b.Location)
	case ir.BuiltinBinding:
		return w.builtInToSemantic(b.Builtin)
	}
	return ""
}

// builtInToSemantic returns the HLSL semantic for a built-in value.
func (w *Writer) builtInToSemantic(b ir.BuiltinValue) string {
	switch b {
	case ir.BuiltinPosition:
		return "SV_Position"
	case ir.BuiltinVertexIndex:
		return "SV_VertexID"
	case ir.BuiltinInstanceIndex:
		return "SV_InstanceID"
	case ir.BuiltinFrontFacing:
		return "SV_IsFrontFace"
	case ir.BuiltinFragDepth:
		return "SV_Depth"
	case ir.BuiltinSampleIndex:
		return "SV_SampleIndex"
	case ir.BuiltinGlobalInvocationID:
		return "SV_DispatchThreadID"
	case ir.BuiltinLocalInvocationID:
		return "SV_GroupThreadID"
	case ir.BuiltinLocalInvocationIndex:
		return "SV_GroupIndex"
	case ir.BuiltinWorkGroupID:
		return "SV_GroupID"
	}
	w.fail(ErrUnsupportedFeature, "builtin %s has no HLSL semantic", b)
	return ""
}

// ioQualifiers returns the interpolation prefix and semantic suffix for a
// binding, or empty strings when there is none.
func (w *Writer) ioQualifiers(b ir.Binding, fragmentOutput bool) (prefix, suffix string) {
	if b == nil {
		return "", ""
	}
	if loc, ok := b.(ir.LocationBinding); ok && loc.Flat && !fragmentOutput {
		prefix = "nointerpolation "
	}
	return prefix, " : " + w.semantic(b, fragmentOutput)
}
