// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shir/ir"
)

// writeFunction writes a function definition. Entry points carry their
// stage attributes and IO semantics:
//
//	[numthreads(64, 1, 1)]
//	void main(uint3 id : SV_DispatchThreadID) {
//
// Pointer parameters of other functions become inout parameters.
func (w *Writer) writeFunction(f *ir.Function) {
	w.currentFunction = f
	w.temps = 0

	if f.Stage == ir.StageCompute {
		w.writeLine("[numthreads(%d, %d, %d)]", f.WorkgroupSize[0], f.WorkgroupSize[1], f.WorkgroupSize[2])
	}

	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		name := w.namer.call(nameOr(p, fmt.Sprintf("arg_%d", i)))
		w.names[p] = name
		if ptr, ok := w.types.PointeeOf(p.Type()); ok {
			params[i] = "inout " + w.decl(ptr.Base, name)
			continue
		}
		prefix, suffix := w.ioQualifiers(p.Binding, false)
		params[i] = prefix + w.decl(p.Type(), name) + suffix
	}

	ret := w.typeName(f.ReturnType)
	_, retSemantic := w.ioQualifiers(f.ReturnBinding, f.Stage == ir.StageFragment)

	w.writeLine("%s %s(%s)%s {", ret, w.funcNames[f], strings.Join(params, ", "), retSemantic)
	w.pushIndent()
	w.writeBlock(f.Block)
	w.popIndent()
	w.writeLine("}")
}

// constructor returns the helper that builds a struct or array value from
// its components, generating it on first use:
//
//	Light ConstructLight(float3 arg0, float arg1) {
//	    Light ret = (Light)0;
//	    ret.pos = arg0;
//	    ret.power = arg1;
//	    return ret;
//	}
func (w *Writer) constructor(t ir.TypeHandle) string {
	if name, ok := w.constructors[t]; ok {
		return name
	}
	typ := w.typeName(t)
	name := w.namer.callWithPrefix("Construct", typ)
	w.constructors[t] = name
	w.helperFunctions = append(w.helperFunctions, name)

	var params []string
	switch inner := w.types.Inner(t).(type) {
	case ir.StructType:
		for i, m := range inner.Members {
			params = append(params, w.decl(m.Type, fmt.Sprintf("arg%d", i)))
		}
		members := w.memberNames[t]
		w.inHelpers(func() {
			w.writeLine("%s %s(%s) {", typ, name, strings.Join(params, ", "))
			w.pushIndent()
			w.writeLine("%s ret = (%s)0;", typ, typ)
			for i := range inner.Members {
				w.writeLine("ret.%s = arg%d;", members[i], i)
			}
			w.writeLine("return ret;")
			w.popIndent()
			w.writeLine("}")
		})
	case ir.ArrayType:
		args := make([]string, *inner.Size)
		for i := range args {
			args[i] = fmt.Sprintf("arg%d", i)
			params = append(params, w.decl(inner.Base, args[i]))
		}
		w.inHelpers(func() {
			w.writeLine("%s %s(%s) {", typ, name, strings.Join(params, ", "))
			w.pushIndent()
			w.writeLine("%s ret = { %s };", typ, strings.Join(args, ", "))
			w.writeLine("return ret;")
			w.popIndent()
			w.writeLine("}")
		})
	}
	return name
}
