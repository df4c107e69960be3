// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"github.com/gogpu/shir/ir"
)

// writeGlobals declares module-scope variables. Uniform variables become
// cbuffers, storage variables become structured buffers:
//
//	cbuffer params : register(b2, space0) { Params params; }
//	RWStructuredBuffer<float> data : register(u0, space0);
//	StructuredBuffer<Light> lights : register(t1, space0);
//	static float g = 1.0;
//	groupshared float tile[64];
func (w *Writer) writeGlobals() {
	globals := w.module.Globals()
	if len(globals) == 0 {
		return
	}
	for _, g := range globals {
		r := g.Result()
		ptr, _ := w.types.PointeeOf(r.Type())
		name := w.namer.call(nameOr(r, "global"))
		w.names[r] = name

		switch ptr.Space {
		case ir.SpaceUniform:
			reg := w.register(g, name, RegisterTypeB)
			w.writeLine("cbuffer %s : %s { %s; }", name, reg, w.layoutDecl(ptr.Base, name))

		case ir.SpaceStorage:
			w.writeStorageBuffer(g, name, ptr)

		case ir.SpacePrivate:
			decl := "static " + w.decl(ptr.Base, name)
			if init := g.Initializer(); init != nil {
				decl += " = " + w.expr(init)
			}
			w.writeLine("%s;", decl)

		case ir.SpaceWorkGroup:
			w.writeLine("groupshared %s;", w.decl(ptr.Base, name))

		default:
			w.fail(ErrInvalidModule, "module variable %s in %s space", name, ptr.Space)
		}
	}
}

// writeStorageBuffer declares a storage variable as a structured buffer.
// A runtime-sized array is the buffer itself; any other type is element 0
// of a one-element buffer.
func (w *Writer) writeStorageBuffer(g *ir.Var, name string, ptr ir.PointerType) {
	bufType, regType := "RWStructuredBuffer", RegisterTypeU
	if ptr.Access == ir.AccessRead {
		bufType, regType = "StructuredBuffer", RegisterTypeT
	}

	elem := ptr.Base
	if arr, ok := w.types.Inner(ptr.Base).(ir.ArrayType); ok && arr.Size == nil {
		elem = arr.Base
	} else {
		w.names[g.Result()] = name + "[0]"
	}
	if st, ok := w.types.Inner(elem).(ir.StructType); ok {
		for _, m := range st.Members {
			if arr, ok := w.types.Inner(m.Type).(ir.ArrayType); ok && arr.Size == nil {
				w.fail(ErrUnsupportedType, "storage buffer %s: structs ending in a runtime-sized array are not supported", name)
				return
			}
		}
	}

	reg := w.register(g, name, regType)
	w.writeLine("%s<%s> %s : %s;", bufType, w.typeName(elem), name, reg)
}

// register resolves the register clause of a resource variable.
func (w *Writer) register(g *ir.Var, name string, rt RegisterType) string {
	if g.Binding == nil {
		w.fail(ErrMissingBinding, "resource %s has no binding", name)
		return ""
	}
	rb := ResourceBinding{Group: g.Binding.Group, Binding: g.Binding.Binding}
	target, ok := w.options.BindingMap[rb]
	if !ok {
		if !w.options.FakeMissingBindings {
			w.fail(ErrMissingBinding, "no register for @group(%d) @binding(%d)", rb.Group, rb.Binding)
			return ""
		}
		target = BindTarget{Space: uint8(rb.Group), Register: rb.Binding} //nolint:gosec // G115: groups are small
	}
	clause := target.format(rt, w.options.ShaderModel)
	w.registerBindings[name] = clause
	return clause
}
