package msl

import (
	"fmt"

	"github.com/gogpu/shir/ir"
)

// Namespace is the MSL metal namespace prefix.
const Namespace = "metal::"

// typeName returns the MSL name for a type. Fixed-size arrays are named by
// their wrapper struct; a runtime-sized array is named by its element type,
// since it only appears behind a buffer pointer.
func (w *Writer) typeName(t ir.TypeHandle) string {
	switch inner := w.types.Inner(t).(type) {
	case ir.VoidType:
		return "void"
	case ir.ScalarType:
		return scalarTypeName(inner)
	case ir.VectorType:
		return vectorTypeName(inner)
	case ir.MatrixType:
		return matrixTypeName(inner)
	case ir.ArrayType:
		if inner.Size == nil {
			return w.typeName(inner.Base)
		}
		return w.typeNames[t]
	case ir.StructType:
		return w.typeNames[t]
	case ir.PointerType:
		return w.pointerTypeName(inner)
	}
	w.fail(ErrUnsupportedType, "type %s has no MSL spelling", w.types.Format(t))
	return "<invalid>"
}

// scalarTypeName returns the MSL name for a scalar type.
func scalarTypeName(s ir.ScalarType) string {
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

// vectorTypeName returns the MSL name for a vector type.
func vectorTypeName(v ir.VectorType) string {
	return fmt.Sprintf("%s%s%d", Namespace, scalarTypeName(v.Scalar), v.Size)
}

// matrixTypeName returns the MSL name for a matrix type.
func matrixTypeName(m ir.MatrixType) string {
	return fmt.Sprintf("%s%s%dx%d", Namespace, scalarTypeName(m.Scalar), m.Columns, m.Rows)
}

// pointerTypeName returns the MSL reference type for a pointer.
func (w *Writer) pointerTypeName(p ir.PointerType) string {
	return fmt.Sprintf("%s %s&", addressSpaceName(p.Space, p.Access), w.typeName(p.Base))
}

// addressSpaceName returns the MSL address space name.
func addressSpaceName(space ir.AddressSpace, access ir.AccessMode) string {
	switch space {
	case ir.SpaceUniform:
		return "constant"
	case ir.SpaceStorage:
		if access == ir.AccessRead {
			return "const device"
		}
		return "device"
	case ir.SpaceWorkGroup:
		return "threadgroup"
	default:
		return "thread"
	}
}

// writeTypes writes struct definitions and array wrappers in registry
// order, which places every type after the types it contains.
func (w *Writer) writeTypes() {
	for i, t := range w.types.Types() {
		h := ir.TypeHandle(i) //nolint:gosec // G115: i indexes the registry
		switch inner := t.Inner.(type) {
		case ir.StructType:
			w.writeStructDefinition(h, inner)
		case ir.ArrayType:
			if inner.Size != nil {
				w.writeArrayWrapper(h, inner)
			}
		}
	}
}

// writeStructDefinition writes a struct type definition.
func (w *Writer) writeStructDefinition(h ir.TypeHandle, st ir.StructType) {
	packed := w.packedMembers(h, st)
	w.packed[h] = packed

	w.writeLine("")
	w.writeLine("struct %s {", w.typeNames[h])
	w.pushIndent()
	for i, m := range st.Members {
		if arr, ok := w.types.Inner(m.Type).(ir.ArrayType); ok && arr.Size == nil {
			w.fail(ErrUnsupportedType, "struct %s: runtime-sized member %s", w.typeNames[h], w.memberNames[h][i])
			continue
		}
		memberType := w.typeName(m.Type)
		if packed[i] {
			s, _ := w.types.ScalarOf(m.Type)
			memberType = packedVectorTypeName(s)
		}
		w.writeLine("%s %s;", memberType, w.memberNames[h][i])
	}
	w.popIndent()
	w.writeLine("};")
}

// writeArrayWrapper writes a wrapper struct for an array type, so that
// arrays can be copied, passed and returned by value.
func (w *Writer) writeArrayWrapper(h ir.TypeHandle, arr ir.ArrayType) {
	w.writeLine("")
	w.writeLine("struct %s {", w.typeNames[h])
	w.pushIndent()
	w.writeLine("%s inner[%d];", w.typeName(arr.Base), *arr.Size)
	w.popIndent()
	w.writeLine("};")
}

// packedVectorTypeName returns the MSL packed vector type name.
func packedVectorTypeName(scalar ir.ScalarType) string {
	return fmt.Sprintf("%spacked_%s3", Namespace, scalarTypeName(scalar))
}

// packedMembers reports, per member, whether a vec3 must be packed. Metal
// gives vec3 a 16 byte size, so a vec3 followed by a member within 16
// bytes of its offset needs the 12 byte packed form.
func (w *Writer) packedMembers(h ir.TypeHandle, st ir.StructType) []bool {
	packed := make([]bool, len(st.Members))
	offsets := w.types.MemberOffsets(h, ir.SpaceStorage)
	size := w.types.Layout(h, ir.SpaceStorage).Size
	for i, m := range st.Members {
		if w.types.VectorSizeOf(m.Type) != ir.Vec3 {
			continue
		}
		next := size
		if i+1 < len(offsets) {
			next = offsets[i+1]
		}
		packed[i] = next < offsets[i]+16
	}
	return packed
}
