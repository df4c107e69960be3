package spirv

import (
	"github.com/gogpu/shir/ir"
)

// typeID returns the SPIR-V id of an IR type, declaring it on first use.
func (w *Writer) typeID(t ir.TypeHandle) uint32 {
	if id, ok := w.typeIDs[t]; ok {
		return id
	}
	var id uint32
	switch inner := w.types.Inner(t).(type) {
	case ir.VoidType:
		id = w.structural(OpTypeVoid)
	case ir.ScalarType:
		id = w.scalarType(inner)
	case ir.VectorType:
		id = w.vectorType(inner.Size, inner.Scalar)
	case ir.MatrixType:
		id = w.structural(OpTypeMatrix, w.vectorType(inner.Rows, inner.Scalar), uint32(inner.Columns))
	case ir.ArrayType:
		id = w.arrayType(t, inner)
	case ir.StructType:
		id = w.structType(t, inner)
	case ir.PointerType:
		id = w.pointerType(storageClass(inner.Space), w.typeID(inner.Base))
	default:
		w.fail(ErrUnsupportedType, "type %s has no SPIR-V form", w.types.Format(t))
		return 0
	}
	w.typeIDs[t] = id
	return id
}

func (w *Writer) scalarType(s ir.ScalarType) uint32 {
	switch s.Kind {
	case ir.ScalarBool:
		return w.structural(OpTypeBool)
	case ir.ScalarSint:
		return w.structural(OpTypeInt, 32, 1)
	case ir.ScalarUint:
		return w.structural(OpTypeInt, 32, 0)
	}
	if s.Width == 2 {
		w.b.AddCapability(CapabilityFloat16)
	}
	return w.structural(OpTypeFloat, uint32(s.Width)*8)
}

func (w *Writer) vectorType(size ir.VectorSize, s ir.ScalarType) uint32 {
	return w.structural(OpTypeVector, w.scalarType(s), uint32(size))
}

func (w *Writer) pointerType(class StorageClass, base uint32) uint32 {
	return w.structural(OpTypePointer, uint32(class), base)
}

func (w *Writer) functionType(ret uint32, params ...uint32) uint32 {
	return w.structural(OpTypeFunction, append([]uint32{ret}, params...)...)
}

func (w *Writer) voidType() uint32 {
	return w.structural(OpTypeVoid)
}

// arrayType declares an array. Arrays reachable from a buffer carry their
// stride.
func (w *Writer) arrayType(t ir.TypeHandle, arr ir.ArrayType) uint32 {
	elem := w.typeID(arr.Base)
	var id uint32
	if arr.Size == nil {
		id = w.b.AddType(OpTypeRuntimeArray, elem)
	} else {
		id = w.b.AddType(OpTypeArray, elem, w.constU32(*arr.Size))
	}
	if space, ok := w.layouts[t]; ok {
		w.b.AddDecorate(id, DecorationArrayStride, w.types.ArrayStride(t, space))
	}
	return id
}

// structType declares a struct with its debug names and, when it is
// reachable from a buffer, its member offsets.
func (w *Writer) structType(t ir.TypeHandle, st ir.StructType) uint32 {
	members := make([]uint32, len(st.Members))
	for i, m := range st.Members {
		members[i] = w.typeID(m.Type)
	}
	id := w.b.AddType(OpTypeStruct, members...)

	if typ, ok := w.types.Lookup(t); ok {
		w.name(id, typ.Name)
	}
	if w.options.Debug {
		for i, m := range st.Members {
			if m.Name != "" {
				w.b.AddMemberName(id, uint32(i), m.Name) //nolint:gosec // G115: member counts are small
			}
		}
	}
	if space, ok := w.layouts[t]; ok {
		for i, off := range w.types.MemberOffsets(t, space) {
			w.b.AddMemberDecorate(id, uint32(i), DecorationOffset, off) //nolint:gosec // G115: member counts are small
			w.decorateMatrix(id, uint32(i), st.Members[i].Type) //nolint:gosec // G115: member counts are small
		}
	}
	return id
}

// decorateMatrix adds the column-major layout of a matrix member, looking
// through arrays of matrices.
func (w *Writer) decorateMatrix(structID, member uint32, t ir.TypeHandle) {
	for {
		arr, ok := w.types.Inner(t).(ir.ArrayType)
		if !ok {
			break
		}
		t = arr.Base
	}
	if _, ok := w.types.Inner(t).(ir.MatrixType); !ok {
		return
	}
	w.b.AddMemberDecorate(structID, member, DecorationColMajor)
	w.b.AddMemberDecorate(structID, member, DecorationMatrixStride, w.types.MatrixStride(t))
}
