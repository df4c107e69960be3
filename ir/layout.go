package ir

// TypeLayout describes the memory layout of a host-shareable type.
type TypeLayout struct {
	Align uint32
	Size  uint32
}

// roundUp rounds n up to a multiple of align (a power of two).
func roundUp(align, n uint32) uint32 {
	return (n + align - 1) &^ (align - 1)
}

// Layout returns the alignment and size of t in the given address space.
// Follows the WGSL host-shareable rules; uniform arrays are padded to 16 bytes.
func (r *TypeRegistry) Layout(t TypeHandle, space AddressSpace) TypeLayout {
	switch inner := r.Inner(t).(type) {
	case ScalarType:
		w := uint32(inner.Width)
		return TypeLayout{Align: w, Size: w}

	case VectorType:
		return vectorLayout(inner.Size, inner.Scalar)

	case MatrixType:
		// Column-major, each column is a vector with its own alignment.
		col := vectorLayout(inner.Rows, inner.Scalar)
		stride := roundUp(col.Align, col.Size)
		return TypeLayout{Align: col.Align, Size: stride * uint32(inner.Columns)}

	case ArrayType:
		elem := r.Layout(inner.Base, space)
		stride := r.ArrayStride(t, space)
		align := elem.Align
		if space == SpaceUniform && align < 16 {
			align = 16
		}
		if inner.Size == nil {
			return TypeLayout{Align: align, Size: stride}
		}
		return TypeLayout{Align: align, Size: stride * *inner.Size}

	case StructType:
		var offset, maxAlign uint32 = 0, 1
		for _, m := range inner.Members {
			ml := r.Layout(m.Type, space)
			if ml.Align > maxAlign {
				maxAlign = ml.Align
			}
			offset = roundUp(ml.Align, offset) + ml.Size
		}
		if space == SpaceUniform && maxAlign < 16 {
			maxAlign = 16
		}
		return TypeLayout{Align: maxAlign, Size: roundUp(maxAlign, offset)}
	}

	// Default fallback
	return TypeLayout{Align: 4, Size: 4}
}

func vectorLayout(size VectorSize, s ScalarType) TypeLayout {
	w := uint32(s.Width)
	switch size {
	case Vec2:
		return TypeLayout{Align: 2 * w, Size: 2 * w}
	case Vec3:
		return TypeLayout{Align: 4 * w, Size: 3 * w}
	default:
		return TypeLayout{Align: 4 * w, Size: 4 * w}
	}
}

// ArrayStride returns the element stride of an array type.
func (r *TypeRegistry) ArrayStride(t TypeHandle, space AddressSpace) uint32 {
	arr, ok := r.Inner(t).(ArrayType)
	if !ok {
		return 0
	}
	elem := r.Layout(arr.Base, space)
	stride := roundUp(elem.Align, elem.Size)
	if space == SpaceUniform {
		stride = roundUp(16, stride)
	}
	return stride
}

// MatrixStride returns the column stride of a matrix type.
func (r *TypeRegistry) MatrixStride(t TypeHandle) uint32 {
	m, ok := r.Inner(t).(MatrixType)
	if !ok {
		return 0
	}
	col := vectorLayout(m.Rows, m.Scalar)
	return roundUp(col.Align, col.Size)
}

// MemberOffsets returns the byte offset of every member of a struct type.
func (r *TypeRegistry) MemberOffsets(t TypeHandle, space AddressSpace) []uint32 {
	st, ok := r.Inner(t).(StructType)
	if !ok {
		return nil
	}
	offsets := make([]uint32, len(st.Members))
	var offset uint32
	for i, m := range st.Members {
		ml := r.Layout(m.Type, space)
		offset = roundUp(ml.Align, offset)
		offsets[i] = offset
		offset += ml.Size
	}
	return offsets
}
