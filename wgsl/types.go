package wgsl

import (
	"fmt"

	"github.com/gogpu/shir/ir"
)

// typeName returns the WGSL spelling of a type.
func (w *Writer) typeName(t ir.TypeHandle) string {
	switch inner := w.types.Inner(t).(type) {
	case ir.ScalarType:
		return ir.ScalarName(inner)
	case ir.VectorType:
		return fmt.Sprintf("vec%d<%s>", inner.Size, ir.ScalarName(inner.Scalar))
	case ir.MatrixType:
		return fmt.Sprintf("mat%dx%d<%s>", inner.Columns, inner.Rows, ir.ScalarName(inner.Scalar))
	case ir.ArrayType:
		if inner.Size == nil {
			return fmt.Sprintf("array<%s>", w.typeName(inner.Base))
		}
		return fmt.Sprintf("array<%s, %d>", w.typeName(inner.Base), *inner.Size)
	case ir.StructType:
		return w.typeNames[t]
	case ir.PointerType:
		if inner.Space == ir.SpaceStorage {
			return fmt.Sprintf("ptr<storage, %s, %s>", w.typeName(inner.Base), inner.Access)
		}
		return fmt.Sprintf("ptr<%s, %s>", inner.Space, w.typeName(inner.Base))
	}
	w.fail(ErrUnsupportedType, "type %s has no WGSL spelling", w.types.Format(t))
	return "<invalid>"
}
