package spirv

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/x448/float16"

	"github.com/gogpu/shir/ir"
)

const f32One = 0x3f800000

// constant returns the id of an IR constant, declaring it on first use.
func (w *Writer) constant(c *ir.Constant) uint32 {
	if id, ok := w.values[c]; ok {
		return id
	}
	t := w.typeID(c.Type())
	var id uint32
	switch v := c.Value.(type) {
	case ir.ScalarValue:
		s, _ := w.types.ScalarOf(c.Type())
		id = w.scalarConst(t, s, v.Bits)
	case ir.CompositeValue:
		parts := make([]uint32, len(v.Components))
		for i, comp := range v.Components {
			parts[i] = w.constant(comp)
		}
		id = w.constInst(OpConstantComposite, t, parts...)
	default:
		id = w.null(t)
	}
	w.values[c] = id
	return id
}

// scalarConst declares a scalar constant. Float bits are always f32 bits
// and are narrowed for f16.
func (w *Writer) scalarConst(t uint32, s ir.ScalarType, bits uint64) uint32 {
	switch {
	case s.Kind == ir.ScalarBool && bits != 0:
		return w.constInst(OpConstantTrue, t)
	case s.Kind == ir.ScalarBool:
		return w.constInst(OpConstantFalse, t)
	case s.Kind == ir.ScalarFloat && s.Width == 2:
		return w.constInst(OpConstant, t, uint32(float16.Fromfloat32(math32.Float32frombits(uint32(bits))).Bits()))
	}
	return w.constInst(OpConstant, t, uint32(bits))
}

// constInst declares a constant once per opcode, type and operands.
func (w *Writer) constInst(op OpCode, t uint32, words ...uint32) uint32 {
	key := fmt.Sprint("const", op, t, words)
	if id, ok := w.lookup[key]; ok {
		return id
	}
	id := w.b.AddConstant(op, t, words...)
	w.lookup[key] = id
	return id
}

func (w *Writer) null(t uint32) uint32 {
	return w.constInst(OpConstantNull, t)
}

func (w *Writer) constU32(v uint32) uint32 {
	return w.constInst(OpConstant, w.scalarType(ir.U32), v)
}

// splatConst returns a scalar or vector constant of type t with every
// component set to bits.
func (w *Writer) splatConst(t ir.TypeHandle, bits uint64) uint32 {
	s, _ := w.types.ScalarOf(t)
	c := w.scalarConst(w.scalarType(s), s, bits)
	n := w.types.VectorSizeOf(t)
	if n == 0 {
		return c
	}
	parts := make([]uint32, n)
	for i := range parts {
		parts[i] = c
	}
	return w.constInst(OpConstantComposite, w.typeID(t), parts...)
}

// one returns the bit pattern of 1 for a scalar kind.
func one(s ir.ScalarType) uint64 {
	if s.Kind == ir.ScalarFloat {
		return f32One
	}
	return 1
}
