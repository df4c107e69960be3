// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/shir/ir"
)

var binaryOps = [...]string{
	ir.BinaryAdd:          "+",
	ir.BinarySubtract:     "-",
	ir.BinaryMultiply:     "*",
	ir.BinaryDivide:       "/",
	ir.BinaryModulo:       "%",
	ir.BinaryAnd:          "&",
	ir.BinaryOr:           "|",
	ir.BinaryXor:          "^",
	ir.BinaryShiftLeft:    "<<",
	ir.BinaryShiftRight:   ">>",
	ir.BinaryEqual:        "==",
	ir.BinaryNotEqual:     "!=",
	ir.BinaryLess:         "<",
	ir.BinaryLessEqual:    "<=",
	ir.BinaryGreater:      ">",
	ir.BinaryGreaterEqual: ">=",
}

var unaryOps = [...]string{
	ir.UnaryNegate:     "-",
	ir.UnaryNot:        "!",
	ir.UnaryComplement: "~",
}

// builtinNames holds the HLSL intrinsics whose name differs from the IR.
var builtinNames = map[ir.BuiltinFunc]string{
	ir.BuiltinFract: "frac",
	ir.BuiltinMix:   "lerp",
}

const swizzleLetters = "xyzw"

// inlined reports whether r is emitted at its use instead of being declared.
func inlined(r *ir.InstructionResult) bool {
	if r.Name() != "" {
		return false
	}
	switch r.Instruction().(type) {
	case *ir.Var, *ir.Let:
		return false
	}
	uses := r.Uses()
	return len(uses) == 1 && uses[0].Instruction.Block() == r.Instruction().Block()
}

// expr returns the expression that evaluates v. HLSL has no pointers, so a
// pointer evaluates to the memory reference it designates.
func (w *Writer) expr(v ir.Value) string {
	switch v := v.(type) {
	case *ir.Constant:
		return w.constant(v)
	case *ir.FunctionParam:
		return w.names[v]
	case *ir.InstructionResult:
		if w.types.IsPointer(v.Type()) {
			return w.ref(v)
		}
		if name, ok := w.names[v]; ok {
			return name
		}
		return w.instExpr(v.Instruction())
	}
	w.fail(ErrInvalidModule, "unexpected value %T", v)
	return "<invalid>"
}

// sub returns the expression for v as an operand of another operator.
func (w *Writer) sub(v ir.Value) string {
	s := w.expr(v)
	if r, ok := v.(*ir.InstructionResult); ok {
		if _, named := w.names[r]; !named {
			switch r.Instruction().(type) {
			case *ir.Binary, *ir.Unary:
				return "(" + s + ")"
			}
		}
	}
	if strings.HasPrefix(s, "-") {
		return "(" + s + ")"
	}
	return s
}

// ref returns the memory reference a pointer value designates.
func (w *Writer) ref(v ir.Value) string {
	switch v := v.(type) {
	case *ir.FunctionParam:
		return w.names[v]
	case *ir.InstructionResult:
		switch inst := v.Instruction().(type) {
		case *ir.Var:
			return w.names[v]
		case *ir.Let:
			return w.ref(inst.Value())
		case *ir.Access:
			ptr, _ := w.types.PointeeOf(inst.Object().Type())
			return w.chain(w.ref(inst.Object()), ptr.Base, inst.Indices())
		}
	}
	w.fail(ErrInvalidModule, "value %s is not a reference", ir.ValueName(v))
	return "<invalid>"
}

// chain appends one postfix accessor per index to base.
func (w *Writer) chain(base string, t ir.TypeHandle, indices []ir.Value) string {
	var sb strings.Builder
	sb.WriteString(base)
	for _, idx := range indices {
		n, isConst := ir.ConstantIndex(idx)
		if _, ok := w.types.Inner(t).(ir.StructType); ok && isConst {
			sb.WriteString("." + w.memberNames[t][n])
		} else {
			sb.WriteString("[" + w.expr(idx) + "]")
		}
		t, _ = w.types.ElementType(t, n)
	}
	return sb.String()
}

func (w *Writer) isMatrix(v ir.Value) bool {
	_, ok := w.types.Inner(v.Type()).(ir.MatrixType)
	return ok
}

// instExpr returns the expression computed by inst.
//
//nolint:gocyclo,cyclop // one case per instruction kind
func (w *Writer) instExpr(inst ir.Instruction) string {
	switch i := inst.(type) {
	case *ir.Load:
		return w.ref(i.From())
	case *ir.Binary:
		return w.binaryExpr(i)
	case *ir.Unary:
		return unaryOps[i.Op] + w.sub(i.Value())
	case *ir.Convert:
		return fmt.Sprintf("%s(%s)", w.typeName(i.Result().Type()), w.expr(i.Value()))
	case *ir.Bitcast:
		return w.bitcastExpr(i)
	case *ir.Construct:
		return w.constructExpr(i.Result().Type(), i.Operands())
	case *ir.Swizzle:
		var sb strings.Builder
		for _, idx := range i.Indices {
			sb.WriteByte(swizzleLetters[idx])
		}
		return w.sub(i.Value()) + "." + sb.String()
	case *ir.Access:
		return w.chain(w.sub(i.Object()), i.Object().Type(), i.Indices())
	case *ir.Call:
		return fmt.Sprintf("%s(%s)", w.funcNames[i.Target], w.args(i.Args()))
	case *ir.BuiltinCall:
		return w.builtinExpr(i)
	}
	w.fail(ErrUnsupportedFeature, "%s does not produce an HLSL expression", inst.Opcode())
	return "<invalid>"
}

func (w *Writer) binaryExpr(b *ir.Binary) string {
	lhs, rhs := b.LHS(), b.RHS()
	// Matrices are stored transposed, so products swap operands.
	if b.Op == ir.BinaryMultiply && (w.isMatrix(lhs) || w.isMatrix(rhs)) {
		if w.isMatrix(lhs) && w.isMatrix(rhs) || w.types.VectorSizeOf(lhs.Type()) != 0 || w.types.VectorSizeOf(rhs.Type()) != 0 {
			return fmt.Sprintf("mul(%s, %s)", w.expr(rhs), w.expr(lhs))
		}
	}
	op := binaryOps[b.Op]
	if w.types.IsBool(lhs.Type()) {
		switch b.Op {
		case ir.BinaryAnd:
			op = "&&"
		case ir.BinaryOr:
			op = "||"
		}
	}
	return fmt.Sprintf("%s %s %s", w.sub(lhs), op, w.sub(rhs))
}

func (w *Writer) bitcastExpr(b *ir.Bitcast) string {
	s, _ := w.types.ScalarOf(b.Result().Type())
	fn := "asuint"
	switch {
	case s.Kind == ir.ScalarSint:
		fn = "asint"
	case s.Kind == ir.ScalarFloat && s.Width == 2:
		fn = "asfloat16"
	case s.Kind == ir.ScalarFloat:
		fn = "asfloat"
	}
	return fmt.Sprintf("%s(%s)", fn, w.expr(b.Value()))
}

// constructExpr builds a composite. Vector splats use a scalar swizzle,
// structs and arrays go through a generated constructor helper.
func (w *Writer) constructExpr(t ir.TypeHandle, args []ir.Value) string {
	switch inner := w.types.Inner(t).(type) {
	case ir.StructType, ir.ArrayType:
		return fmt.Sprintf("%s(%s)", w.constructor(t), w.args(args))
	case ir.VectorType:
		if len(args) == 1 && w.types.VectorSizeOf(args[0].Type()) == 0 {
			return fmt.Sprintf("(%s).%s", w.expr(args[0]), strings.Repeat("x", int(inner.Size)))
		}
	}
	return fmt.Sprintf("%s(%s)", w.typeName(t), w.args(args))
}

func (w *Writer) builtinExpr(c *ir.BuiltinCall) string {
	args := c.Args()
	if c.Func == ir.BuiltinSelect {
		return fmt.Sprintf("(%s ? %s : %s)", w.expr(args[2]), w.expr(args[1]), w.expr(args[0]))
	}
	name, ok := builtinNames[c.Func]
	if !ok {
		name = c.Func.String()
	}
	return fmt.Sprintf("%s(%s)", name, w.args(args))
}

func (w *Writer) args(vals []ir.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = w.expr(v)
	}
	return strings.Join(parts, ", ")
}

func (w *Writer) constant(c *ir.Constant) string {
	switch val := c.Value.(type) {
	case ir.ScalarValue:
		s, _ := w.types.Inner(c.Type()).(ir.ScalarType)
		return scalarLiteral(val, s)
	case ir.CompositeValue:
		switch w.types.Inner(c.Type()).(type) {
		case ir.StructType, ir.ArrayType:
			parts := make([]string, len(val.Components))
			for i, comp := range val.Components {
				parts[i] = w.constant(comp)
			}
			return fmt.Sprintf("%s(%s)", w.constructor(c.Type()), strings.Join(parts, ", "))
		}
		parts := make([]string, len(val.Components))
		for i, comp := range val.Components {
			parts[i] = w.constant(comp)
		}
		return fmt.Sprintf("%s(%s)", w.typeName(c.Type()), strings.Join(parts, ", "))
	case ir.ZeroValue:
		return fmt.Sprintf("(%s)0", w.typeName(c.Type()))
	}
	w.fail(ErrInvalidModule, "constant of unknown kind %T", c.Value)
	return "<invalid>"
}

func scalarLiteral(v ir.ScalarValue, s ir.ScalarType) string {
	switch v.Kind {
	case ir.ScalarBool:
		if v.BoolValue() {
			return "true"
		}
		return "false"
	case ir.ScalarSint:
		if v.I32Value() == math.MinInt32 {
			return "int(-2147483647 - 1)"
		}
		return fmt.Sprintf("%d", v.I32Value())
	case ir.ScalarUint:
		return fmt.Sprintf("%du", v.U32Value())
	}
	f := v.F32Value()
	if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) {
		return fmt.Sprintf("asfloat(0x%08xu)", uint32(v.Bits))
	}
	if s.Width == 2 {
		return ir.FormatFloat(f) + "h"
	}
	return ir.FormatFloat(f)
}
