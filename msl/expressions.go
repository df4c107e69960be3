package msl

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

// expr returns the expression that evaluates v. A pointer evaluates to the
// lvalue it designates, which binds to reference parameters.
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

// ref returns the lvalue a pointer value designates.
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

// chain appends one postfix accessor per index to base. Fixed-size arrays
// are indexed through their wrapper's inner member.
func (w *Writer) chain(base string, t ir.TypeHandle, indices []ir.Value) string {
	var sb strings.Builder
	sb.WriteString(base)
	for _, idx := range indices {
		n, isConst := ir.ConstantIndex(idx)
		switch inner := w.types.Inner(t).(type) {
		case ir.StructType:
			if isConst {
				sb.WriteString("." + w.memberNames[t][n])
				break
			}
			sb.WriteString("[" + w.expr(idx) + "]")
		case ir.ArrayType:
			if inner.Size != nil {
				sb.WriteString(".inner")
			}
			sb.WriteString("[" + w.expr(idx) + "]")
		default:
			sb.WriteString("[" + w.expr(idx) + "]")
		}
		t, _ = w.types.ElementType(t, n)
	}
	return sb.String()
}

// packedTarget reports whether ptr designates a packed vec3 struct member.
func (w *Writer) packedTarget(ptr ir.Value) bool {
	r, ok := ptr.(*ir.InstructionResult)
	if !ok {
		return false
	}
	switch inst := r.Instruction().(type) {
	case *ir.Let:
		return w.packedTarget(inst.Value())
	case *ir.Access:
		p, _ := w.types.PointeeOf(inst.Object().Type())
		t := p.Base
		indices := inst.Indices()
		for _, idx := range indices[:len(indices)-1] {
			n, _ := ir.ConstantIndex(idx)
			t, _ = w.types.ElementType(t, n)
		}
		n, isConst := ir.ConstantIndex(indices[len(indices)-1])
		packed := w.packed[t]
		return isConst && int(n) < len(packed) && packed[n]
	}
	return false
}

// instExpr returns the expression computed by inst.
//
//nolint:gocyclo,cyclop // one case per instruction kind
func (w *Writer) instExpr(inst ir.Instruction) string {
	switch i := inst.(type) {
	case *ir.Load:
		if w.packedTarget(i.From()) {
			return fmt.Sprintf("%s(%s)", w.typeName(i.Result().Type()), w.ref(i.From()))
		}
		return w.ref(i.From())
	case *ir.Binary:
		return w.binaryExpr(i)
	case *ir.Unary:
		return unaryOps[i.Op] + w.sub(i.Value())
	case *ir.Convert:
		return fmt.Sprintf("static_cast<%s>(%s)", w.typeName(i.Result().Type()), w.expr(i.Value()))
	case *ir.Bitcast:
		return fmt.Sprintf("as_type<%s>(%s)", w.typeName(i.Result().Type()), w.expr(i.Value()))
	case *ir.Construct:
		return w.constructExpr(i.Result().Type(), w.args(i.Operands()))
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
		return fmt.Sprintf("%s%s(%s)", Namespace, i.Func, w.args(i.Args()))
	}
	w.fail(ErrUnsupportedFeature, "%s does not produce an MSL expression", inst.Opcode())
	return "<invalid>"
}

func (w *Writer) binaryExpr(b *ir.Binary) string {
	lhs, rhs := b.LHS(), b.RHS()
	s, _ := w.types.ScalarOf(lhs.Type())
	if b.Op == ir.BinaryModulo && s.Kind == ir.ScalarFloat {
		return fmt.Sprintf("%sfmod(%s, %s)", Namespace, w.expr(lhs), w.expr(rhs))
	}
	op := binaryOps[b.Op]
	if s.Kind == ir.ScalarBool && w.types.VectorSizeOf(lhs.Type()) == 0 {
		switch b.Op {
		case ir.BinaryAnd:
			op = "&&"
		case ir.BinaryOr:
			op = "||"
		}
	}
	return fmt.Sprintf("%s %s %s", w.sub(lhs), op, w.sub(rhs))
}

// constructExpr builds a value of type t from its components. Structs and
// array wrappers use aggregate initialization.
func (w *Writer) constructExpr(t ir.TypeHandle, args string) string {
	switch w.types.Inner(t).(type) {
	case ir.StructType:
		return fmt.Sprintf("%s {%s}", w.typeName(t), args)
	case ir.ArrayType:
		return fmt.Sprintf("%s {{%s}}", w.typeName(t), args)
	}
	return fmt.Sprintf("%s(%s)", w.typeName(t), args)
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
		parts := make([]string, len(val.Components))
		for i, comp := range val.Components {
			parts[i] = w.constant(comp)
		}
		return w.constructExpr(c.Type(), strings.Join(parts, ", "))
	case ir.ZeroValue:
		return w.typeName(c.Type()) + " {}"
	}
	w.fail(ErrInvalidModule, "constant of unknown kind %T", c.Value)
	return "<invalid>"
}

func scalarLiteral(v ir.ScalarValue, s ir.ScalarType) string {
	switch v.Kind {
	case ir.ScalarSint:
		if v.I32Value() == math.MinInt32 {
			return "(-2147483647 - 1)"
		}
		return fmt.Sprintf("%d", v.I32Value())
	case ir.ScalarFloat:
		f := float64(v.F32Value())
		var lit string
		switch {
		case math.IsNaN(f):
			lit = "NAN"
		case math.IsInf(f, 1):
			lit = "INFINITY"
		case math.IsInf(f, -1):
			lit = "-INFINITY"
		default:
			return ir.FormatConstant(v, s)
		}
		if s.Width == 2 {
			return "static_cast<half>(" + lit + ")"
		}
		return lit
	}
	return ir.FormatConstant(v, s)
}
