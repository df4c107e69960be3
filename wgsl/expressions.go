package wgsl

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

// expr returns the expression that evaluates v.
func (w *Writer) expr(v ir.Value) string {
	switch v := v.(type) {
	case *ir.Constant:
		return w.constant(v)
	case *ir.FunctionParam:
		return w.names[v]
	case *ir.InstructionResult:
		if w.types.IsPointer(v.Type()) {
			return addressOf(w.ref(v))
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
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "*") {
		return "(" + s + ")"
	}
	return s
}

// ref returns the memory reference a pointer value designates.
func (w *Writer) ref(v ir.Value) string {
	switch v := v.(type) {
	case *ir.FunctionParam:
		return "(*" + w.names[v] + ")"
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

// deref spells a reference as a load or store target.
func deref(ref string) string {
	if strings.HasPrefix(ref, "(*") && strings.HasSuffix(ref, ")") && !strings.ContainsAny(ref[2:len(ref)-1], "()[].") {
		return ref[1 : len(ref)-1]
	}
	return ref
}

func addressOf(ref string) string {
	if d := deref(ref); strings.HasPrefix(d, "*") {
		return d[1:]
	}
	return "&" + ref
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

// instExpr returns the expression computed by inst.
//
//nolint:gocyclo,cyclop // one case per instruction kind
func (w *Writer) instExpr(inst ir.Instruction) string {
	switch i := inst.(type) {
	case *ir.Load:
		return deref(w.ref(i.From()))
	case *ir.Binary:
		return fmt.Sprintf("%s %s %s", w.sub(i.LHS()), binaryOps[i.Op], w.sub(i.RHS()))
	case *ir.Unary:
		return unaryOps[i.Op] + w.sub(i.Value())
	case *ir.Convert:
		return fmt.Sprintf("%s(%s)", w.typeName(i.Result().Type()), w.expr(i.Value()))
	case *ir.Bitcast:
		return fmt.Sprintf("bitcast<%s>(%s)", w.typeName(i.Result().Type()), w.expr(i.Value()))
	case *ir.Construct:
		return fmt.Sprintf("%s(%s)", w.typeName(i.Result().Type()), w.args(i.Operands()))
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
		return fmt.Sprintf("%s(%s)", i.Func, w.args(i.Args()))
	}
	w.fail(ErrUnsupportedFeature, "%s does not produce a WGSL expression", inst.Opcode())
	return "<invalid>"
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
		if _, ok := w.types.Inner(c.Type()).(ir.VectorType); ok && allSame(val.Components) {
			return fmt.Sprintf("%s(%s)", w.typeName(c.Type()), w.constant(val.Components[0]))
		}
		parts := make([]string, len(val.Components))
		for i, comp := range val.Components {
			parts[i] = w.constant(comp)
		}
		return fmt.Sprintf("%s(%s)", w.typeName(c.Type()), strings.Join(parts, ", "))
	case ir.ZeroValue:
		return w.typeName(c.Type()) + "()"
	}
	w.fail(ErrInvalidModule, "constant of unknown kind %T", c.Value)
	return "<invalid>"
}

func scalarLiteral(v ir.ScalarValue, s ir.ScalarType) string {
	switch v.Kind {
	case ir.ScalarSint:
		if v.I32Value() == math.MinInt32 {
			return "i32(-2147483648)"
		}
	case ir.ScalarFloat:
		f := float64(v.F32Value())
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Sprintf("bitcast<f32>(0x%08xu)", uint32(v.Bits))
		}
	}
	return ir.FormatConstant(v, s)
}

// allSame reports whether every component is the same scalar.
func allSame(cs []*ir.Constant) bool {
	if len(cs) == 0 {
		return false
	}
	first, ok := cs[0].Value.(ir.ScalarValue)
	if !ok {
		return false
	}
	for _, c := range cs[1:] {
		if v, ok := c.Value.(ir.ScalarValue); !ok || v != first {
			return false
		}
	}
	return true
}
