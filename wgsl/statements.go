package wgsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shir/ir"
)

func (w *Writer) writeFunction(f *ir.Function) {
	w.currentFunction = f

	switch f.Stage {
	case ir.StageCompute:
		w.writeLine("@compute @workgroup_size(%d, %d, %d)", f.WorkgroupSize[0], f.WorkgroupSize[1], f.WorkgroupSize[2])
	case ir.StageVertex, ir.StageFragment:
		w.writeLine("@%s", f.Stage)
	}

	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		name := w.namer.call(nameOr(p, fmt.Sprintf("arg_%d", i)))
		w.names[p] = name
		attr := ""
		if p.Binding != nil {
			attr = ir.FormatBinding(p.Binding) + " "
		}
		params[i] = fmt.Sprintf("%s%s: %s", attr, name, w.typeName(p.Type()))
	}

	ret := ""
	if !w.types.IsVoid(f.ReturnType) {
		ret = " -> "
		if f.ReturnBinding != nil {
			ret += ir.FormatBinding(f.ReturnBinding) + " "
		}
		ret += w.typeName(f.ReturnType)
	}

	w.writeLine("fn %s(%s)%s {", w.funcNames[f], strings.Join(params, ", "), ret)
	w.pushIndent()
	w.writeBlock(f.Block)
	w.popIndent()
	w.writeLine("}")
}

func (w *Writer) writeBlock(b *ir.Block) {
	for _, inst := range b.Instructions() {
		w.writeInstruction(inst)
	}
}

// declare names r and writes its let declaration.
func (w *Writer) declare(r *ir.InstructionResult, value string) {
	base := r.Name()
	if base == "" {
		base = fmt.Sprintf("_e%d", w.temps)
		w.temps++
	}
	name := w.namer.call(base)
	w.names[r] = name
	w.writeLine("let %s = %s;", name, value)
}

//nolint:gocyclo,cyclop // one case per instruction kind
func (w *Writer) writeInstruction(inst ir.Instruction) {
	switch i := inst.(type) {
	case *ir.Var:
		ptr, _ := w.types.PointeeOf(i.Result().Type())
		name := w.namer.call(nameOr(i.Result(), "local"))
		w.names[i.Result()] = name
		if init := i.Initializer(); init != nil {
			w.writeLine("var %s: %s = %s;", name, w.typeName(ptr.Base), w.expr(init))
		} else {
			w.writeLine("var %s: %s;", name, w.typeName(ptr.Base))
		}

	case *ir.Let:
		if w.types.IsPointer(i.Result().Type()) {
			return
		}
		w.declare(i.Result(), w.expr(i.Value()))

	case *ir.Store:
		w.writeLine("%s = %s;", deref(w.ref(i.To())), w.expr(i.Value()))

	case *ir.Phony:
		w.writeLine("_ = %s;", w.expr(i.Value()))

	case *ir.If:
		w.writeIf(i)

	case *ir.Loop:
		w.writeLoop(i)

	case *ir.Switch:
		w.writeSwitch(i)

	case *ir.Return:
		switch {
		case i.Value() != nil:
			w.writeLine("return %s;", w.expr(i.Value()))
		case i.Block() != w.currentFunction.Block:
			w.writeLine("return;")
		}

	case *ir.ExitSwitch:
		if i.Block().Parent() != ir.ControlInstruction(i.Switch) {
			w.writeLine("break;")
		}

	case *ir.ExitLoop:
		w.writeLine("break;")

	case *ir.Continue:
		if i.Block() != i.Loop.Body {
			w.writeLine("continue;")
		}

	case *ir.BreakIf:
		w.writeLine("break if %s;", w.expr(i.Condition()))

	case *ir.Discard:
		w.writeLine("discard;")

	case *ir.ExitIf, *ir.NextIteration, *ir.Unreachable:

	default:
		r := inst.Result()
		switch {
		case r == nil:
			w.writeLine("%s;", w.instExpr(inst))
		case w.types.IsPointer(r.Type()):
		case len(r.Uses()) == 0:
			if _, ok := inst.(*ir.Call); ok {
				w.writeLine("%s;", w.instExpr(inst))
			}
		case inlined(r):
		default:
			w.declare(r, w.instExpr(inst))
		}
	}
}

// onlyExits reports whether b holds nothing but its exit_if.
func onlyExits(b *ir.Block) bool {
	if b.Len() != 1 {
		return false
	}
	_, ok := b.Front().(*ir.ExitIf)
	return ok
}

func (w *Writer) writeIf(i *ir.If) {
	w.writeLine("if %s {", w.expr(i.Condition()))
	w.pushIndent()
	w.writeBlock(i.True)
	w.popIndent()
	if !onlyExits(i.False) {
		w.writeLine("} else {")
		w.pushIndent()
		w.writeBlock(i.False)
		w.popIndent()
	}
	w.writeLine("}")
}

func (w *Writer) writeLoop(l *ir.Loop) {
	w.writeLine("loop {")
	w.pushIndent()
	w.writeBlock(l.Body)
	if l.Continuing.Len() > 1 || !isNextIteration(l.Continuing.Back()) {
		w.writeLine("continuing {")
		w.pushIndent()
		w.writeBlock(l.Continuing)
		w.popIndent()
		w.writeLine("}")
	}
	w.popIndent()
	w.writeLine("}")
}

func isNextIteration(inst ir.Instruction) bool {
	_, ok := inst.(*ir.NextIteration)
	return ok
}

func (w *Writer) writeSwitch(s *ir.Switch) {
	w.writeLine("switch %s {", w.expr(s.Selector()))
	w.pushIndent()
	sel, _ := w.types.Inner(s.Selector().Type()).(ir.ScalarType)
	for _, c := range s.Cases {
		w.writeLine("%s {", caseLabel(c, sel))
		w.pushIndent()
		w.writeBlock(c.Block)
		w.popIndent()
		w.writeLine("}")
	}
	w.popIndent()
	w.writeLine("}")
}

func caseLabel(c *ir.SwitchCase, sel ir.ScalarType) string {
	if len(c.Selectors) == 1 && c.Selectors[0].Default {
		return "default:"
	}
	parts := make([]string, len(c.Selectors))
	for i, s := range c.Selectors {
		if s.Default {
			parts[i] = "default"
			continue
		}
		parts[i] = scalarLiteral(ir.ScalarValue{Bits: uint64(s.Value), Kind: sel.Kind}, sel)
	}
	return "case " + strings.Join(parts, ", ") + ":"
}
