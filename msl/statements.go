package msl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shir/ir"
)

func (w *Writer) writeBlock(b *ir.Block) {
	for _, inst := range b.Instructions() {
		if w.err != nil {
			return
		}
		w.writeInstruction(inst)
	}
}

// declare names r and writes a typed declaration initialized with value.
func (w *Writer) declare(r *ir.InstructionResult, value string) {
	base := r.Name()
	if base == "" {
		base = fmt.Sprintf("_e%d", w.temps)
		w.temps++
	}
	name := w.namer.call(base)
	w.names[r] = name
	w.writeLine("%s %s = %s;", w.typeName(r.Type()), name, value)
}

//nolint:gocyclo,cyclop // one case per instruction kind
func (w *Writer) writeInstruction(inst ir.Instruction) {
	switch i := inst.(type) {
	case *ir.Var:
		ptr, _ := w.types.PointeeOf(i.Result().Type())
		name := w.namer.call(nameOr(i.Result(), "local"))
		w.names[i.Result()] = name
		init := "{}"
		if v := i.Initializer(); v != nil {
			init = w.expr(v)
		}
		w.writeLine("%s %s = %s;", w.typeName(ptr.Base), name, init)

	case *ir.Let:
		if w.types.IsPointer(i.Result().Type()) {
			return
		}
		w.declare(i.Result(), w.expr(i.Value()))

	case *ir.Store:
		w.writeLine("%s = %s;", w.ref(i.To()), w.expr(i.Value()))

	case *ir.Phony:
		w.writeLine("static_cast<void>(%s);", w.expr(i.Value()))

	case *ir.If:
		w.writeIf(i)

	case *ir.Loop:
		w.writeLoop(i)

	case *ir.Switch:
		w.writeSwitch(i)

	case *ir.Return:
		w.writeReturn(i)

	case *ir.ExitSwitch, *ir.ExitLoop:
		w.writeLine("break;")

	case *ir.Continue:
		w.writeBlock(i.Loop.Continuing)
		if i.Block() != i.Loop.Body {
			w.writeLine("continue;")
		}

	case *ir.BreakIf:
		if len(w.breakable) == 0 || w.breakable[len(w.breakable)-1] != ir.ControlInstruction(i.Loop) {
			w.fail(ErrUnsupportedFeature, "break_if of a continuing block reached from inside a switch")
			return
		}
		w.writeLine("if (%s) {", w.expr(i.Condition()))
		w.pushIndent()
		w.writeLine("break;")
		w.popIndent()
		w.writeLine("}")

	case *ir.Discard:
		w.writeLine("%sdiscard_fragment();", Namespace)

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
	w.writeLine("if (%s) {", w.expr(i.Condition()))
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

// writeLoop writes a loop as while (true) with the continuing block
// written out at every continue.
func (w *Writer) writeLoop(l *ir.Loop) {
	w.breakable = append(w.breakable, l)
	w.writeLine("while(true) {")
	w.pushIndent()
	w.writeBlock(l.Body)
	w.popIndent()
	w.writeLine("}")
	w.breakable = w.breakable[:len(w.breakable)-1]
}

func (w *Writer) writeSwitch(s *ir.Switch) {
	w.breakable = append(w.breakable, s)
	w.writeLine("switch(%s) {", w.expr(s.Selector()))
	w.pushIndent()
	sel, _ := w.types.Inner(s.Selector().Type()).(ir.ScalarType)
	for _, c := range s.Cases {
		var labels []string
		isDefault := false
		for _, cs := range c.Selectors {
			if cs.Default {
				isDefault = true
				continue
			}
			labels = append(labels, "case "+scalarLiteral(ir.ScalarValue{Bits: uint64(cs.Value), Kind: sel.Kind}, sel)+":")
		}
		if isDefault {
			labels = append(labels, "default:")
		}
		for _, l := range labels[:len(labels)-1] {
			w.writeLine("%s", l)
		}
		w.writeLine("%s {", labels[len(labels)-1])
		w.pushIndent()
		w.writeBlock(c.Block)
		w.popIndent()
		w.writeLine("}")
	}
	w.popIndent()
	w.writeLine("}")
	w.breakable = w.breakable[:len(w.breakable)-1]
}

// writeReturn writes a return. Entry points wrap the value in their
// output struct.
func (w *Writer) writeReturn(r *ir.Return) {
	v := r.Value()
	switch {
	case v == nil:
		if r.Block() != w.currentFunction.Block {
			w.writeLine("return;")
		}
	case w.entry == nil:
		w.writeLine("return %s;", w.expr(v))
	case w.entry.outputStruct:
		tmp := w.namer.call("_tmp")
		w.writeLine("const auto %s = %s;", tmp, w.expr(v))
		fields := make([]string, len(w.entry.outputs))
		for i, o := range w.entry.outputs {
			fields[i] = tmp + "." + o.source
		}
		w.writeLine("return %s { %s };", w.entry.outName, strings.Join(fields, ", "))
	default:
		w.writeLine("return %s { %s };", w.entry.outName, w.expr(v))
	}
}
