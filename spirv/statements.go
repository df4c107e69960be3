package spirv

import (
	"github.com/gogpu/shir/ir"
)

// functionState tracks the function being emitted.
type functionState struct {
	f    *ir.Function
	code *Function
	// terminated is set once the current SPIR-V block has its terminator.
	terminated bool
	// targets holds the branch targets of each enclosing if, loop and switch.
	targets map[ir.Instruction]targets
}

type targets struct {
	merge      uint32
	header     uint32
	continuing uint32
}

func (w *Writer) emit(op OpCode, words ...uint32) {
	w.fn.code.Emit(op, words...)
}

// emitValue emits an instruction with a fresh result id of type typ.
func (w *Writer) emitValue(op OpCode, typ uint32, operands ...uint32) uint32 {
	id := w.b.AllocID()
	w.emit(op, append([]uint32{typ, id}, operands...)...)
	return id
}

// label starts a new block, falling through from the current one.
func (w *Writer) label(id uint32) {
	if !w.fn.terminated {
		w.emit(OpBranch, id)
	}
	w.emit(OpLabel, id)
	w.fn.terminated = false
}

func (w *Writer) terminate(op OpCode, words ...uint32) {
	w.emit(op, words...)
	w.fn.terminated = true
}

// branchTo ends the current block with a branch to target unless it is
// already terminated.
func (w *Writer) branchTo(target uint32) {
	if !w.fn.terminated {
		w.terminate(OpBranch, target)
	}
}

// localVariable declares an unnamed Function-class variable.
func (w *Writer) localVariable(typ uint32) uint32 {
	id := w.b.AllocID()
	w.fn.code.Variables = append(w.fn.code.Variables,
		NewInstruction(OpVariable, w.pointerType(StorageClassFunction, typ), id, uint32(StorageClassFunction)))
	return id
}

func (w *Writer) writeFunction(f *ir.Function) {
	id := w.funcIDs[f]
	ret := w.typeID(f.ReturnType)
	params := make([]uint32, len(f.Params))
	for i, p := range f.Params {
		params[i] = w.typeID(p.Type())
	}
	code := &Function{
		Definition: NewInstruction(OpFunction, ret, id, uint32(FunctionControlNone), w.functionType(ret, params...)),
	}
	for i, p := range f.Params {
		pid := w.b.AllocID()
		code.Params = append(code.Params, NewInstruction(OpFunctionParameter, params[i], pid))
		w.values[p] = pid
		w.name(pid, p.Name())
	}
	if f.IsEntryPoint() {
		w.name(id, f.Name+"_inner")
	} else {
		w.name(id, f.Name)
	}

	w.fn = &functionState{
		f:          f,
		code:       code,
		terminated: true,
		targets:    make(map[ir.Instruction]targets),
	}
	w.label(w.b.AllocID())
	w.writeBlock(f.Block)
	if !w.fn.terminated {
		if w.types.IsVoid(f.ReturnType) {
			w.terminate(OpReturn)
		} else {
			w.terminate(OpUnreachable)
		}
	}
	w.b.AddFunction(code)
	w.fn = nil
}

func (w *Writer) writeBlock(b *ir.Block) {
	for _, inst := range b.Instructions() {
		w.writeInstruction(inst)
		if w.err != nil {
			return
		}
	}
}

func (w *Writer) writeInstruction(inst ir.Instruction) {
	switch inst := inst.(type) {
	case *ir.Var:
		w.writeLocalVar(inst)
	case *ir.Let:
		v := inst.Value()
		w.values[inst.Result()] = w.value(v)
		if r, ok := v.(*ir.InstructionResult); ok && w.globals[r] != nil {
			w.globals[inst.Result()] = w.globals[r]
		}
	case *ir.Store:
		w.emit(OpStore, w.pointer(inst.To()), w.value(inst.Value()))
	case *ir.Phony:
		// The operand has already been evaluated.
	case *ir.If:
		w.writeIf(inst)
	case *ir.Loop:
		w.writeLoop(inst)
	case *ir.Switch:
		w.writeSwitch(inst)

	case *ir.Return:
		if v := inst.Value(); v != nil {
			w.terminate(OpReturnValue, w.value(v))
		} else {
			w.terminate(OpReturn)
		}
	case *ir.ExitIf:
		w.terminate(OpBranch, w.fn.targets[inst.If].merge)
	case *ir.ExitLoop:
		w.terminate(OpBranch, w.fn.targets[inst.Loop].merge)
	case *ir.ExitSwitch:
		w.terminate(OpBranch, w.fn.targets[inst.Switch].merge)
	case *ir.Continue:
		w.terminate(OpBranch, w.fn.targets[inst.Loop].continuing)
	case *ir.NextIteration:
		w.terminate(OpBranch, w.fn.targets[inst.Loop].header)
	case *ir.BreakIf:
		t := w.fn.targets[inst.Loop]
		w.terminate(OpBranchConditional, w.value(inst.Condition()), t.merge, t.header)
	case *ir.Discard:
		w.terminate(OpKill)
	case *ir.Unreachable:
		w.terminate(OpUnreachable)

	default:
		id := w.writeValue(inst)
		if r := inst.Result(); r != nil && id != 0 {
			w.values[r] = id
			w.name(id, r.Name())
		}
	}
}

// writeLocalVar declares a function variable in the entry block and
// stores its initial value where the IR declares it.
func (w *Writer) writeLocalVar(v *ir.Var) {
	r := v.Result()
	ptr, ok := w.types.PointeeOf(r.Type())
	if !ok || ptr.Space != ir.SpaceFunction {
		w.fail(ErrInvalidModule, "variable %s in function %s is not in the function space", ir.ValueName(r), w.fn.f.Name)
		return
	}
	base := w.typeID(ptr.Base)
	id := w.localVariable(base)
	w.values[r] = id
	w.name(id, r.Name())

	var init uint32
	if v.Initializer() != nil {
		init = w.value(v.Initializer())
	} else {
		init = w.null(base)
	}
	w.emit(OpStore, id, init)
}

func (w *Writer) writeIf(i *ir.If) {
	merge := w.b.AllocID()
	w.fn.targets[i] = targets{merge: merge}

	cond := w.value(i.Condition())
	trueID := w.b.AllocID()
	falseID := merge
	hasElse := !onlyExits(i.False)
	if hasElse {
		falseID = w.b.AllocID()
	}
	w.emit(OpSelectionMerge, merge, uint32(SelectionControlNone))
	w.terminate(OpBranchConditional, cond, trueID, falseID)

	w.label(trueID)
	w.writeBlock(i.True)
	w.branchTo(merge)
	if hasElse {
		w.label(falseID)
		w.writeBlock(i.False)
		w.branchTo(merge)
	}
	w.label(merge)
}

// onlyExits reports whether b does nothing but leave its if.
func onlyExits(b *ir.Block) bool {
	if b == nil || b.IsEmpty() {
		return true
	}
	_, ok := b.Front().(*ir.ExitIf)
	return ok && b.Len() == 1
}

func (w *Writer) writeLoop(l *ir.Loop) {
	t := targets{
		header:     w.b.AllocID(),
		continuing: w.b.AllocID(),
		merge:      w.b.AllocID(),
	}
	w.fn.targets[l] = t
	body := w.b.AllocID()

	w.label(t.header)
	w.emit(OpLoopMerge, t.merge, t.continuing, uint32(LoopControlNone))
	w.terminate(OpBranch, body)

	w.label(body)
	w.writeBlock(l.Body)
	w.branchTo(t.continuing)

	w.label(t.continuing)
	if l.Continuing != nil {
		w.writeBlock(l.Continuing)
	}
	w.branchTo(t.header)

	w.label(t.merge)
}

func (w *Writer) writeSwitch(s *ir.Switch) {
	merge := w.b.AllocID()
	w.fn.targets[s] = targets{merge: merge}

	selector := w.value(s.Selector())
	labels := make([]uint32, len(s.Cases))
	def := merge
	var pairs []uint32
	for i, c := range s.Cases {
		labels[i] = w.b.AllocID()
		for _, sel := range c.Selectors {
			if sel.Default {
				def = labels[i]
			} else {
				pairs = append(pairs, sel.Value, labels[i])
			}
		}
	}
	w.emit(OpSelectionMerge, merge, uint32(SelectionControlNone))
	w.terminate(OpSwitch, append([]uint32{selector, def}, pairs...)...)

	for i, c := range s.Cases {
		w.label(labels[i])
		w.writeBlock(c.Block)
		w.branchTo(merge)
	}
	w.label(merge)
}
