package ir

import (
	"fmt"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Message string
	// Optional context
	Function    string
	Instruction string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Function != "" {
		if e.Instruction != "" {
			return fmt.Sprintf("in function %s, instruction %s: %s", e.Function, e.Instruction, e.Message)
		}
		return fmt.Sprintf("in function %s: %s", e.Function, e.Message)
	}
	if e.Instruction != "" {
		return fmt.Sprintf("instruction %s: %s", e.Instruction, e.Message)
	}
	return e.Message
}

// Validator validates IR modules.
type Validator struct {
	module *Module
	types  *TypeRegistry
	errors []ValidationError

	fn       *Function
	visible  map[Value]bool
	globals  map[Value]bool
	ids      map[ValueID]string
	controls []controlFrame
}

// controlFrame records a control instruction being validated and which of
// its blocks is current.
type controlFrame struct {
	inst  ControlInstruction
	block *Block
}

// Validate checks the IR module for correctness.
// Returns validation errors if any, or nil if module is valid.
func Validate(module *Module) ([]ValidationError, error) {
	if module == nil {
		return nil, fmt.Errorf("module is nil")
	}

	v := &Validator{
		module:  module,
		types:   module.Types,
		errors:  make([]ValidationError, 0),
		globals: make(map[Value]bool),
		ids:     make(map[ValueID]string),
	}

	v.ValidateModule()

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

// ValidateModule validates the complete module.
func (v *Validator) ValidateModule() {
	v.validateTypes()
	v.validateGlobals()
	v.validateFunctions()
}

func (v *Validator) addError(msg string, args ...any) {
	e := ValidationError{Message: fmt.Sprintf(msg, args...)}
	if v.fn != nil {
		e.Function = v.fn.Name
	}
	v.errors = append(v.errors, e)
}

func (v *Validator) addInstError(inst Instruction, msg string, args ...any) {
	e := ValidationError{Message: fmt.Sprintf(msg, args...), Instruction: describe(inst)}
	if v.fn != nil {
		e.Function = v.fn.Name
	}
	v.errors = append(v.errors, e)
}

// describe returns a short human-readable name of an instruction.
func describe(inst Instruction) string {
	if r := inst.Result(); r != nil {
		return fmt.Sprintf("%s = %s", ValueName(r), inst.Opcode())
	}
	return inst.Opcode()
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

func (v *Validator) validateTypes() {
	for i, typ := range v.types.Types() {
		v.validateType(TypeHandle(i), typ)
	}
}

func (v *Validator) isValidTypeHandle(h TypeHandle) bool {
	return int(h) < v.types.Count()
}

func (v *Validator) validateType(handle TypeHandle, typ Type) {
	switch inner := typ.Inner.(type) {
	case nil:
		v.addError("type %d has nil inner type", handle)
	case ScalarType:
		if inner.Width != 1 && inner.Width != 2 && inner.Width != 4 && inner.Width != 8 {
			v.addError("type %d: scalar width must be 1, 2, 4, or 8 bytes, got %d", handle, inner.Width)
		}
	case VectorType:
		if inner.Size != Vec2 && inner.Size != Vec3 && inner.Size != Vec4 {
			v.addError("type %d: vector size must be 2, 3, or 4, got %d", handle, inner.Size)
		}
	case MatrixType:
		if inner.Columns < Vec2 || inner.Columns > Vec4 || inner.Rows < Vec2 || inner.Rows > Vec4 {
			v.addError("type %d: matrix dimensions must be 2, 3, or 4, got %dx%d", handle, inner.Columns, inner.Rows)
		}
		if inner.Scalar.Kind != ScalarFloat {
			v.addError("type %d: matrix scalar must be float", handle)
		}
	case ArrayType:
		if !v.isValidTypeHandle(inner.Base) {
			v.addError("type %d: array base type %d does not exist", handle, inner.Base)
		} else if inner.Base >= handle {
			v.addError("type %d: array element type must be declared first", handle)
		}
		if inner.Size != nil && *inner.Size == 0 {
			v.addError("type %d: array size must be positive", handle)
		}
	case StructType:
		if typ.Name == "" {
			v.addError("type %d: struct has no name", handle)
		}
		if len(inner.Members) == 0 {
			v.addError("type %d: struct %s has no members", handle, typ.Name)
		}
		memberNames := make(map[string]bool)
		for j, member := range inner.Members {
			if member.Name == "" {
				v.addError("type %d: struct member %d has empty name", handle, j)
			}
			if memberNames[member.Name] {
				v.addError("type %d: duplicate struct member name %q", handle, member.Name)
			}
			memberNames[member.Name] = true
			if !v.isValidTypeHandle(member.Type) {
				v.addError("type %d: struct member %q type %d does not exist", handle, member.Name, member.Type)
				continue
			}
			if member.Type == handle {
				v.addError("type %d: struct member %q has circular reference", handle, member.Name)
			}
			if arr, ok := v.types.Inner(member.Type).(ArrayType); ok && arr.Size == nil && j != len(inner.Members)-1 {
				v.addError("type %d: runtime-sized array member %q must be last", handle, member.Name)
			}
		}
	case PointerType:
		if !v.isValidTypeHandle(inner.Base) {
			v.addError("type %d: pointer base type %d does not exist", handle, inner.Base)
		}
	}
}

// ---------------------------------------------------------------------------
// Module scope
// ---------------------------------------------------------------------------

func (v *Validator) validateGlobals() {
	if v.module.Root.Function() != nil {
		v.addError("module root block is owned by function %s", v.module.Root.Function().Name)
	}
	bindings := make(map[ResourceBinding]bool)
	names := make(map[string]bool)

	for _, inst := range v.module.Root.Instructions() {
		if inst.Block() != v.module.Root {
			v.addInstError(inst, "instruction block pointer does not match its block")
		}
		gv, ok := inst.(*Var)
		if !ok {
			v.addInstError(inst, "only var instructions may appear at module scope")
			continue
		}
		res := gv.Result()
		v.checkID(res)
		if res.Name() != "" {
			if names[res.Name()] {
				v.addInstError(inst, "duplicate global variable name %q", res.Name())
			}
			names[res.Name()] = true
		}
		ptr, ok := v.types.PointeeOf(res.Type())
		if !ok {
			v.addInstError(inst, "variable type must be a pointer")
			continue
		}
		switch ptr.Space {
		case SpaceFunction:
			v.addInstError(inst, "module-scope variable cannot be in function space")
		case SpaceUniform, SpaceStorage:
			if gv.Binding == nil {
				v.addInstError(inst, "%s variable requires @group/@binding", ptr.Space)
			} else {
				if bindings[*gv.Binding] {
					v.addInstError(inst, "duplicate binding @group(%d) @binding(%d)", gv.Binding.Group, gv.Binding.Binding)
				}
				bindings[*gv.Binding] = true
			}
			if gv.Initializer() != nil {
				v.addInstError(inst, "%s variable cannot have an initializer", ptr.Space)
			}
			if ptr.Space == SpaceUniform && ptr.Access != AccessRead {
				v.addInstError(inst, "uniform variables must be read-only")
			}
		case SpaceWorkGroup:
			if gv.Initializer() != nil {
				v.addInstError(inst, "workgroup variable cannot have an initializer")
			}
		}
		if ptr.Space != SpaceUniform && ptr.Space != SpaceStorage && gv.Binding != nil {
			v.addInstError(inst, "%s variable cannot have a binding", ptr.Space)
		}
		if init := gv.Initializer(); init != nil {
			if _, isConst := init.(*Constant); !isConst {
				v.addInstError(inst, "module-scope initializer must be a constant")
			} else if init.Type() != ptr.Base {
				v.addInstError(inst, "initializer type %s does not match %s",
					v.types.Format(init.Type()), v.types.Format(ptr.Base))
			}
		}
		v.checkUses(res)
		v.globals[res] = true
	}
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

func (v *Validator) validateFunctions() {
	names := make(map[string]bool)
	for _, fn := range v.module.Functions {
		v.fn = nil
		if fn.Name == "" {
			v.addError("function has no name")
		}
		if names[fn.Name] {
			v.addError("duplicate function name %q", fn.Name)
		}
		names[fn.Name] = true

		v.fn = fn
		v.visible = make(map[Value]bool)
		v.controls = v.controls[:0]
		v.validateFunction(fn)
	}
	v.fn = nil
}

func (v *Validator) validateFunction(fn *Function) {
	if fn.module != nil && fn.module != v.module {
		v.addError("function belongs to a different module")
	}
	if !v.isValidTypeHandle(fn.ReturnType) {
		v.addError("return type %d does not exist", fn.ReturnType)
	}
	for i, p := range fn.Params {
		v.checkID(p)
		if p.function != fn {
			v.addError("parameter %d is owned by another function", i)
		}
		if v.types.IsVoid(p.Type()) {
			v.addError("parameter %d has void type", i)
		}
		v.checkUses(p)
		v.visible[p] = true
	}
	if fn.IsEntryPoint() {
		v.validateEntryPoint(fn)
	}
	if fn.Block == nil {
		v.addError("function has no block")
		return
	}
	if fn.Block.Function() != fn || fn.Block.Parent() != nil {
		v.addError("function root block ownership is inconsistent")
	}
	v.validateBlock(fn.Block)
}

func (v *Validator) validateEntryPoint(fn *Function) {
	for i, p := range fn.Params {
		if p.Binding == nil && !v.isBoundStruct(p.Type()) {
			v.addError("entry point parameter %d has no IO binding", i)
		}
	}
	if !v.types.IsVoid(fn.ReturnType) && fn.ReturnBinding == nil && !v.isBoundStruct(fn.ReturnType) {
		v.addError("entry point result has no IO binding")
	}
	switch fn.Stage {
	case StageCompute:
		for _, n := range fn.WorkgroupSize {
			if n == 0 {
				v.addError("compute entry point requires a non-zero workgroup size")
				break
			}
		}
		if !v.types.IsVoid(fn.ReturnType) {
			v.addError("compute entry point must not return a value")
		}
	case StageVertex:
		if !v.returnsPosition(fn) {
			v.addError("vertex entry point must return @builtin(position)")
		}
	}
}

func (v *Validator) isBoundStruct(t TypeHandle) bool {
	st, ok := v.types.Inner(t).(StructType)
	if !ok {
		return false
	}
	for _, m := range st.Members {
		if m.Binding == nil {
			return false
		}
	}
	return true
}

func (v *Validator) returnsPosition(fn *Function) bool {
	if b, ok := fn.ReturnBinding.(BuiltinBinding); ok && b.Builtin == BuiltinPosition {
		return true
	}
	if st, ok := v.types.Inner(fn.ReturnType).(StructType); ok {
		for _, m := range st.Members {
			if b, ok := m.Binding.(BuiltinBinding); ok && b.Builtin == BuiltinPosition {
				return true
			}
		}
	}
	return false
}

func (v *Validator) checkID(val Value) {
	if prev, dup := v.ids[val.ID()]; dup {
		v.addError("value id %d is used by both %s and %s", val.ID(), prev, ValueName(val))
		return
	}
	v.ids[val.ID()] = ValueName(val)
}

// checkUses verifies that every recorded use of val really reads val.
func (v *Validator) checkUses(val Value) {
	for _, u := range val.Uses() {
		if u.Instruction == nil || !u.Instruction.Alive() {
			v.addError("value %s is used by a destroyed instruction", ValueName(val))
			continue
		}
		if u.Instruction.Operand(u.Operand) != val {
			v.addError("use list of %s is stale (operand %d of %s)", ValueName(val), u.Operand, describe(u.Instruction))
		}
	}
}

func (v *Validator) validateBlock(blk *Block) {
	if blk.Function() != v.fn {
		v.addError("block is owned by another function")
	}
	insts := blk.Instructions()
	if len(insts) == 0 {
		v.addError("block is empty; every block must end with a terminator")
		return
	}

	var defined []Value
	for i, inst := range insts {
		if inst.Block() != blk {
			v.addInstError(inst, "instruction block pointer does not match its block")
		}
		if !inst.Alive() {
			v.addInstError(inst, "destroyed instruction is still in a block")
		}
		last := i == len(insts)-1
		if IsTerminator(inst) && !last {
			v.addInstError(inst, "terminator must be the last instruction of its block")
		}
		if last && !IsTerminator(inst) {
			v.addInstError(inst, "block does not end with a terminator")
		}

		v.checkOperands(inst)
		v.validateInstruction(inst)

		if c, ok := inst.(ControlInstruction); ok {
			for _, nested := range c.Blocks() {
				if nested == nil {
					v.addInstError(inst, "control instruction has a nil block")
					continue
				}
				if nested.Parent() != c {
					v.addInstError(inst, "nested block parent does not match")
				}
				v.controls = append(v.controls, controlFrame{inst: c, block: nested})
				v.validateBlock(nested)
				v.controls = v.controls[:len(v.controls)-1]
			}
		}

		if r := inst.Result(); r != nil {
			v.checkID(r)
			if r.instruction != inst {
				v.addInstError(inst, "result does not point back at its instruction")
			}
			v.checkUses(r)
			v.visible[r] = true
			defined = append(defined, r)
		}
	}
	for _, d := range defined {
		delete(v.visible, d)
	}
}

func (v *Validator) checkOperands(inst Instruction) {
	for n, op := range inst.Operands() {
		if op == nil {
			if _, optional := inst.(*Var); optional && n == 0 {
				continue
			}
			if _, optional := inst.(*Return); optional && n == 0 {
				continue
			}
			v.addInstError(inst, "operand %d is missing", n)
			continue
		}
		found := false
		for _, u := range op.Uses() {
			if u.Instruction == inst && u.Operand == n {
				found = true
				break
			}
		}
		if !found {
			v.addInstError(inst, "operand %d (%s) does not record this use", n, ValueName(op))
		}
		switch val := op.(type) {
		case *Constant:
		case *FunctionParam:
			if val.function != v.fn {
				v.addInstError(inst, "operand %d is a parameter of another function", n)
			}
		case *InstructionResult:
			if !v.visible[val] && !v.globals[val] {
				v.addInstError(inst, "operand %d (%s) is not visible at this point", n, ValueName(val))
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

//nolint:gocyclo,cyclop // Instruction validation requires checking many instruction variants
func (v *Validator) validateInstruction(inst Instruction) {
	switch i := inst.(type) {
	case *Var:
		v.validateVar(i)
	case *Let:
		if i.Value() != nil && i.Result().Type() != i.Value().Type() {
			v.addInstError(i, "let type %s does not match value type %s",
				v.types.Format(i.Result().Type()), v.types.Format(i.Value().Type()))
		}
	case *Load:
		v.validateLoad(i)
	case *Store:
		v.validateStore(i)
	case *Access:
		v.validateAccess(i)
	case *Binary:
		v.validateBinary(i)
	case *Unary:
		v.validateUnary(i)
	case *Convert:
		v.validateConvert(i)
	case *Bitcast:
		v.validateBitcast(i)
	case *Construct:
		v.validateConstruct(i)
	case *Swizzle:
		v.validateSwizzle(i)
	case *Call:
		v.validateCall(i)
	case *BuiltinCall:
		v.validateBuiltinCall(i)
	case *Phony:
		if len(i.Operands()) != 1 {
			v.addInstError(i, "phony takes exactly one operand")
		}
	case *Return:
		v.validateReturn(i)
	case *If:
		if c := i.Condition(); c != nil && v.types.Inner(c.Type()) != Bool {
			v.addInstError(i, "if condition must be bool, got %s", v.types.Format(c.Type()))
		}
	case *Loop:
		if i.Body == nil || i.Continuing == nil {
			v.addInstError(i, "loop requires body and continuing blocks")
		}
	case *Switch:
		v.validateSwitch(i)
	case *ExitIf:
		if inner := v.innermost(); inner == nil || inner.inst != ControlInstruction(i.If) {
			v.addInstError(i, "exit_if must be directly inside its if")
		}
	case *ExitSwitch:
		v.validateExitSwitch(i)
	case *ExitLoop:
		v.validateExitLoop(i)
	case *Continue:
		v.validateContinue(i)
	case *NextIteration:
		if i.Loop == nil || i.Block() != i.Loop.Continuing {
			v.addInstError(i, "next_iteration must terminate the continuing block of its loop")
		}
	case *BreakIf:
		if i.Loop == nil || i.Block() != i.Loop.Continuing {
			v.addInstError(i, "break_if must terminate the continuing block of its loop")
		}
		if c := i.Condition(); c != nil && v.types.Inner(c.Type()) != Bool {
			v.addInstError(i, "break_if condition must be bool")
		}
	case *Discard:
		if v.inContinuing() {
			v.addInstError(i, "discard is not allowed in a continuing block")
		}
	case *Unreachable:
	default:
		v.addInstError(inst, "unknown instruction %T", inst)
	}

	if r := inst.Result(); r != nil && !v.isValidTypeHandle(r.Type()) {
		v.addInstError(inst, "result type %d does not exist", r.Type())
	}
}

func (v *Validator) innermost() *controlFrame {
	if len(v.controls) == 0 {
		return nil
	}
	return &v.controls[len(v.controls)-1]
}

func (v *Validator) inContinuing() bool {
	for _, f := range v.controls {
		if l, ok := f.inst.(*Loop); ok && f.block == l.Continuing {
			return true
		}
	}
	return false
}

func (v *Validator) validateVar(i *Var) {
	ptr, ok := v.types.PointeeOf(i.Result().Type())
	if !ok {
		v.addInstError(i, "variable type must be a pointer")
		return
	}
	if ptr.Space != SpaceFunction {
		v.addInstError(i, "function-scope variable must be in function space, got %s", ptr.Space)
	}
	if ptr.Access != AccessReadWrite {
		v.addInstError(i, "function-scope variable must be read_write")
	}
	if i.Binding != nil {
		v.addInstError(i, "function-scope variable cannot have a binding")
	}
	if init := i.Initializer(); init != nil && init.Type() != ptr.Base {
		v.addInstError(i, "initializer type %s does not match %s",
			v.types.Format(init.Type()), v.types.Format(ptr.Base))
	}
}

func (v *Validator) validateLoad(i *Load) {
	ptr, ok := v.types.PointeeOf(i.From().Type())
	if !ok {
		v.addInstError(i, "load source must be a pointer, got %s", v.types.Format(i.From().Type()))
		return
	}
	if ptr.Access == AccessWrite {
		v.addInstError(i, "cannot load through a write-only pointer")
	}
	if i.Result().Type() != ptr.Base {
		v.addInstError(i, "load result %s does not match pointee %s",
			v.types.Format(i.Result().Type()), v.types.Format(ptr.Base))
	}
}

func (v *Validator) validateStore(i *Store) {
	if i.To() == nil || i.Value() == nil {
		return
	}
	ptr, ok := v.types.PointeeOf(i.To().Type())
	if !ok {
		v.addInstError(i, "store destination must be a pointer, got %s", v.types.Format(i.To().Type()))
		return
	}
	if ptr.Access == AccessRead {
		v.addInstError(i, "cannot store through a read-only pointer")
	}
	if i.Value().Type() != ptr.Base {
		v.addInstError(i, "stored value %s does not match pointee %s",
			v.types.Format(i.Value().Type()), v.types.Format(ptr.Base))
	}
}

func (v *Validator) validateAccess(i *Access) {
	obj := i.Object()
	if obj == nil {
		return
	}
	if len(i.Indices()) == 0 {
		v.addInstError(i, "access requires at least one index")
	}
	current := obj.Type()
	ptr, isPtr := v.types.PointeeOf(current)
	if isPtr {
		current = ptr.Base
	}
	for n, idx := range i.Indices() {
		if idx == nil {
			continue
		}
		s, ok := v.types.Inner(idx.Type()).(ScalarType)
		if !ok || !s.IsInteger() {
			v.addInstError(i, "index %d must be an integer scalar", n)
			continue
		}
		constIdx, isConst := ConstantIndex(idx)
		switch inner := v.types.Inner(current).(type) {
		case StructType:
			if !isConst {
				v.addInstError(i, "struct index %d must be a constant", n)
				return
			}
			if int(constIdx) >= len(inner.Members) {
				v.addInstError(i, "struct index %d out of range", constIdx)
				return
			}
		case VectorType:
			if isConst && constIdx >= uint32(inner.Size) {
				v.addInstError(i, "vector index %d out of range", constIdx)
			}
		case MatrixType:
			if isConst && constIdx >= uint32(inner.Columns) {
				v.addInstError(i, "matrix index %d out of range", constIdx)
			}
		case ArrayType:
			if isConst && inner.Size != nil && constIdx >= *inner.Size {
				v.addInstError(i, "array index %d out of range", constIdx)
			}
		default:
			v.addInstError(i, "type %s cannot be indexed", v.types.Format(current))
			return
		}
		next, _ := v.types.ElementType(current, constIdx)
		current = next
	}

	want := current
	if isPtr {
		want = v.types.Pointer(ptr.Space, current, ptr.Access)
	}
	if i.Result().Type() != want {
		v.addInstError(i, "access result %s does not match %s",
			v.types.Format(i.Result().Type()), v.types.Format(want))
	}
}

// BinaryResultType computes the result type of op applied to lhs and rhs.
// ok is false if the operand types are not accepted.
//
//nolint:gocyclo,cyclop // binary typing covers scalar, vector and matrix mixes
func BinaryResultType(types *TypeRegistry, op BinaryOp, lhs, rhs TypeHandle) (TypeHandle, bool) {
	ls, lok := types.ScalarOf(lhs)
	rs, rok := types.ScalarOf(rhs)
	if !lok || !rok {
		return 0, false
	}
	lInner, rInner := types.Inner(lhs), types.Inner(rhs)
	_, lMat := lInner.(MatrixType)
	_, rMat := rInner.(MatrixType)

	switch op {
	case BinaryShiftLeft, BinaryShiftRight:
		if !ls.IsInteger() || rs.Kind != ScalarUint || lMat || rMat ||
			types.VectorSizeOf(lhs) != types.VectorSizeOf(rhs) {
			return 0, false
		}
		return lhs, true

	case BinaryAnd, BinaryOr, BinaryXor:
		if lhs != rhs || lMat || (op == BinaryXor && ls.Kind == ScalarBool) {
			return 0, false
		}
		return lhs, true

	case BinaryEqual, BinaryNotEqual, BinaryLess, BinaryLessEqual, BinaryGreater, BinaryGreaterEqual:
		if lhs != rhs || lMat {
			return 0, false
		}
		if ls.Kind == ScalarBool && op != BinaryEqual && op != BinaryNotEqual {
			return 0, false
		}
		if n := types.VectorSizeOf(lhs); n != 0 {
			return types.Vector(n, Bool), true
		}
		return types.Scalar(Bool), true
	}

	// Arithmetic.
	if ls != rs || ls.Kind == ScalarBool {
		return 0, false
	}
	if op == BinaryMultiply && (lMat || rMat) {
		lm, _ := lInner.(MatrixType)
		rm, _ := rInner.(MatrixType)
		switch {
		case lMat && rMat:
			if lm.Columns != rm.Rows {
				return 0, false
			}
			return types.GetOrCreate("", MatrixType{Columns: rm.Columns, Rows: lm.Rows, Scalar: ls}), true
		case lMat:
			if rv, ok := rInner.(VectorType); ok {
				if rv.Size != lm.Columns {
					return 0, false
				}
				return types.Vector(lm.Rows, ls), true
			}
			return lhs, true // matrix * scalar
		default:
			if lv, ok := lInner.(VectorType); ok {
				if lv.Size != rm.Rows {
					return 0, false
				}
				return types.Vector(rm.Columns, ls), true
			}
			return rhs, true // scalar * matrix
		}
	}
	if lMat || rMat {
		if (op == BinaryAdd || op == BinarySubtract) && lhs == rhs {
			return lhs, true
		}
		return 0, false
	}
	if lhs == rhs {
		return lhs, true
	}
	// vector op scalar / scalar op vector
	if types.VectorSizeOf(lhs) != 0 && types.VectorSizeOf(rhs) == 0 {
		return lhs, true
	}
	if types.VectorSizeOf(lhs) == 0 && types.VectorSizeOf(rhs) != 0 {
		return rhs, true
	}
	return 0, false
}

func (v *Validator) validateBinary(i *Binary) {
	if i.LHS() == nil || i.RHS() == nil {
		return
	}
	want, ok := BinaryResultType(v.types, i.Op, i.LHS().Type(), i.RHS().Type())
	if !ok {
		v.addInstError(i, "invalid operand types %s and %s for %s",
			v.types.Format(i.LHS().Type()), v.types.Format(i.RHS().Type()), i.Op)
		return
	}
	if want != i.Result().Type() {
		v.addInstError(i, "result type %s does not match %s",
			v.types.Format(i.Result().Type()), v.types.Format(want))
	}
}

func (v *Validator) validateUnary(i *Unary) {
	val := i.Value()
	if val == nil {
		return
	}
	s, ok := v.types.ScalarOf(val.Type())
	if !ok {
		v.addInstError(i, "operand must be a scalar or vector")
		return
	}
	switch i.Op {
	case UnaryNegate:
		if s.Kind != ScalarSint && s.Kind != ScalarFloat {
			v.addInstError(i, "neg requires a signed integer or float operand")
		}
	case UnaryNot:
		if s.Kind != ScalarBool {
			v.addInstError(i, "not requires a bool operand")
		}
	case UnaryComplement:
		if !s.IsInteger() {
			v.addInstError(i, "complement requires an integer operand")
		}
	}
	if i.Result().Type() != val.Type() {
		v.addInstError(i, "result type must match operand type")
	}
}

func (v *Validator) validateConvert(i *Convert) {
	val := i.Value()
	if val == nil {
		return
	}
	from, to := val.Type(), i.Result().Type()
	_, fromScalar := v.types.Inner(from).(ScalarType)
	_, toScalar := v.types.Inner(to).(ScalarType)
	fromVec := v.types.VectorSizeOf(from)
	toVec := v.types.VectorSizeOf(to)
	if !(fromScalar && toScalar) && !(fromVec != 0 && fromVec == toVec) {
		v.addInstError(i, "cannot convert %s to %s", v.types.Format(from), v.types.Format(to))
	}
}

func (v *Validator) validateBitcast(i *Bitcast) {
	val := i.Value()
	if val == nil {
		return
	}
	fs, fok := v.types.ScalarOf(val.Type())
	ts, tok := v.types.ScalarOf(i.Result().Type())
	if !fok || !tok || fs.Kind == ScalarBool || ts.Kind == ScalarBool {
		v.addInstError(i, "bitcast requires numeric scalars or vectors")
		return
	}
	fn, tn := int(v.types.VectorSizeOf(val.Type())), int(v.types.VectorSizeOf(i.Result().Type()))
	if fn == 0 {
		fn = 1
	}
	if tn == 0 {
		tn = 1
	}
	if fn*int(fs.Width) != tn*int(ts.Width) {
		v.addInstError(i, "bitcast between types of different widths")
	}
}

func (v *Validator) validateConstruct(i *Construct) {
	t := i.Result().Type()
	args := i.Operands()
	if len(args) == 0 {
		return // zero value
	}
	switch inner := v.types.Inner(t).(type) {
	case VectorType:
		if len(args) == 1 {
			if args[0].Type() != v.types.Scalar(inner.Scalar) && args[0].Type() != t {
				v.addInstError(i, "vector splat operand must be %s", ScalarName(inner.Scalar))
			}
			return
		}
		total := 0
		for _, a := range args {
			s, ok := v.types.ScalarOf(a.Type())
			if !ok || s != inner.Scalar {
				v.addInstError(i, "vector component has wrong type %s", v.types.Format(a.Type()))
				return
			}
			if n := v.types.VectorSizeOf(a.Type()); n != 0 {
				total += int(n)
			} else {
				total++
			}
		}
		if total != int(inner.Size) {
			v.addInstError(i, "vector construct provides %d components, want %d", total, inner.Size)
		}
	case MatrixType:
		col := v.types.Vector(inner.Rows, inner.Scalar)
		if len(args) != int(inner.Columns) {
			v.addInstError(i, "matrix construct requires %d column vectors", inner.Columns)
			return
		}
		for _, a := range args {
			if a.Type() != col {
				v.addInstError(i, "matrix column has wrong type %s", v.types.Format(a.Type()))
			}
		}
	case ArrayType:
		if inner.Size == nil || len(args) != int(*inner.Size) {
			v.addInstError(i, "array construct requires exactly the array length in elements")
			return
		}
		for _, a := range args {
			if a.Type() != inner.Base {
				v.addInstError(i, "array element has wrong type %s", v.types.Format(a.Type()))
			}
		}
	case StructType:
		if len(args) != len(inner.Members) {
			v.addInstError(i, "struct construct requires %d members", len(inner.Members))
			return
		}
		for n, a := range args {
			if a.Type() != inner.Members[n].Type {
				v.addInstError(i, "member %s has wrong type %s", inner.Members[n].Name, v.types.Format(a.Type()))
			}
		}
	default:
		if len(args) != 1 || args[0].Type() != t {
			v.addInstError(i, "cannot construct %s", v.types.Format(t))
		}
	}
}

func (v *Validator) validateSwizzle(i *Swizzle) {
	val := i.Value()
	if val == nil {
		return
	}
	vec, ok := v.types.Inner(val.Type()).(VectorType)
	if !ok {
		v.addInstError(i, "swizzle operand must be a vector")
		return
	}
	if len(i.Indices) == 0 || len(i.Indices) > 4 {
		v.addInstError(i, "swizzle requires 1 to 4 components")
		return
	}
	for _, idx := range i.Indices {
		if idx >= uint32(vec.Size) {
			v.addInstError(i, "swizzle component %d out of range", idx)
		}
	}
	want := v.types.Scalar(vec.Scalar)
	if len(i.Indices) > 1 {
		want = v.types.Vector(VectorSize(len(i.Indices)), vec.Scalar)
	}
	if i.Result().Type() != want {
		v.addInstError(i, "swizzle result type must be %s", v.types.Format(want))
	}
}

func (v *Validator) validateCall(i *Call) {
	target := i.Target
	if target == nil {
		v.addInstError(i, "call has no target")
		return
	}
	if v.module.Function(target.Name) != target {
		v.addInstError(i, "call target %s is not in the module", target.Name)
	}
	if target.IsEntryPoint() {
		v.addInstError(i, "cannot call entry point %s", target.Name)
	}
	if len(i.Args()) != len(target.Params) {
		v.addInstError(i, "call to %s passes %d arguments, want %d", target.Name, len(i.Args()), len(target.Params))
		return
	}
	for n, a := range i.Args() {
		if a != nil && a.Type() != target.Params[n].Type() {
			v.addInstError(i, "argument %d has type %s, want %s", n,
				v.types.Format(a.Type()), v.types.Format(target.Params[n].Type()))
		}
	}
	isVoid := v.types.IsVoid(target.ReturnType)
	switch {
	case isVoid && i.Result() != nil:
		v.addInstError(i, "call to void function cannot have a result")
	case !isVoid && i.Result() == nil:
		v.addInstError(i, "call to %s is missing its result", target.Name)
	case !isVoid && i.Result().Type() != target.ReturnType:
		v.addInstError(i, "call result type does not match %s", v.types.Format(target.ReturnType))
	}
}

func (v *Validator) validateBuiltinCall(i *BuiltinCall) {
	argTypes := make([]TypeHandle, len(i.Args()))
	for n, a := range i.Args() {
		if a == nil {
			return
		}
		argTypes[n] = a.Type()
	}
	want, ok := i.Func.ResultType(v.types, argTypes)
	if !ok {
		v.addInstError(i, "invalid arguments for builtin %s", i.Func)
		return
	}
	if i.Result().Type() != want {
		v.addInstError(i, "builtin %s result type must be %s", i.Func, v.types.Format(want))
	}
}

func (v *Validator) validateReturn(i *Return) {
	if i.Function != v.fn {
		v.addInstError(i, "ret refers to another function")
	}
	if v.inContinuing() {
		v.addInstError(i, "ret is not allowed in a continuing block")
	}
	val := i.Value()
	isVoid := v.types.IsVoid(v.fn.ReturnType)
	switch {
	case isVoid && val != nil:
		v.addInstError(i, "void function cannot return a value")
	case !isVoid && val == nil:
		v.addInstError(i, "function must return a value of type %s", v.types.Format(v.fn.ReturnType))
	case val != nil && val.Type() != v.fn.ReturnType:
		v.addInstError(i, "returned %s, want %s", v.types.Format(val.Type()), v.types.Format(v.fn.ReturnType))
	}
}

func (v *Validator) validateSwitch(i *Switch) {
	sel := i.Selector()
	if sel != nil {
		s, ok := v.types.Inner(sel.Type()).(ScalarType)
		if !ok || !s.IsInteger() {
			v.addInstError(i, "switch selector must be i32 or u32")
		}
	}
	seen := make(map[uint32]bool)
	defaults := 0
	for _, c := range i.Cases {
		if len(c.Selectors) == 0 {
			v.addInstError(i, "switch case has no selectors")
		}
		for _, s := range c.Selectors {
			if s.Default {
				defaults++
				continue
			}
			if seen[s.Value] {
				v.addInstError(i, "duplicate switch case value %d", int32(s.Value))
			}
			seen[s.Value] = true
		}
	}
	if defaults != 1 {
		v.addInstError(i, "switch must have exactly one default, got %d", defaults)
	}
}

func (v *Validator) validateExitSwitch(i *ExitSwitch) {
	for n := len(v.controls) - 1; n >= 0; n-- {
		switch c := v.controls[n].inst.(type) {
		case *If:
			continue
		case *Switch:
			if c == i.Switch {
				return
			}
		}
		break
	}
	v.addInstError(i, "exit_switch must be inside its switch (crossing only ifs)")
}

func (v *Validator) validateExitLoop(i *ExitLoop) {
	for n := len(v.controls) - 1; n >= 0; n-- {
		f := v.controls[n]
		switch c := f.inst.(type) {
		case *If:
			continue
		case *Loop:
			if c == i.Loop && f.block == c.Body {
				return
			}
		}
		break
	}
	v.addInstError(i, "exit_loop must be in the body of its loop (crossing only ifs)")
}

func (v *Validator) validateContinue(i *Continue) {
	for n := len(v.controls) - 1; n >= 0; n-- {
		f := v.controls[n]
		switch c := f.inst.(type) {
		case *If, *Switch:
			continue
		case *Loop:
			if c == i.Loop && f.block == c.Body {
				return
			}
		}
		break
	}
	v.addInstError(i, "continue must be in the body of its loop")
}
