package spirv

import (
	"github.com/gogpu/shir/ir"
)

// value returns the id holding v.
func (w *Writer) value(v ir.Value) uint32 {
	if c, ok := v.(*ir.Constant); ok {
		return w.constant(c)
	}
	if id, ok := w.values[v]; ok {
		return id
	}
	w.fail(ErrInvalidModule, "value %s is used before it is defined", ir.ValueName(v))
	return 0
}

// pointer returns a pointer id for loads and stores. Wrapped globals are
// addressed through their Block member.
func (w *Writer) pointer(v ir.Value) uint32 {
	if gl := w.globalOf(v); gl != nil && gl.wrapped {
		ptr, _ := w.types.PointeeOf(v.Type())
		return w.emitValue(OpAccessChain, w.pointerType(gl.class, w.typeID(ptr.Base)), gl.id, w.constU32(0))
	}
	return w.value(v)
}

func (w *Writer) globalOf(v ir.Value) *global {
	if r, ok := v.(*ir.InstructionResult); ok {
		return w.globals[r]
	}
	return nil
}

// writeValue emits a value-producing instruction and returns its id.
func (w *Writer) writeValue(inst ir.Instruction) uint32 {
	switch inst := inst.(type) {
	case *ir.Load:
		return w.emitValue(OpLoad, w.typeID(inst.Result().Type()), w.pointer(inst.From()))
	case *ir.Access:
		return w.access(inst)
	case *ir.Binary:
		return w.binary(inst)
	case *ir.Unary:
		return w.unary(inst)
	case *ir.Convert:
		return w.convert(inst)
	case *ir.Bitcast:
		if inst.Value().Type() == inst.Result().Type() {
			return w.value(inst.Value())
		}
		return w.emitValue(OpBitcast, w.typeID(inst.Result().Type()), w.value(inst.Value()))
	case *ir.Construct:
		return w.construct(inst)
	case *ir.Swizzle:
		return w.swizzle(inst)
	case *ir.Call:
		return w.call(inst)
	case *ir.BuiltinCall:
		return w.builtin(inst)
	}
	w.fail(ErrUnsupportedFeature, "instruction %s has no SPIR-V form", inst.Opcode())
	return 0
}

func (w *Writer) access(a *ir.Access) uint32 {
	t := a.Result().Type()
	obj := a.Object()
	indices := a.Indices()

	if ptr, ok := w.types.PointeeOf(t); ok {
		ids := make([]uint32, 0, len(indices)+2)
		ids = append(ids, w.value(obj))
		if gl := w.globalOf(obj); gl != nil && gl.wrapped {
			ids = append(ids, w.constU32(0))
		}
		for _, idx := range indices {
			ids = append(ids, w.value(idx))
		}
		return w.emitValue(OpAccessChain, w.pointerType(storageClass(ptr.Space), w.typeID(ptr.Base)), ids...)
	}

	resultType := w.typeID(t)
	base := w.value(obj)
	literals := make([]uint32, 0, len(indices))
	for _, idx := range indices {
		c, ok := ir.ConstantIndex(idx)
		if !ok {
			break
		}
		literals = append(literals, c)
	}
	if len(literals) == len(indices) {
		return w.emitValue(OpCompositeExtract, resultType, append([]uint32{base}, literals...)...)
	}
	if len(indices) == 1 && w.types.VectorSizeOf(obj.Type()) != 0 {
		return w.emitValue(OpVectorExtractDynamic, resultType, base, w.value(indices[0]))
	}

	// Dynamic indexing of a composite value goes through memory.
	tmp := w.localVariable(w.typeID(obj.Type()))
	w.emit(OpStore, tmp, base)
	ids := []uint32{tmp}
	for _, idx := range indices {
		ids = append(ids, w.value(idx))
	}
	ptr := w.emitValue(OpAccessChain, w.pointerType(StorageClassFunction, resultType), ids...)
	return w.emitValue(OpLoad, resultType, ptr)
}

// binaryOps maps an operator to its opcode per scalar kind, indexed by
// sint, uint, float and bool. OpNop marks unsupported combinations.
var binaryOps = [...][4]OpCode{
	ir.BinaryAdd:          {OpIAdd, OpIAdd, OpFAdd, OpNop},
	ir.BinarySubtract:     {OpISub, OpISub, OpFSub, OpNop},
	ir.BinaryMultiply:     {OpIMul, OpIMul, OpFMul, OpNop},
	ir.BinaryDivide:       {OpSDiv, OpUDiv, OpFDiv, OpNop},
	ir.BinaryModulo:       {OpSRem, OpUMod, OpFRem, OpNop},
	ir.BinaryAnd:          {OpBitwiseAnd, OpBitwiseAnd, OpNop, OpLogicalAnd},
	ir.BinaryOr:           {OpBitwiseOr, OpBitwiseOr, OpNop, OpLogicalOr},
	ir.BinaryXor:          {OpBitwiseXor, OpBitwiseXor, OpNop, OpNop},
	ir.BinaryShiftLeft:    {OpShiftLeftLogical, OpShiftLeftLogical, OpNop, OpNop},
	ir.BinaryShiftRight:   {OpShiftRightArithmetic, OpShiftRightLogical, OpNop, OpNop},
	ir.BinaryEqual:        {OpIEqual, OpIEqual, OpFOrdEqual, OpLogicalEqual},
	ir.BinaryNotEqual:     {OpINotEqual, OpINotEqual, OpFUnordNotEqual, OpLogicalNotEqual},
	ir.BinaryLess:         {OpSLessThan, OpULessThan, OpFOrdLessThan, OpNop},
	ir.BinaryLessEqual:    {OpSLessThanEqual, OpULessThanEqual, OpFOrdLessThanEqual, OpNop},
	ir.BinaryGreater:      {OpSGreaterThan, OpUGreaterThan, OpFOrdGreaterThan, OpNop},
	ir.BinaryGreaterEqual: {OpSGreaterThanEqual, OpUGreaterThanEqual, OpFOrdGreaterThanEqual, OpNop},
}

func (w *Writer) binary(b *ir.Binary) uint32 {
	lt, rt := b.LHS().Type(), b.RHS().Type()
	lhs, rhs := w.value(b.LHS()), w.value(b.RHS())
	result := w.typeID(b.Result().Type())

	ls, _ := w.types.ScalarOf(lt)
	rs, _ := w.types.ScalarOf(rt)
	_, lmat := w.types.Inner(lt).(ir.MatrixType)
	_, rmat := w.types.Inner(rt).(ir.MatrixType)
	lvec, rvec := w.types.VectorSizeOf(lt), w.types.VectorSizeOf(rt)

	if b.Op == ir.BinaryMultiply && ls.Kind == ir.ScalarFloat {
		switch {
		case lmat && rmat:
			return w.emitValue(OpMatrixTimesMatrix, result, lhs, rhs)
		case lmat && rvec != 0:
			return w.emitValue(OpMatrixTimesVector, result, lhs, rhs)
		case lvec != 0 && rmat:
			return w.emitValue(OpVectorTimesMatrix, result, lhs, rhs)
		case lmat:
			return w.emitValue(OpMatrixTimesScalar, result, lhs, rhs)
		case rmat:
			return w.emitValue(OpMatrixTimesScalar, result, rhs, lhs)
		case lvec != 0 && rvec == 0:
			return w.emitValue(OpVectorTimesScalar, result, lhs, rhs)
		case lvec == 0 && rvec != 0:
			return w.emitValue(OpVectorTimesScalar, result, rhs, lhs)
		}
	}
	if lmat || rmat {
		if b.Op != ir.BinaryAdd && b.Op != ir.BinarySubtract {
			w.fail(ErrUnsupportedFeature, "%s of matrices", b.Op)
			return 0
		}
		return w.matrixColumns(b.Op, lt, lhs, rhs)
	}

	op := binaryOps[b.Op][ls.Kind]
	if op == OpNop {
		w.fail(ErrUnsupportedFeature, "%s of %s operands", b.Op, w.types.Format(lt))
		return 0
	}
	switch {
	case lvec != 0 && rvec == 0:
		rhs = w.splat(w.vectorType(lvec, rs), lvec, rhs)
	case lvec == 0 && rvec != 0:
		lhs = w.splat(w.vectorType(rvec, ls), rvec, lhs)
	}
	return w.emitValue(op, result, lhs, rhs)
}

// matrixColumns adds or subtracts two matrices column by column.
func (w *Writer) matrixColumns(op ir.BinaryOp, t ir.TypeHandle, lhs, rhs uint32) uint32 {
	m := w.types.Inner(t).(ir.MatrixType)
	column := w.vectorType(m.Rows, m.Scalar)
	fop := OpFAdd
	if op == ir.BinarySubtract {
		fop = OpFSub
	}
	parts := make([]uint32, m.Columns)
	for i := range parts {
		a := w.emitValue(OpCompositeExtract, column, lhs, uint32(i)) //nolint:gosec // G115: at most 4 columns
		b := w.emitValue(OpCompositeExtract, column, rhs, uint32(i)) //nolint:gosec // G115: at most 4 columns
		parts[i] = w.emitValue(fop, column, a, b)
	}
	return w.emitValue(OpCompositeConstruct, w.typeID(t), parts...)
}

// splat builds a vector of n copies of scalar.
func (w *Writer) splat(vectorType uint32, n ir.VectorSize, scalar uint32) uint32 {
	parts := make([]uint32, n)
	for i := range parts {
		parts[i] = scalar
	}
	return w.emitValue(OpCompositeConstruct, vectorType, parts...)
}

func (w *Writer) unary(u *ir.Unary) uint32 {
	t := u.Result().Type()
	v := w.value(u.Value())
	s, _ := w.types.ScalarOf(t)
	switch u.Op {
	case ir.UnaryNegate:
		if s.Kind == ir.ScalarFloat {
			return w.emitValue(OpFNegate, w.typeID(t), v)
		}
		return w.emitValue(OpSNegate, w.typeID(t), v)
	case ir.UnaryNot:
		return w.emitValue(OpLogicalNot, w.typeID(t), v)
	default:
		return w.emitValue(OpNot, w.typeID(t), v)
	}
}

func (w *Writer) convert(c *ir.Convert) uint32 {
	from, to := c.Value().Type(), c.Result().Type()
	v := w.value(c.Value())
	if from == to {
		return v
	}
	fs, _ := w.types.ScalarOf(from)
	ts, _ := w.types.ScalarOf(to)
	result := w.typeID(to)

	switch {
	case ts.Kind == ir.ScalarBool:
		op := OpINotEqual
		if fs.Kind == ir.ScalarFloat {
			op = OpFUnordNotEqual
		}
		return w.emitValue(op, result, v, w.null(w.typeID(from)))
	case fs.Kind == ir.ScalarBool:
		return w.emitValue(OpSelect, result, v, w.splatConst(to, one(ts)), w.null(result))
	case fs.Kind == ir.ScalarFloat && ts.Kind == ir.ScalarFloat:
		return w.emitValue(OpFConvert, result, v)
	case fs.Kind == ir.ScalarFloat && ts.Kind == ir.ScalarSint:
		return w.emitValue(OpConvertFToS, result, v)
	case fs.Kind == ir.ScalarFloat:
		return w.emitValue(OpConvertFToU, result, v)
	case ts.Kind == ir.ScalarFloat && fs.Kind == ir.ScalarSint:
		return w.emitValue(OpConvertSToF, result, v)
	case ts.Kind == ir.ScalarFloat:
		return w.emitValue(OpConvertUToF, result, v)
	}
	return w.emitValue(OpBitcast, result, v)
}

func (w *Writer) construct(c *ir.Construct) uint32 {
	t := c.Result().Type()
	result := w.typeID(t)
	args := c.Operands()
	switch {
	case len(args) == 0:
		return w.null(result)
	case len(args) == 1 && args[0].Type() == t:
		return w.value(args[0])
	}

	if n := w.types.VectorSizeOf(t); n != 0 && len(args) == 1 && w.types.VectorSizeOf(args[0].Type()) == 0 {
		return w.splat(result, n, w.value(args[0]))
	}
	ids := make([]uint32, len(args))
	for i, a := range args {
		ids[i] = w.value(a)
	}
	if m, ok := w.types.Inner(t).(ir.MatrixType); ok && len(args) == int(m.Columns)*int(m.Rows) {
		column := w.vectorType(m.Rows, m.Scalar)
		rows := int(m.Rows)
		columns := make([]uint32, m.Columns)
		for i := range columns {
			columns[i] = w.emitValue(OpCompositeConstruct, column, ids[i*rows:(i+1)*rows]...)
		}
		ids = columns
	}
	return w.emitValue(OpCompositeConstruct, result, ids...)
}

func (w *Writer) swizzle(s *ir.Swizzle) uint32 {
	result := w.typeID(s.Result().Type())
	v := w.value(s.Value())
	if len(s.Indices) == 1 {
		return w.emitValue(OpCompositeExtract, result, v, s.Indices[0])
	}
	return w.emitValue(OpVectorShuffle, result, append([]uint32{v, v}, s.Indices...)...)
}

func (w *Writer) call(c *ir.Call) uint32 {
	if c.Target == nil {
		w.fail(ErrInvalidModule, "call without a target")
		return 0
	}
	ids := make([]uint32, 0, len(c.Args())+1)
	ids = append(ids, w.funcIDs[c.Target])
	for _, a := range c.Args() {
		if w.types.IsPointer(a.Type()) && !w.memoryObject(a) {
			w.fail(ErrUnsupportedFeature, "pointer argument %s to %s is not a variable or parameter", ir.ValueName(a), c.Target.Name)
			return 0
		}
		ids = append(ids, w.value(a))
	}
	return w.emitValue(OpFunctionCall, w.typeID(c.Target.ReturnType), ids...)
}

// memoryObject reports whether v names a whole variable or a pointer
// parameter, the only pointers logical addressing passes to functions.
func (w *Writer) memoryObject(v ir.Value) bool {
	switch v := v.(type) {
	case *ir.FunctionParam:
		return true
	case *ir.InstructionResult:
		switch inst := v.Instruction().(type) {
		case *ir.Var:
			gl := w.globals[v]
			return gl == nil || !gl.wrapped
		case *ir.Let:
			return w.memoryObject(inst.Value())
		}
	}
	return false
}

func (w *Writer) builtin(c *ir.BuiltinCall) uint32 {
	args := c.Args()
	ids := make([]uint32, len(args))
	for i, a := range args {
		ids[i] = w.value(a)
	}
	t := c.Result().Type()
	result := w.typeID(t)
	s, _ := w.types.ScalarOf(args[0].Type())

	pick := func(f, u, i uint32) uint32 {
		switch s.Kind {
		case ir.ScalarFloat:
			return f
		case ir.ScalarUint:
			return u
		}
		return i
	}

	switch c.Func {
	case ir.BuiltinAbs:
		if s.Kind == ir.ScalarUint {
			return ids[0]
		}
		return w.ext(pick(GLSLstd450FAbs, 0, GLSLstd450SAbs), result, ids...)
	case ir.BuiltinMin:
		return w.ext(pick(GLSLstd450FMin, GLSLstd450UMin, GLSLstd450SMin), result, ids...)
	case ir.BuiltinMax:
		return w.ext(pick(GLSLstd450FMax, GLSLstd450UMax, GLSLstd450SMax), result, ids...)
	case ir.BuiltinClamp:
		return w.ext(pick(GLSLstd450FClamp, GLSLstd450UClamp, GLSLstd450SClamp), result, ids...)
	case ir.BuiltinSelect:
		cond := ids[2]
		if n := w.types.VectorSizeOf(t); n != 0 && w.types.VectorSizeOf(args[2].Type()) == 0 {
			cond = w.splat(w.vectorType(n, ir.Bool), n, cond)
		}
		return w.emitValue(OpSelect, result, cond, ids[1], ids[0])
	case ir.BuiltinSqrt:
		return w.ext(GLSLstd450Sqrt, result, ids...)
	case ir.BuiltinFloor:
		return w.ext(GLSLstd450Floor, result, ids...)
	case ir.BuiltinCeil:
		return w.ext(GLSLstd450Ceil, result, ids...)
	case ir.BuiltinFract:
		return w.ext(GLSLstd450Fract, result, ids...)
	case ir.BuiltinSin:
		return w.ext(GLSLstd450Sin, result, ids...)
	case ir.BuiltinCos:
		return w.ext(GLSLstd450Cos, result, ids...)
	case ir.BuiltinExp:
		return w.ext(GLSLstd450Exp, result, ids...)
	case ir.BuiltinLog:
		return w.ext(GLSLstd450Log, result, ids...)
	case ir.BuiltinPow:
		return w.ext(GLSLstd450Pow, result, ids...)
	case ir.BuiltinLength:
		return w.ext(GLSLstd450Length, result, ids...)
	case ir.BuiltinNormalize:
		return w.ext(GLSLstd450Normalize, result, ids...)
	case ir.BuiltinMix:
		return w.ext(GLSLstd450FMix, result, ids...)
	case ir.BuiltinDot:
		if s.Kind == ir.ScalarFloat {
			return w.emitValue(OpDot, result, ids...)
		}
		return w.intDot(result, w.types.VectorSizeOf(args[0].Type()), ids[0], ids[1])
	case ir.BuiltinAll, ir.BuiltinAny:
		if w.types.VectorSizeOf(args[0].Type()) == 0 {
			return ids[0]
		}
		if c.Func == ir.BuiltinAll {
			return w.emitValue(OpAll, result, ids[0])
		}
		return w.emitValue(OpAny, result, ids[0])
	}
	w.fail(ErrUnsupportedFeature, "builtin %s", c.Func)
	return 0
}

func (w *Writer) ext(inst, result uint32, args ...uint32) uint32 {
	return w.emitValue(OpExtInst, result, append([]uint32{w.glslID, inst}, args...)...)
}

// intDot expands an integer dot product, which OpDot does not accept.
func (w *Writer) intDot(result uint32, n ir.VectorSize, a, b uint32) uint32 {
	var sum uint32
	for i := range uint32(n) {
		x := w.emitValue(OpCompositeExtract, result, a, i)
		y := w.emitValue(OpCompositeExtract, result, b, i)
		p := w.emitValue(OpIMul, result, x, y)
		if i == 0 {
			sum = p
		} else {
			sum = w.emitValue(OpIAdd, result, sum, p)
		}
	}
	return sum
}
