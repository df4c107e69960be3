package ir

// BuiltinFunc identifies a builtin function.
type BuiltinFunc uint8

const (
	BuiltinAbs BuiltinFunc = iota
	BuiltinMin
	BuiltinMax
	BuiltinClamp
	BuiltinSelect
	BuiltinSqrt
	BuiltinFloor
	BuiltinCeil
	BuiltinFract
	BuiltinSin
	BuiltinCos
	BuiltinExp
	BuiltinLog
	BuiltinPow
	BuiltinDot
	BuiltinLength
	BuiltinNormalize
	BuiltinMix
	BuiltinAll
	BuiltinAny
)

// builtinInfo describes the signature shape of a builtin.
type builtinInfo struct {
	name  string
	arity int
	// floatOnly restricts arguments to float scalars/vectors.
	floatOnly bool
	// result: "arg" (same as first arg), "scalar" (scalar of first arg),
	// "bool" (scalar bool), "second" (same as second arg).
	result string
}

var builtinTable = [...]builtinInfo{
	BuiltinAbs:       {"abs", 1, false, "arg"},
	BuiltinMin:       {"min", 2, false, "arg"},
	BuiltinMax:       {"max", 2, false, "arg"},
	BuiltinClamp:     {"clamp", 3, false, "arg"},
	BuiltinSelect:    {"select", 3, false, "arg"},
	BuiltinSqrt:      {"sqrt", 1, true, "arg"},
	BuiltinFloor:     {"floor", 1, true, "arg"},
	BuiltinCeil:      {"ceil", 1, true, "arg"},
	BuiltinFract:     {"fract", 1, true, "arg"},
	BuiltinSin:       {"sin", 1, true, "arg"},
	BuiltinCos:       {"cos", 1, true, "arg"},
	BuiltinExp:       {"exp", 1, true, "arg"},
	BuiltinLog:       {"log", 1, true, "arg"},
	BuiltinPow:       {"pow", 2, true, "arg"},
	BuiltinDot:       {"dot", 2, false, "scalar"},
	BuiltinLength:    {"length", 1, true, "scalar"},
	BuiltinNormalize: {"normalize", 1, true, "arg"},
	BuiltinMix:       {"mix", 3, true, "arg"},
	BuiltinAll:       {"all", 1, false, "bool"},
	BuiltinAny:       {"any", 1, false, "bool"},
}

func (f BuiltinFunc) String() string {
	if int(f) < len(builtinTable) {
		return builtinTable[f].name
	}
	return "builtin?"
}

// Arity returns the number of arguments the builtin takes.
func (f BuiltinFunc) Arity() int { return builtinTable[f].arity }

// ParseBuiltinFunc looks a builtin up by name.
func ParseBuiltinFunc(name string) (BuiltinFunc, bool) {
	for i, info := range builtinTable {
		if info.name == name {
			return BuiltinFunc(i), true
		}
	}
	return 0, false
}

// ResultType computes the result type of the builtin for the given argument
// types. ok is false if the argument types are not accepted.
func (f BuiltinFunc) ResultType(types *TypeRegistry, args []TypeHandle) (TypeHandle, bool) {
	info := builtinTable[f]
	if len(args) != info.arity {
		return 0, false
	}
	first, ok := types.ScalarOf(args[0])
	if !ok {
		return 0, false
	}
	if _, isMat := types.Inner(args[0]).(MatrixType); isMat {
		return 0, false
	}

	switch f {
	case BuiltinSelect:
		// select(f, t, cond): f and t match, cond is bool or bool vector of same width.
		if args[0] != args[1] || !types.IsBool(args[2]) {
			return 0, false
		}
		if n := types.VectorSizeOf(args[2]); n != 0 && n != types.VectorSizeOf(args[0]) {
			return 0, false
		}
		return args[0], true
	case BuiltinAll, BuiltinAny:
		if first.Kind != ScalarBool {
			return 0, false
		}
		return types.Scalar(Bool), true
	}

	if first.Kind == ScalarBool {
		return 0, false
	}
	if info.floatOnly && first.Kind != ScalarFloat {
		return 0, false
	}
	for _, a := range args[1:] {
		if a != args[0] {
			return 0, false
		}
	}
	if f == BuiltinDot || f == BuiltinLength || f == BuiltinNormalize {
		if types.VectorSizeOf(args[0]) == 0 {
			if f == BuiltinLength {
				return types.Scalar(first), true
			}
			return 0, false
		}
	}

	switch info.result {
	case "scalar":
		return types.Scalar(first), true
	default:
		return args[0], true
	}
}
