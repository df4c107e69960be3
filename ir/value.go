package ir

import (
	"math"
	"slices"
)

// ValueID is the module-unique identifier of a value.
type ValueID uint32

// Value is anything that can be used as an instruction operand.
type Value interface {
	// ID returns the module-unique identifier of the value.
	ID() ValueID
	// Type returns the type of the value.
	Type() TypeHandle
	// Name returns the optional source name of the value.
	Name() string
	// SetName sets the source name of the value.
	SetName(name string)
	// Uses returns the instructions that use this value as an operand.
	Uses() []Use

	addUse(u Use)
	removeUse(u Use)
}

// Use records that Instruction reads a value as its Operand-th operand.
type Use struct {
	Instruction Instruction
	Operand     int
}

type valueBase struct {
	id   ValueID
	typ  TypeHandle
	name string
	uses []Use
}

func (v *valueBase) ID() ValueID         { return v.id }
func (v *valueBase) Type() TypeHandle    { return v.typ }
func (v *valueBase) Name() string        { return v.name }
func (v *valueBase) SetName(name string) { v.name = name }
func (v *valueBase) Uses() []Use         { return v.uses }

func (v *valueBase) addUse(u Use) {
	v.uses = append(v.uses, u)
}

func (v *valueBase) removeUse(u Use) {
	if i := slices.Index(v.uses, u); i >= 0 {
		v.uses = slices.Delete(v.uses, i, i+1)
	}
}

// SetType changes the type of an instruction result.
func (r *InstructionResult) SetType(t TypeHandle) { r.typ = t }

// InstructionResult is the value produced by an instruction.
type InstructionResult struct {
	valueBase
	instruction Instruction
}

// Instruction returns the instruction that defines the result.
func (r *InstructionResult) Instruction() Instruction { return r.instruction }

// FunctionParam is a function parameter.
type FunctionParam struct {
	valueBase
	function *Function
	Binding  Binding // IO binding for entry point parameters
}

// Function returns the function that owns the parameter.
func (p *FunctionParam) Function() *Function { return p.function }

// Constant is a compile-time constant value.
type Constant struct {
	valueBase
	Value ConstantValue
}

// ConstantValue represents constant values.
type ConstantValue interface {
	constantValue()
}

// ScalarValue represents a scalar constant.
type ScalarValue struct {
	Bits uint64 // Bit representation
	Kind ScalarKind
}

func (ScalarValue) constantValue() {}

// CompositeValue represents a composite constant (vector, matrix, array, struct).
type CompositeValue struct {
	Components []*Constant
}

func (CompositeValue) constantValue() {}

// ZeroValue is the zero value of any constructible type.
type ZeroValue struct{}

func (ZeroValue) constantValue() {}

// Scalar helpers.

// I32Value returns the value of an i32 constant.
func (s ScalarValue) I32Value() int32 { return int32(uint32(s.Bits)) }

// U32Value returns the value of a u32 constant.
func (s ScalarValue) U32Value() uint32 { return uint32(s.Bits) }

// F32Value returns the value of an f32 constant.
func (s ScalarValue) F32Value() float32 { return math.Float32frombits(uint32(s.Bits)) }

// BoolValue returns the value of a bool constant.
func (s ScalarValue) BoolValue() bool { return s.Bits != 0 }

// ScalarConstant returns the scalar payload of c, if it is a scalar.
func ScalarConstant(v Value) (ScalarValue, bool) {
	c, ok := v.(*Constant)
	if !ok {
		return ScalarValue{}, false
	}
	s, ok := c.Value.(ScalarValue)
	return s, ok
}

// ConstantIndex returns the integer value of an i32 or u32 constant.
func ConstantIndex(v Value) (uint32, bool) {
	s, ok := ScalarConstant(v)
	if !ok || (s.Kind != ScalarSint && s.Kind != ScalarUint) {
		return 0, false
	}
	return uint32(s.Bits), true
}

// ReplaceAllUsesWith rewrites every use of old to read replacement instead.
func ReplaceAllUsesWith(old, replacement Value) {
	if old == replacement {
		return
	}
	uses := slices.Clone(old.Uses())
	for _, u := range uses {
		u.Instruction.SetOperand(u.Operand, replacement)
	}
}

// HasUses reports whether v is used by any instruction.
func HasUses(v Value) bool {
	return len(v.Uses()) > 0
}
