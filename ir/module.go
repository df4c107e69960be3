package ir

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Module represents a shader module in IR form.
type Module struct {
	// Types holds all type definitions
	Types *TypeRegistry

	// Root holds module-scope var instructions. It has no terminator.
	Root *Block

	// Functions holds all function definitions in declaration order
	Functions []*Function

	nextID ValueID
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{
		Types:  NewTypeRegistry(),
		Root:   NewBlock(),
		nextID: 1,
	}
}

func (m *Module) allocID() ValueID {
	id := m.nextID
	m.nextID++
	return id
}

// Function looks up a function by name.
func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// AddFunction appends f to the module.
func (m *Module) AddFunction(f *Function) {
	m.Functions = append(m.Functions, f)
}

// RemoveFunction removes f from the module. Calls to f must be gone.
func (m *Module) RemoveFunction(f *Function) {
	if i := slices.Index(m.Functions, f); i >= 0 {
		m.Functions = slices.Delete(m.Functions, i, i+1)
	}
}

// EntryPoints returns the functions that are shader entry points.
func (m *Module) EntryPoints() []*Function {
	var eps []*Function
	for _, f := range m.Functions {
		if f.IsEntryPoint() {
			eps = append(eps, f)
		}
	}
	return eps
}

// Globals returns the module-scope variables.
func (m *Module) Globals() []*Var {
	vars := make([]*Var, 0, m.Root.Len())
	for _, inst := range m.Root.Instructions() {
		if v, ok := inst.(*Var); ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// InstructionCount returns the number of instructions in all functions.
func (m *Module) InstructionCount() int {
	n := m.Root.Len()
	for _, f := range m.Functions {
		Walk(f.Block, func(Instruction) bool {
			n++
			return true
		})
	}
	return n
}

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

func (m *Module) newConstant(t TypeHandle, v ConstantValue) *Constant {
	return &Constant{valueBase: valueBase{id: m.allocID(), typ: t}, Value: v}
}

// ConstI32 creates an i32 constant.
func (m *Module) ConstI32(v int32) *Constant {
	return m.newConstant(m.Types.Scalar(I32), ScalarValue{Bits: uint64(uint32(v)), Kind: ScalarSint})
}

// ConstU32 creates a u32 constant.
func (m *Module) ConstU32(v uint32) *Constant {
	return m.newConstant(m.Types.Scalar(U32), ScalarValue{Bits: uint64(v), Kind: ScalarUint})
}

// ConstF32 creates an f32 constant.
func (m *Module) ConstF32(v float32) *Constant {
	return m.newConstant(m.Types.Scalar(F32), ScalarValue{Bits: uint64(math.Float32bits(v)), Kind: ScalarFloat})
}

// ConstF16 creates an f16 constant. The value is stored as f32 bits and
// must be representable as f16.
func (m *Module) ConstF16(v float32) *Constant {
	return m.newConstant(m.Types.Scalar(F16), ScalarValue{Bits: uint64(math.Float32bits(v)), Kind: ScalarFloat})
}

// ConstBool creates a bool constant.
func (m *Module) ConstBool(v bool) *Constant {
	var bits uint64
	if v {
		bits = 1
	}
	return m.newConstant(m.Types.Scalar(Bool), ScalarValue{Bits: bits, Kind: ScalarBool})
}

// ConstScalar creates a scalar constant of type s with a float64 value.
func (m *Module) ConstScalar(s ScalarType, v float64) *Constant {
	switch s.Kind {
	case ScalarSint:
		return m.ConstI32(int32(v))
	case ScalarUint:
		return m.ConstU32(uint32(v))
	case ScalarBool:
		return m.ConstBool(v != 0)
	}
	if s.Width == 2 {
		return m.ConstF16(float32(v))
	}
	return m.ConstF32(float32(v))
}

// ConstComposite creates a composite constant of type t.
func (m *Module) ConstComposite(t TypeHandle, components ...*Constant) *Constant {
	return m.newConstant(t, CompositeValue{Components: components})
}

// ConstZero creates the zero value of t.
func (m *Module) ConstZero(t TypeHandle) *Constant {
	return m.newConstant(t, ZeroValue{})
}

// Splat creates a constant of type t (scalar or vector) with every component set to c.
func (m *Module) Splat(t TypeHandle, c *Constant) *Constant {
	vec, ok := m.Types.Inner(t).(VectorType)
	if !ok {
		return c
	}
	comps := make([]*Constant, vec.Size)
	for i := range comps {
		comps[i] = c
	}
	return m.ConstComposite(t, comps...)
}

// FormatConstant returns the IR text spelling of a scalar constant.
func FormatConstant(s ScalarValue, t ScalarType) string {
	switch s.Kind {
	case ScalarBool:
		if s.BoolValue() {
			return "true"
		}
		return "false"
	case ScalarSint:
		return fmt.Sprintf("%di", s.I32Value())
	case ScalarUint:
		return fmt.Sprintf("%du", s.U32Value())
	}
	suffix := "f"
	if t.Width == 2 {
		suffix = "h"
	}
	return FormatFloat(s.F32Value()) + suffix
}

// FormatFloat formats f so that it always reads back as a float literal.
func FormatFloat(f float32) string {
	switch {
	case math.IsInf(float64(f), 1):
		return "inf"
	case math.IsInf(float64(f), -1):
		return "-inf"
	case math.IsNaN(float64(f)):
		return "nan"
	}
	format := byte('f')
	if a := math.Abs(float64(f)); a != 0 && (a < 1e-4 || a >= 1e16) {
		format = 'e'
	}
	bits := 32
	if f == float32(math.Trunc(float64(f))) && format == 'f' {
		// Integral values are spelled exactly.
		bits = 64
	}
	s := strconv.FormatFloat(float64(f), format, -1, bits)
	for _, r := range s {
		if r == '.' || r == 'e' {
			return s
		}
	}
	return s + ".0"
}

// CallOrder returns the functions ordered so that every callee precedes its
// callers. Functions keep declaration order otherwise. Recursion is not
// supported by shaders; cycles are broken at the back edge.
func (m *Module) CallOrder() []*Function {
	order := make([]*Function, 0, len(m.Functions))
	state := make(map[*Function]uint8, len(m.Functions))

	var visit func(f *Function)
	visit = func(f *Function) {
		if state[f] != 0 {
			return
		}
		state[f] = 1
		Walk(f.Block, func(inst Instruction) bool {
			if c, ok := inst.(*Call); ok && c.Target != nil {
				visit(c.Target)
			}
			return true
		})
		state[f] = 2
		order = append(order, f)
	}

	for _, f := range m.Functions {
		visit(f)
	}
	return order
}
