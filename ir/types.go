package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeHandle references a type in a module's TypeRegistry.
type TypeHandle uint32

// Type is a registered type.
type Type struct {
	Name  string
	Inner TypeInner
}

// TypeInner represents the inner type kind.
type TypeInner interface {
	typeInner()
}

// VoidType is the result type of functions and instructions without a value.
type VoidType struct{}

func (VoidType) typeInner() {}

// ScalarType represents scalar types.
type ScalarType struct {
	Kind  ScalarKind
	Width uint8 // in bytes
}

func (ScalarType) typeInner() {}

// ScalarKind represents scalar type kinds.
type ScalarKind uint8

const (
	ScalarSint  ScalarKind = iota // Signed integer
	ScalarUint                    // Unsigned integer
	ScalarFloat                   // Floating point
	ScalarBool                    // Boolean
)

// Common scalars.
var (
	Bool = ScalarType{Kind: ScalarBool, Width: 1}
	I32  = ScalarType{Kind: ScalarSint, Width: 4}
	U32  = ScalarType{Kind: ScalarUint, Width: 4}
	F32  = ScalarType{Kind: ScalarFloat, Width: 4}
	F16  = ScalarType{Kind: ScalarFloat, Width: 2}
)

// IsInteger reports whether the scalar is a signed or unsigned integer.
func (s ScalarType) IsInteger() bool {
	return s.Kind == ScalarSint || s.Kind == ScalarUint
}

// IsNumeric reports whether the scalar is an integer or a float.
func (s ScalarType) IsNumeric() bool {
	return s.Kind != ScalarBool
}

// VectorType represents vector types.
type VectorType struct {
	Size   VectorSize
	Scalar ScalarType
}

func (VectorType) typeInner() {}

// VectorSize represents vector sizes.
type VectorSize uint8

const (
	Vec2 VectorSize = 2
	Vec3 VectorSize = 3
	Vec4 VectorSize = 4
)

// MatrixType represents matrix types.
type MatrixType struct {
	Columns VectorSize
	Rows    VectorSize
	Scalar  ScalarType
}

func (MatrixType) typeInner() {}

// ArrayType represents fixed-size and runtime-sized arrays.
type ArrayType struct {
	Base TypeHandle
	Size *uint32 // nil for runtime-sized arrays
}

func (ArrayType) typeInner() {}

// StructType represents struct types. The struct name lives on Type.
type StructType struct {
	Members []StructMember
}

func (StructType) typeInner() {}

// StructMember represents a struct member.
type StructMember struct {
	Name    string
	Type    TypeHandle
	Binding Binding // @builtin(position), @location(0), etc. for IO structs
}

// PointerType represents pointer types.
type PointerType struct {
	Base   TypeHandle
	Space  AddressSpace
	Access AccessMode
}

func (PointerType) typeInner() {}

// AddressSpace represents memory address spaces.
type AddressSpace uint8

const (
	SpaceFunction AddressSpace = iota
	SpacePrivate
	SpaceWorkGroup
	SpaceUniform
	SpaceStorage
)

var addressSpaceNames = [...]string{"function", "private", "workgroup", "uniform", "storage"}

func (s AddressSpace) String() string {
	if int(s) < len(addressSpaceNames) {
		return addressSpaceNames[s]
	}
	return "space(" + strconv.Itoa(int(s)) + ")"
}

// ParseAddressSpace parses an address space keyword.
func ParseAddressSpace(s string) (AddressSpace, bool) {
	for i, n := range addressSpaceNames {
		if n == s {
			return AddressSpace(i), true
		}
	}
	return 0, false
}

// IsHostShareable reports whether values in the space are laid out for the host.
func (s AddressSpace) IsHostShareable() bool {
	return s == SpaceUniform || s == SpaceStorage
}

// AccessMode represents pointer access modes.
type AccessMode uint8

const (
	AccessReadWrite AccessMode = iota
	AccessRead
	AccessWrite
)

func (a AccessMode) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return "read_write"
	}
}

// ParseAccessMode parses an access mode keyword.
func ParseAccessMode(s string) (AccessMode, bool) {
	switch s {
	case "read":
		return AccessRead, true
	case "write":
		return AccessWrite, true
	case "read_write":
		return AccessReadWrite, true
	}
	return 0, false
}

// TypeRegistry interns types so that structurally identical types share one
// handle. Backends rely on this to declare each type exactly once.
type TypeRegistry struct {
	types   []Type
	typeMap map[string]TypeHandle
	keyBuf  []byte // reusable buffer for building type keys
}

// NewTypeRegistry creates a new type registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types:   make([]Type, 0, 16),
		typeMap: make(map[string]TypeHandle, 16),
		keyBuf:  make([]byte, 0, 64),
	}
}

// GetOrCreate returns an existing handle for the type if it exists,
// or creates a new one if it's unique. Only struct names take part in
// identity; other types ignore name.
func (r *TypeRegistry) GetOrCreate(name string, inner TypeInner) TypeHandle {
	key := r.normalizeType(name, inner)
	if handle, exists := r.typeMap[key]; exists {
		return handle
	}

	handle := TypeHandle(len(r.types))
	r.types = append(r.types, Type{Name: name, Inner: inner})
	r.typeMap[key] = handle
	return handle
}

// Struct looks up a struct type by name.
func (r *TypeRegistry) Struct(name string) (TypeHandle, bool) {
	for i, t := range r.types {
		if _, ok := t.Inner.(StructType); ok && t.Name == name {
			return TypeHandle(i), true
		}
	}
	return 0, false
}

// Types returns all registered types.
func (r *TypeRegistry) Types() []Type {
	return r.types
}

// Lookup finds a type by its handle.
func (r *TypeRegistry) Lookup(handle TypeHandle) (Type, bool) {
	if int(handle) >= len(r.types) {
		return Type{}, false
	}
	return r.types[handle], true
}

// Inner returns the inner type of handle, or nil if the handle is invalid.
func (r *TypeRegistry) Inner(handle TypeHandle) TypeInner {
	if int(handle) >= len(r.types) {
		return nil
	}
	return r.types[handle].Inner
}

// Count returns the number of unique types registered.
func (r *TypeRegistry) Count() int {
	return len(r.types)
}

// Convenience constructors.

// Void returns the void type.
func (r *TypeRegistry) Void() TypeHandle { return r.GetOrCreate("", VoidType{}) }

// Scalar returns the handle of a scalar type.
func (r *TypeRegistry) Scalar(s ScalarType) TypeHandle { return r.GetOrCreate("", s) }

// Vector returns the handle of a vector type.
func (r *TypeRegistry) Vector(size VectorSize, s ScalarType) TypeHandle {
	return r.GetOrCreate("", VectorType{Size: size, Scalar: s})
}

// Pointer returns the handle of a pointer type.
func (r *TypeRegistry) Pointer(space AddressSpace, base TypeHandle, access AccessMode) TypeHandle {
	return r.GetOrCreate("", PointerType{Base: base, Space: space, Access: access})
}

// Array returns the handle of an array type; size 0 means runtime-sized.
func (r *TypeRegistry) Array(base TypeHandle, size uint32) TypeHandle {
	if size == 0 {
		return r.GetOrCreate("", ArrayType{Base: base})
	}
	return r.GetOrCreate("", ArrayType{Base: base, Size: &size})
}

// WithScalar returns t with its scalar component replaced by s.
// Scalars and vectors are supported; other types are returned unchanged.
func (r *TypeRegistry) WithScalar(t TypeHandle, s ScalarType) TypeHandle {
	switch inner := r.Inner(t).(type) {
	case ScalarType:
		return r.Scalar(s)
	case VectorType:
		return r.Vector(inner.Size, s)
	}
	return t
}

// ScalarOf returns the scalar of a scalar, vector or matrix type.
func (r *TypeRegistry) ScalarOf(t TypeHandle) (ScalarType, bool) {
	switch inner := r.Inner(t).(type) {
	case ScalarType:
		return inner, true
	case VectorType:
		return inner.Scalar, true
	case MatrixType:
		return inner.Scalar, true
	}
	return ScalarType{}, false
}

// VectorSizeOf returns the component count of a vector type, or 0 for scalars.
func (r *TypeRegistry) VectorSizeOf(t TypeHandle) VectorSize {
	if v, ok := r.Inner(t).(VectorType); ok {
		return v.Size
	}
	return 0
}

// PointeeOf returns the store type of a pointer type.
func (r *TypeRegistry) PointeeOf(t TypeHandle) (PointerType, bool) {
	p, ok := r.Inner(t).(PointerType)
	return p, ok
}

// IsVoid reports whether t is the void type.
func (r *TypeRegistry) IsVoid(t TypeHandle) bool {
	_, ok := r.Inner(t).(VoidType)
	return ok
}

// IsPointer reports whether t is a pointer type.
func (r *TypeRegistry) IsPointer(t TypeHandle) bool {
	_, ok := r.Inner(t).(PointerType)
	return ok
}

// IsBool reports whether t is bool or a vector of bool.
func (r *TypeRegistry) IsBool(t TypeHandle) bool {
	s, ok := r.ScalarOf(t)
	return ok && s.Kind == ScalarBool && !r.isMatrix(t)
}

func (r *TypeRegistry) isMatrix(t TypeHandle) bool {
	_, ok := r.Inner(t).(MatrixType)
	return ok
}

// ElementType returns the type produced by indexing into t with index
// (the index is only consulted for structs). ok is false if t cannot be indexed.
func (r *TypeRegistry) ElementType(t TypeHandle, index uint32) (TypeHandle, bool) {
	switch inner := r.Inner(t).(type) {
	case VectorType:
		return r.Scalar(inner.Scalar), true
	case MatrixType:
		return r.Vector(inner.Rows, inner.Scalar), true
	case ArrayType:
		return inner.Base, true
	case StructType:
		if int(index) >= len(inner.Members) {
			return 0, false
		}
		return inner.Members[index].Type, true
	}
	return 0, false
}

// Format returns the canonical IR spelling of a type.
func (r *TypeRegistry) Format(t TypeHandle) string {
	typ, ok := r.Lookup(t)
	if !ok {
		return fmt.Sprintf("<invalid type %d>", t)
	}
	switch inner := typ.Inner.(type) {
	case VoidType:
		return "void"
	case ScalarType:
		return ScalarName(inner)
	case VectorType:
		return fmt.Sprintf("vec%d<%s>", inner.Size, ScalarName(inner.Scalar))
	case MatrixType:
		return fmt.Sprintf("mat%dx%d<%s>", inner.Columns, inner.Rows, ScalarName(inner.Scalar))
	case ArrayType:
		if inner.Size == nil {
			return fmt.Sprintf("array<%s>", r.Format(inner.Base))
		}
		return fmt.Sprintf("array<%s, %d>", r.Format(inner.Base), *inner.Size)
	case StructType:
		return typ.Name
	case PointerType:
		return fmt.Sprintf("ptr<%s, %s, %s>", inner.Space, r.Format(inner.Base), inner.Access)
	}
	return fmt.Sprintf("<unknown type %T>", typ.Inner)
}

// ScalarName returns the IR spelling of a scalar type.
func ScalarName(s ScalarType) string {
	switch s.Kind {
	case ScalarBool:
		return "bool"
	case ScalarSint:
		return "i" + strconv.Itoa(int(s.Width)*8)
	case ScalarUint:
		return "u" + strconv.Itoa(int(s.Width)*8)
	default:
		return "f" + strconv.Itoa(int(s.Width)*8)
	}
}

// ParseScalarName is the inverse of ScalarName for the supported scalars.
func ParseScalarName(name string) (ScalarType, bool) {
	switch strings.TrimSpace(name) {
	case "bool":
		return Bool, true
	case "i32":
		return I32, true
	case "u32":
		return U32, true
	case "f32":
		return F32, true
	case "f16":
		return F16, true
	}
	return ScalarType{}, false
}

// normalizeType creates a unique key for a type based on its structure.
// Two structurally identical types will produce the same key.
func (r *TypeRegistry) normalizeType(name string, inner TypeInner) string {
	b := r.keyBuf[:0]

	switch t := inner.(type) {
	case VoidType:
		return "void"

	case ScalarType:
		b = append(b, "scalar:"...)
		b = strconv.AppendInt(b, int64(t.Kind), 10)
		b = append(b, ':')
		b = strconv.AppendUint(b, uint64(t.Width), 10)
		r.keyBuf = b
		return string(b)

	case VectorType:
		// Recursive call clobbers keyBuf, so build with string concat.
		scalarKey := r.normalizeType("", t.Scalar)
		return "vec:" + strconv.FormatUint(uint64(t.Size), 10) + ":" + scalarKey

	case MatrixType:
		scalarKey := r.normalizeType("", t.Scalar)
		return "mat:" + strconv.FormatUint(uint64(t.Columns), 10) + "x" + strconv.FormatUint(uint64(t.Rows), 10) + ":" + scalarKey

	case ArrayType:
		sizeKey := "runtime"
		if t.Size != nil {
			sizeKey = strconv.FormatUint(uint64(*t.Size), 10)
		}
		return "array:" + strconv.FormatInt(int64(t.Base), 10) + ":" + sizeKey

	case StructType:
		// Struct identity is nominal.
		return "struct:" + name

	case PointerType:
		return "ptr:" + strconv.FormatInt(int64(t.Base), 10) + ":" + strconv.FormatInt(int64(t.Space), 10) +
			":" + strconv.FormatInt(int64(t.Access), 10)

	default:
		return fmt.Sprintf("unknown:%T", inner)
	}
}
