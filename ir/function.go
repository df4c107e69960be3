package ir

import "fmt"

// Function represents a function definition.
type Function struct {
	Name          string
	Params        []*FunctionParam
	ReturnType    TypeHandle
	ReturnBinding Binding // IO binding of an entry point result
	Block         *Block

	// Stage is set for shader entry points.
	Stage ShaderStage
	// WorkgroupSize is the compute workgroup size.
	WorkgroupSize [3]uint32

	module *Module
}

// NewFunction creates a function with an empty root block and adds it to m.
func (m *Module) NewFunction(name string, returnType TypeHandle) *Function {
	f := &Function{
		Name:       name,
		ReturnType: returnType,
		module:     m,
	}
	f.Block = &Block{function: f}
	m.AddFunction(f)
	return f
}

// Module returns the module that owns the function.
func (f *Function) Module() *Module { return f.module }

// AddParam appends a parameter to the function.
func (f *Function) AddParam(name string, t TypeHandle) *FunctionParam {
	p := &FunctionParam{
		valueBase: valueBase{id: f.module.allocID(), typ: t, name: name},
		function:  f,
	}
	f.Params = append(f.Params, p)
	return p
}

// IsEntryPoint reports whether the function is a shader entry point.
func (f *Function) IsEntryPoint() bool { return f.Stage != StageNone }

// ShaderStage represents a shader stage.
type ShaderStage uint8

const (
	StageNone ShaderStage = iota
	StageVertex
	StageFragment
	StageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	}
	return ""
}

// ParseShaderStage parses a stage attribute name.
func ParseShaderStage(s string) (ShaderStage, bool) {
	switch s {
	case "vertex":
		return StageVertex, true
	case "fragment":
		return StageFragment, true
	case "compute":
		return StageCompute, true
	}
	return StageNone, false
}

// Binding represents shader IO bindings.
type Binding interface {
	binding()
}

// BuiltinBinding represents a built-in binding.
type BuiltinBinding struct {
	Builtin BuiltinValue
}

func (BuiltinBinding) binding() {}

// LocationBinding represents a location binding.
type LocationBinding struct {
	Location uint32
	Flat     bool // @interpolate(flat)
}

func (LocationBinding) binding() {}

// BuiltinValue represents built-in values.
type BuiltinValue uint8

const (
	BuiltinPosition BuiltinValue = iota
	BuiltinVertexIndex
	BuiltinInstanceIndex
	BuiltinFrontFacing
	BuiltinFragDepth
	BuiltinSampleIndex
	BuiltinLocalInvocationID
	BuiltinLocalInvocationIndex
	BuiltinGlobalInvocationID
	BuiltinWorkGroupID
	BuiltinNumWorkGroups
)

var builtinValueNames = [...]string{
	"position", "vertex_index", "instance_index", "front_facing", "frag_depth",
	"sample_index", "local_invocation_id", "local_invocation_index",
	"global_invocation_id", "workgroup_id", "num_workgroups",
}

func (b BuiltinValue) String() string {
	if int(b) < len(builtinValueNames) {
		return builtinValueNames[b]
	}
	return fmt.Sprintf("builtin(%d)", b)
}

// ParseBuiltinValue parses a builtin value name.
func ParseBuiltinValue(s string) (BuiltinValue, bool) {
	for i, n := range builtinValueNames {
		if n == s {
			return BuiltinValue(i), true
		}
	}
	return 0, false
}

// FormatBinding returns the attribute spelling of an IO binding.
func FormatBinding(b Binding) string {
	switch b := b.(type) {
	case BuiltinBinding:
		return fmt.Sprintf("@builtin(%s)", b.Builtin)
	case LocationBinding:
		if b.Flat {
			return fmt.Sprintf("@location(%d) @interpolate(flat)", b.Location)
		}
		return fmt.Sprintf("@location(%d)", b.Location)
	}
	return ""
}
