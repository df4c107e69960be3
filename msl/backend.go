package msl

import (
	"fmt"

	"github.com/gogpu/shir/ir"
)

// Version represents an MSL language version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common MSL versions.
var (
	Version1_2 = Version{Major: 1, Minor: 2}
	Version2_0 = Version{Major: 2, Minor: 0}
	Version2_1 = Version{Major: 2, Minor: 1}
	Version2_3 = Version{Major: 2, Minor: 3}
	Version3_0 = Version{Major: 3, Minor: 0}
)

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v is older than o.
func (v Version) Less(o Version) bool {
	return v.Major < o.Major || v.Major == o.Major && v.Minor < o.Minor
}

// ParseVersion parses an MSL version written as "2.1".
func ParseVersion(s string) (Version, bool) {
	var major, minor uint8
	var extra string
	if n, _ := fmt.Sscanf(s, "%d.%d%s", &major, &minor, &extra); n != 2 || major == 0 {
		return Version{}, false
	}
	return Version{Major: major, Minor: minor}, true
}

// BindTarget specifies the Metal binding slot for a resource.
type BindTarget struct {
	// Buffer is the buffer binding slot.
	Buffer uint8
}

// EntryPointResources maps resource bindings to Metal binding slots.
type EntryPointResources struct {
	// Resources maps (group, binding) pairs to Metal bind targets.
	Resources map[ir.ResourceBinding]BindTarget
}

// Options configures MSL code generation.
type Options struct {
	// LangVersion is the target MSL version.
	// Defaults to Version2_1 if zero.
	LangVersion Version

	// PerEntryPointMap maps entry point names to their resource bindings.
	PerEntryPointMap map[string]EntryPointResources

	// FakeMissingBindings assigns buffer slots in declaration order to
	// resources that are not in the PerEntryPointMap.
	FakeMissingBindings bool
}

// DefaultOptions returns sensible default options for MSL generation.
func DefaultOptions() Options {
	return Options{
		LangVersion:         Version2_1,
		FakeMissingBindings: true,
	}
}

// TranslationInfo contains information about the compiled MSL output.
type TranslationInfo struct {
	// EntryPointNames maps original entry point names to generated MSL names.
	EntryPointNames map[string]string

	// WorkgroupSizes holds the threadgroup size of each compute entry point,
	// keyed by generated name. Metal sets it at dispatch time.
	WorkgroupSizes map[string][3]uint32

	// BufferSlots maps entry point and resource names to buffer slots.
	BufferSlots map[string]map[string]uint8
}

// Compile generates MSL source code from an IR module.
// Returns the MSL source as a string and translation info, or an error.
func Compile(module *ir.Module, options Options) (string, TranslationInfo, error) {
	if module == nil {
		return "", TranslationInfo{}, newError(ErrInvalidModule, "nil module")
	}
	if options.LangVersion.Major == 0 {
		options.LangVersion = Version2_1
	}
	if options.LangVersion.Less(Version1_2) {
		return "", TranslationInfo{}, newError(ErrUnsupportedFeature, "MSL %s is not supported", options.LangVersion)
	}

	w := newWriter(module, &options)
	if err := w.writeModule(); err != nil {
		return "", TranslationInfo{}, err
	}

	info := TranslationInfo{
		EntryPointNames: w.entryPointNames,
		WorkgroupSizes:  w.workgroupSizes,
		BufferSlots:     w.bufferSlots,
	}
	return w.String(), info, nil
}
