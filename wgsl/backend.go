package wgsl

import (
	"github.com/gogpu/shir/ir"
)

// Options configures WGSL code generation.
type Options struct {
	// Indent is the indentation unit. Defaults to four spaces if empty.
	Indent string

	// EntryPointsOnly drops functions that no entry point reaches.
	EntryPointsOnly bool
}

// DefaultOptions returns sensible default options for WGSL generation.
func DefaultOptions() Options {
	return Options{Indent: "    "}
}

// TranslationInfo contains information about the generated WGSL.
type TranslationInfo struct {
	// EntryPointNames maps IR entry point names to generated WGSL names.
	EntryPointNames map[string]string

	// UsesF16 is set when the output starts with "enable f16;".
	UsesF16 bool
}

// Compile generates WGSL source code from an IR module.
func Compile(module *ir.Module, options Options) (string, TranslationInfo, error) {
	if module == nil {
		return "", TranslationInfo{}, newError(ErrInvalidModule, "nil module")
	}
	if options.Indent == "" {
		options.Indent = "    "
	}

	w := newWriter(module, &options)
	if err := w.writeModule(); err != nil {
		return "", TranslationInfo{}, err
	}

	info := TranslationInfo{
		EntryPointNames: w.entryPointNames,
		UsesF16:         w.usesF16,
	}
	return w.String(), info, nil
}
