// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"github.com/gogpu/shir/ir"
)

// Options configures HLSL code generation.
type Options struct {
	// ShaderModel specifies the target shader model.
	// Defaults to ShaderModel5_1 for maximum compatibility.
	ShaderModel ShaderModel

	// BindingMap maps IR resource bindings to HLSL register targets.
	// If a binding is not found in the map and FakeMissingBindings is false,
	// compilation fails with ErrMissingBinding.
	BindingMap map[ResourceBinding]BindTarget

	// FakeMissingBindings uses the IR group and binding as space and register
	// for resources not found in BindingMap.
	FakeMissingBindings bool
}

// DefaultOptions returns sensible default options for HLSL generation.
// Uses Shader Model 5.1 with automatic bindings.
func DefaultOptions() *Options {
	return &Options{
		ShaderModel:         ShaderModel5_1,
		BindingMap:          make(map[ResourceBinding]BindTarget),
		FakeMissingBindings: true,
	}
}

// TranslationInfo contains metadata about the HLSL translation.
type TranslationInfo struct {
	// EntryPointNames maps IR entry point names to generated HLSL names.
	EntryPointNames map[string]string

	// EntryPointProfiles maps generated entry point names to compiler
	// profiles such as "ps_5_1".
	EntryPointProfiles map[string]string

	// RequiredShaderModel is the minimum shader model needed for this shader.
	RequiredShaderModel ShaderModel

	// RegisterBindings maps resource names to their register clause.
	// Format: "resourceName" -> "register(t0, space0)"
	RegisterBindings map[string]string

	// HelperFunctions lists the constructor helpers that were generated.
	HelperFunctions []string
}

// Compile generates HLSL source code from an IR module.
// Returns the HLSL source, translation info, or an error.
func Compile(module *ir.Module, options *Options) (string, *TranslationInfo, error) {
	if module == nil {
		return "", nil, NewError(ErrInternalError, "module is nil")
	}
	if options == nil {
		options = DefaultOptions()
	}

	w := newWriter(module, options)
	if err := w.writeModule(); err != nil {
		return "", nil, err
	}

	info := &TranslationInfo{
		EntryPointNames:     w.entryPointNames,
		EntryPointProfiles:  make(map[string]string, len(w.entryPointNames)),
		RequiredShaderModel: w.requiredShaderModel,
		RegisterBindings:    w.registerBindings,
		HelperFunctions:     w.helperFunctions,
	}
	for _, f := range module.EntryPoints() {
		name := w.entryPointNames[f.Name]
		info.EntryPointProfiles[name] = ShaderProfile(f.Stage, w.requiredShaderModel)
	}

	return w.String(), info, nil
}
