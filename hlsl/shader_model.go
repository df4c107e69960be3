// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"

	"github.com/gogpu/shir/ir"
)

// ShaderModel represents a DirectX Shader Model version.
type ShaderModel uint8

// Supported Shader Model versions.
const (
	// ShaderModel5_0 is the base SM5 version (DirectX 11).
	ShaderModel5_0 ShaderModel = iota

	// ShaderModel5_1 adds register spaces (default).
	ShaderModel5_1

	// ShaderModel6_0 introduces DXIL.
	ShaderModel6_0

	// ShaderModel6_1 adds SV_ViewID and barycentrics.
	ShaderModel6_1

	// ShaderModel6_2 adds float16.
	ShaderModel6_2
)

// String returns a human-readable representation of the shader model.
// Example: "SM 5.1", "SM 6.0"
func (sm ShaderModel) String() string {
	major, minor := sm.version()
	return fmt.Sprintf("SM %d.%d", major, minor)
}

// ProfileSuffix returns the shader profile suffix for this model.
// Used to construct profiles like "vs_5_1", "ps_6_0".
func (sm ShaderModel) ProfileSuffix() string {
	major, minor := sm.version()
	return fmt.Sprintf("%d_%d", major, minor)
}

func (sm ShaderModel) version() (major, minor uint8) {
	switch sm {
	case ShaderModel5_0:
		return 5, 0
	case ShaderModel6_0:
		return 6, 0
	case ShaderModel6_1:
		return 6, 1
	case ShaderModel6_2:
		return 6, 2
	default:
		return 5, 1
	}
}

// SupportsRegisterSpaces reports whether register(x#, space#) is accepted.
func (sm ShaderModel) SupportsRegisterSpaces() bool {
	return sm >= ShaderModel5_1
}

// SupportsFloat16 returns true if this shader model supports native float16.
func (sm ShaderModel) SupportsFloat16() bool {
	return sm >= ShaderModel6_2
}

// ShaderProfile returns the compiler target profile for a stage,
// e.g. "ps_5_1" or "cs_6_0".
func ShaderProfile(stage ir.ShaderStage, sm ShaderModel) string {
	prefix := "vs"
	switch stage {
	case ir.StageFragment:
		prefix = "ps"
	case ir.StageCompute:
		prefix = "cs"
	}
	return prefix + "_" + sm.ProfileSuffix()
}

// ParseShaderModel parses "5.1" or "6_2" style versions.
func ParseShaderModel(s string) (ShaderModel, bool) {
	for sm := ShaderModel5_0; sm <= ShaderModel6_2; sm++ {
		major, minor := sm.version()
		if s == fmt.Sprintf("%d.%d", major, minor) || s == sm.ProfileSuffix() {
			return sm, true
		}
	}
	return 0, false
}
