// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import "fmt"

// BindTarget specifies the HLSL register binding for a resource.
// HLSL uses register(x#, space#) syntax for resource binding.
type BindTarget struct {
	// Space is the register space (0-based).
	Space uint8

	// Register is the register index within the space.
	Register uint32
}

// ResourceBinding identifies a resource in the source module.
type ResourceBinding struct {
	// Group corresponds to @group or a SPIR-V DescriptorSet.
	Group uint32

	// Binding corresponds to @binding or a SPIR-V Binding.
	Binding uint32
}

// RegisterType represents the HLSL register type.
type RegisterType uint8

const (
	// RegisterTypeB is for constant buffers (cbuffer).
	RegisterTypeB RegisterType = iota

	// RegisterTypeT is for shader resource views.
	RegisterTypeT

	// RegisterTypeU is for unordered access views (UAV).
	RegisterTypeU
)

// String returns the single-character register prefix.
func (rt RegisterType) String() string {
	switch rt {
	case RegisterTypeT:
		return "t"
	case RegisterTypeU:
		return "u"
	default:
		return "b"
	}
}

// format returns the register clause for the target.
func (bt BindTarget) format(rt RegisterType, sm ShaderModel) string {
	if !sm.SupportsRegisterSpaces() {
		return fmt.Sprintf("register(%s%d)", rt, bt.Register)
	}
	return fmt.Sprintf("register(%s%d, space%d)", rt, bt.Register, bt.Space)
}
