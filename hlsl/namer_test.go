// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gogpu/shir/ir"
)

func TestNamerCaseInsensitive(t *testing.T) {
	n := newNamer()
	assert.Equal(t, "color", n.call("color"))
	assert.Equal(t, "Color_1", n.call("Color"))
	assert.Equal(t, "COLOR_2", n.call("COLOR"))
	assert.True(t, n.isUsed("cOlOr"))
	assert.False(t, n.isUsed("colour"))
}

func TestNamerEscapes(t *testing.T) {
	n := newNamer()
	assert.Equal(t, "_float4", n.call("float4"))
	assert.Equal(t, "_Texture2D", n.call("Texture2D"))
	assert.Equal(t, UnnamedIdentifier, n.call(""))
	assert.Equal(t, "ConstructLight", n.callWithPrefix("Construct", "Light"))
	assert.Equal(t, "ConstructLight_1", n.callWithPrefix("Construct", "Light"))
}

func TestKeywords(t *testing.T) {
	assert.True(t, IsReserved("cbuffer"))
	assert.True(t, IsReserved("float3x3"))
	assert.True(t, IsReserved("SV_Position"))
	assert.False(t, IsReserved("position"))
	assert.True(t, IsCaseInsensitiveReserved("PASS"))
	assert.Equal(t, "_pass", Escape("pass"))
	assert.Equal(t, "light", Escape("light"))
}

func TestShaderModel(t *testing.T) {
	assert.Equal(t, "SM 5.1", ShaderModel5_1.String())
	assert.Equal(t, "6_2", ShaderModel6_2.ProfileSuffix())
	assert.False(t, ShaderModel5_0.SupportsRegisterSpaces())
	assert.True(t, ShaderModel6_0.SupportsRegisterSpaces())
	assert.False(t, ShaderModel6_1.SupportsFloat16())

	sm, ok := ParseShaderModel("6.1")
	assert.True(t, ok)
	assert.Equal(t, ShaderModel6_1, sm)
	sm, ok = ParseShaderModel("5_0")
	assert.True(t, ok)
	assert.Equal(t, ShaderModel5_0, sm)
	_, ok = ParseShaderModel("4.0")
	assert.False(t, ok)

	assert.Equal(t, "vs_6_0", ShaderProfile(ir.StageVertex, ShaderModel6_0))
	assert.Equal(t, "cs_5_1", ShaderProfile(ir.StageCompute, ShaderModel5_1))
}

func TestRegisterFormat(t *testing.T) {
	bt := BindTarget{Space: 3, Register: 4}
	assert.Equal(t, "register(u4, space3)", bt.format(RegisterTypeU, ShaderModel5_1))
	assert.Equal(t, "register(b4)", bt.format(RegisterTypeB, ShaderModel5_0))
}
