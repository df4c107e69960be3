// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package hlsl provides HLSL (High-Level Shading Language) code generation
// from shir IR.
//
// HLSL is Microsoft's shader language for DirectX. The generated code targets
// Shader Model 5.x and later and is accepted by both FXC and DXC.
//
// # Usage
//
//	options := hlsl.DefaultOptions()
//	options.ShaderModel = hlsl.ShaderModel6_2
//
//	hlslCode, info, err := hlsl.Compile(module, options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The module should be lowered with the hlsl pipeline first: integer
// division and float-to-int conversions are polyfilled in the IR, pointer
// lets are folded away and phonies are removed.
//
// # Resources
//
// Uniform variables become cbuffers and storage variables become
// (RW)StructuredBuffers:
//
//	cbuffer params : register(b2, space0) { Params params; }
//	RWStructuredBuffer<float> data : register(u0, space0);
//
// The BindingMap in Options allows explicit control over register assignment.
//
// # Matrices
//
// A WGSL-style matCxR is written as floatCxR so that indexing a matrix yields
// a column. Products involving a matrix swap their operands inside mul(), and
// matrices in host-shareable structs are declared row_major.
//
// # Loops
//
// HLSL has no continuing block. The continuing block is written out before
// every continue and at the end of the loop body, with break-if becoming
// "if (cond) { break; }".
package hlsl
