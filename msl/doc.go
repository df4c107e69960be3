// Package msl implements Metal Shading Language (MSL) code generation for
// shir IR.
//
// MSL is Apple's shader language for the Metal graphics API. It is based on
// C++14 with extensions for GPU programming, including explicit address
// spaces, attribute-based parameter binding, and a metal:: namespace for
// standard library functions.
//
// # Usage
//
//	options := msl.DefaultOptions()
//	options.LangVersion = msl.Version2_1
//
//	mslCode, info, err := msl.Compile(module, options)
//	if err != nil {
//	    return err
//	}
//
// The module should be lowered with the msl pipeline first.
//
// # Type Mapping
//
//	IR             MSL
//	--             ---
//	bool           bool
//	i32            int
//	u32            uint
//	f32            float
//	f16            half
//	vec3<f32>      metal::float3
//	mat4x4<f32>    metal::float4x4
//	array<T, N>    struct wrapper with a T inner[N] member
//
// A vec3 struct member followed by a member in its last four bytes is
// declared packed so that struct offsets agree with the IR layout.
//
// # Address Spaces
//
//	uniform    -> constant
//	storage    -> device
//	private    -> thread
//	workgroup  -> threadgroup
//	function   -> thread
//
// # Entry Points
//
// Entry points are generated with their stage keyword (vertex, fragment,
// kernel). Location inputs are gathered into a <name>_in struct passed with
// [[stage_in]], outputs into a <name>_out struct. Built-in inputs are plain
// parameters with attributes such as [[vertex_id]].
//
// Metal has no module-scope mutable variables, so resource variables are
// passed to the entry point that references them as buffer parameters, and
// private and workgroup variables are declared in its body. A module variable
// referenced from any other function is rejected.
package msl
