// Package spirv generates SPIR-V binaries from shir IR.
//
// The generated module targets Vulkan-style shaders: logical addressing,
// the GLSL450 memory model and structured control flow. SPIR-V 1.3 is the
// minimum version, so StorageBuffer and 16-bit storage need no extensions.
//
//	binary, info, err := spirv.Compile(module, spirv.DefaultOptions())
//	if err != nil {
//		return err
//	}
//
// Every IR entry point is emitted as an ordinary function named
// "<entry>_inner" plus a void wrapper that the OpEntryPoint refers to. The
// wrapper loads Input variables, calls the inner function and stores the
// result to Output variables.
//
// Uniform and storage variables whose type is not a struct are wrapped in
// a Block struct with a single member, and accesses to them go through
// member 0.
//
// Disassemble renders a binary as assembly text with friendly ids, which
// is what the shirc dis command and the tests use to inspect output.
package spirv
