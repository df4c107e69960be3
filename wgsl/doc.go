// Package wgsl generates WGSL (WebGPU Shading Language) source from shir IR.
//
// WGSL is the shader language for WebGPU. Its structured control flow maps
// one to one onto the IR: loops keep their continuing block and break-if,
// switch cases keep their selectors, and pointer parameters stay pointers.
//
// # Usage
//
//	m, err := irtext.Parse(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	code, info, err := wgsl.Compile(m, wgsl.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(code, info.EntryPointNames)
//
// # Value emission
//
// Instruction results with a single use in the same block are inlined at
// that use. Named results and results with several uses are declared with
// let at their definition. Pointer results are never declared: the writer
// re-emits the reference expression (a variable name, a dereferenced
// parameter or an index chain) wherever the pointer is used.
//
// The module should be lowered with the wgsl pipeline (value_to_let) before
// compiling, so that inlining never moves a memory access across another.
package wgsl
