// Package ir defines the intermediate representation for shir.
//
// The IR is a structured, typed instruction graph designed to be:
//   - Target-agnostic: Not tied to any specific shading language
//   - Mutable: Passes rewrite it in place through use-def links
//   - Checkable: Validate reports every broken invariant at once
//
// # Structure
//
// Ownership is strictly hierarchical:
//   - Module owns the type registry, the root block of module-scope
//     variables and all functions
//   - Function owns its parameters and one root Block
//   - Block owns its instructions in execution order
//   - Control instructions (If, Loop, Switch) own their nested blocks
//
// Every Value has a module-unique integer ID, a type and a use list.
// Setting an operand records a Use on the operand value, so passes can
// rewrite the graph with ReplaceAllUsesWith and Destroy without
// walking the module.
//
// # Control Flow
//
// Control flow is structured. A block always ends with exactly one
// terminator (ret, exit_if, exit_loop, continue, ...). Values defined in a
// nested block are not visible after the control instruction that owns
// it; values that escape must go through a var.
//
// # Translation Pipeline
//
//	IR text → ir.Module → transform passes → Target (WGSL/HLSL/MSL/SPIR-V)
package ir
