// Package irtext reads the textual form of the shader IR.
//
// The text form is the one produced by ir.Disassemble, so a module can be
// printed, edited by hand and parsed back.
//
// # Usage
//
//	source := `
//	@fragment
//	func %main(%uv: vec2<f32> @location(0)) -> vec4<f32> @location(0) {
//	  %x: f32 = swizzle %uv, x
//	  %c: vec4<f32> = construct %x, %x, %x, 1.0f
//	  ret %c
//	}
//	`
//
//	module, err := irtext.Parse(source)
//	if err != nil {
//	    var se *irtext.SourceError
//	    if errors.As(err, &se) {
//	        fmt.Println(se.FormatWithContext())
//	    }
//	    log.Fatal(err)
//	}
//
// # Grammar
//
// A module is a sequence of struct declarations, module-scope variables and
// functions. Each instruction sits on its own line:
//
//	%name: type = opcode operand, operand
//	store %ptr, %value
//	if %cond { ... } else { ... }
//	loop { ... } continuing { ... }
//	switch %sel { case 1i, 2i { ... } default { ... } }
//
// Values whose name is made only of digits are anonymous. Literals carry a
// type suffix: 1i, 2u, 1.5f, 0.5h, true, false. Composite constants are
// written as a type followed by components, with an empty list meaning the
// zero value: vec3<f32>(1.0f, 2.0f, 3.0f), S().
//
// An if without an else gets an else block holding only exit_if; a loop
// without a continuing block gets one holding only next_iteration.
package irtext
