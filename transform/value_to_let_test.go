package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueToLet(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "single use is inlined",
			src: `func %f(%a: f32) -> f32 {
  %1: f32 = mul %a, 2.0f
  %2: f32 = add %1, 1.0f
  ret %2
}
`,
			want: `func %f(%a: f32) -> f32 {
  %1: f32 = mul %a, 2.0f
  %2: f32 = add %1, 1.0f
  ret %2
}
`,
		},
		{
			name: "multiple uses",
			src: `func %f(%a: f32) -> f32 {
  %1: f32 = mul %a, 2.0f
  %2: f32 = add %1, %1
  ret %2
}
`,
			want: `func %f(%a: f32) -> f32 {
  %1: f32 = mul %a, 2.0f
  %2: f32 = let %1
  %3: f32 = add %2, %2
  ret %3
}
`,
		},
		{
			name: "use in nested block",
			src: `func %f(%c: bool, %a: f32) -> f32 {
  %1: f32 = mul %a, %a
  if %c {
    ret %1
  } else {
    exit_if
  }
  ret %a
}
`,
			want: `func %f(%c: bool, %a: f32) -> f32 {
  %1: f32 = mul %a, %a
  %2: f32 = let %1
  if %c {
    ret %2
  } else {
    exit_if
  }
  ret %a
}
`,
		},
		{
			name: "named result",
			src: `func %f(%a: f32) -> f32 {
  %x: f32 = mul %a, %a
  ret %x
}
`,
			want: `func %f(%a: f32) -> f32 {
  %1: f32 = mul %a, %a
  %x: f32 = let %1
  ret %x
}
`,
		},
		{
			name: "store between load and use",
			src: `func %f() -> i32 {
  %v: ptr<function, i32, read_write> = var 1i
  %1: i32 = load %v
  store %v, 2i
  %2: i32 = add %1, 1i
  ret %2
}
`,
			want: `func %f() -> i32 {
  %v: ptr<function, i32, read_write> = var 1i
  %1: i32 = load %v
  %2: i32 = let %1
  store %v, 2i
  %3: i32 = add %2, 1i
  ret %3
}
`,
		},
		{
			name: "operands out of order",
			src: `%g: ptr<private, f32, read_write> = var
%h: ptr<private, f32, read_write> = var

func %f() -> f32 {
  %1: f32 = load %g
  %2: f32 = load %h
  %3: f32 = sub %2, %1
  ret %3
}
`,
			want: `%g: ptr<private, f32, read_write> = var
%h: ptr<private, f32, read_write> = var

func %f() -> f32 {
  %1: f32 = load %g
  %2: f32 = let %1
  %3: f32 = load %h
  %4: f32 = sub %3, %2
  ret %4
}
`,
		},
		{
			name: "pointer access indices",
			src: `%arr: ptr<private, array<f32, 4>, read_write> = var

func %f(%i: i32) {
  %1: i32 = add %i, 1i
  %2: ptr<private, f32, read_write> = access %arr, %1
  %3: f32 = load %2
  %4: f32 = mul %3, 2.0f
  store %2, %4
  ret
}
`,
			want: `%arr: ptr<private, array<f32, 4>, read_write> = var

func %f(%i: i32) {
  %1: i32 = add %i, 1i
  %2: i32 = let %1
  %3: ptr<private, f32, read_write> = access %arr, %2
  %4: f32 = load %3
  %5: f32 = mul %4, 2.0f
  store %3, %5
  ret
}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runPass(t, tt.src, ValueToLet))
		})
	}
}

func TestValueToLetCalls(t *testing.T) {
	src := `%g: ptr<private, f32, read_write> = var

func %next() -> f32 {
  %1: f32 = load %g
  %2: f32 = add %1, 1.0f
  store %g, %2
  ret %2
}

func %f() -> f32 {
  %1: f32 = load %g
  %2: f32 = call %next
  %3: f32 = sub %2, %1
  ret %3
}
`
	want := `%g: ptr<private, f32, read_write> = var

func %next() -> f32 {
  %1: f32 = load %g
  %2: f32 = add %1, 1.0f
  %3: f32 = let %2
  store %g, %3
  ret %3
}

func %f() -> f32 {
  %4: f32 = load %g
  %5: f32 = let %4
  %6: f32 = call %next
  %7: f32 = sub %6, %5
  ret %7
}
`
	assert.Equal(t, want, runPass(t, src, ValueToLet))
}
