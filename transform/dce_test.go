package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeadCodeElimination(t *testing.T) {
	src := `func %get() -> f32 {
  ret 1.0f
}

func %f(%a: f32, %c: bool) -> f32 {
  %1: f32 = mul %a, 2.0f
  %2: f32 = add %1, 1.0f
  %v: ptr<function, f32, read_write> = var
  %3: f32 = load %v
  %4: f32 = call %get
  if %c {
    %5: f32 = neg %a
    exit_if
  } else {
    exit_if
  }
  ret %a
}
`
	want := `func %get() -> f32 {
  ret 1.0f
}

func %f(%a: f32, %c: bool) -> f32 {
  %1: f32 = call %get
  if %c {
    exit_if
  } else {
    exit_if
  }
  ret %a
}
`
	assert.Equal(t, want, runPass(t, src, DeadCodeElimination))
}
