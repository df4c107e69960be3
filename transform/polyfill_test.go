package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shir/ir"
)

func TestPolyfill(t *testing.T) {
	src := `func %f(%a: f32, %b: i32) -> i32 {
  %1: i32 = convert %a
  %2: i32 = div %1, %b
  ret %2
}
`
	want := `func %f(%a: f32, %b: i32) -> i32 {
  %1: i32 = call %tint_f32_to_i32, %a
  %2: i32 = call %tint_div_i32, %1, %b
  ret %2
}

func %tint_f32_to_i32(%value: f32) -> i32 {
  %3: f32 = clamp %value, -2147483648.0f, 2147483520.0f
  %4: i32 = convert %3
  ret %4
}

func %tint_div_i32(%lhs: i32, %rhs: i32) -> i32 {
  %5: bool = eq %rhs, 0i
  %6: bool = eq %lhs, -2147483648i
  %7: bool = eq %rhs, -1i
  %8: bool = and %6, %7
  %9: bool = or %5, %8
  %10: i32 = select %rhs, 1i, %9
  %11: i32 = div %lhs, %10
  ret %11
}
`
	got := runPass(t, src, func(m *ir.Module) error {
		return Polyfill(m, DefaultPolyfillOptions())
	})
	assert.Equal(t, want, got)
}

func TestPolyfillUnsignedMod(t *testing.T) {
	src := `func %f(%a: u32, %b: u32) -> u32 {
  %1: u32 = mod %a, %b
  ret %1
}
`
	want := `func %f(%a: u32, %b: u32) -> u32 {
  %1: u32 = call %tint_mod_u32, %a, %b
  ret %1
}

func %tint_mod_u32(%lhs: u32, %rhs: u32) -> u32 {
  %2: bool = eq %rhs, 0u
  %3: u32 = select %rhs, 1u, %2
  %4: u32 = div %lhs, %3
  %5: u32 = mul %4, %3
  %6: u32 = sub %lhs, %5
  ret %6
}
`
	got := runPass(t, src, func(m *ir.Module) error {
		return Polyfill(m, DefaultPolyfillOptions())
	})
	assert.Equal(t, want, got)
}

func TestPolyfillVectors(t *testing.T) {
	src := `func %f(%v: vec3<f32>, %w: vec2<i32>) -> vec2<i32> {
  %1: vec3<u32> = convert %v
  %2: vec2<i32> = div %w, 2i
  ret %2
}
`
	got := runPass(t, src, func(m *ir.Module) error {
		return Polyfill(m, DefaultPolyfillOptions())
	})
	assert.Contains(t, got, "call %tint_v3f32_to_v3u32, %v")
	assert.Contains(t, got, "clamp %value, vec3<f32>(0.0f, 0.0f, 0.0f), vec3<f32>(4294967040.0f, 4294967040.0f, 4294967040.0f)")
	assert.Contains(t, got, "vec2<i32> = construct 2i")
	assert.Contains(t, got, "call %tint_div_v2i32, %w, %")
	assert.Contains(t, got, "vec2<bool> = eq %rhs, vec2<i32>(0i, 0i)")
}

func TestPolyfillReusesHelpers(t *testing.T) {
	src := `func %f(%a: f32, %b: f32) -> i32 {
  %1: i32 = convert %a
  %2: i32 = convert %b
  %3: i32 = add %1, %2
  ret %3
}
`
	m := parse(t, src)
	require.NoError(t, Polyfill(m, DefaultPolyfillOptions()))
	require.Len(t, m.Functions, 2)

	require.NoError(t, Polyfill(m, DefaultPolyfillOptions()))
	assert.Len(t, m.Functions, 2)
	requireValid(t, m)
}

func TestPolyfillOptions(t *testing.T) {
	src := `func %f(%a: f32, %b: i32) -> i32 {
  %1: i32 = convert %a
  %2: i32 = div %1, %b
  ret %2
}
`
	got := runPass(t, src, func(m *ir.Module) error {
		return Polyfill(m, PolyfillOptions{IntDivMod: true})
	})
	assert.Contains(t, got, "%1: i32 = convert %a")
	assert.Contains(t, got, "call %tint_div_i32")
	assert.NotContains(t, got, "tint_f32_to_i32")
}

func TestConvLimits(t *testing.T) {
	tests := []struct {
		src, dst ir.ScalarType
		lo, hi   float64
	}{
		{ir.F32, ir.I32, -2147483648, 2147483520},
		{ir.F32, ir.U32, 0, 4294967040},
		{ir.F16, ir.I32, -65504, 65504},
		{ir.F16, ir.U32, 0, 65504},
	}
	for _, tt := range tests {
		lo, hi := convLimits(tt.src, tt.dst)
		assert.Equal(t, tt.lo, lo)
		assert.Equal(t, tt.hi, hi)
	}
}
