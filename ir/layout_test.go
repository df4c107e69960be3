package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayout(t *testing.T) {
	r := NewTypeRegistry()
	f32 := r.Scalar(F32)
	vec2 := r.Vector(Vec2, F32)
	vec3 := r.Vector(Vec3, F32)
	mat3 := r.GetOrCreate("", MatrixType{Columns: Vec3, Rows: Vec3, Scalar: F32})
	mat2 := r.GetOrCreate("", MatrixType{Columns: Vec2, Rows: Vec2, Scalar: F32})
	arr := r.Array(f32, 4)
	st := r.GetOrCreate("Light", StructType{Members: []StructMember{
		{Name: "dir", Type: vec3},
		{Name: "intensity", Type: f32},
		{Name: "uv", Type: vec2},
	}})

	tests := []struct {
		name  string
		typ   TypeHandle
		space AddressSpace
		want  TypeLayout
	}{
		{"f32", f32, SpaceStorage, TypeLayout{Align: 4, Size: 4}},
		{"vec2", vec2, SpaceStorage, TypeLayout{Align: 8, Size: 8}},
		{"vec3", vec3, SpaceStorage, TypeLayout{Align: 16, Size: 12}},
		{"mat2x2", mat2, SpaceStorage, TypeLayout{Align: 8, Size: 16}},
		{"mat3x3", mat3, SpaceStorage, TypeLayout{Align: 16, Size: 48}},
		{"array storage", arr, SpaceStorage, TypeLayout{Align: 4, Size: 16}},
		{"array uniform", arr, SpaceUniform, TypeLayout{Align: 16, Size: 64}},
		{"struct", st, SpaceStorage, TypeLayout{Align: 16, Size: 32}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Layout(tt.typ, tt.space))
		})
	}

	assert.Equal(t, []uint32{0, 12, 16}, r.MemberOffsets(st, SpaceStorage))
	assert.Equal(t, uint32(4), r.ArrayStride(arr, SpaceStorage))
	assert.Equal(t, uint32(16), r.ArrayStride(arr, SpaceUniform))
	assert.Equal(t, uint32(16), r.MatrixStride(mat3))
	assert.Equal(t, uint32(8), r.MatrixStride(mat2))
	assert.Nil(t, r.MemberOffsets(f32, SpaceStorage))
}
