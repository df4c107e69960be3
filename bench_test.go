package shir

import (
	"context"
	"testing"
)

// benchCompute is a compute shader with a storage buffer and a loop.
const benchCompute = `%data: ptr<storage, array<f32>, read_write> = var @group(0) @binding(0)

@compute @workgroup_size(64, 1, 1)
func %main(%gid: vec3<u32> @builtin(global_invocation_id)) {
  %acc: ptr<function, f32, read_write> = var 0.0f
  %i: ptr<function, i32, read_write> = var 0i
  %1: u32 = access %gid, 0u
  loop {
    %2: i32 = load %i
    %3: bool = ge %2, 16i
    if %3 {
      exit_loop
    }
    %4: f32 = convert %2
    %5: f32 = load %acc
    %6: f32 = add %5, %4
    store %acc, %6
    continue
  } continuing {
    %7: i32 = load %i
    %8: i32 = add %7, 1i
    store %i, %8
    next_iteration
  }
  %9: ptr<storage, f32, read_write> = access %data, %1
  %10: f32 = load %acc
  %11: i32 = convert %10
  %12: i32 = div %11, 3i
  %13: f32 = convert %12
  store %9, %13
  ret
}
`

var benchShaders = []struct {
	name   string
	source string
}{
	{"fragment", tintSource},
	{"compute", benchCompute},
}

func BenchmarkCompile(b *testing.B) {
	ctx := context.Background()
	opts := DefaultOptions()

	for _, sc := range benchShaders {
		for _, target := range Targets() {
			b.Run(sc.name+"/"+target.String(), func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(sc.source)))

				for b.Loop() {
					if _, err := Compile(ctx, sc.source, target, opts); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkParse(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchCompute)))

	for b.Loop() {
		if _, err := Parse(benchCompute); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkValidate(b *testing.B) {
	m, err := Parse(benchCompute)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()

	for b.Loop() {
		if err := Validate(m); err != nil {
			b.Fatal(err)
		}
	}
}
