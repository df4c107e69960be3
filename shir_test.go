package shir

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shir/irtext"
	"github.com/gogpu/shir/spirv"
	"github.com/gogpu/shir/transform"
)

const tintSource = `%tint: ptr<private, vec4<f32>, read_write> = var

@fragment
func %fs(%c: vec4<f32> @location(0)) -> vec4<f32> @location(0) {
  %p: ptr<private, vec4<f32>, read_write> = let %tint
  %1: vec4<f32> = load %p
  %2: vec4<f32> = mul %c, %1
  %3: f32 = mul 2.0f, 3.0f
  phony %3
  ret %2
}
`

func TestParseTarget(t *testing.T) {
	tests := []struct {
		input string
		want  Target
	}{
		{"wgsl", TargetWGSL},
		{"HLSL", TargetHLSL},
		{" msl ", TargetMSL},
		{"spirv", TargetSPIRV},
		{"spv", TargetSPIRV},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := ParseTarget("glsl")
	assert.ErrorContains(t, err, `unknown target "glsl"`)

	for _, target := range Targets() {
		got, err := ParseTarget(target.String())
		require.NoError(t, err)
		assert.Equal(t, target, got)
	}
	assert.Equal(t, "Target(9)", Target(9).String())
	assert.True(t, TargetSPIRV.Binary())
	assert.False(t, TargetMSL.Binary())
}

func TestCompileAllTargets(t *testing.T) {
	for _, target := range Targets() {
		t.Run(target.String(), func(t *testing.T) {
			out, err := Compile(context.Background(), tintSource, target, DefaultOptions())
			require.NoError(t, err)
			require.NotEmpty(t, out)

			if target.Binary() {
				require.GreaterOrEqual(t, len(out), 20)
				assert.Equal(t, uint32(spirv.MagicNumber), binary.LittleEndian.Uint32(out))

				text, err := spirv.Disassemble(out)
				require.NoError(t, err)
				assert.Contains(t, text, `OpEntryPoint Fragment %fs "fs"`)
				return
			}
			assert.True(t, bytes.Contains(out, []byte("fs")), "%s", out)
		})
	}
}

func TestLowerReport(t *testing.T) {
	m, err := Parse(tintSource)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.PrintIRAfterAll = true
	report, err := Lower(context.Background(), m, TargetSPIRV, opts)
	require.NoError(t, err)

	names := make([]string, len(report.Passes))
	for i, p := range report.Passes {
		names[i] = p.Name
		assert.NotEmpty(t, p.IR, p.Name)
	}
	assert.Equal(t, []string{"polyfill", "simplify_pointers", "remove_phonies"}, names)
	require.NoError(t, Validate(m))
}

func TestLowerCustomPipeline(t *testing.T) {
	cfg, err := transform.ParseConfig([]byte("passes:\n  - name: value_to_let\n"), transform.FormatYAML)
	require.NoError(t, err)

	m, err := Parse(tintSource)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Pipeline = cfg
	report, err := Lower(context.Background(), m, TargetHLSL, opts)
	require.NoError(t, err)
	require.Len(t, report.Passes, 1)
	assert.Equal(t, "value_to_let", report.Passes[0].Name)

	opts.Pipeline = &transform.Config{Passes: []transform.PassConfig{{Name: "no_such_pass"}}}
	_, err = Lower(context.Background(), m, TargetHLSL, opts)
	assert.ErrorContains(t, err, `unknown pass "no_such_pass"`)
}

func TestCompileParseError(t *testing.T) {
	_, err := Compile(context.Background(), "func %f( {", TargetWGSL, DefaultOptions())
	require.Error(t, err)

	var se *irtext.SourceError
	assert.True(t, errors.As(err, &se), "want *irtext.SourceError, got %v", err)
}

func TestValidate(t *testing.T) {
	m, err := Parse(`func %f() -> i32 {
  ret 1.0f
}
`)
	require.NoError(t, err)

	err = Validate(m)
	var vf *transform.ValidationFailure
	require.True(t, errors.As(err, &vf), "want *transform.ValidationFailure, got %v", err)
	assert.Equal(t, "input", vf.Pass)
	assert.NotEmpty(t, vf.Errors)

	_, err = Compile(context.Background(), "func %f() -> i32 {\n  ret 1.0f\n}\n", TargetMSL, DefaultOptions())
	assert.True(t, errors.As(err, &vf))
}

func TestGenerateUnknownTarget(t *testing.T) {
	m, err := Parse(tintSource)
	require.NoError(t, err)

	_, err = Generate(m, Target(7), DefaultOptions())
	assert.ErrorContains(t, err, "unknown target")
}
