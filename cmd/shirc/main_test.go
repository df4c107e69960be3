package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shir/spirv"
)

const fragmentSource = `%tint: ptr<private, vec4<f32>, read_write> = var

@fragment
func %fs(%c: vec4<f32> @location(0)) -> vec4<f32> @location(0) {
  %1: vec4<f32> = load %tint
  %2: vec4<f32> = mul %c, %1
  ret %2
}
`

const invalidSource = `func %f() -> i32 {
  ret 1.0f
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"compile", "validate", "passes", "dis"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)
}

func TestCompileFlags(t *testing.T) {
	cmd := newRootCommand()
	compile, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)

	for flag, def := range map[string]string{
		"target":        "spirv",
		"output":        "",
		"config":        "",
		"spirv-version": "1.3",
		"shader-model":  "5_1",
		"msl-version":   "2.1",
	} {
		f := compile.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestCompileTextTargets(t *testing.T) {
	input := writeFile(t, "tint.shir", fragmentSource)

	tests := []struct {
		target string
		want   string
	}{
		{"wgsl", "@fragment"},
		{"hlsl", "SV_Target0"},
		{"msl", "fragment "},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			out, _, err := run(t, "compile", "-t", tt.target, input)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestCompileSPIRVToFile(t *testing.T) {
	input := writeFile(t, "tint.shir", fragmentSource)
	output := filepath.Join(t.TempDir(), "tint.spv")

	_, stderr, err := run(t, "-v", "compile", "--spirv-version", "1.4", "--stats", "-o", output, input)
	require.NoError(t, err)
	assert.Contains(t, stderr, "polyfill")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 20)
	assert.Equal(t, uint32(spirv.MagicNumber), binary.LittleEndian.Uint32(data))
	assert.Equal(t, uint32(0x00010400), binary.LittleEndian.Uint32(data[4:]))

	out, _, err := run(t, "dis", output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "; SPIR-V\n; Version: 1.4\n"), out)
	assert.Contains(t, out, `OpEntryPoint Fragment %fs "fs"`)
}

func TestCompileConfig(t *testing.T) {
	input := writeFile(t, "tint.shir", fragmentSource)

	yamlConfig := writeFile(t, "pipeline.yaml", "print_ir_after_all: true\npasses:\n  - name: value_to_let\n")
	_, stderr, err := run(t, "compile", "-t", "wgsl", "-c", yamlConfig, input)
	require.NoError(t, err)
	assert.Contains(t, stderr, "; after value_to_let\n")

	tomlConfig := writeFile(t, "pipeline.toml", "[[passes]]\nname = \"no_such_pass\"\n")
	_, _, err = run(t, "compile", "-t", "wgsl", "-c", tomlConfig, input)
	assert.ErrorContains(t, err, `unknown pass "no_such_pass"`)
}

func TestCompileErrors(t *testing.T) {
	input := writeFile(t, "tint.shir", fragmentSource)

	_, _, err := run(t, "compile", "-t", "glsl", input)
	assert.ErrorContains(t, err, `unknown target "glsl"`)

	_, _, err = run(t, "compile", "--shader-model", "7.0", "-t", "hlsl", input)
	assert.ErrorContains(t, err, `bad shader model "7.0"`)

	_, _, err = run(t, "compile", "--spirv-version", "1", input)
	assert.ErrorContains(t, err, `bad SPIR-V version "1"`)

	_, _, err = run(t, "compile", filepath.Join(t.TempDir(), "missing.shir"))
	assert.ErrorContains(t, err, "read input")

	_, _, err = run(t, "compile")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	good := writeFile(t, "good.shir", fragmentSource)
	bad := writeFile(t, "bad.shir", invalidSource)

	out, _, err := run(t, "validate", good)
	require.NoError(t, err)
	assert.Equal(t, good+": ok\n", out)

	out, _, err = run(t, "validate", good, bad)
	assert.ErrorContains(t, err, "1 of 2 modules are invalid")
	assert.Contains(t, out, good+": ok\n")
	assert.Contains(t, out, bad+": invalid input module")
}

func TestPasses(t *testing.T) {
	out, _, err := run(t, "passes")
	require.NoError(t, err)
	for _, name := range []string{"polyfill", "remove_phonies", "simplify_pointers", "value_to_let"} {
		assert.Contains(t, out, name+"\n")
	}

	out, _, err = run(t, "passes", "-t", "hlsl")
	require.NoError(t, err)
	assert.Equal(t, "polyfill\nsimplify_pointers\nremove_phonies\nvalue_to_let\n", out)

	_, _, err = run(t, "passes", "-t", "glsl")
	assert.Error(t, err)
}

func TestDisIR(t *testing.T) {
	input := writeFile(t, "tint.shir", fragmentSource)

	out, _, err := run(t, "dis", input)
	require.NoError(t, err)
	assert.Equal(t, fragmentSource, out)

	out, _, err = run(t, "dis", "--lower", "wgsl", input)
	require.NoError(t, err)
	assert.Contains(t, out, "func %fs(")

	spv := filepath.Join(t.TempDir(), "tint.spv")
	_, _, err = run(t, "compile", "-o", spv, input)
	require.NoError(t, err)
	_, _, err = run(t, "dis", "--lower", "msl", spv)
	assert.ErrorContains(t, err, "--lower does not apply to SPIR-V input")
}
