package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shir/ir"
)

const pipelineSource = `%g: ptr<private, f32, read_write> = var

func %f(%a: f32, %b: i32) -> i32 {
  %p: ptr<private, f32, read_write> = let %g
  %1: f32 = load %p
  %2: f32 = add %1, %a
  store %p, %2
  %3: f32 = mul %a, %a
  phony %3
  %4: i32 = convert %a
  %5: i32 = div %4, %b
  ret %5
}
`

func TestManagerForTarget(t *testing.T) {
	for _, target := range []string{"wgsl", "hlsl", "msl", "spirv"} {
		t.Run(target, func(t *testing.T) {
			passes, err := ForTarget(target)
			require.NoError(t, err)

			m := parse(t, pipelineSource)
			report, err := NewManager(ManagerOptions{}, passes...).Run(context.Background(), m)
			require.NoError(t, err)
			require.Len(t, report.Passes, len(passes))
			for i, p := range passes {
				assert.Equal(t, p.Name(), report.Passes[i].Name)
			}
			requireValid(t, m)
		})
	}

	_, err := ForTarget("glsl")
	assert.Error(t, err)
}

func TestManagerReport(t *testing.T) {
	m := parse(t, pipelineSource)
	passes, err := ForTarget("spirv")
	require.NoError(t, err)

	report, err := NewManager(ManagerOptions{PrintIRAfterAll: true}, passes...).Run(context.Background(), m)
	require.NoError(t, err)

	names := make([]string, len(report.Passes))
	for i, s := range report.Passes {
		names[i] = s.Name
		assert.NotEmpty(t, s.IR)
	}
	assert.Equal(t, []string{"polyfill", "simplify_pointers", "remove_phonies"}, names)

	// polyfill adds two helpers, remove_phonies drops the pure phony chain.
	assert.Greater(t, report.Passes[0].InstructionsAfter, report.Passes[0].InstructionsBefore)
	assert.Less(t, report.Passes[2].InstructionsAfter, report.Passes[2].InstructionsBefore)
	assert.Equal(t, ir.Disassemble(m), report.Passes[2].IR)
}

// breakTerminators removes the terminator of every function.
type breakTerminators struct{}

func (breakTerminators) Name() string { return "break_terminators" }

func (breakTerminators) Run(ctx context.Context, m *ir.Module) error {
	for _, f := range m.Functions {
		ir.Destroy(f.Block.Back())
	}
	return nil
}

func TestManagerValidationFailure(t *testing.T) {
	m := parse(t, pipelineSource)
	_, err := NewManager(ManagerOptions{}, breakTerminators{}).Run(context.Background(), m)
	require.Error(t, err)

	var vf *ValidationFailure
	require.True(t, errors.As(err, &vf))
	assert.Equal(t, "break_terminators", vf.Pass)
	require.NotEmpty(t, vf.Errors)
	assert.Contains(t, vf.Error(), "module invalid after pass break_terminators")
	assert.Contains(t, vf.Error(), "block does not end with a terminator")
}

func TestManagerInvalidInput(t *testing.T) {
	m := parse(t, pipelineSource)
	ir.Destroy(m.Functions[0].Block.Back())

	report, err := NewManager(ManagerOptions{}, breakTerminators{}).Run(context.Background(), m)
	var vf *ValidationFailure
	require.True(t, errors.As(err, &vf))
	assert.Equal(t, "input", vf.Pass)
	assert.Empty(t, report.Passes)

	_, err = NewManager(ManagerOptions{SkipValidation: true}, breakTerminators{}).Run(context.Background(), m)
	assert.NoError(t, err)
}

func TestManagerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := parse(t, pipelineSource)
	passes, err := ForTarget("hlsl")
	require.NoError(t, err)

	report, err := NewManager(ManagerOptions{}, passes...).Run(ctx, m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, report.Passes)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"dce", "polyfill", "remove_phonies", "simplify_pointers", "value_to_let"}, Names())

	_, err := New("inline_everything", nil)
	assert.EqualError(t, err, `unknown pass "inline_everything"`)

	_, err = New("dce", Options{"aggressive": true})
	assert.Error(t, err)

	p, err := New("polyfill", Options{"int_div_mod": false})
	require.NoError(t, err)
	assert.Equal(t, PolyfillOptions{ConvF32ToIU32: true}, p.(*polyfillPass).opts)
}
